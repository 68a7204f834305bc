// Package export renders valuations as spreadsheets.
package export

import (
	"errors"
	"fmt"

	"valuator/internal/engine"
	"valuator/internal/logger"

	"github.com/xuri/excelize/v2"
)

const (
	// ContentTypeXLSX is the MIME type of the workbook.
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	historySheet    = "History"
	allocationSheet = "Allocation"
)

// ErrEmptyValuation is returned when there is nothing to write.
var ErrEmptyValuation = errors.New("valuation has no series")

// WorkbookXLSX writes the series and allocation of v as a two-sheet workbook.
func WorkbookXLSX(title string, v *engine.Valuation) ([]byte, error) {
	if v == nil || len(v.Series) == 0 {
		return nil, ErrEmptyValuation
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Get().Errorw("Failed to close workbook", "error", err)
		}
	}()

	header, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#cfe2f3"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, fmt.Errorf("failed to create number style: %w", err)
	}

	if err := writeHistory(f, title, v, header, money); err != nil {
		return nil, err
	}
	if err := writeAllocation(f, v, header, money); err != nil {
		return nil, err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		logger.Get().Warnw("Failed to delete default sheet", "error", err)
	}
	if idx, err := f.GetSheetIndex(historySheet); err == nil {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHistory(f *excelize.File, title string, v *engine.Valuation, header, money int) error {
	if _, err := f.NewSheet(historySheet); err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", historySheet, err)
	}

	if err := f.MergeCell(historySheet, "A1", "B1"); err != nil {
		return err
	}
	_ = f.SetCellStr(historySheet, "A1", fmt.Sprintf("%s (%s, %s to %s)", title, v.Timeframe, v.StartDate, v.EndDate))
	_ = f.SetCellStr(historySheet, "A2", "Date")
	_ = f.SetCellStr(historySheet, "B2", "Cost basis")
	if err := f.SetCellStyle(historySheet, "A1", "B2", header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	// the seed point shares its date with the first day; keep both rows
	for i, p := range v.Series {
		row := i + 3
		_ = f.SetCellStr(historySheet, cell("A", row), p.Date.Format(engine.DateLayout))
		_ = f.SetCellFloat(historySheet, cell("B", row), p.Value, 2, 64)
	}
	last := len(v.Series) + 2
	if err := f.SetCellStyle(historySheet, "B3", cell("B", last), money); err != nil {
		return err
	}
	return f.SetColWidth(historySheet, "A", "B", 16)
}

func writeAllocation(f *excelize.File, v *engine.Valuation, header, money int) error {
	if _, err := f.NewSheet(allocationSheet); err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", allocationSheet, err)
	}

	_ = f.SetCellStr(allocationSheet, "A1", "Symbol")
	_ = f.SetCellStr(allocationSheet, "B1", "Cost basis")
	_ = f.SetCellStr(allocationSheet, "C1", "Weight %")
	if err := f.SetCellStyle(allocationSheet, "A1", "C1", header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, e := range v.Allocation {
		row := i + 2
		_ = f.SetCellStr(allocationSheet, cell("A", row), e.Name)
		_ = f.SetCellFloat(allocationSheet, cell("B", row), e.Value, 2, 64)
		_ = f.SetCellFloat(allocationSheet, cell("C", row), e.Percentage, 2, 64)
	}
	if n := len(v.Allocation); n > 0 {
		if err := f.SetCellStyle(allocationSheet, "B2", cell("C", n+1), money); err != nil {
			return err
		}
	}

	summary := len(v.Allocation) + 3
	_ = f.SetCellStr(allocationSheet, cell("A", summary), "Herfindahl index")
	_ = f.SetCellFloat(allocationSheet, cell("B", summary), v.Concentration.Herfindahl, 4, 64)
	_ = f.SetCellStr(allocationSheet, cell("A", summary+1), "Diversification")
	_ = f.SetCellFloat(allocationSheet, cell("B", summary+1), v.Concentration.Diversification, 4, 64)
	return f.SetColWidth(allocationSheet, "A", "C", 18)
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
