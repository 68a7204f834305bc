package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"valuator/internal/client"
	"valuator/internal/engine"
)

// Same-day trades recorded out of time-of-day order must value the same
// through the API and through the CLI fetch path.
func TestClientFlow_MatchesAPIHistory(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "client@test.com", "password123")
	portfolioID := app.createPortfolio(t, token, "Intraday")

	day := daysAgo(1)
	app.trade(t, token, portfolioID, "AAPL", "BUY", "10", "10", day+"T08:00:00Z")
	app.trade(t, token, portfolioID, "AAPL", "SELL", "10", "12", day+"T15:00:00Z")
	app.trade(t, token, portfolioID, "AAPL", "BUY", "10", "30", day+"T09:00:00Z")

	rec := app.request("GET", "/api/v1/portfolios/"+portfolioID+"/history?timeframe=1W", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 getting history, got %d: %s", rec.Code, rec.Body.String())
	}
	series := parseJSON(t, rec)["series"].([]interface{})
	apiFinal := series[len(series)-1].(map[string]interface{})["value"].(float64)
	if apiFinal != 300 {
		t.Errorf("expected API final value 300, got %v", apiFinal)
	}

	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	c := client.New(srv.URL, token, client.Options{})
	records, err := c.FetchPortfolio(context.Background(), portfolioID)
	if err != nil {
		t.Fatalf("unexpected error fetching portfolio: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	today := engine.CalendarDate(time.Now().UTC())
	v, err := engine.Valuate(records, "1W", today, engine.Options{})
	if err != nil {
		t.Fatalf("unexpected error valuating: %v", err)
	}
	if got := v.Series[len(v.Series)-1].Value; got != apiFinal {
		t.Errorf("expected client valuation %v to match API, got %v", apiFinal, got)
	}
}
