package risk

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSharpeRatio(t *testing.T) {
	tests := []struct {
		name    string
		returns []float64
		rf      float64
		want    float64
	}{
		{"empty", nil, DefaultRiskFreeRate, 0},
		{"flat_series", []float64{0.01, 0.01, 0.01}, DefaultRiskFreeRate, 0},
		// mean 0.03, population sd 0.01
		{"known_values", []float64{0.02, 0.04}, DefaultRiskFreeRate, 1},
		{"zero_rate", []float64{0.02, 0.04}, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SharpeRatio(tt.returns, tt.rf); !almostEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSortinoRatio(t *testing.T) {
	if got := SortinoRatio([]float64{0.01, 0.02}, 0); got != 0 {
		t.Errorf("expected 0 without losses, got %v", got)
	}
	// mean 0, downside sqrt(0.0004/2)
	got := SortinoRatio([]float64{0.02, -0.02}, 0)
	if !almostEqual(got, 0) {
		t.Errorf("expected 0, got %v", got)
	}
	got = SortinoRatio([]float64{0.06, -0.02}, 0)
	want := 0.02 / math.Sqrt(0.0002)
	if !almostEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestBeta(t *testing.T) {
	tests := []struct {
		name      string
		portfolio []float64
		market    []float64
		want      float64
	}{
		{"empty", nil, nil, 1},
		{"length_mismatch", []float64{0.1, 0.2}, []float64{0.1}, 1},
		{"flat_market", []float64{0.1, 0.2}, []float64{0.05, 0.05}, 1},
		{"double_the_market", []float64{0.02, -0.04, 0.06}, []float64{0.01, -0.02, 0.03}, 2},
		{"inverse", []float64{-0.01, 0.01}, []float64{0.01, -0.01}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Beta(tt.portfolio, tt.market); !almostEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"peak_120_trough_60", []float64{100, 90, 120, 60}, 50},
		{"monotonic_rise", []float64{1, 2, 3}, 0},
		{"zero_seed", []float64{0, 0, 200, 150}, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxDrawdown(tt.values); !almostEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestValueAtRisk(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if got := ValueAtRisk(nil, DefaultConfidenceLevel); got != 0 {
			t.Errorf("expected 0, got %v", got)
		}
	})

	t.Run("five_returns", func(t *testing.T) {
		if got := ValueAtRisk([]float64{-5, -2, 0, 1, 3}, 0.95); got != 5 {
			t.Errorf("expected 5, got %v", got)
		}
	})

	t.Run("does_not_reorder_input", func(t *testing.T) {
		returns := []float64{3, -5, 1}
		ValueAtRisk(returns, 0.95)
		if returns[0] != 3 || returns[1] != -5 {
			t.Errorf("input was reordered: %v", returns)
		}
	})

	t.Run("index_out_of_range", func(t *testing.T) {
		if got := ValueAtRisk([]float64{-1, 2}, -1); got != 0 {
			t.Errorf("expected 0, got %v", got)
		}
	})

	t.Run("deeper_tail", func(t *testing.T) {
		returns := []float64{-0.09, -0.03, -0.01, 0.00, 0.01, 0.02, 0.02, 0.03, 0.04, 0.05}
		// floor(0.25 * 10) = 2
		if got := ValueAtRisk(returns, 0.75); !almostEqual(got, 0.01) {
			t.Errorf("expected 0.01, got %v", got)
		}
	})
}

func TestReturns(t *testing.T) {
	got := Returns([]float64{0, 100, 110, 99})
	want := []float64{0.1, -0.1}
	if len(got) != len(want) {
		t.Fatalf("expected %d returns, got %v", len(want), got)
	}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("return %d: expected %v, got %v", i, want[i], got[i])
		}
	}

	if got := Returns([]float64{5}); len(got) != 0 {
		t.Errorf("expected no returns, got %v", got)
	}
}

func TestVolatility(t *testing.T) {
	if Volatility(nil) != 0 {
		t.Error("expected 0 volatility for empty input")
	}
	got := Volatility([]float64{0.01, -0.01})
	want := 0.01 * math.Sqrt(252) * 100
	if !almostEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestAlpha(t *testing.T) {
	tests := []struct {
		name      string
		portfolio []float64
		market    []float64
		rf        float64
		want      float64
	}{
		{"empty", nil, nil, DefaultRiskFreeRate, 0},
		{"length_mismatch", []float64{0.01, 0.02}, []float64{0.01}, DefaultRiskFreeRate, 0},
		// flat market: beta 1, alpha = mean(p) - mean(m)
		{"flat_market", []float64{0.01, 0.03}, []float64{0.01, 0.01}, 0, 0.01 * TradingDays * 100},
		// p = 2m tracks the market exactly: beta 2, no alpha without a rate
		{"levered_market", []float64{0.02, -0.02}, []float64{0.01, -0.01}, 0, 0},
		{"rate_only", []float64{0.01, -0.01}, []float64{0.01, -0.01}, 0.0252, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Alpha(tt.portfolio, tt.market, tt.rf); !almostEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAnnualizedReturn(t *testing.T) {
	tests := []struct {
		name    string
		returns []float64
		want    float64
	}{
		{"empty", nil, 0},
		{"flat", []float64{0, 0, 0}, 0},
		{"wiped_out", []float64{0.1, -1}, -100},
		// a full year of periods is the plain compounded return
		{"one_year", repeat(0.001, TradingDays), (math.Pow(1.001, TradingDays) - 1) * 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AnnualizedReturn(tt.returns); !almostEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if got := AnnualizedReturn([]float64{1000}); got != 0 {
		t.Errorf("expected overflow to give 0, got %v", got)
	}
}

func TestInformationRatio(t *testing.T) {
	tests := []struct {
		name      string
		portfolio []float64
		market    []float64
		want      float64
	}{
		{"empty", nil, nil, 0},
		{"length_mismatch", []float64{0.01}, []float64{0.01, 0.02}, 0},
		{"constant_excess", []float64{0.5, 0.75}, []float64{0.25, 0.5}, 0},
		// excess 0.01 and 0.03: mean 0.02, sd 0.01
		{"known_values", []float64{0.02, 0.05}, []float64{0.01, 0.02}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InformationRatio(tt.portfolio, tt.market); !almostEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestCompute(t *testing.T) {
	t.Run("derives_returns_from_values", func(t *testing.T) {
		m := Compute(Input{Values: []float64{0, 100, 90, 120, 60}})

		if m.Observations != 3 {
			t.Errorf("expected 3 observations, got %d", m.Observations)
		}
		if !almostEqual(m.MaxDrawdown, 50) {
			t.Errorf("expected drawdown 50, got %v", m.MaxDrawdown)
		}
		if m.Beta != 1 {
			t.Errorf("expected neutral beta without market, got %v", m.Beta)
		}
		if !almostEqual(m.VaR, 0.5) {
			t.Errorf("expected VaR 0.5, got %v", m.VaR)
		}
	})

	t.Run("explicit_returns_and_rate", func(t *testing.T) {
		zero := 0.0
		m := Compute(Input{Returns: []float64{0.02, 0.04}, RiskFreeRate: &zero})
		if !almostEqual(m.SharpeRatio, 3) {
			t.Errorf("expected sharpe 3, got %v", m.SharpeRatio)
		}
	})

	t.Run("against_market", func(t *testing.T) {
		zero := 0.0
		m := Compute(Input{
			Returns:       []float64{0.02, 0.05},
			MarketReturns: []float64{0.01, 0.02},
			RiskFreeRate:  &zero,
		})
		if !almostEqual(m.InformationRatio, 2) {
			t.Errorf("expected information ratio 2, got %v", m.InformationRatio)
		}
		if !almostEqual(m.Beta, 3) {
			t.Errorf("expected beta 3, got %v", m.Beta)
		}
		// 0.035 - 3 * 0.015
		if want := -0.01 * TradingDays * 100; !almostEqual(m.Alpha, want) {
			t.Errorf("expected alpha %v, got %v", want, m.Alpha)
		}
		if m.AnnualizedReturn <= 0 {
			t.Errorf("expected positive annualized return, got %v", m.AnnualizedReturn)
		}
	})

	t.Run("empty_input_is_neutral", func(t *testing.T) {
		m := Compute(Input{})
		if m.SharpeRatio != 0 || m.Beta != 1 || m.MaxDrawdown != 0 || m.VaR != 0 || m.Volatility != 0 {
			t.Errorf("unexpected metrics %+v", m)
		}
		if m.Alpha != 0 || m.AnnualizedReturn != 0 || m.InformationRatio != 0 {
			t.Errorf("unexpected benchmark metrics %+v", m)
		}
	})
}
