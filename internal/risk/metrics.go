package risk

// Input is what Compute needs. Nil RiskFreeRate or ConfidenceLevel fall back
// to the package defaults.
type Input struct {
	Values          []float64 `json:"values"`
	Returns         []float64 `json:"returns,omitempty"`
	MarketReturns   []float64 `json:"market_returns,omitempty"`
	RiskFreeRate    *float64  `json:"risk_free_rate,omitempty"`
	ConfidenceLevel *float64  `json:"confidence_level,omitempty"`
}

// Metrics is a full set of risk statistics for one series. Volatility, Alpha
// and AnnualizedReturn are annualized percentages.
type Metrics struct {
	SharpeRatio      float64 `json:"sharpeRatio"`
	SortinoRatio     float64 `json:"sortinoRatio"`
	Beta             float64 `json:"beta"`
	MaxDrawdown      float64 `json:"maxDrawdown"`
	VaR              float64 `json:"var"`
	Volatility       float64 `json:"volatility"`
	Alpha            float64 `json:"alpha"`
	AnnualizedReturn float64 `json:"annualizedReturn"`
	InformationRatio float64 `json:"informationRatio"`
	Observations     int     `json:"observations"`
}

// Compute derives every metric. Returns are taken from in.Returns when set,
// otherwise from in.Values.
func Compute(in Input) Metrics {
	rf := DefaultRiskFreeRate
	if in.RiskFreeRate != nil {
		rf = *in.RiskFreeRate
	}
	cl := DefaultConfidenceLevel
	if in.ConfidenceLevel != nil {
		cl = *in.ConfidenceLevel
	}

	returns := in.Returns
	if len(returns) == 0 {
		returns = Returns(in.Values)
	}

	return Metrics{
		SharpeRatio:      SharpeRatio(returns, rf),
		SortinoRatio:     SortinoRatio(returns, rf),
		Beta:             Beta(returns, in.MarketReturns),
		MaxDrawdown:      MaxDrawdown(in.Values),
		VaR:              ValueAtRisk(returns, cl),
		Volatility:       Volatility(returns),
		Alpha:            Alpha(returns, in.MarketReturns, rf),
		AnnualizedReturn: AnnualizedReturn(returns),
		InformationRatio: InformationRatio(returns, in.MarketReturns),
		Observations:     len(returns),
	}
}
