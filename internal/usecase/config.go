package usecase

// StrategyConfig unifies the knobs that used to differ between the bot
// variants: dry-run vs live, fixed vs fetched precision, long-only vs
// long/short.
type StrategyConfig struct {
	Symbol string

	// DryRun simulates order placement; fills are taken from the candle
	// instead of the exchange.
	DryRun bool

	// AllowShort enables short entries at the sell threshold. The live bot
	// runs long-only; backtests allow both.
	AllowShort bool

	// RequireUpTick demands close > open on the entry bar (live-bot filter).
	RequireUpTick bool

	RiskPct        float64
	StopLossPct    float64
	TakeProfitPct  float64
	BottomFraction float64
	TopFraction    float64

	// MinNotional and QuantityPrecision come from exchange metadata when
	// available, otherwise from fixed overrides.
	MinNotional       float64
	QuantityPrecision int
}

// DefaultStrategyConfig returns the parameters the bot variants shipped with.
func DefaultStrategyConfig(symbol string) StrategyConfig {
	return StrategyConfig{
		Symbol:            symbol,
		RiskPct:           0.01,
		StopLossPct:       0.005,
		TakeProfitPct:     0.01,
		BottomFraction:    0.1,
		TopFraction:       0.9,
		MinNotional:       10.0,
		QuantityPrecision: 2,
	}
}
