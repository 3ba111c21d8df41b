package usecase

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/vitos/box_theory_bot/internal/domain"
)

// affordableFraction caps an entry at 98% of the quote balance, leaving a
// buffer for fees and slippage.
const affordableFraction = 0.98

// Sizer computes order quantities under the configured risk budget.
type Sizer struct {
	cfg StrategyConfig
}

func NewSizer(cfg StrategyConfig) *Sizer {
	return &Sizer{cfg: cfg}
}

// QuantityFor sizes an entry at price given the available quote balance:
// the risk budget divided by the stop-loss distance, capped at what the
// balance affords, floored to the instrument precision. Returns a
// SizingRejectedError when the resulting notional is below the minimum.
func (s *Sizer) QuantityFor(balance, price float64) (float64, error) {
	riskAmount := balance * s.cfg.RiskPct
	rawQty := riskAmount / (price * s.cfg.StopLossPct)
	affordableQty := balance * affordableFraction / price

	qty := FloorQuantity(math.Min(rawQty, affordableQty), s.cfg.QuantityPrecision)
	if qty*price < s.cfg.MinNotional {
		return 0, &domain.SizingRejectedError{
			Quantity:    qty,
			Price:       price,
			MinNotional: s.cfg.MinNotional,
		}
	}
	return qty, nil
}

// FloorQuantity truncates a quantity down to the given number of decimal
// places. Rounding down, never up, keeps orders inside the balance and the
// instrument's lot step.
func FloorQuantity(qty float64, precision int) float64 {
	f, _ := decimal.NewFromFloat(qty).RoundDown(int32(precision)).Float64()
	return f
}
