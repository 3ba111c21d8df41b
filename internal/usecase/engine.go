package usecase

import (
	"time"

	"github.com/vitos/box_theory_bot/internal/domain"
)

// Signal is the engine's entry decision for one bar.
type Signal string

const (
	SignalNone Signal = "NO TRADE"
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
)

// Engine evaluates the box-theory entry and exit rules. It is pure: the
// position state goes in and decisions come out, nothing is mutated.
type Engine struct {
	cfg StrategyConfig
}

func NewEngine(cfg StrategyConfig) *Engine {
	return &Engine{cfg: cfg}
}

// EvaluateEntry decides whether the bar opens a position. A non-nil position
// always yields SignalNone: at most one position is open at a time.
// The sell threshold is checked first, matching the original evaluation
// order when both levels coincide on a zero-range box.
func (e *Engine) EvaluateEntry(pos *domain.Position, bar domain.Candle, th domain.Thresholds) Signal {
	if pos != nil {
		return SignalNone
	}
	if e.cfg.AllowShort && bar.Open >= th.Sell {
		return SignalSell
	}
	if bar.Open <= th.Buy {
		if e.cfg.RequireUpTick && bar.Close <= bar.Open {
			return SignalNone
		}
		return SignalBuy
	}
	return SignalNone
}

// CheckExit reports whether the close price triggers take-profit or
// stop-loss for the held position.
func (e *Engine) CheckExit(pos *domain.Position, closePrice float64) (domain.CloseReason, bool) {
	if pos == nil {
		return "", false
	}
	takeProfit := pos.EntryPrice * (1 + e.cfg.TakeProfitPct)
	stopLoss := pos.EntryPrice * (1 - e.cfg.StopLossPct)
	switch {
	case closePrice >= takeProfit:
		return domain.CloseTakeProfit, true
	case closePrice <= stopLoss:
		return domain.CloseStopLoss, true
	}
	return "", false
}

// OpenPosition builds the state for a filled entry.
func (e *Engine) OpenPosition(side domain.Side, fillPrice, quantity float64, entryTime time.Time) *domain.Position {
	return &domain.Position{
		Symbol:     e.cfg.Symbol,
		Side:       side,
		EntryPrice: fillPrice,
		Quantity:   quantity,
		EntryTime:  entryTime,
	}
}

// RealizedPnL computes round-trip profit for a closed position.
func RealizedPnL(side domain.Side, entryPrice, exitPrice, quantity float64) float64 {
	if side == domain.SideShort {
		return (entryPrice - exitPrice) * quantity
	}
	return (exitPrice - entryPrice) * quantity
}
