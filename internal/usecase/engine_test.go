package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vitos/box_theory_bot/internal/domain"
)

func TestEvaluateEntry(t *testing.T) {
	th := domain.Thresholds{Buy: 10.2, Sell: 11.8}

	tests := []struct {
		name       string
		cfg        StrategyConfig
		bar        domain.Candle
		pos        *domain.Position
		wantSignal Signal
	}{
		{
			name:       "open in buy zone",
			cfg:        StrategyConfig{AllowShort: true},
			bar:        domain.Candle{Open: 10.1, Close: 10.0},
			wantSignal: SignalBuy,
		},
		{
			name:       "open in sell zone",
			cfg:        StrategyConfig{AllowShort: true},
			bar:        domain.Candle{Open: 11.9, Close: 11.5},
			wantSignal: SignalSell,
		},
		{
			name:       "open inside box",
			cfg:        StrategyConfig{AllowShort: true},
			bar:        domain.Candle{Open: 11.0, Close: 11.5},
			wantSignal: SignalNone,
		},
		{
			name:       "short disabled ignores sell zone",
			cfg:        StrategyConfig{},
			bar:        domain.Candle{Open: 11.9, Close: 11.5},
			wantSignal: SignalNone,
		},
		{
			name:       "up-tick filter rejects down bar",
			cfg:        StrategyConfig{RequireUpTick: true},
			bar:        domain.Candle{Open: 10.1, Close: 10.05},
			wantSignal: SignalNone,
		},
		{
			name:       "up-tick filter accepts up bar",
			cfg:        StrategyConfig{RequireUpTick: true},
			bar:        domain.Candle{Open: 10.1, Close: 10.15},
			wantSignal: SignalBuy,
		},
		{
			name:       "entry signal while positioned is a no-op",
			cfg:        StrategyConfig{AllowShort: true},
			bar:        domain.Candle{Open: 10.1, Close: 10.2},
			pos:        &domain.Position{Side: domain.SideLong, EntryPrice: 10, Quantity: 1},
			wantSignal: SignalNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(tt.cfg)
			assert.Equal(t, tt.wantSignal, engine.EvaluateEntry(tt.pos, tt.bar, th))
		})
	}
}

func TestEvaluateEntryDegenerateBox(t *testing.T) {
	// Collapsed levels must evaluate consistently, not panic. The sell side
	// wins when the open sits exactly on both levels.
	engine := NewEngine(StrategyConfig{AllowShort: true})
	th := domain.Thresholds{Buy: 10, Sell: 10}

	assert.Equal(t, SignalSell, engine.EvaluateEntry(nil, domain.Candle{Open: 10, Close: 10}, th))
	assert.Equal(t, SignalNone, NewEngine(StrategyConfig{}).EvaluateEntry(nil, domain.Candle{Open: 10.5, Close: 10.5}, th))
}

func TestCheckExit(t *testing.T) {
	engine := NewEngine(StrategyConfig{TakeProfitPct: 0.01, StopLossPct: 0.005})
	pos := &domain.Position{Side: domain.SideLong, EntryPrice: 10, Quantity: 5}

	reason, ok := engine.CheckExit(pos, 10.1)
	assert.True(t, ok)
	assert.Equal(t, domain.CloseTakeProfit, reason)
	assert.InDelta(t, 0.5, RealizedPnL(pos.Side, pos.EntryPrice, 10.1, pos.Quantity), 1e-9)

	reason, ok = engine.CheckExit(pos, 9.95)
	assert.True(t, ok)
	assert.Equal(t, domain.CloseStopLoss, reason)
	assert.InDelta(t, -0.25, RealizedPnL(pos.Side, pos.EntryPrice, 9.95, pos.Quantity), 1e-9)

	_, ok = engine.CheckExit(pos, 10.05)
	assert.False(t, ok)

	_, ok = engine.CheckExit(nil, 10.2)
	assert.False(t, ok)
}

func TestRealizedPnLShort(t *testing.T) {
	assert.InDelta(t, 0.4, RealizedPnL(domain.SideShort, 11.9, 11.5, 1), 1e-9)
	assert.InDelta(t, -0.4, RealizedPnL(domain.SideShort, 11.5, 11.9, 1), 1e-9)
}
