package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitos/box_theory_bot/internal/domain"
)

func backtestConfig() StrategyConfig {
	cfg := DefaultStrategyConfig("SOLUSDT")
	cfg.AllowShort = true
	return cfg
}

func TestRunDailyShortSameBarClose(t *testing.T) {
	bt := NewBacktester(backtestConfig(), 1)

	// Box from bar 0 is high=12 low=10, sell level 11.8. Bar 1 opens at 11.9
	// and is force-closed at 11.5 the same bar.
	candles := []domain.Candle{
		{OpenTime: day(1, 0), Open: 10.5, High: 12, Low: 10, Close: 11},
		{OpenTime: day(2, 0), Open: 11.9, High: 12.1, Low: 11.3, Close: 11.5},
	}

	res := bt.RunDaily(candles)
	require.Len(t, res.Executed, 1)

	trade := res.Executed[0]
	assert.Equal(t, SignalSell, trade.Signal)
	assert.Equal(t, 11.9, trade.Entry)
	assert.Equal(t, 11.5, trade.Exit)
	assert.InDelta(t, 0.4, trade.PnL, 1e-9)
	assert.InDelta(t, 0.4, res.CumulativePnL, 1e-9)
}

func TestRunDailyLongAndNoTradeRows(t *testing.T) {
	bt := NewBacktester(backtestConfig(), 2)

	candles := []domain.Candle{
		{OpenTime: day(1, 0), Open: 10.5, High: 12, Low: 10, Close: 11},
		// Open 10.1 <= buy level 10.2: long, closed at 10.6.
		{OpenTime: day(2, 0), Open: 10.1, High: 10.8, Low: 10.0, Close: 10.6},
		// Open inside the new box: no trade, still reported.
		{OpenTime: day(3, 0), Open: 10.4, High: 10.7, Low: 10.2, Close: 10.5},
	}

	res := bt.RunDaily(candles)
	require.Len(t, res.Trades, 2)
	require.Len(t, res.Executed, 1)

	assert.Equal(t, SignalBuy, res.Executed[0].Signal)
	assert.InDelta(t, 1.0, res.Executed[0].PnL, 1e-9) // (10.6-10.1)*2
	assert.Equal(t, SignalNone, res.Trades[1].Signal)
	assert.Equal(t, 0.0, res.Trades[1].PnL)
}

func TestRunIntradayNextBarExit(t *testing.T) {
	bt := NewBacktester(backtestConfig(), 1)

	candles := []domain.Candle{
		// Day 1 builds the box: high=12, low=10.
		{OpenTime: day(1, 0), Open: 11, High: 12, Low: 10, Close: 11},
		{OpenTime: day(1, 12), Open: 11, High: 11.5, Low: 10.5, Close: 11},
		// Day 2: first bar enters short at 11.9, second bar's close exits.
		{OpenTime: day(2, 0), Open: 11.9, High: 12, Low: 11.4, Close: 11.6},
		{OpenTime: day(2, 1), Open: 11.6, High: 11.7, Low: 11.2, Close: 11.3},
		// Flat again afterwards; no further signal inside the box.
		{OpenTime: day(2, 2), Open: 11.0, High: 11.1, Low: 10.9, Close: 11.0},
	}

	res := bt.RunIntraday(candles)
	require.Len(t, res.Executed, 1)

	trade := res.Executed[0]
	assert.Equal(t, Signal(domain.SideShort), trade.Signal)
	assert.Equal(t, 11.9, trade.Entry)
	assert.Equal(t, 11.3, trade.Exit)
	assert.InDelta(t, 0.6, trade.PnL, 1e-9)
}

func TestRunIntradaySkipsFirstDay(t *testing.T) {
	bt := NewBacktester(backtestConfig(), 1)

	// Only one day of data: nothing has a box, nothing trades.
	candles := []domain.Candle{
		{OpenTime: day(1, 0), Open: 9.0, High: 12, Low: 10, Close: 11},
		{OpenTime: day(1, 1), Open: 12.5, High: 13, Low: 12, Close: 12.6},
	}

	res := bt.RunIntraday(candles)
	assert.Empty(t, res.Executed)
	assert.Zero(t, res.CumulativePnL)
}

func TestRunDailyIdempotentOnNoSignals(t *testing.T) {
	bt := NewBacktester(backtestConfig(), 1)

	candles := []domain.Candle{
		{OpenTime: day(1, 0), Open: 10.5, High: 12, Low: 10, Close: 11},
		{OpenTime: day(2, 0), Open: 11.0, High: 11.5, Low: 10.5, Close: 11.2},
	}

	first := bt.RunDaily(candles)
	second := bt.RunDaily(candles)
	assert.Equal(t, first, second)
	assert.Empty(t, first.Executed)
}
