package usecase

import (
	"time"

	"github.com/vitos/box_theory_bot/internal/domain"
)

// BacktestTrade is one report row: {Date, Signal, Entry, Exit, P&L}.
// Daily mode also emits NO TRADE rows so the report covers every bar.
type BacktestTrade struct {
	Time   time.Time
	Signal Signal
	Entry  float64
	Exit   float64
	PnL    float64
}

type BacktestResult struct {
	Trades        []BacktestTrade
	Executed      []BacktestTrade
	CumulativePnL float64
}

// Backtester replays the box strategy over historical candles with a fixed
// trade size per entry.
type Backtester struct {
	evaluator *BoxEvaluator
	engine    *Engine
	cfg       StrategyConfig
	tradeSize float64
}

func NewBacktester(cfg StrategyConfig, tradeSize float64) *Backtester {
	return &Backtester{
		evaluator: NewBoxEvaluator(),
		engine:    NewEngine(cfg),
		cfg:       cfg,
		tradeSize: tradeSize,
	}
}

// RunDaily backtests same-bar mode: each bar's box is the previous bar,
// entries key on the open alone, and every position is force-closed at the
// same bar's close.
func (b *Backtester) RunDaily(candles []domain.Candle) *BacktestResult {
	res := &BacktestResult{}
	for i := 1; i < len(candles); i++ {
		box, err := b.evaluator.ComputeBox(candles[i-1 : i])
		if err != nil {
			continue
		}
		th := b.evaluator.ComputeThresholds(box, b.cfg.BottomFraction, b.cfg.TopFraction)

		bar := candles[i]
		sig := b.engine.EvaluateEntry(nil, bar, th)
		row := BacktestTrade{Time: bar.OpenTime, Signal: sig, Entry: bar.Open, Exit: bar.Close}
		switch sig {
		case SignalBuy:
			row.PnL = RealizedPnL(domain.SideLong, bar.Open, bar.Close, b.tradeSize)
		case SignalSell:
			row.PnL = RealizedPnL(domain.SideShort, bar.Open, bar.Close, b.tradeSize)
		}

		res.CumulativePnL += row.PnL
		res.Trades = append(res.Trades, row)
		if sig != SignalNone {
			res.Executed = append(res.Executed, row)
		}
	}
	return res
}

// RunIntraday backtests next-bar mode over an intraday series: the box is
// the previous UTC day's high/low, a bar whose open crosses a threshold
// enters, and the following bar's close exits. Bars on the first day have
// no box and are skipped.
func (b *Backtester) RunIntraday(candles []domain.Candle) *BacktestResult {
	boxes := b.evaluator.DailyBoxes(candles)
	res := &BacktestResult{}

	var pos *domain.Position
	for _, bar := range candles {
		box, ok := boxes[bar.Day()]
		if !ok {
			continue
		}

		if pos != nil {
			row := BacktestTrade{
				Time:   bar.OpenTime,
				Signal: Signal(pos.Side),
				Entry:  pos.EntryPrice,
				Exit:   bar.Close,
				PnL:    RealizedPnL(pos.Side, pos.EntryPrice, bar.Close, pos.Quantity),
			}
			res.CumulativePnL += row.PnL
			res.Trades = append(res.Trades, row)
			res.Executed = append(res.Executed, row)
			pos = nil
			continue
		}

		th := b.evaluator.ComputeThresholds(box, b.cfg.BottomFraction, b.cfg.TopFraction)
		switch b.engine.EvaluateEntry(nil, bar, th) {
		case SignalBuy:
			pos = b.engine.OpenPosition(domain.SideLong, bar.Open, b.tradeSize, bar.OpenTime)
		case SignalSell:
			pos = b.engine.OpenPosition(domain.SideShort, bar.Open, b.tradeSize, bar.OpenTime)
		}
	}
	return res
}
