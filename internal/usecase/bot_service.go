package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vitos/box_theory_bot/internal/domain"
)

// candleInterval is the bot's bar size; one evaluation per closed bar.
const candleInterval = "5m"

// fetchWindow bounds the candle fetch so the previous-day filter sees the
// whole prior UTC day.
const fetchWindow = 48 * time.Hour

// BotService runs the live/dry-run trading loop: one evaluation per tick.
// It owns the single tracked position; the mutex only guards reads from the
// web handlers, all mutation happens on the tick goroutine.
type BotService struct {
	exchange  domain.Exchange
	trades    domain.TradeRepository
	notifier  domain.Notifier
	evaluator *BoxEvaluator
	engine    *Engine
	sizer     *Sizer
	cfg       StrategyConfig
	logger    *zap.Logger
	tradeLog  *zap.Logger

	mu         sync.RWMutex
	position   *domain.Position
	lastBox    domain.Box
	lastLevels domain.Thresholds
	lastPrice  float64
	lastTick   time.Time

	timeNow func() time.Time // For testing
}

func NewBotService(
	exchange domain.Exchange,
	trades domain.TradeRepository,
	notifier domain.Notifier,
	cfg StrategyConfig,
	logger *zap.Logger,
	tradeLog *zap.Logger,
) *BotService {
	return &BotService{
		exchange:  exchange,
		trades:    trades,
		notifier:  notifier,
		evaluator: NewBoxEvaluator(),
		engine:    NewEngine(cfg),
		sizer:     NewSizer(cfg),
		cfg:       cfg,
		logger:    logger,
		tradeLog:  tradeLog,
		timeNow:   time.Now,
	}
}

// Config returns the resolved strategy parameters.
func (s *BotService) Config() StrategyConfig {
	return s.cfg
}

// Position returns a copy of the open position, or nil when flat.
func (s *BotService) Position() *domain.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.position == nil {
		return nil
	}
	pos := *s.position
	return &pos
}

// BotStatus is the read-only snapshot served by the web handlers.
type BotStatus struct {
	Symbol     string            `json:"symbol"`
	DryRun     bool              `json:"dry_run"`
	Position   *domain.Position  `json:"position,omitempty"`
	Box        domain.Box        `json:"box"`
	Thresholds domain.Thresholds `json:"thresholds"`
	LastPrice  float64           `json:"last_price"`
	LastTick   time.Time         `json:"last_tick"`
}

func (s *BotService) Status() BotStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := BotStatus{
		Symbol:     s.cfg.Symbol,
		DryRun:     s.cfg.DryRun,
		Box:        s.lastBox,
		Thresholds: s.lastLevels,
		LastPrice:  s.lastPrice,
		LastTick:   s.lastTick,
	}
	if s.position != nil {
		pos := *s.position
		st.Position = &pos
	}
	return st
}

// HandlePriceUpdate receives streamed last prices from the exchange
// websocket. Display only; decisions use the fetched candles.
func (s *BotService) HandlePriceUpdate(symbol string, price float64) {
	if symbol != s.cfg.Symbol {
		return
	}
	s.mu.Lock()
	s.lastPrice = price
	s.mu.Unlock()
}

// Tick runs one full evaluation and recovers every failure at this boundary:
// the loop never dies on a single tick, the next schedule retries.
func (s *BotService) Tick(ctx context.Context) {
	err := s.runTick(ctx)
	if err == nil {
		return
	}

	var sizingErr *domain.SizingRejectedError
	var orderErr *domain.OrderError
	var ioErr *domain.TransientIOError
	switch {
	case errors.Is(err, domain.ErrInsufficientData):
		s.logger.Warn("Skipping tick: no reference candles", zap.String("symbol", s.cfg.Symbol))
	case errors.As(err, &sizingErr):
		s.logger.Warn("Entry rejected: order too small", zap.Error(sizingErr))
		s.saveEvent(ctx, domain.EventEntryRejected, sizingErr.Error())
		s.notify("Order Skipped (Too Small)", sizingErr.Error())
	case errors.As(err, &orderErr):
		s.logger.Error("Order placement failed", zap.Error(orderErr))
		s.saveEvent(ctx, domain.EventOrderFailed, orderErr.Error())
		s.notify("Order Failed", orderErr.Error())
	case errors.As(err, &ioErr):
		s.logger.Error("Skipping tick: fetch failed", zap.Error(ioErr))
		s.notify("Bot Error", ioErr.Error())
	default:
		s.logger.Error("Tick failed", zap.Error(err))
		s.saveEvent(ctx, domain.EventTickError, err.Error())
		s.notify("Bot Error", err.Error())
	}
}

func (s *BotService) runTick(ctx context.Context) error {
	now := s.timeNow()

	candles, err := s.exchange.GetCandles(ctx, s.cfg.Symbol, candleInterval, now.Add(-fetchWindow), 600)
	if err != nil {
		return &domain.TransientIOError{Op: "fetch candles", Err: err}
	}
	if len(candles) == 0 {
		return domain.ErrInsufficientData
	}

	reference := s.evaluator.PreviousDayCandles(candles, now)
	box, err := s.evaluator.ComputeBox(reference)
	if err != nil {
		return err
	}
	th := s.evaluator.ComputeThresholds(box, s.cfg.BottomFraction, s.cfg.TopFraction)
	latest := candles[len(candles)-1]

	s.mu.Lock()
	s.lastBox = box
	s.lastLevels = th
	s.lastTick = now
	pos := s.position
	s.mu.Unlock()

	s.logger.Info("Tick",
		zap.String("symbol", s.cfg.Symbol),
		zap.Float64("box_high", box.High),
		zap.Float64("box_low", box.Low),
		zap.Float64("buy_level", th.Buy),
		zap.Float64("open", latest.Open),
		zap.Float64("close", latest.Close),
		zap.Bool("positioned", pos != nil),
	)

	if pos == nil {
		if err := s.evaluateEntry(ctx, latest, th); err != nil {
			return err
		}
	}

	// The exit check reuses this tick's fetch, same as the original: a
	// position opened this bar is measured against the same close.
	if pos := s.Position(); pos != nil {
		return s.evaluateExit(ctx, pos, latest)
	}
	return nil
}

func (s *BotService) evaluateEntry(ctx context.Context, bar domain.Candle, th domain.Thresholds) error {
	sig := s.engine.EvaluateEntry(nil, bar, th)
	switch sig {
	case SignalNone:
		reason := "no valid signal"
		if bar.Open > th.Buy {
			reason = fmt.Sprintf("open %.4f above entry zone %.4f", bar.Open, th.Buy)
		} else if bar.Close <= bar.Open {
			reason = fmt.Sprintf("close %.4f not above open %.4f", bar.Close, bar.Open)
		}
		s.logger.Info("No entry", zap.String("symbol", s.cfg.Symbol), zap.String("reason", reason))
		return nil
	case SignalSell:
		// Spot account: nothing to borrow, shorts stay backtest-only.
		detail := fmt.Sprintf("short signal at open %.4f ignored, live trading is long-only", bar.Open)
		s.logger.Warn("Entry skipped: short side not supported live",
			zap.String("symbol", s.cfg.Symbol),
			zap.Float64("sell_level", th.Sell),
		)
		s.saveEvent(ctx, domain.EventEntryRejected, detail)
		return nil
	}

	balance, err := s.exchange.GetBalance(ctx, s.quoteAsset())
	if err != nil {
		return &domain.TransientIOError{Op: "fetch balance", Err: err}
	}

	qty, err := s.sizer.QuantityFor(balance, bar.Open)
	if err != nil {
		return err
	}

	fillPrice, fillQty := bar.Open, qty
	if !s.cfg.DryRun {
		fill, err := s.exchange.MarketBuy(ctx, s.cfg.Symbol, qty)
		if err != nil {
			// No phantom position: state stays flat on entry failure.
			return &domain.OrderError{Symbol: s.cfg.Symbol, Side: "BUY", Err: err}
		}
		if fill.Price > 0 {
			fillPrice = fill.Price
		}
		if fill.Quantity > 0 {
			fillQty = fill.Quantity
		}
	}

	pos := s.engine.OpenPosition(domain.SideLong, fillPrice, fillQty, bar.OpenTime)
	s.setPosition(pos)

	s.tradeLog.Info("BUY executed",
		zap.String("symbol", s.cfg.Symbol),
		zap.Float64("qty", fillQty),
		zap.Float64("price", fillPrice),
		zap.Float64("balance", balance),
		zap.Bool("dry_run", s.cfg.DryRun),
	)
	s.notify("Trade Executed", fmt.Sprintf(
		"--- TRADE SUMMARY ---\nTime: %s\nBox: %.4f / %.4f, Entry Zone: <= %.4f\nQty: %.4f @ %.4f\nBalance: %.2f",
		bar.OpenTime.UTC().Format(time.RFC3339), s.lastBox.High, s.lastBox.Low, th.Buy, fillQty, fillPrice, balance))
	return nil
}

func (s *BotService) evaluateExit(ctx context.Context, pos *domain.Position, bar domain.Candle) error {
	reason, ok := s.engine.CheckExit(pos, bar.Close)
	if !ok {
		return nil
	}

	// Guard against precision drift from fee deductions.
	qty := FloorQuantity(pos.Quantity, s.cfg.QuantityPrecision)
	if qty*bar.Close < s.cfg.MinNotional {
		// Too small to sell back: abandon the dust and clear the position.
		detail := fmt.Sprintf("exit skipped, notional %.2f below minimum %.2f", qty*bar.Close, s.cfg.MinNotional)
		s.logger.Warn("Exit skipped: dust position", zap.String("symbol", s.cfg.Symbol), zap.String("detail", detail))
		s.saveEvent(ctx, domain.EventExitSkipped, detail)
		s.clearPosition()
		return nil
	}

	exitPrice := bar.Close
	if !s.cfg.DryRun {
		fill, err := s.exchange.MarketSell(ctx, s.cfg.Symbol, qty)
		if err != nil {
			// The order may have filled on the exchange side. Clear rather
			// than risk retrying a possibly-filled sell.
			s.clearPosition()
			return &domain.OrderError{Symbol: s.cfg.Symbol, Side: "SELL", Err: err}
		}
		if fill.Price > 0 {
			exitPrice = fill.Price
		}
	}

	pnl := RealizedPnL(pos.Side, pos.EntryPrice, exitPrice, qty)
	record := &domain.TradeRecord{
		ID:          uuid.NewString(),
		Symbol:      s.cfg.Symbol,
		Side:        pos.Side,
		EntryTime:   pos.EntryTime,
		ExitTime:    bar.OpenTime,
		EntryPrice:  pos.EntryPrice,
		ExitPrice:   exitPrice,
		Quantity:    qty,
		RealizedPnL: pnl,
		Reason:      reason,
	}
	if err := s.trades.SaveTrade(ctx, record); err != nil {
		s.logger.Error("Failed to persist trade", zap.Error(err))
	}
	s.clearPosition()

	s.tradeLog.Info("Trade closed",
		zap.String("symbol", s.cfg.Symbol),
		zap.String("reason", string(reason)),
		zap.Float64("entry", pos.EntryPrice),
		zap.Float64("exit", exitPrice),
		zap.Float64("qty", qty),
		zap.Float64("pnl", pnl),
	)
	s.notify(string(reason), fmt.Sprintf(
		"--- TRADE CLOSED ---\n%s\nEntry: %.4f, Exit: %.4f, Qty: %.4f\nRealized P&L: %.2f\nEntry Time: %s, Exit Time: %s",
		reason, pos.EntryPrice, exitPrice, qty, pnl,
		pos.EntryTime.UTC().Format(time.RFC3339), bar.OpenTime.UTC().Format(time.RFC3339)))
	return nil
}

func (s *BotService) setPosition(pos *domain.Position) {
	s.mu.Lock()
	s.position = pos
	s.mu.Unlock()
}

func (s *BotService) clearPosition() {
	s.setPosition(nil)
}

func (s *BotService) quoteAsset() string {
	// Symbols are <base><quote> spot pairs; USDT is the only quote the bot
	// trades against.
	return "USDT"
}

func (s *BotService) notify(subject, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(subject, body); err != nil {
		s.logger.Warn("Notification failed", zap.String("subject", subject), zap.Error(err))
	}
}

func (s *BotService) saveEvent(ctx context.Context, kind, detail string) {
	ev := &domain.Event{
		Time:   s.timeNow(),
		Kind:   kind,
		Symbol: s.cfg.Symbol,
		Detail: detail,
	}
	if err := s.trades.SaveEvent(ctx, ev); err != nil {
		s.logger.Error("Failed to persist event", zap.Error(err))
	}
}
