package domain

import (
	"context"
	"time"
)

// Exchange defines the interface for interacting with a crypto exchange.
type Exchange interface {
	// GetCandles returns OHLCV bars ascending by open time. Fewer than limit
	// may come back near the live edge.
	GetCandles(ctx context.Context, symbol, interval string, since time.Time, limit int) ([]Candle, error)
	GetBalance(ctx context.Context, asset string) (float64, error)
	MarketBuy(ctx context.Context, symbol string, quantity float64) (*Fill, error)
	MarketSell(ctx context.Context, symbol string, quantity float64) (*Fill, error)
	GetSymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error)
}

// Fill is the execution result of a submitted market order.
type Fill struct {
	Price    float64
	Quantity float64
}

// SymbolInfo carries the instrument metadata needed for order sizing.
type SymbolInfo struct {
	Symbol            string
	BaseAsset         string
	QuoteAsset        string
	QuantityPrecision int
	MinNotional       float64
}

// Notifier delivers best-effort alerts. Failures are logged, never fatal.
type Notifier interface {
	Notify(subject, body string) error
}

// TradeRepository defines storage operations for completed trades and events.
type TradeRepository interface {
	SaveTrade(ctx context.Context, trade *TradeRecord) error
	ListTrades(ctx context.Context, limit int) ([]*TradeRecord, error)
	SaveEvent(ctx context.Context, event *Event) error
	ListEvents(ctx context.Context, limit int) ([]*Event, error)
}
