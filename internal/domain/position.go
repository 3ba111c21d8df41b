package domain

import "time"

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Position is the single position tracked by the engine. A nil *Position
// means flat. Exactly one goroutine mutates it.
type Position struct {
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	EntryPrice float64   `json:"entry_price"`
	Quantity   float64   `json:"quantity"`
	EntryTime  time.Time `json:"entry_time"`
}

type CloseReason string

const (
	CloseTakeProfit  CloseReason = "TAKE_PROFIT"
	CloseStopLoss    CloseReason = "STOP_LOSS"
	ClosePeriodEnd   CloseReason = "PERIOD_CLOSE"
	CloseDustSkipped CloseReason = "DUST_SKIPPED"
)

// TradeRecord is one completed round trip. Append-only output.
type TradeRecord struct {
	ID          string
	Symbol      string
	Side        Side
	EntryTime   time.Time
	ExitTime    time.Time
	EntryPrice  float64
	ExitPrice   float64
	Quantity    float64
	RealizedPnL float64
	Reason      CloseReason
}

// Event records a non-trade occurrence worth keeping: rejected entries,
// skipped exits, tick failures.
type Event struct {
	ID     int64
	Time   time.Time
	Kind   string
	Symbol string
	Detail string
}

const (
	EventEntryRejected = "ENTRY_REJECTED"
	EventExitSkipped   = "EXIT_SKIPPED"
	EventOrderFailed   = "ORDER_FAILED"
	EventTickError     = "TICK_ERROR"
)
