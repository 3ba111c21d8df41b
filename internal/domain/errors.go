package domain

import (
	"errors"
	"fmt"
)

// ErrInsufficientData marks an empty reference period. The tick is skipped;
// no box is computed against defaults.
var ErrInsufficientData = errors.New("no candles in reference period")

// SizingRejectedError reports an entry whose notional falls below the
// exchange minimum. The entry is skipped for this tick, not retried.
type SizingRejectedError struct {
	Quantity    float64
	Price       float64
	MinNotional float64
}

func (e *SizingRejectedError) Error() string {
	return fmt.Sprintf("notional %.2f below minimum %.2f (qty %.6f @ %.4f)",
		e.Quantity*e.Price, e.MinNotional, e.Quantity, e.Price)
}

// OrderError wraps a rejection from the order execution sink. Side is the
// order side, "BUY" or "SELL".
type OrderError struct {
	Symbol string
	Side   string
	Err    error
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("%s order for %s failed: %v", e.Side, e.Symbol, e.Err)
}

func (e *OrderError) Unwrap() error { return e.Err }

// TransientIOError marks a failed data or balance fetch. The tick is skipped
// and retried on the next schedule.
type TransientIOError struct {
	Op  string
	Err error
}

func (e *TransientIOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientIOError) Unwrap() error { return e.Err }
