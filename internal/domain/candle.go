package domain

import "time"

// Candle is a single OHLCV bar. Immutable once fetched.
type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Day returns the UTC calendar day the bar opened on.
func (c Candle) Day() time.Time {
	return c.OpenTime.UTC().Truncate(24 * time.Hour)
}
