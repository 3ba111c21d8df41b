package usecase

import (
	"time"

	"github.com/vitos/box_theory_bot/internal/domain"
)

// BoxEvaluator derives boxes and thresholds from reference candles.
// All methods are pure.
type BoxEvaluator struct{}

func NewBoxEvaluator() *BoxEvaluator {
	return &BoxEvaluator{}
}

// ComputeBox returns the high/low range over one closed reference period.
func (e *BoxEvaluator) ComputeBox(candles []domain.Candle) (domain.Box, error) {
	if len(candles) == 0 {
		return domain.Box{}, domain.ErrInsufficientData
	}
	box := domain.Box{High: candles[0].High, Low: candles[0].Low}
	for _, c := range candles[1:] {
		if c.High > box.High {
			box.High = c.High
		}
		if c.Low < box.Low {
			box.Low = c.Low
		}
	}
	return box, nil
}

// ComputeThresholds places the trigger levels inside the box. A zero-range
// box collapses both levels onto the box low; no division is involved.
func (e *BoxEvaluator) ComputeThresholds(box domain.Box, bottomFraction, topFraction float64) domain.Thresholds {
	r := box.Range()
	return domain.Thresholds{
		Buy:  box.Low + bottomFraction*r,
		Sell: box.Low + topFraction*r,
	}
}

// PreviousDayCandles filters an intraday series down to the bars that opened
// before the current UTC day. The caller bounds the fetch window (~2 days)
// so this is effectively the previous calendar day.
func (e *BoxEvaluator) PreviousDayCandles(candles []domain.Candle, now time.Time) []domain.Candle {
	today := now.UTC().Truncate(24 * time.Hour)
	var out []domain.Candle
	for _, c := range candles {
		if c.Day().Before(today) {
			out = append(out, c)
		}
	}
	return out
}

// DailyBoxes resamples an intraday series into per-UTC-day boxes, keyed by
// the day the box applies to (the day after the one it was built from).
// The first day of the series therefore has no box.
func (e *BoxEvaluator) DailyBoxes(candles []domain.Candle) map[time.Time]domain.Box {
	byDay := make(map[time.Time]domain.Box)
	for _, c := range candles {
		day := c.Day()
		b, ok := byDay[day]
		if !ok {
			byDay[day] = domain.Box{High: c.High, Low: c.Low}
			continue
		}
		if c.High > b.High {
			b.High = c.High
		}
		if c.Low < b.Low {
			b.Low = c.Low
		}
		byDay[day] = b
	}

	shifted := make(map[time.Time]domain.Box, len(byDay))
	for day, b := range byDay {
		shifted[day.AddDate(0, 0, 1)] = b
	}
	return shifted
}
