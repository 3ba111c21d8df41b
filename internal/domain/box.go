package domain

// Box is the high/low range of one closed reference period. High >= Low;
// a zero range is valid (flat reference period).
type Box struct {
	High float64 `json:"high"`
	Low  float64 `json:"low"`
}

func (b Box) Range() float64 {
	return b.High - b.Low
}

// Thresholds are the trigger levels placed inside a box. Buy sits at the
// bottom fraction of the range, Sell at the top. For a zero-range box both
// collapse onto the box low.
type Thresholds struct {
	Buy  float64 `json:"buy"`
	Sell float64 `json:"sell"`
}
