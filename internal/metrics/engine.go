package metrics

import (
	"MarketBrief/internal/model"
)

// Trading-session lookback offsets and the trailing 52-week window length.
const (
	Lookback1D = 1
	Lookback1W = 5
	Lookback1M = 21

	Window52w = 252
)

// Latest returns the last close, or nil for an empty series.
func Latest(s model.Series) *float64 {
	if s.Empty() {
		return nil
	}
	return model.Float(s[len(s)-1].Close)
}

// Lookback returns the close k sessions before the last sample, or nil when
// the series has fewer than k+1 samples.
func Lookback(s model.Series, k int) *float64 {
	idx := len(s) - 1 - k
	if idx < 0 || idx >= len(s) {
		return nil
	}
	return model.Float(s[idx].Close)
}

// YTDRef scans backward for the last sample dated in the year before the
// latest sample's year. It gives up once the scan crosses into an even
// earlier year: there is no interpolation or carrying forward.
func YTDRef(s model.Series) *float64 {
	if s.Empty() {
		return nil
	}
	prevYear := s[len(s)-1].Date.Year() - 1
	for i := len(s) - 1; i >= 0; i-- {
		y := s[i].Date.Year()
		if y == prevYear {
			return model.Float(s[i].Close)
		}
		if y < prevYear {
			break
		}
	}
	return nil
}

// PctChange returns (current/reference - 1) * 100, or nil when either
// operand is absent or the reference is exactly zero.
func PctChange(current, reference *float64) *float64 {
	if current == nil || reference == nil || *reference == 0 {
		return nil
	}
	return model.Float((*current / *reference - 1.0) * 100.0)
}

// Bounds52w returns the min and max close over the trailing Window52w
// samples (or the whole series if shorter). An empty series yields 0/0.
func Bounds52w(s model.Series) (low, high float64) {
	if s.Empty() {
		return 0, 0
	}
	start := len(s) - Window52w
	if start < 0 {
		start = 0
	}
	low, high = s[start].Close, s[start].Close
	for _, b := range s[start+1:] {
		if b.Close < low {
			low = b.Close
		}
		if b.Close > high {
			high = b.Close
		}
	}
	return low, high
}

// RangePosition places price within [low, high] as a percentage, clamped to
// [0, 100]. A degenerate range (high <= low, including 0/0) yields exactly
// 50 to stand for "no information".
func RangePosition(price, low, high float64) float64 {
	if high <= low {
		return 50.0
	}
	pos := (price - low) / (high - low) * 100.0
	if pos < 0 {
		pos = 0
	}
	if pos > 100 {
		pos = 100
	}
	return pos
}

// Compute derives the full metric snapshot for one ticker's series. All of
// it is pure arithmetic over the input; no I/O, no clock.
func Compute(symbol string, s model.Series) model.TickerMetrics {
	latest := Latest(s)

	m := model.TickerMetrics{
		Symbol: symbol,
		Bars:   s.Len(),
	}
	if latest != nil {
		m.Price = *latest
	}

	m.Pct1D = PctChange(latest, Lookback(s, Lookback1D))
	m.Pct1W = PctChange(latest, Lookback(s, Lookback1W))
	m.Pct1M = PctChange(latest, Lookback(s, Lookback1M))
	m.PctYTD = PctChange(latest, YTDRef(s))

	m.Low52w, m.High52w = Bounds52w(s)
	m.RangePct = RangePosition(m.Price, m.Low52w, m.High52w)
	return m
}
