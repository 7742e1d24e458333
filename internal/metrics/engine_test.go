package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketBrief/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// seriesOf builds a series of consecutive weekdays ending 2024-06-14 with
// the given closes.
func seriesOf(closes ...float64) model.Series {
	s := make(model.Series, len(closes))
	t := day(2024, time.June, 14)
	for i := len(closes) - 1; i >= 0; i-- {
		for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
			t = t.AddDate(0, 0, -1)
		}
		s[i] = model.Sample{Date: t, Close: closes[i], High: closes[i], Low: closes[i]}
		t = t.AddDate(0, 0, -1)
	}
	return s
}

func TestLookback_ShortSeries(t *testing.T) {
	s := seriesOf(100, 101, 102)
	for k := 3; k <= 30; k++ {
		if ref := Lookback(s, k); ref != nil {
			t.Errorf("lookback %d on 3-sample series: expected nil, got %.2f", k, *ref)
		}
	}
	require.NotNil(t, Lookback(s, 2))
	assert.Equal(t, 100.0, *Lookback(s, 2))
}

func TestPctChange_ZeroReference(t *testing.T) {
	for _, x := range []float64{-10, 0, 0.0001, 42, 1e9} {
		if got := PctChange(model.Float(x), model.Float(0)); got != nil {
			t.Errorf("pct change against zero reference with current=%v: expected nil, got %v", x, *got)
		}
	}
	assert.Nil(t, PctChange(nil, model.Float(5)))
	assert.Nil(t, PctChange(model.Float(5), nil))
}

func TestPctChange_Value(t *testing.T) {
	got := PctChange(model.Float(60), model.Float(52))
	require.NotNil(t, got)
	assert.InDelta(t, 15.3846, *got, 0.0001)
}

func TestRangePosition_DegenerateRange(t *testing.T) {
	for _, price := range []float64{-5, 0, 10, 100, 1e6} {
		assert.Equal(t, 50.0, RangePosition(price, 10, 10), "price=%v", price)
	}
	// 0/0 case
	assert.Equal(t, 50.0, RangePosition(0, 0, 0))
	// high < low is also degenerate
	assert.Equal(t, 50.0, RangePosition(5, 20, 10))
}

func TestRangePosition_Clamped(t *testing.T) {
	assert.Equal(t, 0.0, RangePosition(5, 10, 20))
	assert.Equal(t, 100.0, RangePosition(25, 10, 20))
	assert.InDelta(t, 50.0, RangePosition(15, 10, 20), 1e-9)
	assert.InDelta(t, 25.0, RangePosition(12.5, 10, 20), 1e-9)
}

func TestYTDRef_PreviousYearClose(t *testing.T) {
	s := model.Series{
		{Date: day(2023, time.December, 29), Close: 100},
		{Date: day(2024, time.January, 2), Close: 102},
		{Date: day(2024, time.June, 1), Close: 110},
	}
	ref := YTDRef(s)
	require.NotNil(t, ref)
	assert.Equal(t, 100.0, *ref)
}

func TestYTDRef_NoPreviousYear(t *testing.T) {
	// Series jumps from 2022 straight to 2024: no 2023 sample, no carry.
	s := model.Series{
		{Date: day(2022, time.December, 30), Close: 90},
		{Date: day(2024, time.January, 2), Close: 102},
		{Date: day(2024, time.June, 1), Close: 110},
	}
	assert.Nil(t, YTDRef(s))
	assert.Nil(t, YTDRef(nil))
}

func TestCompute_ShortSeries(t *testing.T) {
	m := Compute("TEST", seriesOf(50, 55, 52, 60))

	assert.Equal(t, 4, m.Bars)
	assert.Equal(t, 60.0, m.Price)

	require.NotNil(t, m.Pct1D)
	assert.InDelta(t, 15.3846, *m.Pct1D, 0.0001)
	assert.Nil(t, m.Pct1W, "4 samples cannot support a 5-session lookback")
	assert.Nil(t, m.Pct1M)
	assert.Nil(t, m.PctYTD, "single-year series has no YTD reference")

	assert.Equal(t, 50.0, m.Low52w)
	assert.Equal(t, 60.0, m.High52w)
	assert.Equal(t, 100.0, m.RangePct)
}

func TestCompute_EmptySeries(t *testing.T) {
	m := Compute("EMPTY", nil)
	assert.Equal(t, 0, m.Bars)
	assert.Equal(t, 0.0, m.Price)
	assert.Nil(t, m.Pct1D)
	assert.Nil(t, m.Pct1W)
	assert.Nil(t, m.Pct1M)
	assert.Nil(t, m.PctYTD)
	assert.Equal(t, 0.0, m.Low52w)
	assert.Equal(t, 0.0, m.High52w)
	assert.Equal(t, 50.0, m.RangePct, "empty range position defaults to the midpoint")
}

func TestBounds52w_TrailingWindowOnly(t *testing.T) {
	// 300 samples; a deep low sits outside the trailing 252 and must be
	// ignored.
	closes := make([]float64, 300)
	for i := range closes {
		closes[i] = 100
	}
	closes[10] = 1    // outside the window
	closes[290] = 80  // inside
	closes[295] = 120 // inside
	low, high := Bounds52w(seriesOf(closes...))
	assert.Equal(t, 80.0, low)
	assert.Equal(t, 120.0, high)
}

func TestBounds52w_ShortAndEmpty(t *testing.T) {
	low, high := Bounds52w(seriesOf(7, 3, 9))
	assert.Equal(t, 3.0, low)
	assert.Equal(t, 9.0, high)

	low, high = Bounds52w(nil)
	assert.Equal(t, 0.0, low)
	assert.Equal(t, 0.0, high)
}

func TestLookbackConstants(t *testing.T) {
	// A 22-sample series supports 1D/1W/1M; a 21-sample one drops 1M.
	closes := make([]float64, 22)
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	full := Compute("T", seriesOf(closes...))
	assert.NotNil(t, full.Pct1M)

	trimmed := Compute("T", seriesOf(closes[:21]...))
	assert.Nil(t, trimmed.Pct1M)
	assert.NotNil(t, trimmed.Pct1W)
}
