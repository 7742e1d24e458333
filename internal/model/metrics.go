package model

// TickerMetrics is a read-only snapshot of the return/range analytics for
// one ticker. Percentage fields are nil when the series is too short to
// support the lookback.
type TickerMetrics struct {
	Symbol string
	Bars   int
	Price  float64

	Pct1D  *float64
	Pct1W  *float64
	Pct1M  *float64
	PctYTD *float64

	Low52w   float64
	High52w  float64
	RangePct float64 // 0-100 position within the 52-week range
}

// Float returns a pointer to v, for building optional metric fields.
func Float(v float64) *float64 { return &v }
