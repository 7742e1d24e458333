package recorder

import "MarketBrief/internal/model"

// RunRecord summarizes one digest run for the audit trail.
type RunRecord struct {
	Subject   string
	Tickers   int
	Advancers int
	Decliners int
	Sent      bool
}

// TickerRow is one ticker's computed metrics plus the source that
// supplied its history.
type TickerRow struct {
	Source  string
	Metrics model.TickerMetrics
}

// Recorder persists run history for later analysis.
type Recorder interface {
	RecordRun(run *RunRecord, rows []TickerRow) error
	Close() error
}
