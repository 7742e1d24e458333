package model

import "time"

// AssetClass distinguishes equities from digital assets in the universe file.
type AssetClass string

const (
	AssetEquity AssetClass = "equity"
	AssetCrypto AssetClass = "crypto"
)

// Company is one position in the monitored universe.
type Company struct {
	Symbol    string     `yaml:"symbol"`
	Name      string     `yaml:"name"`
	Sector    string     `yaml:"sector"`
	Class     AssetClass `yaml:"asset_class"`
	NextEvent string     `yaml:"next_event"` // YYYY-MM-DD, optional
	PressURL  string     `yaml:"press_url"`  // optional override
}

// Entry pairs one company's metrics with its news snippet for rendering.
type Entry struct {
	Company Company
	Metrics TickerMetrics
	News    NewsSnippet
}

// Mover is a ticker ranked by its 1-day move.
type Mover struct {
	Ticker string
	Pct    float64
}

// Catalyst is an upcoming scheduled event within the forward horizon.
type Catalyst struct {
	Ticker string
	Date   time.Time
	Label  string
}

// Summary holds the run-level aggregates shown in the report header.
type Summary struct {
	AsOf      time.Time
	Advancers int
	Decliners int
	Winners   []Mover
	Losers    []Mover
	Catalysts []Catalyst
	Hero      *NewsSnippet // broad-market headline, if one was found
}

// Report is everything one run produces for rendering. It lives only for
// the duration of the run.
type Report struct {
	Summary  Summary
	Equities []Entry
	Cryptos  []Entry
}
