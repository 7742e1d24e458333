package model

import "time"

// Sample is one trading day's closing record.
type Sample struct {
	Date  time.Time
	Close float64
	High  float64
	Low   float64
}

// Series holds daily price history, ascending by date, one sample per
// trading day.
type Series []Sample

// Len returns the number of samples.
func (s Series) Len() int { return len(s) }

// Empty reports whether the series has no samples.
func (s Series) Empty() bool { return len(s) == 0 }

// Closes extracts the close column.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, b := range s {
		closes[i] = b.Close
	}
	return closes
}

// NoSourceTag marks a ProviderResult that no source could satisfy.
const NoSourceTag = "none"

// ProviderResult is the outcome of one history fetch: the series plus the
// name of the source that produced it.
type ProviderResult struct {
	Source string
	Series Series
}

// NoData returns the sentinel result for a symbol no source could serve.
func NoData() ProviderResult {
	return ProviderResult{Source: NoSourceTag}
}
