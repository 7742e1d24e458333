package provider

import (
	"context"

	"github.com/phuslu/log"

	"MarketBrief/internal/model"
)

// DefaultMinSamples is the minimum series length a source must deliver for
// its result to be accepted.
const DefaultMinSamples = 30

// Chain tries sources in a fixed priority order and accepts the first one
// whose series is long enough to support window-based metrics.
type Chain struct {
	sources    []Source
	minSamples int
	logger     log.Logger
}

// NewChain builds a fallback chain over the given sources. minSamples <= 0
// selects DefaultMinSamples.
func NewChain(sources []Source, minSamples int, logger log.Logger) *Chain {
	if minSamples <= 0 {
		minSamples = DefaultMinSamples
	}
	return &Chain{sources: sources, minSamples: minSamples, logger: logger}
}

// Fetch resolves history for one symbol. Source failures of any kind count
// as zero samples; when every source falls short the result carries the
// "none" tag and an empty series. Fetch never returns an error.
func (c *Chain) Fetch(ctx context.Context, symbol string) model.ProviderResult {
	for _, src := range c.sources {
		series, err := c.try(ctx, src, symbol)
		if err != nil {
			c.logger.Warn().Str("symbol", symbol).Str("source", src.Name()).Err(err).Msg("history fetch failed")
			continue
		}
		if series.Len() < c.minSamples {
			c.logger.Debug().Str("symbol", symbol).Str("source", src.Name()).
				Int("bars", series.Len()).Int("min", c.minSamples).Msg("series too short, trying next source")
			continue
		}
		return model.ProviderResult{Source: src.Name(), Series: series}
	}
	return model.NoData()
}

// try isolates a single source call so a panicking parser cannot take the
// run down with it.
func (c *Chain) try(ctx context.Context, src Source, symbol string) (series model.Series, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Str("symbol", symbol).Str("source", src.Name()).Msgf("source panicked: %v", r)
			series, err = nil, nil
		}
	}()
	return src.History(ctx, symbol)
}
