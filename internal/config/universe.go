package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"MarketBrief/internal/model"
)

// defaultUniverse is the built-in watchlist used when no universe file is
// present.
var defaultUniverse = []model.Company{
	{Symbol: "AAPL", Name: "Apple Inc.", Sector: "Technology"},
	{Symbol: "MSFT", Name: "Microsoft Corporation", Sector: "Technology"},
	{Symbol: "GOOGL", Name: "Alphabet Inc.", Sector: "Communication Services"},
	{Symbol: "AMZN", Name: "Amazon.com, Inc.", Sector: "Consumer Discretionary"},
	{Symbol: "TSLA", Name: "Tesla, Inc.", Sector: "Consumer Discretionary"},
	{Symbol: "NVDA", Name: "NVIDIA Corporation", Sector: "Technology"},
	{Symbol: "META", Name: "Meta Platforms, Inc.", Sector: "Communication Services"},
	{Symbol: "NFLX", Name: "Netflix, Inc.", Sector: "Communication Services"},
	{Symbol: "AMD", Name: "Advanced Micro Devices, Inc.", Sector: "Technology"},
	{Symbol: "PLTR", Name: "Palantir Technologies Inc.", Sector: "Technology"},
	{Symbol: "KOPN", Name: "Kopin Corporation", Sector: "Technology"},
	{Symbol: "SKYQ", Name: "Sky Quarry Inc.", Sector: "Energy"},
}

type universeFile struct {
	Companies []model.Company `yaml:"companies"`
}

// LoadUniverse reads the watchlist from a YAML file. A missing file falls
// back to the built-in list; a present but malformed file is an error.
func LoadUniverse(path string) ([]model.Company, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultUniverse(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read universe: %w", err)
	}

	var f universeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse universe: %w", err)
	}
	if len(f.Companies) == 0 {
		return nil, fmt.Errorf("universe %s lists no companies", path)
	}
	for i, c := range f.Companies {
		if c.Symbol == "" {
			return nil, fmt.Errorf("universe %s: entry %d has no symbol", path, i)
		}
	}
	return f.Companies, nil
}

// DefaultUniverse returns a copy of the built-in watchlist.
func DefaultUniverse() []model.Company {
	out := make([]model.Company, len(defaultUniverse))
	copy(out, defaultUniverse)
	return out
}
