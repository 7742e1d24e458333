package provider

import (
	"context"
	"time"

	"MarketBrief/internal/model"
)

// MockSource returns controllable fixed data for development and testing.
type MockSource struct {
	Tag    string
	Data   model.Series
	Err    error
	Price  float64
	Length int
}

func (m *MockSource) Name() string {
	if m.Tag != "" {
		return m.Tag
	}
	return "mock"
}

func (m *MockSource) History(_ context.Context, _ string) (model.Series, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Data != nil {
		return m.Data, nil
	}
	return GenerateMockSeries(m.Price, m.Length), nil
}

// GenerateMockSeries builds a gently trending series ending today.
func GenerateMockSeries(basePrice float64, count int) model.Series {
	series := make(model.Series, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		series[i] = model.Sample{
			Date:  time.Now().UTC().AddDate(0, 0, -(count - i)),
			Close: p,
			High:  p * 1.005,
			Low:   p * 0.995,
		}
	}
	return series
}
