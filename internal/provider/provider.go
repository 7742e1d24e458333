package provider

import (
	"context"

	"MarketBrief/internal/model"
)

// Source fetches daily price history for one symbol from a single upstream.
type Source interface {
	History(ctx context.Context, symbol string) (model.Series, error)
	Name() string
}
