package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/phuslu/log"

	"MarketBrief/internal/model"
)

// YahooSource fetches daily history from the Yahoo Finance chart API.
type YahooSource struct {
	client    *resty.Client
	logger    log.Logger
	symbolMap map[string]string
}

// NewYahooSource creates a Yahoo source with optional proxy support.
func NewYahooSource(proxyURL string, logger log.Logger) *YahooSource {
	client := resty.New().
		SetBaseURL("https://query1.finance.yahoo.com").
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", "Mozilla/5.0")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &YahooSource{
		client: client,
		logger: logger,
		symbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (y *YahooSource) Name() string { return "yahoo" }

// NormalizeSymbol maps an internal symbol to the Yahoo ticker. Unmapped
// symbols pass through unchanged, so the mapping is idempotent.
func (y *YahooSource) NormalizeSymbol(symbol string) string {
	if mapped, ok := y.symbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the v8 chart API response shape. Quote columns arrive as
// interface{} because Yahoo emits nulls for holidays.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					High  []interface{} `json:"high"`
					Low   []interface{} `json:"low"`
					Close []interface{} `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// History fetches two years of daily closes, enough to cover the 52-week
// window plus the YTD reference.
func (y *YahooSource) History(ctx context.Context, symbol string) (model.Series, error) {
	path := fmt.Sprintf("/v8/finance/chart/%s", url.PathEscape(y.NormalizeSymbol(symbol)))
	resp, err := y.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"interval": "1d", "range": "2y"}).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("yahoo: status %d", resp.StatusCode())
	}

	var chart yahooChart
	if err := json.Unmarshal(resp.Body(), &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: missing quote block")
	}
	quote := result.Indicators.Quote[0]

	series := make(model.Series, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		c := toFloat(quote.Close[i])
		if c == 0 {
			continue // null bar (holiday etc.)
		}
		h, l := c, c
		if i < len(quote.High) {
			if v := toFloat(quote.High[i]); v != 0 {
				h = v
			}
		}
		if i < len(quote.Low) {
			if v := toFloat(quote.Low[i]); v != 0 {
				l = v
			}
		}
		series = append(series, model.Sample{
			Date:  time.Unix(ts, 0).UTC(),
			Close: c,
			High:  h,
			Low:   l,
		})
	}

	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series, nil
}
