package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/phuslu/log"

	"MarketBrief/internal/model"
)

// avMaxRows caps the history depth pulled from a full-size Alpha Vantage
// payload. 500 daily rows comfortably covers the 252-sample window plus
// the YTD reference.
const avMaxRows = 500

// AlphaVantageSource fetches daily history from the Alpha Vantage REST API.
// The free tier allows 5 requests per minute, so a fixed pause follows
// every successful call.
type AlphaVantageSource struct {
	client *resty.Client
	logger log.Logger
	apiKey string
	pace   time.Duration
}

// NewAlphaVantageSource creates an Alpha Vantage source. pace is the
// post-success delay; pass 0 to disable (tests).
func NewAlphaVantageSource(apiKey string, pace time.Duration, logger log.Logger) *AlphaVantageSource {
	return &AlphaVantageSource{
		client: resty.New().
			SetBaseURL("https://www.alphavantage.co").
			SetTimeout(25 * time.Second),
		logger: logger,
		apiKey: apiKey,
		pace:   pace,
	}
}

func (a *AlphaVantageSource) Name() string { return "alphavantage" }

// NormalizeSymbol upper-cases and, for digital assets, strips the "-USD"
// quote-currency suffix the crypto endpoint rejects.
func (a *AlphaVantageSource) NormalizeSymbol(symbol string) string {
	n := strings.ToUpper(strings.TrimSpace(symbol))
	return strings.TrimSuffix(n, "-USD")
}

func isCrypto(symbol string) bool {
	return strings.HasSuffix(strings.ToUpper(symbol), "-USD")
}

func (a *AlphaVantageSource) History(ctx context.Context, symbol string) (model.Series, error) {
	if a.apiKey == "" {
		return nil, fmt.Errorf("alphavantage: API key not configured")
	}

	params := map[string]string{
		"symbol":   a.NormalizeSymbol(symbol),
		"datatype": "json",
		"apikey":   a.apiKey,
	}
	var seriesKey string
	if isCrypto(symbol) {
		params["function"] = "DIGITAL_CURRENCY_DAILY"
		params["market"] = "USD"
		seriesKey = "Time Series (Digital Currency Daily)"
	} else {
		params["function"] = "TIME_SERIES_DAILY_ADJUSTED"
		params["outputsize"] = "full"
		seriesKey = "Time Series (Daily)"
	}

	resp, err := a.client.R().SetContext(ctx).SetQueryParams(params).Get("/query")
	if err != nil {
		return nil, fmt.Errorf("alphavantage fetch: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("alphavantage: status %d", resp.StatusCode())
	}

	series, err := ParseAlphaVantage(resp.Body(), seriesKey)
	if err != nil {
		return nil, err
	}
	if series.Len() > 0 && a.pace > 0 {
		time.Sleep(a.pace)
	}
	return series, nil
}

// ParseAlphaVantage decodes the date-keyed time-series object under
// seriesKey, keeping the trailing avMaxRows rows in ascending date order.
// Rows with unparseable values are skipped.
func ParseAlphaVantage(body []byte, seriesKey string) (model.Series, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("alphavantage decode: %w", err)
	}
	raw, ok := payload[seriesKey]
	if !ok {
		return nil, fmt.Errorf("alphavantage: payload missing %q", seriesKey)
	}
	var rows map[string]map[string]string
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("alphavantage decode rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("alphavantage: empty time series")
	}

	dates := make([]string, 0, len(rows))
	for k := range rows {
		dates = append(dates, k)
	}
	sort.Strings(dates)
	if len(dates) > avMaxRows {
		dates = dates[len(dates)-avMaxRows:]
	}

	series := make(model.Series, 0, len(dates))
	for _, k := range dates {
		row := rows[k]
		d, err := time.Parse("2006-01-02", k[:min(len(k), 10)])
		if err != nil {
			continue
		}
		closeStr := firstValue(row,
			"5. adjusted close", "4. close",
			"4a. close (USD)", "4b. close (USD)")
		c, err := parsePrice(closeStr)
		if err != nil {
			continue
		}
		sample := model.Sample{Date: d, Close: c, High: c, Low: c}
		if h, err := parsePrice(firstValue(row, "2. high")); err == nil {
			sample.High = h
		}
		if l, err := parsePrice(firstValue(row, "3. low")); err == nil {
			sample.Low = l
		}
		series = append(series, sample)
	}
	return series, nil
}

func firstValue(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok && v != "" {
			return v
		}
	}
	return ""
}
