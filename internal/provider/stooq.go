package provider

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/phuslu/log"

	"MarketBrief/internal/model"
)

// StooqSource fetches daily history as CSV from stooq.com. Stooq is
// unauthenticated but rate-limit sensitive, so a fixed pause follows every
// successful call.
type StooqSource struct {
	client *resty.Client
	logger log.Logger
	pace   time.Duration
}

// NewStooqSource creates a Stooq source. pace is the post-success delay;
// pass 0 to disable (tests).
func NewStooqSource(pace time.Duration, logger log.Logger) *StooqSource {
	return &StooqSource{
		client: resty.New().
			SetBaseURL("https://stooq.com").
			SetTimeout(20 * time.Second),
		logger: logger,
		pace:   pace,
	}
}

func (s *StooqSource) Name() string { return "stooq" }

// NormalizeSymbol lower-cases and strips index/class punctuation the way
// Stooq expects. US tickers additionally need a ".us" suffix, handled by
// the candidate list in History.
func (s *StooqSource) NormalizeSymbol(symbol string) string {
	n := strings.TrimSpace(symbol)
	n = strings.ReplaceAll(n, "^", "")
	n = strings.ReplaceAll(n, ".", "-")
	return strings.ToLower(n)
}

// History tries the bare symbol first, then the ".us"-suffixed variant.
func (s *StooqSource) History(ctx context.Context, symbol string) (model.Series, error) {
	base := s.NormalizeSymbol(symbol)
	var lastErr error
	for _, candidate := range []string{base, base + ".us"} {
		series, err := s.fetchCSV(ctx, candidate)
		if err != nil {
			lastErr = err
			continue
		}
		if series.Len() > 0 {
			if s.pace > 0 {
				time.Sleep(s.pace)
			}
			return series, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("stooq: no rows for %s", symbol)
}

func (s *StooqSource) fetchCSV(ctx context.Context, symbol string) (model.Series, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"s": symbol, "i": "d"}).
		Get("/q/d/l/")
	if err != nil {
		return nil, fmt.Errorf("stooq fetch: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("stooq: status %d", resp.StatusCode())
	}
	body := string(resp.Body())
	if body == "" || strings.Contains(strings.ToLower(body), "<html") {
		return nil, fmt.Errorf("stooq: non-CSV body for %s", symbol)
	}
	return ParseStooqCSV(body)
}

// ParseStooqCSV decodes a Date/Open/High/Low/Close CSV payload, skipping
// malformed rows rather than failing the whole series.
func ParseStooqCSV(body string) (model.Series, error) {
	r := csv.NewReader(strings.NewReader(body))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("stooq: read header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	dateIdx, okDate := col["date"]
	closeIdx, okClose := col["close"]
	if !okDate || !okClose {
		return nil, fmt.Errorf("stooq: missing Date/Close columns")
	}
	highIdx, hasHigh := col["high"]
	lowIdx, hasLow := col["low"]

	var series model.Series
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		if dateIdx >= len(row) || closeIdx >= len(row) {
			continue
		}
		d, err := time.Parse("2006-01-02", row[dateIdx])
		if err != nil {
			continue
		}
		c, err := parsePrice(row[closeIdx])
		if err != nil {
			continue
		}
		sample := model.Sample{Date: d, Close: c, High: c, Low: c}
		if hasHigh && highIdx < len(row) {
			if h, err := parsePrice(row[highIdx]); err == nil {
				sample.High = h
			}
		}
		if hasLow && lowIdx < len(row) {
			if l, err := parsePrice(row[lowIdx]); err == nil {
				sample.Low = l
			}
		}
		series = append(series, sample)
	}
	return series, nil
}

func parsePrice(v string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", ""), 64)
}
