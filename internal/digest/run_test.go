package digest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketBrief/internal/model"
	"MarketBrief/internal/news"
	"MarketBrief/internal/provider"
	"MarketBrief/internal/recorder"
	"MarketBrief/internal/report"
)

type stubFetcher struct {
	mu    sync.Mutex
	data  map[string]model.Series
	calls []string
}

func (f *stubFetcher) Fetch(_ context.Context, symbol string) model.ProviderResult {
	f.mu.Lock()
	f.calls = append(f.calls, symbol)
	f.mu.Unlock()
	if s, ok := f.data[symbol]; ok {
		return model.ProviderResult{Source: "stub", Series: s}
	}
	return model.NoData()
}

type stubSender struct {
	subject string
	html    string
	text    string
	err     error
	calls   int
}

func (s *stubSender) Send(_ context.Context, subject, htmlBody, textBody string) error {
	s.calls++
	s.subject, s.html, s.text = subject, htmlBody, textBody
	return s.err
}

type captureRecorder struct {
	run  *recorder.RunRecord
	rows []recorder.TickerRow
	err  error
}

func (c *captureRecorder) RecordRun(run *recorder.RunRecord, rows []recorder.TickerRow) error {
	c.run, c.rows = run, rows
	return c.err
}

func (c *captureRecorder) Close() error { return nil }

func testUniverse() []model.Company {
	return []model.Company{
		{Symbol: "AAPL", Name: "Apple Inc."},
		{Symbol: "MSFT", Name: "Microsoft Corporation"},
		{Symbol: "KOPN", Name: "Kopin Corporation"},
	}
}

func newTestRunner(fetcher Fetcher, sender Sender, rec recorder.Recorder, workers int) *Runner {
	logger := log.Logger{Level: log.ErrorLevel}
	r := NewRunner(Deps{
		Universe: testUniverse(),
		Fetcher:  fetcher,
		News:     news.Load("", logger),
		Builder:  report.NewBuilder(news.BelongsTo),
		Renderer: report.NewRenderer(news.BelongsTo),
		Sender:   sender,
		Recorder: rec,
		Logger:   logger,
		Workers:  workers,
	})
	r.now = func() time.Time {
		return time.Date(2024, 6, 14, 21, 30, 0, 0, time.UTC)
	}
	return r
}

func TestRun_EndToEnd(t *testing.T) {
	fetcher := &stubFetcher{data: map[string]model.Series{
		"AAPL": provider.GenerateMockSeries(100, 252),
		"MSFT": provider.GenerateMockSeries(400, 252),
	}}
	sender := &stubSender{}
	rec := &captureRecorder{}

	err := newTestRunner(fetcher, sender, rec, 1).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sender.calls)
	assert.Contains(t, sender.html, "Apple Inc.")
	assert.Contains(t, sender.text, "Market Intelligence Digest")
	// No hero in mock data, so the subject is a dated fallback.
	assert.Contains(t, sender.subject, "June 14")

	require.NotNil(t, rec.run)
	assert.Equal(t, 3, rec.run.Tickers)
	assert.True(t, rec.run.Sent)
	require.Len(t, rec.rows, 3)
	assert.Equal(t, "stub", rec.rows[0].Source)
	assert.Equal(t, model.NoSourceTag, rec.rows[2].Source)
}

func TestRun_NoDataDegradesToCard(t *testing.T) {
	sender := &stubSender{}
	err := newTestRunner(&stubFetcher{}, sender, &captureRecorder{}, 1).Run(context.Background())
	require.NoError(t, err)

	// Every ticker still renders, with neutral chips.
	assert.Contains(t, sender.html, "Kopin Corporation")
	assert.Contains(t, sender.html, "1D --")
}

func TestRun_SendFailureIsFatalButRecorded(t *testing.T) {
	sender := &stubSender{err: errors.New("smtp down")}
	rec := &captureRecorder{}

	err := newTestRunner(&stubFetcher{}, sender, rec, 1).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")

	require.NotNil(t, rec.run, "failed delivery must still be audited")
	assert.False(t, rec.run.Sent)
}

func TestRun_RecorderFailureIsNotFatal(t *testing.T) {
	rec := &captureRecorder{err: errors.New("disk full")}
	err := newTestRunner(&stubFetcher{}, &stubSender{}, rec, 1).Run(context.Background())
	assert.NoError(t, err)
}

func TestFetchAll_ParallelKeepsOrder(t *testing.T) {
	fetcher := &stubFetcher{data: map[string]model.Series{
		"AAPL": provider.GenerateMockSeries(100, 60),
		"MSFT": provider.GenerateMockSeries(400, 60),
	}}
	r := newTestRunner(fetcher, &stubSender{}, &captureRecorder{}, 3)

	entries, rows := r.fetchAll(context.Background())
	require.Len(t, entries, 3)
	assert.Equal(t, "AAPL", entries[0].Company.Symbol)
	assert.Equal(t, "MSFT", entries[1].Company.Symbol)
	assert.Equal(t, "KOPN", entries[2].Company.Symbol)
	assert.Equal(t, model.NoSourceTag, rows[2].Source)
	assert.Len(t, fetcher.calls, 3)
}

func TestRun_HeroDrivesSubject(t *testing.T) {
	fetcher := &stubFetcher{}
	sender := &stubSender{}
	logger := log.Logger{Level: log.ErrorLevel}

	rally := staticNews{model.NewsSnippet{
		Ticker:   "AAPL",
		Headline: "Stocks rally as inflation cools",
		URL:      "https://example.com/rally",
	}}
	r := NewRunner(Deps{
		Universe: []model.Company{{Symbol: "AAPL", Name: "Apple Inc."}},
		Fetcher:  fetcher,
		News:     rally,
		Builder:  report.NewBuilder(news.BelongsTo),
		Renderer: report.NewRenderer(news.BelongsTo),
		Sender:   sender,
		Recorder: &captureRecorder{},
		Logger:   logger,
	})
	r.now = func() time.Time {
		return time.Date(2024, 6, 14, 21, 30, 0, 0, time.UTC)
	}

	require.NoError(t, r.Run(context.Background()))
	assert.True(t, strings.HasPrefix(sender.subject, "Stocks rally as inflation cools"), sender.subject)
}

type staticNews struct {
	snippet model.NewsSnippet
}

func (s staticNews) Snippet(string) model.NewsSnippet { return s.snippet }
