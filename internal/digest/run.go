package digest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/phuslu/log"

	"MarketBrief/internal/mailer"
	"MarketBrief/internal/metrics"
	"MarketBrief/internal/model"
	"MarketBrief/internal/recorder"
	"MarketBrief/internal/report"
)

// Fetcher resolves price history for one symbol. Failures degrade to the
// no-data result rather than erroring.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) model.ProviderResult
}

// SnippetSource supplies the news snippet for a ticker.
type SnippetSource interface {
	Snippet(ticker string) model.NewsSnippet
}

// Sender delivers the rendered digest.
type Sender interface {
	Send(ctx context.Context, subject, htmlBody, textBody string) error
}

// plainFallback is the text/plain alternative for clients that cannot
// render HTML.
const plainFallback = `Market Intelligence Digest

Your daily market report is ready.

This email is best viewed in an HTML-capable email client.
`

// Deps wires a Runner. Workers caps concurrent history fetches; zero or
// one means sequential.
type Deps struct {
	Universe []model.Company
	Fetcher  Fetcher
	News     SnippetSource
	Builder  *report.Builder
	Renderer *report.Renderer
	Sender   Sender
	Recorder recorder.Recorder
	Logger   log.Logger
	Workers  int
}

// Runner executes one digest run end to end: fetch, compute, merge news,
// build, render, send, record.
type Runner struct {
	deps Deps
	now  func() time.Time
}

// NewRunner creates a runner.
func NewRunner(deps Deps) *Runner {
	if deps.Workers < 1 {
		deps.Workers = 1
	}
	return &Runner{deps: deps, now: time.Now}
}

// Run performs one complete digest run. Per-ticker fetch failures degrade
// to no-data cards; only rendering and delivery failures are returned.
func (r *Runner) Run(ctx context.Context) error {
	start := r.now()
	r.deps.Logger.Info().Int("tickers", len(r.deps.Universe)).Msg("digest run starting")

	entries, rows := r.fetchAll(ctx)
	rep := r.deps.Builder.Build(entries, r.now())

	html, err := r.deps.Renderer.Render(rep)
	if err != nil {
		return fmt.Errorf("run digest: %w", err)
	}

	hero := ""
	if rep.Summary.Hero != nil {
		hero = rep.Summary.Hero.Headline
	}
	subject := mailer.Subject(hero, r.now())

	sendErr := r.deps.Sender.Send(ctx, subject, html, plainFallback)

	run := &recorder.RunRecord{
		Subject:   subject,
		Tickers:   len(entries),
		Advancers: rep.Summary.Advancers,
		Decliners: rep.Summary.Decliners,
		Sent:      sendErr == nil,
	}
	if err := r.deps.Recorder.RecordRun(run, rows); err != nil {
		r.deps.Logger.Warn().Err(err).Msg("record run failed")
	}

	if sendErr != nil {
		return fmt.Errorf("run digest: %w", sendErr)
	}
	r.deps.Logger.Info().
		Dur("elapsed", r.now().Sub(start)).
		Int("advancers", rep.Summary.Advancers).
		Int("decliners", rep.Summary.Decliners).
		Msg("digest run complete")
	return nil
}

// fetchAll resolves every ticker, optionally in parallel. Results keep
// universe order so the report and audit rows are deterministic.
func (r *Runner) fetchAll(ctx context.Context) ([]model.Entry, []recorder.TickerRow) {
	entries := make([]model.Entry, len(r.deps.Universe))
	rows := make([]recorder.TickerRow, len(r.deps.Universe))

	sem := make(chan struct{}, r.deps.Workers)
	var wg sync.WaitGroup
	for i, c := range r.deps.Universe {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, c model.Company) {
			defer wg.Done()
			defer func() { <-sem }()
			entries[i], rows[i] = r.fetchOne(ctx, c)
		}(i, c)
	}
	wg.Wait()
	return entries, rows
}

func (r *Runner) fetchOne(ctx context.Context, c model.Company) (model.Entry, recorder.TickerRow) {
	res := r.deps.Fetcher.Fetch(ctx, c.Symbol)
	m := metrics.Compute(c.Symbol, res.Series)
	r.deps.Logger.Info().
		Str("symbol", c.Symbol).
		Str("source", res.Source).
		Int("bars", m.Bars).
		Msg("history resolved")

	entry := model.Entry{
		Company: c,
		Metrics: m,
		News:    r.deps.News.Snippet(c.Symbol),
	}
	return entry, recorder.TickerRow{Source: res.Source, Metrics: m}
}
