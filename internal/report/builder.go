package report

import (
	"sort"
	"strings"
	"time"

	"MarketBrief/internal/model"
)

// CatalystHorizon is the forward window for surfacing upcoming events.
const CatalystHorizon = 7 * 24 * time.Hour

// topMovers is how many winners and losers the summary lists.
const topMovers = 3

// marketKeywords mark a headline as broad-market rather than
// company-specific; used to pick the hero block.
var marketKeywords = []string{
	"market", "stocks", "equities", "dow", "nasdaq", "s&p", "s & p", "s-and-p",
	"futures", "indexes", "indices", "broad market", "wall street",
	"federal reserve", "fed", "inflation", "cpi", "pce", "jobs", "unemployment",
	"yield", "treasury", "economy", "recession",
}

// belongsFn lets the builder stay decoupled from the news package; the
// caller passes news.BelongsTo.
type belongsFn func(headline string, c model.Company) bool

// Builder assembles the per-run Report from computed entries.
type Builder struct {
	belongs belongsFn
}

// NewBuilder creates a report builder. belongs decides whether a headline
// concerns a given company.
func NewBuilder(belongs func(string, model.Company) bool) *Builder {
	return &Builder{belongs: belongs}
}

// Build derives the run summary and splits entries into sections. asOf is
// supplied by the caller so rendering stays a pure function of its input.
func (b *Builder) Build(entries []model.Entry, asOf time.Time) model.Report {
	var rep model.Report
	rep.Summary.AsOf = asOf

	var movers []model.Mover
	for _, e := range entries {
		if isCryptoEntry(e) {
			rep.Cryptos = append(rep.Cryptos, e)
		} else {
			rep.Equities = append(rep.Equities, e)
			if e.Metrics.Pct1D != nil {
				if *e.Metrics.Pct1D >= 0 {
					rep.Summary.Advancers++
				} else {
					rep.Summary.Decliners++
				}
				movers = append(movers, model.Mover{Ticker: e.Metrics.Symbol, Pct: *e.Metrics.Pct1D})
			}
		}
		if c := catalystFor(e.Company, asOf); c != nil {
			rep.Summary.Catalysts = append(rep.Summary.Catalysts, *c)
		}
	}

	rep.Summary.Winners = rank(movers, true)
	rep.Summary.Losers = rank(movers, false)
	sort.Slice(rep.Summary.Catalysts, func(i, j int) bool {
		a, bb := rep.Summary.Catalysts[i], rep.Summary.Catalysts[j]
		if !a.Date.Equal(bb.Date) {
			return a.Date.Before(bb.Date)
		}
		return a.Ticker < bb.Ticker
	})
	rep.Summary.Hero = b.pickHero(entries)
	return rep
}

func isCryptoEntry(e model.Entry) bool {
	return e.Company.Class == model.AssetCrypto ||
		strings.HasSuffix(strings.ToUpper(e.Company.Symbol), "-USD")
}

// rank returns the top movers by 1-day move; ties break on ticker so the
// report is deterministic.
func rank(movers []model.Mover, desc bool) []model.Mover {
	out := make([]model.Mover, len(movers))
	copy(out, movers)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pct != out[j].Pct {
			if desc {
				return out[i].Pct > out[j].Pct
			}
			return out[i].Pct < out[j].Pct
		}
		return out[i].Ticker < out[j].Ticker
	})
	if len(out) > topMovers {
		out = out[:topMovers]
	}
	return out
}

// catalystFor surfaces a company's scheduled event when it falls within
// the forward horizon of asOf.
func catalystFor(c model.Company, asOf time.Time) *model.Catalyst {
	if c.NextEvent == "" {
		return nil
	}
	d, err := time.Parse("2006-01-02", c.NextEvent)
	if err != nil {
		return nil
	}
	today := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	if d.Before(today) || d.After(today.Add(CatalystHorizon)) {
		return nil
	}
	return &model.Catalyst{Ticker: c.Symbol, Date: d, Label: "upcoming event"}
}

// pickHero finds a broad-market headline among the entries: keyword match
// required, non-company-specific preferred, newer preferred.
func (b *Builder) pickHero(entries []model.Entry) *model.NewsSnippet {
	var best *model.NewsSnippet
	bestScore := 0
	var bestTS time.Time

	for i := range entries {
		e := entries[i]
		h := e.News.Headline
		if h == "" || !hasMarketKeyword(h) {
			continue
		}
		score := 2
		if b.belongs != nil && b.belongs(h, e.Company) {
			score = 1
		}
		ts, _ := ParseWhen(e.News.When)
		if best == nil || score > bestScore || (score == bestScore && ts.After(bestTS)) {
			snippet := e.News
			best, bestScore, bestTS = &snippet, score, ts
		}
	}
	return best
}

func hasMarketKeyword(headline string) bool {
	h := strings.ToLower(headline)
	for _, k := range marketKeywords {
		if strings.Contains(h, k) {
			return true
		}
	}
	return false
}
