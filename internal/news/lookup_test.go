package news

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketBrief/internal/model"
)

func testLogger() log.Logger {
	return log.Logger{Level: log.ErrorLevel}
}

func writeDump(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "news.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSnippet_TickerKeyedDump(t *testing.T) {
	dump := `{
		"AAPL": {"top_articles": [
			{"title": "Apple unveils new chip", "source": {"name": "Reuters"},
			 "publishedAt": "2024-06-10T14:00:00Z", "url": "https://example.com/aapl-chip",
			 "tickers": ["AAPL"]},
			{"title": "Tech roundup", "url": "https://example.com/roundup"}
		]},
		"MSFT": {"articles": [
			{"headline": "MSFT earnings beat", "link": "https://example.com/msft"}
		]}
	}`
	l := Load(writeDump(t, dump), testLogger())

	s := l.Snippet("AAPL")
	assert.Equal(t, "Apple unveils new chip", s.Headline)
	assert.Equal(t, "Reuters", s.Source)
	assert.Equal(t, "2024-06-10T14:00:00Z", s.When)
	assert.Equal(t, "https://example.com/aapl-chip", s.URL)

	s = l.Snippet("msft")
	assert.Equal(t, "MSFT earnings beat", s.Headline)
	assert.Equal(t, "https://example.com/msft", s.URL)
}

func TestSnippet_FlatItemsDump(t *testing.T) {
	dump := `{"items": [
		{"ticker": "TSLA", "title": "Tesla opens new factory", "url": "https://example.com/tsla"},
		{"symbols": ["NVDA"], "title": "NVDA hits record", "url": "https://example.com/nvda"}
	]}`
	l := Load(writeDump(t, dump), testLogger())

	assert.Equal(t, "Tesla opens new factory", l.Snippet("TSLA").Headline)
	assert.Equal(t, "NVDA hits record", l.Snippet("NVDA").Headline)
}

func TestSnippet_FallbackURL(t *testing.T) {
	l := Load("", testLogger())
	s := l.Snippet("KOPN")
	assert.Empty(t, s.Headline)
	assert.Equal(t, "https://finance.yahoo.com/quote/KOPN/news", s.URL)

	// Unreadable file degrades the same way.
	l = Load("/nonexistent/news.json", testLogger())
	assert.Equal(t, "https://finance.yahoo.com/quote/AMZN/news", l.Snippet("AMZN").URL)
}

func TestScoreArticle_PrefersExplicitTags(t *testing.T) {
	tagged := Article{Title: "Chip market shifts", Tickers: []string{"AMD"}, URL: "https://example.com/a"}
	titleOnly := Article{Title: "AMD gains share", URL: "https://example.com/b"}
	rival := Article{Title: "NVDA dominates AI chips", URL: "https://example.com/c"}

	assert.Greater(t, scoreArticle("AMD", tagged), scoreArticle("AMD", titleOnly))
	assert.Less(t, scoreArticle("AMD", rival), 0)
}

func TestSnippet_NoPositiveScore(t *testing.T) {
	dump := `{"AMD": {"articles": [
		{"title": "NVDA dominates AI chips", "url": "https://example.com/nvda-story"}
	]}}`
	l := Load(writeDump(t, dump), testLogger())

	s := l.Snippet("AMD")
	assert.Empty(t, s.Headline, "rival-only article must not be attributed")
	assert.Equal(t, FallbackURL("AMD"), s.URL)
}

func TestBelongsTo(t *testing.T) {
	apple := model.Company{Symbol: "AAPL", Name: "Apple Inc."}
	assert.True(t, BelongsTo("Apple unveils new chip", apple))
	assert.True(t, BelongsTo("Analysts raise AAPL target", apple))
	assert.False(t, BelongsTo("Microsoft ships new Surface", apple))
	assert.False(t, BelongsTo("", apple))

	sky := model.Company{Symbol: "SKYQ", Name: "Sky Quarry Inc."}
	assert.True(t, BelongsTo("Sky Quarry announces pilot plant", sky))
}
