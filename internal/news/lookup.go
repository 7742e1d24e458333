package news

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/phuslu/log"

	"MarketBrief/internal/model"
)

// Article is one upstream article-like record. The dump format varies by
// engine, so every field is optional and several aliases are accepted.
type Article struct {
	Title        string          `json:"title"`
	Headline     string          `json:"headline"`
	Summary      string          `json:"summary"`
	Description  string          `json:"description"`
	URL          string          `json:"url"`
	Link         string          `json:"link"`
	ArticleURL   string          `json:"article_url"`
	Source       json.RawMessage `json:"source"`
	PublishedAt  string          `json:"publishedAt"`
	PublishedAt2 string          `json:"published_at"`
	Time         string          `json:"time"`
	Ticker       string          `json:"ticker"`
	Symbol       string          `json:"symbol"`
	Tickers      []string        `json:"tickers"`
	Symbols      []string        `json:"symbols"`
	Related      []string        `json:"relatedTickers"`
}

// rivalPattern matches megacap tickers whose mention in a headline usually
// means the article is about them, not the ticker under scoring.
var rivalPattern = regexp.MustCompile(`\b(NVDA|AMD|INTC|TSLA|AAPL|MSFT|META|GOOGL|AMZN)\b`)

// Lookup maps tickers to their best-effort news snippet from an externally
// supplied dump. Fetching the dump is someone else's job.
type Lookup struct {
	byTicker map[string][]Article
	logger   log.Logger
}

// Load reads a news dump file. A missing or unreadable file yields an
// empty lookup, not an error: the report degrades to fallback URLs.
func Load(path string, logger log.Logger) *Lookup {
	l := &Lookup{byTicker: map[string][]Article{}, logger: logger}
	if path == "" {
		return l
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn().Str("path", path).Err(err).Msg("news dump unavailable")
		return l
	}
	if err := l.parse(data); err != nil {
		logger.Warn().Str("path", path).Err(err).Msg("news dump unparseable")
	}
	return l
}

// parse accepts the dump shapes the reporting engines have produced over
// time: a ticker-keyed object whose values carry article lists under
// top_articles/articles/items, or a flat items/results list where each
// article names its own ticker.
func (l *Lookup) parse(data []byte) error {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("decode news dump: %w", err)
	}

	for key, raw := range root {
		ticker := strings.ToUpper(key)
		var direct []Article
		if err := json.Unmarshal(raw, &direct); err == nil {
			if len(direct) > 0 {
				l.byTicker[ticker] = append(l.byTicker[ticker], direct...)
			}
			continue
		}
		var wrapped struct {
			TopArticles []Article `json:"top_articles"`
			Articles    []Article `json:"articles"`
			Items       []Article `json:"items"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			continue
		}
		for _, arts := range [][]Article{wrapped.TopArticles, wrapped.Articles, wrapped.Items} {
			if len(arts) > 0 {
				l.byTicker[ticker] = append(l.byTicker[ticker], arts...)
			}
		}
	}

	// Flat list variants: group by each article's own ticker.
	for _, listKey := range []string{"items", "results"} {
		raw, ok := root[listKey]
		if !ok {
			continue
		}
		var flat []Article
		if err := json.Unmarshal(raw, &flat); err != nil {
			continue
		}
		delete(l.byTicker, strings.ToUpper(listKey))
		for _, a := range flat {
			t := a.Ticker
			if t == "" {
				t = a.Symbol
			}
			if t == "" {
				for _, arr := range [][]string{a.Tickers, a.Symbols, a.Related} {
					if len(arr) > 0 {
						t = arr[0]
						break
					}
				}
			}
			if t == "" {
				continue
			}
			T := strings.ToUpper(t)
			l.byTicker[T] = append(l.byTicker[T], a)
		}
	}
	return nil
}

// FallbackURL is the per-ticker news page used when no article URL exists.
func FallbackURL(ticker string) string {
	return fmt.Sprintf("https://finance.yahoo.com/quote/%s/news", ticker)
}

// Snippet selects the best article for a ticker. The URL is always
// populated; the remaining fields stay empty when nothing scores above
// zero.
func (l *Lookup) Snippet(ticker string) model.NewsSnippet {
	t := strings.ToUpper(ticker)
	snippet := model.NewsSnippet{Ticker: t, URL: FallbackURL(t)}

	best, bestScore := Article{}, -1
	for _, a := range l.byTicker[t] {
		if s := scoreArticle(t, a); s > bestScore {
			best, bestScore = a, s
		}
	}
	if bestScore <= 0 {
		return snippet
	}

	snippet.Headline = firstNonEmpty(best.Title, best.Headline)
	snippet.Source = sourceName(best.Source)
	snippet.When = firstNonEmpty(best.PublishedAt, best.PublishedAt2, best.Time)
	snippet.URL = articleURL(t, best)
	return snippet
}

// scoreArticle ranks an article's relevance to a ticker: explicit ticker
// tags dominate, then title/summary/URL mentions; headlines naming a rival
// megacap are penalized.
func scoreArticle(ticker string, a Article) int {
	score := 0
	for _, arr := range [][]string{a.Tickers, a.Symbols, a.Related} {
		for _, x := range arr {
			if strings.EqualFold(x, ticker) {
				score += 100
			}
		}
	}
	if strings.EqualFold(a.Ticker, ticker) || strings.EqualFold(a.Symbol, ticker) {
		score += 100
	}

	title := clip(firstNonEmpty(a.Title, a.Headline), 200)
	summary := clip(firstNonEmpty(a.Summary, a.Description), 400)
	word := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(ticker) + `\b`)
	if word.MatchString(title) {
		score += 40
	}
	if word.MatchString(summary) {
		score += 20
	}
	u := articleURL(ticker, a)
	if regexp.MustCompile(`(?i)/quote/`+regexp.QuoteMeta(ticker)+`\b`).MatchString(u) ||
		regexp.MustCompile(`(?i)/\b`+regexp.QuoteMeta(ticker)+`\b`).MatchString(u) {
		score += 25
	}
	for _, r := range rivalPattern.FindAllString(strings.ToUpper(title), -1) {
		if r != ticker {
			score -= 15
			break
		}
	}
	return score
}

func articleURL(ticker string, a Article) string {
	for _, u := range []string{a.URL, a.Link, a.ArticleURL} {
		if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
			return u
		}
	}
	// Some feeds nest the URL inside the source object.
	var src struct {
		URL  string `json:"url"`
		Link string `json:"link"`
	}
	if len(a.Source) > 0 && json.Unmarshal(a.Source, &src) == nil {
		for _, u := range []string{src.URL, src.Link} {
			if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
				return u
			}
		}
	}
	return FallbackURL(ticker)
}

// sourceName extracts a display name from a source field that may be a
// bare string or a {name/id/domain} object.
func sourceName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		Name   string `json:"name"`
		ID     string `json:"id"`
		Domain string `json:"domain"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return firstNonEmpty(obj.Name, obj.ID, obj.Domain)
	}
	return ""
}

// companySuffixes are dropped when matching a headline to a company name.
var companySuffixes = regexp.MustCompile(`(?i)\b(inc|incorporated|corp|corporation|co|company|ltd|plc)\b\.?`)

// BelongsTo reports whether a headline plausibly concerns the company:
// either the ticker or a meaningful company-name token appears in it.
func BelongsTo(headline string, c model.Company) bool {
	if headline == "" {
		return false
	}
	h := strings.ToLower(headline)
	if t := strings.ToLower(c.Symbol); t != "" && strings.Contains(h, t) {
		return true
	}
	base := companySuffixes.ReplaceAllString(c.Name, "")
	base = strings.NewReplacer(",", " ", ".", " ").Replace(base)
	for i, tok := range strings.Fields(strings.ToLower(base)) {
		if len(tok) > 2 && strings.Contains(h, tok) {
			return true
		}
		if i == 0 && tok != "" && strings.Contains(h, tok) {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
