package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/dustin/go-humanize"

	"MarketBrief/internal/model"
)

//go:embed templates/digest.html.tmpl
var digestTemplate string

var tmpl = template.Must(template.New("digest").Parse(digestTemplate))

// cryptoPressURLs maps digital-asset symbols to their project blogs; other
// symbols get the generic press-releases page.
var cryptoPressURLs = map[string]string{
	"BTC-USD":  "https://bitcoin.org",
	"ETH-USD":  "https://blog.ethereum.org",
	"DOGE-USD": "https://blog.dogecoin.com",
	"XRP-USD":  "https://ripple.com/insights/",
}

const (
	chipUpBG     = template.CSS("#34d399")
	chipDownBG   = template.CSS("#f87171")
	chipSignedFG = template.CSS("#111")
	chipAbsentBG = template.CSS("#2a2a2a")
	chipAbsentFG = template.CSS("#9aa0a6")
)

type chipView struct {
	Label string
	Sign  string
	Text  string
	BG    template.CSS
	FG    template.CSS
}

type cardView struct {
	Name         string
	Ticker       string
	Price        string
	ChipsTop     []chipView
	ChipsBottom  []chipView
	RangeLeft    string       // percentage for the width attribute
	RangeCSS     template.CSS // same value as a CSS width
	RangeCaption string
	FirstBullet  string
	MoreBullets  []string
	NewsURL      string
	PressURL     string
}

type sectionView struct {
	Title string
	Rows  [][]cardView // one or two cards per row
}

type heroView struct {
	Headline string
	Meta     string
	URL      string
}

type pageView struct {
	AsOf      string
	HasCounts bool
	Advancers int
	Decliners int
	Winners   string
	Losers    string
	Catalysts []string
	Hero      *heroView
	Sections  []sectionView
}

// Renderer turns a Report into a self-contained HTML document. It is a
// pure function of its input: the same report renders to identical bytes.
type Renderer struct {
	belongs func(string, model.Company) bool
}

// NewRenderer creates a renderer. belongs gates headline attribution the
// same way the builder does (pass news.BelongsTo).
func NewRenderer(belongs func(string, model.Company) bool) *Renderer {
	return &Renderer{belongs: belongs}
}

// Render produces the full email HTML.
func (r *Renderer) Render(rep model.Report) (string, error) {
	page := pageView{
		AsOf:      FormatCentralFull(rep.Summary.AsOf),
		HasCounts: rep.Summary.Advancers+rep.Summary.Decliners > 0,
		Advancers: rep.Summary.Advancers,
		Decliners: rep.Summary.Decliners,
		Winners:   moverLine(rep.Summary.Winners),
		Losers:    moverLine(rep.Summary.Losers),
	}
	for _, c := range rep.Summary.Catalysts {
		page.Catalysts = append(page.Catalysts,
			fmt.Sprintf("%s %s (%s)", c.Ticker, c.Label, FormatCentralDate(c.Date)))
	}
	if h := rep.Summary.Hero; h != nil {
		page.Hero = &heroView{
			Headline: h.Headline,
			Meta:     headlineMeta(h.Source, h.When),
			URL:      h.URL,
		}
	}
	if len(rep.Equities) > 0 {
		page.Sections = append(page.Sections, sectionView{
			Title: "Stocks & ETFs",
			Rows:  gridRows(r.cards(rep.Equities)),
		})
	}
	if len(rep.Cryptos) > 0 {
		page.Sections = append(page.Sections, sectionView{
			Title: "Digital Assets",
			Rows:  gridRows(r.cards(rep.Cryptos)),
		})
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, page); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}

func (r *Renderer) cards(entries []model.Entry) []cardView {
	cards := make([]cardView, 0, len(entries))
	for _, e := range entries {
		cards = append(cards, r.card(e))
	}
	return cards
}

func (r *Renderer) card(e model.Entry) cardView {
	m := e.Metrics
	crypto := isCryptoEntry(e)

	name := e.Company.Name
	if name == "" {
		name = e.Company.Symbol
	}

	v := cardView{
		Name:   name,
		Ticker: e.Company.Symbol,
		Price:  formatPrice(m.Price, crypto),
		ChipsTop: []chipView{
			chip("1D", m.Pct1D),
			chip("1W", m.Pct1W),
		},
		ChipsBottom: []chipView{
			chip("1M", m.Pct1M),
			chip("YTD", m.PctYTD),
		},
		NewsURL:  e.News.URL,
		PressURL: pressURL(e.Company),
	}
	if v.NewsURL == "" {
		v.NewsURL = fmt.Sprintf("https://finance.yahoo.com/quote/%s/news", e.Company.Symbol)
	}

	pos := clampPct(m.RangePct)
	v.RangeLeft = fmt.Sprintf("%.1f", pos)
	v.RangeCSS = template.CSS(v.RangeLeft + "%")
	v.RangeCaption = fmt.Sprintf("Low $%s • High $%s",
		humanize.FormatFloat("#,###.##", m.Low52w), humanize.FormatFloat("#,###.##", m.High52w))

	if e.News.Headline != "" && (r.belongs == nil || r.belongs(e.News.Headline, e.Company)) {
		v.FirstBullet = "★ " + clampHeadline(e.News.Headline) + headlineMeta(e.News.Source, e.News.When)
	} else {
		v.FirstBullet = fmt.Sprintf("★ Latest %s coverage - see News below", name)
	}
	if e.Company.NextEvent != "" {
		v.MoreBullets = append(v.MoreBullets, "Next: "+FormatWhen(e.Company.NextEvent))
	}
	return v
}

// headlineMeta renders the "(source, date)" suffix, omitting whichever
// part is missing.
func headlineMeta(source, when string) string {
	var whenFmt string
	if when != "" {
		whenFmt = FormatWhen(when)
	}
	switch {
	case source != "" && whenFmt != "":
		return fmt.Sprintf(" (%s, %s)", source, whenFmt)
	case source != "":
		return fmt.Sprintf(" (%s)", source)
	case whenFmt != "":
		return fmt.Sprintf(" (%s)", whenFmt)
	default:
		return ""
	}
}

func chip(label string, pct *float64) chipView {
	if pct == nil {
		return chipView{Label: label, Text: "--", BG: chipAbsentBG, FG: chipAbsentFG}
	}
	v := chipView{
		Label: label,
		Text:  fmt.Sprintf("%+.1f%%", *pct),
		FG:    chipSignedFG,
	}
	if *pct >= 0 {
		v.Sign, v.BG = "▲", chipUpBG
	} else {
		v.Sign, v.BG = "▼", chipDownBG
	}
	return v
}

func formatPrice(price float64, crypto bool) string {
	if crypto {
		return "$" + humanize.FormatFloat("#,###.####", price)
	}
	return "$" + humanize.FormatFloat("#,###.##", price)
}

func pressURL(c model.Company) string {
	if c.PressURL != "" {
		return c.PressURL
	}
	if u, ok := cryptoPressURLs[strings.ToUpper(c.Symbol)]; ok {
		return u
	}
	return fmt.Sprintf("https://finance.yahoo.com/quote/%s/press-releases", c.Symbol)
}

func moverLine(movers []model.Mover) string {
	parts := make([]string, 0, len(movers))
	for _, m := range movers {
		parts = append(parts, fmt.Sprintf("%s %+.1f%%", m.Ticker, m.Pct))
	}
	return strings.Join(parts, " · ")
}

// gridRows pairs cards into two-column rows; an odd trailing card spans
// the full width.
func gridRows(cards []cardView) [][]cardView {
	var rows [][]cardView
	for i := 0; i < len(cards); i += 2 {
		end := i + 2
		if end > len(cards) {
			end = len(cards)
		}
		rows = append(rows, cards[i:end])
	}
	return rows
}

// maxBulletLen keeps headline bullets to one or two lines in the card.
const maxBulletLen = 120

func clampHeadline(s string) string {
	r := []rune(s)
	if len(r) <= maxBulletLen {
		return s
	}
	return strings.TrimRight(string(r[:maxBulletLen-3]), " ") + "..."
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
