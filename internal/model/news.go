package model

// NewsSnippet is the best-effort single headline selected for a ticker.
// Headline, Source and When may be empty; URL is always populated, falling
// back to the provider's per-ticker news page.
type NewsSnippet struct {
	Ticker   string
	Headline string
	Source   string
	When     string // raw upstream timestamp, parsed at render time
	URL      string
}
