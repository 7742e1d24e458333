package mailer

import (
	"strings"
	"time"
)

// maxHeadlineLen caps how much of a hero headline makes it into the
// subject line.
const maxHeadlineLen = 60

// fallbackSubjects rotate by day of year when no hero headline is
// available. %s is the formatted date.
var fallbackSubjects = []string{
	"Market Brief • %s",
	"Portfolio Brief • %s",
	"Today's Market Brief",
	"Market Watch • %s",
	"Daily Market Digest • %s",
}

// Subject builds the email subject from the hero headline, falling back
// to a rotating branded subject when none was picked.
func Subject(heroHeadline string, now time.Time) string {
	today := now.Format("January 2")

	h := strings.Join(strings.Fields(heroHeadline), " ")
	if h != "" {
		return truncateAtWord(h, maxHeadlineLen) + " • " + today
	}

	pattern := fallbackSubjects[now.YearDay()%len(fallbackSubjects)]
	if strings.Contains(pattern, "%s") {
		return strings.Replace(pattern, "%s", today, 1)
	}
	return pattern
}

// truncateAtWord shortens s to at most max runes, cutting at the last
// word boundary and appending an ellipsis.
func truncateAtWord(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	cut := string(r[:max-3])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
