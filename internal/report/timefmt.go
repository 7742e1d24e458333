package report

import (
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // report formatting must not depend on host tzdata
)

// Display timezone for every timestamp in the report.
var central = loadCentral()

func loadCentral() *time.Location {
	if loc, err := time.LoadLocation("America/Chicago"); err == nil {
		return loc
	}
	return time.FixedZone("CST", -6*3600)
}

// iso8601Layouts cover the common upstream variants that time.RFC3339
// alone rejects.
var iso8601Layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

var rfc2822Layouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
}

// ParseWhen interprets an ambiguous upstream timestamp by trying each
// strategy in a fixed order: Unix epoch (seconds or millis), ISO-8601,
// RFC-2822, then a bare YYYY-MM-DD date. Unparseable input yields ok=false.
func ParseWhen(value string) (time.Time, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, false
	}

	if isDigits(s) {
		if iv, err := strconv.ParseInt(s, 10, 64); err == nil {
			if iv > 10_000_000_000 { // millis
				iv /= 1000
			}
			return time.Unix(iv, 0).UTC(), true
		}
	}
	for _, layout := range iso8601Layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range rfc2822Layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// FormatCentral renders an instant in the display timezone. The
// time-of-day portion is omitted when it is exactly midnight, which makes
// date-only inputs read naturally; a genuine midnight timestamp is
// indistinguishable and collapses the same way.
func FormatCentral(t time.Time) string {
	tc := t.In(central)
	if tc.Hour() == 0 && tc.Minute() == 0 && tc.Second() == 0 {
		return tc.Format("01/02/2006")
	}
	return tc.Format("01/02/2006 15:04") + " CST"
}

// FormatCentralDate renders the date portion only.
func FormatCentralDate(t time.Time) string {
	return t.In(central).Format("01/02/2006")
}

// FormatCentralFull always includes the time-of-day and suffix; used for
// the "as of" header.
func FormatCentralFull(t time.Time) string {
	return t.In(central).Format("01/02/2006 15:04") + " CST"
}

// FormatWhen applies the full policy to a raw upstream value: parse, then
// render date-only in the display timezone. Unparseable values come back
// unchanged so the reader still sees something.
func FormatWhen(value string) string {
	t, ok := ParseWhen(value)
	if !ok {
		return value
	}
	return FormatCentralDate(t)
}
