package mailer

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMailer(cfg Config) *Mailer {
	m := New(cfg, log.Logger{Level: log.ErrorLevel})
	m.now = func() time.Time {
		return time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC)
	}
	return m
}

func baseConfig() Config {
	return Config{
		Host:       "smtp.example.com",
		Port:       587,
		Sender:     "digest@example.com",
		Password:   "secret",
		Recipients: []string{"a@example.com", "b@example.com"},
	}
}

func TestBuildMessage_Headers(t *testing.T) {
	cfg := baseConfig()
	cfg.CCSender = true
	msg := testMailer(cfg).buildMessage("Daily Brief", "<p>hi</p>", "hi")

	assert.Contains(t, msg, "From: digest@example.com\r\n")
	assert.Contains(t, msg, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, msg, "Cc: digest@example.com\r\n")
	assert.Contains(t, msg, "Subject: Daily Brief\r\n")
	assert.Contains(t, msg, "Date: Fri, 14 Jun 2024 12:00:00 +0000\r\n")
	assert.Contains(t, msg, "@example.com>\r\n") // Message-ID uses the sender domain
	assert.Contains(t, msg, "MIME-Version: 1.0\r\n")
	assert.Contains(t, msg, `Content-Type: multipart/alternative; boundary="brief_`)
}

func TestBuildMessage_PartsAreBase64(t *testing.T) {
	html := "<html><body>" + strings.Repeat("x", 3000) + "</body></html>"
	msg := testMailer(baseConfig()).buildMessage("S", html, "plain fallback")

	assert.Contains(t, msg, "Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	assert.Contains(t, msg, "Content-Type: text/html; charset=\"UTF-8\"\r\n")
	assert.Contains(t, msg, base64.StdEncoding.EncodeToString([]byte("plain fallback")))
	// No raw HTML leaks into the wire format.
	assert.NotContains(t, msg, "<body>")
	// Base64 wrapping keeps lines within RFC 5322 limits.
	for _, line := range strings.Split(msg, "\r\n") {
		assert.LessOrEqual(t, len(line), 998)
	}
}

func TestBuildMessage_BCCNotInHeaders(t *testing.T) {
	cfg := baseConfig()
	cfg.AdminBCC = []string{"admin@example.com"}
	m := testMailer(cfg)

	msg := m.buildMessage("S", "<p>x</p>", "x")
	assert.NotContains(t, msg, "admin@example.com")
	assert.Contains(t, m.envelopeRecipients(), "admin@example.com")
}

func TestEnvelopeRecipients_Dedup(t *testing.T) {
	cfg := baseConfig()
	cfg.CCSender = true
	cfg.AdminBCC = []string{"a@example.com", "admin@example.com"}

	got := testMailer(cfg).envelopeRecipients()
	assert.Equal(t, []string{"a@example.com", "b@example.com", "digest@example.com", "admin@example.com"}, got)
}

func TestSend_DryRunSkipsDial(t *testing.T) {
	cfg := baseConfig()
	cfg.DryRun = true
	cfg.Host = "unreachable.invalid"

	err := testMailer(cfg).Send(context.Background(), "S", "<p>x</p>", "x")
	require.NoError(t, err)
}

func TestSubject_Hero(t *testing.T) {
	now := time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC)

	got := Subject("Stocks climb as inflation cools", now)
	assert.Equal(t, "Stocks climb as inflation cools • June 14", got)

	// Internal whitespace collapses.
	got = Subject("Stocks  climb\n as inflation cools", now)
	assert.Equal(t, "Stocks climb as inflation cools • June 14", got)
}

func TestSubject_TruncatesAtWordBoundary(t *testing.T) {
	long := "Federal Reserve signals extended pause as inflation data complicates the policy outlook"
	got := Subject(long, time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC))

	assert.True(t, strings.Contains(got, "..."), got)
	assert.True(t, strings.HasSuffix(got, " • June 14"), got)
	head := strings.TrimSuffix(got, " • June 14")
	assert.LessOrEqual(t, len([]rune(head)), maxHeadlineLen)
	assert.NotContains(t, head, "complicat", "must cut at a word boundary")
}

func TestSubject_FallbackRotates(t *testing.T) {
	seen := make(map[string]bool)
	for day := 0; day < len(fallbackSubjects); day++ {
		now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC).AddDate(0, 0, day)
		seen[Subject("", now)] = true
	}
	assert.Len(t, seen, len(fallbackSubjects))
}
