package mailer

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"
)

// Config holds delivery settings for one mailer instance.
type Config struct {
	Host       string
	Port       int
	Sender     string
	Password   string
	Recipients []string
	CCSender   bool
	AdminBCC   []string
	DryRun     bool
	Debug      bool
}

// Mailer sends the rendered digest over SMTP with STARTTLS. Any failure
// surfaces as a single wrapped error; there is no retry.
type Mailer struct {
	cfg    Config
	logger log.Logger
	now    func() time.Time
}

// New creates a mailer.
func New(cfg Config, logger log.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: logger, now: time.Now}
}

// Send builds an RFC 5322 message with plain and HTML alternatives and
// submits it. In dry-run mode the message is built and logged but never
// dialed.
func (m *Mailer) Send(ctx context.Context, subject, htmlBody, textBody string) error {
	msg := m.buildMessage(subject, htmlBody, textBody)
	rcpts := m.envelopeRecipients()

	if m.cfg.Debug {
		m.logger.Info().
			Str("subject", subject).
			Int("bytes", len(msg)).
			Strs("recipients", rcpts).
			Msg("message assembled")
	}

	if m.cfg.DryRun {
		m.logger.Info().Str("subject", subject).Msg("dry run, skipping delivery")
		return nil
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.submit(ctx, addr, rcpts, msg); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	m.logger.Info().Str("subject", subject).Int("recipients", len(rcpts)).Msg("digest sent")
	return nil
}

// envelopeRecipients is the full RCPT list: visible recipients, the
// optional sender CC, and the admin BCC addresses that never appear in
// headers.
func (m *Mailer) envelopeRecipients() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(addr string) {
		if addr != "" && !seen[addr] {
			seen[addr] = true
			out = append(out, addr)
		}
	}
	for _, r := range m.cfg.Recipients {
		add(r)
	}
	if m.cfg.CCSender {
		add(m.cfg.Sender)
	}
	for _, r := range m.cfg.AdminBCC {
		add(r)
	}
	return out
}

func (m *Mailer) buildMessage(subject, htmlBody, textBody string) string {
	boundary := "brief_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", m.cfg.Sender))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(m.cfg.Recipients, ", ")))
	if m.cfg.CCSender {
		msg.WriteString(fmt.Sprintf("Cc: %s\r\n", m.cfg.Sender))
	}
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", m.now().Format(time.RFC1123Z)))
	msg.WriteString(fmt.Sprintf("Message-ID: <%s@%s>\r\n", uuid.NewString(), senderDomain(m.cfg.Sender)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary))
	msg.WriteString("\r\n")

	// Plain text part first so HTML wins in capable clients.
	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	msg.WriteString("Content-Transfer-Encoding: base64\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(encodeBase64WithLineBreaks(textBody))
	msg.WriteString("\r\n")

	// Base64 keeps every line under the RFC 5322 limit regardless of the
	// HTML content.
	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("Content-Transfer-Encoding: base64\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(encodeBase64WithLineBreaks(htmlBody))
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return msg.String()
}

// submit dials the server, upgrades with STARTTLS, authenticates and
// writes the message.
func (m *Mailer) submit(ctx context.Context, addr string, rcpts []string, msg string) error {
	host := m.cfg.Host

	dialer := &net.Dialer{Timeout: 30 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return fmt.Errorf("starttls: %w", err)
	}
	auth := smtp.PlainAuth("", m.cfg.Sender, m.cfg.Password, host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := client.Mail(m.cfg.Sender); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range rcpts {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt %s: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}
	return client.Quit()
}

func senderDomain(sender string) string {
	if i := strings.LastIndex(sender, "@"); i >= 0 && i+1 < len(sender) {
		return sender[i+1:]
	}
	return "localhost"
}

// encodeBase64WithLineBreaks wraps base64 output at 76 characters per
// RFC 2045.
func encodeBase64WithLineBreaks(content string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(content))

	var result strings.Builder
	const lineLen = 76
	for i := 0; i < len(encoded); i += lineLen {
		end := i + lineLen
		if end > len(encoded) {
			end = len(encoded)
		}
		result.WriteString(encoded[i:end])
		if end < len(encoded) {
			result.WriteString("\r\n")
		}
	}
	return result.String()
}
