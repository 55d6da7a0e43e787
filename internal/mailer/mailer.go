// Package mailer delivers transactional email for the complaint lifecycle and account flows.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"mime/quotedprintable"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"go.uber.org/zap"

	"complaint-service/internal/logger"
)

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends multipart/alternative mail through an authenticated SMTP relay.
type SMTPMailer struct {
	host     string
	port     int
	user     string
	password string
	from     string
}

func NewSMTPMailer(host string, port int, user, password, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, user: user, password: password, from: from}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := buildMIME(m.from, msg)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := smtp.SendMail(addr, auth, envelopeAddress(m.from), []string{msg.To}, body); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// envelopeAddress extracts the bare address from "Name <addr>".
func envelopeAddress(from string) string {
	if i := strings.LastIndexByte(from, '<'); i >= 0 {
		return strings.TrimSuffix(from[i+1:], ">")
	}
	return from
}

func buildMIME(from string, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", mw.Boundary())

	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	}
	for _, p := range parts {
		if p.content == "" {
			continue
		}
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", p.contentType)
		header.Set("Content-Transfer-Encoding", "quoted-printable")

		w, err := mw.CreatePart(header)
		if err != nil {
			return nil, err
		}
		qp := quotedprintable.NewWriter(w)
		if _, err := qp.Write([]byte(p.content)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LogMailer stands in when SMTP is disabled and only records what would have been sent.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	logger.Info("Email delivery disabled, message logged",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// RetryMailer retries transient delivery failures with exponential backoff.
type RetryMailer struct {
	next     Mailer
	attempts uint
	delay    time.Duration
}

func NewRetryMailer(next Mailer, attempts uint, delay time.Duration) *RetryMailer {
	return &RetryMailer{next: next, attempts: attempts, delay: delay}
}

func (m *RetryMailer) Send(ctx context.Context, msg Message) error {
	return retry.Do(
		func() error {
			return m.next.Send(ctx, msg)
		},
		retry.Attempts(m.attempts),
		retry.Delay(m.delay),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(error) bool {
			return ctx.Err() == nil
		}),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("Retrying email delivery",
				zap.Uint("attempt", n+1),
				zap.String("to", msg.To),
				zap.Error(err),
			)
		}),
	)
}
