// Package mail composes and delivers notification emails.
package mail

import (
	"bytes"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is one plain-text email.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string

	// ID is the Message-ID header without angle brackets.
	ID   string
	Date time.Time
}

// NewMessage creates a message with a fresh Message-ID.
func NewMessage(from string, to []string, subject, body string, now time.Time) Message {
	return Message{
		From:    from,
		To:      to,
		Subject: subject,
		Body:    body,
		ID:      fmt.Sprintf("%s@%s", uuid.NewString(), domainOf(from)),
		Date:    now,
	}
}

func domainOf(addr string) string {
	if _, domain, ok := strings.Cut(addr, "@"); ok && domain != "" {
		return strings.TrimRight(domain, ">")
	}
	return "oncall.local"
}

// Bytes renders the message in RFC 5322 form with CRLF line endings.
func (m Message) Bytes() []byte {
	var buf bytes.Buffer
	header := func(k, v string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}

	header("From", m.From)
	header("To", strings.Join(m.To, ", "))
	header("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	if !m.Date.IsZero() {
		header("Date", m.Date.Format(time.RFC1123Z))
	}
	if m.ID != "" {
		header("Message-ID", "<"+m.ID+">")
	}
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	header("Content-Transfer-Encoding", "8bit")
	buf.WriteString("\r\n")

	body := strings.ReplaceAll(m.Body, "\r\n", "\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return buf.Bytes()
}
