package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"

	"github.com/rs/zerolog"
)

// ErrSend wraps every delivery failure.
var ErrSend = errors.New("send email")

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers over SMTP with STARTTLS and PLAIN auth.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string

	// TLSConfig overrides the STARTTLS configuration. Nil verifies Host.
	TLSConfig *tls.Config
}

// Send dials the server, authenticates and transmits msg. The context
// bounds the whole exchange.
func (s *SMTPSender) Send(ctx context.Context, msg Message) (err error) {
	if len(msg.To) == 0 {
		return fmt.Errorf("%w: no recipients", ErrSend)
	}

	addr := net.JoinHostPort(s.Host, fmt.Sprint(s.Port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrSend, addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("%w: %v", ErrSend, err)
	}
	defer func() {
		if cerr := c.Close(); cerr != nil && err == nil && !errors.Is(cerr, net.ErrClosed) {
			err = fmt.Errorf("%w: close: %v", ErrSend, cerr)
		}
	}()

	if ok, _ := c.Extension("STARTTLS"); !ok {
		return fmt.Errorf("%w: %s does not offer STARTTLS", ErrSend, addr)
	}
	tlsConfig := s.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{ServerName: s.Host, MinVersion: tls.VersionTLS12}
	}
	if err := c.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("%w: starttls: %v", ErrSend, err)
	}

	if s.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", s.Username, s.Password, s.Host)); err != nil {
			return fmt.Errorf("%w: auth: %v", ErrSend, err)
		}
	}

	if err := c.Mail(msg.From); err != nil {
		return fmt.Errorf("%w: MAIL FROM: %v", ErrSend, err)
	}
	for _, rcpt := range msg.To {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("%w: RCPT TO %s: %v", ErrSend, rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("%w: DATA: %v", ErrSend, err)
	}
	if _, err := w.Write(msg.Bytes()); err != nil {
		_ = w.Close()
		return fmt.Errorf("%w: write body: %v", ErrSend, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: finish DATA: %v", ErrSend, err)
	}

	return c.Quit()
}

// DryRunSender logs what would have been sent and always succeeds.
type DryRunSender struct {
	Log zerolog.Logger
}

// Send logs msg.
func (s DryRunSender) Send(ctx context.Context, msg Message) error {
	s.Log.Info().Ctx(ctx).
		Str("subject", msg.Subject).
		Strs("to", msg.To).
		Msg("dry-run: would send email")
	s.Log.Debug().Ctx(ctx).Str("body", msg.Body).Msg("dry-run: email body")
	return nil
}
