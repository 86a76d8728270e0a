// Package mailtest provides a recording mail.Sender for tests.
package mailtest

import (
	"context"
	"sync"

	"github.com/colonyops/oncall/internal/integration/mail"
)

// Recorder captures sent messages. Fail, when set, is consulted before each
// send; a non-nil error fails that message without recording it.
type Recorder struct {
	mu   sync.Mutex
	Sent []mail.Message
	Fail func(mail.Message) error
}

// Send records msg unless Fail rejects it.
func (r *Recorder) Send(_ context.Context, msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Fail != nil {
		if err := r.Fail(msg); err != nil {
			return err
		}
	}
	r.Sent = append(r.Sent, msg)
	return nil
}

// Subjects returns the subject of every recorded message in send order.
func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.Sent))
	for i, m := range r.Sent {
		out[i] = m.Subject
	}
	return out
}
