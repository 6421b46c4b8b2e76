// Package notificationtest provides an in-memory Mailer for tests.
package notificationtest

import (
	"context"
	"sync"

	"github.com/KromaEnergia/speaker-booking/internal/notification"
)

// Recorder keeps every message it is asked to send. Setting Err makes every send fail.
type Recorder struct {
	mu   sync.Mutex
	sent []notification.Message
	Err  error
}

func (r *Recorder) Send(_ context.Context, msg notification.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *Recorder) Sent() []notification.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notification.Message, len(r.sent))
	copy(out, r.sent)
	return out
}

// To returns the messages addressed to email.
func (r *Recorder) To(email string) []notification.Message {
	var out []notification.Message
	for _, m := range r.Sent() {
		if m.To == email {
			out = append(out, m)
		}
	}
	return out
}
