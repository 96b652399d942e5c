// Package mailtest provides a Mailer that records messages for tests.
package mailtest

import (
	"context"
	"sync"

	"github.com/vncsmyrnk/meetpoll/internal/core/ports"
)

type Recorder struct {
	mu       sync.Mutex
	messages []ports.MailMessage
	// Err, when set, is returned by every SendMail after recording.
	Err error
}

func (r *Recorder) SendMail(_ context.Context, msg ports.MailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return r.Err
}

func (r *Recorder) Messages() []ports.MailMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.MailMessage(nil), r.messages...)
}

// To returns the recorded messages addressed to address.
func (r *Recorder) To(address string) []ports.MailMessage {
	var out []ports.MailMessage
	for _, msg := range r.Messages() {
		if msg.RecipientAddress == address {
			out = append(out, msg)
		}
	}
	return out
}
