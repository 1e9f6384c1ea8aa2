package mailer

import (
	"context"
	"sync"
)

// Mock records lifecycle notifications instead of delivering them. Set Err to
// simulate an SMTP outage; cancellation and refund flows must still succeed.
type Mock struct {
	mu   sync.Mutex
	Sent []Email
	Err  error
}

func (m *Mock) Send(ctx context.Context, e Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, e)
	return nil
}

// Last returns the most recently recorded email.
func (m *Mock) Last() (Email, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return Email{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}

// SentTo filters recorded emails by recipient address.
func (m *Mock) SentTo(addr string) []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Email
	for _, e := range m.Sent {
		for _, to := range e.To {
			if to == addr {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
