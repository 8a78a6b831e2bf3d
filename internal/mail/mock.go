package mail

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Mock accepts every message and keeps a copy in memory. It stands in for a
// real provider in development and tests.
type Mock struct {
	Logger zerolog.Logger

	mu     sync.Mutex
	outbox []Message
}

// NewMock constructs a Mock transport.
func NewMock(logger zerolog.Logger) *Mock {
	return &Mock{Logger: logger}
}

// Send records msg and reports it as delivered.
func (m *Mock) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.outbox = append(m.outbox, msg)
	m.mu.Unlock()
	m.Logger.Debug().
		Str("sender_id", msg.SenderID).
		Str("recipient_id", msg.RecipientID).
		Str("subject", msg.Subject).
		Msg("mock_mail_delivered")
	return nil
}

// Outbox returns a copy of every message accepted so far.
func (m *Mock) Outbox() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.outbox))
	copy(out, m.outbox)
	return out
}
