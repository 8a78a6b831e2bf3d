// Package mail contains the transports that deliver rendered outreach messages.
package mail

import (
	"context"
	"errors"
)

// ErrRejected signals that a transport refused a message.
var ErrRejected = errors.New("mail: message rejected")

// Message is a single rendered email addressed to one recipient.
type Message struct {
	SenderID    string
	RecipientID string
	Subject     string
	Body        string
}

// Transport delivers a message. A nil error means the message was accepted.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, msg Message) error

// Send implements Transport.
func (f TransportFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }
