package mail

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v3"
	"github.com/rs/zerolog"
)

// ResendConfig holds Resend provider settings.
type ResendConfig struct {
	APIKey      string
	FromAddress string
	// BaseURL overrides the API endpoint; empty uses the Resend default.
	BaseURL string
}

// Resend delivers messages through the Resend HTTP API. The configured
// FromAddress is the envelope sender; the outreach sender identity is set
// as Reply-To so responses reach the person who triggered the batch.
type Resend struct {
	client *resend.Client
	from   string
	logger zerolog.Logger
}

// NewResend constructs a Resend transport.
func NewResend(cfg ResendConfig, logger zerolog.Logger) (*Resend, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("mail: resend api key is required")
	}
	if strings.TrimSpace(cfg.FromAddress) == "" {
		return nil, errors.New("mail: resend from address is required")
	}
	client := resend.NewClient(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		u, err := url.Parse(strings.TrimSuffix(base, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("mail: parse resend base url: %w", err)
		}
		client.BaseURL = u
	}
	return &Resend{client: client, from: cfg.FromAddress, logger: logger}, nil
}

// Send implements Transport.
func (r *Resend) Send(ctx context.Context, msg Message) error {
	req := &resend.SendEmailRequest{
		From:    r.from,
		To:      []string{msg.RecipientID},
		Subject: msg.Subject,
		Text:    msg.Body,
		ReplyTo: msg.SenderID,
		Headers: map[string]string{"X-Outreach-Sender": msg.SenderID},
	}
	resp, err := r.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: resend: %v", ErrRejected, err)
	}
	if resp != nil {
		r.logger.Debug().Str("provider_id", resp.Id).Str("recipient_id", msg.RecipientID).Msg("resend_mail_accepted")
	}
	return nil
}
