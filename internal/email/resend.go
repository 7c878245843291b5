package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// ResendSender delivers through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	apiKey string
}

// NewResendSender builds a sender. baseURL may be empty for the public API.
func NewResendSender(baseURL, apiKey, from string) (*ResendSender, error) {
	c := resend.NewCustomClient(&http.Client{Timeout: 15 * time.Second}, apiKey)
	if baseURL != "" {
		u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("resend: base url: %w", err)
		}
		c.BaseURL = u
	}
	return &ResendSender{client: c, from: from, apiKey: apiKey}, nil
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(s.apiKey) == "" {
		return errors.New("resend: api key is required")
	}
	if len(msg.To) == 0 {
		return errors.New("resend: no recipients")
	}

	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		ReplyTo: msg.ReplyTo,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	slog.Info("email sent", "provider", "resend", "id", sent.Id)
	return nil
}
