// Package contact relays website contact-form inquiries to the studio inbox.
package contact

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"regexp"
	"strings"

	"github.com/suPer8Hu/intake-chat/internal/common"
	"github.com/suPer8Hu/intake-chat/internal/email"
	"github.com/suPer8Hu/intake-chat/internal/events"
	"github.com/suPer8Hu/intake-chat/internal/telemetry"
)

const (
	maxName    = 120
	maxEmail   = 200
	maxMessage = 8000
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var bodyTmpl = template.Must(template.New("contact").Parse(
	`<p><b>From:</b> {{.Name}} &lt;{{.Email}}&gt;</p><pre>{{.Message}}</pre>`))

type Inquiry struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// normalize clips every field to its limit, the way the form always has.
func (q Inquiry) normalize() Inquiry {
	return Inquiry{
		Name:    clip(strings.TrimSpace(q.Name), maxName),
		Email:   clip(strings.TrimSpace(q.Email), maxEmail),
		Message: clip(q.Message, maxMessage),
	}
}

type Recorder interface {
	Record(ctx context.Context, typ, sessionID string, data map[string]any)
}

type Service struct {
	sender email.Sender
	inbox  string
	events Recorder
}

func New(sender email.Sender, inbox string, rec Recorder) *Service {
	return &Service{sender: sender, inbox: inbox, events: rec}
}

func (s *Service) Submit(ctx context.Context, in Inquiry) error {
	q := in.normalize()
	if q.Name == "" || !emailRe.MatchString(q.Email) {
		return common.ErrInvalidInput
	}

	var buf bytes.Buffer
	if err := bodyTmpl.Execute(&buf, q); err != nil {
		return err
	}

	err := s.sender.Send(ctx, email.Message{
		To:      []string{s.inbox},
		Subject: "New inquiry from " + q.Name,
		HTML:    buf.String(),
		ReplyTo: q.Email,
	})
	if err != nil {
		telemetry.Emails.WithLabelValues("contact", "failed").Inc()
		return errors.Join(common.ErrDeliveryFailed, err)
	}
	telemetry.Emails.WithLabelValues("contact", "sent").Inc()

	if s.events != nil {
		s.events.Record(ctx, events.ContactSent, "", nil)
	}
	return nil
}

func clip(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
