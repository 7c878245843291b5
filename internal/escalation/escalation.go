// Package escalation hands high-value conversations to the studio by email,
// either automatically (VERY_COMPLEX turns) or when the visitor asks for it.
// Both channels are idempotent per session through markers in the keyed store.
package escalation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/suPer8Hu/intake-chat/internal/common"
	"github.com/suPer8Hu/intake-chat/internal/email"
	"github.com/suPer8Hu/intake-chat/internal/events"
	"github.com/suPer8Hu/intake-chat/internal/prompt"
	"github.com/suPer8Hu/intake-chat/internal/session"
	"github.com/suPer8Hu/intake-chat/internal/store"
	"github.com/suPer8Hu/intake-chat/internal/telemetry"
)

const (
	EscalationMarkerTTL = 7 * 24 * time.Hour
	TranscriptMarkerTTL = 24 * time.Hour

	TicketPrefix      = "LC"
	TranscriptSubject = "New AI Chat Lead"
)

var visitorEmailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type Recorder interface {
	Record(ctx context.Context, typ, sessionID string, data map[string]any)
}

type Service struct {
	kv     store.KV
	sender email.Sender
	inbox  string
	events Recorder
	now    func() time.Time
}

func New(kv store.KV, sender email.Sender, inbox string, rec Recorder, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{kv: kv, sender: sender, inbox: inbox, events: rec, now: now}
}

// Input is the turn that triggered an escalation. Prior holds the session
// fragments recorded before the trigger message.
type Input struct {
	SessionID string
	Count     int
	Prior     []session.Turn
	Message   string
	Reply     string
}

// MaybeEscalate mails the conversation to the studio once per marker window.
// Failures are logged and never reach the visitor. It reports whether an
// email went out.
func (s *Service) MaybeEscalate(ctx context.Context, in Input) bool {
	key := store.EscalationPrefix + in.SessionID

	_, sent, err := s.kv.Get(ctx, key)
	if err != nil {
		slog.Warn("escalation marker read failed", "session_id", in.SessionID, "err", err)
	}
	if sent {
		telemetry.Emails.WithLabelValues("escalation", "skipped").Inc()
		return false
	}

	transcript := make([]Entry, 0, len(in.Prior)+2)
	for _, t := range in.Prior {
		if t.User != "" {
			transcript = append(transcript, Entry{Role: "user", Content: t.User})
		}
		if t.Assistant != "" {
			transcript = append(transcript, Entry{Role: "assistant", Content: t.Assistant})
		}
	}
	transcript = append(transcript,
		Entry{Role: "user", Content: in.Message},
		Entry{Role: "assistant", Content: in.Reply},
	)

	body, err := render(escalationTmpl, escalationView{
		SessionID:  in.SessionID,
		Count:      in.Count,
		At:         s.now(),
		Transcript: transcript,
	})
	if err != nil {
		slog.Error("escalation render failed", "session_id", in.SessionID, "err", err)
		return false
	}

	err = s.sender.Send(ctx, email.Message{
		To:      []string{s.inbox},
		Subject: fmt.Sprintf("🚨 High-Value Lead: Escalated Chat [%s]", last6(in.SessionID)),
		HTML:    body,
	})
	if err != nil {
		telemetry.Emails.WithLabelValues("escalation", "failed").Inc()
		slog.Error("escalation email failed", "session_id", in.SessionID, "err", err)
		return false
	}
	telemetry.Emails.WithLabelValues("escalation", "sent").Inc()

	if err := s.kv.Set(ctx, key, stampValue(s.now()), EscalationMarkerTTL); err != nil {
		slog.Error("escalation marker write failed", "session_id", in.SessionID, "err", err)
	}
	s.record(ctx, events.EscalationSent, in.SessionID, nil)
	return true
}

type TranscriptRequest struct {
	SessionID         string       `json:"session_id"`
	VisitorEmail      string       `json:"visitor_email"`
	Consent           bool         `json:"consent"`
	Transcript        []Entry      `json:"transcript"`
	Plan              *prompt.Plan `json:"plan"`
	AdditionalRequest string       `json:"additional_request"`
}

func (r TranscriptRequest) validate() error {
	if strings.TrimSpace(r.SessionID) == "" || !r.Consent || len(r.Transcript) == 0 {
		return common.ErrInvalidInput
	}
	if r.VisitorEmail != "" && !visitorEmailRe.MatchString(r.VisitorEmail) {
		return common.ErrInvalidInput
	}
	return nil
}

// SendTranscript delivers a visitor-requested transcript and returns its
// ticket id. A second call within the marker window returns
// common.ErrAlreadySent whatever the payload.
func (s *Service) SendTranscript(ctx context.Context, req TranscriptRequest) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}

	key := store.TranscriptPrefix + req.SessionID
	_, sent, err := s.kv.Get(ctx, key)
	if err != nil {
		slog.Warn("transcript marker read failed", "session_id", req.SessionID, "err", err)
	}
	if sent {
		return "", common.ErrAlreadySent
	}

	now := s.now()
	body, err := render(transcriptTmpl, transcriptView{
		VisitorEmail:      req.VisitorEmail,
		Transcript:        req.Transcript,
		Plan:              req.Plan,
		AdditionalRequest: req.AdditionalRequest,
		At:                now,
	})
	if err != nil {
		return "", fmt.Errorf("render transcript: %w", err)
	}

	err = s.sender.Send(ctx, email.Message{
		To:      []string{s.inbox},
		Subject: TranscriptSubject,
		HTML:    body,
		ReplyTo: req.VisitorEmail,
	})
	if err != nil {
		telemetry.Emails.WithLabelValues("transcript", "failed").Inc()
		return "", errors.Join(common.ErrDeliveryFailed, err)
	}
	telemetry.Emails.WithLabelValues("transcript", "sent").Inc()

	// the email is out; a lost marker only weakens idempotence
	if err := s.kv.Set(ctx, key, stampValue(now), TranscriptMarkerTTL); err != nil {
		slog.Error("transcript marker write failed", "session_id", req.SessionID, "err", err)
	}

	s.record(ctx, events.TranscriptSent, req.SessionID, map[string]any{
		"has_visitor_email": req.VisitorEmail != "",
	})
	return Ticket(req.SessionID, now), nil
}

// Ticket formats LC-<YYYY-MM-DD>-<last 6 chars of the session id>.
func Ticket(sessionID string, now time.Time) string {
	return TicketPrefix + "-" + now.UTC().Format("2006-01-02") + "-" + last6(sessionID)
}

// last6 returns the final six characters of s.
func last6(s string) string {
	r := []rune(s)
	if len(r) <= 6 {
		return s
	}
	return string(r[len(r)-6:])
}

func stampValue(t time.Time) string {
	return fmt.Sprintf("%d", t.UnixMilli())
}

func (s *Service) record(ctx context.Context, typ, sessionID string, data map[string]any) {
	if s.events != nil {
		s.events.Record(ctx, typ, sessionID, data)
	}
}
