// Package chat runs one conversational intake turn: admission, session,
// grounding, routing, generation and handoff.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/suPer8Hu/intake-chat/internal/ai"
	"github.com/suPer8Hu/intake-chat/internal/classify"
	"github.com/suPer8Hu/intake-chat/internal/common"
	"github.com/suPer8Hu/intake-chat/internal/escalation"
	"github.com/suPer8Hu/intake-chat/internal/events"
	"github.com/suPer8Hu/intake-chat/internal/prompt"
	"github.com/suPer8Hu/intake-chat/internal/session"
	"github.com/suPer8Hu/intake-chat/internal/telemetry"
)

type Admitter interface {
	Admit(ctx context.Context, ip, sessionID string) (bool, error)
}

type SessionStore interface {
	Load(ctx context.Context, id string) *session.Session
	Save(ctx context.Context, id string, s *session.Session) error
}

type Retriever interface {
	Retrieve(ctx context.Context, message, starter string) string
}

type Classifier interface {
	Classify(ctx context.Context, message string, turnCount int, summary string) classify.Tier
}

type Escalator interface {
	MaybeEscalate(ctx context.Context, in escalation.Input) bool
}

type Recorder interface {
	Record(ctx context.Context, typ, sessionID string, data map[string]any)
}

type Deps struct {
	Limiter    Admitter
	Sessions   SessionStore
	Retriever  Retriever
	Classifier Classifier
	Completer  ai.Completer
	Escalator  Escalator
	Events     Recorder
	Models     classify.Models
	Now        func() time.Time
}

type Service struct {
	Deps
	tracer trace.Tracer
}

func NewService(d Deps) *Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Service{Deps: d, tracer: telemetry.Tracer()}
}

type Request struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Starter   string `json:"starter"`
	ClientTS  int64  `json:"client_ts"`
}

// resolve validates the request and returns the text the pipeline works on.
func (r Request) resolve() (string, error) {
	if strings.TrimSpace(r.SessionID) == "" {
		return "", common.ErrInvalidInput
	}
	hasMsg, hasStarter := r.Message != "", r.Starter != ""
	if hasMsg == hasStarter {
		return "", common.ErrInvalidInput
	}

	text := r.Message
	if hasStarter {
		m, ok := StarterMessage(r.Starter)
		if !ok {
			return "", common.ErrInvalidInput
		}
		text = m
	}

	text = SanitizeInput(text)
	if text == "" {
		return "", common.ErrInvalidInput
	}
	if len([]rune(text)) > MaxMessageLen {
		return "", common.ErrMessageTooLong
	}
	return text, nil
}

// Turn runs the pipeline for one visitor message. Steps execute strictly in
// order: admit, load, retrieve, classify, generate, save, escalate.
func (s *Service) Turn(ctx context.Context, ip string, req Request) (prompt.Reply, error) {
	message, err := req.resolve()
	if err != nil {
		return prompt.Reply{}, err
	}
	sid := req.SessionID

	ctx, span := s.tracer.Start(ctx, "chat.turn", trace.WithAttributes(
		attribute.String("session.id", sid),
		attribute.Bool("chat.starter", req.Starter != ""),
	))
	defer span.End()

	ok, err := s.admit(ctx, ip, sid)
	if err != nil {
		return fail(span, fmt.Errorf("rate limit: %w", err))
	}
	if !ok {
		telemetry.RateLimited.Inc()
		span.SetAttributes(attribute.Bool("chat.rate_limited", true))
		return prompt.Reply{}, common.ErrRateLimited
	}

	sess := s.Sessions.Load(ctx, sid)
	prior := append([]session.Turn(nil), sess.Turns...)
	sess.AddUserTurn(message, s.Now())

	kbContext := s.retrieve(ctx, message, req.Starter)

	tier := s.classify(ctx, message, sess)
	s.record(ctx, events.QueryClassification, sid, map[string]any{
		"classification":  string(tier),
		"message_preview": MaskPII(preview(message, 100)),
	})
	span.SetAttributes(attribute.String("chat.tier", string(tier)))

	completion, escalate, err := s.generate(ctx, sess, sid, message, kbContext, tier)
	if err != nil {
		return fail(span, err)
	}

	reply := prompt.ParseCompletion(completion, escalate)
	sess.AddAssistantTurn(reply.Markdown)

	if err := s.Sessions.Save(ctx, sid, sess); err != nil {
		return fail(span, fmt.Errorf("save session: %w", err))
	}

	if escalate {
		_, espan := s.tracer.Start(ctx, "chat.escalate")
		sent := s.Escalator.MaybeEscalate(ctx, escalation.Input{
			SessionID: sid,
			Count:     sess.Count,
			Prior:     prior,
			Message:   message,
			Reply:     completion,
		})
		espan.SetAttributes(attribute.Bool("escalation.sent", sent))
		espan.End()
	}

	s.record(ctx, events.ChatTurn, sid, map[string]any{"step": reply.Step})
	span.SetAttributes(attribute.String("chat.step", reply.Step))
	return reply, nil
}

func (s *Service) admit(ctx context.Context, ip, sid string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "chat.rate_limit")
	defer span.End()
	return s.Limiter.Admit(ctx, ip, sid)
}

func (s *Service) retrieve(ctx context.Context, message, starter string) string {
	ctx, span := s.tracer.Start(ctx, "chat.retrieve")
	defer span.End()
	out := s.Retriever.Retrieve(ctx, message, starter)
	span.SetAttributes(attribute.Bool("kb.matched", out != ""))
	return out
}

func (s *Service) classify(ctx context.Context, message string, sess *session.Session) classify.Tier {
	ctx, span := s.tracer.Start(ctx, "chat.classify")
	defer span.End()
	return s.Classifier.Classify(ctx, message, sess.Count, sess.Summary)
}

// generate returns the assistant text for the turn and whether it is the
// fixed escalation handoff rather than a model reply.
func (s *Service) generate(ctx context.Context, sess *session.Session, sid, message, kbContext string, tier classify.Tier) (string, bool, error) {
	ctx, span := s.tracer.Start(ctx, "chat.generate")
	defer span.End()

	model, escalate := s.Models.ForTier(tier)
	if escalate {
		span.SetAttributes(attribute.Bool("chat.escalation", true))
		return escalation.Response(s.Now()), true, nil
	}

	span.SetAttributes(attribute.String("llm.model", model))
	text, err := s.Completer.Complete(ctx, prompt.Build(sess, message, kbContext), model, ai.ModeReply)
	if err != nil {
		span.RecordError(err)
		return "", false, fmt.Errorf("generate reply: %w", err)
	}

	s.record(ctx, events.LLMCall, sid, map[string]any{
		"classification": string(tier),
		"model_used":     model,
		"session_count":  sess.Count,
	})
	return text, false, nil
}

func (s *Service) record(ctx context.Context, typ, sid string, data map[string]any) {
	if s.Events != nil {
		s.Events.Record(ctx, typ, sid, data)
	}
}

func fail(span trace.Span, err error) (prompt.Reply, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if !errors.Is(err, common.ErrRateLimited) {
		slog.Error("chat turn failed", "err", err)
	}
	return prompt.Reply{}, err
}
