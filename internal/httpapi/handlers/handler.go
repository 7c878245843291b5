package handlers

import (
	"context"
	"time"

	"github.com/suPer8Hu/intake-chat/internal/chat"
	"github.com/suPer8Hu/intake-chat/internal/contact"
	"github.com/suPer8Hu/intake-chat/internal/escalation"
	"github.com/suPer8Hu/intake-chat/internal/events"
	"github.com/suPer8Hu/intake-chat/internal/prompt"
)

const serviceName = "limbo-chat"

type ChatService interface {
	Turn(ctx context.Context, ip string, req chat.Request) (prompt.Reply, error)
}

type TranscriptService interface {
	SendTranscript(ctx context.Context, req escalation.TranscriptRequest) (string, error)
}

type ContactService interface {
	Submit(ctx context.Context, in contact.Inquiry) error
}

type MetricsReader interface {
	Daily(ctx context.Context, typ string, day time.Time) (events.Aggregate, error)
}

type AdminConfig struct {
	JWTSecret    string
	PasswordHash string
	TokenTTL     time.Duration
}

type Handler struct {
	ChatSvc       ChatService
	TranscriptSvc TranscriptService
	ContactSvc    ContactService
	Metrics       MetricsReader
	Admin         AdminConfig
	Now           func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
