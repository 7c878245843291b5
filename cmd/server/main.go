package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/intake-chat/internal/ai"
	"github.com/suPer8Hu/intake-chat/internal/chat"
	"github.com/suPer8Hu/intake-chat/internal/classify"
	"github.com/suPer8Hu/intake-chat/internal/config"
	"github.com/suPer8Hu/intake-chat/internal/contact"
	"github.com/suPer8Hu/intake-chat/internal/email"
	"github.com/suPer8Hu/intake-chat/internal/escalation"
	"github.com/suPer8Hu/intake-chat/internal/events"
	"github.com/suPer8Hu/intake-chat/internal/httpapi"
	"github.com/suPer8Hu/intake-chat/internal/httpapi/handlers"
	"github.com/suPer8Hu/intake-chat/internal/kb"
	"github.com/suPer8Hu/intake-chat/internal/ratelimit"
	"github.com/suPer8Hu/intake-chat/internal/session"
	"github.com/suPer8Hu/intake-chat/internal/store"
	"github.com/suPer8Hu/intake-chat/internal/store/memstore"
	"github.com/suPer8Hu/intake-chat/internal/store/rabbitmq"
	"github.com/suPer8Hu/intake-chat/internal/store/redisstore"
	"github.com/suPer8Hu/intake-chat/internal/telemetry"
)

const serviceName = "intake-chat"

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	gin.SetMode(gin.ReleaseMode)

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.OTelEndpoint, serviceName)
	if err != nil {
		slog.Error("tracer init failed", "err", err)
		os.Exit(1)
	}
	defer shutdownTracer(context.Background())

	kv, closeKV := openStore(ctx, cfg)
	defer closeKV()

	var pub events.Publisher
	if cfg.RabbitURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			slog.Error("rabbit publisher init failed", "err", err)
			os.Exit(1)
		}
		defer p.Close()
		pub = p
	}
	rec := events.NewRecorder(kv, pub, nil)

	sender, err := newSender(cfg)
	if err != nil {
		slog.Error("email init failed", "err", err)
		os.Exit(1)
	}

	reg := newRegistry(cfg)
	completer := ai.NewClient(reg, cfg.AIProvider)
	models := classify.Models(cfg.Models)

	sessions := session.NewManager(kv, nil)
	esc := escalation.New(kv, sender, cfg.EmailTo, rec, nil)

	svc := chat.NewService(chat.Deps{
		Limiter:    ratelimit.New(kv, sessions, cfg.IPHourlyLimit, cfg.SessionTurnLimit, nil),
		Sessions:   sessions,
		Retriever:  kb.NewRetriever(cfg.KBURL, cfg.KBCacheTTL),
		Classifier: classify.New(completer, models.Classification),
		Completer:  completer,
		Escalator:  esc,
		Events:     rec,
		Models:     models,
	})

	h := &handlers.Handler{
		ChatSvc:       svc,
		TranscriptSvc: esc,
		ContactSvc:    contact.New(sender, cfg.EmailTo, rec),
		Metrics:       rec,
		Admin: handlers.AdminConfig{
			JWTSecret:    cfg.JWTSecret,
			PasswordHash: cfg.AdminPasswordHash,
		},
	}

	r := httpapi.NewRouter(httpapi.Options{
		ServiceName:    serviceName,
		AllowedOrigin:  cfg.AllowedOrigin,
		ClientIPHeader: cfg.ClientIPHeader,
		BurstRPM:       cfg.BurstRPM,
		BurstSize:      cfg.BurstSize,
		JWTSecret:      cfg.JWTSecret,
		AdminEnabled:   cfg.AdminPasswordHash != "",
	}, h)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", cfg.HTTPAddr, "provider", cfg.AIProvider, "providers", reg.Names(), "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "err", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (store.KV, func()) {
	switch strings.ToLower(cfg.StoreDriver) {
	case "memory":
		slog.Warn("using in-memory store; state is lost on restart")
		return memstore.New(), func() {}
	default:
		rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rds.Ping(pingCtx); err != nil {
			// reads degrade to defaults, so start anyway
			slog.Warn("redis ping failed", "addr", cfg.RedisAddr, "err", err)
		}
		return rds, func() { _ = rds.Close() }
	}
}

func newSender(cfg config.Config) (email.Sender, error) {
	switch strings.ToLower(cfg.EmailProvider) {
	case "", "resend":
		if cfg.ResendAPIKey == "" {
			slog.Warn("RESEND_API_KEY is empty; email delivery will fail")
		}
		return email.NewResendSender(cfg.ResendBaseURL, cfg.ResendAPIKey, cfg.EmailFrom)
	case "smtp":
		return email.NewSMTPSender(email.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.EmailFrom,
		}), nil
	default:
		return nil, errors.New("unsupported EMAIL_PROVIDER=" + cfg.EmailProvider)
	}
}

// newRegistry registers every provider; AI_PROVIDER picks one per request.
func newRegistry(cfg config.Config) *ai.Registry {
	reg := ai.NewRegistry()
	reg.Register("openai", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is empty")
		}
		return ai.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, model), nil
	})
	reg.Register("openrouter", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		if cfg.OpenRouterAPIKey == "" {
			return nil, errors.New("OPENROUTER_API_KEY is empty")
		}
		return ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, model, cfg.OpenRouterSiteURL, cfg.OpenRouterAppName), nil
	})
	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, model), nil
	})
	return reg
}
