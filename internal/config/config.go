package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr       string
	AllowedOrigin  string
	ClientIPHeader string

	// keyed store
	StoreDriver   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// AI provider
	AIProvider        string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OllamaBaseURL     string
	OpenRouterBaseURL string
	OpenRouterAPIKey  string
	OpenRouterSiteURL string
	OpenRouterAppName string
	Models            Models

	// knowledge base
	KBURL      string
	KBCacheTTL time.Duration

	// email
	EmailProvider string
	EmailFrom     string
	EmailTo       string
	ResendAPIKey  string
	ResendBaseURL string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string

	// limits
	IPHourlyLimit    int
	SessionTurnLimit int
	BurstRPM         int
	BurstSize        int

	// rabbitMQ (empty URL disables event publishing)
	RabbitURL   string
	RabbitQueue string

	// worker
	DBDSN             string
	WorkerConcurrency int

	OTelEndpoint string

	// admin
	JWTSecret         string
	AdminPasswordHash string
}

// Models names the completion model used for each routing decision.
type Models struct {
	Classification string
	Simple         string
	Complex        string
}

func Load() Config {
	// DSN demo：
	// app:apppass@tcp(127.0.0.1:3306)/intake_chat?charset=utf8mb4&parseTime=true&loc=Local
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
			"app", "apppass", "127.0.0.1", "3306", "intake_chat",
		)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-change-me"
	}

	return Config{
		HTTPAddr:       envOr("HTTP_ADDR", ":8080"),
		AllowedOrigin:  envOr("ALLOWED_ORIGIN", "https://thelimbostudio.com"),
		ClientIPHeader: envOr("CLIENT_IP_HEADER", "CF-Connecting-IP"),

		StoreDriver:   envOr("STORE_DRIVER", "redis"),
		RedisAddr:     envOr("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		AIProvider:        envOr("AI_PROVIDER", "openai"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		OllamaBaseURL:     envOr("OLLAMA_BASE_URL", "http://localhost:11434"),
		OpenRouterBaseURL: envOr("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterSiteURL: os.Getenv("OPENROUTER_SITE_URL"),
		OpenRouterAppName: os.Getenv("OPENROUTER_APP_NAME"),
		Models: Models{
			Classification: envOr("MODEL_CLASSIFICATION", "gpt-4o-mini"),
			Simple:         envOr("MODEL_SIMPLE", "gpt-4o-mini"),
			Complex:        envOr("MODEL_COMPLEX", "gpt-4-turbo-2024-04-09"),
		},

		KBURL:      envOr("KB_URL", "https://thelimbostudio.com/data/kb.json"),
		KBCacheTTL: envDuration("KB_CACHE_TTL", 5*time.Minute),

		EmailProvider: envOr("EMAIL_PROVIDER", "resend"),
		EmailFrom:     envOr("EMAIL_FROM", "Limbo Studio Chat <noreply@thelimbostudio.com>"),
		EmailTo:       envOr("EMAIL_TO", "contact@thelimbostudio.com"),
		ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
		ResendBaseURL: envOr("RESEND_BASE_URL", "https://api.resend.com"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      envInt("SMTP_PORT", 587),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPass:      os.Getenv("SMTP_PASS"),

		IPHourlyLimit:    envInt("RATE_LIMIT_IP_PER_HOUR", 20),
		SessionTurnLimit: envInt("RATE_LIMIT_SESSION_TURNS", 12),
		BurstRPM:         envInt("BURST_RPM", 120),
		BurstSize:        envInt("BURST_SIZE", 20),

		RabbitURL:   os.Getenv("RABBIT_URL"),
		RabbitQueue: envOr("RABBIT_QUEUE", "chat_events"),

		DBDSN:             dsn,
		WorkerConcurrency: workerConcurrency(),

		OTelEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),

		JWTSecret:         secret,
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// workerConcurrency is clamped to [1, 50].
func workerConcurrency() int {
	n := envInt("WORKER_CONCURRENCY", 2)
	if n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}
