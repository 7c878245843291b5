package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_IP_PER_HOUR", "")
	t.Setenv("KB_CACHE_TTL", "")
	t.Setenv("MODEL_COMPLEX", "")

	cfg := Load()

	assert.Equal(t, 20, cfg.IPHourlyLimit)
	assert.Equal(t, 12, cfg.SessionTurnLimit)
	assert.Equal(t, 5*time.Minute, cfg.KBCacheTTL)
	assert.Equal(t, "gpt-4-turbo-2024-04-09", cfg.Models.Complex)
	assert.Equal(t, "https://thelimbostudio.com", cfg.AllowedOrigin)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_IP_PER_HOUR", "5")
	t.Setenv("KB_CACHE_TTL", "0s")
	t.Setenv("WORKER_CONCURRENCY", "500")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()

	assert.Equal(t, 5, cfg.IPHourlyLimit)
	assert.Equal(t, time.Duration(0), cfg.KBCacheTTL)
	assert.Equal(t, 50, cfg.WorkerConcurrency)
	assert.Equal(t, 0, cfg.RedisDB)
}
