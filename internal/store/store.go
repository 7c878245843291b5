// Package store defines the volatile keyed store every component reads and
// writes through. Values are strings; every key carries its own TTL.
package store

import (
	"context"
	"time"
)

// KV is a plain get/put cache with per-key expiry. There is no
// compare-and-swap: concurrent writers to one key race and the last Set wins.
type KV interface {
	// Get returns found=false when the key is absent or expired.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set overwrites the key and resets its TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Key layout.
const (
	SessionPrefix    = "chat:sessions:"
	RateLimitPrefix  = "rl:ip:"
	EscalationPrefix = "escalation:sent:"
	TranscriptPrefix = "email:sent:"
	MetricsPrefix    = "metrics:"
)
