// Package ratelimit gates chat turns on a per-IP hourly counter and on the
// lifetime turn count of the session.
package ratelimit

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/suPer8Hu/intake-chat/internal/session"
	"github.com/suPer8Hu/intake-chat/internal/store"
)

const (
	DefaultIPHourly     = 20
	DefaultSessionTurns = 12
	bucketTTL           = time.Hour
)

type Limiter struct {
	kv           store.KV
	sessions     *session.Manager
	ipHourly     int
	sessionTurns int
	now          func() time.Time
}

func New(kv store.KV, sessions *session.Manager, ipHourly, sessionTurns int, now func() time.Time) *Limiter {
	if ipHourly <= 0 {
		ipHourly = DefaultIPHourly
	}
	if sessionTurns <= 0 {
		sessionTurns = DefaultSessionTurns
	}
	if now == nil {
		now = time.Now
	}
	return &Limiter{kv: kv, sessions: sessions, ipHourly: ipHourly, sessionTurns: sessionTurns, now: now}
}

// HourBucket is floor(unix seconds / 3600).
func HourBucket(t time.Time) int64 {
	return t.Unix() / 3600
}

func ipKey(ip string, bucket int64) string {
	return store.RateLimitPrefix + ip + ":" + strconv.FormatInt(bucket, 10)
}

// Admit reports whether one more chat turn may proceed. The IP counter is
// incremented before the session check, so a request rejected on the
// session cap still spends IP budget. The read-then-write is not atomic:
// concurrent requests may overshoot either cap by a small amount.
func (l *Limiter) Admit(ctx context.Context, ip, sessionID string) (bool, error) {
	k := ipKey(ip, HourBucket(l.now()))

	count := 0
	raw, found, err := l.kv.Get(ctx, k)
	if err != nil {
		slog.Warn("rate limit read failed", "key", k, "err", err)
	} else if found {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			count = n
		}
	}

	if count >= l.ipHourly {
		return false, nil
	}

	if err := l.kv.Set(ctx, k, strconv.Itoa(count+1), bucketTTL); err != nil {
		return false, err
	}

	sess := l.sessions.Load(ctx, sessionID)
	if sess.Count >= l.sessionTurns {
		return false, nil
	}
	return true, nil
}
