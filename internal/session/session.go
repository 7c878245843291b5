// Package session keeps the bounded, anonymous conversation record of one
// visitor in the keyed store.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/suPer8Hu/intake-chat/internal/store"
)

const (
	TTL           = 24 * time.Hour
	MaxTurns      = 4
	FragmentLimit = 200
	SummaryLimit  = 300
)

// Turn is one fragment of the conversation: either a user utterance (u) or
// an assistant reply (a).
type Turn struct {
	User      string `json:"u,omitempty"`
	Assistant string `json:"a,omitempty"`
}

func (t Turn) Text() string {
	if t.User != "" {
		return t.User
	}
	return t.Assistant
}

// Session timestamps are unix milliseconds.
type Session struct {
	Summary   string `json:"summary"`
	Turns     []Turn `json:"turns"`
	Count     int    `json:"count"`
	CreatedAt int64  `json:"createdAt"`
	LastAt    int64  `json:"lastAt"`
}

func New(now time.Time) *Session {
	ms := now.UnixMilli()
	return &Session{Turns: []Turn{}, CreatedAt: ms, LastAt: ms}
}

// AddUserTurn records a user message and counts it against the session.
func (s *Session) AddUserTurn(text string, now time.Time) {
	s.Turns = append(s.Turns, Turn{User: Truncate(text, FragmentLimit)})
	s.Count++
	s.LastAt = now.UnixMilli()
}

// AddAssistantTurn records the reply, keeps only the last MaxTurns fragments
// and rebuilds the summary.
func (s *Session) AddAssistantTurn(text string) {
	s.Turns = append(s.Turns, Turn{Assistant: Truncate(text, FragmentLimit)})
	if len(s.Turns) > MaxTurns {
		s.Turns = append([]Turn(nil), s.Turns[len(s.Turns)-MaxTurns:]...)
	}
	s.Summary = s.buildSummary()
}

// RecentTurns returns up to the last MaxTurns fragments.
func (s *Session) RecentTurns() []Turn {
	if len(s.Turns) <= MaxTurns {
		return s.Turns
	}
	return s.Turns[len(s.Turns)-MaxTurns:]
}

func (s *Session) buildSummary() string {
	recent := s.RecentTurns()
	texts := make([]string, 0, len(recent))
	for _, t := range recent {
		texts = append(texts, t.Text())
	}
	topics := cut(strings.Join(texts, " "), SummaryLimit)
	return "[" + strconv.Itoa(s.Count) + " turns] " + topics
}

// Truncate keeps the first max runes and marks the cut with "...".
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

func cut(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

type Manager struct {
	kv  store.KV
	now func() time.Time
}

func NewManager(kv store.KV, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{kv: kv, now: now}
}

func key(id string) string {
	return store.SessionPrefix + id
}

// Load never fails: an absent, expired, unreadable or undecodable record
// yields a fresh session under the same id.
func (m *Manager) Load(ctx context.Context, id string) *Session {
	raw, found, err := m.kv.Get(ctx, key(id))
	if err != nil {
		slog.Warn("session load failed, starting fresh", "session_id", id, "err", err)
		return New(m.now())
	}
	if !found {
		return New(m.now())
	}

	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		slog.Warn("session decode failed, starting fresh", "session_id", id, "err", err)
		return New(m.now())
	}
	if s.Turns == nil {
		s.Turns = []Turn{}
	}
	return &s
}

// Save overwrites the record and restarts its 24h TTL. Concurrent saves for
// one id are not coordinated; the last one wins.
func (m *Manager) Save(ctx context.Context, id string, s *Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return m.kv.Set(ctx, key(id), string(b), TTL)
}
