// Package events records pipeline events: a log line, a daily aggregate in
// the keyed store, Prometheus counters and, when configured, a broker message
// for the analytics worker. Recording never fails the caller.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/suPer8Hu/intake-chat/internal/common"
	"github.com/suPer8Hu/intake-chat/internal/store"
	"github.com/suPer8Hu/intake-chat/internal/telemetry"
)

const (
	QueryClassification = "query_classification"
	LLMCall             = "llm_call"
	ChatTurn            = "chat_turn"
	EscalationSent      = "auto_escalation_sent"
	TranscriptSent      = "transcript_sent"
	ContactSent         = "contact_sent"
)

// MetricsTTL bounds the daily aggregates.
const MetricsTTL = 7 * 24 * time.Hour

type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Aggregate is the daily counter stored under metrics:<type>:<date>.
type Aggregate struct {
	Count     int            `json:"count"`
	Breakdown map[string]int `json:"breakdown"`
}

type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

type Recorder struct {
	kv  store.KV
	pub Publisher
	now func() time.Time
}

// NewRecorder builds a recorder; pub may be nil.
func NewRecorder(kv store.KV, pub Publisher, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{kv: kv, pub: pub, now: now}
}

func (r *Recorder) Record(ctx context.Context, typ, sessionID string, data map[string]any) {
	id, err := common.NewULID()
	if err != nil {
		slog.Warn("event id generation failed", "event", typ, "err", err)
	}
	ev := Event{
		ID:        id,
		Type:      typ,
		SessionID: sessionID,
		Timestamp: r.now().UTC(),
		Data:      data,
	}

	attrs := []any{"event", typ, "event_id", ev.ID, "timestamp", ev.Timestamp.Format(time.RFC3339)}
	if sessionID != "" {
		attrs = append(attrs, "session_id", sessionID)
	}
	for k, v := range data {
		attrs = append(attrs, k, v)
	}
	slog.Info("chat event", attrs...)

	r.count(ev)

	if typ == QueryClassification || typ == LLMCall {
		if err := r.aggregate(ctx, ev); err != nil {
			slog.Warn("metrics aggregate failed", "event", typ, "err", err)
		}
	}

	if r.pub != nil {
		r.publish(ctx, ev)
	}
}

func (r *Recorder) count(ev Event) {
	switch ev.Type {
	case QueryClassification:
		if tier, ok := ev.Data["classification"].(string); ok {
			telemetry.Classifications.WithLabelValues(tier).Inc()
		}
	case LLMCall:
		if model, ok := ev.Data["model_used"].(string); ok {
			telemetry.ModelCalls.WithLabelValues(model).Inc()
		}
	case ChatTurn:
		if step, ok := ev.Data["step"].(string); ok {
			telemetry.ChatTurns.WithLabelValues(step).Inc()
		}
	}
}

func (r *Recorder) aggregate(ctx context.Context, ev Event) error {
	key := MetricsKey(ev.Type, ev.Timestamp)

	agg, err := r.Daily(ctx, ev.Type, ev.Timestamp)
	if err != nil {
		// unreadable aggregates restart from zero
		slog.Warn("metrics read failed", "key", key, "err", err)
		agg = Aggregate{Breakdown: map[string]int{}}
	}

	agg.Count++
	if v, ok := ev.Data["classification"].(string); ok && v != "" {
		agg.Breakdown[v]++
	}
	if v, ok := ev.Data["model_used"].(string); ok && v != "" {
		agg.Breakdown[v]++
	}

	b, err := json.Marshal(agg)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, key, string(b), MetricsTTL)
}

// Daily returns the aggregate for one event type and UTC day. A missing
// record is an empty aggregate.
func (r *Recorder) Daily(ctx context.Context, typ string, day time.Time) (Aggregate, error) {
	agg := Aggregate{Breakdown: map[string]int{}}
	raw, found, err := r.kv.Get(ctx, MetricsKey(typ, day))
	if err != nil {
		return agg, err
	}
	if !found {
		return agg, nil
	}
	if err := json.Unmarshal([]byte(raw), &agg); err != nil {
		return Aggregate{Breakdown: map[string]int{}}, err
	}
	if agg.Breakdown == nil {
		agg.Breakdown = map[string]int{}
	}
	return agg, nil
}

func (r *Recorder) publish(ctx context.Context, ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("event encode failed", "event", ev.Type, "err", err)
		return
	}
	if err := r.pub.Publish(ctx, b); err != nil {
		telemetry.EventPublishFailures.Inc()
		slog.Warn("event publish failed", "event", ev.Type, "event_id", ev.ID, "err", err)
	}
}

func MetricsKey(typ string, day time.Time) string {
	return store.MetricsPrefix + typ + ":" + day.UTC().Format("2006-01-02")
}
