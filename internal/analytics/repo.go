// Package analytics persists chat events consumed from the broker.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/suPer8Hu/intake-chat/internal/events"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Migrate() error {
	return r.db.AutoMigrate(&Event{}, &SessionStat{})
}

// Persist stores ev and folds it into the session roll-up. Redelivered
// events (same id) are ignored, so it reports false for them.
func (r *Repo) Persist(ctx context.Context, ev events.Event) (bool, error) {
	if ev.ID == "" {
		return false, errors.New("event without id")
	}
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return false, err
	}

	inserted := false
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&Event{
			ID:         ev.ID,
			Type:       ev.Type,
			SessionID:  ev.SessionID,
			Data:       string(data),
			OccurredAt: ev.Timestamp,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		inserted = true

		if ev.SessionID == "" {
			return nil
		}
		return applyToStat(tx, ev)
	})
	return inserted, err
}

func applyToStat(tx *gorm.DB, ev events.Event) error {
	stat := SessionStat{
		SessionID:   ev.SessionID,
		FirstSeenAt: ev.Timestamp,
		LastSeenAt:  ev.Timestamp,
	}
	if err := tx.Where("session_id = ?", ev.SessionID).FirstOrCreate(&stat).Error; err != nil {
		return err
	}

	updates := map[string]any{}
	if ev.Timestamp.After(stat.LastSeenAt) {
		updates["last_seen_at"] = ev.Timestamp
	}
	switch ev.Type {
	case events.ChatTurn:
		updates["turns"] = gorm.Expr("turns + ?", 1)
		if step, ok := ev.Data["step"].(string); ok {
			updates["last_step"] = step
		}
	case events.QueryClassification:
		if tier, ok := ev.Data["classification"].(string); ok {
			updates["last_tier"] = tier
		}
	case events.EscalationSent:
		updates["escalated"] = true
	case events.TranscriptSent:
		updates["transcript_sent"] = true
	}
	if len(updates) == 0 {
		return nil
	}
	return tx.Model(&SessionStat{}).Where("id = ?", stat.ID).Updates(updates).Error
}

func (r *Repo) GetSessionStat(ctx context.Context, sessionID string) (*SessionStat, error) {
	var s SessionStat
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessionEvents returns events of one session, oldest first.
func (r *Repo) ListSessionEvents(ctx context.Context, sessionID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []Event
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("occurred_at ASC, id ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type TypeCount struct {
	Type  string
	Count int64
}

// CountByType counts events that occurred in [from, to).
func (r *Repo) CountByType(ctx context.Context, from, to time.Time) ([]TypeCount, error) {
	var out []TypeCount
	if err := r.db.WithContext(ctx).Model(&Event{}).
		Select("type, COUNT(*) AS count").
		Where("occurred_at >= ? AND occurred_at < ?", from, to).
		Group("type").
		Order("type").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
