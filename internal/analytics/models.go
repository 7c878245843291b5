package analytics

import "time"

// Event is one pipeline event as delivered by the broker.
type Event struct {
	ID         string    `gorm:"primaryKey;size:26"` // ULID length
	Type       string    `gorm:"type:varchar(48);index;not null"`
	SessionID  string    `gorm:"type:varchar(128);index"`
	Data       string    `gorm:"type:text"`
	OccurredAt time.Time `gorm:"index;not null"`
	CreatedAt  time.Time
}

func (Event) TableName() string { return "chat_events" }

// SessionStat is the per-session roll-up kept next to the raw events.
type SessionStat struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement"`
	SessionID      string `gorm:"type:varchar(128);uniqueIndex;not null"`
	Turns          int    `gorm:"not null;default:0"`
	LastStep       string `gorm:"type:varchar(16)"`
	LastTier       string `gorm:"type:varchar(16)"`
	Escalated      bool   `gorm:"not null;default:false"`
	TranscriptSent bool   `gorm:"not null;default:false"`
	FirstSeenAt    time.Time
	LastSeenAt     time.Time `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (SessionStat) TableName() string { return "chat_session_stats" }
