// Package models defines domain models for the fantasy league scoring system.
package models

import (
	"time"
)

// EventType represents a named scoring event in the reference catalog.
type EventType struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;size:100" json:"name"`
	DisplayName string    `gorm:"size:255" json:"display_name"`
	Category    string    `gorm:"size:50;not null" json:"category"` // 'basic', 'penalty', 'bonus'
	PointValue  int       `gorm:"not null" json:"point_value"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for EventType model.
func (EventType) TableName() string {
	return "event_types"
}

// Event category constants.
const (
	EventCategoryBasic   = "basic"
	EventCategoryPenalty = "penalty"
	EventCategoryBonus   = "bonus"
)

// Well-known event type names the scoring system keys on.
const (
	EventTypeEliminated  = "eliminated"
	EventTypeImmunityWin = "immunity_win"
	EventTypeRewardWin   = "reward_win"
	EventTypeIdolFound   = "idol_found"
)

// ContestantEvent is a ledger entry: one occurrence of an event type for a
// contestant in an episode. The ledger is append-only; removing an event
// appends a reversal entry with the negated point value instead of deleting
// the row, so totals remain a plain fold over all entries.
type ContestantEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	EpisodeID       uint       `gorm:"not null;index" json:"episode_id"`
	Episode         Episode    `gorm:"foreignKey:EpisodeID" json:"episode,omitempty"`
	ContestantID    uint       `gorm:"not null;index" json:"contestant_id"`
	Contestant      Contestant `gorm:"foreignKey:ContestantID" json:"contestant,omitempty"`
	EventTypeID     uint       `gorm:"not null;index" json:"event_type_id"`
	EventType       EventType  `gorm:"foreignKey:EventTypeID" json:"event_type,omitempty"`
	PointValue      int        `gorm:"not null" json:"point_value"` // copied from the event type at record time for audit stability
	ReversesEventID *uint      `gorm:"index" json:"reverses_event_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// TableName specifies the table name for ContestantEvent model.
func (ContestantEvent) TableName() string {
	return "contestant_events"
}

// IsReversal reports whether this entry reverses an earlier one.
func (e *ContestantEvent) IsReversal() bool {
	return e.ReversesEventID != nil
}

// EpisodeScore is a cached per-(contestant, episode) projection of the
// ledger. It is advisory: the ledger stays the source of truth and the
// projection is recomputed from it, never dual-written.
type EpisodeScore struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	EpisodeID        uint      `gorm:"not null;uniqueIndex:idx_episode_contestant" json:"episode_id"`
	ContestantID     uint      `gorm:"not null;uniqueIndex:idx_episode_contestant" json:"contestant_id"`
	Points           int       `gorm:"default:0" json:"points"`
	CumulativePoints int       `gorm:"default:0" json:"cumulative_points"`
	Source           string    `gorm:"size:50" json:"source"`
	CalculatedAt     time.Time `json:"calculated_at"`
}

// TableName specifies the table name for EpisodeScore model.
func (EpisodeScore) TableName() string {
	return "episode_scores"
}

// ScoreSourceLedger marks projection rows computed from the event ledger.
const ScoreSourceLedger = "ledger"
