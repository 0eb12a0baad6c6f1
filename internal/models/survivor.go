package models

import (
	"time"
)

// SoleSurvivorHistory records one contiguous interval during which a player
// held a given sole-survivor pick. EndEpisode is nil while the interval is
// active; at most one active row exists per player.
type SoleSurvivorHistory struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	PlayerID     uint       `gorm:"not null;index" json:"player_id"`
	ContestantID uint       `gorm:"not null;index" json:"contestant_id"`
	Contestant   Contestant `gorm:"foreignKey:ContestantID" json:"contestant,omitempty"`
	StartEpisode int        `gorm:"not null" json:"start_episode"`
	EndEpisode   *int       `json:"end_episode"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TableName specifies the table name for SoleSurvivorHistory model.
func (SoleSurvivorHistory) TableName() string {
	return "sole_survivor_history"
}

// IsActive reports whether this interval is the player's current pick.
func (h *SoleSurvivorHistory) IsActive() bool {
	return h.EndEpisode == nil
}
