package models

import (
	"time"
)

// Prediction is a player's per-tribe elimination pick for one episode.
// IsCorrect stays nil until the episode is scored; ScoredAt gates
// re-scoring so repeated runs cannot double-award points.
type Prediction struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	PlayerID              uint       `gorm:"not null;uniqueIndex:idx_player_episode_tribe" json:"player_id"`
	EpisodeID             uint       `gorm:"not null;uniqueIndex:idx_player_episode_tribe" json:"episode_id"`
	Tribe                 string     `gorm:"size:100;not null;uniqueIndex:idx_player_episode_tribe" json:"tribe"`
	PredictedContestantID uint       `gorm:"not null" json:"predicted_contestant_id"`
	PredictedContestant   Contestant `gorm:"foreignKey:PredictedContestantID" json:"predicted_contestant,omitempty"`
	IsCorrect             *bool      `json:"is_correct"`
	ScoredAt              *time.Time `json:"scored_at"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Prediction model.
func (Prediction) TableName() string {
	return "predictions"
}

// IsScored reports whether this prediction has already been scored.
func (p *Prediction) IsScored() bool {
	return p.ScoredAt != nil
}
