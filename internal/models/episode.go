package models

import (
	"time"
)

// Episode represents one aired (or upcoming) episode of the season.
type Episode struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	EpisodeNumber     int        `gorm:"uniqueIndex;not null" json:"episode_number"`
	AiredDate         *time.Time `gorm:"type:date" json:"aired_date"`
	PredictionsLocked bool       `gorm:"default:false" json:"predictions_locked"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Episode model.
func (Episode) TableName() string {
	return "episodes"
}

// LeagueSettings is a singleton row holding league-wide mutable state.
// The current episode is an explicit reference here rather than an
// is_current flag scanned across episode rows, so the "at most one
// current" invariant holds by construction.
type LeagueSettings struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	CurrentEpisodeID *uint     `json:"current_episode_id"`
	CurrentEpisode   *Episode  `gorm:"foreignKey:CurrentEpisodeID" json:"current_episode,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the table name for LeagueSettings model.
func (LeagueSettings) TableName() string {
	return "league_settings"
}

// LeagueSettingsRowID is the fixed primary key of the singleton row.
const LeagueSettingsRowID uint = 1
