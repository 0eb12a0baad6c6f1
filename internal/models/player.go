package models

import (
	"time"
)

// Player represents a league member.
type Player struct {
	ID                   uint        `gorm:"primaryKey" json:"id"`
	Name                 string      `gorm:"not null;size:255" json:"name"`
	Email                string      `gorm:"uniqueIndex;size:255" json:"email"`
	ProfileImageURL      string      `gorm:"type:text" json:"profile_image_url"`
	SoleSurvivorID       *uint       `gorm:"index" json:"sole_survivor_id"`
	SoleSurvivor         *Contestant `gorm:"foreignKey:SoleSurvivorID" json:"sole_survivor,omitempty"`
	HasSubmittedRankings bool        `gorm:"default:false" json:"has_submitted_rankings"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// TableName specifies the table name for Player model.
func (Player) TableName() string {
	return "players"
}

// DraftPick links a player to one of their drafted contestants. The draft
// itself happens outside this system; picks arrive already assigned.
type DraftPick struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	PlayerID     uint       `gorm:"not null;index" json:"player_id"`
	ContestantID uint       `gorm:"not null;index" json:"contestant_id"`
	Contestant   Contestant `gorm:"foreignKey:ContestantID" json:"contestant,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TableName specifies the table name for DraftPick model.
func (DraftPick) TableName() string {
	return "draft_picks"
}
