package models

import (
	"time"
)

// Contestant represents a show contestant that players draft and score on.
type Contestant struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"not null;size:255" json:"name"`
	Profession   string    `gorm:"size:255" json:"profession"`
	CurrentTribe string    `gorm:"size:100" json:"current_tribe"`
	ImageURL     string    `gorm:"type:text" json:"image_url"`
	IsEliminated bool      `gorm:"default:false" json:"is_eliminated"`
	IsWinner     bool      `gorm:"default:false" json:"is_winner"`
	TotalScore   int       `gorm:"default:0" json:"total_score"` // advisory projection, reconcilable from the ledger
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for Contestant model.
func (Contestant) TableName() string {
	return "contestants"
}
