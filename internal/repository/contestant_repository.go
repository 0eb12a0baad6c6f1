package repository

import (
	"fmt"
	"time"

	"github.com/solepick/fantasy-league/internal/models"
)

// ContestantRepository handles contestant-related database operations.
type ContestantRepository struct {
	db *DB
}

// NewContestantRepository creates a new contestant repository.
func NewContestantRepository(db *DB) *ContestantRepository {
	return &ContestantRepository{db: db}
}

// Create creates a new contestant.
func (r *ContestantRepository) Create(contestant *models.Contestant) error {
	if err := r.db.Create(contestant).Error; err != nil {
		return fmt.Errorf("failed to create contestant: %w", err)
	}
	return nil
}

// GetByID retrieves a contestant by ID.
func (r *ContestantRepository) GetByID(id uint) (*models.Contestant, error) {
	var contestant models.Contestant
	if err := r.db.First(&contestant, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get contestant %d: %w", id, err)
	}
	return &contestant, nil
}

// List retrieves all contestants ordered by name.
func (r *ContestantRepository) List() ([]models.Contestant, error) {
	var contestants []models.Contestant
	if err := r.db.Order("name ASC").Find(&contestants).Error; err != nil {
		return nil, fmt.Errorf("failed to list contestants: %w", err)
	}
	return contestants, nil
}

// Update updates a contestant.
func (r *ContestantRepository) Update(contestant *models.Contestant) error {
	if err := r.db.Save(contestant).Error; err != nil {
		return fmt.Errorf("failed to update contestant: %w", err)
	}
	return nil
}

// UpdateTotalScore refreshes the advisory cached total for a contestant.
func (r *ContestantRepository) UpdateTotalScore(id uint, score int) error {
	err := r.db.Model(&models.Contestant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_score": score,
			"updated_at":  time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update total score for contestant %d: %w", id, err)
	}
	return nil
}
