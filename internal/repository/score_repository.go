package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/solepick/fantasy-league/internal/models"
)

// ScoreRepository handles the episode_scores projection table.
type ScoreRepository struct {
	db *DB
}

// NewScoreRepository creates a new score repository.
func NewScoreRepository(db *DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Upsert creates or updates the projection row for (episode, contestant).
// Idempotent so refresh jobs can re-run safely.
func (r *ScoreRepository) Upsert(score *models.EpisodeScore) error {
	var existing models.EpisodeScore
	err := r.db.Where("episode_id = ? AND contestant_id = ?", score.EpisodeID, score.ContestantID).
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.db.Create(score).Error; err != nil {
			return fmt.Errorf("failed to create episode score: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up episode score: %w", err)
	}

	score.ID = existing.ID
	if err := r.db.Save(score).Error; err != nil {
		return fmt.Errorf("failed to update episode score: %w", err)
	}
	return nil
}

// GetByEpisodeAndContestant retrieves one projection row.
func (r *ScoreRepository) GetByEpisodeAndContestant(episodeID, contestantID uint) (*models.EpisodeScore, error) {
	var score models.EpisodeScore
	err := r.db.Where("episode_id = ? AND contestant_id = ?", episodeID, contestantID).
		First(&score).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get episode score for episode %d contestant %d: %w", episodeID, contestantID, err)
	}
	return &score, nil
}

// ListByContestant retrieves a contestant's projection rows in episode order.
func (r *ScoreRepository) ListByContestant(contestantID uint) ([]models.EpisodeScore, error) {
	var scores []models.EpisodeScore
	err := r.db.Model(&models.EpisodeScore{}).
		Joins("JOIN episodes ON episodes.id = episode_scores.episode_id").
		Where("episode_scores.contestant_id = ?", contestantID).
		Order("episodes.episode_number ASC").
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list episode scores for contestant %d: %w", contestantID, err)
	}
	return scores, nil
}
