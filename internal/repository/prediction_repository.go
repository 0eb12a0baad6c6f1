package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/solepick/fantasy-league/internal/models"
)

// PredictionRepository handles prediction database operations.
type PredictionRepository struct {
	db *DB
}

// NewPredictionRepository creates a new prediction repository.
func NewPredictionRepository(db *DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Upsert creates or replaces the prediction for (player, episode, tribe).
// Resubmission before the episode locks overwrites the earlier pick.
func (r *PredictionRepository) Upsert(prediction *models.Prediction) error {
	var existing models.Prediction
	err := r.db.Where("player_id = ? AND episode_id = ? AND tribe = ?",
		prediction.PlayerID, prediction.EpisodeID, prediction.Tribe).
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.db.Create(prediction).Error; err != nil {
			return fmt.Errorf("failed to create prediction: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up prediction: %w", err)
	}

	existing.PredictedContestantID = prediction.PredictedContestantID
	if err := r.db.Save(&existing).Error; err != nil {
		return fmt.Errorf("failed to update prediction: %w", err)
	}
	prediction.ID = existing.ID
	return nil
}

// Save persists a prediction row.
func (r *PredictionRepository) Save(prediction *models.Prediction) error {
	if err := r.db.Save(prediction).Error; err != nil {
		return fmt.Errorf("failed to save prediction: %w", err)
	}
	return nil
}

// ListByEpisode retrieves all predictions for an episode.
func (r *PredictionRepository) ListByEpisode(episodeID uint) ([]models.Prediction, error) {
	var predictions []models.Prediction
	err := r.db.Where("episode_id = ?", episodeID).
		Order("player_id ASC, tribe ASC").
		Find(&predictions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions for episode %d: %w", episodeID, err)
	}
	return predictions, nil
}

// ListByPlayerAndEpisode retrieves a player's predictions for an episode.
func (r *PredictionRepository) ListByPlayerAndEpisode(playerID, episodeID uint) ([]models.Prediction, error) {
	var predictions []models.Prediction
	err := r.db.Where("player_id = ? AND episode_id = ?", playerID, episodeID).
		Preload("PredictedContestant").
		Order("tribe ASC").
		Find(&predictions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions for player %d episode %d: %w", playerID, episodeID, err)
	}
	return predictions, nil
}

// CountScoredByEpisode counts predictions in an episode that have a
// published correctness result. Used by the unlock guard.
func (r *PredictionRepository) CountScoredByEpisode(episodeID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Prediction{}).
		Where("episode_id = ? AND is_correct IS NOT NULL", episodeID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count scored predictions for episode %d: %w", episodeID, err)
	}
	return count, nil
}

// CountCorrectByPlayer counts a player's correct predictions across all episodes.
func (r *PredictionRepository) CountCorrectByPlayer(playerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Prediction{}).
		Where("player_id = ? AND is_correct = ?", playerID, true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count correct predictions for player %d: %w", playerID, err)
	}
	return count, nil
}

// ListCorrectByPlayerAndEpisode retrieves a player's correct predictions for one episode.
func (r *PredictionRepository) ListCorrectByPlayerAndEpisode(playerID, episodeID uint) ([]models.Prediction, error) {
	var predictions []models.Prediction
	err := r.db.Where("player_id = ? AND episode_id = ? AND is_correct = ?", playerID, episodeID, true).
		Find(&predictions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list correct predictions for player %d episode %d: %w", playerID, episodeID, err)
	}
	return predictions, nil
}
