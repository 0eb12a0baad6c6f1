package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/solepick/fantasy-league/internal/models"
)

// SurvivorRepository handles sole survivor history database operations.
type SurvivorRepository struct {
	db *DB
}

// NewSurvivorRepository creates a new survivor repository.
func NewSurvivorRepository(db *DB) *SurvivorRepository {
	return &SurvivorRepository{db: db}
}

// GetActiveByPlayer returns the player's active interval (end_episode IS
// NULL), or nil when the player has no current pick.
func (r *SurvivorRepository) GetActiveByPlayer(playerID uint) (*models.SoleSurvivorHistory, error) {
	var history models.SoleSurvivorHistory
	err := r.db.Where("player_id = ? AND end_episode IS NULL", playerID).
		Preload("Contestant").
		First(&history).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active sole survivor interval for player %d: %w", playerID, err)
	}
	return &history, nil
}

// ListByPlayer returns all of a player's intervals, oldest first.
func (r *SurvivorRepository) ListByPlayer(playerID uint) ([]models.SoleSurvivorHistory, error) {
	var history []models.SoleSurvivorHistory
	err := r.db.Where("player_id = ?", playerID).
		Preload("Contestant").
		Order("start_episode ASC, id ASC").
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sole survivor history for player %d: %w", playerID, err)
	}
	return history, nil
}

// CountByPlayer returns the number of history rows for a player.
func (r *SurvivorRepository) CountByPlayer(playerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.SoleSurvivorHistory{}).
		Where("player_id = ?", playerID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count sole survivor history for player %d: %w", playerID, err)
	}
	return count, nil
}

// ChangePick records a sole-survivor pick change in one transaction:
// the active interval (if any) is closed at episodeNumber, a new interval
// opens at startEpisode, the player row is updated, and when
// replaceDraftContestantID is set the matching draft pick is swapped to the
// new contestant.
func (r *SurvivorRepository) ChangePick(playerID, contestantID uint, episodeNumber, startEpisode int, replaceDraftContestantID *uint) (*models.SoleSurvivorHistory, error) {
	var opened models.SoleSurvivorHistory

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var active models.SoleSurvivorHistory
		err := tx.Where("player_id = ? AND end_episode IS NULL", playerID).First(&active).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load active interval: %w", err)
		}
		if err == nil {
			active.EndEpisode = &episodeNumber
			if err := tx.Save(&active).Error; err != nil {
				return fmt.Errorf("failed to close active interval: %w", err)
			}
		}

		opened = models.SoleSurvivorHistory{
			PlayerID:     playerID,
			ContestantID: contestantID,
			StartEpisode: startEpisode,
			CreatedAt:    time.Now(),
		}
		if err := tx.Create(&opened).Error; err != nil {
			return fmt.Errorf("failed to open new interval: %w", err)
		}

		err = tx.Model(&models.Player{}).
			Where("id = ?", playerID).
			Updates(map[string]interface{}{
				"sole_survivor_id": contestantID,
				"updated_at":       time.Now(),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to update player pick: %w", err)
		}

		if replaceDraftContestantID != nil {
			err = tx.Model(&models.DraftPick{}).
				Where("player_id = ? AND contestant_id = ?", playerID, *replaceDraftContestantID).
				Update("contestant_id", contestantID).Error
			if err != nil {
				return fmt.Errorf("failed to replace draft pick: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return &opened, nil
}
