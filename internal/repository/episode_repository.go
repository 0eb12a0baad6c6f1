package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/solepick/fantasy-league/internal/models"
)

// EpisodeRepository handles episode and league settings database operations.
type EpisodeRepository struct {
	db *DB
}

// NewEpisodeRepository creates a new episode repository.
func NewEpisodeRepository(db *DB) *EpisodeRepository {
	return &EpisodeRepository{db: db}
}

// Create creates a new episode.
func (r *EpisodeRepository) Create(episode *models.Episode) error {
	if err := r.db.Create(episode).Error; err != nil {
		return fmt.Errorf("failed to create episode: %w", err)
	}
	return nil
}

// GetByID retrieves an episode by ID.
func (r *EpisodeRepository) GetByID(id uint) (*models.Episode, error) {
	var episode models.Episode
	if err := r.db.First(&episode, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get episode %d: %w", id, err)
	}
	return &episode, nil
}

// List retrieves all episodes ordered by episode number.
func (r *EpisodeRepository) List() ([]models.Episode, error) {
	var episodes []models.Episode
	if err := r.db.Order("episode_number ASC").Find(&episodes).Error; err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	return episodes, nil
}

// Count returns the number of episodes.
func (r *EpisodeRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Episode{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count episodes: %w", err)
	}
	return count, nil
}

// SetPredictionsLocked toggles the prediction lock flag for an episode.
func (r *EpisodeRepository) SetPredictionsLocked(episodeID uint, locked bool) error {
	result := r.db.Model(&models.Episode{}).
		Where("id = ?", episodeID).
		Update("predictions_locked", locked)
	if result.Error != nil {
		return fmt.Errorf("failed to set predictions lock on episode %d: %w", episodeID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("episode %d: %w", episodeID, gorm.ErrRecordNotFound)
	}
	return nil
}

// GetSettings returns the singleton league settings row, creating it if it
// does not exist yet.
func (r *EpisodeRepository) GetSettings() (*models.LeagueSettings, error) {
	var settings models.LeagueSettings
	err := r.db.Where(models.LeagueSettings{ID: models.LeagueSettingsRowID}).
		FirstOrCreate(&settings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load league settings: %w", err)
	}
	return &settings, nil
}

// SetCurrentEpisode points the league settings at the given episode.
func (r *EpisodeRepository) SetCurrentEpisode(episodeID uint) error {
	if _, err := r.GetByID(episodeID); err != nil {
		return err
	}

	settings, err := r.GetSettings()
	if err != nil {
		return err
	}
	settings.CurrentEpisodeID = &episodeID
	if err := r.db.Save(settings).Error; err != nil {
		return fmt.Errorf("failed to set current episode: %w", err)
	}
	return nil
}

// CurrentEpisode resolves the current episode from league settings.
// Returns ErrNoCurrentEpisode when none has been configured.
func (r *EpisodeRepository) CurrentEpisode() (*models.Episode, error) {
	settings, err := r.GetSettings()
	if err != nil {
		return nil, err
	}
	if settings.CurrentEpisodeID == nil {
		return nil, ErrNoCurrentEpisode
	}
	return r.GetByID(*settings.CurrentEpisodeID)
}
