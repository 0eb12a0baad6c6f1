package repository

import (
	"fmt"

	"github.com/solepick/fantasy-league/internal/models"
)

// PlayerRepository handles player and draft pick database operations.
type PlayerRepository struct {
	db *DB
}

// NewPlayerRepository creates a new player repository.
func NewPlayerRepository(db *DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Create creates a new player.
func (r *PlayerRepository) Create(player *models.Player) error {
	if err := r.db.Create(player).Error; err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

// GetByID retrieves a player by ID.
func (r *PlayerRepository) GetByID(id uint) (*models.Player, error) {
	var player models.Player
	if err := r.db.Preload("SoleSurvivor").First(&player, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get player %d: %w", id, err)
	}
	return &player, nil
}

// List retrieves all players ordered by name.
func (r *PlayerRepository) List() ([]models.Player, error) {
	var players []models.Player
	if err := r.db.Order("name ASC").Find(&players).Error; err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

// Update updates a player.
func (r *PlayerRepository) Update(player *models.Player) error {
	if err := r.db.Save(player).Error; err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}
	return nil
}

// GetDraftPicks retrieves a player's draft picks with contestants preloaded.
func (r *PlayerRepository) GetDraftPicks(playerID uint) ([]models.DraftPick, error) {
	var picks []models.DraftPick
	err := r.db.Where("player_id = ?", playerID).
		Preload("Contestant").
		Order("id ASC").
		Find(&picks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get draft picks for player %d: %w", playerID, err)
	}
	return picks, nil
}

// CreateDraftPick creates a draft pick row. Picks are assigned by the
// external draft process; this exists for seeding and the replacement flow.
func (r *PlayerRepository) CreateDraftPick(pick *models.DraftPick) error {
	if err := r.db.Create(pick).Error; err != nil {
		return fmt.Errorf("failed to create draft pick: %w", err)
	}
	return nil
}
