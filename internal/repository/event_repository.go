package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/solepick/fantasy-league/internal/models"
)

// EventRepository handles the event type catalog and the contestant event ledger.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// --- Event type catalog ---

// CreateEventType creates a new event type.
func (r *EventRepository) CreateEventType(et *models.EventType) error {
	if err := r.db.Create(et).Error; err != nil {
		return fmt.Errorf("failed to create event type: %w", err)
	}
	return nil
}

// GetEventTypeByID retrieves an event type by ID.
func (r *EventRepository) GetEventTypeByID(id uint) (*models.EventType, error) {
	var et models.EventType
	if err := r.db.First(&et, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get event type %d: %w", id, err)
	}
	return &et, nil
}

// GetEventTypeByName retrieves an event type by its unique name.
func (r *EventRepository) GetEventTypeByName(name string) (*models.EventType, error) {
	var et models.EventType
	if err := r.db.Where("name = ?", name).First(&et).Error; err != nil {
		return nil, fmt.Errorf("failed to get event type %s: %w", name, err)
	}
	return &et, nil
}

// ListEventTypes retrieves all event types, optionally only active ones.
func (r *EventRepository) ListEventTypes(activeOnly bool) ([]models.EventType, error) {
	query := r.db.Model(&models.EventType{}).Order("id ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var types []models.EventType
	if err := query.Find(&types).Error; err != nil {
		return nil, fmt.Errorf("failed to list event types: %w", err)
	}
	return types, nil
}

// SeedEventTypes upserts catalog entries by unique name. Point values and
// display metadata follow the seed file; existing rows are updated in place
// so re-seeding is idempotent.
func (r *EventRepository) SeedEventTypes(types []models.EventType) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range types {
			seed := types[i]

			var existing models.EventType
			err := tx.Where("name = ?", seed.Name).First(&existing).Error
			if err == gorm.ErrRecordNotFound {
				if err := tx.Create(&seed).Error; err != nil {
					return fmt.Errorf("failed to seed event type %s: %w", seed.Name, err)
				}
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to look up event type %s: %w", seed.Name, err)
			}

			existing.DisplayName = seed.DisplayName
			existing.Category = seed.Category
			existing.PointValue = seed.PointValue
			existing.IsActive = seed.IsActive
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("failed to update event type %s: %w", seed.Name, err)
			}
		}
		return nil
	})
}

// --- Contestant event ledger ---

// CreateEvent appends a single ledger entry.
func (r *EventRepository) CreateEvent(event *models.ContestantEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		return fmt.Errorf("failed to create contestant event: %w", err)
	}
	return nil
}

// GetEventByID retrieves a ledger entry by ID.
func (r *EventRepository) GetEventByID(id uint) (*models.ContestantEvent, error) {
	var event models.ContestantEvent
	if err := r.db.Preload("EventType").First(&event, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get contestant event %d: %w", id, err)
	}
	return &event, nil
}

// ListCurrentEventsByEpisode returns the effective event set for an episode:
// every non-reversal entry that has not been reversed, with event types
// preloaded, ordered by contestant then insertion order.
func (r *EventRepository) ListCurrentEventsByEpisode(episodeID uint) ([]models.ContestantEvent, error) {
	reversed := r.db.Model(&models.ContestantEvent{}).
		Select("reverses_event_id").
		Where("episode_id = ? AND reverses_event_id IS NOT NULL", episodeID)

	var events []models.ContestantEvent
	err := r.db.Where("episode_id = ?", episodeID).
		Where("reverses_event_id IS NULL").
		Where("id NOT IN (?)", reversed).
		Preload("EventType").
		Order("contestant_id ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events for episode %d: %w", episodeID, err)
	}
	return events, nil
}

// ListCurrentEventsByContestantAndEpisode returns the effective event set for
// one (contestant, episode) pair.
func (r *EventRepository) ListCurrentEventsByContestantAndEpisode(contestantID, episodeID uint) ([]models.ContestantEvent, error) {
	reversed := r.db.Model(&models.ContestantEvent{}).
		Select("reverses_event_id").
		Where("contestant_id = ? AND episode_id = ? AND reverses_event_id IS NOT NULL", contestantID, episodeID)

	var events []models.ContestantEvent
	err := r.db.Where("contestant_id = ? AND episode_id = ?", contestantID, episodeID).
		Where("reverses_event_id IS NULL").
		Where("id NOT IN (?)", reversed).
		Preload("EventType").
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events for contestant %d episode %d: %w", contestantID, episodeID, err)
	}
	return events, nil
}

// SumPointsByContestantAndEpisode folds the full ledger, reversals included,
// for one (contestant, episode) pair. Reversal entries carry the negated
// point value so a plain SUM yields the effective score.
func (r *EventRepository) SumPointsByContestantAndEpisode(contestantID, episodeID uint) (int, error) {
	var total int64
	err := r.db.Model(&models.ContestantEvent{}).
		Where("contestant_id = ? AND episode_id = ?", contestantID, episodeID).
		Select("COALESCE(SUM(point_value), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum points for contestant %d episode %d: %w", contestantID, episodeID, err)
	}
	return int(total), nil
}

// SumPointsThroughEpisode folds the ledger for a contestant across all
// episodes with episode_number <= maxEpisodeNumber.
func (r *EventRepository) SumPointsThroughEpisode(contestantID uint, maxEpisodeNumber int) (int, error) {
	var total int64
	err := r.db.Model(&models.ContestantEvent{}).
		Joins("JOIN episodes ON episodes.id = contestant_events.episode_id").
		Where("contestant_events.contestant_id = ?", contestantID).
		Where("episodes.episode_number <= ?", maxEpisodeNumber).
		Select("COALESCE(SUM(contestant_events.point_value), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum points for contestant %d through episode %d: %w", contestantID, maxEpisodeNumber, err)
	}
	return int(total), nil
}

// SumPointsByContestant folds the full ledger for a contestant.
func (r *EventRepository) SumPointsByContestant(contestantID uint) (int, error) {
	var total int64
	err := r.db.Model(&models.ContestantEvent{}).
		Where("contestant_id = ?", contestantID).
		Select("COALESCE(SUM(point_value), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum points for contestant %d: %w", contestantID, err)
	}
	return int(total), nil
}

// CountCurrentEventsByType counts effective (non-reversed) occurrences of a
// named event type for a contestant across the whole season.
func (r *EventRepository) CountCurrentEventsByType(contestantID uint, typeName string) (int64, error) {
	reversed := r.db.Model(&models.ContestantEvent{}).
		Select("reverses_event_id").
		Where("contestant_id = ? AND reverses_event_id IS NOT NULL", contestantID)

	var count int64
	err := r.db.Model(&models.ContestantEvent{}).
		Joins("JOIN event_types ON event_types.id = contestant_events.event_type_id").
		Where("contestant_events.contestant_id = ?", contestantID).
		Where("event_types.name = ?", typeName).
		Where("contestant_events.reverses_event_id IS NULL").
		Where("contestant_events.id NOT IN (?)", reversed).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count %s events for contestant %d: %w", typeName, contestantID, err)
	}
	return count, nil
}

// FindEliminationsByEpisode returns the effective elimination entries for an
// episode with contestants preloaded. Used by the prediction scorer to
// resolve who left each tribe.
func (r *EventRepository) FindEliminationsByEpisode(episodeID uint) ([]models.ContestantEvent, error) {
	reversed := r.db.Model(&models.ContestantEvent{}).
		Select("reverses_event_id").
		Where("episode_id = ? AND reverses_event_id IS NOT NULL", episodeID)

	var events []models.ContestantEvent
	err := r.db.
		Joins("JOIN event_types ON event_types.id = contestant_events.event_type_id").
		Where("contestant_events.episode_id = ?", episodeID).
		Where("event_types.name = ?", models.EventTypeEliminated).
		Where("contestant_events.reverses_event_id IS NULL").
		Where("contestant_events.id NOT IN (?)", reversed).
		Preload("Contestant").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find eliminations for episode %d: %w", episodeID, err)
	}
	return events, nil
}

// ApplyBulk applies a batch of ledger additions and reversals in one
// transaction. Additions must arrive with the point value already copied
// from their event type. Reversals are validated: the target must belong to
// the episode, must not itself be a reversal, and must not already be
// reversed.
func (r *EventRepository) ApplyBulk(episodeID uint, adds []models.ContestantEvent, removeIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range adds {
			adds[i].EpisodeID = episodeID
			if err := tx.Create(&adds[i]).Error; err != nil {
				return fmt.Errorf("failed to record event: %w", err)
			}
		}

		for _, id := range removeIDs {
			var original models.ContestantEvent
			if err := tx.Where("id = ? AND episode_id = ?", id, episodeID).First(&original).Error; err != nil {
				return fmt.Errorf("failed to load event %d for reversal: %w", id, err)
			}
			if original.IsReversal() {
				return fmt.Errorf("event %d: %w", id, ErrReversalEntry)
			}

			var count int64
			if err := tx.Model(&models.ContestantEvent{}).
				Where("reverses_event_id = ?", id).
				Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check reversal state of event %d: %w", id, err)
			}
			if count > 0 {
				return fmt.Errorf("event %d: %w", id, ErrAlreadyReversed)
			}

			reversal := models.ContestantEvent{
				EpisodeID:       original.EpisodeID,
				ContestantID:    original.ContestantID,
				EventTypeID:     original.EventTypeID,
				PointValue:      -original.PointValue,
				ReversesEventID: &original.ID,
				CreatedAt:       time.Now(),
			}
			if err := tx.Create(&reversal).Error; err != nil {
				return fmt.Errorf("failed to create reversal of event %d: %w", id, err)
			}
		}
		return nil
	})
}
