// Package ledger provides the write side of the contestant event ledger:
// catalog management, bulk event recording, and reversals.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/solepick/fantasy-league/internal/cache"
	prommetrics "github.com/solepick/fantasy-league/internal/metrics"
	"github.com/solepick/fantasy-league/internal/models"
	"github.com/solepick/fantasy-league/internal/repository"
	"github.com/solepick/fantasy-league/pkg/logger"
)

// ErrInactiveEventType is returned when a recording references a retired event type.
var ErrInactiveEventType = errors.New("event type is not active")

// EventRepository interface for catalog and ledger operations.
type EventRepository interface {
	GetEventTypeByID(id uint) (*models.EventType, error)
	ListEventTypes(activeOnly bool) ([]models.EventType, error)
	SeedEventTypes(types []models.EventType) error
	GetEventByID(id uint) (*models.ContestantEvent, error)
	ListCurrentEventsByEpisode(episodeID uint) ([]models.ContestantEvent, error)
	ApplyBulk(episodeID uint, adds []models.ContestantEvent, removeIDs []uint) error
}

// EpisodeRepository interface for episode lookups and the current-episode pointer.
type EpisodeRepository interface {
	GetByID(id uint) (*models.Episode, error)
	SetCurrentEpisode(episodeID uint) error
}

// ContestantRepository interface for contestant lookups and elimination flags.
type ContestantRepository interface {
	GetByID(id uint) (*models.Contestant, error)
	Update(contestant *models.Contestant) error
}

// AddEntry is one requested event addition.
type AddEntry struct {
	ContestantID uint `json:"contestant_id" binding:"required"`
	EventTypeID  uint `json:"event_type_id" binding:"required"`
}

// EventEntry is one effective ledger entry in an episode view.
type EventEntry struct {
	ID          uint `json:"id"`
	EventTypeID uint `json:"event_type_id"`
	PointValue  int  `json:"point_value"`
}

// ContestantEvents groups an episode's effective events by contestant.
type ContestantEvents struct {
	ContestantID uint         `json:"contestant_id"`
	Events       []EventEntry `json:"events"`
}

// Service handles ledger writes and catalog reads.
type Service struct {
	eventRepo      EventRepository
	episodeRepo    EpisodeRepository
	contestantRepo ContestantRepository
	cache          cache.Cache
	log            *logger.Logger
}

// NewService creates a new ledger service with concrete repository types.
func NewService(
	eventRepo *repository.EventRepository,
	episodeRepo *repository.EpisodeRepository,
	contestantRepo *repository.ContestantRepository,
	c cache.Cache,
	log *logger.Logger,
) *Service {
	return &Service{
		eventRepo:      eventRepo,
		episodeRepo:    episodeRepo,
		contestantRepo: contestantRepo,
		cache:          c,
		log:            log,
	}
}

// NewServiceWithInterfaces creates a new ledger service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	eventRepo EventRepository,
	episodeRepo EpisodeRepository,
	contestantRepo ContestantRepository,
	c cache.Cache,
	log *logger.Logger,
) *Service {
	return &Service{
		eventRepo:      eventRepo,
		episodeRepo:    episodeRepo,
		contestantRepo: contestantRepo,
		cache:          c,
		log:            log,
	}
}

// SetCurrentEpisode points the league settings at the episode that bonus
// accrual and current prediction sheets are computed against.
func (s *Service) SetCurrentEpisode(ctx context.Context, episodeID uint) error {
	if err := s.episodeRepo.SetCurrentEpisode(episodeID); err != nil {
		return err
	}

	s.log.Info().Uint("episode_id", episodeID).Msg("Current episode changed")
	return nil
}

// EventTypes returns the active event type catalog.
func (s *Service) EventTypes(ctx context.Context) ([]models.EventType, error) {
	return s.eventRepo.ListEventTypes(true)
}

// EpisodeEvents returns the effective event set for an episode grouped by
// contestant.
func (s *Service) EpisodeEvents(ctx context.Context, episodeID uint) ([]ContestantEvents, error) {
	if _, err := s.episodeRepo.GetByID(episodeID); err != nil {
		return nil, err
	}

	events, err := s.eventRepo.ListCurrentEventsByEpisode(episodeID)
	if err != nil {
		return nil, err
	}

	grouped := make([]ContestantEvents, 0)
	index := make(map[uint]int)
	for _, event := range events {
		i, ok := index[event.ContestantID]
		if !ok {
			grouped = append(grouped, ContestantEvents{ContestantID: event.ContestantID, Events: []EventEntry{}})
			i = len(grouped) - 1
			index[event.ContestantID] = i
		}
		grouped[i].Events = append(grouped[i].Events, EventEntry{
			ID:          event.ID,
			EventTypeID: event.EventTypeID,
			PointValue:  event.PointValue,
		})
	}
	return grouped, nil
}

// ApplyBulk validates and applies a batch of additions and reversals in one
// transaction, then maintains elimination flags and invalidates the
// performance cache.
func (s *Service) ApplyBulk(ctx context.Context, episodeID uint, adds []AddEntry, removeIDs []uint) error {
	if _, err := s.episodeRepo.GetByID(episodeID); err != nil {
		return err
	}

	now := time.Now()
	events := make([]models.ContestantEvent, 0, len(adds))
	types := make([]*models.EventType, 0, len(adds))
	for _, add := range adds {
		et, err := s.eventRepo.GetEventTypeByID(add.EventTypeID)
		if err != nil {
			return err
		}
		if !et.IsActive {
			return fmt.Errorf("event type %s: %w", et.Name, ErrInactiveEventType)
		}
		if _, err := s.contestantRepo.GetByID(add.ContestantID); err != nil {
			return err
		}

		events = append(events, models.ContestantEvent{
			ContestantID: add.ContestantID,
			EventTypeID:  add.EventTypeID,
			PointValue:   et.PointValue, // copied for audit stability
			CreatedAt:    now,
		})
		types = append(types, et)
	}

	// Resolve reversal targets up front so elimination flags and metrics can
	// be derived after the transaction commits.
	removed := make([]*models.ContestantEvent, 0, len(removeIDs))
	for _, id := range removeIDs {
		event, err := s.eventRepo.GetEventByID(id)
		if err != nil {
			return err
		}
		removed = append(removed, event)
	}

	if err := s.eventRepo.ApplyBulk(episodeID, events, removeIDs); err != nil {
		return err
	}

	for i, et := range types {
		prommetrics.RecordLedgerEvent(et.Name, et.Category)
		if et.Name == models.EventTypeEliminated {
			s.setEliminated(events[i].ContestantID, true)
		}
	}
	for _, event := range removed {
		prommetrics.RecordLedgerReversal(event.EventType.Name)
		if event.EventType.Name == models.EventTypeEliminated {
			s.setEliminated(event.ContestantID, false)
		}
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, cache.KeyContestantPerformance); err != nil {
			s.log.Warn().Err(err).Msg("Failed to invalidate performance cache")
		}
	}

	s.log.Info().
		Uint("episode_id", episodeID).
		Int("added", len(events)).
		Int("reversed", len(removeIDs)).
		Msg("Applied ledger changes")

	return nil
}

// setEliminated keeps the contestant elimination flag in step with the
// elimination events in the ledger.
func (s *Service) setEliminated(contestantID uint, eliminated bool) {
	contestant, err := s.contestantRepo.GetByID(contestantID)
	if err != nil {
		s.log.Warn().Err(err).Uint("contestant_id", contestantID).Msg("Failed to load contestant for elimination flag")
		return
	}
	if contestant.IsEliminated == eliminated {
		return
	}
	contestant.IsEliminated = eliminated
	if err := s.contestantRepo.Update(contestant); err != nil {
		s.log.Warn().Err(err).Uint("contestant_id", contestantID).Msg("Failed to update elimination flag")
	}
}
