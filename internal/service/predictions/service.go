// Package predictions handles elimination prediction submission, the episode
// lock lifecycle, and scoring against the event ledger.
package predictions

import (
	"context"
	"errors"
	"fmt"
	"time"

	prommetrics "github.com/solepick/fantasy-league/internal/metrics"
	"github.com/solepick/fantasy-league/internal/models"
	"github.com/solepick/fantasy-league/internal/repository"
	"github.com/solepick/fantasy-league/pkg/logger"
)

var (
	// ErrPredictionsLocked is returned when a submission targets a locked episode.
	ErrPredictionsLocked = errors.New("predictions are locked for this episode")
	// ErrEpisodeNotLocked is returned when scoring is requested before the episode locks.
	ErrEpisodeNotLocked = errors.New("episode must be locked before scoring predictions")
	// ErrUnlockScored is returned when an unlock would invalidate published results.
	ErrUnlockScored = errors.New("cannot unlock an episode with scored predictions")
	// ErrMissingTribe is returned when a prediction entry has no tribe.
	ErrMissingTribe = errors.New("prediction entry is missing a tribe")
)

// PredictionRepository interface for prediction persistence.
type PredictionRepository interface {
	Upsert(prediction *models.Prediction) error
	Save(prediction *models.Prediction) error
	ListByEpisode(episodeID uint) ([]models.Prediction, error)
	ListByPlayerAndEpisode(playerID, episodeID uint) ([]models.Prediction, error)
	CountScoredByEpisode(episodeID uint) (int64, error)
}

// EpisodeRepository interface for episode lookups and the lock flag.
type EpisodeRepository interface {
	GetByID(id uint) (*models.Episode, error)
	SetPredictionsLocked(episodeID uint, locked bool) error
	CurrentEpisode() (*models.Episode, error)
}

// EventRepository interface for resolving eliminations from the ledger.
type EventRepository interface {
	FindEliminationsByEpisode(episodeID uint) ([]models.ContestantEvent, error)
}

// PlayerRepository interface for player lookups.
type PlayerRepository interface {
	GetByID(id uint) (*models.Player, error)
}

// ContestantRepository interface for contestant lookups.
type ContestantRepository interface {
	GetByID(id uint) (*models.Contestant, error)
}

// Entry is one requested prediction: who leaves the given tribe.
type Entry struct {
	Tribe        string `json:"tribe" binding:"required"`
	ContestantID uint   `json:"contestant_id" binding:"required"`
}

// CurrentPredictions is a player's prediction sheet for the current episode.
type CurrentPredictions struct {
	Episode     *models.Episode     `json:"episode"`
	Locked      bool                `json:"locked"`
	Predictions []models.Prediction `json:"predictions"`
}

// ScoreResult summarizes one scoring pass over an episode.
type ScoreResult struct {
	Scored    int `json:"scored"`
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
	Skipped   int `json:"skipped"`
}

// Service handles prediction submission, locking, and scoring.
type Service struct {
	predictionRepo PredictionRepository
	episodeRepo    EpisodeRepository
	eventRepo      EventRepository
	playerRepo     PlayerRepository
	contestantRepo ContestantRepository
	log            *logger.Logger
}

// NewService creates a new prediction service with concrete repository types.
func NewService(
	predictionRepo *repository.PredictionRepository,
	episodeRepo *repository.EpisodeRepository,
	eventRepo *repository.EventRepository,
	playerRepo *repository.PlayerRepository,
	contestantRepo *repository.ContestantRepository,
	log *logger.Logger,
) *Service {
	return &Service{
		predictionRepo: predictionRepo,
		episodeRepo:    episodeRepo,
		eventRepo:      eventRepo,
		playerRepo:     playerRepo,
		contestantRepo: contestantRepo,
		log:            log,
	}
}

// NewServiceWithInterfaces creates a new prediction service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	predictionRepo PredictionRepository,
	episodeRepo EpisodeRepository,
	eventRepo EventRepository,
	playerRepo PlayerRepository,
	contestantRepo ContestantRepository,
	log *logger.Logger,
) *Service {
	return &Service{
		predictionRepo: predictionRepo,
		episodeRepo:    episodeRepo,
		eventRepo:      eventRepo,
		playerRepo:     playerRepo,
		contestantRepo: contestantRepo,
		log:            log,
	}
}

// Submit upserts a player's prediction sheet for an episode. Resubmission
// before the lock overwrites the earlier picks per tribe.
func (s *Service) Submit(ctx context.Context, playerID, episodeID uint, entries []Entry) error {
	episode, err := s.episodeRepo.GetByID(episodeID)
	if err != nil {
		return err
	}
	if episode.PredictionsLocked {
		return fmt.Errorf("episode %d: %w", episodeID, ErrPredictionsLocked)
	}
	if _, err := s.playerRepo.GetByID(playerID); err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.Tribe == "" {
			return ErrMissingTribe
		}
		if _, err := s.contestantRepo.GetByID(entry.ContestantID); err != nil {
			return err
		}

		prediction := models.Prediction{
			PlayerID:              playerID,
			EpisodeID:             episodeID,
			Tribe:                 entry.Tribe,
			PredictedContestantID: entry.ContestantID,
			CreatedAt:             time.Now(),
		}
		if err := s.predictionRepo.Upsert(&prediction); err != nil {
			return err
		}
	}

	s.log.Info().
		Uint("player_id", playerID).
		Uint("episode_id", episodeID).
		Int("entries", len(entries)).
		Msg("Predictions submitted")
	return nil
}

// Current returns a player's prediction sheet for the current episode.
func (s *Service) Current(ctx context.Context, playerID uint) (*CurrentPredictions, error) {
	if _, err := s.playerRepo.GetByID(playerID); err != nil {
		return nil, err
	}
	episode, err := s.episodeRepo.CurrentEpisode()
	if err != nil {
		return nil, err
	}

	predictions, err := s.predictionRepo.ListByPlayerAndEpisode(playerID, episode.ID)
	if err != nil {
		return nil, err
	}
	return &CurrentPredictions{
		Episode:     episode,
		Locked:      episode.PredictionsLocked,
		Predictions: predictions,
	}, nil
}

// SetLock toggles the prediction lock for an episode. Unlocking is refused
// once results have been published for it.
func (s *Service) SetLock(ctx context.Context, episodeID uint, locked bool) error {
	if _, err := s.episodeRepo.GetByID(episodeID); err != nil {
		return err
	}

	if !locked {
		scored, err := s.predictionRepo.CountScoredByEpisode(episodeID)
		if err != nil {
			return err
		}
		if scored > 0 {
			return fmt.Errorf("episode %d: %w", episodeID, ErrUnlockScored)
		}
	}

	if err := s.episodeRepo.SetPredictionsLocked(episodeID, locked); err != nil {
		return err
	}

	action := "unlock"
	if locked {
		action = "lock"
	}
	prommetrics.RecordPredictionLockToggle(action)
	s.log.Info().Uint("episode_id", episodeID).Bool("locked", locked).Msg("Prediction lock changed")
	return nil
}

// ScoreEpisode grades every unscored prediction for a locked episode against
// the eliminations recorded in the ledger. A prediction is correct when the
// eliminated contestant from its tribe matches the pick. Tribes with no
// recorded elimination stay unscored; already-scored predictions are skipped
// so re-running is idempotent.
func (s *Service) ScoreEpisode(ctx context.Context, episodeID uint) (*ScoreResult, error) {
	episode, err := s.episodeRepo.GetByID(episodeID)
	if err != nil {
		return nil, err
	}
	if !episode.PredictionsLocked {
		return nil, fmt.Errorf("episode %d: %w", episodeID, ErrEpisodeNotLocked)
	}

	eliminations, err := s.eventRepo.FindEliminationsByEpisode(episodeID)
	if err != nil {
		return nil, err
	}
	eliminatedByTribe := make(map[string]uint)
	for _, event := range eliminations {
		if event.Contestant.CurrentTribe != "" {
			eliminatedByTribe[event.Contestant.CurrentTribe] = event.ContestantID
		}
	}

	predictions, err := s.predictionRepo.ListByEpisode(episodeID)
	if err != nil {
		return nil, err
	}

	result := &ScoreResult{}
	now := time.Now()
	for i := range predictions {
		prediction := &predictions[i]
		if prediction.IsScored() {
			result.Skipped++
			continue
		}

		eliminatedID, ok := eliminatedByTribe[prediction.Tribe]
		if !ok {
			// No elimination recorded for this tribe; leave unscored so a
			// later ledger correction can still grade it.
			continue
		}

		correct := prediction.PredictedContestantID == eliminatedID
		prediction.IsCorrect = &correct
		prediction.ScoredAt = &now
		if err := s.predictionRepo.Save(prediction); err != nil {
			return nil, err
		}

		result.Scored++
		if correct {
			result.Correct++
			prommetrics.RecordPredictionScored("correct")
		} else {
			result.Incorrect++
			prommetrics.RecordPredictionScored("incorrect")
		}
	}

	s.log.Info().
		Uint("episode_id", episodeID).
		Int("scored", result.Scored).
		Int("correct", result.Correct).
		Int("skipped", result.Skipped).
		Msg("Scored episode predictions")
	return result, nil
}
