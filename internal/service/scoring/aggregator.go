// Package scoring derives contestant scores from the event ledger: per-episode
// breakdowns, season totals, the cached performance view, and the advisory
// score projections.
package scoring

import (
	"context"
	"time"

	"github.com/solepick/fantasy-league/internal/cache"
	"github.com/solepick/fantasy-league/internal/config"
	"github.com/solepick/fantasy-league/internal/models"
	"github.com/solepick/fantasy-league/internal/repository"
	"github.com/solepick/fantasy-league/pkg/logger"
)

// EventRepository interface for ledger reads.
type EventRepository interface {
	ListCurrentEventsByContestantAndEpisode(contestantID, episodeID uint) ([]models.ContestantEvent, error)
	SumPointsByContestantAndEpisode(contestantID, episodeID uint) (int, error)
	SumPointsThroughEpisode(contestantID uint, maxEpisodeNumber int) (int, error)
	SumPointsByContestant(contestantID uint) (int, error)
	CountCurrentEventsByType(contestantID uint, typeName string) (int64, error)
}

// EpisodeRepository interface for episode lookups.
type EpisodeRepository interface {
	GetByID(id uint) (*models.Episode, error)
	List() ([]models.Episode, error)
	Count() (int64, error)
}

// ContestantRepository interface for contestant lookups and the advisory total.
type ContestantRepository interface {
	GetByID(id uint) (*models.Contestant, error)
	List() ([]models.Contestant, error)
	UpdateTotalScore(id uint, score int) error
}

// ScoreRepository interface for the episode score projection.
type ScoreRepository interface {
	Upsert(score *models.EpisodeScore) error
}

// Service computes scores from the ledger.
type Service struct {
	eventRepo      EventRepository
	episodeRepo    EpisodeRepository
	contestantRepo ContestantRepository
	scoreRepo      ScoreRepository
	cache          cache.Cache
	cacheTTL       time.Duration
	log            *logger.Logger
}

// NewService creates a new scoring service with concrete repository types.
func NewService(
	eventRepo *repository.EventRepository,
	episodeRepo *repository.EpisodeRepository,
	contestantRepo *repository.ContestantRepository,
	scoreRepo *repository.ScoreRepository,
	c cache.Cache,
	cfg *config.RedisConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		eventRepo:      eventRepo,
		episodeRepo:    episodeRepo,
		contestantRepo: contestantRepo,
		scoreRepo:      scoreRepo,
		cache:          c,
		cacheTTL:       time.Duration(cfg.CacheTTL) * time.Second,
		log:            log,
	}
}

// NewServiceWithInterfaces creates a new scoring service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	eventRepo EventRepository,
	episodeRepo EpisodeRepository,
	contestantRepo ContestantRepository,
	scoreRepo ScoreRepository,
	c cache.Cache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *Service {
	return &Service{
		eventRepo:      eventRepo,
		episodeRepo:    episodeRepo,
		contestantRepo: contestantRepo,
		scoreRepo:      scoreRepo,
		cache:          c,
		cacheTTL:       cacheTTL,
		log:            log,
	}
}

// EpisodeBreakdown is a contestant's effective score for one episode, with the
// events behind it and the running total through that episode.
type EpisodeBreakdown struct {
	ContestantID  uint                     `json:"contestant_id"`
	EpisodeID     uint                     `json:"episode_id"`
	EpisodeNumber int                      `json:"episode_number"`
	Events        []models.ContestantEvent `json:"events"`
	Points        int                      `json:"points"`
	RunningTotal  int                      `json:"running_total"`
}

// EpisodeScore folds the ledger into one contestant's score for one episode.
func (s *Service) EpisodeScore(ctx context.Context, contestantID, episodeID uint) (*EpisodeBreakdown, error) {
	if _, err := s.contestantRepo.GetByID(contestantID); err != nil {
		return nil, err
	}
	episode, err := s.episodeRepo.GetByID(episodeID)
	if err != nil {
		return nil, err
	}

	events, err := s.eventRepo.ListCurrentEventsByContestantAndEpisode(contestantID, episodeID)
	if err != nil {
		return nil, err
	}
	points, err := s.eventRepo.SumPointsByContestantAndEpisode(contestantID, episodeID)
	if err != nil {
		return nil, err
	}
	running, err := s.eventRepo.SumPointsThroughEpisode(contestantID, episode.EpisodeNumber)
	if err != nil {
		return nil, err
	}

	return &EpisodeBreakdown{
		ContestantID:  contestantID,
		EpisodeID:     episodeID,
		EpisodeNumber: episode.EpisodeNumber,
		Events:        events,
		Points:        points,
		RunningTotal:  running,
	}, nil
}

// EpisodePoints returns the effective score for one (contestant, episode)
// pair without the event breakdown.
func (s *Service) EpisodePoints(ctx context.Context, contestantID, episodeID uint) (int, error) {
	return s.eventRepo.SumPointsByContestantAndEpisode(contestantID, episodeID)
}

// TotalThroughEpisode folds the ledger for a contestant across all episodes
// up to and including the given episode number.
func (s *Service) TotalThroughEpisode(ctx context.Context, contestantID uint, episodeNumber int) (int, error) {
	if _, err := s.contestantRepo.GetByID(contestantID); err != nil {
		return 0, err
	}
	return s.eventRepo.SumPointsThroughEpisode(contestantID, episodeNumber)
}

// SeasonTotal folds the full ledger for a contestant.
func (s *Service) SeasonTotal(ctx context.Context, contestantID uint) (int, error) {
	if _, err := s.contestantRepo.GetByID(contestantID); err != nil {
		return 0, err
	}
	return s.eventRepo.SumPointsByContestant(contestantID)
}
