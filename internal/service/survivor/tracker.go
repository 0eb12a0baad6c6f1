package survivor

import (
	"context"
	"errors"
	"fmt"

	"github.com/solepick/fantasy-league/internal/config"
	prommetrics "github.com/solepick/fantasy-league/internal/metrics"
	"github.com/solepick/fantasy-league/internal/models"
	"github.com/solepick/fantasy-league/internal/repository"
	"github.com/solepick/fantasy-league/pkg/logger"
)

// ErrContestantEliminated is returned when a pick change targets a contestant
// who has already left the game.
var ErrContestantEliminated = errors.New("contestant is already eliminated")

// SurvivorRepository interface for pick history operations.
type SurvivorRepository interface {
	GetActiveByPlayer(playerID uint) (*models.SoleSurvivorHistory, error)
	ListByPlayer(playerID uint) ([]models.SoleSurvivorHistory, error)
	CountByPlayer(playerID uint) (int64, error)
	ChangePick(playerID, contestantID uint, episodeNumber, startEpisode int, replaceDraftContestantID *uint) (*models.SoleSurvivorHistory, error)
}

// PlayerRepository interface for player and draft pick lookups.
type PlayerRepository interface {
	GetByID(id uint) (*models.Player, error)
	GetDraftPicks(playerID uint) ([]models.DraftPick, error)
}

// ContestantRepository interface for contestant lookups.
type ContestantRepository interface {
	GetByID(id uint) (*models.Contestant, error)
}

// EpisodeRepository interface for current episode resolution.
type EpisodeRepository interface {
	CurrentEpisode() (*models.Episode, error)
}

// DraftReplacement records a draft pick swapped during a pick change.
type DraftReplacement struct {
	ReplacedContestantID uint `json:"replaced_contestant_id"`
	NewContestantID      uint `json:"new_contestant_id"`
}

// ChangeResult is the outcome of a pick change.
type ChangeResult struct {
	History          *models.SoleSurvivorHistory `json:"history"`
	DraftReplacement *DraftReplacement           `json:"draft_replacement,omitempty"`
}

// Service tracks sole survivor picks and computes their bonuses.
type Service struct {
	survivorRepo   SurvivorRepository
	playerRepo     PlayerRepository
	contestantRepo ContestantRepository
	episodeRepo    EpisodeRepository
	cfg            *config.ScoringConfig
	log            *logger.Logger
}

// NewService creates a new survivor service with concrete repository types.
func NewService(
	survivorRepo *repository.SurvivorRepository,
	playerRepo *repository.PlayerRepository,
	contestantRepo *repository.ContestantRepository,
	episodeRepo *repository.EpisodeRepository,
	cfg *config.ScoringConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		survivorRepo:   survivorRepo,
		playerRepo:     playerRepo,
		contestantRepo: contestantRepo,
		episodeRepo:    episodeRepo,
		cfg:            cfg,
		log:            log,
	}
}

// NewServiceWithInterfaces creates a new survivor service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	survivorRepo SurvivorRepository,
	playerRepo PlayerRepository,
	contestantRepo ContestantRepository,
	episodeRepo EpisodeRepository,
	cfg *config.ScoringConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		survivorRepo:   survivorRepo,
		playerRepo:     playerRepo,
		contestantRepo: contestantRepo,
		episodeRepo:    episodeRepo,
		cfg:            cfg,
		log:            log,
	}
}

// ChangePick switches a player's sole survivor. The old interval is closed at
// the current episode and a new one opens there; a player's first-ever pick
// is backdated to episode one. When the outgoing pick was eliminated and also
// sits on the player's draft roster, the draft slot is swapped to the new
// contestant.
func (s *Service) ChangePick(ctx context.Context, playerID, contestantID uint) (*ChangeResult, error) {
	if _, err := s.playerRepo.GetByID(playerID); err != nil {
		return nil, err
	}
	contestant, err := s.contestantRepo.GetByID(contestantID)
	if err != nil {
		return nil, err
	}
	if contestant.IsEliminated {
		return nil, fmt.Errorf("contestant %d: %w", contestantID, ErrContestantEliminated)
	}

	episodeNumber := 1
	episode, err := s.episodeRepo.CurrentEpisode()
	if err != nil && !errors.Is(err, repository.ErrNoCurrentEpisode) {
		return nil, err
	}
	if episode != nil {
		episodeNumber = episode.EpisodeNumber
	}

	startEpisode := episodeNumber
	picksSoFar, err := s.survivorRepo.CountByPlayer(playerID)
	if err != nil {
		return nil, err
	}
	if picksSoFar == 0 {
		startEpisode = 1
	}

	replacement, replaceID, err := s.resolveDraftReplacement(playerID, contestantID)
	if err != nil {
		return nil, err
	}

	history, err := s.survivorRepo.ChangePick(playerID, contestantID, episodeNumber, startEpisode, replaceID)
	if err != nil {
		return nil, err
	}

	prommetrics.RecordSoleSurvivorChange()
	s.log.Info().
		Uint("player_id", playerID).
		Uint("contestant_id", contestantID).
		Int("start_episode", startEpisode).
		Bool("draft_replaced", replacement != nil).
		Msg("Sole survivor pick changed")

	return &ChangeResult{History: history, DraftReplacement: replacement}, nil
}

// resolveDraftReplacement decides whether the outgoing pick frees up a draft
// slot: the previous sole survivor must be eliminated, must be on the
// player's draft roster, and the new contestant must not already be drafted.
func (s *Service) resolveDraftReplacement(playerID, newContestantID uint) (*DraftReplacement, *uint, error) {
	active, err := s.survivorRepo.GetActiveByPlayer(playerID)
	if err != nil {
		return nil, nil, err
	}
	if active == nil {
		return nil, nil, nil
	}

	previous, err := s.contestantRepo.GetByID(active.ContestantID)
	if err != nil {
		return nil, nil, err
	}
	if !previous.IsEliminated {
		return nil, nil, nil
	}

	picks, err := s.playerRepo.GetDraftPicks(playerID)
	if err != nil {
		return nil, nil, err
	}
	onRoster := false
	for _, pick := range picks {
		if pick.ContestantID == newContestantID {
			// Already drafted; swapping would duplicate the slot.
			return nil, nil, nil
		}
		if pick.ContestantID == previous.ID {
			onRoster = true
		}
	}
	if !onRoster {
		return nil, nil, nil
	}

	replaced := previous.ID
	return &DraftReplacement{
		ReplacedContestantID: replaced,
		NewContestantID:      newContestantID,
	}, &replaced, nil
}

// ActiveInterval returns the player's open pick interval, or nil when the
// player has no current pick.
func (s *Service) ActiveInterval(ctx context.Context, playerID uint) (*models.SoleSurvivorHistory, error) {
	return s.survivorRepo.GetActiveByPlayer(playerID)
}

// History returns the player's full pick history, oldest first.
func (s *Service) History(ctx context.Context, playerID uint) ([]models.SoleSurvivorHistory, error) {
	if _, err := s.playerRepo.GetByID(playerID); err != nil {
		return nil, err
	}
	return s.survivorRepo.ListByPlayer(playerID)
}

// BonusForPlayer computes the sole survivor bonus for a player's active pick.
// A player with no pick, or a league with no current episode, earns nothing.
func (s *Service) BonusForPlayer(ctx context.Context, playerID uint) (Bonus, error) {
	active, err := s.survivorRepo.GetActiveByPlayer(playerID)
	if err != nil {
		return Bonus{}, err
	}
	if active == nil {
		return Bonus{}, nil
	}

	episode, err := s.episodeRepo.CurrentEpisode()
	if errors.Is(err, repository.ErrNoCurrentEpisode) {
		return Bonus{}, nil
	}
	if err != nil {
		return Bonus{}, err
	}

	contestant, err := s.contestantRepo.GetByID(active.ContestantID)
	if err != nil {
		return Bonus{}, err
	}

	return CalculateBonus(active.StartEpisode, episode.EpisodeNumber, contestant.IsWinner, s.cfg), nil
}
