// Package team composes player team scores from the draft roster, the sole
// survivor pick, and prediction results.
package team

import (
	"context"
	"errors"
	"time"

	"github.com/solepick/fantasy-league/internal/config"
	prommetrics "github.com/solepick/fantasy-league/internal/metrics"
	"github.com/solepick/fantasy-league/internal/models"
	"github.com/solepick/fantasy-league/internal/repository"
	"github.com/solepick/fantasy-league/internal/service/survivor"
	"github.com/solepick/fantasy-league/pkg/logger"
)

// ScoringService interface for ledger score folds.
type ScoringService interface {
	SeasonTotal(ctx context.Context, contestantID uint) (int, error)
	EpisodePoints(ctx context.Context, contestantID, episodeID uint) (int, error)
}

// SurvivorService interface for the sole survivor bonus and interval.
type SurvivorService interface {
	BonusForPlayer(ctx context.Context, playerID uint) (survivor.Bonus, error)
	ActiveInterval(ctx context.Context, playerID uint) (*models.SoleSurvivorHistory, error)
}

// PlayerRepository interface for player and roster lookups.
type PlayerRepository interface {
	GetByID(id uint) (*models.Player, error)
	GetDraftPicks(playerID uint) ([]models.DraftPick, error)
}

// PredictionRepository interface for prediction bonus lookups.
type PredictionRepository interface {
	CountCorrectByPlayer(playerID uint) (int64, error)
	ListCorrectByPlayerAndEpisode(playerID, episodeID uint) ([]models.Prediction, error)
}

// EpisodeRepository interface for episode enumeration.
type EpisodeRepository interface {
	List() ([]models.Episode, error)
	CurrentEpisode() (*models.Episode, error)
}

// ContestantRepository interface for winner flag lookups.
type ContestantRepository interface {
	GetByID(id uint) (*models.Contestant, error)
}

// TeamScore is a player's composed score.
type TeamScore struct {
	PlayerID          uint           `json:"player_id"`
	PlayerName        string         `json:"player_name"`
	DraftScore        int            `json:"draft_score"`
	SoleSurvivorScore int            `json:"sole_survivor_score"`
	SoleSurvivorBonus int            `json:"sole_survivor_bonus"`
	BonusDetail       survivor.Bonus `json:"sole_survivor_bonus_detail"`
	PredictionBonus   int            `json:"prediction_bonus"`
	TotalScore        int            `json:"total_score"`
}

// EpisodeRef identifies the episode an audit row covers.
type EpisodeRef struct {
	ID     uint `json:"id"`
	Number int  `json:"number"`
}

// TeamContribution is one rostered contestant's points in a single episode.
type TeamContribution struct {
	ContestantID uint   `json:"contestant_id"`
	Role         string `json:"role"`
	Points       int    `json:"points"`
}

// EpisodeScores groups one episode's score components.
type EpisodeScores struct {
	DraftScore        int `json:"draft_score"`
	SoleSurvivorScore int `json:"sole_survivor_score"`
	SoleSurvivorBonus int `json:"sole_survivor_bonus"`
	PredictionBonus   int `json:"prediction_bonus"`
	TotalEpisodeScore int `json:"total_episode_score"`
}

// EpisodeAudit is one episode's contribution to a player's total.
type EpisodeAudit struct {
	Episode           EpisodeRef          `json:"episode"`
	Team              []TeamContribution  `json:"team"`
	Scores            EpisodeScores       `json:"scores"`
	PredictionBonuses []models.Prediction `json:"prediction_bonuses"`
}

// Roles a contestant can hold on an audit row.
const (
	RoleDraftPick    = "draft_pick"
	RoleSoleSurvivor = "sole_survivor"
)

// AuditReport is the episode-by-episode breakdown behind a player's total.
type AuditReport struct {
	PlayerID   uint           `json:"player_id"`
	PlayerName string         `json:"player_name"`
	Episodes   []EpisodeAudit `json:"episodes"`
	Totals     TeamScore      `json:"totals"`
}

// Service composes team scores.
type Service struct {
	scoringService  ScoringService
	survivorService SurvivorService
	playerRepo      PlayerRepository
	predictionRepo  PredictionRepository
	episodeRepo     EpisodeRepository
	contestantRepo  ContestantRepository
	cfg             *config.ScoringConfig
	log             *logger.Logger
}

// NewService creates a new team service.
func NewService(
	scoringService ScoringService,
	survivorService SurvivorService,
	playerRepo *repository.PlayerRepository,
	predictionRepo *repository.PredictionRepository,
	episodeRepo *repository.EpisodeRepository,
	contestantRepo *repository.ContestantRepository,
	cfg *config.ScoringConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		scoringService:  scoringService,
		survivorService: survivorService,
		playerRepo:      playerRepo,
		predictionRepo:  predictionRepo,
		episodeRepo:     episodeRepo,
		contestantRepo:  contestantRepo,
		cfg:             cfg,
		log:             log,
	}
}

// NewServiceWithInterfaces creates a new team service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	scoringService ScoringService,
	survivorService SurvivorService,
	playerRepo PlayerRepository,
	predictionRepo PredictionRepository,
	episodeRepo EpisodeRepository,
	contestantRepo ContestantRepository,
	cfg *config.ScoringConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		scoringService:  scoringService,
		survivorService: survivorService,
		playerRepo:      playerRepo,
		predictionRepo:  predictionRepo,
		episodeRepo:     episodeRepo,
		contestantRepo:  contestantRepo,
		cfg:             cfg,
		log:             log,
	}
}

// Score composes a player's total: draft roster scores, the sole survivor's
// own score, the sole survivor bonus, and the prediction bonus.
func (s *Service) Score(ctx context.Context, playerID uint) (*TeamScore, error) {
	start := time.Now()
	defer func() {
		prommetrics.ObserveTeamScoreCompute(time.Since(start).Seconds())
	}()

	player, err := s.playerRepo.GetByID(playerID)
	if err != nil {
		return nil, err
	}

	picks, err := s.playerRepo.GetDraftPicks(playerID)
	if err != nil {
		return nil, err
	}
	draftScore := 0
	for _, pick := range picks {
		points, err := s.scoringService.SeasonTotal(ctx, pick.ContestantID)
		if err != nil {
			return nil, err
		}
		draftScore += points
	}

	survivorScore := 0
	if player.SoleSurvivorID != nil {
		survivorScore, err = s.scoringService.SeasonTotal(ctx, *player.SoleSurvivorID)
		if err != nil {
			return nil, err
		}
	}

	bonus, err := s.survivorService.BonusForPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	correct, err := s.predictionRepo.CountCorrectByPlayer(playerID)
	if err != nil {
		return nil, err
	}
	predictionBonus := int(correct) * s.cfg.PredictionBonusPoints

	return &TeamScore{
		PlayerID:          player.ID,
		PlayerName:        player.Name,
		DraftScore:        draftScore,
		SoleSurvivorScore: survivorScore,
		SoleSurvivorBonus: bonus.Total,
		BonusDetail:       bonus,
		PredictionBonus:   predictionBonus,
		TotalScore:        draftScore + survivorScore + bonus.Total + predictionBonus,
	}, nil
}

// Audit breaks a player's total down episode by episode. The per-episode rows
// sum to the same totals Score reports.
func (s *Service) Audit(ctx context.Context, playerID uint) (*AuditReport, error) {
	player, err := s.playerRepo.GetByID(playerID)
	if err != nil {
		return nil, err
	}
	picks, err := s.playerRepo.GetDraftPicks(playerID)
	if err != nil {
		return nil, err
	}
	episodes, err := s.episodeRepo.List()
	if err != nil {
		return nil, err
	}

	currentNumber := 0
	current, err := s.episodeRepo.CurrentEpisode()
	if err != nil && !errors.Is(err, repository.ErrNoCurrentEpisode) {
		return nil, err
	}
	if current != nil {
		currentNumber = current.EpisodeNumber
	}

	active, err := s.survivorService.ActiveInterval(ctx, playerID)
	if err != nil {
		return nil, err
	}
	winnerQualifies := false
	if active != nil {
		contestant, err := s.contestantRepo.GetByID(active.ContestantID)
		if err != nil {
			return nil, err
		}
		winnerQualifies = contestant.IsWinner && active.StartEpisode <= s.cfg.WinnerBonusCutoff
	}

	rows := make([]EpisodeAudit, 0, len(episodes))
	for _, episode := range episodes {
		row := EpisodeAudit{
			Episode:           EpisodeRef{ID: episode.ID, Number: episode.EpisodeNumber},
			Team:              make([]TeamContribution, 0, len(picks)+1),
			PredictionBonuses: []models.Prediction{},
		}

		for _, pick := range picks {
			points, err := s.scoringService.EpisodePoints(ctx, pick.ContestantID, episode.ID)
			if err != nil {
				return nil, err
			}
			row.Team = append(row.Team, TeamContribution{
				ContestantID: pick.ContestantID,
				Role:         RoleDraftPick,
				Points:       points,
			})
			row.Scores.DraftScore += points
		}

		if player.SoleSurvivorID != nil {
			points, err := s.scoringService.EpisodePoints(ctx, *player.SoleSurvivorID, episode.ID)
			if err != nil {
				return nil, err
			}
			row.Team = append(row.Team, TeamContribution{
				ContestantID: *player.SoleSurvivorID,
				Role:         RoleSoleSurvivor,
				Points:       points,
			})
			row.Scores.SoleSurvivorScore = points
		}

		if active != nil && currentNumber > 0 {
			// The episode bonus accrues once per episode the pick has been
			// held; the first pick of the season starts accruing at its
			// backdated start episode.
			accruesFrom := active.StartEpisode
			if currentNumber < accruesFrom {
				accruesFrom = currentNumber
			}
			if episode.EpisodeNumber >= accruesFrom && episode.EpisodeNumber <= currentNumber {
				row.Scores.SoleSurvivorBonus += s.cfg.EpisodeBonusPoints
			}
			if winnerQualifies && episode.EpisodeNumber == currentNumber {
				row.Scores.SoleSurvivorBonus += s.cfg.WinnerBonusPoints
			}
		}

		correct, err := s.predictionRepo.ListCorrectByPlayerAndEpisode(playerID, episode.ID)
		if err != nil {
			return nil, err
		}
		row.PredictionBonuses = correct
		row.Scores.PredictionBonus = len(correct) * s.cfg.PredictionBonusPoints

		row.Scores.TotalEpisodeScore = row.Scores.DraftScore + row.Scores.SoleSurvivorScore +
			row.Scores.SoleSurvivorBonus + row.Scores.PredictionBonus
		rows = append(rows, row)
	}

	totals, err := s.Score(ctx, playerID)
	if err != nil {
		return nil, err
	}

	return &AuditReport{
		PlayerID:   player.ID,
		PlayerName: player.Name,
		Episodes:   rows,
		Totals:     *totals,
	}, nil
}
