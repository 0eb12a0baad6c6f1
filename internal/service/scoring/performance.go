package scoring

import (
	"context"
	"encoding/json"

	"github.com/solepick/fantasy-league/internal/cache"
	prommetrics "github.com/solepick/fantasy-league/internal/metrics"
	"github.com/solepick/fantasy-league/internal/models"
)

// ContestantPerformance is one row of the league-wide performance view.
type ContestantPerformance struct {
	ID                uint    `json:"id"`
	Name              string  `json:"name"`
	CurrentTribe      string  `json:"current_tribe"`
	ImageURL          string  `json:"image_url"`
	IsEliminated      bool    `json:"is_eliminated"`
	TotalScore        int     `json:"total_score"`
	AveragePerEpisode float64 `json:"average_per_episode"`
	ImmunityWins      int     `json:"immunity_wins"`
	RewardWins        int     `json:"reward_wins"`
	IdolsFound        int     `json:"idols_found"`
}

// Performance returns the performance view for every contestant, served from
// cache when warm and recomputed from the ledger otherwise.
func (s *Service) Performance(ctx context.Context) ([]ContestantPerformance, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cache.KeyContestantPerformance)
		if err != nil {
			s.log.Warn().Err(err).Msg("Performance cache read failed")
		} else if cached != "" {
			var rows []ContestantPerformance
			if jsonErr := json.Unmarshal([]byte(cached), &rows); jsonErr != nil {
				s.log.Warn().Err(jsonErr).Msg("Discarding malformed performance cache entry")
			} else {
				prommetrics.RecordPerformanceCacheHit()
				return rows, nil
			}
		}
	}
	prommetrics.RecordPerformanceCacheMiss()

	rows, err := s.computePerformance(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		data, err := json.Marshal(rows)
		if err == nil {
			if err := s.cache.Set(ctx, cache.KeyContestantPerformance, string(data), s.cacheTTL); err != nil {
				s.log.Warn().Err(err).Msg("Performance cache write failed")
			}
		}
	}
	return rows, nil
}

func (s *Service) computePerformance(ctx context.Context) ([]ContestantPerformance, error) {
	contestants, err := s.contestantRepo.List()
	if err != nil {
		return nil, err
	}
	episodeCount, err := s.episodeRepo.Count()
	if err != nil {
		return nil, err
	}

	rows := make([]ContestantPerformance, 0, len(contestants))
	for _, contestant := range contestants {
		total, err := s.eventRepo.SumPointsByContestant(contestant.ID)
		if err != nil {
			return nil, err
		}
		immunity, err := s.eventRepo.CountCurrentEventsByType(contestant.ID, models.EventTypeImmunityWin)
		if err != nil {
			return nil, err
		}
		reward, err := s.eventRepo.CountCurrentEventsByType(contestant.ID, models.EventTypeRewardWin)
		if err != nil {
			return nil, err
		}
		idols, err := s.eventRepo.CountCurrentEventsByType(contestant.ID, models.EventTypeIdolFound)
		if err != nil {
			return nil, err
		}

		average := 0.0
		if episodeCount > 0 {
			average = float64(total) / float64(episodeCount)
		}

		rows = append(rows, ContestantPerformance{
			ID:                contestant.ID,
			Name:              contestant.Name,
			CurrentTribe:      contestant.CurrentTribe,
			ImageURL:          contestant.ImageURL,
			IsEliminated:      contestant.IsEliminated,
			TotalScore:        total,
			AveragePerEpisode: average,
			ImmunityWins:      int(immunity),
			RewardWins:        int(reward),
			IdolsFound:        int(idols),
		})
	}
	return rows, nil
}
