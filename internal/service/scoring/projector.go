package scoring

import (
	"context"
	"time"

	"github.com/solepick/fantasy-league/internal/cache"
	prommetrics "github.com/solepick/fantasy-league/internal/metrics"
	"github.com/solepick/fantasy-league/internal/models"
)

// RefreshProjections recomputes the episode_scores projection and the advisory
// contestant totals from the ledger. Safe to re-run; the ledger stays the
// source of truth.
func (s *Service) RefreshProjections(ctx context.Context) error {
	start := time.Now()
	err := s.refreshProjections(ctx)
	prommetrics.ObserveProjectionRefreshDuration(time.Since(start).Seconds())
	if err != nil {
		prommetrics.RecordProjectionRefresh("error")
		return err
	}
	prommetrics.RecordProjectionRefresh("success")
	prommetrics.SetProjectionLastRefresh()
	return nil
}

func (s *Service) refreshProjections(ctx context.Context) error {
	episodes, err := s.episodeRepo.List()
	if err != nil {
		return err
	}
	contestants, err := s.contestantRepo.List()
	if err != nil {
		return err
	}

	now := time.Now()
	for _, contestant := range contestants {
		total := 0
		for _, episode := range episodes {
			points, err := s.eventRepo.SumPointsByContestantAndEpisode(contestant.ID, episode.ID)
			if err != nil {
				return err
			}
			total += points

			score := models.EpisodeScore{
				EpisodeID:        episode.ID,
				ContestantID:     contestant.ID,
				Points:           points,
				CumulativePoints: total,
				Source:           models.ScoreSourceLedger,
				CalculatedAt:     now,
			}
			if err := s.scoreRepo.Upsert(&score); err != nil {
				return err
			}
		}

		if err := s.contestantRepo.UpdateTotalScore(contestant.ID, total); err != nil {
			return err
		}
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, cache.KeyContestantPerformance); err != nil {
			s.log.Warn().Err(err).Msg("Failed to invalidate performance cache after refresh")
		}
	}

	s.log.Info().
		Int("contestants", len(contestants)).
		Int("episodes", len(episodes)).
		Msg("Refreshed score projections")
	return nil
}
