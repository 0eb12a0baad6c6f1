// Package survivor tracks sole survivor picks as interval history and
// computes the bonuses the pick earns.
package survivor

import "github.com/solepick/fantasy-league/internal/config"

// Bonus is the sole survivor bonus breakdown for a player.
type Bonus struct {
	EpisodeCount int `json:"episode_count"`
	EpisodeBonus int `json:"episode_bonus"`
	WinnerBonus  int `json:"winner_bonus"`
	Total        int `json:"total"`
}

// CalculateBonus derives the bonus for an active pick interval. The episode
// count is clamped to at least one so a pick made during the current episode
// still earns its first episode. The winner bonus only pays out for picks
// made at or before the configured cutoff episode.
func CalculateBonus(startEpisode, currentEpisode int, isWinner bool, cfg *config.ScoringConfig) Bonus {
	count := currentEpisode - startEpisode + 1
	if count < 1 {
		count = 1
	}

	bonus := Bonus{
		EpisodeCount: count,
		EpisodeBonus: count * cfg.EpisodeBonusPoints,
	}
	if isWinner && startEpisode <= cfg.WinnerBonusCutoff {
		bonus.WinnerBonus = cfg.WinnerBonusPoints
	}
	bonus.Total = bonus.EpisodeBonus + bonus.WinnerBonus
	return bonus
}
