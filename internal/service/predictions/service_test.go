package predictions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/solepick/fantasy-league/internal/models"
	"github.com/solepick/fantasy-league/internal/repository"
	"github.com/solepick/fantasy-league/pkg/logger"
)

func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	db := &repository.DB{DB: gormDB}
	require.NoError(t, db.AutoMigrate())

	cleanup := func() {
		sqlDB, _ := gormDB.DB()
		_ = sqlDB.Close()
	}
	return gormDB, cleanup
}

func setupService(t *testing.T, gormDB *gorm.DB) *Service {
	db := &repository.DB{DB: gormDB}
	return NewServiceWithInterfaces(
		repository.NewPredictionRepository(db),
		repository.NewEpisodeRepository(db),
		repository.NewEventRepository(db),
		repository.NewPlayerRepository(db),
		repository.NewContestantRepository(db),
		logger.Nop(),
	)
}

type leagueFixtures struct {
	episode    models.Episode
	player     models.Player
	drake      models.Contestant
	morgan     models.Contestant
	eliminated models.EventType
}

func seedLeague(t *testing.T, gormDB *gorm.DB) leagueFixtures {
	f := leagueFixtures{}

	f.episode = models.Episode{EpisodeNumber: 1}
	require.NoError(t, gormDB.Create(&f.episode).Error)

	f.player = models.Player{Name: "Probst", Email: "probst@example.com"}
	require.NoError(t, gormDB.Create(&f.player).Error)

	f.drake = models.Contestant{Name: "Rupert", CurrentTribe: "Drake"}
	require.NoError(t, gormDB.Create(&f.drake).Error)

	f.morgan = models.Contestant{Name: "Osten", CurrentTribe: "Morgan"}
	require.NoError(t, gormDB.Create(&f.morgan).Error)

	f.eliminated = models.EventType{
		Name:       models.EventTypeEliminated,
		Category:   models.EventCategoryPenalty,
		PointValue: -10,
		IsActive:   true,
	}
	require.NoError(t, gormDB.Create(&f.eliminated).Error)

	return f
}

func recordElimination(t *testing.T, gormDB *gorm.DB, f leagueFixtures, contestantID uint) {
	event := models.ContestantEvent{
		EpisodeID:    f.episode.ID,
		ContestantID: contestantID,
		EventTypeID:  f.eliminated.ID,
		PointValue:   f.eliminated.PointValue,
	}
	require.NoError(t, gormDB.Create(&event).Error)
}

func TestSubmit_UpsertsPerTribe(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service := setupService(t, gormDB)
	f := seedLeague(t, gormDB)

	err := service.Submit(context.Background(), f.player.ID, f.episode.ID, []Entry{
		{Tribe: "Drake", ContestantID: f.drake.ID},
		{Tribe: "Morgan", ContestantID: f.morgan.ID},
	})
	require.NoError(t, err)

	// Resubmitting a tribe before lock replaces the earlier pick.
	err = service.Submit(context.Background(), f.player.ID, f.episode.ID, []Entry{
		{Tribe: "Drake", ContestantID: f.morgan.ID},
	})
	require.NoError(t, err)

	var predictions []models.Prediction
	require.NoError(t, gormDB.Where("player_id = ?", f.player.ID).Order("tribe ASC").Find(&predictions).Error)
	require.Len(t, predictions, 2)
	assert.Equal(t, f.morgan.ID, predictions[0].PredictedContestantID)
	assert.Equal(t, f.morgan.ID, predictions[1].PredictedContestantID)
}

func TestSubmit_RejectedWhenLocked(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service := setupService(t, gormDB)
	f := seedLeague(t, gormDB)

	require.NoError(t, service.SetLock(context.Background(), f.episode.ID, true))

	err := service.Submit(context.Background(), f.player.ID, f.episode.ID, []Entry{
		{Tribe: "Drake", ContestantID: f.drake.ID},
	})
	assert.ErrorIs(t, err, ErrPredictionsLocked)
}

func TestSubmit_RejectsMissingTribe(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service := setupService(t, gormDB)
	f := seedLeague(t, gormDB)

	err := service.Submit(context.Background(), f.player.ID, f.episode.ID, []Entry{
		{Tribe: "", ContestantID: f.drake.ID},
	})
	assert.ErrorIs(t, err, ErrMissingTribe)
}

func TestScoreEpisode_RequiresLock(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service := setupService(t, gormDB)
	f := seedLeague(t, gormDB)

	_, err := service.ScoreEpisode(context.Background(), f.episode.ID)
	assert.ErrorIs(t, err, ErrEpisodeNotLocked)
}

func TestScoreEpisode_GradesAgainstLedger(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service := setupService(t, gormDB)
	f := seedLeague(t, gormDB)

	require.NoError(t, service.Submit(context.Background(), f.player.ID, f.episode.ID, []Entry{
		{Tribe: "Drake", ContestantID: f.drake.ID},
		{Tribe: "Morgan", ContestantID: f.morgan.ID},
	}))
	require.NoError(t, service.SetLock(context.Background(), f.episode.ID, true))

	recordElimination(t, gormDB, f, f.drake.ID)

	result, err := service.ScoreEpisode(context.Background(), f.episode.ID)
	require.NoError(t, err)

	// Only Drake had an elimination; the Morgan pick stays unscored.
	assert.Equal(t, 1, result.Scored)
	assert.Equal(t, 1, result.Correct)
	assert.Equal(t, 0, result.Incorrect)

	var predictions []models.Prediction
	require.NoError(t, gormDB.Where("player_id = ?", f.player.ID).Order("tribe ASC").Find(&predictions).Error)
	require.Len(t, predictions, 2)

	require.NotNil(t, predictions[0].IsCorrect)
	assert.True(t, *predictions[0].IsCorrect)
	assert.NotNil(t, predictions[0].ScoredAt)

	assert.Nil(t, predictions[1].IsCorrect)
	assert.Nil(t, predictions[1].ScoredAt)
}

func TestScoreEpisode_Idempotent(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service := setupService(t, gormDB)
	f := seedLeague(t, gormDB)

	require.NoError(t, service.Submit(context.Background(), f.player.ID, f.episode.ID, []Entry{
		{Tribe: "Drake", ContestantID: f.drake.ID},
	}))
	require.NoError(t, service.SetLock(context.Background(), f.episode.ID, true))
	recordElimination(t, gormDB, f, f.drake.ID)

	first, err := service.ScoreEpisode(context.Background(), f.episode.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Scored)

	second, err := service.ScoreEpisode(context.Background(), f.episode.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Scored)
	assert.Equal(t, 1, second.Skipped)
}

func TestScoreEpisode_IncorrectPick(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service := setupService(t, gormDB)
	f := seedLeague(t, gormDB)

	other := models.Contestant{Name: "Sandra", CurrentTribe: "Drake"}
	require.NoError(t, gormDB.Create(&other).Error)

	require.NoError(t, service.Submit(context.Background(), f.player.ID, f.episode.ID, []Entry{
		{Tribe: "Drake", ContestantID: other.ID},
	}))
	require.NoError(t, service.SetLock(context.Background(), f.episode.ID, true))
	recordElimination(t, gormDB, f, f.drake.ID)

	result, err := service.ScoreEpisode(context.Background(), f.episode.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Incorrect)
}

func TestSetLock_UnlockRefusedAfterScoring(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service := setupService(t, gormDB)
	f := seedLeague(t, gormDB)

	require.NoError(t, service.Submit(context.Background(), f.player.ID, f.episode.ID, []Entry{
		{Tribe: "Drake", ContestantID: f.drake.ID},
	}))
	require.NoError(t, service.SetLock(context.Background(), f.episode.ID, true))
	recordElimination(t, gormDB, f, f.drake.ID)

	_, err := service.ScoreEpisode(context.Background(), f.episode.ID)
	require.NoError(t, err)

	err = service.SetLock(context.Background(), f.episode.ID, false)
	assert.ErrorIs(t, err, ErrUnlockScored)
}

func TestSetLock_UnlockAllowedBeforeScoring(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service := setupService(t, gormDB)
	f := seedLeague(t, gormDB)

	require.NoError(t, service.SetLock(context.Background(), f.episode.ID, true))
	require.NoError(t, service.SetLock(context.Background(), f.episode.ID, false))

	var episode models.Episode
	require.NoError(t, gormDB.First(&episode, f.episode.ID).Error)
	assert.False(t, episode.PredictionsLocked)
}

func TestCurrent_ReturnsSheetForCurrentEpisode(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service := setupService(t, gormDB)
	f := seedLeague(t, gormDB)

	db := &repository.DB{DB: gormDB}
	require.NoError(t, repository.NewEpisodeRepository(db).SetCurrentEpisode(f.episode.ID))

	require.NoError(t, service.Submit(context.Background(), f.player.ID, f.episode.ID, []Entry{
		{Tribe: "Drake", ContestantID: f.drake.ID},
	}))

	sheet, err := service.Current(context.Background(), f.player.ID)
	require.NoError(t, err)
	assert.Equal(t, f.episode.ID, sheet.Episode.ID)
	assert.False(t, sheet.Locked)
	require.Len(t, sheet.Predictions, 1)
	assert.Equal(t, "Drake", sheet.Predictions[0].Tribe)
}

func TestCurrent_NoCurrentEpisode(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service := setupService(t, gormDB)
	f := seedLeague(t, gormDB)

	_, err := service.Current(context.Background(), f.player.ID)
	assert.ErrorIs(t, err, repository.ErrNoCurrentEpisode)
}
