package ledger

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

func setupService(t *testing.T, gormDB *gorm.DB) (*Service, *repository.EventRepository) {
	db := &repository.DB{DB: gormDB}
	eventRepo := repository.NewEventRepository(db)
	episodeRepo := repository.NewEpisodeRepository(db)
	contestantRepo := repository.NewContestantRepository(db)
	return NewServiceWithInterfaces(eventRepo, episodeRepo, contestantRepo, nil, logger.Nop()), eventRepo
}

func seedFixtures(t *testing.T, gormDB *gorm.DB) (models.Episode, models.Contestant, models.EventType, models.EventType) {
	episode := models.Episode{EpisodeNumber: 1}
	require.NoError(t, gormDB.Create(&episode).Error)

	contestant := models.Contestant{Name: "Rupert", CurrentTribe: "Drake"}
	require.NoError(t, gormDB.Create(&contestant).Error)

	immunity := models.EventType{
		Name:        models.EventTypeImmunityWin,
		DisplayName: "Immunity Win",
		Category:    models.EventCategoryBasic,
		PointValue:  5,
		IsActive:    true,
	}
	require.NoError(t, gormDB.Create(&immunity).Error)

	eliminated := models.EventType{
		Name:        models.EventTypeEliminated,
		DisplayName: "Eliminated",
		Category:    models.EventCategoryPenalty,
		PointValue:  -10,
		IsActive:    true,
	}
	require.NoError(t, gormDB.Create(&eliminated).Error)

	return episode, contestant, immunity, eliminated
}

func TestApplyBulk_RecordsEvents(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service, eventRepo := setupService(t, gormDB)
	episode, contestant, immunity, _ := seedFixtures(t, gormDB)

	err := service.ApplyBulk(context.Background(), episode.ID, []AddEntry{
		{ContestantID: contestant.ID, EventTypeID: immunity.ID},
		{ContestantID: contestant.ID, EventTypeID: immunity.ID},
	}, nil)
	require.NoError(t, err)

	total, err := eventRepo.SumPointsByContestantAndEpisode(contestant.ID, episode.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, total)

	grouped, err := service.EpisodeEvents(context.Background(), episode.ID)
	require.NoError(t, err)
	require.Len(t, grouped, 1)
	assert.Equal(t, contestant.ID, grouped[0].ContestantID)
	assert.Len(t, grouped[0].Events, 2)
}

func TestApplyBulk_CopiesPointValueAtRecordTime(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service, eventRepo := setupService(t, gormDB)
	episode, contestant, immunity, _ := seedFixtures(t, gormDB)

	err := service.ApplyBulk(context.Background(), episode.ID, []AddEntry{
		{ContestantID: contestant.ID, EventTypeID: immunity.ID},
	}, nil)
	require.NoError(t, err)

	// Catalog edits must not rewrite history.
	require.NoError(t, gormDB.Model(&models.EventType{}).
		Where("id = ?", immunity.ID).
		Update("point_value", 100).Error)

	total, err := eventRepo.SumPointsByContestantAndEpisode(contestant.ID, episode.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
}

func TestApplyBulk_ReversalNegatesPoints(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service, eventRepo := setupService(t, gormDB)
	episode, contestant, immunity, _ := seedFixtures(t, gormDB)

	require.NoError(t, service.ApplyBulk(context.Background(), episode.ID, []AddEntry{
		{ContestantID: contestant.ID, EventTypeID: immunity.ID},
	}, nil))

	events, err := eventRepo.ListCurrentEventsByEpisode(episode.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.NoError(t, service.ApplyBulk(context.Background(), episode.ID, nil, []uint{events[0].ID}))

	total, err := eventRepo.SumPointsByContestantAndEpisode(contestant.ID, episode.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	// The reversed pair drops out of the effective set but both rows remain.
	current, err := eventRepo.ListCurrentEventsByEpisode(episode.ID)
	require.NoError(t, err)
	assert.Empty(t, current)

	var rows int64
	require.NoError(t, gormDB.Model(&models.ContestantEvent{}).Count(&rows).Error)
	assert.Equal(t, int64(2), rows)
}

func TestApplyBulk_RejectsDoubleReversal(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service, eventRepo := setupService(t, gormDB)
	episode, contestant, immunity, _ := seedFixtures(t, gormDB)

	require.NoError(t, service.ApplyBulk(context.Background(), episode.ID, []AddEntry{
		{ContestantID: contestant.ID, EventTypeID: immunity.ID},
	}, nil))
	events, err := eventRepo.ListCurrentEventsByEpisode(episode.ID)
	require.NoError(t, err)

	require.NoError(t, service.ApplyBulk(context.Background(), episode.ID, nil, []uint{events[0].ID}))

	err = service.ApplyBulk(context.Background(), episode.ID, nil, []uint{events[0].ID})
	assert.ErrorIs(t, err, repository.ErrAlreadyReversed)
}

func TestApplyBulk_RejectsInactiveEventType(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service, _ := setupService(t, gormDB)
	episode, contestant, immunity, _ := seedFixtures(t, gormDB)

	require.NoError(t, gormDB.Model(&models.EventType{}).
		Where("id = ?", immunity.ID).
		Update("is_active", false).Error)

	err := service.ApplyBulk(context.Background(), episode.ID, []AddEntry{
		{ContestantID: contestant.ID, EventTypeID: immunity.ID},
	}, nil)
	assert.ErrorIs(t, err, ErrInactiveEventType)
}

func TestApplyBulk_AtomicOnValidationFailure(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service, _ := setupService(t, gormDB)
	episode, contestant, immunity, _ := seedFixtures(t, gormDB)

	err := service.ApplyBulk(context.Background(), episode.ID, []AddEntry{
		{ContestantID: contestant.ID, EventTypeID: immunity.ID},
	}, []uint{9999})
	require.Error(t, err)

	var rows int64
	require.NoError(t, gormDB.Model(&models.ContestantEvent{}).Count(&rows).Error)
	assert.Equal(t, int64(0), rows)
}

func TestApplyBulk_EliminationTogglesContestantFlag(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service, eventRepo := setupService(t, gormDB)
	episode, contestant, _, eliminated := seedFixtures(t, gormDB)

	require.NoError(t, service.ApplyBulk(context.Background(), episode.ID, []AddEntry{
		{ContestantID: contestant.ID, EventTypeID: eliminated.ID},
	}, nil))

	var after models.Contestant
	require.NoError(t, gormDB.First(&after, contestant.ID).Error)
	assert.True(t, after.IsEliminated)

	events, err := eventRepo.ListCurrentEventsByEpisode(episode.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.NoError(t, service.ApplyBulk(context.Background(), episode.ID, nil, []uint{events[0].ID}))

	require.NoError(t, gormDB.First(&after, contestant.ID).Error)
	assert.False(t, after.IsEliminated)
}

func TestEpisodeEvents_UnknownEpisode(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service, _ := setupService(t, gormDB)

	_, err := service.EpisodeEvents(context.Background(), 42)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSetCurrentEpisode_Resolves(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service, _ := setupService(t, gormDB)
	episode, _, _, _ := seedFixtures(t, gormDB)

	require.NoError(t, service.SetCurrentEpisode(context.Background(), episode.ID))

	db := &repository.DB{DB: gormDB}
	current, err := repository.NewEpisodeRepository(db).CurrentEpisode()
	require.NoError(t, err)
	assert.Equal(t, episode.ID, current.ID)
}

func TestSetCurrentEpisode_UnknownEpisode(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service, _ := setupService(t, gormDB)

	err := service.SetCurrentEpisode(context.Background(), 42)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestEventTypes_ActiveOnly(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service, _ := setupService(t, gormDB)
	seedFixtures(t, gormDB)

	retired := models.EventType{
		Name:       "old_twist",
		Category:   models.EventCategoryBonus,
		PointValue: 2,
		IsActive:   false,
	}
	require.NoError(t, gormDB.Create(&retired).Error)

	types, err := service.EventTypes(context.Background())
	require.NoError(t, err)
	assert.Len(t, types, 2)
	for _, et := range types {
		assert.True(t, et.IsActive)
	}
}
