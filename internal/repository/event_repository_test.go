package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/solepick/fantasy-league/internal/models"
)

func setupTestDB(t *testing.T) (*DB, func()) {
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	db := &DB{gormDB}
	require.NoError(t, db.AutoMigrate())

	cleanup := func() {
		sqlDB, _ := gormDB.DB()
		_ = sqlDB.Close()
	}
	return db, cleanup
}

func seedLedger(t *testing.T, db *DB) (models.Episode, models.Contestant, models.EventType) {
	episode := models.Episode{EpisodeNumber: 1}
	require.NoError(t, db.Create(&episode).Error)

	contestant := models.Contestant{Name: "Rupert", CurrentTribe: "Drake"}
	require.NoError(t, db.Create(&contestant).Error)

	et := models.EventType{
		Name:       models.EventTypeImmunityWin,
		Category:   models.EventCategoryBasic,
		PointValue: 5,
		IsActive:   true,
	}
	require.NoError(t, db.Create(&et).Error)

	return episode, contestant, et
}

func TestApplyBulk_RejectsReversalOfReversal(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewEventRepository(db)
	episode, contestant, et := seedLedger(t, db)

	original := models.ContestantEvent{
		EpisodeID:    episode.ID,
		ContestantID: contestant.ID,
		EventTypeID:  et.ID,
		PointValue:   et.PointValue,
	}
	require.NoError(t, repo.CreateEvent(&original))
	require.NoError(t, repo.ApplyBulk(episode.ID, nil, []uint{original.ID}))

	var reversal models.ContestantEvent
	require.NoError(t, db.Where("reverses_event_id = ?", original.ID).First(&reversal).Error)

	err := repo.ApplyBulk(episode.ID, nil, []uint{reversal.ID})
	assert.ErrorIs(t, err, ErrReversalEntry)
}

func TestApplyBulk_RejectsReversalFromOtherEpisode(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewEventRepository(db)
	episode, contestant, et := seedLedger(t, db)

	other := models.Episode{EpisodeNumber: 2}
	require.NoError(t, db.Create(&other).Error)

	event := models.ContestantEvent{
		EpisodeID:    episode.ID,
		ContestantID: contestant.ID,
		EventTypeID:  et.ID,
		PointValue:   et.PointValue,
	}
	require.NoError(t, repo.CreateEvent(&event))

	err := repo.ApplyBulk(other.ID, nil, []uint{event.ID})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSumPointsThroughEpisode_RespectsEpisodeOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewEventRepository(db)
	episode1, contestant, et := seedLedger(t, db)

	episode3 := models.Episode{EpisodeNumber: 3}
	require.NoError(t, db.Create(&episode3).Error)

	for _, epID := range []uint{episode1.ID, episode3.ID} {
		event := models.ContestantEvent{
			EpisodeID:    epID,
			ContestantID: contestant.ID,
			EventTypeID:  et.ID,
			PointValue:   et.PointValue,
		}
		require.NoError(t, repo.CreateEvent(&event))
	}

	through2, err := repo.SumPointsThroughEpisode(contestant.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, through2)

	through3, err := repo.SumPointsThroughEpisode(contestant.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 10, through3)
}

func TestCountCurrentEventsByType_ExcludesReversedPairs(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewEventRepository(db)
	episode, contestant, et := seedLedger(t, db)

	kept := models.ContestantEvent{
		EpisodeID:    episode.ID,
		ContestantID: contestant.ID,
		EventTypeID:  et.ID,
		PointValue:   et.PointValue,
	}
	require.NoError(t, repo.CreateEvent(&kept))

	removed := models.ContestantEvent{
		EpisodeID:    episode.ID,
		ContestantID: contestant.ID,
		EventTypeID:  et.ID,
		PointValue:   et.PointValue,
	}
	require.NoError(t, repo.CreateEvent(&removed))
	require.NoError(t, repo.ApplyBulk(episode.ID, nil, []uint{removed.ID}))

	count, err := repo.CountCurrentEventsByType(contestant.ID, models.EventTypeImmunityWin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSeedEventTypes_UpdatesExistingByName(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewEventRepository(db)

	require.NoError(t, repo.SeedEventTypes([]models.EventType{
		{Name: "idol_found", Category: models.EventCategoryBonus, PointValue: 3, IsActive: true},
	}))
	require.NoError(t, repo.SeedEventTypes([]models.EventType{
		{Name: "idol_found", Category: models.EventCategoryBonus, PointValue: 4, IsActive: true},
	}))

	et, err := repo.GetEventTypeByName("idol_found")
	require.NoError(t, err)
	assert.Equal(t, 4, et.PointValue)

	types, err := repo.ListEventTypes(false)
	require.NoError(t, err)
	assert.Len(t, types, 1)
}

func TestCurrentEpisode_SettingsSingleton(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewEpisodeRepository(db)

	_, err := repo.CurrentEpisode()
	assert.ErrorIs(t, err, ErrNoCurrentEpisode)

	episode := models.Episode{EpisodeNumber: 1}
	require.NoError(t, repo.Create(&episode))
	require.NoError(t, repo.SetCurrentEpisode(episode.ID))

	current, err := repo.CurrentEpisode()
	require.NoError(t, err)
	assert.Equal(t, episode.ID, current.ID)

	// Repointing reuses the singleton row.
	second := models.Episode{EpisodeNumber: 2}
	require.NoError(t, repo.Create(&second))
	require.NoError(t, repo.SetCurrentEpisode(second.ID))

	var rows int64
	require.NoError(t, db.Model(&models.LeagueSettings{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestSetCurrentEpisode_UnknownEpisode(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewEpisodeRepository(db)
	err := repo.SetCurrentEpisode(99)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
