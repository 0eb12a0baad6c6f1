package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/solepick/fantasy-league/internal/cache"
	"github.com/solepick/fantasy-league/internal/repository"
	"github.com/solepick/fantasy-league/pkg/logger"
)

func setupCachedService(t *testing.T, gormDB *gorm.DB) (*Service, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	redisCache := cache.NewRedisWithClient(client)

	db := &repository.DB{DB: gormDB}
	service := NewServiceWithInterfaces(
		repository.NewEventRepository(db),
		repository.NewEpisodeRepository(db),
		repository.NewContestantRepository(db),
		repository.NewScoreRepository(db),
		redisCache,
		time.Minute,
		logger.Nop(),
	)
	return service, mr
}

func TestPerformance_PopulatesCache(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service, mr := setupCachedService(t, gormDB)
	f := seedSeason(t, gormDB)
	addEvent(t, gormDB, f.episodes[0].ID, f.contestants[0].ID, f.immunity)

	rows, err := service.Performance(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.True(t, mr.Exists(cache.KeyContestantPerformance))
}

func TestPerformance_ServedFromCache(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service, _ := setupCachedService(t, gormDB)
	f := seedSeason(t, gormDB)
	addEvent(t, gormDB, f.episodes[0].ID, f.contestants[0].ID, f.immunity)

	first, err := service.Performance(context.Background())
	require.NoError(t, err)

	// A ledger write without invalidation is not visible until the TTL
	// expires; the cached view keeps serving the old totals.
	addEvent(t, gormDB, f.episodes[1].ID, f.contestants[0].ID, f.immunity)

	second, err := service.Performance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first[0].TotalScore, second[0].TotalScore)
}

func TestPerformance_RecomputesAfterExpiry(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service, mr := setupCachedService(t, gormDB)
	f := seedSeason(t, gormDB)
	addEvent(t, gormDB, f.episodes[0].ID, f.contestants[0].ID, f.immunity)

	_, err := service.Performance(context.Background())
	require.NoError(t, err)

	addEvent(t, gormDB, f.episodes[1].ID, f.contestants[0].ID, f.immunity)
	mr.FastForward(2 * time.Minute)

	rows, err := service.Performance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, rows[0].TotalScore)
}

func TestRefreshProjections_InvalidatesCache(t *testing.T) {
	gormDB, cleanup := setupTestDB(t)
	defer cleanup()

	service, mr := setupCachedService(t, gormDB)
	f := seedSeason(t, gormDB)
	addEvent(t, gormDB, f.episodes[0].ID, f.contestants[0].ID, f.immunity)

	_, err := service.Performance(context.Background())
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.KeyContestantPerformance))

	require.NoError(t, service.RefreshProjections(context.Background()))
	assert.False(t, mr.Exists(cache.KeyContestantPerformance))
}
