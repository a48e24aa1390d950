package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taste_match/config"
	"taste_match/models"
	"taste_match/repository"
	"taste_match/utils"
)

// lowestPrime 随机源总是返回 0，素数搜索退化为从下界开始顺序扫描
func lowestPrime(int64) int64 { return 0 }

func TestEnsureVersionAssignsOnce(t *testing.T) {
	entities := repository.NewMemoryEntityStore()
	ref := models.EntityRef{Kind: models.EntityRestaurant, ID: 10}
	entities.AddEntity(ref, 0)
	svc := NewVersionService(config.Default(), entities)

	first, err := svc.EnsureVersion(context.Background(), ref)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.True(t, utils.IsProbablePrime(first.Version, 16))
	assert.GreaterOrEqual(t, first.Version, int64(1000))
	assert.Less(t, first.Version, int64(10000))

	second, err := svc.EnsureVersion(context.Background(), ref)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Version, second.Version)
}

func TestEnsureVersionConcurrentCallersAgree(t *testing.T) {
	entities := repository.NewMemoryEntityStore()
	ref := models.EntityRef{Kind: models.EntityUser, ID: 1}
	entities.AddEntity(ref, 0)
	svc := NewVersionService(config.Default(), entities)

	const callers = 16
	results := make([]models.EnsuredVersion, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := svc.EnsureVersion(context.Background(), ref)
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	wg.Wait()

	created := 0
	for _, r := range results {
		if r.Created {
			created++
		}
		assert.Equal(t, results[0].Version, r.Version)
	}
	assert.Equal(t, 1, created)
}

// racingStore 模拟另一个写入者在条件更新之前抢先写入
type racingStore struct {
	*repository.MemoryEntityStore
	winner int64
}

func (s *racingStore) SetVersionIfAbsent(ctx context.Context, ref models.EntityRef, version int64) (bool, error) {
	if _, err := s.MemoryEntityStore.SetVersionIfAbsent(ctx, ref, s.winner); err != nil {
		return false, err
	}
	return s.MemoryEntityStore.SetVersionIfAbsent(ctx, ref, version)
}

func TestEnsureVersionLosesRace(t *testing.T) {
	inner := repository.NewMemoryEntityStore()
	ref := models.EntityRef{Kind: models.EntityUser, ID: 1}
	inner.AddEntity(ref, 0)
	svc := NewVersionService(config.Default(), &racingStore{MemoryEntityStore: inner, winner: 1013})

	got, err := svc.EnsureVersion(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, models.EnsuredVersion{Version: 1013, Created: false}, got)
}

func TestEnsureVersionMissingEntity(t *testing.T) {
	svc := NewVersionService(config.Default(), repository.NewMemoryEntityStore())

	_, err := svc.EnsureVersion(context.Background(), models.EntityRef{Kind: models.EntityUser, ID: 404})
	assert.ErrorIs(t, err, models.ErrInvalidEntity)

	_, err = svc.Bump(context.Background(), models.EntityRef{Kind: models.EntityUser, ID: 404})
	assert.ErrorIs(t, err, models.ErrInvalidEntity)
}

func TestBumpPicksDifferentPrime(t *testing.T) {
	entities := repository.NewMemoryEntityStore()
	ref := models.EntityRef{Kind: models.EntityRestaurant, ID: 10}
	entities.AddEntity(ref, 1009)
	svc := NewVersionService(config.Default(), entities).WithRandom(lowestPrime)

	got, err := svc.Bump(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, int64(1013), got)

	v, present, err := entities.GetVersion(context.Background(), ref)
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, int64(1013), v)
}

func TestStateHashOrdersVersions(t *testing.T) {
	entities := repository.NewMemoryEntityStore()
	holder := models.EntityRef{Kind: models.EntityUser, ID: 1}
	partner := models.EntityRef{Kind: models.EntityRestaurant, ID: 10}
	entities.AddEntity(holder, 1009)
	entities.AddEntity(partner, 7919)
	svc := NewVersionService(config.Default(), entities)

	hash, err := svc.StateHash(context.Background(), holder, partner)
	require.NoError(t, err)
	assert.Equal(t, models.StateHash{HolderVersion: 1009, PartnerVersion: 7919}, hash)
	assert.Equal(t, int64(1009*7919), hash.Product())
}
