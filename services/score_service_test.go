package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"taste_match/config"
	"taste_match/models"
	"taste_match/repository"
)

var (
	axisX = []any{1.0, 0.0, 0.0}
	axisY = []any{0.0, 1.0, 0.0}
	axisZ = []any{0.0, 0.0, 1.0}
)

func keyword(name, sentiment string, freq int, emb []any) models.RawKeyword {
	return models.RawKeyword{"name": name, "sentiment": sentiment, "frequency": freq, "embedding": emb}
}

type fixture struct {
	cfg      *config.Config
	entities *repository.MemoryEntityStore
	profiles *repository.MemoryProfileStore
	cache    *repository.MemoryScoreCache
	versions *VersionService
	svc      *ScoreService
}

func user(id int64) models.EntityRef { return models.EntityRef{Kind: models.EntityUser, ID: id} }

func restaurant(id int64) models.EntityRef {
	return models.EntityRef{Kind: models.EntityRestaurant, ID: id}
}

// newFixture 用户 1 喜欢辣（x 轴）；餐厅 10 是辣，11 是甜（z 轴），12 没有画像
func newFixture(t *testing.T, cache repository.ScoreCache) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Scoring.Dimension = 3

	f := &fixture{
		cfg:      cfg,
		entities: repository.NewMemoryEntityStore(),
		profiles: repository.NewMemoryProfileStore(),
		cache:    repository.NewMemoryScoreCache(),
	}
	if cache == nil {
		cache = f.cache
	}

	for _, ref := range []models.EntityRef{user(1), user(2), user(3), user(4), restaurant(10), restaurant(11), restaurant(12)} {
		f.entities.AddEntity(ref, 0)
	}
	f.profiles.Put(user(1), []models.RawKeyword{keyword("spicy", "positive", 3, axisX)})
	f.profiles.Put(user(2), []models.RawKeyword{keyword("hot", "negative", 1, axisX)})
	f.profiles.Put(user(3), []models.RawKeyword{keyword("chili", "positive", 2, axisX)})
	f.profiles.Put(restaurant(10), []models.RawKeyword{keyword("맛있다", "", 2, axisX)})
	f.profiles.Put(restaurant(11), []models.RawKeyword{keyword("sweet", "", 1, axisZ), {"embedding": axisY}})

	f.versions = NewVersionService(cfg, f.entities)
	f.svc = NewScoreService(cfg, f.versions, f.profiles, cache)
	return f
}

func TestScoreColdStartThenCacheHit(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.svc.Score(ctx, models.PairingUserRestaurant, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 100.0, first.Score)
	assert.False(t, first.CacheHit)

	hv, present, err := f.entities.GetVersion(ctx, user(1))
	require.NoError(t, err)
	require.True(t, present)
	pv, present, err := f.entities.GetVersion(ctx, restaurant(10))
	require.NoError(t, err)
	require.True(t, present)
	assert.Equal(t, hv*pv, first.StateHash)

	second, err := f.svc.Score(ctx, models.PairingUserRestaurant, 1, 10)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, 1, f.cache.Len())
}

func TestScoreDisjointAndMissingProfile(t *testing.T) {
	f := newFixture(t, nil)

	got, err := f.svc.Score(context.Background(), models.PairingUserRestaurant, 1, 11)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.Score)

	got, err = f.svc.Score(context.Background(), models.PairingUserRestaurant, 1, 12)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.Score)
}

func TestScoreInvalidEntity(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Score(context.Background(), models.PairingUserRestaurant, 1, 999)
	assert.ErrorIs(t, err, models.ErrInvalidEntity)

	_, err = f.svc.Score(context.Background(), models.PairingUserRestaurant, 999, 10)
	assert.ErrorIs(t, err, models.ErrInvalidEntity)
	assert.Equal(t, 0, f.cache.Len())
}

func TestBumpInvalidatesCachedScore(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	before, err := f.svc.Score(ctx, models.PairingUserRestaurant, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 100.0, before.Score)

	// 餐厅画像变了，外部流程负责换版本
	f.profiles.Put(restaurant(10), []models.RawKeyword{keyword("bland", "", 1, axisZ)})
	_, err = f.versions.Bump(ctx, restaurant(10))
	require.NoError(t, err)

	after, err := f.svc.Score(ctx, models.PairingUserRestaurant, 1, 10)
	require.NoError(t, err)
	assert.False(t, after.CacheHit)
	assert.NotEqual(t, before.StateHash, after.StateHash)
	assert.Equal(t, 0.0, after.Score)
	assert.Equal(t, 1, f.cache.Len())
}

func TestScoreUserUser(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	got, err := f.svc.Score(ctx, models.PairingUserUser, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Score)

	// 同一话题情感相反
	got, err = f.svc.Score(ctx, models.PairingUserUser, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.Score)

	_, err = f.svc.Score(ctx, models.PairingUserUser, 1, 10)
	assert.ErrorIs(t, err, models.ErrInvalidEntity, "restaurant id is not a user")
}

func TestBatchScore(t *testing.T) {
	f := newFixture(t, nil)

	got, err := f.svc.BatchScore(context.Background(), models.PairingUserRestaurant, 1, []int64{10, 11, 12, 10, 999})
	require.NoError(t, err)
	assert.Equal(t, map[int64]float64{10: 100, 11: 0, 12: 0, 999: 0}, got)
	assert.Equal(t, 1, f.profiles.BulkReads)
	assert.Equal(t, 3, f.cache.Len())

	// 全部命中缓存
	again, err := f.svc.BatchScore(context.Background(), models.PairingUserRestaurant, 1, []int64{10, 11, 12})
	require.NoError(t, err)
	assert.Equal(t, map[int64]float64{10: 100, 11: 0, 12: 0}, again)
	assert.Equal(t, 3, f.cache.Len())
}

func TestBatchScoreMatchesSingleScore(t *testing.T) {
	batch := newFixture(t, nil)
	single := newFixture(t, nil)
	ctx := context.Background()

	got, err := batch.svc.BatchScore(ctx, models.PairingUserUser, 1, []int64{2, 3})
	require.NoError(t, err)
	for _, id := range []int64{2, 3} {
		res, err := single.svc.Score(ctx, models.PairingUserUser, 1, id)
		require.NoError(t, err)
		assert.Equal(t, res.Score, got[id], "partner %d", id)
	}
}

func TestBatchScoreColdStartHolder(t *testing.T) {
	f := newFixture(t, nil)

	got, err := f.svc.BatchScore(context.Background(), models.PairingUserRestaurant, 4, []int64{10, 11})
	require.NoError(t, err)
	assert.Equal(t, map[int64]float64{10: 0, 11: 0}, got)
	assert.Equal(t, 0, f.cache.Len())
	assert.Equal(t, 0, f.profiles.BulkReads)
}

func TestBatchScoreMissingHolder(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.BatchScore(context.Background(), models.PairingUserRestaurant, 404, []int64{10})
	assert.ErrorIs(t, err, models.ErrInvalidEntity)
}

func TestBatchScoreEmptyPartners(t *testing.T) {
	f := newFixture(t, nil)

	got, err := f.svc.BatchScore(context.Background(), models.PairingUserRestaurant, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

type mockScoreCache struct {
	mock.Mock
}

func (m *mockScoreCache) FindEntry(ctx context.Context, pairing models.Pairing, holderID, partnerID int64, hash models.StateHash) (models.CacheEntry, bool, error) {
	args := m.Called(ctx, pairing, holderID, partnerID, hash)
	return args.Get(0).(models.CacheEntry), args.Bool(1), args.Error(2)
}

func (m *mockScoreCache) ReplaceEntry(ctx context.Context, pairing models.Pairing, holderID, partnerID int64, entry models.CacheEntry) error {
	args := m.Called(ctx, pairing, holderID, partnerID, entry)
	return args.Error(0)
}

func TestBatchScorePartialFailure(t *testing.T) {
	cache := new(mockScoreCache)
	f := newFixture(t, cache)
	// 13 与 10 口味相同，但缓存读取失败
	f.entities.AddEntity(restaurant(13), 0)
	f.profiles.Put(restaurant(13), []models.RawKeyword{keyword("매운", "", 2, axisX)})

	cache.On("FindEntry", mock.Anything, models.PairingUserRestaurant, int64(1), int64(13), mock.Anything).
		Return(models.CacheEntry{}, false, errors.New("connection reset"))
	cache.On("FindEntry", mock.Anything, models.PairingUserRestaurant, int64(1), mock.Anything, mock.Anything).
		Return(models.CacheEntry{}, false, nil)
	cache.On("ReplaceEntry", mock.Anything, models.PairingUserRestaurant, int64(1), mock.Anything, mock.Anything).
		Return(nil)

	got, err := f.svc.BatchScore(context.Background(), models.PairingUserRestaurant, 1, []int64{10, 13, 11})
	require.NoError(t, err)
	assert.Equal(t, map[int64]float64{10: 100, 13: 0, 11: 0}, got)
	assert.Equal(t, 1, f.profiles.BulkReads)

	cache.AssertNumberOfCalls(t, "FindEntry", 3)
	cache.AssertNumberOfCalls(t, "ReplaceEntry", 2)
	cache.AssertNotCalled(t, "ReplaceEntry", mock.Anything, models.PairingUserRestaurant, int64(1), int64(13), mock.Anything)
}

func TestRankRestaurants(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	anon, err := f.svc.RankRestaurants(ctx, nil, []int64{12, 11, 10})
	require.NoError(t, err)
	assert.Equal(t, []models.RankedScore{{ID: 12}, {ID: 11}, {ID: 10}}, anon)
	assert.Equal(t, 0, f.cache.Len())

	viewer := int64(1)
	ranked, err := f.svc.RankRestaurants(ctx, &viewer, []int64{12, 11, 10})
	require.NoError(t, err)
	assert.Equal(t, []models.RankedScore{{ID: 10, Score: 100}, {ID: 12}, {ID: 11}}, ranked)
}
