package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"taste_match/config"
	"taste_match/models"
	"taste_match/repository"
	"taste_match/services"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func kw(name string, freq int, emb ...any) models.RawKeyword {
	return models.RawKeyword{"name": name, "frequency": freq, "embedding": emb}
}

func newTestServer(t *testing.T, dimension int) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	cfg.Scoring.Dimension = dimension

	entities := repository.NewMemoryEntityStore()
	profiles := repository.NewMemoryProfileStore()
	for _, ref := range []models.EntityRef{
		{Kind: models.EntityUser, ID: 1},
		{Kind: models.EntityUser, ID: 2},
		{Kind: models.EntityRestaurant, ID: 10},
		{Kind: models.EntityRestaurant, ID: 11},
		{Kind: models.EntityRestaurant, ID: 12},
	} {
		entities.AddEntity(ref, 0)
	}
	profiles.Put(models.EntityRef{Kind: models.EntityUser, ID: 1}, []models.RawKeyword{kw("spicy", 3, 1.0, 0.0, 0.0)})
	profiles.Put(models.EntityRef{Kind: models.EntityUser, ID: 2}, []models.RawKeyword{kw("legacy", 1, 1.0, 0.0)})
	profiles.Put(models.EntityRef{Kind: models.EntityRestaurant, ID: 10}, []models.RawKeyword{kw("맛있다", 2, 1.0, 0.0, 0.0)})
	profiles.Put(models.EntityRef{Kind: models.EntityRestaurant, ID: 11}, []models.RawKeyword{kw("sweet", 1, 0.0, 0.0, 1.0)})

	versions := services.NewVersionService(cfg, entities)
	scores := services.NewScoreService(cfg, versions, profiles, repository.NewMemoryScoreCache())

	srv := httptest.NewServer(NewRouter(cfg, NewScoreHandler(scores, versions)))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, method, url, body string) envelope {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func TestScoreEndpoint(t *testing.T) {
	srv := newTestServer(t, 3)

	env := call(t, http.MethodGet, srv.URL+"/api/score/user_restaurant/1/10", "")
	require.Equal(t, models.CodeSuccess, env.Code)
	var res models.ScoreResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 100.0, res.Score)
	assert.False(t, res.CacheHit)

	env = call(t, http.MethodGet, srv.URL+"/api/score/restaurant/1/10", "")
	require.Equal(t, models.CodeSuccess, env.Code)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.CacheHit)
}

func TestScoreEndpointErrors(t *testing.T) {
	srv := newTestServer(t, 3)

	tests := []struct {
		name string
		path string
		code int
	}{
		{name: "unknown pairing", path: "/api/score/user_cafe/1/10", code: models.CodeInvalidParams},
		{name: "bad holder", path: "/api/score/user_restaurant/abc/10", code: models.CodeInvalidParams},
		{name: "negative partner", path: "/api/score/user_restaurant/1/-3", code: models.CodeInvalidParams},
		{name: "missing partner", path: "/api/score/user_restaurant/1/404", code: models.CodeEntityNotFound},
		{name: "missing holder", path: "/api/score/user_user/404/1", code: models.CodeEntityNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := call(t, http.MethodGet, srv.URL+tt.path, "")
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestScoreEndpointShapeMismatch(t *testing.T) {
	// 不按维度过滤时，2 维与 3 维的 embedding 无法比较
	srv := newTestServer(t, 0)

	env := call(t, http.MethodGet, srv.URL+"/api/score/user_restaurant/2/10", "")
	assert.Equal(t, models.CodeProfileCorrupted, env.Code)
}

// downProfiles 模拟文档库不可用
type downProfiles struct{}

func (downProfiles) GetProfile(context.Context, models.EntityKind, int64) ([]models.RawKeyword, error) {
	return nil, mongo.CommandError{Code: 6, Name: "HostUnreachable", Message: "connection refused"}
}

func (downProfiles) GetProfiles(context.Context, models.EntityKind, []int64) (map[int64][]models.RawKeyword, error) {
	return nil, mongo.CommandError{Code: 6, Name: "HostUnreachable", Message: "connection refused"}
}

func TestScoreEndpointStoreFailure(t *testing.T) {
	cfg := config.Default()
	entities := repository.NewMemoryEntityStore()
	entities.AddEntity(models.EntityRef{Kind: models.EntityUser, ID: 1}, 0)
	entities.AddEntity(models.EntityRef{Kind: models.EntityRestaurant, ID: 10}, 0)

	versions := services.NewVersionService(cfg, entities)
	scores := services.NewScoreService(cfg, versions, downProfiles{}, repository.NewMemoryScoreCache())
	srv := httptest.NewServer(NewRouter(cfg, NewScoreHandler(scores, versions)))
	defer srv.Close()

	env := call(t, http.MethodGet, srv.URL+"/api/score/user_restaurant/1/10", "")
	assert.Equal(t, models.CodeDatabaseError, env.Code)
}

func TestBatchScoreEndpoint(t *testing.T) {
	srv := newTestServer(t, 3)

	env := call(t, http.MethodPost, srv.URL+"/api/score/user_restaurant/1/batch", `{"partner_ids":[10,11,12,404]}`)
	require.Equal(t, models.CodeSuccess, env.Code)

	var data struct {
		HolderID int64              `json:"holder_id"`
		Scores   map[string]float64 `json:"scores"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, int64(1), data.HolderID)
	assert.Equal(t, map[string]float64{"10": 100, "11": 0, "12": 0, "404": 0}, data.Scores)

	env = call(t, http.MethodPost, srv.URL+"/api/score/user_restaurant/1/batch", `{}`)
	assert.Equal(t, models.CodeMissingParams, env.Code)

	env = call(t, http.MethodPost, srv.URL+"/api/score/user_restaurant/1/batch", `not json`)
	assert.Equal(t, models.CodeInvalidParams, env.Code)

	env = call(t, http.MethodPost, srv.URL+"/api/score/user_restaurant/404/batch", `{"partner_ids":[10]}`)
	assert.Equal(t, models.CodeEntityNotFound, env.Code)
}

func TestRankEndpoint(t *testing.T) {
	srv := newTestServer(t, 3)

	env := call(t, http.MethodGet, srv.URL+"/api/restaurants/rank?ids=12,11,10", "")
	require.Equal(t, models.CodeSuccess, env.Code)
	var ranked []models.RankedScore
	require.NoError(t, json.Unmarshal(env.Data, &ranked))
	assert.Equal(t, []models.RankedScore{{ID: 12}, {ID: 11}, {ID: 10}}, ranked)

	env = call(t, http.MethodGet, srv.URL+"/api/restaurants/rank?viewer_id=1&ids=12,11,10", "")
	require.Equal(t, models.CodeSuccess, env.Code)
	require.NoError(t, json.Unmarshal(env.Data, &ranked))
	assert.Equal(t, []models.RankedScore{{ID: 10, Score: 100}, {ID: 12}, {ID: 11}}, ranked)

	env = call(t, http.MethodGet, srv.URL+"/api/restaurants/rank", "")
	assert.Equal(t, models.CodeMissingParams, env.Code)

	env = call(t, http.MethodGet, srv.URL+"/api/restaurants/rank?ids=10,x", "")
	assert.Equal(t, models.CodeInvalidParams, env.Code)
}

func TestVersionEndpoints(t *testing.T) {
	srv := newTestServer(t, 3)

	env := call(t, http.MethodGet, srv.URL+"/api/version/restaurant/10", "")
	require.Equal(t, models.CodeSuccess, env.Code)
	var first models.VersionData
	require.NoError(t, json.Unmarshal(env.Data, &first))
	assert.True(t, first.Created)

	env = call(t, http.MethodPost, srv.URL+"/api/version/restaurant/10/bump", "")
	require.Equal(t, models.CodeSuccess, env.Code)
	var bumped models.VersionData
	require.NoError(t, json.Unmarshal(env.Data, &bumped))
	assert.NotEqual(t, first.Version, bumped.Version)

	env = call(t, http.MethodPost, srv.URL+"/api/version/cafe/10/bump", "")
	assert.Equal(t, models.CodeInvalidParams, env.Code)

	env = call(t, http.MethodPost, srv.URL+"/api/version/user/404/bump", "")
	assert.Equal(t, models.CodeEntityNotFound, env.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, 3)
	call(t, http.MethodGet, srv.URL+"/api/score/user_restaurant/1/11", "")

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "taste_match_cache_lookups_total")
}

func TestSwaggerDocServed(t *testing.T) {
	srv := newTestServer(t, 3)

	resp, err := http.Get(srv.URL + "/swagger/doc.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var doc map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Contains(t, doc["paths"], "/api/score/{pairing}/{holder_id}/{partner_id}")
}
