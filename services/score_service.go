package services

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"taste_match/config"
	"taste_match/logger"
	"taste_match/metrics"
	"taste_match/models"
	"taste_match/repository"
	"taste_match/scoring"
)

const defaultBatchConcurrency = 8

// ScoreService 口味匹配打分：版本 → 状态指纹 → 缓存 → 计算 → 写回
type ScoreService struct {
	versions    *VersionService
	profiles    repository.ProfileStore
	cache       repository.ScoreCache
	scorer      scoring.Scorer
	concurrency int
}

func NewScoreService(cfg *config.Config, versions *VersionService, profiles repository.ProfileStore, cache repository.ScoreCache) *ScoreService {
	concurrency := cfg.Scoring.BatchConcurrency
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}
	return &ScoreService{
		versions: versions,
		profiles: profiles,
		cache:    cache,
		scorer: scoring.Scorer{
			Threshold: cfg.Scoring.Threshold,
			SkewBase:  cfg.Scoring.SkewBase,
			Dimension: cfg.Scoring.Dimension,
		},
		concurrency: concurrency,
	}
}

// Score 单对打分
func (s *ScoreService) Score(ctx context.Context, pairing models.Pairing, holderID, partnerID int64) (models.ScoreResult, error) {
	holder := models.EntityRef{Kind: models.EntityUser, ID: holderID}
	partner := models.EntityRef{Kind: pairing.PartnerKind(), ID: partnerID}

	hash, err := s.versions.StateHash(ctx, holder, partner)
	if err != nil {
		return models.ScoreResult{}, err
	}
	res := models.ScoreResult{HolderID: holderID, PartnerID: partnerID, StateHash: hash.Product()}

	entry, hit, err := s.cache.FindEntry(ctx, pairing, holderID, partnerID, hash)
	if err != nil {
		return models.ScoreResult{}, err
	}
	metrics.RecordCacheLookup(string(pairing), hit)
	if hit {
		res.Score = entry.Score
		res.CacheHit = true
		return res, nil
	}

	holderRaw, err := s.profiles.GetProfile(ctx, holder.Kind, holder.ID)
	if err != nil {
		return models.ScoreResult{}, err
	}
	partnerRaw, err := s.profiles.GetProfile(ctx, partner.Kind, partner.ID)
	if err != nil {
		return models.ScoreResult{}, err
	}

	score, err := s.compute(pairing, s.canonical(holder, holderRaw), s.canonical(partner, partnerRaw))
	if err != nil {
		return models.ScoreResult{}, err
	}
	if err := s.cache.ReplaceEntry(ctx, pairing, holderID, partnerID, models.NewCacheEntry(hash, score)); err != nil {
		return models.ScoreResult{}, err
	}

	res.Score = score
	return res, nil
}

// BatchScore 一个 holder 对多个 partner 打分。
// holder 不存在或批量读取失败时整体返回错误；单个 partner 的失败只让该 partner 记 0 分
func (s *ScoreService) BatchScore(ctx context.Context, pairing models.Pairing, holderID int64, partnerIDs []int64) (map[int64]float64, error) {
	holder := models.EntityRef{Kind: models.EntityUser, ID: holderID}
	hv, err := s.versions.EnsureVersion(ctx, holder)
	if err != nil {
		return nil, err
	}

	ids := uniqueIDs(partnerIDs)
	out := make(map[int64]float64, len(ids))
	for _, id := range ids {
		out[id] = 0
	}
	if len(ids) == 0 {
		return out, nil
	}

	holderRaw, err := s.profiles.GetProfile(ctx, holder.Kind, holder.ID)
	if err != nil {
		return nil, err
	}
	holderRecs := s.canonical(holder, holderRaw)
	if len(holderRecs) == 0 {
		logger.Info("Holder has no keywords, returning zero scores", "holder", holder.String(), "partners", len(ids))
		return out, nil
	}

	kind := pairing.PartnerKind()
	profiles, err := s.profiles.GetProfiles(ctx, kind, ids)
	if err != nil {
		return nil, err
	}
	versions, err := s.versions.Entities().GetVersions(ctx, kind, ids)
	if err != nil {
		return nil, err
	}

	results := make([]float64, len(ids))
	var g errgroup.Group
	g.SetLimit(min(len(ids), s.concurrency))
	for i, id := range ids {
		g.Go(func() error {
			partner := models.EntityRef{Kind: kind, ID: id}
			v, known := versions[id]
			if !known {
				logger.Warn("Batch partner not found", "holder", holder.String(), "partner", partner.String())
				metrics.RecordBatchFailure(string(pairing))
				return nil
			}
			score, err := s.scorePrefetched(ctx, pairing, holderID, hv.Version, holderRecs, partner, v, profiles[id])
			if err != nil {
				logger.Warn("Batch partner scoring failed", "holder", holder.String(), "partner", partner.String(), "error", err)
				metrics.RecordBatchFailure(string(pairing))
				return nil
			}
			results[i] = score
			return nil
		})
	}
	_ = g.Wait()

	for i, id := range ids {
		out[id] = results[i]
	}
	return out, nil
}

// scorePrefetched 使用批量读取好的画像和版本为单个 partner 打分
func (s *ScoreService) scorePrefetched(ctx context.Context, pairing models.Pairing, holderID, holderVersion int64, holderRecs []models.KeywordRecord,
	partner models.EntityRef, stored sql.NullInt64, partnerRaw []models.RawKeyword) (float64, error) {

	partnerVersion := stored.Int64
	if !stored.Valid {
		ev, err := s.versions.assign(ctx, partner)
		if err != nil {
			return 0, err
		}
		partnerVersion = ev.Version
	}
	hash := models.NewStateHash(holderVersion, partnerVersion)

	entry, hit, err := s.cache.FindEntry(ctx, pairing, holderID, partner.ID, hash)
	if err != nil {
		return 0, err
	}
	metrics.RecordCacheLookup(string(pairing), hit)
	if hit {
		return entry.Score, nil
	}

	score, err := s.compute(pairing, holderRecs, s.canonical(partner, partnerRaw))
	if err != nil {
		return 0, err
	}
	if err := s.cache.ReplaceEntry(ctx, pairing, holderID, partner.ID, models.NewCacheEntry(hash, score)); err != nil {
		return 0, err
	}
	return score, nil
}

// RankRestaurants 按口味分从高到低排序餐厅，同分保持输入顺序
func (s *ScoreService) RankRestaurants(ctx context.Context, viewerID *int64, restaurantIDs []int64) ([]models.RankedScore, error) {
	ids := uniqueIDs(restaurantIDs)
	ranked := make([]models.RankedScore, len(ids))
	for i, id := range ids {
		ranked[i] = models.RankedScore{ID: id}
	}
	if viewerID == nil || len(ids) == 0 {
		return ranked, nil
	}

	scores, err := s.BatchScore(ctx, models.PairingUserRestaurant, *viewerID, ids)
	if err != nil {
		return nil, err
	}
	for i := range ranked {
		ranked[i].Score = scores[ranked[i].ID]
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked, nil
}

func (s *ScoreService) compute(pairing models.Pairing, holder, partner []models.KeywordRecord) (float64, error) {
	start := time.Now()
	defer func() { metrics.ObserveCompute(string(pairing), time.Since(start)) }()

	if pairing.Symmetric() {
		return s.scorer.ScoreSymmetric(holder, partner)
	}
	return s.scorer.Score(holder, partner)
}

// canonical 规整原始关键词，丢弃的记录只记日志和指标
func (s *ScoreService) canonical(ref models.EntityRef, raw []models.RawKeyword) []models.KeywordRecord {
	c := scoring.Canonicalize(raw)
	if len(c.Dropped) > 0 {
		logger.Debug("Dropped malformed keyword records", "entity", ref.String(), "indexes", c.Dropped)
		metrics.RecordKeywordsDropped(string(ref.Kind), len(c.Dropped))
	}
	return c.Records
}

// uniqueIDs 去重并保持首次出现的顺序
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
