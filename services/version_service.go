package services

import (
	"context"
	"fmt"

	"taste_match/config"
	"taste_match/logger"
	"taste_match/metrics"
	"taste_match/models"
	"taste_match/repository"
	"taste_match/utils"
)

// VersionService 管理用户/餐厅记录上的 state_id。
// state_id 是 [PrimeMin, PrimeMax) 内的随机素数，为空时懒分配
type VersionService struct {
	entities repository.EntityStore
	next     utils.Int64N
	lo, hi   int64
	rounds   int
}

func NewVersionService(cfg *config.Config, entities repository.EntityStore) *VersionService {
	return &VersionService{
		entities: entities,
		next:     utils.DefaultInt64N,
		lo:       cfg.Scoring.PrimeMin,
		hi:       cfg.Scoring.PrimeMax,
		rounds:   cfg.Scoring.MillerRabinRounds,
	}
}

// WithRandom 替换随机源，测试中用固定种子
func (s *VersionService) WithRandom(next utils.Int64N) *VersionService {
	s.next = next
	return s
}

// Entities 底层实体库
func (s *VersionService) Entities() repository.EntityStore {
	return s.entities
}

// EnsureVersion 返回实体当前版本；字段为空时分配一个新素数并写入
func (s *VersionService) EnsureVersion(ctx context.Context, ref models.EntityRef) (models.EnsuredVersion, error) {
	v, present, err := s.entities.GetVersion(ctx, ref)
	if err != nil {
		return models.EnsuredVersion{}, err
	}
	if present {
		return models.EnsuredVersion{Version: v}, nil
	}
	return s.assign(ctx, ref)
}

// assign 条件写入新版本；并发写入时以先写入者为准
func (s *VersionService) assign(ctx context.Context, ref models.EntityRef) (models.EnsuredVersion, error) {
	p, err := utils.RandomPrimeInRange(s.next, s.lo, s.hi, s.rounds)
	if err != nil {
		return models.EnsuredVersion{}, fmt.Errorf("services: assign version for %s: %w", ref, err)
	}

	wrote, err := s.entities.SetVersionIfAbsent(ctx, ref, p)
	if err != nil {
		return models.EnsuredVersion{}, err
	}
	if wrote {
		metrics.RecordVersionAssigned(string(ref.Kind), metrics.ReasonAssigned)
		logger.Debug("State version assigned", "entity", ref.String(), "version", p)
		return models.EnsuredVersion{Version: p, Created: true}, nil
	}

	// 另一个写入者先写入了，或者实体不存在
	v, present, err := s.entities.GetVersion(ctx, ref)
	if err != nil {
		return models.EnsuredVersion{}, err
	}
	if !present {
		return models.EnsuredVersion{}, fmt.Errorf("services: state version for %s was not stored", ref)
	}
	return models.EnsuredVersion{Version: v}, nil
}

// Bump 为实体换一个与当前不同的新版本
func (s *VersionService) Bump(ctx context.Context, ref models.EntityRef) (int64, error) {
	current, _, err := s.entities.GetVersion(ctx, ref)
	if err != nil {
		return 0, err
	}

	p, err := utils.RandomPrimeExcluding(s.next, s.lo, s.hi, s.rounds, current)
	if err != nil {
		return 0, fmt.Errorf("services: bump version for %s: %w", ref, err)
	}
	if err := s.entities.SetVersion(ctx, ref, p); err != nil {
		return 0, err
	}

	metrics.RecordVersionAssigned(string(ref.Kind), metrics.ReasonBumped)
	logger.Info("State version bumped", "entity", ref.String(), "old", current, "new", p)
	return p, nil
}

// StateHash 确保双方版本存在并组合成状态指纹
func (s *VersionService) StateHash(ctx context.Context, holder, partner models.EntityRef) (models.StateHash, error) {
	hv, err := s.EnsureVersion(ctx, holder)
	if err != nil {
		return models.StateHash{}, err
	}
	pv, err := s.EnsureVersion(ctx, partner)
	if err != nil {
		return models.StateHash{}, err
	}
	return models.NewStateHash(hv.Version, pv.Version), nil
}
