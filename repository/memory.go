package repository

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"taste_match/models"
)

// 内存实现，语义与 MySQL / Mongo 版本一致，用于测试和 --memory 模式

type MemoryEntityStore struct {
	mu       sync.Mutex
	versions map[models.EntityRef]sql.NullInt64
}

func NewMemoryEntityStore() *MemoryEntityStore {
	return &MemoryEntityStore{versions: make(map[models.EntityRef]sql.NullInt64)}
}

// AddEntity 登记实体；version 为 0 表示 state_id 为空
func (s *MemoryEntityStore) AddEntity(ref models.EntityRef, version int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[ref] = sql.NullInt64{Int64: version, Valid: version != 0}
}

func (s *MemoryEntityStore) GetVersion(_ context.Context, ref models.EntityRef) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[ref]
	if !ok {
		return 0, false, ref.NotFound()
	}
	return v.Int64, v.Valid, nil
}

func (s *MemoryEntityStore) GetVersions(_ context.Context, kind models.EntityKind, ids []int64) (map[int64]sql.NullInt64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]sql.NullInt64, len(ids))
	for _, id := range ids {
		if v, ok := s.versions[models.EntityRef{Kind: kind, ID: id}]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (s *MemoryEntityStore) SetVersionIfAbsent(_ context.Context, ref models.EntityRef, version int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[ref]
	if !ok || v.Valid {
		return false, nil
	}
	s.versions[ref] = sql.NullInt64{Int64: version, Valid: true}
	return true, nil
}

func (s *MemoryEntityStore) SetVersion(_ context.Context, ref models.EntityRef, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.versions[ref]; !ok {
		return ref.NotFound()
	}
	s.versions[ref] = sql.NullInt64{Int64: version, Valid: true}
	return nil
}

func (s *MemoryEntityStore) ListIDs(_ context.Context, kind models.EntityKind, limit int) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0)
	for ref := range s.versions {
		if ref.Kind == kind {
			ids = append(ids, ref.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[models.EntityRef][]models.RawKeyword
	// BulkReads 记录 GetProfiles 调用次数，测试用来确认只做了一次批量读取
	BulkReads int
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[models.EntityRef][]models.RawKeyword)}
}

func (s *MemoryProfileStore) Put(ref models.EntityRef, keywords []models.RawKeyword) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[ref] = keywords
}

func (s *MemoryProfileStore) GetProfile(_ context.Context, kind models.EntityKind, id int64) ([]models.RawKeyword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[models.EntityRef{Kind: kind, ID: id}]; ok {
		return p, nil
	}
	return []models.RawKeyword{}, nil
}

func (s *MemoryProfileStore) GetProfiles(_ context.Context, kind models.EntityKind, ids []int64) (map[int64][]models.RawKeyword, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BulkReads++
	out := make(map[int64][]models.RawKeyword, len(ids))
	for _, id := range ids {
		if p, ok := s.profiles[models.EntityRef{Kind: kind, ID: id}]; ok {
			out[id] = p
		} else {
			out[id] = []models.RawKeyword{}
		}
	}
	return out, nil
}

type cacheKey struct {
	pairing models.Pairing
	holder  int64
	partner int64
}

type MemoryScoreCache struct {
	mu      sync.Mutex
	entries map[cacheKey]models.CacheEntry
}

func NewMemoryScoreCache() *MemoryScoreCache {
	return &MemoryScoreCache{entries: make(map[cacheKey]models.CacheEntry)}
}

func (c *MemoryScoreCache) FindEntry(_ context.Context, pairing models.Pairing, holderID, partnerID int64, hash models.StateHash) (models.CacheEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[cacheKey{pairing, holderID, partnerID}]
	if !ok || !e.Matches(hash) {
		return models.CacheEntry{}, false, nil
	}
	return e, true, nil
}

func (c *MemoryScoreCache) ReplaceEntry(_ context.Context, pairing models.Pairing, holderID, partnerID int64, entry models.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey{pairing, holderID, partnerID}] = entry
	return nil
}

// Len 当前条目数
func (c *MemoryScoreCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
