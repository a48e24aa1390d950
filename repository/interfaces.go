package repository

import (
	"context"
	"database/sql"

	"taste_match/models"
)

// EntityStore 读写用户/餐厅记录上的 state_id
type EntityStore interface {
	// GetVersion 返回当前版本；present=false 表示字段为空。实体不存在时返回 ErrInvalidEntity
	GetVersion(ctx context.Context, ref models.EntityRef) (version int64, present bool, err error)
	// GetVersions 批量读取；结果中缺失的 id 表示实体不存在
	GetVersions(ctx context.Context, kind models.EntityKind, ids []int64) (map[int64]sql.NullInt64, error)
	// SetVersionIfAbsent 仅当字段为空时写入，返回是否写入成功
	SetVersionIfAbsent(ctx context.Context, ref models.EntityRef, version int64) (bool, error)
	// SetVersion 无条件覆盖
	SetVersion(ctx context.Context, ref models.EntityRef, version int64) error
	// ListIDs 按 id 升序列出实体，limit <= 0 表示不限
	ListIDs(ctx context.Context, kind models.EntityKind, limit int) ([]int64, error)
}

// ProfileStore 只读的关键词画像库；画像不存在时返回空切片
type ProfileStore interface {
	GetProfile(ctx context.Context, kind models.EntityKind, id int64) ([]models.RawKeyword, error)
	GetProfiles(ctx context.Context, kind models.EntityKind, ids []int64) (map[int64][]models.RawKeyword, error)
}

// ScoreCache 每个 holder 一份缓存，按 partner id 存放最近一次的分数
type ScoreCache interface {
	// FindEntry 只有 partner 和状态指纹都一致时才命中
	FindEntry(ctx context.Context, pairing models.Pairing, holderID, partnerID int64, hash models.StateHash) (models.CacheEntry, bool, error)
	// ReplaceEntry 用新条目整体替换该 partner 的旧条目
	ReplaceEntry(ctx context.Context, pairing models.Pairing, holderID, partnerID int64, entry models.CacheEntry) error
}
