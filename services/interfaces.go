package services

import (
	"context"

	"taste_match/models"
)

// ScoreProvider 打分服务接口
type ScoreProvider interface {
	// 单对打分，先查缓存，未命中时计算并写回
	Score(ctx context.Context, pairing models.Pairing, holderID, partnerID int64) (models.ScoreResult, error)

	// 一个 holder 对多个 partner 批量打分；单个 partner 失败记 0 分
	BatchScore(ctx context.Context, pairing models.Pairing, holderID int64, partnerIDs []int64) (map[int64]float64, error)

	// 按用户口味对餐厅排序；viewerID 为 nil 时全部 0 分并保持原顺序
	RankRestaurants(ctx context.Context, viewerID *int64, restaurantIDs []int64) ([]models.RankedScore, error)
}

// VersionManager 实体状态版本管理接口
type VersionManager interface {
	// 读取版本，为空时分配新素数
	EnsureVersion(ctx context.Context, ref models.EntityRef) (models.EnsuredVersion, error)

	// 画像变更后换一个新版本，使旧缓存失效
	Bump(ctx context.Context, ref models.EntityRef) (int64, error)
}
