package models

import (
	"fmt"
	"time"
)

// Pairing 打分关系：holder 固定为用户，partner 为餐厅或另一个用户
type Pairing string

const (
	PairingUserRestaurant Pairing = "user_restaurant"
	PairingUserUser       Pairing = "user_user"
)

func ParsePairing(s string) (Pairing, error) {
	switch Pairing(s) {
	case PairingUserRestaurant, PairingUserUser:
		return Pairing(s), nil
	case "restaurant":
		return PairingUserRestaurant, nil
	case "user":
		return PairingUserUser, nil
	}
	return "", fmt.Errorf("unknown pairing %q", s)
}

// PartnerKind partner 的实体类型
func (p Pairing) PartnerKind() EntityKind {
	if p == PairingUserUser {
		return EntityUser
	}
	return EntityRestaurant
}

// Symmetric 用户之间比较时按双方情感是否一致取符号
func (p Pairing) Symmetric() bool {
	return p == PairingUserUser
}

// CacheEntry 某个 holder/partner 的缓存分数
type CacheEntry struct {
	StateHash      int64     `bson:"state_hash" json:"state_hash"`
	HolderVersion  int64     `bson:"holder_version" json:"holder_version"`
	PartnerVersion int64     `bson:"partner_version" json:"partner_version"`
	Score          float64   `bson:"score" json:"score"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}

// NewCacheEntry 按当前状态构造缓存条目
func NewCacheEntry(hash StateHash, score float64) CacheEntry {
	return CacheEntry{
		StateHash:      hash.Product(),
		HolderVersion:  hash.HolderVersion,
		PartnerVersion: hash.PartnerVersion,
		Score:          score,
		UpdatedAt:      time.Now().UTC(),
	}
}

// Matches 条目是否对应给定状态
func (e CacheEntry) Matches(hash StateHash) bool {
	return e.StateHash == hash.Product() && e.HolderVersion == hash.HolderVersion
}

// ScoreResult 单次打分结果
type ScoreResult struct {
	HolderID  int64   `json:"holder_id"`
	PartnerID int64   `json:"partner_id"`
	Score     float64 `json:"score"`
	CacheHit  bool    `json:"cache_hit"`
	StateHash int64   `json:"state_hash"`
}

// RankedScore 排序后的打分结果
type RankedScore struct {
	ID    int64   `json:"id"`
	Score float64 `json:"score"`
}
