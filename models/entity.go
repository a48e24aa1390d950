package models

import (
	"errors"
	"fmt"
)

// EntityKind 持有关键词画像的实体类型
type EntityKind string

const (
	EntityUser       EntityKind = "user"
	EntityRestaurant EntityKind = "restaurant"
)

// ErrInvalidEntity 用户或餐厅在实体库中不存在
var ErrInvalidEntity = errors.New("invalid entity")

// ParseEntityKind 解析路由/命令行中的实体类型
func ParseEntityKind(s string) (EntityKind, error) {
	switch EntityKind(s) {
	case EntityUser, EntityRestaurant:
		return EntityKind(s), nil
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

type EntityRef struct {
	Kind EntityKind `json:"kind"`
	ID   int64      `json:"id"`
}

func (r EntityRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// NotFound 包装 ErrInvalidEntity，带上实体信息
func (r EntityRef) NotFound() error {
	return fmt.Errorf("%w: %s", ErrInvalidEntity, r)
}

// EnsuredVersion 是 EnsureVersion 的结果，Created 为 true 表示本次调用写入了新版本
type EnsuredVersion struct {
	Version int64 `json:"version"`
	Created bool  `json:"created"`
}

// StateHash 两个实体版本的组合指纹。
// 存储的 state_hash 是两者乘积；比较时同时比较 holder 版本，
// 因此交换两边版本得到相同乘积的情况不会命中。
type StateHash struct {
	HolderVersion  int64 `json:"holder_version"`
	PartnerVersion int64 `json:"partner_version"`
}

func NewStateHash(holderVersion, partnerVersion int64) StateHash {
	return StateHash{HolderVersion: holderVersion, PartnerVersion: partnerVersion}
}

// Product vA × vB
func (h StateHash) Product() int64 {
	return h.HolderVersion * h.PartnerVersion
}
