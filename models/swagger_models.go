package models

// APIResponse 通用API响应
type APIResponse struct {
	Code    int         `json:"code" example:"0"`
	Message string      `json:"message" example:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// BatchScoreRequest 批量打分请求体
type BatchScoreRequest struct {
	PartnerIDs []int64 `json:"partner_ids" example:"10,11,12"`
}

// ScoreResponse 单对打分响应
type ScoreResponse struct {
	Code    int         `json:"code" example:"0"`
	Message string      `json:"message" example:"success"`
	Data    ScoreResult `json:"data"`
}

// BatchScoreData 批量打分结果，scores 以 partner id 为键
type BatchScoreData struct {
	Pairing  Pairing           `json:"pairing" example:"user_restaurant"`
	HolderID int64             `json:"holder_id" example:"1"`
	Scores   map[int64]float64 `json:"scores"`
}

// BatchScoreResponse 批量打分响应
type BatchScoreResponse struct {
	Code    int            `json:"code" example:"0"`
	Message string         `json:"message" example:"success"`
	Data    BatchScoreData `json:"data"`
}

// RankResponse 餐厅排序响应
type RankResponse struct {
	Code    int           `json:"code" example:"0"`
	Message string        `json:"message" example:"success"`
	Data    []RankedScore `json:"data"`
}

// VersionData 实体版本
type VersionData struct {
	Kind    EntityKind `json:"kind" example:"restaurant"`
	ID      int64      `json:"id" example:"10"`
	Version int64      `json:"version" example:"7919"`
	Created bool       `json:"created" example:"false"`
}

// VersionResponse 版本查询/更新响应
type VersionResponse struct {
	Code    int         `json:"code" example:"0"`
	Message string      `json:"message" example:"success"`
	Data    VersionData `json:"data"`
}
