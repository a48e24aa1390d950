package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"taste_match/config"
	_ "taste_match/docs" // 导入 swagger 文档
	"taste_match/models"
	"taste_match/services"
	"taste_match/utils"
)

// ScoreHandler 打分相关的 HTTP 接口
type ScoreHandler struct {
	scores   services.ScoreProvider
	versions services.VersionManager
}

func NewScoreHandler(scores services.ScoreProvider, versions services.VersionManager) *ScoreHandler {
	return &ScoreHandler{scores: scores, versions: versions}
}

func parsePairing(w http.ResponseWriter, raw string) (models.Pairing, bool) {
	pairing, err := models.ParsePairing(raw)
	if err != nil {
		utils.WriteErrorResponse(w, models.CodeInvalidParams, map[string]interface{}{
			"param": "pairing",
			"value": raw,
		})
		return "", false
	}
	return pairing, true
}

// Score godoc
// @Summary 计算用户与餐厅/用户的口味匹配分
// @Description 状态未变时直接返回缓存分数，否则重新计算并写回缓存。pairing 取 user_restaurant 或 user_user
// @Tags 打分
// @Accept json
// @Produce json
// @Param pairing path string true "打分关系" Enums(user_restaurant, user_user)
// @Param holder_id path int true "用户ID"
// @Param partner_id path int true "餐厅或用户ID"
// @Success 200 {object} models.ScoreResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/score/{pairing}/{holder_id}/{partner_id} [get]
func (h *ScoreHandler) Score(w http.ResponseWriter, r *http.Request) {
	pairing, ok := parsePairing(w, chi.URLParam(r, "pairing"))
	if !ok {
		return
	}
	holderID, ok := utils.ParseID(w, "holder_id", chi.URLParam(r, "holder_id"))
	if !ok {
		return
	}
	partnerID, ok := utils.ParseID(w, "partner_id", chi.URLParam(r, "partner_id"))
	if !ok {
		return
	}

	res, err := h.scores.Score(r.Context(), pairing, holderID, partnerID)
	if err != nil {
		utils.HandleServiceError(w, err)
		return
	}
	utils.WriteSuccessResponse(w, res)
}

// BatchScore godoc
// @Summary 批量打分
// @Description 一个用户对多个餐厅/用户打分。单个对象失败时该对象记 0 分，不影响其他结果
// @Tags 打分
// @Accept json
// @Produce json
// @Param pairing path string true "打分关系" Enums(user_restaurant, user_user)
// @Param holder_id path int true "用户ID"
// @Param request body models.BatchScoreRequest true "partner id 列表"
// @Success 200 {object} models.BatchScoreResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/score/{pairing}/{holder_id}/batch [post]
func (h *ScoreHandler) BatchScore(w http.ResponseWriter, r *http.Request) {
	pairing, ok := parsePairing(w, chi.URLParam(r, "pairing"))
	if !ok {
		return
	}
	holderID, ok := utils.ParseID(w, "holder_id", chi.URLParam(r, "holder_id"))
	if !ok {
		return
	}

	var req models.BatchScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteCustomErrorResponse(w, models.CodeInvalidParams, "请求体解析失败: "+err.Error(), map[string]interface{}{})
		return
	}
	if req.PartnerIDs == nil {
		utils.WriteErrorResponse(w, models.CodeMissingParams, map[string]interface{}{
			"param": "partner_ids",
		})
		return
	}

	scores, err := h.scores.BatchScore(r.Context(), pairing, holderID, req.PartnerIDs)
	if err != nil {
		utils.HandleServiceError(w, err)
		return
	}
	utils.WriteSuccessResponse(w, models.BatchScoreData{Pairing: pairing, HolderID: holderID, Scores: scores})
}

// RankRestaurants godoc
// @Summary 按口味对餐厅排序
// @Description 按用户口味分从高到低排序，同分保持请求顺序。未提供 viewer_id 时全部 0 分并保持请求顺序
// @Tags 打分
// @Accept json
// @Produce json
// @Param viewer_id query int false "当前用户ID"
// @Param ids query string true "逗号分隔的餐厅ID"
// @Success 200 {object} models.RankResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/restaurants/rank [get]
func (h *ScoreHandler) RankRestaurants(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("ids") {
		utils.WriteErrorResponse(w, models.CodeMissingParams, map[string]interface{}{
			"param": "ids",
		})
		return
	}
	ids, ok := utils.ParseIDList(w, "ids", query.Get("ids"))
	if !ok {
		return
	}

	var viewer *int64
	if raw := query.Get("viewer_id"); raw != "" {
		id, ok := utils.ParseID(w, "viewer_id", raw)
		if !ok {
			return
		}
		viewer = &id
	}

	ranked, err := h.scores.RankRestaurants(r.Context(), viewer, ids)
	if err != nil {
		utils.HandleServiceError(w, err)
		return
	}
	utils.WriteSuccessResponse(w, ranked)
}

func parseEntity(w http.ResponseWriter, r *http.Request) (models.EntityRef, bool) {
	kind, err := models.ParseEntityKind(chi.URLParam(r, "kind"))
	if err != nil {
		utils.WriteErrorResponse(w, models.CodeInvalidParams, map[string]interface{}{
			"param": "kind",
			"value": chi.URLParam(r, "kind"),
		})
		return models.EntityRef{}, false
	}
	id, ok := utils.ParseID(w, "id", chi.URLParam(r, "id"))
	if !ok {
		return models.EntityRef{}, false
	}
	return models.EntityRef{Kind: kind, ID: id}, true
}

// GetVersion godoc
// @Summary 获取实体状态版本
// @Description 返回用户/餐厅当前的 state_id，为空时分配新版本
// @Tags 版本
// @Accept json
// @Produce json
// @Param kind path string true "实体类型" Enums(user, restaurant)
// @Param id path int true "实体ID"
// @Success 200 {object} models.VersionResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/version/{kind}/{id} [get]
func (h *ScoreHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	ref, ok := parseEntity(w, r)
	if !ok {
		return
	}

	v, err := h.versions.EnsureVersion(r.Context(), ref)
	if err != nil {
		utils.HandleServiceError(w, err)
		return
	}
	utils.WriteSuccessResponse(w, models.VersionData{Kind: ref.Kind, ID: ref.ID, Version: v.Version, Created: v.Created})
}

// BumpVersion godoc
// @Summary 更新实体状态版本
// @Description 用户评论或餐厅画像变化后调用，分配一个新的 state_id，使相关缓存失效
// @Tags 版本
// @Accept json
// @Produce json
// @Param kind path string true "实体类型" Enums(user, restaurant)
// @Param id path int true "实体ID"
// @Success 200 {object} models.VersionResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/version/{kind}/{id}/bump [post]
func (h *ScoreHandler) BumpVersion(w http.ResponseWriter, r *http.Request) {
	ref, ok := parseEntity(w, r)
	if !ok {
		return
	}

	v, err := h.versions.Bump(r.Context(), ref)
	if err != nil {
		utils.HandleServiceError(w, err)
		return
	}
	utils.WriteSuccessResponse(w, models.VersionData{Kind: ref.Kind, ID: ref.ID, Version: v, Created: true})
}

func RegisterRoutes(r chi.Router, h *ScoreHandler) {
	// Swagger 文档
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // Swagger JSON 的 URL
	))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/api/score/{pairing}/{holder_id}/{partner_id}", h.Score)
	r.Post("/api/score/{pairing}/{holder_id}/batch", h.BatchScore)
	r.Get("/api/restaurants/rank", h.RankRestaurants)
	r.Get("/api/version/{kind}/{id}", h.GetVersion)
	r.Post("/api/version/{kind}/{id}/bump", h.BumpVersion)
}

// NewRouter 带中间件的完整路由
func NewRouter(cfg *config.Config, h *ScoreHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Duration(cfg.Timeouts.RequestSec) * time.Second))

	RegisterRoutes(r, h)
	return r
}
