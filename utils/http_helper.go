package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"taste_match/models"
	"taste_match/scoring"
)

// WriteFormattedJSON 格式化JSON输出，使其更易读
func WriteFormattedJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "    ") // 使用4个空格缩进
	encoder.Encode(data)
}

// WriteSuccessResponse 写入成功响应
func WriteSuccessResponse(w http.ResponseWriter, data interface{}) {
	WriteFormattedJSON(w, models.NewSuccessResponse(data))
}

// WriteErrorResponse 写入错误响应
func WriteErrorResponse(w http.ResponseWriter, code int, data interface{}) {
	WriteFormattedJSON(w, models.NewErrorResponse(code, data))
}

// WriteCustomErrorResponse 写入自定义错误消息的响应
func WriteCustomErrorResponse(w http.ResponseWriter, code int, message string, data interface{}) {
	WriteFormattedJSON(w, models.NewCustomErrorResponse(code, message, data))
}

// ErrorCode 服务层错误对应的响应码
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidEntity):
		return models.CodeEntityNotFound
	case errors.Is(err, scoring.ErrShape):
		return models.CodeProfileCorrupted
	case IsStoreError(err):
		return models.CodeDatabaseError
	}
	return models.CodeServerError
}

// HandleServiceError 处理服务层错误的通用函数
func HandleServiceError(w http.ResponseWriter, err error) {
	WriteCustomErrorResponse(w, ErrorCode(err), err.Error(), map[string]interface{}{})
}

// ParseID 解析 id 参数；缺失或非法时写入错误响应并返回 false
func ParseID(w http.ResponseWriter, name, raw string) (int64, bool) {
	if raw == "" {
		WriteErrorResponse(w, models.CodeMissingParams, map[string]interface{}{
			"param": name,
		})
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		WriteErrorResponse(w, models.CodeInvalidParams, map[string]interface{}{
			"param": name,
			"value": raw,
		})
		return 0, false
	}
	return id, true
}

// ParseIDList 解析逗号分隔的 id 列表，空串返回空列表
func ParseIDList(w http.ResponseWriter, name, raw string) ([]int64, bool) {
	ids := make([]int64, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, ok := ParseID(w, name, part)
		if !ok {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}
