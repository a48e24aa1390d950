package scoring

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"

	"taste_match/models"
)

// 各属性可接受的字段名，按优先级排列。用户画像存 name，餐厅画像存 keyword，其余来自旧文档
var (
	tokenFields     = []string{"name", "keyword", "token", "term"}
	frequencyFields = []string{"frequency", "freq", "count"}
	embeddingFields = []string{"embedding", "vector"}
)

// Canonicalized 可用记录，以及被丢弃记录在输入中的下标
type Canonicalized struct {
	Records []models.KeywordRecord
	Dropped []int
}

// Canonicalize 规整原始关键词文档，不会失败。
// 取不到 token 的记录被丢弃并报告下标，其他缺陷一律退回默认值
func Canonicalize(raw []models.RawKeyword) Canonicalized {
	out := Canonicalized{Records: make([]models.KeywordRecord, 0, len(raw))}
	for i, r := range raw {
		token, ok := extractToken(r)
		if !ok {
			out.Dropped = append(out.Dropped, i)
			continue
		}
		out.Records = append(out.Records, models.KeywordRecord{
			Token:     token,
			Sentiment: extractSentiment(r),
			Frequency: extractFrequency(r),
			Embedding: extractEmbedding(r),
		})
	}
	return out
}

func extractToken(r models.RawKeyword) (string, bool) {
	for _, f := range tokenFields {
		if s, ok := r[f].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// 缺省为 positive，未知标签原样保留（小写）
func extractSentiment(r models.RawKeyword) string {
	s, ok := r["sentiment"].(string)
	if !ok {
		return models.SentimentPositive
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return models.SentimentPositive
	}
	return s
}

func extractFrequency(r models.RawKeyword) int {
	for _, f := range frequencyFields {
		v, present := r[f]
		if !present {
			continue
		}
		n, ok := toInt(v)
		if !ok || n < 1 {
			return 1
		}
		return n
	}
	return 1
}

func extractEmbedding(r models.RawKeyword) []float64 {
	for _, f := range embeddingFields {
		if v, present := r[f]; present && v != nil {
			return toFloats(v)
		}
	}
	return nil
}

func toInt(v any) (int, bool) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		v = s
	}
	f, ok := toFloat(v)
	if !ok || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = x
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toFloats 接受任意数字切片，包括 bson 数组这类驱动自带的切片类型。
// 只要有一个元素不是数字，就返回空向量
func toFloats(v any) []float64 {
	switch vec := v.(type) {
	case []float64:
		return append([]float64(nil), vec...)
	case []float32:
		out := make([]float64, len(vec))
		for i, x := range vec {
			out[i] = float64(x)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]float64, rv.Len())
	for i := range out {
		f, ok := toFloat(rv.Index(i).Interface())
		if !ok {
			return nil
		}
		out[i] = f
	}
	return out
}
