package models

// RawKeyword 文档库中未规整的关键词记录。
// 用户画像使用 name/sentiment/frequency/embedding，餐厅画像使用 keyword/frequency/embedding。
type RawKeyword map[string]any

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
)

// KeywordRecord 规整后的关键词
type KeywordRecord struct {
	Token     string    `json:"token"`
	Sentiment string    `json:"sentiment"`
	Frequency int       `json:"frequency"`
	Embedding []float64 `json:"embedding,omitempty"`
}

// Sign 情感方向：只有 positive 为 +1，negative 及未知标签一律为 -1
func (k KeywordRecord) Sign() int {
	if k.Sentiment == SentimentPositive {
		return 1
	}
	return -1
}
