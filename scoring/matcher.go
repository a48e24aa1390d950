package scoring

import (
	"math"

	"taste_match/models"
)

// 默认打分参数：相似度阈值、偏移底数、embedding 维度（text-embedding-3-small）
const (
	DefaultThreshold = 0.50
	DefaultSkewBase  = 15.0
	DefaultDimension = 1536
)

// Scorer 匹配两份关键词画像并换算成分数
type Scorer struct {
	// 两个关键词配对所需的最低余弦相似度
	Threshold float64
	// log(1+(b-1)f)/log(b) 中的 b，b <= 1 时不做偏移
	SkewBase float64
	// 期望的向量长度，长度不符的记录被忽略。为 0 时只忽略没有向量的记录
	Dimension int
}

// DefaultScorer 使用默认参数的 Scorer
func DefaultScorer() Scorer {
	return Scorer{Threshold: DefaultThreshold, SkewBase: DefaultSkewBase, Dimension: DefaultDimension}
}

// MatchedPair 一对匹配上的关键词。下标指向传入的原始画像（维度过滤之前）
type MatchedPair struct {
	UserIndex   int     `json:"user_index"`
	TargetIndex int     `json:"target_index"`
	UserToken   string  `json:"user_token"`
	TargetToken string  `json:"target_token"`
	Similarity  float64 `json:"similarity"`
	Weight      int     `json:"weight"` // 符号 × 用户词频 × 目标词频
}

// MatchResult 一次打分的全部中间值
type MatchResult struct {
	Pairs        []MatchedPair `json:"pairs"`
	Sum          float64       `json:"sum"`
	UserWeight   int           `json:"user_weight"`
	TargetWeight int           `json:"target_weight"`
	Fraction     float64       `json:"fraction"`
	Score        float64       `json:"score"`
}

// Score 用户画像对目标画像打分，每一项的符号取决于用户关键词的情感
func (s Scorer) Score(user, target []models.KeywordRecord) (float64, error) {
	res, err := s.Evaluate(user, target, false)
	return res.Score, err
}

// ScoreSymmetric 两个用户画像互相打分。双方情感标签相同记正，不同记负
func (s Scorer) ScoreSymmetric(a, b []models.KeywordRecord) (float64, error) {
	res, err := s.Evaluate(a, b, true)
	return res.Score, err
}

type indexed struct {
	idx int
	rec models.KeywordRecord
}

func (s Scorer) usable(records []models.KeywordRecord) []indexed {
	out := make([]indexed, 0, len(records))
	for i, r := range records {
		if len(r.Embedding) == 0 {
			continue
		}
		if s.Dimension > 0 && len(r.Embedding) != s.Dimension {
			continue
		}
		out = append(out, indexed{idx: i, rec: r})
	}
	return out
}

// Evaluate 贪心一对一匹配：每个用户关键词按顺序选取相似度不低于 Threshold、
// 且尚未被占用的最相似目标关键词，相似度相同时取靠前的。目标关键词按 token 占用
func (s Scorer) Evaluate(user, target []models.KeywordRecord, symmetric bool) (MatchResult, error) {
	var res MatchResult

	us := s.usable(user)
	ts := s.usable(target)
	if len(us) == 0 || len(ts) == 0 {
		return res, nil
	}

	used := make(map[string]struct{}, len(ts))
	for _, u := range us {
		best := -1
		bestSim := math.Inf(-1)
		for j, t := range ts {
			if _, taken := used[t.rec.Token]; taken {
				continue
			}
			sim, err := Cosine(u.rec.Embedding, t.rec.Embedding)
			if err != nil {
				return MatchResult{}, err
			}
			if sim >= s.Threshold && sim > bestSim {
				best, bestSim = j, sim
			}
		}
		if best < 0 {
			continue
		}

		t := ts[best]
		used[t.rec.Token] = struct{}{}

		sign := u.rec.Sign()
		if symmetric {
			sign = 1
			if u.rec.Sentiment != t.rec.Sentiment {
				sign = -1
			}
		}
		w := sign * u.rec.Frequency * t.rec.Frequency
		res.Sum += float64(w)
		res.Pairs = append(res.Pairs, MatchedPair{
			UserIndex:   u.idx,
			TargetIndex: t.idx,
			UserToken:   u.rec.Token,
			TargetToken: t.rec.Token,
			Similarity:  bestSim,
			Weight:      w,
		})
	}

	for _, u := range us {
		res.UserWeight += u.rec.Frequency
	}
	for _, t := range ts {
		res.TargetWeight += t.rec.Frequency
	}
	denominator := float64(res.UserWeight+res.TargetWeight) / 2
	if denominator <= 0 {
		return res, nil
	}

	res.Fraction = math.Max(0, res.Sum/denominator)
	res.Score = clampPercent(Skew(res.Fraction, s.SkewBase) * 100)
	return res, nil
}

// Skew 抬高较小的比例：log(1+(b-1)f)/log(b)，0 仍为 0，1 仍为 1
func Skew(fraction, base float64) float64 {
	if base <= 1 {
		return fraction
	}
	return math.Log(1+(base-1)*fraction) / math.Log(base)
}

func clampPercent(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
