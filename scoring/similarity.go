package scoring

import (
	"gonum.org/v1/gonum/floats"
)

// Cosine 返回 a、b 的余弦相似度，范围 [-1,1]。零向量与任何向量的相似度都为 0
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, &ShapeError{Left: len(a), Right: len(b)}
	}
	if len(a) == 0 {
		return 0, nil
	}
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0, nil
	}
	sim := floats.Dot(a, b) / (na * nb)
	switch {
	case sim > 1:
		return 1, nil
	case sim < -1:
		return -1, nil
	}
	return sim, nil
}
