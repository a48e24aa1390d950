package scoring

import (
	"errors"
	"fmt"
)

// ErrShape 所有 *ShapeError 都能用 errors.Is 匹配到它
var ErrShape = errors.New("scoring: embedding dimension mismatch")

// ShapeError 两个向量长度不一致，说明上游画像数据已损坏，直接返回错误而不是记 0 分
type ShapeError struct {
	Left  int
	Right int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("scoring: embedding dimension mismatch: %d vs %d", e.Left, e.Right)
}

func (e *ShapeError) Is(target error) bool {
	return target == ErrShape
}
