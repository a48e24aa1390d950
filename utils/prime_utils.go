package utils

import (
	"errors"
	"math/big"
	"math/rand/v2"
)

// MinPrimeRounds 素性测试最少轮数，低于该值会被抬高
const MinPrimeRounds = 10

// ErrNoPrime 区间内找不到满足条件的素数
var ErrNoPrime = errors.New("no probable prime in range")

// Int64N 返回 [0,n) 的随机数，签名与 math/rand/v2 的 Int64N 一致
type Int64N func(n int64) int64

// DefaultInt64N 使用 math/rand/v2 的全局源，并发安全
var DefaultInt64N Int64N = rand.Int64N

// IsProbablePrime Miller–Rabin 素性测试，rounds 轮随机底数
func IsProbablePrime(n int64, rounds int) bool {
	if n < 2 {
		return false
	}
	if rounds < MinPrimeRounds {
		rounds = MinPrimeRounds
	}
	return big.NewInt(n).ProbablyPrime(rounds)
}

// RandomPrimeInRange 在 [lo, hi) 内均匀随机地选取一个概率素数。
// 先做拒绝采样，次数用尽后从随机起点顺序扫描，保证在有素数的区间内必然返回。
func RandomPrimeInRange(next Int64N, lo, hi int64, rounds int) (int64, error) {
	return RandomPrimeExcluding(next, lo, hi, rounds, 0)
}

// RandomPrimeExcluding 与 RandomPrimeInRange 相同，但不会返回 exclude
func RandomPrimeExcluding(next Int64N, lo, hi int64, rounds int, exclude int64) (int64, error) {
	if lo < 2 {
		lo = 2
	}
	if hi <= lo {
		return 0, ErrNoPrime
	}
	if next == nil {
		next = DefaultInt64N
	}

	span := hi - lo
	attempts := 4*span + 64
	if attempts > 1<<16 {
		attempts = 1 << 16
	}
	for i := int64(0); i < attempts; i++ {
		c := lo + next(span)
		if c != exclude && IsProbablePrime(c, rounds) {
			return c, nil
		}
	}

	start := next(span)
	for i := int64(0); i < span; i++ {
		c := lo + (start+i)%span
		if c != exclude && IsProbablePrime(c, rounds) {
			return c, nil
		}
	}
	return 0, ErrNoPrime
}
