// Package metrics 打分服务的 Prometheus 指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultHit  = "hit"
	ResultMiss = "miss"

	ReasonAssigned = "assigned"
	ReasonBumped   = "bumped"
)

var (
	// cacheLookups 缓存探测次数，按 pairing 和命中结果区分
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taste_match_cache_lookups_total",
		Help: "Score cache lookups by pairing and result",
	}, []string{"pairing", "result"})

	// computeDuration 缓存未命中时完整计算一次分数的耗时
	computeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taste_match_compute_duration_seconds",
		Help:    "Time spent computing a score on cache miss",
		Buckets: prometheus.DefBuckets,
	}, []string{"pairing"})

	batchPartnerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taste_match_batch_partner_failures_total",
		Help: "Partners that scored 0 in a batch because of an error",
	}, []string{"pairing"})

	versionsAssigned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taste_match_versions_assigned_total",
		Help: "State versions written to the entity store",
	}, []string{"kind", "reason"})

	keywordsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taste_match_keywords_dropped_total",
		Help: "Raw keyword records dropped during canonicalization",
	}, []string{"kind"})
)

func RecordCacheLookup(pairing string, hit bool) {
	result := ResultMiss
	if hit {
		result = ResultHit
	}
	cacheLookups.WithLabelValues(pairing, result).Inc()
}

func ObserveCompute(pairing string, d time.Duration) {
	computeDuration.WithLabelValues(pairing).Observe(d.Seconds())
}

func RecordBatchFailure(pairing string) {
	batchPartnerFailures.WithLabelValues(pairing).Inc()
}

func RecordVersionAssigned(kind, reason string) {
	versionsAssigned.WithLabelValues(kind, reason).Inc()
}

// RecordKeywordsDropped n <= 0 时不记录
func RecordKeywordsDropped(kind string, n int) {
	if n <= 0 {
		return
	}
	keywordsDropped.WithLabelValues(kind).Add(float64(n))
}
