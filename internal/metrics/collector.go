// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 生成指标
	generationsTotal   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	retryAttempts      *prometheus.CounterVec
	fallbacksTotal     *prometheus.CounterVec
	placeholdersTotal  *prometheus.CounterVec
	generationCost     *prometheus.CounterVec

	// 管线指标
	exportsTotal   *prometheus.CounterVec
	rollbacksTotal *prometheus.CounterVec
	pollAttempts   *prometheus.HistogramVec

	// 缓存指标
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP 指标
	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 生成指标
	c.generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of generation calls",
		},
		[]string{"kind", "backend", "status"},
	)

	c.generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Generation duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"kind", "backend"},
	)

	c.retryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_retry_attempts_total",
			Help:      "Total number of generation retry attempts",
		},
		[]string{"kind", "backend"},
	)

	c.fallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_fallbacks_total",
			Help:      "Total number of fallback backend activations",
		},
		[]string{"kind"},
	)

	c.placeholdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_placeholders_total",
			Help:      "Total number of placeholder degradations",
		},
		[]string{"kind"},
	)

	c.generationCost = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_cost_total",
			Help:      "Total estimated generation cost in USD",
		},
		[]string{"kind", "backend", "model"},
	)

	// 管线指标
	c.exportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Total number of export operations",
		},
		[]string{"status"},
	)

	c.rollbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollbacks_total",
			Help:      "Total number of shot version rollbacks",
		},
		[]string{"kind"},
	)

	c.pollAttempts = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "video_poll_attempts",
			Help:      "Poll attempts per async video operation",
			Buckets:   []float64{1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"backend"},
	)

	// 缓存指标
	c.cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	c.cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// =============================================================================
// 🎬 生成指标记录
// =============================================================================

// RecordGeneration 记录一次生成调用
func (c *Collector) RecordGeneration(kind, backend, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.generationsTotal.WithLabelValues(kind, backend, status).Inc()
	c.generationDuration.WithLabelValues(kind, backend).Observe(duration.Seconds())
}

// RecordRetry 记录一次重试尝试
func (c *Collector) RecordRetry(kind, backend string) {
	if c == nil {
		return
	}
	c.retryAttempts.WithLabelValues(kind, backend).Inc()
}

// RecordFallback 记录后备后端被启用
func (c *Collector) RecordFallback(kind string) {
	if c == nil {
		return
	}
	c.fallbacksTotal.WithLabelValues(kind).Inc()
}

// RecordPlaceholder 记录占位降级
func (c *Collector) RecordPlaceholder(kind string) {
	if c == nil {
		return
	}
	c.placeholdersTotal.WithLabelValues(kind).Inc()
}

// RecordCost 记录估算成本
func (c *Collector) RecordCost(kind, backend, model string, cost float64) {
	if c == nil {
		return
	}
	c.generationCost.WithLabelValues(kind, backend, model).Add(cost)
}

// =============================================================================
// 🎞️ 管线指标记录
// =============================================================================

// RecordExport 记录导出操作
func (c *Collector) RecordExport(status string) {
	if c == nil {
		return
	}
	c.exportsTotal.WithLabelValues(status).Inc()
}

// RecordRollback 记录版本回滚
func (c *Collector) RecordRollback(kind string) {
	if c == nil {
		return
	}
	c.rollbacksTotal.WithLabelValues(kind).Inc()
}

// RecordPollAttempts 记录一次异步视频任务的轮询次数
func (c *Collector) RecordPollAttempts(backend string, attempts int) {
	if c == nil {
		return
	}
	c.pollAttempts.WithLabelValues(backend).Observe(float64(attempts))
}

// =============================================================================
// 💾 缓存指标记录
// =============================================================================

// RecordCacheHit 记录缓存命中
func (c *Collector) RecordCacheHit(cacheType string) {
	if c == nil {
		return
	}
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (c *Collector) RecordCacheMiss(cacheType string) {
	if c == nil {
		return
	}
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
