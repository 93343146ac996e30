package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.httpRequestsTotal)
	assert.NotNil(t, collector.generationsTotal)
	assert.NotNil(t, collector.fallbacksTotal)
	assert.NotNil(t, collector.placeholdersTotal)
	assert.NotNil(t, collector.pollAttempts)
}

func TestCollector_RecordGeneration(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordGeneration("video", "veo", "success", 12*time.Second)
	collector.RecordGeneration("video", "runway", "error", time.Second)
	collector.RecordFallback("video")
	collector.RecordPlaceholder("video")
	collector.RecordCost("video", "veo", "veo-3.1-generate-preview", 3.2)
	collector.RecordPollAttempts("veo", 7)

	assert.Equal(t, 2, testutil.CollectAndCount(collector.generationsTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(collector.fallbacksTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(collector.placeholdersTotal))
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordHTTPRequest("POST", "/api/v1/projects", 200, 100*time.Millisecond)
	collector.RecordHTTPRequest("GET", "/healthz", 500, time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(collector.httpRequestsTotal))
}

func TestCollector_NilReceiverIsSafe(t *testing.T) {
	var collector *Collector

	// 未接线指标时所有记录方法都应为空操作
	collector.RecordGeneration("image", "gemini", "success", time.Second)
	collector.RecordRetry("image", "gemini")
	collector.RecordFallback("image")
	collector.RecordPlaceholder("image")
	collector.RecordCost("image", "gemini", "m", 0.1)
	collector.RecordExport("success")
	collector.RecordRollback("clip")
	collector.RecordPollAttempts("veo", 1)
	collector.RecordCacheHit("script")
	collector.RecordCacheMiss("script")
	collector.RecordHTTPRequest("GET", "/", 200, time.Millisecond)
}
