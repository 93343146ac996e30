package costs

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LavonTMCQ/autonomous-marketing/types"
)

// Entry 是一条只追加的成本台账记录。
type Entry struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Kind      types.MediaKind   `json:"kind"`
	Backend   string            `json:"backend"`
	Model     string            `json:"model"`
	Cost      float64           `json:"cost"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Summary 是台账的会话级汇总。
type Summary struct {
	Total   float64                     `json:"total"`
	Count   int                         `json:"count"`
	ByKind  map[types.MediaKind]float64 `json:"by_kind"`
	Entries []Entry                     `json:"entries"`
}

// Ledger 累计会话内每次生成操作的估算成本。
// 显式创建并注入（而非环境全局量），测试可按次注入全新实例；
// 追加受互斥锁保护，可安全并发调用。
type Ledger struct {
	mu      sync.Mutex
	entries []Entry
	logger  *zap.Logger
}

// NewLedger 创建空台账。
func NewLedger(logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		logger: logger.With(zap.String("component", "cost_ledger")),
	}
}

// Record 追加一条记录并返回它。占位降级的操作同样入账（成本为 0）。
func (l *Ledger) Record(kind types.MediaKind, backend, model string, cost float64, metadata map[string]string) Entry {
	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Kind:      kind,
		Backend:   backend,
		Model:     model,
		Cost:      cost,
		Metadata:  metadata,
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	l.logger.Debug("cost recorded",
		zap.String("kind", string(kind)),
		zap.String("backend", backend),
		zap.String("model", model),
		zap.Float64("cost", cost),
	)

	return entry
}

// Summary 返回当前汇总，内含记录的副本。
func (l *Ledger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Summary{
		ByKind:  make(map[types.MediaKind]float64),
		Entries: make([]Entry, len(l.entries)),
	}
	copy(s.Entries, l.entries)
	for _, e := range l.entries {
		s.Total += e.Cost
		s.ByKind[e.Kind] += e.Cost
	}
	s.Count = len(l.entries)
	return s
}

// Total 返回累计成本。
func (l *Ledger) Total() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total float64
	for _, e := range l.entries {
		total += e.Cost
	}
	return total
}

// Reset 仅在显式请求时清空台账。
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()

	l.logger.Info("cost ledger reset")
}
