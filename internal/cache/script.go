package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/LavonTMCQ/autonomous-marketing/internal/metrics"
	"github.com/LavonTMCQ/autonomous-marketing/types"
)

// ScriptCache 是脚本结果的旁路缓存：同一产品简介的重复生成直接命中，
// 不再走脚本后端。只做加速，任何缓存故障都静默放行到后端。
type ScriptCache struct {
	manager *Manager
	ttl     time.Duration
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewScriptCache 创建脚本缓存。manager 为 nil 时所有操作都是空操作。
func NewScriptCache(manager *Manager, ttl time.Duration, collector *metrics.Collector, logger *zap.Logger) *ScriptCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScriptCache{
		manager: manager,
		ttl:     ttl,
		metrics: collector,
		logger:  logger.With(zap.String("component", "script_cache")),
	}
}

// Get 查询缓存的脚本。未命中、缓存禁用或读取出错都返回 false。
func (c *ScriptCache) Get(ctx context.Context, key string) (*types.Script, bool) {
	if c == nil || c.manager == nil {
		return nil, false
	}

	var script types.Script
	if err := c.manager.GetJSON(ctx, key, &script); err != nil {
		if !IsCacheMiss(err) {
			c.logger.Warn("脚本缓存读取失败", zap.Error(err))
		}
		c.metrics.RecordCacheMiss("script")
		return nil, false
	}
	if !script.Valid() {
		return nil, false
	}

	c.metrics.RecordCacheHit("script")
	return &script, true
}

// Set 写入脚本，尽力而为，失败只记日志。
func (c *ScriptCache) Set(ctx context.Context, key string, script *types.Script) {
	if c == nil || c.manager == nil || script == nil {
		return
	}
	if err := c.manager.SetJSON(ctx, key, script, c.ttl); err != nil {
		c.logger.Warn("脚本缓存写入失败", zap.Error(err))
	}
}
