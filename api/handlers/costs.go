package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/LavonTMCQ/autonomous-marketing/costs"
)

// =============================================================================
// 💰 成本台账 Handler
// =============================================================================

// CostsHandler 成本台账处理器
type CostsHandler struct {
	ledger *costs.Ledger
	logger *zap.Logger
}

// NewCostsHandler 创建成本台账处理器
func NewCostsHandler(ledger *costs.Ledger, logger *zap.Logger) *CostsHandler {
	return &CostsHandler{
		ledger: ledger,
		logger: logger,
	}
}

// HandleSummary 处理成本汇总查询请求
// @Summary 成本汇总
// @Description 返回自启动（或上次重置）以来的估算花费，按媒体类型与后端分组
// @Tags 成本
// @Produce json
// @Success 200 {object} Response "成本汇总"
// @Router /api/v1/costs [get]
func (h *CostsHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, h.ledger.Summary())
}

// HandleReset 处理台账重置请求
// @Summary 重置台账
// @Description 清空所有成本条目，通常在新一轮活动预算开始时调用
// @Tags 成本
// @Produce json
// @Success 200 {object} Response "重置结果"
// @Router /api/v1/costs/reset [post]
func (h *CostsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.ledger.Reset()
	h.logger.Info("Cost ledger reset")
	WriteSuccess(w, map[string]string{"status": "reset"})
}
