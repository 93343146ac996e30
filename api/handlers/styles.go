package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/LavonTMCQ/autonomous-marketing/api"
)

// =============================================================================
// 🎨 风格库 Handler
// =============================================================================

// StyleLister 风格库查询接口
type StyleLister interface {
	List() []string
}

// StylesHandler 风格库处理器
type StylesHandler struct {
	library StyleLister
	logger  *zap.Logger
}

// NewStylesHandler 创建风格库处理器
func NewStylesHandler(library StyleLister, logger *zap.Logger) *StylesHandler {
	return &StylesHandler{
		library: library,
		logger:  logger,
	}
}

// HandleList 处理风格列表请求
// @Summary 风格列表
// @Description 返回风格库中所有可用的视觉风格名称
// @Tags 风格
// @Produce json
// @Success 200 {object} Response "风格列表"
// @Router /api/v1/styles [get]
func (h *StylesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, api.StylesResponse{Styles: h.library.List()})
}
