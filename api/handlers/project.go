package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LavonTMCQ/autonomous-marketing/api"
	"github.com/LavonTMCQ/autonomous-marketing/config"
	"github.com/LavonTMCQ/autonomous-marketing/continuity"
	"github.com/LavonTMCQ/autonomous-marketing/pipeline"
	"github.com/LavonTMCQ/autonomous-marketing/types"
)

// =============================================================================
// 📁 项目管理 Handler
// =============================================================================

// ProjectStore 项目持久化接口
type ProjectStore interface {
	Load(ctx context.Context, id string) (*pipeline.Project, error)
	Save(ctx context.Context, p *pipeline.Project) (*pipeline.Project, error)
	List(ctx context.Context) ([]*pipeline.Project, error)
	Delete(ctx context.Context, id string) error
}

// ProjectHandler 项目管理处理器
type ProjectHandler struct {
	store    ProjectStore
	defaults config.PipelineConfig
	logger   *zap.Logger
}

// NewProjectHandler 创建项目管理处理器
func NewProjectHandler(store ProjectStore, defaults config.PipelineConfig, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		store:    store,
		defaults: defaults,
		logger:   logger,
	}
}

// HandleCreate 处理项目创建请求
// @Summary 创建项目
// @Description 创建新的营销视频项目，未指定的字段回退到服务端默认值
// @Tags 项目
// @Accept json
// @Produce json
// @Param request body api.CreateProjectRequest true "项目创建请求"
// @Success 200 {object} Response "项目详情"
// @Failure 400 {object} Response "无效请求"
// @Router /api/v1/projects [post]
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.CreateProjectRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	if req.Name == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "name is required", h.logger)
		return
	}
	if req.ProductBrief == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "product_brief is required", h.logger)
		return
	}

	mode, err := continuity.ParseMode(req.ContinuityMode)
	if err != nil {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, err.Error(), h.logger)
		return
	}

	now := time.Now()
	project := &pipeline.Project{
		ID:             uuid.NewString(),
		Name:           req.Name,
		ProductBrief:   req.ProductBrief,
		Style:          req.Style,
		AspectRatio:    req.AspectRatio,
		TotalDuration:  req.TotalDuration,
		ContinuityMode: mode,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if project.AspectRatio == "" {
		project.AspectRatio = h.defaults.AspectRatio
	}
	if project.TotalDuration <= 0 {
		project.TotalDuration = h.defaults.TotalDuration
	}
	if req.ContinuityMode == "" && h.defaults.ContinuityMode != "" {
		if mode, err := continuity.ParseMode(h.defaults.ContinuityMode); err == nil {
			project.ContinuityMode = mode
		}
	}

	saved, err := h.store.Save(r.Context(), project)
	if err != nil {
		WriteErr(w, err, h.logger)
		return
	}

	h.logger.Info("Project created",
		zap.String("project_id", saved.ID),
		zap.String("name", saved.Name),
		zap.String("continuity_mode", string(saved.ContinuityMode)),
	)
	WriteSuccess(w, saved)
}

// HandleList 处理项目列表请求
// @Summary 项目列表
// @Description 返回所有项目的摘要信息
// @Tags 项目
// @Produce json
// @Success 200 {object} Response "项目摘要列表"
// @Router /api/v1/projects [get]
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.List(r.Context())
	if err != nil {
		WriteErr(w, err, h.logger)
		return
	}

	summaries := make([]api.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		summaries = append(summaries, api.NewProjectSummary(p))
	}
	WriteSuccess(w, summaries)
}

// HandleGet 处理单个项目查询请求
// @Summary 查询项目
// @Description 按 ID 返回完整项目，包括脚本、镜头与版本历史
// @Tags 项目
// @Produce json
// @Param id path string true "项目ID"
// @Success 200 {object} Response "项目详情"
// @Failure 404 {object} Response "项目不存在"
// @Router /api/v1/projects/{id} [get]
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	project, err := h.store.Load(r.Context(), id)
	if err != nil {
		WriteErr(w, err, h.logger)
		return
	}
	if project == nil {
		WriteErrorMessage(w, http.StatusNotFound, types.ErrProjectNotFound, "project not found: "+id, h.logger)
		return
	}
	WriteSuccess(w, project)
}

// HandleDelete 处理项目删除请求
// @Summary 删除项目
// @Description 按 ID 删除项目记录
// @Tags 项目
// @Produce json
// @Param id path string true "项目ID"
// @Success 200 {object} Response "删除结果"
// @Failure 404 {object} Response "项目不存在"
// @Router /api/v1/projects/{id} [delete]
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		WriteErr(w, err, h.logger)
		return
	}

	h.logger.Info("Project deleted", zap.String("project_id", id))
	WriteSuccess(w, map[string]string{"id": id, "status": "deleted"})
}
