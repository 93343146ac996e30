package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/LavonTMCQ/autonomous-marketing/api"
	"github.com/LavonTMCQ/autonomous-marketing/pipeline"
	"github.com/LavonTMCQ/autonomous-marketing/types"
)

// =============================================================================
// 🎬 流水线操作 Handler
// =============================================================================

// PipelineRunner 流水线编排接口
type PipelineRunner interface {
	GenerateScript(ctx context.Context, projectID string) (*pipeline.Project, error)
	BuildStoryboard(ctx context.Context, projectID string) (*pipeline.Project, error)
	GenerateKeyframe(ctx context.Context, projectID, shotID string) (*pipeline.Project, error)
	GenerateAllKeyframes(ctx context.Context, projectID string) (*pipeline.Project, error)
	GenerateClip(ctx context.Context, projectID, shotID string) (*pipeline.Project, error)
	GenerateAllClips(ctx context.Context, projectID string) (*pipeline.Project, error)
	Rollback(ctx context.Context, projectID, shotID string, kind types.MediaKind, version int) (*pipeline.Project, error)
	Export(ctx context.Context, projectID string) (*pipeline.Project, error)
}

// PipelineHandler 流水线操作处理器
type PipelineHandler struct {
	runner PipelineRunner
	logger *zap.Logger
}

// NewPipelineHandler 创建流水线操作处理器
func NewPipelineHandler(runner PipelineRunner, logger *zap.Logger) *PipelineHandler {
	return &PipelineHandler{
		runner: runner,
		logger: logger,
	}
}

// run 执行一次流水线操作并写入统一响应
func (h *PipelineHandler) run(w http.ResponseWriter, op string, project *pipeline.Project, err error) {
	if err != nil {
		WriteErr(w, err, h.logger)
		return
	}
	h.logger.Info("Pipeline operation finished",
		zap.String("operation", op),
		zap.String("project_id", project.ID),
	)
	WriteSuccess(w, project)
}

// HandleGenerateScript 处理脚本生成请求
// @Summary 生成脚本
// @Description 从产品简介生成四段式营销脚本（hook/problem/solution/cta）
// @Tags 流水线
// @Produce json
// @Param id path string true "项目ID"
// @Success 200 {object} Response "更新后的项目"
// @Failure 404 {object} Response "项目不存在"
// @Router /api/v1/projects/{id}/script [post]
func (h *PipelineHandler) HandleGenerateScript(w http.ResponseWriter, r *http.Request) {
	p, err := h.runner.GenerateScript(r.Context(), r.PathValue("id"))
	h.run(w, "script", p, err)
}

// HandleBuildStoryboard 处理分镜拆解请求
// @Summary 拆解分镜
// @Description 将脚本四段拆解为带时长与提示词的镜头序列
// @Tags 流水线
// @Produce json
// @Param id path string true "项目ID"
// @Success 200 {object} Response "更新后的项目"
// @Failure 409 {object} Response "脚本尚未生成"
// @Router /api/v1/projects/{id}/storyboard [post]
func (h *PipelineHandler) HandleBuildStoryboard(w http.ResponseWriter, r *http.Request) {
	p, err := h.runner.BuildStoryboard(r.Context(), r.PathValue("id"))
	h.run(w, "storyboard", p, err)
}

// HandleGenerateKeyframes 处理整批关键帧生成请求
// @Summary 生成全部关键帧
// @Description 按镜头序号依次生成所有镜头的关键帧
// @Tags 流水线
// @Produce json
// @Param id path string true "项目ID"
// @Success 200 {object} Response "更新后的项目"
// @Router /api/v1/projects/{id}/keyframes [post]
func (h *PipelineHandler) HandleGenerateKeyframes(w http.ResponseWriter, r *http.Request) {
	p, err := h.runner.GenerateAllKeyframes(r.Context(), r.PathValue("id"))
	h.run(w, "keyframes", p, err)
}

// HandleGenerateKeyframe 处理单镜头关键帧生成（或重生成）请求
// @Summary 生成单镜头关键帧
// @Description 为指定镜头生成新版本关键帧，历史版本保留
// @Tags 流水线
// @Produce json
// @Param id path string true "项目ID"
// @Param shotID path string true "镜头ID"
// @Success 200 {object} Response "更新后的项目"
// @Failure 404 {object} Response "镜头不存在"
// @Router /api/v1/projects/{id}/shots/{shotID}/keyframe [post]
func (h *PipelineHandler) HandleGenerateKeyframe(w http.ResponseWriter, r *http.Request) {
	p, err := h.runner.GenerateKeyframe(r.Context(), r.PathValue("id"), r.PathValue("shotID"))
	h.run(w, "keyframe", p, err)
}

// HandleGenerateClips 处理整批片段生成请求
// @Summary 生成全部片段
// @Description 按镜头序号依次生成所有镜头的视频片段，衔接模式决定帧种子
// @Tags 流水线
// @Produce json
// @Param id path string true "项目ID"
// @Success 200 {object} Response "更新后的项目"
// @Router /api/v1/projects/{id}/clips [post]
func (h *PipelineHandler) HandleGenerateClips(w http.ResponseWriter, r *http.Request) {
	p, err := h.runner.GenerateAllClips(r.Context(), r.PathValue("id"))
	h.run(w, "clips", p, err)
}

// HandleGenerateClip 处理单镜头片段生成（或重生成）请求
// @Summary 生成单镜头片段
// @Description 为指定镜头生成新版本片段，要求关键帧已就绪
// @Tags 流水线
// @Produce json
// @Param id path string true "项目ID"
// @Param shotID path string true "镜头ID"
// @Success 200 {object} Response "更新后的项目"
// @Failure 409 {object} Response "关键帧尚未生成"
// @Router /api/v1/projects/{id}/shots/{shotID}/clip [post]
func (h *PipelineHandler) HandleGenerateClip(w http.ResponseWriter, r *http.Request) {
	p, err := h.runner.GenerateClip(r.Context(), r.PathValue("id"), r.PathValue("shotID"))
	h.run(w, "clip", p, err)
}

// HandleRollback 处理镜头资产回滚请求
// @Summary 回滚镜头资产
// @Description 将镜头的关键帧或片段指针移回历史版本，不删除任何版本
// @Tags 流水线
// @Accept json
// @Produce json
// @Param id path string true "项目ID"
// @Param shotID path string true "镜头ID"
// @Param request body api.RollbackRequest true "回滚请求"
// @Success 200 {object} Response "更新后的项目"
// @Failure 404 {object} Response "版本不存在"
// @Router /api/v1/projects/{id}/shots/{shotID}/rollback [post]
func (h *PipelineHandler) HandleRollback(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.RollbackRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	var kind types.MediaKind
	switch req.Kind {
	case "keyframe":
		kind = types.MediaImage
	case "clip":
		kind = types.MediaVideo
	default:
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"kind must be \"keyframe\" or \"clip\"", h.logger)
		return
	}
	if req.Version < 1 {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"version must be >= 1", h.logger)
		return
	}

	p, err := h.runner.Rollback(r.Context(), r.PathValue("id"), r.PathValue("shotID"), kind, req.Version)
	h.run(w, "rollback", p, err)
}

// HandleExport 处理成片导出请求
// @Summary 导出成片
// @Description 按镜头顺序拼接所有就绪片段为单个成片文件
// @Tags 流水线
// @Produce json
// @Param id path string true "项目ID"
// @Success 200 {object} Response "更新后的项目"
// @Failure 409 {object} Response "没有可导出的片段"
// @Router /api/v1/projects/{id}/export [post]
func (h *PipelineHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	p, err := h.runner.Export(r.Context(), r.PathValue("id"))
	h.run(w, "export", p, err)
}
