package api

import (
	"time"

	"github.com/LavonTMCQ/autonomous-marketing/pipeline"
)

// =============================================================================
// 项目类型
// =============================================================================

// CreateProjectRequest 代表创建营销视频项目的请求。
// @Description 项目创建请求结构
type CreateProjectRequest struct {
	// 项目名称
	Name string `json:"name" example:"spring-launch" binding:"required"`
	// 产品简介，脚本生成的输入
	ProductBrief string `json:"product_brief" example:"A smart water bottle that tracks hydration" binding:"required"`
	// 视觉风格名称（可选，留空则使用风格库默认值）
	Style string `json:"style,omitempty" example:"neon-noir"`
	// 输出宽高比（16:9、9:16、1:1）
	AspectRatio string `json:"aspect_ratio,omitempty" example:"16:9"`
	// 成片总时长（秒）
	TotalDuration float64 `json:"total_duration,omitempty" example:"32"`
	// 镜头衔接模式（independent、last-frame、bridging）
	ContinuityMode string `json:"continuity_mode,omitempty" example:"last-frame"`
}

// ProjectSummary 是项目列表中的精简条目。
// @Description 项目摘要结构
type ProjectSummary struct {
	// 项目ID
	ID string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	// 项目名称
	Name string `json:"name" example:"spring-launch"`
	// 视觉风格
	Style string `json:"style,omitempty" example:"neon-noir"`
	// 镜头数量
	Shots int `json:"shots" example:"4"`
	// 导出次数
	Exports int `json:"exports" example:"1"`
	// 创建时间
	CreatedAt time.Time `json:"created_at"`
	// 更新时间
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProjectSummary 从完整项目构建摘要。
func NewProjectSummary(p *pipeline.Project) ProjectSummary {
	return ProjectSummary{
		ID:        p.ID,
		Name:      p.Name,
		Style:     p.Style,
		Shots:     len(p.Shots),
		Exports:   len(p.Exports),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// =============================================================================
// 流水线操作类型
// =============================================================================

// RollbackRequest 代表镜头资产回滚请求。
// @Description 回滚请求结构
type RollbackRequest struct {
	// 资产类型（keyframe 或 clip）
	Kind string `json:"kind" example:"clip" binding:"required"`
	// 目标版本号（从 1 开始）
	Version int `json:"version" example:"2" binding:"required"`
}

// StylesResponse 是风格库列表响应。
// @Description 风格列表结构
type StylesResponse struct {
	// 可用风格名称
	Styles []string `json:"styles"`
}
