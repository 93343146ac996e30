package pipeline

import (
	"time"

	"github.com/LavonTMCQ/autonomous-marketing/continuity"
	"github.com/LavonTMCQ/autonomous-marketing/types"
)

// AssetState 是镜头单类资产的激活指针。Version 从 0 起单调递增，
// 0 表示从未生成过。指针只指向历史中的条目，回滚只移动指针。
type AssetState struct {
	Path      string            `json:"path,omitempty"`
	Version   int               `json:"version"`
	Status    types.AssetStatus `json:"status"`
	LastError string            `json:"last_error,omitempty"`
}

// VersionEntry 是版本历史中的一条不可变快照。历史只追加，从不重排或改写。
type VersionEntry struct {
	Kind      types.MediaKind `json:"kind"`
	Version   int             `json:"version"`
	AssetPath string          `json:"asset_path"`
	Backend   string          `json:"backend"`
	Model     string          `json:"model"`
	Degraded  bool            `json:"degraded,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ContinuityRecord 记录镜头的衔接状态。LastFrame 指向当前激活片段的
// 记录末帧，回滚或重生成后被覆盖更新。
type ContinuityRecord struct {
	Mode       continuity.Mode `json:"mode,omitempty"`
	FirstFrame string          `json:"first_frame,omitempty"`
	EndFrame   string          `json:"end_frame,omitempty"`
	LastFrame  string          `json:"last_frame,omitempty"`
}

// ProviderRecord 记录产出当前激活资产的后端与模型。
type ProviderRecord struct {
	KeyframeBackend string `json:"keyframe_backend,omitempty"`
	KeyframeModel   string `json:"keyframe_model,omitempty"`
	ClipBackend     string `json:"clip_backend,omitempty"`
	ClipModel       string `json:"clip_model,omitempty"`
}

// Shot 是分镜的工作单元，由编排器独占持有和变更。
type Shot struct {
	ID               string           `json:"id"`
	Ordinal          int              `json:"ordinal"`
	Section          string           `json:"section"` // hook, problem, solution, cta
	DurationSec      float64          `json:"duration_sec"`
	KeyframePrompt   string           `json:"keyframe_prompt"`
	KeyframeNegative string           `json:"keyframe_negative,omitempty"`
	VideoPrompt      string           `json:"video_prompt"`
	VideoNegative    string           `json:"video_negative,omitempty"`
	OnScreenText     string           `json:"on_screen_text,omitempty"`
	Keyframe         AssetState       `json:"keyframe"`
	Clip             AssetState       `json:"clip"`
	Continuity       ContinuityRecord `json:"continuity"`
	Provider         ProviderRecord   `json:"provider"`
	History          []VersionEntry   `json:"history,omitempty"`
}

// assetState 返回 kind 对应的激活指针。
func (s *Shot) assetState(kind types.MediaKind) *AssetState {
	if kind == types.MediaVideo {
		return &s.Clip
	}
	return &s.Keyframe
}

// findVersion 在历史中查找 kind 的指定版本。
func (s *Shot) findVersion(kind types.MediaKind, version int) *VersionEntry {
	for i := range s.History {
		e := &s.History[i]
		if e.Kind == kind && e.Version == version {
			return e
		}
	}
	return nil
}

// nextVersion 返回 kind 的下一个版本号：历史中该类资产的最大版本加一。
// 回滚只移动激活指针，指针版本可能落后于历史，版本号永不回收复用。
func (s *Shot) nextVersion(kind types.MediaKind) int {
	next := s.assetState(kind).Version + 1
	for i := range s.History {
		if e := &s.History[i]; e.Kind == kind && e.Version >= next {
			next = e.Version + 1
		}
	}
	return next
}

// recordVersion 分配 kind 的下一个版本号、追加历史条目并移动激活指针。
func (s *Shot) recordVersion(kind types.MediaKind, assetPath, backend, model string, degraded bool) *VersionEntry {
	state := s.assetState(kind)
	entry := VersionEntry{
		Kind:      kind,
		Version:   s.nextVersion(kind),
		AssetPath: assetPath,
		Backend:   backend,
		Model:     model,
		Degraded:  degraded,
		CreatedAt: time.Now(),
	}
	s.History = append(s.History, entry)

	state.Path = assetPath
	state.Version = entry.Version
	state.Status = types.AssetReady
	state.LastError = ""
	return &s.History[len(s.History)-1]
}

// ExportRecord 记录一次成片导出尝试，降级导出同样入史并附带警告。
type ExportRecord struct {
	Path      string    `json:"path"`
	Clips     int       `json:"clips"`
	Degraded  bool      `json:"degraded,omitempty"`
	Warning   string    `json:"warning,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Project 是一个营销视频项目的全部状态，编排器独占变更，每个阶段后落盘。
type Project struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	ProductBrief   string          `json:"product_brief"`
	Style          string          `json:"style,omitempty"`
	AspectRatio    string          `json:"aspect_ratio,omitempty"`
	TotalDuration  float64         `json:"total_duration,omitempty"`
	ContinuityMode continuity.Mode `json:"continuity_mode,omitempty"`
	Script         *types.Script   `json:"script,omitempty"`
	ScriptPath     string          `json:"script_path,omitempty"`
	Shots          []*Shot         `json:"shots,omitempty"`
	Exports        []ExportRecord  `json:"exports,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// findShot 按 ID 查找镜头。
func (p *Project) findShot(shotID string) *Shot {
	for _, s := range p.Shots {
		if s.ID == shotID {
			return s
		}
	}
	return nil
}

// predecessor 返回序号紧邻的前一镜头，首个镜头返回 nil。
func (p *Project) predecessor(shot *Shot) *Shot {
	var prev *Shot
	for _, s := range p.Shots {
		if s.Ordinal < shot.Ordinal && (prev == nil || s.Ordinal > prev.Ordinal) {
			prev = s
		}
	}
	return prev
}
