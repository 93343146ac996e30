package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/LavonTMCQ/autonomous-marketing/continuity"
	"github.com/LavonTMCQ/autonomous-marketing/gen"
	"github.com/LavonTMCQ/autonomous-marketing/internal/metrics"
	"github.com/LavonTMCQ/autonomous-marketing/types"
)

// ScriptGenerator 是脚本生成服务的契约。
type ScriptGenerator interface {
	Generate(ctx context.Context, req *gen.Request) (*gen.Result, *types.Script, error)
}

// ImageGenerator 是关键帧生成服务的契约。
type ImageGenerator interface {
	Generate(ctx context.Context, req *gen.Request) (*gen.Result, error)
}

// VideoGenerator 是视频片段生成服务的契约。
type VideoGenerator interface {
	Generate(ctx context.Context, req *gen.Request) (*gen.Result, error)
	SupportsEndFrame() bool
}

// ScriptCache 是脚本结果的旁路缓存，同一产品简介命中即跳过后端调用。
type ScriptCache interface {
	Get(ctx context.Context, key string) (*types.Script, bool)
	Set(ctx context.Context, key string, script *types.Script)
}

// StyleSelector 按风格名挑选参考图，供关键帧生成做图像条件。
type StyleSelector interface {
	References(style string, max int) []string
}

// Stitcher 是片段拼接能力的契约，本机无 ffmpeg 时导出降级。
type Stitcher interface {
	Available() bool
	Concatenate(ctx context.Context, clipPaths []string, outputPath string) error
}

// Orchestrator 驱动 脚本 → 分镜 → 关键帧 → 片段 → 导出 的阶段流水，
// 独占持有项目状态，每个阶段完成后落盘。批量操作内镜头严格按序处理：
// 镜头 i 的衔接依赖镜头 i-1 的成片，这是正确性约束而非性能取舍。
type Orchestrator struct {
	storage Storage
	text    ScriptGenerator
	image   ImageGenerator
	video   VideoGenerator
	engine  *continuity.Engine
	stitch  Stitcher
	cache   ScriptCache
	styles  StyleSelector
	metrics *metrics.Collector
	logger  *zap.Logger
}

// Options 汇集编排器的可选协作者，任一字段可为 nil。
type Options struct {
	Stitcher Stitcher
	Cache    ScriptCache
	Styles   StyleSelector
	Metrics  *metrics.Collector
}

// NewOrchestrator 创建阶段编排器。
func NewOrchestrator(storage Storage, text ScriptGenerator, image ImageGenerator, video VideoGenerator, engine *continuity.Engine, opts Options, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		storage: storage,
		text:    text,
		image:   image,
		video:   video,
		engine:  engine,
		stitch:  opts.Stitcher,
		cache:   opts.Cache,
		styles:  opts.Styles,
		metrics: opts.Metrics,
		logger:  logger.With(zap.String("component", "orchestrator")),
	}
}

func (o *Orchestrator) load(ctx context.Context, projectID string) (*Project, error) {
	p, err := o.storage.Load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, types.NewError(types.ErrProjectNotFound,
			fmt.Sprintf("project %s not found", projectID)).WithHTTPStatus(404)
	}
	return p, nil
}

func scriptCacheKey(p *Project) string {
	sum := sha256.Sum256([]byte(p.ProductBrief + "\x00" + p.Style))
	return "script:" + hex.EncodeToString(sum[:])
}

// writeScriptFile 将脚本序列化落盘，与脚本服务的落盘格式一致。
func writeScriptFile(path string, script *types.Script) error {
	data, err := json.MarshalIndent(script, "", "  ")
	if err != nil {
		return err
	}
	return gen.WriteFileAtomic(path, data)
}

// GenerateScript 为项目生成四段式脚本并落盘。
// 同一产品简介的重复请求命中缓存时不再调用后端。
func (o *Orchestrator) GenerateScript(ctx context.Context, projectID string) (*Project, error) {
	p, err := o.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.ProductBrief == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "project has no product brief").WithHTTPStatus(400)
	}

	dirs, err := o.storage.EnsureDirectories(p.ID)
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "failed to prepare project directories").WithCause(err)
	}
	scriptPath := filepath.Join(dirs.Scripts, "script.json")

	key := scriptCacheKey(p)
	if o.cache != nil {
		if cached, ok := o.cache.Get(ctx, key); ok {
			// 缓存跨项目共享，命中的脚本必须落到本项目目录，
			// ScriptPath 不能指向一个从未写出的文件
			if err := writeScriptFile(scriptPath, cached); err != nil {
				o.logger.Warn("缓存脚本落盘失败，改走后端生成", zap.Error(err))
			} else {
				p.Script = cached
				p.ScriptPath = scriptPath
				return o.storage.Save(ctx, p)
			}
		}
	}

	prompt := p.ProductBrief
	if p.Style != "" {
		prompt = fmt.Sprintf("%s\nTone and style: %s", prompt, p.Style)
	}
	_, script, err := o.text.Generate(ctx, &gen.Request{Prompt: prompt, OutputPath: scriptPath})
	if err != nil {
		return nil, err
	}

	if o.cache != nil {
		o.cache.Set(ctx, key, script)
	}
	p.Script = script
	p.ScriptPath = scriptPath
	return o.storage.Save(ctx, p)
}

// BuildStoryboard 将项目脚本拆解为分镜。已有分镜会被整体替换。
func (o *Orchestrator) BuildStoryboard(ctx context.Context, projectID string) (*Project, error) {
	p, err := o.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.Script == nil {
		return nil, types.NewError(types.ErrResourceMissing, "project has no script yet").WithHTTPStatus(409)
	}

	shots, err := BuildStoryboard(p.Script, p.TotalDuration, p.Style)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, err.Error()).WithHTTPStatus(400)
	}
	p.Shots = shots
	return o.storage.Save(ctx, p)
}

// GenerateKeyframe 为单个镜头生成关键帧：版本递增、历史追加、指针前移。
// 重生成即再次调用本方法。
func (o *Orchestrator) GenerateKeyframe(ctx context.Context, projectID, shotID string) (*Project, error) {
	p, err := o.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	shot := p.findShot(shotID)
	if shot == nil {
		return nil, types.NewError(types.ErrShotNotFound,
			fmt.Sprintf("shot %s not found", shotID)).WithHTTPStatus(404)
	}
	dirs, err := o.storage.EnsureDirectories(p.ID)
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "failed to prepare project directories").WithCause(err)
	}

	var refs []string
	if o.styles != nil && p.Style != "" {
		refs = o.styles.References(p.Style, gen.MaxReferenceImages)
	}

	out := filepath.Join(dirs.Keyframes, fmt.Sprintf("%s_v%d.png", shot.ID, shot.nextVersion(types.MediaImage)))
	res, err := o.image.Generate(ctx, &gen.Request{
		Prompt:          shot.KeyframePrompt,
		NegativePrompt:  shot.KeyframeNegative,
		OutputPath:      out,
		ReferenceImages: refs,
		AspectRatio:     p.AspectRatio,
	})
	if err != nil {
		shot.Keyframe.Status = types.AssetFailed
		shot.Keyframe.LastError = err.Error()
		if _, saveErr := o.storage.Save(ctx, p); saveErr != nil {
			o.logger.Error("保存失败状态出错", zap.Error(saveErr))
		}
		return nil, err
	}

	entry := shot.recordVersion(types.MediaImage, res.AssetPath, res.Backend, res.Model, res.Degraded)
	shot.Provider.KeyframeBackend = res.Backend
	shot.Provider.KeyframeModel = res.Model
	if res.Degraded && res.DegradedCause != nil {
		shot.Keyframe.LastError = res.DegradedCause.Error()
	}

	o.logger.Info("关键帧已生成",
		zap.String("project", p.ID),
		zap.String("shot", shot.ID),
		zap.Int("version", entry.Version),
		zap.String("backend", res.Backend),
		zap.Bool("degraded", res.Degraded),
	)
	return o.storage.Save(ctx, p)
}

// GenerateAllKeyframes 按镜头序号依次生成全部关键帧。
func (o *Orchestrator) GenerateAllKeyframes(ctx context.Context, projectID string) (*Project, error) {
	p, err := o.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, shot := range orderedShots(p) {
		if p, err = o.GenerateKeyframe(ctx, projectID, shot.ID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// GenerateClip 为单个镜头生成视频片段。衔接帧从前序镜头的
// 当前激活末帧实时解析，上游回滚因此自然向下游传播。
func (o *Orchestrator) GenerateClip(ctx context.Context, projectID, shotID string) (*Project, error) {
	p, err := o.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	shot := p.findShot(shotID)
	if shot == nil {
		return nil, types.NewError(types.ErrShotNotFound,
			fmt.Sprintf("shot %s not found", shotID)).WithHTTPStatus(404)
	}
	if shot.Keyframe.Version == 0 || shot.Keyframe.Path == "" {
		return nil, types.NewError(types.ErrResourceMissing,
			"shot has no keyframe to seed clip generation").WithHTTPStatus(409)
	}
	dirs, err := o.storage.EnsureDirectories(p.ID)
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "failed to prepare project directories").WithCause(err)
	}

	// 独立模式根本不看前序镜头的衔接记录
	var prevLast string
	if p.ContinuityMode != continuity.ModeIndependent {
		if prev := p.predecessor(shot); prev != nil {
			prevLast = prev.Continuity.LastFrame
		}
	}
	seeds := o.engine.ResolveSeeds(p.ContinuityMode, prevLast, shot.Keyframe.Path, o.video.SupportsEndFrame())
	shot.Continuity.Mode = seeds.Mode
	shot.Continuity.FirstFrame = seeds.FirstFrame
	shot.Continuity.EndFrame = seeds.EndFrame

	var refs []string
	if seeds.FirstFrame != "" {
		refs = []string{seeds.FirstFrame}
	}
	out := filepath.Join(dirs.Clips, fmt.Sprintf("%s_v%d.mp4", shot.ID, shot.nextVersion(types.MediaVideo)))
	res, err := o.video.Generate(ctx, &gen.Request{
		Prompt:          shot.VideoPrompt,
		NegativePrompt:  shot.VideoNegative,
		OutputPath:      out,
		ReferenceImages: refs,
		EndFrame:        seeds.EndFrame,
		AspectRatio:     p.AspectRatio,
		Duration:        shot.DurationSec,
	})
	if err != nil {
		shot.Clip.Status = types.AssetFailed
		shot.Clip.LastError = err.Error()
		if _, saveErr := o.storage.Save(ctx, p); saveErr != nil {
			o.logger.Error("保存失败状态出错", zap.Error(saveErr))
		}
		return nil, err
	}

	entry := shot.recordVersion(types.MediaVideo, res.AssetPath, res.Backend, res.Model, res.Degraded)
	shot.Provider.ClipBackend = res.Backend
	shot.Provider.ClipModel = res.Model
	if res.Degraded && res.DegradedCause != nil {
		shot.Clip.LastError = res.DegradedCause.Error()
	}

	lastFrame, lfErr := o.engine.RecordLastFrame(ctx, shot.ID, res.AssetPath, shot.Keyframe.Path)
	if lfErr != nil {
		o.logger.Warn("末帧记录失败，下游镜头将退化为独立模式", zap.Error(lfErr))
	} else {
		shot.Continuity.LastFrame = lastFrame
	}

	o.logger.Info("片段已生成",
		zap.String("project", p.ID),
		zap.String("shot", shot.ID),
		zap.Int("version", entry.Version),
		zap.String("backend", res.Backend),
		zap.String("mode", string(seeds.Mode)),
		zap.Bool("degraded", res.Degraded),
	)
	return o.storage.Save(ctx, p)
}

// GenerateAllClips 按镜头序号依次生成全部片段。严禁并行：镜头 i 的
// 首帧来自镜头 i-1 的成片末帧。
func (o *Orchestrator) GenerateAllClips(ctx context.Context, projectID string) (*Project, error) {
	p, err := o.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, shot := range orderedShots(p) {
		if p, err = o.GenerateClip(ctx, projectID, shot.ID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Rollback 将镜头某类资产的激活指针移回历史版本。纯元数据操作：
// 历史不删改，目标版本不存在按致命错误处理，不做任何部分变更。
// 回滚到当前激活版本是显式无操作。
func (o *Orchestrator) Rollback(ctx context.Context, projectID, shotID string, kind types.MediaKind, version int) (*Project, error) {
	if kind != types.MediaImage && kind != types.MediaVideo {
		return nil, types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("cannot rollback asset kind %q", kind)).WithHTTPStatus(400)
	}

	p, err := o.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	shot := p.findShot(shotID)
	if shot == nil {
		return nil, types.NewError(types.ErrShotNotFound,
			fmt.Sprintf("shot %s not found", shotID)).WithHTTPStatus(404)
	}

	state := shot.assetState(kind)
	if version == state.Version {
		return p, nil // 已是激活版本
	}

	entry := shot.findVersion(kind, version)
	if entry == nil {
		return nil, types.NewError(types.ErrVersionNotFound,
			fmt.Sprintf("version %d of %s asset not found for shot %s", version, kind, shotID)).WithHTTPStatus(404)
	}

	state.Path = entry.AssetPath
	state.Version = entry.Version
	state.Status = types.AssetReady
	state.LastError = ""

	switch kind {
	case types.MediaImage:
		shot.Provider.KeyframeBackend = entry.Backend
		shot.Provider.KeyframeModel = entry.Model
	case types.MediaVideo:
		shot.Provider.ClipBackend = entry.Backend
		shot.Provider.ClipModel = entry.Model
		// 回滚片段后立即重提末帧，覆盖写入，下游镜头重生成时即读到回滚后的帧
		if lastFrame, lfErr := o.engine.RecordLastFrame(ctx, shot.ID, entry.AssetPath, shot.Keyframe.Path); lfErr != nil {
			o.logger.Warn("回滚后末帧重提失败", zap.Error(lfErr))
		} else {
			shot.Continuity.LastFrame = lastFrame
		}
	}

	o.metrics.RecordRollback(string(kind))
	o.logger.Info("已回滚",
		zap.String("project", p.ID),
		zap.String("shot", shot.ID),
		zap.String("kind", string(kind)),
		zap.Int("version", version),
	)
	return o.storage.Save(ctx, p)
}

// orderedShots 返回按序号升序的镜头切片。
func orderedShots(p *Project) []*Shot {
	shots := make([]*Shot, len(p.Shots))
	copy(shots, p.Shots)
	sort.Slice(shots, func(i, j int) bool { return shots[i].Ordinal < shots[j].Ordinal })
	return shots
}
