package continuity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/LavonTMCQ/autonomous-marketing/gen"
	"github.com/LavonTMCQ/autonomous-marketing/internal/mediatools"
)

// Mode 是镜头间的连续性模式。
type Mode string

const (
	// ModeIndependent 每个镜头只用自己的关键帧做首帧，互不衔接。
	ModeIndependent Mode = "independent"
	// ModeLastFrame 用前一镜头当前激活版本的末帧做本镜头首帧。
	ModeLastFrame Mode = "last-frame"
	// ModeBridging 以本镜头关键帧做首帧、前序末帧做目标尾帧，让后端在
	// 两个已知锚点间插值。需要视频后端支持双端条件，否则自动降级为
	// ModeLastFrame。
	ModeBridging Mode = "bridging"
)

// ParseMode 校验并归一连续性模式，空串取 ModeLastFrame。
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeLastFrame, nil
	case ModeIndependent, ModeLastFrame, ModeBridging:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown continuity mode %q", s)
	}
}

// Seeds 是为一次视频生成解析出的条件帧。
type Seeds struct {
	FirstFrame string // 首帧条件，空串表示无条件帧
	EndFrame   string // 目标尾帧，仅桥接模式且后端支持时非空
	Mode       Mode   // 实际生效的模式（可能经过降级）
}

// Engine 负责镜头间的帧衔接：解析条件帧、记录激活版本的末帧。
// 末帧记录按镜头覆盖写入，回滚或重生成后再次记录即是幂等更新。
type Engine struct {
	tools     *mediatools.Tools
	framesDir string
	logger    *zap.Logger
}

// NewEngine 创建连续性引擎。framesDir 为末帧落盘目录。
func NewEngine(tools *mediatools.Tools, framesDir string, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		tools:     tools,
		framesDir: framesDir,
		logger:    logger.With(zap.String("component", "continuity")),
	}
}

// ResolveSeeds 为一个镜头解析条件帧。
//   - prevLastFrame 是前一镜头当前激活版本的记录末帧，首个镜头传空串；
//   - keyframe 是本镜头自己的关键帧；
//   - endFrameCapable 指示视频后端是否接受尾帧条件。
//
// 无前序末帧时衔接模式退化为 independent；桥接模式在后端不支持双端
// 条件时降级为 last-frame。
func (e *Engine) ResolveSeeds(mode Mode, prevLastFrame, keyframe string, endFrameCapable bool) Seeds {
	if mode == ModeBridging && !endFrameCapable {
		e.logger.Info("视频后端不支持尾帧条件，桥接模式降级为末帧衔接")
		mode = ModeLastFrame
	}
	if mode != ModeIndependent && prevLastFrame == "" {
		mode = ModeIndependent
	}

	switch mode {
	case ModeLastFrame:
		return Seeds{FirstFrame: prevLastFrame, Mode: ModeLastFrame}
	case ModeBridging:
		return Seeds{FirstFrame: keyframe, EndFrame: prevLastFrame, Mode: ModeBridging}
	default:
		return Seeds{FirstFrame: keyframe, Mode: ModeIndependent}
	}
}

// FramePath 返回镜头末帧的规范落盘路径。
func (e *Engine) FramePath(shotID string) string {
	return filepath.Join(e.framesDir, shotID+"_last.png")
}

// RecordLastFrame 提取 clipPath 的末帧并记录为 shotID 的衔接帧。
// 本机无 ffmpeg 或提取失败时退化为复制关键帧，记录永远成功落盘。
// 同一镜头重复记录是覆盖写入，回滚后重放即可。
func (e *Engine) RecordLastFrame(ctx context.Context, shotID, clipPath, keyframe string) (string, error) {
	framePath := e.FramePath(shotID)
	if err := os.MkdirAll(e.framesDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create frames dir: %w", err)
	}

	if e.tools != nil && e.tools.Available() && clipPath != "" {
		err := e.tools.ExtractFrame(ctx, clipPath, -0.1, framePath)
		if err == nil {
			e.logger.Debug("末帧已记录",
				zap.String("shot", shotID),
				zap.String("frame", framePath),
			)
			return framePath, nil
		}
		if !errors.Is(err, mediatools.ErrUnavailable) {
			e.logger.Warn("末帧提取失败，退化为关键帧",
				zap.String("shot", shotID),
				zap.Error(err),
			)
		}
	}

	if keyframe == "" {
		return "", fmt.Errorf("cannot record last frame for shot %s: no clip frame and no keyframe", shotID)
	}
	data, err := os.ReadFile(keyframe)
	if err != nil {
		return "", fmt.Errorf("failed to read keyframe %s: %w", keyframe, err)
	}
	if err := gen.WriteFileAtomic(framePath, data); err != nil {
		return "", fmt.Errorf("failed to record last frame: %w", err)
	}

	e.logger.Debug("以关键帧充当末帧",
		zap.String("shot", shotID),
		zap.String("frame", framePath),
	)
	return framePath, nil
}
