package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/LavonTMCQ/autonomous-marketing/gen"
	"github.com/LavonTMCQ/autonomous-marketing/types"
)

// Export 将全部镜头的激活片段按序拼接为成片。
// 没有任何可用片段时返回 no clips available 错误且不写任何文件；
// 本机无拼接能力时降级为占位导出并入史，附带警告。
func (o *Orchestrator) Export(ctx context.Context, projectID string) (*Project, error) {
	p, err := o.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var clips []string
	for _, shot := range orderedShots(p) {
		if shot.Clip.Status == types.AssetReady && shot.Clip.Version > 0 && shot.Clip.Path != "" {
			clips = append(clips, shot.Clip.Path)
		}
	}
	if len(clips) == 0 {
		o.metrics.RecordExport("error")
		return nil, types.NewError(types.ErrNoClipsAvailable, "no clips available for export").WithHTTPStatus(409)
	}

	dirs, err := o.storage.EnsureDirectories(p.ID)
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "failed to prepare project directories").WithCause(err)
	}
	out := filepath.Join(dirs.Exports, fmt.Sprintf("export_%d.mp4", time.Now().Unix()))

	record := ExportRecord{Path: out, Clips: len(clips), CreatedAt: time.Now()}
	if o.stitch != nil && o.stitch.Available() {
		if err := o.stitch.Concatenate(ctx, clips, out); err != nil {
			o.metrics.RecordExport("error")
			return nil, types.NewError(types.ErrInternalError, "failed to concatenate clips").WithCause(err)
		}
		o.metrics.RecordExport("success")
	} else {
		// 无拼接能力：以首个片段充当占位导出，尝试仍然入史
		data, readErr := os.ReadFile(clips[0])
		if readErr != nil {
			o.metrics.RecordExport("error")
			return nil, types.NewError(types.ErrResourceMissing, "failed to read clip for placeholder export").WithCause(readErr)
		}
		if writeErr := gen.WriteFileAtomic(out, data); writeErr != nil {
			o.metrics.RecordExport("error")
			return nil, types.NewError(types.ErrInternalError, "failed to write placeholder export").WithCause(writeErr)
		}
		record.Degraded = true
		record.Warning = "ffmpeg unavailable: export contains only the first clip"
		o.metrics.RecordExport("degraded")
		o.logger.Warn("导出降级为占位成片", zap.String("project", p.ID), zap.String("path", out))
	}

	p.Exports = append(p.Exports, record)
	o.logger.Info("导出完成",
		zap.String("project", p.ID),
		zap.Int("clips", len(clips)),
		zap.String("path", out),
		zap.Bool("degraded", record.Degraded),
	)
	return o.storage.Save(ctx, p)
}
