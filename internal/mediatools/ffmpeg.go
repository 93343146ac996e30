// Package mediatools wraps the optional local ffmpeg installation.
// This package is internal and should not be imported by external projects.
package mediatools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrUnavailable 表示本机未检测到 ffmpeg。
// 调用方必须容忍该错误并降级到占位资产，绝不作为启动致命错误。
var ErrUnavailable = errors.New("ffmpeg not available")

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures combined stderr for diagnostics.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stderr.String(), fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stderr.String(), nil
}

// Tools 是对本机 ffmpeg 的运行时探测封装。
type Tools struct {
	path   string
	runner commandRunner
	logger *zap.Logger
}

// Detect 在 PATH 中查找 ffmpeg。找不到时仍返回可用的 Tools 实例，
// 其所有操作返回 ErrUnavailable。
func Detect(logger *zap.Logger) *Tools {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "mediatools"))

	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		logger.Warn("ffmpeg 未检测到，媒体处理将降级为占位输出")
		path = ""
	} else {
		logger.Info("ffmpeg detected", zap.String("path", path))
	}

	return &Tools{path: path, runner: &execRunner{}, logger: logger}
}

// Available 报告 ffmpeg 是否可用。
func (t *Tools) Available() bool { return t.path != "" }

// ExtractFrame 从视频中抽取 offsetSeconds 处的一帧写入 imagePath。
// offsetSeconds 为负时取片尾前该秒数的位置（-1 即最后一秒）。
func (t *Tools) ExtractFrame(ctx context.Context, videoPath string, offsetSeconds float64, imagePath string) error {
	if !t.Available() {
		return ErrUnavailable
	}
	if err := os.MkdirAll(filepath.Dir(imagePath), 0o755); err != nil {
		return fmt.Errorf("failed to create frame dir: %w", err)
	}

	args := []string{"-y"}
	if offsetSeconds < 0 {
		args = append(args, "-sseof", fmt.Sprintf("%.2f", offsetSeconds))
	} else {
		args = append(args, "-ss", fmt.Sprintf("%.2f", offsetSeconds))
	}
	args = append(args, "-i", videoPath, "-frames:v", "1", "-q:v", "2", imagePath)

	if _, err := t.runner.Run(ctx, t.path, args...); err != nil {
		return err
	}

	t.logger.Debug("frame extracted",
		zap.String("video", videoPath),
		zap.Float64("offset", offsetSeconds),
		zap.String("image", imagePath),
	)
	return nil
}

// Concatenate 将有序的视频分片拼接为一个输出文件（concat demuxer）。
func (t *Tools) Concatenate(ctx context.Context, clipPaths []string, outputPath string) error {
	if !t.Available() {
		return ErrUnavailable
	}
	if len(clipPaths) == 0 {
		return fmt.Errorf("no clips to concatenate")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	listFile, err := os.CreateTemp("", "concat-*.txt")
	if err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}
	defer os.Remove(listFile.Name())

	for _, p := range clipPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		fmt.Fprintf(listFile, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	if err := listFile.Close(); err != nil {
		return fmt.Errorf("failed to close concat list: %w", err)
	}

	_, err = t.runner.Run(ctx, t.path,
		"-y", "-f", "concat", "-safe", "0",
		"-i", listFile.Name(),
		"-c", "copy",
		outputPath,
	)
	if err != nil {
		return err
	}

	t.logger.Info("clips concatenated",
		zap.Int("clips", len(clipPaths)),
		zap.String("output", outputPath),
	)
	return nil
}

// LoopImage 将单张图像循环为 seconds 秒的静帧视频，用于占位片段。
func (t *Tools) LoopImage(ctx context.Context, imagePath string, seconds float64, outputPath string) error {
	if !t.Available() {
		return ErrUnavailable
	}
	if seconds <= 0 {
		seconds = 1
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	_, err := t.runner.Run(ctx, t.path,
		"-y", "-loop", "1",
		"-i", imagePath,
		"-t", fmt.Sprintf("%.2f", seconds),
		"-pix_fmt", "yuv420p",
		"-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2",
		outputPath,
	)
	return err
}
