package styles

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Score 是一张候选参考图的分析结果，由外部媒体分析协作者产出。
type Score struct {
	Brightness float64  // 0..1
	Contrast   float64  // 0..1
	Sharpness  float64  // 0..1
	Palette    []string // 采样主色，十六进制
}

// FrameScorer 是媒体分析协作者的契约：对相同像素输入必须确定性返回。
type FrameScorer interface {
	Score(imagePath string) (Score, error)
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// Library 管理风格包：每个风格是一个候选参考图目录，按分析得分排序后
// 取前几张作为关键帧生成的图像条件。
type Library struct {
	root   string
	scorer FrameScorer
	logger *zap.Logger
}

// NewLibrary 创建风格库。scorer 为 nil 时退化为文件名序。
func NewLibrary(root string, scorer FrameScorer, logger *zap.Logger) *Library {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Library{
		root:   root,
		scorer: scorer,
		logger: logger.With(zap.String("component", "styles")),
	}
}

// List 返回已知的风格名（根目录下的子目录名）。
func (l *Library) List() []string {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// References 返回风格包中排名前 max 的参考图路径。
// 风格不存在、目录为空或评分全部失败时返回空切片，从不报错——
// 参考图缺失只是让生成退化为纯提示词条件。
func (l *Library) References(style string, max int) []string {
	if style == "" || max <= 0 {
		return nil
	}

	dir := filepath.Join(l.root, style)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	type candidate struct {
		path string
		rank float64
	}
	var candidates []candidate
	for _, e := range entries {
		if e.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		path := filepath.Join(dir, e.Name())
		rank := 0.0
		if l.scorer != nil {
			score, err := l.scorer.Score(path)
			if err != nil {
				l.logger.Debug("参考图评分失败，跳过", zap.String("path", path), zap.Error(err))
				continue
			}
			rank = composite(score)
		}
		candidates = append(candidates, candidate{path: path, rank: rank})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].rank != candidates[j].rank {
			return candidates[i].rank > candidates[j].rank
		}
		return candidates[i].path < candidates[j].path
	})

	if len(candidates) > max {
		candidates = candidates[:max]
	}
	paths := make([]string, len(candidates))
	for i, c := range candidates {
		paths[i] = c.path
	}
	return paths
}

// composite 将单图得分折算为排序权重：清晰度最重，对比度次之，
// 亮度以居中为优。
func composite(s Score) float64 {
	balance := 1 - math.Abs(s.Brightness-0.5)*2
	return s.Sharpness*0.5 + s.Contrast*0.3 + balance*0.2
}
