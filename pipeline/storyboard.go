package pipeline

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/LavonTMCQ/autonomous-marketing/types"
)

// MinShotDuration 是单镜头的最短时长（秒）。
const MinShotDuration = 2.0

// sectionNames 是四段脚本的叙事顺序。
var sectionNames = []string{"hook", "problem", "solution", "cta"}

// sectionVisualHints 为每段补充镜头语言提示，与项目风格一起拼入提示词。
var sectionVisualHints = map[string]string{
	"hook":     "dynamic opening shot, instantly eye-catching",
	"problem":  "relatable everyday scene showing the pain point",
	"solution": "hero shot of the product in action",
	"cta":      "clean closing shot with space for overlay text",
}

// BuildStoryboard 将四段脚本确定性拆解为四个镜头，均分总时长
// （每镜头不低于 MinShotDuration），并以段落文案+风格附言播种提示词。
func BuildStoryboard(script *types.Script, totalDuration float64, style string) ([]*Shot, error) {
	if script == nil || !script.Valid() {
		return nil, fmt.Errorf("storyboard requires a complete 4-section script")
	}

	per := totalDuration / float64(len(sectionNames))
	if per < MinShotDuration {
		per = MinShotDuration
	}

	sections := script.Sections()
	shots := make([]*Shot, 0, len(sectionNames))
	for i, name := range sectionNames {
		text := sections[i]
		prompt := text
		if hint := sectionVisualHints[name]; hint != "" {
			prompt = fmt.Sprintf("%s. %s", text, hint)
		}
		if style != "" {
			prompt = fmt.Sprintf("%s. Style: %s", prompt, style)
		}

		shots = append(shots, &Shot{
			ID:               uuid.NewString(),
			Ordinal:          i,
			Section:          name,
			DurationSec:      per,
			KeyframePrompt:   prompt,
			KeyframeNegative: "blurry, low quality, watermark, text artifacts",
			VideoPrompt:      prompt,
			VideoNegative:    "blurry, low quality, watermark, flicker",
			OnScreenText:     text,
			Keyframe:         AssetState{Status: types.AssetPending},
			Clip:             AssetState{Status: types.AssetPending},
		})
	}
	return shots, nil
}
