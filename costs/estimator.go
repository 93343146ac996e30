package costs

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/LavonTMCQ/autonomous-marketing/types"
)

// Estimate 是一次生成操作的成本估算结果。
// Known 为 false 表示 (backend, model) 不在价目表中，此时成本为 0，
// 估算永远不会让生成失败（仅供参考）。
type Estimate struct {
	Cost      float64 `json:"cost"`
	Breakdown string  `json:"breakdown"`
	Known     bool    `json:"known"`
}

// 价目表条目。文本按每千 token 计价，图像按张计价，视频按秒计价。
type pricing struct {
	perKiloTokens float64
	perImage      float64
	perSecond     float64
}

// 内置价目表，键为 backend/model。
var priceTable = map[string]pricing{
	"openai/gpt-4o":                 {perKiloTokens: 0.0125},
	"openai/gpt-4o-mini":            {perKiloTokens: 0.00075},
	"gemini/gemini-2.5-flash":       {perKiloTokens: 0.0006},
	"gemini/gemini-2.5-pro":         {perKiloTokens: 0.00625},
	"gemini/gemini-2.5-flash-image": {perImage: 0.039},
	"openai/dall-e-3":               {perImage: 0.04},
	"openai/gpt-image-1":            {perImage: 0.042},
	"veo/veo-3.1-generate-preview":  {perSecond: 0.40},
	"veo/veo-3.0-fast-generate-001": {perSecond: 0.15},
	"runway/gen4_turbo":             {perSecond: 0.05},
	"runway/gen3a_turbo":            {perSecond: 0.05},
}

// approximateCompletionTokens 是脚本生成回复的 token 估算值，
// 四段式脚本的实际长度波动不大。
const approximateCompletionTokens = 700

// Estimator 将 (backend, model, 数量) 映射为估算成本的纯函数集合。
type Estimator struct{}

// NewEstimator 创建成本估算器。
func NewEstimator() *Estimator { return &Estimator{} }

func lookup(backend, model string) (pricing, bool) {
	p, ok := priceTable[backend+"/"+model]
	return p, ok
}

// unknown 返回零成本的 "unknown" 估算，绝不失败。
func unknown(backend, model string) Estimate {
	return Estimate{
		Cost:      0,
		Breakdown: fmt.Sprintf("unknown pricing for %s/%s", backend, model),
		Known:     false,
	}
}

// Text 估算一次脚本生成的成本。prompt 的 token 数通过 tiktoken 计算，
// 编码器不可用时退化为按 4 字符/token 近似。
func (e *Estimator) Text(backend, model, prompt string) Estimate {
	p, ok := lookup(backend, model)
	if !ok || p.perKiloTokens == 0 {
		return unknown(backend, model)
	}

	tokens := countTokens(prompt) + approximateCompletionTokens
	cost := float64(tokens) / 1000 * p.perKiloTokens
	return Estimate{
		Cost:      cost,
		Breakdown: fmt.Sprintf("%d tokens × $%.5f/1K (%s/%s)", tokens, p.perKiloTokens, backend, model),
		Known:     true,
	}
}

// Image 估算生成 count 张图像的成本。
func (e *Estimator) Image(backend, model string, count int) Estimate {
	p, ok := lookup(backend, model)
	if !ok || p.perImage == 0 {
		return unknown(backend, model)
	}
	if count <= 0 {
		count = 1
	}
	return Estimate{
		Cost:      float64(count) * p.perImage,
		Breakdown: fmt.Sprintf("%d image(s) × $%.3f (%s/%s)", count, p.perImage, backend, model),
		Known:     true,
	}
}

// Video 估算生成 seconds 秒视频的成本。
func (e *Estimator) Video(backend, model string, seconds float64) Estimate {
	p, ok := lookup(backend, model)
	if !ok || p.perSecond == 0 {
		return unknown(backend, model)
	}
	if seconds <= 0 {
		seconds = 1
	}
	return Estimate{
		Cost:      seconds * p.perSecond,
		Breakdown: fmt.Sprintf("%.1fs × $%.2f/s (%s/%s)", seconds, p.perSecond, backend, model),
		Known:     true,
	}
}

// ForKind 按媒体种类分发估算，quantity 的含义随种类变化：
// 文本为提示词内容，图像为张数，视频为时长（秒）。
func (e *Estimator) ForKind(kind types.MediaKind, backend, model string, prompt string, quantity float64) Estimate {
	switch kind {
	case types.MediaText:
		return e.Text(backend, model, prompt)
	case types.MediaImage:
		return e.Image(backend, model, int(quantity))
	case types.MediaVideo:
		return e.Video(backend, model, quantity)
	}
	return unknown(backend, model)
}

// countTokens 用 cl100k_base 编码计数，初始化失败时按字符近似。
func countTokens(text string) int {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}
