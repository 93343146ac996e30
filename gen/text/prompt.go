package text

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/LavonTMCQ/autonomous-marketing/types"
)

// systemPrompt 约束模型输出严格的四段式 JSON 脚本。
const systemPrompt = `You are a direct-response marketing copywriter.
Write a short video ad script for the given product.
Respond with a single JSON object with exactly these keys:
"hook", "problem", "solution", "cta".
Each value is 1-2 punchy spoken sentences. No markdown, no extra keys.`

// parseScript 从模型回复中提取四段式脚本。
// 回复可能被 markdown 代码栅栏包裹；任一段缺失或为空都视为处理错误，
// 错误文本带有 malformed 标记以便按策略重试。
func parseScript(raw string) (*types.Script, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	// 容忍回复前后多余文本，截取最外层对象
	if start := strings.Index(cleaned, "{"); start > 0 {
		cleaned = cleaned[start:]
	}
	if end := strings.LastIndex(cleaned, "}"); end >= 0 && end < len(cleaned)-1 {
		cleaned = cleaned[:end+1]
	}

	var script types.Script
	if err := json.Unmarshal([]byte(cleaned), &script); err != nil {
		return nil, fmt.Errorf("malformed script output: %w", err)
	}
	if !script.Valid() {
		return nil, fmt.Errorf("malformed script output: missing or empty section")
	}
	return &script, nil
}
