package text

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LavonTMCQ/autonomous-marketing/types"
)

// geminiBackend 通过 generateContent 接口生成脚本，作为文本生成的后备后端。
type geminiBackend struct {
	cfg    GeminiConfig
	client *http.Client
}

func newGeminiBackend(cfg GeminiConfig) *geminiBackend {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &geminiBackend{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (b *geminiBackend) Name() string  { return "gemini" }
func (b *geminiBackend) Model() string { return b.cfg.Model }

type geminiTextPart struct {
	Text string `json:"text"`
}

type geminiTextContent struct {
	Role  string           `json:"role,omitempty"`
	Parts []geminiTextPart `json:"parts"`
}

type geminiTextRequest struct {
	SystemInstruction *geminiTextContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiTextContent `json:"contents"`
	GenerationConfig  struct {
		ResponseMIMEType string `json:"responseMimeType,omitempty"`
	} `json:"generationConfig"`
}

type geminiTextResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiTextPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (b *geminiBackend) GenerateScript(ctx context.Context, prompt string) (*types.Script, error) {
	reqBody := geminiTextRequest{
		SystemInstruction: &geminiTextContent{
			Parts: []geminiTextPart{{Text: systemPrompt}},
		},
		Contents: []geminiTextContent{
			{Role: "user", Parts: []geminiTextPart{{Text: prompt}}},
		},
	}
	reqBody.GenerationConfig.ResponseMIMEType = "application/json"

	payload, _ := json.Marshal(reqBody)
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(b.cfg.BaseURL, "/"), b.cfg.Model)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", b.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gemini error: status=%d body=%s", resp.StatusCode, string(errBody))
	}

	var gResp geminiTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&gResp); err != nil {
		return nil, fmt.Errorf("failed to decode gemini response: %w", err)
	}
	if len(gResp.Candidates) == 0 || len(gResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("malformed script output: empty candidates")
	}

	var sb strings.Builder
	for _, part := range gResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return parseScript(sb.String())
}
