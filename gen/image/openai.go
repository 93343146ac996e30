package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LavonTMCQ/autonomous-marketing/gen"
)

// openAIBackend 使用 OpenAI 图像接口作为关键帧后备后端。
// DALL-E 不支持参考图条件，参考图仅用于主后端。
type openAIBackend struct {
	cfg    OpenAIConfig
	client *http.Client
}

func newOpenAIBackend(cfg OpenAIConfig) *openAIBackend {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "dall-e-3"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &openAIBackend{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (b *openAIBackend) Name() string  { return "openai" }
func (b *openAIBackend) Model() string { return b.cfg.Model }

type dalleRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n,omitempty"`
	Size           string `json:"size,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type dalleResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL     string `json:"url,omitempty"`
		B64JSON string `json:"b64_json,omitempty"`
	} `json:"data"`
}

// Generate 从文本提示生成一张关键帧图像并返回原始字节。
func (b *openAIBackend) Generate(ctx context.Context, req *gen.Request) ([]byte, error) {
	model := req.Model
	if model == "" {
		model = b.cfg.Model
	}

	prompt := req.Prompt
	if req.NegativePrompt != "" {
		prompt += "\nAvoid: " + req.NegativePrompt
	}

	body := dalleRequest{
		Model:          model,
		Prompt:         prompt,
		N:              1,
		Size:           sizeForAspect(req.AspectRatio),
		ResponseFormat: "b64_json",
	}

	payload, _ := json.Marshal(body)
	httpReq, err := http.NewRequestWithContext(ctx, "POST",
		strings.TrimRight(b.cfg.BaseURL, "/")+"/v1/images/generations",
		bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("dalle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("dalle error: status=%d body=%s", resp.StatusCode, string(errBody))
	}

	var dResp dalleResponse
	if err := json.NewDecoder(resp.Body).Decode(&dResp); err != nil {
		return nil, fmt.Errorf("failed to decode dalle response: %w", err)
	}

	if len(dResp.Data) == 0 {
		return nil, fmt.Errorf("dalle response contained no image data")
	}

	first := dResp.Data[0]
	if first.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(first.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image data: %w", err)
		}
		return data, nil
	}

	if first.URL != "" {
		return downloadBytes(ctx, b.client, first.URL)
	}

	return nil, fmt.Errorf("dalle response contained neither b64 data nor url")
}

// sizeForAspect 将通用宽高比映射为 DALL-E 支持的尺寸。
func sizeForAspect(aspect string) string {
	switch aspect {
	case "16:9":
		return "1792x1024"
	case "9:16":
		return "1024x1792"
	default:
		return "1024x1024"
	}
}

func downloadBytes(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("image download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("image download error: status=%d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
