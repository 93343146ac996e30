package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/LavonTMCQ/autonomous-marketing/gen"
)

// geminiBackend implements keyframe generation using Google Gemini's native
// multimodal image output. Reference images are attached as inline data so the
// model can hold a consistent look across shots.
type geminiBackend struct {
	cfg    GeminiConfig
	client *http.Client
}

func newGeminiBackend(cfg GeminiConfig) *geminiBackend {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash-image"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &geminiBackend{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (b *geminiBackend) Name() string  { return "gemini" }
func (b *geminiBackend) Model() string { return b.cfg.Model }

type geminiPart struct {
	Text       string        `json:"text,omitempty"`
	InlineData *geminiInline `json:"inlineData,omitempty"`
}

type geminiInline struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiImageRequest struct {
	Contents         []geminiContent       `json:"contents"`
	GenerationConfig *geminiImageGenConfig `json:"generationConfig,omitempty"`
}

type geminiImageGenConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiImageResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text       string `json:"text,omitempty"`
				InlineData *struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData,omitempty"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate returns the raw bytes of one generated keyframe image.
func (b *geminiBackend) Generate(ctx context.Context, req *gen.Request) ([]byte, error) {
	model := req.Model
	if model == "" {
		model = b.cfg.Model
	}

	prompt := req.Prompt
	if req.NegativePrompt != "" {
		prompt += "\nAvoid: " + req.NegativePrompt
	}

	parts := []geminiPart{{Text: prompt}}
	for _, ref := range req.ReferenceImages {
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, fmt.Errorf("failed to read reference image %s: %w", ref, err)
		}
		parts = append(parts, geminiPart{
			InlineData: &geminiInline{
				MimeType: "image/png",
				Data:     base64.StdEncoding.EncodeToString(data),
			},
		})
	}

	body := geminiImageRequest{
		Contents: []geminiContent{{Parts: parts, Role: "user"}},
		GenerationConfig: &geminiImageGenConfig{
			ResponseModalities: []string{"IMAGE"},
		},
	}

	payload, _ := json.Marshal(body)
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(b.cfg.BaseURL, "/"), model, b.cfg.APIKey)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini image request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gemini image error: status=%d body=%s", resp.StatusCode, string(errBody))
	}

	var gResp geminiImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&gResp); err != nil {
		return nil, fmt.Errorf("failed to decode gemini response: %w", err)
	}

	for _, candidate := range gResp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil {
				data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil {
					return nil, fmt.Errorf("failed to decode image data: %w", err)
				}
				return data, nil
			}
		}
	}

	return nil, fmt.Errorf("gemini response contained no image data")
}
