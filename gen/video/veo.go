package video

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

	"go.uber.org/zap"

	"github.com/LavonTMCQ/autonomous-marketing/gen"
)

// veoBackend submits predictLongRunning jobs and polls the returned
// operation until the clip is ready. Veo accepts both a first frame and a
// target last frame, which is what makes bridging continuity possible.
type veoBackend struct {
	cfg    VeoConfig
	client *http.Client
	poller *poller
	logger *zap.Logger
}

func newVeoBackend(cfg VeoConfig, logger *zap.Logger) *veoBackend {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "veo-3.1-generate-preview"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &veoBackend{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		poller: newPoller(cfg.PollInterval, cfg.MaxPollAttempts, logger),
		logger: logger,
	}
}

func (b *veoBackend) Name() string           { return "veo" }
func (b *veoBackend) Model() string          { return b.cfg.Model }
func (b *veoBackend) SupportsEndFrame() bool { return true }

type veoImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type veoInstance struct {
	Prompt    string    `json:"prompt"`
	Image     *veoImage `json:"image,omitempty"`
	LastFrame *veoImage `json:"lastFrame,omitempty"`
}

type veoParameters struct {
	AspectRatio     string `json:"aspectRatio,omitempty"`
	NegativePrompt  string `json:"negativePrompt,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
}

type veoSubmitRequest struct {
	Instances  []veoInstance `json:"instances"`
	Parameters veoParameters `json:"parameters"`
}

type veoOperation struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Response *struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI                string `json:"uri"`
					BytesBase64Encoded string `json:"bytesBase64Encoded"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response,omitempty"`
}

func loadFrame(path string) (*veoImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame %s: %w", path, err)
	}
	mime := "image/png"
	if strings.HasSuffix(strings.ToLower(path), ".jpg") || strings.HasSuffix(strings.ToLower(path), ".jpeg") {
		mime = "image/jpeg"
	}
	return &veoImage{
		BytesBase64Encoded: base64.StdEncoding.EncodeToString(data),
		MimeType:           mime,
	}, nil
}

// Generate submits the job, drives the poll state machine and returns the
// finished clip bytes. Returns the poll attempt count alongside for metrics.
func (b *veoBackend) Generate(ctx context.Context, req *gen.Request) ([]byte, int, error) {
	instance := veoInstance{Prompt: req.Prompt}
	if len(req.ReferenceImages) > 0 {
		img, err := loadFrame(req.ReferenceImages[0])
		if err != nil {
			return nil, 0, err
		}
		instance.Image = img
	}
	if req.EndFrame != "" {
		img, err := loadFrame(req.EndFrame)
		if err != nil {
			return nil, 0, err
		}
		instance.LastFrame = img
	}

	duration := int(req.Duration)
	if duration <= 0 {
		duration = 8
	}
	body := veoSubmitRequest{
		Instances: []veoInstance{instance},
		Parameters: veoParameters{
			AspectRatio:     req.AspectRatio,
			NegativePrompt:  req.NegativePrompt,
			DurationSeconds: duration,
		},
	}

	op, err := b.submit(ctx, body)
	if err != nil {
		return nil, 0, err
	}

	var final *veoOperation
	_, attempts, err := b.poller.Run(ctx, b.Name(), func(ctx context.Context) (bool, error) {
		cur, err := b.checkOperation(ctx, op.Name)
		if err != nil {
			return false, err
		}
		if !cur.Done {
			return false, nil
		}
		if cur.Error != nil {
			return false, fmt.Errorf("veo error: status=%d body=%s", cur.Error.Code, cur.Error.Message)
		}
		final = cur
		return true, nil
	})
	if err != nil {
		return nil, attempts, err
	}

	data, err := b.extractVideo(ctx, final)
	return data, attempts, err
}

func (b *veoBackend) submit(ctx context.Context, body veoSubmitRequest) (*veoOperation, error) {
	payload, _ := json.Marshal(body)
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:predictLongRunning",
		strings.TrimRight(b.cfg.BaseURL, "/"), b.cfg.Model)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", b.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("veo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("veo error: status=%d body=%s", resp.StatusCode, string(errBody))
	}

	var op veoOperation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("failed to decode veo operation: %w", err)
	}
	if op.Name == "" {
		return nil, fmt.Errorf("veo error: empty operation name")
	}
	return &op, nil
}

func (b *veoBackend) checkOperation(ctx context.Context, name string) (*veoOperation, error) {
	endpoint := fmt.Sprintf("%s/v1beta/%s", strings.TrimRight(b.cfg.BaseURL, "/"), name)
	httpReq, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", b.cfg.APIKey)

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("veo poll failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("veo error: status=%d body=%s", resp.StatusCode, string(errBody))
	}

	var op veoOperation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("failed to decode veo operation: %w", err)
	}
	return &op, nil
}

func (b *veoBackend) extractVideo(ctx context.Context, op *veoOperation) ([]byte, error) {
	if op == nil || op.Response == nil || len(op.Response.GenerateVideoResponse.GeneratedSamples) == 0 {
		return nil, fmt.Errorf("veo error: operation finished without samples")
	}
	video := op.Response.GenerateVideoResponse.GeneratedSamples[0].Video

	if video.BytesBase64Encoded != "" {
		data, err := base64.StdEncoding.DecodeString(video.BytesBase64Encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode veo video: %w", err)
		}
		return data, nil
	}
	if video.URI == "" {
		return nil, fmt.Errorf("veo error: sample has neither bytes nor uri")
	}

	httpReq, err := http.NewRequestWithContext(ctx, "GET", video.URI, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", b.cfg.APIKey)

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("veo download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("veo error: status=%d downloading video", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
