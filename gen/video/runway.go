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

// runwayBackend drives the Runway image_to_video task API. Runway only
// accepts a single conditioning frame, so it cannot honor an end-frame
// target; callers must downgrade bridging requests before reaching it.
type runwayBackend struct {
	cfg    RunwayConfig
	client *http.Client
	poller *poller
	logger *zap.Logger
}

func newRunwayBackend(cfg RunwayConfig, logger *zap.Logger) *runwayBackend {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.dev.runwayml.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gen4_turbo"
	}
	if cfg.Version == "" {
		cfg.Version = "2024-11-06"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &runwayBackend{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		poller: newPoller(cfg.PollInterval, cfg.MaxPollAttempts, logger),
		logger: logger,
	}
}

func (b *runwayBackend) Name() string           { return "runway" }
func (b *runwayBackend) Model() string          { return b.cfg.Model }
func (b *runwayBackend) SupportsEndFrame() bool { return false }

type runwaySubmitRequest struct {
	PromptImage string `json:"promptImage"`
	PromptText  string `json:"promptText,omitempty"`
	Model       string `json:"model"`
	Ratio       string `json:"ratio,omitempty"`
	Duration    int    `json:"duration,omitempty"`
}

type runwayTask struct {
	ID      string   `json:"id"`
	Status  string   `json:"status"` // PENDING, RUNNING, SUCCEEDED, FAILED
	Output  []string `json:"output,omitempty"`
	Failure string   `json:"failure,omitempty"`
}

func ratioForAspect(aspect string) string {
	switch aspect {
	case "9:16":
		return "720:1280"
	case "1:1":
		return "960:960"
	default:
		return "1280:720"
	}
}

func frameDataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read frame %s: %w", path, err)
	}
	mime := "image/png"
	if strings.HasSuffix(strings.ToLower(path), ".jpg") || strings.HasSuffix(strings.ToLower(path), ".jpeg") {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Generate submits an image_to_video task and polls /v1/tasks until a
// terminal status. Runway requires a conditioning frame.
func (b *runwayBackend) Generate(ctx context.Context, req *gen.Request) ([]byte, int, error) {
	if len(req.ReferenceImages) == 0 {
		return nil, 0, fmt.Errorf("runway error: a conditioning frame is required")
	}
	frame, err := frameDataURI(req.ReferenceImages[0])
	if err != nil {
		return nil, 0, err
	}

	duration := int(req.Duration)
	if duration <= 0 {
		duration = 5
	}
	task, err := b.submit(ctx, runwaySubmitRequest{
		PromptImage: frame,
		PromptText:  req.Prompt,
		Model:       b.cfg.Model,
		Ratio:       ratioForAspect(req.AspectRatio),
		Duration:    duration,
	})
	if err != nil {
		return nil, 0, err
	}

	var outputURL string
	_, attempts, err := b.poller.Run(ctx, b.Name(), func(ctx context.Context) (bool, error) {
		cur, err := b.checkTask(ctx, task.ID)
		if err != nil {
			return false, err
		}
		switch cur.Status {
		case "SUCCEEDED":
			if len(cur.Output) == 0 {
				return false, fmt.Errorf("runway error: task succeeded without output")
			}
			outputURL = cur.Output[0]
			return true, nil
		case "FAILED":
			return false, fmt.Errorf("runway error: task failed: %s", cur.Failure)
		default:
			return false, nil
		}
	})
	if err != nil {
		return nil, attempts, err
	}

	data, err := b.download(ctx, outputURL)
	return data, attempts, err
}

func (b *runwayBackend) submit(ctx context.Context, body runwaySubmitRequest) (*runwayTask, error) {
	payload, _ := json.Marshal(body)
	httpReq, err := http.NewRequestWithContext(ctx, "POST",
		strings.TrimRight(b.cfg.BaseURL, "/")+"/v1/image_to_video",
		bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	httpReq.Header.Set("X-Runway-Version", b.cfg.Version)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("runway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("runway error: status=%d body=%s", resp.StatusCode, string(errBody))
	}

	var task runwayTask
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, fmt.Errorf("failed to decode runway task: %w", err)
	}
	if task.ID == "" {
		return nil, fmt.Errorf("runway error: empty task id")
	}
	return &task, nil
}

func (b *runwayBackend) checkTask(ctx context.Context, id string) (*runwayTask, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET",
		strings.TrimRight(b.cfg.BaseURL, "/")+"/v1/tasks/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	httpReq.Header.Set("X-Runway-Version", b.cfg.Version)

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("runway poll failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("runway error: status=%d body=%s", resp.StatusCode, string(errBody))
	}

	var task runwayTask
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, fmt.Errorf("failed to decode runway task: %w", err)
	}
	return &task, nil
}

func (b *runwayBackend) download(ctx context.Context, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("runway download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("runway error: status=%d downloading video", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
