package video

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LavonTMCQ/autonomous-marketing/costs"
	"github.com/LavonTMCQ/autonomous-marketing/gen"
	"github.com/LavonTMCQ/autonomous-marketing/gen/retry"
	"github.com/LavonTMCQ/autonomous-marketing/types"
)

func fastPolicy() *retry.Policy {
	return &retry.Policy{
		MaxRetries:     1,
		InitialDelay:   time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		Multiplier:     2.0,
		RetryableMatch: retry.DefaultRetryableMatch(),
	}
}

func fastPoll(cfg *Config) {
	cfg.Veo.PollInterval = time.Millisecond
	cfg.Veo.MaxPollAttempts = 3
	cfg.Runway.PollInterval = time.Millisecond
	cfg.Runway.MaxPollAttempts = 3
}

func newTestService(cfg Config) (*Service, *costs.Ledger) {
	ledger := costs.NewLedger(zap.NewNop())
	svc := NewService(cfg, fastPolicy(), costs.NewEstimator(), ledger, nil, nil, zap.NewNop())
	svc.limiter.SetLimit(1000)
	return svc, ledger
}

func writeFrame(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, os.WriteFile(path, []byte("frame-bytes"), 0o644))
	return path
}

// veoStub 模拟提交+轮询两步。done=false 时任务永不完成。
func veoStub(t *testing.T, done bool, submits *int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if submits != nil {
				*submits++
			}
			json.NewEncoder(w).Encode(map[string]any{"name": "operations/job-1"})
			return
		}
		resp := map[string]any{"name": "operations/job-1", "done": done}
		if done {
			resp["response"] = map[string]any{
				"generateVideoResponse": map[string]any{
					"generatedSamples": []map[string]any{{
						"video": map[string]string{
							"bytesBase64Encoded": base64.StdEncoding.EncodeToString([]byte("veo-clip-bytes")),
						},
					}},
				},
			}
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func runwayStub(t *testing.T, submits *int) *httptest.Server {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/image_to_video":
			if submits != nil {
				*submits++
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "task-1"})
		case r.URL.Path == "/v1/tasks/task-1":
			json.NewEncoder(w).Encode(map[string]any{
				"id":     "task-1",
				"status": "SUCCEEDED",
				"output": []string{server.URL + "/clip.mp4"},
			})
		case r.URL.Path == "/clip.mp4":
			w.Write([]byte("runway-clip-bytes"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return server
}

func TestService_PrimarySuccess(t *testing.T) {
	server := veoStub(t, true, nil)
	defer server.Close()

	cfg := DefaultConfig()
	fastPoll(&cfg)
	cfg.Veo.APIKey = "key"
	cfg.Veo.BaseURL = server.URL
	svc, ledger := newTestService(cfg)

	out := filepath.Join(t.TempDir(), "clip.mp4")
	res, err := svc.Generate(context.Background(), &gen.Request{
		Prompt:          "a sneaker spinning",
		OutputPath:      out,
		ReferenceImages: []string{writeFrame(t)},
		Duration:        4,
	})
	require.NoError(t, err)

	assert.Equal(t, "veo", res.Backend)
	assert.False(t, res.FallbackUsed)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "veo-clip-bytes", string(data))
	assert.Equal(t, 1, ledger.Summary().Count)
}

func TestService_PollTimeoutFallsBack(t *testing.T) {
	// 主后端任务永不完成：耗尽轮询预算后，备后端收到全新请求
	veoSubmits := 0
	primary := veoStub(t, false, &veoSubmits)
	defer primary.Close()
	runwaySubmits := 0
	secondary := runwayStub(t, &runwaySubmits)
	defer secondary.Close()

	cfg := DefaultConfig()
	fastPoll(&cfg)
	cfg.Veo.APIKey = "key"
	cfg.Veo.BaseURL = primary.URL
	cfg.Runway.APIKey = "key"
	cfg.Runway.BaseURL = secondary.URL
	svc, _ := newTestService(cfg)

	out := filepath.Join(t.TempDir(), "clip.mp4")
	res, err := svc.Generate(context.Background(), &gen.Request{
		Prompt:          "p",
		OutputPath:      out,
		ReferenceImages: []string{writeFrame(t)},
		Duration:        4,
	})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, veoSubmits, 1)
	assert.Equal(t, 1, runwaySubmits, "备后端收到一次全新提交")
	assert.True(t, res.FallbackUsed)
	assert.Equal(t, "runway", res.Backend)

	data, _ := os.ReadFile(out)
	assert.Equal(t, "runway-clip-bytes", string(data))
}

func TestService_EndFrameDroppedWithoutSupport(t *testing.T) {
	// 仅 Runway 可用：尾帧条件被静默丢弃，请求仍然成功
	secondary := runwayStub(t, nil)
	defer secondary.Close()

	cfg := Config{Runway: RunwayConfig{
		APIKey: "key", BaseURL: secondary.URL,
		PollInterval: time.Millisecond, MaxPollAttempts: 3,
	}}
	svc, _ := newTestService(cfg)
	assert.False(t, svc.SupportsEndFrame())

	out := filepath.Join(t.TempDir(), "clip.mp4")
	res, err := svc.Generate(context.Background(), &gen.Request{
		Prompt:          "p",
		OutputPath:      out,
		ReferenceImages: []string{writeFrame(t)},
		EndFrame:        writeFrame(t),
		Duration:        4,
	})
	require.NoError(t, err)
	assert.Equal(t, "runway", res.Backend)
	assert.False(t, res.FallbackUsed, "仅有备后端时它充当主后端")
}

func TestService_SupportsEndFrameWithVeo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Veo.APIKey = "key"
	svc, _ := newTestService(cfg)
	assert.True(t, svc.SupportsEndFrame())
}

func TestService_PlaceholderWhenNoBackends(t *testing.T) {
	svc, ledger := newTestService(Config{})

	out := filepath.Join(t.TempDir(), "clip.mp4")
	res, err := svc.Generate(context.Background(), &gen.Request{Prompt: "p", OutputPath: out, Duration: 4})
	require.NoError(t, err, "占位路径永不失败")

	assert.True(t, res.Degraded)
	assert.Equal(t, gen.PlaceholderBackend, res.Backend)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	assert.Equal(t, 1, ledger.Summary().Count)
}

func TestService_MissingOutputPathIsFatal(t *testing.T) {
	svc, _ := newTestService(Config{})

	_, err := svc.Generate(context.Background(), &gen.Request{Prompt: "p"})
	require.Error(t, err)
	assert.Equal(t, types.ErrResourceMissing, types.GetErrorCode(err))
}

func TestPoller_BoundedAttempts(t *testing.T) {
	p := newPoller(time.Millisecond, 4, zap.NewNop())

	calls := 0
	state, attempts, err := p.Run(context.Background(), "test", func(ctx context.Context) (bool, error) {
		calls++
		return false, nil
	})

	assert.Equal(t, StateTimedOut, state)
	assert.Equal(t, 4, attempts)
	assert.Equal(t, 4, calls)
	require.Error(t, err)
	assert.Equal(t, types.ErrPollTimedOut, types.GetErrorCode(err))
}
