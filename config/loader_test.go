package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Defaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
	assert.Equal(t, "last-frame", cfg.Pipeline.ContinuityMode)
	assert.Equal(t, 32.0, cfg.Pipeline.TotalDuration)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Empty(t, cfg.Redis.Addr, "缓存默认禁用")
}

func TestLoader_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  http_port: 9000
pipeline:
  continuity_mode: bridging
  total_duration: 24
text:
  openai:
    api_key: sk-test
    model: gpt-4o
video:
  veo_poll:
    interval: 2s
    max_attempts: 10
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.HTTPPort)
	assert.Equal(t, 9091, cfg.Server.MetricsPort, "未覆盖字段保持默认")
	assert.Equal(t, "bridging", cfg.Pipeline.ContinuityMode)
	assert.Equal(t, "sk-test", cfg.Text.OpenAI.APIKey)
	assert.Equal(t, 2*time.Second, cfg.Video.VeoPoll.Interval)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_port: 9000\n"), 0o644))

	t.Setenv("ADMARK_SERVER_HTTP_PORT", "9100")
	t.Setenv("ADMARK_TEXT_OPENAI_API_KEY", "sk-env")
	t.Setenv("ADMARK_VIDEO_VEO_DISABLED", "true")
	t.Setenv("ADMARK_RETRY_INITIAL_DELAY", "250ms")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.HTTPPort, "环境变量优先于 YAML")
	assert.Equal(t, "sk-env", cfg.Text.OpenAI.APIKey)
	assert.True(t, cfg.Video.Veo.Disabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.InitialDelay)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/no/such/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoader_Validator(t *testing.T) {
	_, err := NewLoader().
		WithValidator(func(c *Config) error { return assert.AnError }).
		Load()
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Pipeline.ContinuityMode = "seamless"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.HTTPPort = 0
	require.Error(t, cfg.Validate())
}

func TestConfig_ServiceAssembly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Text.OpenAI = BackendConfig{APIKey: "sk-1", Model: "gpt-4o", Timeout: 10 * time.Second}
	cfg.Image.Gemini = BackendConfig{APIKey: "g-1"}
	cfg.Video.Veo = BackendConfig{APIKey: "v-1", Disabled: true}
	cfg.Video.VeoPoll = PollConfig{Interval: 3 * time.Second, MaxAttempts: 7}
	cfg.Retry.MaxRetries = 5

	textCfg := cfg.TextService()
	assert.Equal(t, "sk-1", textCfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", textCfg.OpenAI.Model)
	assert.Equal(t, 10*time.Second, textCfg.OpenAI.Timeout)
	assert.Equal(t, "gemini-2.5-flash", textCfg.Gemini.Model, "未覆盖字段保持服务默认")

	imageCfg := cfg.ImageService()
	assert.Equal(t, "g-1", imageCfg.Gemini.APIKey)

	videoCfg := cfg.VideoService()
	assert.True(t, videoCfg.Veo.Disabled)
	assert.Equal(t, 3*time.Second, videoCfg.Veo.PollInterval)
	assert.Equal(t, 7, videoCfg.Veo.MaxPollAttempts)

	policy := cfg.RetryPolicy()
	assert.Equal(t, 5, policy.MaxRetries)
}
