package video

import "time"

// VeoConfig 是 Veo 视频后端（主）的配置。
type VeoConfig struct {
	APIKey          string        `json:"api_key" yaml:"api_key"`
	BaseURL         string        `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model           string        `json:"model,omitempty" yaml:"model,omitempty"` // veo-3.1-generate-preview
	Timeout         time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	PollInterval    time.Duration `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty"`
	MaxPollAttempts int           `json:"max_poll_attempts,omitempty" yaml:"max_poll_attempts,omitempty"`
	Disabled        bool          `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// RunwayConfig 是 Runway 视频后备后端的配置。
type RunwayConfig struct {
	APIKey          string        `json:"api_key" yaml:"api_key"`
	BaseURL         string        `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model           string        `json:"model,omitempty" yaml:"model,omitempty"` // gen4_turbo
	Version         string        `json:"version,omitempty" yaml:"version,omitempty"`
	Timeout         time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	PollInterval    time.Duration `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty"`
	MaxPollAttempts int           `json:"max_poll_attempts,omitempty" yaml:"max_poll_attempts,omitempty"`
	Disabled        bool          `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// Config 汇集视频生成服务的主/备后端配置。
type Config struct {
	Veo    VeoConfig    `json:"veo" yaml:"veo"`
	Runway RunwayConfig `json:"runway" yaml:"runway"`
}

// DefaultVeoConfig 返回默认的 Veo 后端配置。
func DefaultVeoConfig() VeoConfig {
	return VeoConfig{
		BaseURL:         "https://generativelanguage.googleapis.com",
		Model:           "veo-3.1-generate-preview",
		Timeout:         120 * time.Second,
		PollInterval:    10 * time.Second,
		MaxPollAttempts: 60,
	}
}

// DefaultRunwayConfig 返回默认的 Runway 后端配置。
func DefaultRunwayConfig() RunwayConfig {
	return RunwayConfig{
		BaseURL:         "https://api.dev.runwayml.com",
		Model:           "gen4_turbo",
		Version:         "2024-11-06",
		Timeout:         120 * time.Second,
		PollInterval:    5 * time.Second,
		MaxPollAttempts: 120,
	}
}

// DefaultConfig 返回默认视频服务配置。
func DefaultConfig() Config {
	return Config{
		Veo:    DefaultVeoConfig(),
		Runway: DefaultRunwayConfig(),
	}
}
