package config

import (
	"github.com/LavonTMCQ/autonomous-marketing/gen/image"
	"github.com/LavonTMCQ/autonomous-marketing/gen/retry"
	"github.com/LavonTMCQ/autonomous-marketing/gen/text"
	"github.com/LavonTMCQ/autonomous-marketing/gen/video"
)

// overlay 将通用凭据配置覆盖到目标字段，留空字段保持默认值。
func overlay(apiKey, baseURL, model *string, disabled *bool, src BackendConfig) {
	if src.APIKey != "" {
		*apiKey = src.APIKey
	}
	if src.BaseURL != "" {
		*baseURL = src.BaseURL
	}
	if src.Model != "" {
		*model = src.Model
	}
	*disabled = src.Disabled
}

// TextService 组装脚本生成服务配置。
func (c *Config) TextService() text.Config {
	cfg := text.DefaultConfig()
	overlay(&cfg.OpenAI.APIKey, &cfg.OpenAI.BaseURL, &cfg.OpenAI.Model, &cfg.OpenAI.Disabled, c.Text.OpenAI)
	overlay(&cfg.Gemini.APIKey, &cfg.Gemini.BaseURL, &cfg.Gemini.Model, &cfg.Gemini.Disabled, c.Text.Gemini)
	if c.Text.OpenAI.Timeout > 0 {
		cfg.OpenAI.Timeout = c.Text.OpenAI.Timeout
	}
	if c.Text.Gemini.Timeout > 0 {
		cfg.Gemini.Timeout = c.Text.Gemini.Timeout
	}
	return cfg
}

// ImageService 组装关键帧生成服务配置。
func (c *Config) ImageService() image.Config {
	cfg := image.DefaultConfig()
	overlay(&cfg.Gemini.APIKey, &cfg.Gemini.BaseURL, &cfg.Gemini.Model, &cfg.Gemini.Disabled, c.Image.Gemini)
	overlay(&cfg.OpenAI.APIKey, &cfg.OpenAI.BaseURL, &cfg.OpenAI.Model, &cfg.OpenAI.Disabled, c.Image.OpenAI)
	if c.Image.Gemini.Timeout > 0 {
		cfg.Gemini.Timeout = c.Image.Gemini.Timeout
	}
	if c.Image.OpenAI.Timeout > 0 {
		cfg.OpenAI.Timeout = c.Image.OpenAI.Timeout
	}
	return cfg
}

// VideoService 组装视频生成服务配置。
func (c *Config) VideoService() video.Config {
	cfg := video.DefaultConfig()
	overlay(&cfg.Veo.APIKey, &cfg.Veo.BaseURL, &cfg.Veo.Model, &cfg.Veo.Disabled, c.Video.Veo)
	overlay(&cfg.Runway.APIKey, &cfg.Runway.BaseURL, &cfg.Runway.Model, &cfg.Runway.Disabled, c.Video.Runway)
	if c.Video.Veo.Timeout > 0 {
		cfg.Veo.Timeout = c.Video.Veo.Timeout
	}
	if c.Video.Runway.Timeout > 0 {
		cfg.Runway.Timeout = c.Video.Runway.Timeout
	}
	videoPoll(&cfg, c.Video.VeoPoll, c.Video.RunwayPoll)
	return cfg
}

// RetryPolicy 组装弹性执行器策略。
func (c *Config) RetryPolicy() *retry.Policy {
	policy := retry.DefaultPolicy()
	if c.Retry.MaxRetries > 0 {
		policy.MaxRetries = c.Retry.MaxRetries
	}
	if c.Retry.InitialDelay > 0 {
		policy.InitialDelay = c.Retry.InitialDelay
	}
	if c.Retry.MaxDelay > 0 {
		policy.MaxDelay = c.Retry.MaxDelay
	}
	if c.Retry.Multiplier > 0 {
		policy.Multiplier = c.Retry.Multiplier
	}
	return policy
}
