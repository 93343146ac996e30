package image

import "time"

// 双子座Config配置了谷歌双子座关键帧图像后端.
type GeminiConfig struct {
	APIKey   string        `json:"api_key" yaml:"api_key"`
	BaseURL  string        `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model    string        `json:"model,omitempty" yaml:"model,omitempty"` // gemini-2.5-flash-image
	Timeout  time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Disabled bool          `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// OpenAIConfig配置了OpenAI图像后备后端.
type OpenAIConfig struct {
	APIKey   string        `json:"api_key" yaml:"api_key"`
	BaseURL  string        `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model    string        `json:"model,omitempty" yaml:"model,omitempty"` // dall-e-3, gpt-image-1
	Timeout  time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Disabled bool          `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// Config 汇集图像生成服务的主/备后端配置。
type Config struct {
	Gemini GeminiConfig `json:"gemini" yaml:"gemini"`
	OpenAI OpenAIConfig `json:"openai" yaml:"openai"`
}

// 默认GeminiConfig返回默认双子星图像配置.
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{
		BaseURL: "https://generativelanguage.googleapis.com",
		Model:   "gemini-2.5-flash-image",
		Timeout: 120 * time.Second,
	}
}

// 默认 OpenAIConfig 返回默认 OpenAI 图像配置 。
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		BaseURL: "https://api.openai.com",
		Model:   "dall-e-3",
		Timeout: 120 * time.Second,
	}
}

// DefaultConfig 返回默认图像服务配置。
func DefaultConfig() Config {
	return Config{
		Gemini: DefaultGeminiConfig(),
		OpenAI: DefaultOpenAIConfig(),
	}
}
