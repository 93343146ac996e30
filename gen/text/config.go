package text

import "time"

// OpenAIConfig 是 OpenAI 兼容脚本后端的配置。
type OpenAIConfig struct {
	APIKey   string        `json:"api_key" yaml:"api_key"`
	BaseURL  string        `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model    string        `json:"model,omitempty" yaml:"model,omitempty"` // gpt-4o, gpt-4o-mini
	Timeout  time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Disabled bool          `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// GeminiConfig 是 Gemini 脚本后备后端的配置。
type GeminiConfig struct {
	APIKey   string        `json:"api_key" yaml:"api_key"`
	BaseURL  string        `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model    string        `json:"model,omitempty" yaml:"model,omitempty"` // gemini-2.5-flash
	Timeout  time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Disabled bool          `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// Config 汇集脚本生成服务的主/备后端配置。
type Config struct {
	OpenAI OpenAIConfig `json:"openai" yaml:"openai"`
	Gemini GeminiConfig `json:"gemini" yaml:"gemini"`
}

// DefaultOpenAIConfig 返回默认的 OpenAI 脚本后端配置。
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		BaseURL: "https://api.openai.com",
		Model:   "gpt-4o-mini",
		Timeout: 60 * time.Second,
	}
}

// DefaultGeminiConfig 返回默认的 Gemini 脚本后端配置。
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{
		BaseURL: "https://generativelanguage.googleapis.com",
		Model:   "gemini-2.5-flash",
		Timeout: 60 * time.Second,
	}
}

// DefaultConfig 返回默认文本服务配置。
func DefaultConfig() Config {
	return Config{
		OpenAI: DefaultOpenAIConfig(),
		Gemini: DefaultGeminiConfig(),
	}
}
