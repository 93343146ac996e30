// =============================================================================
// 📦 AdMark 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("ADMARK").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/LavonTMCQ/autonomous-marketing/gen/video"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 AdMark 的完整配置结构
type Config struct {
	// Server 服务器配置
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Data 数据与目录配置
	Data DataConfig `yaml:"data" env:"DATA"`

	// Text 脚本生成后端配置
	Text TextConfig `yaml:"text" env:"TEXT"`

	// Image 关键帧生成后端配置
	Image ImageConfig `yaml:"image" env:"IMAGE"`

	// Video 视频片段生成后端配置
	Video VideoConfig `yaml:"video" env:"VIDEO"`

	// Pipeline 流水线默认参数
	Pipeline PipelineConfig `yaml:"pipeline" env:"PIPELINE"`

	// Retry 弹性执行器配置
	Retry RetryConfig `yaml:"retry" env:"RETRY"`

	// Redis 脚本缓存配置
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// HTTP 端口
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// Metrics 端口
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入超时
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// 每 IP 限流速率（请求/秒）
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// 限流突发容量
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	// 允许的跨域来源，空则拒绝跨域请求
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
}

// DataConfig 数据与目录配置
type DataConfig struct {
	// 资产根目录
	Dir string `yaml:"dir" env:"DIR"`
	// SQLite 数据库文件路径
	DatabasePath string `yaml:"database_path" env:"DATABASE_PATH"`
	// 风格包根目录
	StylesDir string `yaml:"styles_dir" env:"STYLES_DIR"`
}

// BackendConfig 单个生成后端的通用凭据配置
type BackendConfig struct {
	// API Key，留空表示未配置
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 基础 URL（可选，便于代理与测试）
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 模型名（留空用各服务默认值）
	Model string `yaml:"model" env:"MODEL"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 显式禁用
	Disabled bool `yaml:"disabled" env:"DISABLED"`
}

// TextConfig 脚本生成后端配置
type TextConfig struct {
	// OpenAI 主后端
	OpenAI BackendConfig `yaml:"openai" env:"OPENAI"`
	// Gemini 备后端
	Gemini BackendConfig `yaml:"gemini" env:"GEMINI"`
}

// ImageConfig 关键帧生成后端配置
type ImageConfig struct {
	// Gemini 主后端（支持参考图条件）
	Gemini BackendConfig `yaml:"gemini" env:"GEMINI"`
	// OpenAI 图像接口备后端
	OpenAI BackendConfig `yaml:"openai" env:"OPENAI"`
}

// PollConfig 异步视频后端的轮询参数
type PollConfig struct {
	// 轮询间隔
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
	// 最大轮询次数
	MaxAttempts int `yaml:"max_attempts" env:"MAX_ATTEMPTS"`
}

// VideoConfig 视频片段生成后端配置
type VideoConfig struct {
	// Veo 主后端（双端条件）
	Veo BackendConfig `yaml:"veo" env:"VEO"`
	// Runway 备后端
	Runway BackendConfig `yaml:"runway" env:"RUNWAY"`
	// Veo 轮询参数
	VeoPoll PollConfig `yaml:"veo_poll" env:"VEO_POLL"`
	// Runway 轮询参数
	RunwayPoll PollConfig `yaml:"runway_poll" env:"RUNWAY_POLL"`
}

// PipelineConfig 流水线默认参数
type PipelineConfig struct {
	// 连续性模式: independent, last-frame, bridging
	ContinuityMode string `yaml:"continuity_mode" env:"CONTINUITY_MODE"`
	// 默认成片总时长（秒）
	TotalDuration float64 `yaml:"total_duration" env:"TOTAL_DURATION"`
	// 默认画幅: 16:9, 9:16, 1:1
	AspectRatio string `yaml:"aspect_ratio" env:"ASPECT_RATIO"`
	// 脚本缓存 TTL
	ScriptCacheTTL time.Duration `yaml:"script_cache_ttl" env:"SCRIPT_CACHE_TTL"`
}

// RetryConfig 弹性执行器配置
type RetryConfig struct {
	// 最大重试次数
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
	// 初始延迟
	InitialDelay time.Duration `yaml:"initial_delay" env:"INITIAL_DELAY"`
	// 最大延迟
	MaxDelay time.Duration `yaml:"max_delay" env:"MAX_DELAY"`
	// 退避倍数
	Multiplier float64 `yaml:"multiplier" env:"MULTIPLIER"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 地址，留空禁用脚本缓存
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "ADMARK",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 4. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		// 获取 env tag
		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		// 如果是结构体，递归处理
		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		// 获取环境变量值
		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		// 设置字段值
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Data.Dir == "" {
		errs = append(errs, "data dir must not be empty")
	}
	if c.Pipeline.TotalDuration <= 0 {
		errs = append(errs, "total_duration must be positive")
	}
	switch c.Pipeline.ContinuityMode {
	case "", "independent", "last-frame", "bridging":
	default:
		errs = append(errs, fmt.Sprintf("unknown continuity mode %q", c.Pipeline.ContinuityMode))
	}
	if c.Retry.MaxRetries < 0 {
		errs = append(errs, "max_retries must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// videoPoll 拷贝轮询参数到后端配置
func videoPoll(cfg *video.Config, veo, runway PollConfig) {
	if veo.Interval > 0 {
		cfg.Veo.PollInterval = veo.Interval
	}
	if veo.MaxAttempts > 0 {
		cfg.Veo.MaxPollAttempts = veo.MaxAttempts
	}
	if runway.Interval > 0 {
		cfg.Runway.PollInterval = runway.Interval
	}
	if runway.MaxAttempts > 0 {
		cfg.Runway.MaxPollAttempts = runway.MaxAttempts
	}
}
