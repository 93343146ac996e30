// =============================================================================
// 📦 AdMark 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:   DefaultServerConfig(),
		Data:     DefaultDataConfig(),
		Pipeline: DefaultPipelineConfig(),
		Retry:    DefaultRetryConfig(),
		Redis:    DefaultRedisConfig(),
		Log:      DefaultLogConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    5 * time.Minute, // 生成操作同步返回，写超时要盖过最慢的轮询链
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    10,
		RateLimitBurst:  20,
	}
}

// DefaultDataConfig 返回默认数据目录配置
func DefaultDataConfig() DataConfig {
	return DataConfig{
		Dir:          "./data",
		DatabasePath: "./data/admark.db",
		StylesDir:    "./data/styles",
	}
}

// DefaultPipelineConfig 返回默认流水线参数
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ContinuityMode: "last-frame",
		TotalDuration:  32,
		AspectRatio:    "16:9",
		ScriptCacheTTL: 24 * time.Hour,
	}
}

// DefaultRetryConfig 返回默认弹性执行器配置
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置（默认禁用）
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     "",
		DB:       0,
		PoolSize: 10,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
}
