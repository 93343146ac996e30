package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Policy 定义重试策略配置
// 遵循 KISS 原则：简单但功能完整的重试策略
type Policy struct {
	MaxRetries     int                                               // 最大重试次数（0 表示不重试）
	InitialDelay   time.Duration                                     // 初始延迟时间
	MaxDelay       time.Duration                                     // 最大延迟时间
	Multiplier     float64                                           // 延迟时间倍增因子（指数退避）
	Jitter         bool                                              // 是否添加随机抖动（防止雪崩）
	RetryableMatch []string                                          // 可重试错误的子串匹配列表（不区分大小写，为空则使用默认列表）
	OnRetry        func(attempt int, err error, delay time.Duration) // 重试回调
}

// DefaultRetryableMatch 为上游生成服务返回默认的可重试子串列表。
// 覆盖网络抖动、超时、限流与常见 5xx 响应。
func DefaultRetryableMatch() []string {
	return []string{
		"connection reset",
		"connection refused",
		"timeout",
		"timed out",
		"rate limit",
		"too many requests",
		"temporarily",
		"overloaded",
		"status=429",
		"status=500",
		"status=502",
		"status=503",
		"status=504",
	}
}

// DefaultPolicy 返回默认的重试策略
// 适用于大部分生成式 API 调用场景
func DefaultPolicy() *Policy {
	return &Policy{
		MaxRetries:     3,
		InitialDelay:   1 * time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2.0,
		Jitter:         true,
		RetryableMatch: DefaultRetryableMatch(),
	}
}

// AggressivePolicy 返回面向强限流批量后端的策略：重试更多、退避更快封顶。
func AggressivePolicy() *Policy {
	return &Policy{
		MaxRetries:     5,
		InitialDelay:   2 * time.Second,
		MaxDelay:       60 * time.Second,
		Multiplier:     2.0,
		Jitter:         true,
		RetryableMatch: DefaultRetryableMatch(),
	}
}

// Operation 是一次可重试的工作单元，attempt 从 1 开始计数。
type Operation func(attempt int) error

// OperationWithResult 同 Operation，但带返回值。
type OperationWithResult func(attempt int) (any, error)

// Executor 重试执行器接口
// 提供统一的重试能力
type Executor interface {
	// Do 执行操作，失败时根据策略重试
	Do(ctx context.Context, op Operation) error

	// DoWithResult 执行操作并返回结果，失败时根据策略重试
	DoWithResult(ctx context.Context, op OperationWithResult) (any, error)
}

// backoffExecutor 基于指数退避的执行器实现
type backoffExecutor struct {
	policy *Policy
	logger *zap.Logger
}

// NewBackoffExecutor 创建指数退避执行器
func NewBackoffExecutor(policy *Policy, logger *zap.Logger) Executor {
	if policy == nil {
		policy = DefaultPolicy()
	}

	// 参数校验
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = 1 * time.Second
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 30 * time.Second
	}
	if policy.Multiplier < 1.0 {
		policy.Multiplier = 2.0
	}
	if len(policy.RetryableMatch) == 0 {
		policy.RetryableMatch = DefaultRetryableMatch()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &backoffExecutor{
		policy: policy,
		logger: logger,
	}
}

// Do 实现 Executor.Do
func (e *backoffExecutor) Do(ctx context.Context, op Operation) error {
	_, err := e.DoWithResult(ctx, func(attempt int) (any, error) {
		return nil, op(attempt)
	})
	return err
}

// DoWithResult 实现 Executor.DoWithResult
// 核心重试逻辑：指数退避 + 随机抖动 + 子串错误过滤
func (e *backoffExecutor) DoWithResult(ctx context.Context, op OperationWithResult) (any, error) {
	var lastErr error
	var result any

	for attempt := 1; attempt <= e.policy.MaxRetries+1; attempt++ {
		// 第一次执行不延迟
		if attempt > 1 {
			delay := e.calculateDelay(attempt - 1)

			e.logger.Debug("重试中",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", e.policy.MaxRetries),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)

			if e.policy.OnRetry != nil {
				e.policy.OnRetry(attempt, lastErr, delay)
			}

			// 等待延迟，同时监听 context 取消
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("重试被取消: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		result, lastErr = op(attempt)

		// 成功，直接返回
		if lastErr == nil {
			if attempt > 1 {
				e.logger.Info("重试成功", zap.Int("attempt", attempt))
			}
			return result, nil
		}

		// 检查是否可重试
		if !e.isRetryable(lastErr) {
			e.logger.Debug("错误不可重试", zap.Error(lastErr))
			return nil, lastErr
		}
	}

	// 所有重试都失败了
	e.logger.Warn("重试次数耗尽",
		zap.Int("attempts", e.policy.MaxRetries+1),
		zap.Error(lastErr),
	)

	return nil, fmt.Errorf("重试 %d 次后仍失败: %w", e.policy.MaxRetries, lastErr)
}

// calculateDelay 计算第 n 次重试前的延迟时间（n 从 1 开始）
// delay = min(initial × multiplier^(n-1) × (1 + jitter), max)，jitter ∈ [0, 0.3)
func (e *backoffExecutor) calculateDelay(n int) time.Duration {
	delay := float64(e.policy.InitialDelay) * math.Pow(e.policy.Multiplier, float64(n-1))

	if e.policy.Jitter {
		delay *= 1 + rand.Float64()*0.3
	}

	if delay > float64(e.policy.MaxDelay) {
		delay = float64(e.policy.MaxDelay)
	}

	return time.Duration(delay)
}

// isRetryable 将错误文本与配置的子串列表做不区分大小写匹配
func (e *backoffExecutor) isRetryable(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, match := range e.policy.RetryableMatch {
		if strings.Contains(msg, strings.ToLower(match)) {
			return true
		}
	}

	return false
}
