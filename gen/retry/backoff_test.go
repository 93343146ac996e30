package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testPolicy(maxRetries int) *Policy {
	return &Policy{
		MaxRetries:     maxRetries,
		InitialDelay:   time.Millisecond,
		MaxDelay:       10 * time.Millisecond,
		Multiplier:     2.0,
		Jitter:         false,
		RetryableMatch: DefaultRetryableMatch(),
	}
}

func TestBackoffExecutor_Success(t *testing.T) {
	exec := NewBackoffExecutor(testPolicy(3), zap.NewNop())
	ctx := context.Background()

	callCount := 0
	err := exec.Do(ctx, func(attempt int) error {
		callCount++
		assert.Equal(t, callCount, attempt, "attempt 应为 1-based 计数")
		return nil // 第一次就成功
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, callCount, "应该只调用一次")
}

func TestBackoffExecutor_RetryAndSuccess(t *testing.T) {
	exec := NewBackoffExecutor(testPolicy(3), zap.NewNop())
	ctx := context.Background()

	callCount := 0
	err := exec.Do(ctx, func(attempt int) error {
		callCount++
		if callCount < 3 {
			return errors.New("connection reset by peer") // 前两次失败
		}
		return nil // 第三次成功
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount, "应该调用三次")
}

func TestBackoffExecutor_MaxRetriesExceeded(t *testing.T) {
	exec := NewBackoffExecutor(testPolicy(2), zap.NewNop())
	ctx := context.Background()

	callCount := 0
	testErr := errors.New("request timed out")

	err := exec.Do(ctx, func(attempt int) error {
		callCount++
		return testErr
	})

	assert.Error(t, err)
	assert.ErrorIs(t, err, testErr, "应保留最后一次错误")
	assert.Equal(t, 3, callCount, "MaxRetries=2 时最多尝试 3 次")
}

func TestBackoffExecutor_NonRetryableError(t *testing.T) {
	exec := NewBackoffExecutor(testPolicy(5), zap.NewNop())
	ctx := context.Background()

	callCount := 0
	testErr := errors.New("invalid api key")

	err := exec.Do(ctx, func(attempt int) error {
		callCount++
		return testErr
	})

	assert.ErrorIs(t, err, testErr)
	assert.Equal(t, 1, callCount, "不可重试错误不应再次尝试")
}

func TestBackoffExecutor_SubstringMatchIsCaseInsensitive(t *testing.T) {
	policy := testPolicy(1)
	policy.RetryableMatch = []string{"Rate Limit"}
	exec := NewBackoffExecutor(policy, zap.NewNop())

	callCount := 0
	err := exec.Do(context.Background(), func(attempt int) error {
		callCount++
		return errors.New("upstream RATE LIMIT hit")
	})

	assert.Error(t, err)
	assert.Equal(t, 2, callCount)
}

func TestBackoffExecutor_ContextCancelled(t *testing.T) {
	policy := testPolicy(3)
	policy.InitialDelay = time.Second
	policy.MaxDelay = time.Second
	exec := NewBackoffExecutor(policy, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())

	callCount := 0
	done := make(chan error, 1)
	go func() {
		done <- exec.Do(ctx, func(attempt int) error {
			callCount++
			return errors.New("timeout")
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	err := <-done
	assert.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, callCount, "取消后不应再发起新尝试")
}

func TestBackoffExecutor_OnRetryCallback(t *testing.T) {
	var delays []time.Duration
	policy := testPolicy(2)
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		delays = append(delays, delay)
	}
	exec := NewBackoffExecutor(policy, zap.NewNop())

	_ = exec.Do(context.Background(), func(attempt int) error {
		return errors.New("status=503")
	})

	assert.Len(t, delays, 2)
	assert.GreaterOrEqual(t, delays[1], delays[0], "无抖动时延迟应单调不减")
}

func TestDoWithResultTyped(t *testing.T) {
	exec := NewBackoffExecutor(testPolicy(2), zap.NewNop())

	calls := 0
	val, err := DoWithResultTyped[string](exec, context.Background(), func(attempt int) (string, error) {
		calls++
		if attempt == 1 {
			return "", errors.New("status=502")
		}
		return "ok", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 2, calls)
}
