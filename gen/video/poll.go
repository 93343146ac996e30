package video

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/LavonTMCQ/autonomous-marketing/types"
)

// PollState 是异步视频任务的轮询状态机状态。
type PollState string

const (
	StateSubmitted PollState = "submitted"
	StatePolling   PollState = "polling"
	StateSucceeded PollState = "succeeded"
	StateFailed    PollState = "failed"
	StateTimedOut  PollState = "timed_out"
)

// checkFunc 查询一次远端任务。done=true 表示到达成功终态。
type checkFunc func(ctx context.Context) (done bool, err error)

// poller 以固定间隔执行有界轮询。两家后端的任务查询都经由它驱动，
// 超出 maxAttempts 次仍未到终态按处理错误对待，交给上层后端链处理。
type poller struct {
	interval    time.Duration
	maxAttempts int
	logger      *zap.Logger
}

func newPoller(interval time.Duration, maxAttempts int, logger *zap.Logger) *poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 60
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &poller{interval: interval, maxAttempts: maxAttempts, logger: logger}
}

// Run 驱动状态机直到终态、超出尝试上限或 ctx 取消。
// 返回终态、实际查询次数与触发错误。
func (p *poller) Run(ctx context.Context, backend string, check checkFunc) (PollState, int, error) {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return StatePolling, attempt - 1, ctx.Err()
		case <-time.After(p.interval):
		}

		done, err := check(ctx)
		if err != nil {
			p.logger.Warn("视频任务失败",
				zap.String("backend", backend),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return StateFailed, attempt, err
		}
		if done {
			p.logger.Debug("视频任务完成",
				zap.String("backend", backend),
				zap.Int("attempts", attempt),
			)
			return StateSucceeded, attempt, nil
		}
	}

	return StateTimedOut, p.maxAttempts, types.NewError(types.ErrPollTimedOut,
		"video task did not finish within poll budget").WithBackend(backend)
}
