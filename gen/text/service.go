package text

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/LavonTMCQ/autonomous-marketing/costs"
	"github.com/LavonTMCQ/autonomous-marketing/gen"
	"github.com/LavonTMCQ/autonomous-marketing/gen/retry"
	"github.com/LavonTMCQ/autonomous-marketing/internal/metrics"
	"github.com/LavonTMCQ/autonomous-marketing/types"
)

// backend 是脚本后端的内部抽象。
type backend interface {
	Name() string
	Model() string
	GenerateScript(ctx context.Context, prompt string) (*types.Script, error)
}

// Service 是营销脚本的生成服务。
// 后端链与关键帧服务一致：主后端 → 备后端 → 占位脚本。
// 模型输出缺段按处理错误对待，走同一重试/降级通道。
type Service struct {
	mu        sync.RWMutex
	cfg       Config
	policy    *retry.Policy
	limiter   *rate.Limiter
	estimator *costs.Estimator
	ledger    *costs.Ledger
	metrics   *metrics.Collector
	logger    *zap.Logger
}

// NewService 创建脚本生成服务。
func NewService(cfg Config, policy *retry.Policy, estimator *costs.Estimator, ledger *costs.Ledger, collector *metrics.Collector, logger *zap.Logger) *Service {
	if policy == nil {
		policy = retry.DefaultPolicy()
	}
	// 缺段/非 JSON 输出同样值得重试，模型下一次往往就对了。
	// 策略可能与其他服务共享，追加前先整体拷贝。
	own := *policy
	own.RetryableMatch = append(append([]string(nil), policy.RetryableMatch...), "malformed")
	policy = &own
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:       cfg,
		policy:    policy,
		limiter:   rate.NewLimiter(rate.Every(time.Second), 2),
		estimator: estimator,
		ledger:    ledger,
		metrics:   collector,
		logger:    logger.With(zap.String("component", "text_service")),
	}
}

// UpdateConfig 替换后端凭据，下一次调用即按新凭据解析激活链。
func (s *Service) UpdateConfig(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *Service) resolve() (primary, fallback backend) {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()

	if cfg.OpenAI.APIKey != "" && !cfg.OpenAI.Disabled {
		primary = newOpenAIBackend(cfg.OpenAI)
	}
	if cfg.Gemini.APIKey != "" && !cfg.Gemini.Disabled {
		fallback = newGeminiBackend(cfg.Gemini)
	}
	if primary == nil {
		primary, fallback = fallback, nil
	}
	return primary, fallback
}

// Generate 生成四段式脚本。req.OutputPath 非空时脚本 JSON 会落盘。
// 两级后端全部耗尽时返回占位脚本，四段保证非空。
func (s *Service) Generate(ctx context.Context, req *gen.Request) (*gen.Result, *types.Script, error) {
	if req == nil || req.Prompt == "" {
		return nil, nil, types.NewError(types.ErrInvalidRequest, "prompt is required").WithHTTPStatus(400)
	}

	start := time.Now()
	primary, fallback := s.resolve()

	var chainErr error
	for i, b := range []backend{primary, fallback} {
		if b == nil {
			continue
		}
		if i == 1 {
			s.metrics.RecordFallback(string(types.MediaText))
			s.logger.Warn("主脚本后端耗尽，切换备后端",
				zap.String("backend", b.Name()),
				zap.Error(chainErr),
			)
		}

		script, err := s.attempt(ctx, b, req.Prompt)
		if err != nil {
			chainErr = err
			s.metrics.RecordGeneration(string(types.MediaText), b.Name(), "error", time.Since(start))
			continue
		}

		if err := s.persist(req.OutputPath, script); err != nil {
			return nil, nil, err
		}

		est := s.estimator.Text(b.Name(), b.Model(), req.Prompt+systemPrompt)
		s.ledger.Record(types.MediaText, b.Name(), b.Model(), est.Cost, map[string]string{"breakdown": est.Breakdown})
		s.metrics.RecordGeneration(string(types.MediaText), b.Name(), "success", time.Since(start))
		s.metrics.RecordCost(string(types.MediaText), b.Name(), b.Model(), est.Cost)

		return &gen.Result{
			AssetPath:    req.OutputPath,
			Backend:      b.Name(),
			Model:        b.Model(),
			Cost:         est.Cost,
			FallbackUsed: i == 1,
			CreatedAt:    time.Now(),
		}, script, nil
	}

	return s.placeholder(req, chainErr, start)
}

func (s *Service) attempt(ctx context.Context, b backend, prompt string) (*types.Script, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	policy := *s.policy
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		s.metrics.RecordRetry(string(types.MediaText), b.Name())
	}
	exec := retry.NewBackoffExecutor(&policy, s.logger)

	return retry.DoWithResultTyped[*types.Script](exec, ctx, func(attempt int) (*types.Script, error) {
		return b.GenerateScript(ctx, prompt)
	})
}

func (s *Service) persist(path string, script *types.Script) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(script, "", "  ")
	if err != nil {
		return types.NewError(types.ErrInternalError, "failed to encode script").WithCause(err)
	}
	if err := gen.WriteFileAtomic(path, data); err != nil {
		return types.NewError(types.ErrResourceMissing, "failed to write script").WithCause(err)
	}
	return nil
}

// placeholder 返回保底脚本，四段围绕原始提示词填充，永不失败。
func (s *Service) placeholder(req *gen.Request, cause error, start time.Time) (*gen.Result, *types.Script, error) {
	script := placeholderScript(req.Prompt)
	if err := s.persist(req.OutputPath, script); err != nil {
		return nil, nil, err
	}

	s.ledger.Record(types.MediaText, gen.PlaceholderBackend, "", 0, nil)
	s.metrics.RecordPlaceholder(string(types.MediaText))
	s.metrics.RecordGeneration(string(types.MediaText), gen.PlaceholderBackend, "degraded", time.Since(start))
	s.logger.Warn("脚本生成降级为占位脚本", zap.Error(cause))

	return &gen.Result{
		AssetPath:     req.OutputPath,
		Backend:       gen.PlaceholderBackend,
		Degraded:      true,
		DegradedCause: cause,
		CreatedAt:     time.Now(),
	}, script, nil
}

func placeholderScript(prompt string) *types.Script {
	subject := prompt
	// 按 rune 截断，简介里有中文时不能切在多字节序列中间
	if r := []rune(subject); len(r) > 60 {
		subject = string(r[:60])
	}
	return &types.Script{
		Hook:     "Stop scrolling. This changes everything about " + subject + ".",
		Problem:  "You've been settling for less and paying more for it.",
		Solution: subject + " fixes that in one step, no learning curve.",
		CTA:      "Tap the link and try it today.",
	}
}
