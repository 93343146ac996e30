package image

import (
	"context"
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

// backend 是图像后端的内部抽象，返回生成图像的原始字节。
type backend interface {
	Name() string
	Model() string
	Generate(ctx context.Context, req *gen.Request) ([]byte, error)
}

// Service 是关键帧图像的生成服务。
// 每次调用都重新解析激活后端（凭据可能随时变化），依次尝试
// 主后端 → 备后端 → 占位图像；占位路径永不失败。
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

// NewService 创建图像生成服务。
func NewService(cfg Config, policy *retry.Policy, estimator *costs.Estimator, ledger *costs.Ledger, collector *metrics.Collector, logger *zap.Logger) *Service {
	if policy == nil {
		policy = retry.DefaultPolicy()
	}
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
		logger:    logger.With(zap.String("component", "image_service")),
	}
}

// UpdateConfig 替换后端凭据，下一次调用即按新凭据解析激活链。
func (s *Service) UpdateConfig(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// resolve 按调用时的实时配置决定激活后端链。
// 仅配置了备后端时，备后端直接充当主后端。
func (s *Service) resolve() (primary, fallback backend) {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()

	if cfg.Gemini.APIKey != "" && !cfg.Gemini.Disabled {
		primary = newGeminiBackend(cfg.Gemini)
	}
	if cfg.OpenAI.APIKey != "" && !cfg.OpenAI.Disabled {
		fallback = newOpenAIBackend(cfg.OpenAI)
	}
	if primary == nil {
		primary, fallback = fallback, nil
	}
	return primary, fallback
}

// Generate 生成一张关键帧并写入 req.OutputPath。
// 返回后目标路径上保证存在一个可用资产（最差为占位图）。
func (s *Service) Generate(ctx context.Context, req *gen.Request) (*gen.Result, error) {
	if req == nil || req.OutputPath == "" {
		return nil, types.NewError(types.ErrResourceMissing, "output path is required").WithHTTPStatus(400)
	}
	if len(req.ReferenceImages) > gen.MaxReferenceImages {
		return nil, types.NewError(types.ErrInvalidRequest, "too many reference images").WithHTTPStatus(400)
	}

	start := time.Now()
	primary, fallback := s.resolve()

	var chainErr error
	for i, b := range []backend{primary, fallback} {
		if b == nil {
			continue
		}
		if i == 1 {
			s.metrics.RecordFallback(string(types.MediaImage))
			s.logger.Warn("主图像后端耗尽，切换备后端",
				zap.String("backend", b.Name()),
				zap.Error(chainErr),
			)
		}

		data, err := s.attempt(ctx, b, req)
		if err != nil {
			chainErr = err
			s.metrics.RecordGeneration(string(types.MediaImage), b.Name(), "error", time.Since(start))
			continue
		}

		if err := gen.WriteFileAtomic(req.OutputPath, data); err != nil {
			return nil, types.NewError(types.ErrResourceMissing, "failed to write keyframe").WithCause(err)
		}

		est := s.estimator.Image(b.Name(), b.Model(), 1)
		s.ledger.Record(types.MediaImage, b.Name(), b.Model(), est.Cost, map[string]string{"breakdown": est.Breakdown})
		s.metrics.RecordGeneration(string(types.MediaImage), b.Name(), "success", time.Since(start))
		s.metrics.RecordCost(string(types.MediaImage), b.Name(), b.Model(), est.Cost)

		return &gen.Result{
			AssetPath:    req.OutputPath,
			Backend:      b.Name(),
			Model:        b.Model(),
			Cost:         est.Cost,
			FallbackUsed: i == 1,
			CreatedAt:    time.Now(),
		}, nil
	}

	return s.placeholder(req, chainErr, start)
}

// attempt 经弹性执行器调用单个后端。
func (s *Service) attempt(ctx context.Context, b backend, req *gen.Request) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	policy := *s.policy
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		s.metrics.RecordRetry(string(types.MediaImage), b.Name())
	}
	exec := retry.NewBackoffExecutor(&policy, s.logger)

	return retry.DoWithResultTyped[[]byte](exec, ctx, func(attempt int) ([]byte, error) {
		return b.Generate(ctx, req)
	})
}

// placeholder 写入 1×1 占位图。该路径永不失败（除非目标路径不可写）。
func (s *Service) placeholder(req *gen.Request, cause error, start time.Time) (*gen.Result, error) {
	if err := gen.WriteFileAtomic(req.OutputPath, placeholderPNG()); err != nil {
		return nil, types.NewError(types.ErrResourceMissing, "failed to write placeholder keyframe").WithCause(err)
	}

	s.ledger.Record(types.MediaImage, gen.PlaceholderBackend, "", 0, nil)
	s.metrics.RecordPlaceholder(string(types.MediaImage))
	s.metrics.RecordGeneration(string(types.MediaImage), gen.PlaceholderBackend, "degraded", time.Since(start))
	s.logger.Warn("图像生成降级为占位图", zap.String("path", req.OutputPath), zap.Error(cause))

	return &gen.Result{
		AssetPath:     req.OutputPath,
		Backend:       gen.PlaceholderBackend,
		FallbackUsed:  false,
		Degraded:      true,
		DegradedCause: cause,
		CreatedAt:     time.Now(),
	}, nil
}
