package video

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/LavonTMCQ/autonomous-marketing/costs"
	"github.com/LavonTMCQ/autonomous-marketing/gen"
	"github.com/LavonTMCQ/autonomous-marketing/gen/retry"
	"github.com/LavonTMCQ/autonomous-marketing/internal/mediatools"
	"github.com/LavonTMCQ/autonomous-marketing/internal/metrics"
	"github.com/LavonTMCQ/autonomous-marketing/types"
)

// backend 是视频后端的内部抽象。Generate 返回片段字节与轮询次数。
type backend interface {
	Name() string
	Model() string
	SupportsEndFrame() bool
	Generate(ctx context.Context, req *gen.Request) ([]byte, int, error)
}

// Service 是视频片段的生成服务。
// 后端链：Veo（主，支持首帧+尾帧条件）→ Runway（备，仅首帧）→ 占位片段。
// 轮询超时按处理错误对待，备后端收到的是全新请求而非续接任务。
type Service struct {
	mu        sync.RWMutex
	cfg       Config
	policy    *retry.Policy
	limiter   *rate.Limiter
	estimator *costs.Estimator
	ledger    *costs.Ledger
	metrics   *metrics.Collector
	tools     *mediatools.Tools
	logger    *zap.Logger
}

// NewService 创建视频生成服务。tools 可为 nil，占位路径退化为静态桩文件。
func NewService(cfg Config, policy *retry.Policy, estimator *costs.Estimator, ledger *costs.Ledger, collector *metrics.Collector, tools *mediatools.Tools, logger *zap.Logger) *Service {
	if policy == nil {
		policy = retry.DefaultPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:       cfg,
		policy:    policy,
		limiter:   rate.NewLimiter(rate.Every(2*time.Second), 1),
		estimator: estimator,
		ledger:    ledger,
		metrics:   collector,
		tools:     tools,
		logger:    logger.With(zap.String("component", "video_service")),
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

	if cfg.Veo.APIKey != "" && !cfg.Veo.Disabled {
		primary = newVeoBackend(cfg.Veo, s.logger)
	}
	if cfg.Runway.APIKey != "" && !cfg.Runway.Disabled {
		fallback = newRunwayBackend(cfg.Runway, s.logger)
	}
	if primary == nil {
		primary, fallback = fallback, nil
	}
	return primary, fallback
}

// SupportsEndFrame 报告当前激活的主后端是否接受尾帧条件。
// 连续性引擎据此决定桥接模式是否可用。
func (s *Service) SupportsEndFrame() bool {
	primary, _ := s.resolve()
	return primary != nil && primary.SupportsEndFrame()
}

// Generate 生成一个视频片段并写入 req.OutputPath。
// 返回后目标路径上保证存在一个可用文件（最差为占位片段）。
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
			s.metrics.RecordFallback(string(types.MediaVideo))
			s.logger.Warn("主视频后端耗尽，切换备后端",
				zap.String("backend", b.Name()),
				zap.Error(chainErr),
			)
		}

		// 尾帧条件仅在后端支持时下发，否则静默降级为纯首帧请求
		call := *req
		if call.EndFrame != "" && !b.SupportsEndFrame() {
			s.logger.Info("后端不支持尾帧条件，按首帧请求处理",
				zap.String("backend", b.Name()),
			)
			call.EndFrame = ""
		}

		data, err := s.attempt(ctx, b, &call)
		if err != nil {
			chainErr = err
			s.metrics.RecordGeneration(string(types.MediaVideo), b.Name(), "error", time.Since(start))
			continue
		}

		if err := gen.WriteFileAtomic(req.OutputPath, data); err != nil {
			return nil, types.NewError(types.ErrResourceMissing, "failed to write clip").WithCause(err)
		}

		est := s.estimator.Video(b.Name(), b.Model(), req.Duration)
		s.ledger.Record(types.MediaVideo, b.Name(), b.Model(), est.Cost, map[string]string{"breakdown": est.Breakdown})
		s.metrics.RecordGeneration(string(types.MediaVideo), b.Name(), "success", time.Since(start))
		s.metrics.RecordCost(string(types.MediaVideo), b.Name(), b.Model(), est.Cost)

		return &gen.Result{
			AssetPath:    req.OutputPath,
			Backend:      b.Name(),
			Model:        b.Model(),
			Cost:         est.Cost,
			FallbackUsed: i == 1,
			CreatedAt:    time.Now(),
		}, nil
	}

	return s.placeholder(ctx, req, chainErr, start)
}

func (s *Service) attempt(ctx context.Context, b backend, req *gen.Request) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	policy := *s.policy
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		s.metrics.RecordRetry(string(types.MediaVideo), b.Name())
	}
	exec := retry.NewBackoffExecutor(&policy, s.logger)

	return retry.DoWithResultTyped[[]byte](exec, ctx, func(attempt int) ([]byte, error) {
		data, polls, err := b.Generate(ctx, req)
		if polls > 0 {
			s.metrics.RecordPollAttempts(b.Name(), polls)
		}
		return data, err
	})
}

// placeholder 产出占位片段：首帧可用且本机有 ffmpeg 时循环静帧成片，
// 否则写入静态桩文件。该路径永不失败。
func (s *Service) placeholder(ctx context.Context, req *gen.Request, cause error, start time.Time) (*gen.Result, error) {
	written := false
	if s.tools != nil && s.tools.Available() && len(req.ReferenceImages) > 0 {
		if err := s.tools.LoopImage(ctx, req.ReferenceImages[0], req.Duration, req.OutputPath); err != nil {
			s.logger.Warn("静帧占位片段生成失败，退化为桩文件", zap.Error(err))
		} else {
			written = true
		}
	}
	if !written {
		if err := gen.WriteFileAtomic(req.OutputPath, placeholderMP4()); err != nil {
			return nil, types.NewError(types.ErrResourceMissing, "failed to write placeholder clip").WithCause(err)
		}
	}

	s.ledger.Record(types.MediaVideo, gen.PlaceholderBackend, "", 0, nil)
	s.metrics.RecordPlaceholder(string(types.MediaVideo))
	s.metrics.RecordGeneration(string(types.MediaVideo), gen.PlaceholderBackend, "degraded", time.Since(start))
	s.logger.Warn("视频生成降级为占位片段", zap.String("path", req.OutputPath), zap.Error(cause))

	return &gen.Result{
		AssetPath:     req.OutputPath,
		Backend:       gen.PlaceholderBackend,
		Degraded:      true,
		DegradedCause: cause,
		CreatedAt:     time.Now(),
	}, nil
}

// placeholderMP4 返回一个最小的空 MP4 容器（仅 ftyp box）。
func placeholderMP4() []byte {
	return []byte{
		0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
		'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
		'i', 's', 'o', 'm', 'm', 'p', '4', '1',
	}
}
