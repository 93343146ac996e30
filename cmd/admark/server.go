package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LavonTMCQ/autonomous-marketing/api/handlers"
	"github.com/LavonTMCQ/autonomous-marketing/config"
	"github.com/LavonTMCQ/autonomous-marketing/continuity"
	"github.com/LavonTMCQ/autonomous-marketing/costs"
	"github.com/LavonTMCQ/autonomous-marketing/gen/image"
	"github.com/LavonTMCQ/autonomous-marketing/gen/text"
	"github.com/LavonTMCQ/autonomous-marketing/gen/video"
	"github.com/LavonTMCQ/autonomous-marketing/internal/cache"
	"github.com/LavonTMCQ/autonomous-marketing/internal/mediatools"
	"github.com/LavonTMCQ/autonomous-marketing/internal/metrics"
	"github.com/LavonTMCQ/autonomous-marketing/internal/server"
	"github.com/LavonTMCQ/autonomous-marketing/pipeline"
	"github.com/LavonTMCQ/autonomous-marketing/store"
	"github.com/LavonTMCQ/autonomous-marketing/styles"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 admark 的主服务器
type Server struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	// 存储、缓存与本机媒体工具
	store        *store.Store
	cacheManager *cache.Manager
	tools        *mediatools.Tools

	// 生成服务（凭证热更新的目标）
	textSvc  *text.Service
	imageSvc *image.Service
	videoSvc *video.Service

	// 编排与台账
	orchestrator *pipeline.Orchestrator
	ledger       *costs.Ledger

	// Handlers
	healthHandler   *handlers.HealthHandler
	projectHandler  *handlers.ProjectHandler
	pipelineHandler *handlers.PipelineHandler
	costsHandler    *handlers.CostsHandler
	stylesHandler   *handlers.StylesHandler

	// 指标收集器
	metricsCollector *metrics.Collector

	// 配置文件监听器（凭证热更新）
	watcher *config.Watcher

	// Rate limiter 生命周期管理
	rateLimiterCancel context.CancelFunc
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, configPath string, logger *zap.Logger) *Server {
	return &Server{
		cfg:        cfg,
		configPath: configPath,
		logger:     logger,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 启动所有服务
func (s *Server) Start() error {
	// 1. 初始化指标收集器
	s.metricsCollector = metrics.NewCollector("admark", s.logger)

	// 2. 初始化流水线（存储、生成服务、编排器）
	if err := s.initPipeline(); err != nil {
		return fmt.Errorf("failed to init pipeline: %w", err)
	}

	// 3. 初始化 Handlers
	s.initHandlers()

	// 4. 启动配置文件监听器
	if err := s.startWatcher(); err != nil {
		return fmt.Errorf("failed to start config watcher: %w", err)
	}

	// 5. 启动 HTTP 服务器
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	// 6. 启动 Metrics 服务器
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Bool("hot_reload_enabled", s.configPath != ""),
	)

	return nil
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

// initPipeline 初始化存储、生成服务与编排器
func (s *Server) initPipeline() error {
	st, err := store.Open(s.cfg.Data.DatabasePath, s.cfg.Data.Dir, s.logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	s.store = st

	tools := mediatools.Detect(s.logger)
	s.tools = tools

	policy := s.cfg.RetryPolicy()
	estimator := costs.NewEstimator()
	s.ledger = costs.NewLedger(s.logger)

	s.textSvc = text.NewService(s.cfg.TextService(), policy, estimator, s.ledger, s.metricsCollector, s.logger)
	s.imageSvc = image.NewService(s.cfg.ImageService(), policy, estimator, s.ledger, s.metricsCollector, s.logger)
	s.videoSvc = video.NewService(s.cfg.VideoService(), policy, estimator, s.ledger, s.metricsCollector, tools, s.logger)

	engine := continuity.NewEngine(tools, s.store.FramesDir(), s.logger)
	library := styles.NewLibrary(s.cfg.Data.StylesDir, nil, s.logger)

	opts := pipeline.Options{
		Stitcher: tools,
		Styles:   library,
		Metrics:  s.metricsCollector,
	}

	// 脚本缓存按需启用
	if s.cfg.Redis.Addr != "" {
		manager, err := cache.NewManager(cache.Config{
			Addr:       s.cfg.Redis.Addr,
			Password:   s.cfg.Redis.Password,
			DB:         s.cfg.Redis.DB,
			PoolSize:   s.cfg.Redis.PoolSize,
			DefaultTTL: s.cfg.Pipeline.ScriptCacheTTL,
		}, s.logger)
		if err != nil {
			s.logger.Warn("Redis not available, script cache disabled", zap.Error(err))
		} else {
			s.cacheManager = manager
			opts.Cache = cache.NewScriptCache(manager, s.cfg.Pipeline.ScriptCacheTTL, s.metricsCollector, s.logger)
			s.logger.Info("Script cache enabled", zap.String("addr", s.cfg.Redis.Addr))
		}
	}

	s.orchestrator = pipeline.NewOrchestrator(s.store, s.textSvc, s.imageSvc, s.videoSvc, engine, opts, s.logger)

	s.stylesHandler = handlers.NewStylesHandler(library, s.logger)
	return nil
}

// initHandlers 初始化所有 handlers
func (s *Server) initHandlers() {
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	// 项目库是必需依赖；缓存与 ffmpeg 失联只降级，流水线本身能继续跑
	s.healthHandler.RegisterCheck("sqlite", s.store.Ping)
	if s.cacheManager != nil {
		s.healthHandler.RegisterOptionalCheck("redis", s.cacheManager.Ping)
	}
	s.healthHandler.RegisterOptionalCheck("ffmpeg", func(ctx context.Context) error {
		if !s.tools.Available() {
			return fmt.Errorf("ffmpeg not found in PATH")
		}
		return nil
	})

	s.projectHandler = handlers.NewProjectHandler(s.store, s.cfg.Pipeline, s.logger)
	s.pipelineHandler = handlers.NewPipelineHandler(s.orchestrator, s.logger)
	s.costsHandler = handlers.NewCostsHandler(s.ledger, s.logger)

	s.logger.Info("Handlers initialized")
}

// startWatcher 启动配置文件监听器。
// 配置文件变更时整体重载并把新的后端凭证推给三个生成服务，
// 正在执行的调用不受影响，下一次 resolve 即读到新凭证。
func (s *Server) startWatcher() error {
	if s.configPath == "" {
		return nil
	}

	watcher, err := config.NewWatcher(s.configPath,
		config.WithWatcherLogger(s.logger),
	)
	if err != nil {
		return err
	}

	watcher.OnReload(func() {
		s.logger.Info("Config file changed", zap.String("path", s.configPath))

		cfg, err := config.NewLoader().WithConfigPath(s.configPath).Load()
		if err != nil {
			s.logger.Error("Config reload failed, keeping previous config", zap.Error(err))
			return
		}
		if err := cfg.Validate(); err != nil {
			s.logger.Error("Reloaded config invalid, keeping previous config", zap.Error(err))
			return
		}

		s.cfg = cfg
		s.textSvc.UpdateConfig(cfg.TextService())
		s.imageSvc.UpdateConfig(cfg.ImageService())
		s.videoSvc.UpdateConfig(cfg.VideoService())
		s.logger.Info("Backend credentials reloaded")
	})

	if err := watcher.Start(context.Background()); err != nil {
		return err
	}
	s.watcher = watcher
	return nil
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

// startHTTPServer 启动 HTTP 服务器
func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	// ========================================
	// 健康检查端点
	// ========================================
	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReady)

	// 版本信息端点
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// ========================================
	// 项目 API
	// ========================================
	mux.HandleFunc("POST /api/v1/projects", s.projectHandler.HandleCreate)
	mux.HandleFunc("GET /api/v1/projects", s.projectHandler.HandleList)
	mux.HandleFunc("GET /api/v1/projects/{id}", s.projectHandler.HandleGet)
	mux.HandleFunc("DELETE /api/v1/projects/{id}", s.projectHandler.HandleDelete)

	// ========================================
	// 流水线 API
	// ========================================
	mux.HandleFunc("POST /api/v1/projects/{id}/script", s.pipelineHandler.HandleGenerateScript)
	mux.HandleFunc("POST /api/v1/projects/{id}/storyboard", s.pipelineHandler.HandleBuildStoryboard)
	mux.HandleFunc("POST /api/v1/projects/{id}/keyframes", s.pipelineHandler.HandleGenerateKeyframes)
	mux.HandleFunc("POST /api/v1/projects/{id}/clips", s.pipelineHandler.HandleGenerateClips)
	mux.HandleFunc("POST /api/v1/projects/{id}/shots/{shotID}/keyframe", s.pipelineHandler.HandleGenerateKeyframe)
	mux.HandleFunc("POST /api/v1/projects/{id}/shots/{shotID}/clip", s.pipelineHandler.HandleGenerateClip)
	mux.HandleFunc("POST /api/v1/projects/{id}/shots/{shotID}/rollback", s.pipelineHandler.HandleRollback)
	mux.HandleFunc("POST /api/v1/projects/{id}/export", s.pipelineHandler.HandleExport)

	// ========================================
	// 成本与风格 API
	// ========================================
	mux.HandleFunc("GET /api/v1/costs", s.costsHandler.HandleSummary)
	mux.HandleFunc("POST /api/v1/costs/reset", s.costsHandler.HandleReset)
	mux.HandleFunc("GET /api/v1/styles", s.stylesHandler.HandleList)

	// ========================================
	// 构建中间件链
	// ========================================
	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel
	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.metricsCollector),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(rateLimiterCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger),
	)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	// 启动服务器（非阻塞）
	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

// =============================================================================
// 📊 Metrics 服务器
// =============================================================================

// startMetricsServer 启动 Metrics 服务器
func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)

	// 启动服务器（非阻塞）
	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 等待关闭信号并优雅关闭
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}

	s.Shutdown()
}

// Shutdown 优雅关闭所有服务
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()

	// 0. 停止 rate limiter 清理 goroutine
	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	// 1. 停止配置文件监听器
	if s.watcher != nil {
		s.watcher.Stop()
	}

	// 2. 两个 HTTP 服务器并行关闭
	g, gctx := errgroup.WithContext(ctx)
	if s.httpManager != nil {
		g.Go(func() error { return s.httpManager.Shutdown(gctx) })
	}
	if s.metricsManager != nil {
		g.Go(func() error { return s.metricsManager.Shutdown(gctx) })
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("Server shutdown error", zap.Error(err))
	}

	// 3. 关闭缓存连接
	if s.cacheManager != nil {
		if err := s.cacheManager.Close(); err != nil {
			s.logger.Error("Cache shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("Graceful shutdown completed")
}
