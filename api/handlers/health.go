package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// 🏥 健康与就绪探针
// =============================================================================

// HealthHandler 暴露存活、就绪与版本端点。就绪检查围绕流水线的
// 协作方注册：项目库是必需依赖，脚本缓存和本机 ffmpeg 是可选依赖，
// 可选依赖失联只把状态降为 degraded，不拒绝流量。
type HealthHandler struct {
	mu     sync.RWMutex
	logger *zap.Logger
	checks []readinessCheck
}

type readinessCheck struct {
	name     string
	check    func(ctx context.Context) error
	optional bool
}

// ServiceHealthResponse 健康端点的响应体。
type ServiceHealthResponse struct {
	Status    string                 `json:"status"` // healthy / degraded / unhealthy
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult 单项检查的结果。
type CheckResult struct {
	Status  string `json:"status"` // pass / fail
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// readyTimeout 限制一次就绪检查的总耗时。
const readyTimeout = 5 * time.Second

// NewHealthHandler 创建健康检查处理器。
func NewHealthHandler(logger *zap.Logger) *HealthHandler {
	return &HealthHandler{logger: logger}
}

// RegisterCheck 注册必需依赖的就绪检查，失败时 /ready 返回 503。
func (h *HealthHandler) RegisterCheck(name string, check func(ctx context.Context) error) {
	h.register(readinessCheck{name: name, check: check})
}

// RegisterOptionalCheck 注册可选依赖的就绪检查，失败只降级不拒绝流量。
func (h *HealthHandler) RegisterOptionalCheck(name string, check func(ctx context.Context) error) {
	h.register(readinessCheck{name: name, check: check, optional: true})
}

func (h *HealthHandler) register(c readinessCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, c)
}

// HandleHealth 处理 /health 请求
// @Summary 健康检查
// @Description 进程级健康检查，不探测外部依赖
// @Tags 健康
// @Produce json
// @Success 200 {object} ServiceHealthResponse "服务正常"
// @Router /health [get]
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, ServiceHealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}

// HandleHealthz 处理 /healthz 请求
// @Summary 存活探针
// @Description Kubernetes liveness 探针，进程活着即通过
// @Tags 健康
// @Produce json
// @Success 200 {object} ServiceHealthResponse "服务存活"
// @Router /healthz [get]
func (h *HealthHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, ServiceHealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}

// HandleReady 处理 /ready 与 /readyz 请求
// @Summary 就绪探针
// @Description 逐项执行已注册的依赖检查：必需依赖失败返回 503，可选依赖失败降级为 degraded
// @Tags 健康
// @Produce json
// @Success 200 {object} ServiceHealthResponse "可以接收流量"
// @Failure 503 {object} ServiceHealthResponse "必需依赖不可用"
// @Router /ready [get]
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	h.mu.RLock()
	checks := make([]readinessCheck, len(h.checks))
	copy(checks, h.checks)
	h.mu.RUnlock()

	resp := ServiceHealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	}
	if len(checks) > 0 {
		resp.Checks = make(map[string]CheckResult, len(checks))
	}

	requiredFailed, optionalFailed := false, false
	for _, c := range checks {
		start := time.Now()
		err := c.check(ctx)
		latency := time.Since(start)

		result := CheckResult{Status: "pass", Latency: latency.String()}
		if err != nil {
			result.Status = "fail"
			result.Message = err.Error()
			if c.optional {
				optionalFailed = true
			} else {
				requiredFailed = true
			}
			h.logger.Warn("就绪检查失败",
				zap.String("check", c.name),
				zap.Bool("optional", c.optional),
				zap.Duration("latency", latency),
				zap.Error(err),
			)
		}
		resp.Checks[c.name] = result
	}

	switch {
	case requiredFailed:
		resp.Status = "unhealthy"
		WriteJSON(w, http.StatusServiceUnavailable, resp)
	case optionalFailed:
		resp.Status = "degraded"
		WriteJSON(w, http.StatusOK, resp)
	default:
		WriteJSON(w, http.StatusOK, resp)
	}
}

// HandleVersion 处理 /version 请求
// @Summary 版本信息
// @Description 返回构建版本、构建时间与提交号
// @Tags 健康
// @Produce json
// @Success 200 {object} map[string]string "版本信息"
// @Router /version [get]
func (h *HealthHandler) HandleVersion(version, buildTime, gitCommit string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteSuccess(w, map[string]string{
			"version":    version,
			"build_time": buildTime,
			"git_commit": gitCommit,
		})
	}
}
