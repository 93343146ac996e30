package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Manager 托管一个 HTTP 服务的生命周期：绑定端口、后台服务、优雅退场。
// API 服务与指标服务各持有一个实例，互不干扰。关闭后的实例不可复用。
type Manager struct {
	cfg    Config
	logger *zap.Logger
	srv    *http.Server
	errCh  chan error

	mu       sync.RWMutex
	listener net.Listener
	closed   bool
}

// Config 单个 HTTP 服务的监听与超时参数。
type Config struct {
	Addr            string        `yaml:"addr" json:"addr"`                         // 监听地址
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`         // 读取超时
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`       // 写入超时
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`         // 空闲连接超时
	MaxHeaderBytes  int           `yaml:"max_header_bytes" json:"max_header_bytes"` // 请求头大小上限
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"` // 优雅关闭时限
}

// DefaultConfig 返回默认监听参数。
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: 30 * time.Second,
	}
}

// NewManager 创建服务器管理器，此时尚未绑定端口。
func NewManager(handler http.Handler, cfg Config, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "http_server")),
		srv: &http.Server{
			Addr:           cfg.Addr,
			Handler:        handler,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			IdleTimeout:    cfg.IdleTimeout,
			MaxHeaderBytes: cfg.MaxHeaderBytes,
		},
		errCh: make(chan error, 1),
	}
}

// Start 绑定监听地址并在后台开始服务。绑定失败同步返回错误，
// 服务中的异步错误走 Errors 通道。
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.closed:
		return fmt.Errorf("server is closed")
	case m.listener != nil:
		return fmt.Errorf("server already started")
	}

	ln, err := net.Listen("tcp", m.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", m.cfg.Addr, err)
	}
	m.listener = ln

	m.logger.Info("HTTP 服务启动", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := m.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("HTTP 服务异常退出", zap.Error(err))
			select {
			case m.errCh <- err:
			default:
			}
		}
	}()
	return nil
}

// Shutdown 在配置时限内优雅关闭，在途请求处理完再退出。重复调用是无操作。
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.logger.Info("HTTP 服务开始关闭")

	if m.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.ShutdownTimeout)
		defer cancel()
	}

	if err := m.srv.Shutdown(ctx); err != nil {
		m.logger.Error("HTTP 服务关闭失败", zap.Error(err))
		return err
	}
	m.listener = nil

	m.logger.Info("HTTP 服务已停止")
	return nil
}

// WaitForShutdown 阻塞等待 SIGINT/SIGTERM 或服务自身的异常退出，
// 等到任一事件后执行优雅关闭。
func (m *Manager) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		m.logger.Info("收到关闭信号", zap.String("signal", sig.String()))
	case err := <-m.errCh:
		if err != nil {
			m.logger.Error("服务异常退出，转入关闭流程", zap.Error(err))
		}
	}

	if err := m.Shutdown(context.Background()); err != nil {
		m.logger.Error("关闭出错", zap.Error(err))
	}
}

// Errors 返回后台服务的异步错误通道。
func (m *Manager) Errors() <-chan error {
	return m.errCh
}

// Addr 返回配置的监听地址。
func (m *Manager) Addr() string {
	return m.cfg.Addr
}

// ListenAddr 返回实际绑定的地址。配置 ":0" 时即内核分配的端口，
// 未启动或已关闭时返回空串。
func (m *Manager) ListenAddr() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

// IsRunning 报告实例是否尚未关闭。
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.closed
}
