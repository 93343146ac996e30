// 配置文件变更监听。
//
// 服务只监听一个配置文件：凭证改完落盘，下一个轮询周期回调即执行，
// 进程不必重启。
package config

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Watcher 轮询单个配置文件的修改时间，变更去抖后触发重载回调。
// 用 mtime 轮询而非 inotify：编辑器常见的"写临时文件再改名"
// 的原子保存同样能被捕捉，且跨平台行为一致。
type Watcher struct {
	mu        sync.Mutex
	path      string
	interval  time.Duration
	debounce  time.Duration
	callbacks []func()
	logger    *zap.Logger

	running bool
	stopCh  chan struct{}
	lastMod time.Time
	pending *time.Timer
}

// WatcherOption 调整 Watcher 的轮询参数。
type WatcherOption func(*Watcher)

// WithPollInterval 设置 mtime 轮询间隔。
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.interval = d
	}
}

// WithDebounce 设置去抖窗口，窗口内的连续写入合并为一次回调。
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithWatcherLogger 设置日志记录器。
func WithWatcherLogger(logger *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher 创建配置文件监听器。文件暂不存在不算错误，
// 创建出来之后的第一次轮询即触发重载。
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("watcher path is empty")
	}

	w := &Watcher{
		path:     path,
		interval: time.Second,
		debounce: 100 * time.Millisecond,
		stopCh:   make(chan struct{}),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}

	info, err := os.Stat(path)
	switch {
	case err == nil:
		w.lastMod = info.ModTime()
	case os.IsNotExist(err):
		w.logger.Warn("配置文件暂不存在，等待创建", zap.String("path", path))
	default:
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return w, nil
}

// OnReload 注册重载回调，Start 前后均可注册。
func (w *Watcher) OnReload(cb func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Path 返回被监听的文件路径。
func (w *Watcher) Path() string {
	return w.path
}

// Start 启动轮询（非阻塞）。重复启动是错误。
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	go w.loop(ctx)

	w.logger.Info("配置监听已启动",
		zap.String("path", w.path),
		zap.Duration("interval", w.interval),
	)
	return nil
}

// Stop 停止轮询，重复调用是无操作。
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)
	if w.pending != nil {
		w.pending.Stop()
	}
	w.logger.Info("配置监听已停止")
}

// IsRunning 报告监听器是否在运行。
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

// poll 比对 mtime，变化时重置去抖定时器。文件暂时消失按无变化处理，
// 重建后 mtime 必然不同，下一次轮询照样触发。
func (w *Watcher) poll() {
	info, err := os.Stat(w.path)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if info.ModTime().Equal(w.lastMod) {
		return
	}
	w.lastMod = info.ModTime()
	w.logger.Debug("检测到配置文件变更", zap.String("path", w.path))

	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(w.debounce, w.fire)
}

// fire 在去抖窗口收口后执行全部回调。
func (w *Watcher) fire() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	callbacks := make([]func(), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
}
