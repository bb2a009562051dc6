package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce 默认防抖时间，合并编辑器保存时的连续事件。
const defaultDebounce = 100 * time.Millisecond

// WatchCallback 配置变更回调。
// 每次重载尝试后调用一次，err 表示重载是否成功；
// 失败时 cfg 仍指向旧配置。
type WatchCallback func(cfg *Config, err error)

// WatchOption 定义监视器选项函数类型。
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
}

// WithDebounce 设置防抖时间。
// 在指定时间内的多次变更只触发一次重载，默认 100ms。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// Watcher 监视配置文件变更并自动重载。
// 通过 [Config.Watch] 创建；Stop 之后不再触发回调。
type Watcher struct {
	cfg      *Config
	fs       *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
	timer   *time.Timer // 防抖定时器，Stop 时需要取消
}

// Watch 创建配置文件监视器并在后台启动监视。
// 只支持从文件创建的 Config，从字节数据创建的返回 ErrNotReloadable。
//
// 监视的是配置文件所在目录而非文件本身：编辑器保存时可能先删后建
// 或写临时文件后 rename，直接监视文件会丢失事件。
func (c *Config) Watch(callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	if c.path == "" {
		return nil, ErrNotReloadable
	}

	o := watchOptions{debounce: defaultDebounce}
	for _, opt := range opts {
		opt(&o)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: failed to create watcher: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := fs.Add(dir); err != nil {
		closeErr := fs.Close()
		return nil, errors.Join(
			fmt.Errorf("xconf: failed to watch directory %s: %w", dir, err),
			closeErr,
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		cfg:      c,
		fs:       fs,
		callback: callback,
		debounce: o.debounce,
		ctx:      ctx,
		cancel:   cancel,
		running:  true,
	}
	go w.run()
	return w, nil
}

// Stop 停止监视。幂等，停止后不再触发回调。
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.cancel()
	return w.fs.Close()
}

// run 监视循环。
func (w *Watcher) run() {
	filename := filepath.Base(w.cfg.path)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(event, filename)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			if w.callback != nil {
				w.callback(w.cfg, fmt.Errorf("xconf: watch error: %w", err))
			}
		}
	}
}

// handleEvent 处理文件系统事件，带防抖。
func (w *Watcher) handleEvent(event fsnotify.Event, filename string) {
	if filepath.Base(event.Name) != filename {
		return
	}

	// Write: 直接修改；Create: 新建（部分编辑器）；
	// Rename: 原子写入模式（写临时文件后 rename）
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		err := w.cfg.Reload()
		if w.callback != nil {
			w.callback(w.cfg, err)
		}
	})
}
