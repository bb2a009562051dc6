package xttl

import (
	"cmp"

	"github.com/jonboulle/clockwork"
)

// Option 定义缓存可选配置函数类型。
type Option[K cmp.Ordered, V any] func(*options[K, V])

// options 内部可选配置。
type options[K cmp.Ordered, V any] struct {
	clock     clockwork.Clock
	onEvicted func(key K, value V)
}

// WithClock 设置时间源。
// 默认使用系统时钟（clockwork.NewRealClock）。
// 测试中可注入 clockwork.NewFakeClock 以推进逻辑时间，
// 验证 TTL 过期和后台清理行为，无需真实等待。
func WithClock[K cmp.Ordered, V any](clock clockwork.Clock) Option[K, V] {
	return func(o *options[K, V]) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithOnEvicted 设置条目被缓存自动移除时的回调函数。
// 回调在容量淘汰和 TTL 过期（惰性过期与后台清理）时触发，
// 显式 Remove/RemoveWithPrefix 不触发。
//
// 设计决策: 回调在缓存互斥锁内同步执行。调用方必须遵守以下约束：
//   - 严禁在回调中调用 Cache 自身的任何方法（Get/PutIfAbsent/Remove 等），否则会死锁
//   - 应避免耗时操作（如网络 I/O），以免阻塞其他并发操作
//   - 如需在回调中执行复杂逻辑，应将事件发送到外部 channel 异步处理
func WithOnEvicted[K cmp.Ordered, V any](fn func(key K, value V)) Option[K, V] {
	return func(o *options[K, V]) {
		o.onEvicted = fn
	}
}
