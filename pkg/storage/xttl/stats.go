package xttl

import "sync/atomic"

// stats 内部计数器。与条目集合之间只保证最终一致：
// 并发变更期间读到的快照可能与当时的条目数有瞬时偏差。
type stats struct {
	hits    atomic.Uint64
	misses  atomic.Uint64
	puts    atomic.Uint64
	evicted atomic.Uint64
	expired atomic.Uint64
}

// Stats 定义缓存的统计信息。
type Stats struct {
	// Hits 缓存命中次数。
	Hits uint64

	// Misses 缓存未命中次数（含读到已过期条目的情况）。
	Misses uint64

	// Puts 实际发生插入的 PutIfAbsent 次数（键已存在的调用不计入）。
	Puts uint64

	// Evicted 因容量上限被淘汰的条目数。
	Evicted uint64

	// Expired 因 TTL 过期被移除的条目数（惰性过期与后台清理之和）。
	Expired uint64
}

// Stats 返回缓存统计信息的快照。
func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Hits:    c.stats.hits.Load(),
		Misses:  c.stats.misses.Load(),
		Puts:    c.stats.puts.Load(),
		Evicted: c.stats.evicted.Load(),
		Expired: c.stats.expired.Load(),
	}
}
