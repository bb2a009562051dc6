package xttl

import (
	"cmp"
	"container/list"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/jonboulle/clockwork"
)

// defaultSweepInterval 后台清理的默认周期。
const defaultSweepInterval = time.Minute

// btreeDegree B 树的度。32 对典型的几千到几十万条目规模是合理的平衡点。
const btreeDegree = 32

// Config 定义缓存配置。
type Config struct {
	// TTL 条目过期时间，从首次插入时刻开始计算。
	// 必须大于 0。
	TTL time.Duration

	// MaxSize 缓存最大条目数。
	// 0 表示不保留任何条目（每次插入立即淘汰），不允许负值。
	MaxSize int

	// SweepInterval 后台清理周期。
	// 0 表示使用默认值 1 分钟，不允许负值。
	SweepInterval time.Duration
}

// entry 是 B 树中的条目：键、值和首次插入时间捆绑存储，
// 三者在同一临界区内增删，使键值、时间戳与插入顺序天然保持一致。
type entry[K cmp.Ordered, V any] struct {
	key        K
	value      V
	insertedAt time.Time
}

// Cache 是带 TTL 和容量上限的有序键值缓存。
// 必须通过 [New] 函数创建，零值不可用。
// 所有方法都是并发安全的。
type Cache[K cmp.Ordered, V any] struct {
	// mu 保护下方全部复合状态。值、时间戳与插入顺序跨越复合不变式，
	// 统一由这一把锁串行化，不存在嵌套加锁。
	mu    sync.Mutex
	tree  *btree.BTreeG[entry[K, V]]
	order *list.List          // 插入顺序，最旧在头部，元素为 K
	index map[K]*list.Element // key → 链表节点，按键删除 O(1)

	ttl       time.Duration
	maxSize   int
	clock     clockwork.Clock
	onEvicted func(key K, value V)
	stats     stats

	done      chan struct{}
	closeOnce sync.Once
}

// New 创建新的缓存并启动后台清理 goroutine。
// 如果 cfg.TTL <= 0，返回 ErrInvalidTTL。
// 如果 cfg.MaxSize < 0，返回 ErrInvalidMaxSize。
// 如果 cfg.SweepInterval < 0，返回 ErrInvalidSweepInterval。
//
// 使用完毕后应调用 Close() 停止清理 goroutine，避免泄漏。
func New[K cmp.Ordered, V any](cfg Config, opts ...Option[K, V]) (*Cache[K, V], error) {
	if cfg.TTL <= 0 {
		return nil, ErrInvalidTTL
	}
	if cfg.MaxSize < 0 {
		return nil, ErrInvalidMaxSize
	}
	if cfg.SweepInterval < 0 {
		return nil, ErrInvalidSweepInterval
	}

	o := &options[K, V]{
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	interval := cfg.SweepInterval
	if interval == 0 {
		interval = defaultSweepInterval
	}

	c := &Cache[K, V]{
		tree: btree.NewG(btreeDegree, func(a, b entry[K, V]) bool {
			return a.key < b.key
		}),
		order:     list.New(),
		index:     make(map[K]*list.Element),
		ttl:       cfg.TTL,
		maxSize:   cfg.MaxSize,
		clock:     o.clock,
		onEvicted: o.onEvicted,
		done:      make(chan struct{}),
	}

	go c.sweep(interval)

	return c, nil
}

// Get 获取缓存值。
// 读取前先对该键执行惰性过期检查：即使后台清理尚未运行，
// 调用方也不会读到超过 TTL 的值。
// 键不存在或已过期时返回零值和 false。
func (c *Cache[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeIfExpiredLocked(key)

	e, ok := c.tree.Get(entry[K, V]{key: key})
	if !ok {
		c.stats.misses.Add(1)
		return value, false
	}
	c.stats.hits.Add(1)
	return e.value, true
}

// PutIfAbsent 在键不存在时插入值，已存在时保留旧值不覆盖。
// 返回该键之前关联的值；之前无值时返回零值和 false。
//
// 返回时缓存条目数保证不超过 MaxSize：超限时按插入顺序淘汰最旧的条目。
// 调用方必须把淘汰视为每次插入都可能发生的副作用——本次调用
// 可能静默移除其他键的条目（MaxSize 为 0 时包括刚插入的键自身）。
//
// 键已存在时不会刷新其插入时间戳，也不会调整其在淘汰顺序中的位置。
func (c *Cache[K, V]) PutIfAbsent(key K, value V) (previous V, loaded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.tree.Get(entry[K, V]{key: key}); ok {
		previous, loaded = e.value, true
	} else {
		c.tree.ReplaceOrInsert(entry[K, V]{
			key:        key,
			value:      value,
			insertedAt: c.clock.Now(),
		})
		c.index[key] = c.order.PushBack(key)
		c.stats.puts.Add(1)
	}

	for c.order.Len() > c.maxSize {
		c.evictOldestLocked()
	}

	return previous, loaded
}

// Remove 删除指定键的条目。键不存在时为空操作。
// 显式删除不触发淘汰回调。
func (c *Cache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteLocked(key)
}

// RemoveWithPrefix 批量删除键的字符串形式以 prefix 的字符串形式开头、
// 且落在左闭右开区间 [prefix, prefixMax) 内的全部条目。
// 适合按层级命名空间批量失效（如某租户或会话下的全部子键），
// 无需枚举每个子键。
//
// 扫描按键升序进行，遇到区间内第一个不匹配前缀的键即停止。
// 这假定匹配前缀的键在区间起始处连续——当键为共享前缀的字符串、
// 且 prefixMax 取该前缀的字典序后继时成立。prefixMax 选取不当时
// 删除会提前终止，而不是报错。
func (c *Cache[K, V]) RemoveWithPrefix(prefix, prefixMax K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	want := fmt.Sprint(prefix)
	var victims []K
	c.tree.AscendRange(entry[K, V]{key: prefix}, entry[K, V]{key: prefixMax},
		func(e entry[K, V]) bool {
			if !strings.HasPrefix(fmt.Sprint(e.key), want) {
				return false
			}
			victims = append(victims, e.key)
			return true
		})

	// B 树迭代期间不可修改，先收集再删除。
	for _, key := range victims {
		c.deleteLocked(key)
	}
}

// Len 返回当前缓存条目数。
// 返回值可能包含已过期但尚未被惰性过期或后台清理移除的条目。
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Keys 返回所有键的切片，按插入顺序从最旧到最新排列。
// 返回值是快照，可能包含已过期但尚未被清理的条目的键。
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(K))
	}
	return keys
}

// Close 停止后台清理 goroutine。
// 该方法是幂等的：多次调用只会执行一次停止。
//
// Close 之后不再有任何主动过期发生，但缓存本身仍然可用：
// Get/PutIfAbsent/Remove 照常工作，Get 的惰性过期路径继续生效。
// Close 不会中断正在执行的清理 tick，也不影响进行中的其他调用。
func (c *Cache[K, V]) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// sweep 后台清理循环。首次执行在一个周期之后。
func (c *Cache[K, V]) sweep(interval time.Duration) {
	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.Chan():
			c.sweepOnce()
		}
	}
}

// sweepOnce 执行一次清理 tick：只检查插入顺序头部的一个条目，
// 过期则删除。无论结果如何，每次 tick 最多处理一个候选，
// 把单次 tick 的工作量约束为 O(1)，不对整个缓存做线性扫描。
func (c *Cache[K, V]) sweepOnce() {
	c.mu.Lock()
	defer c.mu.Unlock()

	front := c.order.Front()
	if front == nil {
		return
	}
	key := front.Value.(K)
	c.removeIfExpiredLocked(key)
}

// removeIfExpiredLocked 在持锁状态下检查并移除过期条目。
// 条目年龄 = 当前时间 - 首次插入时间；年龄达到 TTL 即视为过期。
func (c *Cache[K, V]) removeIfExpiredLocked(key K) {
	e, ok := c.tree.Get(entry[K, V]{key: key})
	if !ok {
		return
	}
	if c.clock.Now().Sub(e.insertedAt) < c.ttl {
		return
	}
	c.deleteLocked(key)
	c.stats.expired.Add(1)
	if c.onEvicted != nil {
		c.onEvicted(e.key, e.value)
	}
}

// evictOldestLocked 在持锁状态下淘汰插入顺序头部的条目。
// 调用方保证缓存非空。
func (c *Cache[K, V]) evictOldestLocked() {
	front := c.order.Front()
	key := front.Value.(K)

	e, ok := c.tree.Delete(entry[K, V]{key: key})
	c.order.Remove(front)
	delete(c.index, key)

	c.stats.evicted.Add(1)
	if ok && c.onEvicted != nil {
		c.onEvicted(e.key, e.value)
	}
}

// deleteLocked 在持锁状态下把键从全部三类状态中移除。
// 键不存在时为空操作。
func (c *Cache[K, V]) deleteLocked(key K) {
	if _, ok := c.tree.Delete(entry[K, V]{key: key}); !ok {
		return
	}
	if el, ok := c.index[key]; ok {
		c.order.Remove(el)
		delete(c.index, key)
	}
}
