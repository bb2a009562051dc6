// Package xttl 提供带 TTL 和容量上限的有序键值缓存。
//
// xttl 同时执行两个相互独立的淘汰策略：条目级 TTL 过期和缓存条目数硬上限。
// 与 LRU 缓存不同，容量淘汰按插入顺序选择牺牲者（近似 FIFO），
// 读取不会刷新条目的位置或时间戳。
//
// # 核心特性
//
//   - 泛型支持：键类型约束为 cmp.Ordered，值类型任意
//   - TTL 过期：Get 触发惰性过期 + 后台周期清理（每个周期只检查最旧的一个条目）
//   - 容量上限：PutIfAbsent 返回时条目数保证不超过 MaxSize，超限时按插入顺序淘汰最旧条目
//   - 前缀批量删除：键有序存储（B 树），RemoveWithPrefix 可按字典序区间批量失效
//   - PutIfAbsent 语义：值已存在时不覆盖，返回旧值
//   - 并发安全：所有操作都是线程安全的
//
// # 使用场景
//
//   - Token、Session 等有时效性数据的进程内缓存
//   - 按层级命名的键空间（如 "tenant/session/..."），需要按前缀批量失效
//   - 需要确定性淘汰顺序（插入序而非访问序）的场景
//
// # 淘汰顺序
//
// 插入顺序由一条双向链表记录（最旧在头部），配合 key→节点 索引，
// 头部淘汰和按键删除均为 O(1)。PutIfAbsent 命中已存在的键时不会把该键
// 移到链表尾部：条目保持首次插入时的位置和时间戳（无 refresh 语义）。
//
// # 后台清理
//
// 构造时启动唯一一个清理 goroutine，默认周期 1 分钟（首次执行在 1 个周期后）。
// 每次 tick 只检查插入顺序头部的一个条目，过期则删除。
// 这是有意的权衡：单次 tick 的工作量为 O(1)，不做全量扫描；
// 大批量过期的条目由后续的 Get 惰性回收，或在成为新头部后由后续 tick 回收。
//
// # 并发模型
//
// 值存储、时间戳与插入顺序三类状态跨越复合不变式，统一捆绑在一个结构体内，
// 由单把互斥锁保护（粗粒度锁）。所有操作全局串行化，
// 换取不变式维护的简单性。临界区开销除 RemoveWithPrefix（O(匹配键数)）外
// 均为 O(1) 摊还，无外部 I/O。
//
// # 注意事项
//
//   - TTL 从首次 PutIfAbsent 时刻开始计算，Get 和重复 PutIfAbsent 均不刷新
//   - Close 只停止后台清理 goroutine，Get/PutIfAbsent/Remove 和惰性过期继续可用
//   - Close 是幂等的，不会中断正在执行的 tick
//   - RemoveWithPrefix 假定匹配前缀的键在区间内连续，遇到第一个不匹配的键即停止扫描，
//     prefixMax 的选取由调用方负责（通常为前缀的字典序后继）
//   - 淘汰回调在锁内同步执行，严禁在回调中调用 Cache 自身方法（会死锁）
package xttl
