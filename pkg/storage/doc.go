// Package storage 提供数据存储相关的子包。
//
// 子包列表：
//   - xttl: 有界 TTL 缓存，按插入顺序淘汰，支持前缀批量删除
//
// 设计原则：
//   - 泛型 API，键值类型在编译期确定
//   - 单锁保证多个内部结构的一致性
//   - 内置可观测性（OpenTelemetry 指标）
package storage
