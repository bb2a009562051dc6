// Package xconf 提供配置文件的加载、解析和热重载，基于 koanf 实现。
//
// # 设计理念
//
// xconf 定位为最小化配置加载器：负责文件/字节数据的加载、
// 类型安全的反序列化和变更监视。不负责配置治理
// （必选字段校验、默认值注入、环境变量覆盖），这些由调用方按需实现。
//
// # 支持的格式
//
//   - YAML（默认，推荐）：.yaml, .yml
//   - JSON：.json
//
// 从文件加载时按扩展名自动检测格式；从字节数据加载时需显式指定。
//
// # 并发安全
//
// Reload 通过互斥锁序列化，解析成功后整体替换内部 koanf 实例；
// 解析失败时保留旧配置，不会出现半更新状态。
// Unmarshal 与 Reload 可以并发调用。
//
// # 热重载
//
// Watch 基于 fsnotify 监视配置文件所在目录（而非文件本身，
// 以兼容编辑器的原子写入模式），带防抖合并，变更后自动 Reload
// 并通过回调通知调用方。
package xconf
