package xttl

import "errors"

var (
	// ErrInvalidTTL 表示 TTL 配置无效。
	ErrInvalidTTL = errors.New("xttl: TTL must be positive")

	// ErrInvalidMaxSize 表示容量上限配置无效。
	ErrInvalidMaxSize = errors.New("xttl: max size must not be negative")

	// ErrInvalidSweepInterval 表示后台清理周期配置无效。
	ErrInvalidSweepInterval = errors.New("xttl: sweep interval must not be negative")
)
