package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/cachekit/pkg/config/xconf"
)

// settings 是缓存的运行参数。
type settings struct {
	TTL           time.Duration `koanf:"ttl"`
	MaxSize       int           `koanf:"max_size"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// defaultSettings 内置默认值。
var defaultSettings = settings{
	TTL:           5 * time.Minute,
	MaxSize:       1000,
	SweepInterval: time.Minute,
}

// resolveSettings 按优先级合并运行参数:
// 命令行显式指定 > 配置文件 cache 段 > 内置默认值。
func resolveSettings(cmd *cli.Command) (settings, error) {
	s := defaultSettings

	if path := cmd.String("config"); path != "" {
		cfg, err := xconf.Load(path)
		if err != nil {
			return settings{}, &usageError{err: err}
		}
		if err := cfg.Unmarshal("cache", &s); err != nil {
			return settings{}, &usageError{err: err}
		}
	}

	if cmd.IsSet("ttl") {
		s.TTL = cmd.Duration("ttl")
	}
	if cmd.IsSet("max-size") {
		s.MaxSize = cmd.Int("max-size")
	}
	if cmd.IsSet("sweep-interval") {
		s.SweepInterval = cmd.Duration("sweep-interval")
	}

	if s.TTL <= 0 {
		return settings{}, &usageError{err: fmt.Errorf("ttl 必须大于 0, 实际为 %s", s.TTL)}
	}
	if s.MaxSize < 0 {
		return settings{}, &usageError{err: fmt.Errorf("max-size 不允许负值, 实际为 %d", s.MaxSize)}
	}

	return s, nil
}
