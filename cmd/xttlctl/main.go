// xttlctl 是 cachekit 的命令行演练工具。
//
// 用法:
//
//	xttlctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config          配置文件路径 (.yaml/.json，可选)
//	    --ttl             条目过期时间 (默认: 5m)
//	    --max-size        缓存最大条目数 (默认: 1000)
//	    --sweep-interval  后台清理周期 (默认: 1m)
//
// 命令:
//
//	demo    按脚本演示缓存语义（插入、不覆盖、前缀删除、容量淘汰、TTL 过期）
//	bench   并发压测并输出统计信息
//	help    显示帮助信息
//
// 配置优先级: 命令行显式指定 > 配置文件 > 内置默认值。
// 配置文件格式:
//
//	cache:
//	  ttl: 5m
//	  max_size: 1000
//	  sweep_interval: 1m
//
// 退出码:
//
//	0: 命令执行成功
//	1: 命令执行失败
//	2: 参数错误（无效配置、未知命令等）
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "xttlctl",
		Usage:   "cachekit 缓存演练工具",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径 (.yaml/.json)",
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "条目过期时间",
				Value: defaultSettings.TTL,
			},
			&cli.IntFlag{
				Name:  "max-size",
				Usage: "缓存最大条目数",
				Value: defaultSettings.MaxSize,
			},
			&cli.DurationFlag{
				Name:  "sweep-interval",
				Usage: "后台清理周期",
				Value: defaultSettings.SweepInterval,
			},
		},
		Commands:       createCommands(),
		DefaultCommand: "help",
		Authors: []any{
			"cachekit Team",
		},
		// 设计决策: 禁止 urfave/cli 直接调用 os.Exit，
		// 由 run() 统一处理退出码映射，确保与文档退出码契约一致。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
	}
}

// usageError 表示参数错误，映射到退出码 2。
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func run() int {
	app := createApp()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		if _, ok := err.(cli.ExitCoder); ok {
			// ExitErrHandler 已输出错误详情，此处仅设置退出码
			return 2
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}

	return 0
}
