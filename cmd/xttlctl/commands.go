package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/cachekit/pkg/storage/xttl"
)

// createCommands 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createDemoCommand(),
		createBenchCommand(),
	}
}

// createDemoCommand 创建 demo 子命令。
// demo 使用内置的短 TTL 脚本参数，不读取全局缓存选项。
func createDemoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "按脚本演示缓存语义（使用内置短 TTL 参数）",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return demoRun(ctx, os.Stdout)
		},
	}
}

// createBenchCommand 创建 bench 子命令。
func createBenchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "并发压测缓存并输出统计信息",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "workers",
				Usage: "并发 worker 数",
				Value: 8,
			},
			&cli.IntFlag{
				Name:  "ops",
				Usage: "每个 worker 的操作次数",
				Value: 100000,
			},
			&cli.IntFlag{
				Name:  "keys",
				Usage: "键空间大小",
				Value: 10000,
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "结束后输出 OpenTelemetry 指标",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := resolveSettings(cmd)
			if err != nil {
				return err
			}
			opts := benchOptions{
				workers:     cmd.Int("workers"),
				ops:         cmd.Int("ops"),
				keys:        cmd.Int("keys"),
				showMetrics: cmd.Bool("metrics"),
			}
			if opts.workers <= 0 || opts.ops <= 0 || opts.keys <= 0 {
				return &usageError{err: fmt.Errorf("workers/ops/keys 必须大于 0")}
			}
			return benchRun(ctx, os.Stdout, s, opts)
		},
	}
}

// demoRun 执行演示脚本。
func demoRun(ctx context.Context, out io.Writer) error {
	cache, err := xttl.New[string, string](xttl.Config{
		TTL:           500 * time.Millisecond,
		MaxSize:       2,
		SweepInterval: 100 * time.Millisecond,
	})
	if err != nil {
		return err
	}
	defer cache.Close()

	fmt.Fprintln(out, "== 插入与读取 ==")
	cache.PutIfAbsent("a/1", "v1")
	if v, ok := cache.Get("a/1"); ok {
		fmt.Fprintf(out, "get a/1 = %s\n", v)
	}

	fmt.Fprintln(out, "== PutIfAbsent 不覆盖 ==")
	if prev, loaded := cache.PutIfAbsent("a/1", "v2"); loaded {
		fmt.Fprintf(out, "put a/1 again: kept previous value %s\n", prev)
	}

	fmt.Fprintln(out, "== 前缀批量删除 ==")
	cache.PutIfAbsent("a/2", "v3")
	cache.RemoveWithPrefix("a/", "a0")
	fmt.Fprintf(out, "after remove prefix a/: keys = %v\n", cache.Keys())

	fmt.Fprintln(out, "== 容量淘汰（MaxSize=2，最旧先出）==")
	cache.PutIfAbsent("k1", "1")
	cache.PutIfAbsent("k2", "2")
	cache.PutIfAbsent("k3", "3")
	fmt.Fprintf(out, "after k1,k2,k3: keys = %v\n", cache.Keys())

	fmt.Fprintln(out, "== TTL 过期（500ms TTL）==")
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(600 * time.Millisecond):
	}
	if _, ok := cache.Get("k3"); !ok {
		fmt.Fprintln(out, "get k3: absent (expired)")
	}

	s := cache.Stats()
	fmt.Fprintf(out, "stats: hits=%d misses=%d puts=%d evicted=%d expired=%d\n",
		s.Hits, s.Misses, s.Puts, s.Evicted, s.Expired)
	return nil
}

// benchOptions 压测参数。
type benchOptions struct {
	workers     int
	ops         int
	keys        int
	showMetrics bool
}

// benchRun 执行并发压测。
func benchRun(ctx context.Context, out io.Writer, s settings, opts benchOptions) error {
	cache, err := xttl.New[string, int](xttl.Config{
		TTL:           s.TTL,
		MaxSize:       s.MaxSize,
		SweepInterval: s.SweepInterval,
	})
	if err != nil {
		return err
	}
	defer cache.Close()

	var reader *metric.ManualReader
	if opts.showMetrics {
		reader = metric.NewManualReader()
		provider := metric.NewMeterProvider(metric.WithReader(reader))
		defer func() { _ = provider.Shutdown(context.Background()) }()

		reg, err := xttl.RegisterMetrics(cache, xttl.WithMeterProvider(provider))
		if err != nil {
			return err
		}
		defer func() { _ = reg.Unregister() }()
	}

	// 预生成键空间：namespace/uuid，namespace 用于前缀删除
	keys := make([]string, opts.keys)
	for i := range keys {
		keys[i] = fmt.Sprintf("ns%02d/%s", i%16, uuid.NewString())
	}

	fmt.Fprintf(out, "bench: workers=%d ops=%d keys=%d ttl=%s max-size=%d\n",
		opts.workers, opts.ops, opts.keys, s.TTL, s.MaxSize)

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := range opts.workers {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(uint64(w), uint64(opts.keys)))
			for i := range opts.ops {
				// 周期性响应取消，避免每次操作都触碰 ctx
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				key := keys[rng.IntN(len(keys))]
				switch r := rng.IntN(100); {
				case r < 60:
					cache.Get(key)
				case r < 90:
					cache.PutIfAbsent(key, i)
				case r < 99:
					cache.Remove(key)
				default:
					ns := fmt.Sprintf("ns%02d/", rng.IntN(16))
					cache.RemoveWithPrefix(ns, ns[:len(ns)-1]+"0")
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	total := opts.workers * opts.ops
	fmt.Fprintf(out, "done: %d ops in %s (%.0f ops/s)\n",
		total, elapsed.Round(time.Millisecond), float64(total)/elapsed.Seconds())

	st := cache.Stats()
	fmt.Fprintf(out, "stats: hits=%d misses=%d puts=%d evicted=%d expired=%d entries=%d\n",
		st.Hits, st.Misses, st.Puts, st.Evicted, st.Expired, cache.Len())

	if reader != nil {
		// g.Wait 返回后 errgroup 的 ctx 已取消，采集用独立 context
		if err := printMetrics(context.Background(), out, reader); err != nil {
			return err
		}
	}
	return nil
}

// printMetrics 采集并输出全部 int64 指标。
func printMetrics(ctx context.Context, out io.Writer, reader *metric.ManualReader) error {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return fmt.Errorf("collect metrics: %w", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					fmt.Fprintf(out, "metric %s = %d\n", m.Name, dp.Value)
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					fmt.Fprintf(out, "metric %s = %d\n", m.Name, dp.Value)
				}
			}
		}
	}
	return nil
}
