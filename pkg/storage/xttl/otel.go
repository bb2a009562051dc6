package xttl

import (
	"cmp"
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultInstrumentationName = "github.com/omeyang/cachekit/xttl"

	metricEntries     = "cachekit.cache.entries"
	metricHits        = "cachekit.cache.hits"
	metricMisses      = "cachekit.cache.misses"
	metricPuts        = "cachekit.cache.puts"
	metricEvictions   = "cachekit.cache.evictions"
	metricExpirations = "cachekit.cache.expirations"
)

type otelConfig struct {
	instrumentationName string
	meterProvider       metric.MeterProvider
}

// MetricOption 定义指标注册的配置选项。
type MetricOption func(*otelConfig)

// WithInstrumentationName 设置 OTel instrumentation 名称。
func WithInstrumentationName(name string) MetricOption {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithMeterProvider 设置 MeterProvider。
// 默认使用 otel 全局 MeterProvider。
func WithMeterProvider(provider metric.MeterProvider) MetricOption {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// RegisterMetrics 把缓存的统计信息注册为 OpenTelemetry 指标：
// 当前条目数（gauge）以及命中/未命中/插入/容量淘汰/TTL 过期的累计计数。
// 指标在采集时通过回调观测，不给缓存的热路径增加任何开销。
//
// 返回的 Registration 用于在缓存生命周期结束时取消注册；
// 取消注册应在 Close 之后、缓存实例不再被采集方引用之前完成。
func RegisterMetrics[K cmp.Ordered, V any](c *Cache[K, V], opts ...MetricOption) (metric.Registration, error) {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	entries, err := meter.Int64ObservableGauge(
		metricEntries,
		metric.WithDescription("current number of live cache entries"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xttl: create gauge failed: %w", err)
	}

	counters := make(map[string]metric.Int64ObservableCounter, 5)
	for name, desc := range map[string]string{
		metricHits:        "total cache hits",
		metricMisses:      "total cache misses",
		metricPuts:        "total inserts",
		metricEvictions:   "total capacity evictions",
		metricExpirations: "total TTL expirations",
	} {
		counter, err := meter.Int64ObservableCounter(
			name,
			metric.WithDescription(desc),
			metric.WithUnit("1"),
		)
		if err != nil {
			return nil, fmt.Errorf("xttl: create counter %s failed: %w", name, err)
		}
		counters[name] = counter
	}

	instruments := make([]metric.Observable, 0, 6)
	instruments = append(instruments, entries)
	for _, counter := range counters {
		instruments = append(instruments, counter)
	}

	reg, err := meter.RegisterCallback(func(_ context.Context, obs metric.Observer) error {
		s := c.Stats()
		obs.ObserveInt64(entries, int64(c.Len()))
		obs.ObserveInt64(counters[metricHits], clampInt64(s.Hits))
		obs.ObserveInt64(counters[metricMisses], clampInt64(s.Misses))
		obs.ObserveInt64(counters[metricPuts], clampInt64(s.Puts))
		obs.ObserveInt64(counters[metricEvictions], clampInt64(s.Evicted))
		obs.ObserveInt64(counters[metricExpirations], clampInt64(s.Expired))
		return nil
	}, instruments...)
	if err != nil {
		return nil, fmt.Errorf("xttl: register callback failed: %w", err)
	}
	return reg, nil
}

// clampInt64 把 uint64 计数收敛到 int64 可表示的范围。
func clampInt64(v uint64) int64 {
	if v > 1<<63-1 {
		return 1<<63 - 1
	}
	return int64(v)
}
