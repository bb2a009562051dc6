package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 定义配置文件格式。
type Format string

// 支持的配置格式。
const (
	// FormatYAML YAML 格式。
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式。
	FormatJSON Format = "json"
)

// Config 承载一份已加载的配置。
// 必须通过 [Load] 或 [LoadBytes] 创建，零值不可用。
// 所有方法都是并发安全的。
type Config struct {
	mu     sync.RWMutex
	k      *koanf.Koanf
	path   string // 从字节数据创建时为空
	format Format
	opts   options
}

// Load 从文件路径加载配置。
// 根据文件扩展名自动检测格式（.yaml/.yml 或 .json）。
func Load(path string, opts ...Option) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	k, err := loadFile(path, format, o.delim)
	if err != nil {
		return nil, err
	}

	return &Config{k: k, path: path, format: format, opts: o}, nil
}

// LoadBytes 从字节数据加载配置，需显式指定格式。
// 适用于配置内容来自环境注入（如 K8s ConfigMap 挂载前的预处理）的场景。
// 空数据会得到一个空配置，Unmarshal 返回目标结构体的零值。
func LoadBytes(data []byte, format Format, opts ...Option) (*Config, error) {
	if !isValidFormat(format) {
		return nil, ErrUnsupportedFormat
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	k := koanf.New(o.delim)
	if len(data) > 0 {
		if err := parseInto(k, data, format); err != nil {
			return nil, err
		}
	}

	return &Config{k: k, format: format, opts: o}, nil
}

// Unmarshal 将指定路径的配置反序列化到目标结构体。
// path 为空字符串时反序列化整个配置。
func (c *Config) Unmarshal(path string, target any) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.k.UnmarshalWithConf(path, target, koanf.UnmarshalConf{
		Tag: c.opts.tag,
	}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

// Reload 重新加载配置文件。
// 解析失败时保留旧配置并返回错误，不会出现半更新状态。
// 从字节数据创建的 Config 返回 ErrNotReloadable。
func (c *Config) Reload() error {
	if c.path == "" {
		return ErrNotReloadable
	}

	k, err := loadFile(c.path, c.format, c.opts.delim)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.k = k
	c.mu.Unlock()
	return nil
}

// Koanf 返回底层的 koanf 实例，用于执行所有 koanf 支持的操作。
// 返回值是当前快照：Reload 之后旧指针仍然有效，但指向旧配置。
// 推荐每次需要时调用，不要长期缓存返回的指针。
func (c *Config) Koanf() *koanf.Koanf {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.k
}

// Path 返回配置文件路径。从字节数据创建时返回空字符串。
func (c *Config) Path() string {
	return c.path
}

// Format 返回配置格式。
func (c *Config) Format() Format {
	return c.format
}

// detectFormat 根据文件扩展名检测配置格式。
func detectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// isValidFormat 检查格式是否有效。
func isValidFormat(format Format) bool {
	switch format {
	case FormatYAML, FormatJSON:
		return true
	default:
		return false
	}
}

// loadFile 读取并解析配置文件，返回新的 koanf 实例。
func loadFile(path string, format Format, delim string) (*koanf.Koanf, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	k := koanf.New(delim)
	if err := parseInto(k, data, format); err != nil {
		return nil, err
	}
	return k, nil
}

// parseInto 把数据解析进 koanf 实例。
func parseInto(k *koanf.Koanf, data []byte, format Format) error {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return ErrUnsupportedFormat
	}

	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return nil
}
