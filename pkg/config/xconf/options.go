package xconf

// options 内部配置。
type options struct {
	delim string
	tag   string
}

// Option 定义配置加载选项函数类型。
type Option func(*options)

// defaultOptions 返回默认选项。
func defaultOptions() options {
	return options{
		delim: ".",
		tag:   "koanf",
	}
}

// WithDelim 设置配置键分隔符。
// 默认为 "."，例如 "cache.max_size"。
func WithDelim(delim string) Option {
	return func(o *options) {
		if delim != "" {
			o.delim = delim
		}
	}
}

// WithTag 设置结构体标签名。
// 默认为 "koanf"，用于 Unmarshal 时的字段映射。
func WithTag(tag string) Option {
	return func(o *options) {
		if tag != "" {
			o.tag = tag
		}
	}
}
