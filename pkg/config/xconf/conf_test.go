package xconf

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Settings 测试用配置结构体。
type Settings struct {
	Cache CacheSettings `koanf:"cache"`
}

type CacheSettings struct {
	TTL           string `koanf:"ttl"`
	MaxSize       int    `koanf:"max_size"`
	SweepInterval string `koanf:"sweep_interval"`
}

const testYAMLContent = `
cache:
  ttl: 5m
  max_size: 1000
  sweep_interval: 1m
`

const testJSONContent = `{
  "cache": {
    "ttl": "5m",
    "max_size": 1000,
    "sweep_interval": "1m"
  }
}`

// writeTempConfig 写临时配置文件并返回路径。
func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		path := writeTempConfig(t, "config.yaml", testYAMLContent)

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, FormatYAML, cfg.Format())
		assert.Equal(t, path, cfg.Path())

		var s Settings
		require.NoError(t, cfg.Unmarshal("", &s))
		assert.Equal(t, "5m", s.Cache.TTL)
		assert.Equal(t, 1000, s.Cache.MaxSize)
	})

	t.Run("yml extension", func(t *testing.T) {
		path := writeTempConfig(t, "config.yml", testYAMLContent)

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, FormatYAML, cfg.Format())
	})

	t.Run("json", func(t *testing.T) {
		path := writeTempConfig(t, "config.json", testJSONContent)

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, FormatJSON, cfg.Format())

		var s Settings
		require.NoError(t, cfg.Unmarshal("", &s))
		assert.Equal(t, 1000, s.Cache.MaxSize)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := Load("")
		assert.ErrorIs(t, err, ErrEmptyPath)
	})

	t.Run("unknown extension", func(t *testing.T) {
		path := writeTempConfig(t, "config.toml", "a = 1")
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, ErrLoadFailed)
	})

	t.Run("malformed content", func(t *testing.T) {
		path := writeTempConfig(t, "config.json", "{not json")
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrParseFailed)
	})
}

func TestLoadBytes(t *testing.T) {
	t.Run("yaml bytes", func(t *testing.T) {
		cfg, err := LoadBytes([]byte(testYAMLContent), FormatYAML)
		require.NoError(t, err)
		assert.Empty(t, cfg.Path())

		var s Settings
		require.NoError(t, cfg.Unmarshal("", &s))
		assert.Equal(t, "1m", s.Cache.SweepInterval)
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := LoadBytes([]byte("a: 1"), Format("toml"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("empty data", func(t *testing.T) {
		cfg, err := LoadBytes(nil, FormatYAML)
		require.NoError(t, err)

		var s Settings
		require.NoError(t, cfg.Unmarshal("", &s))
		assert.Zero(t, s.Cache.MaxSize)
	})

	t.Run("not reloadable", func(t *testing.T) {
		cfg, err := LoadBytes([]byte(testYAMLContent), FormatYAML)
		require.NoError(t, err)
		assert.ErrorIs(t, cfg.Reload(), ErrNotReloadable)
	})
}

func TestConfig_UnmarshalSubPath(t *testing.T) {
	cfg, err := LoadBytes([]byte(testYAMLContent), FormatYAML)
	require.NoError(t, err)

	var cs CacheSettings
	require.NoError(t, cfg.Unmarshal("cache", &cs))
	assert.Equal(t, "5m", cs.TTL)
	assert.Equal(t, 1000, cs.MaxSize)
}

func TestConfig_Unmarshal_TypeMismatch(t *testing.T) {
	cfg, err := LoadBytes([]byte("cache:\n  max_size: [1, 2]\n"), FormatYAML)
	require.NoError(t, err)

	var s Settings
	assert.ErrorIs(t, cfg.Unmarshal("", &s), ErrUnmarshalFailed)
}

func TestConfig_Reload(t *testing.T) {
	t.Run("picks up new content", func(t *testing.T) {
		path := writeTempConfig(t, "config.yaml", testYAMLContent)
		cfg, err := Load(path)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(path, []byte("cache:\n  max_size: 42\n"), 0o600))
		require.NoError(t, cfg.Reload())

		var s Settings
		require.NoError(t, cfg.Unmarshal("", &s))
		assert.Equal(t, 42, s.Cache.MaxSize)
	})

	t.Run("keeps old config on parse failure", func(t *testing.T) {
		path := writeTempConfig(t, "config.json", testJSONContent)
		cfg, err := Load(path)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))
		assert.ErrorIs(t, cfg.Reload(), ErrParseFailed)

		var s Settings
		require.NoError(t, cfg.Unmarshal("", &s))
		assert.Equal(t, 1000, s.Cache.MaxSize)
	})
}

func TestConfig_Koanf(t *testing.T) {
	cfg, err := LoadBytes([]byte(testYAMLContent), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Koanf().Int("cache.max_size"))
	assert.Equal(t, "5m", cfg.Koanf().String("cache.ttl"))
}

func TestConfig_Options(t *testing.T) {
	t.Run("custom delim", func(t *testing.T) {
		cfg, err := LoadBytes([]byte(testYAMLContent), FormatYAML, WithDelim("/"))
		require.NoError(t, err)
		assert.Equal(t, 1000, cfg.Koanf().Int("cache/max_size"))
	})

	t.Run("custom tag", func(t *testing.T) {
		type tagged struct {
			MaxSize int `conf:"max_size"`
		}
		cfg, err := LoadBytes([]byte(testYAMLContent), FormatYAML, WithTag("conf"))
		require.NoError(t, err)

		var v tagged
		require.NoError(t, cfg.Unmarshal("cache", &v))
		assert.Equal(t, 1000, v.MaxSize)
	})
}

func TestConfig_ConcurrentAccess(t *testing.T) {
	path := writeTempConfig(t, "config.yaml", testYAMLContent)
	cfg, err := Load(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				var s Settings
				_ = cfg.Unmarshal("", &s)
				_ = cfg.Reload()
				_ = cfg.Koanf().Int("cache.max_size")
			}
		}()
	}
	wg.Wait()
}
