package vkrun

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/vkrun/internal/shader"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvAlwaysFlushMemory = "VKRUN_ALWAYS_FLUSH_MEMORY"
	EnvDeviceID          = "VKRUN_DEVICE_ID"
)

// Config controls an Executor.
type Config struct {
	// DeviceID selects the physical device by enumeration index. -1 picks
	// the first device that satisfies a script's requirements.
	DeviceID int `toml:"device_id"`

	// AlwaysFlushMemory flushes host writes even to coherent memory.
	AlwaysFlushMemory bool `toml:"always_flush_memory"`

	// ShaderCacheShards is the number of shards of the compiled shader
	// cache. It is rounded up to a power of two.
	ShaderCacheShards int `toml:"shader_cache_shards"`

	// ErrorWriter receives the diagnostic of every script that does not
	// pass. Nil discards them.
	ErrorWriter io.Writer `toml:"-"`

	// Inspector, when set, is called after every script that ran.
	Inspector Inspector `toml:"-"`

	// WGSLCompiler replaces naga for WGSL shaders. It must return SPIR-V.
	WGSLCompiler func(src string) ([]byte, error) `toml:"-"`
}

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		DeviceID:          -1,
		ShaderCacheShards: shader.DefaultShards,
		ErrorWriter:       os.Stderr,
	}
}

// Option configures an Executor.
type Option func(*Config)

// WithConfig replaces the whole configuration. Later options still apply.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

// WithDeviceID selects the physical device by enumeration index.
func WithDeviceID(id int) Option {
	return func(c *Config) {
		c.DeviceID = id
	}
}

// WithAlwaysFlushMemory forces flushes of coherent memory.
func WithAlwaysFlushMemory(on bool) Option {
	return func(c *Config) {
		c.AlwaysFlushMemory = on
	}
}

// WithErrorWriter sets where script diagnostics are written.
func WithErrorWriter(w io.Writer) Option {
	return func(c *Config) {
		c.ErrorWriter = w
	}
}

// WithInspector installs an inspector.
func WithInspector(i Inspector) Option {
	return func(c *Config) {
		c.Inspector = i
	}
}

// WithShaderCacheShards sets the shard count of the shader cache.
func WithShaderCacheShards(n int) Option {
	return func(c *Config) {
		c.ShaderCacheShards = n
	}
}

// WithWGSLCompiler replaces the WGSL front end.
func WithWGSLCompiler(fn func(src string) ([]byte, error)) Option {
	return func(c *Config) {
		c.WGSLCompiler = fn
	}
}

// LoadConfig reads a TOML configuration file on top of DefaultConfig.
// Unknown keys are an error.
//
//	device_id = 1
//	always_flush_memory = true
//	shader_cache_shards = 32
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("vkrun: config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return cfg, fmt.Errorf("vkrun: config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// ConfigFromEnv builds a configuration from environment variables on top
// of DefaultConfig. lookup is usually os.LookupEnv.
func ConfigFromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()
	if v, ok := lookup(EnvAlwaysFlushMemory); ok && v != "" {
		on, err := parseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("vkrun: %s: %w", EnvAlwaysFlushMemory, err)
		}
		cfg.AlwaysFlushMemory = on
	}
	if v, ok := lookup(EnvDeviceID); ok && v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("vkrun: %s: %w", EnvDeviceID, err)
		}
		cfg.DeviceID = id
	}
	return cfg, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(s)
}
