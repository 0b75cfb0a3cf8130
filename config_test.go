package vkrun

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/gogpu/vkrun/internal/shader"
)

var ignoreFuncs = cmpopts.IgnoreFields(Config{}, "ErrorWriter", "Inspector", "WGSLCompiler")

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	want := Config{DeviceID: -1, ShaderCacheShards: shader.DefaultShards}
	if diff := cmp.Diff(want, cfg, ignoreFuncs); diff != "" {
		t.Errorf("DefaultConfig() mismatch (-want +got):\n%s", diff)
	}
	if cfg.ErrorWriter != os.Stderr {
		t.Error("ErrorWriter is not stderr")
	}
}

func TestOptions(t *testing.T) {
	cfg := newConfig([]Option{
		WithDeviceID(2),
		WithAlwaysFlushMemory(true),
		WithShaderCacheShards(4),
		WithErrorWriter(nil),
	})
	want := Config{DeviceID: 2, AlwaysFlushMemory: true, ShaderCacheShards: 4}
	if diff := cmp.Diff(want, cfg, ignoreFuncs); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	cfg = newConfig([]Option{WithDeviceID(3), WithConfig(Config{ShaderCacheShards: 8}), WithAlwaysFlushMemory(true)})
	want = Config{ShaderCacheShards: 8, AlwaysFlushMemory: true}
	if diff := cmp.Diff(want, cfg, ignoreFuncs); diff != "" {
		t.Errorf("WithConfig mismatch (-want +got):\n%s", diff)
	}
}

func writeConfig(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vkrun.toml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "device_id = 1\nalways_flush_memory = true\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := Config{DeviceID: 1, AlwaysFlushMemory: true, ShaderCacheShards: shader.DefaultShards}
	if diff := cmp.Diff(want, cfg, ignoreFuncs); diff != "" {
		t.Errorf("LoadConfig mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown keys", "device_id = 0\nzeta = 1\nalpha = 2\n", "unknown keys: alpha, zeta"},
		{"bad type", "device_id = \"one\"\n", "vkrun: config"},
	}
	for _, tt := range tests {
		_, err := LoadConfig(writeConfig(t, tt.src))
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: err = %v, want %q", tt.name, err, tt.want)
		}
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("missing file: no error")
	}
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestConfigFromEnv(t *testing.T) {
	tests := []struct {
		env       map[string]string
		wantID    int
		wantFlush bool
	}{
		{map[string]string{}, -1, false},
		{map[string]string{EnvAlwaysFlushMemory: "yes"}, -1, true},
		{map[string]string{EnvAlwaysFlushMemory: "ON"}, -1, true},
		{map[string]string{EnvAlwaysFlushMemory: "off", EnvDeviceID: "2"}, 2, false},
		{map[string]string{EnvAlwaysFlushMemory: "1", EnvDeviceID: ""}, -1, true},
	}
	for _, tt := range tests {
		cfg, err := ConfigFromEnv(envMap(tt.env))
		if err != nil {
			t.Errorf("%v: %v", tt.env, err)
			continue
		}
		if cfg.DeviceID != tt.wantID || cfg.AlwaysFlushMemory != tt.wantFlush {
			t.Errorf("%v: got id=%d flush=%v", tt.env, cfg.DeviceID, cfg.AlwaysFlushMemory)
		}
	}
}

func TestConfigFromEnvErrors(t *testing.T) {
	for _, env := range []map[string]string{
		{EnvAlwaysFlushMemory: "maybe"},
		{EnvDeviceID: "first"},
	} {
		if _, err := ConfigFromEnv(envMap(env)); err == nil {
			t.Errorf("%v: no error", env)
		}
	}
}
