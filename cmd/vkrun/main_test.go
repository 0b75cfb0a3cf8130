package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"

	"github.com/gogpu/vkrun"
	"github.com/gogpu/vkrun/internal/device"
	"github.com/gogpu/vkrun/internal/vk/fakevk"
)

var spirvModule = []byte{0x03, 0x02, 0x23, 0x07, 0, 3, 1, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}

const scriptHead = `
[[shader]]
stages = ["vertex", "fragment"]
spirv_file = "main.spv"

[[command]]
op = "clear"
color = [0.0, 1.0, 0.0, 1.0]

[[command]]
op = "probe_rect"
region = [0, 0, 4, 4]
`

// writeScripts writes a shared SPIR-V module and one script per entry of
// probes, named after the key.
func writeScripts(t *testing.T, probes map[string]string) []string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.spv"), spirvModule, 0o644); err != nil {
		t.Fatal(err)
	}
	var paths []string
	for name, color := range probes {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(scriptHead+"color = "+color+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths
}

func newRunCmd(t *testing.T, args ...string) (*runCmd, *flag.FlagSet, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	r := &runCmd{stdout: stdout, stderr: stderr}
	f := flag.NewFlagSet("run", flag.ContinueOnError)
	r.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { vkrun.SetLogger(nil) })
	return r, f, stdout, stderr
}

func TestRunAllPass(t *testing.T) {
	paths := writeScripts(t, map[string]string{
		"a.toml": "[0.0, 1.0, 0.0, 1.0]",
		"b.toml": "[0.0, 1.0, 0.0, 1.0]",
		"c.toml": "[0.0, 1.0, 0.0, 1.0]",
	})
	r, f, stdout, stderr := newRunCmd(t, append([]string{"-driver", "fake", "-j", "2"}, paths...)...)
	if got := r.Execute(context.Background(), f); got != subcommands.ExitSuccess {
		t.Fatalf("exit = %v; stderr:\n%s", got, stderr)
	}
	out := stdout.String()
	if n := strings.Count(out, "PASS "); n != 3 {
		t.Errorf("%d PASS lines, want 3:\n%s", n, out)
	}
	if !strings.HasSuffix(out, "3 passed, 0 failed, 0 skipped\n") {
		t.Errorf("summary missing:\n%s", out)
	}
}

func TestRunFailure(t *testing.T) {
	paths := writeScripts(t, map[string]string{
		"good.toml": "[0.0, 1.0, 0.0, 1.0]",
		"bad.toml":  "[1.0, 0.0, 0.0, 1.0]",
	})
	r, f, stdout, stderr := newRunCmd(t, append([]string{"-driver", "fake", "-j", "1"}, paths...)...)
	if got := r.Execute(context.Background(), f); got != subcommands.ExitFailure {
		t.Fatalf("exit = %v, want failure", got)
	}
	if !strings.Contains(stdout.String(), "FAIL ") {
		t.Errorf("no FAIL line:\n%s", stdout)
	}
	if !strings.Contains(stdout.String(), "1 passed, 1 failed, 0 skipped") {
		t.Errorf("summary = %q", stdout)
	}
	if !strings.Contains(stderr.String(), "bad.toml: test:") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRunInspect(t *testing.T) {
	paths := writeScripts(t, map[string]string{"shot.toml": "[0.0, 1.0, 0.0, 1.0]"})
	dir := t.TempDir()
	r, f, _, stderr := newRunCmd(t, "-driver", "fake", "-inspect", dir, "-inspect-format", "bmp", paths[0])
	if got := r.Execute(context.Background(), f); got != subcommands.ExitSuccess {
		t.Fatalf("exit = %v; stderr:\n%s", got, stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "shot.bmp")); err != nil {
		t.Error(err)
	}
}

func TestRunUnknownDriver(t *testing.T) {
	paths := writeScripts(t, map[string]string{"a.toml": "[0.0, 1.0, 0.0, 1.0]"})
	r, f, _, stderr := newRunCmd(t, "-driver", "metal", paths[0])
	if got := r.Execute(context.Background(), f); got != subcommands.ExitFailure {
		t.Fatalf("exit = %v, want failure", got)
	}
	if !strings.Contains(stderr.String(), "unknown driver") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRunUsage(t *testing.T) {
	r, f, _, _ := newRunCmd(t)
	f.SetOutput(&bytes.Buffer{})
	if got := r.Execute(context.Background(), f); got != subcommands.ExitUsageError {
		t.Errorf("exit = %v, want usage error", got)
	}
}

func TestRunConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vkrun.toml")
	if err := os.WriteFile(path, []byte("device_id = 3\nalways_flush_memory = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r, f, _, _ := newRunCmd(t, "-config", path, "-device-id", "0", "x.toml")
	r.set = make(map[string]bool)
	f.Visit(func(fl *flag.Flag) { r.set[fl.Name] = true })
	cfg, err := r.config()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DeviceID != 0 || !cfg.AlwaysFlushMemory {
		t.Errorf("config = %+v, want device 0 with flushing from the file", cfg)
	}
}

func TestDevices(t *testing.T) {
	infos, err := device.Enumerate(fakevk.New(fakevk.Config{}), nil)
	if err != nil {
		t.Fatal(err)
	}
	out := &bytes.Buffer{}
	(&devicesCmd{stdout: out, features: true}).print(infos)
	got := out.String()
	for _, want := range []string{"0: ", "queue families", "features: ", "geometryShader"} {
		if !strings.Contains(got, want) {
			t.Errorf("output does not contain %q:\n%s", want, got)
		}
	}
}
