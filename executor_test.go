package vkrun

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/vkrun/internal/vk"
	"github.com/gogpu/vkrun/internal/vk/fakevk"
)

// spirvModule is the smallest module the shader validator accepts.
var spirvModule = []byte{0x03, 0x02, 0x23, 0x07, 0, 3, 1, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}

func fakeCompiler(string) ([]byte, error) { return spirvModule, nil }

const shaderSource = `
[[shader]]
stages = ["vertex", "fragment"]
wgsl = "@vertex fn main() {}"
`

const greenScript = shaderSource + `
[[command]]
op = "clear"
color = [0.0, 1.0, 0.0, 1.0]

[[command]]
op = "probe_rect"
region = [0, 0, 16, 16]
color = [0.0, 1.0, 0.0, 1.0]
`

const redProbeScript = shaderSource + `
[[command]]
op = "clear"
color = [0.0, 1.0, 0.0, 1.0]

[[command]]
op = "probe_rect"
region = [0, 0, 1, 1]
color = [1.0, 0.0, 0.0, 1.0]
`

type executorHarness struct {
	drv  *fakevk.Driver
	exec *Executor
	out  *bytes.Buffer
}

func newExecutor(t *testing.T, dev fakevk.DeviceConfig, opts ...Option) *executorHarness {
	t.Helper()
	drv := fakevk.New(fakevk.Config{Devices: []fakevk.DeviceConfig{dev}})
	out := &bytes.Buffer{}
	opts = append([]Option{WithErrorWriter(out), WithWGSLCompiler(fakeCompiler)}, opts...)
	h := &executorHarness{drv: drv, exec: NewExecutor(drv, opts...), out: out}
	t.Cleanup(func() {
		h.exec.Close()
		if leaks := drv.Leaks(); len(leaks) != 0 {
			t.Errorf("leaked objects: %v", leaks)
		}
		if errs := drv.Errors(); len(errs) != 0 {
			t.Errorf("driver errors: %v", errs)
		}
	})
	return h
}

func mustParse(t *testing.T, name, src string) *Script {
	t.Helper()
	s, err := ParseScript(name, []byte(src))
	if err != nil {
		t.Fatalf("ParseScript(%s): %v", name, err)
	}
	return s
}

func TestExecutePass(t *testing.T) {
	h := newExecutor(t, fakevk.DefaultDevice())
	if got := h.exec.ExecuteScript(mustParse(t, "green.toml", greenScript)); got != Pass {
		t.Fatalf("result = %v, want pass; output:\n%s", got, h.out)
	}
	if h.out.Len() != 0 {
		t.Errorf("unexpected output for a passing script: %q", h.out)
	}
}

func TestExecuteProbeFailure(t *testing.T) {
	h := newExecutor(t, fakevk.DefaultDevice())
	if got := h.exec.ExecuteScript(mustParse(t, "red.toml", redProbeScript)); got != Fail {
		t.Fatalf("result = %v, want fail", got)
	}
	out := h.out.String()
	for _, want := range []string{"fail: red.toml: test:", "Probe color at (0,0)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

func TestExecuteSkipsMissingFeature(t *testing.T) {
	h := newExecutor(t, fakevk.DefaultDevice())
	s := mustParse(t, "sparse.toml", `
[require]
features = ["sparseBinding"]
`+greenScript)
	if got := h.exec.ExecuteScript(s); got != Skip {
		t.Fatalf("result = %v, want skip; output:\n%s", got, h.out)
	}
	if !strings.Contains(h.out.String(), "skip: sparse.toml: context:") {
		t.Errorf("output = %q", h.out)
	}
}

func TestExecuteSkipsUnsupportedFormat(t *testing.T) {
	dev := fakevk.DefaultDevice()
	dev.Formats = map[vk.Format]vk.FormatProperties{}
	h := newExecutor(t, dev)
	if got := h.exec.ExecuteScript(mustParse(t, "format.toml", greenScript)); got != Skip {
		t.Fatalf("result = %v, want skip; output:\n%s", got, h.out)
	}
	if !strings.Contains(h.out.String(), "skip: format.toml: window:") {
		t.Errorf("output = %q", h.out)
	}
}

func TestExecuteShaderFailure(t *testing.T) {
	h := newExecutor(t, fakevk.DefaultDevice(), WithWGSLCompiler(func(string) ([]byte, error) {
		return nil, errors.New("expected ';'")
	}))
	if got := h.exec.ExecuteScript(mustParse(t, "bad.toml", greenScript)); got != Fail {
		t.Fatalf("result = %v, want fail", got)
	}
	if !strings.Contains(h.out.String(), "bad.toml: shader:") {
		t.Errorf("output = %q", h.out)
	}
	if n := h.drv.Calls("CreateDevice"); n != 0 {
		t.Errorf("CreateDevice called %d times for a script that failed to compile", n)
	}
}

func TestExecuteFile(t *testing.T) {
	h := newExecutor(t, fakevk.DefaultDevice())
	path := filepath.Join(t.TempDir(), "green.toml")
	if err := os.WriteFile(path, []byte(greenScript), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := h.exec.ExecuteFile(path); got != Pass {
		t.Errorf("result = %v, want pass; output:\n%s", got, h.out)
	}

	missing := filepath.Join(t.TempDir(), "missing.toml")
	if got := h.exec.ExecuteFile(missing); got != Fail {
		t.Errorf("missing file result = %v, want fail", got)
	}
	if !strings.Contains(h.out.String(), "missing.toml: load:") {
		t.Errorf("output = %q", h.out)
	}
}

func TestExecutorReusesDevice(t *testing.T) {
	h := newExecutor(t, fakevk.DefaultDevice())
	for _, name := range []string{"a.toml", "b.toml", "c.toml"} {
		if got := h.exec.ExecuteScript(mustParse(t, name, greenScript)); got != Pass {
			t.Fatalf("%s: result = %v", name, got)
		}
	}
	st := h.exec.Stats()
	if st.Session.Contexts != 1 || st.Session.Windows != 1 || st.Session.Caches != 1 {
		t.Errorf("session stats = %+v, want one of each", st.Session)
	}
	if h.drv.Calls("CreateDevice") != 1 {
		t.Errorf("CreateDevice called %d times", h.drv.Calls("CreateDevice"))
	}
	if st.Shaders.Hits != 2 || st.Shaders.Misses != 1 {
		t.Errorf("shader stats = %+v, want 2 hits and 1 miss", st.Shaders)
	}
}

func TestExecutorInspector(t *testing.T) {
	var got []string
	var color [4]float64
	var buffers int
	inspect := InspectorFunc(func(d *InspectData) {
		got = append(got, d.Script)
		color = d.Color.At(3, 4)
		buffers = len(d.Buffers)
	})
	h := newExecutor(t, fakevk.DefaultDevice(), WithInspector(inspect))
	s := mustParse(t, "inspect.toml", greenScript+`
[[buffer]]
binding = 0
type = "storage"
data_type = "uint"
data = [1, 2, 3]
`)
	h.exec.ExecuteScript(s)
	h.exec.ExecuteScript(mustParse(t, "red.toml", redProbeScript))

	if len(got) != 2 || got[0] != "inspect.toml" || got[1] != "red.toml" {
		t.Errorf("inspected scripts = %v", got)
	}
	if color != [4]float64{0, 1, 0, 1} {
		t.Errorf("inspected color = %v, want green", color)
	}
	if buffers != 0 {
		t.Errorf("last script reported %d buffers, want 0", buffers)
	}
}

func TestExternalExecutor(t *testing.T) {
	drv := fakevk.New(fakevk.Config{})
	inst, _ := drv.CreateInstance(&vk.InstanceCreateInfo{})
	pds, _ := drv.EnumeratePhysicalDevices(inst)
	dev, res := drv.CreateDevice(pds[0], &vk.DeviceCreateInfo{})
	if res != vk.Success {
		t.Fatal(res)
	}

	out := &bytes.Buffer{}
	exec, err := NewExternalExecutor(drv, ExternalDevice{Instance: inst, PhysicalDevice: pds[0], Device: dev},
		WithErrorWriter(out), WithWGSLCompiler(fakeCompiler))
	if err != nil {
		t.Fatalf("NewExternalExecutor: %v", err)
	}
	// Requirements are not checked against an external device.
	s := mustParse(t, "sparse.toml", `
[require]
features = ["sparseBinding"]
`+greenScript)
	if got := exec.ExecuteScript(s); got != Pass {
		t.Errorf("result = %v, want pass; output:\n%s", got, out)
	}
	exec.Close()

	if n := drv.Calls("DestroyDevice"); n != 0 {
		t.Error("executor destroyed the external device")
	}
	drv.DestroyDevice(dev)
	drv.DestroyInstance(inst)
	if leaks := drv.Leaks(); len(leaks) != 0 {
		t.Errorf("leaked objects: %v", leaks)
	}
}

func TestExecuteAfterClose(t *testing.T) {
	h := newExecutor(t, fakevk.DefaultDevice())
	h.exec.Close()
	if got := h.exec.ExecuteScript(mustParse(t, "late.toml", greenScript)); got != Fail {
		t.Errorf("result = %v, want fail", got)
	}
	if !strings.Contains(h.out.String(), "late.toml: context:") {
		t.Errorf("output = %q", h.out)
	}
}
