package session

import (
	"errors"
	"testing"

	"github.com/gogpu/vkrun/internal/device"
	"github.com/gogpu/vkrun/internal/pipeline"
	"github.com/gogpu/vkrun/internal/vk"
	"github.com/gogpu/vkrun/internal/vk/fakevk"
	"github.com/gogpu/vkrun/internal/window"
)

func checkClean(t *testing.T, drv *fakevk.Driver) {
	t.Helper()
	if leaks := drv.Leaks(); len(leaks) != 0 {
		t.Errorf("leaked objects: %v", leaks)
	}
	if errs := drv.Errors(); len(errs) != 0 {
		t.Errorf("driver errors: %v", errs)
	}
}

func mustAcquire(t *testing.T, m *Manager, reqs *device.Requirements, f window.Format) *Target {
	t.Helper()
	tg, err := m.Acquire(reqs, f)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	return tg
}

func requirements(t *testing.T, names ...string) *device.Requirements {
	t.Helper()
	r := device.NewRequirements()
	for _, n := range names {
		if err := r.Add(n); err != nil {
			t.Fatalf("Add(%q): %v", n, err)
		}
	}
	return r
}

func TestAcquireReusesContext(t *testing.T) {
	drv := fakevk.New(fakevk.Config{})
	m := NewOwned(drv)

	a := mustAcquire(t, m, requirements(t, "geometryShader"), window.DefaultFormat())
	a.Release()
	b := mustAcquire(t, m, requirements(t, "geometryShader"), window.DefaultFormat())
	b.Release()

	if a.Context() != b.Context() || a.Window() != b.Window() {
		t.Error("matching request did not reuse the target")
	}
	if n := drv.Calls("CreateDevice"); n != 1 {
		t.Errorf("CreateDevice called %d times, want 1", n)
	}
	if want := (Stats{Contexts: 1, Windows: 1, Caches: 1}); m.Stats() != want {
		t.Errorf("Stats() = %+v, want %+v", m.Stats(), want)
	}

	m.Close()
	m.Close()
	checkClean(t, drv)
}

func TestAcquireRebuildsOnRequirements(t *testing.T) {
	drv := fakevk.New(fakevk.Config{})
	m := NewOwned(drv)
	defer func() {
		m.Close()
		checkClean(t, drv)
	}()

	a := mustAcquire(t, m, nil, window.DefaultFormat())
	first := a.Context()
	a.Release()

	b := mustAcquire(t, m, requirements(t, "wideLines"), window.DefaultFormat())
	defer b.Release()

	if b.Context() == first {
		t.Error("context was reused across different requirements")
	}
	if n := drv.Calls("CreateDevice"); n != 2 {
		t.Errorf("CreateDevice called %d times, want 2", n)
	}
	if n := drv.Calls("DestroyDevice"); n != 1 {
		t.Errorf("DestroyDevice called %d times, want 1", n)
	}
	if n := drv.Calls("DestroyPipelineCache"); n != 1 {
		t.Errorf("DestroyPipelineCache called %d times, want 1", n)
	}
	if n := drv.Live("Device"); n != 1 {
		t.Errorf("%d devices live", n)
	}
}

func TestAcquireRebuildsWindowOnly(t *testing.T) {
	drv := fakevk.New(fakevk.Config{})
	m := NewOwned(drv)
	defer func() {
		m.Close()
		checkClean(t, drv)
	}()

	a := mustAcquire(t, m, nil, window.DefaultFormat())
	a.Release()

	f := window.DefaultFormat()
	f.DepthStencil = vk.FormatD24UnormS8Uint
	b := mustAcquire(t, m, nil, f)
	defer b.Release()

	if b.Context() != a.Context() {
		t.Error("format change rebuilt the context")
	}
	if b.Window() == a.Window() {
		t.Error("format change reused the window")
	}
	if b.Window().Format() != f {
		t.Errorf("window format = %v", b.Window().Format())
	}
	if n := drv.Calls("CreateDevice"); n != 1 {
		t.Errorf("CreateDevice called %d times, want 1", n)
	}
	if n := drv.Live("Framebuffer"); n != 1 {
		t.Errorf("%d framebuffers live", n)
	}
	if want := (Stats{Contexts: 1, Windows: 2, Caches: 2}); m.Stats() != want {
		t.Errorf("Stats() = %+v, want %+v", m.Stats(), want)
	}
}

func TestTargetOutlivesRebuild(t *testing.T) {
	drv := fakevk.New(fakevk.Config{})
	m := NewOwned(drv)

	old := mustAcquire(t, m, nil, window.DefaultFormat())
	cur := mustAcquire(t, m, requirements(t, "depthClamp"), window.DefaultFormat())

	// The old device is still referenced by the first target.
	if n := drv.Live("Device"); n != 2 {
		t.Errorf("%d devices live, want 2", n)
	}
	if old.Window().Framebuffer() == 0 {
		t.Error("old window lost its framebuffer")
	}

	old.Release()
	old.Release()
	if n := drv.Live("Device"); n != 1 {
		t.Errorf("%d devices live after release, want 1", n)
	}

	cur.Release()
	m.Close()
	checkClean(t, drv)
}

func TestAcquireIncompatible(t *testing.T) {
	drv := fakevk.New(fakevk.Config{})
	m := NewOwned(drv)
	defer func() {
		m.Close()
		checkClean(t, drv)
	}()

	_, err := m.Acquire(requirements(t, "sparseBinding"), window.DefaultFormat())
	if !errors.Is(err, device.ErrIncompatible) {
		t.Fatalf("err = %v, want ErrIncompatible", err)
	}

	// A failed request leaves nothing behind and the next one succeeds.
	tg := mustAcquire(t, m, nil, window.DefaultFormat())
	tg.Release()
}

func TestAcquireUnsupportedFormat(t *testing.T) {
	dev := fakevk.DefaultDevice()
	dev.Formats = map[vk.Format]vk.FormatProperties{}
	drv := fakevk.New(fakevk.Config{Devices: []fakevk.DeviceConfig{dev}})
	m := NewOwned(drv)
	defer func() {
		m.Close()
		checkClean(t, drv)
	}()

	_, err := m.Acquire(nil, window.DefaultFormat())
	if !errors.Is(err, window.ErrIncompatible) {
		t.Fatalf("err = %v, want window.ErrIncompatible", err)
	}
	// The context survives a window failure.
	if n := drv.Calls("CreateDevice"); n != 1 {
		t.Errorf("CreateDevice called %d times", n)
	}
	_, _ = m.Acquire(nil, window.DefaultFormat())
	if n := drv.Calls("CreateDevice"); n != 1 {
		t.Errorf("CreateDevice called %d times after retry", n)
	}
}

func TestExternalMode(t *testing.T) {
	drv := fakevk.New(fakevk.Config{})
	inst, _ := drv.CreateInstance(&vk.InstanceCreateInfo{})
	pds, _ := drv.EnumeratePhysicalDevices(inst)
	dev, res := drv.CreateDevice(pds[0], &vk.DeviceCreateInfo{})
	if res != vk.Success {
		t.Fatal(res)
	}
	ctx, err := device.Adopt(drv, device.External{Instance: inst, PhysicalDevice: pds[0], Device: dev})
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}

	m := NewExternal(ctx)
	ctx.Release()
	if !m.External() {
		t.Error("External() = false")
	}

	// Requirements the device does not meet are not checked.
	tg := mustAcquire(t, m, requirements(t, "sparseBinding"), window.DefaultFormat())
	if tg.Context() != ctx {
		t.Error("external manager did not use the adopted context")
	}
	tg.Release()

	m.Close()
	if _, err := m.Acquire(nil, window.DefaultFormat()); !errors.Is(err, ErrClosed) {
		t.Errorf("Acquire after Close: %v", err)
	}
	if n := drv.Calls("DestroyDevice"); n != 0 {
		t.Error("external device was destroyed")
	}

	drv.DestroyDevice(dev)
	drv.DestroyInstance(inst)
	checkClean(t, drv)
}

func TestCacheDroppedWithWindow(t *testing.T) {
	drv := fakevk.New(fakevk.Config{})
	m := NewOwned(drv)
	defer func() {
		m.Close()
		checkClean(t, drv)
	}()

	a := mustAcquire(t, m, nil, window.DefaultFormat())
	cache := a.Cache()
	a.Release()

	f := window.DefaultFormat()
	f.Width = 64
	b := mustAcquire(t, m, nil, f)
	defer b.Release()

	if b.Cache() == cache {
		t.Error("cache survived a window rebuild")
	}
	k := pipeline.DefaultKey()
	if _, err := cache.GetOrCreate(pipeline.Request{Key: &k}); !errors.Is(err, pipeline.ErrCacheDestroyed) {
		t.Errorf("old cache still usable: %v", err)
	}
}
