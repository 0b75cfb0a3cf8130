package resource

import (
	"testing"

	"github.com/gogpu/vkrun/internal/device"
	"github.com/gogpu/vkrun/internal/vk"
	"github.com/gogpu/vkrun/internal/vk/fakevk"
)

// mockContext creates a context on a fake device with the given memory
// types. A nil types uses the fake driver's defaults.
func mockContext(t *testing.T, types []vk.MemoryPropertyFlags, alwaysFlush bool) (*fakevk.Driver, *device.Context) {
	t.Helper()
	dev := fakevk.DefaultDevice()
	if types != nil {
		dev.Memory.Types = nil
		for _, f := range types {
			dev.Memory.Types = append(dev.Memory.Types, vk.MemoryType{PropertyFlags: f})
		}
	}
	drv := fakevk.New(fakevk.Config{Devices: []fakevk.DeviceConfig{dev}})
	ctx, err := device.New(drv, nil, device.WithAlwaysFlushMemory(alwaysFlush))
	if err != nil {
		t.Fatalf("device.New: %v", err)
	}
	return drv, ctx
}

func mustContext(t *testing.T, drv *fakevk.Driver) *device.Context {
	t.Helper()
	ctx, err := device.New(drv, nil)
	if err != nil {
		t.Fatalf("device.New: %v", err)
	}
	return ctx
}

// checkClean releases ctx and verifies that nothing leaked and no handle
// was freed twice.
func checkClean(t *testing.T, drv *fakevk.Driver, ctx *device.Context) {
	t.Helper()
	ctx.Release()
	if leaks := drv.Leaks(); len(leaks) != 0 {
		t.Errorf("leaked objects: %v", leaks)
	}
	if errs := drv.Errors(); len(errs) != 0 {
		t.Errorf("driver errors: %v", errs)
	}
}
