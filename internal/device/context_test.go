package device

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/vkrun/internal/vk"
	"github.com/gogpu/vkrun/internal/vk/fakevk"
)

func TestNewContext(t *testing.T) {
	drv := fakevk.New(fakevk.Config{})
	ctx, err := New(drv, NewRequirements())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ctx.Device() == 0 || ctx.Queue() == 0 || ctx.CommandBuffer() == 0 || ctx.Fence() == 0 {
		t.Fatal("context is missing a handle")
	}
	if got := len(ctx.MemoryProperties().Types); got != 2 {
		t.Errorf("memory types = %d, want 2", got)
	}
	if ctx.External() {
		t.Error("owned context reports external")
	}

	ctx.Release()
	if n := drv.Live(""); n != 0 {
		t.Errorf("live objects after release = %d (%v)", n, drv.Leaks())
	}
	if errs := drv.Errors(); len(errs) != 0 {
		t.Errorf("driver errors: %v", errs)
	}
}

func TestContextRefcount(t *testing.T) {
	drv := fakevk.New(fakevk.Config{})
	ctx, err := New(drv, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx.Retain()
	ctx.Release()
	if drv.Calls("DestroyDevice") != 0 {
		t.Fatal("device destroyed while a reference is outstanding")
	}
	ctx.Release()
	if drv.Calls("DestroyDevice") != 1 {
		t.Errorf("DestroyDevice calls = %d, want 1", drv.Calls("DestroyDevice"))
	}
}

func TestNewContextIncompatible(t *testing.T) {
	drv := fakevk.New(fakevk.Config{})
	reqs := NewRequirements()
	_ = reqs.Add("sparseBinding")

	_, err := New(drv, reqs)
	if !errors.Is(err, ErrIncompatible) {
		t.Fatalf("New = %v, want incompatible", err)
	}
	if n := drv.Live(""); n != 0 {
		t.Errorf("failed New leaked %v", drv.Leaks())
	}
}

func TestNewContextNoGraphicsQueue(t *testing.T) {
	dev := fakevk.DefaultDevice()
	dev.QueueFamilies = []vk.QueueFamilyProperties{{QueueFlags: vk.QueueCompute, QueueCount: 1}}
	drv := fakevk.New(fakevk.Config{Devices: []fakevk.DeviceConfig{dev}})

	_, err := New(drv, nil)
	if err == nil || err.Error() != "Device has no graphics queue family" {
		t.Fatalf("New = %v", err)
	}
	if !errors.Is(err, ErrIncompatible) {
		t.Error("missing graphics queue should be incompatible")
	}
}

func TestNewContextDeviceID(t *testing.T) {
	drv := fakevk.New(fakevk.Config{})
	_, err := New(drv, nil, WithDeviceID(3))
	if err == nil {
		t.Fatal("expected error for out of range device id")
	}
	want := "Device 3 was selected but the Vulkan instance only reported 1 device."
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err, want)
	}
	if errors.Is(err, ErrIncompatible) {
		t.Error("bad device id should be a failure")
	}
}

func TestNewContextCombinedErrors(t *testing.T) {
	noGraphics := fakevk.DefaultDevice()
	noGraphics.QueueFamilies = nil
	drv := fakevk.New(fakevk.Config{Devices: []fakevk.DeviceConfig{noGraphics, noGraphics}})

	_, err := New(drv, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "0: Device has no graphics queue family\n1: ") {
		t.Errorf("combined message = %q", err)
	}
	if !errors.Is(err, ErrIncompatible) {
		t.Error("combined incompatible errors should stay incompatible")
	}
}

func TestNewContextDeviceCreateFails(t *testing.T) {
	drv := fakevk.New(fakevk.Config{})
	drv.Fail("CreateFence", vk.ErrorOutOfDeviceMemory)

	_, err := New(drv, nil)
	var e *Error
	if !errors.As(err, &e) || e.Kind != Failure || e.Result != vk.ErrorOutOfDeviceMemory {
		t.Fatalf("New = %#v", err)
	}
	if n := drv.Live(""); n != 0 {
		t.Errorf("partial context leaked %v", drv.Leaks())
	}
}

func TestAdoptNeverDestroysDevice(t *testing.T) {
	drv := fakevk.New(fakevk.Config{})
	inst, _ := drv.CreateInstance(&vk.InstanceCreateInfo{})
	pds, _ := drv.EnumeratePhysicalDevices(inst)
	dev, res := drv.CreateDevice(pds[0], &vk.DeviceCreateInfo{})
	if res != vk.Success {
		t.Fatal(res)
	}

	ctx, err := Adopt(drv, External{Instance: inst, PhysicalDevice: pds[0], Device: dev})
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	if !ctx.External() {
		t.Error("adopted context should be external")
	}
	ctx.Release()

	if drv.Calls("DestroyDevice") != 0 || drv.Calls("DestroyInstance") != 0 {
		t.Error("external device or instance was destroyed")
	}
	if drv.Live("CommandPool") != 0 || drv.Live("Fence") != 0 {
		t.Errorf("context objects leaked: %v", drv.Leaks())
	}
	drv.DestroyDevice(dev)
	drv.DestroyInstance(inst)
	if errs := drv.Errors(); len(errs) != 0 {
		t.Errorf("driver errors: %v", errs)
	}
}

func TestEnumerate(t *testing.T) {
	drv := fakevk.New(fakevk.Config{Devices: []fakevk.DeviceConfig{fakevk.DefaultDevice(), fakevk.DefaultDevice()}})
	reqs := NewRequirements()
	_ = reqs.Add("sparseBinding")

	infos, err := Enumerate(drv, reqs)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 {
		t.Fatalf("got %d devices, want 2", len(infos))
	}
	for _, info := range infos {
		if !errors.Is(info.CheckResult, ErrIncompatible) {
			t.Errorf("device %d: CheckResult = %v", info.Index, info.CheckResult)
		}
	}
	if drv.Live("Instance") != 0 {
		t.Error("Enumerate leaked its instance")
	}
}
