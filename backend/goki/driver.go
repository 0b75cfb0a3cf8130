// Package goki implements vk.Driver on the system Vulkan loader through
// github.com/goki/vulkan.
//
// Importing the package registers the driver as "vulkan":
//
//	import _ "github.com/gogpu/vkrun/backend/goki"
//
// The loader is opened on the first Open call. Native handles never leave
// the package; callers see the integer handles of the vk package, which
// are looked up in per-type tables on every call.
//
// Only the members of VkPhysicalDeviceFeatures are reported. Extension
// feature structs are not queried, so scripts that require them are
// skipped on this driver.
package goki

import (
	"errors"
	"fmt"
	"sync"

	gvk "github.com/goki/vulkan"

	"github.com/gogpu/vkrun"
	"github.com/gogpu/vkrun/internal/vk"
)

// ErrLoader is returned by Open when the Vulkan loader cannot be used.
var ErrLoader = errors.New("goki: vulkan loader unavailable")

var (
	loadOnce sync.Once
	loadErr  error
)

func init() {
	vkrun.RegisterDriver(vkrun.DriverVulkan, func() (vkrun.Driver, error) { return Open() })
}

// Open loads the Vulkan loader once and returns a new driver.
func Open() (*Driver, error) {
	loadOnce.Do(func() {
		if err := gvk.SetDefaultGetInstanceProcAddr(); err != nil {
			loadErr = fmt.Errorf("%w: %v", ErrLoader, err)
			return
		}
		if err := gvk.Init(); err != nil {
			loadErr = fmt.Errorf("%w: %v", ErrLoader, err)
		}
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return newDriver(), nil
}

// table maps integer handles to native ones. Zero is never issued.
type table[T any] struct {
	next uint64
	m    map[uint64]T
}

func (t *table[T]) put(h T) uint64 {
	if t.m == nil {
		t.m = make(map[uint64]T)
	}
	t.next++
	t.m[t.next] = h
	return t.next
}

func (t *table[T]) get(id uint64) T { return t.m[id] }

func (t *table[T]) del(id uint64) (T, bool) {
	h, ok := t.m[id]
	delete(t.m, id)
	return h, ok
}

func (t *table[T]) len() int { return len(t.m) }

// Driver is a vk.Driver backed by the system loader. It is safe for
// concurrent use; every call holds the driver lock while translating
// handles.
type Driver struct {
	mu sync.Mutex

	instances      table[gvk.Instance]
	physical       table[gvk.PhysicalDevice]
	devices        table[gvk.Device]
	queues         table[gvk.Queue]
	commandPools   table[gvk.CommandPool]
	commandBuffers table[gvk.CommandBuffer]
	fences         table[gvk.Fence]
	buffers        table[gvk.Buffer]
	images         table[gvk.Image]
	imageViews     table[gvk.ImageView]
	memories       table[gvk.DeviceMemory]
	renderPasses   table[gvk.RenderPass]
	framebuffers   table[gvk.Framebuffer]
	shaderModules  table[gvk.ShaderModule]
	setLayouts     table[gvk.DescriptorSetLayout]
	descPools      table[gvk.DescriptorPool]
	descSets       table[gvk.DescriptorSet]
	layouts        table[gvk.PipelineLayout]
	caches         table[gvk.PipelineCache]
	pipelines      table[gvk.Pipeline]

	// physicalIDs dedups physical devices across enumerations.
	physicalIDs map[gvk.PhysicalDevice]vk.PhysicalDevice
	// memorySizes lets MapMemory resolve WholeSize.
	memorySizes map[vk.DeviceMemory]vk.DeviceSize
	// poolSets remembers the sets allocated from each descriptor pool.
	poolSets map[vk.DescriptorPool][]vk.DescriptorSet
}

var _ vk.Driver = (*Driver)(nil)

func newDriver() *Driver {
	return &Driver{
		physicalIDs: make(map[gvk.PhysicalDevice]vk.PhysicalDevice),
		memorySizes: make(map[vk.DeviceMemory]vk.DeviceSize),
		poolSets:    make(map[vk.DescriptorPool][]vk.DescriptorSet),
	}
}

// Live returns the number of native objects the driver still tracks,
// physical devices and queues excluded.
func (d *Driver) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.instances.len() + d.devices.len() + d.commandPools.len() +
		d.commandBuffers.len() + d.fences.len() + d.buffers.len() +
		d.images.len() + d.imageViews.len() + d.memories.len() +
		d.renderPasses.len() + d.framebuffers.len() + d.shaderModules.len() +
		d.setLayouts.len() + d.descPools.len() + d.layouts.len() +
		d.caches.len() + d.pipelines.len()
}

func lookup[T any](d *Driver, t *table[T], id uint64) T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return t.get(id)
}

func store[T any](d *Driver, t *table[T], h T) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return t.put(h)
}

func remove[T any](d *Driver, t *table[T], id uint64) (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return t.del(id)
}
