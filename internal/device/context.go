package device

import (
	"slices"
	"sync/atomic"

	"github.com/gogpu/vkrun/internal/vk"
)

const featureQueryExtension = "VK_KHR_get_physical_device_properties2"

// Context is a logical device together with the objects every script
// needs: a queue, a command pool with one command buffer, and a fence.
//
// A Context is reference counted. New and Adopt return it with one
// reference; every wrapper created from it takes its own with Retain and
// gives it back with Release. Native objects are destroyed when the last
// reference goes away, so dependents may outlive the holder that created
// the context.
type Context struct {
	refs atomic.Int32

	driver      vk.Driver
	instance    vk.Instance
	physical    vk.PhysicalDevice
	device      vk.Device
	queueFamily uint32
	queue       vk.Queue

	commandPool   vk.CommandPool
	commandBuffer vk.CommandBuffer
	fence         vk.Fence

	memory      vk.MemoryProperties
	properties  vk.PhysicalDeviceProperties
	reqs        *Requirements
	alwaysFlush bool
	external    bool
}

// External identifies a device created and owned by the caller.
type External struct {
	// Instance is optional; it is only used for diagnostics.
	Instance       vk.Instance
	PhysicalDevice vk.PhysicalDevice
	Device         vk.Device
	QueueFamily    uint32
}

// New creates an instance and a device that satisfies reqs.
func New(drv vk.Driver, reqs *Requirements, opts ...Option) (*Context, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if reqs == nil {
		reqs = NewRequirements()
	}

	c := &Context{driver: drv, reqs: reqs.Clone(), alwaysFlush: o.alwaysFlush}
	c.refs.Store(1)
	if err := c.createOwned(o); err != nil {
		c.destroy()
		return nil, err
	}
	Logger().Info("vkrun: context created",
		"device", c.properties.DeviceName,
		"queueFamily", c.queueFamily,
		"requirements", c.reqs.String())
	return c, nil
}

// Adopt wraps a caller-supplied device. The device and instance are never
// destroyed by the returned context; only the objects Adopt creates are.
func Adopt(drv vk.Driver, ext External, opts ...Option) (*Context, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Context{
		driver:      drv,
		instance:    ext.Instance,
		physical:    ext.PhysicalDevice,
		device:      ext.Device,
		queueFamily: ext.QueueFamily,
		alwaysFlush: o.alwaysFlush,
		external:    true,
	}
	c.refs.Store(1)
	if err := c.createResources(); err != nil {
		c.destroy()
		return nil, err
	}
	Logger().Info("vkrun: adopted external device",
		"device", c.properties.DeviceName,
		"queueFamily", c.queueFamily)
	return c, nil
}

func (c *Context) createOwned(o options) error {
	var exts []string
	if c.reqs.NeedsFeatureQuery() {
		available, res := c.driver.EnumerateInstanceExtensions()
		if res != vk.Success {
			return failure(res, "vkEnumerateInstanceExtensionProperties failed")
		}
		if !slices.Contains(available, featureQueryExtension) {
			return incompatible("Missing required instance extension: %s", featureQueryExtension)
		}
		exts = append(exts, featureQueryExtension)
	}

	inst, res := c.driver.CreateInstance(&vk.InstanceCreateInfo{
		ApplicationName: o.appName,
		APIVersion:      c.reqs.Version(),
		Extensions:      exts,
	})
	switch res {
	case vk.Success:
	case vk.ErrorIncompatibleDriver:
		return &Error{Kind: Incompatible, Result: res, Msg: "vkCreateInstance reported VK_ERROR_INCOMPATIBLE_DRIVER"}
	default:
		return failure(res, "vkCreateInstance failed")
	}
	c.instance = inst

	pd, family, err := c.findPhysicalDevice(o.deviceID)
	if err != nil {
		return err
	}
	c.physical, c.queueFamily = pd, family

	dev, res := c.driver.CreateDevice(pd, &vk.DeviceCreateInfo{
		QueueFamilyIndex: family,
		Extensions:       c.reqs.Extensions(),
		Features:         c.reqs.Features(),
	})
	if res != vk.Success {
		return failure(res, "vkCreateDevice failed")
	}
	c.device = dev
	return c.createResources()
}

func (c *Context) findPhysicalDevice(deviceID int) (vk.PhysicalDevice, uint32, error) {
	devices, res := c.driver.EnumeratePhysicalDevices(c.instance)
	if res != vk.Success {
		return 0, 0, failure(res, "vkEnumeratePhysicalDevices failed")
	}

	if deviceID >= 0 {
		if deviceID >= len(devices) {
			plural := "s"
			if len(devices) == 1 {
				plural = ""
			}
			return 0, 0, failure(vk.Success,
				"Device %d was selected but the Vulkan instance only reported %d device%s.",
				deviceID, len(devices), plural)
		}
		pd := devices[deviceID]
		family, err := c.checkPhysicalDevice(pd)
		if err != nil {
			return 0, 0, err
		}
		return pd, family, nil
	}

	var errs []*Error
	for _, pd := range devices {
		family, err := c.checkPhysicalDevice(pd)
		if err == nil {
			return pd, family, nil
		}
		errs = append(errs, err)
	}
	return 0, 0, combine(errs)
}

func (c *Context) checkPhysicalDevice(pd vk.PhysicalDevice) (uint32, *Error) {
	if err := c.reqs.Check(c.driver, pd); err != nil {
		if e, ok := err.(*Error); ok {
			return 0, e
		}
		return 0, failure(vk.Success, "%s", err)
	}
	for i, q := range c.driver.GetPhysicalDeviceQueueFamilyProperties(pd) {
		if q.QueueFlags&vk.QueueGraphics != 0 && q.QueueCount >= 1 {
			return uint32(i), nil
		}
	}
	return 0, incompatible("Device has no graphics queue family")
}

// createResources builds the per-device objects shared by New and Adopt.
func (c *Context) createResources() error {
	d := c.driver
	c.properties = d.GetPhysicalDeviceProperties(c.physical)
	c.memory = d.GetPhysicalDeviceMemoryProperties(c.physical)
	c.queue = d.GetDeviceQueue(c.device, c.queueFamily, 0)

	pool, res := d.CreateCommandPool(c.device, c.queueFamily)
	if res != vk.Success {
		return failure(res, "Error creating command pool")
	}
	c.commandPool = pool

	cb, res := d.AllocateCommandBuffer(c.device, pool)
	if res != vk.Success {
		return failure(res, "Error allocating command buffer")
	}
	c.commandBuffer = cb

	fence, res := d.CreateFence(c.device)
	if res != vk.Success {
		return failure(res, "Error creating fence")
	}
	c.fence = fence
	return nil
}

// destroy releases whatever was created, in reverse order. The caller's
// device and instance are left alone in external mode.
func (c *Context) destroy() {
	d := c.driver
	if c.device != 0 {
		if res := d.DeviceWaitIdle(c.device); res != vk.Success {
			Logger().Warn("vkrun: vkDeviceWaitIdle failed during teardown", "result", res)
		}
	}
	if c.fence != 0 {
		d.DestroyFence(c.device, c.fence)
		c.fence = 0
	}
	if c.commandBuffer != 0 {
		d.FreeCommandBuffer(c.device, c.commandPool, c.commandBuffer)
		c.commandBuffer = 0
	}
	if c.commandPool != 0 {
		d.DestroyCommandPool(c.device, c.commandPool)
		c.commandPool = 0
	}
	if c.external {
		return
	}
	if c.device != 0 {
		d.DestroyDevice(c.device)
		c.device = 0
	}
	if c.instance != 0 {
		d.DestroyInstance(c.instance)
		c.instance = 0
	}
}

// Retain adds a reference and returns c.
func (c *Context) Retain() *Context {
	if c.refs.Add(1) <= 1 {
		panic("device: Retain on a released context")
	}
	return c
}

// Release drops a reference. The last Release destroys the device.
func (c *Context) Release() {
	switch n := c.refs.Add(-1); {
	case n == 0:
		Logger().Debug("vkrun: destroying context", "external", c.external)
		c.destroy()
	case n < 0:
		panic("device: context released more times than retained")
	}
}

// Refs returns the current reference count.
func (c *Context) Refs() int32 { return c.refs.Load() }

func (c *Context) Driver() vk.Driver                 { return c.driver }
func (c *Context) Instance() vk.Instance             { return c.instance }
func (c *Context) PhysicalDevice() vk.PhysicalDevice { return c.physical }
func (c *Context) Device() vk.Device                 { return c.device }
func (c *Context) QueueFamily() uint32               { return c.queueFamily }
func (c *Context) Queue() vk.Queue                   { return c.queue }
func (c *Context) CommandPool() vk.CommandPool       { return c.commandPool }
func (c *Context) CommandBuffer() vk.CommandBuffer   { return c.commandBuffer }
func (c *Context) Fence() vk.Fence                   { return c.fence }

// Properties returns the physical device properties.
func (c *Context) Properties() vk.PhysicalDeviceProperties { return c.properties }

// MemoryProperties returns the memory type table. It must not be modified.
func (c *Context) MemoryProperties() vk.MemoryProperties { return c.memory }

// MemoryType returns the flags of memory type i.
func (c *Context) MemoryType(i uint32) vk.MemoryPropertyFlags {
	if int(i) >= len(c.memory.Types) {
		return 0
	}
	return c.memory.Types[i].PropertyFlags
}

// AlwaysFlushMemory reports whether coherent memory is flushed anyway.
func (c *Context) AlwaysFlushMemory() bool { return c.alwaysFlush }

// External reports whether the device belongs to the caller.
func (c *Context) External() bool { return c.external }

// Requirements returns the requirements the context was created for. It is
// nil for adopted devices.
func (c *Context) Requirements() *Requirements { return c.reqs }
