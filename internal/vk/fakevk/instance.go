package fakevk

import (
	"slices"

	"github.com/gogpu/vkrun/internal/vk"
)

func (d *Driver) EnumerateInstanceExtensions() ([]string, vk.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r := d.call("EnumerateInstanceExtensions"); r != vk.Success {
		return nil, r
	}
	return slices.Clone(d.cfg.InstanceExtensions), vk.Success
}

func (d *Driver) CreateInstance(info *vk.InstanceCreateInfo) (vk.Instance, vk.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r := d.call("CreateInstance"); r != vk.Success {
		return 0, r
	}
	for _, ext := range info.Extensions {
		if !slices.Contains(d.cfg.InstanceExtensions, ext) {
			return 0, vk.ErrorExtensionNotPresent
		}
	}
	inst := vk.Instance(d.create("Instance", 0))
	for i := range d.cfg.Devices {
		pd := vk.PhysicalDevice(d.create("PhysicalDevice", 0))
		d.physical[pd] = i
	}
	return inst, vk.Success
}

func (d *Driver) DestroyInstance(instance vk.Instance) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("DestroyInstance")
	if !d.destroy("Instance", uint64(instance)) {
		return
	}
	for pd := range d.physical {
		delete(d.objects, uint64(pd))
		delete(d.physical, pd)
	}
}

func (d *Driver) EnumeratePhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, vk.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r := d.call("EnumeratePhysicalDevices"); r != vk.Success {
		return nil, r
	}
	d.check("Instance", uint64(instance), "EnumeratePhysicalDevices")
	out := make([]vk.PhysicalDevice, len(d.physical))
	for pd, i := range d.physical {
		out[i] = pd
	}
	return out, vk.Success
}

func (d *Driver) physicalConfig(pd vk.PhysicalDevice) DeviceConfig {
	return d.cfg.Devices[d.physical[pd]]
}

func (d *Driver) GetPhysicalDeviceProperties(pd vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("GetPhysicalDeviceProperties")
	cfg := d.physicalConfig(pd)
	return vk.PhysicalDeviceProperties{
		APIVersion: cfg.APIVersion,
		VendorID:   0x10005,
		DeviceID:   uint32(d.physical[pd]),
		DeviceType: vk.PhysicalDeviceTypeCPU,
		DeviceName: cfg.Name,
	}
}

func (d *Driver) GetPhysicalDeviceFeatures(pd vk.PhysicalDevice) map[string]bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("GetPhysicalDeviceFeatures")
	out := make(map[string]bool)
	for _, f := range d.physicalConfig(pd).Features {
		out[f] = true
	}
	return out
}

func (d *Driver) EnumerateDeviceExtensions(pd vk.PhysicalDevice) ([]string, vk.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r := d.call("EnumerateDeviceExtensions"); r != vk.Success {
		return nil, r
	}
	return slices.Clone(d.physicalConfig(pd).Extensions), vk.Success
}

func (d *Driver) GetPhysicalDeviceQueueFamilyProperties(pd vk.PhysicalDevice) []vk.QueueFamilyProperties {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("GetPhysicalDeviceQueueFamilyProperties")
	return slices.Clone(d.physicalConfig(pd).QueueFamilies)
}

func (d *Driver) GetPhysicalDeviceMemoryProperties(pd vk.PhysicalDevice) vk.MemoryProperties {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("GetPhysicalDeviceMemoryProperties")
	m := d.physicalConfig(pd).Memory
	return vk.MemoryProperties{Types: slices.Clone(m.Types), Heaps: slices.Clone(m.Heaps)}
}

func (d *Driver) GetPhysicalDeviceFormatProperties(pd vk.PhysicalDevice, format vk.Format) vk.FormatProperties {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("GetPhysicalDeviceFormatProperties")
	cfg := d.physicalConfig(pd)
	if cfg.Formats != nil {
		return cfg.Formats[format]
	}
	if format.IsDepthStencil() {
		return vk.FormatProperties{OptimalTilingFeatures: vk.FormatFeatureDepthStencilAttachment}
	}
	all := vk.FormatFeatureColorAttachment | vk.FormatFeatureColorAttachmentBlend |
		vk.FormatFeatureBlitSrc | vk.FormatFeatureBlitDst | vk.FormatFeatureSampledImage
	return vk.FormatProperties{
		OptimalTilingFeatures: all,
		LinearTilingFeatures:  all,
		BufferFeatures:        vk.FormatFeatureVertexBuffer,
	}
}

func (d *Driver) CreateDevice(pd vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, vk.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r := d.call("CreateDevice"); r != vk.Success {
		return 0, r
	}
	if !d.check("PhysicalDevice", uint64(pd), "CreateDevice") {
		return 0, vk.ErrorInitializationFailed
	}
	cfg := d.physicalConfig(pd)
	for _, ext := range info.Extensions {
		if !slices.Contains(cfg.Extensions, ext) {
			return 0, vk.ErrorExtensionNotPresent
		}
	}
	for _, f := range info.Features {
		if !slices.Contains(cfg.Features, f) {
			return 0, vk.ErrorFeatureNotPresent
		}
	}
	if int(info.QueueFamilyIndex) >= len(cfg.QueueFamilies) {
		return 0, vk.ErrorInitializationFailed
	}
	dev := vk.Device(d.create("Device", 0))
	d.devices[dev] = d.physical[pd]
	return dev, vk.Success
}
