package goki

import (
	gvk "github.com/goki/vulkan"

	"github.com/gogpu/vkrun/internal/device"
	"github.com/gogpu/vkrun/internal/vk"
)

func (d *Driver) EnumerateInstanceExtensions() ([]string, vk.Result) {
	var n uint32
	if res := gvk.EnumerateInstanceExtensionProperties("", &n, nil); res != gvk.Success {
		return nil, vk.Result(res)
	}
	props := make([]gvk.ExtensionProperties, n)
	if res := gvk.EnumerateInstanceExtensionProperties("", &n, props); res != gvk.Success {
		return nil, vk.Result(res)
	}
	return extensionNames(props[:n]), vk.Success
}

func extensionNames(props []gvk.ExtensionProperties) []string {
	out := make([]string, len(props))
	for i := range props {
		props[i].Deref()
		out[i] = gvk.ToString(props[i].ExtensionName[:])
	}
	return out
}

func (d *Driver) CreateInstance(info *vk.InstanceCreateInfo) (vk.Instance, vk.Result) {
	app := &gvk.ApplicationInfo{
		SType:            gvk.StructureTypeApplicationInfo,
		PApplicationName: cstr(info.ApplicationName),
		PEngineName:      cstr("vkrun"),
		ApiVersion:       info.APIVersion,
	}
	ci := &gvk.InstanceCreateInfo{
		SType:                   gvk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        app,
		EnabledExtensionCount:   uint32(len(info.Extensions)), //nolint:gosec // extension lists are short
		PpEnabledExtensionNames: cstrs(info.Extensions),
	}
	var inst gvk.Instance
	if res := gvk.CreateInstance(ci, nil, &inst); res != gvk.Success {
		return 0, vk.Result(res)
	}
	if err := gvk.InitInstance(inst); err != nil {
		gvk.DestroyInstance(inst, nil)
		return 0, vk.ErrorInitializationFailed
	}
	return vk.Instance(store(d, &d.instances, inst)), vk.Success
}

func (d *Driver) DestroyInstance(instance vk.Instance) {
	if inst, ok := remove(d, &d.instances, uint64(instance)); ok {
		gvk.DestroyInstance(inst, nil)
	}
}

func (d *Driver) EnumeratePhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, vk.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	inst := d.instances.get(uint64(instance))
	var n uint32
	if res := gvk.EnumeratePhysicalDevices(inst, &n, nil); res != gvk.Success {
		return nil, vk.Result(res)
	}
	pds := make([]gvk.PhysicalDevice, n)
	if res := gvk.EnumeratePhysicalDevices(inst, &n, pds); res != gvk.Success {
		return nil, vk.Result(res)
	}
	out := make([]vk.PhysicalDevice, 0, n)
	for _, pd := range pds[:n] {
		id, ok := d.physicalIDs[pd]
		if !ok {
			id = vk.PhysicalDevice(d.physical.put(pd))
			d.physicalIDs[pd] = id
		}
		out = append(out, id)
	}
	return out, vk.Success
}

func (d *Driver) physicalDevice(pd vk.PhysicalDevice) gvk.PhysicalDevice {
	return lookup(d, &d.physical, uint64(pd))
}

func (d *Driver) GetPhysicalDeviceProperties(pd vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	var props gvk.PhysicalDeviceProperties
	gvk.GetPhysicalDeviceProperties(d.physicalDevice(pd), &props)
	props.Deref()
	return vk.PhysicalDeviceProperties{
		APIVersion:    props.ApiVersion,
		DriverVersion: props.DriverVersion,
		VendorID:      props.VendorID,
		DeviceID:      props.DeviceID,
		DeviceType:    vk.PhysicalDeviceType(props.DeviceType),
		DeviceName:    gvk.ToString(props.DeviceName[:]),
	}
}

func (d *Driver) GetPhysicalDeviceFeatures(pd vk.PhysicalDevice) map[string]bool {
	var f gvk.PhysicalDeviceFeatures
	gvk.GetPhysicalDeviceFeatures(d.physicalDevice(pd), &f)
	f.Deref()
	return featureNames(&f, device.BaseFeatures())
}

func (d *Driver) EnumerateDeviceExtensions(pd vk.PhysicalDevice) ([]string, vk.Result) {
	h := d.physicalDevice(pd)
	var n uint32
	if res := gvk.EnumerateDeviceExtensionProperties(h, "", &n, nil); res != gvk.Success {
		return nil, vk.Result(res)
	}
	props := make([]gvk.ExtensionProperties, n)
	if res := gvk.EnumerateDeviceExtensionProperties(h, "", &n, props); res != gvk.Success {
		return nil, vk.Result(res)
	}
	return extensionNames(props[:n]), vk.Success
}

func (d *Driver) GetPhysicalDeviceQueueFamilyProperties(pd vk.PhysicalDevice) []vk.QueueFamilyProperties {
	h := d.physicalDevice(pd)
	var n uint32
	gvk.GetPhysicalDeviceQueueFamilyProperties(h, &n, nil)
	props := make([]gvk.QueueFamilyProperties, n)
	gvk.GetPhysicalDeviceQueueFamilyProperties(h, &n, props)
	out := make([]vk.QueueFamilyProperties, n)
	for i := range props[:n] {
		props[i].Deref()
		out[i] = vk.QueueFamilyProperties{
			QueueFlags: vk.QueueFlags(props[i].QueueFlags),
			QueueCount: props[i].QueueCount,
		}
	}
	return out
}

func (d *Driver) GetPhysicalDeviceMemoryProperties(pd vk.PhysicalDevice) vk.MemoryProperties {
	var props gvk.PhysicalDeviceMemoryProperties
	gvk.GetPhysicalDeviceMemoryProperties(d.physicalDevice(pd), &props)
	props.Deref()
	out := vk.MemoryProperties{
		Types: make([]vk.MemoryType, props.MemoryTypeCount),
		Heaps: make([]vk.MemoryHeap, props.MemoryHeapCount),
	}
	for i := range out.Types {
		t := props.MemoryTypes[i]
		t.Deref()
		out.Types[i] = vk.MemoryType{PropertyFlags: vk.MemoryPropertyFlags(t.PropertyFlags), HeapIndex: t.HeapIndex}
	}
	for i := range out.Heaps {
		h := props.MemoryHeaps[i]
		h.Deref()
		out.Heaps[i] = vk.MemoryHeap{Size: vk.DeviceSize(h.Size), Flags: uint32(h.Flags)}
	}
	return out
}

func (d *Driver) GetPhysicalDeviceFormatProperties(pd vk.PhysicalDevice, format vk.Format) vk.FormatProperties {
	var props gvk.FormatProperties
	gvk.GetPhysicalDeviceFormatProperties(d.physicalDevice(pd), gvk.Format(format), &props)
	props.Deref()
	return vk.FormatProperties{
		LinearTilingFeatures:  vk.FormatFeatureFlags(props.LinearTilingFeatures),
		OptimalTilingFeatures: vk.FormatFeatureFlags(props.OptimalTilingFeatures),
		BufferFeatures:        vk.FormatFeatureFlags(props.BufferFeatures),
	}
}

func (d *Driver) CreateDevice(pd vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, vk.Result) {
	var features gvk.PhysicalDeviceFeatures
	if !enableFeatures(&features, info.Features) {
		return 0, vk.ErrorFeatureNotPresent
	}
	ci := &gvk.DeviceCreateInfo{
		SType:                gvk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos: []gvk.DeviceQueueCreateInfo{{
			SType:            gvk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: info.QueueFamilyIndex,
			QueueCount:       1,
			PQueuePriorities: []float32{1},
		}},
		EnabledExtensionCount:   uint32(len(info.Extensions)), //nolint:gosec // extension lists are short
		PpEnabledExtensionNames: cstrs(info.Extensions),
		PEnabledFeatures:        []gvk.PhysicalDeviceFeatures{features},
	}
	var dev gvk.Device
	if res := gvk.CreateDevice(d.physicalDevice(pd), ci, nil, &dev); res != gvk.Success {
		return 0, vk.Result(res)
	}
	return vk.Device(store(d, &d.devices, dev)), vk.Success
}
