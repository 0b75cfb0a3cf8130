package device

import (
	"github.com/gogpu/vkrun/internal/vk"
)

// Info describes one physical device.
type Info struct {
	Index       int
	Properties  vk.PhysicalDeviceProperties
	Memory      vk.MemoryProperties
	Queues      []vk.QueueFamilyProperties
	Extensions  []string
	Features    map[string]bool
	CheckResult error
}

// Enumerate lists the physical devices and checks each one against reqs.
// A nil reqs checks against the empty requirements.
func Enumerate(drv vk.Driver, reqs *Requirements) ([]Info, error) {
	if reqs == nil {
		reqs = NewRequirements()
	}
	inst, res := drv.CreateInstance(&vk.InstanceCreateInfo{
		ApplicationName: "vkrun",
		APIVersion:      vk.MakeVersion(1, 0, 0),
	})
	if res != vk.Success {
		return nil, failure(res, "vkCreateInstance failed")
	}
	defer drv.DestroyInstance(inst)

	devices, res := drv.EnumeratePhysicalDevices(inst)
	if res != vk.Success {
		return nil, failure(res, "vkEnumeratePhysicalDevices failed")
	}
	infos := make([]Info, 0, len(devices))
	for i, pd := range devices {
		exts, _ := drv.EnumerateDeviceExtensions(pd)
		infos = append(infos, Info{
			Index:       i,
			Properties:  drv.GetPhysicalDeviceProperties(pd),
			Memory:      drv.GetPhysicalDeviceMemoryProperties(pd),
			Queues:      drv.GetPhysicalDeviceQueueFamilyProperties(pd),
			Extensions:  exts,
			Features:    drv.GetPhysicalDeviceFeatures(pd),
			CheckResult: reqs.Check(drv, pd),
		})
	}
	return infos, nil
}
