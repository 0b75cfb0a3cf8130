package resource

import (
	"math/bits"

	"github.com/gogpu/vkrun/internal/device"
	"github.com/gogpu/vkrun/internal/vk"
)

// FindMemoryType returns the first memory type index that is set in
// typeBits and whose property flags include flags.
func FindMemoryType(props vk.MemoryProperties, typeBits uint32, flags vk.MemoryPropertyFlags) (uint32, error) {
	admissible := typeBits
	if n := len(props.Types); n < 32 {
		admissible &= 1<<n - 1
	}
	if admissible == 0 {
		return 0, &AllocationError{Reason: NoAdmissibleType, Flags: flags, Bits: typeBits}
	}
	for rest := admissible; rest != 0; rest &= rest - 1 {
		i := uint32(bits.TrailingZeros32(rest))
		if props.Types[i].PropertyFlags.Has(flags) {
			return i, nil
		}
	}
	return 0, &AllocationError{Reason: NoMatchingType, Flags: flags, Bits: typeBits}
}

// AllocateForBuffer allocates memory with at least the given property flags
// and binds it to buf at offset 0.
func AllocateForBuffer(ctx *device.Context, flags vk.MemoryPropertyFlags, buf *Buffer) (*DeviceMemory, error) {
	drv, dev := ctx.Driver(), ctx.Device()
	reqs := drv.GetBufferMemoryRequirements(dev, buf.Handle())
	return allocate(ctx, flags, reqs, func(mem vk.DeviceMemory) vk.Result {
		return drv.BindBufferMemory(dev, buf.Handle(), mem, 0)
	})
}

// AllocateForImage allocates memory with at least the given property flags
// and binds it to img at offset 0.
func AllocateForImage(ctx *device.Context, flags vk.MemoryPropertyFlags, img vk.Image) (*DeviceMemory, error) {
	drv, dev := ctx.Driver(), ctx.Device()
	reqs := drv.GetImageMemoryRequirements(dev, img)
	return allocate(ctx, flags, reqs, func(mem vk.DeviceMemory) vk.Result {
		return drv.BindImageMemory(dev, img, mem, 0)
	})
}

// allocate makes exactly one allocation attempt. A bind failure frees the
// allocation and is not retried with another memory type.
func allocate(ctx *device.Context, flags vk.MemoryPropertyFlags, reqs vk.MemoryRequirements, bind func(vk.DeviceMemory) vk.Result) (*DeviceMemory, error) {
	index, err := FindMemoryType(ctx.MemoryProperties(), reqs.MemoryTypeBits, flags)
	if err != nil {
		return nil, err
	}

	drv, dev := ctx.Driver(), ctx.Device()
	handle, res := drv.AllocateMemory(dev, &vk.MemoryAllocateInfo{Size: reqs.Size, MemoryTypeIndex: index})
	if res != vk.Success {
		return nil, &AllocationError{Reason: AllocateFailed, Flags: flags, Bits: reqs.MemoryTypeBits, Result: res}
	}
	if res := bind(handle); res != vk.Success {
		drv.FreeMemory(dev, handle)
		return nil, &AllocationError{Reason: BindFailed, Flags: flags, Bits: reqs.MemoryTypeBits, Result: res}
	}

	device.Logger().Debug("vkrun: allocated device memory",
		"size", reqs.Size,
		"typeIndex", index,
		"flags", ctx.MemoryType(index))
	return &DeviceMemory{ctx: ctx.Retain(), handle: handle, typeIndex: index, size: reqs.Size}, nil
}
