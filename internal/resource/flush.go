package resource

import (
	"github.com/gogpu/vkrun/internal/device"
	"github.com/gogpu/vkrun/internal/vk"
)

// NeedsFlush reports whether host writes to memory of the given type must
// be flushed. Coherent memory is still flushed when the context forces it.
func NeedsFlush(ctx *device.Context, typeIndex uint32) bool {
	return ctx.AlwaysFlushMemory() || !ctx.MemoryType(typeIndex).Has(vk.MemoryPropertyHostCoherent)
}

// Flush flushes exactly [offset, offset+size) of mem unless the memory type
// is host coherent and the context does not force flushing.
func Flush(ctx *device.Context, typeIndex uint32, mem vk.DeviceMemory, offset, size vk.DeviceSize) error {
	if !NeedsFlush(ctx, typeIndex) {
		return nil
	}
	res := ctx.Driver().FlushMappedMemoryRanges(ctx.Device(), []vk.MappedMemoryRange{
		{Memory: mem, Offset: offset, Size: size},
	})
	if res != vk.Success {
		return &FlushError{Op: "flush", Result: res}
	}
	return nil
}

// Invalidate makes device writes to [offset, offset+size) of mem visible to
// the host. Coherent memory needs no invalidation.
func Invalidate(ctx *device.Context, typeIndex uint32, mem vk.DeviceMemory, offset, size vk.DeviceSize) error {
	if ctx.MemoryType(typeIndex).Has(vk.MemoryPropertyHostCoherent) {
		return nil
	}
	res := ctx.Driver().InvalidateMappedMemoryRanges(ctx.Device(), []vk.MappedMemoryRange{
		{Memory: mem, Offset: offset, Size: size},
	})
	if res != vk.Success {
		return &FlushError{Op: "invalidate", Result: res}
	}
	return nil
}
