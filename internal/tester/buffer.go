package tester

import (
	"github.com/gogpu/vkrun/internal/device"
	"github.com/gogpu/vkrun/internal/resource"
	"github.com/gogpu/vkrun/internal/vk"
)

// hostBuffer is a buffer backed by host-visible memory that stays mapped
// for its whole life.
type hostBuffer struct {
	buf     *resource.Buffer
	mem     *resource.DeviceMemory
	mapped  *resource.MappedMemory
	size    int
	pending bool
}

func newHostBuffer(ctx *device.Context, size int, usage vk.BufferUsageFlags) (*hostBuffer, error) {
	buf, err := resource.NewBuffer(ctx, vk.DeviceSize(size), usage) //nolint:gosec // sizes come from the script
	if err != nil {
		return nil, err
	}
	mem, err := resource.AllocateForBuffer(ctx, vk.MemoryPropertyHostVisible, buf)
	if err != nil {
		buf.Close()
		return nil, err
	}
	mapped, err := resource.Map(ctx, mem)
	if err != nil {
		mem.Close()
		buf.Close()
		return nil, err
	}
	return &hostBuffer{buf: buf, mem: mem, mapped: mapped, size: size}, nil
}

// Bytes returns the mapped contents trimmed to the requested size.
func (b *hostBuffer) Bytes() []byte { return b.mapped.Bytes()[:b.size] }

func (b *hostBuffer) write(offset int, data []byte) {
	copy(b.Bytes()[offset:], data)
	b.pending = true
}

// flush makes pending host writes visible to the device.
func (b *hostBuffer) flush() error {
	if !b.pending {
		return nil
	}
	b.pending = false
	return b.mapped.Flush(0, vk.WholeSize)
}

func (b *hostBuffer) close() {
	if b == nil {
		return
	}
	b.mapped.Close()
	b.mem.Close()
	b.buf.Close()
}
