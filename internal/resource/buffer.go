package resource

import (
	"sync/atomic"

	"github.com/gogpu/vkrun/internal/device"
	"github.com/gogpu/vkrun/internal/vk"
)

// Buffer owns one native buffer.
type Buffer struct {
	ctx    *device.Context
	handle vk.Buffer
	size   vk.DeviceSize
	usage  vk.BufferUsageFlags

	released atomic.Bool
}

// NewBuffer creates a buffer of size bytes with the given usage.
func NewBuffer(ctx *device.Context, size vk.DeviceSize, usage vk.BufferUsageFlags) (*Buffer, error) {
	h, res := ctx.Driver().CreateBuffer(ctx.Device(), &vk.BufferCreateInfo{Size: size, Usage: usage})
	if res != vk.Success {
		return nil, &BufferCreationError{Size: size, Usage: usage, Result: res}
	}
	return &Buffer{ctx: ctx.Retain(), handle: h, size: size, usage: usage}, nil
}

// Handle returns the native buffer.
func (b *Buffer) Handle() vk.Buffer { return b.handle }

// Size returns the size the buffer was created with.
func (b *Buffer) Size() vk.DeviceSize { return b.size }

// Usage returns the usage flags the buffer was created with.
func (b *Buffer) Usage() vk.BufferUsageFlags { return b.usage }

// Close destroys the buffer. It is safe to call more than once.
func (b *Buffer) Close() {
	if b == nil || !b.released.CompareAndSwap(false, true) {
		return
	}
	b.ctx.Driver().DestroyBuffer(b.ctx.Device(), b.handle)
	b.handle = 0
	b.ctx.Release()
}
