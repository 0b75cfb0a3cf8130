package resource

import (
	"sync/atomic"

	"github.com/gogpu/vkrun/internal/device"
	"github.com/gogpu/vkrun/internal/vk"
)

// MappedMemory is a host mapping of a whole DeviceMemory. The bytes are
// valid until Close of either the mapping or the memory.
type MappedMemory struct {
	ctx  *device.Context
	mem  *DeviceMemory
	data []byte

	released atomic.Bool
}

// Map maps the entire allocation. Memory can only be mapped once at a time.
func Map(ctx *device.Context, mem *DeviceMemory) (*MappedMemory, error) {
	mem.mu.Lock()
	defer mem.mu.Unlock()
	if mem.freed {
		return nil, ErrReleased
	}
	if mem.mapped {
		return nil, &MapError{Result: vk.ErrorMemoryMapFailed, Msg: "memory is already mapped"}
	}

	data, res := ctx.Driver().MapMemory(ctx.Device(), mem.handle, 0, vk.WholeSize)
	if res != vk.Success {
		return nil, &MapError{Result: res}
	}
	mem.mapped = true
	return &MappedMemory{ctx: ctx.Retain(), mem: mem, data: data}, nil
}

// Bytes returns the mapped range.
func (m *MappedMemory) Bytes() []byte { return m.data }

// Memory returns the mapped allocation.
func (m *MappedMemory) Memory() *DeviceMemory { return m.mem }

// Flush makes host writes to [offset, offset+size) visible to the device.
func (m *MappedMemory) Flush(offset, size vk.DeviceSize) error {
	h, err := m.handle()
	if err != nil {
		return err
	}
	return Flush(m.ctx, m.mem.typeIndex, h, offset, size)
}

// Invalidate makes device writes to the whole mapping visible to the host.
func (m *MappedMemory) Invalidate() error {
	h, err := m.handle()
	if err != nil {
		return err
	}
	return Invalidate(m.ctx, m.mem.typeIndex, h, 0, vk.WholeSize)
}

// handle returns the native allocation, or ErrReleased once the mapping or
// its memory has been closed.
func (m *MappedMemory) handle() (vk.DeviceMemory, error) {
	if m.released.Load() {
		return 0, ErrReleased
	}
	m.mem.mu.Lock()
	defer m.mem.mu.Unlock()
	if m.mem.freed {
		return 0, ErrReleased
	}
	return m.mem.handle, nil
}

// Close unmaps the memory unless it was already freed. It is safe to call
// more than once.
func (m *MappedMemory) Close() {
	if m == nil || !m.released.CompareAndSwap(false, true) {
		return
	}
	m.mem.mu.Lock()
	if m.mem.mapped && !m.mem.freed {
		m.ctx.Driver().UnmapMemory(m.ctx.Device(), m.mem.handle)
	}
	m.mem.mapped = false
	m.mem.mu.Unlock()

	m.data = nil
	m.ctx.Release()
}
