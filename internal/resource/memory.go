package resource

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/vkrun/internal/device"
	"github.com/gogpu/vkrun/internal/vk"
)

// DeviceMemory owns one native allocation and remembers the memory type it
// came from.
type DeviceMemory struct {
	ctx       *device.Context
	handle    vk.DeviceMemory
	typeIndex uint32
	size      vk.DeviceSize

	// mu guards the mapping state shared with MappedMemory.
	mu     sync.Mutex
	mapped bool
	freed  bool

	released atomic.Bool
}

// Handle returns the native allocation.
func (m *DeviceMemory) Handle() vk.DeviceMemory { return m.handle }

// TypeIndex returns the index of the memory type the allocation came from.
func (m *DeviceMemory) TypeIndex() uint32 { return m.typeIndex }

// Size returns the allocation size.
func (m *DeviceMemory) Size() vk.DeviceSize { return m.size }

// Flags returns the property flags of the allocation's memory type.
func (m *DeviceMemory) Flags() vk.MemoryPropertyFlags { return m.ctx.MemoryType(m.typeIndex) }

// Coherent reports whether host writes are visible without a flush.
func (m *DeviceMemory) Coherent() bool { return m.Flags().Has(vk.MemoryPropertyHostCoherent) }

// Close frees the allocation. Freeing implicitly unmaps it, so a
// MappedMemory still open on it only drops its context reference when it
// is closed later. Close is safe to call more than once.
func (m *DeviceMemory) Close() {
	if m == nil || !m.released.CompareAndSwap(false, true) {
		return
	}
	m.mu.Lock()
	m.freed = true
	m.mapped = false
	h := m.handle
	m.handle = 0
	m.mu.Unlock()

	m.ctx.Driver().FreeMemory(m.ctx.Device(), h)
	m.ctx.Release()
}
