// Package fakevk is an in-memory vk.Driver for tests.
//
// It records every call, backs device memory with Go slices, tracks the
// lifetime of every handle and reports double frees, use of destroyed
// handles and leaks. Clears and image-to-buffer copies are simulated so that
// probes can be exercised without a GPU.
package fakevk

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/gogpu/vkrun/internal/vk"
)

// DeviceConfig describes one fake physical device.
type DeviceConfig struct {
	Name          string
	APIVersion    uint32
	Features      []string
	Extensions    []string
	QueueFamilies []vk.QueueFamilyProperties
	Memory        vk.MemoryProperties
	// MemoryTypeBits is reported for every buffer and image. Zero means
	// every memory type is admissible.
	MemoryTypeBits uint32
	// Formats overrides the format support. Formats missing from a non-nil
	// map report no features.
	Formats map[vk.Format]vk.FormatProperties
}

// DefaultDevice returns a device with one graphics queue and the memory
// types [DEVICE_LOCAL, HOST_VISIBLE|HOST_COHERENT].
func DefaultDevice() DeviceConfig {
	return DeviceConfig{
		Name:       "fake device",
		APIVersion: vk.MakeVersion(1, 3, 0),
		Features:   []string{"geometryShader", "tessellationShader", "shaderFloat64", "depthClamp", "depthBounds", "logicOp", "fillModeNonSolid", "wideLines"},
		Extensions: []string{"VK_KHR_multiview", "VK_KHR_16bit_storage"},
		QueueFamilies: []vk.QueueFamilyProperties{
			{QueueFlags: vk.QueueGraphics | vk.QueueCompute | vk.QueueTransfer, QueueCount: 1},
		},
		Memory: vk.MemoryProperties{
			Types: []vk.MemoryType{
				{PropertyFlags: vk.MemoryPropertyDeviceLocal, HeapIndex: 0},
				{PropertyFlags: vk.MemoryPropertyHostVisible | vk.MemoryPropertyHostCoherent, HeapIndex: 1},
			},
			Heaps: []vk.MemoryHeap{{Size: 1 << 30}, {Size: 1 << 28}},
		},
	}
}

// Config configures a Driver.
type Config struct {
	Devices            []DeviceConfig
	InstanceExtensions []string
}

type object struct {
	kind   string
	device vk.Device
}

type memory struct {
	data      []byte
	typeIndex uint32
	mapped    bool
}

type image struct {
	info   vk.ImageCreateInfo
	memory vk.DeviceMemory
	data   []byte
}

type buffer struct {
	size   vk.DeviceSize
	memory vk.DeviceMemory
	offset vk.DeviceSize
}

type recording struct {
	open  bool
	cmds  []func()
	fb    vk.Framebuffer
	index vk.Buffer
}

// Draw is one recorded CmdDraw or CmdDrawIndexed. For indexed draws
// First is the first index and IndexBuffer the buffer bound at the time.
type Draw struct {
	Indexed       bool
	Count         uint32
	Instances     uint32
	First         uint32
	VertexOffset  int32
	FirstInstance uint32
	IndexBuffer   vk.Buffer
}

// Driver implements vk.Driver in memory.
type Driver struct {
	mu  sync.Mutex
	cfg Config

	next     uint64
	objects  map[uint64]object
	physical map[vk.PhysicalDevice]int
	devices  map[vk.Device]int
	memories map[vk.DeviceMemory]*memory
	buffers  map[vk.Buffer]*buffer
	images   map[vk.Image]*image
	views    map[vk.ImageView]vk.Image
	fbs      map[vk.Framebuffer][]vk.ImageView
	cbs      map[vk.CommandBuffer]*recording

	calls       map[string]int
	failures    map[string][]vk.Result
	flushes     []vk.MappedMemoryRange
	invalidates []vk.MappedMemoryRange
	graphics    []vk.GraphicsPipelineCreateInfo
	compute     []vk.ComputePipelineCreateInfo
	draws       []Draw
	errs        []string
}

// New returns a driver. With no devices configured a single DefaultDevice
// is exposed.
func New(cfg Config) *Driver {
	if len(cfg.Devices) == 0 {
		cfg.Devices = []DeviceConfig{DefaultDevice()}
	}
	if cfg.InstanceExtensions == nil {
		cfg.InstanceExtensions = []string{"VK_KHR_get_physical_device_properties2"}
	}
	return &Driver{
		cfg:      cfg,
		objects:  make(map[uint64]object),
		physical: make(map[vk.PhysicalDevice]int),
		devices:  make(map[vk.Device]int),
		memories: make(map[vk.DeviceMemory]*memory),
		buffers:  make(map[vk.Buffer]*buffer),
		images:   make(map[vk.Image]*image),
		views:    make(map[vk.ImageView]vk.Image),
		fbs:      make(map[vk.Framebuffer][]vk.ImageView),
		cbs:      make(map[vk.CommandBuffer]*recording),
		calls:    make(map[string]int),
		failures: make(map[string][]vk.Result),
	}
}

var _ vk.Driver = (*Driver)(nil)

// Fail makes the next call to the named function return r.
func (d *Driver) Fail(fn string, r vk.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[fn] = append(d.failures[fn], r)
}

// Calls returns how many times the named function was called.
func (d *Driver) Calls(fn string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[fn]
}

// Flushes returns every range passed to FlushMappedMemoryRanges.
func (d *Driver) Flushes() []vk.MappedMemoryRange {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.flushes)
}

// Invalidates returns every range passed to InvalidateMappedMemoryRanges.
func (d *Driver) Invalidates() []vk.MappedMemoryRange {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.invalidates)
}

// GraphicsPipelines returns the create info of every graphics pipeline
// created so far.
func (d *Driver) GraphicsPipelines() []vk.GraphicsPipelineCreateInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.graphics)
}

// ComputePipelines returns the create info of every compute pipeline
// created so far.
func (d *Driver) ComputePipelines() []vk.ComputePipelineCreateInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.compute)
}

// Draws returns every draw recorded so far, in order.
func (d *Driver) Draws() []Draw {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.draws)
}

// Errors returns lifetime violations seen so far: double frees, unknown
// handles and use of destroyed objects.
func (d *Driver) Errors() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.errs)
}

// Live returns the number of live objects of the given kind, or of every
// kind when kind is empty.
func (d *Driver) Live(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, o := range d.objects {
		if kind == "" || o.kind == kind {
			n++
		}
	}
	return n
}

// Leaks lists the kinds of all live objects, sorted.
func (d *Driver) Leaks() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var kinds []string
	for _, o := range d.objects {
		kinds = append(kinds, o.kind)
	}
	sort.Strings(kinds)
	return kinds
}

// MemoryTypeIndex returns the type index an allocation was made from.
func (d *Driver) MemoryTypeIndex(m vk.DeviceMemory) (uint32, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	mem, ok := d.memories[m]
	if !ok {
		return 0, false
	}
	return mem.typeIndex, true
}

// call counts fn and pops an injected failure. Callers hold d.mu.
func (d *Driver) call(fn string) vk.Result {
	d.calls[fn]++
	if q := d.failures[fn]; len(q) > 0 {
		d.failures[fn] = q[1:]
		return q[0]
	}
	return vk.Success
}

func (d *Driver) create(kind string, dev vk.Device) uint64 {
	d.next++
	d.objects[d.next] = object{kind: kind, device: dev}
	return d.next
}

func (d *Driver) destroy(kind string, h uint64) bool {
	if h == 0 {
		return false
	}
	o, ok := d.objects[h]
	if !ok {
		d.errs = append(d.errs, fmt.Sprintf("destroy %s %d: unknown or already destroyed", kind, h))
		return false
	}
	if o.kind != kind {
		d.errs = append(d.errs, fmt.Sprintf("destroy %s %d: handle is a %s", kind, h, o.kind))
		return false
	}
	delete(d.objects, h)
	return true
}

func (d *Driver) check(kind string, h uint64, op string) bool {
	o, ok := d.objects[h]
	if !ok || o.kind != kind {
		d.errs = append(d.errs, fmt.Sprintf("%s: invalid %s %d", op, kind, h))
		return false
	}
	return true
}

func (d *Driver) deviceConfig(dev vk.Device) DeviceConfig {
	return d.cfg.Devices[d.devices[dev]]
}
