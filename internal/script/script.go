// Package script is the in-memory form of a vkrun test script and its TOML
// loader.
package script

import (
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/vkrun/internal/device"
	"github.com/gogpu/vkrun/internal/pipeline"
	"github.com/gogpu/vkrun/internal/shader"
	"github.com/gogpu/vkrun/internal/vk"
	"github.com/gogpu/vkrun/internal/window"
)

// Script is a parsed test script.
type Script struct {
	// Name is the file the script was loaded from.
	Name string

	Requirements *device.Requirements
	Format       window.Format
	Shaders      []Shader
	Buffers      []Buffer
	Vertex       *VertexData
	// Indices feed indexed draw_arrays commands.
	Indices   []uint16
	Pipelines []pipeline.Key
	Commands  []Command
}

// Shader is one shader source and the stages it provides.
type Shader struct {
	Stages []pipeline.Stage
	Source shader.Source
}

// BufferType selects the descriptor a buffer is bound as.
type BufferType int

const (
	UniformBuffer BufferType = iota
	StorageBuffer
)

func (t BufferType) String() string {
	if t == StorageBuffer {
		return "storage"
	}
	return "uniform"
}

// Buffer is a descriptor-bound buffer.
type Buffer struct {
	Set     uint32
	Binding uint32
	Type    BufferType
	Usage   gputypes.BufferUsage
	Size    int
	// Data is the initial contents, at most Size bytes.
	Data []byte
}

// DescriptorType returns the Vulkan descriptor type for b.
func (b *Buffer) DescriptorType() vk.DescriptorType {
	if b.Type == StorageBuffer {
		return vk.DescriptorTypeStorageBuffer
	}
	return vk.DescriptorTypeUniformBuffer
}

// VulkanUsage returns the usage flags the buffer is created with.
func (b *Buffer) VulkanUsage() vk.BufferUsageFlags { return VulkanBufferUsage(b.Usage) }

// VertexData is the vertex buffer used by draw_arrays.
type VertexData struct {
	Layout pipeline.VertexLayout
	Data   []byte
}

// Count returns the number of whole vertices in the data.
func (v *VertexData) Count() uint32 {
	if v.Layout.Stride == 0 {
		return 0
	}
	return uint32(len(v.Data)) / v.Layout.Stride //nolint:gosec // script data is small
}

// Op is a command opcode.
type Op int

const (
	OpClear Op = iota
	OpDrawRect
	OpDrawArrays
	OpDispatch
	OpSetBuffer
	OpPushConstants
	OpProbeRect
	OpProbeBuffer
)

var opNames = [...]string{
	OpClear:         "clear",
	OpDrawRect:      "draw_rect",
	OpDrawArrays:    "draw_arrays",
	OpDispatch:      "dispatch",
	OpSetBuffer:     "set_buffer",
	OpPushConstants: "push_constants",
	OpProbeRect:     "probe_rect",
	OpProbeBuffer:   "probe_buffer",
}

func (o Op) String() string { return opNames[o] }

// Command is one entry of the command list. Only the fields used by Op
// are set.
type Command struct {
	Op Op
	// Index is the command's position in the script, for diagnostics.
	Index int

	// Pipeline indexes Script.Pipelines for draws and dispatches.
	Pipeline int

	// Color is the clear color and the expected probe_rect color.
	Color [4]float64
	// Components is how many channels of Color a probe_rect checks, three
	// or four.
	Components int
	Depth      float32
	Stencil    uint32

	// Rect is x, y, width, height in normalized device coordinates.
	Rect [4]float32
	// Region is x, y, width, height in framebuffer pixels.
	Region [4]int

	First         uint32
	Count         uint32
	Instances     uint32
	FirstInstance uint32
	// Indexed draws take First and Count from Script.Indices.
	Indexed bool
	Groups  [3]uint32

	// Buffer indexes Script.Buffers.
	Buffer int
	Offset int
	Type   DataType
	Values []float64
	Data   []byte

	Tolerance Tolerance
	Compare   Comparison
}

// LayoutDesc returns the pipeline layout implied by the buffers and push
// constants. Set numbers without buffers get empty set layouts. Bindings
// and push constants are visible to every stage the script has a shader
// for.
func (s *Script) LayoutDesc() pipeline.LayoutDesc {
	desc := pipeline.LayoutDesc{
		PushConstantSize: s.PushConstantSize(),
		Stages:           s.StageFlags(),
	}
	for i := range s.Buffers {
		b := &s.Buffers[i]
		for int(b.Set) >= len(desc.Sets) {
			desc.Sets = append(desc.Sets, nil)
		}
		desc.Sets[b.Set] = append(desc.Sets[b.Set], vk.DescriptorSetLayoutBinding{
			Binding:        b.Binding,
			DescriptorType: b.DescriptorType(),
		})
	}
	for _, set := range desc.Sets {
		slices.SortFunc(set, func(a, b vk.DescriptorSetLayoutBinding) int { return int(a.Binding) - int(b.Binding) })
	}
	return desc
}

// StageFlags returns the union of the stages of every shader.
func (s *Script) StageFlags() vk.ShaderStageFlags {
	var flags vk.ShaderStageFlags
	for _, sh := range s.Shaders {
		for _, st := range sh.Stages {
			flags |= st.Flag()
		}
	}
	return flags
}

// PushConstantSize returns the extent of the push constant range covered
// by push_constants commands.
func (s *Script) PushConstantSize() uint32 {
	var size int
	for i := range s.Commands {
		c := &s.Commands[i]
		if c.Op == OpPushConstants {
			size = max(size, c.Offset+len(c.Data))
		}
	}
	return uint32(size) //nolint:gosec // bounded by the script
}

// SetDesc returns the pipeline set for the script's keys given the
// compiled shaders.
func (s *Script) SetDesc(shaders pipeline.Shaders) *pipeline.SetDesc {
	desc := &pipeline.SetDesc{
		Keys:    s.Pipelines,
		Shaders: shaders,
		Layout:  s.LayoutDesc(),
	}
	if s.Vertex != nil {
		desc.Vertex = &s.Vertex.Layout
	}
	return desc
}

// FindBuffer returns the index of the buffer at set and binding, or -1.
func (s *Script) FindBuffer(set, binding uint32) int {
	return slices.IndexFunc(s.Buffers, func(b Buffer) bool { return b.Set == set && b.Binding == binding })
}
