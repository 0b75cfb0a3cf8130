package vk

import "strconv"

// MemoryPropertyFlags describes a memory type.
type MemoryPropertyFlags uint32

const (
	MemoryPropertyDeviceLocal  MemoryPropertyFlags = 0x1
	MemoryPropertyHostVisible  MemoryPropertyFlags = 0x2
	MemoryPropertyHostCoherent MemoryPropertyFlags = 0x4
	MemoryPropertyHostCached   MemoryPropertyFlags = 0x8
)

// Has reports whether all bits of want are set.
func (f MemoryPropertyFlags) Has(want MemoryPropertyFlags) bool { return f&want == want }

func (f MemoryPropertyFlags) String() string {
	return flagString(uint32(f), []flagName{
		{uint32(MemoryPropertyDeviceLocal), "DEVICE_LOCAL"},
		{uint32(MemoryPropertyHostVisible), "HOST_VISIBLE"},
		{uint32(MemoryPropertyHostCoherent), "HOST_COHERENT"},
		{uint32(MemoryPropertyHostCached), "HOST_CACHED"},
	})
}

// BufferUsageFlags is a VkBufferUsageFlags mask.
type BufferUsageFlags uint32

const (
	BufferUsageTransferSrc BufferUsageFlags = 0x1
	BufferUsageTransferDst BufferUsageFlags = 0x2
	BufferUsageUniform     BufferUsageFlags = 0x10
	BufferUsageStorage     BufferUsageFlags = 0x20
	BufferUsageIndex       BufferUsageFlags = 0x40
	BufferUsageVertex      BufferUsageFlags = 0x80
)

// ImageUsageFlags is a VkImageUsageFlags mask.
type ImageUsageFlags uint32

const (
	ImageUsageTransferSrc            ImageUsageFlags = 0x1
	ImageUsageTransferDst            ImageUsageFlags = 0x2
	ImageUsageSampled                ImageUsageFlags = 0x4
	ImageUsageStorage                ImageUsageFlags = 0x8
	ImageUsageColorAttachment        ImageUsageFlags = 0x10
	ImageUsageDepthStencilAttachment ImageUsageFlags = 0x20
)

// ImageTiling selects the image memory layout.
type ImageTiling uint32

const (
	ImageTilingOptimal ImageTiling = 0
	ImageTilingLinear  ImageTiling = 1
)

// ImageLayout is a VkImageLayout.
type ImageLayout uint32

const (
	ImageLayoutUndefined                     ImageLayout = 0
	ImageLayoutGeneral                       ImageLayout = 1
	ImageLayoutColorAttachmentOptimal        ImageLayout = 2
	ImageLayoutDepthStencilAttachmentOptimal ImageLayout = 3
	ImageLayoutTransferSrcOptimal            ImageLayout = 6
	ImageLayoutTransferDstOptimal            ImageLayout = 7
)

// ImageAspectFlags selects color, depth or stencil.
type ImageAspectFlags uint32

const (
	ImageAspectColor   ImageAspectFlags = 0x1
	ImageAspectDepth   ImageAspectFlags = 0x2
	ImageAspectStencil ImageAspectFlags = 0x4
)

// FormatFeatureFlags is a VkFormatFeatureFlags mask.
type FormatFeatureFlags uint32

const (
	FormatFeatureSampledImage           FormatFeatureFlags = 0x1
	FormatFeatureStorageImage           FormatFeatureFlags = 0x2
	FormatFeatureVertexBuffer           FormatFeatureFlags = 0x40
	FormatFeatureColorAttachment        FormatFeatureFlags = 0x80
	FormatFeatureColorAttachmentBlend   FormatFeatureFlags = 0x100
	FormatFeatureDepthStencilAttachment FormatFeatureFlags = 0x200
	FormatFeatureBlitSrc                FormatFeatureFlags = 0x400
	FormatFeatureBlitDst                FormatFeatureFlags = 0x800
)

// AttachmentLoadOp is a VkAttachmentLoadOp.
type AttachmentLoadOp uint32

const (
	AttachmentLoadOpLoad     AttachmentLoadOp = 0
	AttachmentLoadOpClear    AttachmentLoadOp = 1
	AttachmentLoadOpDontCare AttachmentLoadOp = 2
)

// AttachmentStoreOp is a VkAttachmentStoreOp.
type AttachmentStoreOp uint32

const (
	AttachmentStoreOpStore    AttachmentStoreOp = 0
	AttachmentStoreOpDontCare AttachmentStoreOp = 1
)

// QueueFlags describes a queue family's capabilities.
type QueueFlags uint32

const (
	QueueGraphics QueueFlags = 0x1
	QueueCompute  QueueFlags = 0x2
	QueueTransfer QueueFlags = 0x4
)

// PipelineStageFlags is a VkPipelineStageFlags mask.
type PipelineStageFlags uint32

const (
	PipelineStageTopOfPipe             PipelineStageFlags = 0x1
	PipelineStageVertexInput           PipelineStageFlags = 0x4
	PipelineStageVertexShader          PipelineStageFlags = 0x8
	PipelineStageFragmentShader        PipelineStageFlags = 0x80
	PipelineStageEarlyFragmentTests    PipelineStageFlags = 0x100
	PipelineStageLateFragmentTests     PipelineStageFlags = 0x200
	PipelineStageColorAttachmentOutput PipelineStageFlags = 0x400
	PipelineStageComputeShader         PipelineStageFlags = 0x800
	PipelineStageTransfer              PipelineStageFlags = 0x1000
	PipelineStageBottomOfPipe          PipelineStageFlags = 0x2000
	PipelineStageHost                  PipelineStageFlags = 0x4000
	PipelineStageAllCommands           PipelineStageFlags = 0x10000
)

// AccessFlags is a VkAccessFlags mask.
type AccessFlags uint32

const (
	AccessVertexAttributeRead         AccessFlags = 0x4
	AccessUniformRead                 AccessFlags = 0x8
	AccessShaderRead                  AccessFlags = 0x20
	AccessShaderWrite                 AccessFlags = 0x40
	AccessColorAttachmentRead         AccessFlags = 0x80
	AccessColorAttachmentWrite        AccessFlags = 0x100
	AccessDepthStencilAttachmentRead  AccessFlags = 0x200
	AccessDepthStencilAttachmentWrite AccessFlags = 0x400
	AccessTransferRead                AccessFlags = 0x800
	AccessTransferWrite               AccessFlags = 0x1000
	AccessHostRead                    AccessFlags = 0x2000
	AccessHostWrite                   AccessFlags = 0x4000
)

// ShaderStageFlags is a VkShaderStageFlags mask.
type ShaderStageFlags uint32

const (
	ShaderStageVertex                 ShaderStageFlags = 0x1
	ShaderStageTessellationControl    ShaderStageFlags = 0x2
	ShaderStageTessellationEvaluation ShaderStageFlags = 0x4
	ShaderStageGeometry               ShaderStageFlags = 0x8
	ShaderStageFragment               ShaderStageFlags = 0x10
	ShaderStageCompute                ShaderStageFlags = 0x20
	ShaderStageAllGraphics            ShaderStageFlags = 0x1f
)

// DescriptorType is a VkDescriptorType.
type DescriptorType uint32

const (
	DescriptorTypeUniformBuffer DescriptorType = 6
	DescriptorTypeStorageBuffer DescriptorType = 7
)

// PipelineBindPoint selects graphics or compute binding.
type PipelineBindPoint uint32

const (
	PipelineBindPointGraphics PipelineBindPoint = 0
	PipelineBindPointCompute  PipelineBindPoint = 1
)

// PipelineCreateFlags is a VkPipelineCreateFlags mask.
type PipelineCreateFlags uint32

const (
	PipelineCreateAllowDerivatives PipelineCreateFlags = 0x2
	PipelineCreateDerivative       PipelineCreateFlags = 0x4
)

// VertexInputRate is a VkVertexInputRate.
type VertexInputRate uint32

const (
	VertexInputRateVertex   VertexInputRate = 0
	VertexInputRateInstance VertexInputRate = 1
)

// PhysicalDeviceType is a VkPhysicalDeviceType.
type PhysicalDeviceType uint32

const (
	PhysicalDeviceTypeOther         PhysicalDeviceType = 0
	PhysicalDeviceTypeIntegratedGPU PhysicalDeviceType = 1
	PhysicalDeviceTypeDiscreteGPU   PhysicalDeviceType = 2
	PhysicalDeviceTypeVirtualGPU    PhysicalDeviceType = 3
	PhysicalDeviceTypeCPU           PhysicalDeviceType = 4
)

func (t PhysicalDeviceType) String() string {
	switch t {
	case PhysicalDeviceTypeIntegratedGPU:
		return "integrated"
	case PhysicalDeviceTypeDiscreteGPU:
		return "discrete"
	case PhysicalDeviceTypeVirtualGPU:
		return "virtual"
	case PhysicalDeviceTypeCPU:
		return "cpu"
	default:
		return "other"
	}
}

type flagName struct {
	bit  uint32
	name string
}

func flagString(v uint32, names []flagName) string {
	if v == 0 {
		return "0"
	}
	s := ""
	for _, n := range names {
		if v&n.bit == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += n.name
		v &^= n.bit
	}
	if v != 0 {
		if s != "" {
			s += "|"
		}
		s += "0x" + strconv.FormatUint(uint64(v), 16)
	}
	return s
}
