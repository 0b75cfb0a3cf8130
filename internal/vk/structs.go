package vk

// InstanceCreateInfo selects the API version and instance extensions.
type InstanceCreateInfo struct {
	ApplicationName string
	APIVersion      uint32
	Extensions      []string
}

// DeviceCreateInfo creates a device with one queue from QueueFamilyIndex.
// Features holds the names of VkPhysicalDeviceFeatures members and known
// extension feature members to enable.
type DeviceCreateInfo struct {
	QueueFamilyIndex uint32
	Extensions       []string
	Features         []string
}

type PhysicalDeviceProperties struct {
	APIVersion    uint32
	DriverVersion uint32
	VendorID      uint32
	DeviceID      uint32
	DeviceType    PhysicalDeviceType
	DeviceName    string
}

type QueueFamilyProperties struct {
	QueueFlags QueueFlags
	QueueCount uint32
}

type MemoryType struct {
	PropertyFlags MemoryPropertyFlags
	HeapIndex     uint32
}

type MemoryHeap struct {
	Size  DeviceSize
	Flags uint32
}

// MemoryProperties is the physical device memory table. It is read only.
type MemoryProperties struct {
	Types []MemoryType
	Heaps []MemoryHeap
}

type MemoryRequirements struct {
	Size           DeviceSize
	Alignment      DeviceSize
	MemoryTypeBits uint32
}

type FormatProperties struct {
	LinearTilingFeatures  FormatFeatureFlags
	OptimalTilingFeatures FormatFeatureFlags
	BufferFeatures        FormatFeatureFlags
}

type BufferCreateInfo struct {
	Size  DeviceSize
	Usage BufferUsageFlags
}

// ImageCreateInfo describes a single-sample, single-level 2D image.
type ImageCreateInfo struct {
	Format Format
	Width  uint32
	Height uint32
	Tiling ImageTiling
	Usage  ImageUsageFlags
}

type MemoryAllocateInfo struct {
	Size            DeviceSize
	MemoryTypeIndex uint32
}

type MappedMemoryRange struct {
	Memory DeviceMemory
	Offset DeviceSize
	Size   DeviceSize
}

type ImageViewCreateInfo struct {
	Image  Image
	Format Format
	Aspect ImageAspectFlags
}

type AttachmentDescription struct {
	Format         Format
	LoadOp         AttachmentLoadOp
	StoreOp        AttachmentStoreOp
	StencilLoadOp  AttachmentLoadOp
	StencilStoreOp AttachmentStoreOp
	InitialLayout  ImageLayout
	FinalLayout    ImageLayout
}

// RenderPassCreateInfo describes a single-subpass render pass. Attachment 0
// is the color attachment; attachment 1, if present, is depth/stencil.
type RenderPassCreateInfo struct {
	Attachments []AttachmentDescription
}

type FramebufferCreateInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Width       uint32
	Height      uint32
}

type DescriptorSetLayoutBinding struct {
	Binding        uint32
	DescriptorType DescriptorType
	StageFlags     ShaderStageFlags
}

type PushConstantRange struct {
	StageFlags ShaderStageFlags
	Offset     uint32
	Size       uint32
}

type PipelineLayoutCreateInfo struct {
	SetLayouts         []DescriptorSetLayout
	PushConstantRanges []PushConstantRange
}

type ShaderStageInfo struct {
	Stage      ShaderStageFlags
	Module     ShaderModule
	EntryPoint string
}

type VertexInputBinding struct {
	Binding   uint32
	Stride    uint32
	InputRate VertexInputRate
}

type VertexInputAttribute struct {
	Location uint32
	Binding  uint32
	Format   Format
	Offset   uint32
}

type VertexInputState struct {
	Bindings   []VertexInputBinding
	Attributes []VertexInputAttribute
}

type InputAssemblyState struct {
	Topology               PrimitiveTopology
	PrimitiveRestartEnable bool
}

type TessellationState struct {
	PatchControlPoints uint32
}

type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

type Rect2D struct {
	X, Y          int32
	Width, Height uint32
}

type ViewportState struct {
	Viewports []Viewport
	Scissors  []Rect2D
}

type RasterizationState struct {
	DepthClampEnable        bool
	RasterizerDiscardEnable bool
	PolygonMode             PolygonMode
	CullMode                CullModeFlags
	FrontFace               FrontFace
	DepthBiasEnable         bool
	DepthBiasConstantFactor float32
	DepthBiasClamp          float32
	DepthBiasSlopeFactor    float32
	LineWidth               float32
}

type MultisampleState struct {
	RasterizationSamples uint32
}

type StencilOpState struct {
	FailOp      StencilOp
	PassOp      StencilOp
	DepthFailOp StencilOp
	CompareOp   CompareOp
	CompareMask uint32
	WriteMask   uint32
	Reference   uint32
}

type DepthStencilState struct {
	DepthTestEnable       bool
	DepthWriteEnable      bool
	DepthCompareOp        CompareOp
	DepthBoundsTestEnable bool
	StencilTestEnable     bool
	Front                 StencilOpState
	Back                  StencilOpState
	MinDepthBounds        float32
	MaxDepthBounds        float32
}

type ColorBlendAttachmentState struct {
	BlendEnable         bool
	SrcColorBlendFactor BlendFactor
	DstColorBlendFactor BlendFactor
	ColorBlendOp        BlendOp
	SrcAlphaBlendFactor BlendFactor
	DstAlphaBlendFactor BlendFactor
	AlphaBlendOp        BlendOp
	ColorWriteMask      ColorComponentFlags
}

type ColorBlendState struct {
	LogicOpEnable  bool
	LogicOp        LogicOp
	Attachments    []ColorBlendAttachmentState
	BlendConstants [4]float32
}

// GraphicsPipelineCreateInfo is the full description of a graphics
// pipeline. Tessellation is nil unless a tessellation stage is present and
// DepthStencil is nil when the render pass has no depth/stencil attachment.
type GraphicsPipelineCreateInfo struct {
	Flags         PipelineCreateFlags
	Stages        []ShaderStageInfo
	VertexInput   VertexInputState
	InputAssembly InputAssemblyState
	Tessellation  *TessellationState
	Viewport      ViewportState
	Rasterization RasterizationState
	Multisample   MultisampleState
	DepthStencil  *DepthStencilState
	ColorBlend    ColorBlendState
	Layout        PipelineLayout
	RenderPass    RenderPass
	Subpass       uint32
	BasePipeline  Pipeline
}

type ComputePipelineCreateInfo struct {
	Stage  ShaderStageInfo
	Layout PipelineLayout
}

type DescriptorPoolSize struct {
	Type  DescriptorType
	Count uint32
}

type DescriptorPoolCreateInfo struct {
	MaxSets   uint32
	PoolSizes []DescriptorPoolSize
}

type WriteDescriptorSet struct {
	DstSet         DescriptorSet
	DstBinding     uint32
	DescriptorType DescriptorType
	Buffer         Buffer
	Offset         DeviceSize
	Range          DeviceSize
}

type RenderPassBeginInfo struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	RenderArea  Rect2D
}

type ClearAttachment struct {
	AspectMask      ImageAspectFlags
	ColorAttachment uint32
	Color           [4]float32
	Depth           float32
	Stencil         uint32
}

type MemoryBarrier struct {
	SrcAccessMask AccessFlags
	DstAccessMask AccessFlags
}

type ImageMemoryBarrier struct {
	SrcAccessMask AccessFlags
	DstAccessMask AccessFlags
	OldLayout     ImageLayout
	NewLayout     ImageLayout
	Image         Image
	AspectMask    ImageAspectFlags
}

type PipelineBarrier struct {
	SrcStageMask   PipelineStageFlags
	DstStageMask   PipelineStageFlags
	MemoryBarriers []MemoryBarrier
	ImageBarriers  []ImageMemoryBarrier
}

// BufferImageCopy copies a whole-extent region of one aspect. A zero
// BufferRowLength means tightly packed.
type BufferImageCopy struct {
	BufferOffset    DeviceSize
	BufferRowLength uint32
	AspectMask      ImageAspectFlags
	Width           uint32
	Height          uint32
}
