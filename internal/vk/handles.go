package vk

// Dispatchable and non-dispatchable handles. The zero value is the null handle.
type (
	Instance            uint64
	PhysicalDevice      uint64
	Device              uint64
	Queue               uint64
	CommandPool         uint64
	CommandBuffer       uint64
	Fence               uint64
	Buffer              uint64
	Image               uint64
	ImageView           uint64
	DeviceMemory        uint64
	RenderPass          uint64
	Framebuffer         uint64
	ShaderModule        uint64
	DescriptorSetLayout uint64
	DescriptorPool      uint64
	DescriptorSet       uint64
	PipelineLayout      uint64
	PipelineCache       uint64
	Pipeline            uint64
)

// DeviceSize is a size or offset in device memory.
type DeviceSize uint64

// WholeSize selects the remainder of an allocation from the given offset.
const WholeSize = ^DeviceSize(0)

// MakeVersion packs a version the same way VK_MAKE_VERSION does.
func MakeVersion(major, minor, patch uint32) uint32 {
	return major<<22 | minor<<12 | patch
}

// VersionMajor extracts the major component of a packed version.
func VersionMajor(v uint32) uint32 { return v >> 22 }

// VersionMinor extracts the minor component of a packed version.
func VersionMinor(v uint32) uint32 { return (v >> 12) & 0x3ff }

// VersionPatch extracts the patch component of a packed version.
func VersionPatch(v uint32) uint32 { return v & 0xfff }
