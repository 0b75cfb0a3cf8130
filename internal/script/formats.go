package script

import (
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/vkrun/internal/vk"
)

// Scripts name formats the WebGPU way ("bgra8unorm"); the Vulkan name
// ("B8G8R8A8_UNORM") is accepted as well.
var textureFormats = map[string]gputypes.TextureFormat{
	"r8unorm":               gputypes.TextureFormatR8Unorm,
	"rgba8unorm":            gputypes.TextureFormatRGBA8Unorm,
	"bgra8unorm":            gputypes.TextureFormatBGRA8Unorm,
	"r32float":              gputypes.TextureFormatR32Float,
	"rgba32float":           gputypes.TextureFormatRGBA32Float,
	"depth16unorm":          gputypes.TextureFormatDepth16Unorm,
	"depth32float":          gputypes.TextureFormatDepth32Float,
	"depth24plus-stencil8":  gputypes.TextureFormatDepth24PlusStencil8,
	"depth32float-stencil8": gputypes.TextureFormatDepth32FloatStencil8,
}

// VulkanTextureFormat maps a WebGPU texture format to the Vulkan format of
// the same layout. Depth24Plus formats resolve to D24_UNORM_S8_UINT.
func VulkanTextureFormat(f gputypes.TextureFormat) (vk.Format, bool) {
	switch f {
	case gputypes.TextureFormatR8Unorm:
		return vk.FormatR8Unorm, true
	case gputypes.TextureFormatRGBA8Unorm:
		return vk.FormatR8G8B8A8Unorm, true
	case gputypes.TextureFormatBGRA8Unorm:
		return vk.FormatB8G8R8A8Unorm, true
	case gputypes.TextureFormatR32Float:
		return vk.FormatR32Sfloat, true
	case gputypes.TextureFormatRGBA32Float:
		return vk.FormatR32G32B32A32Sfloat, true
	case gputypes.TextureFormatDepth16Unorm:
		return vk.FormatD16Unorm, true
	case gputypes.TextureFormatDepth32Float:
		return vk.FormatD32Sfloat, true
	case gputypes.TextureFormatDepth24PlusStencil8:
		return vk.FormatD24UnormS8Uint, true
	case gputypes.TextureFormatDepth32FloatStencil8:
		return vk.FormatD32SfloatS8Uint, true
	default:
		return vk.FormatUndefined, false
	}
}

func parseTextureFormat(name string) (vk.Format, bool) {
	if tf, ok := textureFormats[strings.ToLower(name)]; ok {
		return VulkanTextureFormat(tf)
	}
	return vk.FormatByName(name)
}

var vertexFormats = map[string]gputypes.VertexFormat{
	"float32":   gputypes.VertexFormatFloat32,
	"float32x2": gputypes.VertexFormatFloat32x2,
	"float32x3": gputypes.VertexFormatFloat32x3,
	"float32x4": gputypes.VertexFormatFloat32x4,
	"uint32":    gputypes.VertexFormatUint32,
	"sint32":    gputypes.VertexFormatSint32,
	"uint32x4":  gputypes.VertexFormatUint32x4,
	"sint32x4":  gputypes.VertexFormatSint32x4,
}

// VulkanVertexFormat maps a WebGPU vertex format to its Vulkan format.
func VulkanVertexFormat(f gputypes.VertexFormat) (vk.Format, bool) {
	switch f {
	case gputypes.VertexFormatFloat32:
		return vk.FormatR32Sfloat, true
	case gputypes.VertexFormatFloat32x2:
		return vk.FormatR32G32Sfloat, true
	case gputypes.VertexFormatFloat32x3:
		return vk.FormatR32G32B32Sfloat, true
	case gputypes.VertexFormatFloat32x4:
		return vk.FormatR32G32B32A32Sfloat, true
	case gputypes.VertexFormatUint32:
		return vk.FormatR32Uint, true
	case gputypes.VertexFormatSint32:
		return vk.FormatR32Sint, true
	case gputypes.VertexFormatUint32x4:
		return vk.FormatR32G32B32A32Uint, true
	case gputypes.VertexFormatSint32x4:
		return vk.FormatR32G32B32A32Sint, true
	default:
		return vk.FormatUndefined, false
	}
}

func parseVertexFormat(name string) (vk.Format, bool) {
	if vf, ok := vertexFormats[strings.ToLower(name)]; ok {
		return VulkanVertexFormat(vf)
	}
	return vk.FormatByName(name)
}

var bufferUsages = map[string]gputypes.BufferUsage{
	"uniform":  gputypes.BufferUsageUniform,
	"storage":  gputypes.BufferUsageStorage,
	"vertex":   gputypes.BufferUsageVertex,
	"copy_src": gputypes.BufferUsageCopySrc,
	"copy_dst": gputypes.BufferUsageCopyDst,
}

// VulkanBufferUsage translates WebGPU buffer usage bits. Map usages have
// no Vulkan counterpart and are dropped; every vkrun buffer is host
// visible anyway.
func VulkanBufferUsage(u gputypes.BufferUsage) vk.BufferUsageFlags {
	var flags vk.BufferUsageFlags
	if u&gputypes.BufferUsageUniform != 0 {
		flags |= vk.BufferUsageUniform
	}
	if u&gputypes.BufferUsageStorage != 0 {
		flags |= vk.BufferUsageStorage
	}
	if u&gputypes.BufferUsageVertex != 0 {
		flags |= vk.BufferUsageVertex
	}
	if u&gputypes.BufferUsageCopySrc != 0 {
		flags |= vk.BufferUsageTransferSrc
	}
	if u&gputypes.BufferUsageCopyDst != 0 {
		flags |= vk.BufferUsageTransferDst
	}
	return flags
}
