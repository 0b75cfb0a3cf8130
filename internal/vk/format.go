package vk

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
)

// Format is a VkFormat.
type Format uint32

const (
	FormatUndefined          Format = 0
	FormatR8Unorm            Format = 9
	FormatR8G8Unorm          Format = 16
	FormatR8G8B8A8Unorm      Format = 37
	FormatB8G8R8A8Unorm      Format = 44
	FormatR32Uint            Format = 98
	FormatR32Sint            Format = 99
	FormatR32Sfloat          Format = 100
	FormatR32G32Sfloat       Format = 103
	FormatR32G32B32Sfloat    Format = 106
	FormatR32G32B32A32Uint   Format = 107
	FormatR32G32B32A32Sint   Format = 108
	FormatR32G32B32A32Sfloat Format = 109
	FormatD16Unorm           Format = 124
	FormatD32Sfloat          Format = 126
	FormatD24UnormS8Uint     Format = 129
	FormatD32SfloatS8Uint    Format = 130
)

// ComponentMode describes how the bits of one component are interpreted.
type ComponentMode uint8

const (
	ModeUnorm ComponentMode = iota
	ModeSfloat
	ModeUint
	ModeSint
)

// FormatInfo is the static description of a format.
type FormatInfo struct {
	Format Format
	Name   string
	// Size is the texel size in bytes.
	Size int
	Mode ComponentMode
	// Channels lists the stored components in memory order, e.g. "bgra".
	Channels    string
	Bits        int
	DepthBits   int
	StencilBits int
}

var formatTable = []FormatInfo{
	{FormatR8Unorm, "R8_UNORM", 1, ModeUnorm, "r", 8, 0, 0},
	{FormatR8G8Unorm, "R8G8_UNORM", 2, ModeUnorm, "rg", 8, 0, 0},
	{FormatR8G8B8A8Unorm, "R8G8B8A8_UNORM", 4, ModeUnorm, "rgba", 8, 0, 0},
	{FormatB8G8R8A8Unorm, "B8G8R8A8_UNORM", 4, ModeUnorm, "bgra", 8, 0, 0},
	{FormatR32Uint, "R32_UINT", 4, ModeUint, "r", 32, 0, 0},
	{FormatR32Sint, "R32_SINT", 4, ModeSint, "r", 32, 0, 0},
	{FormatR32Sfloat, "R32_SFLOAT", 4, ModeSfloat, "r", 32, 0, 0},
	{FormatR32G32Sfloat, "R32G32_SFLOAT", 8, ModeSfloat, "rg", 32, 0, 0},
	{FormatR32G32B32Sfloat, "R32G32B32_SFLOAT", 12, ModeSfloat, "rgb", 32, 0, 0},
	{FormatR32G32B32A32Uint, "R32G32B32A32_UINT", 16, ModeUint, "rgba", 32, 0, 0},
	{FormatR32G32B32A32Sint, "R32G32B32A32_SINT", 16, ModeSint, "rgba", 32, 0, 0},
	{FormatR32G32B32A32Sfloat, "R32G32B32A32_SFLOAT", 16, ModeSfloat, "rgba", 32, 0, 0},
	{FormatD16Unorm, "D16_UNORM", 2, ModeUnorm, "", 0, 16, 0},
	{FormatD32Sfloat, "D32_SFLOAT", 4, ModeSfloat, "", 0, 32, 0},
	{FormatD24UnormS8Uint, "D24_UNORM_S8_UINT", 4, ModeUnorm, "", 0, 24, 8},
	{FormatD32SfloatS8Uint, "D32_SFLOAT_S8_UINT", 8, ModeSfloat, "", 0, 32, 8},
}

// Info returns the table entry for f.
func (f Format) Info() (FormatInfo, bool) {
	for _, info := range formatTable {
		if info.Format == f {
			return info, true
		}
	}
	return FormatInfo{}, false
}

func (f Format) String() string {
	if f == FormatUndefined {
		return "UNDEFINED"
	}
	if info, ok := f.Info(); ok {
		return info.Name
	}
	return "VkFormat(" + formatUint(uint32(f)) + ")"
}

// Size returns the texel size in bytes, or 0 for unknown formats.
func (f Format) Size() int {
	info, _ := f.Info()
	return info.Size
}

// IsDepthStencil reports whether f has a depth or stencil component.
func (f Format) IsDepthStencil() bool {
	info, _ := f.Info()
	return info.DepthBits > 0 || info.StencilBits > 0
}

// HasStencil reports whether f has a stencil component.
func (f Format) HasStencil() bool {
	info, _ := f.Info()
	return info.StencilBits > 0
}

// FormatByName looks up a format by its Vulkan name, with or without the
// VK_FORMAT_ prefix.
func FormatByName(name string) (Format, bool) {
	name = strings.TrimPrefix(strings.ToUpper(name), "VK_FORMAT_")
	for _, info := range formatTable {
		if info.Name == name {
			return info.Format, true
		}
	}
	return FormatUndefined, false
}

// DecodeColor converts one texel to RGBA. Missing color components read as
// 0 and a missing alpha reads as 1.
func DecodeColor(f Format, texel []byte) ([4]float64, bool) {
	out := [4]float64{0, 0, 0, 1}
	info, ok := f.Info()
	if !ok || info.Channels == "" || len(texel) < info.Size {
		return out, false
	}
	step := info.Bits / 8
	for i, c := range info.Channels {
		raw := texel[i*step : (i+1)*step]
		out[channelIndex(c)] = decodeComponent(info, raw)
	}
	return out, true
}

// EncodeColor converts an RGBA color to one texel of format f.
func EncodeColor(f Format, color [4]float64) ([]byte, bool) {
	info, ok := f.Info()
	if !ok || info.Channels == "" {
		return nil, false
	}
	step := info.Bits / 8
	texel := make([]byte, info.Size)
	for i, c := range info.Channels {
		encodeComponent(info, texel[i*step:(i+1)*step], color[channelIndex(c)])
	}
	return texel, true
}

func channelIndex(c rune) int {
	switch c {
	case 'g':
		return 1
	case 'b':
		return 2
	case 'a':
		return 3
	default:
		return 0
	}
}

func decodeComponent(info FormatInfo, raw []byte) float64 {
	if info.Bits == 8 {
		if info.Mode == ModeUnorm {
			return float64(raw[0]) / 255
		}
		return float64(raw[0])
	}
	v := binary.LittleEndian.Uint32(raw)
	switch info.Mode {
	case ModeSfloat:
		return float64(math.Float32frombits(v))
	case ModeSint:
		return float64(int32(v))
	case ModeUnorm:
		return float64(v) / math.MaxUint32
	default:
		return float64(v)
	}
}

func encodeComponent(info FormatInfo, dst []byte, v float64) {
	if info.Bits == 8 {
		if info.Mode == ModeUnorm {
			v = math.Round(math.Min(math.Max(v, 0), 1) * 255)
		}
		dst[0] = byte(v)
		return
	}
	var bits uint32
	switch info.Mode {
	case ModeSfloat:
		bits = math.Float32bits(float32(v))
	case ModeSint:
		bits = uint32(int32(v))
	case ModeUnorm:
		bits = uint32(math.Round(math.Min(math.Max(v, 0), 1) * math.MaxUint32))
	default:
		bits = uint32(v)
	}
	binary.LittleEndian.PutUint32(dst, bits)
}

func formatUint(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
