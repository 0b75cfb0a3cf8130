package pipeline

import (
	"sort"

	"github.com/gogpu/vkrun/internal/vk"
)

// PropertyTableVersion changes whenever a property is added, removed or
// renumbered.
const PropertyTableVersion = 1

const (
	numBools  = 10
	numInts   = 28
	numFloats = 6
)

// Int properties that have dedicated setters.
const (
	topologyIndex           = 0
	patchControlPointsIndex = 1
)

const lineWidthIndex = 3

// PropertyType is the value type of a pipeline property.
type PropertyType int

const (
	BoolProperty PropertyType = iota
	IntProperty
	FloatProperty
)

func (t PropertyType) String() string {
	switch t {
	case BoolProperty:
		return "bool"
	case IntProperty:
		return "int"
	case FloatProperty:
		return "float"
	default:
		return "unknown"
	}
}

// Property describes one settable field of the fixed-function pipeline
// state. Index is the position in the key's array for Type.
type Property struct {
	Name  string
	Type  PropertyType
	Index int

	setBool  func(*GraphicsState, bool)
	setInt   func(*GraphicsState, int32)
	setFloat func(*GraphicsState, float32)
}

func boolProp(name string, index int, set func(*GraphicsState, bool)) Property {
	return Property{Name: name, Type: BoolProperty, Index: index, setBool: set}
}

func intProp(name string, index int, set func(*GraphicsState, int32)) Property {
	return Property{Name: name, Type: IntProperty, Index: index, setInt: set}
}

func floatProp(name string, index int, set func(*GraphicsState, float32)) Property {
	return Property{Name: name, Type: FloatProperty, Index: index, setFloat: set}
}

// properties is sorted by name.
var properties = []Property{
	intProp("alphaBlendOp", 11, func(s *GraphicsState, v int32) { s.blend().AlphaBlendOp = vk.BlendOp(v) }),
	intProp("back.compareMask", 25, func(s *GraphicsState, v int32) { s.DepthStencil.Back.CompareMask = uint32(v) }),
	intProp("back.compareOp", 24, func(s *GraphicsState, v int32) { s.DepthStencil.Back.CompareOp = vk.CompareOp(v) }),
	intProp("back.depthFailOp", 23, func(s *GraphicsState, v int32) { s.DepthStencil.Back.DepthFailOp = vk.StencilOp(v) }),
	intProp("back.failOp", 21, func(s *GraphicsState, v int32) { s.DepthStencil.Back.FailOp = vk.StencilOp(v) }),
	intProp("back.passOp", 22, func(s *GraphicsState, v int32) { s.DepthStencil.Back.PassOp = vk.StencilOp(v) }),
	intProp("back.reference", 27, func(s *GraphicsState, v int32) { s.DepthStencil.Back.Reference = uint32(v) }),
	intProp("back.writeMask", 26, func(s *GraphicsState, v int32) { s.DepthStencil.Back.WriteMask = uint32(v) }),
	boolProp("blendEnable", 5, func(s *GraphicsState, v bool) { s.blend().BlendEnable = v }),
	intProp("colorBlendOp", 8, func(s *GraphicsState, v int32) { s.blend().ColorBlendOp = vk.BlendOp(v) }),
	intProp("colorWriteMask", 12, func(s *GraphicsState, v int32) { s.blend().ColorWriteMask = vk.ColorComponentFlags(v) }),
	intProp("cullMode", 3, func(s *GraphicsState, v int32) { s.Rasterization.CullMode = vk.CullModeFlags(v) }),
	floatProp("depthBiasClamp", 1, func(s *GraphicsState, v float32) { s.Rasterization.DepthBiasClamp = v }),
	floatProp("depthBiasConstantFactor", 0, func(s *GraphicsState, v float32) { s.Rasterization.DepthBiasConstantFactor = v }),
	boolProp("depthBiasEnable", 3, func(s *GraphicsState, v bool) { s.Rasterization.DepthBiasEnable = v }),
	floatProp("depthBiasSlopeFactor", 2, func(s *GraphicsState, v float32) { s.Rasterization.DepthBiasSlopeFactor = v }),
	boolProp("depthBoundsTestEnable", 8, func(s *GraphicsState, v bool) { s.DepthStencil.DepthBoundsTestEnable = v }),
	boolProp("depthClampEnable", 1, func(s *GraphicsState, v bool) { s.Rasterization.DepthClampEnable = v }),
	intProp("depthCompareOp", 13, func(s *GraphicsState, v int32) { s.DepthStencil.DepthCompareOp = vk.CompareOp(v) }),
	boolProp("depthTestEnable", 6, func(s *GraphicsState, v bool) { s.DepthStencil.DepthTestEnable = v }),
	boolProp("depthWriteEnable", 7, func(s *GraphicsState, v bool) { s.DepthStencil.DepthWriteEnable = v }),
	intProp("dstAlphaBlendFactor", 10, func(s *GraphicsState, v int32) { s.blend().DstAlphaBlendFactor = vk.BlendFactor(v) }),
	intProp("dstColorBlendFactor", 7, func(s *GraphicsState, v int32) { s.blend().DstColorBlendFactor = vk.BlendFactor(v) }),
	intProp("front.compareMask", 18, func(s *GraphicsState, v int32) { s.DepthStencil.Front.CompareMask = uint32(v) }),
	intProp("front.compareOp", 17, func(s *GraphicsState, v int32) { s.DepthStencil.Front.CompareOp = vk.CompareOp(v) }),
	intProp("front.depthFailOp", 16, func(s *GraphicsState, v int32) { s.DepthStencil.Front.DepthFailOp = vk.StencilOp(v) }),
	intProp("front.failOp", 14, func(s *GraphicsState, v int32) { s.DepthStencil.Front.FailOp = vk.StencilOp(v) }),
	intProp("front.passOp", 15, func(s *GraphicsState, v int32) { s.DepthStencil.Front.PassOp = vk.StencilOp(v) }),
	intProp("front.reference", 20, func(s *GraphicsState, v int32) { s.DepthStencil.Front.Reference = uint32(v) }),
	intProp("front.writeMask", 19, func(s *GraphicsState, v int32) { s.DepthStencil.Front.WriteMask = uint32(v) }),
	intProp("frontFace", 4, func(s *GraphicsState, v int32) { s.Rasterization.FrontFace = vk.FrontFace(v) }),
	floatProp("lineWidth", lineWidthIndex, func(s *GraphicsState, v float32) { s.Rasterization.LineWidth = v }),
	intProp("logicOp", 5, func(s *GraphicsState, v int32) { s.ColorBlend.LogicOp = vk.LogicOp(v) }),
	boolProp("logicOpEnable", 4, func(s *GraphicsState, v bool) { s.ColorBlend.LogicOpEnable = v }),
	floatProp("maxDepthBounds", 5, func(s *GraphicsState, v float32) { s.DepthStencil.MaxDepthBounds = v }),
	floatProp("minDepthBounds", 4, func(s *GraphicsState, v float32) { s.DepthStencil.MinDepthBounds = v }),
	intProp("patchControlPoints", patchControlPointsIndex, func(s *GraphicsState, v int32) { s.Tessellation.PatchControlPoints = uint32(v) }),
	intProp("polygonMode", 2, func(s *GraphicsState, v int32) { s.Rasterization.PolygonMode = vk.PolygonMode(v) }),
	boolProp("primitiveRestartEnable", 0, func(s *GraphicsState, v bool) { s.InputAssembly.PrimitiveRestartEnable = v }),
	boolProp("rasterizerDiscardEnable", 2, func(s *GraphicsState, v bool) { s.Rasterization.RasterizerDiscardEnable = v }),
	intProp("srcAlphaBlendFactor", 9, func(s *GraphicsState, v int32) { s.blend().SrcAlphaBlendFactor = vk.BlendFactor(v) }),
	intProp("srcColorBlendFactor", 6, func(s *GraphicsState, v int32) { s.blend().SrcColorBlendFactor = vk.BlendFactor(v) }),
	boolProp("stencilTestEnable", 9, func(s *GraphicsState, v bool) { s.DepthStencil.StencilTestEnable = v }),
	intProp("topology", topologyIndex, func(s *GraphicsState, v int32) { s.InputAssembly.Topology = vk.PrimitiveTopology(v) }),
}

// Properties returns a copy of the property table, sorted by name.
func Properties() []Property {
	out := make([]Property, len(properties))
	copy(out, properties)
	return out
}

func findProperty(name string) (*Property, bool) {
	i := sort.Search(len(properties), func(i int) bool { return properties[i].Name >= name })
	if i < len(properties) && properties[i].Name == name {
		return &properties[i], true
	}
	return nil, false
}
