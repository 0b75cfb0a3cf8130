package pipeline

import "github.com/gogpu/vkrun/internal/vk"

// enumValues maps the Vulkan enum names accepted by int properties to
// their values.
var enumValues = map[string]int32{
	"VK_PRIMITIVE_TOPOLOGY_POINT_LIST":                    int32(vk.PrimitiveTopologyPointList),
	"VK_PRIMITIVE_TOPOLOGY_LINE_LIST":                     int32(vk.PrimitiveTopologyLineList),
	"VK_PRIMITIVE_TOPOLOGY_LINE_STRIP":                    int32(vk.PrimitiveTopologyLineStrip),
	"VK_PRIMITIVE_TOPOLOGY_TRIANGLE_LIST":                 int32(vk.PrimitiveTopologyTriangleList),
	"VK_PRIMITIVE_TOPOLOGY_TRIANGLE_STRIP":                int32(vk.PrimitiveTopologyTriangleStrip),
	"VK_PRIMITIVE_TOPOLOGY_TRIANGLE_FAN":                  int32(vk.PrimitiveTopologyTriangleFan),
	"VK_PRIMITIVE_TOPOLOGY_LINE_LIST_WITH_ADJACENCY":      int32(vk.PrimitiveTopologyLineListWithAdjacency),
	"VK_PRIMITIVE_TOPOLOGY_LINE_STRIP_WITH_ADJACENCY":     int32(vk.PrimitiveTopologyLineStripWithAdjacency),
	"VK_PRIMITIVE_TOPOLOGY_TRIANGLE_LIST_WITH_ADJACENCY":  int32(vk.PrimitiveTopologyTriangleListWithAdjacency),
	"VK_PRIMITIVE_TOPOLOGY_TRIANGLE_STRIP_WITH_ADJACENCY": int32(vk.PrimitiveTopologyTriangleStripWithAdjacency),
	"VK_PRIMITIVE_TOPOLOGY_PATCH_LIST":                    int32(vk.PrimitiveTopologyPatchList),

	"VK_POLYGON_MODE_FILL":  int32(vk.PolygonModeFill),
	"VK_POLYGON_MODE_LINE":  int32(vk.PolygonModeLine),
	"VK_POLYGON_MODE_POINT": int32(vk.PolygonModePoint),

	"VK_CULL_MODE_NONE":           int32(vk.CullModeNone),
	"VK_CULL_MODE_FRONT_BIT":      int32(vk.CullModeFront),
	"VK_CULL_MODE_BACK_BIT":       int32(vk.CullModeBack),
	"VK_CULL_MODE_FRONT_AND_BACK": int32(vk.CullModeFrontAndBack),

	"VK_FRONT_FACE_COUNTER_CLOCKWISE": int32(vk.FrontFaceCounterClockwise),
	"VK_FRONT_FACE_CLOCKWISE":         int32(vk.FrontFaceClockwise),

	"VK_LOGIC_OP_CLEAR":         int32(vk.LogicOpClear),
	"VK_LOGIC_OP_AND":           int32(vk.LogicOpAnd),
	"VK_LOGIC_OP_AND_REVERSE":   int32(vk.LogicOpAndReverse),
	"VK_LOGIC_OP_COPY":          int32(vk.LogicOpCopy),
	"VK_LOGIC_OP_AND_INVERTED":  int32(vk.LogicOpAndInverted),
	"VK_LOGIC_OP_NO_OP":         int32(vk.LogicOpNoOp),
	"VK_LOGIC_OP_XOR":           int32(vk.LogicOpXor),
	"VK_LOGIC_OP_OR":            int32(vk.LogicOpOr),
	"VK_LOGIC_OP_NOR":           int32(vk.LogicOpNor),
	"VK_LOGIC_OP_EQUIVALENT":    int32(vk.LogicOpEquivalent),
	"VK_LOGIC_OP_INVERT":        int32(vk.LogicOpInvert),
	"VK_LOGIC_OP_OR_REVERSE":    int32(vk.LogicOpOrReverse),
	"VK_LOGIC_OP_COPY_INVERTED": int32(vk.LogicOpCopyInverted),
	"VK_LOGIC_OP_OR_INVERTED":   int32(vk.LogicOpOrInverted),
	"VK_LOGIC_OP_NAND":          int32(vk.LogicOpNand),
	"VK_LOGIC_OP_SET":           int32(vk.LogicOpSet),

	"VK_BLEND_FACTOR_ZERO":                     int32(vk.BlendFactorZero),
	"VK_BLEND_FACTOR_ONE":                      int32(vk.BlendFactorOne),
	"VK_BLEND_FACTOR_SRC_COLOR":                int32(vk.BlendFactorSrcColor),
	"VK_BLEND_FACTOR_ONE_MINUS_SRC_COLOR":      int32(vk.BlendFactorOneMinusSrcColor),
	"VK_BLEND_FACTOR_DST_COLOR":                int32(vk.BlendFactorDstColor),
	"VK_BLEND_FACTOR_ONE_MINUS_DST_COLOR":      int32(vk.BlendFactorOneMinusDstColor),
	"VK_BLEND_FACTOR_SRC_ALPHA":                int32(vk.BlendFactorSrcAlpha),
	"VK_BLEND_FACTOR_ONE_MINUS_SRC_ALPHA":      int32(vk.BlendFactorOneMinusSrcAlpha),
	"VK_BLEND_FACTOR_DST_ALPHA":                int32(vk.BlendFactorDstAlpha),
	"VK_BLEND_FACTOR_ONE_MINUS_DST_ALPHA":      int32(vk.BlendFactorOneMinusDstAlpha),
	"VK_BLEND_FACTOR_CONSTANT_COLOR":           int32(vk.BlendFactorConstantColor),
	"VK_BLEND_FACTOR_ONE_MINUS_CONSTANT_COLOR": int32(vk.BlendFactorOneMinusConstantColor),
	"VK_BLEND_FACTOR_CONSTANT_ALPHA":           int32(vk.BlendFactorConstantAlpha),
	"VK_BLEND_FACTOR_ONE_MINUS_CONSTANT_ALPHA": int32(vk.BlendFactorOneMinusConstantAlpha),
	"VK_BLEND_FACTOR_SRC_ALPHA_SATURATE":       int32(vk.BlendFactorSrcAlphaSaturate),
	"VK_BLEND_FACTOR_SRC1_COLOR":               int32(vk.BlendFactorSrc1Color),
	"VK_BLEND_FACTOR_ONE_MINUS_SRC1_COLOR":     int32(vk.BlendFactorOneMinusSrc1Color),
	"VK_BLEND_FACTOR_SRC1_ALPHA":               int32(vk.BlendFactorSrc1Alpha),
	"VK_BLEND_FACTOR_ONE_MINUS_SRC1_ALPHA":     int32(vk.BlendFactorOneMinusSrc1Alpha),

	"VK_BLEND_OP_ADD":              int32(vk.BlendOpAdd),
	"VK_BLEND_OP_SUBTRACT":         int32(vk.BlendOpSubtract),
	"VK_BLEND_OP_REVERSE_SUBTRACT": int32(vk.BlendOpReverseSubtract),
	"VK_BLEND_OP_MIN":              int32(vk.BlendOpMin),
	"VK_BLEND_OP_MAX":              int32(vk.BlendOpMax),

	"VK_COLOR_COMPONENT_R_BIT": int32(vk.ColorComponentR),
	"VK_COLOR_COMPONENT_G_BIT": int32(vk.ColorComponentG),
	"VK_COLOR_COMPONENT_B_BIT": int32(vk.ColorComponentB),
	"VK_COLOR_COMPONENT_A_BIT": int32(vk.ColorComponentA),

	"VK_COMPARE_OP_NEVER":            int32(vk.CompareOpNever),
	"VK_COMPARE_OP_LESS":             int32(vk.CompareOpLess),
	"VK_COMPARE_OP_EQUAL":            int32(vk.CompareOpEqual),
	"VK_COMPARE_OP_LESS_OR_EQUAL":    int32(vk.CompareOpLessOrEqual),
	"VK_COMPARE_OP_GREATER":          int32(vk.CompareOpGreater),
	"VK_COMPARE_OP_NOT_EQUAL":        int32(vk.CompareOpNotEqual),
	"VK_COMPARE_OP_GREATER_OR_EQUAL": int32(vk.CompareOpGreaterOrEqual),
	"VK_COMPARE_OP_ALWAYS":           int32(vk.CompareOpAlways),

	"VK_STENCIL_OP_KEEP":                int32(vk.StencilOpKeep),
	"VK_STENCIL_OP_ZERO":                int32(vk.StencilOpZero),
	"VK_STENCIL_OP_REPLACE":             int32(vk.StencilOpReplace),
	"VK_STENCIL_OP_INCREMENT_AND_CLAMP": int32(vk.StencilOpIncrementAndClamp),
	"VK_STENCIL_OP_DECREMENT_AND_CLAMP": int32(vk.StencilOpDecrementAndClamp),
	"VK_STENCIL_OP_INVERT":              int32(vk.StencilOpInvert),
	"VK_STENCIL_OP_INCREMENT_AND_WRAP":  int32(vk.StencilOpIncrementAndWrap),
	"VK_STENCIL_OP_DECREMENT_AND_WRAP":  int32(vk.StencilOpDecrementAndWrap),
}

func isNameChar(c byte) bool {
	return c == '_' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// lookupEnum reads the longest identifier prefix of s and resolves it as
// an enum name.
func lookupEnum(s string) (int32, string, bool) {
	n := countWhile(s, isNameChar)
	v, ok := enumValues[s[:n]]
	if !ok {
		return 0, s, false
	}
	return v, s[n:], true
}
