package device

// baseFeatures lists the members of VkPhysicalDeviceFeatures in
// declaration order.
var baseFeatures = []string{
	"robustBufferAccess",
	"fullDrawIndexUint32",
	"imageCubeArray",
	"independentBlend",
	"geometryShader",
	"tessellationShader",
	"sampleRateShading",
	"dualSrcBlend",
	"logicOp",
	"multiDrawIndirect",
	"drawIndirectFirstInstance",
	"depthClamp",
	"depthBiasClamp",
	"fillModeNonSolid",
	"depthBounds",
	"wideLines",
	"largePoints",
	"alphaToOne",
	"multiViewport",
	"samplerAnisotropy",
	"textureCompressionETC2",
	"textureCompressionASTC_LDR",
	"textureCompressionBC",
	"occlusionQueryPrecise",
	"pipelineStatisticsQuery",
	"vertexPipelineStoresAndAtomics",
	"fragmentStoresAndAtomics",
	"shaderTessellationAndGeometryPointSize",
	"shaderImageGatherExtended",
	"shaderStorageImageExtendedFormats",
	"shaderStorageImageMultisample",
	"shaderStorageImageReadWithoutFormat",
	"shaderStorageImageWriteWithoutFormat",
	"shaderUniformBufferArrayDynamicIndexing",
	"shaderSampledImageArrayDynamicIndexing",
	"shaderStorageBufferArrayDynamicIndexing",
	"shaderStorageImageArrayDynamicIndexing",
	"shaderClipDistance",
	"shaderCullDistance",
	"shaderFloat64",
	"shaderInt64",
	"shaderInt16",
	"shaderResourceResidency",
	"shaderResourceMinLod",
	"sparseBinding",
	"sparseResidencyBuffer",
	"sparseResidencyImage2D",
	"sparseResidencyImage3D",
	"sparseResidency2Samples",
	"sparseResidency4Samples",
	"sparseResidency8Samples",
	"sparseResidency16Samples",
	"sparseResidencyAliased",
	"variableMultisampleRate",
	"inheritedQueries",
}

// BaseFeatures returns the VkPhysicalDeviceFeatures member names.
func BaseFeatures() []string {
	return append([]string(nil), baseFeatures...)
}

// extensionFeatures maps feature struct members to the extension that
// introduces them.
var extensionFeatures = map[string]string{
	"multiview":                              "VK_KHR_multiview",
	"multiviewGeometryShader":                "VK_KHR_multiview",
	"multiviewTessellationShader":            "VK_KHR_multiview",
	"storageBuffer16BitAccess":               "VK_KHR_16bit_storage",
	"uniformAndStorageBuffer16BitAccess":     "VK_KHR_16bit_storage",
	"storagePushConstant16":                  "VK_KHR_16bit_storage",
	"storageInputOutput16":                   "VK_KHR_16bit_storage",
	"storageBuffer8BitAccess":                "VK_KHR_8bit_storage",
	"uniformAndStorageBuffer8BitAccess":      "VK_KHR_8bit_storage",
	"storagePushConstant8":                   "VK_KHR_8bit_storage",
	"shaderFloat16":                          "VK_KHR_shader_float16_int8",
	"shaderInt8":                             "VK_KHR_shader_float16_int8",
	"variablePointersStorageBuffer":          "VK_KHR_variable_pointers",
	"variablePointers":                       "VK_KHR_variable_pointers",
	"shaderBufferInt64Atomics":               "VK_KHR_shader_atomic_int64",
	"shaderSharedInt64Atomics":               "VK_KHR_shader_atomic_int64",
	"vertexAttributeInstanceRateDivisor":     "VK_EXT_vertex_attribute_divisor",
	"vertexAttributeInstanceRateZeroDivisor": "VK_EXT_vertex_attribute_divisor",
	"transformFeedback":                      "VK_EXT_transform_feedback",
	"geometryStreams":                        "VK_EXT_transform_feedback",
	"bufferDeviceAddress":                    "VK_KHR_buffer_device_address",
	"subgroupSizeControl":                    "VK_EXT_subgroup_size_control",
	"computeFullSubgroups":                   "VK_EXT_subgroup_size_control",
}

func isBaseFeature(name string) bool {
	for _, f := range baseFeatures {
		if f == name {
			return true
		}
	}
	return false
}
