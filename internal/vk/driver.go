package vk

// InstanceFuncs are the instance-level and physical-device queries.
type InstanceFuncs interface {
	EnumerateInstanceExtensions() ([]string, Result)
	CreateInstance(info *InstanceCreateInfo) (Instance, Result)
	DestroyInstance(instance Instance)

	EnumeratePhysicalDevices(instance Instance) ([]PhysicalDevice, Result)
	GetPhysicalDeviceProperties(pd PhysicalDevice) PhysicalDeviceProperties
	// GetPhysicalDeviceFeatures returns the names of every supported
	// feature the driver can report, base and extension features alike.
	GetPhysicalDeviceFeatures(pd PhysicalDevice) map[string]bool
	EnumerateDeviceExtensions(pd PhysicalDevice) ([]string, Result)
	GetPhysicalDeviceQueueFamilyProperties(pd PhysicalDevice) []QueueFamilyProperties
	GetPhysicalDeviceMemoryProperties(pd PhysicalDevice) MemoryProperties
	GetPhysicalDeviceFormatProperties(pd PhysicalDevice, format Format) FormatProperties

	CreateDevice(pd PhysicalDevice, info *DeviceCreateInfo) (Device, Result)
}

// DeviceFuncs create and destroy device objects.
type DeviceFuncs interface {
	DestroyDevice(device Device)
	GetDeviceQueue(device Device, family, index uint32) Queue
	DeviceWaitIdle(device Device) Result

	CreateCommandPool(device Device, queueFamily uint32) (CommandPool, Result)
	DestroyCommandPool(device Device, pool CommandPool)
	AllocateCommandBuffer(device Device, pool CommandPool) (CommandBuffer, Result)
	FreeCommandBuffer(device Device, pool CommandPool, cb CommandBuffer)

	CreateFence(device Device) (Fence, Result)
	DestroyFence(device Device, fence Fence)
	ResetFence(device Device, fence Fence) Result
	WaitForFence(device Device, fence Fence, timeout uint64) Result

	CreateBuffer(device Device, info *BufferCreateInfo) (Buffer, Result)
	DestroyBuffer(device Device, buffer Buffer)
	GetBufferMemoryRequirements(device Device, buffer Buffer) MemoryRequirements
	BindBufferMemory(device Device, buffer Buffer, memory DeviceMemory, offset DeviceSize) Result

	CreateImage(device Device, info *ImageCreateInfo) (Image, Result)
	DestroyImage(device Device, image Image)
	GetImageMemoryRequirements(device Device, image Image) MemoryRequirements
	BindImageMemory(device Device, image Image, memory DeviceMemory, offset DeviceSize) Result
	CreateImageView(device Device, info *ImageViewCreateInfo) (ImageView, Result)
	DestroyImageView(device Device, view ImageView)

	AllocateMemory(device Device, info *MemoryAllocateInfo) (DeviceMemory, Result)
	FreeMemory(device Device, memory DeviceMemory)
	// MapMemory returns a slice aliasing the mapped range. It is valid until
	// UnmapMemory.
	MapMemory(device Device, memory DeviceMemory, offset, size DeviceSize) ([]byte, Result)
	UnmapMemory(device Device, memory DeviceMemory)
	FlushMappedMemoryRanges(device Device, ranges []MappedMemoryRange) Result
	InvalidateMappedMemoryRanges(device Device, ranges []MappedMemoryRange) Result

	CreateRenderPass(device Device, info *RenderPassCreateInfo) (RenderPass, Result)
	DestroyRenderPass(device Device, pass RenderPass)
	CreateFramebuffer(device Device, info *FramebufferCreateInfo) (Framebuffer, Result)
	DestroyFramebuffer(device Device, fb Framebuffer)

	CreateShaderModule(device Device, code []byte) (ShaderModule, Result)
	DestroyShaderModule(device Device, module ShaderModule)
	CreateDescriptorSetLayout(device Device, bindings []DescriptorSetLayoutBinding) (DescriptorSetLayout, Result)
	DestroyDescriptorSetLayout(device Device, layout DescriptorSetLayout)
	CreatePipelineLayout(device Device, info *PipelineLayoutCreateInfo) (PipelineLayout, Result)
	DestroyPipelineLayout(device Device, layout PipelineLayout)
	CreatePipelineCache(device Device) (PipelineCache, Result)
	DestroyPipelineCache(device Device, cache PipelineCache)
	CreateGraphicsPipeline(device Device, cache PipelineCache, info *GraphicsPipelineCreateInfo) (Pipeline, Result)
	CreateComputePipeline(device Device, cache PipelineCache, info *ComputePipelineCreateInfo) (Pipeline, Result)
	DestroyPipeline(device Device, pipeline Pipeline)

	CreateDescriptorPool(device Device, info *DescriptorPoolCreateInfo) (DescriptorPool, Result)
	DestroyDescriptorPool(device Device, pool DescriptorPool)
	AllocateDescriptorSets(device Device, pool DescriptorPool, layouts []DescriptorSetLayout) ([]DescriptorSet, Result)
	UpdateDescriptorSets(device Device, writes []WriteDescriptorSet)
}

// CommandFuncs record into a command buffer and submit it.
type CommandFuncs interface {
	BeginCommandBuffer(cb CommandBuffer) Result
	EndCommandBuffer(cb CommandBuffer) Result
	CmdBeginRenderPass(cb CommandBuffer, info *RenderPassBeginInfo)
	CmdEndRenderPass(cb CommandBuffer)
	CmdBindPipeline(cb CommandBuffer, bindPoint PipelineBindPoint, pipeline Pipeline)
	CmdBindVertexBuffers(cb CommandBuffer, firstBinding uint32, buffers []Buffer, offsets []DeviceSize)
	CmdBindDescriptorSets(cb CommandBuffer, bindPoint PipelineBindPoint, layout PipelineLayout, firstSet uint32, sets []DescriptorSet)
	CmdPushConstants(cb CommandBuffer, layout PipelineLayout, stages ShaderStageFlags, offset uint32, data []byte)
	CmdBindIndexBuffer(cb CommandBuffer, buffer Buffer, offset DeviceSize, indexType IndexType)
	CmdDraw(cb CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32)
	CmdDrawIndexed(cb CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)
	CmdDispatch(cb CommandBuffer, x, y, z uint32)
	CmdClearAttachments(cb CommandBuffer, attachments []ClearAttachment, rects []Rect2D)
	CmdPipelineBarrier(cb CommandBuffer, barrier *PipelineBarrier)
	CmdCopyImageToBuffer(cb CommandBuffer, image Image, layout ImageLayout, buffer Buffer, regions []BufferImageCopy)
	QueueSubmit(queue Queue, cbs []CommandBuffer, fence Fence) Result
}

// Driver is the complete function table used by vkrun.
type Driver interface {
	InstanceFuncs
	DeviceFuncs
	CommandFuncs
}
