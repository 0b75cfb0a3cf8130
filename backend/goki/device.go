package goki

import (
	"unsafe"

	gvk "github.com/goki/vulkan"

	"github.com/gogpu/vkrun"
	"github.com/gogpu/vkrun/internal/shader"
	"github.com/gogpu/vkrun/internal/vk"
)

// Import registers native handles created by the caller so an external
// executor can run on them. The handles are never destroyed by the driver.
func (d *Driver) Import(instance gvk.Instance, physical gvk.PhysicalDevice, dev gvk.Device, queueFamily uint32) (vkrun.ExternalDevice, error) {
	if err := gvk.InitInstance(instance); err != nil {
		return vkrun.ExternalDevice{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	pd, ok := d.physicalIDs[physical]
	if !ok {
		pd = vk.PhysicalDevice(d.physical.put(physical))
		d.physicalIDs[physical] = pd
	}
	return vkrun.ExternalDevice{
		Instance:       vk.Instance(d.instances.put(instance)),
		PhysicalDevice: pd,
		Device:         vk.Device(d.devices.put(dev)),
		QueueFamily:    queueFamily,
	}, nil
}

func (d *Driver) device(dev vk.Device) gvk.Device { return lookup(d, &d.devices, uint64(dev)) }

func (d *Driver) DestroyDevice(dev vk.Device) {
	if h, ok := remove(d, &d.devices, uint64(dev)); ok {
		gvk.DestroyDevice(h, nil)
	}
}

func (d *Driver) GetDeviceQueue(dev vk.Device, family, index uint32) vk.Queue {
	var q gvk.Queue
	gvk.GetDeviceQueue(d.device(dev), family, index, &q)
	return vk.Queue(store(d, &d.queues, q))
}

func (d *Driver) DeviceWaitIdle(dev vk.Device) vk.Result {
	return vk.Result(gvk.DeviceWaitIdle(d.device(dev)))
}

func (d *Driver) CreateCommandPool(dev vk.Device, queueFamily uint32) (vk.CommandPool, vk.Result) {
	ci := &gvk.CommandPoolCreateInfo{
		SType:            gvk.StructureTypeCommandPoolCreateInfo,
		Flags:            gvk.CommandPoolCreateFlags(gvk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: queueFamily,
	}
	var pool gvk.CommandPool
	if res := gvk.CreateCommandPool(d.device(dev), ci, nil, &pool); res != gvk.Success {
		return 0, vk.Result(res)
	}
	return vk.CommandPool(store(d, &d.commandPools, pool)), vk.Success
}

func (d *Driver) DestroyCommandPool(dev vk.Device, pool vk.CommandPool) {
	if h, ok := remove(d, &d.commandPools, uint64(pool)); ok {
		gvk.DestroyCommandPool(d.device(dev), h, nil)
	}
}

func (d *Driver) AllocateCommandBuffer(dev vk.Device, pool vk.CommandPool) (vk.CommandBuffer, vk.Result) {
	ai := &gvk.CommandBufferAllocateInfo{
		SType:              gvk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        lookup(d, &d.commandPools, uint64(pool)),
		Level:              gvk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	cbs := make([]gvk.CommandBuffer, 1)
	if res := gvk.AllocateCommandBuffers(d.device(dev), ai, cbs); res != gvk.Success {
		return 0, vk.Result(res)
	}
	return vk.CommandBuffer(store(d, &d.commandBuffers, cbs[0])), vk.Success
}

func (d *Driver) FreeCommandBuffer(dev vk.Device, pool vk.CommandPool, cb vk.CommandBuffer) {
	if h, ok := remove(d, &d.commandBuffers, uint64(cb)); ok {
		gvk.FreeCommandBuffers(d.device(dev), lookup(d, &d.commandPools, uint64(pool)), 1, []gvk.CommandBuffer{h})
	}
}

func (d *Driver) CreateFence(dev vk.Device) (vk.Fence, vk.Result) {
	var f gvk.Fence
	ci := &gvk.FenceCreateInfo{SType: gvk.StructureTypeFenceCreateInfo}
	if res := gvk.CreateFence(d.device(dev), ci, nil, &f); res != gvk.Success {
		return 0, vk.Result(res)
	}
	return vk.Fence(store(d, &d.fences, f)), vk.Success
}

func (d *Driver) DestroyFence(dev vk.Device, fence vk.Fence) {
	if h, ok := remove(d, &d.fences, uint64(fence)); ok {
		gvk.DestroyFence(d.device(dev), h, nil)
	}
}

func (d *Driver) ResetFence(dev vk.Device, fence vk.Fence) vk.Result {
	f := lookup(d, &d.fences, uint64(fence))
	return vk.Result(gvk.ResetFences(d.device(dev), 1, []gvk.Fence{f}))
}

func (d *Driver) WaitForFence(dev vk.Device, fence vk.Fence, timeout uint64) vk.Result {
	f := lookup(d, &d.fences, uint64(fence))
	return vk.Result(gvk.WaitForFences(d.device(dev), 1, []gvk.Fence{f}, gvk.True, timeout))
}

func (d *Driver) CreateBuffer(dev vk.Device, info *vk.BufferCreateInfo) (vk.Buffer, vk.Result) {
	ci := &gvk.BufferCreateInfo{
		SType:       gvk.StructureTypeBufferCreateInfo,
		Size:        gvk.DeviceSize(info.Size),
		Usage:       gvk.BufferUsageFlags(info.Usage),
		SharingMode: gvk.SharingModeExclusive,
	}
	var b gvk.Buffer
	if res := gvk.CreateBuffer(d.device(dev), ci, nil, &b); res != gvk.Success {
		return 0, vk.Result(res)
	}
	return vk.Buffer(store(d, &d.buffers, b)), vk.Success
}

func (d *Driver) DestroyBuffer(dev vk.Device, buffer vk.Buffer) {
	if h, ok := remove(d, &d.buffers, uint64(buffer)); ok {
		gvk.DestroyBuffer(d.device(dev), h, nil)
	}
}

func memoryRequirements(r gvk.MemoryRequirements) vk.MemoryRequirements {
	r.Deref()
	return vk.MemoryRequirements{
		Size:           vk.DeviceSize(r.Size),
		Alignment:      vk.DeviceSize(r.Alignment),
		MemoryTypeBits: r.MemoryTypeBits,
	}
}

func (d *Driver) GetBufferMemoryRequirements(dev vk.Device, buffer vk.Buffer) vk.MemoryRequirements {
	var r gvk.MemoryRequirements
	gvk.GetBufferMemoryRequirements(d.device(dev), lookup(d, &d.buffers, uint64(buffer)), &r)
	return memoryRequirements(r)
}

func (d *Driver) BindBufferMemory(dev vk.Device, buffer vk.Buffer, memory vk.DeviceMemory, offset vk.DeviceSize) vk.Result {
	b := lookup(d, &d.buffers, uint64(buffer))
	m := lookup(d, &d.memories, uint64(memory))
	return vk.Result(gvk.BindBufferMemory(d.device(dev), b, m, gvk.DeviceSize(offset)))
}

func (d *Driver) CreateImage(dev vk.Device, info *vk.ImageCreateInfo) (vk.Image, vk.Result) {
	ci := &gvk.ImageCreateInfo{
		SType:         gvk.StructureTypeImageCreateInfo,
		ImageType:     gvk.ImageType2d,
		Format:        gvk.Format(info.Format),
		Extent:        gvk.Extent3D{Width: info.Width, Height: info.Height, Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       gvk.SampleCount1Bit,
		Tiling:        gvk.ImageTiling(info.Tiling),
		Usage:         gvk.ImageUsageFlags(info.Usage),
		SharingMode:   gvk.SharingModeExclusive,
		InitialLayout: gvk.ImageLayoutUndefined,
	}
	var img gvk.Image
	if res := gvk.CreateImage(d.device(dev), ci, nil, &img); res != gvk.Success {
		return 0, vk.Result(res)
	}
	return vk.Image(store(d, &d.images, img)), vk.Success
}

func (d *Driver) DestroyImage(dev vk.Device, image vk.Image) {
	if h, ok := remove(d, &d.images, uint64(image)); ok {
		gvk.DestroyImage(d.device(dev), h, nil)
	}
}

func (d *Driver) GetImageMemoryRequirements(dev vk.Device, image vk.Image) vk.MemoryRequirements {
	var r gvk.MemoryRequirements
	gvk.GetImageMemoryRequirements(d.device(dev), lookup(d, &d.images, uint64(image)), &r)
	return memoryRequirements(r)
}

func (d *Driver) BindImageMemory(dev vk.Device, image vk.Image, memory vk.DeviceMemory, offset vk.DeviceSize) vk.Result {
	img := lookup(d, &d.images, uint64(image))
	m := lookup(d, &d.memories, uint64(memory))
	return vk.Result(gvk.BindImageMemory(d.device(dev), img, m, gvk.DeviceSize(offset)))
}

func (d *Driver) CreateImageView(dev vk.Device, info *vk.ImageViewCreateInfo) (vk.ImageView, vk.Result) {
	ci := &gvk.ImageViewCreateInfo{
		SType:            gvk.StructureTypeImageViewCreateInfo,
		Image:            lookup(d, &d.images, uint64(info.Image)),
		ViewType:         gvk.ImageViewType2d,
		Format:           gvk.Format(info.Format),
		SubresourceRange: subresourceRange(info.Aspect),
	}
	var view gvk.ImageView
	if res := gvk.CreateImageView(d.device(dev), ci, nil, &view); res != gvk.Success {
		return 0, vk.Result(res)
	}
	return vk.ImageView(store(d, &d.imageViews, view)), vk.Success
}

func (d *Driver) DestroyImageView(dev vk.Device, view vk.ImageView) {
	if h, ok := remove(d, &d.imageViews, uint64(view)); ok {
		gvk.DestroyImageView(d.device(dev), h, nil)
	}
}

func (d *Driver) AllocateMemory(dev vk.Device, info *vk.MemoryAllocateInfo) (vk.DeviceMemory, vk.Result) {
	ai := &gvk.MemoryAllocateInfo{
		SType:           gvk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  gvk.DeviceSize(info.Size),
		MemoryTypeIndex: info.MemoryTypeIndex,
	}
	var m gvk.DeviceMemory
	if res := gvk.AllocateMemory(d.device(dev), ai, nil, &m); res != gvk.Success {
		return 0, vk.Result(res)
	}
	id := vk.DeviceMemory(store(d, &d.memories, m))
	d.mu.Lock()
	d.memorySizes[id] = info.Size
	d.mu.Unlock()
	return id, vk.Success
}

func (d *Driver) FreeMemory(dev vk.Device, memory vk.DeviceMemory) {
	if h, ok := remove(d, &d.memories, uint64(memory)); ok {
		d.mu.Lock()
		delete(d.memorySizes, memory)
		d.mu.Unlock()
		gvk.FreeMemory(d.device(dev), h, nil)
	}
}

func (d *Driver) MapMemory(dev vk.Device, memory vk.DeviceMemory, offset, size vk.DeviceSize) ([]byte, vk.Result) {
	d.mu.Lock()
	m := d.memories.get(uint64(memory))
	total := d.memorySizes[memory]
	d.mu.Unlock()

	length := size
	if size == vk.WholeSize {
		length = total - offset
	}
	var ptr unsafe.Pointer
	if res := gvk.MapMemory(d.device(dev), m, gvk.DeviceSize(offset), gvk.DeviceSize(size), 0, &ptr); res != gvk.Success {
		return nil, vk.Result(res)
	}
	return unsafe.Slice((*byte)(ptr), int(length)), vk.Success //nolint:gosec // mapped ranges fit in memory
}

func (d *Driver) UnmapMemory(dev vk.Device, memory vk.DeviceMemory) {
	gvk.UnmapMemory(d.device(dev), lookup(d, &d.memories, uint64(memory)))
}

func (d *Driver) mappedRanges(ranges []vk.MappedMemoryRange) []gvk.MappedMemoryRange {
	out := make([]gvk.MappedMemoryRange, len(ranges))
	for i, r := range ranges {
		out[i] = gvk.MappedMemoryRange{
			SType:  gvk.StructureTypeMappedMemoryRange,
			Memory: lookup(d, &d.memories, uint64(r.Memory)),
			Offset: gvk.DeviceSize(r.Offset),
			Size:   gvk.DeviceSize(r.Size),
		}
	}
	return out
}

func (d *Driver) FlushMappedMemoryRanges(dev vk.Device, ranges []vk.MappedMemoryRange) vk.Result {
	rs := d.mappedRanges(ranges)
	return vk.Result(gvk.FlushMappedMemoryRanges(d.device(dev), uint32(len(rs)), rs)) //nolint:gosec // few ranges per call
}

func (d *Driver) InvalidateMappedMemoryRanges(dev vk.Device, ranges []vk.MappedMemoryRange) vk.Result {
	rs := d.mappedRanges(ranges)
	return vk.Result(gvk.InvalidateMappedMemoryRanges(d.device(dev), uint32(len(rs)), rs)) //nolint:gosec // few ranges per call
}

func (d *Driver) CreateRenderPass(dev vk.Device, info *vk.RenderPassCreateInfo) (vk.RenderPass, vk.Result) {
	atts := make([]gvk.AttachmentDescription, len(info.Attachments))
	for i, a := range info.Attachments {
		atts[i] = gvk.AttachmentDescription{
			Format:         gvk.Format(a.Format),
			Samples:        gvk.SampleCount1Bit,
			LoadOp:         gvk.AttachmentLoadOp(a.LoadOp),
			StoreOp:        gvk.AttachmentStoreOp(a.StoreOp),
			StencilLoadOp:  gvk.AttachmentLoadOp(a.StencilLoadOp),
			StencilStoreOp: gvk.AttachmentStoreOp(a.StencilStoreOp),
			InitialLayout:  gvk.ImageLayout(a.InitialLayout),
			FinalLayout:    gvk.ImageLayout(a.FinalLayout),
		}
	}
	subpass := gvk.SubpassDescription{
		PipelineBindPoint:    gvk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []gvk.AttachmentReference{{
			Attachment: 0,
			Layout:     gvk.ImageLayoutColorAttachmentOptimal,
		}},
	}
	if len(atts) > 1 {
		subpass.PDepthStencilAttachment = &gvk.AttachmentReference{
			Attachment: 1,
			Layout:     gvk.ImageLayoutDepthStencilAttachmentOptimal,
		}
	}
	ci := &gvk.RenderPassCreateInfo{
		SType:           gvk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(atts)), //nolint:gosec // at most two attachments
		PAttachments:    atts,
		SubpassCount:    1,
		PSubpasses:      []gvk.SubpassDescription{subpass},
	}
	var rp gvk.RenderPass
	if res := gvk.CreateRenderPass(d.device(dev), ci, nil, &rp); res != gvk.Success {
		return 0, vk.Result(res)
	}
	return vk.RenderPass(store(d, &d.renderPasses, rp)), vk.Success
}

func (d *Driver) DestroyRenderPass(dev vk.Device, pass vk.RenderPass) {
	if h, ok := remove(d, &d.renderPasses, uint64(pass)); ok {
		gvk.DestroyRenderPass(d.device(dev), h, nil)
	}
}

func (d *Driver) CreateFramebuffer(dev vk.Device, info *vk.FramebufferCreateInfo) (vk.Framebuffer, vk.Result) {
	views := make([]gvk.ImageView, len(info.Attachments))
	for i, v := range info.Attachments {
		views[i] = lookup(d, &d.imageViews, uint64(v))
	}
	ci := &gvk.FramebufferCreateInfo{
		SType:           gvk.StructureTypeFramebufferCreateInfo,
		RenderPass:      lookup(d, &d.renderPasses, uint64(info.RenderPass)),
		AttachmentCount: uint32(len(views)), //nolint:gosec // at most two attachments
		PAttachments:    views,
		Width:           info.Width,
		Height:          info.Height,
		Layers:          1,
	}
	var fb gvk.Framebuffer
	if res := gvk.CreateFramebuffer(d.device(dev), ci, nil, &fb); res != gvk.Success {
		return 0, vk.Result(res)
	}
	return vk.Framebuffer(store(d, &d.framebuffers, fb)), vk.Success
}

func (d *Driver) DestroyFramebuffer(dev vk.Device, fb vk.Framebuffer) {
	if h, ok := remove(d, &d.framebuffers, uint64(fb)); ok {
		gvk.DestroyFramebuffer(d.device(dev), h, nil)
	}
}

// shaderModuleInfo describes a SPIR-V blob. CodeSize is in bytes.
func shaderModuleInfo(code []byte) *gvk.ShaderModuleCreateInfo {
	return &gvk.ShaderModuleCreateInfo{
		SType:    gvk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    shader.Words(code),
	}
}

func (d *Driver) CreateShaderModule(dev vk.Device, code []byte) (vk.ShaderModule, vk.Result) {
	var m gvk.ShaderModule
	if res := gvk.CreateShaderModule(d.device(dev), shaderModuleInfo(code), nil, &m); res != gvk.Success {
		return 0, vk.Result(res)
	}
	return vk.ShaderModule(store(d, &d.shaderModules, m)), vk.Success
}

func (d *Driver) DestroyShaderModule(dev vk.Device, module vk.ShaderModule) {
	if h, ok := remove(d, &d.shaderModules, uint64(module)); ok {
		gvk.DestroyShaderModule(d.device(dev), h, nil)
	}
}

func (d *Driver) CreateDescriptorSetLayout(dev vk.Device, bindings []vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, vk.Result) {
	bs := make([]gvk.DescriptorSetLayoutBinding, len(bindings))
	for i, b := range bindings {
		bs[i] = gvk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  gvk.DescriptorType(b.DescriptorType),
			DescriptorCount: 1,
			StageFlags:      gvk.ShaderStageFlags(b.StageFlags),
		}
	}
	ci := &gvk.DescriptorSetLayoutCreateInfo{
		SType:        gvk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bs)), //nolint:gosec // bindings per set are few
		PBindings:    bs,
	}
	var l gvk.DescriptorSetLayout
	if res := gvk.CreateDescriptorSetLayout(d.device(dev), ci, nil, &l); res != gvk.Success {
		return 0, vk.Result(res)
	}
	return vk.DescriptorSetLayout(store(d, &d.setLayouts, l)), vk.Success
}

func (d *Driver) DestroyDescriptorSetLayout(dev vk.Device, layout vk.DescriptorSetLayout) {
	if h, ok := remove(d, &d.setLayouts, uint64(layout)); ok {
		gvk.DestroyDescriptorSetLayout(d.device(dev), h, nil)
	}
}

func (d *Driver) CreatePipelineLayout(dev vk.Device, info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, vk.Result) {
	sets := make([]gvk.DescriptorSetLayout, len(info.SetLayouts))
	for i, l := range info.SetLayouts {
		sets[i] = lookup(d, &d.setLayouts, uint64(l))
	}
	ranges := make([]gvk.PushConstantRange, len(info.PushConstantRanges))
	for i, r := range info.PushConstantRanges {
		ranges[i] = gvk.PushConstantRange{
			StageFlags: gvk.ShaderStageFlags(r.StageFlags),
			Offset:     r.Offset,
			Size:       r.Size,
		}
	}
	ci := &gvk.PipelineLayoutCreateInfo{
		SType:                  gvk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(sets)), //nolint:gosec // few sets
		PSetLayouts:            sets,
		PushConstantRangeCount: uint32(len(ranges)), //nolint:gosec // at most one range
		PPushConstantRanges:    ranges,
	}
	var l gvk.PipelineLayout
	if res := gvk.CreatePipelineLayout(d.device(dev), ci, nil, &l); res != gvk.Success {
		return 0, vk.Result(res)
	}
	return vk.PipelineLayout(store(d, &d.layouts, l)), vk.Success
}

func (d *Driver) DestroyPipelineLayout(dev vk.Device, layout vk.PipelineLayout) {
	if h, ok := remove(d, &d.layouts, uint64(layout)); ok {
		gvk.DestroyPipelineLayout(d.device(dev), h, nil)
	}
}

func (d *Driver) CreatePipelineCache(dev vk.Device) (vk.PipelineCache, vk.Result) {
	ci := &gvk.PipelineCacheCreateInfo{SType: gvk.StructureTypePipelineCacheCreateInfo}
	var c gvk.PipelineCache
	if res := gvk.CreatePipelineCache(d.device(dev), ci, nil, &c); res != gvk.Success {
		return 0, vk.Result(res)
	}
	return vk.PipelineCache(store(d, &d.caches, c)), vk.Success
}

func (d *Driver) DestroyPipelineCache(dev vk.Device, cache vk.PipelineCache) {
	if h, ok := remove(d, &d.caches, uint64(cache)); ok {
		gvk.DestroyPipelineCache(d.device(dev), h, nil)
	}
}

func (d *Driver) DestroyPipeline(dev vk.Device, pipeline vk.Pipeline) {
	if h, ok := remove(d, &d.pipelines, uint64(pipeline)); ok {
		gvk.DestroyPipeline(d.device(dev), h, nil)
	}
}

func (d *Driver) CreateDescriptorPool(dev vk.Device, info *vk.DescriptorPoolCreateInfo) (vk.DescriptorPool, vk.Result) {
	sizes := make([]gvk.DescriptorPoolSize, len(info.PoolSizes))
	for i, s := range info.PoolSizes {
		sizes[i] = gvk.DescriptorPoolSize{Type: gvk.DescriptorType(s.Type), DescriptorCount: s.Count}
	}
	ci := &gvk.DescriptorPoolCreateInfo{
		SType:         gvk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       info.MaxSets,
		PoolSizeCount: uint32(len(sizes)), //nolint:gosec // two descriptor types
		PPoolSizes:    sizes,
	}
	var p gvk.DescriptorPool
	if res := gvk.CreateDescriptorPool(d.device(dev), ci, nil, &p); res != gvk.Success {
		return 0, vk.Result(res)
	}
	return vk.DescriptorPool(store(d, &d.descPools, p)), vk.Success
}

// DestroyDescriptorPool also forgets the sets allocated from the pool,
// which the native call frees implicitly.
func (d *Driver) DestroyDescriptorPool(dev vk.Device, pool vk.DescriptorPool) {
	h, ok := remove(d, &d.descPools, uint64(pool))
	if !ok {
		return
	}
	d.mu.Lock()
	for _, s := range d.poolSets[pool] {
		d.descSets.del(uint64(s))
	}
	delete(d.poolSets, pool)
	d.mu.Unlock()
	gvk.DestroyDescriptorPool(d.device(dev), h, nil)
}

func (d *Driver) AllocateDescriptorSets(dev vk.Device, pool vk.DescriptorPool, layouts []vk.DescriptorSetLayout) ([]vk.DescriptorSet, vk.Result) {
	if len(layouts) == 0 {
		return nil, vk.Success
	}
	ls := make([]gvk.DescriptorSetLayout, len(layouts))
	for i, l := range layouts {
		ls[i] = lookup(d, &d.setLayouts, uint64(l))
	}
	ai := &gvk.DescriptorSetAllocateInfo{
		SType:              gvk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     lookup(d, &d.descPools, uint64(pool)),
		DescriptorSetCount: uint32(len(ls)), //nolint:gosec // few sets
		PSetLayouts:        ls,
	}
	sets := make([]gvk.DescriptorSet, len(ls))
	if res := gvk.AllocateDescriptorSets(d.device(dev), ai, &sets[0]); res != gvk.Success {
		return nil, vk.Result(res)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]vk.DescriptorSet, len(sets))
	for i, s := range sets {
		out[i] = vk.DescriptorSet(d.descSets.put(s))
	}
	d.poolSets[pool] = append(d.poolSets[pool], out...)
	return out, vk.Success
}

func (d *Driver) UpdateDescriptorSets(dev vk.Device, writes []vk.WriteDescriptorSet) {
	if len(writes) == 0 {
		return
	}
	ws := make([]gvk.WriteDescriptorSet, len(writes))
	for i, w := range writes {
		ws[i] = gvk.WriteDescriptorSet{
			SType:           gvk.StructureTypeWriteDescriptorSet,
			DstSet:          lookup(d, &d.descSets, uint64(w.DstSet)),
			DstBinding:      w.DstBinding,
			DescriptorCount: 1,
			DescriptorType:  gvk.DescriptorType(w.DescriptorType),
			PBufferInfo: []gvk.DescriptorBufferInfo{{
				Buffer: lookup(d, &d.buffers, uint64(w.Buffer)),
				Offset: gvk.DeviceSize(w.Offset),
				Range:  gvk.DeviceSize(w.Range),
			}},
		}
	}
	gvk.UpdateDescriptorSets(d.device(dev), uint32(len(ws)), ws, 0, nil) //nolint:gosec // one write per buffer
}
