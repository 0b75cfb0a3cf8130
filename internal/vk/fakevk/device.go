package fakevk

import (
	"github.com/gogpu/vkrun/internal/vk"
)

func (d *Driver) DestroyDevice(device vk.Device) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("DestroyDevice")
	if !d.destroy("Device", uint64(device)) {
		return
	}
	for h, o := range d.objects {
		if o.device == device {
			d.errs = append(d.errs, "DestroyDevice: "+o.kind+" still alive")
			delete(d.objects, h)
		}
	}
	delete(d.devices, device)
}

func (d *Driver) GetDeviceQueue(device vk.Device, family, index uint32) vk.Queue {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("GetDeviceQueue")
	d.check("Device", uint64(device), "GetDeviceQueue")
	// Queues are owned by the device and never destroyed on their own.
	d.next++
	return vk.Queue(d.next)
}

func (d *Driver) DeviceWaitIdle(device vk.Device) vk.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.call("DeviceWaitIdle")
}

// simple covers the create calls that only allocate a handle.
func (d *Driver) simple(fn, kind string, device vk.Device) (uint64, vk.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r := d.call(fn); r != vk.Success {
		return 0, r
	}
	if !d.check("Device", uint64(device), fn) {
		return 0, vk.ErrorDeviceLost
	}
	return d.create(kind, device), vk.Success
}

func (d *Driver) release(fn, kind string, h uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call(fn)
	d.destroy(kind, h)
}

func (d *Driver) CreateCommandPool(device vk.Device, queueFamily uint32) (vk.CommandPool, vk.Result) {
	h, r := d.simple("CreateCommandPool", "CommandPool", device)
	return vk.CommandPool(h), r
}

func (d *Driver) DestroyCommandPool(device vk.Device, pool vk.CommandPool) {
	d.release("DestroyCommandPool", "CommandPool", uint64(pool))
}

func (d *Driver) AllocateCommandBuffer(device vk.Device, pool vk.CommandPool) (vk.CommandBuffer, vk.Result) {
	h, r := d.simple("AllocateCommandBuffer", "CommandBuffer", device)
	if r == vk.Success {
		d.mu.Lock()
		d.cbs[vk.CommandBuffer(h)] = &recording{}
		d.mu.Unlock()
	}
	return vk.CommandBuffer(h), r
}

func (d *Driver) FreeCommandBuffer(device vk.Device, pool vk.CommandPool, cb vk.CommandBuffer) {
	d.release("FreeCommandBuffer", "CommandBuffer", uint64(cb))
	d.mu.Lock()
	delete(d.cbs, cb)
	d.mu.Unlock()
}

func (d *Driver) CreateFence(device vk.Device) (vk.Fence, vk.Result) {
	h, r := d.simple("CreateFence", "Fence", device)
	return vk.Fence(h), r
}

func (d *Driver) DestroyFence(device vk.Device, fence vk.Fence) {
	d.release("DestroyFence", "Fence", uint64(fence))
}

func (d *Driver) ResetFence(device vk.Device, fence vk.Fence) vk.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.call("ResetFence")
}

func (d *Driver) WaitForFence(device vk.Device, fence vk.Fence, timeout uint64) vk.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.call("WaitForFence")
}

func (d *Driver) requirements(device vk.Device, size vk.DeviceSize) vk.MemoryRequirements {
	cfg := d.deviceConfig(device)
	bits := cfg.MemoryTypeBits
	if bits == 0 {
		bits = 1<<len(cfg.Memory.Types) - 1
	}
	return vk.MemoryRequirements{Size: (size + 255) &^ 255, Alignment: 256, MemoryTypeBits: bits}
}

func (d *Driver) CreateBuffer(device vk.Device, info *vk.BufferCreateInfo) (vk.Buffer, vk.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r := d.call("CreateBuffer"); r != vk.Success {
		return 0, r
	}
	if info.Size == 0 || info.Usage == 0 {
		return 0, vk.ErrorInitializationFailed
	}
	b := vk.Buffer(d.create("Buffer", device))
	d.buffers[b] = &buffer{size: info.Size}
	return b, vk.Success
}

func (d *Driver) DestroyBuffer(device vk.Device, buf vk.Buffer) {
	d.release("DestroyBuffer", "Buffer", uint64(buf))
	d.mu.Lock()
	delete(d.buffers, buf)
	d.mu.Unlock()
}

func (d *Driver) GetBufferMemoryRequirements(device vk.Device, buf vk.Buffer) vk.MemoryRequirements {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("GetBufferMemoryRequirements")
	b, ok := d.buffers[buf]
	if !ok {
		d.errs = append(d.errs, "GetBufferMemoryRequirements: invalid buffer")
		return vk.MemoryRequirements{}
	}
	return d.requirements(device, b.size)
}

func (d *Driver) BindBufferMemory(device vk.Device, buf vk.Buffer, mem vk.DeviceMemory, offset vk.DeviceSize) vk.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r := d.call("BindBufferMemory"); r != vk.Success {
		return r
	}
	b, ok := d.buffers[buf]
	if !ok || !d.check("DeviceMemory", uint64(mem), "BindBufferMemory") {
		return vk.ErrorInitializationFailed
	}
	b.memory, b.offset = mem, offset
	return vk.Success
}

func (d *Driver) CreateImage(device vk.Device, info *vk.ImageCreateInfo) (vk.Image, vk.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r := d.call("CreateImage"); r != vk.Success {
		return 0, r
	}
	if info.Width == 0 || info.Height == 0 {
		return 0, vk.ErrorInitializationFailed
	}
	img := vk.Image(d.create("Image", device))
	d.images[img] = &image{
		info: *info,
		data: make([]byte, int(info.Width)*int(info.Height)*info.Format.Size()),
	}
	return img, vk.Success
}

func (d *Driver) DestroyImage(device vk.Device, img vk.Image) {
	d.release("DestroyImage", "Image", uint64(img))
	d.mu.Lock()
	delete(d.images, img)
	d.mu.Unlock()
}

func (d *Driver) GetImageMemoryRequirements(device vk.Device, img vk.Image) vk.MemoryRequirements {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("GetImageMemoryRequirements")
	im, ok := d.images[img]
	if !ok {
		d.errs = append(d.errs, "GetImageMemoryRequirements: invalid image")
		return vk.MemoryRequirements{}
	}
	return d.requirements(device, vk.DeviceSize(len(im.data)))
}

func (d *Driver) BindImageMemory(device vk.Device, img vk.Image, mem vk.DeviceMemory, offset vk.DeviceSize) vk.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r := d.call("BindImageMemory"); r != vk.Success {
		return r
	}
	im, ok := d.images[img]
	if !ok || !d.check("DeviceMemory", uint64(mem), "BindImageMemory") {
		return vk.ErrorInitializationFailed
	}
	im.memory = mem
	return vk.Success
}

func (d *Driver) CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo) (vk.ImageView, vk.Result) {
	h, r := d.simple("CreateImageView", "ImageView", device)
	if r == vk.Success {
		d.mu.Lock()
		d.views[vk.ImageView(h)] = info.Image
		d.mu.Unlock()
	}
	return vk.ImageView(h), r
}

func (d *Driver) DestroyImageView(device vk.Device, view vk.ImageView) {
	d.release("DestroyImageView", "ImageView", uint64(view))
}

func (d *Driver) AllocateMemory(device vk.Device, info *vk.MemoryAllocateInfo) (vk.DeviceMemory, vk.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r := d.call("AllocateMemory"); r != vk.Success {
		return 0, r
	}
	if int(info.MemoryTypeIndex) >= len(d.deviceConfig(device).Memory.Types) {
		d.errs = append(d.errs, "AllocateMemory: memory type index out of range")
		return 0, vk.ErrorOutOfDeviceMemory
	}
	m := vk.DeviceMemory(d.create("DeviceMemory", device))
	d.memories[m] = &memory{data: make([]byte, info.Size), typeIndex: info.MemoryTypeIndex}
	return m, vk.Success
}

func (d *Driver) FreeMemory(device vk.Device, mem vk.DeviceMemory) {
	d.release("FreeMemory", "DeviceMemory", uint64(mem))
	d.mu.Lock()
	delete(d.memories, mem)
	d.mu.Unlock()
}

func (d *Driver) MapMemory(device vk.Device, mem vk.DeviceMemory, offset, size vk.DeviceSize) ([]byte, vk.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r := d.call("MapMemory"); r != vk.Success {
		return nil, r
	}
	m, ok := d.memories[mem]
	if !ok {
		d.errs = append(d.errs, "MapMemory: invalid memory")
		return nil, vk.ErrorMemoryMapFailed
	}
	flags := d.deviceConfig(device).Memory.Types[m.typeIndex].PropertyFlags
	if !flags.Has(vk.MemoryPropertyHostVisible) {
		return nil, vk.ErrorMemoryMapFailed
	}
	if m.mapped {
		d.errs = append(d.errs, "MapMemory: memory already mapped")
		return nil, vk.ErrorMemoryMapFailed
	}
	end := vk.DeviceSize(len(m.data))
	if size != vk.WholeSize {
		end = offset + size
	}
	m.mapped = true
	return m.data[offset:end:end], vk.Success
}

func (d *Driver) UnmapMemory(device vk.Device, mem vk.DeviceMemory) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("UnmapMemory")
	m, ok := d.memories[mem]
	if !ok || !m.mapped {
		d.errs = append(d.errs, "UnmapMemory: memory not mapped")
		return
	}
	m.mapped = false
}

func (d *Driver) FlushMappedMemoryRanges(device vk.Device, ranges []vk.MappedMemoryRange) vk.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r := d.call("FlushMappedMemoryRanges"); r != vk.Success {
		return r
	}
	d.flushes = append(d.flushes, ranges...)
	return vk.Success
}

func (d *Driver) InvalidateMappedMemoryRanges(device vk.Device, ranges []vk.MappedMemoryRange) vk.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r := d.call("InvalidateMappedMemoryRanges"); r != vk.Success {
		return r
	}
	d.invalidates = append(d.invalidates, ranges...)
	return vk.Success
}

func (d *Driver) CreateRenderPass(device vk.Device, info *vk.RenderPassCreateInfo) (vk.RenderPass, vk.Result) {
	h, r := d.simple("CreateRenderPass", "RenderPass", device)
	return vk.RenderPass(h), r
}

func (d *Driver) DestroyRenderPass(device vk.Device, pass vk.RenderPass) {
	d.release("DestroyRenderPass", "RenderPass", uint64(pass))
}

func (d *Driver) CreateFramebuffer(device vk.Device, info *vk.FramebufferCreateInfo) (vk.Framebuffer, vk.Result) {
	h, r := d.simple("CreateFramebuffer", "Framebuffer", device)
	if r == vk.Success {
		d.mu.Lock()
		d.fbs[vk.Framebuffer(h)] = append([]vk.ImageView(nil), info.Attachments...)
		d.mu.Unlock()
	}
	return vk.Framebuffer(h), r
}

func (d *Driver) DestroyFramebuffer(device vk.Device, fb vk.Framebuffer) {
	d.release("DestroyFramebuffer", "Framebuffer", uint64(fb))
}

func (d *Driver) CreateShaderModule(device vk.Device, code []byte) (vk.ShaderModule, vk.Result) {
	if len(code) == 0 || len(code)%4 != 0 {
		return 0, vk.ErrorInitializationFailed
	}
	h, r := d.simple("CreateShaderModule", "ShaderModule", device)
	return vk.ShaderModule(h), r
}

func (d *Driver) DestroyShaderModule(device vk.Device, module vk.ShaderModule) {
	d.release("DestroyShaderModule", "ShaderModule", uint64(module))
}

func (d *Driver) CreateDescriptorSetLayout(device vk.Device, bindings []vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, vk.Result) {
	h, r := d.simple("CreateDescriptorSetLayout", "DescriptorSetLayout", device)
	return vk.DescriptorSetLayout(h), r
}

func (d *Driver) DestroyDescriptorSetLayout(device vk.Device, layout vk.DescriptorSetLayout) {
	d.release("DestroyDescriptorSetLayout", "DescriptorSetLayout", uint64(layout))
}

func (d *Driver) CreatePipelineLayout(device vk.Device, info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, vk.Result) {
	h, r := d.simple("CreatePipelineLayout", "PipelineLayout", device)
	return vk.PipelineLayout(h), r
}

func (d *Driver) DestroyPipelineLayout(device vk.Device, layout vk.PipelineLayout) {
	d.release("DestroyPipelineLayout", "PipelineLayout", uint64(layout))
}

func (d *Driver) CreatePipelineCache(device vk.Device) (vk.PipelineCache, vk.Result) {
	h, r := d.simple("CreatePipelineCache", "PipelineCache", device)
	return vk.PipelineCache(h), r
}

func (d *Driver) DestroyPipelineCache(device vk.Device, cache vk.PipelineCache) {
	d.release("DestroyPipelineCache", "PipelineCache", uint64(cache))
}

func (d *Driver) CreateGraphicsPipeline(device vk.Device, cache vk.PipelineCache, info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, vk.Result) {
	h, r := d.simple("CreateGraphicsPipeline", "Pipeline", device)
	if r != vk.Success {
		return 0, r
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.check("PipelineCache", uint64(cache), "CreateGraphicsPipeline")
	d.check("PipelineLayout", uint64(info.Layout), "CreateGraphicsPipeline")
	d.check("RenderPass", uint64(info.RenderPass), "CreateGraphicsPipeline")
	for _, s := range info.Stages {
		d.check("ShaderModule", uint64(s.Module), "CreateGraphicsPipeline")
	}
	d.graphics = append(d.graphics, *info)
	return vk.Pipeline(h), r
}

func (d *Driver) CreateComputePipeline(device vk.Device, cache vk.PipelineCache, info *vk.ComputePipelineCreateInfo) (vk.Pipeline, vk.Result) {
	h, r := d.simple("CreateComputePipeline", "Pipeline", device)
	if r != vk.Success {
		return 0, r
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.check("PipelineCache", uint64(cache), "CreateComputePipeline")
	d.check("PipelineLayout", uint64(info.Layout), "CreateComputePipeline")
	d.check("ShaderModule", uint64(info.Stage.Module), "CreateComputePipeline")
	d.compute = append(d.compute, *info)
	return vk.Pipeline(h), r
}

func (d *Driver) DestroyPipeline(device vk.Device, pipeline vk.Pipeline) {
	d.release("DestroyPipeline", "Pipeline", uint64(pipeline))
}

func (d *Driver) CreateDescriptorPool(device vk.Device, info *vk.DescriptorPoolCreateInfo) (vk.DescriptorPool, vk.Result) {
	h, r := d.simple("CreateDescriptorPool", "DescriptorPool", device)
	return vk.DescriptorPool(h), r
}

func (d *Driver) DestroyDescriptorPool(device vk.Device, pool vk.DescriptorPool) {
	d.release("DestroyDescriptorPool", "DescriptorPool", uint64(pool))
}

func (d *Driver) AllocateDescriptorSets(device vk.Device, pool vk.DescriptorPool, layouts []vk.DescriptorSetLayout) ([]vk.DescriptorSet, vk.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r := d.call("AllocateDescriptorSets"); r != vk.Success {
		return nil, r
	}
	d.check("DescriptorPool", uint64(pool), "AllocateDescriptorSets")
	// Sets are freed with their pool and are not tracked.
	sets := make([]vk.DescriptorSet, len(layouts))
	for i := range sets {
		d.next++
		sets[i] = vk.DescriptorSet(d.next)
	}
	return sets, vk.Success
}

func (d *Driver) UpdateDescriptorSets(device vk.Device, writes []vk.WriteDescriptorSet) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.call("UpdateDescriptorSets")
	for _, w := range writes {
		d.check("Buffer", uint64(w.Buffer), "UpdateDescriptorSets")
	}
}
