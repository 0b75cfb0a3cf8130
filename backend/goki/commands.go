package goki

import (
	"unsafe"

	gvk "github.com/goki/vulkan"

	"github.com/gogpu/vkrun/internal/vk"
)

func (d *Driver) shaderStage(s vk.ShaderStageInfo) gvk.PipelineShaderStageCreateInfo {
	return gvk.PipelineShaderStageCreateInfo{
		SType:  gvk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  gvk.ShaderStageFlagBits(s.Stage),
		Module: lookup(d, &d.shaderModules, uint64(s.Module)),
		PName:  cstr(s.EntryPoint),
	}
}

func (d *Driver) CreateGraphicsPipeline(dev vk.Device, cache vk.PipelineCache, info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, vk.Result) {
	stages := make([]gvk.PipelineShaderStageCreateInfo, len(info.Stages))
	for i, s := range info.Stages {
		stages[i] = d.shaderStage(s)
	}

	bindings := make([]gvk.VertexInputBindingDescription, len(info.VertexInput.Bindings))
	for i, b := range info.VertexInput.Bindings {
		bindings[i] = gvk.VertexInputBindingDescription{
			Binding:   b.Binding,
			Stride:    b.Stride,
			InputRate: gvk.VertexInputRate(b.InputRate),
		}
	}
	attrs := make([]gvk.VertexInputAttributeDescription, len(info.VertexInput.Attributes))
	for i, a := range info.VertexInput.Attributes {
		attrs[i] = gvk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  a.Binding,
			Format:   gvk.Format(a.Format),
			Offset:   a.Offset,
		}
	}

	viewports := make([]gvk.Viewport, len(info.Viewport.Viewports))
	for i, v := range info.Viewport.Viewports {
		viewports[i] = gvk.Viewport{X: v.X, Y: v.Y, Width: v.Width, Height: v.Height, MinDepth: v.MinDepth, MaxDepth: v.MaxDepth}
	}
	scissors := make([]gvk.Rect2D, len(info.Viewport.Scissors))
	for i, s := range info.Viewport.Scissors {
		scissors[i] = rect2D(s)
	}

	blends := make([]gvk.PipelineColorBlendAttachmentState, len(info.ColorBlend.Attachments))
	for i, a := range info.ColorBlend.Attachments {
		blends[i] = gvk.PipelineColorBlendAttachmentState{
			BlendEnable:         bool32(a.BlendEnable),
			SrcColorBlendFactor: gvk.BlendFactor(a.SrcColorBlendFactor),
			DstColorBlendFactor: gvk.BlendFactor(a.DstColorBlendFactor),
			ColorBlendOp:        gvk.BlendOp(a.ColorBlendOp),
			SrcAlphaBlendFactor: gvk.BlendFactor(a.SrcAlphaBlendFactor),
			DstAlphaBlendFactor: gvk.BlendFactor(a.DstAlphaBlendFactor),
			AlphaBlendOp:        gvk.BlendOp(a.AlphaBlendOp),
			ColorWriteMask:      gvk.ColorComponentFlags(a.ColorWriteMask),
		}
	}

	r := info.Rasterization
	ci := gvk.GraphicsPipelineCreateInfo{
		SType:      gvk.StructureTypeGraphicsPipelineCreateInfo,
		Flags:      gvk.PipelineCreateFlags(info.Flags),
		StageCount: uint32(len(stages)), //nolint:gosec // at most five stages
		PStages:    stages,
		PVertexInputState: &gvk.PipelineVertexInputStateCreateInfo{
			SType:                           gvk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   uint32(len(bindings)), //nolint:gosec // one binding
			PVertexBindingDescriptions:      bindings,
			VertexAttributeDescriptionCount: uint32(len(attrs)), //nolint:gosec // few attributes
			PVertexAttributeDescriptions:    attrs,
		},
		PInputAssemblyState: &gvk.PipelineInputAssemblyStateCreateInfo{
			SType:                  gvk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology:               gvk.PrimitiveTopology(info.InputAssembly.Topology),
			PrimitiveRestartEnable: bool32(info.InputAssembly.PrimitiveRestartEnable),
		},
		PViewportState: &gvk.PipelineViewportStateCreateInfo{
			SType:         gvk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: uint32(len(viewports)), //nolint:gosec // one viewport
			PViewports:    viewports,
			ScissorCount:  uint32(len(scissors)), //nolint:gosec // one scissor
			PScissors:     scissors,
		},
		PRasterizationState: &gvk.PipelineRasterizationStateCreateInfo{
			SType:                   gvk.StructureTypePipelineRasterizationStateCreateInfo,
			DepthClampEnable:        bool32(r.DepthClampEnable),
			RasterizerDiscardEnable: bool32(r.RasterizerDiscardEnable),
			PolygonMode:             gvk.PolygonMode(r.PolygonMode),
			CullMode:                gvk.CullModeFlags(r.CullMode),
			FrontFace:               gvk.FrontFace(r.FrontFace),
			DepthBiasEnable:         bool32(r.DepthBiasEnable),
			DepthBiasConstantFactor: r.DepthBiasConstantFactor,
			DepthBiasClamp:          r.DepthBiasClamp,
			DepthBiasSlopeFactor:    r.DepthBiasSlopeFactor,
			LineWidth:               r.LineWidth,
		},
		PMultisampleState: &gvk.PipelineMultisampleStateCreateInfo{
			SType:                gvk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: sampleCount(info.Multisample.RasterizationSamples),
		},
		PColorBlendState: &gvk.PipelineColorBlendStateCreateInfo{
			SType:           gvk.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOpEnable:   bool32(info.ColorBlend.LogicOpEnable),
			LogicOp:         gvk.LogicOp(info.ColorBlend.LogicOp),
			AttachmentCount: uint32(len(blends)), //nolint:gosec // one color attachment
			PAttachments:    blends,
			BlendConstants:  info.ColorBlend.BlendConstants,
		},
		Layout:             lookup(d, &d.layouts, uint64(info.Layout)),
		RenderPass:         lookup(d, &d.renderPasses, uint64(info.RenderPass)),
		Subpass:            info.Subpass,
		BasePipelineHandle: lookup(d, &d.pipelines, uint64(info.BasePipeline)),
		BasePipelineIndex:  -1,
	}
	if t := info.Tessellation; t != nil {
		ci.PTessellationState = &gvk.PipelineTessellationStateCreateInfo{
			SType:              gvk.StructureTypePipelineTessellationStateCreateInfo,
			PatchControlPoints: t.PatchControlPoints,
		}
	}
	if ds := info.DepthStencil; ds != nil {
		ci.PDepthStencilState = &gvk.PipelineDepthStencilStateCreateInfo{
			SType:                 gvk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:       bool32(ds.DepthTestEnable),
			DepthWriteEnable:      bool32(ds.DepthWriteEnable),
			DepthCompareOp:        gvk.CompareOp(ds.DepthCompareOp),
			DepthBoundsTestEnable: bool32(ds.DepthBoundsTestEnable),
			StencilTestEnable:     bool32(ds.StencilTestEnable),
			Front:                 stencilOpState(ds.Front),
			Back:                  stencilOpState(ds.Back),
			MinDepthBounds:        ds.MinDepthBounds,
			MaxDepthBounds:        ds.MaxDepthBounds,
		}
	}

	out := make([]gvk.Pipeline, 1)
	c := lookup(d, &d.caches, uint64(cache))
	if res := gvk.CreateGraphicsPipelines(d.device(dev), c, 1, []gvk.GraphicsPipelineCreateInfo{ci}, nil, out); res != gvk.Success {
		return 0, vk.Result(res)
	}
	return vk.Pipeline(store(d, &d.pipelines, out[0])), vk.Success
}

func (d *Driver) CreateComputePipeline(dev vk.Device, cache vk.PipelineCache, info *vk.ComputePipelineCreateInfo) (vk.Pipeline, vk.Result) {
	ci := gvk.ComputePipelineCreateInfo{
		SType:             gvk.StructureTypeComputePipelineCreateInfo,
		Stage:             d.shaderStage(info.Stage),
		Layout:            lookup(d, &d.layouts, uint64(info.Layout)),
		BasePipelineIndex: -1,
	}
	out := make([]gvk.Pipeline, 1)
	c := lookup(d, &d.caches, uint64(cache))
	if res := gvk.CreateComputePipelines(d.device(dev), c, 1, []gvk.ComputePipelineCreateInfo{ci}, nil, out); res != gvk.Success {
		return 0, vk.Result(res)
	}
	return vk.Pipeline(store(d, &d.pipelines, out[0])), vk.Success
}

func (d *Driver) commandBuffer(cb vk.CommandBuffer) gvk.CommandBuffer {
	return lookup(d, &d.commandBuffers, uint64(cb))
}

func (d *Driver) BeginCommandBuffer(cb vk.CommandBuffer) vk.Result {
	bi := &gvk.CommandBufferBeginInfo{
		SType: gvk.StructureTypeCommandBufferBeginInfo,
		Flags: gvk.CommandBufferUsageFlags(gvk.CommandBufferUsageOneTimeSubmitBit),
	}
	return vk.Result(gvk.BeginCommandBuffer(d.commandBuffer(cb), bi))
}

func (d *Driver) EndCommandBuffer(cb vk.CommandBuffer) vk.Result {
	return vk.Result(gvk.EndCommandBuffer(d.commandBuffer(cb)))
}

func (d *Driver) CmdBeginRenderPass(cb vk.CommandBuffer, info *vk.RenderPassBeginInfo) {
	bi := &gvk.RenderPassBeginInfo{
		SType:       gvk.StructureTypeRenderPassBeginInfo,
		RenderPass:  lookup(d, &d.renderPasses, uint64(info.RenderPass)),
		Framebuffer: lookup(d, &d.framebuffers, uint64(info.Framebuffer)),
		RenderArea:  rect2D(info.RenderArea),
	}
	gvk.CmdBeginRenderPass(d.commandBuffer(cb), bi, gvk.SubpassContentsInline)
}

func (d *Driver) CmdEndRenderPass(cb vk.CommandBuffer) {
	gvk.CmdEndRenderPass(d.commandBuffer(cb))
}

func (d *Driver) CmdBindPipeline(cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline) {
	gvk.CmdBindPipeline(d.commandBuffer(cb), gvk.PipelineBindPoint(bindPoint), lookup(d, &d.pipelines, uint64(pipeline)))
}

func (d *Driver) CmdBindVertexBuffers(cb vk.CommandBuffer, firstBinding uint32, buffers []vk.Buffer, offsets []vk.DeviceSize) {
	bs := make([]gvk.Buffer, len(buffers))
	offs := make([]gvk.DeviceSize, len(offsets))
	for i, b := range buffers {
		bs[i] = lookup(d, &d.buffers, uint64(b))
	}
	for i, o := range offsets {
		offs[i] = gvk.DeviceSize(o)
	}
	gvk.CmdBindVertexBuffers(d.commandBuffer(cb), firstBinding, uint32(len(bs)), bs, offs) //nolint:gosec // one vertex buffer
}

func (d *Driver) CmdBindDescriptorSets(cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet) {
	ss := make([]gvk.DescriptorSet, len(sets))
	for i, s := range sets {
		ss[i] = lookup(d, &d.descSets, uint64(s))
	}
	gvk.CmdBindDescriptorSets(d.commandBuffer(cb), gvk.PipelineBindPoint(bindPoint),
		lookup(d, &d.layouts, uint64(layout)), firstSet, uint32(len(ss)), ss, 0, nil) //nolint:gosec // few sets
}

func (d *Driver) CmdPushConstants(cb vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset uint32, data []byte) {
	if len(data) == 0 {
		return
	}
	gvk.CmdPushConstants(d.commandBuffer(cb), lookup(d, &d.layouts, uint64(layout)),
		gvk.ShaderStageFlags(stages), offset, uint32(len(data)), unsafe.Pointer(&data[0])) //nolint:gosec // bounded by maxPushConstantsSize
}

func (d *Driver) CmdDraw(cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	gvk.CmdDraw(d.commandBuffer(cb), vertexCount, instanceCount, firstVertex, firstInstance)
}

func (d *Driver) CmdBindIndexBuffer(cb vk.CommandBuffer, buffer vk.Buffer, offset vk.DeviceSize, indexType vk.IndexType) {
	gvk.CmdBindIndexBuffer(d.commandBuffer(cb), lookup(d, &d.buffers, uint64(buffer)), gvk.DeviceSize(offset), gvk.IndexType(indexType))
}

func (d *Driver) CmdDrawIndexed(cb vk.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	gvk.CmdDrawIndexed(d.commandBuffer(cb), indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

func (d *Driver) CmdDispatch(cb vk.CommandBuffer, x, y, z uint32) {
	gvk.CmdDispatch(d.commandBuffer(cb), x, y, z)
}

func (d *Driver) CmdClearAttachments(cb vk.CommandBuffer, attachments []vk.ClearAttachment, rects []vk.Rect2D) {
	as := make([]gvk.ClearAttachment, len(attachments))
	for i, a := range attachments {
		value := gvk.NewClearValue(a.Color[:])
		if a.AspectMask&vk.ImageAspectColor == 0 {
			value = gvk.NewClearDepthStencil(a.Depth, a.Stencil)
		}
		as[i] = gvk.ClearAttachment{
			AspectMask:      gvk.ImageAspectFlags(a.AspectMask),
			ColorAttachment: a.ColorAttachment,
			ClearValue:      value,
		}
	}
	rs := make([]gvk.ClearRect, len(rects))
	for i, r := range rects {
		rs[i] = gvk.ClearRect{Rect: rect2D(r), LayerCount: 1}
	}
	gvk.CmdClearAttachments(d.commandBuffer(cb), uint32(len(as)), as, uint32(len(rs)), rs) //nolint:gosec // two attachments
}

func (d *Driver) CmdPipelineBarrier(cb vk.CommandBuffer, barrier *vk.PipelineBarrier) {
	mems := make([]gvk.MemoryBarrier, len(barrier.MemoryBarriers))
	for i, m := range barrier.MemoryBarriers {
		mems[i] = gvk.MemoryBarrier{
			SType:         gvk.StructureTypeMemoryBarrier,
			SrcAccessMask: gvk.AccessFlags(m.SrcAccessMask),
			DstAccessMask: gvk.AccessFlags(m.DstAccessMask),
		}
	}
	imgs := make([]gvk.ImageMemoryBarrier, len(barrier.ImageBarriers))
	for i, b := range barrier.ImageBarriers {
		imgs[i] = gvk.ImageMemoryBarrier{
			SType:               gvk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       gvk.AccessFlags(b.SrcAccessMask),
			DstAccessMask:       gvk.AccessFlags(b.DstAccessMask),
			OldLayout:           gvk.ImageLayout(b.OldLayout),
			NewLayout:           gvk.ImageLayout(b.NewLayout),
			SrcQueueFamilyIndex: gvk.QueueFamilyIgnored,
			DstQueueFamilyIndex: gvk.QueueFamilyIgnored,
			Image:               lookup(d, &d.images, uint64(b.Image)),
			SubresourceRange:    subresourceRange(b.AspectMask),
		}
	}
	gvk.CmdPipelineBarrier(d.commandBuffer(cb),
		gvk.PipelineStageFlags(barrier.SrcStageMask), gvk.PipelineStageFlags(barrier.DstStageMask), 0,
		uint32(len(mems)), mems, 0, nil, uint32(len(imgs)), imgs) //nolint:gosec // few barriers
}

func (d *Driver) CmdCopyImageToBuffer(cb vk.CommandBuffer, image vk.Image, layout vk.ImageLayout, buffer vk.Buffer, regions []vk.BufferImageCopy) {
	rs := make([]gvk.BufferImageCopy, len(regions))
	for i, r := range regions {
		rs[i] = gvk.BufferImageCopy{
			BufferOffset:    gvk.DeviceSize(r.BufferOffset),
			BufferRowLength: r.BufferRowLength,
			ImageSubresource: gvk.ImageSubresourceLayers{
				AspectMask: gvk.ImageAspectFlags(r.AspectMask),
				LayerCount: 1,
			},
			ImageExtent: gvk.Extent3D{Width: r.Width, Height: r.Height, Depth: 1},
		}
	}
	gvk.CmdCopyImageToBuffer(d.commandBuffer(cb), lookup(d, &d.images, uint64(image)), gvk.ImageLayout(layout),
		lookup(d, &d.buffers, uint64(buffer)), uint32(len(rs)), rs) //nolint:gosec // one region
}

func (d *Driver) QueueSubmit(queue vk.Queue, cbs []vk.CommandBuffer, fence vk.Fence) vk.Result {
	handles := make([]gvk.CommandBuffer, len(cbs))
	for i, cb := range cbs {
		handles[i] = d.commandBuffer(cb)
	}
	submit := gvk.SubmitInfo{
		SType:              gvk.StructureTypeSubmitInfo,
		CommandBufferCount: uint32(len(handles)), //nolint:gosec // one command buffer
		PCommandBuffers:    handles,
	}
	q := lookup(d, &d.queues, uint64(queue))
	f := lookup(d, &d.fences, uint64(fence))
	return vk.Result(gvk.QueueSubmit(q, 1, []gvk.SubmitInfo{submit}, f))
}
