package fakevk

import (
	"github.com/gogpu/vkrun/internal/vk"
)

// record appends op to cb. Callers hold d.mu.
func (d *Driver) record(fn string, cb vk.CommandBuffer, op func()) *recording {
	d.call(fn)
	rec, ok := d.cbs[cb]
	if !ok {
		d.errs = append(d.errs, fn+": invalid command buffer")
		return nil
	}
	if !rec.open {
		d.errs = append(d.errs, fn+": command buffer is not recording")
		return rec
	}
	if op != nil {
		rec.cmds = append(rec.cmds, op)
	}
	return rec
}

func (d *Driver) BeginCommandBuffer(cb vk.CommandBuffer) vk.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r := d.call("BeginCommandBuffer"); r != vk.Success {
		return r
	}
	rec, ok := d.cbs[cb]
	if !ok {
		return vk.ErrorDeviceLost
	}
	*rec = recording{open: true}
	return vk.Success
}

func (d *Driver) EndCommandBuffer(cb vk.CommandBuffer) vk.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r := d.call("EndCommandBuffer"); r != vk.Success {
		return r
	}
	rec, ok := d.cbs[cb]
	if !ok || !rec.open {
		return vk.ErrorDeviceLost
	}
	rec.open = false
	return vk.Success
}

func (d *Driver) CmdBeginRenderPass(cb vk.CommandBuffer, info *vk.RenderPassBeginInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.check("RenderPass", uint64(info.RenderPass), "CmdBeginRenderPass")
	if rec := d.record("CmdBeginRenderPass", cb, nil); rec != nil {
		rec.fb = info.Framebuffer
	}
}

func (d *Driver) CmdEndRenderPass(cb vk.CommandBuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if rec := d.record("CmdEndRenderPass", cb, nil); rec != nil {
		rec.fb = 0
	}
}

func (d *Driver) CmdBindPipeline(cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.check("Pipeline", uint64(pipeline), "CmdBindPipeline")
	d.record("CmdBindPipeline", cb, nil)
}

func (d *Driver) CmdBindVertexBuffers(cb vk.CommandBuffer, firstBinding uint32, buffers []vk.Buffer, offsets []vk.DeviceSize) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CmdBindVertexBuffers", cb, nil)
}

func (d *Driver) CmdBindDescriptorSets(cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CmdBindDescriptorSets", cb, nil)
}

func (d *Driver) CmdPushConstants(cb vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset uint32, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CmdPushConstants", cb, nil)
}

func (d *Driver) CmdBindIndexBuffer(cb vk.CommandBuffer, buffer vk.Buffer, offset vk.DeviceSize, indexType vk.IndexType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.check("Buffer", uint64(buffer), "CmdBindIndexBuffer")
	if rec := d.record("CmdBindIndexBuffer", cb, nil); rec != nil {
		rec.index = buffer
	}
}

func (d *Driver) CmdDraw(cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CmdDraw", cb, nil)
	d.draws = append(d.draws, Draw{Count: vertexCount, Instances: instanceCount, First: firstVertex, FirstInstance: firstInstance})
}

func (d *Driver) CmdDrawIndexed(cb vk.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec := d.record("CmdDrawIndexed", cb, nil)
	if rec == nil {
		return
	}
	if rec.index == 0 {
		d.errs = append(d.errs, "CmdDrawIndexed: no index buffer bound")
	}
	d.draws = append(d.draws, Draw{
		Indexed:       true,
		Count:         indexCount,
		Instances:     instanceCount,
		First:         firstIndex,
		VertexOffset:  vertexOffset,
		FirstInstance: firstInstance,
		IndexBuffer:   rec.index,
	})
}

func (d *Driver) CmdDispatch(cb vk.CommandBuffer, x, y, z uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CmdDispatch", cb, nil)
}

func (d *Driver) CmdClearAttachments(cb vk.CommandBuffer, attachments []vk.ClearAttachment, rects []vk.Rect2D) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.cbs[cb]
	if !ok {
		d.record("CmdClearAttachments", cb, nil)
		return
	}
	fb := rec.fb
	if fb == 0 {
		d.errs = append(d.errs, "CmdClearAttachments: outside a render pass")
	}
	atts := append([]vk.ClearAttachment(nil), attachments...)
	rs := append([]vk.Rect2D(nil), rects...)
	d.record("CmdClearAttachments", cb, func() {
		for _, a := range atts {
			if a.AspectMask&vk.ImageAspectColor == 0 {
				continue
			}
			views := d.fbs[fb]
			if int(a.ColorAttachment) >= len(views) {
				continue
			}
			im := d.images[d.views[views[a.ColorAttachment]]]
			if im == nil {
				continue
			}
			color := [4]float64{float64(a.Color[0]), float64(a.Color[1]), float64(a.Color[2]), float64(a.Color[3])}
			texel, ok := vk.EncodeColor(im.info.Format, color)
			if !ok {
				continue
			}
			for _, r := range rs {
				fillRect(im, r, texel)
			}
		}
	})
}

func fillRect(im *image, r vk.Rect2D, texel []byte) {
	w, h := int(im.info.Width), int(im.info.Height)
	size := len(texel)
	for y := int(r.Y); y < int(r.Y)+int(r.Height) && y < h; y++ {
		for x := int(r.X); x < int(r.X)+int(r.Width) && x < w; x++ {
			if x < 0 || y < 0 {
				continue
			}
			copy(im.data[(y*w+x)*size:], texel)
		}
	}
}

func (d *Driver) CmdPipelineBarrier(cb vk.CommandBuffer, barrier *vk.PipelineBarrier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CmdPipelineBarrier", cb, nil)
}

func (d *Driver) CmdCopyImageToBuffer(cb vk.CommandBuffer, img vk.Image, layout vk.ImageLayout, buf vk.Buffer, regions []vk.BufferImageCopy) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if layout != vk.ImageLayoutTransferSrcOptimal && layout != vk.ImageLayoutGeneral {
		d.errs = append(d.errs, "CmdCopyImageToBuffer: image not in a transfer source layout")
	}
	regs := append([]vk.BufferImageCopy(nil), regions...)
	d.record("CmdCopyImageToBuffer", cb, func() {
		im, b := d.images[img], d.buffers[buf]
		if im == nil || b == nil {
			d.errs = append(d.errs, "CmdCopyImageToBuffer: invalid image or buffer")
			return
		}
		mem := d.memories[b.memory]
		if mem == nil {
			d.errs = append(d.errs, "CmdCopyImageToBuffer: buffer has no memory")
			return
		}
		size := im.info.Format.Size()
		for _, r := range regs {
			rowLen := int(r.BufferRowLength)
			if rowLen == 0 {
				rowLen = int(r.Width)
			}
			for y := 0; y < int(r.Height); y++ {
				src := im.data[y*int(im.info.Width)*size : (y*int(im.info.Width)+int(r.Width))*size]
				dst := int(b.offset) + int(r.BufferOffset) + y*rowLen*size
				copy(mem.data[dst:], src)
			}
		}
	})
}

func (d *Driver) QueueSubmit(queue vk.Queue, cbs []vk.CommandBuffer, fence vk.Fence) vk.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r := d.call("QueueSubmit"); r != vk.Success {
		return r
	}
	for _, cb := range cbs {
		rec, ok := d.cbs[cb]
		if !ok || rec.open {
			d.errs = append(d.errs, "QueueSubmit: command buffer not executable")
			continue
		}
		for _, op := range rec.cmds {
			op()
		}
		rec.cmds = nil
	}
	return vk.Success
}
