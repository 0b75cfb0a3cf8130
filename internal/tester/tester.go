// Package tester runs the commands of a script against a session target.
//
// Commands are recorded into the context's single command buffer. The
// tester moves between three states: idle, recording and inside a render
// pass. Drawing needs the render pass, dispatch and push constants need a
// recording command buffer, and probes need idle, which submits the
// buffer, waits for the fence and makes device writes visible to the host.
// Leaving a render pass copies the color attachment into the window's
// linear buffer, so pixel probes always see the latest rendering.
package tester

import (
	"errors"
	"math"

	"github.com/gogpu/vkrun/internal/device"
	"github.com/gogpu/vkrun/internal/pipeline"
	"github.com/gogpu/vkrun/internal/script"
	"github.com/gogpu/vkrun/internal/session"
	"github.com/gogpu/vkrun/internal/vk"
	"github.com/gogpu/vkrun/internal/window"
)

type state int

const (
	idle state = iota
	recording
	rendering
)

// Tester holds the per-script objects: the pipeline set, one host-visible
// buffer per declared buffer and the vertex buffers.
type Tester struct {
	ctx    *device.Context
	win    *window.Window
	script *script.Script
	set    *pipeline.Set

	buffers []*hostBuffer
	vertex  *hostBuffer
	index   *hostBuffer
	// rects holds rectangle vertex buffers until the next submit finishes.
	rects []*hostBuffer

	state       state
	firstRender bool
	bound       int
	setsBound   bool
}

// Buffer is the host view of one declared buffer.
type Buffer struct {
	Set     uint32
	Binding uint32
	Data    []byte
}

// New resolves the script's pipelines through the target's cache and
// creates its buffers with their initial data.
func New(tg *session.Target, s *script.Script, shaders pipeline.Shaders) (*Tester, error) {
	set, err := pipeline.NewSet(tg.Cache(), s.SetDesc(shaders))
	if err != nil {
		return nil, err
	}
	t := &Tester{
		ctx:         tg.Context(),
		win:         tg.Window(),
		script:      s,
		set:         set,
		firstRender: true,
		bound:       -1,
	}
	if err := t.createBuffers(); err != nil {
		t.Close()
		return nil, err
	}
	t.writeDescriptors()
	return t, nil
}

func (t *Tester) createBuffers() error {
	for i := range t.script.Buffers {
		b := &t.script.Buffers[i]
		usage := b.VulkanUsage() | vk.BufferUsageUniform
		if b.Type == script.StorageBuffer {
			usage = b.VulkanUsage() | vk.BufferUsageStorage
		}
		hb, err := newHostBuffer(t.ctx, b.Size, usage)
		if err != nil {
			return err
		}
		t.buffers = append(t.buffers, hb)
		if len(b.Data) > 0 {
			hb.write(0, b.Data)
			if err := hb.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Tester) writeDescriptors() {
	sets := t.set.DescriptorSets()
	if len(sets) == 0 {
		return
	}
	writes := make([]vk.WriteDescriptorSet, 0, len(t.buffers))
	for i, hb := range t.buffers {
		b := &t.script.Buffers[i]
		writes = append(writes, vk.WriteDescriptorSet{
			DstSet:         sets[b.Set],
			DstBinding:     b.Binding,
			DescriptorType: b.DescriptorType(),
			Buffer:         hb.buf.Handle(),
			Range:          vk.WholeSize,
		})
	}
	t.ctx.Driver().UpdateDescriptorSets(t.ctx.Device(), writes)
}

// Run executes every command in order. A failing command does not stop
// the run; all failures are returned joined, each as a *CommandError.
func (t *Tester) Run() error {
	var errs []error
	for i := range t.script.Commands {
		c := &t.script.Commands[i]
		if err := t.run(c); err != nil {
			slogger().Debug("vkrun: command failed", "script", t.script.Name, "index", c.Index, "op", c.Op.String(), "err", err)
			errs = append(errs, &CommandError{Index: c.Index, Op: c.Op, Err: err})
		}
	}
	if err := t.goTo(idle); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ColorBuffer returns the linear copy of the color attachment and its row
// stride. It holds the result of the last completed render pass.
func (t *Tester) ColorBuffer() (data []byte, stride int) {
	return t.win.LinearBytes(), t.win.LinearStride()
}

// Buffers returns the host view of every declared buffer, in declaration
// order. The slices are valid until Close.
func (t *Tester) Buffers() []Buffer {
	out := make([]Buffer, len(t.buffers))
	for i, hb := range t.buffers {
		b := &t.script.Buffers[i]
		out[i] = Buffer{Set: b.Set, Binding: b.Binding, Data: hb.Bytes()}
	}
	return out
}

// Close frees the script's buffers and descriptor pool. Pipelines stay in
// the cache.
func (t *Tester) Close() {
	for _, hb := range t.rects {
		hb.close()
	}
	t.rects = nil
	t.vertex.close()
	t.vertex = nil
	t.index.close()
	t.index = nil
	for _, hb := range t.buffers {
		hb.close()
	}
	t.buffers = nil
	t.set.Close()
}

func (t *Tester) goTo(s state) error {
	for t.state < s {
		if err := t.forward(); err != nil {
			return err
		}
	}
	for t.state > s {
		if err := t.backward(); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tester) forward() error {
	switch t.state {
	case idle:
		if res := t.ctx.Driver().BeginCommandBuffer(t.ctx.CommandBuffer()); res != vk.Success {
			return &StepError{Call: "vkBeginCommandBuffer", Result: res}
		}
		t.bound, t.setsBound = -1, false
		t.state = recording
	case recording:
		t.beginRenderPass()
		t.state = rendering
	}
	return nil
}

func (t *Tester) backward() error {
	switch t.state {
	case rendering:
		t.endRenderPass()
		t.state = recording
	case recording:
		// Idle even when the submit fails.
		t.state = idle
		return t.submit()
	}
	return nil
}

func (t *Tester) beginRenderPass() {
	f := t.win.Format()
	t.ctx.Driver().CmdBeginRenderPass(t.ctx.CommandBuffer(), &vk.RenderPassBeginInfo{
		RenderPass:  t.win.RenderPass(t.firstRender),
		Framebuffer: t.win.Framebuffer(),
		RenderArea:  vk.Rect2D{Width: uint32(f.Width), Height: uint32(f.Height)}, //nolint:gosec // window sizes are small
	})
	t.firstRender = false
}

// endRenderPass ends the pass and copies the color attachment into the
// linear buffer, leaving the image ready for the next pass.
func (t *Tester) endRenderPass() {
	drv, cb := t.ctx.Driver(), t.ctx.CommandBuffer()
	f := t.win.Format()
	w, h := uint32(f.Width), uint32(f.Height) //nolint:gosec // window sizes are small
	img := t.win.ColorImage()

	drv.CmdEndRenderPass(cb)
	drv.CmdPipelineBarrier(cb, &vk.PipelineBarrier{
		SrcStageMask: vk.PipelineStageColorAttachmentOutput,
		DstStageMask: vk.PipelineStageTransfer | vk.PipelineStageColorAttachmentOutput,
		ImageBarriers: []vk.ImageMemoryBarrier{{
			SrcAccessMask: vk.AccessColorAttachmentWrite,
			DstAccessMask: vk.AccessTransferRead | vk.AccessColorAttachmentWrite | vk.AccessColorAttachmentRead,
			OldLayout:     vk.ImageLayoutColorAttachmentOptimal,
			NewLayout:     vk.ImageLayoutTransferSrcOptimal,
			Image:         img,
			AspectMask:    vk.ImageAspectColor,
		}},
	})
	drv.CmdCopyImageToBuffer(cb, img, vk.ImageLayoutTransferSrcOptimal, t.win.LinearBuffer(), []vk.BufferImageCopy{{
		BufferRowLength: w,
		AspectMask:      vk.ImageAspectColor,
		Width:           w,
		Height:          h,
	}})
	drv.CmdPipelineBarrier(cb, &vk.PipelineBarrier{
		SrcStageMask: vk.PipelineStageTransfer,
		DstStageMask: vk.PipelineStageColorAttachmentOutput,
		ImageBarriers: []vk.ImageMemoryBarrier{{
			OldLayout:  vk.ImageLayoutTransferSrcOptimal,
			NewLayout:  vk.ImageLayoutColorAttachmentOptimal,
			Image:      img,
			AspectMask: vk.ImageAspectColor,
		}},
	})
	drv.CmdPipelineBarrier(cb, &vk.PipelineBarrier{
		SrcStageMask:   vk.PipelineStageTransfer,
		DstStageMask:   vk.PipelineStageHost,
		MemoryBarriers: []vk.MemoryBarrier{{SrcAccessMask: vk.AccessTransferWrite, DstAccessMask: vk.AccessHostRead}},
	})
}

// submit flushes pending host writes, ends the command buffer, runs it and
// waits for it, then makes device writes visible to the host.
func (t *Tester) submit() error {
	drv, dev, cb := t.ctx.Driver(), t.ctx.Device(), t.ctx.CommandBuffer()

	for _, hb := range t.buffers {
		if err := hb.flush(); err != nil {
			return err
		}
	}
	if t.hasStorage() {
		drv.CmdPipelineBarrier(cb, &vk.PipelineBarrier{
			SrcStageMask:   vk.PipelineStageAllCommands,
			DstStageMask:   vk.PipelineStageHost,
			MemoryBarriers: []vk.MemoryBarrier{{SrcAccessMask: vk.AccessShaderWrite, DstAccessMask: vk.AccessHostRead}},
		})
	}

	if res := drv.EndCommandBuffer(cb); res != vk.Success {
		return &StepError{Call: "vkEndCommandBuffer", Result: res}
	}
	if res := drv.ResetFence(dev, t.ctx.Fence()); res != vk.Success {
		return &StepError{Call: "vkResetFences", Result: res}
	}
	if res := drv.QueueSubmit(t.ctx.Queue(), []vk.CommandBuffer{cb}, t.ctx.Fence()); res != vk.Success {
		return &StepError{Call: "vkQueueSubmit", Result: res}
	}
	if res := drv.WaitForFence(dev, t.ctx.Fence(), math.MaxUint64); res != vk.Success {
		return &StepError{Call: "vkWaitForFences", Result: res}
	}

	for _, hb := range t.rects {
		hb.close()
	}
	t.rects = t.rects[:0]

	if err := t.win.InvalidateLinear(); err != nil {
		return err
	}
	for i, hb := range t.buffers {
		if t.script.Buffers[i].Type != script.StorageBuffer {
			continue
		}
		if err := hb.mapped.Invalidate(); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tester) hasStorage() bool {
	for i := range t.script.Buffers {
		if t.script.Buffers[i].Type == script.StorageBuffer {
			return true
		}
	}
	return false
}

func (t *Tester) bindSets() {
	sets := t.set.DescriptorSets()
	if t.setsBound || len(sets) == 0 {
		return
	}
	drv, cb := t.ctx.Driver(), t.ctx.CommandBuffer()
	layout := t.set.Layout()
	if layout.Stages()&^vk.ShaderStageCompute != 0 {
		drv.CmdBindDescriptorSets(cb, vk.PipelineBindPointGraphics, layout.Handle(), 0, sets)
	}
	if layout.Stages()&vk.ShaderStageCompute != 0 {
		drv.CmdBindDescriptorSets(cb, vk.PipelineBindPointCompute, layout.Handle(), 0, sets)
	}
	t.setsBound = true
}

func (t *Tester) bindPipeline(i int) {
	if t.bound == i {
		return
	}
	point := vk.PipelineBindPointGraphics
	if t.script.Pipelines[i].Kind() == pipeline.Compute {
		point = vk.PipelineBindPointCompute
	}
	t.ctx.Driver().CmdBindPipeline(t.ctx.CommandBuffer(), point, t.set.Pipeline(i))
	t.bound = i
}
