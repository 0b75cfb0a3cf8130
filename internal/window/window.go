package window

import (
	"sync/atomic"

	"github.com/gogpu/vkrun/internal/device"
	"github.com/gogpu/vkrun/internal/resource"
	"github.com/gogpu/vkrun/internal/vk"
)

// Window is an off-screen render target: a color image with an optional
// depth/stencil image, the framebuffer over them, two render passes and a
// host-visible linear buffer the color image is copied into for probing.
//
// A Window holds a reference on its context and is itself reference
// counted, so a pipeline cache or in-flight tester can keep it alive after
// the session manager has moved on to a new one.
type Window struct {
	refs atomic.Int32

	ctx    *device.Context
	format Format

	// renderPasses[0] is used for the first render and does not load the
	// previous contents; renderPasses[1] is used for every later one.
	renderPasses [2]vk.RenderPass

	colorImage  vk.Image
	colorMemory *resource.DeviceMemory
	colorView   vk.ImageView

	depthImage  vk.Image
	depthMemory *resource.DeviceMemory
	depthView   vk.ImageView

	framebuffer vk.Framebuffer

	linearBuffer   *resource.Buffer
	linearMemory   *resource.DeviceMemory
	linearMap      *resource.MappedMemory
	needInvalidate bool
}

// New builds a window of the given format on ctx. An unsupported format
// returns a *FormatError matching ErrIncompatible.
func New(ctx *device.Context, format Format) (*Window, error) {
	if err := checkFormat(ctx, format); err != nil {
		return nil, err
	}

	w := &Window{ctx: ctx.Retain(), format: format}
	w.refs.Store(1)
	if err := w.build(); err != nil {
		w.destroy()
		return nil, err
	}
	device.Logger().Debug("vkrun: window created", "format", format.String())
	return w, nil
}

func checkFormat(ctx *device.Context, format Format) error {
	drv, pd := ctx.Driver(), ctx.PhysicalDevice()

	want := vk.FormatFeatureColorAttachment | vk.FormatFeatureBlitSrc
	if drv.GetPhysicalDeviceFormatProperties(pd, format.Color).OptimalTilingFeatures&want != want {
		return &FormatError{Msg: "Format " + format.Color.String() +
			" is not supported as a color attachment and blit source"}
	}
	if format.HasDepthStencil() {
		want := vk.FormatFeatureDepthStencilAttachment
		if drv.GetPhysicalDeviceFormatProperties(pd, format.DepthStencil).OptimalTilingFeatures&want != want {
			return &FormatError{Msg: "Format " + format.DepthStencil.String() +
				" is not supported as a depth/stencil attachment"}
		}
	}
	return nil
}

func (w *Window) build() error {
	drv, dev := w.ctx.Driver(), w.ctx.Device()
	f := w.format

	for i, first := range []bool{true, false} {
		rp, res := drv.CreateRenderPass(dev, renderPassInfo(f, first))
		if res != vk.Success {
			return &Error{Op: "vkRenderPass", Result: res}
		}
		w.renderPasses[i] = rp
	}

	var err error
	w.colorImage, w.colorMemory, w.colorView, err = w.attachment(f.Color,
		vk.ImageUsageTransferSrc|vk.ImageUsageColorAttachment, vk.ImageAspectColor)
	if err != nil {
		return err
	}

	views := []vk.ImageView{w.colorView}
	if f.HasDepthStencil() {
		aspect := vk.ImageAspectDepth
		if f.DepthStencil.HasStencil() {
			aspect |= vk.ImageAspectStencil
		}
		w.depthImage, w.depthMemory, w.depthView, err = w.attachment(f.DepthStencil,
			vk.ImageUsageDepthStencilAttachment, aspect)
		if err != nil {
			return err
		}
		views = append(views, w.depthView)
	}

	fb, res := drv.CreateFramebuffer(dev, &vk.FramebufferCreateInfo{
		RenderPass:  w.renderPasses[0],
		Attachments: views,
		Width:       uint32(f.Width),
		Height:      uint32(f.Height),
	})
	if res != vk.Success {
		return &Error{Op: "vkFramebuffer", Result: res}
	}
	w.framebuffer = fb

	return w.buildLinear()
}

// attachment creates an optimal-tiling image with device memory and a view.
// Partially created objects are stored on w by the caller only on success,
// so this cleans up after itself.
func (w *Window) attachment(format vk.Format, usage vk.ImageUsageFlags, aspect vk.ImageAspectFlags) (vk.Image, *resource.DeviceMemory, vk.ImageView, error) {
	drv, dev := w.ctx.Driver(), w.ctx.Device()

	img, res := drv.CreateImage(dev, &vk.ImageCreateInfo{
		Format: format,
		Width:  uint32(w.format.Width),
		Height: uint32(w.format.Height),
		Tiling: vk.ImageTilingOptimal,
		Usage:  usage,
	})
	if res != vk.Success {
		return 0, nil, 0, &Error{Op: "vkImage", Result: res}
	}

	mem, err := resource.AllocateForImage(w.ctx, 0, img)
	if err != nil {
		drv.DestroyImage(dev, img)
		return 0, nil, 0, &Error{Op: "image memory", Err: err}
	}

	view, res := drv.CreateImageView(dev, &vk.ImageViewCreateInfo{Image: img, Format: format, Aspect: aspect})
	if res != vk.Success {
		drv.DestroyImage(dev, img)
		mem.Close()
		return 0, nil, 0, &Error{Op: "vkImageView", Result: res}
	}
	return img, mem, view, nil
}

func (w *Window) buildLinear() error {
	size := vk.DeviceSize(w.format.Stride() * w.format.Height)

	buf, err := resource.NewBuffer(w.ctx, size, vk.BufferUsageTransferDst)
	if err != nil {
		return &Error{Op: "linear buffer", Err: err}
	}
	w.linearBuffer = buf

	mem, err := resource.AllocateForBuffer(w.ctx, vk.MemoryPropertyHostVisible, buf)
	if err != nil {
		return &Error{Op: "linear memory", Err: err}
	}
	w.linearMemory = mem

	m, err := resource.Map(w.ctx, mem)
	if err != nil {
		return &Error{Op: "linear memory map", Err: err}
	}
	w.linearMap = m
	w.needInvalidate = !mem.Coherent()
	return nil
}

func renderPassInfo(f Format, first bool) *vk.RenderPassCreateInfo {
	load, colorLayout, depthLayout := vk.AttachmentLoadOpLoad,
		vk.ImageLayoutColorAttachmentOptimal, vk.ImageLayoutDepthStencilAttachmentOptimal
	if first {
		load, colorLayout, depthLayout = vk.AttachmentLoadOpDontCare,
			vk.ImageLayoutUndefined, vk.ImageLayoutUndefined
	}

	info := &vk.RenderPassCreateInfo{
		Attachments: []vk.AttachmentDescription{{
			Format:         f.Color,
			LoadOp:         load,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  colorLayout,
			FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
		}},
	}
	if !f.HasDepthStencil() {
		return info
	}

	stencilLoad, stencilStore := vk.AttachmentLoadOpDontCare, vk.AttachmentStoreOpDontCare
	if f.DepthStencil.HasStencil() {
		stencilStore = vk.AttachmentStoreOpStore
		if !first {
			stencilLoad = vk.AttachmentLoadOpLoad
		}
	}
	info.Attachments = append(info.Attachments, vk.AttachmentDescription{
		Format:         f.DepthStencil,
		LoadOp:         load,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  stencilLoad,
		StencilStoreOp: stencilStore,
		InitialLayout:  depthLayout,
		FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
	})
	return info
}

// destroy releases objects in the reverse order of creation and then the
// context reference.
func (w *Window) destroy() {
	drv, dev := w.ctx.Driver(), w.ctx.Device()

	w.linearMap.Close()
	w.linearMemory.Close()
	w.linearBuffer.Close()

	if w.framebuffer != 0 {
		drv.DestroyFramebuffer(dev, w.framebuffer)
	}
	if w.depthView != 0 {
		drv.DestroyImageView(dev, w.depthView)
	}
	if w.depthImage != 0 {
		drv.DestroyImage(dev, w.depthImage)
	}
	w.depthMemory.Close()
	if w.colorView != 0 {
		drv.DestroyImageView(dev, w.colorView)
	}
	if w.colorImage != 0 {
		drv.DestroyImage(dev, w.colorImage)
	}
	w.colorMemory.Close()
	for i := len(w.renderPasses) - 1; i >= 0; i-- {
		if w.renderPasses[i] != 0 {
			drv.DestroyRenderPass(dev, w.renderPasses[i])
		}
	}
	w.ctx.Release()
}

// Retain adds a reference and returns w.
func (w *Window) Retain() *Window {
	if w.refs.Add(1) <= 1 {
		panic("window: Retain on a released window")
	}
	return w
}

// Release drops a reference. The last Release destroys the window.
func (w *Window) Release() {
	switch n := w.refs.Add(-1); {
	case n == 0:
		w.destroy()
	case n < 0:
		panic("window: released more times than retained")
	}
}

// Context returns the context the window was built on.
func (w *Window) Context() *device.Context { return w.ctx }

// Format returns the format the window was built with.
func (w *Window) Format() Format { return w.format }

// RenderPass returns the pass for the first render, which discards the
// previous contents, or the one for later renders, which loads them.
func (w *Window) RenderPass(first bool) vk.RenderPass {
	if first {
		return w.renderPasses[0]
	}
	return w.renderPasses[1]
}

func (w *Window) Framebuffer() vk.Framebuffer          { return w.framebuffer }
func (w *Window) ColorImage() vk.Image                 { return w.colorImage }
func (w *Window) DepthStencilImage() vk.Image          { return w.depthImage }
func (w *Window) LinearBuffer() vk.Buffer              { return w.linearBuffer.Handle() }
func (w *Window) LinearMemory() *resource.DeviceMemory { return w.linearMemory }

// LinearBytes returns the mapped linear color buffer. Row y starts at
// y*LinearStride().
func (w *Window) LinearBytes() []byte { return w.linearMap.Bytes() }

// LinearStride returns the row size of the linear buffer in bytes.
func (w *Window) LinearStride() int { return w.format.Stride() }

// NeedInvalidate reports whether the linear memory is not host coherent
// and must be invalidated before the host reads it.
func (w *Window) NeedInvalidate() bool { return w.needInvalidate }

// InvalidateLinear makes the last copy into the linear buffer visible to
// the host. It does nothing for coherent memory.
func (w *Window) InvalidateLinear() error {
	if !w.needInvalidate {
		return nil
	}
	return w.linearMap.Invalidate()
}
