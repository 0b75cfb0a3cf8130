package tester

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/vkrun/internal/script"
	"github.com/gogpu/vkrun/internal/vk"
)

func (t *Tester) run(c *script.Command) error {
	switch c.Op {
	case script.OpClear:
		return t.clear(c)
	case script.OpDrawRect:
		return t.drawRect(c)
	case script.OpDrawArrays:
		return t.drawArrays(c)
	case script.OpDispatch:
		return t.dispatch(c)
	case script.OpSetBuffer:
		t.buffers[c.Buffer].write(c.Offset, c.Data)
		return nil
	case script.OpPushConstants:
		return t.pushConstants(c)
	case script.OpProbeRect:
		return t.probeRect(c)
	case script.OpProbeBuffer:
		return t.probeBuffer(c)
	}
	return fmt.Errorf("vkrun: unknown op %d", c.Op)
}

func (t *Tester) clear(c *script.Command) error {
	if err := t.goTo(rendering); err != nil {
		return err
	}
	f := t.win.Format()
	atts := []vk.ClearAttachment{{
		AspectMask: vk.ImageAspectColor,
		Color:      [4]float32{float32(c.Color[0]), float32(c.Color[1]), float32(c.Color[2]), float32(c.Color[3])},
	}}
	if f.HasDepthStencil() {
		aspect := vk.ImageAspectDepth
		if f.DepthStencil.HasStencil() {
			aspect |= vk.ImageAspectStencil
		}
		atts = append(atts, vk.ClearAttachment{AspectMask: aspect, Depth: c.Depth, Stencil: c.Stencil})
	}
	rect := vk.Rect2D{Width: uint32(f.Width), Height: uint32(f.Height)} //nolint:gosec // window sizes are small
	t.ctx.Driver().CmdClearAttachments(t.ctx.CommandBuffer(), atts, []vk.Rect2D{rect})
	return nil
}

func (t *Tester) drawRect(c *script.Command) error {
	x, y, w, h := float64(c.Rect[0]), float64(c.Rect[1]), float64(c.Rect[2]), float64(c.Rect[3])
	verts, err := script.Float.Encode([]float64{
		x, y, 0,
		x + w, y, 0,
		x, y + h, 0,
		x + w, y + h, 0,
	})
	if err != nil {
		return err
	}
	hb, err := newHostBuffer(t.ctx, len(verts), vk.BufferUsageVertex)
	if err != nil {
		return err
	}
	t.rects = append(t.rects, hb)
	hb.write(0, verts)
	if err := hb.flush(); err != nil {
		return err
	}

	if err := t.goTo(rendering); err != nil {
		return err
	}
	t.bindSets()
	t.bindPipeline(c.Pipeline)
	drv, cb := t.ctx.Driver(), t.ctx.CommandBuffer()
	drv.CmdBindVertexBuffers(cb, 0, []vk.Buffer{hb.buf.Handle()}, []vk.DeviceSize{0})
	drv.CmdDraw(cb, 4, 1, 0, 0)
	return nil
}

func (t *Tester) drawArrays(c *script.Command) error {
	if err := t.goTo(rendering); err != nil {
		return err
	}
	drv, cb := t.ctx.Driver(), t.ctx.CommandBuffer()
	if v := t.script.Vertex; v != nil {
		if t.vertex == nil {
			hb, err := newHostBuffer(t.ctx, len(v.Data), vk.BufferUsageVertex)
			if err != nil {
				return err
			}
			t.vertex = hb
			hb.write(0, v.Data)
			if err := hb.flush(); err != nil {
				return err
			}
		}
		drv.CmdBindVertexBuffers(cb, 0, []vk.Buffer{t.vertex.buf.Handle()}, []vk.DeviceSize{0})
	}
	t.bindSets()
	t.bindPipeline(c.Pipeline)
	if !c.Indexed {
		drv.CmdDraw(cb, c.Count, c.Instances, c.First, c.FirstInstance)
		return nil
	}
	if t.index == nil {
		hb, err := newHostBuffer(t.ctx, len(t.script.Indices)*2, vk.BufferUsageIndex)
		if err != nil {
			return err
		}
		t.index = hb
		data := hb.Bytes()
		for i, v := range t.script.Indices {
			binary.LittleEndian.PutUint16(data[i*2:], v)
		}
		hb.pending = true
		if err := hb.flush(); err != nil {
			return err
		}
	}
	drv.CmdBindIndexBuffer(cb, t.index.buf.Handle(), 0, vk.IndexTypeUint16)
	drv.CmdDrawIndexed(cb, c.Count, c.Instances, c.First, 0, c.FirstInstance)
	return nil
}

func (t *Tester) dispatch(c *script.Command) error {
	if err := t.goTo(recording); err != nil {
		return err
	}
	t.bindSets()
	t.bindPipeline(c.Pipeline)
	t.ctx.Driver().CmdDispatch(t.ctx.CommandBuffer(), c.Groups[0], c.Groups[1], c.Groups[2])
	return nil
}

func (t *Tester) pushConstants(c *script.Command) error {
	if t.state < recording {
		if err := t.goTo(recording); err != nil {
			return err
		}
	}
	layout := t.set.Layout()
	t.ctx.Driver().CmdPushConstants(t.ctx.CommandBuffer(), layout.Handle(), layout.Stages(), uint32(c.Offset), c.Data) //nolint:gosec // bounded by the push constant size
	return nil
}

func (t *Tester) probeRect(c *script.Command) error {
	if err := t.goTo(idle); err != nil {
		return err
	}
	data, stride := t.ColorBuffer()
	format := t.win.Format().Color
	size := format.Size()
	x0, y0, w, h := c.Region[0], c.Region[1], c.Region[2], c.Region[3]
	for y := y0; y < y0+h; y++ {
		row := data[y*stride:]
		for x := x0; x < x0+w; x++ {
			pixel, ok := vk.DecodeColor(format, row[x*size:(x+1)*size])
			if !ok {
				return fmt.Errorf("vkrun: cannot read pixels of format %s", format)
			}
			if !equalColor(pixel, c.Color, c.Components, c.Tolerance) {
				return &ProbeError{X: x, Y: y, Components: c.Components, Expected: c.Color, Observed: pixel}
			}
		}
	}
	return nil
}

func (t *Tester) probeBuffer(c *script.Command) error {
	if err := t.goTo(idle); err != nil {
		return err
	}
	b := &t.script.Buffers[c.Buffer]
	observed := t.buffers[c.Buffer].Bytes()[c.Offset:]
	size := c.Type.Size()
	for i := range len(c.Data) / size {
		want, got := c.Type.Decode(c.Data, i), c.Type.Decode(observed, i)
		if !c.Compare.Compare(c.Type, c.Tolerance, i, got, want) {
			return &BufferProbeError{
				Set:      b.Set,
				Binding:  b.Binding,
				Offset:   c.Offset + i*size,
				Type:     c.Type,
				Compare:  c.Compare,
				Expected: want,
				Observed: got,
			}
		}
	}
	return nil
}

// equalColor compares the first n channels of an observed pixel with the
// expected color.
func equalColor(observed, expected [4]float64, n int, tol script.Tolerance) bool {
	for i := range observed[:n] {
		if !tol.Equal(i, observed[i], expected[i]) {
			return false
		}
	}
	return true
}
