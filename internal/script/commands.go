package script

import (
	"fmt"

	"github.com/gogpu/vkrun/internal/pipeline"
)

var opsByName = func() map[string]Op {
	m := make(map[string]Op, len(opNames))
	for op, name := range opNames {
		m[name] = Op(op)
	}
	return m
}()

func (b *builder) commands(f *file) error {
	for i := range f.Commands {
		sec := &f.Commands[i]
		op, ok := opsByName[sec.Op]
		if !ok {
			return invalid("command %d: unknown op %q", i, sec.Op)
		}
		c := Command{Op: op, Index: i, Pipeline: sec.Pipeline}
		if err := b.command(&c, sec); err != nil {
			return fmt.Errorf("command %d (%s): %w", i, op, err)
		}
		b.s.Commands = append(b.s.Commands, c)
	}
	return nil
}

func (b *builder) command(c *Command, sec *commandSection) error {
	switch c.Op {
	case OpClear:
		c.Depth = 1
		c.Stencil = sec.Stencil
		if err := vector(c.Color[:], sec.Color, 0); err != nil {
			return err
		}
		if sec.Depth != nil {
			d, err := numbers([]any{sec.Depth})
			if err != nil {
				return invalid("depth: %v", err)
			}
			c.Depth = float32(d[0])
		}

	case OpDrawRect:
		if err := b.checkPipeline(c.Pipeline, pipeline.Graphics, pipeline.Rectangle); err != nil {
			return err
		}
		if len(sec.Rect) != 4 {
			return invalid("rect needs x, y, width and height")
		}
		nums, err := numbers(sec.Rect)
		if err != nil {
			return invalid("rect: %v", err)
		}
		for i, n := range nums {
			c.Rect[i] = float32(n)
		}

	case OpDrawArrays:
		if err := b.checkPipeline(c.Pipeline, pipeline.Graphics, pipeline.VertexData); err != nil {
			return err
		}
		if sec.Topology != "" {
			if err := b.drawTopology(c, sec.Topology); err != nil {
				return err
			}
		}
		c.First, c.Count, c.Instances = sec.First, sec.Count, max(sec.Instances, 1)
		c.FirstInstance, c.Indexed = sec.FirstInstance, sec.Indexed
		what, total := "vertices", b.s.Vertex.Count()
		if c.Indexed {
			if len(b.s.Indices) == 0 {
				return invalid("indexed draw but the script has no indices")
			}
			what, total = "indices", uint32(len(b.s.Indices)) //nolint:gosec // script data is small
		}
		if c.Count == 0 {
			c.Count = total - min(c.First, total)
		}
		if c.First+c.Count > total {
			return invalid("%s %d..%d are past the %d available", what, c.First, c.First+c.Count, total)
		}

	case OpDispatch:
		if err := b.checkPipeline(c.Pipeline, pipeline.Compute, pipeline.Rectangle); err != nil {
			return err
		}
		c.Groups = [3]uint32{1, 1, 1}
		if len(sec.Groups) > 3 {
			return invalid("groups has more than three dimensions")
		}
		copy(c.Groups[:], sec.Groups)

	case OpSetBuffer, OpProbeBuffer:
		c.Buffer = b.s.FindBuffer(sec.Set, sec.Binding)
		if c.Buffer < 0 {
			return invalid("no buffer at set %d binding %d", sec.Set, sec.Binding)
		}
		if err := b.data(c, sec); err != nil {
			return err
		}
		if size := b.s.Buffers[c.Buffer].Size; c.Offset+len(c.Data) > size {
			return invalid("%d bytes at offset %d overflow the %d byte buffer", len(c.Data), c.Offset, size)
		}
		if c.Op == OpProbeBuffer {
			cmp, ok := parseComparison(sec.Compare)
			if !ok {
				return invalid("unknown comparison %q", sec.Compare)
			}
			c.Compare = cmp
			tol, err := parseTolerance(sec.Tolerance)
			if err != nil {
				return err
			}
			c.Tolerance = tol
		}

	case OpPushConstants:
		if err := b.data(c, sec); err != nil {
			return err
		}

	case OpProbeRect:
		if len(sec.Region) != 4 {
			return invalid("region needs x, y, width and height")
		}
		copy(c.Region[:], sec.Region)
		x, y, w, h := c.Region[0], c.Region[1], c.Region[2], c.Region[3]
		if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > b.s.Format.Width || y+h > b.s.Format.Height {
			return invalid("region %v is outside the %dx%d framebuffer", c.Region, b.s.Format.Width, b.s.Format.Height)
		}
		if n := len(sec.Color); n != 3 && n != 4 {
			return invalid("probe_rect needs an RGB or RGBA color, got %d components", n)
		}
		c.Components = len(sec.Color)
		c.Color[3] = 1
		if err := vector(c.Color[:], sec.Color, -1); err != nil {
			return err
		}
		tol, err := parseTolerance(sec.Tolerance)
		if err != nil {
			return err
		}
		c.Tolerance = tol
	}
	return nil
}

func (b *builder) checkPipeline(i int, kind pipeline.Kind, source pipeline.Source) error {
	if i < 0 || i >= len(b.s.Pipelines) {
		return invalid("pipeline %d is not declared", i)
	}
	k := &b.s.Pipelines[i]
	if k.Kind() != kind {
		return invalid("pipeline %d is not a %s pipeline", i, kind)
	}
	if kind == pipeline.Graphics && k.Source() != source {
		return invalid("pipeline %d does not draw from %s", i, source)
	}
	return nil
}

// drawTopology points c at a copy of its pipeline drawing with the named
// topology, reusing an existing key when one matches.
func (b *builder) drawTopology(c *Command, topology string) error {
	k := b.s.Pipelines[c.Pipeline]
	if err := k.Set("topology", topology); err != nil {
		return err
	}
	for i := range b.s.Pipelines {
		if b.s.Pipelines[i].Equal(&k) {
			c.Pipeline = i
			return nil
		}
	}
	b.s.Pipelines = append(b.s.Pipelines, k)
	c.Pipeline = len(b.s.Pipelines) - 1
	return nil
}

func (b *builder) data(c *Command, sec *commandSection) error {
	if sec.Offset < 0 {
		return invalid("negative offset")
	}
	data, t, err := encodeData(sec.DataType, sec.Data)
	if err != nil {
		return invalid("%v", err)
	}
	if len(data) == 0 {
		return invalid("no data")
	}
	c.Offset, c.Type, c.Data = sec.Offset, t, data
	c.Values, _ = numbers(sec.Data)
	return nil
}

// vector fills dst from vals. With fewer values than dst, the rest are set
// to fill, or left alone when fill is negative. A single value is
// broadcast.
func vector(dst []float64, vals []any, fill float64) error {
	if len(vals) > len(dst) {
		return invalid("expected at most %d components, got %d", len(dst), len(vals))
	}
	nums, err := numbers(vals)
	if err != nil {
		return invalid("%v", err)
	}
	if len(nums) == 1 && fill >= 0 {
		fill = nums[0]
	}
	for i := range dst {
		switch {
		case i < len(nums):
			dst[i] = nums[i]
		case fill >= 0:
			dst[i] = fill
		}
	}
	return nil
}
