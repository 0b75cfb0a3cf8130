package pipeline

import (
	"sync/atomic"

	"github.com/gogpu/vkrun/internal/vk"
)

// SetDesc describes the pipelines of one script.
type SetDesc struct {
	Keys    []Key
	Shaders Shaders
	Layout  LayoutDesc
	Vertex  *VertexLayout
}

// Set is one script's view of a Cache: a pipeline per key in declaration
// order, the shared layout and a descriptor set per layout set. Pipelines
// and the layout belong to the cache; the descriptor pool belongs to the
// Set and is destroyed by Close.
type Set struct {
	cache     *Cache
	layout    *Layout
	pipelines []vk.Pipeline
	pool      vk.DescriptorPool
	sets      []vk.DescriptorSet
	released  atomic.Bool
}

// NewSet resolves every key of desc through c and allocates the script's
// descriptor sets.
func NewSet(c *Cache, desc *SetDesc) (*Set, error) {
	layout, err := c.Layout(desc.Layout)
	if err != nil {
		return nil, err
	}

	s := &Set{cache: c, layout: layout}
	for i := range desc.Keys {
		p, err := c.GetOrCreate(Request{
			Key:     &desc.Keys[i],
			Shaders: &desc.Shaders,
			Layout:  layout,
			Vertex:  desc.Vertex,
		})
		if err != nil {
			return nil, err
		}
		s.pipelines = append(s.pipelines, p)
	}

	if err := s.allocateDescriptors(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Set) allocateDescriptors() error {
	var sizes []vk.DescriptorPoolSize
	counts := make(map[vk.DescriptorType]uint32)
	for _, set := range s.layout.Sets() {
		for _, b := range set {
			if counts[b.DescriptorType] == 0 {
				sizes = append(sizes, vk.DescriptorPoolSize{Type: b.DescriptorType})
			}
			counts[b.DescriptorType]++
		}
	}
	if len(sizes) == 0 {
		return nil
	}
	for i := range sizes {
		sizes[i].Count = counts[sizes[i].Type]
	}

	ctx := s.cache.ctx
	pool, res := ctx.Driver().CreateDescriptorPool(ctx.Device(), &vk.DescriptorPoolCreateInfo{
		MaxSets:   uint32(len(s.layout.SetLayouts())),
		PoolSizes: sizes,
	})
	if res != vk.Success {
		return &CreateError{Object: "descriptor pool", Result: res}
	}
	s.pool = pool

	sets, res := ctx.Driver().AllocateDescriptorSets(ctx.Device(), pool, s.layout.SetLayouts())
	if res != vk.Success {
		return &CreateError{Object: "descriptor sets", Result: res}
	}
	s.sets = sets
	return nil
}

// Layout returns the pipeline layout shared by the set's pipelines.
func (s *Set) Layout() *Layout { return s.layout }

// Pipelines returns one pipeline per key, in key order.
func (s *Set) Pipelines() []vk.Pipeline { return s.pipelines }

// Pipeline returns the pipeline of the i-th key.
func (s *Set) Pipeline(i int) vk.Pipeline { return s.pipelines[i] }

// DescriptorSets returns the allocated sets indexed by set number. It is
// empty when the script declares no buffers.
func (s *Set) DescriptorSets() []vk.DescriptorSet { return s.sets }

// Close destroys the descriptor pool. It is safe to call more than once.
func (s *Set) Close() {
	if s == nil || !s.released.CompareAndSwap(false, true) {
		return
	}
	if s.pool != 0 {
		ctx := s.cache.ctx
		ctx.Driver().DestroyDescriptorPool(ctx.Device(), s.pool)
	}
	s.pool = 0
	s.sets = nil
}
