package pipeline

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gogpu/vkrun/internal/device"
	"github.com/gogpu/vkrun/internal/vk"
	"github.com/gogpu/vkrun/internal/window"
)

// Shaders holds the SPIR-V code of each stage. A nil entry is an absent
// stage.
type Shaders [NumStages][]byte

// Flags returns the stage flags of every present stage.
func (s *Shaders) Flags() vk.ShaderStageFlags {
	var flags vk.ShaderStageFlags
	for i, code := range s {
		if code != nil {
			flags |= Stage(i).Flag()
		}
	}
	return flags
}

// LayoutDesc describes a pipeline layout. Sets is indexed by descriptor
// set number; a set with no bindings still gets a layout.
type LayoutDesc struct {
	Sets             [][]vk.DescriptorSetLayoutBinding
	PushConstantSize uint32
	Stages           vk.ShaderStageFlags
}

func (d *LayoutDesc) signature() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "stages=%#x push=%d", uint32(d.Stages), d.PushConstantSize)
	for i, set := range d.Sets {
		fmt.Fprintf(&sb, " set%d=[", i)
		for _, b := range set {
			fmt.Fprintf(&sb, "%d:%d,", b.Binding, b.DescriptorType)
		}
		sb.WriteByte(']')
	}
	return sb.String()
}

// VertexLayout describes the interleaved vertex data bound at binding 0.
type VertexLayout struct {
	Stride     uint32
	Attributes []vk.VertexInputAttribute
}

func (v *VertexLayout) signature() string {
	if v == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "stride=%d", v.Stride)
	for _, a := range v.Attributes {
		fmt.Fprintf(&sb, " %d:%d@%d", a.Location, a.Format, a.Offset)
	}
	return sb.String()
}

// rectangleVertexStride is the size of the position-only vertex used by
// rectangle draws.
const rectangleVertexStride = 3 * 4

func (v *VertexLayout) inputState(source Source) vk.VertexInputState {
	if source == Rectangle {
		return vk.VertexInputState{
			Bindings: []vk.VertexInputBinding{{Stride: rectangleVertexStride}},
			Attributes: []vk.VertexInputAttribute{
				{Format: vk.FormatR32G32B32Sfloat},
			},
		}
	}
	if v == nil {
		return vk.VertexInputState{}
	}
	attrs := make([]vk.VertexInputAttribute, len(v.Attributes))
	copy(attrs, v.Attributes)
	return vk.VertexInputState{
		Bindings:   []vk.VertexInputBinding{{Stride: v.Stride}},
		Attributes: attrs,
	}
}

// Layout is a pipeline layout with its descriptor set layouts. It is owned
// by the Cache that created it.
type Layout struct {
	handle     vk.PipelineLayout
	setLayouts []vk.DescriptorSetLayout
	desc       LayoutDesc
	signature  string
}

// Layout accessors. The returned slices must not be modified.
func (l *Layout) Handle() vk.PipelineLayout               { return l.handle }
func (l *Layout) SetLayouts() []vk.DescriptorSetLayout    { return l.setLayouts }
func (l *Layout) Stages() vk.ShaderStageFlags             { return l.desc.Stages }
func (l *Layout) Sets() [][]vk.DescriptorSetLayoutBinding { return l.desc.Sets }
func (l *Layout) PushConstantSize() uint32                { return l.desc.PushConstantSize }

// Request is everything that determines one pipeline.
type Request struct {
	Key     *Key
	Shaders *Shaders
	Layout  *Layout
	// Vertex is only consulted for graphics keys with VertexData source.
	Vertex *VertexLayout
}

type digest [sha256.Size]byte

// entryKey identifies a cached pipeline. Digests of stages that the key's
// kind does not use are left zero.
type entryKey struct {
	key     Key
	shaders [NumStages]digest
	layout  string
	vertex  string
}

// Cache holds the pipelines built for one window. Entries are keyed by
// pipeline key, shader digests, layout and vertex layout, so scripts that
// share a configuration share its pipeline. Shader modules and layouts are
// shared the same way.
//
// Lookups may run from several scripts at once. Creation happens under the
// write lock, which is taken only after a read-locked lookup misses.
//
// The cache holds a reference on its window. Destroy releases every
// object it created and then the window reference.
type Cache struct {
	win *window.Window
	ctx *device.Context

	handle vk.PipelineCache

	// mu protects everything below.
	mu        sync.RWMutex
	modules   map[digest]vk.ShaderModule
	layouts   map[string]*Layout
	pipelines map[entryKey]vk.Pipeline
	base      vk.Pipeline
	destroyed bool

	// Updated atomically; Stats reads them without mu.
	hits   uint64
	misses uint64
}

// NewCache creates an empty cache for win. The cache retains win until
// Destroy.
func NewCache(win *window.Window) (*Cache, error) {
	ctx := win.Context()
	handle, res := ctx.Driver().CreatePipelineCache(ctx.Device())
	if res != vk.Success {
		return nil, &CreateError{Object: "pipeline cache", Result: res}
	}

	return &Cache{
		win:       win.Retain(),
		ctx:       ctx,
		handle:    handle,
		modules:   make(map[digest]vk.ShaderModule),
		layouts:   make(map[string]*Layout),
		pipelines: make(map[entryKey]vk.Pipeline),
	}, nil
}

// Window returns the window the cache belongs to.
func (c *Cache) Window() *window.Window { return c.win }

// Layout returns a cached layout matching desc or creates a new one.
func (c *Cache) Layout(desc LayoutDesc) (*Layout, error) {
	sig := desc.signature()

	c.mu.RLock()
	if l, ok := c.layouts[sig]; ok {
		c.mu.RUnlock()
		return l, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return nil, ErrCacheDestroyed
	}
	if l, ok := c.layouts[sig]; ok {
		return l, nil
	}

	l, err := c.createLayout(desc, sig)
	if err != nil {
		return nil, err
	}
	c.layouts[sig] = l
	return l, nil
}

func (c *Cache) createLayout(desc LayoutDesc, sig string) (*Layout, error) {
	drv, dev := c.ctx.Driver(), c.ctx.Device()

	l := &Layout{desc: desc, signature: sig}
	for _, set := range desc.Sets {
		bindings := make([]vk.DescriptorSetLayoutBinding, len(set))
		for i, b := range set {
			b.StageFlags = desc.Stages
			bindings[i] = b
		}
		h, res := drv.CreateDescriptorSetLayout(dev, bindings)
		if res != vk.Success {
			l.destroy(drv, dev)
			return nil, &CreateError{Object: "descriptor set layout", Result: res}
		}
		l.setLayouts = append(l.setLayouts, h)
	}

	info := &vk.PipelineLayoutCreateInfo{SetLayouts: l.setLayouts}
	if desc.PushConstantSize > 0 {
		info.PushConstantRanges = []vk.PushConstantRange{{
			StageFlags: desc.Stages,
			Size:       desc.PushConstantSize,
		}}
	}
	h, res := drv.CreatePipelineLayout(dev, info)
	if res != vk.Success {
		l.destroy(drv, dev)
		return nil, &CreateError{Object: "pipeline layout", Result: res}
	}
	l.handle = h

	return l, nil
}

func (l *Layout) destroy(drv vk.Driver, dev vk.Device) {
	if l.handle != 0 {
		drv.DestroyPipelineLayout(dev, l.handle)
	}
	for _, h := range l.setLayouts {
		drv.DestroyDescriptorSetLayout(dev, h)
	}
	l.handle = 0
	l.setLayouts = nil
}

// GetOrCreate returns the pipeline for req, building it on first use. The
// entry is looked up again under the write lock, so concurrent misses on
// the same request build it once. A hit makes no driver call.
func (c *Cache) GetOrCreate(req Request) (vk.Pipeline, error) {
	if req.Shaders == nil {
		req.Shaders = &Shaders{}
	}
	ek := entryKeyFor(&req)

	c.mu.RLock()
	if p, ok := c.pipelines[ek]; ok {
		c.mu.RUnlock()
		atomic.AddUint64(&c.hits, 1)
		slogger().Debug("pipeline cache hit", slog.String("kind", req.Key.Kind().String()))
		return p, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return 0, ErrCacheDestroyed
	}
	// Another miss may have built it since the read lock was dropped.
	if p, ok := c.pipelines[ek]; ok {
		atomic.AddUint64(&c.hits, 1)
		return p, nil
	}
	if req.Layout == nil {
		return 0, ErrNoLayout
	}

	var (
		p   vk.Pipeline
		err error
	)
	if req.Key.Kind() == Compute {
		p, err = c.createCompute(&req)
	} else {
		p, err = c.createGraphics(&req)
	}
	if err != nil {
		return 0, err
	}

	c.pipelines[ek] = p
	atomic.AddUint64(&c.misses, 1)
	slogger().Debug("pipeline cache miss",
		slog.String("kind", req.Key.Kind().String()),
		slog.Uint64("key_hash", req.Key.Hash()),
		slog.Int("size", len(c.pipelines)))

	return p, nil
}

func entryKeyFor(req *Request) entryKey {
	ek := entryKey{key: req.Key.canonical()}
	if req.Layout != nil {
		ek.layout = req.Layout.signature
	}
	for i, code := range req.Shaders {
		compute := Stage(i) == StageCompute
		if code == nil || compute != (req.Key.Kind() == Compute) {
			continue
		}
		ek.shaders[i] = sha256.Sum256(code)
	}
	if req.Key.Kind() == Graphics && req.Key.Source() == VertexData {
		ek.vertex = req.Vertex.signature()
	}
	return ek
}

// module returns the shader module for code, creating it on first use.
// Callers hold c.mu for writing.
func (c *Cache) module(code []byte) (vk.ShaderModule, error) {
	d := digest(sha256.Sum256(code))
	if m, ok := c.modules[d]; ok {
		return m, nil
	}
	m, res := c.ctx.Driver().CreateShaderModule(c.ctx.Device(), code)
	if res != vk.Success {
		return 0, &CreateError{Object: "shader module", Result: res}
	}
	c.modules[d] = m
	return m, nil
}

func (c *Cache) createGraphics(req *Request) (vk.Pipeline, error) {
	if req.Shaders[StageVertex] == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingShader, StageVertex)
	}

	var stages []vk.ShaderStageInfo
	for i, code := range req.Shaders {
		s := Stage(i)
		if s == StageCompute || code == nil {
			continue
		}
		m, err := c.module(code)
		if err != nil {
			return 0, err
		}
		stages = append(stages, vk.ShaderStageInfo{
			Stage:      s.Flag(),
			Module:     m,
			EntryPoint: req.Key.Entrypoint(s),
		})
	}

	format := c.win.Format()
	tess := req.Shaders[StageTessCtrl] != nil || req.Shaders[StageTessEval] != nil
	info := graphicsCreateInfo(req.Key, stages, req.Vertex.inputState(req.Key.Source()),
		uint32(format.Width), uint32(format.Height), tess, format.HasDepthStencil())
	info.Layout = req.Layout.Handle()
	info.RenderPass = c.win.RenderPass(true)

	// The first graphics pipeline becomes the parent of all later ones.
	if c.base == 0 {
		info.Flags |= vk.PipelineCreateAllowDerivatives
	} else {
		info.Flags |= vk.PipelineCreateDerivative
		info.BasePipeline = c.base
	}

	p, res := c.ctx.Driver().CreateGraphicsPipeline(c.ctx.Device(), c.handle, info)
	if res != vk.Success {
		return 0, &CreateError{Object: "graphics pipeline", Result: res}
	}
	if c.base == 0 {
		c.base = p
	}
	return p, nil
}

func (c *Cache) createCompute(req *Request) (vk.Pipeline, error) {
	code := req.Shaders[StageCompute]
	if code == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingShader, StageCompute)
	}
	m, err := c.module(code)
	if err != nil {
		return 0, err
	}

	info := &vk.ComputePipelineCreateInfo{
		Stage: vk.ShaderStageInfo{
			Stage:      vk.ShaderStageCompute,
			Module:     m,
			EntryPoint: req.Key.Entrypoint(StageCompute),
		},
		Layout: req.Layout.Handle(),
	}
	p, res := c.ctx.Driver().CreateComputePipeline(c.ctx.Device(), c.handle, info)
	if res != vk.Success {
		return 0, &CreateError{Object: "compute pipeline", Result: res}
	}
	return p, nil
}

// Stats returns cache statistics.
//
// Returns the number of cache hits and misses.
// These values are read atomically and may not be perfectly synchronized.
func (c *Cache) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}

// HitRate returns the cache hit rate as a fraction (0.0 to 1.0).
//
// Returns 0.0 if no requests have been made.
func (c *Cache) HitRate() float64 {
	hits, misses := c.Stats()
	total := hits + misses
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

// Size returns the number of cached pipelines.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pipelines)
}

// Destroy destroys every cached object and releases the window. It is
// safe to call more than once.
func (c *Cache) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return
	}
	c.destroyed = true

	drv, dev := c.ctx.Driver(), c.ctx.Device()
	for _, p := range c.pipelines {
		drv.DestroyPipeline(dev, p)
	}
	for _, l := range c.layouts {
		l.destroy(drv, dev)
	}
	for _, m := range c.modules {
		drv.DestroyShaderModule(dev, m)
	}
	drv.DestroyPipelineCache(dev, c.handle)

	hits, misses := c.Stats()
	slogger().Debug("pipeline cache destroyed",
		slog.Int("pipelines", len(c.pipelines)),
		slog.Uint64("hits", hits),
		slog.Uint64("misses", misses))

	c.pipelines = nil
	c.layouts = nil
	c.modules = nil
	c.base = 0
	c.handle = 0

	c.win.Release()
	c.win = nil
}
