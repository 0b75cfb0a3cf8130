package pipeline

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/vkrun/internal/device"
	"github.com/gogpu/vkrun/internal/vk"
	"github.com/gogpu/vkrun/internal/vk/fakevk"
	"github.com/gogpu/vkrun/internal/window"
)

var (
	vertexCode   = []byte{0x03, 0x02, 0x23, 0x07, 1, 0, 0, 0}
	fragmentCode = []byte{0x03, 0x02, 0x23, 0x07, 2, 0, 0, 0}
	computeCode  = []byte{0x03, 0x02, 0x23, 0x07, 3, 0, 0, 0}
)

// newTestCache builds a context, a window in format and a cache on it.
// The returned cleanup destroys all three and checks the fake driver.
func newTestCache(t *testing.T, format window.Format) (*fakevk.Driver, *Cache, func()) {
	t.Helper()
	drv := fakevk.New(fakevk.Config{})
	ctx, err := device.New(drv, nil)
	if err != nil {
		t.Fatalf("device.New: %v", err)
	}
	win, err := window.New(ctx, format)
	if err != nil {
		t.Fatalf("window.New: %v", err)
	}
	c, err := NewCache(win)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	return drv, c, func() {
		c.Destroy()
		win.Release()
		ctx.Release()
		if leaks := drv.Leaks(); len(leaks) != 0 {
			t.Errorf("leaked objects: %v", leaks)
		}
		if errs := drv.Errors(); len(errs) != 0 {
			t.Errorf("driver errors: %v", errs)
		}
	}
}

func graphicsShaders() *Shaders {
	return &Shaders{StageVertex: vertexCode, StageFragment: fragmentCode}
}

func mustLayout(t *testing.T, c *Cache, desc LayoutDesc) *Layout {
	t.Helper()
	l, err := c.Layout(desc)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	return l
}

// =============================================================================
// Lookup
// =============================================================================

func TestCacheHitMakesNoDriverCall(t *testing.T) {
	drv, c, cleanup := newTestCache(t, window.DefaultFormat())
	defer cleanup()

	layout := mustLayout(t, c, LayoutDesc{})
	a, b := DefaultKey(), DefaultKey()

	p1, err := c.GetOrCreate(Request{Key: &a, Shaders: graphicsShaders(), Layout: layout})
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	p2, err := c.GetOrCreate(Request{Key: &b, Shaders: graphicsShaders(), Layout: layout})
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	if p1 != p2 {
		t.Errorf("equal keys gave different pipelines %d and %d", p1, p2)
	}
	if n := drv.Calls("CreateGraphicsPipeline"); n != 1 {
		t.Errorf("CreateGraphicsPipeline called %d times, want 1", n)
	}
	if n := drv.Calls("CreateShaderModule"); n != 2 {
		t.Errorf("CreateShaderModule called %d times, want 2", n)
	}
	if hits, misses := c.Stats(); hits != 1 || misses != 1 {
		t.Errorf("Stats() = %d hits, %d misses", hits, misses)
	}
	if got := c.HitRate(); got != 0.5 {
		t.Errorf("HitRate() = %v", got)
	}
}

func TestCacheConcurrentMisses(t *testing.T) {
	drv, c, cleanup := newTestCache(t, window.DefaultFormat())
	defer cleanup()

	layout := mustLayout(t, c, LayoutDesc{})
	const workers = 8
	got := make([]vk.Pipeline, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k := DefaultKey()
			got[i], errs[i] = c.GetOrCreate(Request{Key: &k, Shaders: graphicsShaders(), Layout: layout})
		}()
	}
	wg.Wait()

	for i := range workers {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if got[i] != got[0] {
			t.Errorf("worker %d got pipeline %d, want %d", i, got[i], got[0])
		}
	}
	if n := drv.Calls("CreateGraphicsPipeline"); n != 1 {
		t.Errorf("CreateGraphicsPipeline called %d times, want 1", n)
	}
	if hits, misses := c.Stats(); hits+misses != workers || misses != 1 {
		t.Errorf("Stats() = %d hits, %d misses", hits, misses)
	}
}

func TestCacheMissOnStateChange(t *testing.T) {
	drv, c, cleanup := newTestCache(t, window.DefaultFormat())
	defer cleanup()

	layout := mustLayout(t, c, LayoutDesc{})
	a, b := DefaultKey(), DefaultKey()
	mustSet(t, &b, "depthTestEnable", "true")

	p1, err := c.GetOrCreate(Request{Key: &a, Shaders: graphicsShaders(), Layout: layout})
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	p2, err := c.GetOrCreate(Request{Key: &b, Shaders: graphicsShaders(), Layout: layout})
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	if p1 == p2 {
		t.Error("depthTestEnable change reused the pipeline")
	}
	if n := drv.Calls("CreateGraphicsPipeline"); n != 2 {
		t.Errorf("CreateGraphicsPipeline called %d times, want 2", n)
	}
	// Shader modules are shared between the two pipelines.
	if n := drv.Calls("CreateShaderModule"); n != 2 {
		t.Errorf("CreateShaderModule called %d times, want 2", n)
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d", c.Size())
	}
}

func TestCacheKeyedByShaderAndLayout(t *testing.T) {
	drv, c, cleanup := newTestCache(t, window.DefaultFormat())
	defer cleanup()

	k := DefaultKey()
	plain := mustLayout(t, c, LayoutDesc{})
	withPush := mustLayout(t, c, LayoutDesc{PushConstantSize: 16, Stages: vk.ShaderStageAllGraphics})

	other := graphicsShaders()
	other[StageFragment] = []byte{0x03, 0x02, 0x23, 0x07, 9, 9, 9, 9}

	reqs := []Request{
		{Key: &k, Shaders: graphicsShaders(), Layout: plain},
		{Key: &k, Shaders: other, Layout: plain},
		{Key: &k, Shaders: graphicsShaders(), Layout: withPush},
		// A compute stage does not change a graphics pipeline.
		{Key: &k, Shaders: &Shaders{StageVertex: vertexCode, StageFragment: fragmentCode, StageCompute: computeCode}, Layout: plain},
	}
	for _, r := range reqs {
		if _, err := c.GetOrCreate(r); err != nil {
			t.Fatalf("GetOrCreate: %v", err)
		}
	}

	if n := drv.Calls("CreateGraphicsPipeline"); n != 3 {
		t.Errorf("CreateGraphicsPipeline called %d times, want 3", n)
	}
	if n := drv.Calls("CreatePipelineLayout"); n != 2 {
		t.Errorf("CreatePipelineLayout called %d times, want 2", n)
	}
}

func TestCacheVertexLayout(t *testing.T) {
	drv, c, cleanup := newTestCache(t, window.DefaultFormat())
	defer cleanup()

	layout := mustLayout(t, c, LayoutDesc{})
	k := DefaultKey()
	k.SetSource(VertexData)

	v1 := &VertexLayout{Stride: 16, Attributes: []vk.VertexInputAttribute{{Format: vk.FormatR32G32B32A32Sfloat}}}
	v2 := &VertexLayout{Stride: 32, Attributes: []vk.VertexInputAttribute{{Format: vk.FormatR32G32B32A32Sfloat}}}

	for _, v := range []*VertexLayout{v1, v2, v1} {
		if _, err := c.GetOrCreate(Request{Key: &k, Shaders: graphicsShaders(), Layout: layout, Vertex: v}); err != nil {
			t.Fatalf("GetOrCreate: %v", err)
		}
	}
	if n := drv.Calls("CreateGraphicsPipeline"); n != 2 {
		t.Errorf("CreateGraphicsPipeline called %d times, want 2", n)
	}

	infos := drv.GraphicsPipelines()
	want := vk.VertexInputState{
		Bindings:   []vk.VertexInputBinding{{Stride: 32}},
		Attributes: v2.Attributes,
	}
	if diff := cmp.Diff(want, infos[1].VertexInput); diff != "" {
		t.Errorf("vertex input mismatch (-want +got):\n%s", diff)
	}
}

// =============================================================================
// Creation
// =============================================================================

func TestGraphicsPipelineCreateInfo(t *testing.T) {
	f := window.DefaultFormat()
	f.DepthStencil = vk.FormatD24UnormS8Uint
	drv, c, cleanup := newTestCache(t, f)
	defer cleanup()

	layout := mustLayout(t, c, LayoutDesc{})
	a, b := DefaultKey(), DefaultKey()
	a.SetEntrypoint(StageFragment, "frag")
	mustSet(t, &b, "cullMode", "VK_CULL_MODE_BACK_BIT")

	for _, k := range []*Key{&a, &b} {
		if _, err := c.GetOrCreate(Request{Key: k, Shaders: graphicsShaders(), Layout: layout}); err != nil {
			t.Fatalf("GetOrCreate: %v", err)
		}
	}

	infos := drv.GraphicsPipelines()
	if len(infos) != 2 {
		t.Fatalf("%d pipelines created", len(infos))
	}
	first, second := infos[0], infos[1]

	if len(first.Stages) != 2 || first.Stages[0].Stage != vk.ShaderStageVertex ||
		first.Stages[1].EntryPoint != "frag" || first.Stages[0].EntryPoint != "main" {
		t.Errorf("stages = %+v", first.Stages)
	}
	wantInput := vk.VertexInputState{
		Bindings:   []vk.VertexInputBinding{{Stride: 12}},
		Attributes: []vk.VertexInputAttribute{{Format: vk.FormatR32G32B32Sfloat}},
	}
	if diff := cmp.Diff(wantInput, first.VertexInput); diff != "" {
		t.Errorf("rectangle vertex input mismatch (-want +got):\n%s", diff)
	}
	if first.DepthStencil == nil {
		t.Error("depth/stencil state missing for a depth format")
	}
	if first.Tessellation != nil {
		t.Error("tessellation state set without tessellation shaders")
	}
	if first.RenderPass != c.Window().RenderPass(true) || first.Layout != layout.Handle() {
		t.Error("wrong render pass or layout")
	}
	if first.Flags != vk.PipelineCreateAllowDerivatives {
		t.Errorf("first pipeline flags = %#x", first.Flags)
	}
	if second.Flags != vk.PipelineCreateDerivative || second.BasePipeline == 0 {
		t.Errorf("second pipeline flags = %#x base %d", second.Flags, second.BasePipeline)
	}
	if second.Rasterization.CullMode != vk.CullModeBack {
		t.Errorf("cullMode = %d", second.Rasterization.CullMode)
	}
}

func TestComputePipeline(t *testing.T) {
	drv, c, cleanup := newTestCache(t, window.DefaultFormat())
	defer cleanup()

	layout := mustLayout(t, c, LayoutDesc{Stages: vk.ShaderStageCompute})
	a, b := DefaultKey(), DefaultKey()
	a.SetKind(Compute)
	b.SetKind(Compute)
	mustSet(t, &b, "lineWidth", "4")
	shaders := &Shaders{StageCompute: computeCode}

	for _, k := range []*Key{&a, &b} {
		if _, err := c.GetOrCreate(Request{Key: k, Shaders: shaders, Layout: layout}); err != nil {
			t.Fatalf("GetOrCreate: %v", err)
		}
	}

	infos := drv.ComputePipelines()
	if len(infos) != 1 {
		t.Fatalf("%d compute pipelines created, want 1", len(infos))
	}
	want := vk.ShaderStageInfo{Stage: vk.ShaderStageCompute, Module: infos[0].Stage.Module, EntryPoint: "main"}
	if infos[0].Stage != want {
		t.Errorf("stage = %+v", infos[0].Stage)
	}
}

func TestMissingShader(t *testing.T) {
	_, c, cleanup := newTestCache(t, window.DefaultFormat())
	defer cleanup()

	layout := mustLayout(t, c, LayoutDesc{})
	k := DefaultKey()
	_, err := c.GetOrCreate(Request{Key: &k, Shaders: &Shaders{StageFragment: fragmentCode}, Layout: layout})
	if !errors.Is(err, ErrMissingShader) {
		t.Errorf("err = %v, want ErrMissingShader", err)
	}

	k.SetKind(Compute)
	_, err = c.GetOrCreate(Request{Key: &k, Shaders: graphicsShaders(), Layout: layout})
	if !errors.Is(err, ErrMissingShader) {
		t.Errorf("err = %v, want ErrMissingShader", err)
	}
}

func TestCreateFailures(t *testing.T) {
	tests := []struct {
		fn     string
		object string
	}{
		{"CreateShaderModule", "shader module"},
		{"CreateGraphicsPipeline", "graphics pipeline"},
	}
	for _, tt := range tests {
		t.Run(tt.fn, func(t *testing.T) {
			drv, c, cleanup := newTestCache(t, window.DefaultFormat())
			defer cleanup()

			layout := mustLayout(t, c, LayoutDesc{})
			k := DefaultKey()
			drv.Fail(tt.fn, vk.ErrorOutOfDeviceMemory)

			_, err := c.GetOrCreate(Request{Key: &k, Shaders: graphicsShaders(), Layout: layout})
			var ce *CreateError
			if !errors.As(err, &ce) || ce.Object != tt.object {
				t.Fatalf("err = %v, want CreateError for %s", err, tt.object)
			}
			if !errors.Is(err, vk.ErrorOutOfDeviceMemory) {
				t.Errorf("err does not unwrap to the driver result")
			}
			if c.Size() != 0 {
				t.Errorf("failed creation was cached")
			}

			// The failure is not sticky.
			if _, err := c.GetOrCreate(Request{Key: &k, Shaders: graphicsShaders(), Layout: layout}); err != nil {
				t.Errorf("retry: %v", err)
			}
		})
	}
}

func TestLayoutFailureCleansUp(t *testing.T) {
	drv, c, cleanup := newTestCache(t, window.DefaultFormat())
	defer cleanup()

	desc := LayoutDesc{
		Sets: [][]vk.DescriptorSetLayoutBinding{
			{{Binding: 0, DescriptorType: vk.DescriptorTypeUniformBuffer}},
			{{Binding: 1, DescriptorType: vk.DescriptorTypeStorageBuffer}},
		},
	}
	drv.Fail("CreateDescriptorSetLayout", vk.Success)
	drv.Fail("CreateDescriptorSetLayout", vk.ErrorOutOfHostMemory)

	if _, err := c.Layout(desc); err == nil {
		t.Fatal("Layout succeeded")
	}
	if n := drv.Live("DescriptorSetLayout"); n != 0 {
		t.Errorf("%d descriptor set layouts leaked", n)
	}

	l := mustLayout(t, c, desc)
	if len(l.SetLayouts()) != 2 {
		t.Errorf("%d set layouts", len(l.SetLayouts()))
	}
}

// =============================================================================
// Destroy
// =============================================================================

func TestDestroy(t *testing.T) {
	drv, c, cleanup := newTestCache(t, window.DefaultFormat())
	defer cleanup()

	layout := mustLayout(t, c, LayoutDesc{PushConstantSize: 4, Stages: vk.ShaderStageAllGraphics})
	k := DefaultKey()
	if _, err := c.GetOrCreate(Request{Key: &k, Shaders: graphicsShaders(), Layout: layout}); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	c.Destroy()
	c.Destroy()

	for _, kind := range []string{"Pipeline", "PipelineLayout", "ShaderModule", "PipelineCache"} {
		if n := drv.Live(kind); n != 0 {
			t.Errorf("%d %s objects live after Destroy", n, kind)
		}
	}
	if _, err := c.GetOrCreate(Request{Key: &k, Shaders: graphicsShaders(), Layout: layout}); !errors.Is(err, ErrCacheDestroyed) {
		t.Errorf("GetOrCreate after Destroy: %v", err)
	}
}
