package pipeline

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/vkrun/internal/vk"
)

func TestDefaultGraphicsState(t *testing.T) {
	k := DefaultKey()

	stencil := vk.StencilOpState{
		CompareOp:   vk.CompareOpAlways,
		CompareMask: math.MaxUint32,
		WriteMask:   math.MaxUint32,
	}
	want := GraphicsState{
		InputAssembly: vk.InputAssemblyState{Topology: vk.PrimitiveTopologyTriangleStrip},
		Rasterization: vk.RasterizationState{
			PolygonMode: vk.PolygonModeFill,
			CullMode:    vk.CullModeNone,
			FrontFace:   vk.FrontFaceCounterClockwise,
			LineWidth:   1.0,
		},
		ColorBlend: vk.ColorBlendState{
			LogicOp: vk.LogicOpSet,
			Attachments: []vk.ColorBlendAttachmentState{{
				SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
				DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
				ColorBlendOp:        vk.BlendOpAdd,
				SrcAlphaBlendFactor: vk.BlendFactorSrcAlpha,
				DstAlphaBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
				AlphaBlendOp:        vk.BlendOpAdd,
				ColorWriteMask:      vk.ColorComponentAll,
			}},
		},
		DepthStencil: vk.DepthStencilState{
			DepthCompareOp: vk.CompareOpLess,
			Front:          stencil,
			Back:           stencil,
		},
	}

	if diff := cmp.Diff(want, k.GraphicsState()); diff != "" {
		t.Errorf("default state mismatch (-want +got):\n%s", diff)
	}
}

// leaves flattens v into path -> value for every scalar reachable through
// structs, arrays and slices.
func leaves(v reflect.Value, path string, out map[string]any) {
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			leaves(v.Field(i), path+"."+v.Type().Field(i).Name, out)
		}
	case reflect.Array, reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			leaves(v.Index(i), fmt.Sprintf("%s[%d]", path, i), out)
		}
	case reflect.Float32, reflect.Float64:
		out[path] = math.Float64bits(v.Float())
	default:
		out[path] = v.Interface()
	}
}

// distinct returns a value string for p that differs from its value in k.
func distinct(k *Key, p Property) string {
	switch p.Type {
	case BoolProperty:
		return strconv.FormatBool(!k.bools[p.Index])
	case IntProperty:
		return strconv.FormatInt(int64(k.ints[p.Index]^0x5), 10)
	default:
		f := math.Float32frombits(k.floats[p.Index])
		return strconv.FormatFloat(float64(f)+1.5, 'g', -1, 32)
	}
}

// TestTableMatchesSynthesis checks that every property drives exactly one
// field of the synthesized state and that every field is driven by some
// property.
func TestTableMatchesSynthesis(t *testing.T) {
	base := DefaultKey()
	before := map[string]any{}
	s := base.GraphicsState()
	leaves(reflect.ValueOf(s), "", before)

	// Blend constants are dynamic state, not part of the key.
	covered := map[string]string{
		".ColorBlend.BlendConstants[0]": "",
		".ColorBlend.BlendConstants[1]": "",
		".ColorBlend.BlendConstants[2]": "",
		".ColorBlend.BlendConstants[3]": "",
	}

	for _, p := range Properties() {
		k := base
		mustSet(t, &k, p.Name, distinct(&k, p))

		after := map[string]any{}
		s := k.GraphicsState()
		leaves(reflect.ValueOf(s), "", after)

		var changed []string
		for path, v := range after {
			if before[path] != v {
				changed = append(changed, path)
			}
		}
		if len(changed) != 1 {
			t.Errorf("%s changed %d fields: %v", p.Name, len(changed), changed)
			continue
		}
		if other, ok := covered[changed[0]]; ok && other != "" {
			t.Errorf("%s and %s both write %s", p.Name, other, changed[0])
		}
		covered[changed[0]] = p.Name
	}

	for path := range before {
		if _, ok := covered[path]; !ok {
			t.Errorf("no property writes %s", path)
		}
	}
}

func TestGraphicsStateIsolated(t *testing.T) {
	k := DefaultKey()
	a := k.GraphicsState()
	a.ColorBlend.Attachments[0].BlendEnable = true

	if b := k.GraphicsState(); b.ColorBlend.Attachments[0].BlendEnable {
		t.Error("synthesized states share the attachment slice")
	}
}

func TestGraphicsCreateInfo(t *testing.T) {
	k := DefaultKey()
	stages := []vk.ShaderStageInfo{{Stage: vk.ShaderStageVertex, Module: 1, EntryPoint: "main"}}

	info := graphicsCreateInfo(&k, stages, vk.VertexInputState{}, 250, 100, false, false)
	if info.Tessellation != nil || info.DepthStencil != nil {
		t.Error("tessellation and depth/stencil state should be omitted")
	}
	wantViewport := vk.ViewportState{
		Viewports: []vk.Viewport{{Width: 250, Height: 100}},
		Scissors:  []vk.Rect2D{{Width: 250, Height: 100}},
	}
	if diff := cmp.Diff(wantViewport, info.Viewport); diff != "" {
		t.Errorf("viewport mismatch (-want +got):\n%s", diff)
	}
	if info.Multisample.RasterizationSamples != 1 {
		t.Errorf("samples = %d", info.Multisample.RasterizationSamples)
	}

	mustSet(t, &k, "patchControlPoints", "3")
	mustSet(t, &k, "depthTestEnable", "true")
	info = graphicsCreateInfo(&k, stages, vk.VertexInputState{}, 250, 100, true, true)
	if info.Tessellation == nil || info.Tessellation.PatchControlPoints != 3 {
		t.Errorf("tessellation = %+v", info.Tessellation)
	}
	if info.DepthStencil == nil || !info.DepthStencil.DepthTestEnable {
		t.Errorf("depth/stencil = %+v", info.DepthStencil)
	}
}
