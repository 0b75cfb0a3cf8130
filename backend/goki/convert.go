package goki

import (
	"reflect"
	"strings"

	gvk "github.com/goki/vulkan"

	"github.com/gogpu/vkrun/internal/vk"
)

// cstr returns s with the terminating NUL the bindings expect.
func cstr(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func cstrs(ss []string) []string {
	if len(ss) == 0 {
		return nil
	}
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = cstr(s)
	}
	return out
}

func bool32(b bool) gvk.Bool32 {
	if b {
		return gvk.True
	}
	return gvk.False
}

// featureKey folds a feature name so that VkPhysicalDeviceFeatures member
// names match the exported Go field names.
func featureKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}

var featureFields = func() map[string]int {
	t := reflect.TypeOf(gvk.PhysicalDeviceFeatures{})
	m := make(map[string]int, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if f.IsExported() && f.Type.Kind() == reflect.Uint32 {
			m[featureKey(f.Name)] = i
		}
	}
	return m
}()

// featureNames lists the supported members of f by their Vulkan names.
func featureNames(f *gvk.PhysicalDeviceFeatures, names []string) map[string]bool {
	v := reflect.ValueOf(f).Elem()
	out := make(map[string]bool)
	for _, name := range names {
		i, ok := featureFields[featureKey(name)]
		if ok && v.Field(i).Uint() != 0 {
			out[name] = true
		}
	}
	return out
}

// enableFeatures sets the named members of f. It returns false if a name
// is not a base feature.
func enableFeatures(f *gvk.PhysicalDeviceFeatures, names []string) bool {
	v := reflect.ValueOf(f).Elem()
	for _, name := range names {
		i, ok := featureFields[featureKey(name)]
		if !ok {
			return false
		}
		v.Field(i).SetUint(uint64(gvk.True))
	}
	return true
}

func rect2D(r vk.Rect2D) gvk.Rect2D {
	return gvk.Rect2D{
		Offset: gvk.Offset2D{X: r.X, Y: r.Y},
		Extent: gvk.Extent2D{Width: r.Width, Height: r.Height},
	}
}

func subresourceRange(aspect vk.ImageAspectFlags) gvk.ImageSubresourceRange {
	return gvk.ImageSubresourceRange{
		AspectMask: gvk.ImageAspectFlags(aspect),
		LevelCount: 1,
		LayerCount: 1,
	}
}

func stencilOpState(s vk.StencilOpState) gvk.StencilOpState {
	return gvk.StencilOpState{
		FailOp:      gvk.StencilOp(s.FailOp),
		PassOp:      gvk.StencilOp(s.PassOp),
		DepthFailOp: gvk.StencilOp(s.DepthFailOp),
		CompareOp:   gvk.CompareOp(s.CompareOp),
		CompareMask: s.CompareMask,
		WriteMask:   s.WriteMask,
		Reference:   s.Reference,
	}
}

func sampleCount(n uint32) gvk.SampleCountFlagBits {
	if n == 0 {
		return gvk.SampleCount1Bit
	}
	return gvk.SampleCountFlagBits(n)
}
