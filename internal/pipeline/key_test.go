package pipeline

import (
	"errors"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/gogpu/vkrun/internal/vk"
)

func TestPropertyTable(t *testing.T) {
	if !sort.SliceIsSorted(properties, func(i, j int) bool { return properties[i].Name < properties[j].Name }) {
		t.Fatal("property table is not sorted by name")
	}

	limits := map[PropertyType]int{BoolProperty: numBools, IntProperty: numInts, FloatProperty: numFloats}
	seen := map[PropertyType]map[int]string{}
	for _, p := range properties {
		if p.Index < 0 || p.Index >= limits[p.Type] {
			t.Errorf("%s: index %d out of range for %s", p.Name, p.Index, p.Type)
		}
		if seen[p.Type] == nil {
			seen[p.Type] = map[int]string{}
		}
		if other, ok := seen[p.Type][p.Index]; ok {
			t.Errorf("%s and %s share %s index %d", p.Name, other, p.Type, p.Index)
		}
		seen[p.Type][p.Index] = p.Name

		setters := 0
		for _, set := range []bool{p.setBool != nil, p.setInt != nil, p.setFloat != nil} {
			if set {
				setters++
			}
		}
		ok := setters == 1 &&
			(p.Type != BoolProperty || p.setBool != nil) &&
			(p.Type != IntProperty || p.setInt != nil) &&
			(p.Type != FloatProperty || p.setFloat != nil)
		if !ok {
			t.Errorf("%s: setter does not match type %s", p.Name, p.Type)
		}
	}
	for typ, limit := range limits {
		if len(seen[typ]) != limit {
			t.Errorf("%d %s properties, want %d", len(seen[typ]), typ, limit)
		}
	}
}

func TestKeyBase(t *testing.T) {
	k := DefaultKey()

	if k.Kind() != Graphics || k.Source() != Rectangle {
		t.Errorf("default key is %v %v", k.Kind(), k.Source())
	}

	k.SetTopology(vk.PrimitiveTopologyPointList)
	if got := k.GraphicsState().InputAssembly.Topology; got != vk.PrimitiveTopologyPointList {
		t.Errorf("topology = %d", got)
	}

	k.SetPatchControlPoints(5)
	if got := k.GraphicsState().Tessellation.PatchControlPoints; got != 5 {
		t.Errorf("patchControlPoints = %d", got)
	}
	k.SetPatchControlPoints(math.MaxUint32)
	if got := k.GraphicsState().Tessellation.PatchControlPoints; got != math.MaxUint32 {
		t.Errorf("patchControlPoints = %d", got)
	}

	k.SetEntrypoint(StageVertex, "mystery_vortex")
	k.SetEntrypoint(StageFragment, "fraggle_rock")
	if got := k.Entrypoint(StageVertex); got != "mystery_vortex" {
		t.Errorf("vertex entrypoint = %q", got)
	}
	if got := k.Entrypoint(StageFragment); got != "fraggle_rock" {
		t.Errorf("fragment entrypoint = %q", got)
	}
	if got := k.Entrypoint(StageGeometry); got != "main" {
		t.Errorf("geometry entrypoint = %q", got)
	}
}

func TestSetAllProperties(t *testing.T) {
	k := DefaultKey()
	for _, p := range Properties() {
		if err := k.Set(p.Name, "1"); err != nil {
			t.Errorf("Set(%q, 1): %v", p.Name, err)
		}
	}
}

func TestSetBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"false", false},
		{" true ", true},
		{"   false  ", false},
		{"1", true},
		{"42", true},
		{"  0x42  ", true},
		{"0", false},
		{"  -0  ", false},
	}
	for _, tt := range tests {
		k := DefaultKey()
		if err := k.Set("depthTestEnable", tt.value); err != nil {
			t.Errorf("Set(%q): %v", tt.value, err)
			continue
		}
		if got := k.GraphicsState().DepthStencil.DepthTestEnable; got != tt.want {
			t.Errorf("Set(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestSetInt(t *testing.T) {
	tests := []struct {
		value string
		want  uint32
	}{
		{"0", 0},
		{"1", 1},
		{"-1", math.MaxUint32},
		{"  42  ", 42},
		{" 8 | 1 ", 9},
		{"6|16|1", 23},
		{"010", 8},
		{"0x80|010", 0x88},
		{"VK_COLOR_COMPONENT_R_BIT", uint32(vk.ColorComponentR)},
		{"VK_COLOR_COMPONENT_R_BIT | VK_COLOR_COMPONENT_G_BIT", uint32(vk.ColorComponentR | vk.ColorComponentG)},
	}
	for _, tt := range tests {
		k := DefaultKey()
		if err := k.Set("patchControlPoints", tt.value); err != nil {
			t.Errorf("Set(%q): %v", tt.value, err)
			continue
		}
		if got := k.GraphicsState().Tessellation.PatchControlPoints; got != tt.want {
			t.Errorf("Set(%q) = %d, want %d", tt.value, got, tt.want)
		}
	}

	k := DefaultKey()
	for name := range enumValues {
		if err := k.Set("srcColorBlendFactor", name); err != nil {
			t.Errorf("Set(%q): %v", name, err)
		}
	}
}

func TestSetFloat(t *testing.T) {
	tests := []struct {
		value string
		want  float32
	}{
		{"1", 1},
		{"-1", -1},
		{"1.0e1", 10},
		{"  0x3F800000  ", 1},
		{".5", 0.5},
		{"2.", 2},
	}
	for _, tt := range tests {
		k := DefaultKey()
		if err := k.Set("depthBiasClamp", tt.value); err != nil {
			t.Errorf("Set(%q): %v", tt.value, err)
			continue
		}
		if got := k.GraphicsState().Rasterization.DepthBiasClamp; got != tt.want {
			t.Errorf("Set(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}

	k := DefaultKey()
	if err := k.Set("lineWidth", "-inf"); err != nil {
		t.Fatalf("Set(-inf): %v", err)
	}
	if got := k.GraphicsState().Rasterization.LineWidth; !math.IsInf(float64(got), -1) {
		t.Errorf("lineWidth = %v, want -Inf", got)
	}
}

func TestSetErrors(t *testing.T) {
	tests := []struct {
		name, value string
		want        string
		sentinel    error
	}{
		{"depthTestEnable", "foo", "Invalid value: foo", ErrInvalidValue},
		{"stencilTestEnable", "9 foo", "Invalid value: 9 foo", ErrInvalidValue},
		{"stencilTestEnable", "true fo", "Invalid value: true fo", ErrInvalidValue},
		{"patchControlPoints", "", "Invalid value: ", ErrInvalidValue},
		{"patchControlPoints", "9 |", "Invalid value: 9 |", ErrInvalidValue},
		{"patchControlPoints", "|9", "Invalid value: |9", ErrInvalidValue},
		{"patchControlPoints", "9|foo", "Invalid value: 9|foo", ErrInvalidValue},
		{"patchControlPoints", "9foo", "Invalid value: 9foo", ErrInvalidValue},
		{"patchControlPoints", "0x100000000", "Invalid value: 0x100000000", ErrInvalidValue},
		{"lineWidth", "0.3 foo", "Invalid value: 0.3 foo", ErrInvalidValue},
		{"lineWidth", "foo", "Invalid value: foo", ErrInvalidValue},
		{"unicornCount", "2", "Unknown property: unicornCount", ErrUnknownProperty},
	}
	for _, tt := range tests {
		k := DefaultKey()
		before := k
		err := k.Set(tt.name, tt.value)
		if err == nil {
			t.Errorf("Set(%q, %q) succeeded", tt.name, tt.value)
			continue
		}
		if err.Error() != tt.want {
			t.Errorf("Set(%q, %q) = %q, want %q", tt.name, tt.value, err, tt.want)
		}
		if !errors.Is(err, tt.sentinel) {
			t.Errorf("Set(%q, %q) does not match %v", tt.name, tt.value, tt.sentinel)
		}
		if k != before {
			t.Errorf("Set(%q, %q) modified the key on error", tt.name, tt.value)
		}
	}
}

func TestKeyEqual(t *testing.T) {
	a := DefaultKey()
	b := a

	check := func(want bool, step string) {
		t.Helper()
		if got := a.Equal(&b); got != want {
			t.Fatalf("%s: Equal = %v, want %v", step, got, want)
		}
		if want && a.Hash() != b.Hash() {
			t.Fatalf("%s: equal keys hash differently", step)
		}
	}

	check(true, "defaults")

	a.SetSource(VertexData)
	check(false, "source")
	b.SetSource(VertexData)
	check(true, "source")

	mustSet(t, &a, "depthClampEnable", "true")
	check(false, "bool")
	mustSet(t, &b, "depthClampEnable", "true")
	check(true, "bool")

	mustSet(t, &a, "colorWriteMask", "1")
	check(false, "int")
	mustSet(t, &b, "colorWriteMask", "1")
	check(true, "int")

	mustSet(t, &a, "lineWidth", "3.0")
	check(false, "float")
	mustSet(t, &b, "lineWidth", "3.0")
	check(true, "float")

	a.SetEntrypoint(StageTessEval, "durberville")
	check(false, "entrypoint")
	b.SetEntrypoint(StageTessEval, "durberville")
	check(true, "entrypoint")

	// The compute entry point has no effect on graphics pipelines.
	a.SetEntrypoint(StageCompute, "saysno")
	check(true, "graphics ignores compute entrypoint")
	b.SetEntrypoint(StageCompute, "saysno")

	a.SetKind(Compute)
	check(false, "kind")
	b.SetKind(Compute)
	check(true, "kind")

	// Fixed-function state has no effect on compute pipelines.
	mustSet(t, &a, "lineWidth", "5.0")
	a.SetSource(Rectangle)
	a.SetEntrypoint(StageTessCtrl, "yes")
	check(true, "compute ignores graphics state")

	a.SetEntrypoint(StageCompute, "rclub")
	check(false, "compute entrypoint")
	b.SetEntrypoint(StageCompute, "rclub")
	check(true, "compute entrypoint")
}

func TestKeyEqualDefaultEntrypoint(t *testing.T) {
	a, b := DefaultKey(), DefaultKey()
	a.SetEntrypoint(StageFragment, "main")
	if !a.Equal(&b) {
		t.Error("explicit main should equal the default entry point")
	}
}

func TestKeyFloatBitwise(t *testing.T) {
	a, b := DefaultKey(), DefaultKey()
	mustSet(t, &a, "depthBiasClamp", "0")
	mustSet(t, &b, "depthBiasClamp", "-0")
	if a.Equal(&b) {
		t.Error("0 and -0 should differ bitwise")
	}

	mustSet(t, &a, "depthBiasClamp", "nan")
	mustSet(t, &b, "depthBiasClamp", "nan")
	if !a.Equal(&b) {
		t.Error("identical NaN bit patterns should be equal")
	}
}

func TestKeyString(t *testing.T) {
	k := DefaultKey()
	mustSet(t, &k, "depthWriteEnable", "true")
	mustSet(t, &k, "colorWriteMask", "1")
	mustSet(t, &k, "lineWidth", "42.0")

	s := k.String()
	for _, want := range []string{
		"graphics rectangle {",
		" alphaBlendOp: 0,",
		" back.compareMask: -1,",
		" colorWriteMask: 1,",
		" depthWriteEnable: true,",
		" lineWidth: 42,",
		" logicOp: 15,",
		" topology: 4 }",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestStageByName(t *testing.T) {
	for s := StageVertex; s < NumStages; s++ {
		got, ok := StageByName(s.String())
		if !ok || got != s {
			t.Errorf("StageByName(%q) = %v, %v", s.String(), got, ok)
		}
	}
	if _, ok := StageByName("pixel"); ok {
		t.Error("StageByName(pixel) succeeded")
	}
}

func mustSet(t *testing.T, k *Key, name, value string) {
	t.Helper()
	if err := k.Set(name, value); err != nil {
		t.Fatalf("Set(%q, %q): %v", name, value, err)
	}
}

func TestHashStringBoundaries(t *testing.T) {
	sum := func(parts ...string) uint64 {
		h := fnv.New64a()
		for _, p := range parts {
			hashWriteString(h, p)
		}
		return h.Sum64()
	}
	if sum("ab", "c") == sum("a", "bc") {
		t.Error("adjacent strings run together")
	}

	a, b := DefaultKey(), DefaultKey()
	a.SetEntrypoint(StageVertex, "ab")
	a.SetEntrypoint(StageTessCtrl, "c")
	b.SetEntrypoint(StageVertex, "a")
	b.SetEntrypoint(StageTessCtrl, "bc")
	if a.Hash() == b.Hash() {
		t.Error("keys with shifted entry points hash the same")
	}
}
