package pipeline

import (
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/vkrun/internal/vk"
)

// Kind selects the pipeline bind point.
type Kind int

const (
	Graphics Kind = iota
	Compute
)

func (k Kind) String() string {
	if k == Compute {
		return "compute"
	}
	return "graphics"
}

// Source tells whether a graphics pipeline draws the built-in rectangle
// or the script's vertex data.
type Source int

const (
	Rectangle Source = iota
	VertexData
)

func (s Source) String() string {
	if s == VertexData {
		return "vertex data"
	}
	return "rectangle"
}

// DefaultEntrypoint is used for every stage without an explicit entry point.
const DefaultEntrypoint = "main"

// Key describes a complete pipeline configuration. Keys are comparable
// with == and usable as map keys; floats are held as bit patterns so
// equality is bitwise. Use Equal to ignore state that has no effect on
// the pipeline kind.
type Key struct {
	kind        Kind
	source      Source
	entrypoints [NumStages]string

	bools  [numBools]bool
	ints   [numInts]int32
	floats [numFloats]uint32
}

// DefaultKey returns the key for the baseline rectangle draw.
func DefaultKey() Key {
	var k Key

	k.ints[topologyIndex] = int32(vk.PrimitiveTopologyTriangleStrip)
	k.setInt("logicOp", int32(vk.LogicOpSet))
	k.setInt("srcColorBlendFactor", int32(vk.BlendFactorSrcAlpha))
	k.setInt("dstColorBlendFactor", int32(vk.BlendFactorOneMinusSrcAlpha))
	k.setInt("srcAlphaBlendFactor", int32(vk.BlendFactorSrcAlpha))
	k.setInt("dstAlphaBlendFactor", int32(vk.BlendFactorOneMinusSrcAlpha))
	k.setInt("colorWriteMask", int32(vk.ColorComponentAll))
	k.setInt("depthCompareOp", int32(vk.CompareOpLess))
	for _, face := range []string{"front", "back"} {
		k.setInt(face+".compareOp", int32(vk.CompareOpAlways))
		k.setInt(face+".compareMask", -1)
		k.setInt(face+".writeMask", -1)
	}
	k.floats[lineWidthIndex] = math.Float32bits(1.0)

	return k
}

// setInt writes a known int property. It is only used with names from the
// table.
func (k *Key) setInt(name string, v int32) {
	p, _ := findProperty(name)
	k.ints[p.Index] = v
}

// Kind and source accessors.
func (k *Key) Kind() Kind         { return k.kind }
func (k *Key) SetKind(kind Kind)  { k.kind = kind }
func (k *Key) Source() Source     { return k.source }
func (k *Key) SetSource(s Source) { k.source = s }

// Topology returns the primitive topology of a graphics key.
func (k *Key) Topology() vk.PrimitiveTopology { return vk.PrimitiveTopology(k.ints[topologyIndex]) }

// SetTopology sets the topology without going through Set. Draw commands
// use it to pick the topology they were given.
func (k *Key) SetTopology(t vk.PrimitiveTopology) { k.ints[topologyIndex] = int32(t) }

// SetPatchControlPoints sets the patch size used with patch list topology.
func (k *Key) SetPatchControlPoints(n uint32) { k.ints[patchControlPointsIndex] = int32(n) }

// SetEntrypoint sets the entry point name for a stage. An empty name
// restores the default.
func (k *Key) SetEntrypoint(stage Stage, name string) { k.entrypoints[stage] = name }

// Entrypoint returns the entry point for a stage, DefaultEntrypoint if
// none was set.
func (k *Key) Entrypoint(stage Stage) string {
	if e := k.entrypoints[stage]; e != "" {
		return e
	}
	return DefaultEntrypoint
}

// Set parses value according to the type of the named property and
// stores it. Bools accept true, false or an integer. Ints accept integers
// and Vulkan enum names combined with |. Floats accept a decimal number or
// a 0x-prefixed bit pattern.
func (k *Key) Set(name, value string) error {
	p, ok := findProperty(name)
	if !ok {
		return &PropertyError{Name: name}
	}

	value = strings.TrimSpace(value)

	switch p.Type {
	case BoolProperty:
		v, ok := parseBool(value)
		if !ok {
			return &PropertyError{Name: name, Value: value, Invalid: true}
		}
		k.bools[p.Index] = v
	case IntProperty:
		v, ok := parseIntExpr(value)
		if !ok {
			return &PropertyError{Name: name, Value: value, Invalid: true}
		}
		k.ints[p.Index] = v
	case FloatProperty:
		v, tail, ok := parseFloat32(value)
		if !ok || tail != "" {
			return &PropertyError{Name: name, Value: value, Invalid: true}
		}
		k.floats[p.Index] = math.Float32bits(v)
	}
	return nil
}

func parseBool(s string) (bool, bool) {
	switch s {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	v, tail, ok := parseInt32(s)
	if !ok || tail != "" {
		return false, false
	}
	return v != 0, true
}

// parseIntExpr parses integers and enum names joined by |.
func parseIntExpr(s string) (int32, bool) {
	var result int32
	for {
		s = skipBlanks(s)

		if v, tail, ok := parseInt32(s); ok {
			result |= v
			s = tail
		} else if v, tail, ok := lookupEnum(s); ok {
			result |= v
			s = tail
		} else {
			return 0, false
		}

		s = skipBlanks(s)
		if s == "" {
			return result, true
		}
		if s[0] != '|' {
			return 0, false
		}
		s = s[1:]
	}
}

// canonical clears the state that does not affect a pipeline of the key's
// kind. Compute pipelines only depend on the compute entry point; graphics
// pipelines ignore it. Unset entry points and the default name are the
// same pipeline.
func (k *Key) canonical() Key {
	c := *k
	for i, e := range c.entrypoints {
		if e == DefaultEntrypoint {
			c.entrypoints[i] = ""
		}
	}
	if c.kind == Compute {
		return Key{kind: Compute, entrypoints: [NumStages]string{StageCompute: c.entrypoints[StageCompute]}}
	}
	c.entrypoints[StageCompute] = ""
	return c
}

// Equal reports whether two keys produce the same pipeline.
func (k *Key) Equal(o *Key) bool {
	return k.canonical() == o.canonical()
}

// Hash returns an FNV-1a hash of the canonical key. Equal keys hash equal.
func (k *Key) Hash() uint64 {
	c := k.canonical()
	h := fnv.New64a()

	hashWriteUint32(h, uint32(c.kind))
	hashWriteUint32(h, uint32(c.source))
	for _, e := range c.entrypoints {
		hashWriteString(h, e)
	}
	for _, b := range c.bools {
		hashWriteBool(h, b)
	}
	for _, v := range c.ints {
		hashWriteUint32(h, uint32(v))
	}
	for _, v := range c.floats {
		hashWriteUint32(h, v)
	}

	return h.Sum64()
}

// String lists the kind, source, explicit entry points and every property
// by name.
func (k *Key) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s %s {", k.kind, k.source)
	for s, e := range k.entrypoints {
		if e != "" {
			fmt.Fprintf(&sb, " %s: %q,", Stage(s), e)
		}
	}
	for i := range properties {
		p := &properties[i]
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(" " + p.Name + ": ")
		switch p.Type {
		case BoolProperty:
			sb.WriteString(strconv.FormatBool(k.bools[p.Index]))
		case IntProperty:
			sb.WriteString(strconv.FormatInt(int64(k.ints[p.Index]), 10))
		case FloatProperty:
			f := math.Float32frombits(k.floats[p.Index])
			sb.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
		}
	}
	sb.WriteString(" }")

	return sb.String()
}
