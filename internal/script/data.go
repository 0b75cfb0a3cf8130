package script

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DataType is the element type of buffer, vertex and push constant data.
type DataType int

const (
	Float DataType = iota
	Double
	Int8
	Uint8
	Int16
	Uint16
	Int
	Uint
	Int64
	Uint64
)

var dataTypes = [...]struct {
	name string
	size int
}{
	Float:  {"float", 4},
	Double: {"double", 8},
	Int8:   {"int8", 1},
	Uint8:  {"uint8", 1},
	Int16:  {"int16", 2},
	Uint16: {"uint16", 2},
	Int:    {"int", 4},
	Uint:   {"uint", 4},
	Int64:  {"int64", 8},
	Uint64: {"uint64", 8},
}

func (t DataType) String() string {
	if t < 0 || int(t) >= len(dataTypes) {
		return fmt.Sprintf("DataType(%d)", int(t))
	}
	return dataTypes[t].name
}

// Size returns the size of one element in bytes.
func (t DataType) Size() int { return dataTypes[t].size }

// IsFloat reports whether t is a floating-point type.
func (t DataType) IsFloat() bool { return t == Float || t == Double }

func parseDataType(name string) (DataType, bool) {
	if name == "" {
		return Float, true
	}
	for t, d := range dataTypes {
		if d.name == name {
			return DataType(t), true
		}
	}
	return 0, false
}

// Encode packs values little-endian. Integer types reject fractional or
// out-of-range values.
func (t DataType) Encode(values []float64) ([]byte, error) {
	out := make([]byte, 0, len(values)*t.Size())
	for i, v := range values {
		if !t.IsFloat() {
			if err := t.checkInt(v); err != nil {
				return nil, fmt.Errorf("value %d: %w", i, err)
			}
		}
		switch t {
		case Float:
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(float32(v)))
		case Double:
			out = binary.LittleEndian.AppendUint64(out, math.Float64bits(v))
		case Int8, Uint8:
			out = append(out, byte(int64(v)))
		case Int16, Uint16:
			out = binary.LittleEndian.AppendUint16(out, uint16(int64(v))) //nolint:gosec // range checked
		case Int, Uint:
			out = binary.LittleEndian.AppendUint32(out, uint32(int64(v))) //nolint:gosec // range checked
		case Int64:
			out = binary.LittleEndian.AppendUint64(out, uint64(int64(v))) //nolint:gosec // range checked
		case Uint64:
			out = binary.LittleEndian.AppendUint64(out, uint64(v))
		}
	}
	return out, nil
}

func (t DataType) checkInt(v float64) error {
	if v != math.Trunc(v) {
		return fmt.Errorf("%v is not an integer", v)
	}
	lo, hi := t.intRange()
	if v < lo || v > hi {
		return fmt.Errorf("%v is out of range for %s", v, t)
	}
	return nil
}

func (t DataType) intRange() (lo, hi float64) {
	bits := t.Size() * 8
	switch t {
	case Uint8, Uint16, Uint, Uint64:
		return 0, math.Exp2(float64(bits)) - 1
	default:
		return -math.Exp2(float64(bits - 1)), math.Exp2(float64(bits-1)) - 1
	}
}

// Decode reads element i of data.
func (t DataType) Decode(data []byte, i int) float64 {
	b := data[i*t.Size():]
	switch t {
	case Float:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case Double:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	case Int8:
		return float64(int8(b[0]))
	case Uint8:
		return float64(b[0])
	case Int16:
		return float64(int16(binary.LittleEndian.Uint16(b))) //nolint:gosec // reinterpret
	case Uint16:
		return float64(binary.LittleEndian.Uint16(b))
	case Int:
		return float64(int32(binary.LittleEndian.Uint32(b))) //nolint:gosec // reinterpret
	case Uint:
		return float64(binary.LittleEndian.Uint32(b))
	case Int64:
		return float64(int64(binary.LittleEndian.Uint64(b))) //nolint:gosec // reinterpret
	default:
		return float64(binary.LittleEndian.Uint64(b))
	}
}
