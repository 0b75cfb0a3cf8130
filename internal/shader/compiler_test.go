package shader

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

// module returns a minimal SPIR-V header followed by tag.
func module(tag uint32) []byte {
	code := make([]byte, headerSize+4)
	binary.LittleEndian.PutUint32(code, Magic)
	binary.LittleEndian.PutUint32(code[4:], 0x00010300)
	binary.LittleEndian.PutUint32(code[headerSize:], tag)
	return code
}

// countingCompiler returns a WGSL front end that maps every source to a
// module tagged by its length and counts invocations.
func countingCompiler(calls *atomic.Int32) func(string) ([]byte, error) {
	return func(src string) ([]byte, error) {
		calls.Add(1)
		if src == "bad" {
			return nil, errors.New("parse error")
		}
		return module(uint32(len(src))), nil //nolint:gosec // test input
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		ok   bool
	}{
		{"valid", module(1), true},
		{"empty", nil, false},
		{"unaligned", append(module(1), 0), false},
		{"short", module(1)[:16], false},
		{"big endian", binary.BigEndian.AppendUint32(nil, Magic), false},
		{"bad magic", make([]byte, headerSize), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.code)
			if tt.ok && err != nil {
				t.Errorf("Validate: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidSPIRV) {
				t.Errorf("Validate = %v, want ErrInvalidSPIRV", err)
			}
		})
	}
}

func TestWords(t *testing.T) {
	words := Words(module(7))
	if len(words) != 6 || words[0] != Magic || words[5] != 7 {
		t.Errorf("Words = %#x", words)
	}
}

func TestCompileSPIRV(t *testing.T) {
	var calls atomic.Int32
	c := New(WithWGSLCompiler(countingCompiler(&calls)))

	code := module(3)
	got, err := c.Compile(&Source{Name: "frag.spv", Language: SPIRV, Code: code})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if &got[0] != &code[0] {
		t.Error("SPIR-V input was copied")
	}
	if calls.Load() != 0 {
		t.Error("SPIR-V input went through the WGSL compiler")
	}

	_, err = c.Compile(&Source{Name: "bad.spv", Language: SPIRV, Code: []byte{1, 2, 3}})
	var ce *CompileError
	if !errors.As(err, &ce) || ce.Name != "bad.spv" || !errors.Is(err, ErrInvalidSPIRV) {
		t.Errorf("err = %v", err)
	}
}

func TestCompileWGSLMemoized(t *testing.T) {
	var calls atomic.Int32
	c := New(WithWGSLCompiler(countingCompiler(&calls)))

	src := &Source{Name: "a", Language: WGSL, Code: []byte("@fragment fn main() {}")}
	first, err := c.Compile(src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	second, err := c.Compile(&Source{Name: "b", Language: WGSL, Code: []byte("@fragment fn main() {}")})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if &first[0] != &second[0] {
		t.Error("identical sources compiled twice")
	}
	if calls.Load() != 1 {
		t.Errorf("compiler called %d times, want 1", calls.Load())
	}
	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.Len != 1 || st.HitRate() != 0.5 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestCompileWGSLError(t *testing.T) {
	var calls atomic.Int32
	c := New(WithWGSLCompiler(countingCompiler(&calls)))

	for range 2 {
		_, err := c.Compile(&Source{Name: "broken", Language: WGSL, Code: []byte("bad")})
		var ce *CompileError
		if !errors.As(err, &ce) || ce.Name != "broken" {
			t.Fatalf("err = %v", err)
		}
	}
	// Failures are not cached.
	if calls.Load() != 2 {
		t.Errorf("compiler called %d times, want 2", calls.Load())
	}
	if c.Stats().Len != 0 {
		t.Error("failed compilation was cached")
	}
}

func TestCompileRejectsInvalidOutput(t *testing.T) {
	c := New(WithWGSLCompiler(func(string) ([]byte, error) { return []byte{0, 0, 0, 0}, nil }))
	_, err := c.Compile(&Source{Language: WGSL, Code: []byte("x")})
	if !errors.Is(err, ErrInvalidSPIRV) {
		t.Errorf("err = %v, want ErrInvalidSPIRV", err)
	}
}

func TestCompileUnknownLanguage(t *testing.T) {
	c := New()
	if _, err := c.Compile(&Source{Language: Language(9), Code: module(1)}); err == nil {
		t.Error("unknown language accepted")
	}
	if got := Language(9).String(); got != "Language(9)" {
		t.Errorf("String() = %q", got)
	}
}

func TestCompileNaga(t *testing.T) {
	src := "@compute @workgroup_size(1)\nfn main() {}\n"
	code, err := New().Compile(&Source{Name: "naga", Language: WGSL, Code: []byte(src)})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if binary.LittleEndian.Uint32(code) != Magic {
		t.Error("naga output does not start with the SPIR-V magic")
	}
}

// =============================================================================
// memo
// =============================================================================

func TestMemoShardRounding(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, DefaultShards},
		{1, 1},
		{3, 4},
		{16, 16},
		{1000, 256},
	}
	for _, tt := range tests {
		if got := len(newMemo(tt.in, 0).shards); got != tt.want {
			t.Errorf("newMemo(%d) has %d shards, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMemoEviction(t *testing.T) {
	m := newMemo(1, 2)
	keys := make([]digest, 3)
	for i := range keys {
		keys[i] = sha256.Sum256([]byte{byte(i)})
		if _, err := m.getOrCreate(keys[i], func() ([]byte, error) { return module(uint32(i)), nil }); err != nil { //nolint:gosec // small index
			t.Fatal(err)
		}
	}
	st := m.stats()
	if st.Len != 2 || st.Evictions != 1 {
		t.Errorf("stats = %+v", st)
	}

	// keys[0] was the least recently used and is gone.
	created := false
	_, _ = m.getOrCreate(keys[0], func() ([]byte, error) { created = true; return module(0), nil })
	if !created {
		t.Error("evicted entry was still cached")
	}
}

func TestMemoConcurrent(t *testing.T) {
	var calls atomic.Int32
	c := New(WithShards(4), WithWGSLCompiler(countingCompiler(&calls)))

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 32 {
				src := fmt.Sprintf("shader %d", i)
				if _, err := c.Compile(&Source{Language: WGSL, Code: []byte(src)}); err != nil {
					t.Errorf("goroutine %d: %v", g, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if calls.Load() != 32 {
		t.Errorf("compiler called %d times, want 32", calls.Load())
	}
}
