// Package shader turns script shader sources into SPIR-V.
//
// WGSL is compiled with naga and memoized by source digest, so scripts
// that share a shader compile it once per process. SPIR-V binaries are
// only checked for a well-formed header.
package shader

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/naga"
)

// Language identifies the form a shader source is written in.
type Language int

const (
	WGSL Language = iota
	SPIRV
)

func (l Language) String() string {
	switch l {
	case WGSL:
		return "wgsl"
	case SPIRV:
		return "spirv"
	default:
		return fmt.Sprintf("Language(%d)", int(l))
	}
}

// Source is one shader as declared by a script.
type Source struct {
	// Name is used in diagnostics only.
	Name     string
	Language Language
	Code     []byte
}

// Magic is the first word of every SPIR-V module.
const Magic = 0x07230203

// headerSize is the five-word SPIR-V module header.
const headerSize = 5 * 4

// ErrInvalidSPIRV is matched by errors for malformed binaries.
var ErrInvalidSPIRV = errors.New("vkrun: invalid SPIR-V")

// CompileError reports a shader that could not be turned into SPIR-V.
type CompileError struct {
	Name string
	Err  error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("Failed to compile shader %q: %v", e.Name, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Compiler compiles and memoizes shaders. It is safe for concurrent use.
type Compiler struct {
	memo    *memo
	compile func(string) ([]byte, error)
}

// Option configures a Compiler.
type Option func(*compilerOptions)

type compilerOptions struct {
	shards   int
	capacity int
	compile  func(string) ([]byte, error)
}

// WithShards sets the number of cache shards. It is rounded up to a power
// of two.
func WithShards(n int) Option {
	return func(o *compilerOptions) { o.shards = n }
}

// WithShardCapacity sets how many modules each shard keeps.
func WithShardCapacity(n int) Option {
	return func(o *compilerOptions) { o.capacity = n }
}

// WithWGSLCompiler replaces naga as the WGSL front end.
func WithWGSLCompiler(fn func(string) ([]byte, error)) Option {
	return func(o *compilerOptions) { o.compile = fn }
}

// New returns a compiler with an empty cache.
func New(opts ...Option) *Compiler {
	o := compilerOptions{compile: naga.Compile}
	for _, opt := range opts {
		opt(&o)
	}
	return &Compiler{memo: newMemo(o.shards, o.capacity), compile: o.compile}
}

// Compile returns the SPIR-V for src. The returned slice is shared with
// the cache and must not be modified.
func (c *Compiler) Compile(src *Source) ([]byte, error) {
	switch src.Language {
	case SPIRV:
		if err := Validate(src.Code); err != nil {
			return nil, &CompileError{Name: src.Name, Err: err}
		}
		return src.Code, nil
	case WGSL:
		code, err := c.memo.getOrCreate(sha256.Sum256(src.Code), func() ([]byte, error) {
			code, err := c.compile(string(src.Code))
			if err != nil {
				return nil, err
			}
			if err := Validate(code); err != nil {
				return nil, err
			}
			return code, nil
		})
		if err != nil {
			return nil, &CompileError{Name: src.Name, Err: err}
		}
		return code, nil
	default:
		return nil, &CompileError{Name: src.Name, Err: fmt.Errorf("unsupported language %v", src.Language)}
	}
}

// Stats returns cache statistics.
func (c *Compiler) Stats() Stats { return c.memo.stats() }

// Validate checks that code is a little-endian SPIR-V module: whole words,
// a complete header and the magic number.
func Validate(code []byte) error {
	if len(code)%4 != 0 {
		return fmt.Errorf("%w: length %d is not a multiple of 4", ErrInvalidSPIRV, len(code))
	}
	if len(code) < headerSize {
		return fmt.Errorf("%w: %d bytes is shorter than the header", ErrInvalidSPIRV, len(code))
	}
	if m := binary.LittleEndian.Uint32(code); m != Magic {
		return fmt.Errorf("%w: bad magic %#08x", ErrInvalidSPIRV, m)
	}
	return nil
}

// Words converts SPIR-V bytes to the 32-bit words drivers consume.
func Words(code []byte) []uint32 {
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	return words
}
