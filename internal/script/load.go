package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/vkrun/internal/device"
	"github.com/gogpu/vkrun/internal/pipeline"
	"github.com/gogpu/vkrun/internal/shader"
	"github.com/gogpu/vkrun/internal/vk"
	"github.com/gogpu/vkrun/internal/window"
)

// ErrInvalid is matched by every script validation error.
var ErrInvalid = errors.New("vkrun: invalid script")

// Error reports a script that could not be loaded.
type Error struct {
	Name string
	Err  error
}

func (e *Error) Error() string { return e.Name + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

type file struct {
	Require     requireSection     `toml:"require"`
	Framebuffer framebufferSection `toml:"framebuffer"`
	Shaders     []shaderSection    `toml:"shader"`
	Buffers     []bufferSection    `toml:"buffer"`
	VertexData  *vertexSection     `toml:"vertex_data"`
	Indices     *indexSection      `toml:"indices"`
	Pipelines   []pipelineSection  `toml:"pipeline"`
	Commands    []commandSection   `toml:"command"`
}

type requireSection struct {
	Vulkan   string   `toml:"vulkan"`
	Features []string `toml:"features"`
}

type framebufferSection struct {
	Format       string `toml:"format"`
	DepthStencil string `toml:"depth_stencil"`
	Width        int    `toml:"width"`
	Height       int    `toml:"height"`
}

type shaderSection struct {
	Stages    []string `toml:"stages"`
	WGSL      string   `toml:"wgsl"`
	WGSLFile  string   `toml:"wgsl_file"`
	SPIRVFile string   `toml:"spirv_file"`
}

type bufferSection struct {
	Set      uint32   `toml:"set"`
	Binding  uint32   `toml:"binding"`
	Type     string   `toml:"type"`
	Usage    []string `toml:"usage"`
	Size     int      `toml:"size"`
	DataType string   `toml:"data_type"`
	Data     []any    `toml:"data"`
}

type vertexSection struct {
	Stride     uint32             `toml:"stride"`
	Attributes []attributeSection `toml:"attributes"`
	DataType   string             `toml:"data_type"`
	Data       []any              `toml:"data"`
}

type attributeSection struct {
	Location uint32 `toml:"location"`
	Format   string `toml:"format"`
	Offset   uint32 `toml:"offset"`
}

type indexSection struct {
	Data []any `toml:"data"`
}

type pipelineSection struct {
	Kind        string            `toml:"kind"`
	Source      string            `toml:"source"`
	Entrypoints map[string]string `toml:"entrypoints"`
	State       map[string]any    `toml:"state"`
}

type commandSection struct {
	Op            string   `toml:"op"`
	Pipeline      int      `toml:"pipeline"`
	Color         []any    `toml:"color"`
	Depth         any      `toml:"depth"`
	Stencil       uint32   `toml:"stencil"`
	Rect          []any    `toml:"rect"`
	Region        []int    `toml:"region"`
	Topology      string   `toml:"topology"`
	Indexed       bool     `toml:"indexed"`
	First         uint32   `toml:"first"`
	Count         uint32   `toml:"count"`
	Instances     uint32   `toml:"instances"`
	FirstInstance uint32   `toml:"first_instance"`
	Groups        []uint32 `toml:"groups"`
	Set           uint32   `toml:"set"`
	Binding       uint32   `toml:"binding"`
	Offset        int      `toml:"offset"`
	DataType      string   `toml:"data_type"`
	Data          []any    `toml:"data"`
	Compare       string   `toml:"compare"`
	Tolerance     []any    `toml:"tolerance"`
}

// Load reads and parses the script at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Name: path, Err: err}
	}
	return Parse(path, data)
}

// Parse parses a script. Shader files named by the script are resolved
// relative to the directory of name.
func Parse(name string, data []byte) (*Script, error) {
	var f file
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, &Error{Name: name, Err: err}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, &Error{Name: name, Err: invalid("unknown keys: %s", strings.Join(keys, ", "))}
	}

	b := builder{dir: filepath.Dir(name), s: &Script{Name: name}}
	if err := b.build(&f); err != nil {
		return nil, &Error{Name: name, Err: err}
	}
	return b.s, nil
}

type builder struct {
	dir string
	s   *Script
}

func (b *builder) build(f *file) error {
	steps := []func(*file) error{
		b.requirements,
		b.framebuffer,
		b.shaders,
		b.buffers,
		b.vertexData,
		b.indices,
		b.pipelines,
		b.commands,
	}
	for _, step := range steps {
		if err := step(f); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) requirements(f *file) error {
	reqs := device.NewRequirements()
	if v := f.Require.Vulkan; v != "" {
		major, minor, patch, err := parseVersion(v)
		if err != nil {
			return err
		}
		reqs.SetVersion(major, minor, patch)
	}
	for _, name := range f.Require.Features {
		if err := reqs.Add(name); err != nil {
			return err
		}
	}
	b.s.Requirements = reqs
	return nil
}

func parseVersion(v string) (major, minor, patch uint32, err error) {
	parts := strings.Split(v, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, invalid("bad Vulkan version %q", v)
	}
	var nums [3]uint32
	for i, p := range parts {
		n, perr := strconv.ParseUint(p, 10, 10)
		if perr != nil {
			return 0, 0, 0, invalid("bad Vulkan version %q", v)
		}
		nums[i] = uint32(n)
	}
	return nums[0], nums[1], nums[2], nil
}

func (b *builder) framebuffer(f *file) error {
	format := window.DefaultFormat()
	fb := f.Framebuffer
	if fb.Format != "" {
		vf, ok := parseTextureFormat(fb.Format)
		if !ok || vf.IsDepthStencil() {
			return invalid("unknown color format %q", fb.Format)
		}
		format.Color = vf
	}
	if fb.DepthStencil != "" {
		vf, ok := parseTextureFormat(fb.DepthStencil)
		if !ok || !vf.IsDepthStencil() {
			return invalid("unknown depth/stencil format %q", fb.DepthStencil)
		}
		format.DepthStencil = vf
	}
	if fb.Width < 0 || fb.Height < 0 {
		return invalid("negative framebuffer size")
	}
	if fb.Width > 0 {
		format.Width = fb.Width
	}
	if fb.Height > 0 {
		format.Height = fb.Height
	}
	b.s.Format = format
	return nil
}

func (b *builder) shaders(f *file) error {
	for i, sec := range f.Shaders {
		sh := Shader{}
		if len(sec.Stages) == 0 {
			return invalid("shader %d has no stages", i)
		}
		for _, name := range sec.Stages {
			stage, ok := pipeline.StageByName(name)
			if !ok {
				return invalid("shader %d: unknown stage %q", i, name)
			}
			sh.Stages = append(sh.Stages, stage)
		}

		given := 0
		for _, src := range []string{sec.WGSL, sec.WGSLFile, sec.SPIRVFile} {
			if src != "" {
				given++
			}
		}
		if given != 1 {
			return invalid("shader %d needs exactly one of wgsl, wgsl_file and spirv_file", i)
		}

		switch {
		case sec.WGSL != "":
			sh.Source = shader.Source{Name: fmt.Sprintf("shader %d", i), Language: shader.WGSL, Code: []byte(sec.WGSL)}
		case sec.WGSLFile != "":
			code, err := b.readFile(sec.WGSLFile)
			if err != nil {
				return err
			}
			sh.Source = shader.Source{Name: sec.WGSLFile, Language: shader.WGSL, Code: code}
		default:
			code, err := b.readFile(sec.SPIRVFile)
			if err != nil {
				return err
			}
			sh.Source = shader.Source{Name: sec.SPIRVFile, Language: shader.SPIRV, Code: code}
		}
		b.s.Shaders = append(b.s.Shaders, sh)
	}
	return nil
}

func (b *builder) readFile(name string) ([]byte, error) {
	if !filepath.IsAbs(name) {
		name = filepath.Join(b.dir, name)
	}
	return os.ReadFile(name)
}

func (b *builder) buffers(f *file) error {
	for i, sec := range f.Buffers {
		buf := Buffer{Set: sec.Set, Binding: sec.Binding, Size: sec.Size}
		switch sec.Type {
		case "", "uniform", "ubo":
			buf.Type = UniformBuffer
			buf.Usage = gputypes.BufferUsageUniform
		case "storage", "ssbo":
			buf.Type = StorageBuffer
			buf.Usage = gputypes.BufferUsageStorage
		default:
			return invalid("buffer %d: unknown type %q", i, sec.Type)
		}
		for _, u := range sec.Usage {
			bits, ok := bufferUsages[u]
			if !ok {
				return invalid("buffer %d: unknown usage %q", i, u)
			}
			buf.Usage |= bits
		}
		if b.s.FindBuffer(buf.Set, buf.Binding) >= 0 {
			return invalid("buffer %d: set %d binding %d declared twice", i, buf.Set, buf.Binding)
		}

		data, _, err := encodeData(sec.DataType, sec.Data)
		if err != nil {
			return invalid("buffer %d: %v", i, err)
		}
		if buf.Size == 0 {
			buf.Size = len(data)
		}
		if buf.Size <= 0 || len(data) > buf.Size {
			return invalid("buffer %d: size %d does not hold %d bytes of data", i, buf.Size, len(data))
		}
		buf.Data = data
		b.s.Buffers = append(b.s.Buffers, buf)
	}
	return nil
}

func (b *builder) vertexData(f *file) error {
	sec := f.VertexData
	if sec == nil {
		return nil
	}
	v := &VertexData{}
	var end uint32
	for i, a := range sec.Attributes {
		vf, ok := parseVertexFormat(a.Format)
		if !ok {
			return invalid("vertex attribute %d: unknown format %q", i, a.Format)
		}
		v.Layout.Attributes = append(v.Layout.Attributes, vk.VertexInputAttribute{
			Location: a.Location,
			Format:   vf,
			Offset:   a.Offset,
		})
		end = max(end, a.Offset+uint32(vf.Size())) //nolint:gosec // format sizes are small
	}
	if len(v.Layout.Attributes) == 0 {
		return invalid("vertex_data has no attributes")
	}
	v.Layout.Stride = sec.Stride
	if v.Layout.Stride == 0 {
		v.Layout.Stride = end
	}
	if v.Layout.Stride < end {
		return invalid("vertex stride %d is smaller than the attributes (%d)", v.Layout.Stride, end)
	}

	data, _, err := encodeData(sec.DataType, sec.Data)
	if err != nil {
		return invalid("vertex_data: %v", err)
	}
	if len(data)%int(v.Layout.Stride) != 0 {
		return invalid("vertex_data: %d bytes is not a whole number of vertices", len(data))
	}
	v.Data = data
	b.s.Vertex = v
	return nil
}

func (b *builder) indices(f *file) error {
	if f.Indices == nil {
		return nil
	}
	nums, err := numbers(f.Indices.Data)
	if err != nil {
		return invalid("indices: %v", err)
	}
	data, err := Uint16.Encode(nums)
	if err != nil {
		return invalid("indices: %v", err)
	}
	b.s.Indices = make([]uint16, len(nums))
	for i := range b.s.Indices {
		b.s.Indices[i] = uint16(Uint16.Decode(data, i))
	}
	return nil
}

func (b *builder) pipelines(f *file) error {
	for i, sec := range f.Pipelines {
		k := pipeline.DefaultKey()
		switch sec.Kind {
		case "", "graphics":
		case "compute":
			k.SetKind(pipeline.Compute)
		default:
			return invalid("pipeline %d: unknown kind %q", i, sec.Kind)
		}
		switch sec.Source {
		case "", "rectangle":
		case "vertex_data":
			if b.s.Vertex == nil {
				return invalid("pipeline %d uses vertex_data but the script has none", i)
			}
			k.SetSource(pipeline.VertexData)
		default:
			return invalid("pipeline %d: unknown source %q", i, sec.Source)
		}
		for name, entry := range sec.Entrypoints {
			stage, ok := pipeline.StageByName(name)
			if !ok {
				return invalid("pipeline %d: unknown stage %q", i, name)
			}
			k.SetEntrypoint(stage, entry)
		}

		names := make([]string, 0, len(sec.State))
		for name := range sec.State {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			if err := k.Set(name, stateValue(sec.State[name])); err != nil {
				return fmt.Errorf("pipeline %d: %w", i, err)
			}
		}
		b.s.Pipelines = append(b.s.Pipelines, k)
	}
	if len(b.s.Pipelines) == 0 {
		b.s.Pipelines = append(b.s.Pipelines, pipeline.DefaultKey())
	}
	return nil
}

// stateValue renders a TOML value in the text form Key.Set parses.
func stateValue(v any) string {
	switch v := v.(type) {
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// numbers converts a TOML array of integers and floats.
func numbers(vals []any) ([]float64, error) {
	out := make([]float64, len(vals))
	for i, v := range vals {
		switch v := v.(type) {
		case int64:
			out[i] = float64(v)
		case float64:
			out[i] = v
		default:
			return nil, fmt.Errorf("element %d (%v) is not a number", i, v)
		}
	}
	return out, nil
}

func encodeData(typeName string, vals []any) ([]byte, DataType, error) {
	t, ok := parseDataType(typeName)
	if !ok {
		return nil, 0, fmt.Errorf("unknown data type %q", typeName)
	}
	nums, err := numbers(vals)
	if err != nil {
		return nil, 0, err
	}
	data, err := t.Encode(nums)
	return data, t, err
}
