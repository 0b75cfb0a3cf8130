package vkrun

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/vkrun/internal/device"
	"github.com/gogpu/vkrun/internal/pipeline"
	"github.com/gogpu/vkrun/internal/script"
	"github.com/gogpu/vkrun/internal/session"
	"github.com/gogpu/vkrun/internal/shader"
	"github.com/gogpu/vkrun/internal/tester"
	"github.com/gogpu/vkrun/internal/vk"
)

// Driver is the Vulkan entry point an Executor runs on.
type Driver = vk.Driver

// ExternalDevice identifies a device created and owned by the caller.
type ExternalDevice = device.External

// Script is a parsed test script.
type Script = script.Script

// LoadScript reads and parses a script file.
func LoadScript(path string) (*Script, error) { return script.Load(path) }

// ParseScript parses script source. name is used in diagnostics.
func ParseScript(name string, data []byte) (*Script, error) { return script.Parse(name, data) }

// Executor runs scripts one at a time. Consecutive scripts with the same
// requirements and framebuffer reuse the device, the render target and the
// pipeline cache. Use one Executor per goroutine to run scripts in
// parallel.
type Executor struct {
	mu       sync.Mutex
	cfg      Config
	manager  *session.Manager
	compiler *shader.Compiler
}

// Stats reports how much of an executor's state was reused.
type Stats struct {
	Session session.Stats
	Shaders shader.Stats
}

// NewExecutor returns an executor that creates its own devices through drv.
func NewExecutor(drv Driver, opts ...Option) *Executor {
	cfg := newConfig(opts)
	devOpts := []device.Option{
		device.WithDeviceID(cfg.DeviceID),
		device.WithAlwaysFlushMemory(cfg.AlwaysFlushMemory),
		device.WithApplicationName("vkrun"),
	}
	return &Executor{
		cfg:      cfg,
		manager:  session.NewOwned(drv, devOpts...),
		compiler: newCompiler(cfg),
	}
}

// NewExternalExecutor returns an executor that runs every script on a
// device the caller created. Scripts are not checked against the device's
// features. The caller must keep the device alive until Close.
func NewExternalExecutor(drv Driver, ext ExternalDevice, opts ...Option) (*Executor, error) {
	cfg := newConfig(opts)
	ctx, err := device.Adopt(drv, ext, device.WithAlwaysFlushMemory(cfg.AlwaysFlushMemory))
	if err != nil {
		return nil, err
	}
	m := session.NewExternal(ctx)
	ctx.Release()
	return &Executor{cfg: cfg, manager: m, compiler: newCompiler(cfg)}, nil
}

func newConfig(opts []Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func newCompiler(cfg Config) *shader.Compiler {
	opts := []shader.Option{shader.WithShards(cfg.ShaderCacheShards)}
	if cfg.WGSLCompiler != nil {
		opts = append(opts, shader.WithWGSLCompiler(cfg.WGSLCompiler))
	}
	return shader.New(opts...)
}

// ExecuteFile loads and runs the script at path.
func (e *Executor) ExecuteFile(path string) Result {
	s, err := LoadScript(path)
	if err != nil {
		return e.report(&ScriptError{Script: path, Stage: StageLoad, Err: err})
	}
	return e.ExecuteScript(s)
}

// ExecuteScript runs s and reports any failure to the configured error
// writer.
func (e *Executor) ExecuteScript(s *Script) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.report(e.execute(s))
}

func (e *Executor) execute(s *Script) error {
	fail := func(stage Stage, err error) error {
		return &ScriptError{Script: s.Name, Stage: stage, Err: err}
	}

	shaders, err := tester.CompileShaders(e.compiler, s)
	if err != nil {
		return fail(StageShader, err)
	}

	tg, err := e.manager.Acquire(s.Requirements, s.Format)
	if err != nil {
		return fail(acquireStage(err), err)
	}
	defer tg.Release()

	t, err := tester.New(tg, s, shaders)
	if err != nil {
		return fail(StagePipeline, err)
	}
	defer t.Close()

	runErr := t.Run()
	if e.cfg.Inspector != nil {
		e.cfg.Inspector.Inspect(inspectData(s, t))
	}
	if runErr != nil {
		return fail(StageTest, runErr)
	}
	return nil
}

func acquireStage(err error) Stage {
	var de *device.Error
	var ce *pipeline.CreateError
	switch {
	case errors.As(err, &de), errors.Is(err, session.ErrClosed):
		return StageContext
	case errors.As(err, &ce):
		return StagePipeline
	}
	return StageWindow
}

func inspectData(s *Script, t *tester.Tester) *InspectData {
	data, stride := t.ColorBuffer()
	f := s.Format
	d := &InspectData{
		Script: s.Name,
		Color: Image{
			Width:  f.Width,
			Height: f.Height,
			Stride: stride,
			Format: f.Color.String(),
			Data:   data,
			format: f.Color,
		},
	}
	for _, b := range t.Buffers() {
		d.Buffers = append(d.Buffers, Buffer(b))
	}
	return d
}

func (e *Executor) report(err error) Result {
	res := ResultOf(err)
	if err == nil {
		return res
	}
	if res == Skip {
		slogger().Warn("vkrun: script skipped", "err", err)
	}
	if w := e.cfg.ErrorWriter; w != nil {
		fmt.Fprintf(w, "%s: %v\n", res, err)
	}
	return res
}

// Stats returns reuse counters for the executor's device state and shader
// cache.
func (e *Executor) Stats() Stats {
	return Stats{Session: e.manager.Stats(), Shaders: e.compiler.Stats()}
}

// Close destroys everything the executor created. An external device is
// left alive.
func (e *Executor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.manager.Close()
}
