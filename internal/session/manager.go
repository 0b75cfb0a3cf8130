package session

import (
	"errors"
	"sync"

	"github.com/gogpu/vkrun/internal/device"
	"github.com/gogpu/vkrun/internal/pipeline"
	"github.com/gogpu/vkrun/internal/vk"
	"github.com/gogpu/vkrun/internal/window"
)

// ErrClosed is returned by Acquire after Close.
var ErrClosed = errors.New("vkrun: session manager closed")

// Manager holds the context, window and pipeline cache of the most recent
// script. It is safe for concurrent use, but scripts sharing a Manager run
// one at a time against the same device.
type Manager struct {
	mu sync.Mutex

	driver   vk.Driver
	opts     []device.Option
	external bool

	ctx    *device.Context
	win    *window.Window
	cache  *pipeline.Cache
	closed bool

	stats Stats
}

// Stats counts how often each layer was built.
type Stats struct {
	Contexts int
	Windows  int
	Caches   int
}

// NewOwned returns a manager that creates its own devices through drv.
// opts are passed to every device.New call.
func NewOwned(drv vk.Driver, opts ...device.Option) *Manager {
	return &Manager{driver: drv, opts: opts}
}

// NewExternal returns a manager over an adopted context. The manager takes
// its own reference on ctx; the caller keeps and releases theirs.
func NewExternal(ctx *device.Context) *Manager {
	return &Manager{driver: ctx.Driver(), ctx: ctx.Retain(), external: true}
}

// External reports whether the manager wraps a caller-owned device.
func (m *Manager) External() bool { return m.external }

// Acquire returns a target satisfying reqs and format, reusing whatever the
// previous call built where possible. A nil reqs means no requirements.
//
// Errors from device creation are *device.Error values and errors from
// window creation match window.ErrIncompatible when the format is not
// supported. After a failure the manager holds nothing for the failed
// layer and the next call retries.
func (m *Manager) Acquire(reqs *device.Requirements, format window.Format) (*Target, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if reqs == nil {
		reqs = device.NewRequirements()
	}

	if err := m.ensureContext(reqs); err != nil {
		return nil, err
	}
	if err := m.ensureWindow(format); err != nil {
		return nil, err
	}
	if err := m.ensureCache(); err != nil {
		return nil, err
	}

	return &Target{ctx: m.ctx.Retain(), win: m.win.Retain(), cache: m.cache}, nil
}

func (m *Manager) ensureContext(reqs *device.Requirements) error {
	if m.external {
		return nil
	}
	if m.ctx != nil && m.ctx.Requirements().Equal(reqs) {
		return nil
	}

	rebuild := m.ctx != nil
	m.dropContext()

	ctx, err := device.New(m.driver, reqs, m.opts...)
	if err != nil {
		return err
	}
	m.ctx = ctx
	m.stats.Contexts++
	if rebuild {
		device.Logger().Info("vkrun: context rebuilt", "requirements", reqs.String())
	}
	return nil
}

func (m *Manager) ensureWindow(format window.Format) error {
	if m.win != nil && m.win.Format() == format {
		return nil
	}
	m.dropWindow()

	win, err := window.New(m.ctx, format)
	if err != nil {
		return err
	}
	m.win = win
	m.stats.Windows++
	return nil
}

func (m *Manager) ensureCache() error {
	if m.cache != nil {
		return nil
	}
	cache, err := pipeline.NewCache(m.win)
	if err != nil {
		return err
	}
	m.cache = cache
	m.stats.Caches++
	return nil
}

func (m *Manager) dropCache() {
	if m.cache != nil {
		m.cache.Destroy()
		m.cache = nil
	}
}

func (m *Manager) dropWindow() {
	m.dropCache()
	if m.win != nil {
		m.win.Release()
		m.win = nil
	}
}

func (m *Manager) dropContext() {
	m.dropWindow()
	if m.ctx != nil {
		m.ctx.Release()
		m.ctx = nil
	}
}

// Stats returns how many contexts, windows and caches have been built.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Close drops the cache, the window and the context in that order.
// Targets still held by callers keep their context and window alive until
// released. Close is safe to call more than once.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.dropContext()
}
