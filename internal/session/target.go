package session

import (
	"sync/atomic"

	"github.com/gogpu/vkrun/internal/device"
	"github.com/gogpu/vkrun/internal/pipeline"
	"github.com/gogpu/vkrun/internal/window"
)

// Target is what one script runs against. It holds references on the
// context and window, so they stay valid if the manager rebuilds while the
// script is still running. The pipeline cache is owned by the manager and
// is only valid until the next Acquire or Close.
type Target struct {
	ctx      *device.Context
	win      *window.Window
	cache    *pipeline.Cache
	released atomic.Bool
}

func (t *Target) Context() *device.Context { return t.ctx }
func (t *Target) Window() *window.Window   { return t.win }
func (t *Target) Cache() *pipeline.Cache   { return t.cache }

// Release drops the target's references. It is safe to call more than once.
func (t *Target) Release() {
	if !t.released.CompareAndSwap(false, true) {
		return
	}
	t.win.Release()
	t.ctx.Release()
	t.cache = nil
}
