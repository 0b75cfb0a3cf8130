package window

import (
	"fmt"

	"github.com/gogpu/vkrun/internal/vk"
)

// Format describes the off-screen framebuffer a script renders into.
// Formats are comparable; a window is rebuilt whenever the requested
// Format differs from its own.
type Format struct {
	Color vk.Format
	// DepthStencil is vk.FormatUndefined when the window has no
	// depth/stencil attachment.
	DepthStencil vk.Format
	Width        int
	Height       int
}

// DefaultFormat returns a 250x250 B8G8R8A8_UNORM target with no depth.
func DefaultFormat() Format {
	return Format{
		Color:  vk.FormatB8G8R8A8Unorm,
		Width:  250,
		Height: 250,
	}
}

// HasDepthStencil reports whether a depth/stencil attachment is requested.
func (f Format) HasDepthStencil() bool { return f.DepthStencil != vk.FormatUndefined }

func (f Format) String() string {
	if !f.HasDepthStencil() {
		return fmt.Sprintf("%s %dx%d", f.Color, f.Width, f.Height)
	}
	return fmt.Sprintf("%s+%s %dx%d", f.Color, f.DepthStencil, f.Width, f.Height)
}

// Stride returns the row size in bytes of the linear color buffer.
func (f Format) Stride() int { return f.Color.Size() * f.Width }
