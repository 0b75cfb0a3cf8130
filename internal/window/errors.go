package window

import (
	"errors"
	"fmt"

	"github.com/gogpu/vkrun/internal/vk"
)

// ErrIncompatible matches a *FormatError. Scripts that hit it are skipped.
var ErrIncompatible = errors.New("vkrun: window format not supported by the device")

// FormatError reports a format the device cannot render to.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string { return e.Msg }

func (e *FormatError) Is(target error) bool { return target == ErrIncompatible }

// Error reports a failure while building a window.
type Error struct {
	// Op names the object being created, e.g. "vkRenderPass".
	Op     string
	Result vk.Result
	// Err is set when the failure came from a resource wrapper.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("Error creating %s: %s", e.Op, e.Result)
}

func (e *Error) Unwrap() error { return e.Err }
