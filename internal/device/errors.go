package device

import (
	"errors"
	"fmt"

	"github.com/gogpu/vkrun/internal/vk"
)

var (
	// ErrIncompatible matches any *Error of Kind Incompatible.
	ErrIncompatible = errors.New("vkrun: device incompatible with requirements")

	// ErrUnknownFeature is returned by Requirements.Add for names that are
	// neither extensions nor known features.
	ErrUnknownFeature = errors.New("vkrun: unknown feature")

	// ErrClosed is returned when a released context is used.
	ErrClosed = errors.New("vkrun: context released")
)

// Kind classifies a context creation error.
type Kind int

const (
	// Failure means something went wrong creating the context.
	Failure Kind = iota
	// Incompatible means the driver works but cannot run the script.
	Incompatible
)

func (k Kind) String() string {
	if k == Incompatible {
		return "incompatible"
	}
	return "failure"
}

// Error is returned while creating a context.
type Error struct {
	Kind Kind
	// Result is the failing driver result, or Success when the error is
	// not from a driver call.
	Result vk.Result
	Msg    string
}

func (e *Error) Error() string { return e.Msg }

// Is makes errors.Is(err, ErrIncompatible) match incompatible errors.
func (e *Error) Is(target error) bool {
	return target == ErrIncompatible && e.Kind == Incompatible
}

func incompatible(format string, args ...any) *Error {
	return &Error{Kind: Incompatible, Msg: fmt.Sprintf(format, args...)}
}

func failure(res vk.Result, format string, args ...any) *Error {
	return &Error{Kind: Failure, Result: res, Msg: fmt.Sprintf(format, args...)}
}

// combine merges the per-device errors from a device search. The result is
// a Failure only when every device failed outright.
func combine(errs []*Error) *Error {
	switch len(errs) {
	case 0:
		return incompatible("The Vulkan instance reported zero drivers")
	case 1:
		return errs[0]
	}
	kind := Failure
	msg := ""
	for i, e := range errs {
		if i > 0 {
			msg += "\n"
		}
		msg += fmt.Sprintf("%d: %s", i, e.Msg)
		if e.Kind == Incompatible {
			kind = Incompatible
		}
	}
	return &Error{Kind: kind, Msg: msg}
}
