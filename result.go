package vkrun

import (
	"errors"
	"fmt"

	"github.com/gogpu/vkrun/internal/device"
	"github.com/gogpu/vkrun/internal/window"
)

// Result is the outcome of one script.
type Result int

const (
	Pass Result = iota
	Fail
	Skip
)

func (r Result) String() string {
	switch r {
	case Pass:
		return "pass"
	case Skip:
		return "skip"
	}
	return "fail"
}

// Merge combines two results: any failure fails, and a skip only wins
// over a pass.
func (r Result) Merge(o Result) Result {
	if r == Fail || o == Fail {
		return Fail
	}
	if r == Skip || o == Skip {
		return Skip
	}
	return Pass
}

// Stage names the step of script execution that failed.
type Stage string

const (
	StageLoad     Stage = "load"
	StageContext  Stage = "context"
	StageWindow   Stage = "window"
	StageShader   Stage = "shader"
	StagePipeline Stage = "pipeline"
	StageTest     Stage = "test"
)

// ScriptError is the error reported for a script that did not pass.
type ScriptError struct {
	Script string
	Stage  Stage
	Err    error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Script, e.Stage, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// ResultOf maps an execution error to a Result. Devices missing a required
// feature and unsupported framebuffer formats skip; everything else fails.
func ResultOf(err error) Result {
	switch {
	case err == nil:
		return Pass
	case errors.Is(err, device.ErrIncompatible), errors.Is(err, window.ErrIncompatible):
		return Skip
	}
	return Fail
}
