package tester

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/vkrun/internal/script"
	"github.com/gogpu/vkrun/internal/vk"
)

// ErrProbeFailed is matched by every probe mismatch.
var ErrProbeFailed = errors.New("vkrun: probe failed")

// CommandError attaches the failing command to an error.
type CommandError struct {
	Index int
	Op    script.Op
	Err   error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %d (%s): %v", e.Index, e.Op, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// StepError reports a failed driver call while recording or submitting.
type StepError struct {
	Call   string
	Result vk.Result
}

func (e *StepError) Error() string { return e.Call + " failed: " + e.Result.String() }

func (e *StepError) Unwrap() error { return e.Result.Err() }

// ProbeError is a pixel that does not match the expected color. Only the
// first Components channels were compared.
type ProbeError struct {
	X, Y       int
	Components int
	Expected   [4]float64
	Observed   [4]float64
}

func (e *ProbeError) Error() string {
	n := e.Components
	if n <= 0 || n > len(e.Expected) {
		n = len(e.Expected)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Probe color at (%d,%d)\n  Expected:", e.X, e.Y)
	writeValues(&sb, e.Expected[:n])
	sb.WriteString("\n  Observed:")
	writeValues(&sb, e.Observed[:n])
	return sb.String()
}

func (e *ProbeError) Is(target error) bool { return target == ErrProbeFailed }

// BufferProbeError is a buffer element that does not match.
type BufferProbeError struct {
	Set, Binding uint32
	Offset       int
	Type         script.DataType
	Compare      script.Comparison
	Expected     float64
	Observed     float64
}

func (e *BufferProbeError) Error() string {
	return fmt.Sprintf("Buffer probe at %d:%d offset %d (%s)\n  Expected: %s %g\n  Observed: %g",
		e.Set, e.Binding, e.Offset, e.Type, e.Compare, e.Expected, e.Observed)
}

func (e *BufferProbeError) Is(target error) bool { return target == ErrProbeFailed }

func writeValues(sb *strings.Builder, vals []float64) {
	for _, v := range vals {
		fmt.Fprintf(sb, " %g", v)
	}
}
