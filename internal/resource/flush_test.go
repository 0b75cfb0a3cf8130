package resource

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/vkrun/internal/vk"
)

func TestFlushDecisionTable(t *testing.T) {
	tests := []struct {
		name        string
		coherent    bool
		alwaysFlush bool
		wantFlush   bool
	}{
		{"non-coherent", false, false, true},
		{"non-coherent forced", false, true, true},
		{"coherent", true, false, false},
		{"coherent forced", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := hostVisible
			if tt.coherent {
				flags |= hostCoherent
			}
			drv, ctx := mockContext(t, []vk.MemoryPropertyFlags{flags}, tt.alwaysFlush)
			defer ctx.Release()

			const mem = vk.DeviceMemory(42)
			if err := Flush(ctx, 0, mem, 16, 24); err != nil {
				t.Fatalf("Flush: %v", err)
			}

			var want []vk.MappedMemoryRange
			if tt.wantFlush {
				want = []vk.MappedMemoryRange{{Memory: mem, Offset: 16, Size: 24}}
			}
			if diff := cmp.Diff(want, drv.Flushes()); diff != "" {
				t.Errorf("flushes mismatch (-want +got):\n%s", diff)
			}
			if got := NeedsFlush(ctx, 0); got != tt.wantFlush {
				t.Errorf("NeedsFlush() = %v, want %v", got, tt.wantFlush)
			}
		})
	}
}

func TestFlushError(t *testing.T) {
	drv, ctx := mockContext(t, []vk.MemoryPropertyFlags{hostVisible}, false)
	defer ctx.Release()

	drv.Fail("FlushMappedMemoryRanges", vk.ErrorOutOfDeviceMemory)
	err := Flush(ctx, 0, 7, 0, vk.WholeSize)

	var fe *FlushError
	if !errors.As(err, &fe) {
		t.Fatalf("Flush() error = %v, want *FlushError", err)
	}
	if fe.Result != vk.ErrorOutOfDeviceMemory {
		t.Errorf("Result = %v, want %v", fe.Result, vk.ErrorOutOfDeviceMemory)
	}
	if !errors.Is(err, ErrFlush) {
		t.Error("FlushError should match ErrFlush")
	}
}

func TestInvalidateSkipsCoherent(t *testing.T) {
	drv, ctx := mockContext(t, []vk.MemoryPropertyFlags{hostVisible | hostCoherent, hostVisible | hostCached}, true)
	defer ctx.Release()

	if err := Invalidate(ctx, 0, 1, 0, vk.WholeSize); err != nil {
		t.Fatal(err)
	}
	if err := Invalidate(ctx, 1, 2, 0, vk.WholeSize); err != nil {
		t.Fatal(err)
	}
	want := []vk.MappedMemoryRange{{Memory: 2, Offset: 0, Size: vk.WholeSize}}
	if diff := cmp.Diff(want, drv.Invalidates()); diff != "" {
		t.Errorf("invalidates mismatch (-want +got):\n%s", diff)
	}
}
