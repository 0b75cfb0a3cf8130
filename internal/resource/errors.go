package resource

import (
	"errors"
	"fmt"

	"github.com/gogpu/vkrun/internal/vk"
)

var (
	// ErrBufferCreation matches every *BufferCreationError.
	ErrBufferCreation = errors.New("vkrun: buffer creation failed")

	// ErrAllocation matches every *AllocationError.
	ErrAllocation = errors.New("vkrun: memory allocation failed")

	// ErrMap matches every *MapError.
	ErrMap = errors.New("vkrun: memory map failed")

	// ErrFlush matches every *FlushError.
	ErrFlush = errors.New("vkrun: mapped memory range flush failed")

	// ErrReleased is returned when a closed wrapper is used.
	ErrReleased = errors.New("vkrun: resource has been released")
)

// BufferCreationError reports a failed vkCreateBuffer.
type BufferCreationError struct {
	Size   vk.DeviceSize
	Usage  vk.BufferUsageFlags
	Result vk.Result
}

func (e *BufferCreationError) Error() string {
	return fmt.Sprintf("Error creating vkBuffer (size %d, usage %#x): %s", e.Size, uint32(e.Usage), e.Result)
}

func (e *BufferCreationError) Is(target error) bool { return target == ErrBufferCreation }

// AllocationReason says which step of an allocation failed.
type AllocationReason int

const (
	// NoAdmissibleType means the resource admits no memory type at all.
	NoAdmissibleType AllocationReason = iota
	// NoMatchingType means admissible types exist but none has the
	// requested property flags.
	NoMatchingType
	// AllocateFailed means vkAllocateMemory reported an error.
	AllocateFailed
	// BindFailed means binding the new allocation to the resource failed.
	BindFailed
)

// AllocationError reports a failed allocation. Result is Success for the
// two memory type search failures.
type AllocationError struct {
	Reason AllocationReason
	Flags  vk.MemoryPropertyFlags
	Bits   uint32
	Result vk.Result
}

func (e *AllocationError) Error() string {
	switch e.Reason {
	case NoAdmissibleType:
		return "Couldn’t find suitable memory type to allocate buffer: the resource admits no memory type"
	case NoMatchingType:
		return fmt.Sprintf("Couldn’t find suitable memory type to allocate buffer: no admissible type (bits %#x) has %s",
			e.Bits, e.Flags)
	case BindFailed:
		return fmt.Sprintf("binding device memory failed: %s", e.Result)
	default:
		return fmt.Sprintf("vkAllocateMemory failed: %s", e.Result)
	}
}

func (e *AllocationError) Is(target error) bool { return target == ErrAllocation }

// MapError reports a failed vkMapMemory.
type MapError struct {
	Result vk.Result
	Msg    string
}

func (e *MapError) Error() string {
	if e.Msg != "" {
		return "vkMapMemory failed: " + e.Msg
	}
	return "vkMapMemory failed: " + e.Result.String()
}

func (e *MapError) Is(target error) bool { return target == ErrMap }

// FlushError reports a failed flush or invalidate of a mapped range.
type FlushError struct {
	// Op is "flush" or "invalidate".
	Op     string
	Result vk.Result
}

func (e *FlushError) Error() string {
	if e.Op == "invalidate" {
		return "vkInvalidateMappedMemoryRanges failed: " + e.Result.String()
	}
	return "vkFlushMappedMemoryRanges failed: " + e.Result.String()
}

func (e *FlushError) Is(target error) bool { return target == ErrFlush }

// Unwrap exposes the driver result.
func (e *FlushError) Unwrap() error { return e.Result.Err() }
