package pipeline

import (
	"errors"
	"fmt"

	"github.com/gogpu/vkrun/internal/vk"
)

// Pipeline errors.
var (
	// ErrUnknownProperty is matched by a PropertyError for a name that is
	// not in the property table.
	ErrUnknownProperty = errors.New("vkrun: unknown pipeline property")

	// ErrInvalidValue is matched by a PropertyError whose value could not
	// be parsed for the property's type.
	ErrInvalidValue = errors.New("vkrun: invalid pipeline property value")

	// ErrMissingShader is returned when a pipeline needs a stage the script
	// provides no code for.
	ErrMissingShader = errors.New("vkrun: missing shader stage")

	// ErrNoLayout is returned by GetOrCreate for a request without a
	// pipeline layout.
	ErrNoLayout = errors.New("vkrun: pipeline request has no layout")

	// ErrCacheDestroyed is returned by a Cache after Destroy.
	ErrCacheDestroyed = errors.New("vkrun: pipeline cache destroyed")
)

// PropertyError reports a failed Key.Set.
type PropertyError struct {
	Name    string
	Value   string
	Invalid bool
}

func (e *PropertyError) Error() string {
	if e.Invalid {
		return "Invalid value: " + e.Value
	}
	return "Unknown property: " + e.Name
}

func (e *PropertyError) Is(target error) bool {
	if e.Invalid {
		return target == ErrInvalidValue
	}
	return target == ErrUnknownProperty
}

// CreateError reports a failed driver call while building pipeline
// objects. Object names the Vulkan object being created.
type CreateError struct {
	Object string
	Result vk.Result
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("Error creating %s: %s", e.Object, e.Result)
}

func (e *CreateError) Unwrap() error { return e.Result.Err() }
