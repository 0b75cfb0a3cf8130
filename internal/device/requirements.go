package device

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gogpu/vkrun/internal/vk"
)

// Requirements is the set of device capabilities a script needs. Two
// Requirements are interchangeable iff Equal reports true.
type Requirements struct {
	version      uint32
	extensions   map[string]struct{}
	baseFeatures map[string]struct{}
	extFeatures  map[string]struct{}
}

// NewRequirements returns requirements for Vulkan 1.0 with nothing else.
func NewRequirements() *Requirements {
	return &Requirements{
		version:      vk.MakeVersion(1, 0, 0),
		extensions:   make(map[string]struct{}),
		baseFeatures: make(map[string]struct{}),
		extFeatures:  make(map[string]struct{}),
	}
}

// SetVersion sets the minimum API version.
func (r *Requirements) SetVersion(major, minor, patch uint32) {
	r.version = vk.MakeVersion(major, minor, patch)
}

// Version returns the packed minimum API version.
func (r *Requirements) Version() uint32 { return r.version }

// Add records a requirement. Names starting with VK_ are extensions; other
// names must be a base feature or a known extension feature, and an
// extension feature also requires its extension.
func (r *Requirements) Add(name string) error {
	switch {
	case strings.HasPrefix(name, "VK_"):
		r.extensions[name] = struct{}{}
	case isBaseFeature(name):
		r.baseFeatures[name] = struct{}{}
	default:
		ext, ok := extensionFeatures[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownFeature, name)
		}
		r.extFeatures[name] = struct{}{}
		r.extensions[ext] = struct{}{}
	}
	return nil
}

// Extensions returns the required device extensions, sorted.
func (r *Requirements) Extensions() []string { return sortedKeys(r.extensions) }

// Features returns every required feature name, sorted.
func (r *Requirements) Features() []string {
	all := sortedKeys(r.baseFeatures)
	all = append(all, sortedKeys(r.extFeatures)...)
	slices.Sort(all)
	return all
}

// NeedsFeatureQuery reports whether checking needs
// vkGetPhysicalDeviceFeatures2, i.e. any extension feature is required.
func (r *Requirements) NeedsFeatureQuery() bool { return len(r.extFeatures) > 0 }

// Equal reports whether r and o require exactly the same capabilities.
func (r *Requirements) Equal(o *Requirements) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.version == o.version &&
		maps.Equal(r.extensions, o.extensions) &&
		maps.Equal(r.baseFeatures, o.baseFeatures) &&
		maps.Equal(r.extFeatures, o.extFeatures)
}

// Clone returns a deep copy.
func (r *Requirements) Clone() *Requirements {
	return &Requirements{
		version:      r.version,
		extensions:   maps.Clone(r.extensions),
		baseFeatures: maps.Clone(r.baseFeatures),
		extFeatures:  maps.Clone(r.extFeatures),
	}
}

func (r *Requirements) String() string {
	parts := []string{fmt.Sprintf("version=%d.%d.%d",
		vk.VersionMajor(r.version), vk.VersionMinor(r.version), vk.VersionPatch(r.version))}
	parts = append(parts, r.Extensions()...)
	parts = append(parts, r.Features()...)
	return strings.Join(parts, " ")
}

// Check verifies that a physical device satisfies r. It checks base
// features, then extensions, then extension features and finally the API
// version, and reports the first shortfall as an Incompatible *Error.
func (r *Requirements) Check(drv vk.InstanceFuncs, pd vk.PhysicalDevice) error {
	var features map[string]bool
	if len(r.baseFeatures) > 0 || len(r.extFeatures) > 0 {
		features = drv.GetPhysicalDeviceFeatures(pd)
	}

	for _, name := range sortedKeys(r.baseFeatures) {
		if !features[name] {
			return incompatible("Missing required feature: %s", name)
		}
	}

	if len(r.extensions) > 0 {
		available, res := drv.EnumerateDeviceExtensions(pd)
		if res != vk.Success {
			return failure(res, "vkEnumerateDeviceExtensionProperties failed")
		}
		for _, ext := range sortedKeys(r.extensions) {
			if !slices.Contains(available, ext) {
				return incompatible("Missing required extension: %s", ext)
			}
		}
	}

	for _, name := range sortedKeys(r.extFeatures) {
		if !features[name] {
			return incompatible("Missing required feature “%s” from extension “%s”",
				name, extensionFeatures[name])
		}
	}

	actual := drv.GetPhysicalDeviceProperties(pd).APIVersion
	if actual < r.version {
		return incompatible("Vulkan API version %d.%d.%d required but the driver reported %d.%d.%d",
			vk.VersionMajor(r.version), vk.VersionMinor(r.version), vk.VersionPatch(r.version),
			vk.VersionMajor(actual), vk.VersionMinor(actual), vk.VersionPatch(actual))
	}
	return nil
}

func sortedKeys(m map[string]struct{}) []string {
	return slices.Sorted(maps.Keys(m))
}
