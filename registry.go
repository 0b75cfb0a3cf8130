package vkrun

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
)

// DriverFactory opens a driver. It is called once per OpenDriver.
type DriverFactory func() (Driver, error)

// Well-known driver names.
const (
	DriverVulkan = "vulkan"
	DriverFake   = "fake"
)

// ErrUnknownDriver is returned by OpenDriver for names nobody registered.
var ErrUnknownDriver = errors.New("vkrun: unknown driver")

// ErrNoDriver is returned by OpenDefaultDriver when no driver could be
// opened.
var ErrNoDriver = errors.New("vkrun: no driver available")

var (
	registryMu     sync.RWMutex
	drivers        = make(map[string]DriverFactory)
	driverPriority = []string{DriverVulkan}
)

// RegisterDriver registers a driver factory under name, replacing any
// previous one. Driver packages call it from init.
func RegisterDriver(name string, factory DriverFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	drivers[name] = factory
}

// UnregisterDriver removes a driver. It is meant for tests.
func UnregisterDriver(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(drivers, name)
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OpenDriver opens the driver registered under name.
func OpenDriver(name string) (Driver, error) {
	registryMu.RLock()
	factory, ok := drivers[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownDriver, name)
	}
	return factory()
}

// OpenDefaultDriver opens the first driver that works, trying the Vulkan
// loader first. The fake driver is never chosen.
func OpenDefaultDriver() (Driver, string, error) {
	names := Drivers()
	order := make([]string, 0, len(names))
	for _, name := range driverPriority {
		if slices.Contains(names, name) {
			order = append(order, name)
		}
	}
	for _, name := range names {
		if name != DriverFake && !slices.Contains(driverPriority, name) {
			order = append(order, name)
		}
	}

	var errs []error
	for _, name := range order {
		drv, err := OpenDriver(name)
		if err == nil {
			return drv, name, nil
		}
		slogger().Debug("vkrun: driver unavailable", "driver", name, "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return nil, "", errors.Join(append([]error{ErrNoDriver}, errs...)...)
}
