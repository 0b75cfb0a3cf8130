// Package vkrun runs Vulkan test scripts.
//
// A script declares the device features it needs, a framebuffer format,
// shaders, buffers, pipeline state and a list of commands that draw,
// dispatch and probe the results. An Executor loads scripts and runs them
// one after another, reusing the device, the render target and compiled
// pipelines between scripts whenever the next script asks for the same
// thing.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/vkrun"
//	    _ "github.com/gogpu/vkrun/backend/goki"
//	)
//
//	drv, err := vkrun.OpenDriver("vulkan")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ex := vkrun.NewExecutor(drv, vkrun.WithDeviceID(0))
//	defer ex.Close()
//
//	switch ex.ExecuteFile("clear.toml") {
//	case vkrun.Pass:
//	case vkrun.Skip:
//	    // the device cannot run the script
//	case vkrun.Fail:
//	    // details were written to the configured error writer
//	}
//
// # Results
//
// A script passes when every command succeeds and every probe matches. It
// is skipped when the device lacks a required feature or extension, or
// cannot render to the requested framebuffer format. Any other error,
// including probe mismatches, fails it.
//
// # External Devices
//
// NewExternalExecutor runs scripts on a device created by the caller.
// Requirements are not checked in that mode: the caller is responsible for
// enabling what the scripts need. The device is never destroyed by vkrun.
//
// # Logging
//
// vkrun is silent by default. SetLogger installs a *slog.Logger for the
// package and its internal layers.
package vkrun

// Version is the current version of vkrun.
const Version = "0.1.0"
