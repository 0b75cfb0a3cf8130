// Package resource wraps native buffers, device memory and host mappings.
//
// Every wrapper holds a reference on the device.Context that created it and
// releases its native object exactly once on Close. Closing a wrapper also
// drops its context reference, so a context stays alive until its last
// resource is gone.
//
// The allocator picks the first memory type admitted by the resource's
// memory requirements whose property flags include the requested ones. The
// chosen index is kept on DeviceMemory because Flush needs it to decide
// whether a host write has to be made visible explicitly.
package resource
