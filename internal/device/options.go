package device

// Option configures context creation.
type Option func(*options)

type options struct {
	deviceID    int
	alwaysFlush bool
	appName     string
}

func defaultOptions() options {
	return options{deviceID: -1, appName: "vkrun"}
}

// WithDeviceID selects the physical device by enumeration index. A negative
// id picks the first compatible device.
func WithDeviceID(id int) Option {
	return func(o *options) {
		o.deviceID = id
	}
}

// WithAlwaysFlushMemory makes every host write flush even when the memory
// type is host coherent.
func WithAlwaysFlushMemory(on bool) Option {
	return func(o *options) {
		o.alwaysFlush = on
	}
}

// WithApplicationName sets the name reported to the driver.
func WithApplicationName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.appName = name
		}
	}
}
