// Package fake registers the in-memory driver as "fake". It runs every
// command against Go slices, so scripts that only clear and probe behave
// as on hardware while draws and dispatches leave memory untouched. It is
// meant for trying the command line without a GPU.
//
//	import _ "github.com/gogpu/vkrun/backend/fake"
package fake

import (
	"github.com/gogpu/vkrun"
	"github.com/gogpu/vkrun/internal/vk/fakevk"
)

func init() {
	vkrun.RegisterDriver(vkrun.DriverFake, func() (vkrun.Driver, error) {
		return fakevk.New(fakevk.Config{}), nil
	})
}
