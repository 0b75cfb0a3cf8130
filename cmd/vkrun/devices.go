package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/google/subcommands"

	"github.com/gogpu/vkrun"
	"github.com/gogpu/vkrun/internal/device"
	"github.com/gogpu/vkrun/internal/vk"
)

// devicesCmd implements subcommands.Command for the "devices" command.
type devicesCmd struct {
	driver   string
	features bool

	stdout io.Writer
}

func (*devicesCmd) Name() string     { return "devices" }
func (*devicesCmd) Synopsis() string { return "list the physical devices" }
func (*devicesCmd) Usage() string {
	return `devices [flags]
  Lists the physical devices with the index accepted by run -device-id.
`
}

func (d *devicesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&d.driver, "driver", "", "driver name; empty picks the system Vulkan loader")
	f.BoolVar(&d.features, "features", false, "also list supported features")
}

func (d *devicesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	var (
		drv vkrun.Driver
		err error
	)
	if d.driver != "" {
		drv, err = vkrun.OpenDriver(d.driver)
	} else {
		drv, _, err = vkrun.OpenDefaultDriver()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	infos, err := device.Enumerate(drv, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	d.print(infos)
	return subcommands.ExitSuccess
}

func (d *devicesCmd) print(infos []device.Info) {
	for _, info := range infos {
		p := info.Properties
		fmt.Fprintf(d.stdout, "%d: %s (%s, Vulkan %d.%d.%d)\n", info.Index, p.DeviceName, p.DeviceType,
			vk.VersionMajor(p.APIVersion), vk.VersionMinor(p.APIVersion), vk.VersionPatch(p.APIVersion))
		var heap vk.DeviceSize
		for _, h := range info.Memory.Heaps {
			heap += h.Size
		}
		fmt.Fprintf(d.stdout, "   %d queue families, %d memory types, %d MiB\n",
			len(info.Queues), len(info.Memory.Types), heap>>20)
		if d.features {
			var names []string
			for name, ok := range info.Features {
				if ok {
					names = append(names, name)
				}
			}
			slices.Sort(names)
			fmt.Fprintf(d.stdout, "   features: %s\n", strings.Join(names, " "))
		}
	}
}
