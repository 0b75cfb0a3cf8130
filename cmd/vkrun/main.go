// Command vkrun runs Vulkan test scripts.
//
//	vkrun run [flags] script.toml...
//	vkrun devices [-driver name]
//
// The exit status is 0 when every script passed or was skipped, 1 when a
// script failed and 2 on usage errors.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	_ "github.com/gogpu/vkrun/backend/fake"
	_ "github.com/gogpu/vkrun/backend/goki"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&runCmd{stdout: os.Stdout}, "")
	subcommands.Register(&devicesCmd{stdout: os.Stdout}, "")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
