package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/vkrun"
)

// runCmd implements subcommands.Command for the "run" command.
type runCmd struct {
	jobs          int
	deviceID      int
	alwaysFlush   bool
	configPath    string
	inspectDir    string
	inspectFormat string
	driver        string
	verbose       bool

	stdout io.Writer
	stderr io.Writer
	// set records the flags given on the command line.
	set map[string]bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run test scripts" }
func (*runCmd) Usage() string {
	return `run [flags] <script.toml>...
  Runs each script and prints PASS, FAIL or SKIP for it, then a summary.
`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&r.jobs, "j", runtime.NumCPU(), "number of scripts to run in parallel")
	f.IntVar(&r.deviceID, "device-id", -1, "physical device index; -1 picks the first compatible device")
	f.BoolVar(&r.alwaysFlush, "always-flush", false, "flush mapped memory even when it is coherent")
	f.StringVar(&r.configPath, "config", "", "TOML configuration file")
	f.StringVar(&r.inspectDir, "inspect", "", "write the color buffer and buffers of every script into this directory")
	f.StringVar(&r.inspectFormat, "inspect-format", "png", "image format for -inspect: png, bmp or tiff")
	f.StringVar(&r.driver, "driver", "", "driver name; empty picks the system Vulkan loader")
	f.BoolVar(&r.verbose, "v", false, "log debug output to stderr")
}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	r.set = make(map[string]bool)
	f.Visit(func(fl *flag.Flag) { r.set[fl.Name] = true })
	setupLogging(r.verbose)

	stderr := r.stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	cfg, err := r.config()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return subcommands.ExitUsageError
	}
	cfg.ErrorWriter = &lockedWriter{w: stderr}

	c, err := r.run(ctx, cfg, f.Args())
	if err != nil {
		fmt.Fprintln(stderr, err)
		return subcommands.ExitFailure
	}
	if c.fail > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// config loads the file or environment configuration and applies the
// flags that were given explicitly.
func (r *runCmd) config() (vkrun.Config, error) {
	var (
		cfg vkrun.Config
		err error
	)
	if r.configPath != "" {
		cfg, err = vkrun.LoadConfig(r.configPath)
	} else {
		cfg, err = vkrun.ConfigFromEnv(os.LookupEnv)
	}
	if err != nil {
		return cfg, err
	}
	if r.set["device-id"] {
		cfg.DeviceID = r.deviceID
	}
	if r.set["always-flush"] {
		cfg.AlwaysFlushMemory = r.alwaysFlush
	}
	if r.inspectDir != "" {
		cfg.Inspector = &vkrun.FileInspector{Dir: r.inspectDir, Format: r.inspectFormat}
	}
	return cfg, nil
}

func (r *runCmd) openDriver() (vkrun.Driver, error) {
	if r.driver != "" {
		return vkrun.OpenDriver(r.driver)
	}
	drv, name, err := vkrun.OpenDefaultDriver()
	if err == nil {
		vkrun.Logger().Debug("vkrun: using driver", "driver", name)
	}
	return drv, err
}

// run executes the scripts on r.jobs workers. Each worker owns a driver and
// an executor, so a device is reused by the scripts of one worker only.
func (r *runCmd) run(ctx context.Context, cfg vkrun.Config, scripts []string) (counts, error) {
	out := newPrinter(r.stdout)
	workers := max(1, min(r.jobs, len(scripts)))

	paths := make(chan string)
	var (
		mu    sync.Mutex
		total counts
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(paths)
		for _, p := range scripts {
			select {
			case paths <- p:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	for range workers {
		g.Go(func() error {
			drv, err := r.openDriver()
			if err != nil {
				return err
			}
			exec := vkrun.NewExecutor(drv, vkrun.WithConfig(cfg))
			defer exec.Close()
			for p := range paths {
				res := exec.ExecuteFile(p)
				mu.Lock()
				total.add(res)
				out.result(p, res)
				mu.Unlock()
			}
			return nil
		})
	}
	err := g.Wait()
	out.summary(total)
	return total, err
}

// lockedWriter serializes the diagnostics written by parallel executors.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
