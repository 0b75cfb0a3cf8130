package main

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/vkrun"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

// printer writes per-script lines and the final summary.
type printer struct {
	w     io.Writer
	color bool
	p     *message.Printer
}

func newPrinter(w io.Writer) *printer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
	}
	return &printer{w: w, color: color, p: message.NewPrinter(language.English)}
}

func (p *printer) label(r vkrun.Result) string {
	var text, code string
	switch r {
	case vkrun.Pass:
		text, code = "PASS", ansiGreen
	case vkrun.Skip:
		text, code = "SKIP", ansiYellow
	default:
		text, code = "FAIL", ansiRed
	}
	if !p.color {
		return text
	}
	return code + text + ansiReset
}

func (p *printer) result(name string, r vkrun.Result) {
	p.p.Fprintf(p.w, "%s %s\n", p.label(r), name)
}

// summary prints the counts with digit grouping, e.g. "1,204 passed".
func (p *printer) summary(c counts) {
	p.p.Fprintf(p.w, "%d passed, %d failed, %d skipped\n", c.pass, c.fail, c.skip)
}

// counts tallies results by kind.
type counts struct {
	pass, fail, skip int
}

func (c *counts) add(r vkrun.Result) {
	switch r {
	case vkrun.Pass:
		c.pass++
	case vkrun.Skip:
		c.skip++
	default:
		c.fail++
	}
}

// setupLogging sends vkrun logs to stderr. Verbose enables debug records.
func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	vkrun.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
