// Package ui renders the line-oriented play surface. Narrative output
// goes to the narrative writer (stdout in production) while chrome
// (banner, prompt, validation reports, errors) goes to the chrome
// writer (stderr), so piping a session captures clean story text.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// ANSI color codes.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	yellow = "\033[33m"
	green  = "\033[32m"
	red    = "\033[31m"
	cyan   = "\033[36m"
)

// Printer writes the two output streams of a play session.
type Printer struct {
	narrative io.Writer
	chrome    io.Writer
	color     bool
}

// New returns a Printer over stdout/stderr.
func New(color bool) *Printer {
	return &Printer{narrative: os.Stdout, chrome: os.Stderr, color: color}
}

// NewWithWriters returns a Printer over the given writers, used by
// tests and by the scenario command when capturing output.
func NewWithWriters(narrative, chrome io.Writer, color bool) *Printer {
	return &Printer{narrative: narrative, chrome: chrome, color: color}
}

// paint wraps s in an ANSI code when color is enabled. Format verbs in
// s survive, so painted strings can feed Fprintf.
func (p *Printer) paint(code, s string) string {
	if !p.color {
		return s
	}
	return code + s + reset
}

// Banner prints the world title box.
func (p *Printer) Banner(title string) {
	line := strings.Repeat("═", utf8.RuneCountInString(title)+4)
	fmt.Fprintln(p.chrome, p.paint(bold+cyan, "  ╔"+line+"╗"))
	fmt.Fprintln(p.chrome, p.paint(bold+cyan, "  ║  ")+p.paint(bold, title)+p.paint(bold+cyan, "  ║"))
	fmt.Fprintln(p.chrome, p.paint(bold+cyan, "  ╚"+line+"╝"))
	fmt.Fprintln(p.chrome, p.paint(dim, `  type "help" for commands`))
	fmt.Fprintln(p.chrome)
}

// Prompt prints the loop clock prompt. The final stretch of a loop
// turns it yellow.
func (p *Printer) Prompt(loop, counter, threshold int, warning bool) {
	color := cyan
	if warning {
		color = yellow
	}
	fmt.Fprintf(p.chrome, p.paint(bold+color, "[loop %d · %d/%d] > "), loop, counter, threshold)
}

// Narrative prints one command's story output followed by a blank
// line. Empty output prints nothing.
func (p *Printer) Narrative(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	fmt.Fprintln(p.narrative, text)
	fmt.Fprintln(p.narrative)
}

// Error prints a recoverable command failure.
func (p *Printer) Error(err error) {
	fmt.Fprintf(p.chrome, p.paint(red+bold, "error: ")+"%v\n", err)
}

// Info prints dim side-channel text.
func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.chrome, p.paint(dim, msg))
}

// ValidateResult prints the validation outcome for a world directory.
func (p *Printer) ValidateResult(dir string, problems []string) {
	if len(problems) == 0 {
		fmt.Fprintf(p.chrome, p.paint(green+bold, "✓ world %q")+" — no problems\n", dir)
		return
	}
	fmt.Fprintf(p.chrome, p.paint(red+bold, "✗ world %q")+" — %d problem(s):\n", dir, len(problems))
	for _, prob := range problems {
		fmt.Fprintf(p.chrome, "  "+p.paint(red, "•")+" %s\n", prob)
	}
}

// WorldStats prints content shape metrics under a validation result.
func (p *Printer) WorldStats(title string, entries, locations, npcs, quantum int) {
	fmt.Fprintln(p.chrome, p.paint(bold, title))
	fmt.Fprintf(p.chrome, "  entries:   %d\n", entries)
	fmt.Fprintf(p.chrome, "  locations: %d\n", locations)
	fmt.Fprintf(p.chrome, "  npcs:      %d\n", npcs)
	fmt.Fprintf(p.chrome, "  quantum:   %d\n", quantum)
}

// ChainDepth prints the longest prerequisite chain.
func (p *Printer) ChainDepth(depth int, endsAt string) {
	if endsAt == "" {
		return
	}
	fmt.Fprintf(p.chrome, "  deepest chain: %d (ends at %s)\n", depth, endsAt)
}

// Threads prints the independent knowledge threads, one arrow chain
// per line.
func (p *Printer) Threads(threads [][]string) {
	fmt.Fprintf(p.chrome, p.paint(bold, "knowledge threads:")+" %d\n", len(threads))
	for i, th := range threads {
		fmt.Fprintf(p.chrome, "  thread %d: %s\n", i, strings.Join(th, " -> "))
	}
}

// UnlockOrder prints entry ids in a valid prerequisite order.
func (p *Printer) UnlockOrder(order []string) {
	fmt.Fprintln(p.chrome, p.paint(bold, "unlock order:"))
	for i, id := range order {
		fmt.Fprintf(p.chrome, "  %2d. %s\n", i+1, id)
	}
}

// ScriptReport prints the outcome of one scenario run.
func (p *Printer) ScriptReport(name string, steps int, failures []string) {
	if len(failures) == 0 {
		fmt.Fprintf(p.chrome, p.paint(green+bold, "✓ scenario %q")+" — %d step(s), all expectations held\n", name, steps)
		return
	}
	fmt.Fprintf(p.chrome, p.paint(red+bold, "✗ scenario %q")+" — %d failure(s):\n", name, len(failures))
	for _, f := range failures {
		fmt.Fprintf(p.chrome, "  "+p.paint(red, "•")+" %s\n", f)
	}
}
