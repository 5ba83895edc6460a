// Package script runs scripted playthroughs against the session
// engine. A scenario file names a seed, a flow of command lines with
// per-step expectations, and final assertions over the ship's log.
// Scenarios double as conformance checks for shipped worlds and as
// reproducible reports for puzzle bugs: the seed fixes the quantum
// RNG, so a failing flow replays identically.
package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/papapumpkin/supernova/internal/archive"
	"github.com/papapumpkin/supernova/internal/dialogue"
	"github.com/papapumpkin/supernova/internal/session"
	"github.com/papapumpkin/supernova/internal/world"
)

// Scenario is one parsed scenario file.
type Scenario struct {
	// Name identifies the scenario in reports.
	Name string `yaml:"name"`
	// Description is free text for the reader.
	Description string `yaml:"description,omitempty"`
	// Seed fixes the quantum RNG. Zero draws a fresh seed, which makes
	// observe-dependent flows nondeterministic; scenarios that touch
	// quantum objects should set it.
	Seed int64 `yaml:"seed,omitempty"`
	// ActionsPerLoop overrides the world's action budget when positive.
	ActionsPerLoop int `yaml:"actions_per_loop,omitempty"`
	// Flow is the command sequence, run in order.
	Flow []Step `yaml:"flow"`
	// Final holds assertions checked after the whole flow ran.
	Final *Final `yaml:"final,omitempty"`
}

// Step is one command line plus its expectations.
type Step struct {
	Cmd string `yaml:"cmd"`
	// Expect validates the step's outcome. Nil means the step must
	// simply succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect validates a single step. Zero-valued fields assert nothing.
type Expect struct {
	// Contains lists substrings the narrative output must include.
	Contains []string `yaml:"contains,omitempty"`
	// Error names the expected failure kind; empty means the step must
	// succeed. Known kinds: usage, unknown_command, not_found, locked,
	// not_unlocked, not_authorized, unreachable, ended.
	Error string `yaml:"error,omitempty"`
	// Warning asserts the supernova warning crossed during this step.
	Warning bool `yaml:"warning,omitempty"`
	// Reset asserts a loop reset completed during this step.
	Reset bool `yaml:"reset,omitempty"`
	// Ended asserts the session concluded on this step.
	Ended bool `yaml:"ended,omitempty"`
	// Loop, when positive, asserts the loop index after the step.
	Loop int `yaml:"loop,omitempty"`
}

// Final holds assertions over the finished session.
type Final struct {
	// Discovered lists entry ids that must be in the ship's log.
	Discovered []string `yaml:"discovered,omitempty"`
	// MinPercent is a completion floor, 0-100.
	MinPercent int `yaml:"min_percent,omitempty"`
	// ShipUnlocked, when set, asserts the launch authorization flag.
	ShipUnlocked *bool `yaml:"ship_unlocked,omitempty"`
	// Loop, when positive, asserts the final loop index.
	Loop int `yaml:"loop,omitempty"`
}

// errorKinds maps the symbolic failure names scenarios use onto the
// engine's sentinel errors.
var errorKinds = map[string]func(error) bool{
	"usage":           func(err error) bool { return errors.Is(err, session.ErrUsage) },
	"unknown_command": func(err error) bool { return errors.Is(err, session.ErrUnknownCommand) },
	"not_found": func(err error) bool {
		return errors.Is(err, session.ErrNotFound) ||
			errors.Is(err, archive.ErrNotFound) ||
			errors.Is(err, dialogue.ErrUnknownNPC) ||
			errors.Is(err, dialogue.ErrUnknownTopic)
	},
	"locked":         func(err error) bool { return errors.Is(err, archive.ErrLocked) },
	"not_unlocked":   func(err error) bool { return errors.Is(err, dialogue.ErrNotUnlocked) },
	"not_authorized": func(err error) bool { return errors.Is(err, session.ErrNotAuthorized) },
	"unreachable":    func(err error) bool { return errors.Is(err, session.ErrUnreachable) },
	"ended":          func(err error) bool { return errors.Is(err, session.ErrEnded) },
}

// knownKinds returns the sorted kind names, for error messages.
func knownKinds() string {
	names := make([]string, 0, len(errorKinds))
	for k := range errorKinds {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// Load reads and parses one scenario file. Unknown fields are
// rejected, which catches typos like "expects:" before a flow silently
// asserts nothing.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	return Parse(data)
}

// Parse decodes scenario bytes with strict field checking.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("script: parse: %w", err)
	}
	if err := validate(&sc); err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	return &sc, nil
}

func validate(sc *Scenario) error {
	if sc.Name == "" {
		return errors.New("name is required")
	}
	if len(sc.Flow) == 0 {
		return errors.New("flow is required and must be non-empty")
	}
	for i, step := range sc.Flow {
		if strings.TrimSpace(step.Cmd) == "" {
			return fmt.Errorf("flow[%d]: cmd is required", i)
		}
		if step.Expect == nil || step.Expect.Error == "" {
			continue
		}
		if _, ok := errorKinds[step.Expect.Error]; !ok {
			return fmt.Errorf("flow[%d]: unknown error kind %q (known: %s)", i, step.Expect.Error, knownKinds())
		}
	}
	if sc.Final != nil && (sc.Final.MinPercent < 0 || sc.Final.MinPercent > 100) {
		return fmt.Errorf("final: min_percent %d out of range", sc.Final.MinPercent)
	}
	return nil
}

// Report is the outcome of one scenario run: how many steps executed
// and every expectation that did not hold.
type Report struct {
	Name     string
	Steps    int
	Failures []string
}

// Passed reports whether every expectation held.
func (r *Report) Passed() bool {
	return len(r.Failures) == 0
}

func (r *Report) fail(format string, args ...any) {
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

// Run plays a scenario against a fresh session over the given world.
// Expectation misses land in the report; only scenario-level problems
// (a world the session cannot start on) come back as the error.
func Run(ctx context.Context, w *world.World, sc *Scenario) (*Report, error) {
	sess, err := session.New(w, session.Options{
		Seed:           sc.Seed,
		ActionsPerLoop: sc.ActionsPerLoop,
	})
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}

	rep := &Report{Name: sc.Name}
	for i, step := range sc.Flow {
		res, err := sess.Execute(ctx, step.Cmd)
		rep.Steps++
		checkStep(rep, i, step, res, err, sess)
	}
	if sc.Final != nil {
		checkFinal(rep, sc.Final, sess)
	}
	return rep, nil
}

// RunFile loads a scenario file and runs it.
func RunFile(ctx context.Context, w *world.World, path string) (*Report, error) {
	sc, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Run(ctx, w, sc)
}

func checkStep(rep *Report, i int, step Step, res session.Result, err error, sess *session.Session) {
	exp := step.Expect
	if exp == nil {
		if err != nil {
			rep.fail("step %d (%s): unexpected error: %v", i, step.Cmd, err)
		}
		return
	}

	switch {
	case exp.Error == "" && err != nil:
		rep.fail("step %d (%s): unexpected error: %v", i, step.Cmd, err)
	case exp.Error != "" && err == nil:
		rep.fail("step %d (%s): expected %s error, got none", i, step.Cmd, exp.Error)
	case exp.Error != "" && !errorKinds[exp.Error](err):
		rep.fail("step %d (%s): expected %s error, got: %v", i, step.Cmd, exp.Error, err)
	}

	for _, want := range exp.Contains {
		if !strings.Contains(res.Output, want) {
			rep.fail("step %d (%s): output missing %q", i, step.Cmd, want)
		}
	}
	if exp.Warning && !res.Warning {
		rep.fail("step %d (%s): expected the supernova warning", i, step.Cmd)
	}
	if exp.Reset && !res.Reset {
		rep.fail("step %d (%s): expected a loop reset", i, step.Cmd)
	}
	if exp.Ended && !res.Ended {
		rep.fail("step %d (%s): expected the session to end", i, step.Cmd)
	}
	if exp.Loop > 0 && sess.Loop() != exp.Loop {
		rep.fail("step %d (%s): loop = %d, want %d", i, step.Cmd, sess.Loop(), exp.Loop)
	}
}

func checkFinal(rep *Report, fin *Final, sess *session.Session) {
	log := sess.Log()
	for _, id := range fin.Discovered {
		if !log.Has(id) {
			rep.fail("final: entry %q not discovered", id)
		}
	}
	if fin.MinPercent > 0 {
		_, _, pct := log.Completion(sess.Registry().Len())
		if pct < fin.MinPercent {
			rep.fail("final: completion %d%% below floor %d%%", pct, fin.MinPercent)
		}
	}
	if fin.ShipUnlocked != nil && log.ShipUnlocked() != *fin.ShipUnlocked {
		rep.fail("final: ship_unlocked = %v, want %v", log.ShipUnlocked(), *fin.ShipUnlocked)
	}
	if fin.Loop > 0 && sess.Loop() != fin.Loop {
		rep.fail("final: loop = %d, want %d", sess.Loop(), fin.Loop)
	}
}
