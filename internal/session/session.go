// Package session binds the engine together behind a text command
// surface: one Session owns the entry registry, the ship's log, the
// loop controller, the dialogue engine, the live quantum objects, and
// the per-loop ephemera, and executes one command line at a time. The
// line-oriented player, the full-screen surface, and the scenario
// runner all drive the same Execute loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papapumpkin/supernova/internal/archive"
	"github.com/papapumpkin/supernova/internal/dialogue"
	"github.com/papapumpkin/supernova/internal/logbook"
	"github.com/papapumpkin/supernova/internal/loop"
	"github.com/papapumpkin/supernova/internal/quantum"
	"github.com/papapumpkin/supernova/internal/random"
	"github.com/papapumpkin/supernova/internal/saves"
	"github.com/papapumpkin/supernova/internal/telemetry"
	"github.com/papapumpkin/supernova/internal/world"
)

// ErrUsage is returned for commands with missing or malformed arguments.
var ErrUsage = errors.New("usage")

// ErrUnknownCommand is returned for verbs the session does not know.
var ErrUnknownCommand = errors.New("unknown command")

// ErrNotFound is returned when a command names a location, character,
// object, or frequency the current vantage point does not know.
var ErrNotFound = errors.New("not found")

// ErrNotAuthorized is returned when enter-code fails, either on a wrong
// code or on incomplete knowledge. The failed attempt still consumes an
// action.
var ErrNotAuthorized = errors.New("not authorized")

// ErrUnreachable is returned when travel is blocked: a locked ship, an
// untuned hidden location, a missing on-foot connection, or a closed
// physics window.
var ErrUnreachable = errors.New("unreachable")

// ErrEnded is returned by Execute once the session has concluded.
var ErrEnded = errors.New("session has ended")

// Options configures a new session. The zero value is a playable
// default: random seed, manifest action budget, no persistence, no
// telemetry.
type Options struct {
	// Seed fixes the quantum RNG; 0 draws a fresh seed.
	Seed int64
	// ActionsPerLoop overrides the manifest's budget when positive.
	ActionsPerLoop int
	// ID resumes an existing session id; empty mints a new one.
	ID string
	// Snapshot restores a saved ship's log. Callers are expected to
	// sanitize it against the loaded world first (saves.Sanitize).
	Snapshot *logbook.Snapshot
	// Store, when set, backs the save command.
	Store *saves.Store
	// Emitter, when set, receives telemetry events. Nil is a no-op.
	Emitter *telemetry.Emitter
}

// Result reports what one executed command line produced beyond its
// error: the narrative output and the loop events that fired during it.
type Result struct {
	Output  string
	Warning bool // the supernova warning crossed during this command
	Reset   bool // a reset cascade completed during this command
	Cause   loop.Cause
	Ended   bool // the session concluded (quit or finale)
}

// Session is one playthrough: static world and registry, the
// loop-persistent ship's log, and the per-loop ephemera the resets
// destroy.
type Session struct {
	world    *world.World
	registry *archive.Registry
	npcs     *dialogue.Engine
	log      *logbook.Log
	clock    *loop.Controller
	eph      *loop.Ephemera

	// Live quantum objects, indexed both ways plus manifest order so
	// state changes draw from the RNG deterministically. Rebuilt at
	// every loop boundary; the discoveries they unlock outlive them.
	objects    map[string]*quantum.Object
	byEntry    map[string]*quantum.Object
	objectList []*quantum.Object

	// witnessOnly entries are granted by watching an event, never by
	// reading them off a shelf.
	witnessOnly map[string]bool

	rng     *rand.Rand
	seed    int64
	id      string
	store   *saves.Store
	emitter *telemetry.Emitter

	ended     bool
	finaleHit bool
	// lastReset carries the cause out of the OnReset hook to the
	// command that triggered it.
	lastReset loop.Cause
}

// New builds a session over a loaded world. The world should already
// have passed validation; New still rejects structural problems it
// cannot run with.
func New(w *world.World, opts Options) (*Session, error) {
	registry, err := archive.New(w.ArchiveEntries())
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	chars, err := w.Characters()
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	npcs, err := dialogue.New(chars)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	if _, ok := w.Location(w.Manifest.Start); !ok {
		return nil, fmt.Errorf("session: start location %q does not exist", w.Manifest.Start)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = random.NewSeed()
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}

	threshold := opts.ActionsPerLoop
	if threshold <= 0 {
		threshold = w.Manifest.ActionsPerLoop
	}

	s := &Session{
		world:    w,
		registry: registry,
		npcs:     npcs,
		clock:    loop.New(threshold, w.Windows()),
		eph:      loop.NewEphemera(w.Manifest.Start),
		rng:      rand.New(rand.NewSource(seed)),
		seed:     seed,
		id:       id,
		store:    opts.Store,
		emitter:  opts.Emitter,
	}
	if opts.Snapshot != nil {
		s.log = logbook.Restore(*opts.Snapshot)
	} else {
		s.log = logbook.New()
	}
	s.clock.OnReset = s.handleReset

	s.witnessOnly = make(map[string]bool)
	for _, l := range w.Manifest.Locations {
		if l.WitnessEntry != "" {
			s.witnessOnly[l.WitnessEntry] = true
		}
	}

	if err := s.buildObjects(); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	s.emit(telemetry.KindSessionStart, map[string]any{
		"world":   w.Manifest.Title,
		"seed":    seed,
		"resumed": opts.Snapshot != nil,
	})
	return s, nil
}

// buildObjects constructs fresh quantum instances and scatters their
// initial superpositions.
func (s *Session) buildObjects() error {
	objs, err := s.world.QuantumObjects()
	if err != nil {
		return err
	}
	s.objects = make(map[string]*quantum.Object, len(objs))
	s.byEntry = make(map[string]*quantum.Object, len(objs))
	s.objectList = objs
	for _, o := range objs {
		o.Scatter(s.rng)
		s.objects[o.ID] = o
		s.byEntry[o.Entry] = o
	}
	return nil
}

// handleReset is the teardown the loop controller runs inside a reset
// transition: the ephemera and quantum instances are rebuilt from
// scratch while the log carries everything else into the next loop.
func (s *Session) handleReset(cause loop.Cause) {
	s.lastReset = cause
	s.eph = loop.NewEphemera(s.world.Manifest.Start)
	// The world content passed validation when the session was built,
	// so the rebuild cannot fail; if it somehow does, the old instances
	// stay.
	if err := s.buildObjects(); err == nil {
		s.log.AdvanceLoop()
	}
	s.emit(telemetry.KindReset, map[string]any{"cause": cause.String()})
}

// Execute parses and runs one command line. Recoverable problems come
// back as the error; the Result always carries whatever narrative and
// loop events the attempt produced. Context is honored by commands
// that touch persistence.
func (s *Session) Execute(ctx context.Context, line string) (Result, error) {
	if s.ended {
		return Result{Ended: true}, ErrEnded
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Result{}, nil
	}
	verb := strings.ToLower(fields[0])
	args := fields[1:]
	s.emit(telemetry.KindCommand, map[string]any{"cmd": verb, "counter": s.clock.Counter()})

	var out string
	var err error
	cost := 0

	switch verb {
	case "explore":
		out = s.cmdExplore()
		cost = 1
	case "go":
		out, err = s.cmdGo(args)
		cost = 1
	case "read":
		out, err = s.cmdRead(args)
		cost = 1
	case "observe":
		out, err = s.cmdObserve(args)
		cost = 1
	case "talk":
		out, cost, err = s.cmdTalk(args)
	case "tune":
		out, err = s.cmdTune(args)
		cost = 1
	case "enter-code":
		out, err = s.cmdEnterCode(args)
		cost = 1
	case "log":
		out = s.renderLog()
	case "status":
		out = s.renderStatus()
	case "help":
		out = helpText
	case "save":
		out, err = s.cmdSave(ctx)
	case "quit":
		out = s.renderSummary("You bank the campfire and put the log away.")
		s.ended = true
		s.emit(telemetry.KindSessionEnd, s.summaryData())
	default:
		err = fmt.Errorf("%w: %q (try \"help\")", ErrUnknownCommand, verb)
	}

	res := Result{Output: out}

	if s.finaleHit {
		// The story is over; the clock no longer matters.
		s.finaleHit = false
		s.ended = true
		res.Output = joinBlocks(res.Output, s.renderSummary("You saw it through to the end."))
		res.Ended = true
		s.emit(telemetry.KindFinale, s.summaryData())
		s.emit(telemetry.KindSessionEnd, s.summaryData())
		return res, err
	}

	// Recoverable failures cost nothing, with one exception: a rejected
	// launch code still burns the action.
	charge := cost > 0 && (err == nil || errors.Is(err, ErrNotAuthorized))
	if charge {
		s.applyTick(&res)
	}
	res.Ended = s.ended
	return res, err
}

// applyTick advances the clock one action and folds the resulting loop
// events (warning, window closures, death, supernova) into the result.
func (s *Session) applyTick(res *Result) {
	tick := s.clock.Advance()

	if tick.Warning {
		res.Warning = true
		res.Output = joinBlocks(res.Output, warningText)
		s.emit(telemetry.KindWarning, map[string]any{"counter": tick.Counter})
	}
	if tick.Reset {
		res.Reset = true
		res.Cause = tick.Cause
		res.Output = joinBlocks(res.Output, supernovaText, s.wakeText())
		return
	}

	for _, closed := range tick.Closed {
		spec, ok := s.world.Location(closed)
		if !ok {
			continue
		}
		if s.eph.Location == closed {
			// Standing inside when the window closes. The controller
			// resets immediately; knowledge survives, the loop does not.
			s.emit(telemetry.KindDeath, map[string]any{"location": closed, "counter": tick.Counter})
			s.clock.Die()
			res.Reset = true
			res.Cause = loop.CauseDeath
			res.Output = joinBlocks(res.Output, deathText(spec.Name), s.wakeText())
			return
		}
		if spec.Via != "" && s.eph.Location == spec.Via {
			s.eph.Witnessed[closed] = true
			res.Output = joinBlocks(res.Output, witnessText(spec.Name))
			if spec.WitnessEntry != "" {
				res.Output = joinBlocks(res.Output, s.recordDiscovery(spec.WitnessEntry))
			}
		}
	}
}

// recordDiscovery writes a discovery into the log, emits telemetry,
// and arms the finale when the designated final entry lands. Returns a
// log line for new discoveries, empty otherwise.
func (s *Session) recordDiscovery(id string) string {
	e, ok := s.registry.Get(id)
	if !ok {
		return ""
	}
	if !s.log.Discover(id, e.Location) {
		return ""
	}
	s.emit(telemetry.KindDiscovery, map[string]any{"entry": id, "count": s.log.Count()})
	if id == s.world.Manifest.Finale {
		s.finaleHit = true
	}
	return fmt.Sprintf("Recorded in the ship's log: %s.", e.Title)
}

// emit sends one telemetry event stamped with the session context.
func (s *Session) emit(kind string, data map[string]any) {
	_ = s.emitter.Emit(telemetry.Event{
		Timestamp: time.Now(),
		Kind:      kind,
		SessionID: s.id,
		Loop:      s.log.Loop(),
		Data:      data,
	})
}

// summaryData is the telemetry payload for session_end and finale.
func (s *Session) summaryData() map[string]any {
	discovered, total, pct := s.log.Completion(s.registry.Len())
	return map[string]any{
		"loops":      s.log.Loop(),
		"discovered": discovered,
		"total":      total,
		"pct":        pct,
	}
}

// ID returns the session id used for saves and telemetry.
func (s *Session) ID() string { return s.id }

// Seed returns the effective RNG seed, for replays.
func (s *Session) Seed() int64 { return s.seed }

// Ended reports whether the session has concluded.
func (s *Session) Ended() bool { return s.ended }

// Location returns the current location id.
func (s *Session) Location() string { return s.eph.Location }

// LocationName returns the current location's display name.
func (s *Session) LocationName() string { return s.locName(s.eph.Location) }

// Loop returns the current loop index, starting at 1.
func (s *Session) Loop() int { return s.log.Loop() }

// Counter returns the number of actions consumed this loop.
func (s *Session) Counter() int { return s.clock.Counter() }

// Threshold returns the loop's action budget.
func (s *Session) Threshold() int { return s.clock.Threshold }

// WarningActive reports whether the loop is in its final stretch.
func (s *Session) WarningActive() bool { return s.clock.WarningActive() }

// Log exposes the ship's log for read-side consumers (scenario
// assertions, save orchestration).
func (s *Session) Log() *logbook.Log { return s.log }

// Registry exposes the entry catalogue.
func (s *Session) Registry() *archive.Registry { return s.registry }

// World exposes the loaded world.
func (s *Session) World() *world.World { return s.world }

// locName resolves a location id to its display name, falling back to
// the id itself.
func (s *Session) locName(id string) string {
	if l, ok := s.world.Location(id); ok && l.Name != "" {
		return l.Name
	}
	return id
}

// wakeText is the line rendered after any reset: the player is back at
// the start with the log intact.
func (s *Session) wakeText() string {
	return fmt.Sprintf("You wake at %s. The ship's log remembers everything. (loop %d)",
		s.locName(s.world.Manifest.Start), s.log.Loop())
}

// joinBlocks joins non-empty text blocks with blank lines between them.
func joinBlocks(blocks ...string) string {
	var parts []string
	for _, b := range blocks {
		if b != "" {
			parts = append(parts, b)
		}
	}
	return strings.Join(parts, "\n\n")
}
