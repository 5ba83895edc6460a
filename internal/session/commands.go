package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/papapumpkin/supernova/internal/quantum"
	"github.com/papapumpkin/supernova/internal/saves"
	"github.com/papapumpkin/supernova/internal/telemetry"
)

// cmdExplore lists what the current location offers: its description,
// the visible entries (prerequisites met) with discovery and quantum
// marks, anything superposed, who is around, and the local beacon.
func (s *Session) cmdExplore() string {
	loc, _ := s.world.Location(s.eph.Location)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", loc.Name)
	if loc.Description != "" {
		fmt.Fprintf(&b, "%s\n", loc.Description)
	}

	discovered := s.log.DiscoveredSet()
	var lines []string
	for _, e := range s.registry.AtLocation(s.eph.Location) {
		if len(s.registry.Missing(e.ID, discovered)) > 0 {
			continue // hidden until its prerequisites are discovered
		}
		if s.witnessOnly[e.ID] && !s.log.Has(e.ID) {
			continue // granted by seeing it happen, not by looking around
		}
		mark := "?"
		if s.log.Has(e.ID) {
			mark = "✓"
		}
		line := fmt.Sprintf("  %s %s: %s", mark, e.ID, e.Title)
		if e.Quantum && !s.log.Has(e.ID) {
			line += " (quantum, unstable)"
		}
		lines = append(lines, line)
	}
	if len(lines) > 0 {
		b.WriteString("Entries here:\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n")
	} else {
		b.WriteString("Nothing here stands out yet.\n")
	}

	for _, o := range s.objectList {
		if o.Location == s.eph.Location {
			fmt.Fprintf(&b, "Something refuses to hold still: %s (observe %s).\n", o.ID, o.ID)
		}
	}

	if present := s.npcs.At(s.eph.Location); len(present) > 0 {
		names := make([]string, len(present))
		for i, n := range present {
			names[i] = fmt.Sprintf("%s (talk %s)", n.Name, n.ID)
		}
		fmt.Fprintf(&b, "Company: %s.\n", strings.Join(names, ", "))
	}

	if loc.Frequency != "" {
		fmt.Fprintf(&b, "A beacon here broadcasts on frequency %s.\n", loc.Frequency)
	}
	return strings.TrimRight(b.String(), "\n")
}

// cmdGo moves the player. Travel is gated four ways: the ship for
// ship-only locations, per-loop tuning for hidden ones, an on-foot
// connection for via-bound ones, and the physics window. Leaving
// releases any observed objects behind; arriving lets the unobserved
// ones move.
func (s *Session) cmdGo(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: go <location>", ErrUsage)
	}
	id := args[0]
	loc, ok := s.world.Location(id)
	if !ok {
		return "", fmt.Errorf("%w: no place called %q", ErrNotFound, id)
	}
	if id == s.eph.Location {
		return "", fmt.Errorf("you are already at %s", loc.Name)
	}
	if loc.Ship && !s.log.ShipUnlocked() {
		return "", fmt.Errorf("%w: the ship will not launch without authorization", ErrUnreachable)
	}
	if loc.TunedOnly && !s.eph.Tuned[loc.ID] {
		return "", fmt.Errorf("%w: %s drifts somewhere unseen; tune its signal first", ErrUnreachable, loc.Name)
	}
	if loc.Via != "" && s.eph.Location != loc.Via {
		return "", fmt.Errorf("%w: %s can only be reached from %s", ErrUnreachable, loc.Name, s.locName(loc.Via))
	}
	if !s.clock.Reachable(loc.ID) {
		return "", fmt.Errorf("%w: no way into %s at this point of the loop", ErrUnreachable, loc.Name)
	}

	for _, o := range s.objectList {
		if o.Location == s.eph.Location {
			o.StopObserving()
		}
	}
	s.eph.Location = id
	for _, o := range s.objectList {
		if o.Location == id {
			o.Advance(s.rng)
		}
	}

	out := fmt.Sprintf("You make your way to %s.", loc.Name)
	if loc.Description != "" {
		out += "\n" + loc.Description
	}
	return out, nil
}

// cmdRead reads one entry. Undiscovered entries must be read where
// they lie; entries already in the log can be reread from anywhere.
// While a quantum guardian sits off its key state, the text renders
// scrambled instead of plain.
func (s *Session) cmdRead(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: read <entry>", ErrUsage)
	}
	id := args[0]
	e, ok := s.registry.Get(id)
	if !ok {
		return "", fmt.Errorf("%w: nothing called %q anywhere in the log", ErrNotFound, id)
	}
	if !s.log.Has(id) && e.Location != s.eph.Location {
		return "", fmt.Errorf("%w: nothing called %q here", ErrNotFound, id)
	}
	if s.witnessOnly[id] && !s.log.Has(id) {
		return "", fmt.Errorf("%w: nothing called %q here", ErrNotFound, id)
	}

	if obj := s.byEntry[id]; obj != nil && !s.log.Has(id) && !obj.Keyed() {
		preview := quantum.Scramble(e.Body, obj.StateIndex())
		return "The letters crawl and refuse to settle:\n\n" + preview, nil
	}

	body, err := s.registry.Read(id, s.log.DiscoveredSet())
	if err != nil {
		return "", err
	}
	out := e.Title + "\n\n" + body
	if note := s.recordDiscovery(id); note != "" {
		out = joinBlocks(out, note)
	}
	return out, nil
}

// cmdObserve pins a quantum object at the current location. Observing
// the key symbol unlocks the guarded entry permanently.
func (s *Session) cmdObserve(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: observe <object>", ErrUsage)
	}
	obj := s.objects[args[0]]
	if obj == nil || obj.Location != s.eph.Location {
		return "", fmt.Errorf("%w: nothing called %q to watch here", ErrNotFound, args[0])
	}

	sym := obj.Observe()
	s.emit(telemetry.KindObservation, map[string]any{
		"object": obj.ID,
		"symbol": string(sym),
		"keyed":  obj.Keyed(),
	})

	out := fmt.Sprintf("You hold your gaze on %s. It settles: %s", obj.ID, sym)
	if !obj.Keyed() {
		return out + "\nNot the state you need. Look away and it will wander again.", nil
	}
	out += "\nThe key state. The writing beneath it stands still."
	if note := s.recordDiscovery(obj.Entry); note != "" {
		if e, ok := s.registry.Get(obj.Entry); ok {
			out = joinBlocks(out, e.Title+"\n\n"+e.Body, note)
		}
	}
	return out, nil
}

// cmdTalk runs the dialogue surface. Bare talk lists the character's
// unlocked topics for free; naming a topic runs it for one action.
func (s *Session) cmdTalk(args []string) (string, int, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", 0, fmt.Errorf("%w: talk <character> [topic]", ErrUsage)
	}
	npc, ok := s.npcs.Get(args[0])
	if !ok || npc.Location != s.eph.Location {
		return "", 0, fmt.Errorf("%w: nobody called %q here", ErrNotFound, args[0])
	}

	if len(args) == 1 {
		topics, err := s.npcs.Available(npc.ID, s.log)
		if err != nil {
			return "", 0, err
		}
		if len(topics) == 0 {
			return fmt.Sprintf("%s has nothing to say to you yet.", npc.Name), 0, nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%s will talk about:\n", npc.Name)
		for _, t := range topics {
			line := fmt.Sprintf("  %s: %s", t.ID, t.Title)
			if s.log.TopicCompleted(npc.ID, t.ID) {
				line += " (heard)"
			}
			b.WriteString(line + "\n")
		}
		return strings.TrimRight(b.String(), "\n"), 0, nil
	}

	body, err := s.npcs.Discuss(npc.ID, args[1], s.log)
	if err != nil {
		return "", 0, err
	}
	s.emit(telemetry.KindDialogue, map[string]any{"npc": npc.ID, "topic": args[1]})
	return fmt.Sprintf("%s:\n%s", npc.Name, body), 1, nil
}

// cmdTune points the radio dish at a frequency. A match marks the
// target reachable for the rest of this loop; resets clear it.
func (s *Session) cmdTune(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: tune <frequency>", ErrUsage)
	}
	loc, ok := s.world.LocationByFrequency(args[0])
	if !ok {
		return "", fmt.Errorf("%w: static on %s, nothing more", ErrNotFound, args[0])
	}
	s.eph.Tuned[loc.ID] = true
	out := fmt.Sprintf("The dish swings. A signal resolves on %s: %s.", args[0], loc.Name)
	if loc.TunedOnly {
		out += "\nIts position is locked in for this loop."
	}
	return out, nil
}

// cmdEnterCode tries a launch code against the authorization gate. A
// failure costs the action anyway; that rule lives in Execute.
func (s *Session) cmdEnterCode(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: enter-code <code>", ErrUsage)
	}
	launch := s.world.Manifest.Launch
	if args[0] != launch.Code {
		s.emit(telemetry.KindCodeRejected, map[string]any{"reason": "wrong_code"})
		return "", fmt.Errorf("%w: the console blinks red and spits the code back", ErrNotAuthorized)
	}
	missing := 0
	for _, id := range launch.Requires {
		if !s.log.Has(id) {
			missing++
		}
	}
	if missing > 0 {
		s.emit(telemetry.KindCodeRejected, map[string]any{"reason": "missing_entries", "missing": missing})
		return "", fmt.Errorf("%w: the console wants proof of understanding (%d records short)", ErrNotAuthorized, missing)
	}
	already := s.log.ShipUnlocked()
	s.log.UnlockShip()
	if !already {
		s.emit(telemetry.KindCodeAccepted, nil)
	}
	return "The console chimes. Launch authorization accepted; the ship answers to you now.", nil
}

// cmdSave persists the ship's log through the configured store.
func (s *Session) cmdSave(ctx context.Context) (string, error) {
	if s.store == nil {
		return "", errors.New("no save store configured")
	}
	rec := saves.Record{
		ID:       s.id,
		World:    s.world.Manifest.Title,
		Snapshot: s.log.Snapshot(),
	}
	if err := s.store.Put(ctx, rec); err != nil {
		return "", err
	}
	s.emit(telemetry.KindSave, map[string]any{"id": s.id})
	return fmt.Sprintf("Session saved as %s.", s.id), nil
}
