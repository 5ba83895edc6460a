package session

import (
	"fmt"
	"strings"
)

const helpText = `Commands:
  explore                    look around the current location (1 action)
  go <location>              travel (1 action)
  read <entry>               read an entry where it lies (1 action)
  observe <object>           watch a quantum object (1 action)
  talk <character>           list someone's topics (free)
  talk <character> <topic>   hear them out (1 action)
  tune <frequency>           point the radio dish (1 action)
  enter-code <code>          try a launch code (1 action, even when wrong)
  log                        the ship's log (free)
  status                     loop clock and position (free)
  save                       persist this session (free)
  help                       this text (free)
  quit                       end the session`

const warningText = "The light turns harsh and white. The sun is swelling. Not long now."

const supernovaText = "The sky ignites. Everything burns away in one long white breath."

func deathText(name string) string {
	return fmt.Sprintf("%s comes down around you. Darkness, briefly.", name)
}

func witnessText(name string) string {
	return fmt.Sprintf("Across the way, %s shudders and falls in on itself. You saw it happen.", name)
}

// renderLog is the ship's log summary: discoveries grouped by location
// in manifest order, completion, topics, and the launch flag.
func (s *Session) renderLog() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ship's log, loop %d.\n", s.log.Loop())

	wrote := false
	for _, loc := range s.world.Manifest.Locations {
		var lines []string
		for _, e := range s.registry.AtLocation(loc.ID) {
			if s.log.Has(e.ID) {
				lines = append(lines, "  "+e.Title)
			}
		}
		if len(lines) == 0 {
			continue
		}
		wrote = true
		fmt.Fprintf(&b, "%s:\n%s\n", loc.Name, strings.Join(lines, "\n"))
	}
	if !wrote {
		b.WriteString("Nothing recorded yet.\n")
	}

	discovered, total, pct := s.log.Completion(s.registry.Len())
	fmt.Fprintf(&b, "Recovered %d of %d (%d%%).\n", discovered, total, pct)

	if topics := s.log.CompletedTopics(); len(topics) > 0 {
		fmt.Fprintf(&b, "Topics heard: %s.\n", strings.Join(topics, ", "))
	}
	if s.log.ShipUnlocked() {
		b.WriteString("Launch authorization: accepted.")
	} else {
		b.WriteString("Launch authorization: none.")
	}
	return b.String()
}

// renderStatus is the loop clock line: counter, remaining budget,
// position, the warning when the loop is in its final stretch.
func (s *Session) renderStatus() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Loop %d: action %d of %d (%d remaining).\n",
		s.log.Loop(), s.clock.Counter(), s.clock.Threshold, s.clock.Remaining())
	fmt.Fprintf(&b, "Location: %s.", s.LocationName())
	if s.clock.WarningActive() {
		b.WriteString("\nThe sun is swelling. Not long now.")
	}
	if s.log.ShipUnlocked() {
		b.WriteString("\nShip: authorized.")
	} else {
		b.WriteString("\nShip: locked.")
	}
	return b.String()
}

// renderSummary is the end-of-session accounting, shared by quit and
// the finale.
func (s *Session) renderSummary(lead string) string {
	discovered, total, pct := s.log.Completion(s.registry.Len())

	firstQuantum := "none"
	if id, ok := s.log.First(func(id string) bool {
		e, found := s.registry.Get(id)
		return found && e.Quantum
	}); ok {
		if e, found := s.registry.Get(id); found {
			firstQuantum = e.Title
		}
	}

	ground := "nowhere"
	if loc := s.log.MostVisitedLocation(); loc != "" {
		ground = s.locName(loc)
	}

	var b strings.Builder
	b.WriteString(lead + "\n\n")
	fmt.Fprintf(&b, "Loops lived: %d\n", s.log.Loop())
	fmt.Fprintf(&b, "Knowledge recovered: %d of %d (%d%%)\n", discovered, total, pct)
	fmt.Fprintf(&b, "First quantum record: %s\n", firstQuantum)
	fmt.Fprintf(&b, "Most-walked ground: %s", ground)
	return b.String()
}
