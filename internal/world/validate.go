package world

import (
	"fmt"

	"github.com/papapumpkin/supernova/internal/archive"
	"github.com/papapumpkin/supernova/internal/dialogue"
)

// Validate runs the structural checks a world must pass before a
// session will load it. The result is a list of human-readable issues;
// an empty list means the world is playable.
func Validate(w *World) []string {
	var issues []string
	report := func(format string, args ...any) {
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	if w.Manifest.Title == "" {
		report("manifest: missing title")
	}

	locations := make(map[string]*LocationSpec, len(w.Manifest.Locations))
	frequencies := make(map[string]string)
	for i := range w.Manifest.Locations {
		l := &w.Manifest.Locations[i]
		if _, dup := locations[l.ID]; dup {
			report("location %s: duplicate id", l.ID)
			continue
		}
		locations[l.ID] = l
		if l.Frequency != "" {
			if other, dup := frequencies[l.Frequency]; dup {
				report("location %s: frequency %s already used by %s", l.ID, l.Frequency, other)
			}
			frequencies[l.Frequency] = l.ID
		}
		if l.TunedOnly && l.Frequency == "" {
			report("location %s: tuned_only without a frequency", l.ID)
		}
		if l.CloseAt != 0 && l.CloseAt <= l.OpenAt {
			report("location %s: window closes at %d before it opens at %d", l.ID, l.CloseAt, l.OpenAt)
		}
		if l.WitnessEntry != "" && l.CloseAt == 0 {
			report("location %s: witness_entry without a closing window", l.ID)
		}
		if l.WitnessEntry != "" && l.Via == "" {
			report("location %s: witness_entry without a via parent to watch from", l.ID)
		}
	}
	for _, l := range w.Manifest.Locations {
		if l.Via != "" {
			if _, ok := locations[l.Via]; !ok {
				report("location %s: via references unknown location %s", l.ID, l.Via)
			}
		}
	}

	if w.Manifest.Start == "" {
		report("manifest: missing start location")
	} else if _, ok := locations[w.Manifest.Start]; !ok {
		report("manifest: start location %s does not exist", w.Manifest.Start)
	}

	known := make(map[string]*EntrySpec, len(w.Entries))
	for i := range w.Entries {
		e := &w.Entries[i]
		if e.ID == "" {
			report("entry file %s: missing id", e.SourceFile)
			continue
		}
		known[e.ID] = e
		if _, ok := locations[e.Location]; !ok {
			report("entry %s: unknown location %q", e.ID, e.Location)
		}
		if e.Body == "" {
			report("entry %s: empty body", e.ID)
		}
	}

	// The registry build covers duplicate ids, unknown prerequisites,
	// and prerequisite cycles.
	if _, err := archive.New(w.ArchiveEntries()); err != nil {
		report("entries: %v", err)
	}

	if w.Manifest.Finale == "" {
		report("manifest: missing finale entry")
	} else if _, ok := known[w.Manifest.Finale]; !ok {
		report("manifest: finale entry %s does not exist", w.Manifest.Finale)
	}

	if w.Manifest.Launch.Code == "" {
		report("launch: missing code")
	}
	for _, id := range w.Manifest.Launch.Requires {
		if _, ok := known[id]; !ok {
			report("launch: gating entry %s does not exist", id)
		}
	}

	chars, err := w.Characters()
	if err != nil {
		report("%v", err)
	} else if _, err := dialogue.New(chars); err != nil {
		report("%v", err)
	}
	for _, n := range w.Manifest.NPCs {
		if _, ok := locations[n.Location]; !ok {
			report("character %s: unknown location %q", n.ID, n.Location)
		}
		for _, t := range n.Topics {
			for _, id := range t.RequiresEntries {
				if _, ok := known[id]; !ok {
					report("character %s topic %s: requires unknown entry %s", n.ID, t.ID, id)
				}
			}
		}
	}

	guarded := make(map[string]string)
	if _, err := w.QuantumObjects(); err != nil {
		report("%v", err)
	}
	for _, q := range w.Manifest.Quantum {
		if _, ok := locations[q.Location]; !ok {
			report("quantum object %s: unknown location %q", q.ID, q.Location)
		}
		e, ok := known[q.Entry]
		if !ok {
			report("quantum object %s: guards unknown entry %s", q.ID, q.Entry)
			continue
		}
		if !e.Quantum {
			report("quantum object %s: entry %s is not marked quantum", q.ID, q.Entry)
		}
		if other, dup := guarded[q.Entry]; dup {
			report("quantum object %s: entry %s already guarded by %s", q.ID, q.Entry, other)
		}
		guarded[q.Entry] = q.ID
	}
	for _, e := range w.Entries {
		if e.Quantum {
			if _, ok := guarded[e.ID]; !ok {
				report("entry %s: marked quantum but no object guards it", e.ID)
			}
		}
	}

	for _, l := range w.Manifest.Locations {
		if l.WitnessEntry != "" {
			if _, ok := known[l.WitnessEntry]; !ok {
				report("location %s: witness_entry %s does not exist", l.ID, l.WitnessEntry)
			}
		}
	}

	return issues
}
