package world

import (
	"fmt"

	"github.com/papapumpkin/supernova/internal/archive"
	"github.com/papapumpkin/supernova/internal/dialogue"
	"github.com/papapumpkin/supernova/internal/loop"
	"github.com/papapumpkin/supernova/internal/quantum"
)

// ArchiveEntries converts the parsed entry specs into the registry's
// entry type, preserving file order.
func (w *World) ArchiveEntries() []archive.Entry {
	out := make([]archive.Entry, 0, len(w.Entries))
	for _, e := range w.Entries {
		out = append(out, archive.Entry{
			ID:       e.ID,
			Title:    e.Title,
			Location: e.Location,
			Requires: e.Requires,
			Quantum:  e.Quantum,
			Body:     e.Body,
		})
	}
	return out
}

// Characters converts NPC specs into dialogue engine characters,
// mapping each topic's unlock style onto the matching gate.
func (w *World) Characters() ([]dialogue.NPC, error) {
	out := make([]dialogue.NPC, 0, len(w.Manifest.NPCs))
	for _, n := range w.Manifest.NPCs {
		npc := dialogue.NPC{ID: n.ID, Name: n.Name, Location: n.Location}
		for _, t := range n.Topics {
			gate, err := topicGate(t)
			if err != nil {
				return nil, fmt.Errorf("world: character %s topic %s: %w", n.ID, t.ID, err)
			}
			npc.Topics = append(npc.Topics, dialogue.Topic{
				ID:    t.ID,
				Title: t.Title,
				Gate:  gate,
				Body:  t.Body,
			})
		}
		out = append(out, npc)
	}
	return out, nil
}

func topicGate(t TopicSpec) (dialogue.Gate, error) {
	switch {
	case t.RequiresCount > 0 && len(t.RequiresEntries) > 0:
		return nil, fmt.Errorf("both requires_count and requires_entries set")
	case t.RequiresCount > 0:
		return dialogue.CountGate(t.RequiresCount), nil
	case len(t.RequiresEntries) > 0:
		return dialogue.EntriesGate(t.RequiresEntries), nil
	default:
		return dialogue.Open{}, nil
	}
}

// QuantumObjects builds fresh object instances from the manifest. The
// session calls this at startup and again at every loop boundary:
// objects are ephemeral, their unlocked discoveries are not.
func (w *World) QuantumObjects() ([]*quantum.Object, error) {
	out := make([]*quantum.Object, 0, len(w.Manifest.Quantum))
	for _, q := range w.Manifest.Quantum {
		states := make([]quantum.Symbol, len(q.States))
		for i, s := range q.States {
			states[i] = quantum.Symbol(s)
		}
		obj, err := quantum.NewObject(q.ID, q.Entry, q.Location, states, quantum.Symbol(q.Key))
		if err != nil {
			return nil, fmt.Errorf("world: %w", err)
		}
		out = append(out, obj)
	}
	return out, nil
}

// Windows collects the per-location physics gates for the loop
// controller. Locations without bounds are omitted: the zero window is
// always open.
func (w *World) Windows() map[string]loop.Window {
	out := make(map[string]loop.Window)
	for _, l := range w.Manifest.Locations {
		if l.OpenAt != 0 || l.CloseAt != 0 {
			out[l.ID] = loop.Window{OpenAt: l.OpenAt, CloseAt: l.CloseAt}
		}
	}
	return out
}
