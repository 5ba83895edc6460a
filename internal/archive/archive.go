// Package archive holds the static catalogue of knowledge entries and
// answers visibility and read queries against a caller-supplied
// discovered set. It owns no mutable state: everything here is a pure
// function of the loaded content and the discovered set, which makes
// the gating rules trivially testable.
package archive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/papapumpkin/supernova/internal/dag"
)

// ErrNotFound is returned when an entry id is unknown.
var ErrNotFound = errors.New("entry not found")

// ErrLocked is returned when an entry's prerequisites are not yet
// discovered. The error text names the missing prerequisites.
var ErrLocked = errors.New("entry locked")

// Entry is a discoverable unit of narrative knowledge.
type Entry struct {
	ID       string
	Title    string
	Location string
	Requires []string
	Quantum  bool
	Body     string
}

// Registry is the immutable entry catalogue. Construction validates
// that ids are unique and that the prerequisite relation forms a DAG.
type Registry struct {
	entries map[string]*Entry
	graph   *dag.DAG
	// byLocation preserves catalogue order within each location.
	byLocation map[string][]*Entry
	order      []string
}

// New builds a Registry from the loaded entries. It rejects duplicate
// ids, prerequisites that reference unknown entries, and prerequisite
// cycles.
func New(entries []Entry) (*Registry, error) {
	r := &Registry{
		entries:    make(map[string]*Entry, len(entries)),
		graph:      dag.New(),
		byLocation: make(map[string][]*Entry),
	}
	for i := range entries {
		e := entries[i]
		if err := r.graph.AddNode(e.ID); err != nil {
			return nil, fmt.Errorf("archive: %w", err)
		}
		stored := e
		r.entries[e.ID] = &stored
		r.byLocation[e.Location] = append(r.byLocation[e.Location], &stored)
		r.order = append(r.order, e.ID)
	}
	for _, e := range entries {
		for _, req := range e.Requires {
			if err := r.graph.AddEdge(e.ID, req); err != nil {
				return nil, fmt.Errorf("archive: entry %s: %w", e.ID, err)
			}
		}
	}
	return r, nil
}

// Get returns the entry with the given id.
func (r *Registry) Get(id string) (*Entry, bool) {
	e, ok := r.entries[id]
	return e, ok
}

// Len returns the number of entries in the catalogue.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Graph exposes the prerequisite DAG for content analysis tooling.
func (r *Registry) Graph() *dag.DAG {
	return r.graph
}

// IDs returns all entry ids in catalogue order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// AtLocation returns the entries belonging to a location, in catalogue
// order. Returns nil for unknown locations.
func (r *Registry) AtLocation(loc string) []*Entry {
	return r.byLocation[loc]
}

// Visible returns the ids of every entry whose prerequisite set is a
// subset of discovered, sorted alphabetically. Entries already in
// discovered remain visible: visibility is monotone while the
// discovered set grows.
func (r *Registry) Visible(discovered map[string]bool) []string {
	return r.graph.Satisfied(discovered)
}

// Missing returns the undiscovered prerequisites of id, sorted. A nil
// result means the entry is readable (or unknown).
func (r *Registry) Missing(id string, discovered map[string]bool) []string {
	missing, err := r.graph.Unmet(id, discovered)
	if err != nil || len(missing) == 0 {
		return nil
	}
	return missing
}

// Read returns the entry's content payload. It fails with ErrNotFound
// for unknown ids and with ErrLocked while any prerequisite is
// undiscovered. No side effects: recording the discovery is the
// caller's job.
func (r *Registry) Read(id string, discovered map[string]bool) (string, error) {
	e, ok := r.entries[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if missing := r.Missing(id, discovered); len(missing) > 0 {
		return "", fmt.Errorf("%w: %s (missing: %s)", ErrLocked, id, strings.Join(missing, ", "))
	}
	return e.Body, nil
}

// UnlockOrder returns entry ids in a valid prerequisite order, used by
// content validation output.
func (r *Registry) UnlockOrder() ([]string, error) {
	order, err := r.graph.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	return order, nil
}
