// Package quantum models the superposed puzzle objects guarding
// quantum entries. An object's state changes only while unobserved;
// observing it pins the current state until observation stops. The
// guarded entry becomes readable exactly when the designated key
// symbol is observed.
//
// # Determinism
//
// State changes draw from a caller-supplied *rand.Rand, so tests and
// replays can fix the sequence by seeding it.
package quantum

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrNoStates is returned for an object declared without states.
var ErrNoStates = errors.New("quantum object needs at least one state")

// ErrKeyMissing is returned when the key symbol is not among the
// object's states.
var ErrKeyMissing = errors.New("key symbol not among states")

// Symbol is one visible state of a quantum object.
type Symbol string

// Object is a superposed entity guarding one quantum entry. Instances
// are ephemeral: the session rebuilds them at every loop boundary,
// while the discovery they may have unlocked stays in the ship's log.
type Object struct {
	ID       string
	Entry    string
	Location string
	States   []Symbol
	Key      Symbol

	current  int
	observed bool
}

// NewObject validates and builds an object. The key must be one of the
// states; a single-state object is degenerate but valid as long as the
// key equals that state.
func NewObject(id, entry, location string, states []Symbol, key Symbol) (*Object, error) {
	if len(states) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoStates, id)
	}
	keyAt := -1
	for i, s := range states {
		if s == key {
			keyAt = i
			break
		}
	}
	if keyAt < 0 {
		return nil, fmt.Errorf("%w: %s (key %q)", ErrKeyMissing, id, key)
	}
	return &Object{
		ID:       id,
		Entry:    entry,
		Location: location,
		States:   states,
		Key:      key,
	}, nil
}

// Scatter randomizes the initial superposition. It only acts while the
// object is unobserved; the session calls it right after building an
// instance.
func (o *Object) Scatter(rng *rand.Rand) {
	if o.observed || len(o.States) <= 1 {
		return
	}
	o.current = rng.Intn(len(o.States))
}

// Observe pins the object in its current state and returns the visible
// symbol. Repeated observations without an intervening StopObserving
// return the same symbol.
func (o *Object) Observe() Symbol {
	o.observed = true
	return o.States[o.current]
}

// StopObserving releases the object back into superposition. The next
// Advance may move it.
func (o *Object) StopObserving() {
	o.observed = false
}

// Advance moves the object to a new state chosen uniformly from the
// set excluding the current one, guaranteeing visible progress. It is
// a no-op while the object is observed or has a single state.
func (o *Object) Advance(rng *rand.Rand) {
	if o.observed || len(o.States) <= 1 {
		return
	}
	next := rng.Intn(len(o.States) - 1)
	if next >= o.current {
		next++
	}
	o.current = next
}

// Observed reports whether the object is currently pinned.
func (o *Object) Observed() bool {
	return o.observed
}

// Keyed reports whether the object currently shows its key symbol.
func (o *Object) Keyed() bool {
	return o.States[o.current] == o.Key
}

// StateIndex returns the index of the current state, used to seed the
// scrambled rendering of the guarded entry.
func (o *Object) StateIndex() int {
	return o.current
}
