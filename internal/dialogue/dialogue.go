// Package dialogue implements the topic-gating conversation engine.
// Topics unlock by one of two styles, a discovered-entry count
// threshold or a required entry set, expressed as Gate implementations
// so new styles slot in without touching dispatch. Completion is
// recorded in the ship's log and therefore survives loop resets.
package dialogue

import (
	"errors"
	"fmt"

	"github.com/papapumpkin/supernova/internal/logbook"
)

// ErrUnknownNPC is returned when a character id is unknown.
var ErrUnknownNPC = errors.New("unknown character")

// ErrUnknownTopic is returned when a topic id is unknown for the NPC.
var ErrUnknownTopic = errors.New("unknown topic")

// ErrNotUnlocked is returned when a topic's gate is unmet.
var ErrNotUnlocked = errors.New("topic not unlocked")

// Gate is a topic's unlock condition over the player's knowledge.
type Gate interface {
	Met(discovered map[string]bool, count int) bool
	// Hint describes what the gate wants, for the talk listing.
	Hint() string
}

// CountGate unlocks once the discovered-entry count reaches it.
type CountGate int

// Met reports whether the discovered count reaches the threshold.
func (g CountGate) Met(_ map[string]bool, count int) bool {
	return count >= int(g)
}

// Hint describes the count threshold.
func (g CountGate) Hint() string {
	return fmt.Sprintf("requires %d discoveries", int(g))
}

// EntriesGate unlocks once every listed entry is discovered.
type EntriesGate []string

// Met reports whether all required entries are discovered.
func (g EntriesGate) Met(discovered map[string]bool, _ int) bool {
	for _, id := range g {
		if !discovered[id] {
			return false
		}
	}
	return true
}

// Hint describes the entry requirement without spoiling the ids.
func (g EntriesGate) Hint() string {
	return fmt.Sprintf("requires %d specific discoveries", len(g))
}

// Open is the zero gate: always unlocked.
type Open struct{}

// Met always reports true.
func (Open) Met(map[string]bool, int) bool { return true }

// Hint describes the open gate.
func (Open) Hint() string { return "always available" }

// Topic is one gated unit of conversation content.
type Topic struct {
	ID    string
	Title string
	Gate  Gate
	Body  string
}

// NPC is a character with an ordered list of topics.
type NPC struct {
	ID       string
	Name     string
	Location string
	Topics   []Topic
}

// Engine answers availability queries and runs conversations. It is
// stateless: the ship's log carries all completion state.
type Engine struct {
	npcs  map[string]*NPC
	order []string
}

// New builds an engine from the loaded characters, rejecting duplicate
// NPC or topic ids.
func New(npcs []NPC) (*Engine, error) {
	e := &Engine{npcs: make(map[string]*NPC, len(npcs))}
	for i := range npcs {
		n := npcs[i]
		if _, dup := e.npcs[n.ID]; dup {
			return nil, fmt.Errorf("dialogue: duplicate character %s", n.ID)
		}
		seen := make(map[string]bool, len(n.Topics))
		for j := range n.Topics {
			t := &n.Topics[j]
			if t.Gate == nil {
				t.Gate = Open{}
			}
			if seen[t.ID] {
				return nil, fmt.Errorf("dialogue: character %s has duplicate topic %s", n.ID, t.ID)
			}
			seen[t.ID] = true
		}
		e.npcs[n.ID] = &n
		e.order = append(e.order, n.ID)
	}
	return e, nil
}

// Get returns the character with the given id.
func (e *Engine) Get(id string) (*NPC, bool) {
	n, ok := e.npcs[id]
	return n, ok
}

// NPCs returns all characters in catalogue order.
func (e *Engine) NPCs() []*NPC {
	out := make([]*NPC, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.npcs[id])
	}
	return out
}

// At returns the characters standing at a location, in catalogue order.
func (e *Engine) At(location string) []*NPC {
	var out []*NPC
	for _, id := range e.order {
		if n := e.npcs[id]; n.Location == location {
			out = append(out, n)
		}
	}
	return out
}

// Available returns the NPC's unlocked topics in declared order.
// Completed topics stay available for replay.
func (e *Engine) Available(npcID string, log *logbook.Log) ([]Topic, error) {
	n, ok := e.npcs[npcID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNPC, npcID)
	}
	discovered := log.DiscoveredSet()
	count := log.Count()
	var out []Topic
	for _, t := range n.Topics {
		if t.Gate.Met(discovered, count) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Discuss runs one topic. Unmet gates fail with ErrNotUnlocked and no
// state change. Success marks the topic completed in the log
// (idempotently: replaying a completed topic returns the same content,
// not an error) and returns the content.
func (e *Engine) Discuss(npcID, topicID string, log *logbook.Log) (string, error) {
	n, ok := e.npcs[npcID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownNPC, npcID)
	}
	var topic *Topic
	for i := range n.Topics {
		if n.Topics[i].ID == topicID {
			topic = &n.Topics[i]
			break
		}
	}
	if topic == nil {
		return "", fmt.Errorf("%w: %s has nothing called %q", ErrUnknownTopic, n.Name, topicID)
	}
	if !topic.Gate.Met(log.DiscoveredSet(), log.Count()) {
		return "", fmt.Errorf("%w: %s (%s)", ErrNotUnlocked, topicID, topic.Gate.Hint())
	}
	log.CompleteTopic(npcID, topicID)
	return topic.Body, nil
}
