// Package logbook implements the ship's log: the single piece of
// session state that survives a loop reset. Discovered entries,
// location visit counters, completed dialogue topics, the loop counter,
// and the ship authorization flag all live here. Mutation is
// append-only or increment-only; nothing is ever removed short of
// starting a fresh session.
package logbook

import "sort"

// Log is the loop-persistent knowledge ledger.
type Log struct {
	discovered []string
	seen       map[string]bool

	visits map[string]*visitRecord
	// step is a monotonic counter used to break most-visited ties in
	// favor of the location that reached the winning count first.
	step int

	topics map[string]bool

	loop         int
	shipUnlocked bool
}

type visitRecord struct {
	count     int
	reachedAt int
}

// New returns an empty log. The loop counter starts at 1: the player
// wakes up inside the first loop, not before it.
func New() *Log {
	return &Log{
		seen:   make(map[string]bool),
		visits: make(map[string]*visitRecord),
		topics: make(map[string]bool),
		loop:   1,
	}
}

// Discover records an entry discovery. It is idempotent: the return
// value reports whether this call newly added the id. New discoveries
// append to the insertion-ordered list and credit a visit to the
// entry's owning location.
func (l *Log) Discover(id, location string) bool {
	if l.seen[id] {
		return false
	}
	l.seen[id] = true
	l.discovered = append(l.discovered, id)
	if location != "" {
		l.step++
		rec := l.visits[location]
		if rec == nil {
			rec = &visitRecord{}
			l.visits[location] = rec
		}
		rec.count++
		rec.reachedAt = l.step
	}
	return true
}

// Has reports whether the entry has been discovered.
func (l *Log) Has(id string) bool {
	return l.seen[id]
}

// Discovered returns the discovered entry ids in insertion order.
func (l *Log) Discovered() []string {
	out := make([]string, len(l.discovered))
	copy(out, l.discovered)
	return out
}

// DiscoveredSet returns the discovered ids as a set for gating queries.
func (l *Log) DiscoveredSet() map[string]bool {
	out := make(map[string]bool, len(l.seen))
	for id := range l.seen {
		out[id] = true
	}
	return out
}

// Count returns the number of discovered entries.
func (l *Log) Count() int {
	return len(l.discovered)
}

// Completion reports discovered count, total count, and the completion
// percentage truncated toward zero (5 of 20 is 25, 1 of 3 is 33).
func (l *Log) Completion(total int) (discovered, totalOut, pct int) {
	discovered = len(l.discovered)
	if total <= 0 {
		return discovered, total, 0
	}
	return discovered, total, discovered * 100 / total
}

// First returns the first-discovered entry id matching pred, in
// insertion order. The second result is false when nothing matches.
func (l *Log) First(pred func(id string) bool) (string, bool) {
	for _, id := range l.discovered {
		if pred(id) {
			return id, true
		}
	}
	return "", false
}

// Visits returns the visit counter for a location.
func (l *Log) Visits(location string) int {
	rec := l.visits[location]
	if rec == nil {
		return 0
	}
	return rec.count
}

// MostVisitedLocation returns the location with the highest visit
// counter. Ties go to the location that reached the winning count
// first. Returns "" when nothing has been visited.
func (l *Log) MostVisitedLocation() string {
	best := ""
	bestCount := 0
	bestReached := 0
	for loc, rec := range l.visits {
		switch {
		case rec.count > bestCount:
			best, bestCount, bestReached = loc, rec.count, rec.reachedAt
		case rec.count == bestCount && rec.reachedAt < bestReached:
			best, bestReached = loc, rec.reachedAt
		}
	}
	return best
}

// CompleteTopic marks an NPC's dialogue topic as completed. Completed
// topics persist across loop resets. Returns whether this call newly
// completed the topic.
func (l *Log) CompleteTopic(npc, topic string) bool {
	key := topicKey(npc, topic)
	if l.topics[key] {
		return false
	}
	l.topics[key] = true
	return true
}

// TopicCompleted reports whether an NPC's topic has been completed.
func (l *Log) TopicCompleted(npc, topic string) bool {
	return l.topics[topicKey(npc, topic)]
}

// CompletedTopics returns all completed topics as "npc/topic" keys,
// sorted alphabetically.
func (l *Log) CompletedTopics() []string {
	out := make([]string, 0, len(l.topics))
	for key := range l.topics {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Loop returns the current loop index, starting at 1.
func (l *Log) Loop() int {
	return l.loop
}

// AdvanceLoop increments the loop index across a reset and returns the
// new value. The rest of the log is untouched: knowledge persists.
func (l *Log) AdvanceLoop() int {
	l.loop++
	return l.loop
}

// ShipUnlocked reports whether the launch code has been accepted.
func (l *Log) ShipUnlocked() bool {
	return l.shipUnlocked
}

// UnlockShip records launch authorization. Authorization is knowledge,
// and knowledge persists across resets.
func (l *Log) UnlockShip() {
	l.shipUnlocked = true
}

func topicKey(npc, topic string) string {
	return npc + "/" + topic
}
