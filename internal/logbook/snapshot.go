package logbook

import "sort"

// Snapshot is the persistable projection of a Log. Field order matters
// for two of them: Discovered preserves insertion order, and Visits is
// ordered by when each location reached its current count, so that
// restoring a session keeps the most-visited tie-break stable.
type Snapshot struct {
	Discovered   []string        `json:"discovered"`
	Visits       []LocationVisit `json:"visits"`
	Topics       []string        `json:"topics"`
	Loop         int             `json:"loop"`
	ShipUnlocked bool            `json:"ship_unlocked"`
}

// LocationVisit is one location's visit counter.
type LocationVisit struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// Snapshot captures the log's persistable state.
func (l *Log) Snapshot() Snapshot {
	snap := Snapshot{
		Discovered:   l.Discovered(),
		Topics:       l.CompletedTopics(),
		Loop:         l.loop,
		ShipUnlocked: l.shipUnlocked,
	}
	locs := make([]string, 0, len(l.visits))
	for loc := range l.visits {
		locs = append(locs, loc)
	}
	sort.Slice(locs, func(i, j int) bool {
		return l.visits[locs[i]].reachedAt < l.visits[locs[j]].reachedAt
	})
	for _, loc := range locs {
		snap.Visits = append(snap.Visits, LocationVisit{Location: loc, Count: l.visits[loc].count})
	}
	return snap
}

// Restore rebuilds a Log from a snapshot. Unknown-entry filtering is
// the caller's concern; Restore trusts its input.
func Restore(snap Snapshot) *Log {
	l := New()
	for _, id := range snap.Discovered {
		if !l.seen[id] {
			l.seen[id] = true
			l.discovered = append(l.discovered, id)
		}
	}
	for _, v := range snap.Visits {
		l.step++
		l.visits[v.Location] = &visitRecord{count: v.Count, reachedAt: l.step}
	}
	for _, key := range snap.Topics {
		l.topics[key] = true
	}
	if snap.Loop > 0 {
		l.loop = snap.Loop
	}
	l.shipUnlocked = snap.ShipUnlocked
	return l
}
