// Package dag provides the directed acyclic graph backing entry
// prerequisites. It supports cycle detection, unmet-prerequisite
// queries, and a topological unlock order used by content validation.
package dag

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCycle is returned when the graph contains a prerequisite cycle.
var ErrCycle = errors.New("cycle detected")

// ErrNodeNotFound is returned when an operation references a non-existent node.
var ErrNodeNotFound = errors.New("node not found")

// ErrDuplicateNode is returned when adding a node that already exists.
var ErrDuplicateNode = errors.New("duplicate node")

// ErrSelfEdge is returned when an edge would create a self-loop.
var ErrSelfEdge = errors.New("self-referencing edge")

// DAG represents a directed acyclic graph of entries.
// Edges point from an entry to its prerequisites: if A requires B,
// there is an edge from A to B.
type DAG struct {
	nodes map[string]bool
	// adjacency maps nodeID → set of prerequisite IDs (forward edges).
	adjacency map[string]map[string]bool
	// reverse maps nodeID → set of dependent IDs (backward edges).
	reverse map[string]map[string]bool
}

// New creates an empty DAG.
func New() *DAG {
	return &DAG{
		nodes:     make(map[string]bool),
		adjacency: make(map[string]map[string]bool),
		reverse:   make(map[string]map[string]bool),
	}
}

// AddNode adds a node with the given ID. Returns ErrDuplicateNode if a
// node with that ID already exists.
func (d *DAG) AddNode(id string) error {
	if d.nodes[id] {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}
	d.nodes[id] = true
	d.adjacency[id] = make(map[string]bool)
	d.reverse[id] = make(map[string]bool)
	return nil
}

// AddEdge adds a prerequisite edge: from requires to. Both nodes must
// already exist. Returns an error if either node is missing, the edge
// would create a self-loop, or the edge would introduce a cycle.
func (d *DAG) AddEdge(from, to string) error {
	if from == to {
		return fmt.Errorf("%w: %s", ErrSelfEdge, from)
	}
	if !d.nodes[from] {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, from)
	}
	if !d.nodes[to] {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, to)
	}
	// Skip if edge already exists.
	if d.adjacency[from][to] {
		return nil
	}
	// Check if adding this edge would create a cycle: does 'from' already
	// have a path reachable from 'to'? If so, adding to→...→from + from→to
	// would create a cycle.
	if d.hasPath(to, from) {
		return fmt.Errorf("%w: edge %s → %s would create a cycle", ErrCycle, from, to)
	}
	d.adjacency[from][to] = true
	d.reverse[to][from] = true
	return nil
}

// Has reports whether the node exists.
func (d *DAG) Has(id string) bool {
	return d.nodes[id]
}

// Nodes returns all node IDs in the DAG, sorted alphabetically.
func (d *DAG) Nodes() []string {
	ids := make([]string, 0, len(d.nodes))
	for id := range d.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of nodes in the DAG.
func (d *DAG) Len() int {
	return len(d.nodes)
}

// Requires returns the direct prerequisites of the given node, sorted
// alphabetically. Returns nil if the node has none or does not exist.
func (d *DAG) Requires(id string) []string {
	deps := d.adjacency[id]
	if len(deps) == 0 {
		return nil
	}
	result := make([]string, 0, len(deps))
	for dep := range deps {
		result = append(result, dep)
	}
	sort.Strings(result)
	return result
}

// Unmet returns the direct prerequisites of id that are absent from
// done, sorted alphabetically. An empty result means the node is
// satisfied. Returns ErrNodeNotFound for unknown nodes.
func (d *DAG) Unmet(id string, done map[string]bool) ([]string, error) {
	if !d.nodes[id] {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	var missing []string
	for dep := range d.adjacency[id] {
		if !done[dep] {
			missing = append(missing, dep)
		}
	}
	sort.Strings(missing)
	return missing, nil
}

// Satisfied returns node IDs whose prerequisites are all present in
// done, including nodes already in done themselves. Results are sorted
// alphabetically.
func (d *DAG) Satisfied(done map[string]bool) []string {
	var ready []string
	for id := range d.nodes {
		allMet := true
		for dep := range d.adjacency[id] {
			if !done[dep] {
				allMet = false
				break
			}
		}
		if allMet {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)
	return ready
}

// TopologicalSort returns node IDs in a valid unlock order
// (prerequisites come before dependents). Nodes freed at the same time
// appear alphabetically. Returns ErrCycle if the graph contains a
// cycle.
func (d *DAG) TopologicalSort() ([]string, error) {
	inDegree := make(map[string]int, len(d.nodes))
	for id := range d.nodes {
		inDegree[id] = len(d.adjacency[id])
	}

	queue := d.zeroDegreeNodes(inDegree)
	sort.Strings(queue)

	sorted := make([]string, 0, len(d.nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)

		// Collect newly freed dependents.
		var freed []string
		for dependent := range d.reverse[id] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				freed = append(freed, dependent)
			}
		}
		if len(freed) > 0 {
			sort.Strings(freed)
			queue = append(queue, freed...)
		}
	}

	if len(sorted) != len(d.nodes) {
		return nil, fmt.Errorf("%w: not all nodes could be ordered (%d of %d)",
			ErrCycle, len(sorted), len(d.nodes))
	}
	return sorted, nil
}

// Ancestors returns all transitive prerequisites of the given node
// (i.e., everything it transitively requires). The result is sorted
// alphabetically. Returns nil if the node has no prerequisites or does
// not exist.
func (d *DAG) Ancestors(id string) []string {
	if !d.nodes[id] {
		return nil
	}
	visited := make(map[string]bool)
	d.collectAncestors(id, visited)
	if len(visited) == 0 {
		return nil
	}
	result := make([]string, 0, len(visited))
	for v := range visited {
		result = append(result, v)
	}
	sort.Strings(result)
	return result
}

// hasPath reports whether there is a directed path from src to dst
// through the prerequisite graph (forward edges).
func (d *DAG) hasPath(src, dst string) bool {
	if src == dst {
		return false
	}
	visited := make(map[string]bool)
	queue := []string{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for dep := range d.adjacency[cur] {
			if dep == dst {
				return true
			}
			if !visited[dep] {
				visited[dep] = true
				queue = append(queue, dep)
			}
		}
	}
	return false
}

// collectAncestors walks forward edges from id, collecting all
// reachable nodes (transitive prerequisites).
func (d *DAG) collectAncestors(id string, visited map[string]bool) {
	for dep := range d.adjacency[id] {
		if !visited[dep] {
			visited[dep] = true
			d.collectAncestors(dep, visited)
		}
	}
}

// zeroDegreeNodes returns IDs from the in-degree map that have zero value.
func (d *DAG) zeroDegreeNodes(inDegree map[string]int) []string {
	var result []string
	for id, deg := range inDegree {
		if deg == 0 {
			result = append(result, id)
		}
	}
	return result
}
