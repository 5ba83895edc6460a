package dag

import "sort"

// Depth returns the number of edges on the longest prerequisite chain
// below id. Nodes without prerequisites have depth 0; unknown ids
// return -1.
func (d *DAG) Depth(id string) int {
	if !d.nodes[id] {
		return -1
	}
	memo := make(map[string]int, len(d.nodes))
	return d.depth(id, memo)
}

func (d *DAG) depth(id string, memo map[string]int) int {
	if v, ok := memo[id]; ok {
		return v
	}
	best := 0
	for dep := range d.adjacency[id] {
		if v := d.depth(dep, memo) + 1; v > best {
			best = v
		}
	}
	memo[id] = best
	return best
}

// MaxDepth returns the longest prerequisite chain in the graph and the
// node that ends it. Ties resolve to the alphabetically first node; an
// empty graph returns 0 and "".
func (d *DAG) MaxDepth() (int, string) {
	memo := make(map[string]int, len(d.nodes))
	best, at := -1, ""
	for _, id := range d.Nodes() {
		if v := d.depth(id, memo); v > best {
			best, at = v, id
		}
	}
	if best < 0 {
		return 0, ""
	}
	return best, at
}

// Threads partitions the graph into independent prerequisite threads:
// groups of nodes connected through requirements, directly or
// transitively. A node with no requirements in either direction forms
// a thread of one. Threads come back largest first (ties by first
// member); members are in unlock order.
func (d *DAG) Threads() [][]string {
	parent := make(map[string]string, len(d.nodes))
	for id := range d.nodes {
		parent[id] = id
	}
	var find func(string) string
	find = func(x string) string {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	for id, deps := range d.adjacency {
		for dep := range deps {
			if ra, rb := find(id), find(dep); ra != rb {
				parent[rb] = ra
			}
		}
	}

	// Edges are cycle-checked at insertion, so the sort cannot fail.
	order, err := d.TopologicalSort()
	if err != nil {
		order = d.Nodes()
	}
	groups := make(map[string][]string)
	for _, id := range order {
		root := find(id)
		groups[root] = append(groups[root], id)
	}

	threads := make([][]string, 0, len(groups))
	for _, members := range groups {
		threads = append(threads, members)
	}
	sort.Slice(threads, func(i, j int) bool {
		if len(threads[i]) != len(threads[j]) {
			return len(threads[i]) > len(threads[j])
		}
		return threads[i][0] < threads[j][0]
	})
	return threads
}
