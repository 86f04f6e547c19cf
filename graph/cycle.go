package graph

import "sort"

// pathTo searches the live view for a path from start to goal over
// forward edges, returning the node sequence including both endpoints.
// Breadth-first, so the path is shortest by hop count. The walk visits
// each node and live edge at most once.
func (g *Graph) pathTo(start, goal string) ([]string, bool) {
	if start == goal {
		return []string{start}, true
	}
	visited := map[string]bool{start: true}
	parent := map[string]string{}
	queue := []string{start}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, next := range g.outNeighbors(node) {
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = node
			if next == goal {
				return rebuildPath(parent, start, goal), true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}

func rebuildPath(parent map[string]string, start, goal string) []string {
	path := []string{goal}
	for node := goal; node != start; {
		node = parent[node]
		path = append(path, node)
	}
	// Reverse into start..goal order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// outNeighbors lists the distinct forward neighbors of a node in the
// live view, sorted for deterministic traversal. The caller holds the
// mutex or owns an unshared view.
func (g *Graph) outNeighbors(id string) []string {
	refs := g.out[id]
	if len(refs) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(refs))
	neighbors := make([]string, 0, len(refs))
	for ref := range refs {
		if !seen[ref.id] {
			seen[ref.id] = true
			neighbors = append(neighbors, ref.id)
		}
	}
	sort.Strings(neighbors)
	return neighbors
}

// StronglyConnected returns every strongly connected component of the
// snapshot with more than one node, plus single nodes with a self
// edge. On an acyclic graph the result is empty; a non-empty result
// means the no-cycle invariant has been breached out of band.
func (s *Snapshot) StronglyConnected() [][]string {
	index := 0
	indexes := map[string]int{}
	low := map[string]int{}
	onStack := map[string]bool{}
	var stack []string
	var components [][]string

	var strongConnect func(v string)
	strongConnect = func(v string) {
		indexes[v] = index
		low[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range s.Out(v) {
			if _, seen := indexes[w]; !seen {
				strongConnect(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] {
				if indexes[w] < low[v] {
					low[v] = indexes[w]
				}
			}
		}

		if low[v] == indexes[v] {
			var component []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				component = append(component, w)
				if w == v {
					break
				}
			}
			if len(component) > 1 {
				sort.Strings(component)
				components = append(components, component)
			} else if s.hasEdge(component[0], component[0]) {
				components = append(components, component)
			}
		}
	}

	for _, node := range s.Nodes {
		if _, seen := indexes[node]; !seen {
			strongConnect(node)
		}
	}
	return components
}
