package health

import (
	"sort"

	"github.com/c360studio/reqgraph/graph"
)

const (
	stateUnvisited = iota
	stateActive
	stateDone
)

// longestChains computes, per node, the longest forward chain in edges
// and the successor continuing it. Back edges are skipped; CycleScan
// owns cycle reporting.
func longestChains(s *graph.Snapshot) (map[string]int, map[string]string) {
	depth := make(map[string]int, len(s.Nodes))
	next := make(map[string]string)
	state := make(map[string]int, len(s.Nodes))

	var walk func(id string)
	walk = func(id string) {
		state[id] = stateActive
		best, pick := 0, ""
		for _, succ := range s.Out(id) {
			if state[succ] == stateActive {
				continue
			}
			if state[succ] == stateUnvisited {
				walk(succ)
			}
			if d := depth[succ] + 1; d > best {
				best, pick = d, succ
			}
		}
		depth[id] = best
		if pick != "" {
			next[id] = pick
		}
		state[id] = stateDone
	}
	for _, id := range s.Nodes {
		if state[id] == stateUnvisited {
			walk(id)
		}
	}
	return depth, next
}

func chainFrom(id string, next map[string]string) []string {
	path := []string{id}
	for {
		succ, ok := next[id]
		if !ok {
			return path
		}
		path = append(path, succ)
		id = succ
	}
}

func depthReport(s *graph.Snapshot, limits Limits) *DepthReport {
	depth, next := longestChains(s)

	maxDepth := 0
	for _, d := range depth {
		if d > maxDepth {
			maxDepth = d
		}
	}

	// Every node along an over-deep chain exceeds the limit; report
	// only heads, nodes not continued into by another offender.
	continued := make(map[string]bool)
	for id, d := range depth {
		if d <= limits.AdvisoryDepth {
			continue
		}
		if succ, ok := next[id]; ok && depth[succ] > limits.AdvisoryDepth {
			continued[succ] = true
		}
	}

	violations := []DepthViolation{}
	for _, id := range s.Nodes {
		d := depth[id]
		if d <= limits.AdvisoryDepth || continued[id] {
			continue
		}
		violations = append(violations, DepthViolation{
			LogicalID: id,
			Depth:     d,
			Path:      chainFrom(id, next),
			Hard:      d > limits.HardDepth,
		})
	}
	sort.Slice(violations, func(i, j int) bool {
		if violations[i].Depth != violations[j].Depth {
			return violations[i].Depth > violations[j].Depth
		}
		return violations[i].LogicalID < violations[j].LogicalID
	})

	return &DepthReport{
		MaxDepth:      maxDepth,
		AdvisoryLimit: limits.AdvisoryDepth,
		HardLimit:     limits.HardDepth,
		Violations:    violations,
	}
}

func isolationReport(s *graph.Snapshot, exempt map[string]bool) *IsolationReport {
	r := &IsolationReport{IsolatedNodes: []string{}}
	for _, id := range s.Nodes {
		if s.Degree(id) == 0 && !exempt[id] {
			r.IsolatedNodes = append(r.IsolatedNodes, id)
		}
	}
	r.IsolatedCount = len(r.IsolatedNodes)
	return r
}

func connectivityReport(s *graph.Snapshot) *ConnectivityReport {
	visited := make(map[string]bool, len(s.Nodes))
	components := [][]string{}

	for _, start := range s.Nodes {
		if visited[start] {
			continue
		}
		comp := []string{}
		queue := []string{start}
		visited[start] = true
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			comp = append(comp, id)
			enqueue := func(n string) {
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
			for _, n := range s.Out(id) {
				enqueue(n)
			}
			for _, n := range s.In(id) {
				enqueue(n)
			}
		}
		sort.Strings(comp)
		components = append(components, comp)
	}
	sort.Slice(components, func(i, j int) bool {
		if len(components[i]) != len(components[j]) {
			return len(components[i]) > len(components[j])
		}
		return components[i][0] < components[j][0]
	})

	largest := 0
	if len(components) > 0 {
		largest = len(components[0])
	}
	maxDegree := 0
	for _, id := range s.Nodes {
		if d := s.Degree(id); d > maxDegree {
			maxDegree = d
		}
	}

	m := ConnectivityMetrics{
		TotalNodes: len(s.Nodes),
		TotalEdges: len(s.Edges),
		MaxDegree:  maxDegree,
	}
	if m.TotalNodes > 0 {
		m.AverageDegree = float64(m.TotalEdges) / float64(m.TotalNodes)
		m.ConnectivityRatio = float64(largest) / float64(m.TotalNodes)
	}

	return &ConnectivityReport{
		ConnectedComponents: len(components),
		Components:          components,
		LargestComponent:    largest,
		Metrics:             m,
	}
}
