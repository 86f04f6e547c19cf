package engine

import (
	"context"
	"sort"

	"github.com/c360studio/reqgraph/hierarchy"
	"github.com/c360studio/reqgraph/requirement"
)

// Impact lists the requirements affected by a change to one
// requirement, grouped by dependency distance.
type Impact struct {
	LogicalID string   `json:"logical_id"`
	Direct    []string `json:"direct"`
	Indirect  []string `json:"indirect"`
	Total     int      `json:"total"`
}

// AnalyzeImpact walks incoming dependency edges from a requirement:
// everything that depends on it, directly or transitively, is affected
// when it changes. Direct dependents sit at distance one.
func (e *Engine) AnalyzeImpact(ctx context.Context, logicalID string) (*Impact, error) {
	if _, err := e.store.GetLatest(ctx, logicalID); err != nil {
		return nil, err
	}
	snap, err := e.graph.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	imp := &Impact{LogicalID: logicalID}
	for id, d := range distances(snap.In, logicalID) {
		if d == 1 {
			imp.Direct = append(imp.Direct, id)
		} else {
			imp.Indirect = append(imp.Indirect, id)
		}
	}
	sort.Strings(imp.Direct)
	sort.Strings(imp.Indirect)
	imp.Total = len(imp.Direct) + len(imp.Indirect)
	return imp, nil
}

// Ancestor is a requirement reachable over outgoing dependency edges,
// with its distance from the starting point.
type Ancestor struct {
	LogicalID string          `json:"logical_id"`
	Title     string          `json:"title"`
	Level     hierarchy.Level `json:"hierarchy_level"`
	Distance  int             `json:"distance"`
}

// FindAncestors lists everything a requirement depends on, directly or
// transitively, nearest first.
func (e *Engine) FindAncestors(ctx context.Context, logicalID string) ([]Ancestor, error) {
	if _, err := e.store.GetLatest(ctx, logicalID); err != nil {
		return nil, err
	}
	snap, err := e.graph.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	dist := distances(snap.Out, logicalID)
	out := make([]Ancestor, 0, len(dist))
	for id, d := range dist {
		a := Ancestor{LogicalID: id, Distance: d}
		// Deleted endpoints keep their place in the walk but hydrate
		// with empty display fields.
		if r, err := e.store.GetLatest(ctx, id); err == nil {
			a.Title = r.Title
			a.Level = r.HierarchyLevel
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].LogicalID < out[j].LogicalID
	})
	return out, nil
}

// FindAbstractRoot resolves the most abstract requirement above a
// requirement: the ancestor at the greatest dependency distance, ties
// broken by more abstract level and then id. A requirement with no
// ancestors is its own root.
func (e *Engine) FindAbstractRoot(ctx context.Context, logicalID string) (*requirement.Requirement, error) {
	current, err := e.store.GetLatest(ctx, logicalID)
	if err != nil {
		return nil, err
	}
	ancestors, err := e.FindAncestors(ctx, logicalID)
	if err != nil {
		return nil, err
	}
	if len(ancestors) == 0 {
		return current, nil
	}

	best := ancestors[0]
	for _, a := range ancestors[1:] {
		switch {
		case a.Distance != best.Distance:
			if a.Distance > best.Distance {
				best = a
			}
		case a.Level != best.Level:
			if a.Level < best.Level {
				best = a
			}
		}
	}
	return e.store.GetLatest(ctx, best.LogicalID)
}

// distances runs a breadth-first walk over one direction of a snapshot
// and returns dependency distance per reached node, excluding start.
func distances(neighbors func(string) []string, start string) map[string]int {
	dist := map[string]int{}
	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range neighbors(id) {
			if seen[next] {
				continue
			}
			seen[next] = true
			dist[next] = dist[id] + 1
			queue = append(queue, next)
		}
	}
	return dist
}
