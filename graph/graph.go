// Package graph maintains the acyclic, hierarchy-constrained dependency
// graph between requirements. Edges are validated against the live
// in-memory view and committed to an append-only event log; removal is
// a tombstone event, never a destructive delete.
package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/c360studio/reqgraph/hierarchy"
	"github.com/c360studio/reqgraph/requirement"
)

// Direction selects which side of the adjacency a listing walks.
type Direction string

const (
	// DirectionDependsOn lists edges leaving a requirement: what it
	// depends on.
	DirectionDependsOn Direction = "depends_on"
	// DirectionDependedOnBy lists edges arriving at a requirement: what
	// depends on it.
	DirectionDependedOnBy Direction = "depended_on_by"
)

// IsValid returns true for a known direction.
func (d Direction) IsValid() bool {
	return d == DirectionDependsOn || d == DirectionDependedOnBy
}

// EntityView is what the graph needs to know about requirement
// entities: current versions for endpoint checks and the live id set
// for snapshots.
type EntityView interface {
	GetLatest(ctx context.Context, logicalID string) (*requirement.Requirement, error)
	LiveIDs(ctx context.Context) ([]string, error)
}

// EdgeRequest is one edge in a batch add.
type EdgeRequest struct {
	From   string `json:"from_logical_id"`
	To     string `json:"to_logical_id"`
	Type   string `json:"dependency_type,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// edgeRef identifies a live edge from one endpoint's perspective.
type edgeRef struct {
	id      string
	depType string
}

// Graph holds the live dependency view and serializes all mutation.
// Invariant checks and the commit run under one mutex, so no writer
// can interleave between a cycle check and the append it guards.
type Graph struct {
	entities EntityView
	log      *EdgeLog

	mu  sync.Mutex
	out map[string]map[edgeRef]Edge
	in  map[string]map[edgeRef]Edge

	now func() time.Time
}

// New builds an empty graph over the given entity view and edge log.
// Call Load before use to fold the persisted event log into the live
// view.
func New(entities EntityView, log *EdgeLog) *Graph {
	return &Graph{
		entities: entities,
		log:      log,
		out:      make(map[string]map[edgeRef]Edge),
		in:       make(map[string]map[edgeRef]Edge),
		now:      time.Now,
	}
}

// Load folds the persisted edge log into the live view, replacing any
// current state.
func (g *Graph) Load(ctx context.Context) error {
	events, err := g.log.All(ctx)
	if err != nil {
		return fmt.Errorf("load edge log: %w", err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.out = make(map[string]map[edgeRef]Edge)
	g.in = make(map[string]map[edgeRef]Edge)
	for _, e := range events {
		g.applyLocked(e)
	}
	return nil
}

// applyLocked folds one event into the live maps. The caller holds the
// mutex.
func (g *Graph) applyLocked(e Edge) {
	outRef := edgeRef{id: e.To, depType: e.Type}
	inRef := edgeRef{id: e.From, depType: e.Type}
	if e.Tombstone {
		if m := g.out[e.From]; m != nil {
			delete(m, outRef)
			if len(m) == 0 {
				delete(g.out, e.From)
			}
		}
		if m := g.in[e.To]; m != nil {
			delete(m, inRef)
			if len(m) == 0 {
				delete(g.in, e.To)
			}
		}
		return
	}
	if g.out[e.From] == nil {
		g.out[e.From] = make(map[edgeRef]Edge)
	}
	g.out[e.From][outRef] = e
	if g.in[e.To] == nil {
		g.in[e.To] = make(map[edgeRef]Edge)
	}
	g.in[e.To][inRef] = e
}

// liveEdge returns the live edge from -> to of the given type, if any.
// The caller holds the mutex.
func (g *Graph) liveEdge(from, to, depType string) (Edge, bool) {
	e, ok := g.out[from][edgeRef{id: to, depType: depType}]
	return e, ok
}

// AddEdge validates and commits one dependency edge. The checks run in
// order: input validation, self-reference, endpoint existence,
// duplicate detection, cycle detection, hierarchy rules. Re-adding a
// live edge is a no-op returning the existing edge. A moderate
// hierarchy advisory (skipped levels) does not block the edge and is
// returned alongside it.
//
// The cycle check walks the live view once per call, O(nodes + edges);
// graphs beyond roughly a hundred thousand edges should batch their
// writes.
func (g *Graph) AddEdge(ctx context.Context, from, to, depType, reason string) (Edge, *hierarchy.Violation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if depType == "" {
		depType = DefaultDependencyType
	}
	edge, warn, exists, err := g.validateLocked(ctx, g, from, to, depType, reason)
	if err != nil {
		return Edge{}, nil, err
	}
	if exists {
		return edge, warn, nil
	}

	committed, err := g.log.Append(ctx, edge)
	if err != nil {
		return Edge{}, nil, err
	}
	g.applyLocked(committed)
	return committed, warn, nil
}

// AddEdges validates a batch against the live view plus the accepted
// prefix of the batch, then commits. A failure anywhere rejects the
// whole batch with no events written.
func (g *Graph) AddEdges(ctx context.Context, reqs []EdgeRequest) ([]Edge, []*hierarchy.Violation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	staged := &Graph{
		entities: g.entities,
		out:      cloneAdjacency(g.out),
		in:       cloneAdjacency(g.in),
		now:      g.now,
	}

	edges := make([]Edge, 0, len(reqs))
	warnings := make([]*hierarchy.Violation, 0)
	for i, req := range reqs {
		depType := req.Type
		if depType == "" {
			depType = DefaultDependencyType
		}
		edge, warn, exists, err := g.validateLocked(ctx, staged, req.From, req.To, depType, req.Reason)
		if err != nil {
			return nil, nil, fmt.Errorf("edge %d (%s -> %s): %w", i, req.From, req.To, err)
		}
		if warn != nil {
			warnings = append(warnings, warn)
		}
		if exists {
			continue
		}
		staged.applyLocked(edge)
		edges = append(edges, edge)
	}

	committed := make([]Edge, 0, len(edges))
	for _, edge := range edges {
		c, err := g.log.Append(ctx, edge)
		if err != nil {
			return nil, nil, err
		}
		g.applyLocked(c)
		committed = append(committed, c)
	}
	return committed, warnings, nil
}

// validateLocked runs the full invariant pipeline for one proposed
// edge against the given view. It returns the edge to commit, any
// moderate advisory, and whether an identical live edge already
// exists. The caller holds g's mutex; view is either g itself or a
// staged clone.
func (g *Graph) validateLocked(ctx context.Context, view *Graph, from, to, depType, reason string) (Edge, *hierarchy.Violation, bool, error) {
	if err := requirement.ValidateLogicalID(from); err != nil {
		return Edge{}, nil, false, err
	}
	if err := requirement.ValidateLogicalID(to); err != nil {
		return Edge{}, nil, false, err
	}

	if from == to {
		return Edge{}, nil, false, requirement.NewSelfReference(from)
	}

	fromReq, err := g.entities.GetLatest(ctx, from)
	if err != nil {
		return Edge{}, nil, false, err
	}
	toReq, err := g.entities.GetLatest(ctx, to)
	if err != nil {
		return Edge{}, nil, false, err
	}

	if existing, ok := view.liveEdge(from, to, depType); ok {
		warn := hierarchy.Check(fromReq.HierarchyLevel, toReq.HierarchyLevel, fromReq.Title, toReq.Title)
		if warn != nil && warn.Critical() {
			warn = nil
		}
		return existing, warn, true, nil
	}

	// A path to -> ... -> from means from -> to would close a cycle.
	if tail, found := view.pathTo(to, from); found {
		cycle := make([]string, 0, len(tail)+1)
		cycle = append(cycle, from)
		cycle = append(cycle, tail...)
		return Edge{}, nil, false, requirement.NewCircularDependency(cycle)
	}

	violation := hierarchy.Check(fromReq.HierarchyLevel, toReq.HierarchyLevel, fromReq.Title, toReq.Title)
	if violation != nil && violation.Critical() {
		return Edge{}, nil, false, requirement.NewHierarchyViolation(violation)
	}

	edge := Edge{
		From:      from,
		To:        to,
		Type:      depType,
		Reason:    reason,
		CreatedAt: g.now().UTC(),
	}
	return edge, violation, false, nil
}

// RemoveEdge commits a tombstone for a live edge. Removing an edge
// that is not live is a not-found error; the event log keeps every
// prior edge and tombstone.
func (g *Graph) RemoveEdge(ctx context.Context, from, to, depType string) (Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if depType == "" {
		depType = DefaultDependencyType
	}
	if err := requirement.ValidateLogicalID(from); err != nil {
		return Edge{}, err
	}
	if err := requirement.ValidateLogicalID(to); err != nil {
		return Edge{}, err
	}
	if _, ok := g.liveEdge(from, to, depType); !ok {
		return Edge{}, &requirement.Error{
			Kind:    requirement.KindNotFound,
			Message: fmt.Sprintf("dependency %s -> %s (%s) not found", from, to, depType),
		}
	}

	tombstone := Edge{
		From:      from,
		To:        to,
		Type:      depType,
		Tombstone: true,
		CreatedAt: g.now().UTC(),
	}
	committed, err := g.log.Append(ctx, tombstone)
	if err != nil {
		return Edge{}, err
	}
	g.applyLocked(committed)
	return committed, nil
}

// Dependencies lists the live edges touching a requirement in the
// given direction, sorted by the far endpoint.
func (g *Graph) Dependencies(id string, dir Direction) []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()

	var refs map[edgeRef]Edge
	switch dir {
	case DirectionDependedOnBy:
		refs = g.in[id]
	default:
		refs = g.out[id]
	}
	edges := make([]Edge, 0, len(refs))
	for _, e := range refs {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		return edges[i].Type < edges[j].Type
	})
	return edges
}

// FindPath returns the shortest dependency path between two
// requirements over forward edges, including both endpoints.
func (g *Graph) FindPath(from, to string) ([]string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pathTo(from, to)
}

// Snapshot copies the live view, including edge-less live entities, so
// long-running scans never hold the graph lock.
func (g *Graph) Snapshot(ctx context.Context) (*Snapshot, error) {
	ids, err := g.entities.LiveIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot live ids: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	nodeSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		nodeSet[id] = true
	}

	s := &Snapshot{
		out:   make(map[string][]string),
		in:    make(map[string][]string),
		edges: make(map[string]map[string]bool),
	}
	for from, refs := range g.out {
		nodeSet[from] = true
		for ref, e := range refs {
			nodeSet[ref.id] = true
			s.Edges = append(s.Edges, e)
		}
	}

	s.Nodes = make([]string, 0, len(nodeSet))
	for id := range nodeSet {
		s.Nodes = append(s.Nodes, id)
	}
	sort.Strings(s.Nodes)
	sort.Slice(s.Edges, func(i, j int) bool {
		if s.Edges[i].From != s.Edges[j].From {
			return s.Edges[i].From < s.Edges[j].From
		}
		if s.Edges[i].To != s.Edges[j].To {
			return s.Edges[i].To < s.Edges[j].To
		}
		return s.Edges[i].Type < s.Edges[j].Type
	})

	for _, e := range s.Edges {
		s.out[e.From] = appendUnique(s.out[e.From], e.To)
		s.in[e.To] = appendUnique(s.in[e.To], e.From)
		if s.edges[e.From] == nil {
			s.edges[e.From] = make(map[string]bool)
		}
		s.edges[e.From][e.To] = true
	}
	return s, nil
}

// BuildSnapshot assembles a snapshot from explicit nodes and edges,
// without a live graph behind it. Callers use it to analyze imported
// or replayed edge sets before committing them; BuildSnapshot performs
// no validation, so the result may contain cycles.
func BuildSnapshot(nodes []string, edges []Edge) *Snapshot {
	s := &Snapshot{
		out:   make(map[string][]string),
		in:    make(map[string][]string),
		edges: make(map[string]map[string]bool),
	}
	seen := make(map[string]bool)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			s.Nodes = append(s.Nodes, id)
		}
	}
	for _, id := range nodes {
		add(id)
	}
	for _, e := range edges {
		add(e.From)
		add(e.To)
		s.Edges = append(s.Edges, e)
		s.out[e.From] = appendUnique(s.out[e.From], e.To)
		s.in[e.To] = appendUnique(s.in[e.To], e.From)
		if s.edges[e.From] == nil {
			s.edges[e.From] = make(map[string]bool)
		}
		s.edges[e.From][e.To] = true
	}
	sort.Strings(s.Nodes)
	return s
}

// Snapshot is an immutable copy of the live graph used by scoring,
// health checks, and export.
type Snapshot struct {
	// Nodes lists every live requirement id, including isolated ones.
	Nodes []string
	// Edges lists every live edge.
	Edges []Edge

	out   map[string][]string
	in    map[string][]string
	edges map[string]map[string]bool
}

// Out lists the distinct forward neighbors of a node.
func (s *Snapshot) Out(id string) []string { return s.out[id] }

// In lists the distinct reverse neighbors of a node.
func (s *Snapshot) In(id string) []string { return s.in[id] }

// Degree returns the number of distinct neighbors in both directions.
func (s *Snapshot) Degree(id string) int { return len(s.out[id]) + len(s.in[id]) }

func (s *Snapshot) hasEdge(from, to string) bool {
	return s.edges[from][to]
}

func cloneAdjacency(src map[string]map[edgeRef]Edge) map[string]map[edgeRef]Edge {
	dst := make(map[string]map[edgeRef]Edge, len(src))
	for k, refs := range src {
		m := make(map[edgeRef]Edge, len(refs))
		for ref, e := range refs {
			m[ref] = e
		}
		dst[k] = m
	}
	return dst
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
