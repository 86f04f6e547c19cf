// Package engine composes the requirement store, dependency graph,
// history, scoring, and health services behind one command surface.
// Transports (stream consumers, HTTP handlers, the CLI) hold a single
// *Engine and never reach into the layers below it.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/reqgraph/graph"
	"github.com/c360studio/reqgraph/health"
	"github.com/c360studio/reqgraph/hierarchy"
	"github.com/c360studio/reqgraph/history"
	"github.com/c360studio/reqgraph/requirement"
	"github.com/c360studio/reqgraph/scoring"
	"github.com/c360studio/reqgraph/storage"
	"github.com/c360studio/semstreams/natsclient"
)

// Engine is the command surface over one requirement graph.
type Engine struct {
	store   *storage.EntityStore
	graph   *graph.Graph
	history *history.Service
	index   scoring.SearchIndex
	policy  func() scoring.Policy
	limits  health.Limits

	isolationExempt []string
	nc      *natsclient.Client
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithSearchIndex installs the similarity collaborator used by the
// duplication and ambiguity detectors. The default is a no-op index.
func WithSearchIndex(index scoring.SearchIndex) Option {
	return func(e *Engine) { e.index = index }
}

// WithPolicySource installs the scoring policy source. The function is
// consulted per scoring request, so a hot-reloaded config watcher can
// be wired in as a method value.
func WithPolicySource(policy func() scoring.Policy) Option {
	return func(e *Engine) { e.policy = policy }
}

// WithLimits sets the structural limits used by health checks and the
// max_depth constraint detector.
func WithLimits(limits health.Limits) Option {
	return func(e *Engine) { e.limits = limits }
}

// WithIsolationExemptions names requirements the isolation check
// skips, typically top-level roots that legitimately have no edges yet.
func WithIsolationExemptions(ids []string) Option {
	return func(e *Engine) { e.isolationExempt = ids }
}

// WithPublisher mirrors accepted writes to the semantic ingest stream.
// A nil client leaves publishing off.
func WithPublisher(nc *natsclient.Client) Option {
	return func(e *Engine) { e.nc = nc }
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an Engine over a store and its dependency graph.
func New(store *storage.EntityStore, g *graph.Graph, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		graph:   g,
		history: history.NewService(store),
		index:   scoring.NoopIndex{},
		policy:  scoring.DefaultPolicy,
		limits:  health.DefaultLimits(),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateRequirement writes version zero of a new logical id. Creating
// an id that already has a live version is rejected; a deleted id may
// be recreated, continuing its version history.
func (e *Engine) CreateRequirement(ctx context.Context, logicalID string, fields requirement.Fields) (*requirement.Requirement, error) {
	current, err := e.store.GetLatest(ctx, logicalID)
	switch {
	case err == nil:
		return nil, requirement.NewValidation("logical_id",
			fmt.Sprintf("requirement %q already exists at version %d", logicalID, current.VersionIndex))
	case requirement.IsKind(err, requirement.KindNotFound):
	case requirement.IsKind(err, requirement.KindDeleted):
	default:
		return nil, err
	}

	r, err := e.store.CreateVersion(ctx, logicalID, fields, requirement.OperationCreate)
	if err != nil {
		return nil, err
	}
	e.publish(ctx, r)
	return r, nil
}

// UpdateRequest carries a partial update. Nil fields keep the current
// value; Author and ChangeReason always describe the new version.
type UpdateRequest struct {
	Title           *string             `json:"title,omitempty"`
	Description     *string             `json:"description,omitempty"`
	Status          *requirement.Status `json:"status,omitempty"`
	Priority        *int                `json:"priority,omitempty"`
	RequirementType *string             `json:"requirement_type,omitempty"`
	HierarchyLevel  *hierarchy.Level    `json:"hierarchy_level,omitempty"`
	Extensions      map[string]any      `json:"extensions,omitempty"`
	Author          string              `json:"author,omitempty"`
	ChangeReason    string              `json:"change_reason,omitempty"`
}

// UpdateRequirement appends the next version of a requirement. The base
// is the current version; req overrides the fields it sets. A status
// change must follow the lifecycle transitions.
func (e *Engine) UpdateRequirement(ctx context.Context, logicalID string, req UpdateRequest) (*requirement.Requirement, error) {
	current, err := e.store.GetLatest(ctx, logicalID)
	if err != nil {
		return nil, err
	}

	fields := requirement.FieldsOf(current)
	if req.Title != nil {
		fields.Title = *req.Title
	}
	if req.Description != nil {
		fields.Description = *req.Description
	}
	if req.Status != nil && *req.Status != current.Status {
		next := *req.Status
		if !next.IsValid() {
			return nil, requirement.NewValidation("status", fmt.Sprintf("unknown status %q", next))
		}
		if !current.Status.CanTransitionTo(next) {
			return nil, requirement.NewInvalidTransition(logicalID, current.Status, next)
		}
		fields.Status = next
	}
	if req.Priority != nil {
		fields.Priority = *req.Priority
	}
	if req.RequirementType != nil {
		fields.RequirementType = *req.RequirementType
	}
	if req.HierarchyLevel != nil {
		fields.HierarchyLevel = *req.HierarchyLevel
	}
	if req.Extensions != nil {
		fields.Extensions = req.Extensions
	}
	fields.Author = req.Author
	fields.ChangeReason = req.ChangeReason

	r, err := e.store.CreateVersion(ctx, logicalID, fields, requirement.OperationUpdate)
	if err != nil {
		return nil, err
	}
	e.publish(ctx, r)
	return r, nil
}

// DeleteRequirement appends the delete tombstone and retires the
// requirement's live edges. History and the edge event log keep the
// full record.
func (e *Engine) DeleteRequirement(ctx context.Context, logicalID, author, reason string) (*requirement.Requirement, error) {
	current, err := e.store.GetLatest(ctx, logicalID)
	if err != nil {
		return nil, err
	}

	fields := requirement.FieldsOf(current)
	fields.Author = author
	fields.ChangeReason = reason
	r, err := e.store.CreateVersion(ctx, logicalID, fields, requirement.OperationDelete)
	if err != nil {
		return nil, err
	}

	for _, dir := range []graph.Direction{graph.DirectionDependsOn, graph.DirectionDependedOnBy} {
		for _, edge := range e.graph.Dependencies(logicalID, dir) {
			if _, err := e.graph.RemoveEdge(ctx, edge.From, edge.To, edge.Type); err != nil {
				return nil, fmt.Errorf("retire edge %s -> %s: %w", edge.From, edge.To, err)
			}
		}
	}

	e.publish(ctx, r)
	return r, nil
}

// GetRequirement returns the current version of a requirement.
func (e *Engine) GetRequirement(ctx context.Context, logicalID string) (*requirement.Requirement, error) {
	return e.store.GetLatest(ctx, logicalID)
}

// GetVersion returns one pinned version, tombstones included.
func (e *Engine) GetVersion(ctx context.Context, logicalID string, index int) (*requirement.Requirement, error) {
	return e.store.GetVersion(ctx, logicalID, index)
}

// ListRequirements returns the latest version of every live
// requirement, ordered by logical id.
func (e *Engine) ListRequirements(ctx context.Context) ([]*requirement.Requirement, error) {
	ids, err := e.store.LiveIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*requirement.Requirement, 0, len(ids))
	for _, id := range ids {
		r, err := e.store.GetLatest(ctx, id)
		if err != nil {
			// A delete that lands between listing and reading is not an
			// error for the listing.
			if requirement.IsKind(err, requirement.KindDeleted) || requirement.IsKind(err, requirement.KindNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// GetHistory returns every version of a requirement, oldest first,
// tombstones included.
func (e *Engine) GetHistory(ctx context.Context, logicalID string) ([]*requirement.Requirement, error) {
	return e.history.History(ctx, logicalID)
}

// GetAtTimestamp returns the version that was current at an instant.
func (e *Engine) GetAtTimestamp(ctx context.Context, logicalID string, at time.Time) (*requirement.Requirement, error) {
	return e.history.AtTimestamp(ctx, logicalID, at)
}

// DiffVersions compares two versions of one requirement.
func (e *Engine) DiffVersions(ctx context.Context, logicalID string, fromIndex, toIndex int) (*history.Diff, error) {
	return e.history.Diff(ctx, logicalID, fromIndex, toIndex)
}

// AddDependency validates and commits one dependency edge. A non-nil
// violation is an advisory warning on an accepted edge; rejections come
// back as errors.
func (e *Engine) AddDependency(ctx context.Context, from, to, depType, reason string) (graph.Edge, *hierarchy.Violation, error) {
	edge, warn, err := e.graph.AddEdge(ctx, from, to, depType, reason)
	if err != nil {
		return graph.Edge{}, nil, err
	}
	e.publishEdge(ctx, edge)
	return edge, warn, nil
}

// AddDependencies commits a batch of edges all-or-nothing.
func (e *Engine) AddDependencies(ctx context.Context, reqs []graph.EdgeRequest) ([]graph.Edge, []*hierarchy.Violation, error) {
	edges, warns, err := e.graph.AddEdges(ctx, reqs)
	if err != nil {
		return nil, nil, err
	}
	for _, edge := range edges {
		e.publishEdge(ctx, edge)
	}
	return edges, warns, nil
}

// RemoveDependency tombstones one live edge.
func (e *Engine) RemoveDependency(ctx context.Context, from, to, depType string) (graph.Edge, error) {
	return e.graph.RemoveEdge(ctx, from, to, depType)
}

// CheckGraphHealth computes the aggregate dashboard.
func (e *Engine) CheckGraphHealth(ctx context.Context) (*health.Dashboard, error) {
	return e.monitor().Dashboard(ctx)
}

// ReloadGraph refolds the persisted edge log into the live view.
// Read-only monitors in a separate process use it to pick up edges
// committed by other writers.
func (e *Engine) ReloadGraph(ctx context.Context) error {
	return e.graph.Load(ctx)
}

func (e *Engine) monitor() *health.Monitor {
	return health.NewMonitor(e.graph, e.limits,
		health.WithClock(e.now),
		health.WithIsolationExemptions(e.isolationExempt))
}

func (e *Engine) publish(ctx context.Context, r *requirement.Requirement) {
	if err := graph.PublishRequirement(ctx, e.nc, r); err != nil {
		e.logger.Warn("requirement publish failed", "logical_id", r.LogicalID, "error", err)
	}
	if e.nc == nil {
		return
	}
	event := requirement.ChangeEvent{
		LogicalID:    r.LogicalID,
		EntityID:     r.EntityID,
		VersionIndex: r.VersionIndex,
		Op:           r.Operation,
		Status:       r.Status,
		OccurredAt:   r.CreatedAt,
	}
	data, err := json.Marshal(&event)
	if err != nil {
		e.logger.Warn("marshal change event", "logical_id", r.LogicalID, "error", err)
		return
	}
	if err := e.nc.PublishToStream(ctx, requirement.ChangeEventSubject, data); err != nil {
		e.logger.Warn("change event publish failed", "logical_id", r.LogicalID, "error", err)
	}
}

func (e *Engine) publishEdge(ctx context.Context, edge graph.Edge) {
	if err := graph.PublishDependency(ctx, e.nc, edge); err != nil {
		e.logger.Warn("dependency publish failed", "from", edge.From, "to", edge.To, "error", err)
	}
}
