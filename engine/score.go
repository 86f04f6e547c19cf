package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/c360studio/reqgraph/graph"
	"github.com/c360studio/reqgraph/hierarchy"
	"github.com/c360studio/reqgraph/requirement"
	"github.com/c360studio/reqgraph/scoring"
)

// searchK bounds how many similarity matches feed the duplication and
// ambiguity detectors.
const searchK = 5

// ScoreRequirement assembles the friction subject for one requirement
// from the store, graph, and search collaborator, then runs the
// detector set under the current policy.
func (e *Engine) ScoreRequirement(ctx context.Context, logicalID string) (*scoring.Report, error) {
	policy := e.policy()
	subject, err := e.buildSubject(ctx, logicalID, policy)
	if err != nil {
		return nil, err
	}
	result := scoring.Score(*subject, policy)
	return scoring.BuildReport(result, policy, e.now()), nil
}

func (e *Engine) buildSubject(ctx context.Context, logicalID string, policy scoring.Policy) (*scoring.Subject, error) {
	current, err := e.store.GetLatest(ctx, logicalID)
	if err != nil {
		return nil, err
	}

	versions, err := e.store.AllVersions(ctx, logicalID)
	if err != nil {
		return nil, err
	}

	s := scoring.Subject{
		Requirement:  current,
		VersionCount: len(versions),
	}
	if len(versions) > 0 {
		s.FirstTitle = versions[0].Title
	}

	peers, err := e.ListRequirements(ctx)
	if err != nil {
		return nil, err
	}
	peerByID := make(map[string]*requirement.Requirement, len(peers))
	views := make([]scoring.ConstraintView, 0, len(peers))
	for _, peer := range peers {
		peerByID[peer.LogicalID] = peer
		views = append(views, scoring.ViewOf(peer))
		if peer.Priority >= policy.HighPriority {
			s.HighPriorityCount++
		}
	}

	for _, c := range scoring.DetectConflicts(views, policy.NumericRatio) {
		if c.Req1 != logicalID && c.Req2 != logicalID {
			continue
		}
		s.Conflicts = append(s.Conflicts, c)
		s.ConstraintViolations = append(s.ConstraintViolations, fmt.Sprintf("%s: %s", c.Rule, c.Detail))
		// Timeline and exclusive-choice clashes are competing claims on
		// the same resource; numeric gaps and quality tradeoffs are not.
		if c.Rule == scoring.RuleTemporalIncompatibility || c.Rule == scoring.RuleExclusiveChoice {
			s.ResourceConflict = true
		}
	}

	s.HierarchyViolations = e.hierarchyViolations(current, peerByID)

	snap, err := e.graph.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if slices.Contains(snap.Out(logicalID), logicalID) {
		s.SelfReference = true
	}
	for _, component := range snap.StronglyConnected() {
		if !slices.Contains(component, logicalID) {
			continue
		}
		s.CyclePath = append(slices.Clone(component), component[0])
		break
	}

	depth, err := e.monitor().DepthCheck(ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range depth.Violations {
		if v.Hard && slices.Contains(v.Path, logicalID) {
			s.ConstraintViolations = append(s.ConstraintViolations,
				fmt.Sprintf("max_depth: dependency chain of %d exceeds hard limit %d", v.Depth, depth.HardLimit))
		}
	}

	e.searchContext(ctx, current, &s)
	return &s, nil
}

// hierarchyViolations re-checks the live edges touching a requirement.
// AddEdge already rejected critical pairings, so anything found here is
// advisory drift: level skips, or levels edited after the edge landed.
func (e *Engine) hierarchyViolations(current *requirement.Requirement, peers map[string]*requirement.Requirement) []*hierarchy.Violation {
	var out []*hierarchy.Violation
	for _, edge := range e.graph.Dependencies(current.LogicalID, graph.DirectionDependsOn) {
		to, ok := peers[edge.To]
		if !ok {
			continue
		}
		if v := hierarchy.Check(current.HierarchyLevel, to.HierarchyLevel, current.Title, to.Title); v != nil {
			out = append(out, v)
		}
	}
	for _, edge := range e.graph.Dependencies(current.LogicalID, graph.DirectionDependedOnBy) {
		from, ok := peers[edge.From]
		if !ok {
			continue
		}
		if v := hierarchy.Check(from.HierarchyLevel, current.HierarchyLevel, from.Title, current.Title); v != nil {
			out = append(out, v)
		}
	}
	return out
}

// searchContext fills the duplication and interpretation inputs from
// the search collaborator. Search failures degrade to the detectors'
// vocabulary fallbacks instead of failing the score.
func (e *Engine) searchContext(ctx context.Context, current *requirement.Requirement, s *scoring.Subject) {
	text := current.Title
	if current.Description != "" {
		text = strings.Join([]string{current.Title, current.Description}, " ")
	}

	similar, err := e.index.SearchSimilar(ctx, text, searchK)
	if err != nil {
		e.logger.Warn("similarity search failed", "logical_id", current.LogicalID, "error", err)
	}
	for _, m := range similar {
		if m.LogicalID == current.LogicalID {
			continue
		}
		s.Duplicates = append(s.Duplicates, m)
		if m.Score > s.DuplicateSimilarity {
			s.DuplicateSimilarity = m.Score
		}
	}

	keyword, err := e.index.SearchKeyword(ctx, current.Title, searchK)
	if err != nil {
		e.logger.Warn("keyword search failed", "logical_id", current.LogicalID, "error", err)
	}
	for _, m := range keyword {
		if m.LogicalID != current.LogicalID {
			s.InterpretationCount++
		}
	}
}
