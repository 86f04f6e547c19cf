package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/natsclient"

	"github.com/c360studio/reqgraph/requirement"
	reqvocab "github.com/c360studio/reqgraph/vocabulary/reqgraph"
)

// Subject for knowledge graph ingestion.
const GraphIngestSubject = "graph.ingest.entity"

// TripleSource tags every published triple with its producer.
const TripleSource = "reqgraph"

// EntityIngestMessage is the message format for graph ingestion.
// Matches the format used by other semstreams components.
type EntityIngestMessage struct {
	ID        string           `json:"id"`
	Triples   []message.Triple `json:"triples"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// PublishRequirement publishes a requirement version to the knowledge
// graph. A nil client skips publishing so the engine degrades
// gracefully when NATS is absent.
func PublishRequirement(ctx context.Context, nc *natsclient.Client, r *requirement.Requirement) error {
	if nc == nil {
		return nil
	}

	entityID := RequirementEntityID(r.LogicalID)
	now := time.Now()

	triples := RequirementTriples(r, now)
	msg := EntityIngestMessage{
		ID:        entityID,
		Triples:   triples,
		UpdatedAt: now,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal requirement entity: %w", err)
	}
	if err := nc.PublishToStream(ctx, GraphIngestSubject, data); err != nil {
		return fmt.Errorf("publish requirement entity: %w", err)
	}
	return nil
}

// PublishDependency publishes a dependency edge to the knowledge
// graph. Tombstones are not published; the graph keeps the last known
// live state.
func PublishDependency(ctx context.Context, nc *natsclient.Client, e Edge) error {
	if nc == nil || e.Tombstone {
		return nil
	}

	entityID := RequirementEntityID(e.From)
	now := time.Now()

	triples := []message.Triple{
		{
			Subject:    entityID,
			Predicate:  reqvocab.DependencyDependsOn,
			Object:     RequirementEntityID(e.To),
			Source:     TripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  reqvocab.DependencyType,
			Object:     e.Type,
			Source:     TripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
	}
	if e.Reason != "" {
		triples = append(triples, message.Triple{
			Subject:    entityID,
			Predicate:  reqvocab.DependencyReason,
			Object:     e.Reason,
			Source:     TripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		})
	}

	msg := EntityIngestMessage{
		ID:        entityID,
		Triples:   triples,
		UpdatedAt: now,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal dependency entity: %w", err)
	}
	if err := nc.PublishToStream(ctx, GraphIngestSubject, data); err != nil {
		return fmt.Errorf("publish dependency entity: %w", err)
	}
	return nil
}

// RequirementTriples renders one requirement version as triples.
func RequirementTriples(r *requirement.Requirement, now time.Time) []message.Triple {
	entityID := RequirementEntityID(r.LogicalID)

	triples := []message.Triple{
		{
			Subject:    entityID,
			Predicate:  reqvocab.RequirementTitle,
			Object:     r.Title,
			Source:     TripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  reqvocab.RequirementStatus,
			Object:     string(r.Status),
			Source:     TripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  reqvocab.RequirementPriority,
			Object:     r.Priority,
			Source:     TripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  reqvocab.RequirementLevel,
			Object:     r.HierarchyLevel.String(),
			Source:     TripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  reqvocab.RequirementType,
			Object:     r.RequirementType,
			Source:     TripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  reqvocab.RequirementVersion,
			Object:     r.VersionIndex,
			Source:     TripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  reqvocab.RequirementOperation,
			Object:     string(r.Operation),
			Source:     TripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  reqvocab.RequirementCreatedAt,
			Object:     r.CreatedAt.Format(time.RFC3339),
			Source:     TripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
	}

	if r.Description != "" {
		triples = append(triples, message.Triple{
			Subject:    entityID,
			Predicate:  reqvocab.RequirementDescription,
			Object:     r.Description,
			Source:     TripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		})
	}
	if r.Author != "" {
		triples = append(triples, message.Triple{
			Subject:    entityID,
			Predicate:  reqvocab.RequirementAuthor,
			Object:     r.Author,
			Source:     TripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		})
	}
	if r.ChangeReason != "" {
		triples = append(triples, message.Triple{
			Subject:    entityID,
			Predicate:  reqvocab.RequirementChangeReason,
			Object:     r.ChangeReason,
			Source:     TripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		})
	}
	if r.VersionIndex > 0 {
		triples = append(triples, message.Triple{
			Subject:    entityID,
			Predicate:  reqvocab.RequirementPreviousVersion,
			Object:     VersionEntityID(r.LogicalID, r.VersionIndex-1),
			Source:     TripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		})
	}
	return triples
}

// RequirementEntityID generates a consistent entity ID for a
// requirement. Format: reqgraph.local.requirement.<logical_id>
func RequirementEntityID(logicalID string) string {
	return fmt.Sprintf("reqgraph.local.requirement.%s", logicalID)
}

// VersionEntityID generates a consistent entity ID for one immutable
// requirement version.
// Format: reqgraph.local.requirement_version.<logical_id>.<index>
func VersionEntityID(logicalID string, index int) string {
	return "reqgraph.local.requirement_version." + logicalID + "." + strconv.Itoa(index)
}
