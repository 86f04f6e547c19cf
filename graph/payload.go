package graph

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
)

func init() {
	err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "graph",
		Category:    "entity",
		Version:     "v1",
		Description: "Entity payload for knowledge graph ingestion with triples",
		Factory:     func() any { return &EntityPayload{} },
	})
	if err != nil {
		panic("failed to register EntityPayload: " + err.Error())
	}

	err = component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "reqgraph",
		Category:    "dependency",
		Version:     "v1",
		Description: "Dependency edge event between two requirements",
		Factory:     func() any { return &EdgeEventPayload{} },
	})
	if err != nil {
		panic("failed to register EdgeEventPayload: " + err.Error())
	}
}

// EntityType is the message type for graph entity payloads.
var EntityType = message.Type{Domain: "graph", Category: "entity", Version: "v1"}

// EdgeEventType is the message type for dependency edge events.
var EdgeEventType = message.Type{Domain: "reqgraph", Category: "dependency", Version: "v1"}

// EntityPayload implements message.Payload for entity ingestion.
type EntityPayload struct {
	EntityID_  string           `json:"id"`
	TripleData []message.Triple `json:"triples"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (e *EntityPayload) EntityID() string          { return e.EntityID_ }
func (e *EntityPayload) Triples() []message.Triple { return e.TripleData }
func (e *EntityPayload) Schema() message.Type      { return EntityType }

func (e *EntityPayload) Validate() error {
	if e.EntityID_ == "" {
		return errors.New("entity ID is required")
	}
	return nil
}

func (e *EntityPayload) MarshalJSON() ([]byte, error) {
	type Alias EntityPayload
	return json.Marshal((*Alias)(e))
}

func (e *EntityPayload) UnmarshalJSON(data []byte) error {
	type Alias EntityPayload
	return json.Unmarshal(data, (*Alias)(e))
}

// EdgeEventPayload implements message.Payload for dependency edge
// events, both additions and tombstones.
type EdgeEventPayload struct {
	Edge Edge `json:"edge"`
}

func (p *EdgeEventPayload) Schema() message.Type { return EdgeEventType }

func (p *EdgeEventPayload) Validate() error {
	if p.Edge.From == "" || p.Edge.To == "" {
		return errors.New("edge endpoints are required")
	}
	if p.Edge.Type == "" {
		return errors.New("dependency type is required")
	}
	return nil
}

func (p *EdgeEventPayload) MarshalJSON() ([]byte, error) {
	type Alias EdgeEventPayload
	return json.Marshal((*Alias)(p))
}

func (p *EdgeEventPayload) UnmarshalJSON(data []byte) error {
	type Alias EdgeEventPayload
	return json.Unmarshal(data, (*Alias)(p))
}
