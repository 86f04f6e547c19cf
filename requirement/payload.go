package requirement

import (
	"encoding/json"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
)

func init() {
	err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "reqgraph",
		Category:    "requirement",
		Version:     "v1",
		Description: "Versioned requirement change event",
		Factory:     func() any { return &ChangeEvent{} },
	})
	if err != nil {
		panic("failed to register ChangeEvent: " + err.Error())
	}
}

// ChangeEventType is the message type for requirement change events.
var ChangeEventType = message.Type{Domain: "reqgraph", Category: "requirement", Version: "v1"}

// ChangeEventSubject carries change events for stream consumers.
const ChangeEventSubject = "reqgraph.event.requirement"

// ChangeEvent is published after a version is committed so downstream
// consumers (scoring monitors, exporters) can react without polling.
type ChangeEvent struct {
	LogicalID    string    `json:"logical_id"`
	EntityID     string    `json:"entity_id"`
	VersionIndex int       `json:"version_index"`
	Op           Operation `json:"operation"`
	Status       Status    `json:"status"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Schema returns the message type of the event.
func (e *ChangeEvent) Schema() message.Type { return ChangeEventType }

// Validate checks the event carries its identity.
func (e *ChangeEvent) Validate() error {
	if e.LogicalID == "" {
		return NewValidation("logical_id", "must not be empty")
	}
	if !e.Op.IsValid() {
		return NewValidation("operation", "unknown operation")
	}
	return nil
}

func (e *ChangeEvent) MarshalJSON() ([]byte, error) {
	type Alias ChangeEvent
	return json.Marshal((*Alias)(e))
}

func (e *ChangeEvent) UnmarshalJSON(data []byte) error {
	type Alias ChangeEvent
	return json.Unmarshal(data, (*Alias)(e))
}
