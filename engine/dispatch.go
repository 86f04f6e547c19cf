package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/c360studio/reqgraph/graph"
	"github.com/c360studio/reqgraph/hierarchy"
	"github.com/c360studio/reqgraph/requirement"
)

// Command names accepted by Dispatch. Transports carry these verbatim.
const (
	CmdCreateRequirement = "create_requirement"
	CmdUpdateRequirement = "update_requirement"
	CmdDeleteRequirement = "delete_requirement"
	CmdAddDependency     = "add_dependency"
	CmdRemoveDependency  = "remove_dependency"
	CmdGetRequirement    = "get_requirement"
	CmdListRequirements  = "list_requirements"
	CmdGetHistory        = "get_history"
	CmdGetAtTimestamp    = "get_at_timestamp"
	CmdDiffVersions      = "diff_versions"
	CmdScoreRequirement  = "score_requirement"
	CmdCheckGraphHealth  = "check_graph_health"
	CmdAnalyzeImpact     = "analyze_impact"
	CmdFindAncestors     = "find_ancestors"
	CmdFindAbstractRoot  = "find_abstract_root"
)

// Request is one command envelope: a command name plus its JSON params.
type Request struct {
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorBody describes a failed command. Code is the stable error kind;
// Details carries the kind's structured fields.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Response is the reply envelope for one command.
type Response struct {
	Status string     `json:"status"`
	Data   any        `json:"data,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

// CreateParams are the params for create_requirement.
type CreateParams struct {
	LogicalID string `json:"logical_id"`
	requirement.Fields
}

// UpdateParams are the params for update_requirement.
type UpdateParams struct {
	LogicalID string `json:"logical_id"`
	UpdateRequest
}

// DeleteParams are the params for delete_requirement.
type DeleteParams struct {
	LogicalID    string `json:"logical_id"`
	Author       string `json:"author,omitempty"`
	ChangeReason string `json:"change_reason,omitempty"`
}

// IDParams name one requirement. Version pins a read to one version
// for commands that support it.
type IDParams struct {
	LogicalID string `json:"logical_id"`
	Version   *int   `json:"version,omitempty"`
}

// AtParams name one requirement and an instant.
type AtParams struct {
	LogicalID string    `json:"logical_id"`
	Timestamp time.Time `json:"timestamp"`
}

// DiffParams name one requirement and a version pair.
type DiffParams struct {
	LogicalID string `json:"logical_id"`
	From      int    `json:"from_version"`
	To        int    `json:"to_version"`
}

// DependencyResult is the add_dependency response payload. Warning is
// set when the edge was accepted with an advisory hierarchy finding.
type DependencyResult struct {
	Edge    graph.Edge           `json:"edge"`
	Warning *hierarchy.Violation `json:"warning,omitempty"`
}

// Dispatch decodes one command envelope, runs it, and wraps the result.
// Unknown commands and malformed params come back as validation errors;
// engine errors keep their kind as the stable error code.
func (e *Engine) Dispatch(ctx context.Context, req Request) Response {
	data, err := e.dispatch(ctx, req)
	if err != nil {
		return errorResponse(err)
	}
	return Response{Status: StatusSuccess, Data: data}
}

func (e *Engine) dispatch(ctx context.Context, req Request) (any, error) {
	switch req.Command {
	case CmdCreateRequirement:
		var p CreateParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return e.CreateRequirement(ctx, p.LogicalID, p.Fields)

	case CmdUpdateRequirement:
		var p UpdateParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return e.UpdateRequirement(ctx, p.LogicalID, p.UpdateRequest)

	case CmdDeleteRequirement:
		var p DeleteParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return e.DeleteRequirement(ctx, p.LogicalID, p.Author, p.ChangeReason)

	case CmdAddDependency:
		var p graph.EdgeRequest
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		edge, warn, err := e.AddDependency(ctx, p.From, p.To, p.Type, p.Reason)
		if err != nil {
			return nil, err
		}
		return DependencyResult{Edge: edge, Warning: warn}, nil

	case CmdRemoveDependency:
		var p graph.EdgeRequest
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return e.RemoveDependency(ctx, p.From, p.To, p.Type)

	case CmdGetRequirement:
		var p IDParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		if p.Version != nil {
			return e.GetVersion(ctx, p.LogicalID, *p.Version)
		}
		return e.GetRequirement(ctx, p.LogicalID)

	case CmdListRequirements:
		return e.ListRequirements(ctx)

	case CmdGetHistory:
		var p IDParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return e.GetHistory(ctx, p.LogicalID)

	case CmdGetAtTimestamp:
		var p AtParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		if p.Timestamp.IsZero() {
			return nil, requirement.NewValidation("timestamp", "timestamp is required")
		}
		return e.GetAtTimestamp(ctx, p.LogicalID, p.Timestamp)

	case CmdDiffVersions:
		var p DiffParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return e.DiffVersions(ctx, p.LogicalID, p.From, p.To)

	case CmdScoreRequirement:
		var p IDParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return e.ScoreRequirement(ctx, p.LogicalID)

	case CmdCheckGraphHealth:
		return e.CheckGraphHealth(ctx)

	case CmdAnalyzeImpact:
		var p IDParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return e.AnalyzeImpact(ctx, p.LogicalID)

	case CmdFindAncestors:
		var p IDParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return e.FindAncestors(ctx, p.LogicalID)

	case CmdFindAbstractRoot:
		var p IDParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return e.FindAbstractRoot(ctx, p.LogicalID)

	default:
		return nil, requirement.NewValidation("command", fmt.Sprintf("unknown command %q", req.Command))
	}
}

func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return requirement.NewValidation("params", "params are required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return requirement.NewValidation("params", fmt.Sprintf("decode params: %v", err))
	}
	return nil
}

func errorResponse(err error) Response {
	body := &ErrorBody{Code: "internal", Message: err.Error()}
	var rerr *requirement.Error
	if errors.As(err, &rerr) {
		body.Code = string(rerr.Kind)
		body.Details = errorDetails(rerr)
	}
	return Response{Status: StatusError, Error: body}
}

// errorDetails lifts the structured fields relevant to each kind.
func errorDetails(e *requirement.Error) map[string]any {
	d := map[string]any{}
	if e.LogicalID != "" {
		d["logical_id"] = e.LogicalID
	}
	switch e.Kind {
	case requirement.KindValidation:
		if e.Field != "" {
			d["field"] = e.Field
		}
	case requirement.KindCircularDependency:
		if len(e.Path) > 0 {
			d["path"] = e.Path
		}
	case requirement.KindHierarchyViolation:
		d["from_level"] = e.FromLevel.String()
		d["to_level"] = e.ToLevel.String()
		d["severity"] = e.Severity
		if e.Remediation != "" {
			d["remediation"] = e.Remediation
		}
	case requirement.KindInvalidTransition:
		d["from_status"] = string(e.FromStatus)
		d["to_status"] = string(e.ToStatus)
	case requirement.KindStaleWrite:
		d["expected_version"] = e.ExpectedVersion
		d["actual_version"] = e.ActualVersion
	case requirement.KindConstraintViolation:
		if e.Constraint != "" {
			d["constraint"] = e.Constraint
		}
	}
	if len(d) == 0 {
		return nil
	}
	return d
}
