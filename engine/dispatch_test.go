package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/c360studio/reqgraph/health"
	"github.com/c360studio/reqgraph/hierarchy"
	"github.com/c360studio/reqgraph/requirement"
	"github.com/c360studio/reqgraph/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dispatchJSON(t *testing.T, e *Engine, command, params string) Response {
	t.Helper()
	req := Request{Command: command}
	if params != "" {
		req.Params = json.RawMessage(params)
	}
	return e.Dispatch(context.Background(), req)
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("create and fetch round trip", func(t *testing.T) {
		e := newTestEngine(t)
		resp := dispatchJSON(t, e, CmdCreateRequirement,
			`{"logical_id":"comp-auth","title":"Session issuing","priority":100,"hierarchy_level":3}`)
		require.Equal(t, StatusSuccess, resp.Status)
		created, ok := resp.Data.(*requirement.Requirement)
		require.True(t, ok)
		assert.Equal(t, "comp-auth", created.LogicalID)
		assert.Equal(t, hierarchy.LevelComponent, created.HierarchyLevel)

		resp = dispatchJSON(t, e, CmdGetRequirement, `{"logical_id":"comp-auth"}`)
		require.Equal(t, StatusSuccess, resp.Status)
		fetched, ok := resp.Data.(*requirement.Requirement)
		require.True(t, ok)
		assert.Equal(t, created.EntityID, fetched.EntityID)
	})

	t.Run("a version pin reads past versions", func(t *testing.T) {
		e := newTestEngine(t)
		mustCreate(t, e, "comp-auth", "Session issuing", hierarchy.LevelComponent)
		title := "Session issuing and revocation"
		_, err := e.UpdateRequirement(ctx, "comp-auth", UpdateRequest{Title: &title})
		require.NoError(t, err)

		resp := dispatchJSON(t, e, CmdGetRequirement, `{"logical_id":"comp-auth","version":0}`)
		require.Equal(t, StatusSuccess, resp.Status)
		pinned, ok := resp.Data.(*requirement.Requirement)
		require.True(t, ok)
		assert.Equal(t, 0, pinned.VersionIndex)
		assert.Equal(t, "Session issuing", pinned.Title)
	})

	t.Run("an unknown command is a validation error", func(t *testing.T) {
		e := newTestEngine(t)
		resp := dispatchJSON(t, e, "explode_graph", `{}`)
		require.Equal(t, StatusError, resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, string(requirement.KindValidation), resp.Error.Code)
	})

	t.Run("missing params are a validation error", func(t *testing.T) {
		e := newTestEngine(t)
		resp := dispatchJSON(t, e, CmdGetRequirement, "")
		require.Equal(t, StatusError, resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, string(requirement.KindValidation), resp.Error.Code)
	})

	t.Run("error kinds become stable codes", func(t *testing.T) {
		e := newTestEngine(t)
		resp := dispatchJSON(t, e, CmdGetRequirement, `{"logical_id":"comp-ghost"}`)
		require.Equal(t, StatusError, resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "not_found", resp.Error.Code)
		assert.NotEmpty(t, resp.Error.Message)
	})

	t.Run("an invalid transition carries its details", func(t *testing.T) {
		e := newTestEngine(t)
		mustCreate(t, e, "comp-auth", "Session issuing", hierarchy.LevelComponent)

		resp := dispatchJSON(t, e, CmdUpdateRequirement,
			`{"logical_id":"comp-auth","status":"implemented"}`)
		require.Equal(t, StatusError, resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "invalid_transition", resp.Error.Code)
		assert.Equal(t, "proposed", resp.Error.Details["from_status"])
		assert.Equal(t, "implemented", resp.Error.Details["to_status"])
		assert.Equal(t, "comp-auth", resp.Error.Details["logical_id"])
	})

	t.Run("add_dependency returns the edge and any advisory", func(t *testing.T) {
		e := newTestEngine(t)
		mustCreate(t, e, "mod-identity", "Accounts area", hierarchy.LevelModule)
		mustCreate(t, e, "task-refresh", "Implement session refresh", hierarchy.LevelTask)

		resp := dispatchJSON(t, e, CmdAddDependency,
			`{"from_logical_id":"task-refresh","to_logical_id":"mod-identity"}`)
		require.Equal(t, StatusSuccess, resp.Status)
		result, ok := resp.Data.(DependencyResult)
		require.True(t, ok)
		assert.Equal(t, "task-refresh", result.Edge.From)
		assert.Equal(t, "mod-identity", result.Edge.To)
		require.NotNil(t, result.Warning)
		assert.False(t, result.Warning.Critical())
	})

	t.Run("a rejected dependency keeps the violation code", func(t *testing.T) {
		e := newTestEngine(t)
		mustCreate(t, e, "comp-auth", "Session issuing", hierarchy.LevelComponent)
		mustCreate(t, e, "task-refresh", "Implement session refresh", hierarchy.LevelTask)

		resp := dispatchJSON(t, e, CmdAddDependency,
			`{"from_logical_id":"comp-auth","to_logical_id":"task-refresh"}`)
		require.Equal(t, StatusError, resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "hierarchy_violation", resp.Error.Code)
		assert.Equal(t, "component", resp.Error.Details["from_level"])
		assert.Equal(t, "task", resp.Error.Details["to_level"])
	})

	t.Run("get_at_timestamp requires a timestamp", func(t *testing.T) {
		e := newTestEngine(t)
		mustCreate(t, e, "comp-auth", "Session issuing", hierarchy.LevelComponent)

		resp := dispatchJSON(t, e, CmdGetAtTimestamp, `{"logical_id":"comp-auth"}`)
		require.Equal(t, StatusError, resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, string(requirement.KindValidation), resp.Error.Code)
	})

	t.Run("read commands return typed payloads", func(t *testing.T) {
		e := newTestEngine(t)
		mustCreate(t, e, "comp-auth", "Session issuing", hierarchy.LevelComponent)

		resp := dispatchJSON(t, e, CmdListRequirements, "")
		require.Equal(t, StatusSuccess, resp.Status)
		list, ok := resp.Data.([]*requirement.Requirement)
		require.True(t, ok)
		assert.Len(t, list, 1)

		resp = dispatchJSON(t, e, CmdScoreRequirement, `{"logical_id":"comp-auth"}`)
		require.Equal(t, StatusSuccess, resp.Status)
		report, ok := resp.Data.(*scoring.Report)
		require.True(t, ok)
		assert.Equal(t, "comp-auth", report.LogicalID)

		resp = dispatchJSON(t, e, CmdCheckGraphHealth, "")
		require.Equal(t, StatusSuccess, resp.Status)
		dash, ok := resp.Data.(*health.Dashboard)
		require.True(t, ok)
		assert.Equal(t, 1, dash.Metrics.TotalRequirements)
	})

	t.Run("the envelope marshals cleanly", func(t *testing.T) {
		e := newTestEngine(t)
		resp := dispatchJSON(t, e, CmdCreateRequirement,
			`{"logical_id":"comp-auth","title":"Session issuing","priority":100,"hierarchy_level":3}`)

		raw, err := json.Marshal(resp)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, "success", decoded["status"])
		assert.Contains(t, decoded, "data")
		assert.NotContains(t, decoded, "error")

		resp = dispatchJSON(t, e, CmdGetRequirement, `{"logical_id":"comp-ghost"}`)
		raw, err = json.Marshal(resp)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, "error", decoded["status"])
		errBody, ok := decoded["error"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "not_found", errBody["code"])
	})
}

func TestDispatchHistoryCommands(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	mustCreate(t, e, "comp-auth", "Session issuing", hierarchy.LevelComponent)
	title := "Session issuing and revocation"
	_, err := e.UpdateRequirement(ctx, "comp-auth", UpdateRequest{Title: &title})
	require.NoError(t, err)

	resp := dispatchJSON(t, e, CmdGetHistory, `{"logical_id":"comp-auth"}`)
	require.Equal(t, StatusSuccess, resp.Status)
	versions, ok := resp.Data.([]*requirement.Requirement)
	require.True(t, ok)
	assert.Len(t, versions, 2)

	resp = dispatchJSON(t, e, CmdDiffVersions,
		`{"logical_id":"comp-auth","from_version":0,"to_version":1}`)
	require.Equal(t, StatusSuccess, resp.Status)
}
