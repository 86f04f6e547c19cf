package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/reqgraph/engine"
	"github.com/c360studio/reqgraph/graph"
	"github.com/c360studio/reqgraph/hierarchy"
	"github.com/c360studio/reqgraph/requirement"
	"github.com/c360studio/reqgraph/storage"
)

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	store := storage.NewEntityStore(
		storage.NewMemKV(),
		storage.NewLocationIndex(storage.NewMemKV()),
	)
	g := graph.New(store, graph.NewEdgeLog(storage.NewMemKV()))
	require.NoError(t, g.Load(context.Background()))
	return engine.New(store, g)
}

const authDoc = `---
logical_id: module-auth
level: module
status: approved
priority: 250
depends_on:
  - arch-platform
---
# Authentication module

Users sign in with SSO.
`

const platformDoc = `---
logical_id: arch-platform
level: architecture
---
# Platform architecture

Event-driven services over NATS.
`

func TestScan(t *testing.T) {
	t.Run("parses frontmatter and body", func(t *testing.T) {
		dir := t.TempDir()
		writeDoc(t, dir, "auth.md", authDoc)

		drafts, err := New(nil, nil).Scan([]string{filepath.Join(dir, "*.md")})
		require.NoError(t, err)
		require.Len(t, drafts, 1)

		d := drafts[0]
		assert.Equal(t, "module-auth", d.LogicalID)
		assert.Equal(t, "Authentication module", d.Fields.Title)
		assert.Equal(t, hierarchy.LevelModule, d.Fields.HierarchyLevel)
		assert.Equal(t, requirement.StatusApproved, d.Fields.Status)
		assert.Equal(t, 250, d.Fields.Priority)
		assert.Equal(t, []string{"arch-platform"}, d.DependsOn)
		assert.Contains(t, d.Fields.Description, "sign in with SSO")
	})

	t.Run("falls back to file name and title keywords", func(t *testing.T) {
		dir := t.TempDir()
		writeDoc(t, dir, "Login Task.md", "# Implement login form\n\nBuild it.\n")

		drafts, err := New(nil, nil).Scan([]string{filepath.Join(dir, "*.md")})
		require.NoError(t, err)
		require.Len(t, drafts, 1)
		assert.Equal(t, "login-task", drafts[0].LogicalID)
		assert.Equal(t, "Implement login form", drafts[0].Fields.Title)
		assert.Equal(t, hierarchy.LevelTask, drafts[0].Fields.HierarchyLevel)
		assert.Equal(t, requirement.StatusProposed, drafts[0].Fields.Status)
		assert.Equal(t, DefaultPriority, drafts[0].Fields.Priority)
	})

	t.Run("supports doublestar patterns and skips unknown extensions", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs", "sub"), 0o755))
		writeDoc(t, filepath.Join(dir, "docs", "sub"), "deep.md", platformDoc)
		writeDoc(t, dir, "notes.txt", "not a requirement")

		drafts, err := New(nil, nil).Scan([]string{filepath.Join(dir, "**", "*")})
		require.NoError(t, err)
		require.Len(t, drafts, 1)
		assert.Equal(t, "arch-platform", drafts[0].LogicalID)
	})

	t.Run("rejects duplicate logical ids across documents", func(t *testing.T) {
		dir := t.TempDir()
		writeDoc(t, dir, "a.md", "---\nlogical_id: same\n---\n# A\n")
		writeDoc(t, dir, "b.md", "---\nlogical_id: same\n---\n# B\n")

		_, err := New(nil, nil).Scan([]string{filepath.Join(dir, "*.md")})
		require.Error(t, err)
		assert.Equal(t, requirement.KindValidation, requirement.KindOf(err))
	})

	t.Run("rejects unknown level names", func(t *testing.T) {
		dir := t.TempDir()
		writeDoc(t, dir, "bad.md", "---\nlevel: epic\n---\n# Bad\n")

		_, err := New(nil, nil).Scan([]string{filepath.Join(dir, "*.md")})
		require.Error(t, err)
		assert.Equal(t, requirement.KindValidation, requirement.KindOf(err))
	})

	t.Run("rejects an unclosed frontmatter block", func(t *testing.T) {
		dir := t.TempDir()
		writeDoc(t, dir, "open.md", "---\nlogical_id: open\n# never closed\n")

		_, err := New(nil, nil).Scan([]string{filepath.Join(dir, "*.md")})
		require.Error(t, err)
	})
}

func TestParseHTML(t *testing.T) {
	dir := t.TempDir()
	page := `<html><head><title>Billing service</title></head><body>
<article><h1>Billing service</h1><p>Charges customers monthly and retries failed payments.</p>
<p>Invoices are immutable once issued; corrections are credit notes.</p></article>
</body></html>`
	path := writeDoc(t, dir, "billing-service.html", page)

	draft, ok, err := ParseFile(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "billing-service", draft.LogicalID)
	assert.Equal(t, "Billing service", draft.Fields.Title)
	// "service" is a component keyword.
	assert.Equal(t, hierarchy.LevelComponent, draft.Fields.HierarchyLevel)
	assert.Contains(t, draft.Fields.Description, "Charges customers monthly")
}

func TestCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("creates requirements then links dependencies", func(t *testing.T) {
		dir := t.TempDir()
		writeDoc(t, dir, "auth.md", authDoc)
		writeDoc(t, dir, "platform.md", platformDoc)

		eng := newTestEngine(t)
		imp := New(eng, nil)
		drafts, err := imp.Scan([]string{filepath.Join(dir, "*.md")})
		require.NoError(t, err)

		res, err := imp.Commit(ctx, drafts)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"module-auth", "arch-platform"}, res.Created)
		require.Len(t, res.Edges, 1)
		assert.Equal(t, "module-auth", res.Edges[0].From)
		assert.Equal(t, "arch-platform", res.Edges[0].To)

		r, err := eng.GetRequirement(ctx, "module-auth")
		require.NoError(t, err)
		assert.Equal(t, 0, r.VersionIndex)
	})

	t.Run("fails when a dependency target is missing", func(t *testing.T) {
		dir := t.TempDir()
		writeDoc(t, dir, "auth.md", authDoc)

		eng := newTestEngine(t)
		imp := New(eng, nil)
		drafts, err := imp.Scan([]string{filepath.Join(dir, "*.md")})
		require.NoError(t, err)

		_, err = imp.Commit(ctx, drafts)
		require.Error(t, err)
	})

	t.Run("scan-only importer refuses to commit", func(t *testing.T) {
		_, err := New(nil, nil).Commit(ctx, nil)
		require.Error(t, err)
	})
}

func TestSlugFromFilename(t *testing.T) {
	cases := map[string]string{
		"docs/Auth Module.md":  "auth-module",
		"API_gateway.html":     "api_gateway",
		"--weird--name--.md":   "weird-name",
		"v2 (final) FINAL.md":  "v2-final-final",
	}
	for in, want := range cases {
		assert.Equal(t, want, slugFromFilename(in), in)
	}
}
