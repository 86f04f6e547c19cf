// Package importer seeds requirement drafts from documents on disk.
// Markdown files carry their requirement header as YAML frontmatter;
// HTML pages go through readability extraction first. Scanning never
// touches the engine, so a dry run is just a scan.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/reqgraph/engine"
	"github.com/c360studio/reqgraph/graph"
	"github.com/c360studio/reqgraph/hierarchy"
	"github.com/c360studio/reqgraph/requirement"
)

// DefaultPriority is assigned when a document does not state one.
const DefaultPriority = 100

// Draft is one parsed requirement candidate, not yet written.
type Draft struct {
	Path      string             `json:"path"`
	LogicalID string             `json:"logical_id"`
	Fields    requirement.Fields `json:"fields"`
	DependsOn []string           `json:"depends_on,omitempty"`
}

// Result summarizes a committed import.
type Result struct {
	Created  []string               `json:"created"`
	Edges    []graph.Edge           `json:"edges,omitempty"`
	Warnings []*hierarchy.Violation `json:"warnings,omitempty"`
}

// Importer turns documents into requirements through the engine.
type Importer struct {
	engine *engine.Engine
	logger *slog.Logger
}

// New builds an Importer. The engine is only needed for Commit; a
// scan-only caller may pass nil.
func New(eng *engine.Engine, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{engine: eng, logger: logger}
}

// Scan resolves glob patterns (doublestar, so ** works) and parses
// every matching document into a draft. Files with an extension the
// importer does not understand are skipped.
func (imp *Importer) Scan(patterns []string) ([]Draft, error) {
	seen := make(map[string]bool)
	var drafts []Draft
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, path := range matches {
			if seen[path] {
				continue
			}
			seen[path] = true

			draft, ok, err := ParseFile(path)
			if err != nil {
				return nil, err
			}
			if !ok {
				imp.logger.Debug("skipping unsupported document", "path", path)
				continue
			}
			drafts = append(drafts, draft)
		}
	}

	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].LogicalID < drafts[j].LogicalID
	})
	if err := checkDistinct(drafts); err != nil {
		return nil, err
	}
	return drafts, nil
}

// ParseFile parses one document by extension. The second return is
// false when the extension is not an importable document type.
func ParseFile(path string) (Draft, bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Draft{}, false, fmt.Errorf("read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		d, err := parseMarkdown(path, content)
		return d, true, err
	case ".html", ".htm":
		d, err := parseHTML(path, content)
		return d, true, err
	default:
		return Draft{}, false, nil
	}
}

// Commit writes every draft through the engine, then links the batch's
// dependencies. Creates run first so edges can point anywhere inside
// the batch; the edge batch itself is all-or-nothing.
func (imp *Importer) Commit(ctx context.Context, drafts []Draft) (*Result, error) {
	if imp.engine == nil {
		return nil, fmt.Errorf("importer has no engine; commit is unavailable")
	}

	res := &Result{}
	for _, d := range drafts {
		if _, err := imp.engine.CreateRequirement(ctx, d.LogicalID, d.Fields); err != nil {
			return res, fmt.Errorf("create %s (from %s): %w", d.LogicalID, d.Path, err)
		}
		res.Created = append(res.Created, d.LogicalID)
		imp.logger.Info("imported requirement", "logical_id", d.LogicalID, "path", d.Path)
	}

	var reqs []graph.EdgeRequest
	for _, d := range drafts {
		for _, dep := range d.DependsOn {
			reqs = append(reqs, graph.EdgeRequest{
				From:   d.LogicalID,
				To:     dep,
				Reason: "imported from " + filepath.Base(d.Path),
			})
		}
	}
	if len(reqs) > 0 {
		edges, warns, err := imp.engine.AddDependencies(ctx, reqs)
		if err != nil {
			return res, fmt.Errorf("link dependencies: %w", err)
		}
		res.Edges = edges
		res.Warnings = warns
	}
	return res, nil
}

func checkDistinct(drafts []Draft) error {
	byID := make(map[string]string, len(drafts))
	for _, d := range drafts {
		if prev, ok := byID[d.LogicalID]; ok {
			return requirement.NewValidation("logical_id",
				fmt.Sprintf("%s and %s both declare %q", prev, d.Path, d.LogicalID))
		}
		byID[d.LogicalID] = d.Path
	}
	return nil
}

// slugFromFilename derives a logical id from the file name when the
// document does not declare one.
func slugFromFilename(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(stem) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case r == '_' || r == '-':
			if !lastDash {
				b.WriteRune(r)
				lastDash = true
			}
		default:
			if !lastDash {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-_")
}

// titleFromFilename is the last-resort title.
func titleFromFilename(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	stem = strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	return strings.TrimSpace(stem)
}

// firstHeading returns the text of the first markdown H1, if any.
func firstHeading(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// levelFor resolves the hierarchy level of a draft: an explicit name
// wins, then the title keywords, then task.
func levelFor(name, title, path string) (hierarchy.Level, error) {
	if name != "" {
		level, ok := hierarchy.ParseLevel(name)
		if !ok {
			return 0, requirement.NewValidation("level",
				fmt.Sprintf("unknown level %q in %s", name, path))
		}
		return level, nil
	}
	if detected, ok := hierarchy.DetectLevel(title); ok {
		return detected, nil
	}
	return hierarchy.LevelTask, nil
}
