package importer

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/reqgraph/requirement"
)

// frontmatter is the requirement header a markdown document may carry.
type frontmatter struct {
	LogicalID  string         `yaml:"logical_id"`
	Title      string         `yaml:"title"`
	Level      string         `yaml:"level"`
	Status     string         `yaml:"status"`
	Priority   *int           `yaml:"priority"`
	Type       string         `yaml:"type"`
	DependsOn  []string       `yaml:"depends_on"`
	Author     string         `yaml:"author"`
	Extensions map[string]any `yaml:"extensions"`
}

// parseMarkdown builds a draft from a markdown document. A YAML
// frontmatter block supplies the requirement header; anything the
// header leaves out is derived from the body or the file name.
func parseMarkdown(path string, content []byte) (Draft, error) {
	fm, body, err := splitFrontmatter(string(content))
	if err != nil {
		return Draft{}, fmt.Errorf("frontmatter in %s: %w", path, err)
	}
	return buildDraft(path, fm, body)
}

// buildDraft resolves the header plus fallbacks into a Draft. Shared
// by the markdown and HTML paths.
func buildDraft(path string, fm frontmatter, body string) (Draft, error) {
	title := fm.Title
	if title == "" {
		title = firstHeading(body)
	}
	if title == "" {
		title = titleFromFilename(path)
	}

	logicalID := fm.LogicalID
	if logicalID == "" {
		logicalID = slugFromFilename(path)
	}

	level, err := levelFor(fm.Level, title, path)
	if err != nil {
		return Draft{}, err
	}

	status := requirement.StatusProposed
	if fm.Status != "" {
		status = requirement.Status(fm.Status)
		if !status.IsValid() {
			return Draft{}, requirement.NewValidation("status",
				fmt.Sprintf("unknown status %q in %s", fm.Status, path))
		}
	}

	priority := DefaultPriority
	if fm.Priority != nil {
		priority = *fm.Priority
	}

	return Draft{
		Path:      path,
		LogicalID: logicalID,
		Fields: requirement.Fields{
			Title:           title,
			Description:     strings.TrimSpace(body),
			Status:          status,
			Priority:        priority,
			RequirementType: fm.Type,
			HierarchyLevel:  level,
			Extensions:      fm.Extensions,
			Author:          fm.Author,
			ChangeReason:    "imported from " + path,
		},
		DependsOn: fm.DependsOn,
	}, nil
}

// splitFrontmatter separates an optional leading YAML block from the
// body. A document without the opening delimiter is all body; a block
// that opens but never closes, or holds invalid YAML, is an error
// rather than silently swallowed into the description.
func splitFrontmatter(content string) (frontmatter, string, error) {
	var fm frontmatter
	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return fm, content, nil
	}

	start := len("---")
	if content[start] == '\r' {
		start++
	}
	start++ // the newline

	closeIdx := strings.Index(content[start:], "\n---")
	if closeIdx == -1 {
		return fm, "", fmt.Errorf("no closing frontmatter delimiter")
	}
	block := content[start : start+closeIdx]

	bodyStart := start + closeIdx + 1 + len("---")
	for bodyStart < len(content) && (content[bodyStart] == '\n' || content[bodyStart] == '\r') {
		bodyStart++
	}
	body := ""
	if bodyStart < len(content) {
		body = content[bodyStart:]
	}

	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return fm, "", fmt.Errorf("parse YAML: %w", err)
	}
	return fm, body, nil
}
