// Package anchor verifies code anchors carried in requirement
// extensions. An anchor ties a requirement to a top-level Go
// declaration; a drifted anchor means the code the requirement points
// at no longer exists under that name.
package anchor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/c360studio/reqgraph/requirement"
)

// ExtensionKey is the requirement extension holding anchors. The value
// is a string or list of strings of the form "path/to/file.go#Symbol".
const ExtensionKey = "location_uri"

// Anchor is one parsed location reference.
type Anchor struct {
	Path   string `json:"path"`
	Symbol string `json:"symbol"`
}

func (a Anchor) String() string {
	return a.Path + "#" + a.Symbol
}

// Parse splits a location URI into its path and symbol.
func Parse(uri string) (Anchor, error) {
	path, symbol, ok := strings.Cut(uri, "#")
	if !ok || path == "" || symbol == "" {
		return Anchor{}, requirement.NewValidation(ExtensionKey,
			fmt.Sprintf("%q is not of the form path#Symbol", uri))
	}
	if filepath.Ext(path) != ".go" {
		return Anchor{}, requirement.NewValidation(ExtensionKey,
			fmt.Sprintf("%q does not point at a Go file", uri))
	}
	return Anchor{Path: path, Symbol: symbol}, nil
}

// Drift is one anchor that no longer resolves.
type Drift struct {
	LogicalID string `json:"logical_id"`
	Anchor    Anchor `json:"anchor"`
	Reason    string `json:"reason"`
}

// Verifier checks anchors against a source tree.
type Verifier struct {
	root   string
	parser *sitter.Parser

	// decls caches top-level declaration names per file, keyed by the
	// anchor path, so many anchors into one file parse it once.
	decls map[string]map[string]bool
}

// NewVerifier builds a Verifier rooted at a source directory.
func NewVerifier(root string) *Verifier {
	p := sitter.NewParser()
	p.SetLanguage(golang.GetLanguage())
	return &Verifier{
		root:   root,
		parser: p,
		decls:  make(map[string]map[string]bool),
	}
}

// Verify resolves one anchor. It returns nil when the file declares
// the symbol at the top level, and a descriptive error otherwise.
func (v *Verifier) Verify(ctx context.Context, a Anchor) error {
	names, err := v.declarations(ctx, a.Path)
	if err != nil {
		return err
	}
	if !names[a.Symbol] {
		return fmt.Errorf("%s does not declare %q at the top level", a.Path, a.Symbol)
	}
	return nil
}

// Check verifies every anchor on a set of requirements and returns the
// drifted ones. It stops early when the context is canceled.
func (v *Verifier) Check(ctx context.Context, reqs []*requirement.Requirement) ([]Drift, error) {
	var drifts []Drift
	for _, r := range reqs {
		if err := ctx.Err(); err != nil {
			return drifts, err
		}
		for _, uri := range Anchors(r) {
			a, err := Parse(uri)
			if err != nil {
				drifts = append(drifts, Drift{LogicalID: r.LogicalID, Reason: err.Error()})
				continue
			}
			if err := v.Verify(ctx, a); err != nil {
				drifts = append(drifts, Drift{LogicalID: r.LogicalID, Anchor: a, Reason: err.Error()})
			}
		}
	}
	return drifts, nil
}

// Anchors lists the location URIs a requirement carries. Both a single
// string and a list are accepted, matching how extension maps arrive
// from JSON.
func Anchors(r *requirement.Requirement) []string {
	raw, ok := r.Extensions[ExtensionKey]
	if !ok {
		return nil
	}
	switch val := raw.(type) {
	case string:
		return []string{val}
	case []string:
		return val
	case []any:
		var uris []string
		for _, item := range val {
			if s, ok := item.(string); ok {
				uris = append(uris, s)
			}
		}
		return uris
	default:
		return nil
	}
}

func (v *Verifier) declarations(ctx context.Context, path string) (map[string]bool, error) {
	if names, ok := v.decls[path]; ok {
		return names, nil
	}

	content, err := os.ReadFile(filepath.Join(v.root, path))
	if err != nil {
		return nil, fmt.Errorf("read anchored file: %w", err)
	}

	tree, err := v.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	names := make(map[string]bool)
	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		collectDecl(root.NamedChild(i), content, names)
	}
	v.decls[path] = names
	return names, nil
}

// collectDecl records the names declared by one top-level node.
func collectDecl(node *sitter.Node, content []byte, names map[string]bool) {
	switch node.Type() {
	case "function_declaration", "method_declaration":
		if name := node.ChildByFieldName("name"); name != nil {
			names[name.Content(content)] = true
		}
	case "type_declaration":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			spec := node.NamedChild(i)
			if spec.Type() != "type_spec" {
				continue
			}
			if name := spec.ChildByFieldName("name"); name != nil {
				names[name.Content(content)] = true
			}
		}
	case "const_declaration", "var_declaration":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			spec := node.NamedChild(i)
			if spec.Type() != "const_spec" && spec.Type() != "var_spec" {
				continue
			}
			for j := 0; j < int(spec.ChildCount()); j++ {
				if spec.FieldNameForChild(j) == "name" {
					names[spec.Child(j).Content(content)] = true
				}
			}
		}
	}
}
