package export

import (
	"fmt"
	"sort"
	"strings"
)

// toDOT renders the dependency graph as Graphviz DOT. Nodes are
// requirements labeled with logical id and title; edges carry the
// dependency type. Arrows point from the dependent requirement toward
// the more abstract one it depends on, drawn bottom to top.
func (e *RDFExporter) toDOT() string {
	var sb strings.Builder
	sb.WriteString("digraph requirements {\n")
	sb.WriteString("    rankdir=BT;\n")
	sb.WriteString("    node [shape=box, style=rounded];\n\n")

	for _, id := range e.dotNodes() {
		if title := e.titles[id]; title != "" {
			sb.WriteString(fmt.Sprintf("    %s [label=%s];\n", dotQuote(id), dotQuote(id+"\n"+title)))
		} else {
			sb.WriteString(fmt.Sprintf("    %s;\n", dotQuote(id)))
		}
	}

	if len(e.edges) > 0 {
		sb.WriteString("\n")
	}
	for _, edge := range e.edges {
		sb.WriteString(fmt.Sprintf("    %s -> %s [label=%s];\n",
			dotQuote(edge.From), dotQuote(edge.To), dotQuote(edge.Type)))
	}

	sb.WriteString("}\n")
	return sb.String()
}

// dotNodes collects every node id referenced by the export, sorted.
func (e *RDFExporter) dotNodes() []string {
	seen := make(map[string]bool, len(e.titles))
	for id := range e.titles {
		seen[id] = true
	}
	for _, edge := range e.edges {
		seen[edge.From] = true
		seen[edge.To] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// dotQuote quotes a DOT identifier or label, escaping embedded quotes
// and newlines.
func dotQuote(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return "\"" + s + "\""
}
