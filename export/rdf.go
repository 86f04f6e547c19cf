// Package export renders the requirement graph as RDF with
// BFO/CCO/PROV-O alignment, and as Graphviz DOT for visualization.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/c360studio/reqgraph/graph"
	"github.com/c360studio/reqgraph/requirement"
	reqvocab "github.com/c360studio/reqgraph/vocabulary/reqgraph"
)

// Triple represents a semantic triple for export.
type Triple struct {
	Subject   string
	Predicate string
	Object    any
}

// Entity represents an exportable entity with its type and triples.
type Entity struct {
	ID         string
	EntityType reqvocab.EntityType
	Triples    []Triple
}

// RDFExporter exports requirement graph entities with configurable
// ontology profiles. Entities render in insertion order; callers that
// need stable output add them sorted.
type RDFExporter struct {
	profile  Profile
	entities []Entity
	index    map[string]int
	edges    []graph.Edge
	titles   map[string]string
	prefixes map[string]string
}

// NewRDFExporter creates a new exporter with the specified profile.
func NewRDFExporter(profile Profile) *RDFExporter {
	return &RDFExporter{
		profile:  profile,
		entities: make([]Entity, 0),
		index:    make(map[string]int),
		titles:   make(map[string]string),
		prefixes: defaultPrefixes(),
	}
}

// defaultPrefixes returns the standard namespace prefixes for RDF export.
func defaultPrefixes() map[string]string {
	return map[string]string{
		"rdf":      "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
		"rdfs":     "http://www.w3.org/2000/01/rdf-schema#",
		"owl":      "http://www.w3.org/2002/07/owl#",
		"xsd":      "http://www.w3.org/2001/XMLSchema#",
		"dc":       "http://purl.org/dc/terms/",
		"skos":     "http://www.w3.org/2004/02/skos/core#",
		"prov":     "http://www.w3.org/ns/prov#",
		"bfo":      "http://purl.obolibrary.org/obo/",
		"cco":      "http://www.ontologyrepository.com/CommonCoreOntologies/",
		"reqgraph": reqvocab.Namespace,
		"entity":   reqvocab.EntityNamespace,
	}
}

// AddRequirement adds one requirement version to the export.
func (e *RDFExporter) AddRequirement(r *requirement.Requirement) {
	id := graph.RequirementEntityID(r.LogicalID)
	triples := make([]Triple, 0, 12)
	for _, t := range graph.RequirementTriples(r, r.CreatedAt) {
		triples = append(triples, Triple{Subject: id, Predicate: t.Predicate, Object: t.Object})
	}
	e.upsert(id, reqvocab.EntityTypeRequirement, triples)
	e.titles[r.LogicalID] = r.Title
}

// AddEdge adds one live dependency edge to the export. The RDF view
// renders it as a dependsOn link on the source requirement; the DOT
// view keeps the dependency type as an edge label. Tombstones are
// skipped.
func (e *RDFExporter) AddEdge(edge graph.Edge) {
	if edge.Tombstone {
		return
	}
	e.edges = append(e.edges, edge)

	id := graph.RequirementEntityID(edge.From)
	e.upsert(id, reqvocab.EntityTypeRequirement, []Triple{
		{
			Subject:   id,
			Predicate: reqvocab.DependencyDependsOn,
			Object:    graph.RequirementEntityID(edge.To),
		},
	})
}

// AddEntity adds a pre-built entity to the export.
func (e *RDFExporter) AddEntity(entity Entity) {
	e.upsert(entity.ID, entity.EntityType, entity.Triples)
}

// AddEntityFromTriples creates and adds an entity from raw triples.
func (e *RDFExporter) AddEntityFromTriples(id string, entityType reqvocab.EntityType, triples []Triple) {
	e.upsert(id, entityType, triples)
}

// upsert merges triples into an existing entity or appends a new one.
func (e *RDFExporter) upsert(id string, entityType reqvocab.EntityType, triples []Triple) {
	if i, ok := e.index[id]; ok {
		e.entities[i].Triples = append(e.entities[i].Triples, triples...)
		return
	}
	e.index[id] = len(e.entities)
	e.entities = append(e.entities, Entity{
		ID:         id,
		EntityType: entityType,
		Triples:    triples,
	})
}

// Export serializes all entities to the specified format.
func (e *RDFExporter) Export(format Format) (string, error) {
	switch format {
	case FormatTurtle:
		return e.toTurtle(), nil
	case FormatNTriples:
		return e.toNTriples(), nil
	case FormatJSONLD:
		return e.toJSONLD(), nil
	case FormatDOT:
		return e.toDOT(), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// toTurtle serializes to Turtle format.
func (e *RDFExporter) toTurtle() string {
	w := NewTurtleWriter()
	w.WritePrefixes()

	asserter := NewTypeAsserter(e.profile)
	for _, entity := range e.entities {
		iri := entityIDToIRI(entity.ID)
		w.WriteSubject(iri)

		types := asserter.GetTypeIRIs(entity.EntityType)
		for i, typeIRI := range types {
			last := i == len(types)-1 && len(entity.Triples) == 0
			w.WriteType(typeIRI, last)
		}
		for i, triple := range entity.Triples {
			w.WritePredicate(reqvocab.IRIFor(triple.Predicate), triple.Object, i == len(entity.Triples)-1)
		}
		w.WriteBlank()
	}
	return w.String()
}

// toNTriples serializes to N-Triples format.
func (e *RDFExporter) toNTriples() string {
	w := NewNTriplesWriter()

	asserter := NewTypeAsserter(e.profile)
	for _, entity := range e.entities {
		iri := entityIDToIRI(entity.ID)
		for _, typeIRI := range asserter.GetTypeIRIs(entity.EntityType) {
			w.WriteTypeTriple(iri, typeIRI)
		}
		for _, triple := range entity.Triples {
			w.WriteTriple(iri, reqvocab.IRIFor(triple.Predicate), triple.Object)
		}
	}
	return w.String()
}

// toJSONLD serializes to JSON-LD format.
func (e *RDFExporter) toJSONLD() string {
	w := NewJSONLDWriter()
	w.SetContext(e.prefixes)

	asserter := NewTypeAsserter(e.profile)
	for _, entity := range e.entities {
		iri := entityIDToIRI(entity.ID)
		properties := make(map[string]any)
		for _, triple := range entity.Triples {
			key := reqvocab.IRIFor(triple.Predicate)
			value := jsonLDObject(triple.Object)
			switch existing := properties[key].(type) {
			case nil:
				properties[key] = value
			case []any:
				properties[key] = append(existing, value)
			default:
				properties[key] = []any{existing, value}
			}
		}
		w.AddNode(iri, asserter.GetTypeIRIs(entity.EntityType), properties)
	}
	return w.String()
}

// entityIDToIRI converts a dotted entity ID to an IRI.
// Example: "reqgraph.local.requirement.auth-api"
//       -> "https://reqgraph.dev/entity/requirement/auth-api"
func entityIDToIRI(entityID string) string {
	parts := strings.Split(entityID, ".")
	if len(parts) < 4 {
		// Not enough parts, use as-is
		return reqvocab.EntityNamespace + entityID
	}

	// Skip org (0) and platform (1); keep entity type (2) and
	// instance (3+). Logical ids may themselves contain dots.
	entityType := parts[2]
	instance := strings.Join(parts[3:], "/")

	return fmt.Sprintf("%s%s/%s", reqvocab.EntityNamespace, entityType, instance)
}

// formatObject formats an object value for Turtle output.
func formatObject(obj any) string {
	switch v := obj.(type) {
	case string:
		// Check if it looks like an entity reference or IRI
		if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
			return fmt.Sprintf("<%s>", v)
		}
		if isEntityID(v) {
			return fmt.Sprintf("<%s>", entityIDToIRI(v))
		}
		// Check for datetime
		if _, err := time.Parse(time.RFC3339, v); err == nil {
			return fmt.Sprintf("\"%s\"^^xsd:dateTime", v)
		}
		return fmt.Sprintf("\"%s\"", escapeString(v))
	case int, int32, int64:
		return fmt.Sprintf("\"%d\"^^xsd:integer", v)
	case float32, float64:
		return fmt.Sprintf("\"%f\"^^xsd:decimal", v)
	case bool:
		return fmt.Sprintf("\"%t\"^^xsd:boolean", v)
	default:
		return fmt.Sprintf("\"%v\"", v)
	}
}

// formatObjectNTriples formats an object value for N-Triples output.
func formatObjectNTriples(obj any) string {
	switch v := obj.(type) {
	case string:
		if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
			return fmt.Sprintf("<%s>", v)
		}
		if isEntityID(v) {
			return fmt.Sprintf("<%s>", entityIDToIRI(v))
		}
		if _, err := time.Parse(time.RFC3339, v); err == nil {
			return fmt.Sprintf("\"%s\"^^<http://www.w3.org/2001/XMLSchema#dateTime>", v)
		}
		return fmt.Sprintf("\"%s\"", escapeString(v))
	case int, int32, int64:
		return fmt.Sprintf("\"%d\"^^<http://www.w3.org/2001/XMLSchema#integer>", v)
	case float32, float64:
		return fmt.Sprintf("\"%f\"^^<http://www.w3.org/2001/XMLSchema#decimal>", v)
	case bool:
		return fmt.Sprintf("\"%t\"^^<http://www.w3.org/2001/XMLSchema#boolean>", v)
	default:
		return fmt.Sprintf("\"%v\"", v)
	}
}

// jsonLDObject converts an object value for JSON-LD output.
func jsonLDObject(obj any) any {
	if v, ok := obj.(string); ok {
		if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
			return map[string]any{"@id": v}
		}
		if isEntityID(v) {
			return map[string]any{"@id": entityIDToIRI(v)}
		}
		if _, err := time.Parse(time.RFC3339, v); err == nil {
			return map[string]any{"@value": v, "@type": "xsd:dateTime"}
		}
	}
	return obj
}

// isEntityID reports whether a string value looks like a dotted entity
// id rather than a plain literal.
func isEntityID(v string) bool {
	return strings.HasPrefix(v, "reqgraph.") && !strings.Contains(v, " ") && len(strings.Split(v, ".")) >= 4
}

// escapeString escapes special characters in strings for RDF serialization.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}
