// Package reqgraph provides domain vocabulary predicates for the
// requirement dependency graph.
//
// This package follows semstreams vocabulary patterns:
//   - Predicates use three-level dotted notation (domain.category.property)
//   - Predicates are registered in init() using vocabulary.Register()
//   - IRI mappings use vocabulary.WithIRI() for RDF export compatibility
//
// # Domain Vocabularies
//
//   - Requirement: versioned requirement attributes (reqgraph.requirement.*)
//   - Dependency: edges between requirements (reqgraph.dependency.*)
//   - Friction: scoring results (reqgraph.friction.*)
//
// # Usage
//
// Import the package to register predicates, then use predicate
// constants when building triples:
//
//	triples := []message.Triple{
//	    {Subject: entityID, Predicate: reqgraph.RequirementTitle, Object: r.Title},
//	    {Subject: entityID, Predicate: reqgraph.RequirementStatus, Object: string(r.Status)},
//	}
package reqgraph
