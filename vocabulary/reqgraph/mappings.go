package reqgraph

import (
	"github.com/c360studio/semstreams/vocabulary"
	"github.com/c360studio/semstreams/vocabulary/bfo"
	"github.com/c360studio/semstreams/vocabulary/cco"
)

// EntityType represents the type of a requirement graph entity for
// mapping purposes.
type EntityType string

// Entity type constants map entity kinds to their string identifiers.
const (
	// EntityTypeRequirement is the entity type for logical requirements.
	EntityTypeRequirement EntityType = "requirement"
	// EntityTypeRequirementVersion is the entity type for immutable
	// requirement versions.
	EntityTypeRequirementVersion EntityType = "requirement_version"
	// EntityTypeDependency is the entity type for dependency edges.
	EntityTypeDependency EntityType = "dependency"
	// EntityTypeFrictionReport is the entity type for scoring results.
	EntityTypeFrictionReport EntityType = "friction_report"
)

// PROVClassMap maps entity types to PROV-O class IRIs for RDF export.
var PROVClassMap = map[EntityType]string{
	EntityTypeRequirement:        vocabulary.ProvEntity,
	EntityTypeRequirementVersion: vocabulary.ProvEntity,
	EntityTypeDependency:         vocabulary.ProvEntity,
	EntityTypeFrictionReport:     vocabulary.ProvEntity,
}

// BFOClassMap maps entity types to BFO class IRIs for RDF export.
var BFOClassMap = map[EntityType]string{
	EntityTypeRequirement:        bfo.GenericallyDependentContinuant,
	EntityTypeRequirementVersion: bfo.GenericallyDependentContinuant,
	EntityTypeDependency:         bfo.GenericallyDependentContinuant,
	EntityTypeFrictionReport:     bfo.GenericallyDependentContinuant,
}

// CCOClassMap maps entity types to CCO class IRIs for RDF export.
// Requirements are directive content: they prescribe what a system
// must do.
var CCOClassMap = map[EntityType]string{
	EntityTypeRequirement:        cco.DirectiveInformationContentEntity,
	EntityTypeRequirementVersion: cco.DirectiveInformationContentEntity,
	EntityTypeDependency:         cco.InformationContentEntity,
	EntityTypeFrictionReport:     cco.InformationContentEntity,
}

// ClassIRIMap maps entity types to requirement graph class IRIs.
var ClassIRIMap = map[EntityType]string{
	EntityTypeRequirement:        ClassRequirement,
	EntityTypeRequirementVersion: ClassRequirementVersion,
	EntityTypeDependency:         ClassDependency,
	EntityTypeFrictionReport:     ClassFrictionReport,
}

// PredicateIRIMap maps internal predicates to standard IRIs where a
// standard term exists.
var PredicateIRIMap = map[string]string{
	RequirementTitle:           vocabulary.DcTitle,
	RequirementAuthor:          vocabulary.ProvWasAttributedTo,
	RequirementCreatedAt:       vocabulary.ProvGeneratedAtTime,
	RequirementPreviousVersion: vocabulary.ProvWasDerivedFrom,
	DependencyDependsOn:        Namespace + "dependsOn",
}

// IRIFor resolves the export IRI for a predicate, falling back to the
// namespace-qualified internal name.
func IRIFor(predicate string) string {
	if iri, ok := PredicateIRIMap[predicate]; ok {
		return iri
	}
	return Namespace + predicate
}
