package reqgraph

// Namespace is the base IRI prefix for all requirement graph ontology
// terms.
const Namespace = "https://reqgraph.dev/ontology/"

// EntityNamespace is the base IRI for requirement graph entity
// instances.
const EntityNamespace = "https://reqgraph.dev/entity/"

// Class IRIs define the entity types of the requirement graph ontology.
const (
	// ClassRequirement represents one logical requirement.
	// Extends: bfo:GenericallyDependentContinuant, cco:DirectiveInformationContentEntity, prov:Entity
	ClassRequirement = Namespace + "Requirement"

	// ClassRequirementVersion represents one immutable version of a
	// requirement.
	// Extends: ClassRequirement, prov:Entity
	ClassRequirementVersion = Namespace + "RequirementVersion"

	// ClassDependency represents a directed dependency between two
	// requirements.
	ClassDependency = Namespace + "Dependency"

	// ClassFrictionReport represents a friction scoring result.
	// Extends: bfo:GenericallyDependentContinuant, cco:InformationContentEntity
	ClassFrictionReport = Namespace + "FrictionReport"
)
