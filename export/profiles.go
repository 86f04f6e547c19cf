package export

import (
	"strings"

	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/vocabulary"
	"github.com/c360studio/semstreams/vocabulary/bfo"
	"github.com/c360studio/semstreams/vocabulary/cco"

	reqvocab "github.com/c360studio/reqgraph/vocabulary/reqgraph"
)

// Profile determines which ontology type assertions are included in the export.
type Profile string

const (
	// ProfileMinimal includes only PROV-O, Dublin Core, and SKOS predicates.
	ProfileMinimal Profile = "minimal"

	// ProfileBFO includes BFO type assertions plus minimal profile.
	ProfileBFO Profile = "bfo"

	// ProfileCCO includes CCO type assertions plus BFO profile.
	ProfileCCO Profile = "cco"
)

// ProfileConfig contains configuration for an export profile.
type ProfileConfig struct {
	// Name is the profile identifier.
	Name Profile

	// Description describes the profile.
	Description string

	// IncludeBFO indicates whether to include BFO type assertions.
	IncludeBFO bool

	// IncludeCCO indicates whether to include CCO type assertions.
	IncludeCCO bool

	// IncludePROV indicates whether to include PROV-O type assertions.
	IncludePROV bool

	// IncludeReqgraph indicates whether to include requirement graph
	// type assertions.
	IncludeReqgraph bool
}

// Profiles contains the configuration for all available export profiles.
var Profiles = map[Profile]ProfileConfig{
	ProfileMinimal: {
		Name:            ProfileMinimal,
		Description:     "PROV-O, Dublin Core, and SKOS predicates only",
		IncludeBFO:      false,
		IncludeCCO:      false,
		IncludePROV:     true,
		IncludeReqgraph: true,
	},
	ProfileBFO: {
		Name:            ProfileBFO,
		Description:     "BFO type assertions plus minimal profile",
		IncludeBFO:      true,
		IncludeCCO:      false,
		IncludePROV:     true,
		IncludeReqgraph: true,
	},
	ProfileCCO: {
		Name:            ProfileCCO,
		Description:     "Full CCO/BFO/PROV-O alignment",
		IncludeBFO:      true,
		IncludeCCO:      true,
		IncludePROV:     true,
		IncludeReqgraph: true,
	},
}

// GetProfileConfig returns the configuration for a profile.
func GetProfileConfig(profile Profile) ProfileConfig {
	if config, ok := Profiles[profile]; ok {
		return config
	}
	return Profiles[ProfileMinimal]
}

// TypeAsserter generates type assertions for entities based on profile.
type TypeAsserter struct {
	profile ProfileConfig
}

// NewTypeAsserter creates a new type asserter for the given profile.
func NewTypeAsserter(profile Profile) *TypeAsserter {
	return &TypeAsserter{
		profile: GetProfileConfig(profile),
	}
}

// GetTypeIRIs returns all type IRIs for an entity type based on the profile.
func (t *TypeAsserter) GetTypeIRIs(entityType reqvocab.EntityType) []string {
	types := make([]string, 0, 4)

	// Always include the requirement graph type when enabled
	if t.profile.IncludeReqgraph {
		if classIRI, ok := reqvocab.ClassIRIMap[entityType]; ok {
			types = append(types, classIRI)
		}
	}

	// Include PROV-O type when enabled
	if t.profile.IncludePROV {
		if provClass, ok := reqvocab.PROVClassMap[entityType]; ok {
			types = append(types, provClass)
		}
	}

	// Include BFO type when enabled
	if t.profile.IncludeBFO {
		if bfoClass, ok := reqvocab.BFOClassMap[entityType]; ok {
			types = append(types, bfoClass)
		}
	}

	// Include CCO type when enabled
	if t.profile.IncludeCCO {
		if ccoClass, ok := reqvocab.CCOClassMap[entityType]; ok {
			types = append(types, ccoClass)
		}
	}

	return types
}

// TypeTriples returns rdf:type triples as []message.Triple for an entity
// based on its type and the given profile.
func TypeTriples(entityID string, entityType reqvocab.EntityType, profile Profile) []message.Triple {
	asserter := NewTypeAsserter(profile)
	typeIRIs := asserter.GetTypeIRIs(entityType)
	triples := make([]message.Triple, 0, len(typeIRIs))
	for _, typeIRI := range typeIRIs {
		triples = append(triples, message.Triple{
			Subject:    entityID,
			Predicate:  "rdf.syntax.type",
			Object:     typeIRI,
			Source:     "reqgraph.rdf-export",
			Confidence: 1.0,
		})
	}
	return triples
}

// TypeHierarchy represents the ontology type hierarchy for an entity.
type TypeHierarchy struct {
	// ReqgraphClass is the requirement graph class.
	ReqgraphClass string

	// PROVClass is the PROV-O class.
	PROVClass string

	// BFOClass is the BFO class.
	BFOClass string

	// CCOClass is the CCO class.
	CCOClass string
}

// GetTypeHierarchy returns the full type hierarchy for an entity type.
func GetTypeHierarchy(entityType reqvocab.EntityType) TypeHierarchy {
	return TypeHierarchy{
		ReqgraphClass: reqvocab.ClassIRIMap[entityType],
		PROVClass:     reqvocab.PROVClassMap[entityType],
		BFOClass:      reqvocab.BFOClassMap[entityType],
		CCOClass:      reqvocab.CCOClassMap[entityType],
	}
}

// BFOClassDescriptions provides human-readable descriptions for BFO classes.
var BFOClassDescriptions = map[string]string{
	bfo.Entity:                         "The root class of all BFO entities",
	bfo.Continuant:                     "Entities that persist through time",
	bfo.GenericallyDependentContinuant: "Information patterns that can be copied",
}

// CCOClassDescriptions provides human-readable descriptions for CCO classes.
var CCOClassDescriptions = map[string]string{
	cco.InformationContentEntity:          "Root class for information entities",
	cco.DirectiveInformationContentEntity: "Prescriptive information content",
}

// PROVClassDescriptions provides human-readable descriptions for PROV-O classes.
var PROVClassDescriptions = map[string]string{
	vocabulary.ProvEntity:   "Thing with fixed aspects",
	vocabulary.ProvActivity: "Something that occurs over time",
	vocabulary.ProvAgent:    "Something bearing responsibility",
}

// InferEntityType attempts to infer the entity type from an entity ID.
// Entity ID format: reqgraph.local.<type>.<instance>, for example
// reqgraph.local.requirement.auth-api.
func InferEntityType(entityID string) reqvocab.EntityType {
	parts := strings.Split(entityID, ".")
	if len(parts) < 4 {
		return ""
	}

	switch parts[2] {
	case "requirement":
		return reqvocab.EntityTypeRequirement
	case "requirement_version":
		return reqvocab.EntityTypeRequirementVersion
	case "dependency":
		return reqvocab.EntityTypeDependency
	case "friction_report":
		return reqvocab.EntityTypeFrictionReport
	}

	return ""
}
