package reqgraph

import "github.com/c360studio/semstreams/vocabulary"

// Requirement predicates define attributes of one requirement version.
const (
	// RequirementTitle is the requirement title.
	RequirementTitle = "reqgraph.requirement.title"

	// RequirementDescription is the requirement description.
	RequirementDescription = "reqgraph.requirement.description"

	// RequirementStatus is the lifecycle status.
	// Values: proposed, approved, implemented, rejected, deprecated
	RequirementStatus = "reqgraph.requirement.status"

	// RequirementPriority is the numeric priority.
	RequirementPriority = "reqgraph.requirement.priority"

	// RequirementLevel is the hierarchy level (0 vision .. 4 task).
	RequirementLevel = "reqgraph.requirement.level"

	// RequirementType is the requirement kind, e.g. functional.
	RequirementType = "reqgraph.requirement.type"

	// RequirementVersion is the 0-based version index.
	RequirementVersion = "reqgraph.requirement.version"

	// RequirementOperation is the write operation that produced this
	// version. Values: create, update, delete
	RequirementOperation = "reqgraph.requirement.operation"

	// RequirementAuthor links to the author of the version.
	RequirementAuthor = "reqgraph.requirement.author"

	// RequirementChangeReason explains why the version was written.
	RequirementChangeReason = "reqgraph.requirement.change_reason"

	// RequirementCreatedAt is the RFC3339 creation timestamp.
	RequirementCreatedAt = "reqgraph.requirement.created_at"

	// RequirementPreviousVersion links a version to its predecessor.
	RequirementPreviousVersion = "reqgraph.requirement.previous_version"
)

// Dependency predicates describe edges between requirements.
const (
	// DependencyDependsOn links a requirement to one it depends on.
	DependencyDependsOn = "reqgraph.dependency.depends_on"

	// DependencyType is the dependency kind, e.g. depends_on.
	DependencyType = "reqgraph.dependency.type"

	// DependencyReason is the free-text justification for the edge.
	DependencyReason = "reqgraph.dependency.reason"
)

// Friction predicates describe scoring results.
const (
	// FrictionScore is the weighted aggregate friction score in [-1, 0].
	FrictionScore = "reqgraph.friction.score"

	// FrictionCategory is the detector category of a finding.
	FrictionCategory = "reqgraph.friction.category"

	// FrictionClassification is the health classification.
	// Values: healthy, needs_attention, at_risk, critical
	FrictionClassification = "reqgraph.friction.classification"
)

func init() {
	registerRequirementPredicates()
	registerDependencyPredicates()
	registerFrictionPredicates()
}

func registerRequirementPredicates() {
	vocabulary.Register(RequirementTitle,
		vocabulary.WithDescription("Requirement title"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(vocabulary.DcTitle))

	vocabulary.Register(RequirementDescription,
		vocabulary.WithDescription("Requirement description"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"description"))

	vocabulary.Register(RequirementStatus,
		vocabulary.WithDescription("Lifecycle status"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"status"))

	vocabulary.Register(RequirementPriority,
		vocabulary.WithDescription("Numeric priority"),
		vocabulary.WithDataType("int"),
		vocabulary.WithIRI(Namespace+"priority"))

	vocabulary.Register(RequirementLevel,
		vocabulary.WithDescription("Hierarchy level, 0 (vision) to 4 (task)"),
		vocabulary.WithDataType("int"),
		vocabulary.WithIRI(Namespace+"hierarchyLevel"))

	vocabulary.Register(RequirementType,
		vocabulary.WithDescription("Requirement kind"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"requirementType"))

	vocabulary.Register(RequirementVersion,
		vocabulary.WithDescription("0-based version index"),
		vocabulary.WithDataType("int"),
		vocabulary.WithIRI(Namespace+"versionIndex"))

	vocabulary.Register(RequirementOperation,
		vocabulary.WithDescription("Write operation that produced the version"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"operation"))

	vocabulary.Register(RequirementAuthor,
		vocabulary.WithDescription("Author of the version"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(vocabulary.ProvWasAttributedTo))

	vocabulary.Register(RequirementChangeReason,
		vocabulary.WithDescription("Reason the version was written"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"changeReason"))

	vocabulary.Register(RequirementCreatedAt,
		vocabulary.WithDescription("Creation timestamp (RFC3339)"),
		vocabulary.WithDataType("datetime"),
		vocabulary.WithIRI(vocabulary.ProvGeneratedAtTime))

	vocabulary.Register(RequirementPreviousVersion,
		vocabulary.WithDescription("Link to the preceding version"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(vocabulary.ProvWasDerivedFrom))
}

func registerDependencyPredicates() {
	vocabulary.Register(DependencyDependsOn,
		vocabulary.WithDescription("Link to a requirement this one depends on"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(Namespace+"dependsOn"))

	vocabulary.Register(DependencyType,
		vocabulary.WithDescription("Dependency kind"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"dependencyType"))

	vocabulary.Register(DependencyReason,
		vocabulary.WithDescription("Justification for the dependency"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"dependencyReason"))
}

func registerFrictionPredicates() {
	vocabulary.Register(FrictionScore,
		vocabulary.WithDescription("Weighted aggregate friction score in [-1, 0]"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"frictionScore"))

	vocabulary.Register(FrictionCategory,
		vocabulary.WithDescription("Detector category of a finding"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"frictionCategory"))

	vocabulary.Register(FrictionClassification,
		vocabulary.WithDescription("Health classification of a requirement"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"frictionClassification"))
}
