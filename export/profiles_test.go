package export_test

import (
	"testing"

	"github.com/c360studio/semstreams/vocabulary"
	"github.com/c360studio/semstreams/vocabulary/bfo"
	"github.com/c360studio/semstreams/vocabulary/cco"

	"github.com/c360studio/reqgraph/export"
	reqvocab "github.com/c360studio/reqgraph/vocabulary/reqgraph"
)

func TestGetProfileConfig(t *testing.T) {
	tests := []struct {
		profile  export.Profile
		wantBFO  bool
		wantCCO  bool
		wantPROV bool
	}{
		{export.ProfileMinimal, false, false, true},
		{export.ProfileBFO, true, false, true},
		{export.ProfileCCO, true, true, true},
	}

	for _, tc := range tests {
		t.Run(string(tc.profile), func(t *testing.T) {
			config := export.GetProfileConfig(tc.profile)
			if config.Name != tc.profile {
				t.Errorf("Name = %q, want %q", config.Name, tc.profile)
			}
			if config.IncludeBFO != tc.wantBFO {
				t.Errorf("IncludeBFO = %t, want %t", config.IncludeBFO, tc.wantBFO)
			}
			if config.IncludeCCO != tc.wantCCO {
				t.Errorf("IncludeCCO = %t, want %t", config.IncludeCCO, tc.wantCCO)
			}
			if config.IncludePROV != tc.wantPROV {
				t.Errorf("IncludePROV = %t, want %t", config.IncludePROV, tc.wantPROV)
			}
			if !config.IncludeReqgraph {
				t.Error("every profile should include requirement graph classes")
			}
		})
	}
}

func TestGetProfileConfigUnknown(t *testing.T) {
	config := export.GetProfileConfig("exotic")
	if config.Name != export.ProfileMinimal {
		t.Errorf("unknown profile should fall back to minimal, got %q", config.Name)
	}
}

func TestTypeAsserterMinimal(t *testing.T) {
	asserter := export.NewTypeAsserter(export.ProfileMinimal)

	types := asserter.GetTypeIRIs(reqvocab.EntityTypeRequirement)
	if len(types) != 2 {
		t.Fatalf("type count = %d, want 2", len(types))
	}
	if types[0] != reqvocab.ClassRequirement {
		t.Errorf("types[0] = %q, want requirement class", types[0])
	}
	if types[1] != vocabulary.ProvEntity {
		t.Errorf("types[1] = %q, want prov:Entity", types[1])
	}
}

func TestTypeAsserterBFO(t *testing.T) {
	asserter := export.NewTypeAsserter(export.ProfileBFO)

	types := asserter.GetTypeIRIs(reqvocab.EntityTypeRequirement)
	if len(types) != 3 {
		t.Fatalf("type count = %d, want 3", len(types))
	}
	if types[2] != bfo.GenericallyDependentContinuant {
		t.Errorf("types[2] = %q, want bfo:GenericallyDependentContinuant", types[2])
	}
}

func TestTypeAsserterCCO(t *testing.T) {
	asserter := export.NewTypeAsserter(export.ProfileCCO)

	types := asserter.GetTypeIRIs(reqvocab.EntityTypeRequirementVersion)
	if len(types) != 4 {
		t.Fatalf("type count = %d, want 4", len(types))
	}
	if types[3] != cco.DirectiveInformationContentEntity {
		t.Errorf("types[3] = %q, want cco:DirectiveInformationContentEntity", types[3])
	}
}

func TestTypeTriples(t *testing.T) {
	entityID := "reqgraph.local.requirement.auth-api"
	triples := export.TypeTriples(entityID, reqvocab.EntityTypeRequirement, export.ProfileCCO)

	if len(triples) != 4 {
		t.Fatalf("triple count = %d, want 4", len(triples))
	}
	for i, triple := range triples {
		if triple.Subject != entityID {
			t.Errorf("triple %d subject = %q, want %q", i, triple.Subject, entityID)
		}
		if triple.Predicate != "rdf.syntax.type" {
			t.Errorf("triple %d predicate = %q", i, triple.Predicate)
		}
		if triple.Source != "reqgraph.rdf-export" {
			t.Errorf("triple %d source = %q", i, triple.Source)
		}
		if triple.Confidence != 1.0 {
			t.Errorf("triple %d confidence = %v", i, triple.Confidence)
		}
	}
}

func TestGetTypeHierarchy(t *testing.T) {
	tests := []struct {
		entityType   reqvocab.EntityType
		wantReqgraph string
		wantPROV     string
		wantBFO      string
		wantCCO      string
	}{
		{
			reqvocab.EntityTypeRequirement,
			reqvocab.ClassRequirement,
			vocabulary.ProvEntity,
			bfo.GenericallyDependentContinuant,
			cco.DirectiveInformationContentEntity,
		},
		{
			reqvocab.EntityTypeRequirementVersion,
			reqvocab.ClassRequirementVersion,
			vocabulary.ProvEntity,
			bfo.GenericallyDependentContinuant,
			cco.DirectiveInformationContentEntity,
		},
		{
			reqvocab.EntityTypeDependency,
			reqvocab.ClassDependency,
			vocabulary.ProvEntity,
			bfo.GenericallyDependentContinuant,
			cco.InformationContentEntity,
		},
		{
			reqvocab.EntityTypeFrictionReport,
			reqvocab.ClassFrictionReport,
			vocabulary.ProvEntity,
			bfo.GenericallyDependentContinuant,
			cco.InformationContentEntity,
		},
	}

	for _, tc := range tests {
		t.Run(string(tc.entityType), func(t *testing.T) {
			h := export.GetTypeHierarchy(tc.entityType)
			if h.ReqgraphClass != tc.wantReqgraph {
				t.Errorf("ReqgraphClass = %q, want %q", h.ReqgraphClass, tc.wantReqgraph)
			}
			if h.PROVClass != tc.wantPROV {
				t.Errorf("PROVClass = %q, want %q", h.PROVClass, tc.wantPROV)
			}
			if h.BFOClass != tc.wantBFO {
				t.Errorf("BFOClass = %q, want %q", h.BFOClass, tc.wantBFO)
			}
			if h.CCOClass != tc.wantCCO {
				t.Errorf("CCOClass = %q, want %q", h.CCOClass, tc.wantCCO)
			}
		})
	}
}

func TestInferEntityType(t *testing.T) {
	tests := []struct {
		entityID string
		wantType reqvocab.EntityType
	}{
		{"reqgraph.local.requirement.auth-api", reqvocab.EntityTypeRequirement},
		{"reqgraph.local.requirement_version.auth-api.3", reqvocab.EntityTypeRequirementVersion},
		{"reqgraph.local.dependency.task-login.comp-auth", reqvocab.EntityTypeDependency},
		{"reqgraph.local.friction_report.auth-api", reqvocab.EntityTypeFrictionReport},
		{"reqgraph.local.unknown.thing", ""},
	}

	for _, tc := range tests {
		t.Run(tc.entityID, func(t *testing.T) {
			got := export.InferEntityType(tc.entityID)
			if got != tc.wantType {
				t.Errorf("InferEntityType(%q) = %q, want %q", tc.entityID, got, tc.wantType)
			}
		})
	}
}

func TestInferEntityTypeShortID(t *testing.T) {
	// Short IDs should return empty string
	got := export.InferEntityType("too.short")
	if got != "" {
		t.Errorf("Short ID should return empty entity type, got %q", got)
	}
}

func TestBFOClassDescriptions(t *testing.T) {
	if len(export.BFOClassDescriptions) == 0 {
		t.Error("BFOClassDescriptions should not be empty")
	}

	// Check for some expected entries
	if _, ok := export.BFOClassDescriptions[bfo.Entity]; !ok {
		t.Error("BFOClassDescriptions should contain Entity")
	}
	if _, ok := export.BFOClassDescriptions[bfo.GenericallyDependentContinuant]; !ok {
		t.Error("BFOClassDescriptions should contain GenericallyDependentContinuant")
	}
}

func TestCCOClassDescriptions(t *testing.T) {
	if len(export.CCOClassDescriptions) == 0 {
		t.Error("CCOClassDescriptions should not be empty")
	}

	// Check for some expected entries
	if _, ok := export.CCOClassDescriptions[cco.InformationContentEntity]; !ok {
		t.Error("CCOClassDescriptions should contain InformationContentEntity")
	}
	if _, ok := export.CCOClassDescriptions[cco.DirectiveInformationContentEntity]; !ok {
		t.Error("CCOClassDescriptions should contain DirectiveInformationContentEntity")
	}
}

func TestPROVClassDescriptions(t *testing.T) {
	if len(export.PROVClassDescriptions) == 0 {
		t.Error("PROVClassDescriptions should not be empty")
	}

	// Check for some expected entries
	if _, ok := export.PROVClassDescriptions[vocabulary.ProvEntity]; !ok {
		t.Error("PROVClassDescriptions should contain Entity")
	}
	if _, ok := export.PROVClassDescriptions[vocabulary.ProvActivity]; !ok {
		t.Error("PROVClassDescriptions should contain Activity")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    export.Format
		wantErr bool
	}{
		{"turtle", export.FormatTurtle, false},
		{"ttl", export.FormatTurtle, false},
		{"TTL", export.FormatTurtle, false},
		{"ntriples", export.FormatNTriples, false},
		{"n-triples", export.FormatNTriples, false},
		{"nt", export.FormatNTriples, false},
		{"jsonld", export.FormatJSONLD, false},
		{"json-ld", export.FormatJSONLD, false},
		{"dot", export.FormatDOT, false},
		{"graphviz", export.FormatDOT, false},
		{"gv", export.FormatDOT, false},
		{"xml", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := export.ParseFormat(tc.name)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseFormat(%q) should fail", tc.name)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFormat(%q): %v", tc.name, err)
			}
			if got != tc.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tc.name, got, tc.want)
			}
		})
	}
}

func TestGetFormatInfo(t *testing.T) {
	info, ok := export.GetFormatInfo(export.FormatTurtle)
	if !ok {
		t.Fatal("turtle format should be registered")
	}
	if info.MIMEType != "text/turtle" || info.Extension != ".ttl" {
		t.Errorf("turtle info = %+v", info)
	}

	info, ok = export.GetFormatInfo(export.FormatDOT)
	if !ok {
		t.Fatal("dot format should be registered")
	}
	if info.MIMEType != "text/vnd.graphviz" || info.Extension != ".dot" {
		t.Errorf("dot info = %+v", info)
	}

	if _, ok := export.GetFormatInfo("xml"); ok {
		t.Error("unknown format should not be registered")
	}
}
