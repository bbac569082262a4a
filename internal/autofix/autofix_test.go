package autofix

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

type fakeRef struct {
	codelists map[string]*model.Codelist
}

func (f fakeRef) GetDomainSpec(string) (*model.DomainSpec, error) { return nil, nil }

func (f fakeRef) LookupCodelist(code string) (*model.Codelist, error) {
	cl, ok := f.codelists[code]
	if !ok {
		return nil, nil
	}
	return cl, nil
}

func (f fakeRef) IsExtensible(code string) bool {
	cl, ok := f.codelists[code]
	return ok && cl.Extensible
}

func (f fakeRef) ValidateTerm(code, value string) bool {
	cl, ok := f.codelists[code]
	if !ok {
		return true
	}
	return cl.HasSubmissionValue(value)
}

func (f fakeRef) GetCodelistForVariable(string) (*model.Codelist, bool) { return nil, false }

func sexDomainSpec() *model.DomainSpec {
	return &model.DomainSpec{
		Domain: "DM",
		Variables: []model.VariableSpec{
			{Name: "SEX", CodelistCode: "C66731"},
			{Name: "USUBJID", Core: model.CoreReq},
		},
	}
}

func TestFixer_FixesDomainColumnMismatch(t *testing.T) {
	table := model.NewTable([]string{"DOMAIN", "USUBJID"})
	table.AddColumn("DOMAIN", []string{"DM", "dm", "DM"})
	table.AddColumn("USUBJID", []string{"S1", "S2", "S3"})

	f := NewFixer(fakeRef{})
	result, err := f.Run("DM", table, sexDomainSpec(), nil, 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"DM", "DM", "DM"}, table.Column("DOMAIN"))
	require.NotEmpty(t, result.Audit)
	assert.Equal(t, "ASTR-T002", result.Audit[0].RuleID)
}

func TestFixer_NormalizesCTCase(t *testing.T) {
	codelists := map[string]*model.Codelist{
		"C66731": {
			Code:       "C66731",
			Extensible: true,
			Terms: map[string]model.CodelistTerm{
				"M": {NCIPreferredTerm: "Male"},
				"F": {NCIPreferredTerm: "Female"},
			},
		},
	}

	table := model.NewTable([]string{"DOMAIN", "SEX", "USUBJID"})
	table.AddColumn("DOMAIN", []string{"DM", "DM"})
	table.AddColumn("SEX", []string{"m", "F"})
	table.AddColumn("USUBJID", []string{"S1", "S2"})

	f := NewFixer(fakeRef{codelists: codelists})
	result, err := f.Run("DM", table, sexDomainSpec(), nil, 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"M", "F"}, table.Column("SEX"))
	found := false
	for _, e := range result.Audit {
		if e.RuleID == "ASTR-T001" {
			found = true
		}
	}
	assert.True(t, found, "expected a recorded ASTR-T001 fix")
}

func TestFixer_NeverFixesMissingUSUBJID(t *testing.T) {
	table := model.NewTable([]string{"DOMAIN", "USUBJID"})
	table.AddColumn("DOMAIN", []string{"DM", "DM"})
	table.AddColumn("USUBJID", []string{"S1", ""})

	f := NewFixer(fakeRef{})
	result, err := f.Run("DM", table, sexDomainSpec(), nil, 3)
	require.NoError(t, err)

	require.NotEmpty(t, result.NeedsHuman)
	assert.Equal(t, "ASTR-P004", result.NeedsHuman[0].RuleID)
}

func TestFixer_TruncatesLabelWhenMappingSpecProvided(t *testing.T) {
	mappingSpec := model.NewDomainMappingSpec("DM", model.ClassSpecialPurpose, "")
	mappingSpec.Add(&model.VariableMapping{
		SDTMVariable: "SPDEVID",
		Label:        strings.Repeat("x", 55),
	})
	domainSpec := &model.DomainSpec{
		Domain: "DM",
		Variables: []model.VariableSpec{
			{Name: "SPDEVID", Label: strings.Repeat("x", 55)},
		},
	}

	table := model.NewTable([]string{"SPDEVID"})
	table.AddColumn("SPDEVID", []string{"A"})

	f := NewFixer(fakeRef{})
	result, err := f.Run("DM", table, domainSpec, mappingSpec, 3)
	require.NoError(t, err)

	vm := mappingSpec.VariableMappings["SPDEVID"]
	assert.LessOrEqual(t, len(vm.Label), maxTruncatedLabel)
	found := false
	for _, e := range result.Audit {
		if e.RuleID == "ASTR-L002" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, NeedsHuman, Classify(model.RuleResult{RuleID: "ASTR-P004", Severity: model.SeverityError}))
	assert.Equal(t, NeedsHuman, Classify(model.RuleResult{RuleID: "ASTR-C001", Severity: model.SeverityError}))
	assert.Equal(t, AutoFixable, Classify(model.RuleResult{RuleID: "ASTR-T002", Severity: model.SeverityError}))
	assert.Equal(t, NeedsHuman, Classify(model.RuleResult{RuleID: "ASTR-T001", Severity: model.SeverityError}))
	assert.Equal(t, AutoFixable, Classify(model.RuleResult{RuleID: "ASTR-T001", Severity: model.SeverityWarning}))
	assert.Equal(t, Informational, Classify(model.RuleResult{RuleID: "ASTR-L004", Severity: model.SeverityNotice}))
}
