package enrichment

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

type stubRef struct {
	domain    *model.DomainSpec
	codelists map[string]*model.Codelist
}

func (s *stubRef) GetDomainSpec(domain string) (*model.DomainSpec, error) {
	return s.domain, nil
}

func (s *stubRef) GetVariableSpec(domain, varName string) (model.VariableSpec, error) {
	v, _ := s.domain.VariableByName(varName)
	return v, nil
}

func (s *stubRef) LookupCodelist(code string) (*model.Codelist, error) {
	cl, ok := s.codelists[code]
	if !ok {
		return nil, fmt.Errorf("unknown codelist %q", code)
	}
	return cl, nil
}

func (s *stubRef) IsExtensible(code string) bool {
	cl, ok := s.codelists[code]
	return ok && cl.Extensible
}

func (s *stubRef) ValidateTerm(code, value string) bool {
	cl, ok := s.codelists[code]
	if !ok {
		return false
	}
	if cl.Extensible {
		return true
	}
	return cl.HasSubmissionValue(value)
}

func testDomainSpec() *model.DomainSpec {
	return &model.DomainSpec{
		Domain: "DM",
		Variables: []model.VariableSpec{
			{Order: 1, Name: "STUDYID", Core: model.CoreReq, Type: model.TypeChar},
			{Order: 2, Name: "USUBJID", Core: model.CoreReq, Type: model.TypeChar},
			{Order: 3, Name: "SEX", Core: model.CoreReq, Type: model.TypeChar, CodelistCode: "C66731"},
		},
	}
}

func testCodelists() map[string]*model.Codelist {
	return map[string]*model.Codelist{
		"C66731": {
			Code:       "C66731",
			Extensible: false,
			Terms: map[string]model.CodelistTerm{
				"M": {NCIPreferredTerm: "MALE"},
				"F": {NCIPreferredTerm: "FEMALE"},
			},
		},
	}
}

func TestEnrichAttachesReferenceMetadata(t *testing.T) {
	ref := &stubRef{domain: testDomainSpec(), codelists: testCodelists()}
	spec := model.NewDomainMappingSpec("DM", "", "")
	spec.Add(&model.VariableMapping{SDTMVariable: "SEX", Pattern: model.PatternDirect, SourceVariable: "SEX", ConfidenceScore: 0.9})

	err := Enrich(ref, spec, nil)
	require.NoError(t, err)

	vm := spec.VariableMappings["SEX"]
	assert.Equal(t, 3, vm.Order)
	assert.Equal(t, "C66731", vm.CodelistCode)
	assert.Equal(t, model.OriginCRF, vm.Origin)
}

func TestEnrichComputesMissingRequiredAndSuppqualCandidates(t *testing.T) {
	ref := &stubRef{domain: testDomainSpec(), codelists: testCodelists()}
	spec := model.NewDomainMappingSpec("DM", "", "")
	spec.Add(&model.VariableMapping{SDTMVariable: "SEX", Pattern: model.PatternDirect, SourceVariable: "SEX", ConfidenceScore: 0.9})
	spec.Add(&model.VariableMapping{SDTMVariable: "RACEOTH", Pattern: model.PatternDirect, ConfidenceScore: 0.5})

	err := Enrich(ref, spec, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"STUDYID", "USUBJID"}, spec.MissingRequiredVariables)
	assert.Equal(t, []string{"RACEOTH"}, spec.SuppqualCandidates)
}

func TestEnrichCapsConfidenceWhenSourceVariableMissingFromProfile(t *testing.T) {
	ref := &stubRef{domain: testDomainSpec(), codelists: testCodelists()}
	spec := model.NewDomainMappingSpec("DM", "", "")
	spec.Add(&model.VariableMapping{
		SDTMVariable: "SEX", Pattern: model.PatternDirect,
		SourceDataset: "dm_raw", SourceVariable: "SEX", ConfidenceScore: 0.9,
	})

	profiles := map[string]*model.DatasetProfile{
		"dm_raw": {Filename: "dm_raw", Variables: []model.VariableProfile{{Name: "OTHERVAR"}}},
	}

	err := Enrich(ref, spec, profiles)
	require.NoError(t, err)

	vm := spec.VariableMappings["SEX"]
	assert.LessOrEqual(t, vm.ConfidenceScore, sourceMissingCap)
	assert.Equal(t, model.ConfidenceLow, vm.ConfidenceLevel)
}

func TestEnrichBoostsLookupRecodeWhenAllSourceValuesValidate(t *testing.T) {
	ref := &stubRef{domain: testDomainSpec(), codelists: testCodelists()}
	spec := model.NewDomainMappingSpec("DM", "", "")
	spec.Add(&model.VariableMapping{
		SDTMVariable: "SEX", Pattern: model.PatternLookupRecode, CodelistCode: "C66731",
		SourceDataset: "dm_raw", SourceVariable: "RAWSEX", ConfidenceScore: 0.8,
	})

	profiles := map[string]*model.DatasetProfile{
		"dm_raw": {
			Filename: "dm_raw",
			Variables: []model.VariableProfile{
				{Name: "RAWSEX", TopValues: []model.ValueCount{{Value: "M", Count: 5}, {Value: "F", Count: 5}}},
			},
		},
	}

	err := Enrich(ref, spec, profiles)
	require.NoError(t, err)

	vm := spec.VariableMappings["SEX"]
	assert.InDelta(t, 0.85, vm.ConfidenceScore, 0.0001)
}

func TestEnrichCapsLookupRecodeOnNonExtensibleFailure(t *testing.T) {
	ref := &stubRef{domain: testDomainSpec(), codelists: testCodelists()}
	spec := model.NewDomainMappingSpec("DM", "", "")
	spec.Add(&model.VariableMapping{
		SDTMVariable: "SEX", Pattern: model.PatternLookupRecode, CodelistCode: "C66731",
		SourceDataset: "dm_raw", SourceVariable: "RAWSEX", ConfidenceScore: 0.9,
	})

	profiles := map[string]*model.DatasetProfile{
		"dm_raw": {
			Filename: "dm_raw",
			Variables: []model.VariableProfile{
				{Name: "RAWSEX", TopValues: []model.ValueCount{{Value: "M", Count: 5}, {Value: "X", Count: 1}}},
			},
		},
	}

	err := Enrich(ref, spec, profiles)
	require.NoError(t, err)

	vm := spec.VariableMappings["SEX"]
	assert.LessOrEqual(t, vm.ConfidenceScore, nonExtensibleFailureCap)
}

func TestPredictAndPreventFlagsMissingRequiredVariable(t *testing.T) {
	ref := &stubRef{domain: testDomainSpec(), codelists: testCodelists()}
	spec := model.NewDomainMappingSpec("DM", "", "")

	err := Enrich(ref, spec, nil)
	require.NoError(t, err)

	var ruleIDs []string
	for _, issue := range spec.PredictPreventIssues {
		ruleIDs = append(ruleIDs, issue.RuleID)
	}
	assert.Contains(t, ruleIDs, "ASTR-PP001")
}

func TestPredictAndPreventFlagsInvalidAssignValue(t *testing.T) {
	ref := &stubRef{domain: testDomainSpec(), codelists: testCodelists()}
	spec := model.NewDomainMappingSpec("DM", "", "")
	spec.Add(&model.VariableMapping{
		SDTMVariable: "SEX", Pattern: model.PatternAssign, CodelistCode: "C66731",
		DerivationRule: "UNKNOWN", ConfidenceScore: 0.9,
	})

	err := Enrich(ref, spec, nil)
	require.NoError(t, err)

	var found bool
	for _, issue := range spec.PredictPreventIssues {
		if issue.RuleID == "ASTR-PP004" {
			found = true
		}
	}
	assert.True(t, found)
}
