package mapping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SanmaySarada/astraea-sdtm/internal/llm"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

func TestParseDerivationRuleWithArgs(t *testing.T) {
	kw, args := ParseDerivationRule("CONCAT(RACE, RACEOTH)")
	assert.Equal(t, "CONCAT", kw)
	assert.Equal(t, []string{"RACE", "RACEOTH"}, args)
}

func TestParseDerivationRuleBareKeyword(t *testing.T) {
	kw, args := ParseDerivationRule("GENERATE_USUBJID")
	assert.Equal(t, "GENERATE_USUBJID", kw)
	assert.Equal(t, []string{}, args)
}

func TestParseDerivationRuleNoArgs(t *testing.T) {
	kw, args := ParseDerivationRule("ISO8601_DATE()")
	assert.Equal(t, "ISO8601_DATE", kw)
	assert.Equal(t, []string{}, args)
}

type stubAgent struct {
	proposal *llm.MappingProposal
}

func (s *stubAgent) ProposeMapping(ctx context.Context, systemPrompt, userContent string) (*llm.MappingProposal, *llm.UsageInfo, error) {
	return s.proposal, &llm.UsageInfo{}, nil
}

func testDomainSpec() *model.DomainSpec {
	return &model.DomainSpec{
		Domain: "DM",
		Class:  model.ClassSpecialPurpose,
		Variables: []model.VariableSpec{
			{Order: 1, Name: "STUDYID", Core: model.CoreReq, Type: model.TypeChar},
			{Order: 2, Name: "USUBJID", Core: model.CoreReq, Type: model.TypeChar},
			{Order: 3, Name: "SEX", Core: model.CoreReq, Type: model.TypeChar, CodelistCode: "C66731"},
		},
	}
}

func TestProposeAcceptsValidMappings(t *testing.T) {
	agent := &stubAgent{proposal: &llm.MappingProposal{
		SchemaVersion: "v1",
		Domain:        "DM",
		Mappings: []llm.ProposedVariableMapping{
			{SDTMVariable: "USUBJID", Pattern: "DERIVATION", DerivationRule: "GENERATE_USUBJID", ConfidenceScore: 0.9},
			{SDTMVariable: "SEX", Pattern: "DIRECT", SourceVariable: "SEX", ConfidenceScore: 0.95},
		},
	}}

	spec, _, err := Propose(context.Background(), agent, testDomainSpec(), nil, nil)
	require.NoError(t, err)
	assert.Len(t, spec.VariableMappings, 2)
	assert.Empty(t, spec.PredictPreventIssues)
}

func TestProposeRejectsUnrecognizedKeyword(t *testing.T) {
	agent := &stubAgent{proposal: &llm.MappingProposal{
		Domain: "DM",
		Mappings: []llm.ProposedVariableMapping{
			{SDTMVariable: "SEX", Pattern: "DERIVATION", DerivationRule: "GUESS_SEX(RAWSEX)", ConfidenceScore: 0.8},
		},
	}}

	spec, _, err := Propose(context.Background(), agent, testDomainSpec(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, spec.VariableMappings)
	require.Len(t, spec.PredictPreventIssues, 1)
	assert.Equal(t, "ERROR", spec.PredictPreventIssues[0].Severity)
	assert.Equal(t, "ASTR-MAP003", spec.PredictPreventIssues[0].RuleID)
}

func TestProposeAcceptsNonSDTMVariableAsPotentialSUPPQUAL(t *testing.T) {
	agent := &stubAgent{proposal: &llm.MappingProposal{
		Domain: "DM",
		Mappings: []llm.ProposedVariableMapping{
			{SDTMVariable: "RACEOTH", Pattern: "DIRECT", ConfidenceScore: 0.5},
		},
	}}

	spec, _, err := Propose(context.Background(), agent, testDomainSpec(), nil, nil)
	require.NoError(t, err)
	assert.Contains(t, spec.VariableMappings, "RACEOTH")
	assert.Empty(t, spec.PredictPreventIssues)
}

func TestProposeRequiresDerivationRuleForNonAssignPatterns(t *testing.T) {
	agent := &stubAgent{proposal: &llm.MappingProposal{
		Domain: "DM",
		Mappings: []llm.ProposedVariableMapping{
			{SDTMVariable: "SEX", Pattern: "REFORMAT", ConfidenceScore: 0.7},
		},
	}}

	spec, _, err := Propose(context.Background(), agent, testDomainSpec(), nil, nil)
	require.NoError(t, err)
	require.Len(t, spec.PredictPreventIssues, 1)
	assert.Equal(t, "ASTR-MAP002", spec.PredictPreventIssues[0].RuleID)
}

func TestSystemPromptEnumeratesClosedVocabulary(t *testing.T) {
	prompt := SystemPrompt()
	for _, kw := range llm.DerivationKeywords {
		assert.Contains(t, prompt, kw)
	}
}
