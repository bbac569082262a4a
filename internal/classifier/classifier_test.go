package classifier

import (
	"context"
	"testing"

	"bitbucket.org/creachadair/stringset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SanmaySarada/astraea-sdtm/internal/llm"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

func TestFilenameScoreExactMatch(t *testing.T) {
	assert.Equal(t, 1.0, FilenameScore("DM", "dm.sas7bdat"))
}

func TestFilenameScoreBoundaryMatch(t *testing.T) {
	assert.Equal(t, 0.6, FilenameScore("DS", "ds2.sas7bdat"))
	assert.Equal(t, 0.6, FilenameScore("LB", "lb_biochem.sas7bdat"))
}

func TestFilenameScoreRejectsDigitLeftBoundary(t *testing.T) {
	assert.Equal(t, 0.0, FilenameScore("DA", "data.sas7bdat"), "digits are not valid left boundaries")
}

func TestFilenameScoreNoMatch(t *testing.T) {
	assert.Equal(t, 0.0, FilenameScore("AE", "vitals.sas7bdat"))
}

func TestVariableOverlapScore(t *testing.T) {
	spec := &model.DomainSpec{
		Variables: []model.VariableSpec{
			{Name: "STUDYID"}, {Name: "USUBJID"}, {Name: "DOMAIN"},
			{Name: "LBTESTCD"}, {Name: "LBORRES"}, {Name: "LBSTRESC"}, {Name: "LBDTC"},
		},
	}
	raw := []string{"LBTESTCD", "LBORRES", "ProjectID", "STUDYID"}
	edc := stringset.New("ProjectID")

	score := VariableOverlapScore(raw, edc, spec)
	assert.InDelta(t, 2.0/4.0, score, 0.0001)
}

func TestMergeGroupCandidates(t *testing.T) {
	groups := MergeGroupCandidates([]string{"lb_biochem.sas7bdat", "lb_hem.sas7bdat", "lb_urin.sas7bdat", "dm.sas7bdat"})
	require.Contains(t, groups, "lb")
	assert.Len(t, groups["lb"], 3)
	assert.NotContains(t, groups, "dm")
}

type stubAgent struct {
	proposal *llm.ClassificationProposal
}

func (s *stubAgent) ClassifyDataset(ctx context.Context, systemPrompt, userContent string) (*llm.ClassificationProposal, *llm.UsageInfo, error) {
	return s.proposal, &llm.UsageInfo{}, nil
}

type stubRef struct {
	domains map[string]*model.DomainSpec
}

func (s *stubRef) ListDomains() []string {
	var out []string
	for d := range s.domains {
		out = append(out, d)
	}
	return out
}

func (s *stubRef) GetDomainSpec(domain string) (*model.DomainSpec, error) {
	return s.domains[domain], nil
}

func TestReconcileHeuristicOverride(t *testing.T) {
	best := HeuristicScore{Domain: "DM", FilenameScore: 1.0, VariableOverlap: 0.2}
	proposal := &llm.ClassificationProposal{PrimaryDomain: "AE", Confidence: 0.7}

	domain, confidence, overridden := reconcile(best, proposal)
	assert.Equal(t, "DM", domain)
	assert.Equal(t, 1.0, confidence)
	assert.True(t, overridden)
}

func TestReconcileAgreementBoost(t *testing.T) {
	best := HeuristicScore{Domain: "LB", FilenameScore: 0.9, VariableOverlap: 0.2}
	proposal := &llm.ClassificationProposal{PrimaryDomain: "LB", Confidence: 0.7}

	domain, confidence, overridden := reconcile(best, proposal)
	assert.Equal(t, "LB", domain)
	assert.InDelta(t, 0.7*agreementBoost, confidence, 0.0001)
	assert.False(t, overridden)
}

func TestReconcileDisagreementPenalty(t *testing.T) {
	best := HeuristicScore{Domain: "LB", FilenameScore: 0.85, VariableOverlap: 0.2}
	proposal := &llm.ClassificationProposal{PrimaryDomain: "VS", Confidence: 0.7}

	domain, confidence, overridden := reconcile(best, proposal)
	assert.Equal(t, "VS", domain)
	assert.InDelta(t, 0.7*disagreementPenalty, confidence, 0.0001)
	assert.False(t, overridden)
}

func TestClassifyForcesUnclassifiedBelowFloor(t *testing.T) {
	ref := &stubRef{domains: map[string]*model.DomainSpec{
		"DM": {Domain: "DM", Variables: []model.VariableSpec{{Name: "SEX"}}},
	}}
	agent := &stubAgent{proposal: &llm.ClassificationProposal{PrimaryDomain: "DM", Confidence: 0.1}}

	scores, err := ScoreDataset(ref, "mystery.sas7bdat", nil, stringset.New())
	require.NoError(t, err)

	result, err := Classify(context.Background(), agent, ref, "mystery.sas7bdat", "", "", scores)
	require.NoError(t, err)
	assert.Equal(t, model.Unclassified, result.PrimaryDomain)
}

func TestIsFindingsDomain(t *testing.T) {
	assert.True(t, IsFindingsDomain("LB", nil))
	assert.True(t, IsFindingsDomain("EG", nil))
	assert.False(t, IsFindingsDomain("DM", nil))
	assert.True(t, IsFindingsDomain("ZZ", &model.DomainSpec{Class: model.ClassFindings}))
}
