package artifacts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

func TestRenderCSDRG_IncludesAllEightSections(t *testing.T) {
	ms := model.NewDomainMappingSpec("DM", model.ClassSpecialPurpose, "One record per subject")
	ms.Add(&model.VariableMapping{SDTMVariable: "USUBJID", Pattern: model.PatternDerivation})
	ms.SuppqualCandidates = []string{"SPDEVID"}
	ms.MissingRequiredVariables = []string{"SEX"}

	in := CSDRGInput{
		StudyID:      "STUDY1",
		SDTMIGVersion: "3.4",
		CTVersion:     "2024-03-29",
		MappingSpecs: map[string]*model.DomainMappingSpec{"DM": ms},
		ValidationReport: &model.ValidationReport{
			PassRate: 0.95, SubmissionReady: true,
			Results: []model.RuleResult{
				{RuleID: "ASTR-T001", Domain: "DM", Variable: "SEX", KnownFalsePositive: true, KnownFalsePositiveReason: "site coding quirk"},
			},
		},
		NonStandardVariables: map[string][]string{"DM": {"SPDEVID"}},
	}

	out := RenderCSDRG(in)

	for _, section := range []string{
		"1. Introduction", "2. Study Description", "3. Data Standards", "4. Dataset Overview",
		"5. Domain-Specific Information", "6. Data Issues", "7. Validation Results", "8. Non-Standard Variables",
	} {
		assert.Contains(t, out, section)
	}
	assert.Contains(t, out, "Requires human input")
	assert.Contains(t, out, "SPDEVID")
	assert.Contains(t, out, "Known False Positives")
	assert.Contains(t, out, "site coding quirk")
}
