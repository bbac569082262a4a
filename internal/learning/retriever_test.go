package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

func TestRetriever_PrioritizesCorrectionsUpToCap(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		corrected := model.HumanCorrection{
			CorrectionType:  model.CorrectionModify,
			OriginalMapping: model.VariableMapping{SDTMVariable: "V"},
			CorrectedMapping: &model.VariableMapping{
				SDTMVariable:   "V",
				SourceVariable: "SRC",
				Pattern:        model.PatternRename,
			},
		}
		require.NoError(t, s.IngestDecision("STUDY1", "DM", corrected))
		// ExampleID is keyed by (study, domain, variable), and every
		// iteration uses the same three, so each ingest overwrites the
		// previous one.
	}

	approved := model.HumanCorrection{
		CorrectionType:  model.CorrectionAccept,
		OriginalMapping: model.VariableMapping{SDTMVariable: "USUBJID", SourceVariable: "SUBJID", Pattern: model.PatternDerivation},
	}
	require.NoError(t, s.IngestDecision("STUDY1", "DM", approved))

	r := NewRetriever(s, 10)
	examples, err := r.Retrieve("DM", "DM USUBJID SUBJID")
	require.NoError(t, err)

	// Only one distinct correction example exists (all 5 ingests overwrote
	// the same example_id), plus the one approved example.
	assert.LessOrEqual(t, len(examples), maxCorrectionExamples+1)
}

func TestJaccardSimilarity(t *testing.T) {
	a := tokenize("DM USUBJID SUBJID")
	b := tokenize("DM USUBJID SUBJID")
	assert.Equal(t, 1.0, jaccard(a, b))

	c := tokenize("AE AETERM")
	assert.Equal(t, 0.0, jaccard(a, c))
}

func TestRankBySimilarity_OrdersByOverlap(t *testing.T) {
	examples := []model.LearningExample{
		{ExampleID: "b", EmbeddedText: "AE AETERM AETERM DIRECT"},
		{ExampleID: "a", EmbeddedText: "DM USUBJID SUBJID DERIVATION"},
	}
	ranked := rankBySimilarity("DM USUBJID SUBJID DERIVATION", examples)
	require.Len(t, ranked, 2)
	assert.Equal(t, "a", ranked[0].ExampleID)
}
