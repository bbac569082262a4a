package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

func TestNewSessionPersistsPendingDomains(t *testing.T) {
	store, err := NewStore("")
	require.NoError(t, err)
	defer store.Close()

	session, err := store.NewSession("STUDY001", []string{"DM", "AE"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.SessionID)
	assert.Equal(t, model.ReviewPending, session.DomainReviews["DM"].Status)
	assert.Equal(t, model.ReviewPending, session.DomainReviews["AE"].Status)
}

func TestRecordDecisionThenLoadSessionRoundTrips(t *testing.T) {
	store, err := NewStore("")
	require.NoError(t, err)
	defer store.Close()

	session, err := store.NewSession("STUDY001", []string{"DM"})
	require.NoError(t, err)

	decision := model.HumanCorrection{
		VariableIndex:   0,
		CorrectionType:  model.CorrectionAccept,
		OriginalMapping: model.VariableMapping{SDTMVariable: "STUDYID", Pattern: model.PatternDirect},
	}
	require.NoError(t, store.RecordDecision(session.SessionID, "DM", decision))

	reloaded, err := store.LoadSession(session.SessionID)
	require.NoError(t, err)
	require.Len(t, reloaded.DomainReviews["DM"].Decisions, 1)
	assert.Equal(t, "STUDYID", reloaded.DomainReviews["DM"].Decisions[0].OriginalMapping.SDTMVariable)
	assert.Equal(t, model.ReviewInProgress, reloaded.DomainReviews["DM"].Status)
}

func TestCompleteDomainMarksStatus(t *testing.T) {
	store, err := NewStore("")
	require.NoError(t, err)
	defer store.Close()

	session, err := store.NewSession("STUDY001", []string{"DM"})
	require.NoError(t, err)
	require.NoError(t, store.CompleteDomain(session.SessionID, "DM"))

	reloaded, err := store.LoadSession(session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.ReviewCompleted, reloaded.DomainReviews["DM"].Status)
}

func TestLoadSessionUnknownIDErrors(t *testing.T) {
	store, err := NewStore("")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.LoadSession("does-not-exist")
	assert.Error(t, err)
}

func TestApplyDecisionAdd(t *testing.T) {
	spec := model.NewDomainMappingSpec("DM", model.ClassSpecialPurpose, "")
	newVar := &model.VariableMapping{SDTMVariable: "RACE", Pattern: model.PatternDirect}
	ApplyDecision(spec, model.HumanCorrection{CorrectionType: model.CorrectionAdd, CorrectedMapping: newVar})
	assert.Contains(t, spec.VariableMappings, "RACE")
}
