package refstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Load()
	require.NoError(t, err)
	return s
}

func TestLoadLocksVersions(t *testing.T) {
	s := loadTestStore(t)
	mf := s.Manifest()
	assert.Equal(t, "SDTMIG 3.4", mf.IGVersion)
	assert.Equal(t, "2024-03-29", mf.CTVersion)
}

func TestListDomainsIncludesSeeded(t *testing.T) {
	s := loadTestStore(t)
	domains := s.ListDomains()
	assert.Contains(t, domains, "DM")
	assert.Contains(t, domains, "AE")
	assert.Contains(t, domains, "LB")
}

func TestGetDomainSpecUnknown(t *testing.T) {
	s := loadTestStore(t)
	_, err := s.GetDomainSpec("ZZ")
	assert.Error(t, err)
}

func TestGetRequiredVariablesDM(t *testing.T) {
	s := loadTestStore(t)
	req, err := s.GetRequiredVariables("DM")
	require.NoError(t, err)
	assert.Contains(t, req, "USUBJID")
	assert.Contains(t, req, "STUDYID")
	assert.Contains(t, req, "SEX")
	assert.NotContains(t, req, "ETHNIC")
}

func TestGetVariableSpec(t *testing.T) {
	s := loadTestStore(t)
	v, err := s.GetVariableSpec("DM", "SEX")
	require.NoError(t, err)
	assert.Equal(t, "C66731", v.CodelistCode)

	_, err = s.GetVariableSpec("DM", "NOPE")
	assert.Error(t, err)
}

func TestValidateTermNonExtensible(t *testing.T) {
	s := loadTestStore(t)
	assert.True(t, s.ValidateTerm("C66731", "M"))
	assert.False(t, s.ValidateTerm("C66731", "MALE"))
}

func TestValidateTermExtensible(t *testing.T) {
	s := loadTestStore(t)
	assert.True(t, s.ValidateTerm("C74457", "WHITE"))
	assert.True(t, s.ValidateTerm("C74457", "SOMETHING NOT LISTED"), "extensible codelists accept any value")
}

func TestValidateTermExtensibleNoYesResponse(t *testing.T) {
	s := loadTestStore(t)
	assert.True(t, s.ValidateTerm("C66742", "ANY"), "C66742 is extensible; any submission_value passes")
}

func TestIsExtensible(t *testing.T) {
	s := loadTestStore(t)
	assert.False(t, s.IsExtensible("C66731"))
	assert.True(t, s.IsExtensible("C74457"))
	assert.False(t, s.IsExtensible("UNKNOWN_CODE"))
}

func TestGetCodelistForVariable(t *testing.T) {
	s := loadTestStore(t)
	cl, ok := s.GetCodelistForVariable("SEX")
	require.True(t, ok)
	assert.Equal(t, "C66731", cl.Code)

	_, ok = s.GetCodelistForVariable("AETERM")
	assert.False(t, ok)
}

func TestLookupCodelistUnknown(t *testing.T) {
	s := loadTestStore(t)
	_, err := s.LookupCodelist("C00000")
	assert.Error(t, err)
}
