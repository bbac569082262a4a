package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

func TestFixNonASCIIFoldsSmartPunctuationAndDiacritics(t *testing.T) {
	assert.Equal(t, `"quoted" text`, FixNonASCII("“quoted” text"))
	assert.Equal(t, "Francois", FixNonASCII("François"))
}

func TestEnforceComplianceReordersAndSortsByKeyVariables(t *testing.T) {
	tbl := model.NewTable([]string{"SEX", "USUBJID", "DOMAIN", "STUDYID"})
	tbl.AddColumn("SEX", []string{"F", "M"})
	tbl.AddColumn("USUBJID", []string{"S-2", "S-1"})
	tbl.AddColumn("DOMAIN", []string{"DM", "DM"})
	tbl.AddColumn("STUDYID", []string{"STUDY001", "STUDY001"})

	out, violations, err := EnforceCompliance(tbl, testDomainSpec())
	require.NoError(t, err)
	assert.Empty(t, violations)
	assert.Equal(t, []string{"STUDYID", "DOMAIN", "USUBJID", "SEX"}, out.Columns)
	assert.Equal(t, []string{"S-1", "S-2"}, out.Column("USUBJID"))
	assert.Equal(t, []string{"M", "F"}, out.Column("SEX"))
}

func TestEnforceComplianceRejectsUnknownColumn(t *testing.T) {
	tbl := model.NewTable([]string{"STUDYID", "DOMAIN", "USUBJID", "SEX", "MYSTERY"})
	tbl.AddColumn("STUDYID", []string{"STUDY001"})
	tbl.AddColumn("DOMAIN", []string{"DM"})
	tbl.AddColumn("USUBJID", []string{"S-1"})
	tbl.AddColumn("SEX", []string{"M"})
	tbl.AddColumn("MYSTERY", []string{"x"})

	_, violations, err := EnforceCompliance(tbl, testDomainSpec())
	assert.Error(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "MYSTERY", violations[0].Variable)
}

func TestEnforceComplianceRejectsOverlongValue(t *testing.T) {
	tbl := model.NewTable([]string{"STUDYID", "DOMAIN", "USUBJID", "SEX"})
	tbl.AddColumn("STUDYID", []string{"STUDY001"})
	tbl.AddColumn("DOMAIN", []string{"DM"})
	tbl.AddColumn("USUBJID", []string{"S-1"})
	tbl.AddColumn("SEX", []string{strings.Repeat("M", 201)})

	_, violations, err := EnforceCompliance(tbl, testDomainSpec())
	assert.Error(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "SEX", violations[0].Variable)
}
