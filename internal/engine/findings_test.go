package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

func TestTransposeUnpivotsWideColumnsAndFlagsUnitMismatch(t *testing.T) {
	lb := model.NewTable([]string{"USUBJID", "VISIT", "HGB", "HGB_UNIT", "WBC"})
	lb.AddColumn("USUBJID", []string{"S-1", "S-2"})
	lb.AddColumn("VISIT", []string{"WEEK 1", "WEEK 1"})
	lb.AddColumn("HGB", []string{"13.5", "14.1"})
	lb.AddColumn("HGB_UNIT", []string{"g/dL", "mmol/L"})
	lb.AddColumn("WBC", []string{"6.2", ""})

	spec := TransposeSpec{
		Domain:         "LB",
		SourceDatasets: []string{"lb"},
		SubjectColumn:  "USUBJID",
		VisitColumn:    "VISIT",
		WideColumns: []WideColumnSpec{
			{SourceColumn: "HGB", TestCD: "HGB", Test: "Hemoglobin", UnitColumn: "HGB_UNIT"},
			{SourceColumn: "WBC", TestCD: "WBC", Test: "Leukocytes", Unit: "10^9/L"},
		},
	}

	result, err := Transpose(spec, map[string]*Frame{"lb": lb}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Table.RowCount) // 2 HGB rows + 1 non-empty WBC row
	assert.ElementsMatch(t, []string{"HGB", "HGB", "WBC"}, result.Table.Column("LBTESTCD"))
	assert.NotEmpty(t, result.Warnings) // HGB is g/dL for S-1 but mmol/L for S-2 - same test, divergent units
}

func TestTransposeWarnsOnUnitMismatchWithinSameSubjectTest(t *testing.T) {
	lb := model.NewTable([]string{"USUBJID", "HGB", "HGB_UNIT"})
	lb.AddColumn("USUBJID", []string{"S-1", "S-1"})
	lb.AddColumn("HGB", []string{"13.5", "14.0"})
	lb.AddColumn("HGB_UNIT", []string{"g/dL", "mmol/L"})

	spec := TransposeSpec{
		Domain:         "LB",
		SourceDatasets: []string{"lb"},
		SubjectColumn:  "USUBJID",
		WideColumns: []WideColumnSpec{
			{SourceColumn: "HGB", TestCD: "HGB", Test: "Hemoglobin", UnitColumn: "HGB_UNIT"},
		},
	}

	result, err := Transpose(spec, map[string]*Frame{"lb": lb}, Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Warnings)
}

func TestStackDatasetsPadsMissingColumns(t *testing.T) {
	a := model.NewTable([]string{"USUBJID", "HGB"})
	a.AddColumn("USUBJID", []string{"S-1"})
	a.AddColumn("HGB", []string{"13.5"})
	b := model.NewTable([]string{"USUBJID", "WBC"})
	b.AddColumn("USUBJID", []string{"S-2"})
	b.AddColumn("WBC", []string{"6.0"})

	stacked, err := stackDatasets([]string{"a", "b"}, map[string]*Frame{"a": a, "b": b})
	require.NoError(t, err)
	assert.Equal(t, 2, stacked.RowCount)
	assert.Equal(t, []string{"13.5", ""}, stacked.Column("HGB"))
	assert.Equal(t, []string{"", "6.0"}, stacked.Column("WBC"))
}
