package profiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

func TestProfileDetectsEDCColumns(t *testing.T) {
	tbl := model.NewTable([]string{"Subject", "SiteNumber", "RACEAME"})
	tbl.AddColumn("Subject", []string{"001", "002"})
	tbl.AddColumn("SiteNumber", []string{"04401", "04401"})
	tbl.AddColumn("RACEAME", []string{"1", "0"})
	tbl.RowCount = 2

	profiles, err := Profile(context.Background(), map[string]*model.Table{"dm_raw": tbl}, nil)
	require.NoError(t, err)
	require.Len(t, profiles, 1)

	p := profiles[0]
	assert.Contains(t, p.EDCColumns, "Subject")
	assert.Contains(t, p.EDCColumns, "SiteNumber")
	assert.NotContains(t, p.EDCColumns, "RACEAME")
}

func TestProfileDetectsDateBySourceFormatTag(t *testing.T) {
	tbl := model.NewTable([]string{"EXSTDAT"})
	tbl.AddColumn("EXSTDAT", []string{"21000", "21001"})
	tbl.RowCount = 2

	meta := map[string][]model.VariableMetadata{
		"ex_raw": {{Name: "EXSTDAT", SourceFormat: "DATE", DType: model.DTypeNumeric}},
	}
	profiles, err := Profile(context.Background(), map[string]*model.Table{"ex_raw": tbl}, meta)
	require.NoError(t, err)

	vp, ok := profiles[0].VariableProfileByName("EXSTDAT")
	require.True(t, ok)
	assert.True(t, vp.IsDate)
	assert.Equal(t, "DATE", vp.DetectedDateFormat)
}

func TestProfileDetectsDateByRawColumnSampling(t *testing.T) {
	tbl := model.NewTable([]string{"AESTDAT_RAW"})
	tbl.AddColumn("AESTDAT_RAW", []string{"30MAR2022", "15APR2022"})
	tbl.RowCount = 2

	profiles, err := Profile(context.Background(), map[string]*model.Table{"ae_raw": tbl}, nil)
	require.NoError(t, err)

	vp, ok := profiles[0].VariableProfileByName("AESTDAT_RAW")
	require.True(t, ok)
	assert.True(t, vp.IsDate)
}

func TestProfileComputesTopValuesUnderCutoff(t *testing.T) {
	tbl := model.NewTable([]string{"SEX"})
	tbl.AddColumn("SEX", []string{"M", "F", "M", "M", "F", ""})
	tbl.RowCount = 6

	profiles, err := Profile(context.Background(), map[string]*model.Table{"dm_raw": tbl}, nil)
	require.NoError(t, err)

	vp, ok := profiles[0].VariableProfileByName("SEX")
	require.True(t, ok)
	assert.Equal(t, 1, vp.NMissing)
	assert.Equal(t, 2, vp.NUnique)
	require.Len(t, vp.TopValues, 2)
	assert.Equal(t, "M", vp.TopValues[0].Value)
	assert.Equal(t, 3, vp.TopValues[0].Count)
}

func TestProfileSkipsTopValuesAboveCutoff(t *testing.T) {
	values := make([]string, 0, 150)
	for i := 0; i < 150; i++ {
		values = append(values, string(rune('A'+i%150)))
	}
	tbl := model.NewTable([]string{"ID"})
	tbl.AddColumn("ID", values)
	tbl.RowCount = len(values)

	profiles, err := Profile(context.Background(), map[string]*model.Table{"x": tbl}, nil)
	require.NoError(t, err)

	vp, ok := profiles[0].VariableProfileByName("ID")
	require.True(t, ok)
	assert.Nil(t, vp.TopValues)
	require.Len(t, vp.SampleValues, 10)
}
