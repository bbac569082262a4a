package xport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

func testTableAndMeta() (*model.Table, Metadata) {
	t := model.NewTable([]string{"STUDYID", "USUBJID", "AGE"})
	t.AddColumn("STUDYID", []string{"STUDY1", "STUDY1"})
	t.AddColumn("USUBJID", []string{"STUDY1-001-01", "STUDY1-001-02"})
	t.AddColumn("AGE", []string{"45", "62"})
	meta := Metadata{Columns: []ColumnMetadata{
		{Name: "STUDYID", Label: "Study Identifier", Type: model.TypeChar},
		{Name: "USUBJID", Label: "Unique Subject Identifier", Type: model.TypeChar},
		{Name: "AGE", Label: "Age", Type: model.TypeNum},
	}}
	return t, meta
}

func TestWriteXPTThenReadDatasetRoundTrips(t *testing.T) {
	tbl, meta := testTableAndMeta()
	path := filepath.Join(t.TempDir(), "dm.xpt")

	var codec Codec
	require.NoError(t, codec.WriteXPT(path, tbl, meta))

	got, gotMeta, err := codec.ReadDataset(path)
	require.NoError(t, err)
	assert.Equal(t, tbl.Columns, got.Columns)
	assert.Equal(t, tbl.RowCount, got.RowCount)
	assert.Equal(t, []string{"STUDY1", "STUDY1"}, got.Column("STUDYID"))
	assert.Equal(t, []string{"45", "62"}, got.Column("AGE"))
	assert.Equal(t, meta.Columns[0].Name, gotMeta.Columns[0].Name)
}

func TestWriteXPTRejectsOverlongVariableName(t *testing.T) {
	tbl, meta := testTableAndMeta()
	meta.Columns[0].Name = "WAYTOOLONGNAME"
	tbl.Columns[0] = "WAYTOOLONGNAME"
	tbl.Data["WAYTOOLONGNAME"] = tbl.Data["STUDYID"]
	delete(tbl.Data, "STUDYID")

	path := filepath.Join(t.TempDir(), "dm.xpt")
	var codec Codec
	err := codec.WriteXPT(path, tbl, meta)
	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file should be written on a compliance violation")
}

func TestWriteXPTRejectsNonASCII(t *testing.T) {
	tbl, meta := testTableAndMeta()
	tbl.Data["STUDYID"] = []string{"STÜDY1", "STUDY1"}

	path := filepath.Join(t.TempDir(), "dm.xpt")
	var codec Codec
	err := codec.WriteXPT(path, tbl, meta)
	assert.Error(t, err)
}

func TestReadDatasetRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-xpt.bin")
	require.NoError(t, os.WriteFile(path, []byte("not a transport file"), 0o644))

	var codec Codec
	_, _, err := codec.ReadDataset(path)
	assert.Error(t, err)
}

func TestWriteXPTHandlesMissingNumericAsEmpty(t *testing.T) {
	tbl, meta := testTableAndMeta()
	tbl.Data["AGE"] = []string{"", "62"}

	path := filepath.Join(t.TempDir(), "dm.xpt")
	var codec Codec
	require.NoError(t, codec.WriteXPT(path, tbl, meta))

	got, _, err := codec.ReadDataset(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "62"}, got.Column("AGE"))
}
