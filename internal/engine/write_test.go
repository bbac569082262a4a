package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
	"github.com/SanmaySarada/astraea-sdtm/internal/xport"
)

type fakeWriter struct {
	wrotePath string
	wroteMeta xport.Metadata
}

func (f *fakeWriter) WriteXPT(path string, t *model.Table, meta xport.Metadata) error {
	f.wrotePath = path
	f.wroteMeta = meta
	return nil
}

func TestWriteDomainWritesLowercaseFilenameInDomainSpecOrder(t *testing.T) {
	tbl := model.NewTable([]string{"SEX", "USUBJID", "DOMAIN", "STUDYID"})
	tbl.AddColumn("SEX", []string{"M"})
	tbl.AddColumn("USUBJID", []string{"S-1"})
	tbl.AddColumn("DOMAIN", []string{"DM"})
	tbl.AddColumn("STUDYID", []string{"STUDY001"})

	w := &fakeWriter{}
	out, err := WriteDomain(tbl, testDomainSpec(), "/tmp/out", w)
	require.NoError(t, err)
	assert.Equal(t, []string{"STUDYID", "DOMAIN", "USUBJID", "SEX"}, out.Columns)
	assert.Equal(t, "/tmp/out/dm.xpt", w.wrotePath)
	require.Len(t, w.wroteMeta.Columns, 4)
	assert.Equal(t, "STUDYID", w.wroteMeta.Columns[0].Name)
}
