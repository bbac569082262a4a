package artifacts

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

func TestWriteMappingWorkbook(t *testing.T) {
	ms := model.NewDomainMappingSpec("DM", model.ClassSpecialPurpose, "One record per subject")
	ms.Add(&model.VariableMapping{SDTMVariable: "USUBJID", Order: 1, Label: "Unique Subject Identifier", Type: model.TypeChar, Origin: model.OriginDerived, SourceDataset: "dm", SourceVariable: "SUBJID"})

	path := filepath.Join(t.TempDir(), "mappings.xlsx")
	require.NoError(t, WriteMappingWorkbook(path, map[string]*model.DomainMappingSpec{"DM": ms}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Contains(t, f.GetSheetList(), "DM")
	header, err := f.GetCellValue("DM", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Variable", header)

	val, err := f.GetCellValue("DM", "A2")
	require.NoError(t, err)
	assert.Equal(t, "USUBJID", val)
}
