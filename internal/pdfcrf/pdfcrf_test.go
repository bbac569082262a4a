package pdfcrf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

func TestCachedExtractor_MissThenHit(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "ecrf.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("not a real pdf"), 0o644))

	calls := 0
	inner := countingExtractor{forms: []model.ECRFForm{
		{FormName: "DM", PageNumbers: []int{1, 2}, Fields: []model.ECRFField{
			{FieldNumber: 1, FieldName: "BRTHDAT", DataType: "date", SASLabel: "Birth Date"},
		}},
	}, calls: &calls}

	ce := CachedExtractor{Inner: &inner}

	forms, err := ce.Extract(pdfPath)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, forms, 1)

	assert.FileExists(t, cachePath(pdfPath))

	forms2, err := ce.Extract(pdfPath)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second call should hit the cache, not the inner extractor")
	assert.Equal(t, forms, forms2)
}

func TestFormByNameAndFieldNames(t *testing.T) {
	forms := []model.ECRFForm{
		{FormName: "DM", Fields: []model.ECRFField{{FieldName: "SUBJID"}, {FieldName: "BRTHDAT"}}},
		{FormName: "AE", Fields: []model.ECRFField{{FieldName: "AETERM"}}},
	}

	f, ok := FormByName(forms, "AE")
	require.True(t, ok)
	assert.Equal(t, "AE", f.FormName)

	_, ok = FormByName(forms, "LB")
	assert.False(t, ok)

	assert.ElementsMatch(t, []string{"SUBJID", "BRTHDAT", "AETERM"}, FieldNames(forms))
}

type countingExtractor struct {
	forms []model.ECRFForm
	calls *int
}

func (c *countingExtractor) Extract(string) ([]model.ECRFForm, error) {
	*c.calls++
	return c.forms, nil
}
