package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

func newCtx(primary *Frame, raw map[string]*Frame, computed map[string][]string) *keywordCtx {
	if raw == nil {
		raw = map[string]*Frame{}
	}
	if computed == nil {
		computed = map[string][]string{}
	}
	return &keywordCtx{
		resolver:     Resolver{},
		primary:      primary,
		raw:          raw,
		computed:     computed,
		studyID:      "STUDY001",
		usubjidDelim: "-",
	}
}

func TestRaceCheckboxSingleMultipleNone(t *testing.T) {
	tbl := model.NewTable([]string{"RACE_WHITE", "RACE_ASIAN"})
	tbl.AddColumn("RACE_WHITE", []string{"1", "1", "0"})
	tbl.AddColumn("RACE_ASIAN", []string{"0", "1", "0"})

	ctx := newCtx(tbl, nil, nil)
	res, err := raceCheckbox(ctx, []string{"RACE_WHITE", "RACE_ASIAN"})
	require.NoError(t, err)
	assert.Equal(t, []string{"WHITE", "MULTIPLE", ""}, res.Values)
}

func TestISO8601PartialDateTruncatesAtMissingComponent(t *testing.T) {
	tbl := model.NewTable([]string{"YR", "MO", "DY"})
	tbl.AddColumn("YR", []string{"2020", "2020"})
	tbl.AddColumn("MO", []string{"6", ""})
	tbl.AddColumn("DY", []string{"15", ""})

	ctx := newCtx(tbl, nil, nil)
	res, err := iso8601PartialDate(ctx, []string{"YR", "MO", "DY"})
	require.NoError(t, err)
	assert.Equal(t, "2020-06-15", res.Values[0])
	assert.Equal(t, "2020", res.Values[1])
}

func TestNumericToYN(t *testing.T) {
	tbl := model.NewTable([]string{"FLAG"})
	tbl.AddColumn("FLAG", []string{"0", "1", ""})

	ctx := newCtx(tbl, nil, nil)
	res, err := numericToYN(ctx, []string{"FLAG"})
	require.NoError(t, err)
	assert.Equal(t, []string{"N", "Y", ""}, res.Values)
}

func TestMinMaxDatePerSubjectJoinsAcrossDatasets(t *testing.T) {
	ex := model.NewTable([]string{"USUBJID", "EXSTDTC"})
	ex.AddColumn("USUBJID", []string{"S-1", "S-1", "S-2"})
	ex.AddColumn("EXSTDTC", []string{"2021-01-05", "2021-01-01", "2021-03-01"})

	primary := model.NewTable([]string{})
	primary.RowCount = 2

	ctx := newCtx(primary, map[string]*Frame{"ex": ex}, map[string][]string{"USUBJID": {"S-1", "S-2"}})

	min, err := minDatePerSubject(ctx, []string{"ex.EXSTDTC"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2021-01-01", "2021-03-01"}, min.Values)

	max, err := maxDatePerSubject(ctx, []string{"ex.EXSTDTC"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2021-01-05", "2021-03-01"}, max.Values)
}

func TestMinDatePerSubjectRequiresComputedUSUBJID(t *testing.T) {
	ex := model.NewTable([]string{"USUBJID", "EXSTDTC"})
	ex.AddColumn("USUBJID", []string{"S-1"})
	ex.AddColumn("EXSTDTC", []string{"2021-01-05"})

	ctx := newCtx(model.NewTable(nil), map[string]*Frame{"ex": ex}, nil)
	_, err := minDatePerSubject(ctx, []string{"ex.EXSTDTC"})
	assert.Error(t, err)
}

func TestConcatKeywordMixesColumnsAndLiterals(t *testing.T) {
	tbl := model.NewTable([]string{"A", "B"})
	tbl.AddColumn("A", []string{"foo"})
	tbl.AddColumn("B", []string{"bar"})

	ctx := newCtx(tbl, nil, nil)
	res, err := concatKeyword(ctx, []string{"A", "-", "B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"foo-bar"}, res.Values)
}
