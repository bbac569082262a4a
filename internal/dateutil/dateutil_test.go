package dateutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSASDateToISO(t *testing.T) {
	assert.Equal(t, "1960-01-01", SASDateToISO(0))
	assert.Equal(t, "1984-12-31", SASDateToISO(9131))
}

func TestSASDatetimeToISO(t *testing.T) {
	assert.Equal(t, "2022-03-30T00:00:00", SASDatetimeToISO(1964217600.0))
}

func TestFormatPartialISO8601(t *testing.T) {
	y2023, m3, d15, h10 := 2023, 3, 15, 10

	got, err := FormatPartialISO8601(PartialDate{Year: &y2023, Month: &m3})
	require.NoError(t, err)
	assert.Equal(t, "2023-03", got)

	got, err = FormatPartialISO8601(PartialDate{Year: &y2023, Month: &m3, Day: &d15, Hour: &h10})
	require.NoError(t, err)
	assert.Equal(t, "2023-03-15", got, "hour without minute truncates the time component")
}

func TestParseStringDateToISO(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"30MAR2022", "2022-03-30"},
		{"30 MAR 2022", "2022-03-30"},
		{"2022-03-30", "2022-03-30"},
		{"30-Mar-2022", "2022-03-30"},
		{"Mar 2022", "2022-03"},
		{"2022", "2022"},
	}
	for _, tc := range cases {
		got, _, err := ParseStringDateToISO(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseStringDateAmbiguousSlash(t *testing.T) {
	got, warning, err := ParseStringDateToISO("05/03/2022")
	require.NoError(t, err)
	assert.Equal(t, "2022-03-05", got, "DD/MM default")
	assert.NotEmpty(t, warning)
}

func TestGenerateUSUBJID(t *testing.T) {
	got, err := GenerateUSUBJID("301", "04401", "01", "")
	require.NoError(t, err)
	assert.Equal(t, "301-04401-01", got)
}

func TestGenerateUSUBJIDRejectsEmpty(t *testing.T) {
	_, err := GenerateUSUBJID("", "04401", "01", "")
	assert.Error(t, err)
}

func TestValidateUSUBJIDConsistency(t *testing.T) {
	dm := []string{"S-1-001", "S-1-002"}
	others := map[string][]string{"AE": {"S-1-001", "S-1-999"}}
	errs := ValidateUSUBJIDConsistency(dm, others)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "S-1-999")
}

func TestIsValidDTC(t *testing.T) {
	assert.True(t, IsValidDTC(""))
	assert.True(t, IsValidDTC("2023"))
	assert.True(t, IsValidDTC("2023-03-15T10:30:00"))
	assert.False(t, IsValidDTC("2023--15"))
}

func TestStudyDay(t *testing.T) {
	day, err := StudyDay("2023-03-15", "2023-03-15")
	require.NoError(t, err)
	assert.Equal(t, 1, day)

	day, err = StudyDay("2023-03-14", "2023-03-15")
	require.NoError(t, err)
	assert.Equal(t, -1, day)
}
