package trialdesign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTS_OrdersByParameterCode(t *testing.T) {
	cfg := Config{
		StudyID: "STUDY1",
		Parameters: map[string]string{
			"PHASE":  "3",
			"STITLE": "A Study of Things",
		},
	}
	table, err := BuildTS(cfg)
	require.NoError(t, err)

	require.Equal(t, 2, table.RowCount)
	assert.Equal(t, []string{"PHASE", "STITLE"}, table.Data["TSPARMCD"])
	assert.Equal(t, []string{"STUDY1", "STUDY1"}, table.Data["STUDYID"])
	assert.Equal(t, []string{"TS", "TS"}, table.Data["DOMAIN"])
	assert.Equal(t, []string{"1", "2"}, table.Data["TSSEQ"])
	assert.Equal(t, "Trial Phase Classification", table.Data["TSPARM"][0])
}

func TestBuildTS_RejectsUnknownParameter(t *testing.T) {
	_, err := BuildTS(Config{StudyID: "STUDY1", Parameters: map[string]string{"BOGUS": "x"}})
	assert.Error(t, err)
}

func TestBuildTS_RequiresStudyID(t *testing.T) {
	_, err := BuildTS(Config{Parameters: map[string]string{"PHASE": "3"}})
	assert.Error(t, err)
}
