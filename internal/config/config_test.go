package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, ".astraea", cfg.StateDir)
	assert.Equal(t, DefaultOpenAIModel, cfg.OpenAIModel)
}

func TestLoadTOMLOverrides(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
study_id = "STUDY001"
output_dir = "out"
openai_model = "gpt-4o-mini"
autofix_max_iterations = 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "astraea.toml"), []byte(tomlContent), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "STUDY001", cfg.StudyID)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 5, cfg.AutoFixMaxIterations)
}

func TestValidateForLLMFailsFast(t *testing.T) {
	cfg := Defaults()
	cfg.OpenAIAPIKey = ""
	err := cfg.ValidateForLLM()
	assert.Error(t, err)
}

func TestValidateRequiresStudyID(t *testing.T) {
	cfg := Defaults()
	err := cfg.Validate()
	assert.Error(t, err)
	cfg.StudyID = "S1"
	assert.NoError(t, cfg.Validate())
}

func TestSessionsAndLearningPaths(t *testing.T) {
	cfg := Defaults()
	cfg.StateDir = ".astraea"
	assert.Equal(t, ".astraea/sessions.db", filepath.ToSlash(cfg.SessionsDBPath()))
	assert.Equal(t, ".astraea/learning/examples.db", filepath.ToSlash(cfg.LearningDBPath()))
}
