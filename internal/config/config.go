// Package config loads pipeline configuration in the order spec.md §6.2
// prescribes: built-in defaults, then .env (secrets), then the study
// working directory's astraea.toml, then environment variables, then CLI
// flags (applied by the caller after Load returns). Structure follows the
// teacher's internal/config/config.go: exported defaults as named
// constants, a flat Config struct, and an explicit Validate step so callers
// fail fast rather than discovering a bad value mid-pipeline.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultOpenAIModel      = "gpt-4o"
	DefaultUSUBJIDDelimiter = "-"
	DefaultAIRequestTimeout = 30 * time.Second
	DefaultAIMaxRetries     = 3
	DefaultAIRetryBaseDelay = 1 * time.Second
	DefaultAIRateLimitPerSec = 1.0
	DefaultAIRateLimitBurst  = 3
	DefaultAutoFixMaxIterations = 3
	DefaultReviewExamplesPerPrompt = 5
	DefaultReviewCorrectionsCap    = 3
)

// Config is the fully-resolved pipeline configuration for one study run.
type Config struct {
	StudyID   string `toml:"study_id"`
	DataDir   string `toml:"data_dir"`
	OutputDir string `toml:"output_dir"`
	StateDir  string `toml:"state_dir"` // .astraea/ per spec.md §6

	USUBJIDDelimiter string `toml:"usubjid_delimiter"`

	OpenAIAPIKey string `toml:"-"` // never persisted to astraea.toml
	OpenAIModel  string `toml:"openai_model"`

	AIRequestTimeout    time.Duration `toml:"-"`
	AIRequestTimeoutSec int           `toml:"ai_request_timeout_seconds"`
	AIMaxRetries        int           `toml:"ai_max_retries"`
	AIRetryBaseDelay    time.Duration `toml:"-"`
	AIRetryBaseDelayMS  int           `toml:"ai_retry_base_delay_ms"`
	AIRateLimitPerSec   float64       `toml:"ai_rate_limit_per_second"`
	AIRateLimitBurst    int           `toml:"ai_rate_limit_burst"`

	AutoFixMaxIterations int `toml:"autofix_max_iterations"`

	ReviewExamplesPerPrompt int `toml:"review_examples_per_prompt"`
	ReviewCorrectionsCap    int `toml:"review_corrections_cap"`

	ReferenceBundleDir string `toml:"reference_bundle_dir"`
	WhitelistPath      string `toml:"whitelist_path"`
}

// Defaults returns a Config populated with built-in defaults only.
func Defaults() *Config {
	return &Config{
		StateDir:                ".astraea",
		OutputDir:               "output",
		USUBJIDDelimiter:        DefaultUSUBJIDDelimiter,
		OpenAIModel:             DefaultOpenAIModel,
		AIRequestTimeout:        DefaultAIRequestTimeout,
		AIMaxRetries:            DefaultAIMaxRetries,
		AIRetryBaseDelay:        DefaultAIRetryBaseDelay,
		AIRateLimitPerSec:       DefaultAIRateLimitPerSec,
		AIRateLimitBurst:        DefaultAIRateLimitBurst,
		AutoFixMaxIterations:    DefaultAutoFixMaxIterations,
		ReviewExamplesPerPrompt: DefaultReviewExamplesPerPrompt,
		ReviewCorrectionsCap:    DefaultReviewCorrectionsCap,
	}
}

// Load resolves configuration for studyDir: defaults, then studyDir/.env,
// then studyDir/astraea.toml, then environment variables.
func Load(studyDir string) (*Config, error) {
	cfg := Defaults()
	cfg.DataDir = studyDir

	envPath := filepath.Join(studyDir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", envPath, err)
		}
	}

	tomlPath := filepath.Join(studyDir, "astraea.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		if _, err := toml.DecodeFile(tomlPath, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", tomlPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.AIRequestTimeoutSec > 0 {
		cfg.AIRequestTimeout = time.Duration(cfg.AIRequestTimeoutSec) * time.Second
	}
	if cfg.AIRetryBaseDelayMS > 0 {
		cfg.AIRetryBaseDelay = time.Duration(cfg.AIRetryBaseDelayMS) * time.Millisecond
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
	if cfg.StateDir == "" {
		cfg.StateDir = ".astraea"
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := os.Getenv("ASTRAEA_OPENAI_MODEL"); v != "" {
		cfg.OpenAIModel = v
	}
	if v := os.Getenv("ASTRAEA_STUDY_ID"); v != "" {
		cfg.StudyID = v
	}
	if v := os.Getenv("ASTRAEA_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
}

// ValidateForLLM fails fast when a command that needs the LLM is invoked
// without a credential configured, per spec.md §6's "fail fast with a clear
// message when absent."
func (c *Config) ValidateForLLM() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("config: OPENAI_API_KEY is not set; export it or add it to %s/.env", c.DataDir)
	}
	return nil
}

// Validate checks structural invariants independent of LLM usage.
func (c *Config) Validate() error {
	if c.StudyID == "" {
		return fmt.Errorf("config: study_id is required (set in astraea.toml or ASTRAEA_STUDY_ID)")
	}
	if c.AutoFixMaxIterations <= 0 {
		return fmt.Errorf("config: autofix_max_iterations must be positive, got %d", c.AutoFixMaxIterations)
	}
	slog.Debug("config loaded", "study_id", c.StudyID, "output_dir", c.OutputDir)
	return nil
}

// SessionsDBPath is the path to the review-session embedded database.
func (c *Config) SessionsDBPath() string {
	return filepath.Join(c.StateDir, "sessions.db")
}

// LearningDBPath is the path to the learning-retriever embedded database.
func (c *Config) LearningDBPath() string {
	return filepath.Join(c.StateDir, "learning", "examples.db")
}
