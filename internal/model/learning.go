package model

import (
	"fmt"
	"time"
)

// LearningExample is one stored mapping decision (approved or corrected),
// used by the Learning Retriever for few-shot retrieval.
type LearningExample struct {
	ExampleID        string    `json:"example_id"`
	StudyID          string    `json:"study_id"`
	Domain           string    `json:"domain"`
	SDTMVariable     string    `json:"sdtm_variable"`
	SourceVariable   string    `json:"source_variable"`
	Pattern          Pattern   `json:"pattern"`
	DerivationRule   string    `json:"derivation_rule,omitempty"`
	WasCorrected     bool      `json:"was_corrected"`
	CorrectionReason string    `json:"correction_reason,omitempty"`
	EmbeddedText     string    `json:"embedded_text"`
	Timestamp        time.Time `json:"timestamp"`
}

// ExampleID computes the deterministic example_id, so repeated ingestion of
// the same (study, domain, variable) decision is idempotent.
func ExampleID(studyID, domain, sdtmVariable string) string {
	return fmt.Sprintf("%s_%s_%s", studyID, domain, sdtmVariable)
}

// AuditEntry is one action taken by the Auto-Fixer, recorded to
// autofix_audit.json.
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	RuleID    string    `json:"rule_id"`
	Domain    string    `json:"domain"`
	Variable  string    `json:"variable,omitempty"`
	Action    string    `json:"action"`
	Before    string    `json:"before,omitempty"`
	After     string    `json:"after,omitempty"`
}

// CrossStudyTemplate is one domain's canonical mapping template, accumulated
// across every study that has contributed an approved DomainMappingSpec for
// that domain, per the Learning Retriever's template library (spec.md
// §4.12).
type CrossStudyTemplate struct {
	Domain         string   `json:"domain"`
	SourceStudyIDs []string `json:"source_study_ids"`
	Accuracy       float64  `json:"accuracy"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// WeightedAccuracyUpdate folds a new observed accuracy into a template's
// running average per spec.md §4.12: weight = studyCount - 1, where
// studyCount is len(source_study_ids) including the contributing study (so
// a template with one contributing study has weight 0 — a lone observation
// is simply the new value).
func WeightedAccuracyUpdate(existing float64, studyCount int, observed float64) float64 {
	weight := float64(studyCount - 1)
	if weight < 0 {
		weight = 0
	}
	return (weight*existing + observed) / (weight + 1)
}

// PackageFile describes one file in a submission package manifest.
type PackageFile struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// PackageManifest is the submission-package-level inventory (§4.10).
type PackageManifest struct {
	Files            []PackageFile `json:"files"`
	TotalSize        int64         `json:"total_size"`
	DefineXMLPresent bool          `json:"define_xml_present"`
	CSDRGPresent     bool          `json:"csdrg_present"`
	GeneratedAt      time.Time     `json:"generated_at"`
}
