package llm

// SchemaVersionMappingProposal is bumped whenever ProposedVariableMapping's
// shape changes in a way that would break an already-deployed prompt.
const SchemaVersionMappingProposal = "v1"

// DerivationKeywords is the closed vocabulary the mapping agent's system
// prompt enumerates and that this package validates proposals against
// (spec.md §4.4). A derivation_rule is either a literal constant (ASSIGN)
// or one of these keywords in KEYWORD(arg1, arg2, ...) form.
var DerivationKeywords = []string{
	"GENERATE_USUBJID",
	"CONCAT",
	"ISO8601_DATE",
	"ISO8601_DATETIME",
	"ISO8601_PARTIAL_DATE",
	"PARSE_STRING_DATE",
	"MIN_DATE_PER_SUBJECT",
	"MAX_DATE_PER_SUBJECT",
	"RACE_CHECKBOX",
	"NUMERIC_TO_YN",
}

// ProposedVariableMapping is the mapping agent's per-variable proposal.
// Deliberately free of enrichment data (label, codelist name, order) —
// internal/enrichment fills those in post-proposal from the reference
// store, per spec.md §4.4.
type ProposedVariableMapping struct {
	SDTMVariable       string  `json:"sdtm_variable"`
	Pattern            string  `json:"pattern"`
	SourceDataset      string  `json:"source_dataset,omitempty"`
	SourceVariable     string  `json:"source_variable,omitempty"`
	DerivationRule     string  `json:"derivation_rule,omitempty"`
	ConfidenceScore    float64 `json:"confidence_score"`
	ConfidenceRationale string `json:"confidence_rationale,omitempty"`
}

// MappingProposal is the mapping agent's structured output for one domain.
type MappingProposal struct {
	SchemaVersion string                    `json:"schema_version"`
	Domain        string                    `json:"domain"`
	Mappings      []ProposedVariableMapping `json:"mappings"`
}

// ClassificationProposal is the classifier's stage-2 LLM-fusion output
// (spec.md §4.3): primary_domain is either a known domain code or
// "UNCLASSIFIED".
type ClassificationProposal struct {
	PrimaryDomain    string   `json:"primary_domain"`
	Confidence       float64  `json:"confidence"`
	Reasoning        string   `json:"reasoning"`
	MergeCandidates  []string `json:"merge_candidates,omitempty"`
}

// mappingProposalJSONSchema is the JSON Schema handed to the model for
// structured-output enforcement, mirroring the teacher's
// buildColumnMappingSchema pattern.
func mappingProposalJSONSchema() map[string]interface{} {
	mapping := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"sdtm_variable": map[string]interface{}{"type": "string"},
			"pattern": map[string]interface{}{
				"type": "string",
				"enum": []string{
					"DIRECT", "RENAME", "REFORMAT", "SPLIT", "COMBINE",
					"DERIVATION", "LOOKUP_RECODE", "TRANSPOSE", "ASSIGN",
				},
			},
			"source_dataset":       map[string]interface{}{"type": "string"},
			"source_variable":      map[string]interface{}{"type": "string"},
			"derivation_rule":      map[string]interface{}{"type": "string"},
			"confidence_score":     map[string]interface{}{"type": "number"},
			"confidence_rationale": map[string]interface{}{"type": "string"},
		},
		"required":             []string{"sdtm_variable", "pattern", "confidence_score"},
		"additionalProperties": false,
	}

	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"schema_version": map[string]interface{}{"type": "string"},
			"domain":         map[string]interface{}{"type": "string"},
			"mappings": map[string]interface{}{
				"type":  "array",
				"items": mapping,
			},
		},
		"required":             []string{"domain", "mappings"},
		"additionalProperties": false,
	}
}

func classificationJSONSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"primary_domain": map[string]interface{}{"type": "string"},
			"confidence":     map[string]interface{}{"type": "number"},
			"reasoning":      map[string]interface{}{"type": "string"},
			"merge_candidates": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
		},
		"required":             []string{"primary_domain", "confidence"},
		"additionalProperties": false,
	}
}
