package model

import (
	"sort"

	"bitbucket.org/creachadair/stringset"
)

// Pattern is the transformation shape used to derive one SDTM variable.
type Pattern string

const (
	PatternDirect        Pattern = "DIRECT"
	PatternRename        Pattern = "RENAME"
	PatternReformat      Pattern = "REFORMAT"
	PatternSplit         Pattern = "SPLIT"
	PatternCombine       Pattern = "COMBINE"
	PatternDerivation    Pattern = "DERIVATION"
	PatternLookupRecode  Pattern = "LOOKUP_RECODE"
	PatternTranspose     Pattern = "TRANSPOSE"
	PatternAssign        Pattern = "ASSIGN"
)

// ConfidenceLevel is the categorical bucket derived from a numeric confidence
// score: HIGH >= 0.85, MEDIUM >= 0.60, LOW < 0.60.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// LevelForScore buckets a numeric confidence score per spec.md §4.4.
func LevelForScore(score float64) ConfidenceLevel {
	switch {
	case score >= 0.85:
		return ConfidenceHigh
	case score >= 0.60:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Origin is the CDISC define.xml Origin classification for a variable.
type Origin string

const (
	OriginCRF         Origin = "CRF"
	OriginDerived      Origin = "Derived"
	OriginAssigned     Origin = "Assigned"
	OriginProtocol     Origin = "Protocol"
	OriginEDT          Origin = "eDT"
	OriginPredecessor  Origin = "Predecessor"
)

// VariableMapping is one row of an approved (or proposed) mapping spec: how a
// single SDTM variable is derived from raw data.
type VariableMapping struct {
	SDTMVariable        string          `json:"sdtm_variable"`
	Pattern             Pattern         `json:"pattern"`
	SourceDataset       string          `json:"source_dataset,omitempty"`
	SourceVariable      string          `json:"source_variable,omitempty"`
	DerivationRule      string          `json:"derivation_rule,omitempty"`
	ConfidenceScore     float64         `json:"confidence_score"`
	ConfidenceLevel     ConfidenceLevel `json:"confidence_level"`
	ConfidenceRationale string          `json:"confidence_rationale,omitempty"`
	Order               int             `json:"order"`
	Length              int             `json:"length,omitempty"`
	Label               string          `json:"label"`
	Type                VarType         `json:"type"`
	Core                Core            `json:"core"`
	CodelistCode         string          `json:"codelist_code,omitempty"`
	Origin               Origin          `json:"origin"`
	ComputationalMethod  string          `json:"computational_method,omitempty"`
}

// PredictPreventIssue is one finding raised by the spec-level predict-and-
// prevent pass (§4.5), before any data has been touched.
type PredictPreventIssue struct {
	RuleID    string `json:"rule_id"`
	Severity  string `json:"severity"` // ERROR, WARNING, NOTICE
	Variable  string `json:"variable,omitempty"`
	Message   string `json:"message"`
}

// DomainMappingSpec is the central artifact of the pipeline: a flat,
// indexed-by-sdtm_variable table of approved (or proposed) VariableMappings
// for one domain.
type DomainMappingSpec struct {
	Domain                   string                      `json:"domain"`
	DomainClass              DomainClass                 `json:"domain_class"`
	Structure                string                      `json:"structure"`
	SourceDatasets           stringset.Set               `json:"source_datasets"`
	VariableMappings         map[string]*VariableMapping `json:"variable_mappings"`
	TotalVariables           int                         `json:"total_variables"`
	RequiredMapped           int                         `json:"required_mapped"`
	MissingRequiredVariables []string                    `json:"missing_required_variables"`
	PredictPreventIssues     []PredictPreventIssue       `json:"predict_prevent_issues"`
	SortOrder                []string                    `json:"sort_order"`
	SuppqualCandidates       []string                    `json:"suppqual_candidates"`
}

// NewDomainMappingSpec builds an empty spec for domain.
func NewDomainMappingSpec(domain string, class DomainClass, structure string) *DomainMappingSpec {
	return &DomainMappingSpec{
		Domain:           domain,
		DomainClass:      class,
		Structure:        structure,
		SourceDatasets:   stringset.New(),
		VariableMappings: make(map[string]*VariableMapping),
	}
}

// Add inserts a mapping, enforcing invariant (a): sdtm_variable uniqueness.
// A second Add for the same sdtm_variable overwrites, mirroring how a
// reviewer's MODIFY correction replaces a proposed mapping in place.
func (s *DomainMappingSpec) Add(vm *VariableMapping) {
	s.VariableMappings[vm.SDTMVariable] = vm
	s.SourceDatasets.Add(vm.SourceDataset)
	s.TotalVariables = len(s.VariableMappings)
}

// Ordered returns the spec's mappings sorted by Order, ties broken by
// SDTMVariable for determinism.
func (s *DomainMappingSpec) Ordered() []*VariableMapping {
	out := make([]*VariableMapping, 0, len(s.VariableMappings))
	for _, vm := range s.VariableMappings {
		out = append(out, vm)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].SDTMVariable < out[j].SDTMVariable
	})
	return out
}
