package model

// MappingPattern is the dataset-to-domain transform shape chosen by the
// Classifier for a DomainPlan.
type MappingPattern string

const (
	PatternDomainDirect    MappingPattern = "direct"
	PatternDomainMerge     MappingPattern = "merge"
	PatternDomainTranspose MappingPattern = "transpose"
	PatternDomainMixed     MappingPattern = "mixed"
)

// Unclassified is the sentinel primary_domain value the Classifier returns
// when confidence falls below the UNCLASSIFIED threshold.
const Unclassified = "UNCLASSIFIED"

// DomainClassification is the Classifier's verdict for one raw dataset.
type DomainClassification struct {
	DatasetName      string             `json:"dataset_name"`
	PrimaryDomain    string             `json:"primary_domain"` // may be Unclassified
	SecondaryDomains []string           `json:"secondary_domains,omitempty"`
	MergeCandidates  []string           `json:"merge_candidates,omitempty"`
	Confidence       float64            `json:"confidence"`
	Reasoning        string             `json:"reasoning"`
	HeuristicScores  map[string]float64 `json:"heuristic_scores"`
}

// DomainPlan is the resolved execution plan for one target domain, built from
// one or more DomainClassifications that named it as primary or a merge
// candidate.
type DomainPlan struct {
	TargetDomain   string         `json:"target_domain"`
	SourceDatasets []string       `json:"source_datasets"`
	MappingPattern MappingPattern `json:"mapping_pattern"`
}
