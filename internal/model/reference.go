// Package model holds the data types shared across the Astraea-SDTM pipeline:
// reference metadata (domain/variable/codelist specs), study-level profiling
// output, the mapping-spec artifact, review and validation records, and
// learning examples. Types here are plain data — behavior lives in the
// packages that operate on them.
package model

// DomainClass is the SDTM-IG class a domain belongs to.
type DomainClass string

const (
	ClassEvents         DomainClass = "Events"
	ClassFindings       DomainClass = "Findings"
	ClassInterventions  DomainClass = "Interventions"
	ClassSpecialPurpose DomainClass = "Special-Purpose"
	ClassTrialDesign    DomainClass = "Trial-Design"
	ClassRelationship   DomainClass = "Relationship"
)

// VarType is the SDTM transport-format variable type.
type VarType string

const (
	TypeChar VarType = "Char"
	TypeNum  VarType = "Num"
)

// Core is the SDTM-IG requiredness of a variable.
type Core string

const (
	CoreReq  Core = "Req"
	CoreExp  Core = "Exp"
	CorePerm Core = "Perm"
)

// VariableSpec describes one SDTM-IG variable within a domain.
type VariableSpec struct {
	Order        int    `json:"order" yaml:"order"`
	Name         string `json:"name" yaml:"name"`
	Label        string `json:"label" yaml:"label"`
	Type         VarType `json:"type" yaml:"type"`
	Length       int    `json:"length" yaml:"length"`
	Core         Core   `json:"core" yaml:"core"`
	CodelistCode string `json:"codelist_code,omitempty" yaml:"codelist_code,omitempty"`
	CDISCNotes   string `json:"cdisc_notes,omitempty" yaml:"cdisc_notes,omitempty"`
}

// DomainSpec describes one SDTM domain: its variable table and sort key.
type DomainSpec struct {
	Domain       string         `json:"domain" yaml:"domain"`
	Label        string         `json:"label" yaml:"label"`
	Class        DomainClass    `json:"class" yaml:"class"`
	Structure    string         `json:"structure" yaml:"structure"`
	KeyVariables []string       `json:"key_variables" yaml:"key_variables"`
	Variables    []VariableSpec `json:"variables" yaml:"variables"`
}

// VariableByName looks up a variable spec by SDTM variable name.
func (d *DomainSpec) VariableByName(name string) (VariableSpec, bool) {
	for _, v := range d.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return VariableSpec{}, false
}

// RequiredVariables returns the names of every Core=Req variable, in order.
func (d *DomainSpec) RequiredVariables() []string {
	var out []string
	for _, v := range d.Variables {
		if v.Core == CoreReq {
			out = append(out, v.Name)
		}
	}
	return out
}

// VariableNames returns every declared variable name, in DomainSpec order.
func (d *DomainSpec) VariableNames() []string {
	out := make([]string, len(d.Variables))
	for i, v := range d.Variables {
		out[i] = v.Name
	}
	return out
}

// CodelistTerm is one entry of a controlled-terminology codelist.
type CodelistTerm struct {
	NCIPreferredTerm string `json:"nci_preferred_term" yaml:"nci_preferred_term"`
	Definition       string `json:"definition,omitempty" yaml:"definition,omitempty"`
}

// Codelist is one CDISC controlled-terminology codelist.
type Codelist struct {
	Code             string                  `json:"code" yaml:"code"`
	Name             string                  `json:"name" yaml:"name"`
	Extensible       bool                    `json:"extensible" yaml:"extensible"`
	VariableMappings []string                `json:"variable_mappings" yaml:"variable_mappings"`
	Terms            map[string]CodelistTerm `json:"terms" yaml:"terms"`
}

// HasSubmissionValue reports whether value appears verbatim as a submission value.
func (c *Codelist) HasSubmissionValue(value string) bool {
	_, ok := c.Terms[value]
	return ok
}

// PreferredTermFor returns the submission value whose preferred term matches pt,
// used by LOOKUP_RECODE's bidirectional lookup.
func (c *Codelist) PreferredTermFor(pt string) (string, bool) {
	for submissionValue, term := range c.Terms {
		if term.NCIPreferredTerm == pt {
			return submissionValue, true
		}
	}
	return "", false
}

// VersionManifest locks the SDTM-IG release and CT release that a reference
// bundle was generated from. The Reference Store fails fast at startup if a
// bundle's manifest does not match the one it was built against.
type VersionManifest struct {
	IGVersion string `yaml:"ig_version"`
	CTVersion string `yaml:"ct_version"`
	BuiltAt   string `yaml:"built_at,omitempty"`
}
