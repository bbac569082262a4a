// Package enrichment implements C5: it attaches reference metadata to a
// proposed DomainMappingSpec, adjusts each mapping's confidence score per
// spec.md §4.4's observed-value checks, and runs the spec-level
// predict-and-prevent rule table (§4.5) whose inputs are only the spec
// itself, never raw data.
//
// Grounded on the teacher's internal/converter/mapping_quality.go and
// preview_mapping_quality.go (weighted-score quality gates applied to a
// proposed mapping before it is shown to a reviewer), generalized from a
// single composite quality score to per-variable reference-metadata
// lookup and a stable, numbered rule table.
package enrichment

import (
	"fmt"
	"sort"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// ReferenceLookup is the subset of refstore.Store enrichment depends on.
type ReferenceLookup interface {
	GetDomainSpec(domain string) (*model.DomainSpec, error)
	GetVariableSpec(domain, varName string) (model.VariableSpec, error)
	LookupCodelist(code string) (*model.Codelist, error)
	IsExtensible(code string) bool
	ValidateTerm(code, value string) bool
}

// lookupRecodeBoost, nonExtensibleFailureCap, and sourceMissingCap implement
// spec.md §4.4's post-proposal confidence adjustments.
const (
	lookupRecodeBoost       = 0.05
	nonExtensibleFailureCap = 0.40
	sourceMissingCap        = 0.30
)

// Enrich attaches reference metadata to every mapping in spec, adjusts
// confidence scores against observed profile values, computes
// missing_required_variables and suppqual_candidates, and runs the
// predict-and-prevent rule table. profiles is keyed by source dataset name
// (as populated by internal/profiler), used only to check whether a
// mapping's source_variable was actually observed in the data and, for
// LOOKUP_RECODE mappings, whether its observed values all validate against
// the target codelist.
func Enrich(ref ReferenceLookup, spec *model.DomainMappingSpec, profiles map[string]*model.DatasetProfile) error {
	domainSpec, err := ref.GetDomainSpec(spec.Domain)
	if err != nil {
		return fmt.Errorf("enrichment: %w", err)
	}

	for _, vm := range spec.VariableMappings {
		enrichOne(ref, domainSpec, vm, profiles)
	}

	spec.MissingRequiredVariables = missingRequired(domainSpec, spec)
	spec.SuppqualCandidates = suppqualCandidates(domainSpec, spec)
	spec.RequiredMapped = requiredMappedCount(domainSpec, spec)

	spec.PredictPreventIssues = append(spec.PredictPreventIssues, PredictAndPrevent(ref, domainSpec, spec)...)

	return nil
}

func enrichOne(ref ReferenceLookup, domainSpec *model.DomainSpec, vm *model.VariableMapping, profiles map[string]*model.DatasetProfile) {
	varSpec, ok := domainSpec.VariableByName(vm.SDTMVariable)
	if !ok {
		// Not an SDTM-IG variable of this domain: a SUPPQUAL candidate,
		// left without reference metadata.
		return
	}

	vm.Order = varSpec.Order
	vm.Length = varSpec.Length
	vm.Label = varSpec.Label
	vm.Type = varSpec.Type
	vm.Core = varSpec.Core
	vm.CodelistCode = varSpec.CodelistCode

	if vm.Origin == "" {
		vm.Origin = defaultOrigin(vm.Pattern)
	}

	adjustConfidence(ref, vm, profiles)
}

// defaultOrigin assigns a define.xml Origin consistent with the mapping's
// pattern, absent an explicit reviewer override.
func defaultOrigin(pattern model.Pattern) model.Origin {
	switch pattern {
	case model.PatternAssign:
		return model.OriginAssigned
	case model.PatternDerivation, model.PatternCombine, model.PatternSplit, model.PatternReformat, model.PatternTranspose:
		return model.OriginDerived
	default:
		return model.OriginCRF
	}
}

// adjustConfidence implements spec.md §4.4's three post-proposal
// adjustments. Only one applies per mapping; the source-missing cap takes
// priority since it means the other checks have no data to evaluate.
func adjustConfidence(ref ReferenceLookup, vm *model.VariableMapping, profiles map[string]*model.DatasetProfile) {
	sourceValues, sourcePresent := observedSourceValues(vm, profiles)

	if vm.SourceDataset != "" && vm.SourceVariable != "" && !sourcePresent {
		capScore(vm, sourceMissingCap)
		return
	}

	if vm.Pattern != model.PatternLookupRecode || vm.CodelistCode == "" {
		return
	}

	if !ref.IsExtensible(vm.CodelistCode) {
		for _, v := range sourceValues {
			if !ref.ValidateTerm(vm.CodelistCode, v) {
				capScore(vm, nonExtensibleFailureCap)
				return
			}
		}
	}

	allValid := true
	for _, v := range sourceValues {
		if !ref.ValidateTerm(vm.CodelistCode, v) {
			allValid = false
			break
		}
	}
	if allValid && len(sourceValues) > 0 {
		vm.ConfidenceScore = clamp01(vm.ConfidenceScore + lookupRecodeBoost)
		vm.ConfidenceLevel = model.LevelForScore(vm.ConfidenceScore)
	}
}

func capScore(vm *model.VariableMapping, limit float64) {
	if vm.ConfidenceScore > limit {
		vm.ConfidenceScore = limit
		vm.ConfidenceLevel = model.LevelForScore(vm.ConfidenceScore)
	}
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

// observedSourceValues looks up vm's source variable in its source
// dataset's profile and returns the observed distinct values (top values
// when bounded, else the sample), along with whether the variable was
// found in the profile at all.
func observedSourceValues(vm *model.VariableMapping, profiles map[string]*model.DatasetProfile) ([]string, bool) {
	if vm.SourceDataset == "" || vm.SourceVariable == "" {
		return nil, true
	}
	profile, ok := profiles[vm.SourceDataset]
	if !ok {
		return nil, false
	}
	vp, ok := profile.VariableProfileByName(vm.SourceVariable)
	if !ok {
		return nil, false
	}
	if len(vp.TopValues) > 0 {
		values := make([]string, len(vp.TopValues))
		for i, tv := range vp.TopValues {
			values[i] = tv.Value
		}
		return values, true
	}
	return vp.SampleValues, true
}

func missingRequired(domainSpec *model.DomainSpec, spec *model.DomainMappingSpec) []string {
	var missing []string
	for _, req := range domainSpec.RequiredVariables() {
		if _, ok := spec.VariableMappings[req]; !ok {
			missing = append(missing, req)
		}
	}
	return missing
}

func requiredMappedCount(domainSpec *model.DomainSpec, spec *model.DomainMappingSpec) int {
	count := 0
	for _, req := range domainSpec.RequiredVariables() {
		if _, ok := spec.VariableMappings[req]; ok {
			count++
		}
	}
	return count
}

// suppqualCandidates returns every mapped sdtm_variable that is not a
// declared variable of domainSpec: per spec.md §4.5, any proposed
// non-SDTM-IG variable is a SUPPQUAL candidate.
func suppqualCandidates(domainSpec *model.DomainSpec, spec *model.DomainMappingSpec) []string {
	var candidates []string
	for name := range spec.VariableMappings {
		if _, ok := domainSpec.VariableByName(name); !ok {
			candidates = append(candidates, name)
		}
	}
	sort.Strings(candidates)
	return candidates
}
