// Package classifier implements the Classifier (spec.md C3): a two-stage
// domain classification for one raw dataset — heuristic filename and
// variable-overlap scoring, fused with an LLM classification call, then
// reconciled under an exact confidence-adjustment policy.
//
// Grounded on the teacher's internal/ai/column_mapper.go (a thin service
// wrapping an LLM call with a non-LLM fallback path) generalized from
// column-to-canonical-field mapping to dataset-to-domain classification.
package classifier

import (
	"regexp"
	"strings"

	"bitbucket.org/creachadair/stringset"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// commonVariables are excluded from both sides of the variable-overlap
// score, per spec.md §4.3.
var commonVariables = stringset.New("STUDYID", "DOMAIN", "USUBJID")

// findingsDomains is the hardcoded set of domains whose class is Findings
// for the purpose of triggering mapping_pattern=transpose (spec.md §4.3),
// independent of whatever DomainSpec.Class the reference store reports.
var findingsDomains = stringset.New("LB", "VS", "EG", "PE", "QS", "SC", "FA")

// IsFindingsDomain reports whether domain is in the hardcoded Findings set
// or whether spec classifies it as Findings.
func IsFindingsDomain(domain string, spec *model.DomainSpec) bool {
	if findingsDomains.Contains(domain) {
		return true
	}
	return spec != nil && spec.Class == model.ClassFindings
}

// filenameBoundaryRegex matches a domain token bounded on the right by
// start/end-of-string, underscore, or a digit — e.g. "ds2" bounds "DS",
// but digits are never valid *left* boundaries (so "data" never matches
// the token "DA" that precedes it).
func filenameBoundaryRegex(token string) *regexp.Regexp {
	escaped := regexp.QuoteMeta(strings.ToLower(token))
	return regexp.MustCompile(`(^|_)` + escaped + `($|_|[0-9])`)
}

// FilenameScore scores how strongly filename (without extension) suggests
// domain: an exact match is 1.0; otherwise a boundary-respecting substring
// match is 0.6; no match is 0.
func FilenameScore(domain, filename string) float64 {
	stem := strings.ToLower(strings.TrimSuffix(filename, extOf(filename)))
	domainLower := strings.ToLower(domain)

	if stem == domainLower {
		return 1.0
	}
	if filenameBoundaryRegex(domainLower).MatchString(stem) {
		return 0.6
	}
	return 0
}

func extOf(filename string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		return filename[i:]
	}
	return ""
}

// VariableOverlapScore is |raw ∩ SDTM-IG non-common variables| / |SDTM-IG
// non-common variables|, excluding STUDYID/DOMAIN/USUBJID from both sides
// and EDC columns from the raw side.
func VariableOverlapScore(rawVariables []string, edcColumns stringset.Set, spec *model.DomainSpec) float64 {
	sdtmVars := stringset.New()
	for _, v := range spec.VariableNames() {
		if !commonVariables.Contains(v) {
			sdtmVars.Add(v)
		}
	}
	if sdtmVars.Len() == 0 {
		return 0
	}

	raw := stringset.New()
	for _, v := range rawVariables {
		upper := strings.ToUpper(v)
		if commonVariables.Contains(upper) || edcColumns.Contains(v) {
			continue
		}
		raw.Add(upper)
	}

	overlap := raw.Intersect(sdtmVars)
	return float64(overlap.Len()) / float64(sdtmVars.Len())
}

// MergeGroupCandidates groups dataset filenames sharing a prefix before the
// first underscore (e.g. "lb_biochem", "lb_hem", "lb_urin" -> "lb"), per
// spec.md §4.3's merge-group detection.
func MergeGroupCandidates(filenames []string) map[string][]string {
	groups := make(map[string][]string)
	for _, f := range filenames {
		stem := strings.ToLower(strings.TrimSuffix(f, extOf(f)))
		prefix := stem
		if i := strings.Index(stem, "_"); i > 0 {
			prefix = stem[:i]
		}
		groups[prefix] = append(groups[prefix], f)
	}
	for prefix, members := range groups {
		if len(members) < 2 {
			delete(groups, prefix)
		}
	}
	return groups
}
