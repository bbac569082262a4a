// Package autofix is the Auto-Fixer (spec.md C9): it classifies each
// validation finding as auto-fixable, needing a human, or purely
// informational, then runs a bounded validate -> apply -> revalidate loop
// that repairs what it safely can and leaves the rest for a human to
// resolve through the Review Gate.
//
// Grounded on the teacher's internal/feedback/learner.go (a
// classify-top-corrections -> apply -> report loop) and
// internal/engine/compliance.go's in-place repair-then-recheck shape,
// generalized from feedback-driven example registration to
// validation-finding repair with a bounded iteration count and an audit
// trail.
package autofix

import "github.com/SanmaySarada/astraea-sdtm/internal/model"

// FixClass is a validation finding's auto-fix disposition.
type FixClass string

const (
	AutoFixable   FixClass = "AUTO_FIXABLE"
	NeedsHuman    FixClass = "NEEDS_HUMAN"
	Informational FixClass = "INFORMATIONAL"
)

// autoFixableRules are the rule IDs this package knows how to repair
// without human input, per spec.md §4.9: a CT value differing only by
// case, a DOMAIN column value that doesn't match the domain code, an
// over-length variable name, and an over-length label.
var autoFixableRules = map[string]bool{
	"ASTR-T001": true,
	"ASTR-T002": true,
	"ASTR-L001": true,
	"ASTR-L002": true,
}

// neverAutoFixableRules are findings spec.md §4.9 explicitly forbids
// fixing without a human: USUBJID cannot be invented (ASTR-P004), and a
// cross-domain USUBJID orphan (ASTR-C001) means the subject does not exist
// anywhere else in the study. A non-extensible CT violation (ERROR-severity
// ASTR-T001) is also never auto-fixed; Classify handles that by severity.
var neverAutoFixableRules = map[string]bool{
	"ASTR-P004": true,
	"ASTR-C001": true,
}

// Classify buckets one validation finding per spec.md §4.9. NOTICE-severity
// findings are always informational; a non-extensible (ERROR-severity)
// ASTR-T001 has no safe substitute value and falls back to NeedsHuman even
// though ASTR-T001 is fixable in its WARNING (extensible-codelist) form.
func Classify(r model.RuleResult) FixClass {
	if neverAutoFixableRules[r.RuleID] {
		return NeedsHuman
	}
	if r.Severity == model.SeverityNotice {
		return Informational
	}
	if r.RuleID == "ASTR-T001" && r.Severity == model.SeverityError {
		return NeedsHuman
	}
	if autoFixableRules[r.RuleID] {
		return AutoFixable
	}
	return NeedsHuman
}

// Partition splits findings by FixClass, preserving relative order within
// each bucket.
func Partition(findings []model.RuleResult) (fixable, needsHuman, informational []model.RuleResult) {
	for _, r := range findings {
		switch Classify(r) {
		case AutoFixable:
			fixable = append(fixable, r)
		case Informational:
			informational = append(informational, r)
		default:
			needsHuman = append(needsHuman, r)
		}
	}
	return fixable, needsHuman, informational
}
