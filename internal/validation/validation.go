// Package validation is the Validation Engine (spec.md C8): a fixed table
// of pure rule functions, each `(domain, Table, DomainSpec, reference
// store) -> []RuleResult`, run per-domain and then cross-domain, producing
// a severity-classified, whitelist-aware ValidationReport.
//
// Grounded on the teacher's internal/converter/validator.go — a list of
// independent checks, each appending a Warning-shaped finding with a stable
// rule ID, severity, category, message, and suggestion — generalized here
// from one flat `Validate(doc, rules)` entry point into category-grouped
// rule tables keyed by the stable ASTR-*/FDAB*/FDA-TRC-* IDs of spec.md
// §4.8, and from a single severity rank to the fixed
// ERROR/WARNING/NOTICE classification each rule carries.
package validation

import (
	"fmt"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// ReferenceLookup is the subset of refstore.Store every rule needs.
type ReferenceLookup interface {
	GetDomainSpec(domain string) (*model.DomainSpec, error)
	LookupCodelist(code string) (*model.Codelist, error)
	IsExtensible(code string) bool
	ValidateTerm(code, value string) bool
	GetCodelistForVariable(varName string) (*model.Codelist, bool)
}

// DomainContext is everything a per-domain rule function needs.
type DomainContext struct {
	Domain        string
	Table         *model.Table
	DomainSpec    *model.DomainSpec
	Ref           ReferenceLookup
	Filename      string // actual file this domain was written to, for ASTR-F003
	FileSizeBytes int64  // 0 if unknown; ASTR-L004 is skipped when 0
}

type domainRuleFunc func(ctx DomainContext) []model.RuleResult

// domainRules is the fixed per-domain rule table, run in this order against
// every domain independently.
var domainRules = []domainRuleFunc{
	astrT001CTValueInCodelist,
	astrT002DomainColumnEqualsCode,
	astrP001RequiredVariablePresent,
	astrP002ExpectedVariablePresent,
	astrP003NonzeroRows,
	astrP004USUBJIDNoNulls,
	astrL001NameLength,
	astrL002LabelLength,
	astrL003CharByteLength,
	astrL004DatasetSize,
	astrF001DTCFormat,
	astrF002ASCIIOnly,
	astrF003Filename,
	fdab057EthnicCodelist,
	fdab055RaceCodelist,
	fdab039NormalRangeNumeric,
	fdab009TestCDTestOneToOne,
	fdab030UnitConsistentPerTestCD,
}

// ValidateDomain runs every per-domain rule against ctx. A rule that panics
// is converted to a WARNING RuleResult (spec.md §4.8: "rule exceptions are
// converted to WARNING RuleResults, never crash the engine") rather than
// propagating.
func ValidateDomain(ctx DomainContext) []model.RuleResult {
	var results []model.RuleResult
	for _, rule := range domainRules {
		results = append(results, runRuleSafely(ctx.Domain, rule, ctx)...)
	}
	return results
}

func runRuleSafely(domain string, rule domainRuleFunc, ctx DomainContext) (results []model.RuleResult) {
	defer func() {
		if r := recover(); r != nil {
			results = []model.RuleResult{{
				RuleID:   "ASTR-RULE-EXCEPTION",
				Category: model.CategoryConsistency,
				Severity: model.SeverityWarning,
				Domain:   domain,
				Message:  fmt.Sprintf("a validation rule raised an exception and was skipped: %v", r),
			}}
		}
	}()
	return rule(ctx)
}

// CrossDomainContext is everything cross-domain and FDA TRC rules need.
// Tables/DomainSpecs are keyed by domain code, built from every domain the
// engine has executed (not just the ones changed in this run), per spec.md
// §4.8's "cross-domain rules... receive the whole {domain: DataFrame} map."
type CrossDomainContext struct {
	Tables           map[string]*model.Table
	DomainSpecs      map[string]*model.DomainSpec
	Filenames        map[string]string // domain -> actual written filename
	DefineXMLPresent bool
	TSHasSSTDTCParam bool // TS domain carries a row with TSPARMCD=SSTDTC
}

type crossDomainRuleFunc func(ctx CrossDomainContext) []model.RuleResult

var crossDomainRules = []crossDomainRuleFunc{
	astrC001NonDMUSUBJIDInDM,
	astrC002SingleSTUDYID,
	astrC003RFSTDTCEqualsMinEXSTDTC,
	astrC004DomainColumnMatchesKey,
	astrC005StudyDaySignMatchesRFSTDTC,
	fdaTRC1734TSHasSSTDTC,
	fdaTRC1735DefineXMLExists,
	fdaTRC1736DMPresent,
	fdaTRCSTUDYIDConsistent,
	fdaTRCFilenameLowercase,
}

// ValidateCrossDomain runs every cross-domain and FDA TRC rule. Invoked by
// the caller after every domain's ValidateDomain has completed, per
// spec.md §4.8.
func ValidateCrossDomain(ctx CrossDomainContext) []model.RuleResult {
	var results []model.RuleResult
	for _, rule := range crossDomainRules {
		results = append(results, runCrossDomainRuleSafely(rule, ctx)...)
	}
	return results
}

func runCrossDomainRuleSafely(rule crossDomainRuleFunc, ctx CrossDomainContext) (results []model.RuleResult) {
	defer func() {
		if r := recover(); r != nil {
			results = []model.RuleResult{{
				RuleID:   "ASTR-RULE-EXCEPTION",
				Category: model.CategoryConsistency,
				Severity: model.SeverityWarning,
				Message:  fmt.Sprintf("a cross-domain validation rule raised an exception and was skipped: %v", r),
			}}
		}
	}()
	return rule(ctx)
}

func newResult(ruleID string, category model.RuleCategory, severity model.Severity, domain, variable, message string, affected int) model.RuleResult {
	return model.RuleResult{
		RuleID:        ruleID,
		Category:      category,
		Severity:      severity,
		Domain:        domain,
		Variable:      variable,
		Message:       message,
		AffectedCount: affected,
	}
}
