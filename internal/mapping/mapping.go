package mapping

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/SanmaySarada/astraea-sdtm/internal/llm"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// keywordCallRegex parses a derivation_rule of the form KEYWORD(arg1, arg2)
// per spec.md §4.6; a bare keyword with no parentheses is also accepted and
// treated as having no explicit arguments.
var keywordCallRegex = regexp.MustCompile(`^(\w+)\s*\((.*)\)$`)

// Agent is the subset of llm.Client the mapping agent depends on.
type Agent interface {
	ProposeMapping(ctx context.Context, systemPrompt, userContent string) (*llm.MappingProposal, *llm.UsageInfo, error)
}

// knownKeywords is llm.DerivationKeywords as a lookup set.
var knownKeywords = func() map[string]bool {
	m := make(map[string]bool, len(llm.DerivationKeywords))
	for _, k := range llm.DerivationKeywords {
		m[k] = true
	}
	return m
}()

// ParseDerivationRule splits "KEYWORD(a, b)" into ("KEYWORD", ["a","b"]).
// A bare keyword with no parentheses returns it with a nil argument list.
func ParseDerivationRule(rule string) (keyword string, args []string) {
	rule = strings.TrimSpace(rule)
	m := keywordCallRegex.FindStringSubmatch(rule)
	if m == nil {
		return rule, nil
	}
	keyword = m[1]
	if strings.TrimSpace(m[2]) == "" {
		return keyword, []string{}
	}
	for _, a := range strings.Split(m[2], ",") {
		args = append(args, strings.TrimSpace(a))
	}
	return keyword, args
}

// Propose calls the mapping agent for one domain, validates every proposed
// mapping's derivation_rule against the closed keyword vocabulary, and
// converts accepted proposals into a bare DomainMappingSpec. A proposal
// naming a variable outside the DomainSpec is still accepted here — it may
// be a legitimate SUPPQUAL candidate, which internal/enrichment (C5)
// decides by looking it up against the reference store. Reference-metadata
// fields (label, type, length, order, core, codelist_code) and
// missing_required_variables/suppqual_candidates are deliberately left
// unset; enrichment fills them in from DomainSpec and the CT store.
// Mappings using an unrecognized derivation keyword are dropped and instead
// recorded as an ERROR-severity PredictPreventIssue (spec.md §4.4).
func Propose(ctx context.Context, agent Agent, domainSpec *model.DomainSpec, profiles []model.DatasetProfile, examples []Example) (*model.DomainMappingSpec, *llm.UsageInfo, error) {
	systemPrompt := systemPrompt()
	userContent := BuildPrompt(domainSpec.Domain, domainSpec, profiles, examples)

	proposal, usage, err := agent.ProposeMapping(ctx, systemPrompt, userContent)
	if err != nil {
		return nil, nil, fmt.Errorf("mapping: propose call for domain %s: %w", domainSpec.Domain, err)
	}

	spec := model.NewDomainMappingSpec(domainSpec.Domain, domainSpec.Class, domainSpec.Structure)

	for _, pm := range proposal.Mappings {
		if issue, ok := validateDerivationRule(pm); !ok {
			spec.PredictPreventIssues = append(spec.PredictPreventIssues, issue)
			continue
		}

		vm := &model.VariableMapping{
			SDTMVariable:        pm.SDTMVariable,
			Pattern:             model.Pattern(strings.ToUpper(pm.Pattern)),
			SourceDataset:       pm.SourceDataset,
			SourceVariable:      pm.SourceVariable,
			DerivationRule:      pm.DerivationRule,
			ConfidenceScore:     pm.ConfidenceScore,
			ConfidenceLevel:     model.LevelForScore(pm.ConfidenceScore),
			ConfidenceRationale: pm.ConfidenceRationale,
		}
		spec.Add(vm)
	}

	return spec, usage, nil
}

// validateDerivationRule enforces the closed vocabulary: DERIVATION,
// REFORMAT, and COMBINE mappings must name one of llm.DerivationKeywords;
// ASSIGN mappings carry a literal constant and are exempt.
func validateDerivationRule(pm llm.ProposedVariableMapping) (model.PredictPreventIssue, bool) {
	pattern := model.Pattern(strings.ToUpper(pm.Pattern))
	if pattern != model.PatternDerivation && pattern != model.PatternReformat && pattern != model.PatternCombine {
		return model.PredictPreventIssue{}, true
	}
	if pm.DerivationRule == "" {
		return model.PredictPreventIssue{
			RuleID:   "ASTR-MAP002",
			Severity: "ERROR",
			Variable: pm.SDTMVariable,
			Message:  fmt.Sprintf("pattern %s requires a derivation_rule but none was proposed", pm.Pattern),
		}, false
	}

	keyword, _ := ParseDerivationRule(pm.DerivationRule)
	if !knownKeywords[keyword] {
		return model.PredictPreventIssue{
			RuleID:   "ASTR-MAP003",
			Severity: "ERROR",
			Variable: pm.SDTMVariable,
			Message:  fmt.Sprintf("derivation_rule %q uses unrecognized keyword %q, outside the closed vocabulary", pm.DerivationRule, keyword),
		}, false
	}
	return model.PredictPreventIssue{}, true
}
