package autofix

import (
	"fmt"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
	"github.com/SanmaySarada/astraea-sdtm/internal/validation"
)

// Fixer runs the auto-fix loop for one domain at a time, against a
// reference store for CT lookups.
type Fixer struct {
	Ref validation.ReferenceLookup
}

// NewFixer returns a Fixer backed by ref.
func NewFixer(ref validation.ReferenceLookup) *Fixer {
	return &Fixer{Ref: ref}
}

// Result is everything Run produced for one domain.
type Result struct {
	Table       *model.Table
	Audit       []model.AuditEntry
	Remaining   []model.RuleResult // findings still present after the loop
	Iterations  int
	NeedsHuman  []model.RuleResult
	Informational []model.RuleResult
}

// Run executes the bounded validate -> classify -> apply -> revalidate
// loop of spec.md §4.9 for one domain. mappingSpec may be nil; when nil,
// ASTR-L002 (label length) findings are left for a human since there is no
// sponsor-authored label to rewrite. table is mutated in place across
// iterations; the returned Table is the same pointer for convenience.
func (f *Fixer) Run(domain string, table *model.Table, domainSpec *model.DomainSpec, mappingSpec *model.DomainMappingSpec, maxIterations int) (Result, error) {
	if maxIterations <= 0 {
		maxIterations = 1
	}

	var audit []model.AuditEntry
	var findings []model.RuleResult

	iteration := 0
	for ; iteration < maxIterations; iteration++ {
		findings = validation.ValidateDomain(validation.DomainContext{
			Domain:     domain,
			Table:      table,
			DomainSpec: domainSpec,
			Ref:        f.Ref,
		})

		fixable, _, _ := Partition(findings)
		if len(fixable) == 0 {
			break
		}

		entries, progressed, err := f.apply(domain, table, domainSpec, mappingSpec, fixable)
		if err != nil {
			return Result{}, fmt.Errorf("autofix: domain %s: %w", domain, err)
		}
		audit = append(audit, entries...)
		if !progressed {
			// Every fixable finding this round was actually a no-op (e.g.
			// a name-collision skip or a label already within limits) —
			// stop instead of spinning for the remaining iterations.
			break
		}
	}

	if iteration == maxIterations {
		// The last iteration applied repairs without re-checking them, so
		// revalidate once more to report what is still present.
		findings = validation.ValidateDomain(validation.DomainContext{
			Domain:     domain,
			Table:      table,
			DomainSpec: domainSpec,
			Ref:        f.Ref,
		})
	}

	finalFixable, needsHuman, informational := Partition(findings)
	return Result{
		Table:         table,
		Audit:         audit,
		Remaining:     append(append([]model.RuleResult{}, finalFixable...), needsHuman...),
		Iterations:    iteration,
		NeedsHuman:    needsHuman,
		Informational: informational,
	}, nil
}

// apply repairs every fixable finding once, returning the audit entries
// recorded and whether any repair actually changed state.
func (f *Fixer) apply(domain string, table *model.Table, domainSpec *model.DomainSpec, mappingSpec *model.DomainMappingSpec, fixable []model.RuleResult) ([]model.AuditEntry, bool, error) {
	var entries []model.AuditEntry
	for _, r := range fixable {
		var got []model.AuditEntry
		switch r.RuleID {
		case "ASTR-T002":
			got = fixDomainColumn(domain, table)
		case "ASTR-T001":
			got = fixCTCase(domain, table, domainSpec, f.Ref, r.Variable)
		case "ASTR-L001":
			got = fixVariableNameLength(domain, table, r.Variable)
		case "ASTR-L002":
			got = fixLabelLength(domain, mappingSpec, r.Variable)
		}
		entries = append(entries, got...)
	}
	return entries, len(entries) > 0, nil
}
