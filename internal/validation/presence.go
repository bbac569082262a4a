package validation

import (
	"fmt"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// astrP001RequiredVariablePresent checks every Required variable has a
// column in the written table.
func astrP001RequiredVariablePresent(ctx DomainContext) []model.RuleResult {
	if ctx.DomainSpec == nil {
		return nil
	}
	var results []model.RuleResult
	for _, name := range ctx.DomainSpec.RequiredVariables() {
		if !ctx.Table.HasColumn(name) {
			results = append(results, newResult("ASTR-P001", model.CategoryPresence, model.SeverityError,
				ctx.Domain, name, fmt.Sprintf("required variable %s is missing from the dataset", name), 1))
		}
	}
	return results
}

// astrP002ExpectedVariablePresent checks every Expected variable, WARNING
// (not ERROR) on absence.
func astrP002ExpectedVariablePresent(ctx DomainContext) []model.RuleResult {
	if ctx.DomainSpec == nil {
		return nil
	}
	var results []model.RuleResult
	for _, vs := range ctx.DomainSpec.Variables {
		if vs.Core != model.CoreExp {
			continue
		}
		if !ctx.Table.HasColumn(vs.Name) {
			results = append(results, newResult("ASTR-P002", model.CategoryPresence, model.SeverityWarning,
				ctx.Domain, vs.Name, fmt.Sprintf("expected variable %s is missing from the dataset", vs.Name), 1))
		}
	}
	return results
}

// astrP003NonzeroRows warns when a domain's dataset has zero rows.
func astrP003NonzeroRows(ctx DomainContext) []model.RuleResult {
	if ctx.Table.RowCount > 0 {
		return nil
	}
	return []model.RuleResult{newResult("ASTR-P003", model.CategoryPresence, model.SeverityWarning,
		ctx.Domain, "", fmt.Sprintf("domain %s has zero rows", ctx.Domain), 0)}
}

// astrP004USUBJIDNoNulls requires USUBJID to be non-empty on every row.
func astrP004USUBJIDNoNulls(ctx DomainContext) []model.RuleResult {
	if !ctx.Table.HasColumn("USUBJID") {
		return nil
	}
	empty := 0
	for _, v := range ctx.Table.Column("USUBJID") {
		if v == "" {
			empty++
		}
	}
	if empty == 0 {
		return nil
	}
	return []model.RuleResult{newResult("ASTR-P004", model.CategoryPresence, model.SeverityError,
		ctx.Domain, "USUBJID", fmt.Sprintf("%d row(s) have an empty USUBJID", empty), empty)}
}
