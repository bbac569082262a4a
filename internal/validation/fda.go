package validation

import (
	"fmt"
	"strconv"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// fdab057EthnicCodelist checks ETHNIC against C66790, when present.
func fdab057EthnicCodelist(ctx DomainContext) []model.RuleResult {
	return fdaCodelistCheck(ctx, "FDAB057", "ETHNIC", "C66790")
}

// fdab055RaceCodelist checks RACE against C74457, when present.
func fdab055RaceCodelist(ctx DomainContext) []model.RuleResult {
	return fdaCodelistCheck(ctx, "FDAB055", "RACE", "C74457")
}

func fdaCodelistCheck(ctx DomainContext, ruleID, variable, codelistCode string) []model.RuleResult {
	if ctx.Ref == nil || !ctx.Table.HasColumn(variable) {
		return nil
	}
	invalid := 0
	for _, v := range ctx.Table.Column(variable) {
		if v == "" {
			continue
		}
		if !ctx.Ref.ValidateTerm(codelistCode, v) {
			invalid++
		}
	}
	if invalid == 0 {
		return nil
	}
	return []model.RuleResult{newResult(ruleID, model.CategoryFDABusiness, model.SeverityWarning,
		ctx.Domain, variable, fmt.Sprintf("%d value(s) of %s are not in codelist %s", invalid, variable, codelistCode), invalid)}
}

// fdab039NormalRangeNumeric requires --ORNRLO/--ORNRHI to be numeric
// whenever the corresponding --STRESN is populated (a non-numeric normal
// range on a domain with a numeric result usually signals a unit mismatch
// upstream).
func fdab039NormalRangeNumeric(ctx DomainContext) []model.RuleResult {
	prefix := ctx.Domain
	stresnCol, loCol, hiCol := prefix+"STRESN", prefix+"ORNRLO", prefix+"ORNRHI"
	if !ctx.Table.HasColumn(stresnCol) {
		return nil
	}
	var results []model.RuleResult
	for _, col := range []string{loCol, hiCol} {
		if !ctx.Table.HasColumn(col) {
			continue
		}
		invalid := 0
		stresn := ctx.Table.Column(stresnCol)
		vals := ctx.Table.Column(col)
		for i, v := range vals {
			if i >= len(stresn) || stresn[i] == "" || v == "" {
				continue
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				invalid++
			}
		}
		if invalid > 0 {
			results = append(results, newResult("FDAB039", model.CategoryFDABusiness, model.SeverityWarning,
				ctx.Domain, col, fmt.Sprintf("%d value(s) of %s are non-numeric while %s is populated", invalid, col, stresnCol), invalid))
		}
	}
	return results
}

// fdab009TestCDTestOneToOne requires every --TESTCD to map to exactly one
// --TEST label within a Findings domain.
func fdab009TestCDTestOneToOne(ctx DomainContext) []model.RuleResult {
	prefix := ctx.Domain
	testcdCol, testCol := prefix+"TESTCD", prefix+"TEST"
	if !ctx.Table.HasColumn(testcdCol) || !ctx.Table.HasColumn(testCol) {
		return nil
	}
	testcds := ctx.Table.Column(testcdCol)
	tests := ctx.Table.Column(testCol)
	seen := make(map[string]string)
	var results []model.RuleResult
	for i := range testcds {
		if i >= len(tests) {
			continue
		}
		cd, name := testcds[i], tests[i]
		if cd == "" {
			continue
		}
		if prior, ok := seen[cd]; ok {
			if prior != name {
				results = append(results, newResult("FDAB009", model.CategoryFDABusiness, model.SeverityError,
					ctx.Domain, testcdCol, fmt.Sprintf("%s %q maps to both %q and %q", testcdCol, cd, prior, name), 1))
			}
			continue
		}
		seen[cd] = name
	}
	return results
}

// fdab030UnitConsistentPerTestCD requires --STRESU to be the same value
// for every row sharing a --TESTCD.
func fdab030UnitConsistentPerTestCD(ctx DomainContext) []model.RuleResult {
	prefix := ctx.Domain
	testcdCol, stresuCol := prefix+"TESTCD", prefix+"STRESU"
	if !ctx.Table.HasColumn(testcdCol) || !ctx.Table.HasColumn(stresuCol) {
		return nil
	}
	testcds := ctx.Table.Column(testcdCol)
	units := ctx.Table.Column(stresuCol)
	seen := make(map[string]string)
	mismatches := make(map[string]bool)
	for i, cd := range testcds {
		if cd == "" || i >= len(units) {
			continue
		}
		unit := units[i]
		if prior, ok := seen[cd]; ok {
			if prior != unit {
				mismatches[cd] = true
			}
			continue
		}
		seen[cd] = unit
	}
	var results []model.RuleResult
	for cd := range mismatches {
		results = append(results, newResult("FDAB030", model.CategoryFDABusiness, model.SeverityWarning,
			ctx.Domain, stresuCol, fmt.Sprintf("%s is inconsistent across rows for %s %q", stresuCol, testcdCol, cd), 1))
	}
	return results
}
