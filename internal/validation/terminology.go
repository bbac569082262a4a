package validation

import (
	"fmt"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// astrT001CTValueInCodelist checks every codelist-governed variable's
// non-empty values against the CT bundle: ERROR when the governing
// codelist is non-extensible, WARNING when it is extensible (an
// extensible codelist still warrants a look, since a novel value may be a
// typo rather than a legitimate extension).
func astrT001CTValueInCodelist(ctx DomainContext) []model.RuleResult {
	if ctx.DomainSpec == nil || ctx.Ref == nil {
		return nil
	}
	var results []model.RuleResult
	for _, vs := range ctx.DomainSpec.Variables {
		if vs.CodelistCode == "" || !ctx.Table.HasColumn(vs.Name) {
			continue
		}
		vals := ctx.Table.Column(vs.Name)
		extensible := ctx.Ref.IsExtensible(vs.CodelistCode)
		var cl *model.Codelist
		if extensible {
			cl, _ = ctx.Ref.LookupCodelist(vs.CodelistCode)
		}
		invalid := 0
		for _, v := range vals {
			if v == "" {
				continue
			}
			if extensible {
				if cl != nil && !cl.HasSubmissionValue(v) {
					invalid++
				}
			} else if !ctx.Ref.ValidateTerm(vs.CodelistCode, v) {
				invalid++
			}
		}
		if invalid == 0 {
			continue
		}
		severity := model.SeverityWarning
		if !extensible {
			severity = model.SeverityError
		}
		results = append(results, newResult("ASTR-T001", model.CategoryTerminology, severity,
			ctx.Domain, vs.Name,
			fmt.Sprintf("%d value(s) of %s are not in codelist %s", invalid, vs.Name, vs.CodelistCode),
			invalid))
	}
	return results
}

// astrT002DomainColumnEqualsCode checks that every row's DOMAIN value
// equals the domain code.
func astrT002DomainColumnEqualsCode(ctx DomainContext) []model.RuleResult {
	if !ctx.Table.HasColumn("DOMAIN") {
		return nil
	}
	mismatched := 0
	for _, v := range ctx.Table.Column("DOMAIN") {
		if v != ctx.Domain {
			mismatched++
		}
	}
	if mismatched == 0 {
		return nil
	}
	return []model.RuleResult{newResult("ASTR-T002", model.CategoryTerminology, model.SeverityError,
		ctx.Domain, "DOMAIN",
		fmt.Sprintf("%d row(s) have DOMAIN != %s", mismatched, ctx.Domain), mismatched)}
}
