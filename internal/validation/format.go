package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/SanmaySarada/astraea-sdtm/internal/dateutil"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// astrF001DTCFormat checks every --DTC column's non-empty values against
// the ISO 8601 partial-date-or-datetime pattern.
func astrF001DTCFormat(ctx DomainContext) []model.RuleResult {
	var results []model.RuleResult
	for _, col := range ctx.Table.Columns {
		if !strings.HasSuffix(col, "DTC") {
			continue
		}
		invalid := 0
		for _, v := range ctx.Table.Column(col) {
			if v == "" {
				continue
			}
			if !dateutil.IsValidDTC(v) {
				invalid++
			}
		}
		if invalid > 0 {
			results = append(results, newResult("ASTR-F001", model.CategoryFormat, model.SeverityError,
				ctx.Domain, col, fmt.Sprintf("%d value(s) of %s do not match the ISO 8601 DTC pattern", invalid, col), invalid))
		}
	}
	return results
}

// astrF002ASCIIOnly checks every cell is pure ASCII. The compliance pass
// (internal/engine) should already have repaired or rejected non-ASCII
// before a domain reaches here; this rule exists so a dataset written by
// some other path still gets checked.
func astrF002ASCIIOnly(ctx DomainContext) []model.RuleResult {
	var results []model.RuleResult
	for _, col := range ctx.Table.Columns {
		violations := 0
		for _, v := range ctx.Table.Column(col) {
			for _, r := range v {
				if r > unicode.MaxASCII {
					violations++
					break
				}
			}
		}
		if violations > 0 {
			results = append(results, newResult("ASTR-F002", model.CategoryFormat, model.SeverityError,
				ctx.Domain, col, fmt.Sprintf("%d value(s) of %s contain non-ASCII characters", violations, col), violations))
		}
	}
	return results
}

// astrF003Filename checks the domain's written filename is the lowercase
// domain code plus .xpt.
func astrF003Filename(ctx DomainContext) []model.RuleResult {
	if ctx.Filename == "" {
		return nil
	}
	want := strings.ToLower(ctx.Domain) + ".xpt"
	if !strings.HasSuffix(ctx.Filename, want) {
		return []model.RuleResult{newResult("ASTR-F003", model.CategoryFormat, model.SeverityError,
			ctx.Domain, "", fmt.Sprintf("filename %q does not end in %q", ctx.Filename, want), 1)}
	}
	return nil
}
