package validation

import (
	"fmt"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

const (
	maxNameLength  = 8
	maxLabelLength = 40
	maxCharBytes   = 200
	noticeSizeBytes   = 100 * 1024 * 1024
	warningSizeBytes  = 500 * 1024 * 1024
)

// astrL001NameLength checks every column name is <=8 characters (the XPT
// v5 variable-name limit).
func astrL001NameLength(ctx DomainContext) []model.RuleResult {
	var results []model.RuleResult
	for _, col := range ctx.Table.Columns {
		if len(col) > maxNameLength {
			results = append(results, newResult("ASTR-L001", model.CategoryLimit, model.SeverityError,
				ctx.Domain, col, fmt.Sprintf("variable name %q exceeds %d characters", col, maxNameLength), 1))
		}
	}
	return results
}

// astrL002LabelLength checks every variable's declared label is <=40
// characters.
func astrL002LabelLength(ctx DomainContext) []model.RuleResult {
	if ctx.DomainSpec == nil {
		return nil
	}
	var results []model.RuleResult
	for _, col := range ctx.Table.Columns {
		vs, ok := ctx.DomainSpec.VariableByName(col)
		if !ok || len(vs.Label) <= maxLabelLength {
			continue
		}
		results = append(results, newResult("ASTR-L002", model.CategoryLimit, model.SeverityError,
			ctx.Domain, col, fmt.Sprintf("label %q for %s exceeds %d characters", vs.Label, col, maxLabelLength), 1))
	}
	return results
}

// astrL003CharByteLength checks every Char variable's cell values are
// <=200 bytes.
func astrL003CharByteLength(ctx DomainContext) []model.RuleResult {
	if ctx.DomainSpec == nil {
		return nil
	}
	var results []model.RuleResult
	for _, col := range ctx.Table.Columns {
		vs, ok := ctx.DomainSpec.VariableByName(col)
		if !ok || vs.Type != model.TypeChar {
			continue
		}
		overlong := 0
		for _, v := range ctx.Table.Column(col) {
			if len(v) > maxCharBytes {
				overlong++
			}
		}
		if overlong > 0 {
			results = append(results, newResult("ASTR-L003", model.CategoryLimit, model.SeverityError,
				ctx.Domain, col, fmt.Sprintf("%d value(s) of %s exceed %d bytes", overlong, col, maxCharBytes), overlong))
		}
	}
	return results
}

// astrL004DatasetSize flags large transport files: NOTICE above 100MB,
// WARNING above 500MB. Skipped when FileSizeBytes is unknown (0).
func astrL004DatasetSize(ctx DomainContext) []model.RuleResult {
	switch {
	case ctx.FileSizeBytes <= 0:
		return nil
	case ctx.FileSizeBytes > warningSizeBytes:
		return []model.RuleResult{newResult("ASTR-L004", model.CategoryLimit, model.SeverityWarning,
			ctx.Domain, "", fmt.Sprintf("%s.xpt is %d bytes, over the 500MB split-recommendation threshold", ctx.Domain, ctx.FileSizeBytes), 0)}
	case ctx.FileSizeBytes > noticeSizeBytes:
		return []model.RuleResult{newResult("ASTR-L004", model.CategoryLimit, model.SeverityNotice,
			ctx.Domain, "", fmt.Sprintf("%s.xpt is %d bytes, over the 100MB notice threshold", ctx.Domain, ctx.FileSizeBytes), 0)}
	default:
		return nil
	}
}
