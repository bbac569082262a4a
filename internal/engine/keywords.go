package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SanmaySarada/astraea-sdtm/internal/dateutil"
)

// keywordCtx is the shared state every keyword handler needs: the resolver,
// the primary raw table the target domain is built from, every raw table
// (for cross-domain derivations), and whatever target columns have already
// been computed (notably USUBJID, which cross-domain joins key on).
type keywordCtx struct {
	resolver     Resolver
	primary      *Frame
	raw          map[string]*Frame
	computed     map[string][]string
	studyID      string
	usubjidDelim string
}

type keywordResult struct {
	Values   []string
	Warnings []string
}

type keywordFunc func(ctx *keywordCtx, args []string) (keywordResult, error)

var keywordHandlers = map[string]keywordFunc{
	"GENERATE_USUBJID":      generateUSUBJID,
	"CONCAT":                concatKeyword,
	"ISO8601_DATE":          iso8601Date,
	"ISO8601_DATETIME":      iso8601Datetime,
	"ISO8601_PARTIAL_DATE":  iso8601PartialDate,
	"PARSE_STRING_DATE":     parseStringDate,
	"MIN_DATE_PER_SUBJECT":  minDatePerSubject,
	"MAX_DATE_PER_SUBJECT":  maxDatePerSubject,
	"RACE_CHECKBOX":         raceCheckbox,
	"NUMERIC_TO_YN":         numericToYN,
}

func generateUSUBJID(ctx *keywordCtx, _ []string) (keywordResult, error) {
	siteCol, siteOK := ctx.resolver.Resolve("SITEID", ctx.primary)
	subjCol, subjOK := ctx.resolver.Resolve("SUBJID", ctx.primary)
	if !siteOK || !subjOK {
		return keywordResult{}, fmt.Errorf("GENERATE_USUBJID: could not resolve SITEID/SUBJID against the primary dataset")
	}
	siteVals := ctx.primary.Column(siteCol)
	subjVals := ctx.primary.Column(subjCol)
	out := make([]string, ctx.primary.RowCount)
	var warnings []string
	for i := range out {
		usubjid, err := dateutil.GenerateUSUBJID(ctx.studyID, valueAt(siteVals, i), valueAt(subjVals, i), ctx.usubjidDelim)
		if err != nil {
			return keywordResult{}, fmt.Errorf("GENERATE_USUBJID: row %d: %w", i, err)
		}
		out[i] = usubjid
	}
	return keywordResult{Values: out, Warnings: warnings}, nil
}

// concatKeyword implements CONCAT(v1, sep, v2, ...): any arg that resolves
// to a column is substituted per row; unresolved args are literal text.
func concatKeyword(ctx *keywordCtx, args []string) (keywordResult, error) {
	if len(args) == 0 {
		return keywordResult{}, fmt.Errorf("CONCAT: requires at least one argument")
	}
	resolvedCols := make([][]string, len(args))
	isColumn := make([]bool, len(args))
	for i, arg := range args {
		arg = strings.TrimSpace(arg)
		if col, ok := ctx.resolver.Resolve(arg, ctx.primary); ok {
			resolvedCols[i] = ctx.primary.Column(col)
			isColumn[i] = true
		}
	}
	out := make([]string, ctx.primary.RowCount)
	for row := 0; row < ctx.primary.RowCount; row++ {
		var b strings.Builder
		for i, arg := range args {
			if isColumn[i] {
				b.WriteString(valueAt(resolvedCols[i], row))
			} else {
				b.WriteString(strings.Trim(strings.TrimSpace(arg), `"'`))
			}
		}
		out[row] = b.String()
	}
	return keywordResult{Values: out}, nil
}

func iso8601Date(ctx *keywordCtx, args []string) (keywordResult, error) {
	vals, err := resolveSingleColumnArg(ctx, args, "ISO8601_DATE")
	if err != nil {
		return keywordResult{}, err
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		if v == "" {
			continue
		}
		days, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		out[i] = dateutil.SASDateToISO(days)
	}
	return keywordResult{Values: out}, nil
}

func iso8601Datetime(ctx *keywordCtx, args []string) (keywordResult, error) {
	vals, err := resolveSingleColumnArg(ctx, args, "ISO8601_DATETIME")
	if err != nil {
		return keywordResult{}, err
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		if v == "" {
			continue
		}
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		out[i] = dateutil.SASDatetimeToISO(secs)
	}
	return keywordResult{Values: out}, nil
}

// iso8601PartialDate implements ISO8601_PARTIAL_DATE(year?, month?, day?):
// each arg resolves to a column of integer strings; a missing column
// (unresolved token) is treated as "not supplied" for every row.
func iso8601PartialDate(ctx *keywordCtx, args []string) (keywordResult, error) {
	if len(args) == 0 || len(args) > 3 {
		return keywordResult{}, fmt.Errorf("ISO8601_PARTIAL_DATE: expects 1-3 arguments (year, month, day)")
	}
	cols := make([][]string, len(args))
	for i, arg := range args {
		arg = strings.TrimSpace(arg)
		if col, ok := ctx.resolver.Resolve(arg, ctx.primary); ok {
			cols[i] = ctx.primary.Column(col)
		}
	}
	out := make([]string, ctx.primary.RowCount)
	var warnings []string
	for row := 0; row < ctx.primary.RowCount; row++ {
		p := dateutil.PartialDate{}
		ptrs := []**int{&p.Year, &p.Month, &p.Day}
		for i := range args {
			if cols[i] == nil {
				continue
			}
			raw := valueAt(cols[i], row)
			if raw == "" {
				continue
			}
			n, err := strconv.Atoi(raw)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("ISO8601_PARTIAL_DATE: row %d: non-numeric component %q", row, raw))
				continue
			}
			*ptrs[i] = &n
		}
		iso, err := dateutil.FormatPartialISO8601(p)
		if err != nil {
			continue
		}
		out[row] = iso
	}
	return keywordResult{Values: out, Warnings: warnings}, nil
}

func parseStringDate(ctx *keywordCtx, args []string) (keywordResult, error) {
	vals, err := resolveSingleColumnArg(ctx, args, "PARSE_STRING_DATE")
	if err != nil {
		return keywordResult{}, err
	}
	out := make([]string, len(vals))
	var warnings []string
	for i, v := range vals {
		if v == "" {
			continue
		}
		iso, warning, err := dateutil.ParseStringDateToISO(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("PARSE_STRING_DATE: row %d: %v", i, err))
			continue
		}
		if warning != "" {
			warnings = append(warnings, fmt.Sprintf("PARSE_STRING_DATE: row %d: %s", i, warning))
		}
		out[i] = iso
	}
	return keywordResult{Values: out, Warnings: warnings}, nil
}

// minDatePerSubject and maxDatePerSubject implement the two cross-domain
// keywords: they read a column from a raw dataset named by the arg's
// dataset prefix (e.g. "ex.EXSTDTC"), group by USUBJID, and join the
// earliest/latest ISO date back onto the target table's USUBJID column.
func minDatePerSubject(ctx *keywordCtx, args []string) (keywordResult, error) {
	return datePerSubject(ctx, args, "MIN_DATE_PER_SUBJECT", true)
}

func maxDatePerSubject(ctx *keywordCtx, args []string) (keywordResult, error) {
	return datePerSubject(ctx, args, "MAX_DATE_PER_SUBJECT", false)
}

func datePerSubject(ctx *keywordCtx, args []string, name string, wantMin bool) (keywordResult, error) {
	if len(args) != 1 {
		return keywordResult{}, fmt.Errorf("%s: expects exactly one dataset-qualified column argument", name)
	}
	datasetName, column := splitDatasetToken(args[0])
	if datasetName == "" {
		return keywordResult{}, fmt.Errorf("%s: argument %q must be dataset-qualified (e.g. ex.EXSTDTC)", name, args[0])
	}
	source, ok := lookupDataset(ctx.raw, datasetName)
	if !ok {
		return keywordResult{}, fmt.Errorf("%s: unknown source dataset %q", name, datasetName)
	}
	usubjidCol, ok := ctx.resolver.Resolve("USUBJID", source)
	if !ok {
		return keywordResult{}, fmt.Errorf("%s: source dataset %q has no USUBJID column", name, datasetName)
	}
	dateCol, ok := ctx.resolver.Resolve(column, source)
	if !ok {
		return keywordResult{}, fmt.Errorf("%s: could not resolve column %q in dataset %q", name, column, datasetName)
	}

	best := make(map[string]string, source.RowCount)
	usubjids := source.Column(usubjidCol)
	dates := source.Column(dateCol)
	for i := 0; i < source.RowCount; i++ {
		subj := valueAt(usubjids, i)
		val := valueAt(dates, i)
		if subj == "" || val == "" {
			continue
		}
		current, seen := best[subj]
		if !seen || (wantMin && val < current) || (!wantMin && val > current) {
			best[subj] = val
		}
	}

	targetUSUBJID, ok := ctx.computed["USUBJID"]
	if !ok {
		return keywordResult{}, fmt.Errorf("%s: target USUBJID must be computed before any cross-domain derivation runs", name)
	}
	out := make([]string, len(targetUSUBJID))
	for i, subj := range targetUSUBJID {
		out[i] = best[subj]
	}
	return keywordResult{Values: out}, nil
}

// raceNameBySuffix maps the trailing token of a checkbox column name (after
// the final underscore) to its CDISC RACE (C74457) submission value. Real
// studies vary column-naming conventions; this covers the common ones.
var raceNameBySuffix = map[string]string{
	"WHITE":       "WHITE",
	"BLACK":       "BLACK OR AFRICAN AMERICAN",
	"AFRAMERICAN": "BLACK OR AFRICAN AMERICAN",
	"ASIAN":       "ASIAN",
	"AMINDIAN":    "AMERICAN INDIAN OR ALASKA NATIVE",
	"NATIVE":      "AMERICAN INDIAN OR ALASKA NATIVE",
	"HAWAIIAN":    "NATIVE HAWAIIAN OR OTHER PACIFIC ISLANDER",
	"PACIFIC":     "NATIVE HAWAIIAN OR OTHER PACIFIC ISLANDER",
	"OTHER":       "OTHER",
	"UNKNOWN":     "UNKNOWN",
}

// raceCheckbox implements RACE_CHECKBOX(col1, col2, ...): each arg is a
// binary checkbox column; exactly one checked yields that column's race
// term, more than one yields "MULTIPLE", none yields NULL.
func raceCheckbox(ctx *keywordCtx, args []string) (keywordResult, error) {
	if len(args) == 0 {
		return keywordResult{}, fmt.Errorf("RACE_CHECKBOX: requires at least one checkbox column argument")
	}
	cols := make([][]string, len(args))
	terms := make([]string, len(args))
	for i, arg := range args {
		arg = strings.TrimSpace(arg)
		col, ok := ctx.resolver.Resolve(arg, ctx.primary)
		if !ok {
			return keywordResult{}, fmt.Errorf("RACE_CHECKBOX: could not resolve column %q", arg)
		}
		cols[i] = ctx.primary.Column(col)
		terms[i] = raceTermForColumn(arg)
	}
	out := make([]string, ctx.primary.RowCount)
	for row := 0; row < ctx.primary.RowCount; row++ {
		var checked []string
		for i := range args {
			if isChecked(valueAt(cols[i], row)) {
				checked = append(checked, terms[i])
			}
		}
		switch len(checked) {
		case 0:
		case 1:
			out[row] = checked[0]
		default:
			out[row] = "MULTIPLE"
		}
	}
	return keywordResult{Values: out}, nil
}

func raceTermForColumn(col string) string {
	upper := strings.ToUpper(col)
	suffix := upper
	if i := strings.LastIndexByte(upper, '_'); i >= 0 {
		suffix = upper[i+1:]
	}
	if term, ok := raceNameBySuffix[suffix]; ok {
		return term
	}
	return "OTHER"
}

func isChecked(v string) bool {
	switch strings.TrimSpace(v) {
	case "1", "Y", "YES", "TRUE", "CHECKED":
		return true
	default:
		return false
	}
}

func numericToYN(ctx *keywordCtx, args []string) (keywordResult, error) {
	vals, err := resolveSingleColumnArg(ctx, args, "NUMERIC_TO_YN")
	if err != nil {
		return keywordResult{}, err
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		switch strings.TrimSpace(v) {
		case "0":
			out[i] = "N"
		case "1":
			out[i] = "Y"
		default:
			out[i] = ""
		}
	}
	return keywordResult{Values: out}, nil
}

// resolveSingleColumnArg resolves the handler's one expected column
// argument — for a bare keyword, dispatchKeyword has already supplied
// source_variable as that argument — and returns its raw values.
func resolveSingleColumnArg(ctx *keywordCtx, args []string, name string) ([]string, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%s: expects exactly one column argument", name)
	}
	col, ok := ctx.resolver.Resolve(strings.TrimSpace(args[0]), ctx.primary)
	if !ok {
		return nil, fmt.Errorf("%s: could not resolve column %q", name, args[0])
	}
	return ctx.primary.Column(col), nil
}

func splitDatasetToken(token string) (dataset, column string) {
	i := strings.IndexByte(token, '.')
	if i < 0 {
		return "", token
	}
	return token[:i], token[i+1:]
}

func lookupDataset(raw map[string]*Frame, name string) (*Frame, bool) {
	if t, ok := raw[name]; ok {
		return t, true
	}
	lower := strings.ToLower(name)
	for k, t := range raw {
		if strings.ToLower(k) == lower {
			return t, true
		}
	}
	return nil, false
}

func valueAt(vals []string, i int) string {
	if i < 0 || i >= len(vals) {
		return ""
	}
	return vals[i]
}
