package engine

import (
	"fmt"

	"github.com/SanmaySarada/astraea-sdtm/internal/mapping"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// dispatchPattern routes one VariableMapping to its pattern handler,
// returning the computed column (aligned to the primary dataset's row
// order) and any non-fatal warnings raised along the way.
func dispatchPattern(ctx *keywordCtx, vm *model.VariableMapping, ref ReferenceLookup) ([]string, []string, error) {
	switch vm.Pattern {
	case model.PatternDirect, model.PatternRename:
		return directCopy(ctx, vm)
	case model.PatternAssign:
		return assignConstant(ctx, vm), nil, nil
	case model.PatternReformat, model.PatternDerivation, model.PatternCombine:
		return dispatchKeyword(ctx, vm)
	case model.PatternLookupRecode:
		return lookupRecode(ctx, vm, ref)
	case model.PatternSplit:
		return make([]string, ctx.primary.RowCount),
			[]string{fmt.Sprintf("%s: SPLIT pattern is deferred, not implemented in v1; column set to NULL", vm.SDTMVariable)},
			nil
	default:
		return nil, nil, fmt.Errorf("unsupported execution pattern %q", vm.Pattern)
	}
}

// datasetFor returns the Frame a mapping's source_variable should be
// resolved against: its own declared source_dataset when that dataset is
// among the raw tables and row-aligned with the primary dataset, else the
// domain's primary dataset.
func datasetFor(ctx *keywordCtx, vm *model.VariableMapping) *Frame {
	if vm.SourceDataset == "" {
		return ctx.primary
	}
	if t, ok := lookupDataset(ctx.raw, vm.SourceDataset); ok && t.RowCount == ctx.primary.RowCount {
		return t
	}
	return ctx.primary
}

func directCopy(ctx *keywordCtx, vm *model.VariableMapping) ([]string, []string, error) {
	dataset := datasetFor(ctx, vm)
	col, ok := ctx.resolver.Resolve(vm.SourceVariable, dataset)
	if !ok {
		return nil, nil, fmt.Errorf("could not resolve source_variable %q", vm.SourceVariable)
	}
	vals := dataset.Column(col)
	return append([]string(nil), vals...), nil, nil
}

func assignConstant(ctx *keywordCtx, vm *model.VariableMapping) []string {
	out := make([]string, ctx.primary.RowCount)
	for i := range out {
		out[i] = vm.DerivationRule
	}
	return out
}

// dispatchKeyword parses REFORMAT/DERIVATION/COMBINE's derivation_rule into
// (keyword, args) and calls the matching keyword handler. A bare keyword
// (no parentheses) uses source_variable as its implicit single argument,
// per spec.md §4.6 — except GENERATE_USUBJID, which has no single source
// column and composes STUDYID/SITEID/SUBJID itself.
func dispatchKeyword(ctx *keywordCtx, vm *model.VariableMapping) ([]string, []string, error) {
	keyword, args := mapping.ParseDerivationRule(vm.DerivationRule)
	if len(args) == 0 && vm.SourceVariable != "" && keyword != "GENERATE_USUBJID" {
		args = []string{vm.SourceVariable}
	}
	handler, ok := keywordHandlers[keyword]
	if !ok {
		return nil, nil, fmt.Errorf("unrecognized derivation keyword %q", keyword)
	}
	res, err := handler(ctx, args)
	if err != nil {
		return nil, nil, err
	}
	return res.Values, res.Warnings, nil
}

// lookupRecode implements LOOKUP_RECODE: each unique raw value is matched
// bidirectionally against the target codelist (preferred_term -> submission
// value, or an exact submission-value match), with a per-value cache since a
// domain typically has far fewer distinct values than rows.
func lookupRecode(ctx *keywordCtx, vm *model.VariableMapping, ref ReferenceLookup) ([]string, []string, error) {
	dataset := datasetFor(ctx, vm)
	col, ok := ctx.resolver.Resolve(vm.SourceVariable, dataset)
	if !ok {
		return nil, nil, fmt.Errorf("could not resolve source_variable %q", vm.SourceVariable)
	}
	vals := dataset.Column(col)

	var codelist *model.Codelist
	if vm.CodelistCode != "" && ref != nil {
		if cl, err := ref.LookupCodelist(vm.CodelistCode); err == nil {
			codelist = cl
		}
	}

	cache := make(map[string]string)
	out := make([]string, len(vals))
	var warnings []string
	for i, raw := range vals {
		if raw == "" {
			continue
		}
		if mapped, cached := cache[raw]; cached {
			out[i] = mapped
			continue
		}
		mapped := raw
		if codelist != nil {
			if sv, ok := codelist.PreferredTermFor(raw); ok {
				mapped = sv
			} else if !codelist.HasSubmissionValue(raw) {
				warnings = append(warnings, fmt.Sprintf("%s: value %q does not match any term of codelist %s; passed through unchanged", vm.SDTMVariable, raw, vm.CodelistCode))
			}
		}
		cache[raw] = mapped
		out[i] = mapped
	}
	return out, warnings, nil
}
