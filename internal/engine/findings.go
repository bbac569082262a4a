package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// WideColumnSpec names one wide-format raw column that becomes a --TESTCD/
// --TEST row pair under transpose, plus the (optional) companion column
// carrying its unit.
type WideColumnSpec struct {
	SourceColumn string
	TestCD       string
	Test         string
	Unit         string // constant unit, used when UnitColumn is empty
	UnitColumn   string // optional per-row unit column
	NormalLoCol  string // optional --ORNRLO source column
	NormalHiCol  string // optional --ORNRHI source column
}

// TransposeSpec declares one Findings-class domain's wide-to-long shape:
// the raw datasets to stack, the subject/visit grouping columns, and the
// wide measurement columns to unpivot.
type TransposeSpec struct {
	Domain         string
	SourceDatasets []string
	SubjectColumn  string
	VisitColumn    string // optional
	WideColumns    []WideColumnSpec
}

// Transpose builds a Findings-class domain Table by stacking every source
// dataset (aligning on shared column names) and unpivoting each
// WideColumnSpec into one row per (subject, visit, test), per spec.md
// §4.6's Findings executor.
func Transpose(spec TransposeSpec, raw map[string]*Frame, opts Options) (*Result, error) {
	stacked, err := stackDatasets(spec.SourceDatasets, raw)
	if err != nil {
		return nil, fmt.Errorf("findings transpose for %s: %w", spec.Domain, err)
	}

	resolver := Resolver{CustomAliases: opts.CustomAliases}
	subjectCol, ok := resolver.Resolve(spec.SubjectColumn, stacked)
	if !ok {
		return nil, fmt.Errorf("findings transpose for %s: could not resolve subject column %q", spec.Domain, spec.SubjectColumn)
	}
	var visitVals []string
	if spec.VisitColumn != "" {
		if col, ok := resolver.Resolve(spec.VisitColumn, stacked); ok {
			visitVals = stacked.Column(col)
		}
	}
	subjectVals := stacked.Column(subjectCol)

	prefix := strings.ToUpper(spec.Domain)
	var warnings []string
	unitByTest := make(map[string]string)

	var usubjid, visit, testcd, test, orres, orresu, stresc, stresn, stresu, ornrlo, ornrhi []string

	for _, wc := range spec.WideColumns {
		srcCol, ok := resolver.Resolve(wc.SourceColumn, stacked)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("findings transpose for %s: could not resolve wide column %q, test %s skipped", spec.Domain, wc.SourceColumn, wc.TestCD))
			continue
		}
		vals := stacked.Column(srcCol)

		var unitVals []string
		if wc.UnitColumn != "" {
			if col, ok := resolver.Resolve(wc.UnitColumn, stacked); ok {
				unitVals = stacked.Column(col)
			}
		}
		var loVals, hiVals []string
		if wc.NormalLoCol != "" {
			if col, ok := resolver.Resolve(wc.NormalLoCol, stacked); ok {
				loVals = stacked.Column(col)
			}
		}
		if wc.NormalHiCol != "" {
			if col, ok := resolver.Resolve(wc.NormalHiCol, stacked); ok {
				hiVals = stacked.Column(col)
			}
		}

		for row := 0; row < stacked.RowCount; row++ {
			raw := valueAt(vals, row)
			if raw == "" {
				continue
			}
			subj := valueAt(subjectVals, row)
			unit := wc.Unit
			if unitVals != nil {
				if u := valueAt(unitVals, row); u != "" {
					unit = u
				}
			}
			if prior, seen := unitByTest[wc.TestCD]; seen && prior != unit {
				warnings = append(warnings, fmt.Sprintf("findings transpose for %s: unit mismatch for test %s at subject %s (%q vs %q)", spec.Domain, wc.TestCD, subj, prior, unit))
			}
			unitByTest[wc.TestCD] = unit

			usubjid = append(usubjid, subj)
			if visitVals != nil {
				visit = append(visit, valueAt(visitVals, row))
			}
			testcd = append(testcd, wc.TestCD)
			test = append(test, wc.Test)
			orres = append(orres, raw)
			orresu = append(orresu, unit)
			stresc = append(stresc, raw)
			stresn = append(stresn, numericOrEmpty(raw))
			stresu = append(stresu, unit)
			ornrlo = append(ornrlo, valueAt(loVals, row))
			ornrhi = append(ornrhi, valueAt(hiVals, row))
		}
	}

	out := model.NewTable(nil)
	out.RowCount = len(usubjid)
	out.AddColumn("USUBJID", usubjid)
	if visitVals != nil {
		out.AddColumn("VISIT", visit)
	}
	out.AddColumn(prefix+"TESTCD", testcd)
	out.AddColumn(prefix+"TEST", test)
	out.AddColumn(prefix+"ORRES", orres)
	out.AddColumn(prefix+"ORRESU", orresu)
	out.AddColumn(prefix+"STRESC", stresc)
	out.AddColumn(prefix+"STRESN", stresn)
	out.AddColumn(prefix+"STRESU", stresu)
	out.AddColumn(prefix+"ORNRLO", ornrlo)
	out.AddColumn(prefix+"ORNRHI", ornrhi)

	return &Result{Table: out, Warnings: warnings}, nil
}

func numericOrEmpty(s string) string {
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return ""
	}
	return s
}

// stackDatasets unions columns across datasets by name, row-appending so
// every output column has the same length as the sum of input row counts.
// Columns absent from a given input dataset are padded with empty strings.
func stackDatasets(names []string, raw map[string]*Frame) (*Frame, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no source datasets declared")
	}
	var frames []*Frame
	for _, name := range names {
		f, ok := lookupDataset(raw, name)
		if !ok {
			return nil, fmt.Errorf("source dataset %q not found among raw datasets", name)
		}
		frames = append(frames, f)
	}

	colSet := make(map[string]bool)
	var colOrder []string
	for _, f := range frames {
		for _, c := range f.Columns {
			if !colSet[c] {
				colSet[c] = true
				colOrder = append(colOrder, c)
			}
		}
	}

	totalRows := 0
	for _, f := range frames {
		totalRows += f.RowCount
	}

	out := model.NewTable(colOrder)
	out.RowCount = totalRows
	for _, c := range colOrder {
		col := make([]string, 0, totalRows)
		for _, f := range frames {
			if f.HasColumn(c) {
				col = append(col, f.Column(c)...)
			} else {
				col = append(col, make([]string, f.RowCount)...)
			}
		}
		out.Data[c] = col
	}
	return out, nil
}
