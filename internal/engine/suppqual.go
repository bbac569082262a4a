package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

var qnamPattern = regexp.MustCompile(`^[A-Z0-9]{1,8}$`)

// SuppqualCandidate is one raw column flagged (by Enrichment, §4.5) as
// worth keeping as a non-standard supplemental qualifier.
type SuppqualCandidate struct {
	SourceVariable string
	QNAM           string // derived from SourceVariable when empty
	QLABEL         string
	QOrigin        string // e.g. CRF, Derived
}

// SuppqualInput is everything GenerateSuppqual needs for one domain. Source
// and ParentTable are assumed row-aligned (both built from the same primary
// raw dataset) so IDVarColumn, when set, can be read positionally out of
// ParentTable at the same row index as Source.
type SuppqualInput struct {
	Domain      string
	StudyID     string
	Source      *Frame // raw dataset carrying the candidate columns
	ParentTable *Frame // the already-executed domain table
	IDVar       string // e.g. "AESEQ"; empty for one-record-per-subject domains
	Candidates  []SuppqualCandidate
}

// GenerateSuppqual produces one SuppqualRecord per non-empty candidate
// value, per spec.md §4.6. Generation never invokes the LLM — it is
// deterministic post-processing over already-resolved data. Every emitted
// row's (RDOMAIN, USUBJID, IDVAR, IDVARVAL) foreign key is checked against
// the parent table before it is kept.
func GenerateSuppqual(in SuppqualInput) ([]model.SuppqualRecord, []string, error) {
	resolver := Resolver{}
	usubjidCol, ok := resolver.Resolve("USUBJID", in.Source)
	if !ok {
		return nil, nil, fmt.Errorf("SUPPQUAL for %s: source dataset has no resolvable USUBJID column", in.Domain)
	}
	usubjids := in.Source.Column(usubjidCol)

	var idvarVals []string
	if in.IDVar != "" {
		if col, ok := resolver.Resolve(in.IDVar, in.ParentTable); ok {
			idvarVals = in.ParentTable.Column(col)
		} else {
			return nil, nil, fmt.Errorf("SUPPQUAL for %s: IDVar %q not present in the executed parent table", in.Domain, in.IDVar)
		}
	}
	parentKeys := parentKeySet(in.ParentTable, in.IDVar, idvarVals, usubjids)

	var out []model.SuppqualRecord
	var warnings []string
	for _, cand := range in.Candidates {
		col, ok := resolver.Resolve(cand.SourceVariable, in.Source)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("SUPPQUAL for %s: could not resolve candidate column %q, skipped", in.Domain, cand.SourceVariable))
			continue
		}
		qnam := normalizeQNAM(cand.QNAM, cand.SourceVariable)
		qlabel := truncate(cand.QLABEL, 40)
		vals := in.Source.Column(col)

		for row := 0; row < in.Source.RowCount; row++ {
			val := valueAt(vals, row)
			if val == "" {
				continue
			}
			usubjid := valueAt(usubjids, row)
			idvarval := ""
			if in.IDVar != "" {
				idvarval = valueAt(idvarVals, row)
			}
			key := usubjid + "|" + in.IDVar + "|" + idvarval
			if !parentKeys[key] {
				warnings = append(warnings, fmt.Sprintf("SUPPQUAL for %s: row %d (USUBJID=%s, IDVAR=%s, IDVARVAL=%s) does not resolve against the parent domain, skipped", in.Domain, row, usubjid, in.IDVar, idvarval))
				continue
			}
			out = append(out, model.SuppqualRecord{
				STUDYID:  in.StudyID,
				RDOMAIN:  in.Domain,
				USUBJID:  usubjid,
				IDVAR:    in.IDVar,
				IDVARVAL: idvarval,
				QNAM:     qnam,
				QLABEL:   qlabel,
				QVAL:     val,
				QORIG:    cand.QOrigin,
			})
		}
	}
	return out, warnings, nil
}

func parentKeySet(parent *Frame, idvar string, idvarVals, sourceUSUBJIDs []string) map[string]bool {
	resolver := Resolver{}
	usubjidCol, ok := resolver.Resolve("USUBJID", parent)
	if !ok {
		return nil
	}
	usubjids := parent.Column(usubjidCol)
	keys := make(map[string]bool, parent.RowCount)
	for row := 0; row < parent.RowCount; row++ {
		idvarval := ""
		if idvar != "" {
			idvarval = valueAt(idvarVals, row)
		}
		keys[valueAt(usubjids, row)+"|"+idvar+"|"+idvarval] = true
	}
	return keys
}

// normalizeQNAM derives an 8-character uppercase alphanumeric QNAM from an
// explicit override or, failing that, the source variable name.
func normalizeQNAM(explicit, sourceVariable string) string {
	candidate := explicit
	if candidate == "" {
		candidate = sourceVariable
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(candidate) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == 8 {
			break
		}
	}
	qnam := b.String()
	if !qnamPattern.MatchString(qnam) {
		return "QUAL"
	}
	return qnam
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
