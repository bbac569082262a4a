package engine

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/multierr"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// commonNonASCIIReplacements covers the typographic substitutions word
// processors and EDC exports routinely introduce (smart quotes, en/em
// dashes, ellipsis, non-breaking space).
var commonNonASCIIReplacements = map[rune]string{
	'‘': "'", '’': "'",
	'“': `"`, '”': `"`,
	'–': "-", '—': "-",
	'…': "...", ' ': " ",
}

// asciiFolder decomposes accented characters (é -> e + combining acute)
// via Unicode NFKD and drops the combining marks, folding é/ñ/ü-style text
// down to plain ASCII where a clean equivalent exists.
var asciiFolder = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// FixNonASCII applies the common-substitution table, then NFKD diacritic
// folding, per spec.md §4.6's "fix-common-non-ASCII pass, then hard fail on
// any remaining non-ASCII." Characters with no clean ASCII equivalent are
// left as-is for the caller to detect and reject.
func FixNonASCII(s string) string {
	var b strings.Builder
	for _, r := range s {
		if repl, ok := commonNonASCIIReplacements[r]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteRune(r)
	}
	folded, _, err := transform.String(asciiFolder, b.String())
	if err != nil {
		return b.String()
	}
	return folded
}

// ComplianceViolation is one breach of the XPT v5 compliance pass that
// repair could not resolve.
type ComplianceViolation struct {
	Variable string
	Message  string
}

func (v ComplianceViolation) Error() string {
	return fmt.Sprintf("%s: %s", v.Variable, v.Message)
}

// EnforceCompliance runs the pre-write compliance pass: ASCII repair
// (mutating cell values in place), a byte-length check, unknown-column
// rejection, reorder to DomainSpec order, and sort by key_variables. It
// returns the new, reordered Table on success, or every violation found
// (repair already applied) on failure.
func EnforceCompliance(t *model.Table, domainSpec *model.DomainSpec) (*model.Table, []ComplianceViolation, error) {
	var violations []ComplianceViolation

	for _, col := range t.Columns {
		vals := t.Column(col)
		for i, v := range vals {
			fixed := FixNonASCII(v)
			vals[i] = fixed
			n, ascii := asciiByteLen(fixed)
			if !ascii {
				violations = append(violations, ComplianceViolation{Variable: col, Message: fmt.Sprintf("row %d: non-ASCII byte(s) remain after repair", i)})
				continue
			}
			if n > 200 {
				violations = append(violations, ComplianceViolation{Variable: col, Message: fmt.Sprintf("row %d: value exceeds the 200-byte character limit (%d bytes)", i, n)})
			}
		}
	}

	order := domainSpec.VariableNames()
	for _, name := range unknownColumns(t, order) {
		violations = append(violations, ComplianceViolation{Variable: name, Message: "column is not declared in the domain spec (SUPPQUAL candidates belong in a separate dataset)"})
	}
	if len(violations) > 0 {
		var combined error
		for _, v := range violations {
			combined = multierr.Append(combined, v)
		}
		return nil, violations, fmt.Errorf("engine: XPT compliance pass found %d violation(s): %w", len(violations), combined)
	}

	reordered := t.Reorder(order)
	sortByKeyVariables(reordered, domainSpec.KeyVariables)
	return reordered, nil, nil
}

func asciiByteLen(s string) (int, bool) {
	n := 0
	for _, r := range s {
		if r > unicode.MaxASCII {
			return n, false
		}
		n += len(string(r))
	}
	return n, true
}

func unknownColumns(t *model.Table, order []string) []string {
	known := make(map[string]bool, len(order))
	for _, o := range order {
		known[o] = true
	}
	var unknown []string
	for _, c := range t.Columns {
		if !known[c] {
			unknown = append(unknown, c)
		}
	}
	return unknown
}

// sortByKeyVariables reorders t's rows lexicographically by keyVars,
// mutating every column in place.
func sortByKeyVariables(t *model.Table, keyVars []string) {
	if len(keyVars) == 0 || t.RowCount == 0 {
		return
	}
	var keyCols [][]string
	for _, k := range keyVars {
		if t.HasColumn(k) {
			keyCols = append(keyCols, t.Column(k))
		}
	}
	idx := make([]int, t.RowCount)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		for _, col := range keyCols {
			va, vb := valueAt(col, idx[a]), valueAt(col, idx[b])
			if va != vb {
				return va < vb
			}
		}
		return false
	})
	for _, col := range t.Columns {
		vals := t.Column(col)
		reordered := make([]string, len(vals))
		for newPos, oldPos := range idx {
			reordered[newPos] = valueAt(vals, oldPos)
		}
		t.Data[col] = reordered
	}
}
