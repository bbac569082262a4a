package autofix

import (
	"fmt"
	"strings"
	"time"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
	"github.com/SanmaySarada/astraea-sdtm/internal/validation"
)

// maxTruncatedName is the XPT v5 variable-name limit (ASTR-L001).
const maxTruncatedName = 8

// maxTruncatedLabel is the define.xml label limit (ASTR-L002).
const maxTruncatedLabel = 40

// fixDomainColumn rewrites every mismatched DOMAIN value to domain,
// resolving ASTR-T002.
func fixDomainColumn(domain string, table *model.Table) []model.AuditEntry {
	if !table.HasColumn("DOMAIN") {
		return nil
	}
	vals := table.Column("DOMAIN")
	fixed := 0
	for i, v := range vals {
		if v != domain {
			vals[i] = domain
			fixed++
		}
	}
	if fixed == 0 {
		return nil
	}
	return []model.AuditEntry{{
		Timestamp: time.Now().UTC(),
		RuleID:    "ASTR-T002",
		Domain:    domain,
		Variable:  "DOMAIN",
		Action:    fmt.Sprintf("rewrote %d row(s) to DOMAIN=%s", fixed, domain),
	}}
}

// fixCTCase normalizes values that match a codelist term only by case,
// resolving the WARNING (extensible) form of ASTR-T001. Values with no
// case-insensitive match are left untouched; they stay flagged for a human.
func fixCTCase(domain string, table *model.Table, domainSpec *model.DomainSpec, ref validation.ReferenceLookup, variable string) []model.AuditEntry {
	if domainSpec == nil || ref == nil || !table.HasColumn(variable) {
		return nil
	}
	vs, ok := domainSpec.VariableByName(variable)
	if !ok || vs.CodelistCode == "" {
		return nil
	}
	cl, err := ref.LookupCodelist(vs.CodelistCode)
	if err != nil || cl == nil {
		return nil
	}

	caseInsensitive := make(map[string]string, len(cl.Terms))
	for term := range cl.Terms {
		caseInsensitive[strings.ToUpper(term)] = term
	}

	vals := table.Column(variable)
	var entries []model.AuditEntry
	for i, v := range vals {
		if v == "" || cl.HasSubmissionValue(v) {
			continue
		}
		if canonical, ok := caseInsensitive[strings.ToUpper(v)]; ok && canonical != v {
			entries = append(entries, model.AuditEntry{
				Timestamp: time.Now().UTC(),
				RuleID:    "ASTR-T001",
				Domain:    domain,
				Variable:  variable,
				Action:    fmt.Sprintf("row %d: normalized case to match codelist %s", i, vs.CodelistCode),
				Before:    v,
				After:     canonical,
			})
			vals[i] = canonical
		}
	}
	return entries
}

// fixVariableNameLength truncates an over-length column name to
// maxTruncatedName characters, resolving ASTR-L001. If the truncated name
// collides with an existing column, the rename is skipped — left for a
// human rather than silently merging two columns.
func fixVariableNameLength(domain string, table *model.Table, variable string) []model.AuditEntry {
	if !table.HasColumn(variable) || len(variable) <= maxTruncatedName {
		return nil
	}
	truncated := variable[:maxTruncatedName]
	if table.HasColumn(truncated) {
		return nil
	}

	vals := table.Data[variable]
	delete(table.Data, variable)
	table.Data[truncated] = vals
	for i, c := range table.Columns {
		if c == variable {
			table.Columns[i] = truncated
			break
		}
	}

	return []model.AuditEntry{{
		Timestamp: time.Now().UTC(),
		RuleID:    "ASTR-L001",
		Domain:    domain,
		Variable:  variable,
		Action:    "truncated variable name to fit the 8-character XPT v5 limit",
		Before:    variable,
		After:     truncated,
	}}
}

// fixLabelLength truncates vm.Label in place to maxTruncatedLabel
// characters, resolving ASTR-L002. mappingSpec is the sponsor-authored
// DomainMappingSpec, not the reference store's fixed IG label — only a
// sponsor-declared label (e.g. for a SUPPQUAL QLABEL) can safely be
// rewritten.
func fixLabelLength(domain string, mappingSpec *model.DomainMappingSpec, variable string) []model.AuditEntry {
	if mappingSpec == nil {
		return nil
	}
	vm, ok := mappingSpec.VariableMappings[variable]
	if !ok || len(vm.Label) <= maxTruncatedLabel {
		return nil
	}
	before := vm.Label
	vm.Label = strings.TrimSpace(vm.Label[:maxTruncatedLabel])
	return []model.AuditEntry{{
		Timestamp: time.Now().UTC(),
		RuleID:    "ASTR-L002",
		Domain:    domain,
		Variable:  variable,
		Action:    "truncated label to fit the 40-character define.xml limit",
		Before:    before,
		After:     vm.Label,
	}}
}
