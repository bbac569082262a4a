package validation

import (
	"fmt"

	"github.com/SanmaySarada/astraea-sdtm/internal/dateutil"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// astrC001NonDMUSUBJIDInDM requires every USUBJID appearing in a non-DM
// domain to also appear in DM, via dateutil.ValidateUSUBJIDConsistency.
func astrC001NonDMUSUBJIDInDM(ctx CrossDomainContext) []model.RuleResult {
	dm, ok := ctx.Tables["DM"]
	if !ok || !dm.HasColumn("USUBJID") {
		return nil
	}
	others := make(map[string][]string)
	for domain, t := range ctx.Tables {
		if domain == "DM" || !t.HasColumn("USUBJID") {
			continue
		}
		others[domain] = t.Column("USUBJID")
	}
	errs := dateutil.ValidateUSUBJIDConsistency(dm.Column("USUBJID"), others)
	results := make([]model.RuleResult, 0, len(errs))
	for _, err := range errs {
		results = append(results, newResult("ASTR-C001", model.CategoryConsistency, model.SeverityError,
			"", "USUBJID", err.Error(), 1))
	}
	return results
}

// astrC002SingleSTUDYID requires every domain's STUDYID column to carry
// exactly one value, and that value to match across domains.
func astrC002SingleSTUDYID(ctx CrossDomainContext) []model.RuleResult {
	seen := make(map[string]string) // studyid -> first domain that had it
	var results []model.RuleResult
	for domain, t := range ctx.Tables {
		if !t.HasColumn("STUDYID") {
			continue
		}
		studyIDs := make(map[string]bool)
		for _, v := range t.Column("STUDYID") {
			if v != "" {
				studyIDs[v] = true
			}
		}
		if len(studyIDs) > 1 {
			results = append(results, newResult("ASTR-C002", model.CategoryConsistency, model.SeverityError,
				domain, "STUDYID", fmt.Sprintf("domain %s carries %d distinct STUDYID values", domain, len(studyIDs)), len(studyIDs)))
			continue
		}
		for sid := range studyIDs {
			if first, ok := seen[sid]; ok && first != "" {
				continue
			}
			seen[sid] = domain
		}
	}
	if len(seen) > 1 {
		results = append(results, newResult("ASTR-C002", model.CategoryConsistency, model.SeverityError,
			"", "STUDYID", fmt.Sprintf("%d distinct STUDYID values found across domains", len(seen)), len(seen)))
	}
	return results
}

// astrC003RFSTDTCEqualsMinEXSTDTC warns when DM's RFSTDTC does not equal
// the earliest EXSTDTC recorded for the same subject in EX.
func astrC003RFSTDTCEqualsMinEXSTDTC(ctx CrossDomainContext) []model.RuleResult {
	dm, ok := ctx.Tables["DM"]
	if !ok || !dm.HasColumn("USUBJID") || !dm.HasColumn("RFSTDTC") {
		return nil
	}
	ex, ok := ctx.Tables["EX"]
	if !ok || !ex.HasColumn("USUBJID") || !ex.HasColumn("EXSTDTC") {
		return nil
	}
	minBySubject := make(map[string]string)
	exUSUBJIDs, exDates := ex.Column("USUBJID"), ex.Column("EXSTDTC")
	for i, subj := range exUSUBJIDs {
		if i >= len(exDates) || exDates[i] == "" {
			continue
		}
		if cur, ok := minBySubject[subj]; !ok || exDates[i] < cur {
			minBySubject[subj] = exDates[i]
		}
	}

	dmUSUBJIDs, rfstdtcs := dm.Column("USUBJID"), dm.Column("RFSTDTC")
	mismatched := 0
	for i, subj := range dmUSUBJIDs {
		if i >= len(rfstdtcs) || rfstdtcs[i] == "" {
			continue
		}
		if minExst, ok := minBySubject[subj]; ok && minExst != rfstdtcs[i] {
			mismatched++
		}
	}
	if mismatched == 0 {
		return nil
	}
	return []model.RuleResult{newResult("ASTR-C003", model.CategoryConsistency, model.SeverityWarning,
		"DM", "RFSTDTC", fmt.Sprintf("%d subject(s) have RFSTDTC != min(EXSTDTC)", mismatched), mismatched)}
}

// astrC004DomainColumnMatchesKey checks every domain's DOMAIN column
// matches the map key it is stored under (the per-domain ASTR-T002 check
// re-run with the authoritative domain-registry key, to catch a table
// filed under the wrong domain entirely).
func astrC004DomainColumnMatchesKey(ctx CrossDomainContext) []model.RuleResult {
	var results []model.RuleResult
	for domain, t := range ctx.Tables {
		if !t.HasColumn("DOMAIN") {
			continue
		}
		mismatched := 0
		for _, v := range t.Column("DOMAIN") {
			if v != domain {
				mismatched++
			}
		}
		if mismatched > 0 {
			results = append(results, newResult("ASTR-C004", model.CategoryConsistency, model.SeverityError,
				domain, "DOMAIN", fmt.Sprintf("%d row(s) of domain %s have a mismatched DOMAIN value", mismatched, domain), mismatched))
		}
	}
	return results
}

// astrC005StudyDaySignMatchesRFSTDTC warns when a --DY value's sign
// disagrees with dateutil.StudyDay's own recomputation from the row's
// --DTC column and the subject's DM RFSTDTC.
func astrC005StudyDaySignMatchesRFSTDTC(ctx CrossDomainContext) []model.RuleResult {
	dm, ok := ctx.Tables["DM"]
	if !ok || !dm.HasColumn("USUBJID") || !dm.HasColumn("RFSTDTC") {
		return nil
	}
	rfstdtcBySubject := make(map[string]string)
	dmUSUBJIDs, rfstdtcs := dm.Column("USUBJID"), dm.Column("RFSTDTC")
	for i, subj := range dmUSUBJIDs {
		if i < len(rfstdtcs) {
			rfstdtcBySubject[subj] = rfstdtcs[i]
		}
	}

	var results []model.RuleResult
	for domain, t := range ctx.Tables {
		dyCol := domain + "DY"
		dtcCol := domain + "STDTC"
		if !t.HasColumn(dyCol) || !t.HasColumn(dtcCol) || !t.HasColumn("USUBJID") {
			continue
		}
		usubjids, dys, dtcs := t.Column("USUBJID"), t.Column(dyCol), t.Column(dtcCol)
		mismatched := 0
		for i, subj := range usubjids {
			if i >= len(dys) || i >= len(dtcs) || dys[i] == "" || dtcs[i] == "" {
				continue
			}
			rfstdtc := rfstdtcBySubject[subj]
			if rfstdtc == "" {
				continue
			}
			recomputed, err := dateutil.StudyDay(dtcs[i], rfstdtc)
			if err != nil {
				continue
			}
			recordedPositive := len(dys[i]) > 0 && dys[i][0] != '-'
			if recomputed >= 0 != recordedPositive {
				mismatched++
			}
		}
		if mismatched > 0 {
			results = append(results, newResult("ASTR-C005", model.CategoryConsistency, model.SeverityWarning,
				domain, dyCol, fmt.Sprintf("%d row(s) of %s have a sign mismatch against recomputed study day", mismatched, dyCol), mismatched))
		}
	}
	return results
}
