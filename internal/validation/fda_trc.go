package validation

import (
	"fmt"
	"strings"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// fdaTRC1734TSHasSSTDTC requires a TS domain carrying an SSTDTC parameter
// row.
func fdaTRC1734TSHasSSTDTC(ctx CrossDomainContext) []model.RuleResult {
	if _, ok := ctx.Tables["TS"]; !ok {
		return []model.RuleResult{newResult("FDA-TRC-1734", model.CategoryFDATRC, model.SeverityError,
			"TS", "", "no TS domain present", 1)}
	}
	if !ctx.TSHasSSTDTCParam {
		return []model.RuleResult{newResult("FDA-TRC-1734", model.CategoryFDATRC, model.SeverityError,
			"TS", "SSTDTC", "TS domain has no SSTDTC parameter row", 1)}
	}
	return nil
}

// fdaTRC1735DefineXMLExists requires define.xml to be present in the
// submission package.
func fdaTRC1735DefineXMLExists(ctx CrossDomainContext) []model.RuleResult {
	if ctx.DefineXMLPresent {
		return nil
	}
	return []model.RuleResult{newResult("FDA-TRC-1735", model.CategoryFDATRC, model.SeverityError,
		"", "", "define.xml is not present in the submission package", 1)}
}

// fdaTRC1736DMPresent requires a DM domain.
func fdaTRC1736DMPresent(ctx CrossDomainContext) []model.RuleResult {
	if _, ok := ctx.Tables["DM"]; ok {
		return nil
	}
	return []model.RuleResult{newResult("FDA-TRC-1736", model.CategoryFDATRC, model.SeverityError,
		"DM", "", "no DM domain present", 1)}
}

// fdaTRCSTUDYIDConsistent is the FDA TRC framing of ASTR-C002: STUDYID
// must be a single consistent value across every domain.
func fdaTRCSTUDYIDConsistent(ctx CrossDomainContext) []model.RuleResult {
	seen := make(map[string]bool)
	for _, t := range ctx.Tables {
		if !t.HasColumn("STUDYID") {
			continue
		}
		for _, v := range t.Column("STUDYID") {
			if v != "" {
				seen[v] = true
			}
		}
	}
	if len(seen) <= 1 {
		return nil
	}
	return []model.RuleResult{newResult("FDA-TRC-STUDYID", model.CategoryFDATRC, model.SeverityError,
		"", "STUDYID", fmt.Sprintf("%d distinct STUDYID values found across the submission package", len(seen)), len(seen))}
}

// fdaTRCFilenameLowercase requires every written file to be named the
// lowercase domain code plus .xpt.
func fdaTRCFilenameLowercase(ctx CrossDomainContext) []model.RuleResult {
	var results []model.RuleResult
	for domain, filename := range ctx.Filenames {
		want := strings.ToLower(domain) + ".xpt"
		if !strings.HasSuffix(filename, want) {
			results = append(results, newResult("FDA-TRC-FILENAME", model.CategoryFDATRC, model.SeverityError,
				domain, "", fmt.Sprintf("filename %q does not end in %q", filename, want), 1))
		}
	}
	return results
}
