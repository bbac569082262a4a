package artifacts

import (
	"fmt"
	"strings"
	"time"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// Package-level size thresholds (spec.md §4.10).
const (
	maxTotalPackageBytes = 5 * 1024 * 1024 * 1024 // 5GB
	maxPerFileBytes      = 1 * 1024 * 1024 * 1024 // 1GB
)

// splitGuidance names the domain-specific variable a large Findings domain
// can split its dataset by, per spec.md §4.10's "LB → split by LBCAT"
// example.
var splitGuidance = map[string]string{
	"LB": "LBCAT",
	"EG": "EGCAT",
	"VS": "VSCAT",
	"QS": "QSCAT",
}

// PackagePolicy enforces the fixed submission-package limits of spec.md
// §4.10: total size, per-file size, filename casing, and define.xml
// presence.
//
// Grounded on the teacher's internal/quota.PolicyEngine — a fixed-struct
// policy checked against observed usage — generalized here from a
// token/request quota to a transport-file size and presence check.
type PackagePolicy struct {
	MaxTotalBytes int64
	MaxFileBytes  int64
}

// DefaultPackagePolicy returns the fixed spec.md §4.10 thresholds.
func DefaultPackagePolicy() PackagePolicy {
	return PackagePolicy{MaxTotalBytes: maxTotalPackageBytes, MaxFileBytes: maxPerFileBytes}
}

// Enforce checks files against p, returning every RuleResult-shaped
// finding (ERROR on a total-size or filename-casing breach, WARNING with
// split guidance on a per-file breach), plus the built manifest.
func (p PackagePolicy) Enforce(files []model.PackageFile, defineXMLPresent, csdrgPresent bool) (model.PackageManifest, []model.RuleResult) {
	var findings []model.RuleResult
	var total int64

	for _, f := range files {
		total += f.Size

		domain := domainFromFilename(f.Name)
		if domain != "" {
			want := strings.ToLower(domain) + ".xpt"
			if f.Name != want {
				findings = append(findings, model.RuleResult{
					RuleID: "ASTR-PKG-FILENAME", Category: model.CategoryFormat, Severity: model.SeverityError,
					Domain: domain, Message: fmt.Sprintf("filename %q must be lowercase %q", f.Name, want),
					AffectedCount: 1,
				})
			}
		}

		if f.Size > p.MaxFileBytes {
			msg := fmt.Sprintf("%s is %d bytes, over the 1GB per-file threshold", f.Name, f.Size)
			if guide, ok := splitGuidance[domain]; ok {
				msg = fmt.Sprintf("%s; consider splitting by %s", msg, guide)
			}
			findings = append(findings, model.RuleResult{
				RuleID: "ASTR-PKG-FILESIZE", Category: model.CategoryLimit, Severity: model.SeverityWarning,
				Domain: domain, Message: msg, AffectedCount: 1,
			})
		}
	}

	if total > p.MaxTotalBytes {
		findings = append(findings, model.RuleResult{
			RuleID: "ASTR-PKG-TOTALSIZE", Category: model.CategoryLimit, Severity: model.SeverityError,
			Message:       fmt.Sprintf("package total size %d bytes exceeds the 5GB submission limit", total),
			AffectedCount: 1,
		})
	}
	if !defineXMLPresent {
		findings = append(findings, model.RuleResult{
			RuleID: "ASTR-PKG-DEFINEXML", Category: model.CategoryPresence, Severity: model.SeverityError,
			Message: "define.xml is required in a submission package but was not found", AffectedCount: 1,
		})
	}

	manifest := model.PackageManifest{
		Files:            files,
		TotalSize:        total,
		DefineXMLPresent: defineXMLPresent,
		CSDRGPresent:     csdrgPresent,
		GeneratedAt:      time.Now().UTC(),
	}
	return manifest, findings
}

// domainFromFilename extracts the domain code from a "<domain>.xpt"-shaped
// filename (case-insensitively, to also catch miscased filenames this
// package should flag), or "" if the filename isn't shaped that way.
func domainFromFilename(name string) string {
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".xpt") || len(name) <= 4 {
		return ""
	}
	stem := name[:len(name)-4]
	return strings.ToUpper(stem)
}
