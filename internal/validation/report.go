package validation

import (
	"go.uber.org/multierr"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// BuildReport applies the known-false-positive whitelist to results,
// aggregates per-domain and per-category summaries, and computes the
// submission_ready verdict, per spec.md §4.8: a result flagged
// known_false_positive is still retained in Results (for audit visibility)
// but excluded from effective_error_count and the pass rate.
func BuildReport(results []model.RuleResult, whitelist []model.WhitelistEntry) model.ValidationReport {
	domainSummaries := make(map[string]model.DomainSummary)
	categorySummaries := make(map[model.RuleCategory]int)
	effectiveErrors := 0

	for i := range results {
		r := &results[i]
		for _, entry := range whitelist {
			if entry.Matches(*r) {
				r.KnownFalsePositive = true
				r.KnownFalsePositiveReason = entry.Reason
				break
			}
		}

		categorySummaries[r.Category]++

		summary := domainSummaries[r.Domain]
		summary.Domain = r.Domain
		switch r.Severity {
		case model.SeverityError:
			summary.ErrorCount++
			if !r.KnownFalsePositive {
				summary.EffectiveErrorCount++
				effectiveErrors++
			}
		case model.SeverityWarning:
			summary.WarningCount++
		case model.SeverityNotice:
			summary.NoticeCount++
		}
		domainSummaries[r.Domain] = summary
	}

	// pass_rate is the % of domains with zero effective (non-whitelisted)
	// errors, per spec.md §3/§4.8 — not a per-finding ratio.
	passRate := 1.0
	if len(domainSummaries) > 0 {
		domainsPassing := 0
		for _, s := range domainSummaries {
			if s.EffectiveErrorCount == 0 {
				domainsPassing++
			}
		}
		passRate = float64(domainsPassing) / float64(len(domainSummaries))
	}

	return model.ValidationReport{
		Results:             results,
		DomainSummaries:     domainSummaries,
		CategorySummaries:   categorySummaries,
		PassRate:            passRate,
		EffectiveErrorCount: effectiveErrors,
		SubmissionReady:     effectiveErrors == 0,
	}
}

// SubmissionBlockingError combines every non-suppressed ERROR-severity
// result in report into a single error via go.uber.org/multierr, for a
// caller (the CLI's validate/execute-domain commands) that wants one error
// to return rather than walking report.Results itself. Returns nil when
// report.SubmissionReady is true.
func SubmissionBlockingError(report model.ValidationReport) error {
	var combined error
	for _, r := range report.Results {
		if r.Severity != model.SeverityError || r.KnownFalsePositive {
			continue
		}
		combined = multierr.Append(combined, r)
	}
	return combined
}
