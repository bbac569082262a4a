package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/SanmaySarada/astraea-sdtm/internal/config"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
	"github.com/SanmaySarada/astraea-sdtm/internal/refstore"
	"github.com/SanmaySarada/astraea-sdtm/internal/validation"
	"github.com/SanmaySarada/astraea-sdtm/internal/xport"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Run the full validation pass over every executed domain in output/",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ref, err := refstore.Load()
			if err != nil {
				return err
			}

			report, err := runValidation(cfg, ref)
			if err != nil {
				return err
			}
			return writeAndCheckReport(cfg, report)
		},
	}
}

// executedDomains lists every domain with a written <domain>.xpt in
// cfg.OutputDir, sorted — validation operates on executed tables, not on
// domains that have only been mapped so far.
func executedDomains(cfg *config.Config) ([]string, error) {
	entries, err := os.ReadDir(cfg.OutputDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var domains []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xpt") {
			continue
		}
		domains = append(domains, strings.ToUpper(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))))
	}
	sort.Strings(domains)
	return domains, nil
}

// runValidation re-reads every executed domain's XPT file, runs the
// per-domain rule table against each, then the cross-domain and FDA TRC
// rule table against the whole {domain: Table} map, per spec.md §4.8.
func runValidation(cfg *config.Config, ref *refstore.Store) (model.ValidationReport, error) {
	domains, err := executedDomains(cfg)
	if err != nil {
		return model.ValidationReport{}, err
	}
	if len(domains) == 0 {
		return model.ValidationReport{}, fmt.Errorf("validate: no executed domains found in %s (run `astraea execute-domain` first)", cfg.OutputDir)
	}

	codec := xport.Codec{}
	tables := make(map[string]*model.Table, len(domains))
	domainSpecs := make(map[string]*model.DomainSpec, len(domains))
	filenames := make(map[string]string, len(domains))

	var results []model.RuleResult
	for _, domain := range domains {
		path := xptPath(cfg, domain)
		table, _, err := codec.ReadDataset(path)
		if err != nil {
			return model.ValidationReport{}, fmt.Errorf("validate: read %s: %w", path, err)
		}
		domainSpec, err := ref.GetDomainSpec(domain)
		if err != nil {
			return model.ValidationReport{}, err
		}

		info, err := os.Stat(path)
		var size int64
		if err == nil {
			size = info.Size()
		}

		tables[domain] = table
		domainSpecs[domain] = domainSpec
		filenames[domain] = filepath.Base(path)

		results = append(results, validation.ValidateDomain(validation.DomainContext{
			Domain:        domain,
			Table:         table,
			DomainSpec:    domainSpec,
			Ref:           ref,
			Filename:      filepath.Base(path),
			FileSizeBytes: size,
		})...)
	}

	_, defineErr := os.Stat(defineXMLPath(cfg))
	crossCtx := validation.CrossDomainContext{
		Tables:           tables,
		DomainSpecs:      domainSpecs,
		Filenames:        filenames,
		DefineXMLPresent: defineErr == nil,
		TSHasSSTDTCParam: tsHasSSTDTC(tables["TS"]),
	}
	results = append(results, validation.ValidateCrossDomain(crossCtx)...)

	whitelist, err := validation.LoadWhitelist(cfg.WhitelistPath)
	if err != nil {
		return model.ValidationReport{}, err
	}

	report := validation.BuildReport(results, whitelist)
	report.GeneratedAt = time.Now().UTC()
	return report, nil
}

func tsHasSSTDTC(ts *model.Table) bool {
	if ts == nil || !ts.HasColumn("TSPARMCD") {
		return false
	}
	for _, v := range ts.Data["TSPARMCD"] {
		if v == "SSTDTC" {
			return true
		}
	}
	return false
}

// writeAndCheckReport persists report in both the JSON and rendered
// Markdown forms spec.md §6 names, prints a one-line summary, and returns
// a non-nil error iff the report isn't submission ready — the caller's
// exit code is this error's presence, per spec.md §6's exit-status rule.
func writeAndCheckReport(cfg *config.Config, report model.ValidationReport) error {
	if err := writeJSON(validationReportJSONPath(cfg), report); err != nil {
		return err
	}
	if err := ensureDir(validationReportMDPath(cfg)); err != nil {
		return err
	}
	if err := os.WriteFile(validationReportMDPath(cfg), []byte(renderValidationMarkdown(report)), 0o644); err != nil {
		return fmt.Errorf("validate: write %s: %w", validationReportMDPath(cfg), err)
	}

	printReportSummary(report)
	if !report.SubmissionReady {
		return fmt.Errorf("validate: %d unsuppressed error(s); see %s", report.EffectiveErrorCount, validationReportMDPath(cfg))
	}
	return nil
}

func printReportSummary(report model.ValidationReport) {
	if report.SubmissionReady {
		color.Green("validation passed: %d finding(s), pass rate %.1f%%", len(report.Results), report.PassRate*100)
		return
	}
	color.Red("validation failed: %d unsuppressed error(s) of %d finding(s)", report.EffectiveErrorCount, len(report.Results))
}

// renderValidationMarkdown produces a human-readable validation_report.md
// alongside the machine-readable JSON report — no existing renderer covers
// this shape, so it's written directly in the teacher's plain-table style.
func renderValidationMarkdown(report model.ValidationReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Validation Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", report.GeneratedAt.Format(time.RFC3339))
	if report.SubmissionReady {
		fmt.Fprintf(&b, "**Submission ready.**\n\n")
	} else {
		fmt.Fprintf(&b, "**Not submission ready** — %d unsuppressed error(s).\n\n", report.EffectiveErrorCount)
	}
	fmt.Fprintf(&b, "Pass rate: %.1f%% (%d finding(s) total)\n\n", report.PassRate*100, len(report.Results))

	domains := make([]string, 0, len(report.DomainSummaries))
	for d := range report.DomainSummaries {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	b.WriteString("## Domain Summary\n\n")
	b.WriteString("| Domain | Errors | Warnings | Notices |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, d := range domains {
		s := report.DomainSummaries[d]
		fmt.Fprintf(&b, "| %s | %d | %d | %d |\n", d, s.ErrorCount, s.WarningCount, s.NoticeCount)
	}

	b.WriteString("\n## Findings\n\n")
	b.WriteString("| Rule | Severity | Domain | Variable | Message | Suppressed |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, r := range report.Results {
		suppressed := ""
		if r.KnownFalsePositive {
			suppressed = r.KnownFalsePositiveReason
			if suppressed == "" {
				suppressed = "yes"
			}
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			r.RuleID, r.Severity, r.Domain, r.Variable, escapeMarkdownCell(r.Message), suppressed)
	}
	return b.String()
}

func escapeMarkdownCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", "\\|"), "\n", " ")
}
