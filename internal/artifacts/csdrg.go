package artifacts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// CSDRGInput is everything RenderCSDRG needs to build the Clinical Study
// Data Reviewer's Guide for one study, per spec.md §4.10's 8 PHUSE
// sections.
type CSDRGInput struct {
	StudyID              string
	StudyDescription      string // human-authored; "" renders a placeholder
	SDTMIGVersion        string
	CTVersion            string
	MappingSpecs         map[string]*model.DomainMappingSpec
	ValidationReport     *model.ValidationReport
	NonStandardVariables map[string][]string
}

// RenderCSDRG composes the cSDRG Markdown document from in, following the
// teacher's section-builder-per-method composition
// (internal/converter/spec_renderer.go's renderSpec).
func RenderCSDRG(in CSDRGInput) string {
	var b strings.Builder
	renderCSDRGIntroduction(&b, in)
	renderCSDRGStudyDescription(&b, in)
	renderCSDRGDataStandards(&b, in)
	renderCSDRGDatasetOverview(&b, in)
	renderCSDRGDomainSpecificInformation(&b, in)
	renderCSDRGDataIssues(&b, in)
	renderCSDRGValidationResults(&b, in)
	renderCSDRGNonStandardVariables(&b, in)
	return b.String()
}

func renderCSDRGIntroduction(b *strings.Builder, in CSDRGInput) {
	fmt.Fprintf(b, "# Clinical Study Data Reviewer's Guide\n\n")
	fmt.Fprintf(b, "## 1. Introduction\n\n")
	fmt.Fprintf(b, "This document describes the SDTM submission datasets for study %s.\n\n", in.StudyID)
}

func renderCSDRGStudyDescription(b *strings.Builder, in CSDRGInput) {
	fmt.Fprintf(b, "## 2. Study Description\n\n")
	if in.StudyDescription == "" {
		fmt.Fprintf(b, "_Requires human input: a narrative study description has not yet been supplied._\n\n")
		return
	}
	fmt.Fprintf(b, "%s\n\n", in.StudyDescription)
}

func renderCSDRGDataStandards(b *strings.Builder, in CSDRGInput) {
	fmt.Fprintf(b, "## 3. Data Standards\n\n")
	fmt.Fprintf(b, "- SDTM-IG version: %s\n", in.SDTMIGVersion)
	fmt.Fprintf(b, "- Controlled Terminology version: %s\n\n", in.CTVersion)
}

func renderCSDRGDatasetOverview(b *strings.Builder, in CSDRGInput) {
	fmt.Fprintf(b, "## 4. Dataset Overview\n\n")
	fmt.Fprintf(b, "| Domain | Variables | Required Mapped | Missing Required |\n")
	fmt.Fprintf(b, "|---|---|---|---|\n")
	for _, domain := range sortedMappingSpecKeys(in.MappingSpecs) {
		ms := in.MappingSpecs[domain]
		fmt.Fprintf(b, "| %s | %d | %d | %d |\n", domain, ms.TotalVariables, ms.RequiredMapped, len(ms.MissingRequiredVariables))
	}
	b.WriteString("\n")
}

func renderCSDRGDomainSpecificInformation(b *strings.Builder, in CSDRGInput) {
	fmt.Fprintf(b, "## 5. Domain-Specific Information\n\n")
	for _, domain := range sortedMappingSpecKeys(in.MappingSpecs) {
		ms := in.MappingSpecs[domain]
		fmt.Fprintf(b, "### %s\n\n", domain)

		patternCounts := make(map[model.Pattern]int)
		for _, vm := range ms.Ordered() {
			patternCounts[vm.Pattern]++
		}
		fmt.Fprintf(b, "Mapping pattern breakdown:\n\n")
		for _, pattern := range sortedPatternKeys(patternCounts) {
			fmt.Fprintf(b, "- %s: %d variable(s)\n", pattern, patternCounts[pattern])
		}
		b.WriteString("\n")

		if len(ms.SuppqualCandidates) > 0 {
			fmt.Fprintf(b, "SUPPQUAL candidates: %s\n\n", strings.Join(ms.SuppqualCandidates, ", "))
		}
		if len(ms.MissingRequiredVariables) > 0 {
			fmt.Fprintf(b, "Missing Required variables: %s\n\n", strings.Join(ms.MissingRequiredVariables, ", "))
		}
	}
}

func renderCSDRGDataIssues(b *strings.Builder, in CSDRGInput) {
	fmt.Fprintf(b, "## 6. Data Issues\n\n")
	any := false
	for _, domain := range sortedMappingSpecKeys(in.MappingSpecs) {
		for _, issue := range in.MappingSpecs[domain].PredictPreventIssues {
			any = true
			fmt.Fprintf(b, "- [%s] %s (%s): %s\n", issue.Severity, domain, issue.RuleID, issue.Message)
		}
	}
	if !any {
		fmt.Fprintf(b, "No predict-and-prevent issues were raised during mapping.\n")
	}
	b.WriteString("\n")
}

func renderCSDRGValidationResults(b *strings.Builder, in CSDRGInput) {
	fmt.Fprintf(b, "## 7. Validation Results\n\n")
	if in.ValidationReport == nil {
		fmt.Fprintf(b, "_Validation has not yet been run._\n\n")
		return
	}
	fmt.Fprintf(b, "Pass rate: %.1f%%. Submission ready: %t.\n\n", in.ValidationReport.PassRate*100, in.ValidationReport.SubmissionReady)

	var falsePositives []model.RuleResult
	for _, r := range in.ValidationReport.Results {
		if r.KnownFalsePositive {
			falsePositives = append(falsePositives, r)
		}
	}
	if len(falsePositives) > 0 {
		fmt.Fprintf(b, "### Known False Positives\n\n")
		for _, r := range falsePositives {
			fmt.Fprintf(b, "- %s (%s/%s): %s\n", r.RuleID, r.Domain, r.Variable, r.KnownFalsePositiveReason)
		}
		b.WriteString("\n")
	}
}

func renderCSDRGNonStandardVariables(b *strings.Builder, in CSDRGInput) {
	fmt.Fprintf(b, "## 8. Non-Standard Variables\n\n")
	any := false
	for _, domain := range sortedStringMapKeys(in.NonStandardVariables) {
		vars := in.NonStandardVariables[domain]
		if len(vars) == 0 {
			continue
		}
		any = true
		fmt.Fprintf(b, "- %s: %s\n", domain, strings.Join(vars, ", "))
	}
	if !any {
		fmt.Fprintf(b, "No non-standard variables were carried in this submission.\n")
	}
}

func sortedMappingSpecKeys(m map[string]*model.DomainMappingSpec) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedStringMapKeys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedPatternKeys(m map[model.Pattern]int) []model.Pattern {
	out := make([]model.Pattern, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
