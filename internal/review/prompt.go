package review

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	lowConf     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	medConf     = lipgloss.NewStyle().Foreground(lipgloss.Color("221"))
	highConf    = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
)

// confidenceStyle returns the style grouping variables by confidence level
// for the reviewer's at-a-glance table (spec.md §4.11 allows grouping by
// confidence instead of a strict one-at-a-time walk).
func confidenceStyle(level model.ConfidenceLevel) lipgloss.Style {
	switch level {
	case model.ConfidenceHigh:
		return highConf
	case model.ConfidenceMedium:
		return medConf
	default:
		return lowConf
	}
}

// TerminalPrompter is the interactive Prompter backed by huh forms.
type TerminalPrompter struct{}

// Decide renders one variable's proposal plus a MODIFY diff preview (when
// applicable) and asks the reviewer for accept/modify/reject. ADD is not
// offered here; PromptAdd collects it.
func (TerminalPrompter) Decide(domain string, index int, vm *model.VariableMapping) (model.HumanCorrection, error) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("%s.%s", domain, vm.SDTMVariable)))
	fmt.Println(confidenceStyle(vm.ConfidenceLevel).Render(
		fmt.Sprintf("pattern=%s confidence=%.2f (%s) rationale=%s", vm.Pattern, vm.ConfidenceScore, vm.ConfidenceLevel, vm.ConfidenceRationale)))

	var choice string
	if err := huh.NewSelect[string]().
		Title(fmt.Sprintf("Decision for %s", vm.SDTMVariable)).
		Options(
			huh.NewOption("Accept", string(model.CorrectionAccept)),
			huh.NewOption("Modify", string(model.CorrectionModify)),
			huh.NewOption("Reject", string(model.CorrectionReject)),
		).
		Value(&choice).
		Run(); err != nil {
		return model.HumanCorrection{}, fmt.Errorf("review: prompt failed: %w", err)
	}

	decision := model.HumanCorrection{
		CorrectionType:  model.CorrectionType(choice),
		OriginalMapping: *vm,
	}

	if decision.CorrectionType == model.CorrectionModify {
		corrected, reason, err := promptCorrection(*vm)
		if err != nil {
			return model.HumanCorrection{}, err
		}
		fmt.Println(RenderDiff(*vm, corrected))
		decision.CorrectedMapping = &corrected
		decision.Reason = reason
	}

	return decision, nil
}

// promptCorrection collects a reviewer's replacement values for the fields
// most commonly corrected: source_variable and derivation_rule.
func promptCorrection(original model.VariableMapping) (model.VariableMapping, string, error) {
	corrected := original
	var reason string

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("source_variable").Value(&corrected.SourceVariable),
			huh.NewInput().Title("derivation_rule").Value(&corrected.DerivationRule),
			huh.NewInput().Title("reason for correction").Value(&reason),
		),
	).Run()
	if err != nil {
		return model.VariableMapping{}, "", fmt.Errorf("review: correction prompt failed: %w", err)
	}
	return corrected, reason, nil
}

// PromptAdd asks the reviewer to supply a new mapping for an unmapped
// target (correction_type ADD), used when a required variable is in
// missing_required_variables.
func PromptAdd(domain, sdtmVariable string) (model.HumanCorrection, error) {
	vm := model.VariableMapping{SDTMVariable: sdtmVariable}
	var pattern string

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("pattern").
				Options(
					huh.NewOption("DIRECT", string(model.PatternDirect)),
					huh.NewOption("DERIVATION", string(model.PatternDerivation)),
					huh.NewOption("ASSIGN", string(model.PatternAssign)),
				).Value(&pattern),
			huh.NewInput().Title("source_variable").Value(&vm.SourceVariable),
			huh.NewInput().Title("derivation_rule").Value(&vm.DerivationRule),
		),
	).Run()
	if err != nil {
		return model.HumanCorrection{}, fmt.Errorf("review: add prompt failed: %w", err)
	}
	vm.Pattern = model.Pattern(pattern)

	return model.HumanCorrection{
		CorrectionType:   model.CorrectionAdd,
		OriginalMapping:  model.VariableMapping{SDTMVariable: sdtmVariable},
		CorrectedMapping: &vm,
	}, nil
}
