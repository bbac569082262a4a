package review

import (
	"fmt"
	"strings"

	"github.com/SanmaySarada/astraea-sdtm/internal/diff"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// RenderDiff renders a unified diff between a proposed mapping and its
// reviewer correction, one field per line, reusing the pipeline's
// general-purpose text differ rather than a bespoke struct-field comparer.
func RenderDiff(original, corrected model.VariableMapping) string {
	before := mappingText(original)
	after := mappingText(corrected)
	return diff.FormatUnified(diff.Diff(before, after))
}

func mappingText(vm model.VariableMapping) string {
	var b strings.Builder
	fmt.Fprintf(&b, "pattern: %s\n", vm.Pattern)
	fmt.Fprintf(&b, "source_dataset: %s\n", vm.SourceDataset)
	fmt.Fprintf(&b, "source_variable: %s\n", vm.SourceVariable)
	fmt.Fprintf(&b, "derivation_rule: %s\n", vm.DerivationRule)
	fmt.Fprintf(&b, "confidence_score: %.2f\n", vm.ConfidenceScore)
	return b.String()
}
