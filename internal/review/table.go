package review

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// SummaryTable renders a fixed-width, confidence-grouped overview of every
// mapping in spec, for the reviewer to scan before stepping through
// individual decisions. go-runewidth accounts for wide eCRF-derived labels
// that may contain non-ASCII text.
func SummaryTable(spec *model.DomainMappingSpec) string {
	mappings := spec.Ordered()

	nameWidth, patternWidth := len("VARIABLE"), len("PATTERN")
	for _, vm := range mappings {
		if w := runewidth.StringWidth(vm.SDTMVariable); w > nameWidth {
			nameWidth = w
		}
		if w := runewidth.StringWidth(string(vm.Pattern)); w > patternWidth {
			patternWidth = w
		}
	}

	var b strings.Builder
	writeRow(&b, "VARIABLE", nameWidth, "PATTERN", patternWidth, "CONF", "LEVEL")
	for _, label := range []model.ConfidenceLevel{model.ConfidenceHigh, model.ConfidenceMedium, model.ConfidenceLow} {
		for _, vm := range mappings {
			if vm.ConfidenceLevel != label {
				continue
			}
			writeRow(&b, vm.SDTMVariable, nameWidth, string(vm.Pattern), patternWidth,
				fmt.Sprintf("%.2f", vm.ConfidenceScore), string(vm.ConfidenceLevel))
		}
	}
	return b.String()
}

func writeRow(b *strings.Builder, name string, nameWidth int, pattern string, patternWidth int, conf, level string) {
	b.WriteString(runewidth.FillRight(name, nameWidth))
	b.WriteString("  ")
	b.WriteString(runewidth.FillRight(pattern, patternWidth))
	b.WriteString("  ")
	b.WriteString(runewidth.FillRight(conf, 5))
	b.WriteString("  ")
	b.WriteString(level)
	b.WriteString("\n")
}
