package autofix

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/SanmaySarada/astraea-sdtm/internal/diff"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// WriteAuditTrail persists entries as autofix_audit.json at path, the
// durable record of every repair the Auto-Fixer made, per spec.md §4.9.
func WriteAuditTrail(path string, entries []model.AuditEntry) error {
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("autofix: marshal audit trail: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("autofix: write audit trail %s: %w", path, err)
	}
	return nil
}

// Summarize renders a human-readable unified diff of every entry that
// carries Before/After text, for inclusion in a run's console output or
// the cSDRG's auto-fix appendix.
func Summarize(entries []model.AuditEntry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "[%s] %s/%s: %s\n", e.RuleID, e.Domain, e.Variable, e.Action)
		if e.Before == "" && e.After == "" {
			continue
		}
		ud := diff.Diff(e.Before, e.After)
		for _, hunk := range ud.Hunks {
			for _, line := range hunk.Lines {
				prefix := " "
				switch line.Type {
				case "add":
					prefix = "+"
				case "remove":
					prefix = "-"
				}
				fmt.Fprintf(&b, "  %s%s\n", prefix, line.Content)
			}
		}
	}
	return b.String()
}
