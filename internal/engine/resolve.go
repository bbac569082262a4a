package engine

import (
	"strings"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// standardEDCAliases maps an eCRF/IRT field name the mapping agent might use
// to the EDC system column name raw data actually carries, per spec.md
// §4.6's fixed table.
var standardEDCAliases = map[string]string{
	"SSUBJID":     "Subject",
	"SSITENUM":    "SiteNumber",
	"SSITE":       "Site",
	"SSITEGROUP":  "SiteGroup",
}

// criticalVariables is the set of target SDTM variables whose resolution
// failure is unrecoverable rather than a warning-and-NULL.
var criticalVariables = map[string]bool{
	"STUDYID": true,
	"DOMAIN":  true,
	"USUBJID": true,
}

// Resolver resolves a derivation-rule token (a bare column reference, with
// or without a dataset prefix) against one raw Table, trying the chain in
// spec.md §4.6: strip prefix, exact match, custom alias, standard EDC
// alias, case-insensitive fallback.
type Resolver struct {
	CustomAliases map[string]string // study-specific overrides, built per run
}

// Resolve returns the raw column name to read from t for token, or ok=false
// if every step of the chain failed.
func (r Resolver) Resolve(token string, t *model.Table) (string, bool) {
	name := stripDatasetPrefix(token)

	if t.HasColumn(name) {
		return name, true
	}
	if alias, ok := r.CustomAliases[name]; ok && t.HasColumn(alias) {
		return alias, true
	}
	if alias, ok := standardEDCAliases[name]; ok && t.HasColumn(alias) {
		return alias, true
	}
	lower := strings.ToLower(name)
	for _, col := range t.Columns {
		if strings.ToLower(col) == lower {
			return col, true
		}
	}
	return "", false
}

func stripDatasetPrefix(token string) string {
	if i := strings.IndexByte(token, '.'); i >= 0 {
		return token[i+1:]
	}
	return token
}
