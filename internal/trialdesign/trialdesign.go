// Package trialdesign builds the Trial Design class domains (spec.md §4,
// DomainClass Trial-Design) directly from study-level configuration rather
// than from profiled raw datasets: TS (Trial Summary) is a parameter/value
// table, one row per fixed TSPARMCD, with no subject-level source data to
// map at all.
//
// Grounded on the teacher's internal/converter/template_registry.go — a
// fixed, hand-curated lookup table keyed by a short code, validated at
// build time against the request — generalized here from template names
// to the CDISC TSPARMCD controlled terminology.
package trialdesign

import (
	"fmt"
	"sort"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// tsParameters is the fixed TSPARMCD -> TSPARM (long name) dictionary this
// package accepts. It is a small, commonly-used subset of the full CDISC
// TS Parameters Test Code codelist, not the complete controlled vocabulary.
var tsParameters = map[string]string{
	"STITLE": "Study Title",
	"PROTNAME": "Protocol Name",
	"PHASE":    "Trial Phase Classification",
	"INDIC":    "Trial Indication",
	"TTYPE":    "Trial Type",
	"ADDON":    "Added on to Existing Treatments",
	"RANDOM":   "Trial is Randomized",
	"BLIND":    "Trial Blinding Schema",
	"SSTDTC":   "Study Start Date",
	"SENDTC":   "Study End Date",
	"TCNTRL":   "Control Type",
	"CURTRT":   "Current Therapy or Treatment",
	"NARMS":    "Planned Number of Arms",
	"ACTSUB":   "Actual Number of Subjects",
	"SPONSOR":  "Clinical Study Sponsor",
}

// Config is the study-level input generate-trial-design is driven from —
// values a sponsor supplies once per study, outside the profiled raw data.
type Config struct {
	StudyID    string
	Parameters map[string]string // TSPARMCD -> TSVAL, keys must be in tsParameters
}

// BuildTS renders cfg into the TS domain Table: one row per configured
// parameter, STUDYID/DOMAIN/TSSEQ/TSPARMCD/TSPARM/TSVAL populated, ordered
// by TSPARMCD for a stable, reviewable diff across runs.
func BuildTS(cfg Config) (*model.Table, error) {
	if cfg.StudyID == "" {
		return nil, fmt.Errorf("trialdesign: study_id is required")
	}

	codes := make([]string, 0, len(cfg.Parameters))
	for code := range cfg.Parameters {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	t := model.NewTable(nil)
	t.AddColumn("STUDYID", nil)
	t.AddColumn("DOMAIN", nil)
	t.AddColumn("TSSEQ", nil)
	t.AddColumn("TSPARMCD", nil)
	t.AddColumn("TSPARM", nil)
	t.AddColumn("TSVAL", nil)

	for i, code := range codes {
		label, ok := tsParameters[code]
		if !ok {
			return nil, fmt.Errorf("trialdesign: %q is not a recognized TSPARMCD", code)
		}
		t.Data["STUDYID"] = append(t.Data["STUDYID"], cfg.StudyID)
		t.Data["DOMAIN"] = append(t.Data["DOMAIN"], "TS")
		t.Data["TSSEQ"] = append(t.Data["TSSEQ"], fmt.Sprintf("%d", i+1))
		t.Data["TSPARMCD"] = append(t.Data["TSPARMCD"], code)
		t.Data["TSPARM"] = append(t.Data["TSPARM"], label)
		t.Data["TSVAL"] = append(t.Data["TSVAL"], cfg.Parameters[code])
	}
	t.RowCount = len(codes)
	return t, nil
}

// KnownParameters returns every TSPARMCD this package accepts, sorted.
func KnownParameters() []string {
	out := make([]string, 0, len(tsParameters))
	for code := range tsParameters {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
