package engine

import (
	"fmt"
	"strconv"

	"github.com/SanmaySarada/astraea-sdtm/internal/dateutil"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// TransformKind names one post-processing column the compliance pass can
// generate when declared for a domain, per spec.md §4.6's closing
// paragraph ("Generate --DY, --SEQ, EPOCH, VISITNUM via the transform
// registry when declared in the spec").
type TransformKind string

const (
	TransformStudyDay TransformKind = "STUDY_DAY"
	TransformSeq      TransformKind = "SEQ"
	TransformVisitNum TransformKind = "VISITNUM"
	TransformEpoch    TransformKind = "EPOCH"
)

// TransformSpec declares one generated column and the inputs it reads.
type TransformSpec struct {
	Kind         TransformKind
	TargetColumn string
	DateColumn   string             // STUDY_DAY: the --DTC column to diff against RFSTDTC
	VisitColumn  string             // VISITNUM, EPOCH: the raw visit-name column
	VisitNumbers map[string]float64 // VISITNUM: visit name -> VISITNUM
	Epochs       map[string]string  // EPOCH: visit name -> epoch label
}

// ApplyTransforms runs every declared TransformSpec against t, appending
// each generated column, and returns any warnings raised along the way.
func ApplyTransforms(t *model.Table, specs []TransformSpec, usubjidCol string, rfstdtcBySubject map[string]string) []string {
	var warnings []string
	for _, spec := range specs {
		switch spec.Kind {
		case TransformStudyDay:
			vals, w := GenerateStudyDay(t, usubjidCol, spec.DateColumn, rfstdtcBySubject)
			t.AddColumn(spec.TargetColumn, vals)
			warnings = append(warnings, w...)
		case TransformSeq:
			t.AddColumn(spec.TargetColumn, GenerateSeq(t, usubjidCol))
		case TransformVisitNum:
			t.AddColumn(spec.TargetColumn, GenerateVisitNum(t, spec.VisitColumn, spec.VisitNumbers))
		case TransformEpoch:
			t.AddColumn(spec.TargetColumn, GenerateEpoch(t, spec.VisitColumn, spec.Epochs))
		}
	}
	return warnings
}

// GenerateStudyDay fills a --DY column: `INT((date - RFSTDTC) + 1)` with
// the day-1 convention — zero is never emitted, the day of RFSTDTC is 1,
// the day before is -1 (spec.md §4.6/§4.7).
func GenerateStudyDay(t *model.Table, usubjidCol, dateCol string, rfstdtcBySubject map[string]string) ([]string, []string) {
	usubjids := t.Column(usubjidCol)
	dates := t.Column(dateCol)
	out := make([]string, t.RowCount)
	var warnings []string
	for i := 0; i < t.RowCount; i++ {
		date := valueAt(dates, i)
		rfstdtc := rfstdtcBySubject[valueAt(usubjids, i)]
		if date == "" || rfstdtc == "" {
			continue
		}
		dy, err := dateutil.StudyDay(date, rfstdtc)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: row %d: %v", dateCol, i, err))
			continue
		}
		out[i] = strconv.Itoa(dy)
	}
	return out, warnings
}

// GenerateSeq fills a monotonic, 1-based --SEQ column, incrementing within
// each USUBJID in the table's existing row order.
func GenerateSeq(t *model.Table, usubjidCol string) []string {
	usubjids := t.Column(usubjidCol)
	counts := make(map[string]int, t.RowCount)
	out := make([]string, t.RowCount)
	for i := 0; i < t.RowCount; i++ {
		subj := valueAt(usubjids, i)
		counts[subj]++
		out[i] = strconv.Itoa(counts[subj])
	}
	return out
}

// GenerateVisitNum fills VISITNUM from a raw visit-name column using a
// study-configured name-to-number map (visit numbering is protocol-defined,
// not derivable from data alone).
func GenerateVisitNum(t *model.Table, visitCol string, visitNumbers map[string]float64) []string {
	vals := t.Column(visitCol)
	out := make([]string, t.RowCount)
	for i, v := range vals {
		if n, ok := visitNumbers[v]; ok {
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		}
	}
	return out
}

// GenerateEpoch fills EPOCH from a raw visit-name column using a
// study-configured name-to-epoch map.
func GenerateEpoch(t *model.Table, visitCol string, epochs map[string]string) []string {
	vals := t.Column(visitCol)
	out := make([]string, t.RowCount)
	for i, v := range vals {
		out[i] = epochs[v]
	}
	return out
}
