// Package dateutil implements the pure, deterministic date and USUBJID
// utilities specified in spec.md §4.7. Every function here is a pure
// transform over strings/integers — no I/O, no global state — grounded on
// the teacher's own preference for small pure helpers in
// internal/converter/sanitizer.go.
package dateutil

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// sasEpoch is the SAS reference date: 1960-01-01.
var sasEpoch = time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC)

// SASDateToISO converts a SAS numeric date (days since 1960-01-01) to
// YYYY-MM-DD.
func SASDateToISO(days float64) string {
	t := sasEpoch.AddDate(0, 0, int(days))
	return t.Format("2006-01-02")
}

// SASDatetimeToISO converts a SAS numeric datetime (seconds since
// 1960-01-01T00:00:00 UTC) to YYYY-MM-DDTHH:MM:SS. Timezone-naive per SDTM
// convention: the result carries no offset.
func SASDatetimeToISO(seconds float64) string {
	t := sasEpoch.Add(time.Duration(seconds) * time.Second)
	return t.Format("2006-01-02T15:04:05")
}

var monthByAbbrev = map[string]int{
	"JAN": 1, "FEB": 2, "MAR": 3, "APR": 4, "MAY": 5, "JUN": 6,
	"JUL": 7, "AUG": 8, "SEP": 9, "OCT": 10, "NOV": 11, "DEC": 12,
}

var (
	reDDMonYYYYSpace = regexp.MustCompile(`^(\d{1,2})\s+([A-Za-z]{3})\s+(\d{4})$`)
	reDDMonYYYYTight = regexp.MustCompile(`^(\d{1,2})([A-Za-z]{3})(\d{4})$`)
	reISODate        = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	reDDDashMonDashY = regexp.MustCompile(`^(\d{1,2})-([A-Za-z]{3})-(\d{4})$`)
	reDDSlashMMSlash = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	reMonYYYY        = regexp.MustCompile(`^([A-Za-z]{3})\s+(\d{4})$`)
	reYYYYOnly       = regexp.MustCompile(`^(\d{4})$`)
)

// ParseStringDateToISO recognizes the date formats enumerated in spec.md
// §4.4/§4.7 and returns an ISO 8601 representation (possibly partial).
// Ambiguous DD/MM/YYYY-shaped input is treated as DD/MM (never MM/DD) and a
// warning is returned alongside the result. UN/UNK tokens in a component
// position are preserved by ISO8601PartialDate's truncation rules upstream;
// this function only handles fully-numeric/Mon-named dates.
func ParseStringDateToISO(s string) (iso string, warning string, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", errors.New("dateutil: empty date string")
	}

	if m := reDDMonYYYYSpace.FindStringSubmatch(s); m != nil {
		return buildFromDMonY(m[1], m[2], m[3])
	}
	if m := reDDMonYYYYTight.FindStringSubmatch(s); m != nil {
		return buildFromDMonY(m[1], m[2], m[3])
	}
	if m := reISODate.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3]), "", nil
	}
	if m := reDDDashMonDashY.FindStringSubmatch(s); m != nil {
		return buildFromDMonY(m[1], m[2], m[3])
	}
	if m := reDDSlashMMSlash.FindStringSubmatch(s); m != nil {
		day, mon, year := m[1], m[2], m[3]
		iso, err := buildFromNumeric(day, mon, year)
		if err != nil {
			return "", "", err
		}
		return iso, fmt.Sprintf("ambiguous slash date %q interpreted as DD/MM", s), nil
	}
	if m := reMonYYYY.FindStringSubmatch(s); m != nil {
		mon, ok := monthByAbbrev[strings.ToUpper(m[1])]
		if !ok {
			return "", "", fmt.Errorf("dateutil: unknown month %q", m[1])
		}
		return fmt.Sprintf("%s-%02d", m[2], mon), "", nil
	}
	if m := reYYYYOnly.FindStringSubmatch(s); m != nil {
		return m[1], "", nil
	}

	return "", "", fmt.Errorf("dateutil: unrecognized date format %q", s)
}

func buildFromDMonY(day, mon, year string) (string, string, error) {
	d, err := strconv.Atoi(day)
	if err != nil {
		return "", "", fmt.Errorf("dateutil: invalid day %q: %w", day, err)
	}
	m, ok := monthByAbbrev[strings.ToUpper(mon)]
	if !ok {
		return "", "", fmt.Errorf("dateutil: unknown month %q", mon)
	}
	return fmt.Sprintf("%s-%02d-%02d", year, m, d), "", nil
}

func buildFromNumeric(day, mon, year string) (string, error) {
	d, err := strconv.Atoi(day)
	if err != nil {
		return "", fmt.Errorf("dateutil: invalid day %q: %w", day, err)
	}
	m, err := strconv.Atoi(mon)
	if err != nil {
		return "", fmt.Errorf("dateutil: invalid month %q: %w", mon, err)
	}
	return fmt.Sprintf("%s-%02d-%02d", year, m, d), nil
}

// PartialDate is the set of optional components accepted by
// FormatPartialISO8601. A nil pointer means "not supplied."
type PartialDate struct {
	Year, Month, Day          *int
	Hour, Minute, Second      *int
}

// FormatPartialISO8601 right-truncates at the first missing component, per
// spec.md §4.7's critical rule: a present hour with a missing minute drops
// the entire time component rather than emitting a bare "T10". The output
// never contains a gap.
func FormatPartialISO8601(p PartialDate) (string, error) {
	if p.Year == nil {
		return "", errors.New("dateutil: year is required for a partial ISO 8601 date")
	}
	b := strings.Builder{}
	fmt.Fprintf(&b, "%04d", *p.Year)

	if p.Month == nil {
		return b.String(), nil
	}
	fmt.Fprintf(&b, "-%02d", *p.Month)

	if p.Day == nil {
		return b.String(), nil
	}
	fmt.Fprintf(&b, "-%02d", *p.Day)

	if p.Hour == nil {
		return b.String(), nil
	}
	if p.Minute == nil {
		// Hour without minute: truncate the time component entirely.
		return b.String(), nil
	}
	fmt.Fprintf(&b, "T%02d:%02d", *p.Hour, *p.Minute)

	if p.Second == nil {
		return b.String(), nil
	}
	fmt.Fprintf(&b, ":%02d", *p.Second)

	return b.String(), nil
}

// GenerateUSUBJID constructs USUBJID as STUDYID + delimiter + SITEID +
// delimiter + SUBJID, stripping whitespace from each component. It raises
// (returns an error) on any NaN/empty component — silent corruption of the
// cross-domain join key is worse than a crash.
func GenerateUSUBJID(studyID, siteID, subjID, delimiter string) (string, error) {
	if delimiter == "" {
		delimiter = "-"
	}
	studyID = strings.TrimSpace(studyID)
	siteID = strings.TrimSpace(siteID)
	subjID = strings.TrimSpace(subjID)

	if studyID == "" {
		return "", errors.New("dateutil: GenerateUSUBJID: studyid is empty")
	}
	if siteID == "" {
		return "", errors.New("dateutil: GenerateUSUBJID: siteid is empty")
	}
	if subjID == "" {
		return "", errors.New("dateutil: GenerateUSUBJID: subjid is empty")
	}

	return strings.Join([]string{studyID, siteID, subjID}, delimiter), nil
}

// ValidateUSUBJIDConsistency checks that every USUBJID referenced by a
// non-DM domain exists in the DM domain's USUBJID set, and that DM itself
// contains no duplicates.
func ValidateUSUBJIDConsistency(dmUSUBJIDs []string, otherDomainUSUBJIDs map[string][]string) []error {
	var errs []error

	seen := make(map[string]bool, len(dmUSUBJIDs))
	dmSet := make(map[string]bool, len(dmUSUBJIDs))
	for _, id := range dmUSUBJIDs {
		if seen[id] {
			errs = append(errs, fmt.Errorf("dateutil: duplicate USUBJID %q in DM", id))
		}
		seen[id] = true
		dmSet[id] = true
	}

	for domain, ids := range otherDomainUSUBJIDs {
		for _, id := range ids {
			if !dmSet[id] {
				errs = append(errs, fmt.Errorf("dateutil: USUBJID %q in domain %s is not present in DM", id, domain))
			}
		}
	}

	return errs
}

// ISODTCPattern is the regex every --DTC value must match (or be empty).
var ISODTCPattern = regexp.MustCompile(`^\d{4}(-\d{2}(-\d{2}(T\d{2}(:\d{2}(:\d{2})?)?)?)?)?$`)

// IsValidDTC reports whether value is empty or matches ISODTCPattern.
func IsValidDTC(value string) bool {
	return value == "" || ISODTCPattern.MatchString(value)
}

// StudyDay computes --DY per the day-1 convention: the day of RFSTDTC is 1,
// the day before is -1; zero is never emitted. date and rfstdtc must both be
// full YYYY-MM-DD (or longer, only the date portion is used).
func StudyDay(date, rfstdtc string) (int, error) {
	d, err := parseDatePortion(date)
	if err != nil {
		return 0, fmt.Errorf("dateutil: StudyDay: %w", err)
	}
	ref, err := parseDatePortion(rfstdtc)
	if err != nil {
		return 0, fmt.Errorf("dateutil: StudyDay: %w", err)
	}
	diff := int(d.Sub(ref).Hours() / 24)
	if diff >= 0 {
		return diff + 1, nil
	}
	return diff, nil
}

func parseDatePortion(s string) (time.Time, error) {
	if len(s) < 10 {
		return time.Time{}, fmt.Errorf("date %q is too short to contain YYYY-MM-DD", s)
	}
	return time.Parse("2006-01-02", s[:10])
}
