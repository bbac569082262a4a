package profiler

// knownEDCColumns is the fixed, case-insensitive set of system column names
// emitted by common EDC exports (spec.md §4.2). A raw column is flagged
// is_edc_column when its name, lowercased, appears here.
var knownEDCColumns = map[string]bool{
	"projectid":       true,
	"studyid":         true,
	"instanceid":      true,
	"datapageid":      true,
	"datapagename":    true,
	"folderid":        true,
	"foldername":      true,
	"subject":         true,
	"subjectid":       true,
	"sitenumber":      true,
	"site":            true,
	"sitegroup":       true,
	"status":          true,
	"dateentered":     true,
	"date_entered":    true,
	"recordposition":  true,
	"recordid":        true,
	"instancename":    true,
	"instancerepeatnumber": true,
	"significantevents":     true,
	"eventid":         true,
	"mincreated":      true,
	"maxupdated":      true,
	"savets":          true,
	"milestone":       true,
	"lastupdatedby":   true,
	"reasonforchange": true,
	"datapagerepeatnumber": true,
	"crfstatus":       true,
}

// isEDCColumn reports whether name matches a known system column name,
// case-insensitively.
func isEDCColumn(name string) bool {
	return knownEDCColumns[normalizeColumnName(name)]
}
