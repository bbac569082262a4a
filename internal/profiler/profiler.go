// Package profiler implements the Profiler (spec.md C2): given a raw
// table plus its extracted source metadata, produce a DatasetProfile —
// EDC-column flags, date detection, and value distributions.
//
// Grounded on the teacher's internal/converter/header_detect.go and
// input_detect.go (small scoring structs with a dominant detection method,
// heuristic thresholds expressed as named constants) generalized from
// spreadsheet-header sniffing to SDTM source-column profiling. The
// per-dataset fan-out uses golang.org/x/sync/errgroup, adopted from the
// rest of the example pack since the teacher's converter pipeline runs
// single-file and has no concurrent profiling step to ground this on.
package profiler

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/SanmaySarada/astraea-sdtm/internal/dateutil"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// maxTopValues is the size of the top-N value distribution kept for
// low-cardinality columns.
const maxTopValues = 5

// topValueDistributionCutoff is the n_unique ceiling at or below which a
// top-value distribution is computed at all (spec.md §4.2).
const topValueDistributionCutoff = 100

// sampleValueCount is how many unique values are always kept regardless of
// cardinality.
const sampleValueCount = 10

// sourceDateFormats maps a raw-metadata source_format tag to "is a date."
var sourceDateFormats = map[string]bool{
	"DATE": true, "DATETIME": true, "TIME": true,
	"DDMMYY": true, "MMDDYY": true, "YYMMDD": true, "DATETIME20": true,
}

// Profile produces a DatasetProfile for every table in tables, running one
// goroutine per dataset. metadata maps filename -> per-column
// VariableMetadata extracted alongside the raw data (may be nil/partial).
func Profile(ctx context.Context, tables map[string]*model.Table, metadata map[string][]model.VariableMetadata) ([]model.DatasetProfile, error) {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}

	profiles := make([]model.DatasetProfile, len(names))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			profiles[i] = profileOne(name, tables[name], metadata[name])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profiles, nil
}

func profileOne(filename string, t *model.Table, meta []model.VariableMetadata) model.DatasetProfile {
	metaByName := make(map[string]model.VariableMetadata, len(meta))
	for _, m := range meta {
		metaByName[normalizeColumnName(m.Name)] = m
	}

	dp := model.DatasetProfile{
		Filename: filename,
		RowCount: t.RowCount,
		ColCount: len(t.Columns),
	}

	for _, col := range t.Columns {
		vp := profileColumn(col, t.Column(col), metaByName[normalizeColumnName(col)])
		dp.Variables = append(dp.Variables, vp)
		if vp.IsEDCColumn {
			dp.EDCColumns = append(dp.EDCColumns, col)
		}
		if vp.IsDate {
			dp.DateVariables = append(dp.DateVariables, col)
		}
	}

	return dp
}

func profileColumn(name string, values []string, meta model.VariableMetadata) model.VariableProfile {
	vp := model.VariableProfile{
		Name:        name,
		IsEDCColumn: isEDCColumn(name),
	}

	counts := make(map[string]int)
	nMissing := 0
	var firstSeen []string
	seen := make(map[string]bool)

	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			nMissing++
			continue
		}
		counts[v]++
		if !seen[v] {
			seen[v] = true
			if len(firstSeen) < sampleValueCount {
				firstSeen = append(firstSeen, v)
			}
		}
	}
	vp.NMissing = nMissing
	vp.NUnique = len(counts)
	vp.SampleValues = firstSeen

	if vp.NUnique <= topValueDistributionCutoff {
		vp.TopValues = topN(counts, maxTopValues)
	}

	vp.IsDate, vp.DetectedDateFormat = detectDate(name, meta, values)

	return vp
}

// detectDate implements the two-pronged rule from spec.md §4.2: trust an
// explicit source-format tag first; otherwise, for *_RAW columns whose name
// contains "DAT", sample values and try to parse them as a date string.
func detectDate(name string, meta model.VariableMetadata, values []string) (bool, string) {
	if meta.SourceFormat != "" && sourceDateFormats[strings.ToUpper(meta.SourceFormat)] {
		return true, meta.SourceFormat
	}

	upper := strings.ToUpper(name)
	if !strings.HasSuffix(upper, "_RAW") || !strings.Contains(upper, "DAT") {
		return false, ""
	}

	sampled := 0
	matched := 0
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		sampled++
		if sampled > 20 {
			break
		}
		if _, _, err := dateutil.ParseStringDateToISO(v); err == nil {
			matched++
		}
	}
	if sampled > 0 && matched == sampled {
		return true, "parsed"
	}
	return false, ""
}

func topN(counts map[string]int, n int) []model.ValueCount {
	out := make([]model.ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, model.ValueCount{Value: v, Count: c})
	}
	sortValueCountsDesc(out)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func normalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
