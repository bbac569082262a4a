package profiler

import (
	"sort"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// sortValueCountsDesc orders by count descending, breaking ties
// alphabetically so the top-N distribution is deterministic across runs.
func sortValueCountsDesc(vc []model.ValueCount) {
	sort.Slice(vc, func(i, j int) bool {
		if vc[i].Count != vc[j].Count {
			return vc[i].Count > vc[j].Count
		}
		return vc[i].Value < vc[j].Value
	})
}
