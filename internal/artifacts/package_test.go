package artifacts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

func assertFindingPresent(t *testing.T, findings []model.RuleResult, ruleID string) {
	t.Helper()
	for _, f := range findings {
		if f.RuleID == ruleID {
			return
		}
	}
	t.Errorf("expected a finding with rule ID %s, got %+v", ruleID, findings)
}

func TestPackagePolicy_FlagsOverLimitFiles(t *testing.T) {
	p := DefaultPackagePolicy()

	files := []model.PackageFile{
		{Name: "dm.xpt", Size: 1024},
		{Name: "lb.xpt", Size: p.MaxFileBytes + 1},
	}
	manifest, findings := p.Enforce(files, true, true)

	assert.Equal(t, int64(1024)+p.MaxFileBytes+1, manifest.TotalSize)
	assertFindingPresent(t, findings, "ASTR-PKG-FILESIZE")
}

func TestPackagePolicy_FlagsTotalSizeAndMissingDefine(t *testing.T) {
	p := PackagePolicy{MaxTotalBytes: 100, MaxFileBytes: 1000}
	files := []model.PackageFile{{Name: "dm.xpt", Size: 200}}

	_, findings := p.Enforce(files, false, false)

	assertFindingPresent(t, findings, "ASTR-PKG-TOTALSIZE")
	assertFindingPresent(t, findings, "ASTR-PKG-DEFINEXML")
}

func TestPackagePolicy_FlagsBadFilenameCasing(t *testing.T) {
	p := DefaultPackagePolicy()
	files := []model.PackageFile{{Name: "DM.xpt", Size: 10}}

	_, findings := p.Enforce(files, true, true)
	assertFindingPresent(t, findings, "ASTR-PKG-FILENAME")
}
