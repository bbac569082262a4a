package validation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// whitelistFile mirrors the on-disk shape of the whitelist YAML spec.md
// §4.8 describes: a flat list of known-false-positive suppression rules.
type whitelistFile struct {
	Entries []model.WhitelistEntry `yaml:"entries"`
}

// LoadWhitelist reads the whitelist YAML at path. An empty path is not an
// error — it returns a nil slice, so BuildReport runs with no suppressions.
func LoadWhitelist(path string) ([]model.WhitelistEntry, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("validation: read whitelist %s: %w", path, err)
	}
	var f whitelistFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("validation: parse whitelist %s: %w", path, err)
	}
	return f.Entries, nil
}
