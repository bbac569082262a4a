package engine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
	"github.com/SanmaySarada/astraea-sdtm/internal/xport"
)

// WriteDomain runs EnforceCompliance over t and writes the result as
// <outputDir>/<lowercase domain>.xpt via writer, per spec.md §4.6/§6's
// "filename lowercase <domain>.xpt" requirement.
func WriteDomain(t *model.Table, domainSpec *model.DomainSpec, outputDir string, writer xport.TransportWriter) (*model.Table, error) {
	compliant, _, err := EnforceCompliance(t, domainSpec)
	if err != nil {
		return nil, fmt.Errorf("engine: WriteDomain %s: %w", domainSpec.Domain, err)
	}

	meta := xport.Metadata{Columns: make([]xport.ColumnMetadata, len(compliant.Columns))}
	for i, name := range compliant.Columns {
		vs, ok := domainSpec.VariableByName(name)
		if !ok {
			return nil, fmt.Errorf("engine: WriteDomain %s: column %q has no DomainSpec entry after reorder", domainSpec.Domain, name)
		}
		meta.Columns[i] = xport.ColumnMetadata{Name: vs.Name, Label: vs.Label, Type: vs.Type}
	}

	path := filepath.Join(outputDir, strings.ToLower(domainSpec.Domain)+".xpt")
	if err := writer.WriteXPT(path, compliant, meta); err != nil {
		return nil, fmt.Errorf("engine: WriteDomain %s: %w", domainSpec.Domain, err)
	}
	return compliant, nil
}
