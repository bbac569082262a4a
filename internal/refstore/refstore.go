// Package refstore is the immutable Reference Store (spec.md C1): the
// version-locked SDTM-IG domain specs and CT codelists every other
// component looks up against. It ships bundled JSON rather than calling
// out anywhere, so the whole package is read-only after Load.
//
// Grounded on the teacher's internal/ai/schemas.go CanonicalFields map —
// a small, static, hand-curated vocabulary baked into the binary — here
// generalized from one flat map into versioned domain/codelist bundles
// loaded from embed.FS and validated against a yaml.v3 version manifest.
package refstore

import (
	"embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

//go:embed bundles/*.json bundles/manifest.yaml
var bundledFS embed.FS

// Store is the immutable, in-memory reference store. Safe for concurrent
// reads from multiple goroutines once Load has returned.
type Store struct {
	manifest  model.VersionManifest
	domains   map[string]*model.DomainSpec
	codelists map[string]*model.Codelist
	// varToCodelist indexes variable name -> codelist code, built once at
	// load time so GetCodelistForVariable is O(1).
	varToCodelist map[string]string
}

// manifestFile mirrors bundles/manifest.yaml on disk.
type manifestFile struct {
	IGVersion string `yaml:"ig_version"`
	CTVersion string `yaml:"ct_version"`
	BuiltAt   string `yaml:"built_at"`
}

// Load reads the embedded IG/CT bundles and builds a Store. It fails fast
// if the manifest cannot be parsed or any bundle's version tag disagrees
// with the manifest, per spec.md §4.1 ("a version manifest locks IG + CT
// versions together; mismatch fails fast at startup").
func Load() (*Store, error) {
	var mf manifestFile
	raw, err := bundledFS.ReadFile("bundles/manifest.yaml")
	if err != nil {
		return nil, fmt.Errorf("refstore: read manifest: %w", err)
	}
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("refstore: parse manifest: %w", err)
	}
	if mf.IGVersion == "" || mf.CTVersion == "" {
		return nil, fmt.Errorf("refstore: manifest is missing ig_version or ct_version")
	}

	domains, err := loadDomains(mf.IGVersion)
	if err != nil {
		return nil, err
	}
	codelists, err := loadCodelists(mf.CTVersion)
	if err != nil {
		return nil, err
	}

	s := &Store{
		manifest: model.VersionManifest{
			IGVersion: mf.IGVersion,
			CTVersion: mf.CTVersion,
			BuiltAt:   mf.BuiltAt,
		},
		domains:       domains,
		codelists:     codelists,
		varToCodelist: make(map[string]string),
	}
	for _, cl := range codelists {
		for _, varName := range cl.VariableMappings {
			s.varToCodelist[varName] = cl.Code
		}
	}
	return s, nil
}

type domainBundle struct {
	IGVersion string              `json:"ig_version"`
	Domains   []model.DomainSpec `json:"domains"`
}

type codelistBundle struct {
	CTVersion string           `json:"ct_version"`
	Codelists []model.Codelist `json:"codelists"`
}

func loadDomains(igVersion string) (map[string]*model.DomainSpec, error) {
	raw, err := bundledFS.ReadFile("bundles/domains.json")
	if err != nil {
		return nil, fmt.Errorf("refstore: read domains bundle: %w", err)
	}
	var bundle domainBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, fmt.Errorf("refstore: parse domains bundle: %w", err)
	}
	if bundle.IGVersion != igVersion {
		return nil, fmt.Errorf("refstore: domains bundle version %q does not match manifest ig_version %q", bundle.IGVersion, igVersion)
	}
	out := make(map[string]*model.DomainSpec, len(bundle.Domains))
	for i := range bundle.Domains {
		d := bundle.Domains[i]
		out[d.Domain] = &d
	}
	return out, nil
}

func loadCodelists(ctVersion string) (map[string]*model.Codelist, error) {
	raw, err := bundledFS.ReadFile("bundles/codelists.json")
	if err != nil {
		return nil, fmt.Errorf("refstore: read codelists bundle: %w", err)
	}
	var bundle codelistBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, fmt.Errorf("refstore: parse codelists bundle: %w", err)
	}
	if bundle.CTVersion != ctVersion {
		return nil, fmt.Errorf("refstore: codelists bundle version %q does not match manifest ct_version %q", bundle.CTVersion, ctVersion)
	}
	out := make(map[string]*model.Codelist, len(bundle.Codelists))
	for i := range bundle.Codelists {
		c := bundle.Codelists[i]
		out[c.Code] = &c
	}
	return out, nil
}

// Manifest returns the locked IG/CT version pair.
func (s *Store) Manifest() model.VersionManifest {
	return s.manifest
}

// ListDomains returns every bundled domain code.
func (s *Store) ListDomains() []string {
	out := make([]string, 0, len(s.domains))
	for name := range s.domains {
		out = append(out, name)
	}
	return out
}

// GetDomainSpec returns the DomainSpec for domain, or an error if unknown.
func (s *Store) GetDomainSpec(domain string) (*model.DomainSpec, error) {
	d, ok := s.domains[domain]
	if !ok {
		return nil, fmt.Errorf("refstore: unknown domain %q", domain)
	}
	return d, nil
}

// GetRequiredVariables returns the Req-core variable names for domain.
func (s *Store) GetRequiredVariables(domain string) ([]string, error) {
	d, err := s.GetDomainSpec(domain)
	if err != nil {
		return nil, err
	}
	return d.RequiredVariables(), nil
}

// GetVariableSpec returns the VariableSpec for domain.var.
func (s *Store) GetVariableSpec(domain, varName string) (model.VariableSpec, error) {
	d, err := s.GetDomainSpec(domain)
	if err != nil {
		return model.VariableSpec{}, err
	}
	v, ok := d.VariableByName(varName)
	if !ok {
		return model.VariableSpec{}, fmt.Errorf("refstore: domain %q has no variable %q", domain, varName)
	}
	return v, nil
}

// LookupCodelist returns the Codelist for code.
func (s *Store) LookupCodelist(code string) (*model.Codelist, error) {
	cl, ok := s.codelists[code]
	if !ok {
		return nil, fmt.Errorf("refstore: unknown codelist %q", code)
	}
	return cl, nil
}

// IsExtensible reports whether codelist code accepts values outside its
// term list. An unknown code is treated as non-extensible (fail closed).
func (s *Store) IsExtensible(code string) bool {
	cl, ok := s.codelists[code]
	return ok && cl.Extensible
}

// ValidateTerm implements spec.md §4.1's validate_term: extensible
// codelists accept any value; non-extensible codelists require an exact
// submission_value match.
func (s *Store) ValidateTerm(code, value string) bool {
	cl, ok := s.codelists[code]
	if !ok {
		return false
	}
	if cl.Extensible {
		return true
	}
	return cl.HasSubmissionValue(value)
}

// GetCodelistForVariable is the reverse index from variable name to the
// codelist that governs it, if any.
func (s *Store) GetCodelistForVariable(varName string) (*model.Codelist, bool) {
	code, ok := s.varToCodelist[varName]
	if !ok {
		return nil, false
	}
	cl := s.codelists[code]
	return cl, cl != nil
}
