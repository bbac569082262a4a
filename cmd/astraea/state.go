package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/SanmaySarada/astraea-sdtm/internal/config"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
	"github.com/SanmaySarada/astraea-sdtm/internal/xport"
)

// Intermediate-artifact file names within .astraea/. spec.md §6 names
// output/ and .astraea/sessions.db + .astraea/learning/ explicitly; these
// are the additional files this implementation needs to carry state
// between separate CLI invocations, kept alongside them in the same
// JSON-everywhere convention.
const (
	profilesFileName        = "profiles.json"
	classificationsFileName = "classifications.json"
	sessionIDFileName       = "session_id.txt"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(studyDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func statePath(cfg *config.Config, name string) string {
	return filepath.Join(cfg.StateDir, name)
}

func outputPath(cfg *config.Config, name string) string {
	return filepath.Join(cfg.OutputDir, name)
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func writeJSON(path string, v interface{}) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeFile(path string, raw []byte) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func mappingSpecPath(cfg *config.Config, domain string) string {
	return outputPath(cfg, strings.ToUpper(domain)+"_spec.json")
}

func xptPath(cfg *config.Config, domain string) string {
	return outputPath(cfg, strings.ToLower(domain)+".xpt")
}

func workbookPath(cfg *config.Config, domain string) string {
	return outputPath(cfg, strings.ToUpper(domain)+"_mapping.xlsx")
}

func defineXMLPath(cfg *config.Config) string {
	return outputPath(cfg, "define.xml")
}

func csdrgPath(cfg *config.Config) string {
	return outputPath(cfg, "csdrg.md")
}

func validationReportJSONPath(cfg *config.Config) string {
	return outputPath(cfg, "validation_report.json")
}

func validationReportMDPath(cfg *config.Config) string {
	return outputPath(cfg, "validation_report.md")
}

func autofixAuditPath(cfg *config.Config) string {
	return outputPath(cfg, "autofix_audit.json")
}

// loadRawTables reads every *.xpt file in dataDir via the external-
// collaborator xport.Codec, keyed by filename without extension — the
// dataset name the rest of the pipeline refers to.
func loadRawTables(dataDir string) (map[string]*model.Table, map[string][]model.VariableMetadata, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("read data dir %s: %w", dataDir, err)
	}

	codec := xport.Codec{}
	tables := make(map[string]*model.Table)
	metadata := make(map[string][]model.VariableMetadata)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".xpt") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dataDir, name)
		table, meta, err := codec.ReadDataset(path)
		if err != nil {
			return nil, nil, fmt.Errorf("read dataset %s: %w", path, err)
		}
		key := strings.TrimSuffix(strings.ToLower(name), ".xpt")
		tables[key] = table

		varMeta := make([]model.VariableMetadata, 0, len(meta.Columns))
		for _, c := range meta.Columns {
			dtype := model.DTypeCharacter
			if c.Type == model.TypeNum {
				dtype = model.DTypeNumeric
			}
			varMeta = append(varMeta, model.VariableMetadata{Name: c.Name, Label: c.Label, DType: dtype})
		}
		metadata[key] = varMeta
	}
	return tables, metadata, nil
}

func loadProfiles(cfg *config.Config) (map[string]model.DatasetProfile, error) {
	var list []model.DatasetProfile
	if err := readJSON(statePath(cfg, profilesFileName), &list); err != nil {
		return nil, err
	}
	out := make(map[string]model.DatasetProfile, len(list))
	for _, p := range list {
		out[p.Filename] = p
	}
	return out, nil
}

func loadClassifications(cfg *config.Config) (map[string]model.DomainClassification, error) {
	var list []model.DomainClassification
	out := make(map[string]model.DomainClassification)
	if err := readJSON(statePath(cfg, classificationsFileName), &list); err != nil {
		return out, err
	}
	for _, c := range list {
		out[c.DatasetName] = c
	}
	return out, nil
}

func loadMappingSpec(cfg *config.Config, domain string) (*model.DomainMappingSpec, error) {
	var spec model.DomainMappingSpec
	if err := readJSON(mappingSpecPath(cfg, domain), &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

func saveMappingSpec(cfg *config.Config, spec *model.DomainMappingSpec) error {
	return writeJSON(mappingSpecPath(cfg, spec.Domain), spec)
}
