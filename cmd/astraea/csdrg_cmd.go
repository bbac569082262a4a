package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/SanmaySarada/astraea-sdtm/internal/artifacts"
	"github.com/SanmaySarada/astraea-sdtm/internal/config"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
	"github.com/SanmaySarada/astraea-sdtm/internal/refstore"
)

func newGenerateCSDRGCmd() *cobra.Command {
	var studyDescription string
	cmd := &cobra.Command{
		Use:   "generate-csdrg",
		Short: "Render the Clinical Study Data Reviewer's Guide from the mapping specs and latest validation report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ref, err := refstore.Load()
			if err != nil {
				return err
			}

			domains, err := pendingDomains(cfg)
			if err != nil {
				return err
			}
			if len(domains) == 0 {
				return fmt.Errorf("generate-csdrg: no domain mapping specs found in %s (run `astraea map-domain` first)", cfg.OutputDir)
			}

			mappingSpecs := make(map[string]*model.DomainMappingSpec, len(domains))
			for _, domain := range domains {
				spec, err := loadMappingSpec(cfg, domain)
				if err != nil {
					return fmt.Errorf("generate-csdrg: load mapping spec for %s: %w", domain, err)
				}
				mappingSpecs[domain] = spec
			}

			report, err := loadOrRunValidationReport(cfg, ref)
			if err != nil {
				return err
			}

			manifest := ref.Manifest()
			doc := artifacts.RenderCSDRG(artifacts.CSDRGInput{
				StudyID:          cfg.StudyID,
				StudyDescription: studyDescription,
				SDTMIGVersion:    manifest.IGVersion,
				CTVersion:        manifest.CTVersion,
				MappingSpecs:     mappingSpecs,
				ValidationReport: report,
			})

			if err := writeFile(csdrgPath(cfg), []byte(doc)); err != nil {
				return err
			}
			color.Green("generated cSDRG -> %s (%d domain(s))", csdrgPath(cfg), len(domains))
			return nil
		},
	}
	cmd.Flags().StringVar(&studyDescription, "study-description", "", "narrative study description for cSDRG section 2")
	return cmd
}

// loadOrRunValidationReport reuses an existing validation_report.json if
// one is on disk, else runs the validation pass fresh — the cSDRG needs a
// report but shouldn't force a redundant `astraea validate` invocation
// first when one was already produced.
func loadOrRunValidationReport(cfg *config.Config, ref *refstore.Store) (*model.ValidationReport, error) {
	var report model.ValidationReport
	if _, err := os.Stat(validationReportJSONPath(cfg)); err == nil {
		if err := readJSON(validationReportJSONPath(cfg), &report); err != nil {
			return nil, err
		}
		return &report, nil
	}
	report, err := runValidation(cfg, ref)
	if err != nil {
		return nil, err
	}
	return &report, nil
}
