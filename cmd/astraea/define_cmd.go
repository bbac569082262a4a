package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/SanmaySarada/astraea-sdtm/internal/artifacts"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
	"github.com/SanmaySarada/astraea-sdtm/internal/refstore"
)

func newGenerateDefineCmd() *cobra.Command {
	var studyName, protocolName string
	cmd := &cobra.Command{
		Use:   "generate-define",
		Short: "Build define.xml covering every domain with an approved mapping spec",
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
				return fmt.Errorf("generate-define: no domain mapping specs found in %s (run `astraea map-domain` first)", cfg.OutputDir)
			}

			domainSpecs := make(map[string]*model.DomainSpec, len(domains))
			mappingSpecs := make(map[string]*model.DomainMappingSpec, len(domains))
			codelists := make(map[string]*model.Codelist)
			for _, domain := range domains {
				domainSpec, err := ref.GetDomainSpec(domain)
				if err != nil {
					return err
				}
				spec, err := loadMappingSpec(cfg, domain)
				if err != nil {
					return fmt.Errorf("generate-define: load mapping spec for %s: %w", domain, err)
				}
				domainSpecs[domain] = domainSpec
				mappingSpecs[domain] = spec

				for _, v := range domainSpec.Variables {
					if v.CodelistCode == "" {
						continue
					}
					if _, ok := codelists[v.CodelistCode]; ok {
						continue
					}
					if cl, err := ref.LookupCodelist(v.CodelistCode); err == nil {
						codelists[v.CodelistCode] = cl
					}
				}
			}

			odm, err := artifacts.GenerateDefineXML(artifacts.BuildInput{
				StudyID:      cfg.StudyID,
				StudyName:    studyName,
				ProtocolName: protocolName,
				DomainSpecs:  domainSpecs,
				MappingSpecs: mappingSpecs,
				Codelists:    codelists,
			})
			if err != nil {
				return err
			}

			raw, err := artifacts.Marshal(odm)
			if err != nil {
				return err
			}
			if err := ensureDir(defineXMLPath(cfg)); err != nil {
				return err
			}
			if err := writeFile(defineXMLPath(cfg), raw); err != nil {
				return err
			}

			color.Green("generated define.xml -> %s (%d domain(s))", defineXMLPath(cfg), len(domains))
			return nil
		},
	}
	cmd.Flags().StringVar(&studyName, "study-name", "", "human-readable study name for define.xml's GlobalVariables")
	cmd.Flags().StringVar(&protocolName, "protocol-name", "", "protocol name for define.xml's GlobalVariables")
	return cmd
}
