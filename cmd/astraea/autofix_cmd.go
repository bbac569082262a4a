package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/SanmaySarada/astraea-sdtm/internal/autofix"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
	"github.com/SanmaySarada/astraea-sdtm/internal/refstore"
	"github.com/SanmaySarada/astraea-sdtm/internal/xport"
)

func newAutoFixCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auto-fix",
		Short: "Run the bounded validate/classify/apply/revalidate auto-fix loop over every executed domain",
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

			domains, err := executedDomains(cfg)
			if err != nil {
				return err
			}
			if len(domains) == 0 {
				return fmt.Errorf("auto-fix: no executed domains found in %s (run `astraea execute-domain` first)", cfg.OutputDir)
			}

			codec := xport.Codec{}
			fixer := autofix.NewFixer(ref)
			var audit []model.AuditEntry

			for _, domain := range domains {
				path := xptPath(cfg, domain)
				table, _, err := codec.ReadDataset(path)
				if err != nil {
					return fmt.Errorf("auto-fix: read %s: %w", path, err)
				}
				domainSpec, err := ref.GetDomainSpec(domain)
				if err != nil {
					return err
				}
				mappingSpec, err := loadMappingSpec(cfg, domain)
				if err != nil {
					mappingSpec = nil
				}

				result, err := fixer.Run(domain, table, domainSpec, mappingSpec, cfg.AutoFixMaxIterations)
				if err != nil {
					return fmt.Errorf("auto-fix: %s: %w", domain, err)
				}
				audit = append(audit, result.Audit...)

				if len(result.Audit) == 0 {
					continue
				}
				if err := xport.Codec{}.WriteXPT(path, result.Table, metadataFor(domainSpec, result.Table)); err != nil {
					return fmt.Errorf("auto-fix: rewrite %s: %w", path, err)
				}
				color.Yellow("%s: %d fix(es) over %d iteration(s), %d finding(s) remain",
					domain, len(result.Audit), result.Iterations, len(result.Remaining))
			}

			if err := autofix.WriteAuditTrail(autofixAuditPath(cfg), audit); err != nil {
				return err
			}
			color.Green("auto-fix complete: %d fix(es) across %d domain(s) -> %s", len(audit), len(domains), autofixAuditPath(cfg))
			return nil
		},
	}
}

// metadataFor rebuilds the xport.Metadata WriteXPT needs from domainSpec,
// mirroring engine.WriteDomain's column lookup so a re-written file carries
// the same Type/Label metadata the original execution pass produced.
func metadataFor(domainSpec *model.DomainSpec, t *model.Table) xport.Metadata {
	columns := make([]xport.ColumnMetadata, 0, len(t.Columns))
	for _, name := range t.Columns {
		varSpec, ok := domainSpec.VariableByName(name)
		typ := xport.TypeChar
		label := name
		if ok {
			label = varSpec.Label
			if varSpec.Type == model.TypeNum {
				typ = xport.TypeNum
			}
		}
		columns = append(columns, xport.ColumnMetadata{Name: name, Label: label, Type: typ})
	}
	return xport.Metadata{Columns: columns}
}
