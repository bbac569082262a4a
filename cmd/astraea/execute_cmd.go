package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/SanmaySarada/astraea-sdtm/internal/engine"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
	"github.com/SanmaySarada/astraea-sdtm/internal/refstore"
	"github.com/SanmaySarada/astraea-sdtm/internal/xport"
)

func newExecuteDomainCmd() *cobra.Command {
	var transposeSpecPath string

	cmd := &cobra.Command{
		Use:   "execute-domain <domain> <data-dir>",
		Short: "Run the execution engine for one approved domain mapping spec",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain := strings.ToUpper(args[0])
			dataDir := args[1]

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ref, err := refstore.Load()
			if err != nil {
				return err
			}
			domainSpec, err := ref.GetDomainSpec(domain)
			if err != nil {
				return err
			}

			spec, err := loadMappingSpec(cfg, domain)
			if err != nil {
				return fmt.Errorf("execute-domain: load mapping spec (run `astraea map-domain`/review first): %w", err)
			}

			raw, _, err := loadRawTables(dataDir)
			if err != nil {
				return err
			}

			opts := engine.Options{StudyID: cfg.StudyID, USUBJIDDelimiter: cfg.USUBJIDDelimiter}

			var table *model.Table
			var warnings []string

			if domainSpec.Class == model.ClassFindings && transposeSpecPath != "" {
				var ts engine.TransposeSpec
				if err := readJSON(transposeSpecPath, &ts); err != nil {
					return err
				}
				ts.Domain = domain
				result, err := engine.Transpose(ts, raw, opts)
				if err != nil {
					return err
				}
				table = finalizeTransposed(result.Table, cfg.StudyID, domain)
				warnings = result.Warnings
			} else {
				result, err := engine.Execute(spec, raw, ref, opts)
				if err != nil {
					return err
				}
				table = result.Table
				warnings = result.Warnings
			}

			written, err := engine.WriteDomain(table, domainSpec, cfg.OutputDir, xport.Codec{})
			if err != nil {
				return err
			}

			for _, w := range warnings {
				color.Yellow("warning: %s", w)
			}
			color.Green("executed %s -> %s (%d rows)", domain, xptPath(cfg, domain), written.RowCount)
			return nil
		},
	}
	cmd.Flags().StringVar(&transposeSpecPath, "transpose-spec", "",
		"path to a JSON engine.TransposeSpec, required for Findings-class domains")
	return cmd
}

// finalizeTransposed prepends STUDYID/DOMAIN/<domain>SEQ to a Transpose
// result, which only emits the subject/visit/test columns it unpivoted —
// the constant study-level columns and per-row sequence number are filled
// in here rather than threaded through the transpose itself.
func finalizeTransposed(t *model.Table, studyID, domain string) *model.Table {
	n := t.RowCount
	studyCol := make([]string, n)
	domainCol := make([]string, n)
	seqCol := make([]string, n)
	for i := 0; i < n; i++ {
		studyCol[i] = studyID
		domainCol[i] = domain
		seqCol[i] = strconv.Itoa(i + 1)
	}

	out := model.NewTable(nil)
	out.RowCount = n
	out.AddColumn("STUDYID", studyCol)
	out.AddColumn("DOMAIN", domainCol)
	for _, c := range t.Columns {
		out.AddColumn(c, t.Data[c])
	}
	out.AddColumn(strings.ToUpper(domain)+"SEQ", seqCol)
	return out
}
