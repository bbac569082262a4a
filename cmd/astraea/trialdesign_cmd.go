package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/SanmaySarada/astraea-sdtm/internal/engine"
	"github.com/SanmaySarada/astraea-sdtm/internal/refstore"
	"github.com/SanmaySarada/astraea-sdtm/internal/trialdesign"
	"github.com/SanmaySarada/astraea-sdtm/internal/xport"
)

// trialDesignConfigFile is the on-disk shape of the config generate-trial-
// design reads: a flat TSPARMCD -> TSVAL map, since TS is study-level
// metadata with no raw dataset behind it at all.
type trialDesignConfigFile struct {
	Parameters map[string]string `json:"parameters"`
}

func newGenerateTrialDesignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-trial-design <config.json>",
		Short: "Build the TS (Trial Summary) domain from study-level configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var tdCfg trialDesignConfigFile
			if err := readJSON(args[0], &tdCfg); err != nil {
				return err
			}

			table, err := trialdesign.BuildTS(trialdesign.Config{StudyID: cfg.StudyID, Parameters: tdCfg.Parameters})
			if err != nil {
				return err
			}

			ref, err := refstore.Load()
			if err != nil {
				return err
			}
			tsSpec, err := ref.GetDomainSpec("TS")
			if err != nil {
				return err
			}

			written, err := engine.WriteDomain(table, tsSpec, cfg.OutputDir, xport.Codec{})
			if err != nil {
				return err
			}
			color.Green("generated TS -> %s (%d rows)", xptPath(cfg, "TS"), written.RowCount)
			return nil
		},
	}
}
