package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/SanmaySarada/astraea-sdtm/internal/profiler"
)

func newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile <data-dir>",
		Short: "Profile every raw dataset in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			tables, metadata, err := loadRawTables(args[0])
			if err != nil {
				return err
			}
			if len(tables) == 0 {
				return fmt.Errorf("profile: no .xpt datasets found in %s", args[0])
			}

			profiles, err := profiler.Profile(context.Background(), tables, metadata)
			if err != nil {
				return err
			}

			if err := writeJSON(statePath(cfg, profilesFileName), profiles); err != nil {
				return err
			}

			color.Green("profiled %d dataset(s) -> %s", len(profiles), statePath(cfg, profilesFileName))
			return nil
		},
	}
}
