// Command astraea is the CLI entry point for the Astraea SDTM pipeline
// (spec.md §6): one cobra-based binary exposing every pipeline stage as a
// subcommand, from raw-dataset profiling through submission-package
// validation. Business logic lives entirely in internal/*; every command
// here only resolves configuration, loads/saves the JSON state files under
// .astraea/ and output/, and calls straight into the matching package.
//
// Grounded on the teacher's cmd/cli/main.go (one binary, one subcommand per
// pipeline stage, flags parsed per-command), rebuilt on spf13/cobra since
// the pipeline's command surface is wide enough (12 subcommands) to want
// cobra's grouped help and flag inheritance rather than a hand-rolled
// switch.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var studyDir string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "astraea",
		Short: "Astraea: an agentic CDISC SDTM mapping and validation pipeline",
		Long: "Astraea turns raw clinical datasets into a submission-ready SDTM package: " +
			"profile raw data, classify it against SDTM domains, propose and review variable " +
			"mappings, execute the transformation, validate, and generate define.xml/cSDRG.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&studyDir, "study-dir", ".", "study working directory (holds astraea.toml, .env, .astraea/, output/)")

	root.AddCommand(
		newProfileCmd(),
		newParseECRFCmd(),
		newClassifyCmd(),
		newMapDomainCmd(),
		newReviewDomainCmd(),
		newResumeCmd(),
		newExecuteDomainCmd(),
		newGenerateTrialDesignCmd(),
		newValidateCmd(),
		newGenerateDefineCmd(),
		newGenerateCSDRGCmd(),
		newAutoFixCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}
