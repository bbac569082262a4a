package main

import (
	"context"
	"fmt"

	"bitbucket.org/creachadair/stringset"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/SanmaySarada/astraea-sdtm/internal/classifier"
	"github.com/SanmaySarada/astraea-sdtm/internal/llm"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
	"github.com/SanmaySarada/astraea-sdtm/internal/pdfcrf"
	"github.com/SanmaySarada/astraea-sdtm/internal/refstore"
)

func newClassifyCmd() *cobra.Command {
	var ecrfPDF string

	cmd := &cobra.Command{
		Use:   "classify <data-dir>",
		Short: "Classify every profiled dataset against an SDTM domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateForLLM(); err != nil {
				return err
			}

			ref, err := refstore.Load()
			if err != nil {
				return err
			}

			tables, _, err := loadRawTables(args[0])
			if err != nil {
				return err
			}

			profiles, err := loadProfiles(cfg)
			if err != nil {
				return fmt.Errorf("classify: load profiles (run `astraea profile` first): %w", err)
			}

			var forms []model.ECRFForm
			if ecrfPDF != "" {
				forms, err = (pdfcrf.CachedExtractor{Inner: manualExtractor{}}).Extract(ecrfPDF)
				if err != nil {
					return err
				}
			}

			agent, err := llm.NewClient(llm.Config{
				APIKey:          cfg.OpenAIAPIKey,
				Model:           cfg.OpenAIModel,
				MaxRetries:      cfg.AIMaxRetries,
				RetryBaseDelay:  cfg.AIRetryBaseDelay,
				RateLimitPerSec: cfg.AIRateLimitPerSec,
				RateLimitBurst:  cfg.AIRateLimitBurst,
			})
			if err != nil {
				return err
			}

			ctx := context.Background()
			var results []model.DomainClassification
			for filename, table := range tables {
				profile, ok := profiles[filename]
				if !ok {
					return fmt.Errorf("classify: no profile for dataset %s (run `astraea profile` first)", filename)
				}

				edcColumns := stringset.New(profile.EDCColumns...)
				scores, err := classifier.ScoreDataset(ref, filename, table.Columns, edcColumns)
				if err != nil {
					return err
				}

				form, _ := pdfcrf.FormByName(forms, filename)
				clinicalSummary := summarizeProfile(profile)

				result, err := classifier.Classify(ctx, agent, ref, filename, clinicalSummary, form.FormName, scores)
				if err != nil {
					return fmt.Errorf("classify: %s: %w", filename, err)
				}
				results = append(results, *result)
				color.Green("%-20s -> %-16s (confidence %.2f)", filename, result.PrimaryDomain, result.Confidence)
			}

			return writeJSON(statePath(cfg, classificationsFileName), results)
		},
	}
	cmd.Flags().StringVar(&ecrfPDF, "ecrf", "", "path to the study's annotated eCRF PDF (optional)")
	return cmd
}

func summarizeProfile(p model.DatasetProfile) string {
	out := ""
	for _, v := range p.Variables {
		if out != "" {
			out += ", "
		}
		out += v.Name
	}
	return out
}
