package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/SanmaySarada/astraea-sdtm/internal/enrichment"
	"github.com/SanmaySarada/astraea-sdtm/internal/learning"
	"github.com/SanmaySarada/astraea-sdtm/internal/llm"
	"github.com/SanmaySarada/astraea-sdtm/internal/mapping"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
	"github.com/SanmaySarada/astraea-sdtm/internal/refstore"
)

func newMapDomainCmd() *cobra.Command {
	var learningDB string

	cmd := &cobra.Command{
		Use:   "map-domain <domain>",
		Short: "Propose an SDTM variable mapping for one domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain := args[0]
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
			domainSpec, err := ref.GetDomainSpec(domain)
			if err != nil {
				return err
			}

			profilesByName, err := loadProfiles(cfg)
			if err != nil {
				return fmt.Errorf("map-domain: load profiles (run `astraea profile` first): %w", err)
			}
			var profileList []model.DatasetProfile
			profilePtrs := make(map[string]*model.DatasetProfile, len(profilesByName))
			for name, p := range profilesByName {
				p := p
				profileList = append(profileList, p)
				profilePtrs[name] = &p
			}

			if learningDB == "" {
				learningDB = cfg.LearningDBPath()
			}
			store, err := learning.NewStore(learningDB)
			if err != nil {
				return err
			}
			defer store.Close()
			retriever := learning.NewRetriever(store, cfg.ReviewExamplesPerPrompt)
			examples, err := retriever.Retrieve(domain, domain)
			if err != nil {
				return err
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

			spec, _, err := mapping.Propose(context.Background(), agent, domainSpec, profileList, examples)
			if err != nil {
				return err
			}

			if err := enrichment.Enrich(ref, spec, profilePtrs); err != nil {
				return err
			}

			if err := saveMappingSpec(cfg, spec); err != nil {
				return err
			}

			color.Green("proposed %d mapping(s) for %s -> %s", len(spec.VariableMappings), domain, mappingSpecPath(cfg, domain))
			return nil
		},
	}
	cmd.Flags().StringVar(&learningDB, "learning-db", "", "override the learning retriever's SQLite path")
	return cmd
}
