package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/SanmaySarada/astraea-sdtm/internal/config"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
	"github.com/SanmaySarada/astraea-sdtm/internal/review"
)

// pendingDomains lists every domain with a <domain>_spec.json in cfg's
// output directory, sorted — the review gate runs over whatever has been
// proposed by map-domain so far.
func pendingDomains(cfg *config.Config) ([]string, error) {
	entries, err := os.ReadDir(cfg.OutputDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var domains []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), "_spec.json") {
			domains = append(domains, strings.TrimSuffix(e.Name(), "_spec.json"))
		}
	}
	sort.Strings(domains)
	return domains, nil
}

func currentSessionID(cfg *config.Config) (string, error) {
	raw, err := os.ReadFile(statePath(cfg, sessionIDFileName))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func saveSessionID(cfg *config.Config, sessionID string) error {
	path := statePath(cfg, sessionIDFileName)
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(sessionID), 0o644)
}

// openOrCreateSession resolves the active ReviewSession for cfg: the one
// named in .astraea/session_id.txt if present, else a fresh session
// covering every domain with a proposed mapping spec.
func openOrCreateSession(store *review.Store, cfg *config.Config) (*model.ReviewSession, error) {
	if sessionID, err := currentSessionID(cfg); err != nil {
		return nil, err
	} else if sessionID != "" {
		return store.LoadSession(sessionID)
	}

	domains, err := pendingDomains(cfg)
	if err != nil {
		return nil, err
	}
	if len(domains) == 0 {
		return nil, fmt.Errorf("review: no domain mapping specs found in %s (run `astraea map-domain` first)", cfg.OutputDir)
	}
	session, err := store.NewSession(cfg.StudyID, domains)
	if err != nil {
		return nil, err
	}
	if err := saveSessionID(cfg, session.SessionID); err != nil {
		return nil, err
	}
	return session, nil
}

func newReviewDomainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review-domain <domain>",
		Short: "Walk a reviewer through every proposed variable for one domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain := strings.ToUpper(args[0])
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := review.NewStore(cfg.SessionsDBPath())
			if err != nil {
				return err
			}
			defer store.Close()

			session, err := openOrCreateSession(store, cfg)
			if err != nil {
				return err
			}
			if _, ok := session.DomainReviews[domain]; !ok {
				return fmt.Errorf("review: %s is not part of session %s", domain, session.SessionID)
			}

			spec, err := loadMappingSpec(cfg, domain)
			if err != nil {
				return err
			}

			gate := review.Gate{Store: store, Prompter: review.TerminalPrompter{}}
			if err := gate.RunDomain(session, domain, spec); err != nil {
				return err
			}

			if err := saveMappingSpec(cfg, spec); err != nil {
				return err
			}

			color.Green("review complete for %s (session %s)", domain, session.SessionID)
			return nil
		},
	}
}

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume the active review session at its first incomplete domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := review.NewStore(cfg.SessionsDBPath())
			if err != nil {
				return err
			}
			defer store.Close()

			sessionID, err := currentSessionID(cfg)
			if err != nil {
				return err
			}
			if sessionID == "" {
				return fmt.Errorf("resume: no active review session (run `astraea review-domain` first)")
			}
			session, err := store.LoadSession(sessionID)
			if err != nil {
				return err
			}

			domains, err := pendingDomains(cfg)
			if err != nil {
				return err
			}
			domain, ok := session.FirstIncompleteDomain(domains)
			if !ok {
				color.Green("session %s has no incomplete domains", sessionID)
				return nil
			}

			spec, err := loadMappingSpec(cfg, domain)
			if err != nil {
				return err
			}

			gate := review.Gate{Store: store, Prompter: review.TerminalPrompter{}}
			if err := gate.RunDomain(session, domain, spec); err != nil {
				return err
			}
			if err := saveMappingSpec(cfg, spec); err != nil {
				return err
			}

			color.Green("review complete for %s (session %s)", domain, sessionID)
			return nil
		},
	}
}
