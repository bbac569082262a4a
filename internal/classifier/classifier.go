package classifier

import (
	"context"
	"fmt"
	"strings"

	"bitbucket.org/creachadair/stringset"

	"github.com/SanmaySarada/astraea-sdtm/internal/llm"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// unclassifiedFloor is the confidence below which the final decision is
// forced to UNCLASSIFIED regardless of what either stage produced.
const unclassifiedFloor = 0.3

// heuristicOverrideThreshold is the top heuristic score at or above which a
// disagreeing LLM call is overridden outright.
const heuristicOverrideThreshold = 0.95

// heuristicAgreementThreshold is the heuristic score at or above which agreement
// with the LLM boosts confidence, and disagreement incurs a penalty.
const heuristicAgreementThreshold = 0.8

// agreementBoost and disagreementPenalty implement spec.md §4.3's "exact"
// confidence-adjustment policy.
const agreementBoost = 1.15
const disagreementPenalty = 0.7

// Agent is the subset of llm.Client the classifier depends on, so tests
// can substitute a stub.
type Agent interface {
	ClassifyDataset(ctx context.Context, systemPrompt, userContent string) (*llm.ClassificationProposal, *llm.UsageInfo, error)
}

// ReferenceLookup is the subset of refstore.Store the classifier needs.
type ReferenceLookup interface {
	ListDomains() []string
	GetDomainSpec(domain string) (*model.DomainSpec, error)
}

// HeuristicScore is the stage-1 result for one (dataset, domain) pair.
type HeuristicScore struct {
	Domain           string
	FilenameScore    float64
	VariableOverlap  float64
}

// Top returns the higher of the two component scores, which is what the
// confidence-adjustment policy calls "the heuristic score."
func (h HeuristicScore) Top() float64 {
	if h.FilenameScore > h.VariableOverlap {
		return h.FilenameScore
	}
	return h.VariableOverlap
}

// ScoreDataset computes stage-1 heuristic scores for filename against
// every domain the reference store knows about.
func ScoreDataset(ref ReferenceLookup, filename string, rawVariables []string, edcColumns stringset.Set) ([]HeuristicScore, error) {
	var scores []HeuristicScore
	for _, domain := range ref.ListDomains() {
		spec, err := ref.GetDomainSpec(domain)
		if err != nil {
			return nil, err
		}
		scores = append(scores, HeuristicScore{
			Domain:          domain,
			FilenameScore:   FilenameScore(domain, filename),
			VariableOverlap: VariableOverlapScore(rawVariables, edcColumns, spec),
		})
	}
	return scores, nil
}

func bestScore(scores []HeuristicScore) HeuristicScore {
	var best HeuristicScore
	for _, s := range scores {
		if s.Top() > best.Top() {
			best = s
		}
	}
	return best
}

// Classify runs the full two-stage classification for one dataset and
// returns a DomainClassification reconciling the heuristic and LLM
// outputs under the exact policy in spec.md §4.3.
func Classify(ctx context.Context, agent Agent, ref ReferenceLookup, filename string, clinicalVarSummary string, ecrfForm string, scores []HeuristicScore) (*model.DomainClassification, error) {
	best := bestScore(scores)

	systemPrompt := classificationSystemPrompt(ref.ListDomains())
	userContent := formatClassificationPrompt(filename, clinicalVarSummary, ecrfForm, scores)

	proposal, _, err := agent.ClassifyDataset(ctx, systemPrompt, userContent)
	if err != nil {
		return nil, fmt.Errorf("classifier: LLM fusion call: %w", err)
	}

	domain, confidence, _ := reconcile(best, proposal)

	heuristicScores := make(map[string]float64, len(scores))
	for _, s := range scores {
		heuristicScores[s.Domain] = s.Top()
	}

	result := &model.DomainClassification{
		DatasetName:     filename,
		PrimaryDomain:   domain,
		Confidence:      confidence,
		Reasoning:       proposal.Reasoning,
		MergeCandidates: proposal.MergeCandidates,
		HeuristicScores: heuristicScores,
	}
	if confidence < unclassifiedFloor {
		result.PrimaryDomain = model.Unclassified
	}
	return result, nil
}

// reconcile applies the exact confidence-adjustment policy:
//   - heuristic >= 0.95 and disagrees with the LLM: override, use the
//     heuristic domain and score as confidence.
//   - heuristic and LLM agree and heuristic >= 0.8: boost confidence.
//   - heuristic >= 0.8 but LLM disagrees: multiply confidence by 0.7.
//   - otherwise: take the LLM's domain/confidence unchanged.
func reconcile(best HeuristicScore, proposal *llm.ClassificationProposal) (domain string, confidence float64, overridden bool) {
	heuristicTop := best.Top()
	llmDomain := proposal.PrimaryDomain
	agree := strings.EqualFold(best.Domain, llmDomain)

	switch {
	case heuristicTop >= heuristicOverrideThreshold && !agree:
		return best.Domain, heuristicTop, true
	case agree && heuristicTop >= heuristicAgreementThreshold:
		return llmDomain, clamp01(proposal.Confidence * agreementBoost), false
	case heuristicTop >= heuristicAgreementThreshold && !agree:
		return llmDomain, clamp01(proposal.Confidence * disagreementPenalty), false
	default:
		return llmDomain, proposal.Confidence, false
	}
}

func clamp01(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < 0 {
		return 0
	}
	return v
}

func classificationSystemPrompt(domains []string) string {
	return "You are the dataset-to-SDTM-domain classifier for a clinical data pipeline. " +
		"Given a dataset's name, clinical variable summary, associated eCRF form, and " +
		"heuristic scores, return the single best domain from this list, or UNCLASSIFIED " +
		"if none fit: " + strings.Join(domains, ", ") + ". " +
		"Respond with primary_domain, confidence (0-1), reasoning, and merge_candidates."
}

func formatClassificationPrompt(filename, clinicalVarSummary, ecrfForm string, scores []HeuristicScore) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dataset: %s\n", filename)
	fmt.Fprintf(&b, "Clinical variables: %s\n", clinicalVarSummary)
	if ecrfForm != "" {
		fmt.Fprintf(&b, "Associated eCRF form: %s\n", ecrfForm)
	}
	b.WriteString("Heuristic scores:\n")
	for _, s := range scores {
		fmt.Fprintf(&b, "  %s: filename=%.2f overlap=%.2f\n", s.Domain, s.FilenameScore, s.VariableOverlap)
	}
	return b.String()
}
