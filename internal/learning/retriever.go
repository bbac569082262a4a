package learning

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SanmaySarada/astraea-sdtm/internal/llm"
	"github.com/SanmaySarada/astraea-sdtm/internal/mapping"
	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// maxCorrectionExamples caps how many correction examples Retrieve will
// surface ahead of approved ones, per spec.md §4.12's "corrections are
// weighted more heavily... up to 3 per prompt."
const maxCorrectionExamples = 3

// EmbeddedText builds the lexical document a LearningExample is retrieved
// against: the domain, SDTM variable, source variable, and pattern
// concatenated, so token-overlap similarity has a stable surface to
// compare. A real embedding-model call is an external-collaborator
// concern (spec.md §1) this package does not make; it retrieves by lexical
// similarity instead, which is deterministic and needs no network access.
func EmbeddedText(domain string, vm model.VariableMapping) string {
	return strings.Join([]string{
		domain, vm.SDTMVariable, vm.SourceVariable, string(vm.Pattern), vm.DerivationRule,
	}, " ")
}

// Retriever surfaces past mapping decisions as few-shot examples for the
// mapping agent (C2/internal/mapping), favoring reviewer corrections over
// clean approvals and ranking by lexical similarity to the domain/profile
// being mapped now.
//
// Grounded on the teacher's internal/ai/example_store.go
// (FormatExamplesForPrompt's per-operation retrieval), generalized from an
// in-memory map to a SQLite-backed Store and from exact operation-key match
// to token-overlap similarity scoring.
type Retriever struct {
	store *Store
	limit int
}

// NewRetriever returns a Retriever pulling from store, returning up to
// limit examples per call.
func NewRetriever(store *Store, limit int) *Retriever {
	if limit <= 0 {
		limit = 5
	}
	return &Retriever{store: store, limit: limit}
}

// Retrieve returns up to r.limit examples for domain, most relevant to
// query (typically the domain's raw column/field summary), as
// mapping.Examples ready for few-shot prompt injection. Corrections are
// ranked and taken first (capped at maxCorrectionExamples), then approved
// examples fill any remaining slots.
func (r *Retriever) Retrieve(domain, query string) ([]mapping.Example, error) {
	corrections, err := r.store.ByDomain(CollectionCorrection, domain)
	if err != nil {
		return nil, fmt.Errorf("learning: retrieve corrections for %s: %w", domain, err)
	}
	approved, err := r.store.ByDomain(CollectionApproved, domain)
	if err != nil {
		return nil, fmt.Errorf("learning: retrieve approved for %s: %w", domain, err)
	}

	rankedCorrections := rankBySimilarity(query, corrections)
	if len(rankedCorrections) > maxCorrectionExamples {
		rankedCorrections = rankedCorrections[:maxCorrectionExamples]
	}

	remaining := r.limit - len(rankedCorrections)
	var rankedApproved []model.LearningExample
	if remaining > 0 {
		rankedApproved = rankBySimilarity(query, approved)
		if len(rankedApproved) > remaining {
			rankedApproved = rankedApproved[:remaining]
		}
	}

	out := make([]mapping.Example, 0, len(rankedCorrections)+len(rankedApproved))
	for _, ex := range rankedCorrections {
		out = append(out, toMappingExample(ex))
	}
	for _, ex := range rankedApproved {
		out = append(out, toMappingExample(ex))
	}
	return out, nil
}

func toMappingExample(ex model.LearningExample) mapping.Example {
	return mapping.Example{
		Domain:      ex.Domain,
		SourceField: ex.SourceVariable,
		Mapping: llm.ProposedVariableMapping{
			SDTMVariable:    ex.SDTMVariable,
			Pattern:         string(ex.Pattern),
			SourceVariable:  ex.SourceVariable,
			DerivationRule:  ex.DerivationRule,
			ConfidenceScore: 1.0,
		},
	}
}

// rankBySimilarity orders examples by descending token-overlap similarity
// to query, ties broken by example ID for determinism.
func rankBySimilarity(query string, examples []model.LearningExample) []model.LearningExample {
	queryTokens := tokenize(query)

	type scored struct {
		ex    model.LearningExample
		score float64
	}
	scoredExamples := make([]scored, len(examples))
	for i, ex := range examples {
		scoredExamples[i] = scored{ex: ex, score: jaccard(queryTokens, tokenize(ex.EmbeddedText))}
	}

	sort.SliceStable(scoredExamples, func(i, j int) bool {
		if scoredExamples[i].score != scoredExamples[j].score {
			return scoredExamples[i].score > scoredExamples[j].score
		}
		return scoredExamples[i].ex.ExampleID < scoredExamples[j].ex.ExampleID
	})

	out := make([]model.LearningExample, len(scoredExamples))
	for i, s := range scoredExamples {
		out[i] = s.ex
	}
	return out
}

func tokenize(s string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

// jaccard is the intersection-over-union similarity of two token sets, 0
// when both are empty.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for t := range a {
		if b[t] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
