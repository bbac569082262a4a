package review

import (
	"fmt"
	"time"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// Prompter asks a human for one variable's disposition. The concrete
// terminal implementation lives in prompt.go; tests substitute a scripted
// stub so Gate's control flow is exercised without a real terminal.
type Prompter interface {
	Decide(domain string, index int, vm *model.VariableMapping) (model.HumanCorrection, error)
}

// Gate drives one domain's review pass: present each variable, capture the
// reviewer's decision, persist it immediately, and mark the domain
// COMPLETED once every variable (and any ADD) has a decision.
type Gate struct {
	Store    *Store
	Prompter Prompter
}

// RunDomain reviews every variable of spec for session, resuming from the
// first variable_index with no persisted decision for this domain.
// Corrections (MODIFY) and rejections are applied to spec in place so the
// caller's enriched spec reflects exactly what the reviewer approved.
func (g *Gate) RunDomain(session *model.ReviewSession, domain string, spec *model.DomainMappingSpec) error {
	dr, ok := session.DomainReviews[domain]
	if !ok {
		return fmt.Errorf("review: session %s has no domain review for %s", session.SessionID, domain)
	}
	if dr.Status == model.ReviewCompleted {
		return nil
	}

	decided := make(map[int]bool, len(dr.Decisions))
	for _, d := range dr.Decisions {
		decided[d.VariableIndex] = true
	}

	ordered := spec.Ordered()
	for i, vm := range ordered {
		if decided[i] {
			continue
		}

		decision, err := g.Prompter.Decide(domain, i, vm)
		if err != nil {
			return fmt.Errorf("review: decide %s.%s: %w", domain, vm.SDTMVariable, err)
		}
		decision.VariableIndex = i
		decision.Timestamp = time.Now().UTC()

		ApplyDecision(spec, decision)

		if err := g.Store.RecordDecision(session.SessionID, domain, decision); err != nil {
			return err
		}
		dr.Decisions = append(dr.Decisions, decision)
	}

	if err := g.Store.CompleteDomain(session.SessionID, domain); err != nil {
		return err
	}
	dr.Status = model.ReviewCompleted
	return nil
}

// ApplyDecision mutates spec to reflect one reviewer decision:
//   - ACCEPT leaves the mapping as proposed.
//   - MODIFY replaces it with CorrectedMapping.
//   - REJECT removes it from the spec entirely.
//   - ADD inserts CorrectedMapping as a new mapping.
func ApplyDecision(spec *model.DomainMappingSpec, decision model.HumanCorrection) {
	switch decision.CorrectionType {
	case model.CorrectionAccept:
		// no-op: the proposed mapping already lives in spec.
	case model.CorrectionModify:
		if decision.CorrectedMapping != nil {
			spec.Add(decision.CorrectedMapping)
		}
	case model.CorrectionReject:
		delete(spec.VariableMappings, decision.OriginalMapping.SDTMVariable)
		spec.TotalVariables = len(spec.VariableMappings)
	case model.CorrectionAdd:
		if decision.CorrectedMapping != nil {
			spec.Add(decision.CorrectedMapping)
		}
	}
}
