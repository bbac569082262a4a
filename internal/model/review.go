package model

import "time"

// CorrectionType is the reviewer's disposition of one proposed VariableMapping.
type CorrectionType string

const (
	CorrectionAccept CorrectionType = "ACCEPT"
	CorrectionModify CorrectionType = "MODIFY"
	CorrectionReject CorrectionType = "REJECT"
	CorrectionAdd    CorrectionType = "ADD"
)

// WasCorrected reports whether this disposition counts as a learning
// "correction" (anything other than a clean accept/reject/add).
func (c CorrectionType) WasCorrected() bool {
	return c != CorrectionAccept && c != CorrectionReject && c != CorrectionAdd
}

// HumanCorrection is one reviewer decision on one proposed variable.
type HumanCorrection struct {
	VariableIndex    int              `json:"variable_index"`
	CorrectionType   CorrectionType   `json:"correction_type"`
	OriginalMapping  VariableMapping  `json:"original_mapping"`
	CorrectedMapping *VariableMapping `json:"corrected_mapping,omitempty"`
	Reason           string           `json:"reason,omitempty"`
	Timestamp        time.Time        `json:"timestamp"`
}

// DomainReviewStatus tracks one domain's progress through the Review Gate.
type DomainReviewStatus string

const (
	ReviewPending    DomainReviewStatus = "PENDING"
	ReviewInProgress DomainReviewStatus = "IN_PROGRESS"
	ReviewCompleted  DomainReviewStatus = "COMPLETED"
)

// DomainReview is one domain's review state within a ReviewSession.
type DomainReview struct {
	Status    DomainReviewStatus `json:"status"`
	Decisions []HumanCorrection  `json:"decisions"`
}

// ReviewSession is the durable, resumable state of a human review pass over
// a study's domains.
type ReviewSession struct {
	SessionID     string                   `json:"session_id"`
	StudyID       string                   `json:"study_id"`
	DomainReviews map[string]*DomainReview `json:"domain_reviews"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

// FirstIncompleteDomain returns the first domain (by insertion order supplied
// by order) whose status is not COMPLETED, for Resume to continue from.
func (s *ReviewSession) FirstIncompleteDomain(order []string) (string, bool) {
	for _, domain := range order {
		dr, ok := s.DomainReviews[domain]
		if !ok || dr.Status != ReviewCompleted {
			return domain, true
		}
	}
	return "", false
}
