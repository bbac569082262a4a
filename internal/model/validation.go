package model

import (
	"fmt"
	"time"
)

// RuleCategory classifies a validation rule.
type RuleCategory string

const (
	CategoryTerminology RuleCategory = "TERMINOLOGY"
	CategoryPresence    RuleCategory = "PRESENCE"
	CategoryConsistency RuleCategory = "CONSISTENCY"
	CategoryLimit       RuleCategory = "LIMIT"
	CategoryFormat      RuleCategory = "FORMAT"
	CategoryFDABusiness RuleCategory = "FDA_BUSINESS"
	CategoryFDATRC      RuleCategory = "FDA_TRC"
)

// Severity is a validation finding's severity.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityNotice  Severity = "NOTICE"
)

// RuleResult is one finding emitted by the Validation Engine.
type RuleResult struct {
	RuleID                 string       `json:"rule_id"`
	RuleDescription        string       `json:"rule_description"`
	Category               RuleCategory `json:"category"`
	Severity               Severity     `json:"severity"`
	Domain                 string       `json:"domain,omitempty"`
	Variable               string       `json:"variable,omitempty"`
	Message                string       `json:"message"`
	AffectedCount          int          `json:"affected_count"`
	FixSuggestion          string       `json:"fix_suggestion,omitempty"`
	P21Equivalent          string       `json:"p21_equivalent,omitempty"`
	KnownFalsePositive     bool         `json:"known_false_positive"`
	KnownFalsePositiveReason string     `json:"known_false_positive_reason,omitempty"`
}

// Error makes RuleResult satisfy the error interface, so a caller that wants
// every submission-blocking finding combined into one error (e.g. via
// go.uber.org/multierr) can do so without a separate wrapper type.
func (r RuleResult) Error() string {
	return fmt.Sprintf("%s [%s/%s]: %s", r.RuleID, r.Domain, r.Variable, r.Message)
}

// DomainSummary aggregates findings for one domain.
type DomainSummary struct {
	Domain              string `json:"domain"`
	ErrorCount          int    `json:"error_count"`
	EffectiveErrorCount int    `json:"effective_error_count"`
	WarningCount        int    `json:"warning_count"`
	NoticeCount         int    `json:"notice_count"`
}

// ValidationReport is the aggregate output of a full validation pass.
type ValidationReport struct {
	Results              []RuleResult              `json:"results"`
	DomainSummaries      map[string]DomainSummary   `json:"domain_summaries"`
	CategorySummaries    map[RuleCategory]int       `json:"category_summaries"`
	PassRate             float64                    `json:"pass_rate"`
	EffectiveErrorCount  int                        `json:"effective_error_count"`
	SubmissionReady      bool                       `json:"submission_ready"`
	GeneratedAt          time.Time                  `json:"generated_at"`
}

// WhitelistEntry is one known-false-positive suppression rule.
type WhitelistEntry struct {
	RuleID   string `json:"rule_id" yaml:"rule_id"`
	Domain   string `json:"domain,omitempty" yaml:"domain,omitempty"`     // "", "*", or exact domain
	Variable string `json:"variable,omitempty" yaml:"variable,omitempty"` // "", "*", or exact variable
	Reason   string `json:"reason" yaml:"reason"`
}

// Matches reports whether entry suppresses the given result, per the §4.8
// matching rule: rule_id matches exactly; domain/variable match when absent,
// "*", or equal to the result's field.
func (e WhitelistEntry) Matches(r RuleResult) bool {
	if e.RuleID != r.RuleID {
		return false
	}
	if !fieldMatches(e.Domain, r.Domain) {
		return false
	}
	if !fieldMatches(e.Variable, r.Variable) {
		return false
	}
	return true
}

func fieldMatches(pattern, value string) bool {
	return pattern == "" || pattern == "*" || pattern == value
}
