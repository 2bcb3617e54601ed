package conformance

import "fmt"

// DeviationKind names a class of process deviation. Values are the
// lowercase wire tags used in serialized results.
type DeviationKind string

const (
	// DeviationSkippedActivity: a required predecessor was not executed
	// before the activity ran.
	DeviationSkippedActivity DeviationKind = "skipped_activity"
	// DeviationWrongOrder: activities executed out of expected sequence.
	DeviationWrongOrder DeviationKind = "wrong_order"
	// DeviationUnexpectedActivity: an activity not in the model occurred.
	DeviationUnexpectedActivity DeviationKind = "unexpected_activity"
	// DeviationMissingActivity: a mandatory activity never occurred.
	DeviationMissingActivity DeviationKind = "missing_activity"
	// DeviationDuplicateActivity: a modeled activity repeated unexpectedly.
	DeviationDuplicateActivity DeviationKind = "duplicate_activity"
	// DeviationInvalidStart: the trace began with a non-start activity.
	DeviationInvalidStart DeviationKind = "invalid_start"
	// DeviationInvalidEnd: the trace ended on a non-end activity even
	// though every mandatory activity had occurred.
	DeviationInvalidEnd DeviationKind = "invalid_end"
)

// Severity ranks deviations. The numeric order is the sort order:
// Critical < Major < Minor < Info.
type Severity uint8

const (
	// SeverityCritical: process fundamentally invalid.
	SeverityCritical Severity = iota
	// SeverityMajor: significant issue requiring attention.
	SeverityMajor
	// SeverityMinor: small deviation, may be acceptable.
	SeverityMinor
	// SeverityInfo: informational only.
	SeverityInfo
)

// String returns the lowercase wire tag.
func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityMajor:
		return "major"
	case SeverityMinor:
		return "minor"
	case SeverityInfo:
		return "info"
	default:
		return fmt.Sprintf("severity(%d)", uint8(s))
	}
}

// MarshalText serializes the severity as its lowercase tag.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a lowercase severity tag.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, ok := ParseSeverity(string(text))
	if !ok {
		return fmt.Errorf("unknown severity %q", text)
	}
	*s = parsed
	return nil
}

// ParseSeverity parses a lowercase severity tag.
func ParseSeverity(s string) (Severity, bool) {
	switch s {
	case "critical":
		return SeverityCritical, true
	case "major":
		return SeverityMajor, true
	case "minor":
		return SeverityMinor, true
	case "info":
		return SeverityInfo, true
	default:
		return 0, false
	}
}

// DefaultRuleActivity is the rule key that supplies a kind's fallback
// severity when no activity-specific rule matches.
const DefaultRuleActivity = "default"

// SeverityRules maps deviation kind -> (activity name or "default") ->
// severity.
type SeverityRules map[DeviationKind]map[string]Severity

// DefaultSeverityRules returns the built-in scoring table. A fresh copy is
// returned each call so callers may mutate their own scorer freely.
func DefaultSeverityRules() SeverityRules {
	return SeverityRules{
		DeviationSkippedActivity: {
			DefaultRuleActivity: SeverityMajor,
			"OrderCreated":      SeverityCritical, // no order = invalid
			"DeliveryCreated":   SeverityMajor,
			"GoodsIssued":       SeverityMajor,
			"InvoiceCreated":    SeverityMajor,
		},
		DeviationWrongOrder: {
			DefaultRuleActivity: SeverityMajor,
			"InvoiceCreated":    SeverityCritical, // invoice before delivery
			"GoodsIssued":       SeverityMajor,
			"DeliveryCreated":   SeverityMajor,
		},
		DeviationUnexpectedActivity: {
			DefaultRuleActivity: SeverityMinor,
		},
		DeviationMissingActivity: {
			DefaultRuleActivity: SeverityMajor,
			"OrderCreated":      SeverityCritical,
			"InvoiceCreated":    SeverityMinor, // may be pending
		},
		DeviationDuplicateActivity: {
			DefaultRuleActivity: SeverityMinor,
		},
		DeviationInvalidStart: {
			DefaultRuleActivity: SeverityCritical,
		},
		DeviationInvalidEnd: {
			DefaultRuleActivity: SeverityMinor, // process may be in progress
		},
	}
}

// SeverityScorer resolves the severity of a deviation from a configurable
// rule table. Lookups never fail: an activity-specific rule wins, then the
// kind's "default" rule, then a hard fallback of SeverityMajor.
//
// Scorers are not singletons; each checking session constructs its own so
// rule mutation in one session cannot leak into another. AddRule is meant
// for setup time and must not race with concurrent checking.
type SeverityScorer struct {
	rules SeverityRules
}

// NewSeverityScorer creates a scorer with the default rule table.
func NewSeverityScorer() *SeverityScorer {
	return &SeverityScorer{rules: DefaultSeverityRules()}
}

// NewSeverityScorerWithRules creates a scorer from a custom rule table.
// The table is used as-is; callers should not share it across scorers.
func NewSeverityScorerWithRules(rules SeverityRules) *SeverityScorer {
	if rules == nil {
		rules = DefaultSeverityRules()
	}
	return &SeverityScorer{rules: rules}
}

// Severity resolves the severity for a deviation kind and activity.
func (s *SeverityScorer) Severity(kind DeviationKind, activityName string) Severity {
	kindRules := s.rules[kind]
	if sev, ok := kindRules[activityName]; ok {
		return sev
	}
	if sev, ok := kindRules[DefaultRuleActivity]; ok {
		return sev
	}
	return SeverityMajor
}

// AddRule sets a rule for a kind and activity name (or DefaultRuleActivity
// to change the kind's fallback).
func (s *SeverityScorer) AddRule(kind DeviationKind, activityName string, severity Severity) {
	if s.rules[kind] == nil {
		s.rules[kind] = make(map[string]Severity)
	}
	s.rules[kind][activityName] = severity
}
