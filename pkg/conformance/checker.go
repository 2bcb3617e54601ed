package conformance

import (
	"math"

	"github.com/checkflow/checkflow/internal/model"
)

// Fitness penalties per deviation, by severity. The model is a flat
// additive penalty, not a normalized metric: many minor deviations can
// drive fitness to zero just like a couple of critical ones.
const (
	penaltyCritical = 0.30
	penaltyMajor    = 0.15
	penaltyMinor    = 0.05
	penaltyInfo     = 0.01
	penaltyUnknown  = 0.10
)

// CaseResult is the outcome of checking a single trace.
type CaseResult struct {
	CaseID string `json:"case_id"`

	// IsConformant is true when the trace has no critical deviations, or,
	// in strict mode, no deviations at all.
	IsConformant bool `json:"is_conformant"`

	// IsFullyConformant is true when the trace has zero deviations.
	IsFullyConformant bool `json:"is_fully_conformant"`

	// FitnessScore is in [0, 1], rounded to 4 decimal places.
	FitnessScore float64 `json:"fitness_score"`

	Deviations []Deviation `json:"deviations"`

	// ExecutedActivities are the mapped activity names in trace order;
	// activities unknown to the model pass through unchanged.
	ExecutedActivities []string `json:"executed_activities"`

	// ExpectedActivities is the model's mandatory dependency order.
	ExpectedActivities []string `json:"expected_activities"`

	TraceLength int `json:"trace_length"`
}

// LogResult aggregates case results across a whole log.
type LogResult struct {
	TotalCases          int `json:"total_cases"`
	ConformantCases     int `json:"conformant_cases"`
	FullyConformantCase int `json:"fully_conformant_cases"`

	// SkippedCases counts cases dropped for having no events. They do not
	// participate in any rate or fitness statistic.
	SkippedCases int `json:"skipped_cases,omitempty"`

	// Rates are percentages rounded to 2 decimal places.
	ConformanceRate     float64 `json:"conformance_rate"`
	FullConformanceRate float64 `json:"full_conformance_rate"`

	// Fitness statistics over all checked cases, rounded to 4 decimals.
	AverageFitness float64 `json:"average_fitness"`
	MinFitness     float64 `json:"min_fitness"`
	MaxFitness     float64 `json:"max_fitness"`

	TotalDeviations int              `json:"total_deviations"`
	Summary         DeviationSummary `json:"deviation_summary"`

	CaseResults []CaseResult `json:"case_results"`
}

// Checker orchestrates deviation detection and fitness scoring across
// traces and logs. A checker is safe for concurrent CheckTrace calls as
// long as the scorer's rules are not mutated during checking.
type Checker struct {
	model    *ProcessModel
	scorer   *SeverityScorer
	detector *DeviationDetector

	// strict requires zero deviations of any severity for conformance.
	strict bool
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithStrictMode makes conformance require zero deviations of any
// severity instead of just zero critical ones.
func WithStrictMode() CheckerOption {
	return func(c *Checker) { c.strict = true }
}

// WithScorer supplies a custom severity scorer.
func WithScorer(scorer *SeverityScorer) CheckerOption {
	return func(c *Checker) { c.scorer = scorer }
}

// NewChecker creates a checker for the given model.
func NewChecker(m *ProcessModel, opts ...CheckerOption) *Checker {
	c := &Checker{model: m}
	for _, opt := range opts {
		opt(c)
	}
	if c.scorer == nil {
		c.scorer = NewSeverityScorer()
	}
	c.detector = NewDeviationDetector(m, c.scorer)
	return c
}

// Model returns the process model the checker evaluates against.
func (c *Checker) Model() *ProcessModel { return c.model }

// Strict reports whether strict conformance mode is enabled.
func (c *Checker) Strict() bool { return c.strict }

// CheckTrace evaluates one trace. An empty trace is trivially conformant
// with fitness 1.0.
func (c *Checker) CheckTrace(trace []model.Event, caseID string) CaseResult {
	deviations := c.detector.DetectDeviations(trace, caseID)

	executed := make([]string, 0, len(trace))
	for _, ev := range trace {
		if ev.Activity == "" {
			continue
		}
		name := ev.Activity
		if a, ok := c.model.ActivityForEvent(ev.Activity); ok {
			name = a.Name
		}
		executed = append(executed, name)
	}

	return CaseResult{
		CaseID:             caseID,
		IsConformant:       c.isConformant(deviations),
		IsFullyConformant:  len(deviations) == 0,
		FitnessScore:       Fitness(deviations),
		Deviations:         deviations,
		ExecutedActivities: executed,
		ExpectedActivities: c.model.ExpectedSequence(),
		TraceLength:        len(trace),
	}
}

func (c *Checker) isConformant(deviations []Deviation) bool {
	if c.strict {
		return len(deviations) == 0
	}
	for _, d := range deviations {
		if d.Severity == SeverityCritical {
			return false
		}
	}
	return true
}

// Fitness computes the additive fitness score for a deviation list:
// start at 1.0, subtract a per-deviation penalty by severity, clamp at
// 0.0, round to 4 decimal places.
func Fitness(deviations []Deviation) float64 {
	score := 1.0
	for _, d := range deviations {
		switch d.Severity {
		case SeverityCritical:
			score -= penaltyCritical
		case SeverityMajor:
			score -= penaltyMajor
		case SeverityMinor:
			score -= penaltyMinor
		case SeverityInfo:
			score -= penaltyInfo
		default:
			score -= penaltyUnknown
		}
	}
	if score < 0 {
		score = 0
	}
	return round4(score)
}

// CheckLog evaluates every case in a log and aggregates the results.
// Cases without events are skipped, counted in SkippedCases only. An
// empty log yields a zero-valued LogResult.
func (c *Checker) CheckLog(log model.Log) LogResult {
	results := make([]CaseResult, 0, len(log))
	skipped := 0
	for _, cs := range log {
		if len(cs.Events) == 0 {
			skipped++
			continue
		}
		results = append(results, c.CheckTrace(cs.Events, cs.ID))
	}
	out := c.Aggregate(results)
	out.SkippedCases = skipped
	return out
}

// CheckFlatLog groups a flat event stream by case id, orders each case's
// events by timestamp with missing timestamps sorting first, and checks
// the resulting log.
func (c *Checker) CheckFlatLog(events []model.Event) LogResult {
	return c.CheckLog(model.GroupByCase(events))
}

// Aggregate combines per-case results into a LogResult. It is split out
// from CheckLog so concurrent callers can collect CaseResults first and
// reduce single-threaded.
func (c *Checker) Aggregate(results []CaseResult) LogResult {
	out := LogResult{
		TotalCases:  len(results),
		CaseResults: results,
		Summary:     SummarizeDeviations(nil),
	}
	if len(results) == 0 {
		return out
	}

	var allDeviations []Deviation
	sum := 0.0
	min := math.Inf(1)
	max := math.Inf(-1)

	for _, r := range results {
		if r.IsConformant {
			out.ConformantCases++
		}
		if r.IsFullyConformant {
			out.FullyConformantCase++
		}
		sum += r.FitnessScore
		if r.FitnessScore < min {
			min = r.FitnessScore
		}
		if r.FitnessScore > max {
			max = r.FitnessScore
		}
		allDeviations = append(allDeviations, r.Deviations...)
	}

	n := float64(len(results))
	out.ConformanceRate = round2(100 * float64(out.ConformantCases) / n)
	out.FullConformanceRate = round2(100 * float64(out.FullyConformantCase) / n)
	out.AverageFitness = round4(sum / n)
	out.MinFitness = round4(min)
	out.MaxFitness = round4(max)
	out.TotalDeviations = len(allDeviations)
	out.Summary = SummarizeDeviations(allDeviations)

	return out
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
