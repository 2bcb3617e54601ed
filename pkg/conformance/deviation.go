package conformance

import (
	"sort"
	"time"
)

// Deviation is one detected discrepancy between a trace and the model.
// Deviations are value objects: created by the detector, never mutated.
type Deviation struct {
	Kind         DeviationKind `json:"kind"`
	Severity     Severity      `json:"severity"`
	ActivityName string        `json:"activity_name"`

	// Expected and Actual are human-readable evidence strings.
	Expected string `json:"expected"`
	Actual   string `json:"actual"`

	// Position is the index in the trace, or -1 when the activity never
	// occurred.
	Position int `json:"position"`

	// Timestamp of the triggering event, if known.
	Timestamp *time.Time `json:"timestamp,omitempty"`

	CaseID string `json:"case_id,omitempty"`

	// Details carries structured evidence specific to the deviation kind.
	Details map[string]interface{} `json:"details,omitempty"`

	// Recommendation suggests how to address the deviation.
	Recommendation string `json:"recommendation,omitempty"`
}

// KindCount pairs a deviation kind with its occurrence count.
type KindCount struct {
	Kind  DeviationKind `json:"kind"`
	Count int           `json:"count"`
}

// DeviationSummary aggregates deviations across many cases.
type DeviationSummary struct {
	TotalDeviations int            `json:"total_deviations"`
	ByKind          map[string]int `json:"by_kind"`
	BySeverity      map[string]int `json:"by_severity"`
	ByActivity      map[string]int `json:"by_activity"`

	// MostCommon holds the top-5 kinds by count, ties broken by kind name
	// so the summary is deterministic.
	MostCommon []KindCount `json:"most_common"`
}

// SummarizeDeviations tallies a deviation list by kind, severity and
// activity, and computes the most-common kinds.
func SummarizeDeviations(deviations []Deviation) DeviationSummary {
	summary := DeviationSummary{
		TotalDeviations: len(deviations),
		ByKind:          make(map[string]int),
		BySeverity:      make(map[string]int),
		ByActivity:      make(map[string]int),
	}

	for _, d := range deviations {
		summary.ByKind[string(d.Kind)]++
		summary.BySeverity[d.Severity.String()]++
		summary.ByActivity[d.ActivityName]++
	}

	counts := make([]KindCount, 0, len(summary.ByKind))
	for kind, count := range summary.ByKind {
		counts = append(counts, KindCount{Kind: DeviationKind(kind), Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Kind < counts[j].Kind
	})
	if len(counts) > 5 {
		counts = counts[:5]
	}
	summary.MostCommon = counts

	return summary
}
