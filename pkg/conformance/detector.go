package conformance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/checkflow/checkflow/internal/model"
)

// DeviationDetector detects deviations in event traces against a process
// model. It runs six independent passes in a fixed order:
//
//  1. invalid start
//  2. skipped prerequisites and wrong order (single forward scan)
//  3. unexpected activities
//  4. missing mandatory activities
//  5. duplicate activities
//  6. invalid end (only when every mandatory activity occurred)
//
// Detection is a pure function of (model, scorer, trace): no state is
// shared across calls, so identical inputs always produce identical,
// order-stable output. Detectors are safe for concurrent use as long as
// the scorer is not being mutated.
type DeviationDetector struct {
	model    *ProcessModel
	scorer   *SeverityScorer
	depOrder map[string]int
}

// NewDeviationDetector creates a detector. A nil scorer gets the default
// rule table.
func NewDeviationDetector(m *ProcessModel, scorer *SeverityScorer) *DeviationDetector {
	if scorer == nil {
		scorer = NewSeverityScorer()
	}
	return &DeviationDetector{
		model:    m,
		scorer:   scorer,
		depOrder: m.DependencyOrder(),
	}
}

// step is one resolved entry of the activity sequence: the mapped activity
// name plus the evidence needed to report a deviation at that point.
type step struct {
	name      string
	timestamp *time.Time
}

// DetectDeviations runs all passes over a trace and returns the detected
// deviations sorted by severity, ties in detection order.
func (d *DeviationDetector) DetectDeviations(trace []model.Event, caseID string) []Deviation {
	steps := d.resolveSteps(trace)
	if len(steps) == 0 {
		return nil
	}

	var deviations []Deviation
	deviations = append(deviations, d.checkStart(steps, caseID)...)
	deviations = append(deviations, d.checkOrder(steps, caseID)...)
	deviations = append(deviations, d.checkUnexpected(steps, caseID)...)
	deviations = append(deviations, d.checkMissing(steps, caseID)...)
	deviations = append(deviations, d.checkDuplicates(steps, caseID)...)
	deviations = append(deviations, d.checkEnd(steps, caseID)...)

	sort.SliceStable(deviations, func(i, j int) bool {
		return deviations[i].Severity < deviations[j].Severity
	})

	return deviations
}

// resolveSteps maps raw trace records onto model activity names. Records
// with no activity are skipped silently; unmapped event types pass through
// as-is so later passes can flag them as unexpected.
func (d *DeviationDetector) resolveSteps(trace []model.Event) []step {
	steps := make([]step, 0, len(trace))
	for _, ev := range trace {
		if ev.Activity == "" {
			continue
		}

		name := ev.Activity
		if a, ok := d.model.ActivityForEvent(ev.Activity); ok {
			name = a.Name
		}

		var ts *time.Time
		if ev.HasTimestamp() {
			t := ev.Timestamp
			ts = &t
		}

		steps = append(steps, step{name: name, timestamp: ts})
	}
	return steps
}

// checkStart flags a trace whose first activity is a known model activity
// but not a start activity. An entirely unknown first activity is left to
// the unexpected-activity pass.
func (d *DeviationDetector) checkStart(steps []step, caseID string) []Deviation {
	first := steps[0]
	if d.model.IsStartActivity(first.name) {
		return nil
	}
	if _, known := d.model.Activity(first.name); !known {
		return nil
	}

	return []Deviation{{
		Kind:           DeviationInvalidStart,
		Severity:       d.scorer.Severity(DeviationInvalidStart, first.name),
		ActivityName:   first.name,
		Expected:       "Start with: " + joinSet(d.model.StartActivities()),
		Actual:         "Started with: " + first.name,
		Position:       0,
		Timestamp:      first.timestamp,
		CaseID:         caseID,
		Recommendation: "Ensure the process begins with a valid start activity",
	}}
}

// checkOrder performs the forward scan that detects both skipped
// prerequisites and wrong-order execution, maintaining a running set of
// executed activities. Unknown activities are recorded as executed too, so
// a single unknown step does not cascade into false positives.
//
// The wrong-order comparison deliberately checks the current activity
// against every already-executed activity with a dependency-order
// position, so one true ordering violation can emit several deviations.
// This over-reporting matches the established behavior that consumers
// already tally; collapsing it to one deviation per violating pair would
// change observable output.
func (d *DeviationDetector) checkOrder(steps []step, caseID string) []Deviation {
	var deviations []Deviation

	executed := make(map[string]bool)
	var executionOrder []string

	for i, st := range steps {
		if _, known := d.model.Activity(st.name); !known {
			if !executed[st.name] {
				executed[st.name] = true
				executionOrder = append(executionOrder, st.name)
			}
			continue
		}

		mandatoryPreds := make(map[string]bool)
		anyExecuted := false
		for pred := range d.model.ValidPreviousActivities(st.name) {
			if d.model.IsMandatory(pred) {
				mandatoryPreds[pred] = true
				if executed[pred] {
					anyExecuted = true
				}
			}
		}

		if len(mandatoryPreds) > 0 && !anyExecuted && !d.model.IsStartActivity(st.name) {
			skipped := make(map[string]bool)
			for pred := range mandatoryPreds {
				if !executed[pred] {
					skipped[pred] = true
				}
			}
			skippedList := sortedKeys(skipped)
			deviations = append(deviations, Deviation{
				Kind:         DeviationSkippedActivity,
				Severity:     d.scorer.Severity(DeviationSkippedActivity, st.name),
				ActivityName: st.name,
				Expected:     "Requires: " + strings.Join(skippedList, ", "),
				Actual:       "Prerequisites missing: " + strings.Join(skippedList, ", "),
				Position:     i,
				Timestamp:    st.timestamp,
				CaseID:       caseID,
				Details: map[string]interface{}{
					"skipped_activities": skippedList,
				},
				Recommendation: fmt.Sprintf("Execute %s before %s", strings.Join(skippedList, ", "), st.name),
			})
		}

		if pos, ok := d.depOrder[st.name]; ok {
			for _, prev := range executionOrder {
				prevPos, ok := d.depOrder[prev]
				if !ok || prevPos <= pos {
					continue
				}
				deviations = append(deviations, Deviation{
					Kind:         DeviationWrongOrder,
					Severity:     d.scorer.Severity(DeviationWrongOrder, st.name),
					ActivityName: st.name,
					Expected:     fmt.Sprintf("%s should come after %s", st.name, prev),
					Actual:       fmt.Sprintf("%s executed before %s", st.name, prev),
					Position:     i,
					Timestamp:    st.timestamp,
					CaseID:       caseID,
					Details: map[string]interface{}{
						"expected_predecessor": prev,
						"expected_order":       d.model.ExpectedSequence(),
					},
					Recommendation: fmt.Sprintf("Execute %s before %s", prev, st.name),
				})
			}
		}

		if !executed[st.name] {
			executed[st.name] = true
			executionOrder = append(executionOrder, st.name)
		}
	}

	return deviations
}

// checkUnexpected flags every position whose activity is not in the model,
// once per position.
func (d *DeviationDetector) checkUnexpected(steps []step, caseID string) []Deviation {
	var deviations []Deviation

	for i, st := range steps {
		if _, known := d.model.Activity(st.name); known {
			continue
		}
		deviations = append(deviations, Deviation{
			Kind:           DeviationUnexpectedActivity,
			Severity:       d.scorer.Severity(DeviationUnexpectedActivity, st.name),
			ActivityName:   st.name,
			Expected:       "Activity in process model",
			Actual:         "Unknown activity: " + st.name,
			Position:       i,
			Timestamp:      st.timestamp,
			CaseID:         caseID,
			Recommendation: "Review if this activity should be added to the model",
		})
	}

	return deviations
}

// checkMissing flags mandatory activities that never occurred anywhere in
// the trace. Position is -1 and the timestamp is unknown since there is no
// triggering event.
func (d *DeviationDetector) checkMissing(steps []step, caseID string) []Deviation {
	executed := make(map[string]bool, len(steps))
	for _, st := range steps {
		executed[st.name] = true
	}

	var missing []string
	for name := range d.model.MandatoryActivities() {
		if !executed[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)

	executedList := sortedKeys(executed)

	var deviations []Deviation
	for _, name := range missing {
		deviations = append(deviations, Deviation{
			Kind:         DeviationMissingActivity,
			Severity:     d.scorer.Severity(DeviationMissingActivity, name),
			ActivityName: name,
			Expected:     "Mandatory activity: " + name,
			Actual:       "Activity not executed",
			Position:     -1,
			CaseID:       caseID,
			Details: map[string]interface{}{
				"executed_activities": executedList,
			},
			Recommendation: fmt.Sprintf("Ensure %s is executed", name),
		})
	}

	return deviations
}

// checkDuplicates flags repeats of known model activities, referencing the
// first occurrence. Repeats of unknown activities are not flagged here;
// the unexpected-activity pass already reports each of their positions.
func (d *DeviationDetector) checkDuplicates(steps []step, caseID string) []Deviation {
	var deviations []Deviation
	firstSeen := make(map[string]int)

	for i, st := range steps {
		prev, seen := firstSeen[st.name]
		if !seen {
			firstSeen[st.name] = i
			continue
		}
		if _, known := d.model.Activity(st.name); !known {
			continue
		}
		deviations = append(deviations, Deviation{
			Kind:         DeviationDuplicateActivity,
			Severity:     d.scorer.Severity(DeviationDuplicateActivity, st.name),
			ActivityName: st.name,
			Expected:     "Single execution",
			Actual:       fmt.Sprintf("Duplicate at positions %d and %d", prev, i),
			Position:     i,
			Timestamp:    st.timestamp,
			CaseID:       caseID,
			Details: map[string]interface{}{
				"first_occurrence": prev,
			},
			Recommendation: "Review if duplicate execution is expected",
		})
	}

	return deviations
}

// checkEnd flags a trace that looks complete (every mandatory activity
// occurred) but does not finish on an end activity. Incomplete traces are
// left alone; they are already covered by the missing-activity pass.
func (d *DeviationDetector) checkEnd(steps []step, caseID string) []Deviation {
	executed := make(map[string]bool, len(steps))
	for _, st := range steps {
		executed[st.name] = true
	}
	for name := range d.model.MandatoryActivities() {
		if !executed[name] {
			return nil
		}
	}

	last := steps[len(steps)-1]
	if d.model.IsEndActivity(last.name) {
		return nil
	}

	return []Deviation{{
		Kind:           DeviationInvalidEnd,
		Severity:       d.scorer.Severity(DeviationInvalidEnd, last.name),
		ActivityName:   last.name,
		Expected:       "End with: " + joinSet(d.model.EndActivities()),
		Actual:         "Ended with: " + last.name,
		Position:       len(steps) - 1,
		Timestamp:      last.timestamp,
		CaseID:         caseID,
		Recommendation: "Ensure the process completes with an expected end activity",
	}}
}

func joinSet(s map[string]bool) string {
	return strings.Join(sortedKeys(s), ", ")
}
