package conformance

import (
	"sort"
	"sync"

	"github.com/checkflow/checkflow/pkg/errors"
)

// Transition is a directed edge between two activities. Identity is the
// (source, target) name pair; adding the same edge twice is a no-op.
type Transition struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Mandatory bool   `json:"is_mandatory"`

	// Condition is informational only; it is never evaluated.
	Condition string `json:"condition,omitempty"`
}

// ProcessModel defines expected execution behavior as a directed graph of
// activities and allowed transitions. Models are immutable once built;
// all queries are safe for concurrent use.
type ProcessModel struct {
	Name        string
	DisplayName string
	Description string
	Version     string

	activities  map[string]Activity
	transitions []Transition

	// Adjacency for traversal.
	outgoing map[string]map[string]bool
	incoming map[string]map[string]bool

	startActivities     map[string]bool
	endActivities       map[string]bool
	mandatoryActivities map[string]bool

	// Memoized topological order of mandatory activities. The model never
	// changes after construction, so this is computed at most once.
	seqOnce  sync.Once
	sequence []string
	depOrder map[string]int
}

// NewProcessModel creates an empty process model.
func NewProcessModel(name, displayName string) *ProcessModel {
	return &ProcessModel{
		Name:                name,
		DisplayName:         displayName,
		Version:             "1.0.0",
		activities:          make(map[string]Activity),
		outgoing:            make(map[string]map[string]bool),
		incoming:            make(map[string]map[string]bool),
		startActivities:     make(map[string]bool),
		endActivities:       make(map[string]bool),
		mandatoryActivities: make(map[string]bool),
	}
}

// AddActivity inserts an activity and updates the derived sets. Re-adding
// an activity with the same name replaces its definition.
func (m *ProcessModel) AddActivity(a Activity) {
	m.activities[a.Name] = a

	if m.outgoing[a.Name] == nil {
		m.outgoing[a.Name] = make(map[string]bool)
	}
	if m.incoming[a.Name] == nil {
		m.incoming[a.Name] = make(map[string]bool)
	}

	switch a.Kind {
	case ActivityStart:
		m.startActivities[a.Name] = true
	case ActivityEnd:
		m.endActivities[a.Name] = true
	}

	if a.Mandatory() {
		m.mandatoryActivities[a.Name] = true
	}
}

// AddTransition appends an edge between two declared activities. It fails
// fast when either endpoint is undeclared; exact duplicate edges are
// silently ignored.
func (m *ProcessModel) AddTransition(t Transition) error {
	if _, ok := m.activities[t.Source]; !ok {
		return errors.UnknownActivity("source", t.Source)
	}
	if _, ok := m.activities[t.Target]; !ok {
		return errors.UnknownActivity("target", t.Target)
	}

	if m.outgoing[t.Source][t.Target] {
		return nil
	}

	m.transitions = append(m.transitions, t)
	m.outgoing[t.Source][t.Target] = true
	m.incoming[t.Target][t.Source] = true
	return nil
}

// Activity returns the activity with the given name, if declared.
func (m *ProcessModel) Activity(name string) (Activity, bool) {
	a, ok := m.activities[name]
	return a, ok
}

// ActivityForEvent finds the activity a raw event type maps onto.
// Activities are scanned in name order so the result is deterministic
// when aliases overlap.
func (m *ProcessModel) ActivityForEvent(eventType string) (Activity, bool) {
	for _, name := range m.ActivityNames() {
		a := m.activities[name]
		if a.MatchesEvent(eventType) {
			return a, true
		}
	}
	return Activity{}, false
}

// ActivityNames returns all declared activity names, sorted.
func (m *ProcessModel) ActivityNames() []string {
	names := make([]string, 0, len(m.activities))
	for name := range m.activities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Transitions returns a copy of the transition list.
func (m *ProcessModel) Transitions() []Transition {
	out := make([]Transition, len(m.transitions))
	copy(out, m.transitions)
	return out
}

// ValidNextActivities returns a copy of the activities that may follow
// the given one.
func (m *ProcessModel) ValidNextActivities(name string) map[string]bool {
	return copySet(m.outgoing[name])
}

// ValidPreviousActivities returns a copy of the activities that may
// precede the given one.
func (m *ProcessModel) ValidPreviousActivities(name string) map[string]bool {
	return copySet(m.incoming[name])
}

// IsValidTransition reports whether source may be directly followed by
// target.
func (m *ProcessModel) IsValidTransition(source, target string) bool {
	return m.outgoing[source][target]
}

// IsStartActivity reports whether the activity may begin the process.
func (m *ProcessModel) IsStartActivity(name string) bool {
	return m.startActivities[name]
}

// IsEndActivity reports whether the activity may end the process.
func (m *ProcessModel) IsEndActivity(name string) bool {
	return m.endActivities[name]
}

// IsMandatory reports whether the activity must occur.
func (m *ProcessModel) IsMandatory(name string) bool {
	return m.mandatoryActivities[name]
}

// StartActivities returns a copy of the start-activity set.
func (m *ProcessModel) StartActivities() map[string]bool {
	return copySet(m.startActivities)
}

// EndActivities returns a copy of the end-activity set.
func (m *ProcessModel) EndActivities() map[string]bool {
	return copySet(m.endActivities)
}

// MandatoryActivities returns a copy of the mandatory-activity set.
func (m *ProcessModel) MandatoryActivities() map[string]bool {
	return copySet(m.mandatoryActivities)
}

// ExpectedSequence returns the mandatory activities in dependency order:
// a depth-first visit backward from every end activity along mandatory
// predecessors, appending each mandatory activity post-order so it comes
// after everything it depends on. End activities and predecessor sets are
// visited in sorted name order, making the sequence reproducible across
// runs.
func (m *ProcessModel) ExpectedSequence() []string {
	m.memoize()
	out := make([]string, len(m.sequence))
	copy(out, m.sequence)
	return out
}

// DependencyOrder maps each mandatory activity to its position in the
// expected sequence.
func (m *ProcessModel) DependencyOrder() map[string]int {
	m.memoize()
	out := make(map[string]int, len(m.depOrder))
	for k, v := range m.depOrder {
		out[k] = v
	}
	return out
}

func (m *ProcessModel) memoize() {
	m.seqOnce.Do(func() {
		visited := make(map[string]bool)

		var visit func(name string)
		visit = func(name string) {
			if visited[name] {
				return
			}
			visited[name] = true

			for _, pred := range sortedKeys(m.incoming[name]) {
				if m.mandatoryActivities[pred] {
					visit(pred)
				}
			}

			if m.mandatoryActivities[name] {
				m.sequence = append(m.sequence, name)
			}
		}

		for _, end := range sortedKeys(m.endActivities) {
			visit(end)
		}

		m.depOrder = make(map[string]int, len(m.sequence))
		for i, name := range m.sequence {
			m.depOrder[name] = i
		}
	})
}

func copySet(s map[string]bool) map[string]bool {
	out := make(map[string]bool, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func sortedKeys(s map[string]bool) []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
