// Package conformance implements conformance checking of process event
// traces against declared process models. A model is a directed graph of
// activities and allowed transitions; the checker replays each trace
// against the model, detects deviations, and scores fitness.
package conformance

// ActivityKind classifies activities in a process model.
type ActivityKind string

const (
	// ActivityStart marks a process initiation activity.
	ActivityStart ActivityKind = "start"
	// ActivityEnd marks a process completion activity.
	ActivityEnd ActivityKind = "end"
	// ActivityIntermediate marks a middle activity.
	ActivityIntermediate ActivityKind = "intermediate"
	// ActivityMilestone marks a key checkpoint activity.
	ActivityMilestone ActivityKind = "milestone"
	// ActivityOptional marks an activity that may be skipped.
	ActivityOptional ActivityKind = "optional"
)

// Activity is a discrete unit of work in a process model. Identity is
// name-based: two activities with the same name are the same activity
// regardless of other fields. Activities are immutable once added to a
// model.
type Activity struct {
	// Name uniquely identifies the activity within a model.
	Name string `json:"name"`

	// DisplayName is the human-readable name.
	DisplayName string `json:"display_name"`

	// Kind classifies the activity. Every kind except ActivityOptional is
	// mandatory: it must occur in a conformant trace.
	Kind ActivityKind `json:"kind"`

	// EventAliases are raw event-type strings that map onto this activity.
	// Empty means only an event equal to Name matches.
	EventAliases []string `json:"event_aliases,omitempty"`

	// Description documents the activity.
	Description string `json:"description,omitempty"`
}

// MatchesEvent reports whether a raw event type maps onto this activity.
// With no aliases declared, the event must equal the activity name.
func (a Activity) MatchesEvent(eventType string) bool {
	if len(a.EventAliases) == 0 {
		return eventType == a.Name
	}
	for _, alias := range a.EventAliases {
		if alias == eventType {
			return true
		}
	}
	return false
}

// Mandatory reports whether the activity must occur in a conformant trace.
func (a Activity) Mandatory() bool {
	return a.Kind != ActivityOptional
}
