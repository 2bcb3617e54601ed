// Package model defines core data structures for CheckFlow.
package model

import (
	"sort"
	"time"
)

// Event represents a single process event as produced by the ingestion
// layer. A zero Timestamp means the source record carried no parseable
// timestamp; zero timestamps sort before all real ones.
type Event struct {
	// CaseID identifies the process instance (trace) the event belongs to.
	CaseID string

	// Activity is the event name/activity label. Empty means the source
	// record had no resolvable activity field; such events contribute
	// nothing to a trace.
	Activity string

	// Timestamp is when the event occurred. Zero if unknown.
	Timestamp time.Time

	// Resource is the actor/resource performing the activity.
	Resource string

	// Attributes holds additional key-value pairs from the source record.
	Attributes map[string]string
}

// HasTimestamp reports whether the event carries a known timestamp.
func (e Event) HasTimestamp() bool {
	return !e.Timestamp.IsZero()
}

// Case is one process instance: a case id plus its ordered trace of events.
type Case struct {
	ID     string
	Events []Event
}

// Log is a collection of cases.
type Log []Case

// GroupByCase groups a flat event stream into cases, preserving the order
// in which case ids first appear. Events within each case are stable-sorted
// by timestamp; zero (unknown) timestamps sort first, and events with equal
// timestamps keep their original relative order.
func GroupByCase(events []Event) Log {
	index := make(map[string]int)
	var log Log

	for _, ev := range events {
		id := ev.CaseID
		if id == "" {
			id = "unknown"
		}
		pos, ok := index[id]
		if !ok {
			pos = len(log)
			index[id] = pos
			log = append(log, Case{ID: id})
		}
		log[pos].Events = append(log[pos].Events, ev)
	}

	for i := range log {
		evs := log[i].Events
		sort.SliceStable(evs, func(a, b int) bool {
			return evs[a].Timestamp.Before(evs[b].Timestamp)
		})
	}

	return log
}
