package ingest

import (
	"strings"

	"github.com/checkflow/checkflow/internal/model"
)

// FieldMapping names the source fields that carry each event attribute.
// Zero-value fields fall back to common column names, matched
// case-insensitively.
type FieldMapping struct {
	CaseID    string `yaml:"case_id" json:"case_id"`
	Activity  string `yaml:"activity" json:"activity"`
	Timestamp string `yaml:"timestamp" json:"timestamp"`
	Resource  string `yaml:"resource" json:"resource"`
}

// DefaultMapping uses the conventional process-mining column names.
func DefaultMapping() FieldMapping {
	return FieldMapping{
		CaseID:    "case_id",
		Activity:  "activity",
		Timestamp: "timestamp",
		Resource:  "resource",
	}
}

func (m FieldMapping) withDefaults() FieldMapping {
	d := DefaultMapping()
	if m.CaseID == "" {
		m.CaseID = d.CaseID
	}
	if m.Activity == "" {
		m.Activity = d.Activity
	}
	if m.Timestamp == "" {
		m.Timestamp = d.Timestamp
	}
	if m.Resource == "" {
		m.Resource = d.Resource
	}
	return m
}

// Fallback column names tried when the mapped field is absent from a
// record. Order matters; the first present wins.
var (
	caseIDFallbacks    = []string{"case_id", "caseid", "case", "case:concept:name", "trace_id"}
	activityFallbacks  = []string{"activity", "event_type", "concept:name", "event", "activity_name", "name"}
	timestampFallbacks = []string{"timestamp", "time", "time:timestamp", "event_time", "datetime", "date"}
	resourceFallbacks  = []string{"resource", "org:resource", "user", "actor"}
)

// resolve finds a non-empty value in a record by the mapped name first,
// then the fallback list, matching keys case-insensitively. It returns
// the record key the value was found under.
func resolve(record map[string]string, mapped string, fallbacks []string) (key, value string, ok bool) {
	try := func(name string) (string, string, bool) {
		if v, ok := record[name]; ok && v != "" {
			return name, v, true
		}
		for k, v := range record {
			if v != "" && strings.EqualFold(k, name) {
				return k, v, true
			}
		}
		return "", "", false
	}

	if k, v, ok := try(mapped); ok {
		return k, v, true
	}
	for _, name := range fallbacks {
		if name == mapped {
			continue
		}
		if k, v, ok := try(name); ok {
			return k, v, true
		}
	}
	return "", "", false
}

// eventFromRecord maps one raw record onto an Event. Records with no
// resolvable activity are dropped (ok=false). A timestamp that fails to
// parse is treated as absent. Fields not claimed by the mapping are
// preserved as attributes.
func eventFromRecord(record map[string]string, m FieldMapping) (model.Event, bool) {
	actKey, activity, ok := resolve(record, m.Activity, activityFallbacks)
	if !ok {
		return model.Event{}, false
	}

	ev := model.Event{Activity: activity}
	claimed := map[string]bool{actKey: true}

	if k, v, ok := resolve(record, m.CaseID, caseIDFallbacks); ok {
		ev.CaseID = v
		claimed[k] = true
	}
	if k, v, ok := resolve(record, m.Timestamp, timestampFallbacks); ok {
		if t, parsed := model.ParseTimestamp(v); parsed {
			ev.Timestamp = t
		}
		claimed[k] = true
	}
	if k, v, ok := resolve(record, m.Resource, resourceFallbacks); ok {
		ev.Resource = v
		claimed[k] = true
	}

	for k, v := range record {
		if v == "" || claimed[k] {
			continue
		}
		if ev.Attributes == nil {
			ev.Attributes = make(map[string]string)
		}
		ev.Attributes[k] = v
	}

	return ev, true
}
