package ingest

import (
	"context"
	"encoding/xml"
	"io"

	"github.com/checkflow/checkflow/internal/model"
	"github.com/checkflow/checkflow/pkg/errors"
)

// XES attribute keys defined by the IEEE 1849 standard.
const (
	xesConceptName = "concept:name"
	xesTimestamp   = "time:timestamp"
	xesOrgResource = "org:resource"
)

// XESLoader reads events from XES (eXtensible Event Stream) files, the
// IEEE standard interchange format for process mining event logs.
type XESLoader struct{}

// Format returns FormatXES.
func (l *XESLoader) Format() Format { return FormatXES }

// Load streams through the XES document with a pull parser. Trace-level
// concept:name becomes the case id of every event in the trace; events
// without a concept:name are skipped. The field mapping is ignored: XES
// key names are fixed by the standard.
func (l *XESLoader) Load(ctx context.Context, r io.Reader, _ FieldMapping) ([]model.Event, error) {
	dec := xml.NewDecoder(r)

	var (
		events  []model.Event
		caseID  string
		inTrace bool
		inEvent bool
		current map[string]string
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.CodeContextCanceled, "xes load canceled")
		}

		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeParseFailed, "parse xes")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "trace":
				inTrace = true
				caseID = ""
			case "event":
				inEvent = true
				current = make(map[string]string)
			case "string", "date", "int", "float", "boolean", "id":
				key, value := xesAttr(t)
				if key == "" {
					continue
				}
				switch {
				case inEvent:
					current[key] = value
				case inTrace:
					if key == xesConceptName {
						caseID = value
					}
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "trace":
				inTrace = false
			case "event":
				inEvent = false
				if ev, ok := l.eventFrom(current, caseID); ok {
					events = append(events, ev)
				}
				current = nil
			}
		}
	}

	return events, nil
}

// xesAttr extracts the key/value pair of an XES attribute element.
func xesAttr(el xml.StartElement) (key, value string) {
	for _, a := range el.Attr {
		switch a.Name.Local {
		case "key":
			key = a.Value
		case "value":
			value = a.Value
		}
	}
	return key, value
}

func (l *XESLoader) eventFrom(attrs map[string]string, caseID string) (model.Event, bool) {
	activity := attrs[xesConceptName]
	if activity == "" {
		return model.Event{}, false
	}

	ev := model.Event{
		CaseID:   caseID,
		Activity: activity,
		Resource: attrs[xesOrgResource],
	}
	if ts, ok := model.ParseTimestamp(attrs[xesTimestamp]); ok {
		ev.Timestamp = ts
	}

	for k, v := range attrs {
		if k == xesConceptName || k == xesTimestamp || k == xesOrgResource || v == "" {
			continue
		}
		if ev.Attributes == nil {
			ev.Attributes = make(map[string]string)
		}
		ev.Attributes[k] = v
	}

	return ev, true
}
