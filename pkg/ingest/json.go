package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/checkflow/checkflow/internal/model"
	"github.com/checkflow/checkflow/pkg/errors"
)

// JSONLoader reads events from a JSON array of objects, or from
// newline-delimited JSON when Lines is set.
type JSONLoader struct {
	Lines bool
}

// Format returns FormatJSON or FormatJSONL.
func (l *JSONLoader) Format() Format {
	if l.Lines {
		return FormatJSONL
	}
	return FormatJSON
}

// Load decodes event objects. Values of any JSON type are flattened to
// strings before field mapping, so numeric case ids and nested values
// survive ingestion.
func (l *JSONLoader) Load(ctx context.Context, r io.Reader, mapping FieldMapping) ([]model.Event, error) {
	mapping = mapping.withDefaults()
	if l.Lines {
		return l.loadLines(ctx, r, mapping)
	}
	return l.loadArray(ctx, r, mapping)
}

// loadArray accepts a bare array of event objects or an object wrapping
// one under an "events", "log" or "records" key.
func (l *JSONLoader) loadArray(ctx context.Context, r io.Reader, mapping FieldMapping) ([]model.Event, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParseFailed, "read json")
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '{' {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, errors.Wrap(err, errors.CodeParseFailed, "read json")
		}
		found := false
		for _, key := range []string{"events", "log", "records"} {
			if raw, ok := wrapper[key]; ok {
				trimmed = bytes.TrimSpace(raw)
				found = true
				break
			}
		}
		if !found {
			return nil, errors.New(errors.CodeParseFailed, "no event array found in json object")
		}
	}

	var raws []map[string]interface{}
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, errors.Wrap(err, errors.CodeParseFailed, "decode json events")
	}

	var events []model.Event
	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.CodeContextCanceled, "json load canceled")
		}
		if ev, ok := eventFromRecord(flatten(raw), mapping); ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

func (l *JSONLoader) loadLines(ctx context.Context, r io.Reader, mapping FieldMapping) ([]model.Event, error) {
	var events []model.Event

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	row := 0
	for sc.Scan() {
		row++
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.CodeContextCanceled, "jsonl load canceled")
		}

		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		var raw map[string]interface{}
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			return nil, errors.ParseError("jsonl", row, err)
		}
		if ev, ok := eventFromRecord(flatten(raw), mapping); ok {
			events = append(events, ev)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeParseFailed, "read jsonl")
	}

	return events, nil
}

// flatten stringifies top-level JSON values for field mapping. Nested
// structures are kept as compact JSON text.
func flatten(raw map[string]interface{}) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			if b, err := json.Marshal(val); err == nil {
				out[k] = string(b)
			}
		}
	}
	return out
}
