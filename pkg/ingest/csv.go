package ingest

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/checkflow/checkflow/internal/model"
	"github.com/checkflow/checkflow/pkg/errors"
)

// CSVLoader reads events from delimited text with a header row.
type CSVLoader struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune
}

// Format returns FormatCSV.
func (l *CSVLoader) Format() Format { return FormatCSV }

// Load reads CSV rows into events. The first row is the header; rows
// with a different field count are tolerated by the reader and rows
// without a resolvable activity are skipped.
func (l *CSVLoader) Load(ctx context.Context, r io.Reader, mapping FieldMapping) ([]model.Event, error) {
	mapping = mapping.withDefaults()

	cr := csv.NewReader(r)
	if l.Comma != 0 {
		cr.Comma = l.Comma
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParseFailed, "read csv header")
	}

	var events []model.Event
	for row := 2; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.CodeContextCanceled, "csv load canceled")
		}

		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ParseError("csv", row, err)
		}

		record := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(fields) {
				record[name] = fields[i]
			}
		}

		if ev, ok := eventFromRecord(record, mapping); ok {
			events = append(events, ev)
		}
	}

	return events, nil
}
