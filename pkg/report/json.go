package report

import (
	"encoding/json"
	"io"

	"github.com/checkflow/checkflow/pkg/errors"
)

// JSONWriter renders the full report as indented JSON, field-for-field.
type JSONWriter struct{}

// Write implements Writer.
func (jw *JSONWriter) Write(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "encode json report")
	}
	return nil
}
