// Package report renders conformance results for people and machines.
// Formats: console (styled terminal output), json, markdown and xlsx.
package report

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/checkflow/checkflow/pkg/conformance"
	"github.com/checkflow/checkflow/pkg/errors"
)

// Report wraps a log result with run metadata for rendering.
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	ModelName    string `json:"model_name"`
	ModelVersion string `json:"model_version"`
	Source       string `json:"source,omitempty"`
	Strict       bool   `json:"strict"`

	Result conformance.LogResult `json:"result"`
}

// New creates a report for a checked log.
func New(checker *conformance.Checker, source string, result conformance.LogResult) *Report {
	m := checker.Model()
	return &Report{
		RunID:        uuid.New().String(),
		GeneratedAt:  time.Now().UTC(),
		ModelName:    m.Name,
		ModelVersion: m.Version,
		Source:       source,
		Strict:       checker.Strict(),
		Result:       result,
	}
}

// Writer renders a report to a stream.
type Writer interface {
	Write(w io.Writer, r *Report) error
}

// Options tunes rendering.
type Options struct {
	// MaxCaseDetails caps per-case sections; 0 means all cases.
	MaxCaseDetails int
}

// NewWriter returns the writer for a format name.
func NewWriter(format string, opts Options) (Writer, error) {
	switch format {
	case "json":
		return &JSONWriter{}, nil
	case "markdown", "md":
		return &MarkdownWriter{Options: opts}, nil
	case "console", "":
		return &ConsoleWriter{Options: opts}, nil
	case "xlsx":
		return &XLSXWriter{}, nil
	default:
		return nil, errors.New(errors.CodeInvalidFormat, "unsupported report format").
			WithContext("format", format)
	}
}

// nonConformant returns the non-conformant case results, preserving
// order.
func nonConformant(results []conformance.CaseResult) []conformance.CaseResult {
	var out []conformance.CaseResult
	for _, r := range results {
		if !r.IsConformant {
			out = append(out, r)
		}
	}
	return out
}

// capCases applies the MaxCaseDetails limit.
func capCases(results []conformance.CaseResult, max int) []conformance.CaseResult {
	if max > 0 && len(results) > max {
		return results[:max]
	}
	return results
}
