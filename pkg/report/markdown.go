package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/checkflow/checkflow/pkg/errors"
)

// MarkdownWriter renders a human-readable Markdown report.
type MarkdownWriter struct {
	Options Options
}

// Write implements Writer.
func (mw *MarkdownWriter) Write(w io.Writer, r *Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Conformance Report: %s\n\n", r.ModelName)
	fmt.Fprintf(&b, "- Run: `%s`\n", r.RunID)
	fmt.Fprintf(&b, "- Generated: %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	if r.Source != "" {
		fmt.Fprintf(&b, "- Source: `%s`\n", r.Source)
	}
	fmt.Fprintf(&b, "- Model version: %s\n", r.ModelVersion)
	if r.Strict {
		b.WriteString("- Mode: strict\n")
	}
	b.WriteString("\n")

	res := r.Result
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Cases | %d |\n", res.TotalCases)
	if res.SkippedCases > 0 {
		fmt.Fprintf(&b, "| Skipped (empty) | %d |\n", res.SkippedCases)
	}
	fmt.Fprintf(&b, "| Conformant | %d (%.2f%%) |\n", res.ConformantCases, res.ConformanceRate)
	fmt.Fprintf(&b, "| Fully conformant | %d (%.2f%%) |\n", res.FullyConformantCase, res.FullConformanceRate)
	fmt.Fprintf(&b, "| Average fitness | %.4f |\n", res.AverageFitness)
	fmt.Fprintf(&b, "| Fitness range | %.4f – %.4f |\n", res.MinFitness, res.MaxFitness)
	fmt.Fprintf(&b, "| Deviations | %d |\n\n", res.TotalDeviations)

	if len(res.Summary.MostCommon) > 0 {
		b.WriteString("## Most common deviations\n\n")
		b.WriteString("| Kind | Count |\n|---|---|\n")
		for _, kc := range res.Summary.MostCommon {
			fmt.Fprintf(&b, "| %s | %d |\n", kc.Kind, kc.Count)
		}
		b.WriteString("\n")
	}

	bad := capCases(nonConformant(res.CaseResults), mw.Options.MaxCaseDetails)
	if len(bad) > 0 {
		b.WriteString("## Non-conformant cases\n\n")
		for _, cr := range bad {
			fmt.Fprintf(&b, "### Case %s (fitness %.4f)\n\n", cr.CaseID, cr.FitnessScore)
			for _, d := range cr.Deviations {
				fmt.Fprintf(&b, "- **%s** [%s] %s: expected %s, got %s\n",
					d.Kind, d.Severity, d.ActivityName, d.Expected, d.Actual)
			}
			b.WriteString("\n")
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "write markdown report")
	}
	return nil
}
