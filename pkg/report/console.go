package report

import (
	"fmt"
	"io"

	"github.com/checkflow/checkflow/pkg/tui"
)

// ConsoleWriter renders a styled terminal summary.
type ConsoleWriter struct {
	Options Options
}

// Write implements Writer.
func (cw *ConsoleWriter) Write(w io.Writer, r *Report) error {
	res := r.Result

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %s\n", tui.TitleStyle.Render("CONFORMANCE"), tui.MutedStyle.Render(r.ModelName+" v"+r.ModelVersion))
	if r.Source != "" {
		fmt.Fprintf(w, "  %s %s\n", tui.MutedStyle.Render("Source:"), r.Source)
	}
	fmt.Fprintf(w, "  %s %s\n", tui.MutedStyle.Render("Run:"), r.RunID)
	fmt.Fprintln(w, tui.MutedStyle.Render("  ─────────────────────────────────────"))

	rate := fmt.Sprintf("%.2f%%", res.ConformanceRate)
	rateStyle := tui.SuccessStyle
	if res.ConformanceRate < 100 {
		rateStyle = tui.WarnStyle
	}
	if res.ConformanceRate < 50 {
		rateStyle = tui.AccentStyle
	}

	fmt.Fprintf(w, "  %s %s\n", tui.MutedStyle.Render("Cases:"), tui.TitleStyle.Render(tui.FormatNumber(int64(res.TotalCases))))
	if res.SkippedCases > 0 {
		fmt.Fprintf(w, "  %s %d\n", tui.MutedStyle.Render("Skipped (empty):"), res.SkippedCases)
	}
	fmt.Fprintf(w, "  %s %s conformant (%d/%d)\n", tui.MutedStyle.Render("Rate:"), rateStyle.Render(rate), res.ConformantCases, res.TotalCases)
	fmt.Fprintf(w, "  %s %.4f avg (%.4f – %.4f)\n", tui.MutedStyle.Render("Fitness:"), res.AverageFitness, res.MinFitness, res.MaxFitness)
	fmt.Fprintf(w, "  %s %d\n", tui.MutedStyle.Render("Deviations:"), res.TotalDeviations)

	if len(res.Summary.MostCommon) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, tui.MutedStyle.Render("  Most common:"))
		for _, kc := range res.Summary.MostCommon {
			fmt.Fprintf(w, "    %s %s\n", tui.TitleStyle.Render(fmt.Sprintf("%-22s", string(kc.Kind))), tui.MutedStyle.Render(fmt.Sprintf("×%d", kc.Count)))
		}
	}

	bad := capCases(nonConformant(res.CaseResults), cw.Options.MaxCaseDetails)
	if len(bad) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, tui.MutedStyle.Render("  Non-conformant cases:"))
		for _, cr := range bad {
			fmt.Fprintf(w, "  %s %s %s\n", tui.AccentStyle.Render("✗"), tui.TitleStyle.Render(cr.CaseID), tui.MutedStyle.Render(fmt.Sprintf("fitness %.4f", cr.FitnessScore)))
			for _, d := range cr.Deviations {
				sev := tui.SeverityStyle(d.Severity.String()).Render(d.Severity.String())
				fmt.Fprintf(w, "      %s %s %s\n", sev, string(d.Kind), tui.MutedStyle.Render(d.ActivityName))
			}
		}
		hidden := len(nonConformant(res.CaseResults)) - len(bad)
		if hidden > 0 {
			fmt.Fprintf(w, "  %s\n", tui.MutedStyle.Render(fmt.Sprintf("… and %d more", hidden)))
		}
	}

	fmt.Fprintln(w)
	return nil
}
