package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/checkflow/checkflow/internal/model"
	"github.com/checkflow/checkflow/pkg/config"
	"github.com/checkflow/checkflow/pkg/conformance"
	"github.com/checkflow/checkflow/pkg/conformance/templates"
	"github.com/checkflow/checkflow/pkg/ingest"
	"github.com/checkflow/checkflow/pkg/redact"
	"github.com/checkflow/checkflow/pkg/report"
	"github.com/checkflow/checkflow/pkg/telemetry"
	"github.com/checkflow/checkflow/pkg/tui"
)

// resolveModel loads the process model from --model or --template, with
// the simple O2C template as the fallback.
func resolveModel() (*conformance.ProcessModel, error) {
	if modelFile != "" && templateName != "" {
		return nil, fmt.Errorf("use either --model or --template, not both")
	}
	if modelFile != "" {
		return conformance.LoadModelFile(modelFile)
	}
	if templateName != "" {
		m, ok := templates.ByName(templateName)
		if !ok {
			return nil, fmt.Errorf("unknown template %q (see 'checkflow templates')", templateName)
		}
		return m, nil
	}
	return templates.SimpleOrderToCash(), nil
}

// buildChecker assembles a checker from flags and configuration.
func buildChecker(cfg *config.Config, m *conformance.ProcessModel) (*conformance.Checker, error) {
	scorer, err := cfg.Scorer()
	if err != nil {
		return nil, err
	}

	opts := []conformance.CheckerOption{conformance.WithScorer(scorer)}
	if strictFlag || cfg.Checking.Strict {
		opts = append(opts, conformance.WithStrictMode())
	}
	return conformance.NewChecker(m, opts...), nil
}

func fieldMapping(cfg *config.Config) ingest.FieldMapping {
	mapping := ingest.FieldMapping{
		CaseID:    cfg.Ingest.CaseIDField,
		Activity:  cfg.Ingest.ActivityField,
		Timestamp: cfg.Ingest.TimestampField,
		Resource:  cfg.Ingest.ResourceField,
	}
	if caseIDColumn != "" {
		mapping.CaseID = caseIDColumn
	}
	if activityColumn != "" {
		mapping.Activity = activityColumn
	}
	if timestampColumn != "" {
		mapping.Timestamp = timestampColumn
	}
	if resourceColumn != "" {
		mapping.Resource = resourceColumn
	}
	return mapping
}

// signalContext returns a context canceled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	return ctx, cancel
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := config.Global().Get()

	ctx, cancel := signalContext()
	defer cancel()

	if cfg.Telemetry.Enabled {
		otlpCfg := telemetry.DefaultOTLPConfig("checkflow")
		otlpCfg.ServiceVersion = version
		if cfg.Telemetry.Endpoint != "" {
			otlpCfg.Endpoint = cfg.Telemetry.Endpoint
		}
		shutdown, err := telemetry.InitOTLP(otlpCfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "telemetry disabled: %v\n", err)
		} else {
			defer func() {
				shutdownCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
				defer c()
				shutdown(shutdownCtx)
			}()
		}
	}

	m, err := resolveModel()
	if err != nil {
		return err
	}
	checker, err := buildChecker(cfg, m)
	if err != nil {
		return err
	}

	ctx, span := telemetry.StartSpan(ctx, "checkflow.check")
	defer span.End()

	if verbose {
		fmt.Printf("Input:  %s\n", inputFile)
		fmt.Printf("Model:  %s v%s\n", m.Name, m.Version)
		fmt.Printf("Strict: %v\n", checker.Strict())
	}

	var log model.Log
	if formatFlag != "" {
		events, err := ingest.LoadFileAs(ctx, inputFile, ingest.Format(formatFlag), fieldMapping(cfg))
		if err != nil {
			return err
		}
		log = model.GroupByCase(events)
	} else {
		log, err = ingest.LoadLog(ctx, inputFile, fieldMapping(cfg))
		if err != nil {
			return err
		}
	}

	if redactFlag {
		log = redact.NewShareable(redactSalt).Log(log)
	}

	workers := workersFlag
	if workers == 0 {
		workers = cfg.Checking.Workers
	}

	var bar = tui.ShowProgress(int64(len(log)), "checking")
	result, err := checker.CheckLogConcurrent(ctx, log, conformance.ConcurrentOptions{
		Workers: workers,
		Progress: func(done int64) {
			bar.Set64(done)
		},
	})
	if err != nil {
		return err
	}
	tui.ClearLine()

	rep := report.New(checker, inputFile, result)

	format := reportFlag
	if format == "" {
		format = cfg.Report.Format
	}
	writer, err := report.NewWriter(format, report.Options{MaxCaseDetails: cfg.Report.MaxCaseDetails})
	if err != nil {
		return err
	}

	out := os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := writer.Write(out, rep); err != nil {
		return err
	}
	if outputFile != "" && verbose {
		fmt.Printf("Report written to %s\n", outputFile)
	}

	if result.ConformantCases < result.TotalCases {
		// Non-zero exit so pipelines can gate on conformance.
		os.Exit(2)
	}
	return nil
}

func runTrace(cmd *cobra.Command, args []string) error {
	cfg := config.Global().Get()

	m, err := resolveModel()
	if err != nil {
		return err
	}
	checker, err := buildChecker(cfg, m)
	if err != nil {
		return err
	}

	var trace []model.Event
	caseID := "trace"

	switch {
	case len(args) > 0:
		for _, name := range args {
			trace = append(trace, model.Event{Activity: name})
		}
	case inputFile != "" && caseFilter != "":
		ctx, cancel := signalContext()
		defer cancel()

		log, err := ingest.LoadLog(ctx, inputFile, fieldMapping(cfg))
		if err != nil {
			return err
		}
		for _, cs := range log {
			if cs.ID == caseFilter {
				trace = cs.Events
				caseID = cs.ID
				break
			}
		}
		if trace == nil {
			return fmt.Errorf("case %q not found in %s", caseFilter, inputFile)
		}
	default:
		return fmt.Errorf("provide activity names as arguments, or --input with --case")
	}

	result := checker.CheckTrace(trace, caseID)
	printCaseResult(result)

	if !result.IsConformant {
		os.Exit(2)
	}
	return nil
}

func printCaseResult(r conformance.CaseResult) {
	fmt.Println()
	status := tui.SuccessStyle.Render("✓ conformant")
	if !r.IsConformant {
		status = tui.AccentStyle.Render("✗ non-conformant")
	}
	fmt.Printf("  %s %s %s\n", tui.TitleStyle.Render(r.CaseID), status, tui.MutedStyle.Render(fmt.Sprintf("fitness %.4f", r.FitnessScore)))
	fmt.Printf("  %s %s\n", tui.MutedStyle.Render("Executed:"), strings.Join(r.ExecutedActivities, " → "))
	fmt.Printf("  %s %s\n", tui.MutedStyle.Render("Expected:"), strings.Join(r.ExpectedActivities, " → "))

	if len(r.Deviations) > 0 {
		fmt.Println()
		for _, d := range r.Deviations {
			sev := tui.SeverityStyle(d.Severity.String()).Render(fmt.Sprintf("%-8s", d.Severity.String()))
			fmt.Printf("  %s %s %s\n", sev, string(d.Kind), tui.MutedStyle.Render(d.ActivityName))
			fmt.Printf("           %s\n", tui.MutedStyle.Render(d.Expected+" | "+d.Actual))
			if d.Recommendation != "" {
				fmt.Printf("           %s\n", tui.MutedStyle.Render("→ "+d.Recommendation))
			}
		}
	}
	fmt.Println()
}

func runModel(cmd *cobra.Command, args []string) error {
	m, err := resolveModel()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("  %s %s\n", tui.TitleStyle.Render(m.DisplayName), tui.MutedStyle.Render("v"+m.Version))
	if m.Description != "" {
		fmt.Printf("  %s\n", tui.MutedStyle.Render(m.Description))
	}
	fmt.Println(tui.MutedStyle.Render("  ─────────────────────────────────────"))

	fmt.Println(tui.MutedStyle.Render("  Activities:"))
	for _, name := range m.ActivityNames() {
		a, _ := m.Activity(name)
		marker := " "
		switch {
		case m.IsStartActivity(name):
			marker = tui.SuccessStyle.Render("▸")
		case m.IsEndActivity(name):
			marker = tui.AccentStyle.Render("■")
		}
		kind := string(a.Kind)
		fmt.Printf("  %s %s %s\n", marker, tui.TitleStyle.Render(fmt.Sprintf("%-20s", name)), tui.MutedStyle.Render(kind))
	}

	fmt.Println()
	fmt.Printf("  %s %s\n", tui.MutedStyle.Render("Expected order:"), strings.Join(m.ExpectedSequence(), " → "))

	transitions := m.Transitions()
	sort.Slice(transitions, func(i, j int) bool {
		if transitions[i].Source != transitions[j].Source {
			return transitions[i].Source < transitions[j].Source
		}
		return transitions[i].Target < transitions[j].Target
	})
	fmt.Println()
	fmt.Println(tui.MutedStyle.Render("  Transitions:"))
	for _, t := range transitions {
		opt := ""
		if !t.Mandatory {
			opt = tui.MutedStyle.Render(" (optional)")
		}
		fmt.Printf("    %s → %s%s\n", t.Source, t.Target, opt)
	}
	fmt.Println()
	return nil
}

func runTemplates(cmd *cobra.Command, args []string) error {
	fmt.Println()
	fmt.Println(tui.MutedStyle.Render("  Built-in templates:"))
	for _, name := range templates.Names() {
		m, _ := templates.ByName(name)
		fmt.Printf("  %s %s\n", tui.TitleStyle.Render(fmt.Sprintf("%-16s", name)), tui.MutedStyle.Render(m.DisplayName))
		if detailed {
			for _, a := range m.ActivityNames() {
				fmt.Printf("      %s\n", tui.MutedStyle.Render(a))
			}
		}
	}
	fmt.Println()
	return nil
}
