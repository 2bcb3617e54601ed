// CheckFlow - conformance checking for process event logs.
// Replays event logs against declared process models and reports
// deviations and fitness.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// CLI flags
var (
	inputFile  string
	formatFlag string
	outputFile string

	modelFile    string
	templateName string

	strictFlag  bool
	workersFlag int
	reportFlag  string

	caseIDColumn    string
	activityColumn  string
	timestampColumn string
	resourceColumn  string

	redactFlag bool
	redactSalt string

	caseFilter string
	detailed   bool
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "checkflow",
	Short: "CheckFlow - conformance checking for process event logs",
	Long: `CheckFlow replays event logs (CSV, JSON, JSONL, XES) against a process
model and reports deviations, per-case fitness and log-level conformance.

Models come from built-in templates or YAML model files.`,
	Version:       fmt.Sprintf("%s (%s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check an event log against a process model",
	Long: `Check every case of an event log against a process model.

Examples:
  checkflow check -i events.csv -t o2c_simple
  checkflow check -i log.xes -m model.yaml --strict
  checkflow check -i events.jsonl.gz -t o2c_detailed --report json -o result.json
  checkflow check -i events.csv -t o2c_simple --report xlsx -o result.xlsx`,
	RunE: runCheck,
}

var traceCmd = &cobra.Command{
	Use:   "trace [activity...]",
	Short: "Check a single trace",
	Long: `Check one trace against a process model. The trace comes either from
positional activity names or from a log file filtered to one case.

Examples:
  checkflow trace -t o2c_simple OrderCreated DeliveryCreated GoodsIssued InvoiceCreated
  checkflow trace -i events.csv -t o2c_simple --case ORDER-1042`,
	RunE: runTrace,
}

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect a process model",
	Long: `Print a model's activities, transitions and expected execution order.

Examples:
  checkflow model -t o2c_detailed
  checkflow model -m model.yaml`,
	RunE: runModel,
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List built-in process model templates",
	RunE:  runTemplates,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	checkCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input log file (required)")
	checkCmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Input format (csv, json, jsonl, xes) - auto-detected if not specified")
	checkCmd.Flags().StringVarP(&modelFile, "model", "m", "", "YAML model file")
	checkCmd.Flags().StringVarP(&templateName, "template", "t", "", "Built-in model template name")
	checkCmd.Flags().BoolVar(&strictFlag, "strict", false, "Require zero deviations of any severity for conformance")
	checkCmd.Flags().IntVar(&workersFlag, "workers", 0, "Parallel checking workers (0 = auto)")
	checkCmd.Flags().StringVar(&reportFlag, "report", "", "Report format (console, json, markdown, xlsx)")
	checkCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write report to file instead of stdout")
	checkCmd.Flags().StringVar(&caseIDColumn, "case-id", "", "Case ID column name")
	checkCmd.Flags().StringVar(&activityColumn, "activity", "", "Activity column name")
	checkCmd.Flags().StringVar(&timestampColumn, "timestamp", "", "Timestamp column name")
	checkCmd.Flags().StringVar(&resourceColumn, "resource", "", "Resource column name")
	checkCmd.Flags().BoolVar(&redactFlag, "redact", false, "Redact PII from the log before reporting")
	checkCmd.Flags().StringVar(&redactSalt, "redact-salt", "", "Salt for deterministic redaction hashes")
	checkCmd.MarkFlagRequired("input")

	traceCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input log file")
	traceCmd.Flags().StringVarP(&modelFile, "model", "m", "", "YAML model file")
	traceCmd.Flags().StringVarP(&templateName, "template", "t", "", "Built-in model template name")
	traceCmd.Flags().StringVar(&caseFilter, "case", "", "Case ID to check when reading from a file")
	traceCmd.Flags().BoolVar(&strictFlag, "strict", false, "Require zero deviations of any severity for conformance")

	modelCmd.Flags().StringVarP(&modelFile, "model", "m", "", "YAML model file")
	modelCmd.Flags().StringVarP(&templateName, "template", "t", "", "Built-in model template name")

	templatesCmd.Flags().BoolVar(&detailed, "detailed", false, "Show activities of each template")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(modelCmd)
	rootCmd.AddCommand(templatesCmd)
}
