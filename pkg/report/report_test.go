package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/checkflow/checkflow/internal/model"
	"github.com/checkflow/checkflow/pkg/conformance"
	"github.com/checkflow/checkflow/pkg/errors"
)

func sampleReport(t *testing.T) (*Report, *conformance.Checker) {
	t.Helper()

	m, err := conformance.NewBuilder("o2c", "Order to Cash").
		AddActivity(conformance.Activity{Name: "OrderCreated", Kind: conformance.ActivityStart}).
		AddActivity(conformance.Activity{Name: "InvoiceCreated", Kind: conformance.ActivityEnd}).
		AddSequence("OrderCreated", "InvoiceCreated").
		Build()
	if err != nil {
		t.Fatal(err)
	}

	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	log := model.Log{
		{ID: "good", Events: []model.Event{
			{CaseID: "good", Activity: "OrderCreated", Timestamp: base},
			{CaseID: "good", Activity: "InvoiceCreated", Timestamp: base.Add(time.Hour)},
		}},
		{ID: "bad", Events: []model.Event{
			{CaseID: "bad", Activity: "InvoiceCreated", Timestamp: base},
		}},
	}

	c := conformance.NewChecker(m)
	return New(c, "orders.csv", c.CheckLog(log)), c
}

func TestNew(t *testing.T) {
	r, _ := sampleReport(t)

	if r.RunID == "" {
		t.Error("RunID not set")
	}
	if r.ModelName != "o2c" || r.ModelVersion != "1.0.0" {
		t.Errorf("model metadata = %q/%q", r.ModelName, r.ModelVersion)
	}
	if r.Source != "orders.csv" {
		t.Errorf("Source = %q", r.Source)
	}
	if r.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
}

func TestNewWriter(t *testing.T) {
	for _, format := range []string{"json", "markdown", "md", "console", "", "xlsx"} {
		if _, err := NewWriter(format, Options{}); err != nil {
			t.Errorf("NewWriter(%q): %v", format, err)
		}
	}

	_, err := NewWriter("pdf", Options{})
	if !errors.IsCode(err, errors.CodeInvalidFormat) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.CodeInvalidFormat)
	}
}

func TestJSONWriter_RoundTrips(t *testing.T) {
	r, _ := sampleReport(t)

	var buf bytes.Buffer
	if err := (&JSONWriter{}).Write(&buf, r); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var back Report
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("output is not valid json: %v", err)
	}
	if back.RunID != r.RunID {
		t.Errorf("RunID = %q, want %q", back.RunID, r.RunID)
	}
	if back.Result.TotalCases != 2 {
		t.Errorf("TotalCases = %d, want 2", back.Result.TotalCases)
	}
}

func TestMarkdownWriter(t *testing.T) {
	r, _ := sampleReport(t)

	var buf bytes.Buffer
	if err := (&MarkdownWriter{}).Write(&buf, r); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"o2c", "orders.csv", "bad", "50"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\t") {
		t.Error("markdown output contains raw tabs")
	}
}

func TestMarkdownWriter_CapsCaseDetails(t *testing.T) {
	r, _ := sampleReport(t)

	var capped, full bytes.Buffer
	if err := (&MarkdownWriter{Options: Options{MaxCaseDetails: 1}}).Write(&capped, r); err != nil {
		t.Fatal(err)
	}
	if err := (&MarkdownWriter{}).Write(&full, r); err != nil {
		t.Fatal(err)
	}
	if capped.Len() > full.Len() {
		t.Error("capped report should not be longer than the full one")
	}
}

func TestConsoleWriter(t *testing.T) {
	r, _ := sampleReport(t)

	var buf bytes.Buffer
	if err := (&ConsoleWriter{}).Write(&buf, r); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "bad") {
		t.Errorf("console output missing non-conformant case:\n%s", out)
	}
}

func TestXLSXWriter(t *testing.T) {
	r, _ := sampleReport(t)

	var buf bytes.Buffer
	if err := (&XLSXWriter{}).Write(&buf, r); err != nil {
		t.Fatalf("Write: %v", err)
	}
	// XLSX files are zip archives; check the magic bytes.
	if buf.Len() < 4 || buf.Bytes()[0] != 'P' || buf.Bytes()[1] != 'K' {
		t.Errorf("output does not look like an xlsx archive (%d bytes)", buf.Len())
	}
}

func TestNonConformantAndCap(t *testing.T) {
	results := []conformance.CaseResult{
		{CaseID: "a", IsConformant: true},
		{CaseID: "b"},
		{CaseID: "c"},
	}

	bad := nonConformant(results)
	if len(bad) != 2 || bad[0].CaseID != "b" || bad[1].CaseID != "c" {
		t.Errorf("nonConformant = %+v", bad)
	}

	if got := capCases(bad, 1); len(got) != 1 || got[0].CaseID != "b" {
		t.Errorf("capCases = %+v", got)
	}
	if got := capCases(bad, 0); len(got) != 2 {
		t.Errorf("capCases(0) should not cap, got %+v", got)
	}
}
