package conformance

import (
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/checkflow/checkflow/internal/model"
)

// trace builds a trace of the given activities with increasing
// timestamps.
func trace(activities ...string) []model.Event {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	events := make([]model.Event, len(activities))
	for i, a := range activities {
		events[i] = model.Event{CaseID: "c1", Activity: a, Timestamp: base.Add(time.Duration(i) * time.Hour)}
	}
	return events
}

func kinds(devs []Deviation) []DeviationKind {
	out := make([]DeviationKind, len(devs))
	for i, d := range devs {
		out[i] = d.Kind
	}
	return out
}

func countKind(devs []Deviation, kind DeviationKind) int {
	n := 0
	for _, d := range devs {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

func TestDetect_PerfectTrace(t *testing.T) {
	d := NewDeviationDetector(linearModel(t), nil)

	devs := d.DetectDeviations(trace("OrderCreated", "DeliveryCreated", "GoodsIssued", "InvoiceCreated"), "c1")
	if len(devs) != 0 {
		t.Errorf("perfect trace produced deviations: %v", kinds(devs))
	}
}

func TestDetect_EmptyTrace(t *testing.T) {
	d := NewDeviationDetector(linearModel(t), nil)
	if devs := d.DetectDeviations(nil, "c1"); len(devs) != 0 {
		t.Errorf("empty trace produced deviations: %v", kinds(devs))
	}
}

func TestDetect_MissingStart(t *testing.T) {
	d := NewDeviationDetector(linearModel(t), nil)

	devs := d.DetectDeviations(trace("DeliveryCreated", "GoodsIssued", "InvoiceCreated"), "c1")

	if countKind(devs, DeviationInvalidStart) != 1 {
		t.Errorf("want one invalid_start, got %v", kinds(devs))
	}
	if countKind(devs, DeviationSkippedActivity) != 1 {
		t.Errorf("want one skipped_activity for DeliveryCreated, got %v", kinds(devs))
	}
	if countKind(devs, DeviationMissingActivity) != 1 {
		t.Errorf("want one missing_activity for OrderCreated, got %v", kinds(devs))
	}
	// Trace incomplete, so no invalid_end despite the last activity.
	if countKind(devs, DeviationInvalidEnd) != 0 {
		t.Errorf("incomplete trace must not produce invalid_end, got %v", kinds(devs))
	}

	for _, d := range devs {
		if d.Kind == DeviationMissingActivity {
			if d.ActivityName != "OrderCreated" {
				t.Errorf("missing activity = %q, want OrderCreated", d.ActivityName)
			}
			if d.Position != -1 {
				t.Errorf("missing activity position = %d, want -1", d.Position)
			}
			if d.Timestamp != nil {
				t.Error("missing activity should carry no timestamp")
			}
			if d.Severity != SeverityCritical {
				t.Errorf("missing OrderCreated severity = %v, want critical", d.Severity)
			}
		}
	}
}

func TestDetect_WrongOrder(t *testing.T) {
	d := NewDeviationDetector(linearModel(t), nil)

	devs := d.DetectDeviations(trace("OrderCreated", "DeliveryCreated", "InvoiceCreated", "GoodsIssued"), "c1")

	var wrongOrder []Deviation
	for _, dev := range devs {
		if dev.Kind == DeviationWrongOrder {
			wrongOrder = append(wrongOrder, dev)
		}
	}
	if len(wrongOrder) != 1 {
		t.Fatalf("want one wrong_order, got %v", kinds(devs))
	}
	if wrongOrder[0].ActivityName != "GoodsIssued" {
		t.Errorf("wrong_order activity = %q, want GoodsIssued", wrongOrder[0].ActivityName)
	}
	if wrongOrder[0].Details["expected_predecessor"] != "InvoiceCreated" {
		t.Errorf("expected_predecessor = %v, want InvoiceCreated", wrongOrder[0].Details["expected_predecessor"])
	}

	// InvoiceCreated ran before its mandatory predecessor GoodsIssued.
	if countKind(devs, DeviationSkippedActivity) != 1 {
		t.Errorf("want one skipped_activity for InvoiceCreated, got %v", kinds(devs))
	}
	// All mandatory activities ran but the trace ends on GoodsIssued.
	if countKind(devs, DeviationInvalidEnd) != 1 {
		t.Errorf("want one invalid_end, got %v", kinds(devs))
	}
}

func TestDetect_UnexpectedActivity(t *testing.T) {
	d := NewDeviationDetector(linearModel(t), nil)

	devs := d.DetectDeviations(trace("OrderCreated", "Mystery", "DeliveryCreated", "Mystery", "GoodsIssued", "InvoiceCreated"), "c1")

	unexpected := 0
	positions := map[int]bool{}
	for _, dev := range devs {
		if dev.Kind == DeviationUnexpectedActivity {
			unexpected++
			positions[dev.Position] = true
			if dev.Severity != SeverityMinor {
				t.Errorf("unexpected severity = %v, want minor", dev.Severity)
			}
		}
	}
	// Flagged once per position, even for the same unknown name.
	if unexpected != 2 || !positions[1] || !positions[3] {
		t.Errorf("want unexpected at positions 1 and 3, got %d at %v", unexpected, positions)
	}
	// Repeats of unknown activities are not duplicates.
	if countKind(devs, DeviationDuplicateActivity) != 0 {
		t.Errorf("unknown repeats must not be duplicates, got %v", kinds(devs))
	}
}

func TestDetect_DuplicateActivity(t *testing.T) {
	d := NewDeviationDetector(linearModel(t), nil)

	devs := d.DetectDeviations(trace("OrderCreated", "DeliveryCreated", "DeliveryCreated", "GoodsIssued", "InvoiceCreated"), "c1")

	var dup *Deviation
	for i := range devs {
		if devs[i].Kind == DeviationDuplicateActivity {
			if dup != nil {
				t.Fatal("want exactly one duplicate deviation")
			}
			dup = &devs[i]
		}
	}
	if dup == nil {
		t.Fatalf("no duplicate deviation in %v", kinds(devs))
	}
	if dup.ActivityName != "DeliveryCreated" || dup.Position != 2 {
		t.Errorf("duplicate = %s at %d, want DeliveryCreated at 2", dup.ActivityName, dup.Position)
	}
	if dup.Details["first_occurrence"] != 1 {
		t.Errorf("first_occurrence = %v, want 1", dup.Details["first_occurrence"])
	}
}

func TestDetect_MissingVersusSkipped(t *testing.T) {
	d := NewDeviationDetector(linearModel(t), nil)

	// InvoiceCreated never executed: missing, and nothing after it ran
	// with unmet prerequisites, so no skipped deviation for it.
	devs := d.DetectDeviations(trace("OrderCreated", "DeliveryCreated", "GoodsIssued"), "c1")

	missing := 0
	for _, dev := range devs {
		switch dev.Kind {
		case DeviationMissingActivity:
			missing++
			if dev.ActivityName != "InvoiceCreated" {
				t.Errorf("missing = %q, want InvoiceCreated", dev.ActivityName)
			}
		case DeviationSkippedActivity:
			t.Errorf("unexpected skipped_activity for %q", dev.ActivityName)
		}
	}
	if missing != 1 {
		t.Errorf("want one missing_activity, got %v", kinds(devs))
	}

	// DeliveryCreated skipped but execution continued: skipped at the
	// point of violation, and also missing since it never ran.
	devs = d.DetectDeviations(trace("OrderCreated", "GoodsIssued", "InvoiceCreated"), "c1")
	if countKind(devs, DeviationSkippedActivity) != 1 {
		t.Errorf("want one skipped_activity, got %v", kinds(devs))
	}
	if countKind(devs, DeviationMissingActivity) != 1 {
		t.Errorf("want one missing_activity, got %v", kinds(devs))
	}
}

func TestDetect_AliasResolution(t *testing.T) {
	m, err := NewBuilder("m", "M").
		AddActivity(Activity{Name: "OrderCreated", Kind: ActivityStart, EventAliases: []string{"OrderCreated", "VA01"}}).
		AddActivity(Activity{Name: "InvoiceCreated", Kind: ActivityEnd, EventAliases: []string{"InvoiceCreated", "VF01"}}).
		AddSequence("OrderCreated", "InvoiceCreated").
		Build()
	if err != nil {
		t.Fatal(err)
	}
	d := NewDeviationDetector(m, nil)

	if devs := d.DetectDeviations(trace("VA01", "VF01"), "c1"); len(devs) != 0 {
		t.Errorf("aliased perfect trace produced deviations: %v", kinds(devs))
	}
}

func TestDetect_SkipsEmptyActivities(t *testing.T) {
	d := NewDeviationDetector(linearModel(t), nil)

	events := trace("OrderCreated", "DeliveryCreated", "GoodsIssued", "InvoiceCreated")
	withBlank := append([]model.Event{{CaseID: "c1"}}, events...)

	if devs := d.DetectDeviations(withBlank, "c1"); len(devs) != 0 {
		t.Errorf("blank record should be ignored, got %v", kinds(devs))
	}
}

func TestDetect_SortedBySeverity(t *testing.T) {
	d := NewDeviationDetector(linearModel(t), nil)

	devs := d.DetectDeviations(trace("DeliveryCreated", "Mystery", "GoodsIssued", "InvoiceCreated"), "c1")
	if len(devs) < 3 {
		t.Fatalf("expected several deviations, got %v", kinds(devs))
	}
	if !sort.SliceIsSorted(devs, func(i, j int) bool { return devs[i].Severity < devs[j].Severity }) {
		t.Errorf("deviations not sorted by severity: %v", devs)
	}
}

func TestDetect_Deterministic(t *testing.T) {
	m, err := NewBuilder("m", "M").
		AddActivity(Activity{Name: "Start", Kind: ActivityStart}).
		AddActivity(Activity{Name: "P1", Kind: ActivityIntermediate}).
		AddActivity(Activity{Name: "P2", Kind: ActivityIntermediate}).
		AddActivity(Activity{Name: "End", Kind: ActivityEnd}).
		AddParallel("Start", []string{"P1", "P2"}, "End").
		Build()
	if err != nil {
		t.Fatal(err)
	}

	events := trace("P2", "Start", "P1", "Ghost", "End", "P2")

	first := NewDeviationDetector(m, nil).DetectDeviations(events, "c1")
	for i := 0; i < 25; i++ {
		got := NewDeviationDetector(m, nil).DetectDeviations(events, "c1")
		if !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs:\n got %v\nwant %v", i, got, first)
		}
	}
}

func TestDetect_CaseIDPropagated(t *testing.T) {
	d := NewDeviationDetector(linearModel(t), nil)

	devs := d.DetectDeviations(trace("DeliveryCreated"), "case-42")
	if len(devs) == 0 {
		t.Fatal("expected deviations")
	}
	for _, dev := range devs {
		if dev.CaseID != "case-42" {
			t.Errorf("CaseID = %q, want case-42", dev.CaseID)
		}
	}
}
