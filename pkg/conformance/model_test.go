package conformance

import (
	"reflect"
	"testing"

	"github.com/checkflow/checkflow/pkg/errors"
)

// linearModel builds the canonical 4-step order-to-cash model used
// throughout these tests: OrderCreated -> DeliveryCreated ->
// GoodsIssued -> InvoiceCreated, all mandatory.
func linearModel(t *testing.T) *ProcessModel {
	t.Helper()
	m, err := NewBuilder("o2c", "Order to Cash").
		AddActivity(Activity{Name: "OrderCreated", Kind: ActivityStart}).
		AddActivity(Activity{Name: "DeliveryCreated", Kind: ActivityIntermediate}).
		AddActivity(Activity{Name: "GoodsIssued", Kind: ActivityMilestone}).
		AddActivity(Activity{Name: "InvoiceCreated", Kind: ActivityEnd}).
		AddSequence("OrderCreated", "DeliveryCreated", "GoodsIssued", "InvoiceCreated").
		Build()
	if err != nil {
		t.Fatalf("building linear model: %v", err)
	}
	return m
}

func TestProcessModel_Sets(t *testing.T) {
	m := linearModel(t)

	if !m.IsStartActivity("OrderCreated") {
		t.Error("OrderCreated should be a start activity")
	}
	if m.IsStartActivity("InvoiceCreated") {
		t.Error("InvoiceCreated should not be a start activity")
	}
	if !m.IsEndActivity("InvoiceCreated") {
		t.Error("InvoiceCreated should be an end activity")
	}
	for _, name := range []string{"OrderCreated", "DeliveryCreated", "GoodsIssued", "InvoiceCreated"} {
		if !m.IsMandatory(name) {
			t.Errorf("%s should be mandatory", name)
		}
	}
}

func TestProcessModel_OptionalActivityNotMandatory(t *testing.T) {
	m, err := NewBuilder("m", "M").
		AddActivity(Activity{Name: "A", Kind: ActivityStart}).
		AddActivity(Activity{Name: "Note", Kind: ActivityOptional}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	if m.IsMandatory("Note") {
		t.Error("optional activity should not be mandatory")
	}
	if !m.IsMandatory("A") {
		t.Error("start activity should be mandatory")
	}
}

func TestProcessModel_Transitions(t *testing.T) {
	m := linearModel(t)

	if !m.IsValidTransition("OrderCreated", "DeliveryCreated") {
		t.Error("OrderCreated -> DeliveryCreated should be valid")
	}
	if m.IsValidTransition("DeliveryCreated", "OrderCreated") {
		t.Error("reverse transition should not be valid")
	}

	next := m.ValidNextActivities("OrderCreated")
	if !next["DeliveryCreated"] || len(next) != 1 {
		t.Errorf("ValidNextActivities(OrderCreated) = %v", next)
	}
	prev := m.ValidPreviousActivities("GoodsIssued")
	if !prev["DeliveryCreated"] || len(prev) != 1 {
		t.Errorf("ValidPreviousActivities(GoodsIssued) = %v", prev)
	}
}

func TestProcessModel_AddTransitionUnknownActivity(t *testing.T) {
	m := NewProcessModel("m", "M")
	m.AddActivity(Activity{Name: "A", Kind: ActivityStart})

	err := m.AddTransition(Transition{Source: "A", Target: "Ghost"})
	if err == nil {
		t.Fatal("expected error for undeclared target")
	}
	if !errors.IsCode(err, errors.CodeUnknownActivity) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.CodeUnknownActivity)
	}

	if err := m.AddTransition(Transition{Source: "Ghost", Target: "A"}); err == nil {
		t.Fatal("expected error for undeclared source")
	}
}

func TestProcessModel_DuplicateTransitionIgnored(t *testing.T) {
	m := NewProcessModel("m", "M")
	m.AddActivity(Activity{Name: "A", Kind: ActivityStart})
	m.AddActivity(Activity{Name: "B", Kind: ActivityEnd})

	for i := 0; i < 3; i++ {
		if err := m.AddTransition(Transition{Source: "A", Target: "B", Mandatory: true}); err != nil {
			t.Fatalf("AddTransition: %v", err)
		}
	}

	if got := len(m.Transitions()); got != 1 {
		t.Errorf("transitions = %d, want 1 (duplicates ignored)", got)
	}
}

func TestProcessModel_ActivityForEvent(t *testing.T) {
	m := NewProcessModel("m", "M")
	m.AddActivity(Activity{Name: "OrderCreated", Kind: ActivityStart, EventAliases: []string{"OrderCreated", "VA01"}})
	m.AddActivity(Activity{Name: "Plain", Kind: ActivityEnd})

	if a, ok := m.ActivityForEvent("VA01"); !ok || a.Name != "OrderCreated" {
		t.Errorf("ActivityForEvent(VA01) = %v, %v", a, ok)
	}
	if a, ok := m.ActivityForEvent("Plain"); !ok || a.Name != "Plain" {
		t.Errorf("ActivityForEvent(Plain) = %v, %v", a, ok)
	}
	if _, ok := m.ActivityForEvent("Nope"); ok {
		t.Error("unknown event type should not resolve")
	}
}

func TestProcessModel_ExpectedSequence(t *testing.T) {
	m := linearModel(t)

	want := []string{"OrderCreated", "DeliveryCreated", "GoodsIssued", "InvoiceCreated"}
	if got := m.ExpectedSequence(); !reflect.DeepEqual(got, want) {
		t.Errorf("ExpectedSequence() = %v, want %v", got, want)
	}

	order := m.DependencyOrder()
	for i, name := range want {
		if order[name] != i {
			t.Errorf("DependencyOrder[%s] = %d, want %d", name, order[name], i)
		}
	}
}

func TestProcessModel_ExpectedSequenceSkipsOptional(t *testing.T) {
	m, err := NewBuilder("m", "M").
		AddActivity(Activity{Name: "A", Kind: ActivityStart}).
		AddActivity(Activity{Name: "Opt", Kind: ActivityOptional}).
		AddActivity(Activity{Name: "B", Kind: ActivityEnd}).
		AddTransition("A", "B").
		AddOptionalTransition("A", "Opt").
		AddOptionalTransition("Opt", "B").
		Build()
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"A", "B"}
	if got := m.ExpectedSequence(); !reflect.DeepEqual(got, want) {
		t.Errorf("ExpectedSequence() = %v, want %v (optional excluded)", got, want)
	}
}

func TestProcessModel_ExpectedSequenceDeterministic(t *testing.T) {
	build := func() *ProcessModel {
		m, err := NewBuilder("m", "M").
			AddActivity(Activity{Name: "Start", Kind: ActivityStart}).
			AddActivity(Activity{Name: "P1", Kind: ActivityIntermediate}).
			AddActivity(Activity{Name: "P2", Kind: ActivityIntermediate}).
			AddActivity(Activity{Name: "P3", Kind: ActivityIntermediate}).
			AddActivity(Activity{Name: "End", Kind: ActivityEnd}).
			AddParallel("Start", []string{"P1", "P2", "P3"}, "End").
			Build()
		if err != nil {
			t.Fatal(err)
		}
		return m
	}

	first := build().ExpectedSequence()
	for i := 0; i < 20; i++ {
		if got := build().ExpectedSequence(); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: sequence %v differs from %v", i, got, first)
		}
	}
}

func TestProcessModel_QueryCopiesAreIsolated(t *testing.T) {
	m := linearModel(t)

	starts := m.StartActivities()
	starts["Injected"] = true
	if m.IsStartActivity("Injected") {
		t.Error("mutating a returned set must not affect the model")
	}

	seq := m.ExpectedSequence()
	seq[0] = "Mutated"
	if m.ExpectedSequence()[0] != "OrderCreated" {
		t.Error("mutating a returned sequence must not affect the model")
	}
}

func TestBuilder_LatchesFirstError(t *testing.T) {
	_, err := NewBuilder("m", "M").
		AddActivity(Activity{Name: "A", Kind: ActivityStart}).
		AddTransition("A", "Missing").
		AddTransition("AlsoMissing", "A").
		Build()
	if err == nil {
		t.Fatal("expected build error")
	}
	if !errors.IsCode(err, errors.CodeUnknownActivity) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.CodeUnknownActivity)
	}
}

func TestBuilder_AddParallel(t *testing.T) {
	m, err := NewBuilder("m", "M").
		AddActivity(Activity{Name: "Start", Kind: ActivityStart}).
		AddActivity(Activity{Name: "Pick", Kind: ActivityIntermediate}).
		AddActivity(Activity{Name: "Pack", Kind: ActivityIntermediate}).
		AddActivity(Activity{Name: "End", Kind: ActivityEnd}).
		AddParallel("Start", []string{"Pick", "Pack"}, "End").
		Build()
	if err != nil {
		t.Fatal(err)
	}

	// Mandatory in and out edges.
	for _, name := range []string{"Pick", "Pack"} {
		if !m.IsValidTransition("Start", name) {
			t.Errorf("missing transition Start -> %s", name)
		}
		if !m.IsValidTransition(name, "End") {
			t.Errorf("missing transition %s -> End", name)
		}
	}
	// Parallel members may run in either order.
	if !m.IsValidTransition("Pick", "Pack") || !m.IsValidTransition("Pack", "Pick") {
		t.Error("parallel block members should allow both orders")
	}
}

func TestBuilder_DefaultsKindAndDisplayName(t *testing.T) {
	m, err := NewBuilder("m", "M").
		AddActivity(Activity{Name: "Plain"}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	a, ok := m.Activity("Plain")
	if !ok {
		t.Fatal("activity not found")
	}
	if a.Kind != ActivityIntermediate {
		t.Errorf("Kind = %q, want %q", a.Kind, ActivityIntermediate)
	}
	if a.DisplayName != "Plain" {
		t.Errorf("DisplayName = %q, want %q", a.DisplayName, "Plain")
	}
}
