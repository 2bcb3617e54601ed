package templates

import (
	"testing"
	"time"

	"github.com/checkflow/checkflow/internal/model"
	"github.com/checkflow/checkflow/pkg/conformance"
)

func trace(activities ...string) []model.Event {
	base := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	events := make([]model.Event, len(activities))
	for i, a := range activities {
		events[i] = model.Event{CaseID: "c1", Activity: a, Timestamp: base.Add(time.Duration(i) * time.Minute)}
	}
	return events
}

func TestSimpleOrderToCash(t *testing.T) {
	m := SimpleOrderToCash()

	if m.Name != "o2c_simple" {
		t.Errorf("Name = %q, want o2c_simple", m.Name)
	}
	if !m.IsStartActivity("OrderCreated") || !m.IsEndActivity("InvoiceCreated") {
		t.Error("start/end activities not set")
	}
	for _, alias := range []string{"VA01", "VBAK_CREATE"} {
		if a, ok := m.ActivityForEvent(alias); !ok || a.Name != "OrderCreated" {
			t.Errorf("alias %s resolved to %v, %v", alias, a, ok)
		}
	}

	c := conformance.NewChecker(m)

	res := c.CheckTrace(trace("OrderCreated", "DeliveryCreated", "GoodsIssued", "InvoiceCreated"), "c1")
	if !res.IsFullyConformant {
		t.Errorf("happy path not conformant: %+v", res.Deviations)
	}

	res = c.CheckTrace(trace("DeliveryCreated", "GoodsIssued", "InvoiceCreated"), "c2")
	if res.IsConformant {
		t.Error("trace without order creation should not be conformant")
	}
}

func TestDetailedOrderToCash(t *testing.T) {
	m := DetailedOrderToCash()
	c := conformance.NewChecker(m)

	// Core path without any optional sub-activities.
	res := c.CheckTrace(trace("OrderCreated", "DeliveryCreated", "GoodsIssued", "InvoiceCreated", "PaymentReceived"), "c1")
	if !res.IsFullyConformant {
		t.Errorf("core path not conformant: %+v", res.Deviations)
	}

	// Full path exercising the optional activities.
	res = c.CheckTrace(trace(
		"OrderCreated", "OrderChanged", "OrderReleased",
		"DeliveryCreated", "PickingCompleted", "PackingCompleted",
		"GoodsIssued", "InvoiceCreated", "InvoicePosted", "PaymentReceived",
	), "c2")
	if !res.IsFullyConformant {
		t.Errorf("detailed path not conformant: %+v", res.Deviations)
	}

	// Optional activities are excluded from missing checks.
	for _, opt := range []string{"OrderChanged", "PickingCompleted", "InvoicePosted"} {
		if m.IsMandatory(opt) {
			t.Errorf("%s should be optional", opt)
		}
	}
	if !m.IsEndActivity("PaymentReceived") {
		t.Error("PaymentReceived should be the end activity")
	}
}

func TestOrderToCash(t *testing.T) {
	if got := OrderToCash(false).Name; got != "o2c_simple" {
		t.Errorf("OrderToCash(false) = %q", got)
	}
	if got := OrderToCash(true).Name; got != "o2c_detailed" {
		t.Errorf("OrderToCash(true) = %q", got)
	}
}

func TestByName(t *testing.T) {
	for _, name := range Names() {
		m, ok := ByName(name)
		if !ok || m == nil {
			t.Errorf("ByName(%q) = %v, %v", name, m, ok)
			continue
		}
		if m.Name != name {
			t.Errorf("ByName(%q).Name = %q", name, m.Name)
		}
	}
	if _, ok := ByName("unknown"); ok {
		t.Error("unknown template name should not resolve")
	}
}
