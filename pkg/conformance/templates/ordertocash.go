// Package templates provides ready-made process models for common
// business processes. Templates are plain data fed to the conformance
// builder; they carry no behavior of their own.
package templates

import "github.com/checkflow/checkflow/pkg/conformance"

// SimpleOrderToCash returns the core 4-step Order-to-Cash model:
//
//	OrderCreated -> DeliveryCreated -> GoodsIssued -> InvoiceCreated
//
// Every activity is mandatory. Event aliases cover the common ERP
// transaction codes that show up in raw extracts.
func SimpleOrderToCash() *conformance.ProcessModel {
	m, err := conformance.NewBuilder("o2c_simple", "Order to Cash (Simple)").
		Describe("Standard O2C process: Order -> Delivery -> Goods Issue -> Invoice").
		Version("1.0.0").
		AddActivity(conformance.Activity{
			Name:         "OrderCreated",
			DisplayName:  "Sales Order Created",
			Kind:         conformance.ActivityStart,
			EventAliases: []string{"OrderCreated", "VA01", "VBAK_CREATE"},
			Description:  "Sales order created",
		}).
		AddActivity(conformance.Activity{
			Name:         "DeliveryCreated",
			DisplayName:  "Delivery Created",
			Kind:         conformance.ActivityIntermediate,
			EventAliases: []string{"DeliveryCreated", "VL01N", "LIKP_CREATE"},
			Description:  "Outbound delivery created",
		}).
		AddActivity(conformance.Activity{
			Name:         "GoodsIssued",
			DisplayName:  "Goods Issue Posted",
			Kind:         conformance.ActivityMilestone,
			EventAliases: []string{"GoodsIssued", "VL06G", "GOODS_ISSUE"},
			Description:  "Goods issue posted, inventory reduced",
		}).
		AddActivity(conformance.Activity{
			Name:         "InvoiceCreated",
			DisplayName:  "Invoice Created",
			Kind:         conformance.ActivityEnd,
			EventAliases: []string{"InvoiceCreated", "VF01", "VBRK_CREATE"},
			Description:  "Billing document created",
		}).
		AddSequence("OrderCreated", "DeliveryCreated", "GoodsIssued", "InvoiceCreated").
		Build()
	if err != nil {
		// Transitions only reference activities declared above.
		panic(err)
	}
	return m
}

// DetailedOrderToCash returns the Order-to-Cash model with optional
// sub-activities: order changes and release, picking and packing,
// invoice posting and payment receipt.
func DetailedOrderToCash() *conformance.ProcessModel {
	b := conformance.NewBuilder("o2c_detailed", "Order to Cash (Detailed)").
		Describe("Detailed O2C process with optional sub-activities").
		Version("1.0.0")

	b.AddActivity(conformance.Activity{
		Name:         "OrderCreated",
		DisplayName:  "Sales Order Created",
		Kind:         conformance.ActivityStart,
		EventAliases: []string{"OrderCreated", "VA01", "VBAK_CREATE"},
	})
	b.AddActivity(conformance.Activity{
		Name:         "OrderChanged",
		DisplayName:  "Sales Order Changed",
		Kind:         conformance.ActivityOptional,
		EventAliases: []string{"OrderChanged", "VA02", "VBAK_CHANGE"},
	})
	b.AddActivity(conformance.Activity{
		Name:         "OrderReleased",
		DisplayName:  "Sales Order Released",
		Kind:         conformance.ActivityOptional,
		EventAliases: []string{"OrderReleased", "ORDER_RELEASE"},
	})
	b.AddActivity(conformance.Activity{
		Name:         "DeliveryCreated",
		DisplayName:  "Delivery Created",
		Kind:         conformance.ActivityIntermediate,
		EventAliases: []string{"DeliveryCreated", "VL01N", "LIKP_CREATE"},
	})
	b.AddActivity(conformance.Activity{
		Name:         "DeliveryChanged",
		DisplayName:  "Delivery Changed",
		Kind:         conformance.ActivityOptional,
		EventAliases: []string{"DeliveryChanged", "VL02N", "LIKP_CHANGE"},
	})
	b.AddActivity(conformance.Activity{
		Name:         "PickingCompleted",
		DisplayName:  "Picking Completed",
		Kind:         conformance.ActivityOptional,
		EventAliases: []string{"PickingCompleted", "PICKING_COMPLETE"},
	})
	b.AddActivity(conformance.Activity{
		Name:         "PackingCompleted",
		DisplayName:  "Packing Completed",
		Kind:         conformance.ActivityOptional,
		EventAliases: []string{"PackingCompleted", "PACKING_COMPLETE"},
	})
	b.AddActivity(conformance.Activity{
		Name:         "GoodsIssued",
		DisplayName:  "Goods Issue Posted",
		Kind:         conformance.ActivityMilestone,
		EventAliases: []string{"GoodsIssued", "VL06G", "GOODS_ISSUE"},
	})
	b.AddActivity(conformance.Activity{
		Name:         "InvoiceCreated",
		DisplayName:  "Invoice Created",
		Kind:         conformance.ActivityIntermediate,
		EventAliases: []string{"InvoiceCreated", "VF01", "VBRK_CREATE"},
	})
	b.AddActivity(conformance.Activity{
		Name:         "InvoicePosted",
		DisplayName:  "Invoice Posted",
		Kind:         conformance.ActivityOptional,
		EventAliases: []string{"InvoicePosted", "INVOICE_POST", "FI_POST"},
	})
	b.AddActivity(conformance.Activity{
		Name:         "PaymentReceived",
		DisplayName:  "Payment Received",
		Kind:         conformance.ActivityEnd,
		EventAliases: []string{"PaymentReceived", "PAYMENT_RECEIVED"},
	})

	// Order phase.
	b.AddOptionalTransition("OrderCreated", "OrderChanged")
	b.AddOptionalTransition("OrderCreated", "OrderReleased")
	b.AddTransition("OrderCreated", "DeliveryCreated")
	b.AddOptionalTransition("OrderChanged", "OrderReleased")
	b.AddTransition("OrderChanged", "DeliveryCreated")
	b.AddTransition("OrderReleased", "DeliveryCreated")

	// Delivery phase.
	b.AddOptionalTransition("DeliveryCreated", "DeliveryChanged")
	b.AddOptionalTransition("DeliveryCreated", "PickingCompleted")
	b.AddTransition("DeliveryCreated", "GoodsIssued")
	b.AddOptionalTransition("DeliveryChanged", "PickingCompleted")
	b.AddTransition("DeliveryChanged", "GoodsIssued")
	b.AddOptionalTransition("PickingCompleted", "PackingCompleted")
	b.AddTransition("PickingCompleted", "GoodsIssued")
	b.AddTransition("PackingCompleted", "GoodsIssued")

	// Billing phase.
	b.AddTransition("GoodsIssued", "InvoiceCreated")
	b.AddOptionalTransition("InvoiceCreated", "InvoicePosted")
	b.AddTransition("InvoiceCreated", "PaymentReceived")
	b.AddTransition("InvoicePosted", "PaymentReceived")

	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}

// OrderToCash returns the simple or detailed Order-to-Cash model.
func OrderToCash(detailed bool) *conformance.ProcessModel {
	if detailed {
		return DetailedOrderToCash()
	}
	return SimpleOrderToCash()
}

// Names lists the available template names for CLI discovery.
func Names() []string {
	return []string{"o2c_simple", "o2c_detailed"}
}

// ByName resolves a template by its name.
func ByName(name string) (*conformance.ProcessModel, bool) {
	switch name {
	case "o2c_simple":
		return SimpleOrderToCash(), true
	case "o2c_detailed":
		return DetailedOrderToCash(), true
	default:
		return nil, false
	}
}
