package app

import (
	"time"

	"github.com/shopspring/decimal"

	"orderdesk/internal/core"
)

// ApplyRulesRequest is the input for a single rule evaluation.
type ApplyRulesRequest struct {
	SKU          string
	Vendor       string
	Brand        string
	ItemName     string
	Outlet       string
	CurrentStock float64
	StandardQty  int
}

// CreatePORequest is the input for creating a purchase order. When Lines is
// nil the line items are generated from the classification table. When
// OrderNumber is empty the next sequential number is assigned.
type CreatePORequest struct {
	Outlet      string
	Brand       string
	OrderNumber string
	OrderType   string // "PO" (default) or "CO"
	Lines       []core.OrderLineItem
}

// CreateCustomerOrderRequest is the input for recording a customer order.
// ItemCode may be the NEW_ITEM sentinel for uncataloged items.
type CreateCustomerOrderRequest struct {
	Outlet        string
	Brand         string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	CustomerPIC   string
	ItemCode      string
	ItemName      string
	Quantity      int
	Notes         string
}

// CreateGRNRequest is the input for recording a goods receipt. A zero Date
// means now.
type CreateGRNRequest struct {
	OrderNumber   string
	InvoiceNumber string
	Amount        decimal.Decimal
	Date          time.Time
	Notes         string
}
