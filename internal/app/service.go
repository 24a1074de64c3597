package app

import (
	"context"

	"orderdesk/internal/core"
)

// ApplicationService is the single interface all adapters (CLI, sweep jobs)
// call. It decouples presentation from business logic. Implementations must
// contain no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// ClassifySKUs rebuilds the SKU classification table from the current
	// sales history and returns the classified rows.
	ClassifySKUs(ctx context.Context) (*ClassificationResult, error)

	// ComputeBins rebuilds the per-outlet cost-bin config from the given
	// average costs per outlet.
	ComputeBins(ctx context.Context, costsByOutlet map[string][]float64) error

	// ReadBins returns the persisted cost bins keyed by outlet.
	ReadBins(ctx context.Context) (*BinsResult, error)

	// ApplyBusinessRules evaluates the rule table against a single item and
	// returns the effective quantity with its justification, if any rule
	// matched.
	ApplyBusinessRules(ctx context.Context, req ApplyRulesRequest) (*RuleResult, error)

	// CreatePO creates a purchase order from the classification table (or
	// the explicit lines in the request) and registers it for tracking.
	CreatePO(ctx context.Context, req CreatePORequest) (*OrderResult, error)

	// CreatePOsFromBatch creates an order for every pending batch row.
	CreatePOsFromBatch(ctx context.Context) (*SweepResult, error)

	// ApprovePO marks a purchase order approved.
	ApprovePO(ctx context.Context, orderNumber string) error

	// SendPO emails one approved, unsent purchase order to its distributor.
	SendPO(ctx context.Context, orderNumber string) error

	// SendApprovedPOs sends every approved, unsent purchase order.
	SendApprovedPOs(ctx context.Context) (*SweepResult, error)

	// RefreshPOValues recomputes tracked amounts of unapproved, unsent
	// orders from their current line items.
	RefreshPOValues(ctx context.Context) (*SweepResult, error)

	// CreateCustomerOrder records a customer order; small orders for known
	// items are auto-approved and dispatched in the same call.
	CreateCustomerOrder(ctx context.Context, req CreateCustomerOrderRequest) (*CustomerOrderResult, error)

	// ApproveCustomerOrder manually approves a pending customer order and
	// attempts the distributor send.
	ApproveCustomerOrder(ctx context.Context, coNumber, approvedBy string) error

	// CreateGRN records a goods receipt against a tracked order.
	CreateGRN(ctx context.Context, req CreateGRNRequest) (*GRNResult, error)

	// ApproveGRN approves a receipt and recomputes order fulfillment.
	ApproveGRN(ctx context.Context, grnNumber string) error

	// UpdateOrderFulfillment recomputes fulfillment for one order.
	UpdateOrderFulfillment(ctx context.Context, orderNumber string) error

	// CloseOldOrders closes sent orders past the auto-close window.
	CloseOldOrders(ctx context.Context) (*SweepResult, error)

	// AutoApproveOldGRNs approves receipts past the auto-approve window.
	AutoApproveOldGRNs(ctx context.Context) (*SweepResult, error)

	// AutoApproveOldCOs approves pending customer orders past the
	// auto-approve window.
	AutoApproveOldCOs(ctx context.Context) (*SweepResult, error)

	// EligibleOrdersForGRN lists orders a receipt may be recorded against.
	EligibleOrdersForGRN(ctx context.Context) ([]core.ReceivableOrder, error)

	// AvailableItems lists the item codes a customer order may reference.
	AvailableItems(ctx context.Context) ([]core.CatalogItem, error)
}
