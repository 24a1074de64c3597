package app

import (
	"context"

	"orderdesk/internal/core"
)

type appService struct {
	classifier *core.SKUClassifier
	bins       *core.BinningEngine
	rules      *core.BusinessRuleEngine
	orders     *core.OrderLifecycleManager
	grn        *core.GRNService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	classifier *core.SKUClassifier,
	bins *core.BinningEngine,
	rules *core.BusinessRuleEngine,
	orders *core.OrderLifecycleManager,
	grn *core.GRNService,
) ApplicationService {
	return &appService{
		classifier: classifier,
		bins:       bins,
		rules:      rules,
		orders:     orders,
		grn:        grn,
	}
}

func (s *appService) ClassifySKUs(ctx context.Context) (*ClassificationResult, error) {
	rows, err := s.classifier.Classify(ctx)
	if err != nil {
		return nil, err
	}
	return &ClassificationResult{Rows: rows}, nil
}

func (s *appService) ComputeBins(ctx context.Context, costsByOutlet map[string][]float64) error {
	return s.bins.ComputeAndStore(ctx, costsByOutlet)
}

func (s *appService) ReadBins(ctx context.Context) (*BinsResult, error) {
	byOutlet, err := s.bins.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &BinsResult{ByOutlet: byOutlet}, nil
}

func (s *appService) ApplyBusinessRules(ctx context.Context, req ApplyRulesRequest) (*RuleResult, error) {
	decision := s.rules.Apply(ctx, core.RuleItem{
		SKU:          req.SKU,
		Vendor:       req.Vendor,
		Brand:        req.Brand,
		ItemName:     req.ItemName,
		Outlet:       req.Outlet,
		CurrentStock: req.CurrentStock,
	}, req.StandardQty)
	return &RuleResult{Quantity: decision.Quantity, Justification: decision.Justification}, nil
}

func (s *appService) CreatePO(ctx context.Context, req CreatePORequest) (*OrderResult, error) {
	orderNumber := req.OrderNumber
	if orderNumber == "" {
		var err error
		orderNumber, err = s.orders.NextPONumber(ctx)
		if err != nil {
			return nil, err
		}
	}
	if err := s.orders.CreatePO(ctx, req.Outlet, req.Brand, orderNumber, req.OrderType, req.Lines); err != nil {
		return nil, err
	}
	return &OrderResult{OrderNumber: orderNumber}, nil
}

func (s *appService) CreatePOsFromBatch(ctx context.Context) (*SweepResult, error) {
	created, err := s.orders.GeneratePOsFromBatch(ctx)
	if err != nil {
		return nil, err
	}
	return &SweepResult{Processed: created}, nil
}

func (s *appService) ApprovePO(ctx context.Context, orderNumber string) error {
	return s.orders.ApprovePO(ctx, orderNumber, core.ApprovalManual)
}

func (s *appService) SendPO(ctx context.Context, orderNumber string) error {
	return s.orders.SendPO(ctx, orderNumber)
}

func (s *appService) SendApprovedPOs(ctx context.Context) (*SweepResult, error) {
	sent, err := s.orders.SendApprovedPOs(ctx)
	if err != nil {
		return nil, err
	}
	return &SweepResult{Processed: sent}, nil
}

func (s *appService) RefreshPOValues(ctx context.Context) (*SweepResult, error) {
	updated, err := s.orders.RefreshPOValues(ctx)
	if err != nil {
		return nil, err
	}
	return &SweepResult{Processed: updated}, nil
}

func (s *appService) CreateCustomerOrder(ctx context.Context, req CreateCustomerOrderRequest) (*CustomerOrderResult, error) {
	order, err := s.orders.CreateCustomerOrder(ctx, core.CustomerOrderRequest{
		Outlet:        req.Outlet,
		Brand:         req.Brand,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		CustomerPIC:   req.CustomerPIC,
		ItemCode:      req.ItemCode,
		ItemName:      req.ItemName,
		Quantity:      req.Quantity,
		Notes:         req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &CustomerOrderResult{Order: order}, nil
}

func (s *appService) ApproveCustomerOrder(ctx context.Context, coNumber, approvedBy string) error {
	return s.orders.ApproveCustomerOrder(ctx, coNumber, core.ApprovalManual, approvedBy)
}

func (s *appService) CreateGRN(ctx context.Context, req CreateGRNRequest) (*GRNResult, error) {
	receipt, err := s.grn.CreateGRN(ctx, req.OrderNumber, req.InvoiceNumber, req.Amount, req.Date, req.Notes)
	if err != nil {
		return nil, err
	}
	return &GRNResult{Receipt: receipt}, nil
}

func (s *appService) ApproveGRN(ctx context.Context, grnNumber string) error {
	return s.grn.ApproveGRN(ctx, grnNumber, core.ApprovalManual)
}

func (s *appService) UpdateOrderFulfillment(ctx context.Context, orderNumber string) error {
	return s.orders.UpdateOrderFulfillment(ctx, orderNumber)
}

func (s *appService) CloseOldOrders(ctx context.Context) (*SweepResult, error) {
	closed, err := s.orders.CloseOldOrders(ctx)
	if err != nil {
		return nil, err
	}
	return &SweepResult{Processed: closed}, nil
}

func (s *appService) AutoApproveOldGRNs(ctx context.Context) (*SweepResult, error) {
	approved, err := s.grn.AutoApproveOldGRNs(ctx)
	if err != nil {
		return nil, err
	}
	return &SweepResult{Processed: approved}, nil
}

func (s *appService) AutoApproveOldCOs(ctx context.Context) (*SweepResult, error) {
	approved, err := s.orders.AutoApproveOldCOs(ctx)
	if err != nil {
		return nil, err
	}
	return &SweepResult{Processed: approved}, nil
}

func (s *appService) EligibleOrdersForGRN(ctx context.Context) ([]core.ReceivableOrder, error) {
	return s.grn.EligibleOrdersForGRN(ctx)
}

func (s *appService) AvailableItems(ctx context.Context) ([]core.CatalogItem, error) {
	return s.orders.AvailableItems(ctx)
}
