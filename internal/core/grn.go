package core

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"orderdesk/internal/tablestore"
)

// ReceivableOrder is one entry of the order picker on the receipt form.
type ReceivableOrder struct {
	OrderNumber string
	Outlet      string
	Brand       string
	Status      string
}

// GRNService records and approves goods receipts against tracked orders.
// Creating a receipt never moves fulfillment; only approval does, which
// keeps the fulfillment total a pure function of approved receipts.
type GRNService struct {
	store  tablestore.Store
	orders *OrderLifecycleManager
	cfg    Config
	log    zerolog.Logger

	Now func() time.Time
}

func NewGRNService(store tablestore.Store, orders *OrderLifecycleManager, cfg Config, log zerolog.Logger) *GRNService {
	return &GRNService{
		store:  store,
		orders: orders,
		cfg:    cfg,
		log:    log.With().Str("component", "grn").Logger(),
		Now:    time.Now,
	}
}

// CreateGRN records a goods receipt against an order. Receipts against a
// closed order reopen it as Late Fulfillment first; the first receipt
// against a Sent order moves it to Partially Received. The receipt starts
// unapproved.
func (s *GRNService) CreateGRN(ctx context.Context, orderNumber, invoiceNumber string, amount decimal.Decimal, date time.Time, notes string) (GoodsReceipt, error) {
	if orderNumber == "" {
		return GoodsReceipt{}, validationErrf("orderNumber", "required")
	}
	if !amount.IsPositive() {
		return GoodsReceipt{}, validationErrf("amount", "must be positive")
	}

	order, h, rowIdx, err := s.orders.findTrackedOrder(ctx, orderNumber)
	if err != nil {
		return GoodsReceipt{}, err
	}
	if !receivable(order.Status) {
		return GoodsReceipt{}, validationErrf("order", "cannot create GRN for order %s with status %q", orderNumber, order.Status)
	}
	if isClosed(order.Status) {
		if err := s.orders.markLateFulfillment(ctx, orderNumber); err != nil {
			return GoodsReceipt{}, err
		}
		order.Status = StatusLateFulfillment
	}

	if err := s.store.EnsureTable(ctx, TableGRNTracking, grnTrackingHeader); err != nil {
		return GoodsReceipt{}, fmt.Errorf("ensure receipts: %w", err)
	}
	grnNumber, err := s.nextGRNNumber(ctx, orderNumber)
	if err != nil {
		return GoodsReceipt{}, err
	}

	if date.IsZero() {
		date = s.Now()
	}
	receipt := GoodsReceipt{
		Number:        grnNumber,
		OrderNumber:   orderNumber,
		Outlet:        order.Outlet,
		Brand:         order.Brand,
		InvoiceNumber: invoiceNumber,
		Date:          date,
		Amount:        amount,
		Notes:         notes,
	}
	if err := s.store.AppendRow(ctx, TableGRNTracking, receipt.row()); err != nil {
		return GoodsReceipt{}, fmt.Errorf("append receipt: %w", err)
	}

	if order.Status == StatusSent {
		if err := s.orders.setTrackingCell(ctx, h, rowIdx, "Status", StatusPartiallyReceived); err != nil {
			return GoodsReceipt{}, err
		}
	}
	s.log.Info().Str("grn", grnNumber).Str("order", orderNumber).Str("amount", amount.String()).Msg("receipt recorded")
	return receipt, nil
}

// nextGRNNumber builds GRN-<order>-NNN from the highest existing sequence
// for that order, so deleting a mid-sequence receipt cannot cause a number
// collision.
func (s *GRNService) nextGRNNumber(ctx context.Context, orderNumber string) (string, error) {
	rows, err := s.store.GetAllRows(ctx, TableGRNTracking)
	if err != nil {
		return "", fmt.Errorf("read receipts: %w", err)
	}
	prefix := fmt.Sprintf("GRN-%s-", orderNumber)
	maxSeq := 0
	if len(rows) > 0 {
		h := tablestore.HeaderOf(rows[0])
		for _, row := range rows[1:] {
			number := h.Cell(row, "GRNNumber")
			if !strings.HasPrefix(number, prefix) {
				continue
			}
			if seq, err := strconv.Atoi(number[len(prefix):]); err == nil && seq > maxSeq {
				maxSeq = seq
			}
		}
	}
	return fmt.Sprintf("%s%03d", prefix, maxSeq+1), nil
}

// ApproveGRN approves a receipt and recomputes the order's fulfillment.
// Approving an already approved receipt is a no-op.
func (s *GRNService) ApproveGRN(ctx context.Context, grnNumber, approvalType string) error {
	rows, err := s.store.GetAllRows(ctx, TableGRNTracking)
	if err != nil {
		return fmt.Errorf("read receipts: %w", err)
	}
	if len(rows) == 0 {
		return notFound("receipt", grnNumber)
	}
	h := tablestore.HeaderOf(rows[0])
	for i, row := range rows[1:] {
		receipt := parseGoodsReceipt(h, row)
		if receipt.Number != grnNumber {
			continue
		}
		if receipt.Approved {
			return nil
		}
		if approvalType == "" {
			approvalType = ApprovalManual
		}
		if err := s.approveRow(ctx, h, i+1, approvalType); err != nil {
			return err
		}
		s.log.Info().Str("grn", grnNumber).Str("type", approvalType).Msg("receipt approved")
		return s.orders.UpdateOrderFulfillment(ctx, receipt.OrderNumber)
	}
	return notFound("receipt", grnNumber)
}

func (s *GRNService) approveRow(ctx context.Context, h tablestore.Header, rowIdx int, approvalType string) error {
	if err := s.store.UpdateCell(ctx, TableGRNTracking, rowIdx, h.Index("Approved"), "true"); err != nil {
		return err
	}
	if err := s.store.UpdateCell(ctx, TableGRNTracking, rowIdx, h.Index("ApprovalType"), approvalType); err != nil {
		return err
	}
	return s.store.UpdateCell(ctx, TableGRNTracking, rowIdx, h.Index("DateApproved"), formatTime(s.Now()))
}

// AutoApproveOldGRNs approves every receipt older than the auto-approve
// window and refreshes fulfillment for the affected orders. Returns the
// number approved.
func (s *GRNService) AutoApproveOldGRNs(ctx context.Context) (int, error) {
	rows, err := s.store.GetAllRows(ctx, TableGRNTracking)
	if err != nil {
		return 0, fmt.Errorf("read receipts: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	h := tablestore.HeaderOf(rows[0])
	cutoff := s.Now().Add(-s.cfg.AutoApproveAfter)
	approved := 0
	touched := map[string]bool{}
	for i, row := range rows[1:] {
		receipt := parseGoodsReceipt(h, row)
		if receipt.Approved || receipt.Date.IsZero() || !receipt.Date.Before(cutoff) {
			continue
		}
		if err := s.approveRow(ctx, h, i+1, ApprovalAuto); err != nil {
			return approved, err
		}
		approved++
		touched[receipt.OrderNumber] = true
		s.log.Info().Str("grn", receipt.Number).Msg("receipt auto-approved")
	}

	orders := make([]string, 0, len(touched))
	for orderNumber := range touched {
		orders = append(orders, orderNumber)
	}
	sort.Strings(orders)
	for _, orderNumber := range orders {
		if err := s.orders.UpdateOrderFulfillment(ctx, orderNumber); err != nil {
			s.log.Warn().Err(err).Str("order", orderNumber).Msg("fulfillment refresh failed")
		}
	}
	return approved, nil
}

// EligibleOrdersForGRN lists the orders a receipt may be recorded against,
// latest order number first.
func (s *GRNService) EligibleOrdersForGRN(ctx context.Context) ([]ReceivableOrder, error) {
	rows, err := s.store.GetAllRows(ctx, TableOrderTracking)
	if err != nil {
		return nil, fmt.Errorf("read tracking: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	h := tablestore.HeaderOf(rows[0])
	var eligible []ReceivableOrder
	for _, row := range rows[1:] {
		order := parseTrackedOrder(h, row)
		switch order.Status {
		case StatusSent, StatusPartiallyReceived, StatusLateFulfillment:
			eligible = append(eligible, ReceivableOrder{
				OrderNumber: order.Number,
				Outlet:      order.Outlet,
				Brand:       order.Brand,
				Status:      order.Status,
			})
		}
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].OrderNumber > eligible[j].OrderNumber })
	return eligible, nil
}
