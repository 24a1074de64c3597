package core

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"orderdesk/internal/tablestore"
)

const newItemCode = "NEW_ITEM"

// CustomerOrderRequest carries the fields of a new customer order. ItemCode
// may be the NEW_ITEM sentinel for items not yet in the catalog.
type CustomerOrderRequest struct {
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

// CatalogItem is one entry of the item picker: the NEW_ITEM sentinel plus
// every classified SKU.
type CatalogItem struct {
	Code string
	Name string
}

// OrderLifecycleManager owns purchase and customer order state: creation
// from the classification table, approval, distributor sends, fulfillment
// tracking and the periodic close/approve sweeps.
//
// Order numbering uses persisted counters and assumes a single writer per
// deployment; concurrent senders are serialized per order number.
type OrderLifecycleManager struct {
	store  tablestore.Store
	rules  *BusinessRuleEngine
	mailer Mailer
	cfg    Config
	log    zerolog.Logger

	Now func() time.Time

	mu        sync.Mutex
	sendLocks map[string]*sync.Mutex
}

func NewOrderLifecycleManager(store tablestore.Store, rules *BusinessRuleEngine, mailer Mailer, cfg Config, log zerolog.Logger) *OrderLifecycleManager {
	return &OrderLifecycleManager{
		store:     store,
		rules:     rules,
		mailer:    mailer,
		cfg:       cfg,
		log:       log.With().Str("component", "orders").Logger(),
		Now:       time.Now,
		sendLocks: map[string]*sync.Mutex{},
	}
}

func (m *OrderLifecycleManager) sendLock(orderNumber string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock := m.sendLocks[orderNumber]
	if lock == nil {
		lock = &sync.Mutex{}
		m.sendLocks[orderNumber] = lock
	}
	return lock
}

// ── Numbering ─────────────────────────────────────────────────────────

// nextCounter bumps the persisted counter for scope and returns the new
// value. Counters survive restarts, so numbers never repeat even after
// tracked rows are deleted.
func (m *OrderLifecycleManager) nextCounter(ctx context.Context, scope string, seed int) (int, error) {
	if err := m.store.EnsureTable(ctx, TableCounters, countersHeader); err != nil {
		return 0, fmt.Errorf("ensure counters: %w", err)
	}
	rows, err := m.store.GetAllRows(ctx, TableCounters)
	if err != nil {
		return 0, fmt.Errorf("read counters: %w", err)
	}
	h := tablestore.HeaderOf(rows[0])
	for i, row := range rows[1:] {
		if h.Cell(row, "Scope") != scope {
			continue
		}
		next := int(parseFloat(h.Cell(row, "LastValue"))) + 1
		if err := m.store.UpdateCell(ctx, TableCounters, i+1, h.Index("LastValue"), strconv.Itoa(next)); err != nil {
			return 0, fmt.Errorf("bump counter %s: %w", scope, err)
		}
		return next, nil
	}
	next := seed + 1
	if err := m.store.AppendRow(ctx, TableCounters, []string{scope, strconv.Itoa(next)}); err != nil {
		return 0, fmt.Errorf("seed counter %s: %w", scope, err)
	}
	return next, nil
}

// NextPONumber returns the next sequential purchase order number.
func (m *OrderLifecycleManager) NextPONumber(ctx context.Context) (string, error) {
	n, err := m.nextCounter(ctx, "PO", m.cfg.OrderCounterSeed)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(n), nil
}

func (m *OrderLifecycleManager) outletCode(outlet string) string {
	if code, ok := m.cfg.OutletCodes[normalizeSpaces(outlet)]; ok {
		return code
	}
	return "UNK"
}

func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ── Distributor lookups ───────────────────────────────────────────────

// LookupDistributor resolves the distributor serving a brand at an outlet
// from the matrix table (brands down the first column, outlets across the
// header). Empty result means no distributor is mapped.
func (m *OrderLifecycleManager) LookupDistributor(ctx context.Context, brand, outlet string) (string, error) {
	rows, err := m.store.GetAllRows(ctx, TableDistributorMatrix)
	if err != nil {
		return "", fmt.Errorf("read distributor matrix: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	col := tablestore.HeaderOf(rows[0]).Index(outlet)
	if col < 0 {
		return "", nil
	}
	for _, row := range rows[1:] {
		if len(row) > col && row[0] == brand {
			return strings.TrimSpace(row[col]), nil
		}
	}
	return "", nil
}

// LookupDistributorEmail resolves a distributor's email from the vendor
// details table, matching the name case-insensitively.
func (m *OrderLifecycleManager) LookupDistributorEmail(ctx context.Context, distributor string) (string, error) {
	if distributor == "" {
		return "", nil
	}
	rows, err := m.store.GetAllRows(ctx, TableVendorDetails)
	if err != nil {
		return "", fmt.Errorf("read vendor details: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	h := tablestore.HeaderOf(rows[0])
	for _, row := range rows[1:] {
		if strings.EqualFold(strings.TrimSpace(h.Cell(row, "DISTRIBUTOR NAME")), distributor) {
			return strings.TrimSpace(h.Cell(row, "EMAIL ID")), nil
		}
	}
	return "", nil
}

// ── Purchase order creation ───────────────────────────────────────────

// CreatePO creates a purchase (or customer-type) order. When lines is nil
// the line items are generated from the classification table for the given
// outlet and brand, with business rules applied per line. The tracking row
// starts Pending and unapproved.
func (m *OrderLifecycleManager) CreatePO(ctx context.Context, outlet, brand, poNumber, orderType string, lines []OrderLineItem) error {
	outlet = normalizeSpaces(outlet)
	if outlet == "" || brand == "" || poNumber == "" {
		return validationErrf("order", "outlet, brand and order number are required")
	}
	if orderType != OrderTypeCO {
		orderType = OrderTypePO
	}
	now := m.Now()
	poName := fmt.Sprintf("%s-%s-%s-%s", orderType, m.outletCode(outlet), brand, now.Format("060102"))

	distributor, err := m.LookupDistributor(ctx, brand, outlet)
	if err != nil {
		return err
	}
	distributorEmail, err := m.LookupDistributorEmail(ctx, distributor)
	if err != nil {
		return err
	}

	if lines == nil {
		lines, err = m.linesFromClassification(ctx, outlet, brand, poNumber, poName, orderType, distributor, now)
		if err != nil {
			return err
		}
	}
	if len(lines) == 0 {
		return validationErrf("order", "no line items for %s / %s", outlet, brand)
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].OrderQty < lines[j].OrderQty })

	amount := decimal.Zero
	if err := m.store.EnsureTable(ctx, TableOrderLineItems, orderLineItemsHeader); err != nil {
		return fmt.Errorf("ensure line items: %w", err)
	}
	for _, li := range lines {
		amount = amount.Add(decimal.NewFromFloat(li.AvgCost).Mul(decimal.NewFromInt(int64(li.OrderQty))))
		if err := m.store.AppendRow(ctx, TableOrderLineItems, li.row()); err != nil {
			return fmt.Errorf("append line item: %w", err)
		}
	}

	order := TrackedOrder{
		Number:           poNumber,
		Type:             orderType,
		Name:             poName,
		Outlet:           outlet,
		Brand:            brand,
		Amount:           amount,
		Status:           StatusPending,
		EmailSent:        "false",
		DateCreated:      now,
		DistributorName:  distributor,
		DistributorEmail: distributorEmail,
	}
	if err := m.upsertTrackedOrder(ctx, order); err != nil {
		return err
	}
	m.log.Info().Str("order", poNumber).Str("name", poName).Int("lines", len(lines)).
		Str("amount", amount.String()).Msg("order created")
	return nil
}

func (m *OrderLifecycleManager) linesFromClassification(ctx context.Context, outlet, brand, poNumber, poName, orderType, distributor string, now time.Time) ([]OrderLineItem, error) {
	rows, err := m.store.GetAllRows(ctx, TableSKUClassification)
	if err != nil {
		return nil, fmt.Errorf("read classification: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	h := tablestore.HeaderOf(rows[0])

	ruleSet, err := m.rules.Load(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("rule table unavailable, using standard quantities")
		ruleSet = nil
	}

	var lines []OrderLineItem
	for _, row := range rows[1:] {
		cls := parseClassification(h, row)
		if normalizeSpaces(cls.Outlet) != outlet || cls.Brand != brand {
			continue
		}
		qty := cls.FinalOrderQty
		justification := cls.Justification
		decision := m.rules.ApplyRules(ruleSet, RuleItem{
			SKU:          cls.SKU,
			Vendor:       distributor,
			Brand:        cls.Brand,
			ItemName:     cls.ItemName,
			Outlet:       outlet,
			CurrentStock: cls.CurrentStock,
		}, qty)
		if decision.Justification != "" {
			qty = decision.Quantity
			justification = decision.Justification
		}
		lines = append(lines, OrderLineItem{
			LineItemID:    fmt.Sprintf("%s-L%03d", poNumber, len(lines)+1),
			OrderNumber:   poNumber,
			OrderType:     orderType,
			OrderName:     poName,
			Outlet:        outlet,
			Brand:         brand,
			SKU:           cls.SKU,
			ItemName:      cls.ItemName,
			AvgCost:       cls.AvgCost,
			OrderQty:      qty,
			Date:          now,
			CurrentStock:  cls.CurrentStock,
			Justification: justification,
		})
	}
	return lines, nil
}

// upsertTrackedOrder writes the tracking row, replacing an existing row for
// the same order number but preserving its status and creation date.
func (m *OrderLifecycleManager) upsertTrackedOrder(ctx context.Context, order TrackedOrder) error {
	if err := m.store.EnsureTable(ctx, TableOrderTracking, orderTrackingHeader); err != nil {
		return fmt.Errorf("ensure tracking: %w", err)
	}
	rows, err := m.store.GetAllRows(ctx, TableOrderTracking)
	if err != nil {
		return fmt.Errorf("read tracking: %w", err)
	}
	h := tablestore.HeaderOf(rows[0])
	for i, row := range rows[1:] {
		if h.Cell(row, "PONumber") != order.Number {
			continue
		}
		existing := parseTrackedOrder(h, row)
		if existing.Status != "" {
			order.Status = existing.Status
		}
		if !existing.DateCreated.IsZero() {
			order.DateCreated = existing.DateCreated
		}
		return m.store.UpdateRow(ctx, TableOrderTracking, i+1, order.row())
	}
	return m.store.AppendRow(ctx, TableOrderTracking, order.row())
}

// findTrackedOrder returns the order and its row index (0-based including
// the header row) or an ErrNotFound.
func (m *OrderLifecycleManager) findTrackedOrder(ctx context.Context, orderNumber string) (TrackedOrder, tablestore.Header, int, error) {
	rows, err := m.store.GetAllRows(ctx, TableOrderTracking)
	if err != nil {
		return TrackedOrder{}, nil, 0, fmt.Errorf("read tracking: %w", err)
	}
	if len(rows) == 0 {
		return TrackedOrder{}, nil, 0, notFound("order", orderNumber)
	}
	h := tablestore.HeaderOf(rows[0])
	for i, row := range rows[1:] {
		if h.Cell(row, "PONumber") == orderNumber {
			return parseTrackedOrder(h, row), h, i + 1, nil
		}
	}
	return TrackedOrder{}, nil, 0, notFound("order", orderNumber)
}

func (m *OrderLifecycleManager) setTrackingCell(ctx context.Context, h tablestore.Header, rowIdx int, column, value string) error {
	col := h.Index(column)
	if col < 0 {
		return fmt.Errorf("tracking column %q missing", column)
	}
	return m.store.UpdateCell(ctx, TableOrderTracking, rowIdx, col, value)
}

// ── Approval and sending ──────────────────────────────────────────────

// ApprovePO marks a purchase order approved. Sending remains a separate
// step so the buying team can batch approvals first.
func (m *OrderLifecycleManager) ApprovePO(ctx context.Context, orderNumber, approvalType string) error {
	order, h, rowIdx, err := m.findTrackedOrder(ctx, orderNumber)
	if err != nil {
		return err
	}
	if order.Approved {
		return nil
	}
	if approvalType == "" {
		approvalType = ApprovalManual
	}
	now := m.Now()
	if err := m.setTrackingCell(ctx, h, rowIdx, "Approved", "true"); err != nil {
		return err
	}
	if err := m.setTrackingCell(ctx, h, rowIdx, "ApprovalType", approvalType); err != nil {
		return err
	}
	if err := m.setTrackingCell(ctx, h, rowIdx, "DateApproved", formatTime(now)); err != nil {
		return err
	}
	m.log.Info().Str("order", orderNumber).Str("type", approvalType).Msg("order approved")
	return nil
}

// SendPO emails one approved, unsent order to its distributor. A delivery
// failure is written into the EmailSent cell so the tracking table shows
// what went wrong; the send stays retryable.
func (m *OrderLifecycleManager) SendPO(ctx context.Context, orderNumber string) error {
	lock := m.sendLock(orderNumber)
	lock.Lock()
	defer lock.Unlock()

	order, h, rowIdx, err := m.findTrackedOrder(ctx, orderNumber)
	if err != nil {
		return err
	}
	if !order.Approved {
		return validationErrf("order", "%s is not approved", orderNumber)
	}
	if order.EmailSent == "true" {
		return validationErrf("order", "%s was already sent", orderNumber)
	}
	if order.DistributorEmail == "" {
		return validationErrf("order", "%s has no distributor email", orderNumber)
	}

	mail := Mail{
		To:      []string{order.DistributorEmail},
		Subject: fmt.Sprintf("Purchase Order %s | %s | %s", order.Name, order.Brand, order.Outlet),
		Body: fmt.Sprintf("Dear %s,\n\nPlease find the purchase order for %s at %s.\nOrder number: %s, amount: %s.\n",
			order.DistributorName, order.Brand, order.Outlet, order.Number, order.Amount.String()),
	}
	if err := m.mailer.Send(ctx, mail); err != nil {
		if cellErr := m.setTrackingCell(ctx, h, rowIdx, "EmailSent", err.Error()); cellErr != nil {
			return cellErr
		}
		return fmt.Errorf("send order %s: %w", orderNumber, err)
	}

	if err := m.setTrackingCell(ctx, h, rowIdx, "EmailSent", "true"); err != nil {
		return err
	}
	if err := m.setTrackingCell(ctx, h, rowIdx, "Status", StatusSent); err != nil {
		return err
	}
	m.log.Info().Str("order", orderNumber).Str("to", order.DistributorEmail).Msg("order sent")
	return nil
}

// SendApprovedPOs sends every approved, unsent order and returns how many
// went out. Individual failures are logged and skipped.
func (m *OrderLifecycleManager) SendApprovedPOs(ctx context.Context) (sent int, err error) {
	rows, err := m.store.GetAllRows(ctx, TableOrderTracking)
	if err != nil {
		return 0, fmt.Errorf("read tracking: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	h := tablestore.HeaderOf(rows[0])
	for _, row := range rows[1:] {
		order := parseTrackedOrder(h, row)
		if !order.Approved || order.EmailSent == "true" {
			continue
		}
		if sendErr := m.SendPO(ctx, order.Number); sendErr != nil {
			m.log.Warn().Err(sendErr).Str("order", order.Number).Msg("send failed")
			continue
		}
		sent++
	}
	m.log.Info().Int("sent", sent).Msg("approved orders dispatched")
	return sent, nil
}

// RefreshPOValues recomputes the tracked amount of every unapproved, unsent
// order from its current line items, picking up line edits made after
// creation. Returns the number of orders updated.
func (m *OrderLifecycleManager) RefreshPOValues(ctx context.Context) (int, error) {
	lineRows, err := m.store.GetAllRows(ctx, TableOrderLineItems)
	if err != nil {
		return 0, fmt.Errorf("read line items: %w", err)
	}
	totals := map[string]decimal.Decimal{}
	if len(lineRows) > 0 {
		lh := tablestore.HeaderOf(lineRows[0])
		for _, row := range lineRows[1:] {
			li := parseLineItem(lh, row)
			totals[li.OrderNumber] = totals[li.OrderNumber].
				Add(decimal.NewFromFloat(li.AvgCost).Mul(decimal.NewFromInt(int64(li.OrderQty))))
		}
	}

	rows, err := m.store.GetAllRows(ctx, TableOrderTracking)
	if err != nil {
		return 0, fmt.Errorf("read tracking: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	h := tablestore.HeaderOf(rows[0])
	updated := 0
	for i, row := range rows[1:] {
		order := parseTrackedOrder(h, row)
		if order.Approved || order.EmailSent == "true" || order.Number == "" {
			continue
		}
		total, ok := totals[order.Number]
		if !ok || total.Equal(order.Amount) {
			continue
		}
		if err := m.setTrackingCell(ctx, h, i+1, "POAmount", total.String()); err != nil {
			return updated, err
		}
		updated++
	}
	m.log.Info().Int("updated", updated).Msg("order values refreshed")
	return updated, nil
}

// GeneratePOsFromBatch creates an order for every batch row not yet marked
// DONE, writing the assigned number and DONE back so the batch can be rerun
// safely. Stops at the first row with neither outlet nor brand.
func (m *OrderLifecycleManager) GeneratePOsFromBatch(ctx context.Context) (int, error) {
	rows, err := m.store.GetAllRows(ctx, TableOrderBatch)
	if err != nil {
		return 0, fmt.Errorf("read batch: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	h := tablestore.HeaderOf(rows[0])
	created := 0
	for i, row := range rows[1:] {
		if strings.EqualFold(strings.TrimSpace(h.Cell(row, "Status")), "DONE") {
			continue
		}
		outlet := normalizeSpaces(h.Cell(row, "Outlet"))
		brand := strings.TrimSpace(h.Cell(row, "Brand"))
		if outlet == "" && brand == "" {
			break
		}

		poNumber := strings.TrimSpace(h.Cell(row, "PONumber"))
		if poNumber == "" {
			poNumber, err = m.NextPONumber(ctx)
			if err != nil {
				return created, err
			}
		}
		if err := m.CreatePO(ctx, outlet, brand, poNumber, OrderTypePO, nil); err != nil {
			m.log.Warn().Err(err).Str("outlet", outlet).Str("brand", brand).Msg("batch row skipped")
			continue
		}
		if err := m.store.UpdateCell(ctx, TableOrderBatch, i+1, h.Index("PONumber"), poNumber); err != nil {
			return created, err
		}
		if err := m.store.UpdateCell(ctx, TableOrderBatch, i+1, h.Index("Status"), "DONE"); err != nil {
			return created, err
		}
		created++
	}
	m.log.Info().Int("created", created).Msg("batch order generation finished")
	return created, nil
}

// ── Fulfillment and closing ───────────────────────────────────────────

// UpdateOrderFulfillment recomputes the approved-receipt total for an order
// and flips a fully received order to Closed - Complete. The result does not
// depend on the sequence receipts were approved in.
func (m *OrderLifecycleManager) UpdateOrderFulfillment(ctx context.Context, orderNumber string) error {
	grnRows, err := m.store.GetAllRows(ctx, TableGRNTracking)
	if err != nil {
		return fmt.Errorf("read receipts: %w", err)
	}
	total := decimal.Zero
	if len(grnRows) > 0 {
		gh := tablestore.HeaderOf(grnRows[0])
		for _, row := range grnRows[1:] {
			g := parseGoodsReceipt(gh, row)
			if g.OrderNumber == orderNumber && g.Approved {
				total = total.Add(g.Amount)
			}
		}
	}

	order, h, rowIdx, err := m.findTrackedOrder(ctx, orderNumber)
	if err != nil {
		return err
	}
	pct := 0.0
	if order.Amount.IsPositive() {
		f, _ := total.Div(order.Amount).Float64()
		pct = f
	}
	if err := m.setTrackingCell(ctx, h, rowIdx, "FulfillmentAmount", total.String()); err != nil {
		return err
	}
	if err := m.setTrackingCell(ctx, h, rowIdx, "FulfillmentPercentage", formatFloat(pct)); err != nil {
		return err
	}
	if order.Status == StatusPartiallyReceived && pct >= 1 {
		if err := m.setTrackingCell(ctx, h, rowIdx, "Status", StatusClosedComplete); err != nil {
			return err
		}
		m.log.Info().Str("order", orderNumber).Msg("order fully received, closed")
	}
	return nil
}

// CloseOldOrders closes every sent order past the auto-close window, picking
// the closed variant from the recorded fulfillment percentage. Returns the
// number of orders closed.
func (m *OrderLifecycleManager) CloseOldOrders(ctx context.Context) (int, error) {
	rows, err := m.store.GetAllRows(ctx, TableOrderTracking)
	if err != nil {
		return 0, fmt.Errorf("read tracking: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	h := tablestore.HeaderOf(rows[0])
	cutoff := m.Now().Add(-m.cfg.AutoCloseAfter)
	closed := 0
	for i, row := range rows[1:] {
		order := parseTrackedOrder(h, row)
		if order.EmailSent != "true" || order.DateCreated.IsZero() || !order.DateCreated.Before(cutoff) {
			continue
		}
		if order.Status != StatusSent && order.Status != StatusPartiallyReceived {
			continue
		}

		newStatus := StatusClosedNoReceipt
		switch {
		case order.FulfillmentPct >= 1:
			newStatus = StatusClosedComplete
		case order.FulfillmentPct > 0:
			newStatus = StatusClosedPartial
		}
		if err := m.setTrackingCell(ctx, h, i+1, "Status", newStatus); err != nil {
			return closed, err
		}
		closed++
		m.log.Info().Str("order", order.Number).Str("status", newStatus).Msg("order auto-closed")
	}
	return closed, nil
}

// markLateFulfillment reopens a closed order for a late receipt.
func (m *OrderLifecycleManager) markLateFulfillment(ctx context.Context, orderNumber string) error {
	order, h, rowIdx, err := m.findTrackedOrder(ctx, orderNumber)
	if err != nil {
		return err
	}
	if !isClosed(order.Status) {
		return nil
	}
	if err := m.setTrackingCell(ctx, h, rowIdx, "Status", StatusLateFulfillment); err != nil {
		return err
	}
	m.log.Info().Str("order", orderNumber).Msg("closed order reopened as late fulfillment")
	return nil
}

// ── Customer orders ───────────────────────────────────────────────────

// CreateCustomerOrder records a customer order, maintaining the customer
// master as a side effect. Orders with known items below the auto-approval
// value limit are approved and dispatched in the same call; NEW_ITEM orders
// always wait for manual approval, whatever their value.
func (m *OrderLifecycleManager) CreateCustomerOrder(ctx context.Context, req CustomerOrderRequest) (CustomerOrder, error) {
	req.Outlet = normalizeSpaces(req.Outlet)
	switch {
	case req.Outlet == "":
		return CustomerOrder{}, validationErrf("outletName", "required")
	case req.Brand == "":
		return CustomerOrder{}, validationErrf("brand", "required")
	case req.CustomerName == "":
		return CustomerOrder{}, validationErrf("customerName", "required")
	case req.ItemCode == "":
		return CustomerOrder{}, validationErrf("itemCode", "required")
	case req.Quantity <= 0:
		return CustomerOrder{}, validationErrf("quantity", "must be positive")
	}

	now := m.Now()
	scope := fmt.Sprintf("CO-%s-%s", m.outletCode(req.Outlet), now.Format("20060102"))
	seq, err := m.nextCounter(ctx, scope, 0)
	if err != nil {
		return CustomerOrder{}, err
	}
	coNumber := fmt.Sprintf("%s-%03d", scope, seq)

	item, err := m.resolveItem(ctx, req.ItemCode, req.ItemName)
	if err != nil {
		return CustomerOrder{}, err
	}
	if _, err := m.upsertCustomer(ctx, req, now); err != nil {
		return CustomerOrder{}, err
	}

	distributor, err := m.LookupDistributor(ctx, req.Brand, req.Outlet)
	if err != nil {
		return CustomerOrder{}, err
	}
	distributorEmail, err := m.LookupDistributorEmail(ctx, distributor)
	if err != nil {
		return CustomerOrder{}, err
	}

	order := CustomerOrder{
		Number:           coNumber,
		Outlet:           req.Outlet,
		Brand:            req.Brand,
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		CustomerPhone:    req.CustomerPhone,
		CustomerPIC:      req.CustomerPIC,
		ItemCode:         req.ItemCode,
		ItemName:         item.name,
		Quantity:         req.Quantity,
		Value:            decimal.NewFromFloat(item.avgCost).Mul(decimal.NewFromInt(int64(req.Quantity))),
		Status:           StatusPending,
		DateCreated:      now,
		Notes:            req.Notes,
		DistributorName:  distributor,
		DistributorEmail: distributorEmail,
	}
	if err := m.store.EnsureTable(ctx, TableCustomerOrders, customerOrdersHeader); err != nil {
		return CustomerOrder{}, fmt.Errorf("ensure customer orders: %w", err)
	}
	if err := m.store.AppendRow(ctx, TableCustomerOrders, order.row()); err != nil {
		return CustomerOrder{}, fmt.Errorf("append customer order: %w", err)
	}
	m.log.Info().Str("co", coNumber).Str("value", order.Value.String()).Bool("newItem", item.isNew).Msg("customer order created")

	if !item.isNew && order.Value.LessThan(m.cfg.COAutoApproveLimit) {
		if err := m.ApproveCustomerOrder(ctx, coNumber, ApprovalAuto, ""); err != nil {
			return order, err
		}
		order.Status = StatusApproved
		order.Approved = true
		order.ApprovalType = ApprovalAuto
		order.DateApproved = m.Now()
	}
	return order, nil
}

type resolvedItem struct {
	name    string
	avgCost float64
	isNew   bool
}

// resolveItem validates an item code against the classification table, with
// the item master as fallback for SKUs not classified yet.
func (m *OrderLifecycleManager) resolveItem(ctx context.Context, itemCode, itemName string) (resolvedItem, error) {
	if itemCode == newItemCode {
		if itemName == "" {
			itemName = "New Item"
		}
		return resolvedItem{name: itemName, isNew: true}, nil
	}

	rows, err := m.store.GetAllRows(ctx, TableSKUClassification)
	if err == nil && len(rows) > 0 {
		h := tablestore.HeaderOf(rows[0])
		for _, row := range rows[1:] {
			if h.Cell(row, "SKU") == itemCode {
				return resolvedItem{
					name:    h.Cell(row, "ItemName"),
					avgCost: parseFloat(h.Cell(row, "AvgCost")),
				}, nil
			}
		}
	}

	// Item master rows are positional: brand, item name, sku, cost price.
	masterRows, err := m.store.GetAllRows(ctx, TableItemMaster)
	if err == nil && len(masterRows) > 0 {
		for _, row := range masterRows[1:] {
			if len(row) >= 4 && row[2] == itemCode {
				return resolvedItem{name: row[1], avgCost: parseFloat(row[3])}, nil
			}
		}
	}
	return resolvedItem{}, validationErrf("itemCode", "%q not found in catalog", itemCode)
}

// upsertCustomer finds a customer by email or phone and bumps the order
// stats, or registers a new one.
func (m *OrderLifecycleManager) upsertCustomer(ctx context.Context, req CustomerOrderRequest, now time.Time) (string, error) {
	if err := m.store.EnsureTable(ctx, TableCustomerMaster, customerMasterHeader); err != nil {
		return "", fmt.Errorf("ensure customer master: %w", err)
	}
	rows, err := m.store.GetAllRows(ctx, TableCustomerMaster)
	if err != nil {
		return "", fmt.Errorf("read customer master: %w", err)
	}
	h := tablestore.HeaderOf(rows[0])
	for i, row := range rows[1:] {
		email := h.Cell(row, "CustomerEmail")
		phone := h.Cell(row, "CustomerPhone")
		if (req.CustomerEmail == "" || email != req.CustomerEmail) &&
			(req.CustomerPhone == "" || phone != req.CustomerPhone) {
			continue
		}
		total := int(parseFloat(h.Cell(row, "TotalOrders"))) + 1
		if err := m.store.UpdateCell(ctx, TableCustomerMaster, i+1, h.Index("TotalOrders"), strconv.Itoa(total)); err != nil {
			return "", err
		}
		if err := m.store.UpdateCell(ctx, TableCustomerMaster, i+1, h.Index("LastOrderDate"), now.Format(dateOnly)); err != nil {
			return "", err
		}
		return h.Cell(row, "CustomerID"), nil
	}

	customer := Customer{
		ID:             fmt.Sprintf("CUST%08d", now.UnixMilli()%100000000),
		Name:           req.CustomerName,
		Email:          req.CustomerEmail,
		Phone:          req.CustomerPhone,
		PIC:            req.CustomerPIC,
		Outlet:         req.Outlet,
		DateFirstOrder: now,
		TotalOrders:    1,
		LastOrderDate:  now,
	}
	if err := m.store.AppendRow(ctx, TableCustomerMaster, customer.row()); err != nil {
		return "", fmt.Errorf("append customer: %w", err)
	}
	return customer.ID, nil
}

// findCustomerOrder returns the order and its row index or an ErrNotFound.
func (m *OrderLifecycleManager) findCustomerOrder(ctx context.Context, coNumber string) (CustomerOrder, tablestore.Header, int, error) {
	rows, err := m.store.GetAllRows(ctx, TableCustomerOrders)
	if err != nil {
		return CustomerOrder{}, nil, 0, fmt.Errorf("read customer orders: %w", err)
	}
	if len(rows) == 0 {
		return CustomerOrder{}, nil, 0, notFound("customer order", coNumber)
	}
	h := tablestore.HeaderOf(rows[0])
	for i, row := range rows[1:] {
		if h.Cell(row, "CONumber") == coNumber {
			return parseCustomerOrder(h, row), h, i + 1, nil
		}
	}
	return CustomerOrder{}, nil, 0, notFound("customer order", coNumber)
}

func (m *OrderLifecycleManager) setCustomerOrderCell(ctx context.Context, h tablestore.Header, rowIdx int, column, value string) error {
	col := h.Index(column)
	if col < 0 {
		return fmt.Errorf("customer order column %q missing", column)
	}
	return m.store.UpdateCell(ctx, TableCustomerOrders, rowIdx, col, value)
}

// ApproveCustomerOrder approves a customer order and attempts the
// distributor send. Approving twice is a no-op; a failed send leaves the
// order approved but unsent so the sweep can retry.
func (m *OrderLifecycleManager) ApproveCustomerOrder(ctx context.Context, coNumber, approvalType, approvedBy string) error {
	order, h, rowIdx, err := m.findCustomerOrder(ctx, coNumber)
	if err != nil {
		return err
	}
	if order.Approved {
		return nil
	}
	if approvalType == "" {
		approvalType = ApprovalManual
	}
	now := m.Now()
	updates := []struct{ column, value string }{
		{"Approved", "true"},
		{"Status", StatusApproved},
		{"DateApproved", formatTime(now)},
		{"ApprovalType", approvalType},
		{"ApprovedBy", approvedBy},
	}
	for _, u := range updates {
		if err := m.setCustomerOrderCell(ctx, h, rowIdx, u.column, u.value); err != nil {
			return err
		}
	}
	m.log.Info().Str("co", coNumber).Str("type", approvalType).Msg("customer order approved")

	if err := m.sendCustomerOrder(ctx, h, rowIdx, order); err != nil {
		m.log.Warn().Err(err).Str("co", coNumber).Msg("customer order send failed")
	}
	return nil
}

func (m *OrderLifecycleManager) sendCustomerOrder(ctx context.Context, h tablestore.Header, rowIdx int, order CustomerOrder) error {
	if order.DistributorEmail == "" {
		return validationErrf("customer order", "%s has no distributor email", order.Number)
	}
	mail := Mail{
		To:      []string{order.DistributorEmail},
		Subject: fmt.Sprintf("Customer Order %s | %s | %s", order.Number, order.Brand, order.Outlet),
		Body: fmt.Sprintf("Dear %s,\n\nPlease find the customer order %s for %s at %s.\nCustomer: %s, item: %s, quantity: %d.\n",
			order.DistributorName, order.Number, order.Brand, order.Outlet,
			order.CustomerName, order.ItemName, order.Quantity),
	}
	if err := m.mailer.Send(ctx, mail); err != nil {
		return err
	}
	return m.setCustomerOrderCell(ctx, h, rowIdx, "Sent", "true")
}

// AutoApproveOldCOs approves every pending customer order older than the
// auto-approve window, regardless of value, and attempts the send. Returns
// the number approved.
func (m *OrderLifecycleManager) AutoApproveOldCOs(ctx context.Context) (int, error) {
	rows, err := m.store.GetAllRows(ctx, TableCustomerOrders)
	if err != nil {
		return 0, fmt.Errorf("read customer orders: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	h := tablestore.HeaderOf(rows[0])
	cutoff := m.Now().Add(-m.cfg.AutoApproveAfter)
	approved := 0
	for _, row := range rows[1:] {
		order := parseCustomerOrder(h, row)
		if order.Approved || order.Status != StatusPending {
			continue
		}
		if order.DateCreated.IsZero() || !order.DateCreated.Before(cutoff) {
			continue
		}
		if err := m.ApproveCustomerOrder(ctx, order.Number, ApprovalAuto, ""); err != nil {
			m.log.Warn().Err(err).Str("co", order.Number).Msg("auto-approval failed")
			continue
		}
		approved++
	}
	if approved > 0 {
		m.log.Info().Int("approved", approved).Msg("stale customer orders auto-approved")
	}
	return approved, nil
}

// AvailableItems returns the item picker options: the NEW_ITEM sentinel
// followed by every classified SKU, sorted by code.
func (m *OrderLifecycleManager) AvailableItems(ctx context.Context) ([]CatalogItem, error) {
	items := []CatalogItem{{Code: newItemCode, Name: "New Item (Not in catalog)"}}
	rows, err := m.store.GetAllRows(ctx, TableSKUClassification)
	if err != nil {
		return items, nil
	}
	if len(rows) == 0 {
		return items, nil
	}
	h := tablestore.HeaderOf(rows[0])
	var catalog []CatalogItem
	seen := map[string]bool{}
	for _, row := range rows[1:] {
		sku := h.Cell(row, "SKU")
		if sku == "" || seen[sku] {
			continue
		}
		seen[sku] = true
		catalog = append(catalog, CatalogItem{
			Code: sku,
			Name: fmt.Sprintf("%s - %s", sku, h.Cell(row, "ItemName")),
		})
	}
	sort.Slice(catalog, func(i, j int) bool { return catalog[i].Code < catalog[j].Code })
	return append(items, catalog...), nil
}
