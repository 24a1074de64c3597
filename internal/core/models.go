package core

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"orderdesk/internal/tablestore"
)

// Order statuses. The dash-with-spaces spelling is load-bearing: downstream
// reports match on these exact strings.
const (
	StatusPending           = "Pending"
	StatusApproved          = "Approved"
	StatusSent              = "Sent"
	StatusPartiallyReceived = "Partially Received"
	StatusClosedComplete    = "Closed - Complete"
	StatusClosedPartial     = "Closed - Partial"
	StatusClosedNoReceipt   = "Closed - No Receipt"
	StatusLateFulfillment   = "Late Fulfillment"
)

const (
	ApprovalAuto   = "Auto"
	ApprovalManual = "Manual"
)

const (
	OrderTypePO = "PO"
	OrderTypeCO = "CO"
)

const dateOnly = "2006-01-02"

// receivableStatuses are the purchase-order states a goods receipt may be
// recorded against. Closed orders are recoverable through Late Fulfillment.
func receivable(status string) bool {
	switch status {
	case StatusSent, StatusPartiallyReceived, StatusLateFulfillment,
		StatusClosedComplete, StatusClosedPartial, StatusClosedNoReceipt:
		return true
	}
	return false
}

func isClosed(status string) bool {
	switch status {
	case StatusClosedComplete, StatusClosedPartial, StatusClosedNoReceipt:
		return true
	}
	return false
}

// ── Sales history ─────────────────────────────────────────────────────

// SalesRecord is one sku×outlet sales-history row.
type SalesRecord struct {
	SKU             string
	ItemName        string
	Brand           string
	Outlet          string
	SoldQty         float64
	Revenue         float64
	GrossMargin     float64
	CostPrice       float64
	LastBillDate    time.Time
	FirstInwardDate time.Time
	CurrentStock    float64
}

func parseSalesRecord(h tablestore.Header, row []string) SalesRecord {
	return SalesRecord{
		SKU:             h.Cell(row, "SKU"),
		ItemName:        h.Cell(row, "ItemName"),
		Brand:           h.Cell(row, "Brand"),
		Outlet:          h.Cell(row, "OutletName"),
		SoldQty:         parseFloat(h.Cell(row, "SoldQty")),
		Revenue:         parseFloat(h.Cell(row, "Revenue")),
		GrossMargin:     parseFloat(h.Cell(row, "GrossMargin")),
		CostPrice:       parseFloat(h.Cell(row, "CostPrice")),
		LastBillDate:    parseDate(h.Cell(row, "LastBillDate")),
		FirstInwardDate: parseDate(h.Cell(row, "FirstInwardDate")),
		CurrentStock:    parseFloat(h.Cell(row, "CurrentStock")),
	}
}

// ── Classification output ─────────────────────────────────────────────

type SkuClassification struct {
	Outlet        string
	Brand         string
	SKU           string
	ItemName      string
	AvgCost       float64
	RevClass      string
	MarginClass   string
	VelocityClass string
	BinQty        int
	SuggestedQty  int
	CurrentStock  float64
	FinalOrderQty int
	UsageReco     string
	Justification string
}

func (c SkuClassification) row() []string {
	return []string{
		c.Outlet, c.Brand, c.SKU, c.ItemName,
		formatFloat(c.AvgCost),
		c.RevClass, c.MarginClass, c.VelocityClass,
		strconv.Itoa(c.BinQty), strconv.Itoa(c.SuggestedQty),
		formatFloat(c.CurrentStock), strconv.Itoa(c.FinalOrderQty),
		c.UsageReco, c.Justification,
	}
}

func parseClassification(h tablestore.Header, row []string) SkuClassification {
	return SkuClassification{
		Outlet:        h.Cell(row, "Outlet"),
		Brand:         h.Cell(row, "Brand"),
		SKU:           h.Cell(row, "SKU"),
		ItemName:      h.Cell(row, "ItemName"),
		AvgCost:       parseFloat(h.Cell(row, "AvgCost")),
		RevClass:      h.Cell(row, "RevClass"),
		MarginClass:   h.Cell(row, "MarginClass"),
		VelocityClass: h.Cell(row, "VelocityClass"),
		BinQty:        int(parseFloat(h.Cell(row, "BinQty"))),
		SuggestedQty:  int(parseFloat(h.Cell(row, "SuggestedQty"))),
		CurrentStock:  parseFloat(h.Cell(row, "CS")),
		FinalOrderQty: int(parseFloat(h.Cell(row, "FinalOrderQty"))),
		UsageReco:     h.Cell(row, "UsageReco"),
		Justification: h.Cell(row, "Justification"),
	}
}

// ── Cost bins ─────────────────────────────────────────────────────────

// CostBin maps average cost up to MaxAvgCost (inclusive) to a pack quantity.
// The terminal bin carries MaxAvgCost = +Inf, serialized as "INF".
type CostBin struct {
	MaxAvgCost float64
	PackQty    int
}

func (b CostBin) cells() (maxCost, packQty string) {
	if math.IsInf(b.MaxAvgCost, 1) {
		maxCost = "INF"
	} else {
		maxCost = formatFloat(b.MaxAvgCost)
	}
	return maxCost, strconv.Itoa(b.PackQty)
}

func parseCostBin(maxCost, packQty string) CostBin {
	b := CostBin{PackQty: int(parseFloat(packQty))}
	if strings.EqualFold(strings.TrimSpace(maxCost), "INF") {
		b.MaxAvgCost = math.Inf(1)
	} else {
		b.MaxAvgCost = parseFloat(maxCost)
	}
	return b
}

// ── Business rules ────────────────────────────────────────────────────

// BusinessRule is one row of the buying team's rule table. ANY (any case)
// in Vendor, Brand or Outlet matches everything; an empty ProductFilter
// matches every item name.
type BusinessRule struct {
	Name           string
	Vendor         string
	Brand          string
	ProductFilter  string
	Outlet         string
	StockCondition string
	StockValue1    float64
	StockValue2    float64
	OrderQty       int
	AlternateQty   int
	Priority       int
	Active         bool
	Notes          string
}

// ── Purchase orders ───────────────────────────────────────────────────

type TrackedOrder struct {
	Number            string
	Type              string
	Name              string
	Outlet            string
	Brand             string
	Amount            decimal.Decimal
	Status            string
	Approved          bool
	EmailSent         string
	DateCreated       time.Time
	DateApproved      time.Time
	ApprovalType      string
	DistributorName   string
	DistributorEmail  string
	FulfillmentAmount decimal.Decimal
	FulfillmentPct    float64
}

func (o TrackedOrder) row() []string {
	return []string{
		o.Number, o.Type, o.Name, o.Outlet, o.Brand, o.Amount.String(),
		o.Status, formatBool(o.Approved), o.EmailSent,
		formatTime(o.DateCreated), formatTime(o.DateApproved), o.ApprovalType,
		o.DistributorName, o.DistributorEmail,
		o.FulfillmentAmount.String(), formatFloat(o.FulfillmentPct),
	}
}

func parseTrackedOrder(h tablestore.Header, row []string) TrackedOrder {
	return TrackedOrder{
		Number:            h.Cell(row, "PONumber"),
		Type:              h.Cell(row, "POType"),
		Name:              h.Cell(row, "POName"),
		Outlet:            h.Cell(row, "OutletName"),
		Brand:             h.Cell(row, "Brand"),
		Amount:            parseDecimal(h.Cell(row, "POAmount")),
		Status:            h.Cell(row, "Status"),
		Approved:          parseBool(h.Cell(row, "Approved")),
		EmailSent:         h.Cell(row, "EmailSent"),
		DateCreated:       parseTime(h.Cell(row, "DateCreated")),
		DateApproved:      parseTime(h.Cell(row, "DateApproved")),
		ApprovalType:      h.Cell(row, "ApprovalType"),
		DistributorName:   h.Cell(row, "DistributorName"),
		DistributorEmail:  h.Cell(row, "DistributorEmail"),
		FulfillmentAmount: parseDecimal(h.Cell(row, "FulfillmentAmount")),
		FulfillmentPct:    parseFloat(h.Cell(row, "FulfillmentPercentage")),
	}
}

type OrderLineItem struct {
	LineItemID    string
	OrderNumber   string
	OrderType     string
	OrderName     string
	Outlet        string
	Brand         string
	SKU           string
	ItemName      string
	AvgCost       float64
	OrderQty      int
	Date          time.Time
	CurrentStock  float64
	Justification string
}

func (li OrderLineItem) row() []string {
	return []string{
		li.LineItemID, li.OrderNumber, li.OrderType, li.OrderName, li.Outlet,
		li.Brand, li.SKU, li.ItemName,
		strconv.FormatFloat(li.AvgCost, 'f', 2, 64),
		strconv.Itoa(li.OrderQty), li.Date.Format(dateOnly),
		formatFloat(li.CurrentStock), li.Justification,
	}
}

func parseLineItem(h tablestore.Header, row []string) OrderLineItem {
	return OrderLineItem{
		LineItemID:    h.Cell(row, "LineItemID"),
		OrderNumber:   h.Cell(row, "PONumber"),
		OrderType:     h.Cell(row, "OrderType"),
		OrderName:     h.Cell(row, "POName"),
		Outlet:        h.Cell(row, "Outlet"),
		Brand:         h.Cell(row, "Brand"),
		SKU:           h.Cell(row, "SKU"),
		ItemName:      h.Cell(row, "ItemName"),
		AvgCost:       parseFloat(h.Cell(row, "AvgCost")),
		OrderQty:      int(parseFloat(h.Cell(row, "OrderQty"))),
		Date:          parseDate(h.Cell(row, "Date")),
		CurrentStock:  parseFloat(h.Cell(row, "CurrentStock")),
		Justification: h.Cell(row, "Justification"),
	}
}

// ── Customer orders ───────────────────────────────────────────────────

type CustomerOrder struct {
	Number           string
	Outlet           string
	Brand            string
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    string
	CustomerPIC      string
	ItemCode         string
	ItemName         string
	Quantity         int
	Value            decimal.Decimal
	Status           string
	Approved         bool
	Sent             bool
	DateCreated      time.Time
	DateApproved     time.Time
	ApprovalType     string
	ApprovedBy       string
	Notes            string
	DistributorName  string
	DistributorEmail string
}

func (o CustomerOrder) row() []string {
	return []string{
		o.Number, o.Outlet, o.Brand, o.CustomerName, o.CustomerEmail,
		o.CustomerPhone, o.CustomerPIC, o.ItemCode, o.ItemName,
		strconv.Itoa(o.Quantity), o.Value.String(), o.Status,
		formatBool(o.Approved), formatBool(o.Sent),
		formatTime(o.DateCreated), formatTime(o.DateApproved),
		o.ApprovalType, o.ApprovedBy, o.Notes,
		o.DistributorName, o.DistributorEmail,
	}
}

func parseCustomerOrder(h tablestore.Header, row []string) CustomerOrder {
	return CustomerOrder{
		Number:           h.Cell(row, "CONumber"),
		Outlet:           h.Cell(row, "OutletName"),
		Brand:            h.Cell(row, "Brand"),
		CustomerName:     h.Cell(row, "CustomerName"),
		CustomerEmail:    h.Cell(row, "CustomerEmail"),
		CustomerPhone:    h.Cell(row, "CustomerPhone"),
		CustomerPIC:      h.Cell(row, "CustomerPIC"),
		ItemCode:         h.Cell(row, "ItemCode"),
		ItemName:         h.Cell(row, "ItemName"),
		Quantity:         int(parseFloat(h.Cell(row, "Quantity"))),
		Value:            parseDecimal(h.Cell(row, "COValue")),
		Status:           h.Cell(row, "Status"),
		Approved:         parseBool(h.Cell(row, "Approved")),
		Sent:             parseBool(h.Cell(row, "Sent")),
		DateCreated:      parseTime(h.Cell(row, "DateCreated")),
		DateApproved:     parseTime(h.Cell(row, "DateApproved")),
		ApprovalType:     h.Cell(row, "ApprovalType"),
		ApprovedBy:       h.Cell(row, "ApprovedBy"),
		Notes:            h.Cell(row, "Notes"),
		DistributorName:  h.Cell(row, "DistributorName"),
		DistributorEmail: h.Cell(row, "DistributorEmail"),
	}
}

// ── Goods receipts ────────────────────────────────────────────────────

type GoodsReceipt struct {
	Number        string
	OrderNumber   string
	Outlet        string
	Brand         string
	InvoiceNumber string
	Date          time.Time
	Amount        decimal.Decimal
	Approved      bool
	ApprovalType  string
	DateApproved  time.Time
	Notes         string
}

func (g GoodsReceipt) row() []string {
	return []string{
		g.Number, g.OrderNumber, g.Outlet, g.Brand, g.InvoiceNumber,
		formatTime(g.Date), g.Amount.String(), formatBool(g.Approved),
		g.ApprovalType, formatTime(g.DateApproved), g.Notes,
	}
}

func parseGoodsReceipt(h tablestore.Header, row []string) GoodsReceipt {
	return GoodsReceipt{
		Number:        h.Cell(row, "GRNNumber"),
		OrderNumber:   h.Cell(row, "PONumber"),
		Outlet:        h.Cell(row, "OutletName"),
		Brand:         h.Cell(row, "Brand"),
		InvoiceNumber: h.Cell(row, "InvoiceNumber"),
		Date:          parseTime(h.Cell(row, "GRNDate")),
		Amount:        parseDecimal(h.Cell(row, "GRNAmount")),
		Approved:      parseBool(h.Cell(row, "Approved")),
		ApprovalType:  h.Cell(row, "ApprovalType"),
		DateApproved:  parseTime(h.Cell(row, "DateApproved")),
		Notes:         h.Cell(row, "Notes"),
	}
}

// ── Customer master ───────────────────────────────────────────────────

type Customer struct {
	ID             string
	Name           string
	Email          string
	Phone          string
	PIC            string
	Outlet         string
	DateFirstOrder time.Time
	TotalOrders    int
	LastOrderDate  time.Time
}

func (c Customer) row() []string {
	return []string{
		c.ID, c.Name, c.Email, c.Phone, c.PIC, c.Outlet,
		c.DateFirstOrder.Format(dateOnly), strconv.Itoa(c.TotalOrders),
		c.LastOrderDate.Format(dateOnly),
	}
}

// ── Cell codecs ───────────────────────────────────────────────────────

func parseFloat(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseQty parses a strictly numeric, non-negative quantity cell. Unlike
// parseFloat it reports failure instead of defaulting to zero.
func parseQty(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}

func parseDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return parseDate(s)
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{dateOnly, "02-01-2006", "02/01/2006", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
