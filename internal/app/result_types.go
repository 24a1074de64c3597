package app

import "orderdesk/internal/core"

// ClassificationResult is returned by ClassifySKUs.
type ClassificationResult struct {
	Rows []core.SkuClassification
}

// BinsResult is returned by ReadBins.
type BinsResult struct {
	ByOutlet map[string][]core.CostBin
}

// RuleResult is returned by ApplyBusinessRules. Justification is empty when
// no rule matched and the standard quantity stands.
type RuleResult struct {
	Quantity      int
	Justification string
}

// OrderResult is returned by CreatePO.
type OrderResult struct {
	OrderNumber string
}

// CustomerOrderResult is returned by CreateCustomerOrder.
type CustomerOrderResult struct {
	Order core.CustomerOrder
}

// GRNResult is returned by CreateGRN.
type GRNResult struct {
	Receipt core.GoodsReceipt
}

// SweepResult reports how many records a bulk operation touched.
type SweepResult struct {
	Processed int
}
