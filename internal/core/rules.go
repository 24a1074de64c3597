package core

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"orderdesk/internal/tablestore"
)

const wildcard = "ANY"

// RuleDecision is the outcome of running the rule table against one item.
// Justification is empty when no rule matched and the caller's standard
// quantity stands.
type RuleDecision struct {
	Quantity      int
	Justification string
}

// RuleItem is the subject a rule is evaluated against.
type RuleItem struct {
	SKU          string
	Vendor       string
	Brand        string
	ItemName     string
	Outlet       string
	CurrentStock float64
}

// BusinessRuleEngine lets the buying team override suggested quantities
// through a table of prioritized rules. The engine is deliberately
// forgiving: a broken rule row or a missing table never fails a
// classification run, it just leaves the standard quantity in place.
type BusinessRuleEngine struct {
	store tablestore.Store
	log   zerolog.Logger
}

func NewBusinessRuleEngine(store tablestore.Store, log zerolog.Logger) *BusinessRuleEngine {
	return &BusinessRuleEngine{store: store, log: log.With().Str("component", "rules").Logger()}
}

// Load reads the rule table, dropping inactive and malformed rows, and
// returns the survivors in priority order (lower number wins, missing
// priority sorts last).
func (e *BusinessRuleEngine) Load(ctx context.Context) ([]BusinessRule, error) {
	rows, err := e.store.GetAllRows(ctx, TableBusinessRules)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	h := tablestore.HeaderOf(rows[0])
	var rules []BusinessRule
	for _, row := range rows[1:] {
		name := strings.TrimSpace(h.Cell(row, "RuleName"))
		if name == "" || !strings.EqualFold(strings.TrimSpace(h.Cell(row, "Active")), "TRUE") {
			continue
		}

		condition := ruleValue(h.Cell(row, "StockCondition"))
		orderQty, ok := parseQty(h.Cell(row, "OrderQuantity"))
		if condition == wildcard || !ok {
			e.log.Warn().Str("rule", name).Msg("invalid rule skipped: missing stock condition or order quantity")
			continue
		}

		priority := 999
		if p, ok := parseQty(h.Cell(row, "Priority")); ok && p > 0 {
			priority = int(p)
		}

		rules = append(rules, BusinessRule{
			Name:           name,
			Vendor:         ruleValue(h.Cell(row, "Vendor")),
			Brand:          ruleValue(h.Cell(row, "Brand")),
			ProductFilter:  ruleValue(h.Cell(row, "ProductFilter")),
			Outlet:         ruleValue(h.Cell(row, "Outlet")),
			StockCondition: condition,
			StockValue1:    parseFloat(h.Cell(row, "StockValue1")),
			StockValue2:    parseFloat(h.Cell(row, "StockValue2")),
			OrderQty:       int(orderQty),
			AlternateQty:   int(parseFloat(h.Cell(row, "AlternateQuantity"))),
			Priority:       priority,
			Active:         true,
			Notes:          strings.TrimSpace(h.Cell(row, "Notes")),
		})
	}

	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })
	return rules, nil
}

// Apply runs the loaded rules against one item, first match wins. When the
// rule table cannot be read the standard quantity is returned untouched.
func (e *BusinessRuleEngine) Apply(ctx context.Context, item RuleItem, standardQty int) RuleDecision {
	rules, err := e.Load(ctx)
	if err != nil {
		e.log.Warn().Err(err).Str("sku", item.SKU).Msg("rule table unavailable, keeping standard quantity")
		return RuleDecision{Quantity: standardQty}
	}
	return e.ApplyRules(rules, item, standardQty)
}

// ApplyRules is Apply against an already-loaded rule set, for callers that
// evaluate many items per run.
func (e *BusinessRuleEngine) ApplyRules(rules []BusinessRule, item RuleItem, standardQty int) RuleDecision {
	for _, rule := range rules {
		if !matchesCriteria(item.Vendor, rule.Vendor) ||
			!matchesCriteria(item.Brand, rule.Brand) ||
			!matchesProductFilter(item.ItemName, rule.ProductFilter) ||
			!matchesCriteria(item.Outlet, rule.Outlet) {
			continue
		}

		qty := rule.AlternateQty
		if stockConditionMet(item.CurrentStock, rule.StockCondition, rule.StockValue1, rule.StockValue2) {
			qty = rule.OrderQty
		}

		justification := "Business Rule: " + rule.Name
		if rule.Notes != "" {
			justification += " - " + rule.Notes
		}
		e.log.Debug().Str("rule", rule.Name).Str("sku", item.SKU).Int("qty", qty).Msg("business rule applied")
		return RuleDecision{Quantity: qty, Justification: justification}
	}
	return RuleDecision{Quantity: standardQty}
}

// ruleValue treats empty cells as wildcards.
func ruleValue(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return wildcard
	}
	return s
}

func matchesCriteria(value, criteria string) bool {
	if strings.EqualFold(strings.TrimSpace(criteria), wildcard) {
		return true
	}
	return strings.EqualFold(value, criteria)
}

func matchesProductFilter(itemName, filter string) bool {
	if strings.EqualFold(strings.TrimSpace(filter), wildcard) {
		return true
	}
	return strings.Contains(strings.ToLower(itemName), strings.ToLower(filter))
}

func stockConditionMet(stock float64, condition string, v1, v2 float64) bool {
	switch strings.TrimSpace(condition) {
	case "<=":
		return stock <= v1
	case ">=":
		return stock >= v1
	case "=":
		return stock == v1
	case "between":
		return stock >= v1 && stock <= v2
	}
	return false
}
