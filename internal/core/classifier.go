package core

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"orderdesk/internal/tablestore"
)

// SKUClassifier runs the monthly reorder classification: it aggregates the
// sales history per sku×outlet, ranks revenue and volume within each
// brand×outlet group, scores shelf velocity and margin, and rebuilds the
// classification table with a suggested order quantity per SKU.
type SKUClassifier struct {
	store tablestore.Store
	bins  *BinningEngine
	cfg   Config
	log   zerolog.Logger

	// Now is swappable so runs can be replayed against a fixed date.
	Now func() time.Time
}

func NewSKUClassifier(store tablestore.Store, bins *BinningEngine, cfg Config, log zerolog.Logger) *SKUClassifier {
	return &SKUClassifier{
		store: store,
		bins:  bins,
		cfg:   cfg,
		log:   log.With().Str("component", "classifier").Logger(),
		Now:   time.Now,
	}
}

type skuAggregate struct {
	outlet, brand, sku, itemName string
	qty, rev, gm                 float64
	billSum, inwardSum           float64 // unix milli sums, for mean dates
	billCount                    int
	costSum                      float64
	costCount                    int
	stock                        float64
	lastSold                     time.Time // latest bill date seen
	firstInward                  time.Time // earliest inward date seen

	revClass, volClass string
	revenueRank        int
}

type brandOutletGroup struct {
	totalRev, totalQty float64
	revList, volList   []rankEntry
}

type rankEntry struct {
	key    string
	weight float64
}

// Classify rebuilds the classification table from the current sales history
// and returns the rows written. Bins are loaded from the persisted config
// when present, otherwise computed from this run's history and persisted so
// later runs reuse the same boundaries.
func (c *SKUClassifier) Classify(ctx context.Context) ([]SkuClassification, error) {
	rows, err := c.store.GetAllRows(ctx, TableSalesData)
	if err != nil {
		return nil, fmt.Errorf("read sales data: %w", err)
	}
	if len(rows) == 0 {
		return nil, validationErrf(TableSalesData, "table is empty")
	}

	h := tablestore.HeaderOf(rows[0])
	if _, err := h.Require("SKU", "OutletName", "Brand", "SoldQty", "Revenue", "GrossMargin"); err != nil {
		return nil, fmt.Errorf("sales data header: %w", err)
	}

	records := make([]SalesRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, parseSalesRecord(h, row))
	}

	binsByOutlet, err := c.ensureBins(ctx, records)
	if err != nil {
		return nil, err
	}

	aggregates, order := c.aggregate(records)
	c.rankGroups(aggregates)

	outletMargin := map[string]struct{ rev, gm float64 }{}
	for _, agg := range aggregates {
		m := outletMargin[agg.outlet]
		m.rev += agg.rev
		m.gm += agg.gm
		outletMargin[agg.outlet] = m
	}

	today := c.Now()
	out := make([]SkuClassification, 0, len(order))
	for _, key := range order {
		out = append(out, c.classifyOne(aggregates[key], binsByOutlet, outletMargin, today))
	}

	table := make([][]string, 0, len(out))
	for _, cls := range out {
		table = append(table, cls.row())
	}
	if err := c.store.ReplaceTable(ctx, TableSKUClassification, classificationHeader, table); err != nil {
		return nil, fmt.Errorf("write classification: %w", err)
	}
	c.log.Info().Int("skus", len(out)).Msg("classification rebuilt")
	return out, nil
}

// ensureBins loads the persisted bin config, computing and persisting one
// from the current history when none exists yet.
func (c *SKUClassifier) ensureBins(ctx context.Context, records []SalesRecord) (map[string][]CostBin, error) {
	bins, err := c.bins.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(bins) > 0 {
		return bins, nil
	}

	type costAgg struct {
		sum   float64
		count int
	}
	perSku := map[string]*costAgg{}
	for _, r := range records {
		if r.CostPrice == 0 {
			continue
		}
		key := r.Outlet + "||" + r.SKU
		if perSku[key] == nil {
			perSku[key] = &costAgg{}
		}
		perSku[key].sum += r.CostPrice
		perSku[key].count++
	}
	costsByOutlet := map[string][]float64{}
	keys := make([]string, 0, len(perSku))
	for key := range perSku {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		agg := perSku[key]
		outlet := key[:strings.Index(key, "||")]
		costsByOutlet[outlet] = append(costsByOutlet[outlet], agg.sum/float64(agg.count))
	}

	if err := c.bins.ComputeAndStore(ctx, costsByOutlet); err != nil {
		return nil, err
	}
	return c.bins.Load(ctx)
}

// aggregate folds the history into one aggregate per sku×outlet, preserving
// first-seen order so reruns over the same history produce identical tables.
func (c *SKUClassifier) aggregate(records []SalesRecord) (map[string]*skuAggregate, []string) {
	aggregates := map[string]*skuAggregate{}
	var order []string
	for _, r := range records {
		key := r.SKU + "||" + r.Outlet
		agg := aggregates[key]
		if agg == nil {
			agg = &skuAggregate{
				outlet:      r.Outlet,
				brand:       r.Brand,
				sku:         r.SKU,
				itemName:    r.ItemName,
				stock:       r.CurrentStock,
				lastSold:    r.LastBillDate,
				firstInward: r.FirstInwardDate,
			}
			aggregates[key] = agg
			order = append(order, key)
		}
		agg.qty += r.SoldQty
		agg.rev += r.Revenue
		agg.gm += r.GrossMargin
		agg.billSum += float64(r.LastBillDate.UnixMilli())
		agg.inwardSum += float64(r.FirstInwardDate.UnixMilli())
		agg.billCount++
		agg.costSum += r.CostPrice
		if r.CostPrice > 0 {
			agg.costCount++
		}
		if r.LastBillDate.After(agg.lastSold) {
			agg.lastSold = r.LastBillDate
		}
		if r.FirstInwardDate.Before(agg.firstInward) {
			agg.firstInward = r.FirstInwardDate
		}
	}
	return aggregates, order
}

// rankGroups assigns revenue and volume classes from cumulative shares
// within each brand×outlet group.
func (c *SKUClassifier) rankGroups(aggregates map[string]*skuAggregate) {
	groups := map[string]*brandOutletGroup{}
	var groupOrder []string
	for key, agg := range aggregates {
		gk := agg.brand + "||" + agg.outlet
		g := groups[gk]
		if g == nil {
			g = &brandOutletGroup{}
			groups[gk] = g
			groupOrder = append(groupOrder, gk)
		}
		g.totalRev += agg.rev
		g.totalQty += agg.qty
		g.revList = append(g.revList, rankEntry{key: key, weight: agg.rev})
		g.volList = append(g.volList, rankEntry{key: key, weight: agg.qty})
	}

	for _, gk := range groupOrder {
		g := groups[gk]
		sort.SliceStable(g.revList, func(i, j int) bool { return g.revList[i].weight > g.revList[j].weight })
		cumulative := 0.0
		for i, entry := range g.revList {
			cumulative += entry.weight
			share := cumulative / g.totalRev
			agg := aggregates[entry.key]
			switch {
			case share <= c.cfg.RevCutA:
				agg.revClass = "A"
			case share <= c.cfg.RevCutB:
				agg.revClass = "B"
			default:
				agg.revClass = "C"
			}
			agg.revenueRank = i + 1
		}

		sort.SliceStable(g.volList, func(i, j int) bool { return g.volList[i].weight > g.volList[j].weight })
		cumulative = 0
		for _, entry := range g.volList {
			cumulative += entry.weight
			share := cumulative / g.totalQty
			agg := aggregates[entry.key]
			switch {
			case share <= c.cfg.VolCutFast:
				agg.volClass = "Fast"
			case share <= c.cfg.VolCutMedium:
				agg.volClass = "Medium"
			default:
				agg.volClass = "Slow"
			}
		}
	}
}

func (c *SKUClassifier) classifyOne(
	agg *skuAggregate,
	binsByOutlet map[string][]CostBin,
	outletMargin map[string]struct{ rev, gm float64 },
	today time.Time,
) SkuClassification {
	const msPerDay = 1000 * 60 * 60 * 24

	daysOnShelf := today.Sub(agg.firstInward).Hours() / 24
	isNewItem := daysOnShelf < float64(c.cfg.NewItemWindowDays)

	avgBill := agg.billSum / float64(agg.billCount)
	avgInward := agg.inwardSum / float64(agg.billCount)
	tosSold := (avgBill - avgInward) / msPerDay
	tosIdle := 0.0
	if agg.stock > 0 {
		tosIdle = today.Sub(agg.lastSold).Hours() / 24
	}
	avgTOS := 0.0
	if agg.qty+agg.stock > 0 {
		avgTOS = (tosSold*agg.qty + tosIdle*agg.stock) / (agg.qty + agg.stock)
	}

	var velocity string
	switch {
	case avgTOS > c.cfg.TOSDead:
		velocity = "Dead"
	case avgTOS > c.cfg.TOSSlow:
		velocity = "Slow"
	case avgTOS > c.cfg.TOSMedium:
		velocity = "Medium"
	default:
		velocity = "Fast"
	}

	daysSinceLastSold := today.Sub(agg.lastSold).Hours() / 24
	active := daysSinceLastSold <= float64(c.cfg.ActiveWindowDays)

	m := outletMargin[agg.outlet]
	avgMargin := 0.0
	if m.rev != 0 {
		avgMargin = m.gm / m.rev
	}
	itemMargin := 0.0
	if agg.rev > 0 {
		itemMargin = agg.gm / agg.rev
	}
	var marginClass string
	switch {
	case itemMargin >= avgMargin+c.cfg.MarginBand:
		marginClass = "High"
	case itemMargin <= avgMargin-c.cfg.MarginBand:
		marginClass = "Low"
	default:
		marginClass = "Medium"
	}

	costCount := agg.costCount
	if costCount == 0 {
		costCount = 1
	}
	avgCost := agg.costSum / float64(costCount)

	outletBins := binsByOutlet[agg.outlet]
	if len(outletBins) == 0 {
		outletBins = []CostBin{{MaxAvgCost: math.Inf(1), PackQty: 1}}
	}
	binQty := c.bins.PackFor(outletBins, avgCost)

	salesPerMonth := agg.qty / float64(c.cfg.MonthsOfData)
	if avgCost >= c.cfg.ExpensiveItemCost {
		if salesPerMonth >= 1 {
			binQty = 2
		} else {
			binQty = 1
		}
	}
	recommendedQty := binQty
	if monthly := int(math.Ceil(salesPerMonth)); monthly > recommendedQty {
		recommendedQty = monthly
	}

	justification := fmt.Sprintf("Revenue Rank: %d, Margin: %.2f, AvgTOS: %.1f, NewItem:%t",
		agg.revenueRank, itemMargin, avgTOS, isNewItem)

	var suggestedQty int
	var usageReco string
	switch {
	case isNewItem:
		suggestedQty = recommendedQty
		usageReco = "New-Item"
	case (agg.revClass == "C" && (velocity == "Dead" || velocity == "Slow" || velocity == "Medium")) ||
		velocity == "Dead" || !active:
		suggestedQty = 0
		usageReco = "Dead"
	case agg.revClass == "A":
		if velocity == "Slow" {
			suggestedQty = int(math.Ceil(float64(recommendedQty) / 2))
			usageReco = "Watch-List"
		} else {
			suggestedQty = recommendedQty
			usageReco = "Auto-ReOrder"
		}
	case agg.revClass == "B":
		if marginClass == "High" || velocity == "Fast" {
			suggestedQty = recommendedQty
			usageReco = "Auto-ReOrder"
		} else {
			suggestedQty = int(math.Ceil(float64(recommendedQty) / 2))
			usageReco = "Watch-List"
		}
	case agg.revClass == "C" && velocity == "Fast":
		suggestedQty = recommendedQty
		usageReco = "Auto-ReOrder"
	default:
		suggestedQty = 0
		usageReco = "Dead"
	}

	finalOrderQty := suggestedQty - int(agg.stock)
	if finalOrderQty < 0 {
		finalOrderQty = 0
	}

	return SkuClassification{
		Outlet:        agg.outlet,
		Brand:         agg.brand,
		SKU:           agg.sku,
		ItemName:      agg.itemName,
		AvgCost:       avgCost,
		RevClass:      agg.revClass,
		MarginClass:   marginClass,
		VelocityClass: velocity,
		BinQty:        binQty,
		SuggestedQty:  suggestedQty,
		CurrentStock:  agg.stock,
		FinalOrderQty: finalOrderQty,
		UsageReco:     usageReco,
		Justification: justification,
	}
}
