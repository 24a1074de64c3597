package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"orderdesk/internal/core"
	"orderdesk/internal/tablestore"
)

var salesHeader = []string{
	"SKU", "ItemName", "Brand", "OutletName", "SoldQty", "Revenue",
	"GrossMargin", "CostPrice", "LastBillDate", "FirstInwardDate", "CurrentStock",
}

// fixedToday anchors every classification test so shelf-age math is stable.
var fixedToday = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

func newTestClassifier(t *testing.T, salesRows [][]string) (*core.SKUClassifier, *tablestore.MemStore) {
	t.Helper()
	ctx := context.Background()
	store := tablestore.NewMemStore()
	if err := store.ReplaceTable(ctx, core.TableSalesData, salesHeader, salesRows); err != nil {
		t.Fatalf("seed sales data: %v", err)
	}
	cfg := core.DefaultConfig()
	bins := core.NewBinningEngine(store, cfg, testLogger())
	c := core.NewSKUClassifier(store, bins, cfg, testLogger())
	c.Now = func() time.Time { return fixedToday }
	return c, store
}

func classByKey(t *testing.T, rows []core.SkuClassification, sku string) core.SkuClassification {
	t.Helper()
	for _, r := range rows {
		if r.SKU == sku {
			return r
		}
	}
	t.Fatalf("sku %s not in classification output", sku)
	return core.SkuClassification{}
}

func TestClassify_NewItem(t *testing.T) {
	c, store := newTestClassifier(t, [][]string{
		// On shelf 10 days, sold 5 days ago.
		{"NEW1", "Fresh Widget", "B1", "Store A", "6", "600", "120", "50", "2026-01-10", "2026-01-05", "2"},
	})

	rows, err := c.Classify(context.Background())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	got := classByKey(t, rows, "NEW1")

	if got.UsageReco != "New-Item" {
		t.Errorf("UsageReco = %q, want New-Item", got.UsageReco)
	}
	// Sole cost in the outlet, so every boundary clamps to it and the
	// cheapest pack applies.
	if got.BinQty != 12 {
		t.Errorf("BinQty = %d, want 12", got.BinQty)
	}
	if got.SuggestedQty != 12 {
		t.Errorf("SuggestedQty = %d, want 12", got.SuggestedQty)
	}
	if got.FinalOrderQty != 10 { // suggested minus stock of 2
		t.Errorf("FinalOrderQty = %d, want 10", got.FinalOrderQty)
	}
	want := "Revenue Rank: 1, Margin: 0.20, AvgTOS: 5.0, NewItem:true"
	if got.Justification != want {
		t.Errorf("Justification = %q, want %q", got.Justification, want)
	}

	// The run must have persisted the bin config for replays.
	if _, err := store.GetAllRows(context.Background(), core.TableBinningConfig); err != nil {
		t.Errorf("binning config not persisted: %v", err)
	}
}

func TestClassify_ExpensiveItemOverride(t *testing.T) {
	c, _ := newTestClassifier(t, [][]string{
		// Slow expensive item: half a sale a month caps the pack at 1.
		{"EXP1", "Gold Widget", "B1", "Store E1", "3", "9000", "1800", "2500", "2026-01-10", "2025-01-01", "0"},
		// Moving expensive item: two sales a month allows a pack of 2.
		{"EXP2", "Gold Gadget", "B1", "Store E2", "12", "36000", "7200", "2500", "2026-01-10", "2025-01-01", "0"},
	})

	rows, err := c.Classify(context.Background())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	if got := classByKey(t, rows, "EXP1"); got.BinQty != 1 {
		t.Errorf("EXP1 BinQty = %d, want 1", got.BinQty)
	}
	if got := classByKey(t, rows, "EXP2"); got.BinQty != 2 {
		t.Errorf("EXP2 BinQty = %d, want 2", got.BinQty)
	}
}

func TestClassify_RevenueAndDecisionTable(t *testing.T) {
	// Three SKUs in one brand×outlet group, uniform 20% margin, all on the
	// shelf since September and last sold five days ago. The long shelf gap
	// makes every velocity Slow, so the decision table resolves purely from
	// the revenue class.
	c, _ := newTestClassifier(t, [][]string{
		{"S1", "Widget", "B1", "Store A", "70", "7000", "1400", "100", "2026-01-10", "2025-09-01", "0"},
		{"S2", "Gadget", "B1", "Store A", "20", "2500", "500", "200", "2026-01-10", "2025-09-01", "0"},
		{"S3", "Gizmo", "B1", "Store A", "10", "500", "100", "300", "2026-01-10", "2025-09-01", "0"},
	})

	rows, err := c.Classify(context.Background())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	s1 := classByKey(t, rows, "S1")
	s2 := classByKey(t, rows, "S2")
	s3 := classByKey(t, rows, "S3")

	// Cumulative revenue shares: 0.70 → A, 0.95 → B, 1.00 → C.
	if s1.RevClass != "A" || s2.RevClass != "B" || s3.RevClass != "C" {
		t.Errorf("rev classes = %s/%s/%s, want A/B/C", s1.RevClass, s2.RevClass, s3.RevClass)
	}
	if s1.VelocityClass != "Slow" {
		t.Errorf("S1 velocity = %s, want Slow", s1.VelocityClass)
	}

	// A + Slow goes on the watch list at half the recommended quantity:
	// pack 12 vs ceil(70/6)=12, halved to 6.
	if s1.UsageReco != "Watch-List" || s1.SuggestedQty != 6 {
		t.Errorf("S1 = %s qty %d, want Watch-List qty 6", s1.UsageReco, s1.SuggestedQty)
	}
	// B with neither high margin nor fast velocity is also halved: pack 6
	// vs ceil(20/6)=4, halved to 3.
	if s2.UsageReco != "Watch-List" || s2.SuggestedQty != 3 {
		t.Errorf("S2 = %s qty %d, want Watch-List qty 3", s2.UsageReco, s2.SuggestedQty)
	}
	// C + Slow is dead stock.
	if s3.UsageReco != "Dead" || s3.SuggestedQty != 0 {
		t.Errorf("S3 = %s qty %d, want Dead qty 0", s3.UsageReco, s3.SuggestedQty)
	}
}

func TestClassify_InactiveItemIsDead(t *testing.T) {
	c, _ := newTestClassifier(t, [][]string{
		// Last sold 259 days ago, well past the 180-day active window.
		{"OLD1", "Dusty Widget", "B1", "Store A", "50", "5000", "1000", "100", "2025-05-01", "2025-01-01", "5"},
	})

	rows, err := c.Classify(context.Background())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	got := classByKey(t, rows, "OLD1")
	if got.UsageReco != "Dead" || got.SuggestedQty != 0 || got.FinalOrderQty != 0 {
		t.Errorf("inactive item = %s qty %d final %d, want Dead 0 0", got.UsageReco, got.SuggestedQty, got.FinalOrderQty)
	}
}

func TestClassify_InputValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("missing sales table", func(t *testing.T) {
		store := tablestore.NewMemStore()
		cfg := core.DefaultConfig()
		bins := core.NewBinningEngine(store, cfg, testLogger())
		c := core.NewSKUClassifier(store, bins, cfg, testLogger())
		if _, err := c.Classify(ctx); !errors.Is(err, tablestore.ErrTableNotFound) {
			t.Errorf("expected ErrTableNotFound, got %v", err)
		}
	})

	t.Run("missing required columns", func(t *testing.T) {
		store := tablestore.NewMemStore()
		if err := store.ReplaceTable(ctx, core.TableSalesData, []string{"SKU", "Brand"}, nil); err != nil {
			t.Fatal(err)
		}
		cfg := core.DefaultConfig()
		bins := core.NewBinningEngine(store, cfg, testLogger())
		c := core.NewSKUClassifier(store, bins, cfg, testLogger())
		if _, err := c.Classify(ctx); err == nil {
			t.Error("expected error for missing columns")
		}
	})
}

func TestClassify_RerunIsDeterministic(t *testing.T) {
	salesRows := [][]string{
		{"S1", "Widget", "B1", "Store A", "70", "7000", "1400", "100", "2026-01-10", "2025-09-01", "0"},
		{"S2", "Gadget", "B1", "Store A", "20", "2500", "500", "200", "2026-01-10", "2025-09-01", "0"},
	}
	c, _ := newTestClassifier(t, salesRows)

	first, err := c.Classify(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := c.Classify(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("row counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("row %d differs between runs:\n  %+v\n  %+v", i, first[i], second[i])
		}
	}
}
