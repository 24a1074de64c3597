package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"orderdesk/internal/tablestore"
)

// BinningEngine derives per-outlet cost bins from the distribution of active
// SKU average costs and persists them, so that a classification run and any
// later replay of it see the same boundaries.
type BinningEngine struct {
	store tablestore.Store
	cfg   Config
	log   zerolog.Logger
}

func NewBinningEngine(store tablestore.Store, cfg Config, log zerolog.Logger) *BinningEngine {
	return &BinningEngine{store: store, cfg: cfg, log: log.With().Str("component", "binning").Logger()}
}

// ComputeBins builds the bin table for one outlet from its active SKU average
// costs. Boundaries are nearest-rank percentiles of the sorted costs; each
// boundary is paired with the configured pack quantity, and a terminal
// +Inf bin with pack quantity 1 catches everything above the last boundary.
func (e *BinningEngine) ComputeBins(avgCosts []float64) []CostBin {
	terminal := CostBin{MaxAvgCost: math.Inf(1), PackQty: 1}
	if len(avgCosts) == 0 {
		return []CostBin{terminal}
	}

	sorted := make([]float64, len(avgCosts))
	copy(sorted, avgCosts)
	sort.Float64s(sorted)

	n := len(sorted)
	bins := make([]CostBin, 0, len(e.cfg.PackPercentiles)+1)
	for i, p := range e.cfg.PackPercentiles {
		idx := int(math.Floor(p * float64(n)))
		if idx > n-1 {
			idx = n - 1
		}
		bins = append(bins, CostBin{MaxAvgCost: sorted[idx], PackQty: e.cfg.PackQuantities[i]})
	}
	return append(bins, terminal)
}

// ComputeAndStore rebuilds the bin table for every outlet in one pass,
// replacing whatever bins were stored before.
func (e *BinningEngine) ComputeAndStore(ctx context.Context, costsByOutlet map[string][]float64) error {
	outlets := make([]string, 0, len(costsByOutlet))
	for outlet := range costsByOutlet {
		outlets = append(outlets, outlet)
	}
	sort.Strings(outlets)

	rows := make([][]string, 0, len(outlets)*(len(e.cfg.PackPercentiles)+1))
	for _, outlet := range outlets {
		for i, bin := range e.ComputeBins(costsByOutlet[outlet]) {
			maxCost, packQty := bin.cells()
			rows = append(rows, []string{outlet, strconv.Itoa(i), maxCost, packQty})
		}
	}

	if err := e.store.ReplaceTable(ctx, TableBinningConfig, binningConfigHeader, rows); err != nil {
		return fmt.Errorf("store binning config: %w", err)
	}
	e.log.Info().Int("outlets", len(outlets)).Int("rows", len(rows)).Msg("binning config rebuilt")
	return nil
}

// Load reads the persisted bins keyed by outlet. Bin order within an outlet
// follows the stored BinIndex.
func (e *BinningEngine) Load(ctx context.Context) (map[string][]CostBin, error) {
	rows, err := e.store.GetAllRows(ctx, TableBinningConfig)
	if errors.Is(err, tablestore.ErrTableNotFound) {
		// First run against a fresh store: no bins yet.
		return map[string][]CostBin{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load binning config: %w", err)
	}
	if len(rows) == 0 {
		return map[string][]CostBin{}, nil
	}

	h := tablestore.HeaderOf(rows[0])
	type indexed struct {
		idx int
		bin CostBin
	}
	byOutlet := map[string][]indexed{}
	for _, row := range rows[1:] {
		outlet := h.Cell(row, "Outlet")
		if outlet == "" {
			continue
		}
		byOutlet[outlet] = append(byOutlet[outlet], indexed{
			idx: int(parseFloat(h.Cell(row, "BinIndex"))),
			bin: parseCostBin(h.Cell(row, "MaxAvgCost"), h.Cell(row, "PackQty")),
		})
	}

	bins := make(map[string][]CostBin, len(byOutlet))
	for outlet, list := range byOutlet {
		sort.Slice(list, func(i, j int) bool { return list[i].idx < list[j].idx })
		out := make([]CostBin, len(list))
		for i, item := range list {
			out[i] = item.bin
		}
		bins[outlet] = out
	}
	return bins, nil
}

// PackFor resolves the pack quantity for an average cost against an outlet's
// bins: the first bin whose boundary covers the cost wins. An outlet with no
// bins falls through to the terminal behavior. The expensive-item override
// sits with the classifier, which also knows the item's sales rate.
func (e *BinningEngine) PackFor(bins []CostBin, avgCost float64) int {
	for _, bin := range bins {
		if avgCost <= bin.MaxAvgCost {
			return bin.PackQty
		}
	}
	return 1
}
