package core

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config carries every tunable threshold of the classification and order
// pipelines. Defaults match the values the buying team signed off on;
// individual knobs can be overridden through the environment.
type Config struct {
	// Classification.
	ActiveWindowDays   int     // last sale within this window counts as active
	MonthsOfData       int     // sales history horizon used for monthly demand
	NewItemWindowDays  int     // first inward within this window marks a new item
	MarginBand         float64 // +/- band around outlet average margin
	RevCutA            float64 // cumulative revenue share boundary A/B
	RevCutB            float64 // cumulative revenue share boundary B/C
	VolCutFast         float64 // cumulative volume share boundary Fast/Medium
	VolCutMedium       float64 // cumulative volume share boundary Medium/Slow
	TOSDead            float64 // avg time-on-shelf above this is Dead
	TOSSlow            float64
	TOSMedium          float64
	ExpensiveItemCost  float64 // avg cost at or above this caps the pack at 1 or 2
	PackQuantities     []int
	PackPercentiles    []float64

	// Order lifecycle.
	OutletCodes        map[string]string // outlet name -> short code used in order names
	COAutoApproveLimit decimal.Decimal   // customer orders under this auto-approve
	AutoApproveAfter   time.Duration   // pending GRNs and COs older than this
	AutoCloseAfter     time.Duration   // sent POs older than this
	OrderCounterSeed   int             // first PO sequence number minus one
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		ActiveWindowDays:   180,
		MonthsOfData:       6,
		NewItemWindowDays:  75,
		MarginBand:         0.10,
		RevCutA:            0.70,
		RevCutB:            0.95,
		VolCutFast:         0.70,
		VolCutMedium:       0.90,
		TOSDead:            150,
		TOSSlow:            90,
		TOSMedium:          60,
		ExpensiveItemCost:  2000,
		PackQuantities:     []int{12, 6, 4, 3, 2, 1},
		PackPercentiles:    []float64{0.20, 0.40, 0.60, 0.80, 0.95},
		OutletCodes:        map[string]string{},
		COAutoApproveLimit: decimal.NewFromInt(10000),
		AutoApproveAfter:   60 * time.Minute,
		AutoCloseAfter:     10 * 24 * time.Hour,
		OrderCounterSeed:   1000,
	}
}

// ConfigFromEnv starts from DefaultConfig and applies any overrides present
// in the environment. Unset or unparsable variables keep the default.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	envInt("ORDERDESK_ACTIVE_WINDOW_DAYS", &cfg.ActiveWindowDays)
	envInt("ORDERDESK_MONTHS_OF_DATA", &cfg.MonthsOfData)
	envInt("ORDERDESK_NEW_ITEM_WINDOW_DAYS", &cfg.NewItemWindowDays)
	envFloat("ORDERDESK_MARGIN_BAND", &cfg.MarginBand)
	envFloat("ORDERDESK_EXPENSIVE_ITEM_COST", &cfg.ExpensiveItemCost)
	if v := os.Getenv("ORDERDESK_CO_AUTO_APPROVE_LIMIT"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			cfg.COAutoApproveLimit = d
		}
	}
	envDuration("ORDERDESK_AUTO_APPROVE_AFTER", &cfg.AutoApproveAfter)
	envDuration("ORDERDESK_AUTO_CLOSE_AFTER", &cfg.AutoCloseAfter)
	envInt("ORDERDESK_ORDER_COUNTER_SEED", &cfg.OrderCounterSeed)
	return cfg
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(name string, dst *float64) {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
