package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"orderdesk/internal/app"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
	log    zerolog.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string, log zerolog.Logger) http.Handler {
	h := &Handler{svc: svc, log: log}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	// ── Health ────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Classification ────────────────────────────────────────────────────
	r.Post("/api/classification/run", h.runClassification)
	r.Get("/api/bins", h.listBins)
	r.Post("/api/rules/evaluate", h.evaluateRule)

	// ── Purchase orders ───────────────────────────────────────────────────
	r.Post("/api/purchase-orders", h.createPO)
	r.Post("/api/purchase-orders/batch", h.createPOBatch)
	r.Post("/api/purchase-orders/{number}/approve", h.approvePO)
	r.Post("/api/purchase-orders/{number}/send", h.sendPO)
	r.Post("/api/purchase-orders/send-approved", h.sendApprovedPOs)
	r.Post("/api/purchase-orders/refresh-values", h.refreshPOValues)
	r.Post("/api/purchase-orders/{number}/fulfillment", h.updateFulfillment)

	// ── Customer orders ───────────────────────────────────────────────────
	r.Get("/api/items", h.listItems)
	r.Post("/api/customer-orders", h.createCustomerOrder)
	r.Post("/api/customer-orders/{number}/approve", h.approveCustomerOrder)

	// ── Goods receipts ────────────────────────────────────────────────────
	r.Get("/api/grns/eligible-orders", h.eligibleOrders)
	r.Post("/api/grns", h.createGRN)
	r.Post("/api/grns/{number}/approve", h.approveGRN)

	// ── Housekeeping sweeps (cron endpoints) ──────────────────────────────
	r.Post("/api/sweeps/close-old-orders", h.closeOldOrders)
	r.Post("/api/sweeps/auto-approve-grns", h.autoApproveGRNs)
	r.Post("/api/sweeps/auto-approve-cos", h.autoApproveCOs)

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// orderNumber extracts the {number} URL parameter.
func orderNumber(r *http.Request) string {
	return chi.URLParam(r, "number")
}

// decodeJSON decodes the request body into v and returns false + writes an
// appropriate error response on failure. Returns HTTP 413 when the body
// exceeds the size limit set by RequestBodyLimit middleware; HTTP 400 for
// all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// ── Classification handlers ───────────────────────────────────────────────

// runClassification handles POST /api/classification/run.
func (h *Handler) runClassification(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ClassifySKUs(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	type response struct {
		Classified int `json:"classified"`
	}
	writeJSON(w, response{Classified: len(result.Rows)})
}

// listBins handles GET /api/bins.
func (h *Handler) listBins(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ReadBins(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// evaluateRule handles POST /api/rules/evaluate.
func (h *Handler) evaluateRule(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SKU          string  `json:"sku"`
		Vendor       string  `json:"vendor"`
		Brand        string  `json:"brand"`
		ItemName     string  `json:"item_name"`
		Outlet       string  `json:"outlet"`
		CurrentStock float64 `json:"current_stock"`
		StandardQty  int     `json:"standard_qty"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.ApplyBusinessRules(r.Context(), app.ApplyRulesRequest{
		SKU:          body.SKU,
		Vendor:       body.Vendor,
		Brand:        body.Brand,
		ItemName:     body.ItemName,
		Outlet:       body.Outlet,
		CurrentStock: body.CurrentStock,
		StandardQty:  body.StandardQty,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// ── Sweep handlers ────────────────────────────────────────────────────────

type sweepResponse struct {
	Processed int `json:"processed"`
}

func (h *Handler) closeOldOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.CloseOldOrders(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sweepResponse{Processed: result.Processed})
}

func (h *Handler) autoApproveGRNs(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.AutoApproveOldGRNs(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sweepResponse{Processed: result.Processed})
}

func (h *Handler) autoApproveCOs(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.AutoApproveOldCOs(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sweepResponse{Processed: result.Processed})
}
