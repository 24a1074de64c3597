package web

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"orderdesk/internal/app"
)

// ── Purchase order handlers ───────────────────────────────────────────────

// createPO handles POST /api/purchase-orders.
func (h *Handler) createPO(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Outlet      string `json:"outlet"`
		Brand       string `json:"brand"`
		OrderNumber string `json:"order_number,omitempty"`
		OrderType   string `json:"order_type,omitempty"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.CreatePO(r.Context(), app.CreatePORequest{
		Outlet:      body.Outlet,
		Brand:       body.Brand,
		OrderNumber: body.OrderNumber,
		OrderType:   body.OrderType,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	type response struct {
		OrderNumber string `json:"order_number"`
	}
	writeJSON(w, response{OrderNumber: result.OrderNumber})
}

// createPOBatch handles POST /api/purchase-orders/batch.
func (h *Handler) createPOBatch(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.CreatePOsFromBatch(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sweepResponse{Processed: result.Processed})
}

// approvePO handles POST /api/purchase-orders/{number}/approve.
func (h *Handler) approvePO(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ApprovePO(r.Context(), orderNumber(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, okResponse{OK: true})
}

// sendPO handles POST /api/purchase-orders/{number}/send.
func (h *Handler) sendPO(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SendPO(r.Context(), orderNumber(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, okResponse{OK: true})
}

// sendApprovedPOs handles POST /api/purchase-orders/send-approved.
func (h *Handler) sendApprovedPOs(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.SendApprovedPOs(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sweepResponse{Processed: result.Processed})
}

// refreshPOValues handles POST /api/purchase-orders/refresh-values.
func (h *Handler) refreshPOValues(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RefreshPOValues(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sweepResponse{Processed: result.Processed})
}

// updateFulfillment handles POST /api/purchase-orders/{number}/fulfillment.
func (h *Handler) updateFulfillment(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.UpdateOrderFulfillment(r.Context(), orderNumber(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, okResponse{OK: true})
}

type okResponse struct {
	OK bool `json:"ok"`
}

// ── Customer order handlers ───────────────────────────────────────────────

// listItems handles GET /api/items.
func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.AvailableItems(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, items)
}

// createCustomerOrder handles POST /api/customer-orders. This is the
// endpoint the order form posts to.
func (h *Handler) createCustomerOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Outlet        string `json:"outlet"`
		Brand         string `json:"brand"`
		CustomerName  string `json:"customer_name"`
		CustomerEmail string `json:"customer_email"`
		CustomerPhone string `json:"customer_phone"`
		CustomerPIC   string `json:"customer_pic"`
		ItemCode      string `json:"item_code"`
		ItemName      string `json:"item_name"`
		Quantity      int    `json:"quantity"`
		Notes         string `json:"notes"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.CreateCustomerOrder(r.Context(), app.CreateCustomerOrderRequest{
		Outlet:        body.Outlet,
		Brand:         body.Brand,
		CustomerName:  body.CustomerName,
		CustomerEmail: body.CustomerEmail,
		CustomerPhone: body.CustomerPhone,
		CustomerPIC:   body.CustomerPIC,
		ItemCode:      body.ItemCode,
		ItemName:      body.ItemName,
		Quantity:      body.Quantity,
		Notes:         body.Notes,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	type response struct {
		OrderNumber string `json:"order_number"`
		Status      string `json:"status"`
		Approved    bool   `json:"approved"`
		Value       string `json:"value"`
	}
	writeJSON(w, response{
		OrderNumber: result.Order.Number,
		Status:      result.Order.Status,
		Approved:    result.Order.Approved,
		Value:       result.Order.Value.StringFixed(2),
	})
}

// approveCustomerOrder handles POST /api/customer-orders/{number}/approve.
func (h *Handler) approveCustomerOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ApprovedBy string `json:"approved_by"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.svc.ApproveCustomerOrder(r.Context(), orderNumber(r), body.ApprovedBy); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, okResponse{OK: true})
}

// ── Goods receipt handlers ────────────────────────────────────────────────

// eligibleOrders handles GET /api/grns/eligible-orders.
func (h *Handler) eligibleOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.EligibleOrdersForGRN(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, orders)
}

// createGRN handles POST /api/grns.
func (h *Handler) createGRN(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrderNumber   string `json:"order_number"`
		InvoiceNumber string `json:"invoice_number"`
		Amount        string `json:"amount"`
		Date          string `json:"date,omitempty"` // YYYY-MM-DD, empty means today
		Notes         string `json:"notes"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		writeError(w, r, "invalid amount: "+body.Amount, "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var date time.Time
	if body.Date != "" {
		date, err = time.Parse("2006-01-02", body.Date)
		if err != nil {
			writeError(w, r, "invalid date: "+body.Date, "BAD_REQUEST", http.StatusBadRequest)
			return
		}
	}
	result, err := h.svc.CreateGRN(r.Context(), app.CreateGRNRequest{
		OrderNumber:   body.OrderNumber,
		InvoiceNumber: body.InvoiceNumber,
		Amount:        amount,
		Date:          date,
		Notes:         body.Notes,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	type response struct {
		GRNNumber string `json:"grn_number"`
	}
	writeJSON(w, response{GRNNumber: result.Receipt.Number})
}

// approveGRN handles POST /api/grns/{number}/approve.
func (h *Handler) approveGRN(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ApproveGRN(r.Context(), orderNumber(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, okResponse{OK: true})
}
