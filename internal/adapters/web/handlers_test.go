package web_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"orderdesk/internal/adapters/web"
	"orderdesk/internal/app"
	"orderdesk/internal/core"
	"orderdesk/internal/tablestore"
)

// newTestServer wires the real application service over an in-memory store.
func newTestServer(t *testing.T) (*httptest.Server, *tablestore.MemStore) {
	t.Helper()
	store := tablestore.NewMemStore()
	log := zerolog.Nop()
	cfg := core.DefaultConfig()
	cfg.OutletCodes = map[string]string{"Store A": "STA"}

	bins := core.NewBinningEngine(store, cfg, log)
	rules := core.NewBusinessRuleEngine(store, log)
	classifier := core.NewSKUClassifier(store, bins, cfg, log)
	orders := core.NewOrderLifecycleManager(store, rules, core.LogMailer{Log: log}, cfg, log)
	grn := core.NewGRNService(store, orders, cfg, log)
	svc := app.NewAppService(classifier, bins, rules, orders, grn)

	srv := httptest.NewServer(web.NewHandler(svc, "", log))
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response of %s: %v", url, err)
	}
	return resp, decoded
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Request-ID"); got == "" {
		t.Error("missing X-Request-ID header")
	}
}

// seedCatalog fills the classification, distributor and vendor tables the
// order endpoints read from.
func seedCatalog(t *testing.T, store *tablestore.MemStore) {
	t.Helper()
	ctx := context.Background()
	err := store.ReplaceTable(ctx, core.TableSKUClassification,
		[]string{"Outlet", "Brand", "SKU", "ItemName", "AvgCost", "CS", "FinalOrderQty", "Justification"},
		[][]string{{"Store A", "B1", "SKU1", "Widget", "100", "0", "10", ""}},
	)
	if err != nil {
		t.Fatal(err)
	}
	err = store.ReplaceTable(ctx, core.TableDistributorMatrix,
		[]string{"Brand", "Store A"}, [][]string{{"B1", "Acme Dist"}})
	if err != nil {
		t.Fatal(err)
	}
	err = store.ReplaceTable(ctx, core.TableVendorDetails,
		[]string{"DISTRIBUTOR NAME", "EMAIL ID"}, [][]string{{"Acme Dist", "acme@example.com"}})
	if err != nil {
		t.Fatal(err)
	}
}

func TestCustomerOrderEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	seedCatalog(t, store)

	t.Run("valid order", func(t *testing.T) {
		resp, body := postJSON(t, srv.URL+"/api/customer-orders", `{
			"outlet": "Store A", "brand": "B1",
			"customer_name": "Asha Rao", "customer_email": "asha@example.com",
			"item_code": "SKU1", "quantity": 10
		}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
		}
		if body["value"] != "1000.00" {
			t.Errorf("value = %v, want 1000.00", body["value"])
		}
		if body["approved"] != true {
			t.Errorf("approved = %v, want auto-approval below the limit", body["approved"])
		}
		number, _ := body["order_number"].(string)
		if !strings.HasPrefix(number, "CO-STA-") {
			t.Errorf("order_number = %q", number)
		}
	})

	t.Run("missing field maps to 400", func(t *testing.T) {
		resp, body := postJSON(t, srv.URL+"/api/customer-orders", `{
			"outlet": "Store A", "brand": "B1", "item_code": "SKU1", "quantity": 10
		}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
		if body["code"] != "VALIDATION_FAILED" {
			t.Errorf("code = %v, want VALIDATION_FAILED", body["code"])
		}
	})

	t.Run("malformed JSON maps to 400", func(t *testing.T) {
		resp, body := postJSON(t, srv.URL+"/api/customer-orders", `{"outlet":`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
		if body["code"] != "BAD_REQUEST" {
			t.Errorf("code = %v, want BAD_REQUEST", body["code"])
		}
	})
}

func TestPurchaseOrderEndpoints(t *testing.T) {
	srv, store := newTestServer(t)
	seedCatalog(t, store)

	resp, body := postJSON(t, srv.URL+"/api/purchase-orders", `{"outlet": "Store A", "brand": "B1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create status = %d, body = %v", resp.StatusCode, body)
	}
	number, _ := body["order_number"].(string)
	if number != "1001" {
		t.Errorf("order_number = %q, want 1001", number)
	}

	resp, _ = postJSON(t, srv.URL+"/api/purchase-orders/"+number+"/approve", `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve status = %d", resp.StatusCode)
	}
	resp, _ = postJSON(t, srv.URL+"/api/purchase-orders/"+number+"/send", `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("send status = %d", resp.StatusCode)
	}

	t.Run("unknown order maps to 404", func(t *testing.T) {
		resp, body := postJSON(t, srv.URL+"/api/purchase-orders/9999/approve", `{}`)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", resp.StatusCode)
		}
		if body["code"] != "NOT_FOUND" {
			t.Errorf("code = %v, want NOT_FOUND", body["code"])
		}
	})

	t.Run("receipt against the sent order", func(t *testing.T) {
		resp, body := postJSON(t, srv.URL+"/api/grns",
			`{"order_number": "1001", "invoice_number": "INV-1", "amount": "500"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
		}
		if body["grn_number"] != "GRN-1001-001" {
			t.Errorf("grn_number = %v", body["grn_number"])
		}
	})
}
