package httpapi

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kasirbuku/backend/internal/analytics"
	"kasirbuku/backend/internal/cache"
	"kasirbuku/backend/internal/domain"
	"kasirbuku/backend/internal/service"
	"kasirbuku/backend/internal/store/memory"
)

// newTestAPI builds a full API over an in-memory store and a real Service so
// handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.New()
	engine := analytics.NewEngine(cache.NoopDashboardCache{}, time.Second)
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	svc := service.New(repo, engine, service.WithClock(func() time.Time { return now }), service.WithLocation(time.UTC))

	return New(svc, "*")
}

func doJSON(t *testing.T, handler http.Handler, method string, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dest); err != nil {
		t.Fatalf("decode body: %v (raw: %s)", err, rec.Body.String())
	}
}

func createProduct(t *testing.T, handler http.Handler, name string, initialStock int) domain.ProductView {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/products", domain.ProductCreateRequest{
		Name:            name,
		AcquisitionCost: 20,
		InitialStock:    initialStock,
		SellPrice:       5,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating product, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Product domain.ProductView `json:"product"`
	}
	decodeBody(t, rec, &body)
	return body.Product
}

func TestHandleHealth(t *testing.T) {
	handler := newTestAPI(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	decodeBody(t, rec, &body)
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestProductLifecycle(t *testing.T) {
	handler := newTestAPI(t).Handler()
	p := createProduct(t, handler, "Kopi Sachet", 10)
	if p.Stock != 10 || p.UnitCost != 2 || p.UnitMargin != 3 {
		t.Fatalf("unexpected product view %+v", p)
	}

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/products?q=kopi", nil)
	var list struct {
		Products []domain.ProductView `json:"products"`
	}
	decodeBody(t, rec, &list)
	if len(list.Products) != 1 {
		t.Fatalf("expected search to find 1 product, got %d", len(list.Products))
	}

	price := 6.0
	rec = doJSON(t, handler, http.MethodPatch, fmt.Sprintf("/api/v1/products/%d", p.ID), domain.ProductUpdateRequest{SellPrice: &price})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on patch, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodDelete, fmt.Sprintf("/api/v1/products/%d", p.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", p.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestProductValidationReturns400(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/products", domain.ProductCreateRequest{Name: "", SellPrice: 5})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty name, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/products/abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/products", map[string]any{"name": "X", "unknown": 1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestSaleLifecycleMovesStock(t *testing.T) {
	handler := newTestAPI(t).Handler()
	p := createProduct(t, handler, "P", 10)

	draft := domain.SaleDraft{
		Client:        "Ani",
		Date:          "2026-10-16",
		Items:         []domain.CartLine{{ProductID: p.ID, Quantity: 3}},
		PaymentStatus: domain.PaymentPaid,
	}
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", draft)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var created struct {
		Sale domain.Sale `json:"sale"`
	}
	decodeBody(t, rec, &created)
	if created.Sale.Total != 15 || created.Sale.Profit != 9 {
		t.Fatalf("unexpected sale %+v", created.Sale)
	}

	draft.Items[0].Quantity = 5
	rec = doJSON(t, handler, http.MethodPut, fmt.Sprintf("/api/v1/sales/%d", created.Sale.ID), draft)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", p.ID), nil)
	var got struct {
		Product domain.ProductView `json:"product"`
	}
	decodeBody(t, rec, &got)
	if got.Product.Stock != 5 {
		t.Fatalf("expected stock 5 after update, got %d", got.Product.Stock)
	}

	rec = doJSON(t, handler, http.MethodDelete, fmt.Sprintf("/api/v1/sales/%d", created.Sale.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/v1/sales/%d", created.Sale.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for deleted sale, got %d", rec.Code)
	}
}

func TestInsufficientStockReturns409(t *testing.T) {
	handler := newTestAPI(t).Handler()
	p := createProduct(t, handler, "P", 2)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", domain.SaleDraft{
		Client: "Ani",
		Date:   "2026-10-16",
		Items:  []domain.CartLine{{ProductID: p.ID, Quantity: 3}},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var body map[string]any
	decodeBody(t, rec, &body)
	if body["kind"] != "insufficient_stock" || body["available"] != float64(2) || body["requested"] != float64(3) {
		t.Fatalf("unexpected error body %v", body)
	}
}

func TestEmptyCartReturns400(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", domain.SaleDraft{Client: "Ani", Date: "2026-10-16"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAddToCartMergesLines(t *testing.T) {
	handler := newTestAPI(t).Handler()
	p := createProduct(t, handler, "P", 10)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/cart/items", domain.AddToCartRequest{
		Cart:      []domain.CartLine{{ProductID: p.ID, Quantity: 4}},
		ProductID: p.ID,
		Quantity:  3,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Cart []domain.CartLine `json:"cart"`
	}
	decodeBody(t, rec, &body)
	if len(body.Cart) != 1 || body.Cart[0].Quantity != 7 {
		t.Fatalf("expected a single merged line of 7, got %+v", body.Cart)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/cart/items", domain.AddToCartRequest{
		Cart:      body.Cart,
		ProductID: p.ID,
		Quantity:  4,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 when merged quantity exceeds stock, got %d", rec.Code)
	}
}

func TestDebtorsAndClientHistory(t *testing.T) {
	handler := newTestAPI(t).Handler()
	p := createProduct(t, handler, "P", 10)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", domain.SaleDraft{
		Client:        "Bu Sari",
		Date:          "2026-10-10",
		Items:         []domain.CartLine{{ProductID: p.ID, Quantity: 2}},
		PaymentStatus: domain.PaymentUnpaid,
		DueDate:       "2026-10-15",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/debtors", nil)
	var report domain.DebtorReport
	decodeBody(t, rec, &report)
	if report.DebtorsCount != 1 || report.TotalDebt != 10 || !report.Debtors[0].Overdue {
		t.Fatalf("unexpected debtor report %+v", report)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/clients/Bu%20Sari/sales", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var history struct {
		Client string        `json:"client"`
		Sales  []domain.Sale `json:"sales"`
	}
	decodeBody(t, rec, &history)
	if history.Client != "Bu Sari" || len(history.Sales) != 1 {
		t.Fatalf("unexpected client history %+v", history)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/sales?status=unpaid&q=sari", nil)
	var list struct {
		Sales []domain.Sale `json:"sales"`
	}
	decodeBody(t, rec, &list)
	if len(list.Sales) != 1 {
		t.Fatalf("expected filtered sale, got %d", len(list.Sales))
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/sales?status=refunded", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}
}

func TestAnalyticsDashboard(t *testing.T) {
	handler := newTestAPI(t).Handler()
	p := createProduct(t, handler, "P", 10)
	doJSON(t, handler, http.MethodPost, "/api/v1/sales", domain.SaleDraft{
		Client: "Ani",
		Date:   "2026-10-16",
		Items:  []domain.CartLine{{ProductID: p.ID, Quantity: 2}},
	})

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/analytics?period=day", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var dashboard domain.Dashboard
	decodeBody(t, rec, &dashboard)
	if dashboard.Summary.TotalSales != 10 || dashboard.Summary.SalesCount != 1 {
		t.Fatalf("unexpected summary %+v", dashboard.Summary)
	}
	if len(dashboard.DailySales) != analytics.DailySalesDays || len(dashboard.TopProducts) != 1 {
		t.Fatalf("unexpected series lengths: daily=%d top=%d", len(dashboard.DailySales), len(dashboard.TopProducts))
	}
}

func TestSalesReportCSV(t *testing.T) {
	handler := newTestAPI(t).Handler()
	p := createProduct(t, handler, "Kopi, Bubuk", 10)
	doJSON(t, handler, http.MethodPost, "/api/v1/sales", domain.SaleDraft{
		Client: "Ani",
		Date:   "2026-10-05",
		Items:  []domain.CartLine{{ProductID: p.ID, Quantity: 2}},
	})

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/reports/sales?start=2026-10-01&end=2026-10-16&format=csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("expected csv content type, got %q", got)
	}

	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header, one row and totals, got %d records", len(records))
	}
	row := records[1]
	if row[1] != "Ani" || row[2] != "Kopi, Bubuk" || row[3] != "2" || row[4] != "10.00" || row[5] != "6.00" {
		t.Fatalf("unexpected csv row %v", row)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reports/sales?start=2026-10-16&end=2026-10-01", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for reversed range, got %d", rec.Code)
	}
}

func TestAuditLogsRecordMutations(t *testing.T) {
	handler := newTestAPI(t).Handler()
	createProduct(t, handler, "P", 10)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/audit-logs?limit=5", nil)
	var body struct {
		Logs []domain.AuditLog `json:"logs"`
	}
	decodeBody(t, rec, &body)
	if len(body.Logs) != 1 || body.Logs[0].Action != "product.create" {
		t.Fatalf("unexpected audit logs %+v", body.Logs)
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodPatch, "/api/v1/debtors", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
