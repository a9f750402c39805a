package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bistro-pos/internal/auth"
	"bistro-pos/internal/db"
	"bistro-pos/internal/metrics"
	"bistro-pos/internal/money"
	"bistro-pos/internal/order"
	"bistro-pos/internal/payment"
	"bistro-pos/internal/receipt"
	"bistro-pos/internal/report"
	"bistro-pos/internal/store/memory"
	"bistro-pos/internal/table"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router http.Handler
	store  *memory.Store
	table  *table.Table
	pizza  int64
}

// withActor stands in for the token middleware: X-Staff-ID becomes the actor.
func withActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Staff-ID"); id != "" {
			var staff int64
			fmt.Sscan(id, &staff)
			r = r.WithContext(auth.WithActor(r.Context(), auth.Actor{ID: staff, Role: auth.RoleCashier}))
		}
		next.ServeHTTP(w, r)
	})
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	s := memory.New(memory.WithClock(func() time.Time { return now }))
	ts := &testServer{store: s, table: s.AddTable(1, 4)}
	ts.pizza = s.AddMenuItem("Margherita", money.MustParse("8.99"), true).ID
	s.AddMenuItem("Lemonade", money.MustParse("6.99"), true)

	m := metrics.NewRegistry()
	orderSvc := order.NewService(s.Orders(), nil, m)
	paymentSvc := payment.NewService(s.Payments(), nil, m)
	receipts := receipt.NewService(paymentSvc, orderSvc, s.Tables(), receipt.Restaurant{Name: "Bistro"})
	reports := NewReportHandler(report.NewService(s.Reports()))
	reports.now = func() time.Time { return now }

	orders := NewOrderHandler(orderSvc)
	payments := NewPaymentHandler(paymentSvc, receipts)

	r := chi.NewRouter()
	r.Use(withActor)
	r.Get("/health", Health)
	r.Get("/metrics", Metrics(m))
	NewCatalogHandler(s.Tables(), s.Menu()).RegisterRoutes(r)
	r.Route("/orders", func(r chi.Router) {
		orders.RegisterRoutes(r)
		payments.RegisterOrderRoutes(r)
	})
	r.Route("/payments", payments.RegisterRoutes)
	r.Route("/reports", reports.RegisterRoutes)

	ts.router = r
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("X-Staff-ID", "7")
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestOrderAndPaymentFlow(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/orders", fmt.Sprintf(`{"table_id":%d}`, ts.table.ID))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode(t, rr)
	assert.Equal(t, "Pending", created["status"])
	assert.Equal(t, "0.00", created["total_amount"])
	orderID := int64(created["id"].(float64))

	rr = ts.do(t, http.MethodPost, fmt.Sprintf("/orders/%d/items", orderID),
		fmt.Sprintf(`{"items":[{"menu_item_id":%d,"quantity":2},{"menu_item_id":2,"quantity":1}]}`, ts.pizza))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "24.97", decode(t, rr)["total_amount"])

	rr = ts.do(t, http.MethodPost, fmt.Sprintf("/orders/%d/payments", orderID),
		`{"payment_method":"cash","tip":"2.50","amount_received":"30.00"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	paid := decode(t, rr)
	assert.Equal(t, "27.47", paid["total_paid"])
	assert.Equal(t, "2.53", paid["change_given"])
	paymentID := int64(paid["id"].(float64))

	rr = ts.do(t, http.MethodPost, fmt.Sprintf("/orders/%d/items", orderID), `{"menu_item_id":1,"quantity":1}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, decode(t, rr)["error"], "cannot add item: order is frozen")

	rr = ts.do(t, http.MethodGet, fmt.Sprintf("/payments/%d/receipt", paymentID), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "TOTAL PAID:")

	rr = ts.do(t, http.MethodGet, fmt.Sprintf("/payments/%d/receipt.pdf", paymentID), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "%PDF"))

	rr = ts.do(t, http.MethodPost, fmt.Sprintf("/payments/%d/cancel", paymentID), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "cancelled", decode(t, rr)["status"])

	rr = ts.do(t, http.MethodPost, fmt.Sprintf("/payments/%d/cancel", paymentID), "")
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = ts.do(t, http.MethodGet, fmt.Sprintf("/orders/%d", orderID), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Served", decode(t, rr)["status"])

	rr = ts.do(t, http.MethodGet, fmt.Sprintf("/payments?order_id=%d", orderID), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode(t, rr)["payments"], 1)
}

func TestOrderHandler_Errors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"BadBody", http.MethodPost, "/orders", `{`, http.StatusBadRequest},
		{"MissingTable", http.MethodPost, "/orders", `{}`, http.StatusBadRequest},
		{"UnknownTable", http.MethodPost, "/orders", `{"table_id":99}`, http.StatusNotFound},
		{"BadID", http.MethodGet, "/orders/abc", "", http.StatusBadRequest},
		{"UnknownOrder", http.MethodGet, "/orders/42", "", http.StatusNotFound},
		{"BadStatusFilter", http.MethodGet, "/orders?status=lost", "", http.StatusUnprocessableEntity},
		{"UnknownPayment", http.MethodGet, "/payments/5", "", http.StatusNotFound},
		{"BadReportRange", http.MethodGet, "/reports/sales?period=custom&start_date=nope", "", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestOrderHandler_RequiresActor(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"table_id":1}`))
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestOrderHandler_StatusAndItems(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/orders", fmt.Sprintf(`{"table_id":%d,"items":[{"menu_item_id":%d,"quantity":1}]}`, ts.table.ID, ts.pizza))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	o := decode(t, rr)
	orderID := int64(o["id"].(float64))
	itemID := int64(o["items"].([]any)[0].(map[string]any)["id"].(float64))

	rr = ts.do(t, http.MethodPatch, fmt.Sprintf("/orders/%d/items/%d", orderID, itemID), `{"quantity":0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = ts.do(t, http.MethodPatch, fmt.Sprintf("/orders/%d/items/%d", orderID, itemID), `{"quantity":3}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "26.97", decode(t, rr)["total_amount"])

	rr = ts.do(t, http.MethodPatch, fmt.Sprintf("/orders/%d/status", orderID), `{"status":"served"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = ts.do(t, http.MethodPatch, fmt.Sprintf("/orders/%d/status", orderID), `{"status":"preparing"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Preparing", decode(t, rr)["status"])

	rr = ts.do(t, http.MethodDelete, fmt.Sprintf("/orders/%d/items/%d", orderID, itemID), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "0.00", decode(t, rr)["total_amount"])

	rr = ts.do(t, http.MethodPost, fmt.Sprintf("/orders/%d/payments", orderID), `{"payment_method":"credit_card"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = ts.do(t, http.MethodGet, "/orders?unpaid=true&limit=5", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode(t, rr)
	assert.Len(t, list["orders"], 1)
	assert.Equal(t, float64(5), list["limit"])
}

func TestCatalogHandler(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodGet, "/menu", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode(t, rr)["items"], 2)

	rr = ts.do(t, http.MethodGet, "/menu/categories", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []any{}, decode(t, rr)["categories"])

	rr = ts.do(t, http.MethodGet, "/tables", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode(t, rr)["tables"], 1)

	rr = ts.do(t, http.MethodGet, fmt.Sprintf("/tables/%d", ts.table.ID), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "available", decode(t, rr)["status"])
}

func TestReportHandler(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/orders", fmt.Sprintf(`{"table_id":%d,"items":[{"menu_item_id":%d,"quantity":2}]}`, ts.table.ID, ts.pizza))
	require.Equal(t, http.StatusCreated, rr.Code)
	orderID := int64(decode(t, rr)["id"].(float64))
	rr = ts.do(t, http.MethodPost, fmt.Sprintf("/orders/%d/payments", orderID), `{"payment_method":"debit_card","tip":"1.00"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.do(t, http.MethodGet, "/reports/sales?period=today", "")
	require.Equal(t, http.StatusOK, rr.Code)
	sales := decode(t, rr)["sales_data"].(map[string]any)
	assert.Equal(t, "17.98", sales["total_sales"])
	assert.Equal(t, "18.98", sales["total_revenue"])

	rr = ts.do(t, http.MethodGet, "/reports/sales?period=today&format=csv", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "sales_report_2024-03-14_to_2024-03-14.csv")
	assert.Contains(t, rr.Body.String(), "Total Sales,17.98")

	rr = ts.do(t, http.MethodGet, "/reports/payments.csv?start_date=2024-03-01&end_date=2024-03-14", "")
	require.Equal(t, http.StatusOK, rr.Code)
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[1], "debit_card,17.98,1.00,18.98,7")
}

func TestSystemHandlers(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())

	ts.do(t, http.MethodPost, "/orders", fmt.Sprintf(`{"table_id":%d}`, ts.table.ID))
	rr = ts.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(1), decode(t, rr)["orders_created"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("cannot add item: %w", order.ErrOrderFrozen), http.StatusConflict},
		{fmt.Errorf("%w: order 1 changed", db.ErrConcurrentModification), http.StatusConflict},
		{payment.ErrInsufficientAmount, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: id 3", table.ErrTableNotFound), http.StatusNotFound},
		{auth.ErrNoActor, http.StatusUnauthorized},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestWriteError_HidesInternalErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/1", nil)

	writeError(rr, req, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rr.Body.String())
}
