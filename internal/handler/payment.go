package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"bistro-pos/internal/payment"
	"bistro-pos/internal/utils"

	"github.com/go-chi/chi/v5"
)

type ReceiptRenderer interface {
	Receipt(ctx context.Context, paymentID int64) (string, error)
	ReceiptPDF(ctx context.Context, paymentID int64) ([]byte, error)
}

type PaymentHandler struct {
	svc      payment.Service
	receipts ReceiptRenderer
}

func NewPaymentHandler(svc payment.Service, receipts ReceiptRenderer) *PaymentHandler {
	return &PaymentHandler{svc: svc, receipts: receipts}
}

// RegisterRoutes mounts the payment endpoints on a /payments subrouter.
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/cancel", h.Cancel)
	r.Get("/{id}/receipt", h.Receipt)
	r.Get("/{id}/receipt.pdf", h.ReceiptPDF)
}

// RegisterOrderRoutes mounts settlement on the /orders subrouter.
func (h *PaymentHandler) RegisterOrderRoutes(r chi.Router) {
	r.Post("/{id}/payments", h.Settle)
}

func (h *PaymentHandler) Settle(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var in payment.SettleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	in.OrderID = orderID

	p, err := h.svc.Settle(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, p)
}

func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	var orderID *int64
	if s := r.URL.Query().Get("order_id"); s != "" {
		id, err := utils.ParseID(s)
		if err != nil {
			utils.WriteJSONError(w, "invalid order_id", http.StatusBadRequest)
			return
		}
		orderID = utils.Int64Ptr(id)
	}

	payments, err := h.svc.ListPayments(r.Context(), orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.svc.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.svc.Cancel(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

func (h *PaymentHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	text, err := h.receipts.Receipt(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func (h *PaymentHandler) ReceiptPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	doc, err := h.receipts.ReceiptPDF(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="receipt_%d.pdf"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
