package handler

import (
	"encoding/json"
	"net/http"

	"bistro-pos/internal/order"
	"bistro-pos/internal/utils"

	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	svc order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterRoutes mounts the order endpoints on a /orders subrouter.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/items", h.AddItems)
	r.Patch("/{id}/items/{itemID}", h.UpdateItem)
	r.Delete("/{id}/items/{itemID}", h.RemoveItem)
	r.Patch("/{id}/status", h.UpdateStatus)
}

// addItemsRequest accepts either {"items":[...]} or a single item body.
type addItemsRequest struct {
	Items []order.ItemInput `json:"items"`
	order.ItemInput
}

func (req addItemsRequest) inputs() []order.ItemInput {
	if len(req.Items) > 0 {
		return req.Items
	}
	if req.MenuItemID > 0 {
		return []order.ItemInput{req.ItemInput}
	}
	return nil
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req order.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.TableID <= 0 {
		utils.WriteJSONError(w, "table_id is required", http.StatusBadRequest)
		return
	}

	o, err := h.svc.CreateOrder(r.Context(), actor, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := order.Filter{
		Limit: atoiDefault(q.Get("limit"), 0),
		Page:  atoiDefault(q.Get("page"), 1),
	}
	if s := q.Get("status"); s != "" {
		st, err := order.ParseStatus(s)
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.Status = &st
	}
	if s := q.Get("table_id"); s != "" {
		id, err := utils.ParseID(s)
		if err != nil {
			utils.WriteJSONError(w, "invalid table_id", http.StatusBadRequest)
			return
		}
		f.TableID = utils.Int64Ptr(id)
	}
	if s := q.Get("staff_id"); s != "" {
		id, err := utils.ParseID(s)
		if err != nil {
			utils.WriteJSONError(w, "invalid staff_id", http.StatusBadRequest)
			return
		}
		f.StaffID = utils.Int64Ptr(id)
	}
	f.Unpaid = q.Get("unpaid") == "true" || q.Get("unpaid") == "1"

	orders, err := h.svc.ListOrders(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	f = f.Normalize()
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"orders": orders,
		"limit":  f.Limit,
		"page":   f.Page,
	})
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	o, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) AddItems(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req addItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.svc.AddLineItems(r.Context(), actor, id, req.inputs())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}

	var patch order.ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.svc.UpdateLineItem(r.Context(), actor, id, itemID, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}

	o, err := h.svc.RemoveLineItem(r.Context(), actor, id, itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	to, err := order.ParseStatus(req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.svc.SetStatus(r.Context(), actor, id, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}
