package handler

import (
	"context"
	"net/http"

	"bistro-pos/internal/menu"
	"bistro-pos/internal/table"
	"bistro-pos/internal/utils"

	"github.com/go-chi/chi/v5"
)

type TableReader interface {
	GetByID(ctx context.Context, tableID int64) (*table.Table, error)
	List(ctx context.Context) ([]*table.Table, error)
}

type MenuReader interface {
	ListAvailable(ctx context.Context) ([]*menu.Item, error)
	ListCategories(ctx context.Context) ([]*menu.Category, error)
}

type CatalogHandler struct {
	tables TableReader
	menu   MenuReader
}

func NewCatalogHandler(tables TableReader, menu MenuReader) *CatalogHandler {
	return &CatalogHandler{tables: tables, menu: menu}
}

func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.Menu)
	r.Get("/menu/categories", h.Categories)
	r.Get("/tables", h.Tables)
	r.Get("/tables/{id}", h.Table)
}

func (h *CatalogHandler) Menu(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.ListAvailable(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []*menu.Item{}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.menu.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if categories == nil {
		categories = []*menu.Category{}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *CatalogHandler) Tables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.tables.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tables == nil {
		tables = []*table.Table{}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

func (h *CatalogHandler) Table(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	t, err := h.tables.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, t)
}
