package catalog

import (
	"net/http"

	"github.com/frahmantamala/access-audit-reports/internal"
	"github.com/frahmantamala/access-audit-reports/internal/transport"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	Catalog *Catalog
}

func NewHandler(baseHandler *transport.BaseHandler, c *Catalog) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Catalog:     c,
	}
}

func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.Catalog.Categories()
	resp := CategoriesResponse{Categories: make([]CategorySummary, 0, len(categories))}
	for _, cat := range categories {
		resp.Categories = append(resp.Categories, CategorySummary{ID: cat.ID, Label: cat.Label})
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "category")
	cat, ok := h.Catalog.Category(id)
	if !ok {
		h.Logger.Warn("GetCategory: unknown category", "category", id)
		h.HandleServiceError(w, internal.ErrUnknownCategory)
		return
	}
	h.WriteJSON(w, http.StatusOK, cat.ToResponse())
}
