package template

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"

	errors "github.com/frahmantamala/access-audit-reports/internal"
	"github.com/frahmantamala/access-audit-reports/internal/transport"
)

type ServiceAPI interface {
	Save(ctx context.Context, dto SaveTemplateDTO) (string, error)
	Load(ctx context.Context, category string) ([]*Template, error)
	Get(ctx context.Context, id string) (*Template, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		h.HandleServiceError(w, errors.NewValidationFieldError("category", "category is required", errors.ErrCodeValidationFailed))
		return
	}

	templates, err := h.Service.Load(r.Context(), category)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp := TemplatesResponse{Templates: make([]TemplateResponse, 0, len(templates))}
	for _, t := range templates {
		resp.Templates = append(resp.Templates, t.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	var dto SaveTemplateDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Warn("SaveTemplate: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.Service.Save(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, SaveTemplateResponse{ID: id})
}

func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Service.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, DeleteTemplateResponse{Deleted: deleted})
}
