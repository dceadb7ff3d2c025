package console

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/access-audit-reports/internal"
	"github.com/frahmantamala/access-audit-reports/internal/template"
	"github.com/frahmantamala/access-audit-reports/internal/transport"
	"github.com/frahmantamala/access-audit-reports/pkg/logger"
)

// TemplateGetter loads a saved template by id.
type TemplateGetter interface {
	Get(ctx context.Context, id string) (*template.Template, error)
}

type Handler struct {
	*transport.BaseHandler
	Registry  *Registry
	Templates TemplateGetter
}

func NewHandler(baseHandler *transport.BaseHandler, registry *Registry, templates TemplateGetter) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Registry:    registry,
		Templates:   templates,
	}
}

// session resolves the {id} URL parameter and tags the request context with it.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, *http.Request, bool) {
	s, err := h.Registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return nil, r, false
	}
	ctx := internal.ContextWithSessionID(r.Context(), s.ID)
	ctx = logger.With(ctx, "session_id", s.ID)
	return s, r.WithContext(ctx), true
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var dto CreateSessionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s, err := h.Registry.Create(dto.Category)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, s.State())
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(w, r)
	if !ok {
		return
	}
	h.WriteJSON(w, http.StatusOK, s.State())
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.Registry.Delete(chi.URLParam(r, "id")) {
		h.HandleServiceError(w, internal.ErrSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SwitchCategory(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(w, r)
	if !ok {
		return
	}
	var dto SwitchCategoryDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ui, err := s.SwitchCategory(dto.Category)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ui)
}

func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(w, r)
	if !ok {
		return
	}
	var dto ToggleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.WriteJSON(w, http.StatusOK, s.Toggle(dto.NodeID, dto.ParentID, dto.Checked))
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(w, r)
	if !ok {
		return
	}
	h.WriteJSON(w, http.StatusOK, s.Reset())
}

func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	s, r, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := s.Run(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := s.Page(h.QueryInt(r, "page", 0), h.QueryInt(r, "page_size", 0))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	s, r, ok := h.session(w, r)
	if !ok {
		return
	}
	artifact, err := s.ExportCSV(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+artifact.Name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Content); err != nil {
		h.Logger.Error("ExportCSV: failed to write response", "error", err)
	}
}

func (h *Handler) BulkExport(w http.ResponseWriter, r *http.Request) {
	s, r, ok := h.session(w, r)
	if !ok {
		return
	}
	var dto BulkExportDTO
	if r.ContentLength != 0 {
		if err := h.DecodeJSON(r, &dto); err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	result, err := s.BulkExport(r.Context(), dto.IdentityFilterValues)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	s, r, ok := h.session(w, r)
	if !ok {
		return
	}
	var dto CompareDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	view, err := s.Compare(r.Context(), dto.Entities)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.session(w, r)
	if !ok {
		return
	}
	h.WriteJSON(w, http.StatusOK, NotificationsResponse{Notifications: s.Notifications()})
}

func (h *Handler) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	s, r, ok := h.session(w, r)
	if !ok {
		return
	}
	t, err := h.Templates.Get(r.Context(), chi.URLParam(r, "templateID"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	ui, err := s.ApplyTemplate(r.Context(), t)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ui)
}
