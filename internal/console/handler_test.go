package console_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/access-audit-reports/internal"
	"github.com/frahmantamala/access-audit-reports/internal/console"
	"github.com/frahmantamala/access-audit-reports/internal/pagination"
	"github.com/frahmantamala/access-audit-reports/internal/selection"
	"github.com/frahmantamala/access-audit-reports/internal/template"
	"github.com/frahmantamala/access-audit-reports/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubTemplates map[string]*template.Template

func (s stubTemplates) Get(_ context.Context, id string) (*template.Template, error) {
	t, ok := s[id]
	if !ok {
		return nil, internal.ErrTemplateNotFound
	}
	return t, nil
}

var _ = Describe("Console Handler", func() {
	var (
		st     *suite
		router *chi.Mux
		saved  *template.Template
	)

	BeforeEach(func() {
		st = newSuite(time.Second)
		saved = template.NewTemplate("Profiles", "user_data", []string{"profiles", "profile.name"}, nil)
		handler := console.NewHandler(&transport.BaseHandler{Logger: st.logger}, st.registry, stubTemplates{saved.ID: saved})

		router = chi.NewRouter()
		router.Post("/sessions", handler.CreateSession)
		router.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", handler.GetSession)
			r.Delete("/", handler.DeleteSession)
			r.Put("/category", handler.SwitchCategory)
			r.Post("/toggle", handler.Toggle)
			r.Post("/reset", handler.Reset)
			r.Post("/run", handler.Run)
			r.Get("/page", handler.Page)
			r.Get("/export.csv", handler.ExportCSV)
			r.Post("/bulk-export", handler.BulkExport)
			r.Get("/notifications", handler.Notifications)
			r.Post("/templates/{templateID}/apply", handler.ApplyTemplate)
		})
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	create := func(category string) console.State {
		w := do(http.MethodPost, "/sessions", console.CreateSessionDTO{Category: category})
		Expect(w.Code).To(Equal(http.StatusCreated))
		var state console.State
		Expect(json.NewDecoder(w.Body).Decode(&state)).To(Succeed())
		return state
	}

	It("should create a session and report its state", func() {
		state := create("user_data")
		Expect(state.ID).NotTo(BeEmpty())
		Expect(state.UI.Category).To(Equal("user_data"))
		Expect(state.HasReport).To(BeFalse())

		w := do(http.MethodGet, "/sessions/"+state.ID, nil)
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("should return 404 for unknown sessions and categories", func() {
		Expect(do(http.MethodGet, "/sessions/missing", nil).Code).To(Equal(http.StatusNotFound))
		Expect(do(http.MethodPost, "/sessions", console.CreateSessionDTO{Category: "nope"}).Code).To(Equal(http.StatusNotFound))
	})

	It("should toggle, run, page and export", func() {
		id := create("user_data").ID

		w := do(http.MethodPost, "/sessions/"+id+"/toggle", console.ToggleDTO{NodeID: "user.email", Checked: true})
		Expect(w.Code).To(Equal(http.StatusOK))
		var ui selection.UIState
		Expect(json.NewDecoder(w.Body).Decode(&ui)).To(Succeed())
		Expect(ui.Selected).To(Equal([]string{"users", "user.email"}))

		w = do(http.MethodPost, "/sessions/"+id+"/run", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodGet, "/sessions/"+id+"/page?page=2&page_size=2", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var view pagination.PageView
		Expect(json.NewDecoder(w.Body).Decode(&view)).To(Succeed())
		Expect(view.CurrentPage).To(Equal(2))
		Expect(view.Rows).To(HaveLen(1))

		w = do(http.MethodGet, "/sessions/"+id+"/export.csv", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(HavePrefix("text/csv"))
		Expect(w.Header().Get("Content-Disposition")).To(ContainSubstring("user_data-"))
		Expect(w.Body.String()).To(HavePrefix(`"User Name","Email"`))
	})

	It("should reject a run with an empty selection", func() {
		id := create("user_data").ID
		w := do(http.MethodPost, "/sessions/"+id+"/run", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		var resp internal.Response
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Error.Code).To(Equal(internal.ErrCodeSelectionInvalid))
		Expect(st.provider.Calls()).To(BeEmpty())
	})

	It("should run a bulk export with an empty body", func() {
		id := create("user_data").ID
		do(http.MethodPost, "/sessions/"+id+"/toggle", console.ToggleDTO{NodeID: "users", Checked: true})

		req := httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/bulk-export", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var result console.BulkExportResult
		Expect(json.NewDecoder(w.Body).Decode(&result)).To(Succeed())
		Expect(result.Rows).To(Equal(4))

		st.bus.Wait()
		w = do(http.MethodGet, "/sessions/"+id+"/notifications", nil)
		var resp console.NotificationsResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Notifications).To(HaveLen(1))
		Expect(resp.Notifications[0].Title).To(Equal("Export ready"))
	})

	It("should apply a saved template", func() {
		id := create("sharing_settings").ID

		w := do(http.MethodPost, "/sessions/"+id+"/templates/"+saved.ID+"/apply", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var ui selection.UIState
		Expect(json.NewDecoder(w.Body).Decode(&ui)).To(Succeed())
		Expect(ui.Category).To(Equal("user_data"))
		Expect(ui.Selected).To(Equal([]string{"profiles", "profile.name"}))

		Expect(do(http.MethodPost, "/sessions/"+id+"/templates/missing/apply", nil).Code).To(Equal(http.StatusNotFound))
	})

	It("should switch category, reset and delete", func() {
		id := create("user_data").ID
		do(http.MethodPost, "/sessions/"+id+"/toggle", console.ToggleDTO{NodeID: "users", Checked: true})

		w := do(http.MethodPut, "/sessions/"+id+"/category", console.SwitchCategoryDTO{Category: "object_access"})
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodPost, "/sessions/"+id+"/reset", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		Expect(do(http.MethodDelete, "/sessions/"+id, nil).Code).To(Equal(http.StatusNoContent))
		Expect(do(http.MethodDelete, "/sessions/"+id, nil).Code).To(Equal(http.StatusNotFound))
	})
})
