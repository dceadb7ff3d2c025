package template_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/go-chi/chi"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	templateDatamodel "github.com/frahmantamala/access-audit-reports/internal/core/datamodel/template"
	"github.com/frahmantamala/access-audit-reports/internal/template"
	templatePostgres "github.com/frahmantamala/access-audit-reports/internal/template/postgres"
	"github.com/frahmantamala/access-audit-reports/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Template Handler Integration", func() {
	var (
		service *template.Service
		router  chi.Router
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&templateDatamodel.ReportTemplate{})).To(Succeed())

		service = template.NewService(templatePostgres.NewTemplateRepository(db), knownCategories{"user_data"}, slogger)
		handler := template.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		router = chi.NewRouter()
		router.Get("/templates", handler.ListTemplates)
		router.Post("/templates", handler.SaveTemplate)
		router.Delete("/templates/{id}", handler.DeleteTemplate)
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("saves and lists templates", func() {
		w := do(http.MethodPost, "/templates", template.SaveTemplateDTO{
			Name:      "Basic users",
			Category:  "user_data",
			Selection: []string{"users", "user.name"},
		})
		Expect(w.Code).To(Equal(http.StatusCreated))

		w = do(http.MethodGet, "/templates?category=user_data", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp template.TemplatesResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Templates).To(HaveLen(1))
		Expect(resp.Templates[0].Selection).To(Equal([]string{"users", "user.name"}))
	})

	It("returns 409 for duplicate names", func() {
		dto := template.SaveTemplateDTO{Name: "dup", Category: "user_data", Selection: []string{"users"}}
		Expect(do(http.MethodPost, "/templates", dto).Code).To(Equal(http.StatusCreated))
		Expect(do(http.MethodPost, "/templates", dto).Code).To(Equal(http.StatusConflict))
	})

	It("returns 400 for invalid payloads", func() {
		Expect(do(http.MethodPost, "/templates", template.SaveTemplateDTO{Name: "x", Category: "user_data"}).Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodGet, "/templates", nil).Code).To(Equal(http.StatusBadRequest))
	})

	It("deletes templates", func() {
		id, err := service.Save(context.Background(), template.SaveTemplateDTO{Name: "x", Category: "user_data", Selection: []string{"users"}})
		Expect(err).NotTo(HaveOccurred())

		w := do(http.MethodDelete, "/templates/"+id, nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp template.DeleteTemplateResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Deleted).To(BeTrue())
	})
})
