package catalog_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/access-audit-reports/internal/catalog"
	"github.com/frahmantamala/access-audit-reports/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Catalog Handler", func() {
	var router *chi.Mux

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler := catalog.NewHandler(&transport.BaseHandler{Logger: slogger}, catalog.MustDefault())

		router = chi.NewRouter()
		router.Get("/categories", handler.GetCategories)
		router.Get("/categories/{category}", handler.GetCategory)
	})

	It("should list categories", func() {
		req := httptest.NewRequest(http.MethodGet, "/categories", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp catalog.CategoriesResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Categories).To(HaveLen(4))
		Expect(resp.Categories[0]).To(Equal(catalog.CategorySummary{ID: "user_data", Label: "User Data"}))
	})

	It("should return a category tree", func() {
		req := httptest.NewRequest(http.MethodGet, "/categories/permission_assignment", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp catalog.CategoryResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Sources).To(HaveLen(2))
		Expect(resp.Nodes[0].Children).To(HaveLen(6))
	})

	It("should return 404 for an unknown category", func() {
		req := httptest.NewRequest(http.MethodGet, "/categories/unknown", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
