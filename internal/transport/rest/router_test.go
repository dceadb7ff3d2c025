package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/frahmantamala/access-audit-reports/internal/catalog"
	"github.com/frahmantamala/access-audit-reports/internal/transport"
	"github.com/frahmantamala/access-audit-reports/internal/transport/rest"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Rest Suite")
}

var _ = Describe("RegisterAllRoutes", func() {
	var (
		router *chi.Mux
		logger *slog.Logger
	)

	serve := func(method, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		return rec
	}

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		router = chi.NewRouter()
	})

	It("should answer ping", func() {
		rest.RegisterAllRoutes(router, rest.Handlers{}, []string{"*"}, logger)

		rec := serve(http.MethodGet, "/api/v1/ping")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"status":"OK"`))
	})

	It("should serve the OpenAPI document", func() {
		rest.RegisterAllRoutes(router, rest.Handlers{}, []string{"*"}, logger)

		rec := serve(http.MethodGet, "/openapi.yml")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("openapi: 3.0.3"))
	})

	It("should mount the catalog when its handler is present", func() {
		cat := catalog.MustDefault()
		rest.RegisterAllRoutes(router, rest.Handlers{Catalog: catalog.NewHandler(transport.NewBaseHandler(logger), cat)}, []string{"*"}, logger)

		Expect(serve(http.MethodGet, "/api/v1/categories").Code).To(Equal(http.StatusOK))
		Expect(serve(http.MethodGet, "/api/v1/sessions/x").Code).To(Equal(http.StatusNotFound))
	})

	Describe("health", func() {
		It("should report healthy with no components", func() {
			rest.RegisterAllRoutes(router, rest.Handlers{}, []string{"*"}, logger)

			rec := serve(http.MethodGet, "/api/v1/health")
			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp rest.HealthResponse
			Expect(json.NewDecoder(rec.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Status).To(Equal(rest.HealthHealthy))
		})

		It("should return 503 when a component fails", func() {
			health := rest.NewHealthHandler().
				WithCheck("postgres", func(context.Context) error { return nil }).
				WithCheck("redis", func(context.Context) error { return errors.New("connection refused") }).
				WithCheck("ignored", nil)
			rest.RegisterAllRoutes(router, rest.Handlers{Health: health}, []string{"*"}, logger)

			rec := serve(http.MethodGet, "/api/v1/health")
			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))

			var resp rest.HealthResponse
			Expect(json.NewDecoder(rec.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Status).To(Equal(rest.HealthUnhealthy))
			Expect(resp.Components).To(HaveLen(2))
			Expect(resp.Components["postgres"].Status).To(Equal(rest.HealthHealthy))
			Expect(resp.Components["redis"].Message).To(Equal("connection refused"))
		})
	})
})
