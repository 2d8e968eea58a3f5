package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/currency"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/service"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/session"
)

type emptyCatalog struct {
	repository.ProductRepository
}

func (emptyCatalog) List(context.Context) ([]models.Product, error) {
	return nil, nil
}

func (emptyCatalog) GetByID(context.Context, string) (*models.Product, error) {
	return nil, errors.ErrNotFound
}

func newTestServer(t *testing.T, accessCode string) *Server {
	t.Helper()
	logger := logging.NewNopLogger()

	sessions, err := session.NewManager(currency.DefaultTable(), currency.EUR, nil, logger)
	require.NoError(t, err)

	cfg := &config.Config{
		Server:  config.ServerConfig{Port: 0, Mode: "test"},
		Admin:   config.AdminConfig{Username: "admin", AccessCode: accessCode},
		Session: config.SessionConfig{CookieName: "sid", MaxAge: time.Hour},
	}
	catalog := service.NewCatalogService(emptyCatalog{}, nil, nil, config.FeatureFlags{}, logger)
	m := metrics.New()

	h := handlers.NewHandlers(
		service.NewStorefrontService(catalog, sessions, logger),
		nil,
		catalog,
		nil,
		cfg,
		handlers.Options{Metrics: m},
	)
	return New(h, m, cfg)
}

func TestAdminAuth(t *testing.T) {
	tests := []struct {
		name       string
		accessCode string
		user, pass string
		expected   int
	}{
		{"no credentials", "s3cret", "", "", http.StatusUnauthorized},
		{"wrong code", "s3cret", "admin", "guess", http.StatusUnauthorized},
		{"valid credentials", "s3cret", "admin", "s3cret", http.StatusOK},
		{"admin disabled", "", "admin", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.accessCode)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products/refresh", nil)
			if tt.user != "" {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			w := httptest.NewRecorder()
			srv.Router().ServeHTTP(w, req)

			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestRoutes_Health(t *testing.T) {
	srv := newTestServer(t, "s3cret")

	for _, path := range []string{"/health", "/ready", "/live", "/version", "/metrics"} {
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRoutes_ShopperSession(t *testing.T) {
	srv := newTestServer(t, "s3cret")

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/currency", nil))
	require.Equal(t, http.StatusOK, w.Code)

	sid := w.Header().Get(middleware.SessionHeader)
	assert.NotEmpty(t, sid)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodPut, "/api/v1/currency", nil)
	req.Header.Set(middleware.SessionHeader, sid)
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoutes_FeaturedAndEndSession(t *testing.T) {
	srv := newTestServer(t, "s3cret")

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products/featured", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/session", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
