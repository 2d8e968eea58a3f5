package handlers

import (
	"context"
	"io"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/service"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/storage"
)

// ImageStore is the product image storage used by the image endpoints.
type ImageStore interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	Open(ctx context.Context, id string) (*storage.Image, error)
	Delete(ctx context.Context, url string) error
}

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

// Handlers holds all HTTP handlers for the storefront service.
type Handlers struct {
	storefront *service.StorefrontService
	checkout   *service.CheckoutService
	catalog    *service.CatalogService
	orders     *service.OrderService
	images     ImageStore
	metrics    *metrics.Metrics
	checks     map[string]Checker
	config     *config.Config
	logger     *logging.LoggerV2
}

// Options carries the optional collaborators. A nil Images disables the
// image endpoints.
type Options struct {
	Images  ImageStore
	Metrics *metrics.Metrics
	Checks  map[string]Checker
}

// NewHandlers creates a new handlers instance.
func NewHandlers(
	storefront *service.StorefrontService,
	checkout *service.CheckoutService,
	catalog *service.CatalogService,
	orders *service.OrderService,
	cfg *config.Config,
	opts Options,
) *Handlers {
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &Handlers{
		storefront: storefront,
		checkout:   checkout,
		catalog:    catalog,
		orders:     orders,
		images:     opts.Images,
		metrics:    m,
		checks:     opts.Checks,
		config:     cfg,
		logger:     logging.NewLoggerV2("handlers"),
	}
}
