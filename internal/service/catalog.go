package service

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

const catalogFlightKey = "catalog"

const (
	featuredLimit     = 4
	featuredMinRating = 4.7
)

// ImageRemover deletes stored product images.
type ImageRemover interface {
	Delete(ctx context.Context, url string) error
}

// CatalogService serves the product catalog.
type CatalogService struct {
	repo     repository.ProductRepository
	cache    repository.ProductCache
	images   ImageRemover
	features config.FeatureFlags
	logger   *logging.LoggerV2
	flight   singleflight.Group

	// generation is bumped by every write; a fill that started under an
	// older generation must not leave its result in the cache.
	generation atomic.Uint64
}

// NewCatalogService creates a catalog service. cache and images may be nil.
func NewCatalogService(
	repo repository.ProductRepository,
	cache repository.ProductCache,
	images ImageRemover,
	features config.FeatureFlags,
	logger *logging.LoggerV2,
) *CatalogService {
	return &CatalogService{
		repo:     repo,
		cache:    cache,
		images:   images,
		features: features,
		logger:   logger,
	}
}

// ListProducts returns the filtered and sorted catalog.
func (s *CatalogService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	products, err := s.allProducts(ctx)
	if err != nil {
		return nil, err
	}

	out := FilterProducts(products, filter)
	SortProducts(out, filter.Sort)
	return out, nil
}

// FeaturedProducts returns the home page selection.
func (s *CatalogService) FeaturedProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.allProducts(ctx)
	if err != nil {
		return nil, err
	}
	return FeaturedProducts(products, featuredLimit), nil
}

// GetProduct returns one product or errors.ErrNotFound.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if s.cachingEnabled() {
		p, err := s.cache.Get(ctx, id)
		if err != nil {
			s.logger.Warn("Product cache read failed", logging.Fields{
				"product_id": id,
				"error":      err.Error(),
			})
		} else if p != nil {
			return p, nil
		}
	}

	v, err, _ := s.flight.Do("product:"+id, func() (interface{}, error) {
		gen := s.generation.Load()
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if s.cachingEnabled() {
			if err := s.cache.Set(ctx, p); err != nil {
				s.logger.Warn("Product cache write failed", logging.Fields{
					"product_id": id,
					"error":      err.Error(),
				})
			}
			s.dropIfStale(ctx, gen)
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Product), nil
}

// CreateProduct validates and stores a new product.
func (s *CatalogService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	if err := ValidateCreateProductRequest(req); err != nil {
		return nil, err
	}

	p, err := s.repo.Create(ctx, req.ToProduct())
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, p.ID)
	s.logger.Info("Product created", logging.Fields{
		"product_id": p.ID,
		"name":       p.Name,
	})
	return p, nil
}

// UpdateProduct applies a partial update.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, req *models.UpdateProductRequest) (*models.Product, error) {
	if err := ValidateUpdateProductRequest(req); err != nil {
		return nil, err
	}

	p, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return p, nil
}

// DeleteProduct removes a product and, best effort, its stored images.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)

	if s.images != nil {
		for _, url := range p.Images {
			if err := s.images.Delete(ctx, url); err != nil {
				s.logger.Warn("Failed to delete product image", logging.Fields{
					"product_id": id,
					"url":        url,
					"error":      err.Error(),
				})
			}
		}
	}

	s.logger.Info("Product deleted", logging.Fields{"product_id": id})
	return nil
}

// RefreshProducts drops cached catalog data so the next read hits the store.
func (s *CatalogService) RefreshProducts(ctx context.Context) error {
	s.generation.Add(1)
	if !s.cachingEnabled() {
		return nil
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		return errors.Wrap(err, "refresh products")
	}
	return nil
}

func (s *CatalogService) allProducts(ctx context.Context) ([]models.Product, error) {
	if s.cachingEnabled() {
		products, err := s.cache.GetAll(ctx)
		if err != nil {
			s.logger.Warn("Catalog cache read failed", logging.Fields{"error": err.Error()})
		} else if products != nil {
			return products, nil
		}
	}

	v, err, _ := s.flight.Do(catalogFlightKey, func() (interface{}, error) {
		gen := s.generation.Load()
		products, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		if s.cachingEnabled() {
			if err := s.cache.SetAll(ctx, products); err != nil {
				s.logger.Warn("Catalog cache write failed", logging.Fields{"error": err.Error()})
			}
			s.dropIfStale(ctx, gen)
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Product), nil
}

// invalidate runs after a write to product id has reached the store.
func (s *CatalogService) invalidate(ctx context.Context, id string) {
	s.generation.Add(1)
	if !s.cachingEnabled() {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.Warn("Catalog cache invalidation failed", logging.Fields{
			"product_id": id,
			"error":      err.Error(),
		})
	}
}

// dropIfStale clears the cache when a write landed while a fill that
// started at gen was reading the store.
func (s *CatalogService) dropIfStale(ctx context.Context, gen uint64) {
	if s.generation.Load() == gen {
		return
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Warn("Catalog cache invalidation failed", logging.Fields{"error": err.Error()})
	}
}

func (s *CatalogService) cachingEnabled() bool {
	return s.features.EnableProductCaching && s.cache != nil
}

// FilterProducts returns the products matching filter, preserving order.
// The query matches name, description or subcategory case-insensitively.
func FilterProducts(products []models.Product, filter models.ProductFilter) []models.Product {
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	category, byCategory := filter.Category.Get()

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if byCategory && p.Category != category {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) &&
			!strings.Contains(strings.ToLower(p.Subcategory), query) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FeaturedProducts picks, in catalog order, up to n products that are
// discounted or rated at least 4.7.
func FeaturedProducts(products []models.Product, n int) []models.Product {
	out := make([]models.Product, 0, n)
	for i := range products {
		if len(out) == n {
			break
		}
		p := &products[i]
		if p.DiscountPercent() > 0 || p.Rating >= featuredMinRating {
			out = append(out, *p)
		}
	}
	return out
}

// SortProducts orders products in place. Unknown or empty sorts fall back
// to popular (most reviewed first).
func SortProducts(products []models.Product, by models.ProductSort) {
	var less func(a, b *models.Product) bool
	switch by {
	case models.SortPriceAsc:
		less = func(a, b *models.Product) bool { return a.Price.LessThan(b.Price) }
	case models.SortPriceDesc:
		less = func(a, b *models.Product) bool { return a.Price.GreaterThan(b.Price) }
	case models.SortRating:
		less = func(a, b *models.Product) bool { return a.Rating > b.Rating }
	default:
		less = func(a, b *models.Product) bool { return a.Reviews > b.Reviews }
	}
	sort.SliceStable(products, func(i, j int) bool {
		return less(&products[i], &products[j])
	})
}
