package repository

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// ProductRepository is the catalog's backing store.
type ProductRepository interface {
	List(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, p models.Product) (*models.Product, error)
	Update(ctx context.Context, id string, req *models.UpdateProductRequest) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}

// OrderRepository is the order store. Create always records a pending order.
type OrderRepository interface {
	Create(ctx context.Context, draft *models.OrderDraft) (*models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*models.OrderStats, error)
}

// ProductCache caches catalog reads. A miss is (nil, nil). Delete also
// drops the cached listing.
type ProductCache interface {
	Get(ctx context.Context, id string) (*models.Product, error)
	Set(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id string) error
	GetAll(ctx context.Context) ([]models.Product, error)
	SetAll(ctx context.Context, products []models.Product) error
	InvalidateAll(ctx context.Context) error
}

var (
	_ ProductRepository = (*PostgresProductRepository)(nil)
	_ OrderRepository   = (*PostgresOrderRepository)(nil)
	_ ProductCache      = (*RedisProductCache)(nil)
)
