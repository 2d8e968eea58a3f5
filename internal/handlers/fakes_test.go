package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/currency"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/service"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/session"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/storage"
)

type productRepo struct {
	mu       sync.Mutex
	products map[string]models.Product
	nextID   int
}

func (r *productRepo) List(context.Context) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *productRepo) GetByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return &p, nil
}

func (r *productRepo) Create(_ context.Context, p models.Product) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = fmt.Sprintf("created-%d", r.nextID)
	r.products[p.ID] = p
	return &p, nil
}

func (r *productRepo) Update(_ context.Context, id string, req *models.UpdateProductRequest) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	req.Apply(&p)
	r.products[id] = p
	return &p, nil
}

func (r *productRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return errors.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

type orderRepo struct {
	mu     sync.Mutex
	orders map[string]*models.Order
	err    error
	nextID int
}

func (r *orderRepo) Create(_ context.Context, draft *models.OrderDraft) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.nextID++
	o := &models.Order{
		ID:        fmt.Sprintf("order-%d", r.nextID),
		Items:     draft.Items,
		Contact:   draft.Contact,
		Address:   draft.Address,
		Notes:     draft.Notes,
		Status:    models.OrderStatusPending,
		Total:     draft.Total,
		CreatedAt: time.Now(),
	}
	r.orders[o.ID] = o
	return o, nil
}

func (r *orderRepo) GetByID(_ context.Context, id string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *orderRepo) List(_ context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if s, ok := filter.Status.Get(); ok && o.Status != s {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

func (r *orderRepo) UpdateStatus(_ context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	o.Status = status
	cp := *o
	return &cp, nil
}

func (r *orderRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return errors.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *orderRepo) Stats(context.Context) (*models.OrderStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &models.OrderStats{Revenue: decimal.Zero}
	for _, o := range r.orders {
		stats.Orders++
		if o.Status == models.OrderStatusPending {
			stats.PendingOrders++
		}
		stats.Revenue = stats.Revenue.Add(o.Total)
	}
	return stats, nil
}

type imageStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	deleted []string
}

func newImageStore() *imageStore {
	return &imageStore{files: make(map[string][]byte)}
}

func (s *imageStore) Upload(_ context.Context, filename, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("img%d", len(s.files)+1)
	s.files[id] = data
	return "http://shop.test/api/v1/images/" + id, nil
}

func (s *imageStore) Open(_ context.Context, id string) (*storage.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return &storage.Image{
		ReadCloser:  io.NopCloser(bytes.NewReader(data)),
		ContentType: "image/jpeg",
		Size:        int64(len(data)),
	}, nil
}

func (s *imageStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, url)
	return nil
}

func testProduct(id, price string, stock int) models.Product {
	return models.Product{
		ID:          id,
		Name:        "Bûches " + id,
		Description: "Chêne sec",
		Price:       decimal.RequireFromString(price),
		Category:    models.CategoryFirewood,
		Stock:       stock,
		Unit:        "stère",
		MinOrder:    1,
	}
}

type fixture struct {
	router    *gin.Engine
	handlers  *Handlers
	products  *productRepo
	orders    *orderRepo
	images    *imageStore
	publisher *events.MockEventPublisher
	metrics   *metrics.Metrics
}

type sessionStore struct {
	mu     sync.Mutex
	snaps  map[string]*session.Snapshot
	broken bool
}

func newSessionStore() *sessionStore {
	return &sessionStore{snaps: make(map[string]*session.Snapshot)}
}

func (s *sessionStore) Load(_ context.Context, id string) (*session.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return snap, nil
}

func (s *sessionStore) Save(_ context.Context, id string, snap *session.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken {
		return errors.New("redis: connection refused")
	}
	s.snaps[id] = snap
	return nil
}

func (s *sessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken {
		return errors.New("redis: connection refused")
	}
	delete(s.snaps, id)
	return nil
}

func (s *sessionStore) breakWrites() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broken = true
}

func newFixture(products ...models.Product) *fixture {
	return newStoredFixture(nil, products...)
}

func newStoredFixture(store session.Store, products ...models.Product) *fixture {
	gin.SetMode(gin.TestMode)
	logger := logging.NewNopLogger()

	sessions, err := session.NewManager(currency.DefaultTable(), currency.EUR, store, logger)
	if err != nil {
		panic(err)
	}

	f := &fixture{
		products:  &productRepo{products: make(map[string]models.Product)},
		orders:    &orderRepo{orders: make(map[string]*models.Order)},
		images:    newImageStore(),
		publisher: events.NewMockEventPublisher(),
		metrics:   metrics.New(),
	}
	for _, p := range products {
		f.products.products[p.ID] = p
	}

	catalog := service.NewCatalogService(f.products, nil, f.images, config.FeatureFlags{}, logger)
	orders := service.NewOrderService(f.orders, f.publisher, logger)
	cfg := &config.Config{Session: config.SessionConfig{CookieName: "sid", MaxAge: time.Hour}}

	f.handlers = NewHandlers(
		service.NewStorefrontService(catalog, sessions, logger),
		service.NewCheckoutService(sessions, orders, f.publisher, nil, logger),
		catalog,
		orders,
		cfg,
		Options{Images: f.images, Metrics: f.metrics},
	)
	f.router = newTestRouter(f.handlers, cfg)
	return f
}

func newTestRouter(h *Handlers, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.GET("/metrics", h.Metrics)

	v1 := r.Group("/api/v1")
	v1.GET("/images/:id", h.GetImage)

	shop := v1.Group("", middleware.Session(cfg.Session))
	shop.GET("/products", h.ListProducts)
	shop.GET("/products/featured", h.FeaturedProducts)
	shop.GET("/products/:id", h.GetProduct)
	shop.GET("/cart", h.GetCart)
	shop.DELETE("/cart", h.ClearCart)
	shop.POST("/cart/items", h.AddCartItem)
	shop.PUT("/cart/items/:productId", h.UpdateCartItem)
	shop.DELETE("/cart/items/:productId", h.RemoveCartItem)
	shop.GET("/currency", h.GetCurrency)
	shop.PUT("/currency", h.SetCurrency)
	shop.POST("/checkout", h.Checkout)
	shop.DELETE("/session", h.EndSession)

	admin := v1.Group("/admin")
	admin.GET("/products", h.AdminListProducts)
	admin.POST("/products", h.CreateProduct)
	admin.PUT("/products/:id", h.UpdateProduct)
	admin.DELETE("/products/:id", h.DeleteProduct)
	admin.POST("/products/refresh", h.RefreshProducts)
	admin.GET("/orders", h.ListOrders)
	admin.GET("/orders/:id", h.GetOrder)
	admin.PUT("/orders/:id/status", h.UpdateOrderStatus)
	admin.DELETE("/orders/:id", h.DeleteOrder)
	admin.GET("/stats", h.Stats)
	admin.POST("/images", h.UploadImage)
	admin.DELETE("/images", h.DeleteImage)
	return r
}
