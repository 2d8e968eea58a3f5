package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/currency"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/session"
)

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]models.Product
	lists    int
	nextID   int
	// onList runs once, after the next List has read the products.
	onList func()
}

func newFakeProductRepo(products ...models.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: make(map[string]models.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) List(context.Context) ([]models.Product, error) {
	r.mu.Lock()
	r.lists++
	out := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	hook := r.onList
	r.onList = nil
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if hook != nil {
		hook()
	}
	return out, nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return &p, nil
}

func (r *fakeProductRepo) Create(_ context.Context, p models.Product) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = fmt.Sprintf("new-%d", r.nextID)
	r.products[p.ID] = p
	return &p, nil
}

func (r *fakeProductRepo) Update(_ context.Context, id string, req *models.UpdateProductRequest) (*models.Product, error) {
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

func (r *fakeProductRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return errors.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*models.Order
	err    error
	nextID int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*models.Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, draft *models.OrderDraft) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.nextID++
	o := &models.Order{
		ID:        fmt.Sprintf("o%d", r.nextID),
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

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) List(_ context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Order, 0)
	for _, o := range r.orders {
		if s, ok := filter.Status.Get(); ok && o.Status != s {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id string, status models.OrderStatus) (*models.Order, error) {
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

func (r *fakeOrderRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return errors.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *fakeOrderRepo) Stats(context.Context) (*models.OrderStats, error) {
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

type fakeImages struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeImages) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}

func product(id string, price string, stock int) models.Product {
	return models.Product{
		ID:       id,
		Name:     "Produit " + id,
		Price:    decimal.RequireFromString(price),
		Category: models.CategoryFirewood,
		Stock:    stock,
		Unit:     "stère",
		MinOrder: 1,
	}
}

type memStore struct {
	mu        sync.Mutex
	snaps     map[string]*session.Snapshot
	saveErr   error
	deleteErr error
}

func newMemStore() *memStore {
	return &memStore{snaps: make(map[string]*session.Snapshot)}
}

func (m *memStore) Load(_ context.Context, id string) (*session.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snaps[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return snap, nil
}

func (m *memStore) Save(_ context.Context, id string, snap *session.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snaps[id] = snap
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.snaps, id)
	return nil
}

func (m *memStore) fail(save, del error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = save
	m.deleteErr = del
}

func (m *memStore) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.snaps[id]
	return ok
}

func newTestSessions() *session.Manager {
	return newStoredSessions(nil)
}

func newStoredSessions(store session.Store) *session.Manager {
	m, err := session.NewManager(currency.DefaultTable(), currency.EUR, store, logging.NewNopLogger())
	if err != nil {
		panic(err)
	}
	return m
}
