package service

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

const defaultListLimit = 20

var (
	_ OrderSubmitter       = (*OrderService)(nil)
	_ events.StatusUpdater = (*OrderService)(nil)
)

// OrderService handles order persistence and the back-office workflow.
type OrderService struct {
	repo      repository.OrderRepository
	publisher events.Publisher
	logger    *logging.LoggerV2
}

// NewOrderService creates a new order service.
func NewOrderService(repo repository.OrderRepository, publisher events.Publisher, logger *logging.LoggerV2) *OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &OrderService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// AddOrder records a checkout draft as a pending order.
func (s *OrderService) AddOrder(ctx context.Context, draft *models.OrderDraft) (*models.Order, error) {
	s.logger.Info("Creating order", logging.Fields{
		"item_count": len(draft.Items),
		"total":      draft.Total.StringFixed(2),
	})
	return s.repo.Create(ctx, draft)
}

// GetOrder retrieves an order by ID.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.repo.GetByID(ctx, id)
}

// ListOrders returns orders newest first along with the matching total.
func (s *OrderService) ListOrders(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error) {
	if err := ValidateOrderListFilter(filter); err != nil {
		return nil, 0, err
	}
	if filter.Limit == 0 {
		filter.Limit = defaultListLimit
	}
	return s.repo.List(ctx, filter)
}

// UpdateOrderStatus moves an order to status and announces the change.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	if err := ValidateUpdateOrderStatusRequest(&models.UpdateOrderStatusRequest{Status: status}); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := current.Status
	if previous == status {
		return current, nil
	}

	order, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	if err := s.publisher.PublishOrderStatusChanged(ctx, order, previous); err != nil {
		s.logger.Error("Failed to publish status change event", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}

	s.logger.Info("Order status updated", logging.Fields{
		"order_id":        id,
		"previous_status": previous,
		"new_status":      status,
	})
	return order, nil
}

// DeleteOrder removes an order.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.publisher.PublishOrderDeleted(ctx, id); err != nil {
		s.logger.Error("Failed to publish order deleted event", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
	}
	return nil
}

// Stats returns the dashboard counters.
func (s *OrderService) Stats(ctx context.Context) (*models.OrderStats, error) {
	return s.repo.Stats(ctx)
}
