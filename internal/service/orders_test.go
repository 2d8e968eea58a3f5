package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

func seedOrder(t *testing.T, svc *OrderService, total int64) *models.Order {
	t.Helper()
	o, err := svc.AddOrder(context.Background(), &models.OrderDraft{
		Contact: models.Contact{Email: "a@b.fr"},
		Total:   decimal.NewFromInt(total),
	})
	require.NoError(t, err)
	return o
}

func TestOrderService_StatusLifecycle(t *testing.T) {
	publisher := events.NewMockEventPublisher()
	svc := NewOrderService(newFakeOrderRepo(), publisher, logging.NewNopLogger())
	ctx := context.Background()
	o := seedOrder(t, svc, 100)

	updated, err := svc.UpdateOrderStatus(ctx, o.ID, models.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, updated.Status)

	_, err = svc.UpdateOrderStatus(ctx, o.ID, models.OrderStatusConfirmed)
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(ctx, o.ID, "cancelled")
	assert.True(t, errors.IsValidation(err))

	_, err = svc.UpdateOrderStatus(ctx, "missing", models.OrderStatusShipped)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	require.NoError(t, svc.DeleteOrder(ctx, o.ID))
	assert.True(t, errors.Is(svc.DeleteOrder(ctx, o.ID), errors.ErrNotFound))

	assert.Equal(t, []events.EventType{
		events.EventTypeOrderStatusChanged,
		events.EventTypeOrderDeleted,
	}, publisher.Types())
}

func TestOrderService_PublishFailureIsNotFatal(t *testing.T) {
	publisher := events.NewMockEventPublisher()
	publisher.Err = errors.New("broker down")
	svc := NewOrderService(newFakeOrderRepo(), publisher, logging.NewNopLogger())
	o := seedOrder(t, svc, 10)

	_, err := svc.UpdateOrderStatus(context.Background(), o.ID, models.OrderStatusShipped)
	assert.NoError(t, err)
}

func TestOrderService_ListAndStats(t *testing.T) {
	svc := NewOrderService(newFakeOrderRepo(), nil, logging.NewNopLogger())
	ctx := context.Background()
	a := seedOrder(t, svc, 100)
	seedOrder(t, svc, 50)
	_, err := svc.UpdateOrderStatus(ctx, a.ID, models.OrderStatusDelivered)
	require.NoError(t, err)

	filter := &models.OrderListFilter{Status: models.Some(models.OrderStatusPending), Limit: 500}
	orders, total, err := svc.ListOrders(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, orders, 1)
	assert.Equal(t, 100, filter.Limit)

	_, _, err = svc.ListOrders(ctx, &models.OrderListFilter{Offset: -1})
	assert.True(t, errors.IsValidation(err))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Orders)
	assert.Equal(t, 1, stats.PendingOrders)
	assert.True(t, stats.Revenue.Equal(decimal.NewFromInt(150)))
}
