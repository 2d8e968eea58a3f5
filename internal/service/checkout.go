package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/session"
)

const notificationTimeout = 30 * time.Second

// OrderSubmitter records a checkout draft as a pending order.
type OrderSubmitter interface {
	AddOrder(ctx context.Context, draft *models.OrderDraft) (*models.Order, error)
}

// CheckoutRequest is the guest checkout form.
type CheckoutRequest struct {
	Contact models.Contact          `json:"contact"`
	Address models.Address          `json:"address"`
	Notes   models.Optional[string] `json:"notes"`
}

// CheckoutResult is returned to the shopper after a successful submission.
type CheckoutResult struct {
	OrderID string             `json:"order_id"`
	Status  models.OrderStatus `json:"status"`
	Total   decimal.Decimal    `json:"total"`
	Display Price              `json:"display_total"`
}

// CheckoutService turns a session cart into an order.
type CheckoutService struct {
	sessions  *session.Manager
	orders    OrderSubmitter
	publisher events.Publisher
	notifier  clients.NotificationSender
	logger    *logging.LoggerV2
}

// NewCheckoutService creates a checkout service. notifier may be nil.
func NewCheckoutService(
	sessions *session.Manager,
	orders OrderSubmitter,
	publisher events.Publisher,
	notifier clients.NotificationSender,
	logger *logging.LoggerV2,
) *CheckoutService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &CheckoutService{
		sessions:  sessions,
		orders:    orders,
		publisher: publisher,
		notifier:  notifier,
		logger:    logger,
	}
}

// Checkout submits the session's cart. On success the cart is cleared; on
// any failure it is left exactly as it was and nothing is retried.
//
// When the order is recorded but the emptied cart cannot be stored, the
// session is reset instead. If that fails too, the result is returned along
// with errors.ErrCartNotCleared.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID string, req *CheckoutRequest) (*CheckoutResult, error) {
	if err := ValidateCheckoutRequest(req); err != nil {
		return nil, err
	}

	log := s.logger.With(logging.Fields{"session_id": sessionID})

	var (
		order  *models.Order
		result CheckoutResult
	)
	err := s.sessions.DoOrReset(ctx, sessionID, func(sess *session.Session) error {
		if sess.Cart.IsEmpty() {
			return errors.NewValidationError("cart", "cart is empty")
		}

		draft := buildDraft(sess, req)
		created, err := s.orders.AddOrder(ctx, draft)
		if err != nil {
			log.Error("Order submission failed", logging.Fields{
				"items": len(draft.Items),
				"error": err.Error(),
			})
			return errors.Wrap(errors.ErrSubmissionFailed, err.Error())
		}

		order = created
		result = CheckoutResult{
			OrderID: created.ID,
			Status:  created.Status,
			Total:   created.Total,
			Display: NewPrice(sess.Currency, created.Total),
		}
		sess.Cart.Clear()
		return nil
	})

	var cartErr error
	switch {
	case errors.Is(err, session.ErrNotSaved) && order != nil:
		log.Error("Order recorded but cart could not be cleared", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
		cartErr = errors.Wrapf(errors.ErrCartNotCleared, "order %s", order.ID)
	case err != nil:
		return nil, err
	}

	if err := s.publisher.PublishOrderCreated(ctx, order); err != nil {
		log.Error("Failed to publish order created event", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}

	if s.notifier != nil {
		go s.sendConfirmation(order)
	}

	log.Info("Checkout completed", logging.Fields{
		"order_id": order.ID,
		"total":    order.Total.StringFixed(2),
	})
	return &result, cartErr
}

func (s *CheckoutService) sendConfirmation(order *models.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
	defer cancel()

	if err := s.notifier.SendOrderConfirmation(ctx, order); err != nil {
		s.logger.Error("Failed to send order confirmation", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}
}

func buildDraft(sess *session.Session, req *CheckoutRequest) *models.OrderDraft {
	entries := sess.Cart.Items()
	lines := make([]models.OrderLine, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, models.NewOrderLine(e.Product, e.Quantity))
	}

	notes := models.None[string]()
	if n, ok := req.Notes.Get(); ok {
		if n = SanitizeOrderNotes(n); n != "" {
			notes = models.Some(n)
		}
	}

	return &models.OrderDraft{
		Items: lines,
		Contact: models.Contact{
			Email: strings.TrimSpace(req.Contact.Email),
			Name:  trimOptional(req.Contact.Name),
			Phone: trimOptional(req.Contact.Phone),
		},
		Address: models.Address{
			Street:     strings.TrimSpace(req.Address.Street),
			City:       strings.TrimSpace(req.Address.City),
			PostalCode: strings.TrimSpace(req.Address.PostalCode),
			Country:    strings.TrimSpace(req.Address.Country),
		},
		Notes: notes,
		Total: sess.Cart.Total(),
	}
}

func trimOptional(o models.Optional[string]) models.Optional[string] {
	v, ok := o.Get()
	if !ok {
		return o
	}
	if v = strings.TrimSpace(v); v == "" {
		return models.None[string]()
	}
	return models.Some(v)
}
