package service

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/currency"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/session"
)

// ProductLookup resolves catalog products.
type ProductLookup interface {
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	FeaturedProducts(ctx context.Context) ([]models.Product, error)
}

// StorefrontService is the shopper-facing surface: priced catalog reads,
// the session cart and the currency selection.
type StorefrontService struct {
	catalog  ProductLookup
	sessions *session.Manager
	logger   *logging.LoggerV2
}

// NewStorefrontService creates a storefront service.
func NewStorefrontService(catalog ProductLookup, sessions *session.Manager, logger *logging.LoggerV2) *StorefrontService {
	return &StorefrontService{
		catalog:  catalog,
		sessions: sessions,
		logger:   logger,
	}
}

// ListProducts returns the catalog priced in the session's currency.
func (s *StorefrontService) ListProducts(ctx context.Context, sessionID string, filter models.ProductFilter) ([]ProductView, error) {
	products, err := s.catalog.ListProducts(ctx, filter)
	if err != nil {
		return nil, err
	}

	return s.priced(ctx, sessionID, products)
}

// FeaturedProducts returns the home page selection priced in the session's
// currency.
func (s *StorefrontService) FeaturedProducts(ctx context.Context, sessionID string) ([]ProductView, error) {
	products, err := s.catalog.FeaturedProducts(ctx)
	if err != nil {
		return nil, err
	}
	return s.priced(ctx, sessionID, products)
}

func (s *StorefrontService) priced(ctx context.Context, sessionID string, products []models.Product) ([]ProductView, error) {
	views := make([]ProductView, 0, len(products))
	err := s.sessions.View(ctx, sessionID, func(sess *session.Session) error {
		for _, p := range products {
			views = append(views, NewProductView(p, sess.Currency))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// GetProduct returns one product priced in the session's currency.
func (s *StorefrontService) GetProduct(ctx context.Context, sessionID, productID string) (*ProductView, error) {
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	var view ProductView
	err = s.sessions.View(ctx, sessionID, func(sess *session.Session) error {
		view = NewProductView(*p, sess.Currency)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Cart returns the session's cart.
func (s *StorefrontService) Cart(ctx context.Context, sessionID string) (*CartView, error) {
	var view CartView
	err := s.sessions.View(ctx, sessionID, func(sess *session.Session) error {
		view = NewCartView(sess.Cart, sess.Currency)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// AddToCart adds quantity units of productID. Out-of-stock products are
// rejected, a first add is raised to the product's minimum order and the
// increment is capped at the remaining stock.
func (s *StorefrontService) AddToCart(ctx context.Context, sessionID, productID string, quantity int) (*CartView, error) {
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.InStock() {
		return nil, errors.NewValidationError("product_id", "product is out of stock")
	}

	return s.withCart(ctx, sessionID, func(sess *session.Session) error {
		inCart := 0
		if e, ok := sess.Cart.Get(p.ID); ok {
			inCart = e.Quantity
		}

		qty := quantity
		if qty < 1 {
			qty = 1
		}
		if inCart == 0 && qty < p.MinOrder {
			qty = p.MinOrder
		}
		if remaining := p.Stock - inCart; qty > remaining {
			qty = remaining
		}
		if qty <= 0 {
			return errors.NewValidationError("quantity", "no more stock available for this product")
		}

		sess.Cart.AddItem(*p, qty)
		s.logger.Debug("Cart item added", logging.Fields{
			"session_id": sessionID,
			"product_id": p.ID,
			"quantity":   qty,
		})
		return nil
	})
}

// UpdateCartItem sets the quantity of productID; zero or less removes it.
func (s *StorefrontService) UpdateCartItem(ctx context.Context, sessionID, productID string, quantity int) (*CartView, error) {
	return s.withCart(ctx, sessionID, func(sess *session.Session) error {
		sess.Cart.UpdateQuantity(productID, quantity)
		return nil
	})
}

// RemoveCartItem drops productID from the cart.
func (s *StorefrontService) RemoveCartItem(ctx context.Context, sessionID, productID string) (*CartView, error) {
	return s.withCart(ctx, sessionID, func(sess *session.Session) error {
		sess.Cart.RemoveItem(productID)
		return nil
	})
}

// ClearCart empties the cart.
func (s *StorefrontService) ClearCart(ctx context.Context, sessionID string) (*CartView, error) {
	return s.withCart(ctx, sessionID, func(sess *session.Session) error {
		sess.Cart.Clear()
		return nil
	})
}

// Currency returns the session's currency selection.
func (s *StorefrontService) Currency(ctx context.Context, sessionID string) (*CurrencyView, error) {
	var view CurrencyView
	err := s.sessions.View(ctx, sessionID, func(sess *session.Session) error {
		view = NewCurrencyView(sess.Currency)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// SetCurrency selects code for the session. Unknown codes fail with
// currency.ErrUnknownCurrency and leave the selection unchanged.
func (s *StorefrontService) SetCurrency(ctx context.Context, sessionID string, code currency.Code) (*CurrencyView, error) {
	var view CurrencyView
	err := s.sessions.Do(ctx, sessionID, func(sess *session.Session) error {
		if err := sess.Currency.SetCurrency(code); err != nil {
			return err
		}
		view = NewCurrencyView(sess.Currency)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Currency selected", logging.Fields{
		"session_id": sessionID,
		"currency":   code,
	})
	return &view, nil
}

// EndSession forgets the session: its cart and currency selection are
// dropped and the next request starts fresh.
func (s *StorefrontService) EndSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.End(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info("Session ended", logging.Fields{"session_id": sessionID})
	return nil
}

func (s *StorefrontService) withCart(ctx context.Context, sessionID string, fn func(*session.Session) error) (*CartView, error) {
	var view CartView
	err := s.sessions.Do(ctx, sessionID, func(sess *session.Session) error {
		if err := fn(sess); err != nil {
			return err
		}
		view = NewCartView(sess.Cart, sess.Currency)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}
