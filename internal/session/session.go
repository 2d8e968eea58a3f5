// Package session owns the per-shopper state: one cart and one currency
// selection per session id.
package session

import (
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/cart"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/currency"
)

// Session is the state of a single shopper.
type Session struct {
	ID       string
	Cart     *cart.Cart
	Currency *currency.Converter
}

// Snapshot is the persisted form of a session.
type Snapshot struct {
	Entries   []cart.Entry  `json:"entries"`
	Currency  currency.Code `json:"currency"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func newSession(id string, table currency.Table, def currency.Code) (*Session, error) {
	conv, err := currency.NewConverter(table, def)
	if err != nil {
		return nil, err
	}
	return &Session{ID: id, Cart: cart.New(), Currency: conv}, nil
}

// Snapshot captures the session for persistence.
func (s *Session) Snapshot() *Snapshot {
	return &Snapshot{
		Entries:   s.Cart.Snapshot(),
		Currency:  s.Currency.Currency(),
		UpdatedAt: time.Now().UTC(),
	}
}

// restore loads snap into s. A currency that is no longer in the table
// leaves the current selection in place.
func (s *Session) restore(snap *Snapshot) {
	s.Cart.Restore(snap.Entries)
	if snap.Currency != "" {
		_ = s.Currency.SetCurrency(snap.Currency)
	}
}
