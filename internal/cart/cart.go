// Package cart holds a session's shopping cart.
//
// A Cart maps product ids to entries. Quantities are always at least one:
// anything that would take an entry to zero removes it instead. Totals and
// counts are derived on every call, so there is nothing to invalidate.
//
// A Cart is not safe for concurrent use; its owner serializes access.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// Entry pairs a product snapshot with a quantity.
type Entry struct {
	Product  models.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

// Subtotal is the entry's price times quantity in the reference currency.
func (e Entry) Subtotal() decimal.Decimal {
	return e.Product.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Cart is a client-session shopping cart.
type Cart struct {
	entries map[string]*Entry
	order   []string
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{entries: make(map[string]*Entry)}
}

// AddItem inserts product or increments its quantity. Quantities below one
// are treated as one.
func (c *Cart) AddItem(product models.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	if e, ok := c.entries[product.ID]; ok {
		e.Quantity += quantity
		return
	}
	c.entries[product.ID] = &Entry{Product: product, Quantity: quantity}
	c.order = append(c.order, product.ID)
}

// UpdateQuantity sets the quantity for productID. A quantity of zero or less
// removes the entry. Unknown ids are ignored.
func (c *Cart) UpdateQuantity(productID string, quantity int) {
	e, ok := c.entries[productID]
	if !ok {
		return
	}
	if quantity <= 0 {
		c.RemoveItem(productID)
		return
	}
	e.Quantity = quantity
}

// RemoveItem deletes the entry for productID if there is one.
func (c *Cart) RemoveItem(productID string) {
	if _, ok := c.entries[productID]; !ok {
		return
	}
	delete(c.entries, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.entries = make(map[string]*Entry)
	c.order = nil
}

// Get returns a copy of the entry for productID.
func (c *Cart) Get(productID string) (Entry, bool) {
	e, ok := c.entries[productID]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Items returns copies of all entries in the order they were first added.
func (c *Cart) Items() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.entries[id])
	}
	return out
}

// Len is the number of distinct products in the cart.
func (c *Cart) Len() int {
	return len(c.entries)
}

// IsEmpty reports whether the cart has no entries.
func (c *Cart) IsEmpty() bool {
	return len(c.entries) == 0
}

// ItemCount is the sum of quantities across all entries.
func (c *Cart) ItemCount() int {
	n := 0
	for _, e := range c.entries {
		n += e.Quantity
	}
	return n
}

// Total is the sum of price times quantity across all entries.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range c.entries {
		total = total.Add(e.Subtotal())
	}
	return total
}

// Snapshot returns the entries for persistence.
func (c *Cart) Snapshot() []Entry {
	return c.Items()
}

// Restore replaces the cart contents with entries. Entries with a quantity
// below one are skipped and duplicate product ids are merged.
func (c *Cart) Restore(entries []Entry) {
	c.Clear()
	for _, e := range entries {
		if e.Quantity < 1 {
			continue
		}
		c.AddItem(e.Product, e.Quantity)
	}
}
