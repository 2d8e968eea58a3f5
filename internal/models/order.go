package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// Address is a delivery address.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Contact holds the customer's contact fields. Checkout is guest-only.
type Contact struct {
	Email string           `json:"email"`
	Name  Optional[string] `json:"name"`
	Phone Optional[string] `json:"phone"`
}

// LineProduct is the trimmed product snapshot stored with an order line.
type LineProduct struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Images []string        `json:"images"`
	Unit   string          `json:"unit"`
}

// OrderLine is one product and quantity at submission time.
type OrderLine struct {
	Product  LineProduct `json:"product"`
	Quantity int         `json:"quantity"`
}

// Subtotal is price times quantity for the line.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// NewOrderLine snapshots p for storage. Inline data: images are dropped and
// at most one image reference is kept.
func NewOrderLine(p Product, quantity int) OrderLine {
	images := make([]string, 0, 1)
	for _, img := range p.Images {
		if img == "" || strings.HasPrefix(img, "data:") {
			continue
		}
		images = append(images, img)
		break
	}
	return OrderLine{
		Product: LineProduct{
			ID:     p.ID,
			Name:   p.Name,
			Price:  p.Price,
			Images: images,
			Unit:   p.Unit,
		},
		Quantity: quantity,
	}
}

// OrderDraft is what checkout hands to the order store.
type OrderDraft struct {
	Items   []OrderLine      `json:"items"`
	Contact Contact          `json:"contact"`
	Address Address          `json:"address"`
	Notes   Optional[string] `json:"notes"`
	Total   decimal.Decimal  `json:"total"`
}

// Order is a persisted order.
type Order struct {
	ID        string           `json:"id"`
	Items     []OrderLine      `json:"items"`
	Contact   Contact          `json:"contact"`
	Address   Address          `json:"address"`
	Notes     Optional[string] `json:"notes"`
	Status    OrderStatus      `json:"status"`
	Total     decimal.Decimal  `json:"total"`
	CreatedAt time.Time        `json:"created_at"`
}

// OrderListFilter narrows an order listing.
type OrderListFilter struct {
	Status Optional[OrderStatus]
	Limit  int
	Offset int
}

// UpdateOrderStatusRequest moves an order to a new status.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// OrderStats backs the admin dashboard.
type OrderStats struct {
	Orders        int             `json:"orders"`
	Products      int             `json:"products"`
	PendingOrders int             `json:"pending_orders"`
	Revenue       decimal.Decimal `json:"revenue"`
}
