package service

import (
	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/cart"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/currency"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// Price is an amount in the shopper's selected currency.
type Price struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  currency.Code   `json:"currency"`
	Formatted string          `json:"formatted"`
}

// NewPrice converts a reference amount for display.
func NewPrice(conv *currency.Converter, reference decimal.Decimal) Price {
	return Price{
		Amount:    conv.ConvertPrice(reference),
		Currency:  conv.Currency(),
		Formatted: conv.FormatPrice(reference),
	}
}

// ProductView is a product priced for one shopper.
type ProductView struct {
	models.Product
	DisplayPrice         Price  `json:"display_price"`
	DisplayOriginalPrice *Price `json:"display_original_price,omitempty"`
	DiscountPercent      int64  `json:"discount_percent"`
	Available            bool   `json:"in_stock"`
}

// NewProductView prices p in the converter's currency.
func NewProductView(p models.Product, conv *currency.Converter) ProductView {
	v := ProductView{
		Product:         p,
		DisplayPrice:    NewPrice(conv, p.Price),
		DiscountPercent: p.DiscountPercent(),
		Available:       p.InStock(),
	}
	if orig, ok := p.OriginalPrice.Get(); ok {
		op := NewPrice(conv, orig)
		v.DisplayOriginalPrice = &op
	}
	return v
}

// CartLine is one cart entry priced for display.
type CartLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	Unit      string `json:"unit"`
	Quantity  int    `json:"quantity"`
	UnitPrice Price  `json:"unit_price"`
	Subtotal  Price  `json:"subtotal"`
}

// CartView is the cart as the shopper sees it.
type CartView struct {
	Items          []CartLine      `json:"items"`
	ItemCount      int             `json:"item_count"`
	TotalReference decimal.Decimal `json:"total_reference"`
	Total          Price           `json:"total"`
}

// NewCartView prices every entry of c. The total converts the reference
// total once rather than summing converted subtotals.
func NewCartView(c *cart.Cart, conv *currency.Converter) CartView {
	entries := c.Items()
	lines := make([]CartLine, 0, len(entries))
	for _, e := range entries {
		line := CartLine{
			ProductID: e.Product.ID,
			Name:      e.Product.Name,
			Unit:      e.Product.Unit,
			Quantity:  e.Quantity,
			UnitPrice: NewPrice(conv, e.Product.Price),
			Subtotal:  NewPrice(conv, e.Subtotal()),
		}
		if len(e.Product.Images) > 0 {
			line.Image = e.Product.Images[0]
		}
		lines = append(lines, line)
	}

	total := c.Total()
	return CartView{
		Items:          lines,
		ItemCount:      c.ItemCount(),
		TotalReference: total,
		Total:          NewPrice(conv, total),
	}
}

// CurrencyView describes the active selection and the available table.
type CurrencyView struct {
	Active    currency.Code    `json:"active"`
	Reference currency.Code    `json:"reference"`
	Available []currency.Entry `json:"available"`
}

// NewCurrencyView describes conv's state.
func NewCurrencyView(conv *currency.Converter) CurrencyView {
	return CurrencyView{
		Active:    conv.Currency(),
		Reference: currency.Reference,
		Available: conv.Table().Entries(),
	}
}
