package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is the fixed product category enumeration.
type Category string

const (
	CategoryFirewood    Category = "firewood"
	CategoryStoves      Category = "stoves"
	CategoryAccessories Category = "accessories"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryFirewood, CategoryStoves, CategoryAccessories:
		return true
	}
	return false
}

// Seller describes who ships the product.
type Seller struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Verified bool   `json:"verified"`
}

// Product is a catalog item. Price is in the reference currency (EUR).
type Product struct {
	ID               string                    `json:"id"`
	Name             string                    `json:"name"`
	Description      string                    `json:"description"`
	Price            decimal.Decimal           `json:"price"`
	OriginalPrice    Optional[decimal.Decimal] `json:"original_price"`
	Category         Category                  `json:"category"`
	Subcategory      string                    `json:"subcategory"`
	Images           []string                  `json:"images"`
	Rating           float64                   `json:"rating"`
	Reviews          int                       `json:"reviews"`
	Seller           Seller                    `json:"seller"`
	Specifications   map[string]string         `json:"specifications"`
	Stock            int                       `json:"stock"`
	Unit             string                    `json:"unit"`
	MinOrder         int                       `json:"min_order"`
	DeliveryEstimate string                    `json:"delivery_estimate"`
	Certifications   Optional[[]string]        `json:"certifications"`
	CreatedAt        time.Time                 `json:"created_at"`
}

// DiscountPercent derives the rounded discount against the original price.
// Products without an original price, or priced above it, have no discount.
func (p *Product) DiscountPercent() int64 {
	orig, ok := p.OriginalPrice.Get()
	if !ok || !orig.IsPositive() {
		return 0
	}
	pct := orig.Sub(p.Price).Div(orig).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if pct < 0 {
		return 0
	}
	return pct
}

// InStock reports whether at least one unit is available.
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// ProductSort selects the catalog ordering.
type ProductSort string

const (
	SortPopular   ProductSort = "popular"
	SortPriceAsc  ProductSort = "price-asc"
	SortPriceDesc ProductSort = "price-desc"
	SortRating    ProductSort = "rating"
)

// ProductFilter narrows a catalog listing.
type ProductFilter struct {
	Category Optional[Category]
	Query    string
	Sort     ProductSort
}

// CreateProductRequest carries a new catalog item from the admin surface.
type CreateProductRequest struct {
	Name             string                    `json:"name"`
	Description      string                    `json:"description"`
	Price            decimal.Decimal           `json:"price"`
	OriginalPrice    Optional[decimal.Decimal] `json:"original_price"`
	Category         Category                  `json:"category"`
	Subcategory      string                    `json:"subcategory"`
	Images           []string                  `json:"images"`
	Specifications   map[string]string         `json:"specifications"`
	Stock            int                       `json:"stock"`
	Unit             string                    `json:"unit"`
	MinOrder         int                       `json:"min_order"`
	DeliveryEstimate string                    `json:"delivery_estimate"`
}

// ToProduct builds the domain product the request describes.
func (r *CreateProductRequest) ToProduct() Product {
	return Product{
		Name:             r.Name,
		Description:      r.Description,
		Price:            r.Price,
		OriginalPrice:    r.OriginalPrice,
		Category:         r.Category,
		Subcategory:      r.Subcategory,
		Images:           r.Images,
		Specifications:   r.Specifications,
		Stock:            r.Stock,
		Unit:             r.Unit,
		MinOrder:         r.MinOrder,
		DeliveryEstimate: r.DeliveryEstimate,
	}
}

// UpdateProductRequest is a partial update; absent fields are left alone.
type UpdateProductRequest struct {
	Name           Optional[string]            `json:"name"`
	Description    Optional[string]            `json:"description"`
	Price          Optional[decimal.Decimal]   `json:"price"`
	OriginalPrice  Optional[decimal.Decimal]   `json:"original_price"`
	Category       Optional[Category]          `json:"category"`
	Subcategory    Optional[string]            `json:"subcategory"`
	Images         Optional[[]string]          `json:"images"`
	Specifications Optional[map[string]string] `json:"specifications"`
	Stock          Optional[int]               `json:"stock"`
	Unit           Optional[string]            `json:"unit"`
}

// Apply merges the present fields of r into p.
func (r *UpdateProductRequest) Apply(p *Product) {
	if v, ok := r.Name.Get(); ok {
		p.Name = v
	}
	if v, ok := r.Description.Get(); ok {
		p.Description = v
	}
	if v, ok := r.Price.Get(); ok {
		p.Price = v
	}
	if r.OriginalPrice.IsPresent() {
		p.OriginalPrice = r.OriginalPrice
	}
	if v, ok := r.Category.Get(); ok {
		p.Category = v
	}
	if v, ok := r.Subcategory.Get(); ok {
		p.Subcategory = v
	}
	if v, ok := r.Images.Get(); ok {
		p.Images = v
	}
	if v, ok := r.Specifications.Get(); ok {
		p.Specifications = v
	}
	if v, ok := r.Stock.Get(); ok {
		p.Stock = v
	}
	if v, ok := r.Unit.Get(); ok {
		p.Unit = v
	}
}
