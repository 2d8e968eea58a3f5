package repository

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// ProductRow is a products table row.
type ProductRow struct {
	ID            string
	Name          string
	Description   sql.NullString
	Price         decimal.Decimal
	OriginalPrice decimal.NullDecimal
	Category      string
	Subcategory   sql.NullString
	Images        pq.StringArray
	InStock       bool
	Unit          sql.NullString
	Specs         Specs
	Featured      bool
	CreatedAt     time.Time
}

// Specs is the JSONB specification column.
type Specs map[string]string

func (s Specs) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]string(s))
}

func (s *Specs) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*s = Specs{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("specs: unsupported type %T", src)
	}
	m := make(map[string]string)
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("specs: %w", err)
	}
	*s = m
	return nil
}

// ProductDefaults are the domain attributes the products table does not
// carry. They are applied when a row is mapped to a product.
type ProductDefaults struct {
	Rating           float64
	Reviews          int
	Seller           models.Seller
	InStockQuantity  int
	Unit             string
	MinOrder         int
	DeliveryEstimate string
	Certifications   []string
}

// Defaults is used by ProductFromRow.
var Defaults = ProductDefaults{
	Rating:  4.5,
	Reviews: 0,
	Seller: models.Seller{
		Name:     "boisdechauffe.fr",
		Location: "France",
		Verified: true,
	},
	InStockQuantity:  100,
	Unit:             "stère",
	MinOrder:         1,
	DeliveryEstimate: "3-7 jours",
	Certifications:   []string{"PEFC"},
}

// ProductFromRow maps a stored row to a product, filling in Defaults.
func ProductFromRow(row ProductRow) models.Product {
	p := models.Product{
		ID:               row.ID,
		Name:             row.Name,
		Description:      row.Description.String,
		Price:            row.Price,
		OriginalPrice:    models.None[decimal.Decimal](),
		Category:         models.Category(row.Category),
		Subcategory:      row.Subcategory.String,
		Images:           []string(row.Images),
		Rating:           Defaults.Rating,
		Reviews:          Defaults.Reviews,
		Seller:           Defaults.Seller,
		Specifications:   map[string]string(row.Specs),
		Stock:            0,
		Unit:             row.Unit.String,
		MinOrder:         Defaults.MinOrder,
		DeliveryEstimate: Defaults.DeliveryEstimate,
		Certifications:   models.Some(append([]string(nil), Defaults.Certifications...)),
		CreatedAt:        row.CreatedAt,
	}

	// A zero original price carries no discount information.
	if row.OriginalPrice.Valid && !row.OriginalPrice.Decimal.IsZero() {
		p.OriginalPrice = models.Some(row.OriginalPrice.Decimal)
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Specifications == nil {
		p.Specifications = map[string]string{}
	}
	if row.InStock {
		p.Stock = Defaults.InStockQuantity
	}
	if p.Unit == "" {
		p.Unit = Defaults.Unit
	}
	return p
}

// ProductToRow maps a product to its stored row. Stock collapses to the
// in_stock flag and new rows are never featured.
func ProductToRow(p models.Product) ProductRow {
	row := ProductRow{
		ID:          p.ID,
		Name:        p.Name,
		Description: sql.NullString{String: p.Description, Valid: true},
		Price:       p.Price,
		Category:    string(p.Category),
		Subcategory: sql.NullString{String: p.Subcategory, Valid: true},
		Images:      pq.StringArray(p.Images),
		InStock:     p.Stock > 0,
		Unit:        sql.NullString{String: p.Unit, Valid: p.Unit != ""},
		Specs:       Specs(p.Specifications),
		Featured:    false,
		CreatedAt:   p.CreatedAt,
	}
	if orig, ok := p.OriginalPrice.Get(); ok {
		row.OriginalPrice = decimal.NullDecimal{Decimal: orig, Valid: true}
	}
	if row.Images == nil {
		row.Images = pq.StringArray{}
	}
	if row.Specs == nil {
		row.Specs = Specs{}
	}
	return row
}
