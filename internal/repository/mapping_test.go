package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

func TestProductFromRow_AppliesDefaults(t *testing.T) {
	row := ProductRow{
		ID:       "p1",
		Name:     "Chêne sec",
		Price:    decimal.RequireFromString("89.90"),
		Category: "firewood",
		InStock:  true,
	}

	p := ProductFromRow(row)

	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, 4.5, p.Rating)
	assert.Equal(t, 0, p.Reviews)
	assert.Equal(t, models.Seller{Name: "boisdechauffe.fr", Location: "France", Verified: true}, p.Seller)
	assert.Equal(t, 100, p.Stock)
	assert.Equal(t, "stère", p.Unit)
	assert.Equal(t, 1, p.MinOrder)
	assert.Equal(t, "3-7 jours", p.DeliveryEstimate)
	assert.Equal(t, []string{"PEFC"}, p.Certifications.OrElse(nil))
	assert.False(t, p.OriginalPrice.IsPresent())
	assert.NotNil(t, p.Images)
	assert.NotNil(t, p.Specifications)
}

func TestProductFromRow_OutOfStockAndOriginalPrice(t *testing.T) {
	row := ProductRow{
		ID:            "p2",
		Name:          "Poêle",
		Price:         decimal.NewFromInt(80),
		OriginalPrice: decimal.NullDecimal{Decimal: decimal.NewFromInt(100), Valid: true},
		Category:      "stoves",
		Unit:          sql.NullString{String: "pièce", Valid: true},
		Images:        pq.StringArray{"a.jpg", "b.jpg"},
		Specs:         Specs{"power": "8kW"},
	}

	p := ProductFromRow(row)

	assert.Equal(t, 0, p.Stock)
	assert.False(t, p.InStock())
	assert.Equal(t, "pièce", p.Unit)
	assert.Equal(t, int64(20), p.DiscountPercent())
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, p.Images)
	assert.Equal(t, "8kW", p.Specifications["power"])
}

func TestProductFromRow_ZeroOriginalPriceIsAbsent(t *testing.T) {
	row := ProductRow{
		ID:            "p3",
		Price:         decimal.NewFromInt(10),
		OriginalPrice: decimal.NullDecimal{Valid: true},
		Category:      "accessories",
	}

	p := ProductFromRow(row)
	assert.False(t, p.OriginalPrice.IsPresent())
}

func TestProductFromRow_DefaultsAreNotShared(t *testing.T) {
	a := ProductFromRow(ProductRow{ID: "a"})
	certs, _ := a.Certifications.Get()
	certs[0] = "FSC"

	b := ProductFromRow(ProductRow{ID: "b"})
	assert.Equal(t, []string{"PEFC"}, b.Certifications.OrElse(nil))
}

func TestProductToRow(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := models.Product{
		ID:            "p1",
		Name:          "Granulés",
		Description:   "Sac de 15kg",
		Price:         decimal.RequireFromString("6.50"),
		OriginalPrice: models.Some(decimal.RequireFromString("7.00")),
		Category:      models.CategoryFirewood,
		Stock:         3,
		CreatedAt:     created,
	}

	row := ProductToRow(p)

	assert.True(t, row.InStock)
	assert.False(t, row.Featured)
	assert.True(t, row.OriginalPrice.Valid)
	assert.True(t, row.OriginalPrice.Decimal.Equal(decimal.RequireFromString("7.00")))
	assert.False(t, row.Unit.Valid)
	assert.Equal(t, "Sac de 15kg", row.Description.String)
	assert.NotNil(t, row.Images)
	assert.NotNil(t, row.Specs)
	assert.Equal(t, created, row.CreatedAt)

	p.Stock = 0
	assert.False(t, ProductToRow(p).InStock)
}

func TestSpecs_ScanAndValue(t *testing.T) {
	var s Specs
	require.NoError(t, s.Scan([]byte(`{"essence":"chêne","humidité":"<20%"}`)))
	assert.Equal(t, "chêne", s["essence"])

	require.NoError(t, s.Scan(nil))
	assert.Empty(t, s)

	assert.Error(t, s.Scan(42))
	assert.Error(t, s.Scan("not json"))

	v, err := Specs(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)
}

func TestOrderDraftToRow_RoundTrip(t *testing.T) {
	product := models.Product{
		ID:     "p1",
		Name:   "Chêne",
		Price:  decimal.NewFromInt(90),
		Images: []string{"data:image/png;base64,xxx", "https://cdn/x.jpg", "https://cdn/y.jpg"},
		Unit:   "stère",
	}
	draft := &models.OrderDraft{
		Items:   []models.OrderLine{models.NewOrderLine(product, 2)},
		Contact: models.Contact{Email: "jean@example.fr", Name: models.Some("Jean")},
		Address: models.Address{Street: "1 rue du Bois", City: "Lyon", PostalCode: "69001", Country: "France"},
		Total:   decimal.NewFromInt(180),
	}
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	row, err := OrderDraftToRow("o1", draft, created)
	require.NoError(t, err)
	assert.Equal(t, "pending", row.Status)
	assert.Equal(t, "Jean", row.CustomerName.String)
	assert.False(t, row.CustomerPhone.Valid)
	assert.False(t, row.Notes.Valid)

	order, err := OrderFromRow(row)
	require.NoError(t, err)
	assert.Equal(t, "o1", order.ID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "jean@example.fr", order.Contact.Email)
	assert.Equal(t, "Jean", order.Contact.Name.OrElse(""))
	assert.False(t, order.Contact.Phone.IsPresent())
	assert.Equal(t, "Lyon", order.Address.City)
	require.Len(t, order.Items, 1)
	assert.Equal(t, []string{"https://cdn/x.jpg"}, order.Items[0].Product.Images)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(180)))
	assert.Equal(t, created, order.CreatedAt)
}

func TestOrderFromRow_BadItems(t *testing.T) {
	_, err := OrderFromRow(OrderRow{ID: "o1", Items: []byte("{")})
	assert.Error(t, err)
}
