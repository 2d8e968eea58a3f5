package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// OrderRow is an orders table row.
type OrderRow struct {
	ID                 string
	CustomerName       sql.NullString
	CustomerEmail      string
	CustomerPhone      sql.NullString
	DeliveryAddress    string
	DeliveryCity       string
	DeliveryPostalCode string
	DeliveryCountry    string
	Notes              sql.NullString
	Items              []byte
	TotalAmount        decimal.Decimal
	Status             string
	CreatedAt          time.Time
}

// OrderFromRow maps a stored row to an order.
func OrderFromRow(row OrderRow) (*models.Order, error) {
	items := make([]models.OrderLine, 0)
	if len(row.Items) > 0 {
		if err := json.Unmarshal(row.Items, &items); err != nil {
			return nil, errors.Wrapf(err, "decode items of order %s", row.ID)
		}
	}

	return &models.Order{
		ID:    row.ID,
		Items: items,
		Contact: models.Contact{
			Email: row.CustomerEmail,
			Name:  optionalString(row.CustomerName),
			Phone: optionalString(row.CustomerPhone),
		},
		Address: models.Address{
			Street:     row.DeliveryAddress,
			City:       row.DeliveryCity,
			PostalCode: row.DeliveryPostalCode,
			Country:    row.DeliveryCountry,
		},
		Notes:     optionalString(row.Notes),
		Status:    models.OrderStatus(row.Status),
		Total:     row.TotalAmount,
		CreatedAt: row.CreatedAt,
	}, nil
}

// OrderDraftToRow maps a draft to a new pending row.
func OrderDraftToRow(id string, draft *models.OrderDraft, createdAt time.Time) (OrderRow, error) {
	lines := draft.Items
	if lines == nil {
		lines = []models.OrderLine{}
	}
	items, err := json.Marshal(lines)
	if err != nil {
		return OrderRow{}, errors.Wrap(err, "encode order items")
	}

	return OrderRow{
		ID:                 id,
		CustomerName:       nullString(draft.Contact.Name),
		CustomerEmail:      draft.Contact.Email,
		CustomerPhone:      nullString(draft.Contact.Phone),
		DeliveryAddress:    draft.Address.Street,
		DeliveryCity:       draft.Address.City,
		DeliveryPostalCode: draft.Address.PostalCode,
		DeliveryCountry:    draft.Address.Country,
		Notes:              nullString(draft.Notes),
		Items:              items,
		TotalAmount:        draft.Total,
		Status:             string(models.OrderStatusPending),
		CreatedAt:          createdAt,
	}, nil
}

func optionalString(s sql.NullString) models.Optional[string] {
	if !s.Valid || s.String == "" {
		return models.None[string]()
	}
	return models.Some(s.String)
}

func nullString(o models.Optional[string]) sql.NullString {
	v, ok := o.Get()
	if !ok || v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
