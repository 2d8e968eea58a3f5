package service

import (
	"html"
	"strings"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const (
	maxNotesLength = 1000
	maxListLimit   = 100
)

// ValidateCheckoutRequest validates the guest contact and delivery fields.
func ValidateCheckoutRequest(req *CheckoutRequest) error {
	email := strings.TrimSpace(req.Contact.Email)
	if email == "" {
		return errors.NewValidationError("email", "email is required")
	}
	if !strings.Contains(email, "@") {
		return errors.NewValidationError("email", "email is invalid")
	}

	return validateAddress(&req.Address)
}

func validateAddress(addr *models.Address) error {
	if strings.TrimSpace(addr.Street) == "" {
		return errors.NewValidationError("address", "street is required")
	}
	if strings.TrimSpace(addr.City) == "" {
		return errors.NewValidationError("city", "city is required")
	}
	if strings.TrimSpace(addr.PostalCode) == "" {
		return errors.NewValidationError("postal_code", "postal code is required")
	}
	if strings.TrimSpace(addr.Country) == "" {
		return errors.NewValidationError("country", "country is required")
	}
	return nil
}

// ValidateCreateProductRequest validates a new catalog item.
func ValidateCreateProductRequest(req *models.CreateProductRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.NewValidationError("name", "name is required")
	}
	if req.Price.IsNegative() {
		return errors.NewValidationError("price", "price cannot be negative")
	}
	if orig, ok := req.OriginalPrice.Get(); ok && orig.IsNegative() {
		return errors.NewValidationError("original_price", "original price cannot be negative")
	}
	if !req.Category.Valid() {
		return errors.NewValidationError("category", "category must be firewood, stoves or accessories")
	}
	if req.Stock < 0 {
		return errors.NewValidationError("stock", "stock cannot be negative")
	}
	return nil
}

// ValidateUpdateProductRequest validates the fields present in a partial update.
func ValidateUpdateProductRequest(req *models.UpdateProductRequest) error {
	if name, ok := req.Name.Get(); ok && strings.TrimSpace(name) == "" {
		return errors.NewValidationError("name", "name cannot be empty")
	}
	if price, ok := req.Price.Get(); ok && price.IsNegative() {
		return errors.NewValidationError("price", "price cannot be negative")
	}
	if orig, ok := req.OriginalPrice.Get(); ok && orig.IsNegative() {
		return errors.NewValidationError("original_price", "original price cannot be negative")
	}
	if cat, ok := req.Category.Get(); ok && !cat.Valid() {
		return errors.NewValidationError("category", "category must be firewood, stoves or accessories")
	}
	if stock, ok := req.Stock.Get(); ok && stock < 0 {
		return errors.NewValidationError("stock", "stock cannot be negative")
	}
	return nil
}

// ValidateUpdateOrderStatusRequest validates a status update request.
func ValidateUpdateOrderStatusRequest(req *models.UpdateOrderStatusRequest) error {
	if req.Status == "" {
		return errors.NewValidationError("status", "status is required")
	}
	if !req.Status.Valid() {
		return errors.NewValidationError("status", "invalid order status")
	}
	return nil
}

// ValidateOrderListFilter validates a list filter and caps its limit.
func ValidateOrderListFilter(filter *models.OrderListFilter) error {
	if filter.Limit < 0 {
		return errors.NewValidationError("limit", "limit cannot be negative")
	}
	if filter.Offset < 0 {
		return errors.NewValidationError("offset", "offset cannot be negative")
	}
	if status, ok := filter.Status.Get(); ok && !status.Valid() {
		return errors.NewValidationError("status", "invalid order status")
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	return nil
}

// SanitizeOrderNotes bounds customer notes to maxNotesLength runes and then
// escapes markup, so an entity is never cut in half.
func SanitizeOrderNotes(notes string) string {
	notes = strings.TrimSpace(notes)
	if r := []rune(notes); len(r) > maxNotesLength {
		notes = string(r[:maxNotesLength])
	}
	return html.EscapeString(notes)
}
