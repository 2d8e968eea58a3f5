package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/currency"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// AddCartItemRequest is the body of POST /api/v1/cart/items.
type AddCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// UpdateCartItemRequest is the body of PUT /api/v1/cart/items/:productId.
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// SetCurrencyRequest is the body of PUT /api/v1/currency.
type SetCurrencyRequest struct {
	Code string `json:"code" binding:"required"`
}

// ListProducts handles GET /api/v1/products
func (h *Handlers) ListProducts(c *gin.Context) {
	filter, err := productFilterFromQuery(c)
	if err != nil {
		handleError(c, err)
		return
	}

	products, err := h.storefront.ListProducts(c.Request.Context(), middleware.SessionID(c), filter)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    len(products),
	})
}

// FeaturedProducts handles GET /api/v1/products/featured
func (h *Handlers) FeaturedProducts(c *gin.Context) {
	products, err := h.storefront.FeaturedProducts(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    len(products),
	})
}

// GetProduct handles GET /api/v1/products/:id
func (h *Handlers) GetProduct(c *gin.Context) {
	product, err := h.storefront.GetProduct(c.Request.Context(), middleware.SessionID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// GetImage handles GET /api/v1/images/:id
func (h *Handlers) GetImage(c *gin.Context) {
	if h.images == nil {
		handleError(c, errors.ErrNotFound)
		return
	}

	img, err := h.images.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	defer img.Close()

	c.DataFromReader(http.StatusOK, img.Size, img.ContentType, img, map[string]string{
		"Cache-Control": "public, max-age=86400",
	})
}

// GetCart handles GET /api/v1/cart
func (h *Handlers) GetCart(c *gin.Context) {
	cart, err := h.storefront.Cart(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddCartItem handles POST /api/v1/cart/items
func (h *Handlers) AddCartItem(c *gin.Context) {
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cart, err := h.storefront.AddToCart(c.Request.Context(), middleware.SessionID(c), req.ProductID, req.Quantity)
	if err != nil {
		handleError(c, err)
		return
	}

	h.metrics.CartMutation("add")
	c.JSON(http.StatusOK, cart)
}

// UpdateCartItem handles PUT /api/v1/cart/items/:productId
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cart, err := h.storefront.UpdateCartItem(c.Request.Context(), middleware.SessionID(c), c.Param("productId"), *req.Quantity)
	if err != nil {
		handleError(c, err)
		return
	}

	h.metrics.CartMutation("update")
	c.JSON(http.StatusOK, cart)
}

// RemoveCartItem handles DELETE /api/v1/cart/items/:productId
func (h *Handlers) RemoveCartItem(c *gin.Context) {
	cart, err := h.storefront.RemoveCartItem(c.Request.Context(), middleware.SessionID(c), c.Param("productId"))
	if err != nil {
		handleError(c, err)
		return
	}

	h.metrics.CartMutation("remove")
	c.JSON(http.StatusOK, cart)
}

// ClearCart handles DELETE /api/v1/cart
func (h *Handlers) ClearCart(c *gin.Context) {
	cart, err := h.storefront.ClearCart(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		handleError(c, err)
		return
	}

	h.metrics.CartMutation("clear")
	c.JSON(http.StatusOK, cart)
}

// GetCurrency handles GET /api/v1/currency
func (h *Handlers) GetCurrency(c *gin.Context) {
	view, err := h.storefront.Currency(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SetCurrency handles PUT /api/v1/currency
func (h *Handlers) SetCurrency(c *gin.Context) {
	var req SetCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	code := currency.Code(strings.ToUpper(strings.TrimSpace(req.Code)))
	view, err := h.storefront.SetCurrency(c.Request.Context(), middleware.SessionID(c), code)
	if err != nil {
		handleError(c, err)
		return
	}

	h.metrics.CurrencySelected(string(code))
	c.JSON(http.StatusOK, view)
}

func productFilterFromQuery(c *gin.Context) (models.ProductFilter, error) {
	filter := models.ProductFilter{
		Query: c.Query("q"),
		Sort:  models.SortPopular,
	}

	if raw := c.Query("category"); raw != "" && raw != "all" {
		category := models.Category(raw)
		if !category.Valid() {
			return filter, errors.NewValidationError("category", "unknown category")
		}
		filter.Category = models.Some(category)
	}

	if raw := c.Query("sort"); raw != "" {
		switch sort := models.ProductSort(raw); sort {
		case models.SortPopular, models.SortPriceAsc, models.SortPriceDesc, models.SortRating:
			filter.Sort = sort
		default:
			return filter, errors.NewValidationError("sort", "unknown sort order")
		}
	}
	return filter, nil
}

// EndSession handles DELETE /api/v1/session
func (h *Handlers) EndSession(c *gin.Context) {
	if err := h.storefront.EndSession(c.Request.Context(), middleware.SessionID(c)); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
