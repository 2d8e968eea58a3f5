package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/service"
)

// Checkout handles POST /api/v1/checkout
func (h *Handlers) Checkout(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sessionID := middleware.SessionID(c)
	result, err := h.checkout.Checkout(c.Request.Context(), sessionID, &req)
	if result != nil && errors.Is(err, errors.ErrCartNotCleared) {
		h.metrics.Checkout("success")
		h.logger.Warn("Checkout left the cart in place", logging.Fields{
			"session_id": sessionID,
			"order_id":   result.OrderID,
			"error":      err.Error(),
		})
		c.JSON(http.StatusCreated, gin.H{
			"order_id":      result.OrderID,
			"status":        result.Status,
			"total":         result.Total,
			"display_total": result.Display,
			"warning":       "your order was recorded but the cart could not be emptied; please clear it before ordering again",
		})
		return
	}
	if err != nil {
		switch {
		case errors.IsValidation(err):
			h.metrics.Checkout("rejected")
		default:
			h.metrics.Checkout("failed")
			h.logger.Warn("Checkout failed", logging.Fields{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
		handleError(c, err)
		return
	}

	h.metrics.Checkout("success")
	c.JSON(http.StatusCreated, result)
}
