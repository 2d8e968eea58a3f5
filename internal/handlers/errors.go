package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/currency"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/session"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	if errors.Is(err, errors.ErrSubmissionFailed) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "order could not be submitted, please try again"})
		return
	}

	if errors.Is(err, session.ErrNotSaved) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cart could not be saved, please try again"})
		return
	}

	if errors.Is(err, errors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
		return
	}

	if errors.Is(err, currency.ErrUnknownCurrency) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var validationErr *errors.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   validationErr.Message,
			"details": validationErr.Details,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
}
