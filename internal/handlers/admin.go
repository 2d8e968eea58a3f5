package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const maxImageUploadBytes = 10 << 20

// DeleteImageRequest is the body of DELETE /api/v1/admin/images.
type DeleteImageRequest struct {
	URL string `json:"url" binding:"required"`
}

// AdminListProducts handles GET /api/v1/admin/products
func (h *Handlers) AdminListProducts(c *gin.Context) {
	filter, err := productFilterFromQuery(c)
	if err != nil {
		handleError(c, err)
		return
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    len(products),
	})
}

// CreateProduct handles POST /api/v1/admin/products
func (h *Handlers) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/admin/products/:id
func (h *Handlers) UpdateProduct(c *gin.Context) {
	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/admin/products/:id
func (h *Handlers) DeleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RefreshProducts handles POST /api/v1/admin/products/refresh
func (h *Handlers) RefreshProducts(c *gin.Context) {
	if err := h.catalog.RefreshProducts(c.Request.Context()); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}

// ListOrders handles GET /api/v1/admin/orders
func (h *Handlers) ListOrders(c *gin.Context) {
	filter := &models.OrderListFilter{}
	if raw := c.Query("status"); raw != "" {
		filter.Status = models.Some(models.OrderStatus(raw))
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			handleError(c, errors.NewValidationError("limit", "must be a number"))
			return
		}
		filter.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			handleError(c, errors.NewValidationError("offset", "must be a number"))
			return
		}
		filter.Offset = offset
	}

	orders, total, err := h.orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetOrder handles GET /api/v1/admin/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus handles PUT /api/v1/admin/orders/:id/status
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.orders.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// DeleteOrder handles DELETE /api/v1/admin/orders/:id
func (h *Handlers) DeleteOrder(c *gin.Context) {
	if err := h.orders.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Stats handles GET /api/v1/admin/stats
func (h *Handlers) Stats(c *gin.Context) {
	stats, err := h.orders.Stats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UploadImage handles POST /api/v1/admin/images (multipart field "file")
func (h *Handlers) UploadImage(c *gin.Context) {
	if h.images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage is disabled"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		handleError(c, errors.NewValidationError("file", "an image file is required"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		handleError(c, errors.Wrap(err, "open upload"))
		return
	}
	defer f.Close()

	url, err := h.images.Upload(c.Request.Context(), fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		handleError(c, err)
		return
	}

	h.logger.Info("Image uploaded", logging.Fields{
		"filename": fh.Filename,
		"size":     fh.Size,
		"url":      url,
	})
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// DeleteImage handles DELETE /api/v1/admin/images
func (h *Handlers) DeleteImage(c *gin.Context) {
	if h.images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage is disabled"})
		return
	}

	var req DeleteImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.images.Delete(c.Request.Context(), req.URL); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
