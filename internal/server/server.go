package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/middleware"
)

// Server wires the storefront routes onto a gin engine.
type Server struct {
	config     *config.Config
	router     *gin.Engine
	handlers   *handlers.Handlers
	httpServer *http.Server
	logger     *logging.LoggerV2
}

// New builds the router and the underlying http.Server.
func New(h *handlers.Handlers, m *metrics.Metrics, cfg *config.Config) *Server {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(logging.NewLoggerV2("http")),
		middleware.Metrics(m),
	)

	s := &Server{
		config:   cfg,
		router:   router,
		handlers: h,
		logger:   logging.NewLoggerV2("server"),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.Health)
	s.router.GET("/ready", h.Ready)
	s.router.GET("/live", h.Live)
	s.router.GET("/version", h.Version)
	s.router.GET("/metrics", h.Metrics)

	v1 := s.router.Group("/api/v1")
	v1.GET("/images/:id", h.GetImage)

	shop := v1.Group("", middleware.Session(s.config.Session))
	{
		shop.GET("/products", h.ListProducts)
		shop.GET("/products/featured", h.FeaturedProducts)
		shop.GET("/products/:id", h.GetProduct)

		shop.GET("/cart", h.GetCart)
		shop.DELETE("/cart", h.ClearCart)
		shop.POST("/cart/items", h.AddCartItem)
		shop.PUT("/cart/items/:productId", h.UpdateCartItem)
		shop.DELETE("/cart/items/:productId", h.RemoveCartItem)

		shop.GET("/currency", h.GetCurrency)
		shop.PUT("/currency", h.SetCurrency)

		shop.POST("/checkout", h.Checkout)

		shop.DELETE("/session", h.EndSession)
	}

	admin := v1.Group("/admin", s.adminAuth())
	{
		admin.GET("/products", h.AdminListProducts)
		admin.POST("/products", h.CreateProduct)
		admin.POST("/products/refresh", h.RefreshProducts)
		admin.PUT("/products/:id", h.UpdateProduct)
		admin.DELETE("/products/:id", h.DeleteProduct)

		admin.GET("/orders", h.ListOrders)
		admin.GET("/orders/:id", h.GetOrder)
		admin.PUT("/orders/:id/status", h.UpdateOrderStatus)
		admin.DELETE("/orders/:id", h.DeleteOrder)

		admin.GET("/stats", h.Stats)

		admin.POST("/images", h.UploadImage)
		admin.DELETE("/images", h.DeleteImage)
	}
}

// adminAuth guards the back office with HTTP basic auth. Without a
// configured access code every admin request is refused.
func (s *Server) adminAuth() gin.HandlerFunc {
	if s.config.Admin.AccessCode == "" {
		s.logger.Warn("ADMIN_ACCESS_CODE is empty, admin routes are disabled")
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin access is disabled"})
		}
	}
	return gin.BasicAuthForRealm(gin.Accounts{
		s.config.Admin.Username: s.config.Admin.AccessCode,
	}, "storefront admin")
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Listening", logging.Fields{"addr": s.httpServer.Addr})
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
