package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rawnaqshop/dashboard-service/internal/access"
	"go.uber.org/zap"
)

func NewRouter(h *Handler, appEnv string, allowOrigins []string, logger *zap.Logger) *gin.Engine {
	if appEnv != "development" && appEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api", h.Identify())

	api.GET("/dashboard", h.GetDashboard)
	api.GET("/products", h.GetProducts)
	api.GET("/products/search", h.SearchProducts)
	api.GET("/orders", h.GetOrders)
	api.GET("/customers", h.GetCustomers)
	api.GET("/profits", h.GetProfits)
	api.GET("/catalog", h.GetCatalog)
	api.POST("/refresh", h.Refresh)

	api.POST("/products", RequirePermission(access.PermManageProducts), h.CreateProduct)
	api.PUT("/products/:id", RequirePermission(access.PermManageProducts), h.UpdateProduct)
	api.POST("/orders", RequirePermission(access.PermManageOrders), h.CreateOrder)
	api.PUT("/orders/:id", RequirePermission(access.PermManageOrders), h.UpdateOrder)
	api.POST("/customers", RequirePermission(access.PermManageOrders), h.CreateCustomer)
	api.PUT("/customers/:id", RequirePermission(access.PermManageOrders), h.UpdateCustomer)
	api.POST("/stock/adjust", RequirePermission(access.PermManageInventory), h.AdjustStock)
	api.PUT("/settings/:key", RequireAdmin(), h.UpdateSetting)

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}
