package routes

import (
	"github.com/01moynul/fvcommerce-golang/internal/apperr"
	"github.com/01moynul/fvcommerce-golang/internal/handlers"
	"github.com/01moynul/fvcommerce-golang/internal/middleware"
	"github.com/01moynul/fvcommerce-golang/internal/models"
	"github.com/gin-gonic/gin"
)

// Options carries router-level settings that are not handler dependencies.
type Options struct {
	AllowedOrigin string
	LoginLimiter  *middleware.IPRateLimiter
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	router := gin.New()

	// --- Global middleware ---
	// CORS must run before any route so preflight requests are answered.
	router.Use(
		middleware.RequestID(),
		middleware.Logger(h.Logger),
		middleware.Recovery(h.Logger),
		middleware.CORS(opts.AllowedOrigin),
	)
	router.NoRoute(func(c *gin.Context) {
		middleware.AbortWithError(c, apperr.NotFound("route not found"))
	})

	// --- Public Routes ---
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	// --- Auth Routes (Public) ---
	router.POST("/register", h.Register)
	router.POST("/token", middleware.RateLimit(opts.LoginLimiter), h.Token)

	// --- Public Catalog Routes ---
	router.GET("/categories", h.GetCategories)
	router.GET("/products", h.GetProducts)
	router.GET("/products/:id", h.GetProduct)

	// --- Protected Routes (Login Required) ---
	authed := router.Group("/")
	authed.Use(middleware.AuthMiddleware(h.Tokens, h.Services.Identity))
	{
		authed.GET("/users/me", h.Me)

		// --- Cart ---
		authed.POST("/cart/add", h.AddToCart)
		authed.GET("/cart", h.GetCart)
		authed.DELETE("/cart/:id", h.RemoveFromCart)

		// --- Wishlist ---
		authed.POST("/wishlist/add", h.AddToWishlist)
		authed.GET("/wishlist", h.GetWishlist)
		authed.DELETE("/wishlist/:id", h.RemoveFromWishlist)

		// --- Orders ---
		authed.POST("/orders", h.CreateOrder)
		authed.GET("/orders", h.GetMyOrders)
		authed.GET("/orders/:id", h.GetOrder)
		authed.GET("/orders/:id/qr-code", h.GetOrderQRCode)
	}

	// --- Admin-Only Routes ---
	admin := router.Group("/")
	admin.Use(middleware.AuthMiddleware(h.Tokens, h.Services.Identity))
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.POST("/categories", h.CreateCategory)
		admin.DELETE("/categories/:id", h.DeactivateCategory)
		admin.POST("/products", h.CreateProduct)
		admin.PUT("/products/:id/price", h.UpdateProductPrice)

		admin.GET("/admin/orders", h.GetAllOrders)
		admin.GET("/admin/users", h.GetAllUsers)
		admin.GET("/admin/dashboard-stats", h.GetDashboardStats)
	}

	return router
}
