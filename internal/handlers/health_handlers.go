package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "FV Commerce - Vegetables & Fruits Store"
	serviceVersion = "2.0.0"
)

var features = []string{
	"User/Admin authentication",
	"Product catalog with categories",
	"Shopping cart management",
	"Wishlist",
	"Order history",
	"UPI QR code payments",
	"Admin dashboard",
}

// Root is the welcome document.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":  "Welcome to FV Commerce - Fresh Vegetables & Fruits Store",
		"status":   "healthy",
		"version":  serviceVersion,
		"features": features,
	})
}

// Health reports liveness and whether the store answers a ping.
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, database, code := "healthy", "connected", http.StatusOK
	if err := h.Services.Ping(ctx); err != nil {
		h.Logger.Warn().Err(err).Msg("health check: store unreachable")
		status, database, code = "degraded", "unreachable", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":   status,
		"service":  serviceName,
		"version":  serviceVersion,
		"database": database,
	})
}
