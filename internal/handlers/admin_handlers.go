package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// --- Admin Handlers ---
//

// GetAllOrders lists every order, newest first. Optional ?status= filter.
func (h *Handlers) GetAllOrders(c *gin.Context) {
	page, ok := pageQuery(c)
	if !ok {
		return
	}

	orders, err := h.Services.Orders.ListAll(c.Request.Context(), c.Query("status"), page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handlers) GetAllUsers(c *gin.Context) {
	page, ok := pageQuery(c)
	if !ok {
		return
	}

	users, err := h.Services.Identity.ListUsers(c.Request.Context(), page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
