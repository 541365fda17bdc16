package handlers

import (
	"net/http"

	"github.com/01moynul/fvcommerce-golang/internal/service"
	"github.com/gin-gonic/gin"
)

//
// --- Order Handlers ---
//

// CreateOrder checks out the caller's cart.
func (h *Handlers) CreateOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var input service.CreateOrderInput
	if !bindJSON(c, &input) {
		return
	}

	order, err := h.Services.Orders.Create(c.Request.Context(), user, input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetMyOrders lists the caller's orders, newest first.
func (h *Handlers) GetMyOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	page, ok := pageQuery(c)
	if !ok {
		return
	}

	orders, err := h.Services.Orders.List(c.Request.Context(), user, page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handlers) GetOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.Services.Orders.Get(c.Request.Context(), user, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetOrderQRCode renders the payment QR of an unpaid order.
func (h *Handlers) GetOrderQRCode(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	qr, err := h.Services.Orders.PaymentQR(c.Request.Context(), user, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, qr)
}
