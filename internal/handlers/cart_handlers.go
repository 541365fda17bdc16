package handlers

import (
	"net/http"

	"github.com/01moynul/fvcommerce-golang/internal/service"
	"github.com/gin-gonic/gin"
)

//
// --- Cart Handlers ---
//

// AddToCart adds to the line for a product; re-adding increments its quantity.
func (h *Handlers) AddToCart(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	// quantity defaults to 1 when omitted
	input := service.AddToCartInput{Quantity: 1}
	if !bindJSON(c, &input) {
		return
	}

	item, err := h.Services.Cart.Add(c.Request.Context(), user, input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetCart returns the lines plus total_items and total_amount.
func (h *Handlers) GetCart(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	cart, err := h.Services.Cart.Get(c.Request.Context(), user)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handlers) RemoveFromCart(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.Services.Cart.Remove(c.Request.Context(), user, itemID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}
