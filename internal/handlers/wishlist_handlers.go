package handlers

import (
	"net/http"

	"github.com/01moynul/fvcommerce-golang/internal/service"
	"github.com/gin-gonic/gin"
)

//
// --- Wishlist Handlers ---
//

func (h *Handlers) AddToWishlist(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var input service.AddToWishlistInput
	if !bindJSON(c, &input) {
		return
	}

	item, err := h.Services.Wishlist.Add(c.Request.Context(), user, input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handlers) GetWishlist(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.Services.Wishlist.Get(c.Request.Context(), user)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handlers) RemoveFromWishlist(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.Services.Wishlist.Remove(c.Request.Context(), user, itemID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from wishlist"})
}
