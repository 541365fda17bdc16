package handlers

import (
	"net/http"

	"github.com/01moynul/fvcommerce-golang/internal/service"
	"github.com/gin-gonic/gin"
)

//
// --- Category Handlers ---
//

// CreateCategory (admin) adds a category; its slug is derived from the name.
func (h *Handlers) CreateCategory(c *gin.Context) {
	var input service.CategoryInput
	if !bindJSON(c, &input) {
		return
	}

	category, err := h.Services.Catalog.CreateCategory(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// GetCategories lists active categories.
func (h *Handlers) GetCategories(c *gin.Context) {
	page, ok := pageQuery(c)
	if !ok {
		return
	}

	categories, err := h.Services.Catalog.ListCategories(c.Request.Context(), page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// DeactivateCategory (admin) soft-deletes a category.
func (h *Handlers) DeactivateCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.Services.Catalog.DeactivateCategory(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deactivated"})
}
