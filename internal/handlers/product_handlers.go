package handlers

import (
	"net/http"
	"strconv"

	"github.com/01moynul/fvcommerce-golang/internal/apperr"
	"github.com/01moynul/fvcommerce-golang/internal/service"
	"github.com/gin-gonic/gin"
)

//
// --- Product Handlers ---
//

// CreateProduct (admin)
func (h *Handlers) CreateProduct(c *gin.Context) {
	var input service.ProductInput
	if !bindJSON(c, &input) {
		return
	}

	product, err := h.Services.Catalog.CreateProduct(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProductPrice (admin) handles PUT /products/:id/price.
func (h *Handlers) UpdateProductPrice(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input service.PriceUpdateInput
	if !bindJSON(c, &input) {
		return
	}

	product, err := h.Services.Catalog.UpdateProductPrice(c.Request.Context(), id, input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// GetProducts lists active products.
// Query params: skip, limit, category_id, is_organic.
func (h *Handlers) GetProducts(c *gin.Context) {
	// 1. --- Parse Filters ---
	var query service.ProductQuery
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	query.Page = page

	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fail(c, apperr.Validation("category_id must be an integer"))
			return
		}
		query.CategoryID = &id
	}
	if raw := c.Query("is_organic"); raw != "" {
		organic, err := strconv.ParseBool(raw)
		if err != nil {
			fail(c, apperr.Validation("is_organic must be true or false"))
			return
		}
		query.IsOrganic = &organic
	}

	// 2. --- Fetch ---
	products, err := h.Services.Catalog.ListProducts(c.Request.Context(), query)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handlers) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	product, err := h.Services.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
