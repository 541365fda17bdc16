package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/01moynul/fvcommerce-golang/internal/apperr"
	"github.com/01moynul/fvcommerce-golang/internal/models"
	"github.com/01moynul/fvcommerce-golang/internal/store"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CategoryInput defines the JSON for creating a category.
type CategoryInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

func (in *CategoryInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = trimPtr(in.Description)
	return validateStruct(in)
}

// ProductInput defines the JSON for creating a product.
type ProductInput struct {
	Name            string          `json:"name" validate:"required,max=255"`
	Description     *string         `json:"description" validate:"omitempty,max=5000"`
	Price           decimal.Decimal `json:"price" validate:"-"`
	Unit            string          `json:"unit" validate:"omitempty,max=32"`
	CategoryID      int64           `json:"category_id" validate:"required,gt=0"`
	StockQuantity   int             `json:"stock_quantity" validate:"gte=0"`
	ImageURL        *string         `json:"image_url" validate:"omitempty,url,max=1024"`
	NutritionalInfo *string         `json:"nutritional_info" validate:"omitempty,max=5000"`
	Origin          *string         `json:"origin" validate:"omitempty,max=255"`
	IsOrganic       bool            `json:"is_organic"`
}

func (in *ProductInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	if in.Unit == "" {
		in.Unit = "kg"
	}
	in.Description = trimPtr(in.Description)
	in.ImageURL = trimPtr(in.ImageURL)
	in.NutritionalInfo = trimPtr(in.NutritionalInfo)
	in.Origin = trimPtr(in.Origin)

	if err := validateStruct(in); err != nil {
		return err
	}
	return validatePrice(in.Price)
}

// PriceUpdateInput defines the JSON for PUT /products/:id/price.
type PriceUpdateInput struct {
	Price decimal.Decimal `json:"price"`
}

func (in *PriceUpdateInput) Validate() error {
	return validatePrice(in.Price)
}

// ProductQuery narrows GET /products.
type ProductQuery struct {
	CategoryID *int64
	IsOrganic  *bool
	Page       Page
}

// Catalog manages categories and products.
type Catalog struct {
	store store.Store
	log   zerolog.Logger
}

// CreateCategory adds a category. Only a repeated name is a Conflict; a name
// whose slug is already taken gets a numbered slug instead.
func (s *Catalog) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:        in.Name,
		Description: in.Description,
		IsActive:    true,
	}
	base := baseSlug(in.Name)

	// A concurrent insert can claim the chosen slug; pick again when it does.
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		err = s.store.ExecTx(ctx, func(q store.Querier) error {
			// 1. --- Reject duplicates by name ---
			_, err := q.GetCategoryByName(ctx, in.Name)
			if err == nil {
				return apperr.Conflict("category already exists")
			}
			if !errors.Is(err, apperr.ErrNotFound) {
				return err
			}

			// 2. --- Pick a free slug ---
			category.Slug, err = freeSlug(ctx, q, base)
			if err != nil {
				return err
			}

			// 3. --- Insert ---
			return q.CreateCategory(ctx, category)
		})
		if !errors.Is(err, store.ErrSlugTaken) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, store.ErrSlugTaken) {
			return nil, apperr.Internal(err)
		}
		return nil, err
	}
	return category, nil
}

const (
	slugAttempts = 3
	maxBaseSlug  = 110
	fallbackSlug = "category"
)

// baseSlug is the URL form of name, or "category" when name has no letters or digits.
func baseSlug(name string) string {
	base := slug.Make(name)
	if len(base) > maxBaseSlug {
		base = strings.TrimRight(base[:maxBaseSlug], "-")
	}
	if base == "" {
		return fallbackSlug
	}
	return base
}

// freeSlug returns base, or base-2, base-3, ... for the first one not in use.
func freeSlug(ctx context.Context, q store.Querier, base string) (string, error) {
	candidate := base
	for n := 2; ; n++ {
		_, err := q.GetCategoryBySlug(ctx, candidate)
		if errors.Is(err, apperr.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

// ListCategories returns active categories in creation order.
func (s *Catalog) ListCategories(ctx context.Context, page Page) ([]models.Category, error) {
	page, err := page.normalize(categoryPageSize)
	if err != nil {
		return nil, err
	}
	return s.store.ListActiveCategories(ctx, page.Offset, page.Limit)
}

// DeactivateCategory hides a category from listings. Rows are never deleted.
func (s *Catalog) DeactivateCategory(ctx context.Context, id int64) error {
	if err := s.store.DeactivateCategory(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("category_id", id).Msg("category deactivated")
	return nil
}

func (s *Catalog) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	category, err := s.store.GetCategory(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}
	if !category.IsActive {
		return nil, apperr.NotFound("category not found")
	}

	product := &models.Product{
		Name:            in.Name,
		Description:     in.Description,
		Price:           in.Price,
		Unit:            in.Unit,
		CategoryID:      in.CategoryID,
		StockQuantity:   in.StockQuantity,
		ImageURL:        in.ImageURL,
		NutritionalInfo: in.NutritionalInfo,
		Origin:          in.Origin,
		IsOrganic:       in.IsOrganic,
		IsActive:        true,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	product.Category = category
	return product, nil
}

// UpdateProductPrice replaces the current price. Order items keep the price
// they were bought at.
func (s *Catalog) UpdateProductPrice(ctx context.Context, id int64, in PriceUpdateInput) (*models.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var product *models.Product
	err := s.store.ExecTx(ctx, func(q store.Querier) error {
		if err := q.UpdateProductPrice(ctx, id, in.Price); err != nil {
			return err
		}
		var err error
		product, err = q.GetProduct(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("product_id", id).Str("price", in.Price.StringFixed(2)).Msg("product price updated")
	return product, nil
}

// ListProducts returns active products matching every set filter.
func (s *Catalog) ListProducts(ctx context.Context, query ProductQuery) ([]models.Product, error) {
	page, err := query.Page.normalize(productPageSize)
	if err != nil {
		return nil, err
	}
	return s.store.ListActiveProducts(ctx, models.ProductFilter{
		CategoryID: query.CategoryID,
		IsOrganic:  query.IsOrganic,
		Offset:     page.Offset,
		Limit:      page.Limit,
	})
}

// GetProduct returns an active product. Inactive products look missing.
func (s *Catalog) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return activeProduct(ctx, s.store, id)
}

func activeProduct(ctx context.Context, q store.Querier, id int64) (*models.Product, error) {
	product, err := q.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, apperr.NotFound("product not found")
	}
	return product, nil
}
