package service

import (
	"context"

	"github.com/01moynul/fvcommerce-golang/internal/models"
	"github.com/01moynul/fvcommerce-golang/internal/store"
)

// AddToWishlistInput defines the JSON for POST /wishlist/add.
type AddToWishlistInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

func (in *AddToWishlistInput) Validate() error {
	return validateStruct(in)
}

// Wishlist manages each user's saved products.
type Wishlist struct {
	store store.Store
}

// Add saves a product. A second add of the same product is a Conflict.
func (s *Wishlist) Add(ctx context.Context, user *models.User, in AddToWishlistInput) (*models.WishlistItem, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	product, err := activeProduct(ctx, s.store, in.ProductID)
	if err != nil {
		return nil, err
	}

	item, err := s.store.CreateWishlistItem(ctx, user.ID, product.ID)
	if err != nil {
		return nil, err
	}
	item.Product = product
	return item, nil
}

// Get lists the user's saved products in the order they were added.
func (s *Wishlist) Get(ctx context.Context, user *models.User) ([]models.WishlistItem, error) {
	return s.store.ListWishlistItems(ctx, user.ID)
}

// Remove deletes one of the user's entries. Other users' entries look missing.
func (s *Wishlist) Remove(ctx context.Context, user *models.User, itemID int64) error {
	return s.store.DeleteWishlistItem(ctx, user.ID, itemID)
}
