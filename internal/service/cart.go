package service

import (
	"context"
	"fmt"

	"github.com/01moynul/fvcommerce-golang/internal/apperr"
	"github.com/01moynul/fvcommerce-golang/internal/models"
	"github.com/01moynul/fvcommerce-golang/internal/store"
	"github.com/shopspring/decimal"
)

// AddToCartInput defines the JSON for adding an item to the cart.
type AddToCartInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"gt=0,lte=10000"`
}

// maxCartQuantity bounds a merged cart line.
const maxCartQuantity = 10000

func (in *AddToCartInput) Validate() error {
	return validateStruct(in)
}

// Cart manages each user's pre-checkout lines.
type Cart struct {
	store store.Store
}

// Add puts quantity of a product in the cart, adding to an existing line.
// The merged quantity and its line total must still fit an order row.
func (s *Cart) Add(ctx context.Context, user *models.User, in AddToCartInput) (*models.CartItem, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var item *models.CartItem
	err := s.store.ExecTx(ctx, func(q store.Querier) error {
		product, err := activeProduct(ctx, q, in.ProductID)
		if err != nil {
			return err
		}

		// 1. --- Bound the merged line ---
		lines, err := q.ListCartItems(ctx, user.ID, true)
		if err != nil {
			return err
		}
		merged := in.Quantity
		for _, line := range lines {
			if line.ProductID == product.ID {
				merged += line.Quantity
			}
		}
		if merged > maxCartQuantity {
			return apperr.Validation(fmt.Sprintf("quantity in cart cannot exceed %d", maxCartQuantity))
		}
		if product.Price.Mul(decimal.NewFromInt(int64(merged))).GreaterThanOrEqual(maxPrice) {
			return apperr.Validation("line total is too large")
		}

		// 2. --- Insert or increment ---
		item, err = q.UpsertCartItem(ctx, user.ID, product.ID, in.Quantity)
		if err != nil {
			return err
		}
		item.Product = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Get returns the cart priced at current product prices.
func (s *Cart) Get(ctx context.Context, user *models.User) (*models.Cart, error) {
	items, err := s.store.ListCartItems(ctx, user.ID, false)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return &models.Cart{
		Items:       items,
		TotalItems:  len(items),
		TotalAmount: total,
	}, nil
}

// Remove deletes one of the user's lines. Other users' lines look missing.
func (s *Cart) Remove(ctx context.Context, user *models.User, itemID int64) error {
	return s.store.DeleteCartItem(ctx, user.ID, itemID)
}
