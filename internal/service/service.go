// Package service holds the business rules of the shop: identity, catalog,
// cart, wishlist and the cart-to-order workflow. Handlers call into it with
// already-decoded input; it talks to storage only through store.Store.
package service

import (
	"context"
	"strings"

	"github.com/01moynul/fvcommerce-golang/internal/payment"
	"github.com/01moynul/fvcommerce-golang/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options configures New.
type Options struct {
	Merchant payment.Merchant
	Renderer payment.Renderer
	// AdminSignupKey must accompany role=admin registrations. Empty disables them.
	AdminSignupKey string
	Logger         zerolog.Logger
}

// Services groups the per-area services sharing one store.
type Services struct {
	Identity  *Identity
	Catalog   *Catalog
	Cart      *Cart
	Wishlist  *Wishlist
	Orders    *Orders
	Dashboard *Dashboard

	store store.Store
}

func New(st store.Store, opts Options) *Services {
	logger := opts.Logger.With().Str("component", "service").Logger()
	return &Services{
		Identity: newIdentity(st, opts.AdminSignupKey, logger),
		Catalog:  &Catalog{store: st, log: logger},
		Cart:     &Cart{store: st},
		Wishlist: &Wishlist{store: st},
		Orders: &Orders{
			store:          st,
			merchant:       opts.Merchant,
			renderer:       opts.Renderer,
			log:            logger,
			newOrderNumber: newOrderNumber,
		},
		Dashboard: &Dashboard{store: st},
		store:     st,
	}
}

// Ping reports whether the backing store is reachable.
func (s *Services) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// newOrderNumber returns "ORD-" followed by 12 upper-case hex digits taken
// from a random UUID (48 random bits).
func newOrderNumber() string {
	id := uuid.New()
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:12])
}
