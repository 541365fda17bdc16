package service

import (
	"context"
	"errors"
	"strings"

	"github.com/01moynul/fvcommerce-golang/internal/apperr"
	"github.com/01moynul/fvcommerce-golang/internal/models"
	"github.com/01moynul/fvcommerce-golang/internal/payment"
	"github.com/01moynul/fvcommerce-golang/internal/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CreateOrderInput defines the JSON for POST /orders.
type CreateOrderInput struct {
	DeliveryAddress string  `json:"delivery_address" validate:"required,max=2000"`
	Notes           *string `json:"notes" validate:"omitempty,max=2000"`
}

func (in *CreateOrderInput) Validate() error {
	in.DeliveryAddress = strings.TrimSpace(in.DeliveryAddress)
	in.Notes = trimPtr(in.Notes)
	return validateStruct(in)
}

// PaymentQR is the response of GET /orders/:id/qr-code.
type PaymentQR struct {
	OrderID             int64           `json:"order_id"`
	OrderNumber         string          `json:"order_number"`
	Amount              decimal.Decimal `json:"amount"`
	QRCodeData          string          `json:"qr_code_data"`
	QRCodeImage         string          `json:"qr_code_image"`
	PaymentInstructions string          `json:"payment_instructions"`
}

// Orders converts carts into orders and serves order history.
type Orders struct {
	store    store.Store
	merchant payment.Merchant
	renderer payment.Renderer
	log      zerolog.Logger

	newOrderNumber func() string
}

// Create checks out the user's cart: the order, its items and the removal of
// the consumed cart lines commit together or not at all.
func (s *Orders) Create(ctx context.Context, user *models.User, in CreateOrderInput) (*models.Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.store.ExecTx(ctx, func(q store.Querier) error {
		// 1. --- Lock the cart lines ---
		lines, err := q.ListCartItems(ctx, user.ID, true)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return apperr.EmptyCart()
		}

		// 2. --- Snapshot prices and total ---
		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(lines))
		lineIDs := make([]int64, 0, len(lines))
		for _, line := range lines {
			lineTotal := line.LineTotal()
			items = append(items, models.OrderItem{
				ProductID:  line.ProductID,
				Quantity:   line.Quantity,
				UnitPrice:  line.Product.Price,
				TotalPrice: lineTotal,
				Product:    line.Product,
			})
			lineIDs = append(lineIDs, line.ID)
			total = total.Add(lineTotal)
		}
		if total.GreaterThanOrEqual(maxPrice) {
			return apperr.Validation("order total is too large")
		}

		// 3. --- Build the order with its payment reference ---
		number := s.newOrderNumber()
		o := &models.Order{
			UserID:          user.ID,
			OrderNumber:     number,
			TotalAmount:     total,
			Status:          models.OrderPending,
			PaymentStatus:   models.PaymentPending,
			PaymentMethod:   models.PaymentMethodQRCode,
			QRCodeData:      s.merchant.Payload(number, total),
			DeliveryAddress: in.DeliveryAddress,
			Notes:           in.Notes,
			Items:           items,
		}

		// 4. --- Persist order and items ---
		if err := q.CreateOrder(ctx, o); err != nil {
			return err
		}

		// 5. --- Clear the consumed cart lines ---
		if err := q.DeleteCartItems(ctx, user.ID, lineIDs); err != nil {
			return err
		}

		order = o
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrEmptyCart) || errors.Is(err, apperr.ErrInternal) {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}

	s.log.Info().
		Str("order_number", order.OrderNumber).
		Int64("user_id", user.ID).
		Str("total_amount", order.TotalAmount.StringFixed(2)).
		Msg("order created")
	return order, nil
}

// List returns the user's orders, newest first.
func (s *Orders) List(ctx context.Context, user *models.User, page Page) ([]models.Order, error) {
	page, err := page.normalize(orderPageSize)
	if err != nil {
		return nil, err
	}
	return s.store.ListOrders(ctx, models.OrderFilter{
		UserID: &user.ID,
		Offset: page.Offset,
		Limit:  page.Limit,
	})
}

// Get returns one of the user's orders. Other users' orders look missing.
func (s *Orders) Get(ctx context.Context, user *models.User, id int64) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != user.ID {
		return nil, apperr.NotFound("order not found")
	}
	return order, nil
}

// PaymentQR renders the stored payment reference of an unpaid order.
func (s *Orders) PaymentQR(ctx context.Context, user *models.User, id int64) (*PaymentQR, error) {
	order, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == models.PaymentCompleted {
		return nil, apperr.AlreadyPaid()
	}

	img, err := s.renderer.Render(order.QRCodeData)
	if err != nil {
		return nil, apperr.Render(err)
	}

	return &PaymentQR{
		OrderID:             order.ID,
		OrderNumber:         order.OrderNumber,
		Amount:              order.TotalAmount,
		QRCodeData:          order.QRCodeData,
		QRCodeImage:         payment.DataURI(img),
		PaymentInstructions: payment.Instructions,
	}, nil
}

// ListAll is the admin view over every order, optionally by status.
func (s *Orders) ListAll(ctx context.Context, status string, page Page) ([]models.Order, error) {
	page, err := page.normalize(adminOrderPageSize)
	if err != nil {
		return nil, err
	}

	filter := models.OrderFilter{Offset: page.Offset, Limit: page.Limit}
	if status != "" {
		st, err := models.ParseOrderStatus(strings.ToLower(status))
		if err != nil {
			return nil, apperr.Validationf("status must be one of: %s", joinStatuses())
		}
		filter.Status = &st
	}
	return s.store.ListOrders(ctx, filter)
}

func joinStatuses() string {
	names := make([]string, len(models.OrderStatuses))
	for i, st := range models.OrderStatuses {
		names[i] = string(st)
	}
	return strings.Join(names, " ")
}
