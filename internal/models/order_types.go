package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every allowed value in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled,
}

// pending -> confirmed -> processing -> shipped -> delivered; cancelled from any non-terminal state.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderConfirmed, OrderCancelled},
	OrderConfirmed:  {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered, OrderCancelled},
	OrderDelivered:  nil,
	OrderCancelled:  nil,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if _, ok := orderTransitions[st]; !ok {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return st, nil
}

func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentStatus tracks the manually recorded payment state.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

var PaymentStatuses = []PaymentStatus{PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:   {PaymentCompleted, PaymentFailed},
	PaymentCompleted: {PaymentRefunded},
	PaymentFailed:    nil,
	PaymentRefunded:  nil,
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	st := PaymentStatus(s)
	if _, ok := paymentTransitions[st]; !ok {
		return "", fmt.Errorf("unknown payment status %q", s)
	}
	return st, nil
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentMethodQRCode is the only payment method offered.
const PaymentMethodQRCode = "QR_CODE"

// Order is the model for the 'orders' table. Rows are written once at checkout.
type Order struct {
	ID              int64           `json:"id" db:"id"`
	UserID          int64           `json:"user_id" db:"user_id"`
	OrderNumber     string          `json:"order_number" db:"order_number"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status          OrderStatus     `json:"status" db:"status"`
	PaymentStatus   PaymentStatus   `json:"payment_status" db:"payment_status"`
	PaymentMethod   string          `json:"payment_method" db:"payment_method"`
	QRCodeData      string          `json:"qr_code_data" db:"qr_code_data"`
	DeliveryAddress string          `json:"delivery_address" db:"delivery_address"`
	Notes           *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`

	Items []OrderItem `json:"order_items" db:"-"`
}

// OrderItem is the model for the 'order_items' table.
type OrderItem struct {
	ID         int64           `json:"id" db:"id"`
	OrderID    int64           `json:"order_id" db:"order_id"`
	ProductID  int64           `json:"product_id" db:"product_id"`
	Quantity   int             `json:"quantity" db:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" db:"unit_price"`   // Price at the time of purchase
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"` // UnitPrice * Quantity

	Product *Product `json:"product,omitempty" db:"-"`
}

// OrderFilter narrows an order listing.
type OrderFilter struct {
	UserID *int64
	Status *OrderStatus
	Offset int
	Limit  int
}
