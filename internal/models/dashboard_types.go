package models

import "github.com/shopspring/decimal"

// LowStockThreshold marks active products that are running out.
const LowStockThreshold = 10

// DashboardStats is the admin overview served by GET /admin/dashboard-stats.
type DashboardStats struct {
	ActiveUsers      int                 `json:"active_users"`
	ActiveProducts   int                 `json:"active_products"`
	LowStockProducts int                 `json:"low_stock_products"`
	OrdersByStatus   map[OrderStatus]int `json:"orders_by_status"`
	PendingPayments  int                 `json:"pending_payments"`
	// Revenue sums the totals of orders whose payment is completed.
	Revenue decimal.Decimal `json:"revenue"`
}

// NewDashboardStats returns zeroed stats with every order status present.
func NewDashboardStats() *DashboardStats {
	byStatus := make(map[OrderStatus]int, len(OrderStatuses))
	for _, s := range OrderStatuses {
		byStatus[s] = 0
	}
	return &DashboardStats{OrdersByStatus: byStatus, Revenue: decimal.Zero}
}
