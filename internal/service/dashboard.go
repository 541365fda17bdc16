package service

import (
	"context"

	"github.com/01moynul/fvcommerce-golang/internal/models"
	"github.com/01moynul/fvcommerce-golang/internal/store"
)

// Dashboard serves the admin overview.
type Dashboard struct {
	store store.Store
}

// Stats counts users, products and orders on a single connection.
func (s *Dashboard) Stats(ctx context.Context) (*models.DashboardStats, error) {
	var stats *models.DashboardStats
	err := s.store.ExecTx(ctx, func(q store.Querier) error {
		var err error
		stats, err = q.DashboardStats(ctx)
		return err
	})
	return stats, err
}
