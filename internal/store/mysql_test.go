package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/01moynul/fvcommerce-golang/internal/apperr"
	"github.com/01moynul/fvcommerce-golang/internal/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMySQLStore(db), mock
}

var productRowColumns = []string{
	"p.id", "p.name", "p.description", "p.price", "p.unit", "p.category_id", "p.stock_quantity",
	"p.image_url", "p.nutritional_info", "p.origin", "p.is_organic", "p.is_active", "p.created_at", "p.updated_at",
	"c.id", "c.name", "c.slug", "c.description", "c.is_active", "c.created_at",
}

func productRowValues(id int64, name, price string) []driver.Value {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []driver.Value{
		id, name, nil, price, "kg", int64(1), int64(0),
		nil, nil, nil, false, true, now, now,
		int64(1), "Fruits", "fruits", nil, true, now,
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.c' for key 'users.uq_users_email'"})

	err := s.CreateUser(context.Background(), &models.User{Email: "a@b.c", Username: "abc", Role: models.RoleUser})
	require.ErrorIs(t, err, apperr.ErrConflict)
	require.Equal(t, "email already registered", apperr.From(err).Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'abc' for key 'users.uq_users_username'"})

	err := s.CreateUser(context.Background(), &models.User{Email: "a@b.c", Username: "abc", Role: models.RoleUser})
	require.ErrorIs(t, err, apperr.ErrConflict)
	require.Equal(t, "username already taken", apperr.From(err).Message)
}

func TestGetProductNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = ?")).WithArgs(42).WillReturnError(sql.ErrNoRows)

	_, err := s.GetProduct(context.Background(), 42)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductScansCategory(t *testing.T) {
	s, mock := newMockStore(t)
	rows := sqlmock.NewRows(productRowColumns).AddRow(productRowValues(7, "Apple", "45.00")...)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = ?")).WithArgs(7).WillReturnRows(rows)

	p, err := s.GetProduct(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, "Apple", p.Name)
	require.True(t, p.Price.Equal(decimal.RequireFromString("45.00")))
	require.NotNil(t, p.Category)
	require.Equal(t, "Fruits", p.Category.Name)
}

func TestUpsertCartItemUsesOnDuplicateKey(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE")).
		WithArgs(1, 2, 3, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(10, 1))
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM cart_items WHERE user_id = ? AND product_id = ?")).
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "product_id", "quantity", "created_at", "updated_at"}).
			AddRow(10, 1, 2, 5, now, now))

	item, err := s.UpsertCartItem(context.Background(), 1, 2, 3)
	require.NoError(t, err)
	require.Equal(t, 5, item.Quantity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertCartItemMissingProduct(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cart_items")).
		WillReturnError(&mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"})

	_, err := s.UpsertCartItem(context.Background(), 1, 99, 1)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListCartItemsForUpdate(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()
	cols := append([]string{"ci.id", "ci.user_id", "ci.product_id", "ci.quantity", "ci.created_at", "ci.updated_at"}, productRowColumns...)
	values := append([]driver.Value{int64(3), int64(1), int64(7), 2, now, now}, productRowValues(7, "Apple", "45.00")...)
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF ci")).WithArgs(1).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(values...))

	items, err := s.ListCartItems(context.Background(), 1, true)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "90", items[0].LineTotal().String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCartItemOtherUser(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE id = ? AND user_id = ?")).
		WithArgs(5, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.DeleteCartItem(context.Background(), 2, 5)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateWishlistItemErrors(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wishlist_items")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wishlist_items")).
		WillReturnError(&mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"})

	_, err := s.CreateWishlistItem(context.Background(), 1, 2)
	require.ErrorIs(t, err, apperr.ErrConflict)
	_, err = s.CreateWishlistItem(context.Background(), 1, 2)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCheckoutTransactionRollsBack(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	order := &models.Order{
		UserID:        1,
		OrderNumber:   "ORD-ABC",
		TotalAmount:   decimal.RequireFromString("45.00"),
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPending,
		Items:         []models.OrderItem{{ProductID: 7, Quantity: 1}},
	}
	err := s.ExecTx(context.Background(), func(q Querier) error {
		if err := q.CreateOrder(context.Background(), order); err != nil {
			return err
		}
		return q.DeleteCartItems(context.Background(), 1, []int64{3})
	})
	require.ErrorIs(t, err, apperr.ErrInternal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutTransactionCommits(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE user_id = ? AND id IN (?)")).
		WithArgs(1, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order := &models.Order{UserID: 1, OrderNumber: "ORD-ABC", Items: []models.OrderItem{{ProductID: 7, Quantity: 1}}}
	err := s.ExecTx(context.Background(), func(q Querier) error {
		if err := q.CreateOrder(context.Background(), order); err != nil {
			return err
		}
		return q.DeleteCartItems(context.Background(), 1, []int64{3})
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), order.ID)
	require.Equal(t, int64(11), order.Items[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCartItemsDetectsConcurrentChange(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE user_id = ? AND id IN (?, ?)")).
		WithArgs(1, 3, 4).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.DeleteCartItems(context.Background(), 1, []int64{3, 4})
	require.ErrorIs(t, err, apperr.ErrInternal)
}

func TestListOrdersLoadsItems(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()
	orderCols := []string{"id", "user_id", "order_number", "total_amount", "status", "payment_status", "payment_method",
		"qr_code_data", "delivery_address", "notes", "created_at", "updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE user_id = ? ORDER BY created_at DESC")).
		WithArgs(1, 50, 0).
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow(2, 1, "ORD-2", "30.00", "pending", "pending", "QR_CODE", "upi://pay", "addr", nil, now, now).
			AddRow(1, 1, "ORD-1", "45.00", "pending", "completed", "QR_CODE", "upi://pay", "addr", nil, now, now))

	itemCols := append([]string{"oi.id", "oi.order_id", "oi.product_id", "oi.quantity", "oi.unit_price", "oi.total_price"}, productRowColumns...)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE oi.order_id IN (?, ?)")).
		WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow(append([]driver.Value{int64(5), int64(1), int64(7), 1, "45.00", "45.00"}, productRowValues(7, "Apple", "50.00")...)...))

	userID := int64(1)
	orders, err := s.ListOrders(context.Background(), models.OrderFilter{UserID: &userID, Limit: 50})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Empty(t, orders[0].Items)
	require.Len(t, orders[1].Items, 1)
	require.Equal(t, models.PaymentCompleted, orders[1].PaymentStatus)
	require.Equal(t, "45", orders[1].Items[0].UnitPrice.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardStats(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE is_active = TRUE")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("FROM products")).
		WithArgs(models.LowStockThreshold).
		WillReturnRows(sqlmock.NewRows([]string{"count", "low"}).AddRow(12, "3"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) FROM orders GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 4).
			AddRow("delivered", 2))
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(SUM(payment_status = 'pending'), 0)")).
		WillReturnRows(sqlmock.NewRows([]string{"pending", "revenue"}).AddRow("4", "410.75"))

	stats, err := s.DashboardStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, stats.ActiveUsers)
	require.Equal(t, 12, stats.ActiveProducts)
	require.Equal(t, 3, stats.LowStockProducts)
	require.Equal(t, 4, stats.OrdersByStatus[models.OrderPending])
	require.Equal(t, 2, stats.OrdersByStatus[models.OrderDelivered])
	require.Equal(t, 0, stats.OrdersByStatus[models.OrderShipped])
	require.Equal(t, 4, stats.PendingPayments)
	require.True(t, decimal.RequireFromString("410.75").Equal(stats.Revenue))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCategoryDuplicateKeys(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO categories")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'fruits' for key 'categories.uq_categories_slug'"})
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO categories")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'Fruits' for key 'categories.uq_categories_name'"})

	err := s.CreateCategory(context.Background(), &models.Category{Name: "Fruit", Slug: "fruits"})
	require.ErrorIs(t, err, ErrSlugTaken)

	err = s.CreateCategory(context.Background(), &models.Category{Name: "Fruits", Slug: "fruits-2"})
	require.ErrorIs(t, err, apperr.ErrConflict)
	require.NotErrorIs(t, err, ErrSlugTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCategoryBySlug(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM categories WHERE slug = ?")).
		WithArgs("fruits-and-veg").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetCategoryBySlug(context.Background(), "fruits-and-veg")
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
