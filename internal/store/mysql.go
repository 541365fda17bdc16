package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/fvcommerce-golang/internal/apperr"
	"github.com/01moynul/fvcommerce-golang/internal/models"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
)

// MySQL server error numbers we translate.
const (
	errDupEntry        = 1062
	errNoReferencedRow = 1452
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries implements Querier with hand-written MySQL statements.
type Queries struct {
	db  DBTX
	now func() time.Time
}

var _ Store = (*MySQLStore)(nil)

// MySQLStore owns the connection pool and hands out transactional Queries.
type MySQLStore struct {
	*Queries
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{
		Queries: &Queries{db: db, now: utcNow},
		db:      db,
	}
}

func utcNow() time.Time { return time.Now().UTC().Truncate(time.Second) }

func (s *MySQLStore) ExecTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return apperr.Internal(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback() // Safety net

	if err := fn(&Queries{db: tx, now: s.now}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperr.Internal(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func (s *MySQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *MySQLStore) Close() error { return s.db.Close() }

// --- error translation ---

func mysqlErrorNumber(err error) uint16 {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number
	}
	return 0
}

func internal(op string, err error) error {
	return apperr.Internal(fmt.Errorf("%s: %w", op, err))
}

type rowScanner interface {
	Scan(dest ...any) error
}

//
// --- Users ---
//

const userColumns = `id, email, username, password_hash, full_name, phone, address, role, is_active, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FullName, &u.Phone,
		&u.Address, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (q *Queries) CreateUser(ctx context.Context, u *models.User) error {
	now := q.now()
	query := `
		INSERT INTO users
		(email, username, password_hash, full_name, phone, address, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := q.db.ExecContext(ctx, query,
		u.Email, u.Username, u.PasswordHash, u.FullName, u.Phone, u.Address,
		string(u.Role), u.IsActive, now, now)
	if err != nil {
		if mysqlErrorNumber(err) == errDupEntry {
			if strings.Contains(err.Error(), "uq_users_email") {
				return apperr.Conflict("email already registered")
			}
			return apperr.Conflict("username already taken")
		}
		return internal("insert user", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return internal("user id", err)
	}
	u.ID = id
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (q *Queries) getUserBy(ctx context.Context, column, value string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE " + column + " = ?"
	u, err := scanUser(q.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, internal("select user", err)
	}
	return u, nil
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return q.getUserBy(ctx, "username", username)
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return q.getUserBy(ctx, "email", email)
}

func (q *Queries) ListUsers(ctx context.Context, offset, limit int) ([]models.User, error) {
	query := "SELECT " + userColumns + " FROM users ORDER BY id LIMIT ? OFFSET ?"
	rows, err := q.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, internal("list users", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, internal("scan user", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, internal("iterate users", err)
	}
	return users, nil
}

//
// --- Categories ---
//

const categoryColumns = `id, name, slug, description, is_active, created_at`

func scanCategory(row rowScanner) (*models.Category, error) {
	var c models.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.IsActive, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (q *Queries) CreateCategory(ctx context.Context, c *models.Category) error {
	now := q.now()
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO categories (name, slug, description, is_active, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.Name, c.Slug, c.Description, c.IsActive, now)
	if err != nil {
		if mysqlErrorNumber(err) == errDupEntry {
			if strings.Contains(err.Error(), "uq_categories_slug") {
				return ErrSlugTaken
			}
			return apperr.Conflict("category already exists")
		}
		return internal("insert category", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return internal("category id", err)
	}
	c.ID = id
	c.CreatedAt = now
	return nil
}

func (q *Queries) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	c, err := scanCategory(q.db.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("category not found")
		}
		return nil, internal("select category", err)
	}
	return c, nil
}

func (q *Queries) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	return q.getCategoryBy(ctx, "name", name)
}

func (q *Queries) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return q.getCategoryBy(ctx, "slug", slug)
}

// getCategoryBy looks a category up by a unique column. column is never user input.
func (q *Queries) getCategoryBy(ctx context.Context, column, value string) (*models.Category, error) {
	c, err := scanCategory(q.db.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories WHERE "+column+" = ?", value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("category not found")
		}
		return nil, internal("select category", err)
	}
	return c, nil
}

func (q *Queries) ListActiveCategories(ctx context.Context, offset, limit int) ([]models.Category, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE is_active = TRUE ORDER BY id LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, internal("list categories", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, internal("scan category", err)
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, internal("iterate categories", err)
	}
	return categories, nil
}

func (q *Queries) DeactivateCategory(ctx context.Context, id int64) error {
	if _, err := q.GetCategory(ctx, id); err != nil {
		return err
	}
	if _, err := q.db.ExecContext(ctx, "UPDATE categories SET is_active = FALSE WHERE id = ?", id); err != nil {
		return internal("deactivate category", err)
	}
	return nil
}

//
// --- Products ---
//

const productSelect = `
	SELECT p.id, p.name, p.description, p.price, p.unit, p.category_id, p.stock_quantity,
	       p.image_url, p.nutritional_info, p.origin, p.is_organic, p.is_active, p.created_at, p.updated_at,
	       c.id, c.name, c.slug, c.description, c.is_active, c.created_at
	FROM products p
	JOIN categories c ON c.id = p.category_id`

// productDest returns scan targets for the product + category columns of productSelect.
func productDest(p *models.Product) []any {
	p.Category = &models.Category{}
	c := p.Category
	return []any{
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Unit, &p.CategoryID, &p.StockQuantity,
		&p.ImageURL, &p.NutritionalInfo, &p.Origin, &p.IsOrganic, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.IsActive, &c.CreatedAt,
	}
}

func (q *Queries) CreateProduct(ctx context.Context, p *models.Product) error {
	now := q.now()
	query := `
		INSERT INTO products
		(name, description, price, unit, category_id, stock_quantity, image_url, nutritional_info,
		 origin, is_organic, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := q.db.ExecContext(ctx, query,
		p.Name, p.Description, p.Price, p.Unit, p.CategoryID, p.StockQuantity, p.ImageURL,
		p.NutritionalInfo, p.Origin, p.IsOrganic, p.IsActive, now, now)
	if err != nil {
		if mysqlErrorNumber(err) == errNoReferencedRow {
			return apperr.NotFound("category not found")
		}
		return internal("insert product", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return internal("product id", err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (q *Queries) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := q.db.QueryRowContext(ctx, productSelect+" WHERE p.id = ?", id).Scan(productDest(&p)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, internal("select product", err)
	}
	return &p, nil
}

func (q *Queries) ListActiveProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	// 1. --- Build Query ---
	conditions := []string{"p.is_active = TRUE"}
	args := []any{}
	if f.CategoryID != nil {
		conditions = append(conditions, "p.category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.IsOrganic != nil {
		conditions = append(conditions, "p.is_organic = ?")
		args = append(args, *f.IsOrganic)
	}
	query := productSelect + " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY p.id LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	// 2. --- Execute Query ---
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, internal("list products", err)
	}
	defer rows.Close()

	// 3. --- Scan Rows into Slice ---
	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(productDest(&p)...); err != nil {
			return nil, internal("scan product", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, internal("iterate products", err)
	}
	return products, nil
}

func (q *Queries) UpdateProductPrice(ctx context.Context, id int64, price decimal.Decimal) error {
	var exists int64
	err := q.db.QueryRowContext(ctx, "SELECT id FROM products WHERE id = ? FOR UPDATE", id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("product not found")
		}
		return internal("select product", err)
	}

	if _, err := q.db.ExecContext(ctx,
		"UPDATE products SET price = ?, updated_at = ? WHERE id = ?", price, q.now(), id); err != nil {
		return internal("update product price", err)
	}
	return nil
}

//
// --- Cart ---
//

func (q *Queries) UpsertCartItem(ctx context.Context, userID, productID int64, quantity int) (*models.CartItem, error) {
	now := q.now()
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			quantity = quantity + VALUES(quantity),
			updated_at = VALUES(updated_at)`,
		userID, productID, quantity, now, now)
	if err != nil {
		if mysqlErrorNumber(err) == errNoReferencedRow {
			return nil, apperr.NotFound("product not found")
		}
		return nil, internal("upsert cart item", err)
	}

	var ci models.CartItem
	err = q.db.QueryRowContext(ctx, `
		SELECT id, user_id, product_id, quantity, created_at, updated_at
		FROM cart_items WHERE user_id = ? AND product_id = ?`, userID, productID).
		Scan(&ci.ID, &ci.UserID, &ci.ProductID, &ci.Quantity, &ci.CreatedAt, &ci.UpdatedAt)
	if err != nil {
		return nil, internal("select cart item", err)
	}
	return &ci, nil
}

func (q *Queries) ListCartItems(ctx context.Context, userID int64, forUpdate bool) ([]models.CartItem, error) {
	query := `
		SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
		       p.id, p.name, p.description, p.price, p.unit, p.category_id, p.stock_quantity,
		       p.image_url, p.nutritional_info, p.origin, p.is_organic, p.is_active, p.created_at, p.updated_at,
		       c.id, c.name, c.slug, c.description, c.is_active, c.created_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		JOIN categories c ON c.id = p.category_id
		WHERE ci.user_id = ?
		ORDER BY ci.id`
	if forUpdate {
		// Lock only the cart rows; concurrent price updates stay unblocked.
		query += " FOR UPDATE OF ci"
	}

	rows, err := q.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, internal("list cart items", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var ci models.CartItem
		ci.Product = &models.Product{}
		dest := append([]any{&ci.ID, &ci.UserID, &ci.ProductID, &ci.Quantity, &ci.CreatedAt, &ci.UpdatedAt},
			productDest(ci.Product)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, internal("scan cart item", err)
		}
		items = append(items, ci)
	}
	if err := rows.Err(); err != nil {
		return nil, internal("iterate cart items", err)
	}
	return items, nil
}

func (q *Queries) DeleteCartItem(ctx context.Context, userID, itemID int64) error {
	// Ownership is part of the WHERE clause: another user's item looks missing.
	result, err := q.db.ExecContext(ctx, "DELETE FROM cart_items WHERE id = ? AND user_id = ?", itemID, userID)
	if err != nil {
		return internal("delete cart item", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("cart item not found")
	}
	return nil
}

func (q *Queries) DeleteCartItems(ctx context.Context, userID int64, itemIDs []int64) error {
	if len(itemIDs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(itemIDs)), ", ")
	args := make([]any, 0, len(itemIDs)+1)
	args = append(args, userID)
	for _, id := range itemIDs {
		args = append(args, id)
	}

	result, err := q.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE user_id = ? AND id IN ("+placeholders+")", args...)
	if err != nil {
		return internal("clear cart", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return internal("clear cart", err)
	}
	if n != int64(len(itemIDs)) {
		return internal("clear cart", fmt.Errorf("deleted %d of %d cart items", n, len(itemIDs)))
	}
	return nil
}

//
// --- Wishlist ---
//

func (q *Queries) CreateWishlistItem(ctx context.Context, userID, productID int64) (*models.WishlistItem, error) {
	now := q.now()
	result, err := q.db.ExecContext(ctx,
		"INSERT INTO wishlist_items (user_id, product_id, created_at) VALUES (?, ?, ?)",
		userID, productID, now)
	if err != nil {
		switch mysqlErrorNumber(err) {
		case errDupEntry:
			return nil, apperr.Conflict("item already in wishlist")
		case errNoReferencedRow:
			return nil, apperr.NotFound("product not found")
		}
		return nil, internal("insert wishlist item", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, internal("wishlist item id", err)
	}
	return &models.WishlistItem{ID: id, UserID: userID, ProductID: productID, CreatedAt: now}, nil
}

func (q *Queries) ListWishlistItems(ctx context.Context, userID int64) ([]models.WishlistItem, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT wi.id, wi.user_id, wi.product_id, wi.created_at,
		       p.id, p.name, p.description, p.price, p.unit, p.category_id, p.stock_quantity,
		       p.image_url, p.nutritional_info, p.origin, p.is_organic, p.is_active, p.created_at, p.updated_at,
		       c.id, c.name, c.slug, c.description, c.is_active, c.created_at
		FROM wishlist_items wi
		JOIN products p ON p.id = wi.product_id
		JOIN categories c ON c.id = p.category_id
		WHERE wi.user_id = ?
		ORDER BY wi.id`, userID)
	if err != nil {
		return nil, internal("list wishlist", err)
	}
	defer rows.Close()

	items := []models.WishlistItem{}
	for rows.Next() {
		var wi models.WishlistItem
		wi.Product = &models.Product{}
		dest := append([]any{&wi.ID, &wi.UserID, &wi.ProductID, &wi.CreatedAt}, productDest(wi.Product)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, internal("scan wishlist item", err)
		}
		items = append(items, wi)
	}
	if err := rows.Err(); err != nil {
		return nil, internal("iterate wishlist", err)
	}
	return items, nil
}

func (q *Queries) DeleteWishlistItem(ctx context.Context, userID, itemID int64) error {
	result, err := q.db.ExecContext(ctx, "DELETE FROM wishlist_items WHERE id = ? AND user_id = ?", itemID, userID)
	if err != nil {
		return internal("delete wishlist item", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperr.NotFound("wishlist item not found")
	}
	return nil
}

//
// --- Orders ---
//

const orderColumns = `id, user_id, order_number, total_amount, status, payment_status, payment_method,
	qr_code_data, delivery_address, notes, created_at, updated_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.UserID, &o.OrderNumber, &o.TotalAmount, &o.Status, &o.PaymentStatus,
		&o.PaymentMethod, &o.QRCodeData, &o.DeliveryAddress, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Items = []models.OrderItem{}
	return &o, nil
}

func (q *Queries) CreateOrder(ctx context.Context, o *models.Order) error {
	now := q.now()

	// 1. --- Insert the main order record ---
	result, err := q.db.ExecContext(ctx, `
		INSERT INTO orders
		(user_id, order_number, total_amount, status, payment_status, payment_method,
		 qr_code_data, delivery_address, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.UserID, o.OrderNumber, o.TotalAmount, string(o.Status), string(o.PaymentStatus), o.PaymentMethod,
		o.QRCodeData, o.DeliveryAddress, o.Notes, now, now)
	if err != nil {
		return internal("insert order", err)
	}
	orderID, err := result.LastInsertId()
	if err != nil {
		return internal("order id", err)
	}

	// 2. --- Snapshot each line into order_items ---
	itemQuery := `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price)
		VALUES (?, ?, ?, ?, ?)`
	for i := range o.Items {
		item := &o.Items[i]
		res, err := q.db.ExecContext(ctx, itemQuery, orderID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice)
		if err != nil {
			return internal("insert order item", err)
		}
		if item.ID, err = res.LastInsertId(); err != nil {
			return internal("order item id", err)
		}
		item.OrderID = orderID
	}

	o.ID = orderID
	o.CreatedAt = now
	o.UpdatedAt = now
	return nil
}

func (q *Queries) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	o, err := scanOrder(q.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, internal("select order", err)
	}

	orders := []*models.Order{o}
	if err := q.loadOrderItems(ctx, orders); err != nil {
		return nil, err
	}
	return o, nil
}

func (q *Queries) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	conditions := []string{}
	args := []any{}
	if f.UserID != nil {
		conditions = append(conditions, "user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*f.Status))
	}

	query := "SELECT " + orderColumns + " FROM orders"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, internal("list orders", err)
	}
	defer rows.Close()

	var ptrs []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, internal("scan order", err)
		}
		ptrs = append(ptrs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, internal("iterate orders", err)
	}
	rows.Close()

	if err := q.loadOrderItems(ctx, ptrs); err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(ptrs))
	for _, o := range ptrs {
		orders = append(orders, *o)
	}
	return orders, nil
}

// loadOrderItems fills Items (with Product) for every order in one query.
func (q *Queries) loadOrderItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[int64]*models.Order, len(orders))
	args := make([]any, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		args = append(args, o.ID)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(orders)), ", ")

	rows, err := q.db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price, oi.total_price,
		       p.id, p.name, p.description, p.price, p.unit, p.category_id, p.stock_quantity,
		       p.image_url, p.nutritional_info, p.origin, p.is_organic, p.is_active, p.created_at, p.updated_at,
		       c.id, c.name, c.slug, c.description, c.is_active, c.created_at
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		JOIN categories c ON c.id = p.category_id
		WHERE oi.order_id IN (`+placeholders+`)
		ORDER BY oi.id`, args...)
	if err != nil {
		return internal("list order items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		item.Product = &models.Product{}
		dest := append([]any{&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.TotalPrice},
			productDest(item.Product)...)
		if err := rows.Scan(dest...); err != nil {
			return internal("scan order item", err)
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return internal("iterate order items", err)
	}
	return nil
}

//
// --- Dashboard ---
//

func (q *Queries) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	stats := models.NewDashboardStats()

	// 1. Active users
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE is_active = TRUE").Scan(&stats.ActiveUsers)
	if err != nil {
		return nil, internal("count users", err)
	}

	// 2. Active and low-stock products
	err = q.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(stock_quantity < ?), 0)
		FROM products
		WHERE is_active = TRUE`, models.LowStockThreshold).Scan(&stats.ActiveProducts, &stats.LowStockProducts)
	if err != nil {
		return nil, internal("count products", err)
	}

	// 3. Orders per status
	rows, err := q.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM orders GROUP BY status")
	if err != nil {
		return nil, internal("count orders", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status models.OrderStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, internal("scan order count", err)
		}
		stats.OrdersByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, internal("iterate order counts", err)
	}

	// 4. Payments
	// COALESCE keeps the sums at 0 instead of NULL on an empty table
	err = q.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(payment_status = 'pending'), 0),
		       COALESCE(SUM(CASE WHEN payment_status = 'completed' THEN total_amount END), 0)
		FROM orders`).Scan(&stats.PendingPayments, &stats.Revenue)
	if err != nil {
		return nil, internal("sum payments", err)
	}
	return stats, nil
}
