package store

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/01moynul/fvcommerce-golang/internal/apperr"
	"github.com/01moynul/fvcommerce-golang/internal/models"
	"github.com/shopspring/decimal"
)

// MemoryStore keeps everything in process memory behind a single mutex.
// A transaction works on a copy of the state that replaces the live state
// only when the transaction function succeeds.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState(utcNow)}
}

func (s *MemoryStore) ExecTx(ctx context.Context, fn func(q Querier) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return apperr.Internal(err)
	}

	draft := s.state.clone()
	if err := fn(draft); err != nil {
		return err
	}
	s.state = draft
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) Close() error { return nil }

// lock runs fn against the live state.
func lock[T any](s *MemoryStore, fn func(st *memState) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

func (s *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	_, err := lock(s, func(st *memState) (struct{}, error) { return struct{}{}, st.CreateUser(ctx, u) })
	return err
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return lock(s, func(st *memState) (*models.User, error) { return st.GetUserByUsername(ctx, username) })
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return lock(s, func(st *memState) (*models.User, error) { return st.GetUserByEmail(ctx, email) })
}

func (s *MemoryStore) ListUsers(ctx context.Context, offset, limit int) ([]models.User, error) {
	return lock(s, func(st *memState) ([]models.User, error) { return st.ListUsers(ctx, offset, limit) })
}

func (s *MemoryStore) CreateCategory(ctx context.Context, c *models.Category) error {
	_, err := lock(s, func(st *memState) (struct{}, error) { return struct{}{}, st.CreateCategory(ctx, c) })
	return err
}

func (s *MemoryStore) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	return lock(s, func(st *memState) (*models.Category, error) { return st.GetCategory(ctx, id) })
}

func (s *MemoryStore) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	return lock(s, func(st *memState) (*models.Category, error) { return st.GetCategoryByName(ctx, name) })
}

func (s *MemoryStore) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return lock(s, func(st *memState) (*models.Category, error) { return st.GetCategoryBySlug(ctx, slug) })
}

func (s *MemoryStore) ListActiveCategories(ctx context.Context, offset, limit int) ([]models.Category, error) {
	return lock(s, func(st *memState) ([]models.Category, error) { return st.ListActiveCategories(ctx, offset, limit) })
}

func (s *MemoryStore) DeactivateCategory(ctx context.Context, id int64) error {
	_, err := lock(s, func(st *memState) (struct{}, error) { return struct{}{}, st.DeactivateCategory(ctx, id) })
	return err
}

func (s *MemoryStore) CreateProduct(ctx context.Context, p *models.Product) error {
	_, err := lock(s, func(st *memState) (struct{}, error) { return struct{}{}, st.CreateProduct(ctx, p) })
	return err
}

func (s *MemoryStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return lock(s, func(st *memState) (*models.Product, error) { return st.GetProduct(ctx, id) })
}

func (s *MemoryStore) ListActiveProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	return lock(s, func(st *memState) ([]models.Product, error) { return st.ListActiveProducts(ctx, f) })
}

func (s *MemoryStore) UpdateProductPrice(ctx context.Context, id int64, price decimal.Decimal) error {
	_, err := lock(s, func(st *memState) (struct{}, error) { return struct{}{}, st.UpdateProductPrice(ctx, id, price) })
	return err
}

func (s *MemoryStore) UpsertCartItem(ctx context.Context, userID, productID int64, quantity int) (*models.CartItem, error) {
	return lock(s, func(st *memState) (*models.CartItem, error) {
		return st.UpsertCartItem(ctx, userID, productID, quantity)
	})
}

func (s *MemoryStore) ListCartItems(ctx context.Context, userID int64, forUpdate bool) ([]models.CartItem, error) {
	return lock(s, func(st *memState) ([]models.CartItem, error) { return st.ListCartItems(ctx, userID, forUpdate) })
}

func (s *MemoryStore) DeleteCartItem(ctx context.Context, userID, itemID int64) error {
	_, err := lock(s, func(st *memState) (struct{}, error) { return struct{}{}, st.DeleteCartItem(ctx, userID, itemID) })
	return err
}

func (s *MemoryStore) DeleteCartItems(ctx context.Context, userID int64, itemIDs []int64) error {
	_, err := lock(s, func(st *memState) (struct{}, error) { return struct{}{}, st.DeleteCartItems(ctx, userID, itemIDs) })
	return err
}

func (s *MemoryStore) CreateWishlistItem(ctx context.Context, userID, productID int64) (*models.WishlistItem, error) {
	return lock(s, func(st *memState) (*models.WishlistItem, error) {
		return st.CreateWishlistItem(ctx, userID, productID)
	})
}

func (s *MemoryStore) ListWishlistItems(ctx context.Context, userID int64) ([]models.WishlistItem, error) {
	return lock(s, func(st *memState) ([]models.WishlistItem, error) { return st.ListWishlistItems(ctx, userID) })
}

func (s *MemoryStore) DeleteWishlistItem(ctx context.Context, userID, itemID int64) error {
	_, err := lock(s, func(st *memState) (struct{}, error) { return struct{}{}, st.DeleteWishlistItem(ctx, userID, itemID) })
	return err
}

func (s *MemoryStore) CreateOrder(ctx context.Context, o *models.Order) error {
	_, err := lock(s, func(st *memState) (struct{}, error) { return struct{}{}, st.CreateOrder(ctx, o) })
	return err
}

func (s *MemoryStore) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return lock(s, func(st *memState) (*models.Order, error) { return st.GetOrder(ctx, id) })
}

func (s *MemoryStore) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	return lock(s, func(st *memState) ([]models.Order, error) { return st.ListOrders(ctx, f) })
}

func (s *MemoryStore) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	return lock(s, func(st *memState) (*models.DashboardStats, error) { return st.DashboardStats(ctx) })
}

//
// --- memState: the unlocked Querier used by MemoryStore and its transactions ---
//

var (
	_ Store   = (*MemoryStore)(nil)
	_ Querier = (*memState)(nil)
)

type memState struct {
	now func() time.Time

	users      map[int64]models.User
	categories map[int64]models.Category
	products   map[int64]models.Product
	cart       map[int64]models.CartItem
	wishlist   map[int64]models.WishlistItem
	orders     map[int64]models.Order

	// Last issued ID per table.
	seq map[string]int64
}

func newMemState(now func() time.Time) *memState {
	return &memState{
		now:        now,
		users:      map[int64]models.User{},
		categories: map[int64]models.Category{},
		products:   map[int64]models.Product{},
		cart:       map[int64]models.CartItem{},
		wishlist:   map[int64]models.WishlistItem{},
		orders:     map[int64]models.Order{},
		seq:        map[string]int64{},
	}
}

func (st *memState) clone() *memState {
	return &memState{
		now:        st.now,
		users:      maps.Clone(st.users),
		categories: maps.Clone(st.categories),
		products:   maps.Clone(st.products),
		cart:       maps.Clone(st.cart),
		wishlist:   maps.Clone(st.wishlist),
		orders:     maps.Clone(st.orders),
		seq:        maps.Clone(st.seq),
	}
}

func (st *memState) nextID(table string) int64 {
	st.seq[table]++
	return st.seq[table]
}

// sortedKeys returns map keys in ascending (insertion) order.
func sortedKeys[V any](m map[int64]V) []int64 {
	return slices.Sorted(maps.Keys(m))
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// --- Users ---

func (st *memState) CreateUser(_ context.Context, u *models.User) error {
	for _, existing := range st.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperr.Conflict("email already registered")
		}
		if strings.EqualFold(existing.Username, u.Username) {
			return apperr.Conflict("username already taken")
		}
	}

	now := st.now()
	u.ID = st.nextID("users")
	u.CreatedAt = now
	u.UpdatedAt = now
	st.users[u.ID] = *u
	return nil
}

func (st *memState) findUser(match func(models.User) bool) (*models.User, error) {
	for _, u := range st.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (st *memState) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return st.findUser(func(u models.User) bool { return strings.EqualFold(u.Username, username) })
}

func (st *memState) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return st.findUser(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (st *memState) ListUsers(_ context.Context, offset, limit int) ([]models.User, error) {
	users := []models.User{}
	for _, id := range sortedKeys(st.users) {
		users = append(users, st.users[id])
	}
	return page(users, offset, limit), nil
}

// --- Categories ---

func (st *memState) CreateCategory(_ context.Context, c *models.Category) error {
	for _, existing := range st.categories {
		if strings.EqualFold(existing.Name, c.Name) {
			return apperr.Conflict("category already exists")
		}
		if strings.EqualFold(existing.Slug, c.Slug) {
			return ErrSlugTaken
		}
	}

	c.ID = st.nextID("categories")
	c.CreatedAt = st.now()
	st.categories[c.ID] = *c
	return nil
}

func (st *memState) GetCategory(_ context.Context, id int64) (*models.Category, error) {
	c, ok := st.categories[id]
	if !ok {
		return nil, apperr.NotFound("category not found")
	}
	return &c, nil
}

func (st *memState) GetCategoryByName(_ context.Context, name string) (*models.Category, error) {
	for _, c := range st.categories {
		if strings.EqualFold(c.Name, name) {
			return &c, nil
		}
	}
	return nil, apperr.NotFound("category not found")
}

func (st *memState) GetCategoryBySlug(_ context.Context, slug string) (*models.Category, error) {
	for _, c := range st.categories {
		if strings.EqualFold(c.Slug, slug) {
			return &c, nil
		}
	}
	return nil, apperr.NotFound("category not found")
}

func (st *memState) ListActiveCategories(_ context.Context, offset, limit int) ([]models.Category, error) {
	categories := []models.Category{}
	for _, id := range sortedKeys(st.categories) {
		if c := st.categories[id]; c.IsActive {
			categories = append(categories, c)
		}
	}
	return page(categories, offset, limit), nil
}

func (st *memState) DeactivateCategory(_ context.Context, id int64) error {
	c, ok := st.categories[id]
	if !ok {
		return apperr.NotFound("category not found")
	}
	c.IsActive = false
	st.categories[id] = c
	return nil
}

// --- Products ---

// withCategory returns a copy of p with its category attached.
func (st *memState) withCategory(p models.Product) models.Product {
	if c, ok := st.categories[p.CategoryID]; ok {
		p.Category = &c
	}
	return p
}

func (st *memState) CreateProduct(_ context.Context, p *models.Product) error {
	if _, ok := st.categories[p.CategoryID]; !ok {
		return apperr.NotFound("category not found")
	}

	now := st.now()
	p.ID = st.nextID("products")
	p.CreatedAt = now
	p.UpdatedAt = now
	stored := *p
	stored.Category = nil
	st.products[p.ID] = stored
	return nil
}

func (st *memState) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	p, ok := st.products[id]
	if !ok {
		return nil, apperr.NotFound("product not found")
	}
	p = st.withCategory(p)
	return &p, nil
}

func (st *memState) ListActiveProducts(_ context.Context, f models.ProductFilter) ([]models.Product, error) {
	products := []models.Product{}
	for _, id := range sortedKeys(st.products) {
		p := st.products[id]
		if !p.IsActive {
			continue
		}
		if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
			continue
		}
		if f.IsOrganic != nil && p.IsOrganic != *f.IsOrganic {
			continue
		}
		products = append(products, st.withCategory(p))
	}
	return page(products, f.Offset, f.Limit), nil
}

func (st *memState) UpdateProductPrice(_ context.Context, id int64, price decimal.Decimal) error {
	p, ok := st.products[id]
	if !ok {
		return apperr.NotFound("product not found")
	}
	p.Price = price
	p.UpdatedAt = st.now()
	st.products[id] = p
	return nil
}

// --- Cart ---

func (st *memState) UpsertCartItem(_ context.Context, userID, productID int64, quantity int) (*models.CartItem, error) {
	if _, ok := st.products[productID]; !ok {
		return nil, apperr.NotFound("product not found")
	}

	now := st.now()
	for id, ci := range st.cart {
		if ci.UserID == userID && ci.ProductID == productID {
			ci.Quantity += quantity
			ci.UpdatedAt = now
			st.cart[id] = ci
			return &ci, nil
		}
	}

	ci := models.CartItem{
		ID:        st.nextID("cart_items"),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	st.cart[ci.ID] = ci
	return &ci, nil
}

func (st *memState) ListCartItems(_ context.Context, userID int64, _ bool) ([]models.CartItem, error) {
	items := []models.CartItem{}
	for _, id := range sortedKeys(st.cart) {
		ci := st.cart[id]
		if ci.UserID != userID {
			continue
		}
		p := st.withCategory(st.products[ci.ProductID])
		ci.Product = &p
		items = append(items, ci)
	}
	return items, nil
}

func (st *memState) DeleteCartItem(_ context.Context, userID, itemID int64) error {
	ci, ok := st.cart[itemID]
	if !ok || ci.UserID != userID {
		return apperr.NotFound("cart item not found")
	}
	delete(st.cart, itemID)
	return nil
}

func (st *memState) DeleteCartItems(_ context.Context, userID int64, itemIDs []int64) error {
	for _, id := range itemIDs {
		ci, ok := st.cart[id]
		if !ok || ci.UserID != userID {
			return apperr.Internal(apperr.NotFoundf("cart item %d vanished during checkout", id))
		}
	}
	for _, id := range itemIDs {
		delete(st.cart, id)
	}
	return nil
}

// --- Wishlist ---

func (st *memState) CreateWishlistItem(_ context.Context, userID, productID int64) (*models.WishlistItem, error) {
	if _, ok := st.products[productID]; !ok {
		return nil, apperr.NotFound("product not found")
	}
	for _, wi := range st.wishlist {
		if wi.UserID == userID && wi.ProductID == productID {
			return nil, apperr.Conflict("item already in wishlist")
		}
	}

	wi := models.WishlistItem{
		ID:        st.nextID("wishlist_items"),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: st.now(),
	}
	st.wishlist[wi.ID] = wi
	return &wi, nil
}

func (st *memState) ListWishlistItems(_ context.Context, userID int64) ([]models.WishlistItem, error) {
	items := []models.WishlistItem{}
	for _, id := range sortedKeys(st.wishlist) {
		wi := st.wishlist[id]
		if wi.UserID != userID {
			continue
		}
		p := st.withCategory(st.products[wi.ProductID])
		wi.Product = &p
		items = append(items, wi)
	}
	return items, nil
}

func (st *memState) DeleteWishlistItem(_ context.Context, userID, itemID int64) error {
	wi, ok := st.wishlist[itemID]
	if !ok || wi.UserID != userID {
		return apperr.NotFound("wishlist item not found")
	}
	delete(st.wishlist, itemID)
	return nil
}

// --- Orders ---

func (st *memState) CreateOrder(_ context.Context, o *models.Order) error {
	if _, ok := st.users[o.UserID]; !ok {
		return apperr.Internal(apperr.NotFound("order owner not found"))
	}
	for _, existing := range st.orders {
		if existing.OrderNumber == o.OrderNumber {
			return apperr.Internal(apperr.Conflict("duplicate order number"))
		}
	}
	for _, item := range o.Items {
		if _, ok := st.products[item.ProductID]; !ok {
			return apperr.Internal(apperr.NotFound("order item product not found"))
		}
	}

	now := st.now()
	o.ID = st.nextID("orders")
	o.CreatedAt = now
	o.UpdatedAt = now

	stored := *o
	stored.Items = make([]models.OrderItem, len(o.Items))
	for i := range o.Items {
		o.Items[i].ID = st.nextID("order_items")
		o.Items[i].OrderID = o.ID
		stored.Items[i] = o.Items[i]
		stored.Items[i].Product = nil
	}
	st.orders[o.ID] = stored
	return nil
}

// hydrate returns a copy of o whose items carry their current product.
func (st *memState) hydrate(o models.Order) models.Order {
	items := make([]models.OrderItem, len(o.Items))
	for i, item := range o.Items {
		p := st.withCategory(st.products[item.ProductID])
		item.Product = &p
		items[i] = item
	}
	o.Items = items
	return o
}

func (st *memState) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	o, ok := st.orders[id]
	if !ok {
		return nil, apperr.NotFound("order not found")
	}
	o = st.hydrate(o)
	return &o, nil
}

func (st *memState) ListOrders(_ context.Context, f models.OrderFilter) ([]models.Order, error) {
	orders := []models.Order{}
	for _, o := range st.orders {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		orders = append(orders, o)
	}

	slices.SortFunc(orders, func(a, b models.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})

	orders = page(orders, f.Offset, f.Limit)
	for i := range orders {
		orders[i] = st.hydrate(orders[i])
	}
	return orders, nil
}

// --- Dashboard ---

func (st *memState) DashboardStats(_ context.Context) (*models.DashboardStats, error) {
	stats := models.NewDashboardStats()
	for _, u := range st.users {
		if u.IsActive {
			stats.ActiveUsers++
		}
	}
	for _, p := range st.products {
		if !p.IsActive {
			continue
		}
		stats.ActiveProducts++
		if p.StockQuantity < models.LowStockThreshold {
			stats.LowStockProducts++
		}
	}
	for _, o := range st.orders {
		stats.OrdersByStatus[o.Status]++
		switch o.PaymentStatus {
		case models.PaymentPending:
			stats.PendingPayments++
		case models.PaymentCompleted:
			stats.Revenue = stats.Revenue.Add(o.TotalAmount)
		}
	}
	return stats, nil
}
