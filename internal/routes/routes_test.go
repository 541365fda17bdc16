package routes

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/01moynul/fvcommerce-golang/internal/auth"
	"github.com/01moynul/fvcommerce-golang/internal/handlers"
	"github.com/01moynul/fvcommerce-golang/internal/middleware"
	"github.com/01moynul/fvcommerce-golang/internal/payment"
	"github.com/01moynul/fvcommerce-golang/internal/service"
	"github.com/01moynul/fvcommerce-golang/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const adminKey = "admin-signup-key"

type APISuite struct {
	suite.Suite
	router *gin.Engine

	adminToken string
	aliceToken string
	bobToken   string
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (s *APISuite) SetupTest() {
	s.router = newTestRouter(100, 100)

	s.register("root", "root@example.com", "admin", adminKey)
	s.register("alice", "alice@example.com", "", "")
	s.register("bob", "bob@example.com", "", "")

	s.adminToken = s.login("root")
	s.aliceToken = s.login("alice")
	s.bobToken = s.login("bob")
}

func newTestRouter(perMinute, burst int) *gin.Engine {
	services := service.New(store.NewMemoryStore(), service.Options{
		Merchant:       payment.Merchant{VPA: "merchant@upi", Name: "FVCommerce", Code: "5411", Currency: "INR"},
		Renderer:       payment.QRRenderer{Size: 64},
		AdminSignupKey: adminKey,
		Logger:         zerolog.Nop(),
	})
	tokens := auth.NewTokenManager("test-secret-that-is-long-enough-123", time.Minute)
	h := handlers.New(services, tokens, zerolog.Nop())
	return SetupRouter(h, Options{
		AllowedOrigin: "http://localhost:3000",
		LoginLimiter:  middleware.NewIPRateLimiter(perMinute, burst),
	})
}

// do sends body as JSON and decodes the response into out when non-nil.
func (s *APISuite) do(method, path, token string, body any, out any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if out != nil {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

func (s *APISuite) register(username, email, role, key string) {
	body := gin.H{"email": email, "username": username, "password": "password1"}
	if role != "" {
		body["role"] = role
		body["admin_key"] = key
	}
	rec := s.do(http.MethodPost, "/register", "", body, nil)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *APISuite) login(username string) string {
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	rec := s.do(http.MethodPost, "/token", "", gin.H{"username": username, "password": "password1"}, &resp)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Require().Equal("bearer", resp.TokenType)
	return resp.AccessToken
}

type errorBody struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *APISuite) requireError(rec *httptest.ResponseRecorder, status int, kind string) {
	s.T().Helper()
	s.Require().Equal(status, rec.Code, rec.Body.String())
	var body errorBody
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal(kind, body.Error.Kind)
	s.NotEmpty(body.Error.Message)
}

// seedProduct creates a category and one product through the admin API.
func (s *APISuite) seedProduct(name, price string) int64 {
	var category struct {
		ID int64 `json:"id"`
	}
	rec := s.do(http.MethodPost, "/categories", s.adminToken, gin.H{"name": "Cat " + name}, &category)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var product struct {
		ID int64 `json:"id"`
	}
	rec = s.do(http.MethodPost, "/products", s.adminToken, gin.H{
		"name":        name,
		"price":       price,
		"category_id": category.ID,
	}, &product)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return product.ID
}

func (s *APISuite) TestRootAndHealth() {
	var root struct {
		Status   string   `json:"status"`
		Features []string `json:"features"`
	}
	rec := s.do(http.MethodGet, "/", "", nil, &root)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("healthy", root.Status)
	s.NotEmpty(root.Features)

	var health map[string]string
	rec = s.do(http.MethodGet, "/health", "", nil, &health)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("connected", health["database"])
}

func (s *APISuite) TestRequestIDIsEchoed() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "trace-123")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal("trace-123", rec.Header().Get(middleware.RequestIDHeader))

	rec = s.do(http.MethodGet, "/", "", nil, nil)
	s.NotEmpty(rec.Header().Get(middleware.RequestIDHeader))
}

func (s *APISuite) TestUnknownRoute() {
	rec := s.do(http.MethodGet, "/nope", "", nil, nil)
	s.requireError(rec, http.StatusNotFound, "not_found")
}

func (s *APISuite) TestRegisterConflictsAndValidation() {
	rec := s.do(http.MethodPost, "/register", "", gin.H{"email": "ALICE@example.com", "username": "alice2", "password": "password1"}, nil)
	s.requireError(rec, http.StatusConflict, "conflict")

	rec = s.do(http.MethodPost, "/register", "", gin.H{"email": "x@example.com", "username": "alice", "password": "password1"}, nil)
	s.requireError(rec, http.StatusConflict, "conflict")

	rec = s.do(http.MethodPost, "/register", "", gin.H{"email": "not-an-email", "username": "carol", "password": "password1"}, nil)
	s.requireError(rec, http.StatusBadRequest, "validation_error")

	rec = s.do(http.MethodPost, "/register", "", gin.H{"email": "eve@example.com", "username": "eve", "password": "password1", "role": "admin", "admin_key": "wrong"}, nil)
	s.requireError(rec, http.StatusForbidden, "forbidden")
}

func (s *APISuite) TestRegisterNeverEchoesPassword() {
	rec := s.do(http.MethodPost, "/register", "", gin.H{"email": "carol@example.com", "username": "carol", "password": "password1"}, nil)
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.NotContains(rec.Body.String(), "password")
	s.Contains(rec.Body.String(), `"role":"user"`)
}

func (s *APISuite) TestTokenAcceptsFormAndRejectsBadCredentials() {
	form := url.Values{"username": {"alice@example.com"}, "password": {"password1"}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/token", "", gin.H{"username": "alice", "password": "wrong-password"}, nil)
	s.requireError(rec, http.StatusUnauthorized, "unauthorized")
	s.Equal("Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = s.do(http.MethodPost, "/token", "", gin.H{"username": "ghost", "password": "password1"}, nil)
	s.requireError(rec, http.StatusUnauthorized, "unauthorized")
}

func (s *APISuite) TestProtectedRoutesNeedToken() {
	s.requireError(s.do(http.MethodGet, "/users/me", "", nil, nil), http.StatusUnauthorized, "unauthorized")
	s.requireError(s.do(http.MethodGet, "/cart", "garbage", nil, nil), http.StatusUnauthorized, "unauthorized")

	var me struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	rec := s.do(http.MethodGet, "/users/me", s.aliceToken, nil, &me)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("alice", me.Username)
	s.Equal("user", me.Role)
}

func (s *APISuite) TestAdminRoutesNeedAdminRole() {
	rec := s.do(http.MethodPost, "/categories", s.aliceToken, gin.H{"name": "Herbs"}, nil)
	s.requireError(rec, http.StatusForbidden, "forbidden")

	rec = s.do(http.MethodGet, "/admin/orders", s.aliceToken, nil, nil)
	s.requireError(rec, http.StatusForbidden, "forbidden")

	rec = s.do(http.MethodGet, "/admin/dashboard-stats", s.aliceToken, nil, nil)
	s.requireError(rec, http.StatusForbidden, "forbidden")

	var users []map[string]any
	rec = s.do(http.MethodGet, "/admin/users", s.adminToken, nil, &users)
	s.Equal(http.StatusOK, rec.Code)
	s.Len(users, 3)
}

func (s *APISuite) TestCatalog() {
	appleID := s.seedProduct("Apple", "45.50")

	var category struct {
		Slug string `json:"slug"`
	}
	rec := s.do(http.MethodPost, "/categories", s.adminToken, gin.H{"name": "Leafy Greens"}, &category)
	s.Equal(http.StatusCreated, rec.Code)
	s.Equal("leafy-greens", category.Slug)

	rec = s.do(http.MethodPost, "/categories", s.adminToken, gin.H{"name": "Leafy Greens"}, nil)
	s.requireError(rec, http.StatusConflict, "conflict")

	var product struct {
		Name  string `json:"name"`
		Price string `json:"price"`
		Unit  string `json:"unit"`
	}
	rec = s.do(http.MethodGet, fmt.Sprintf("/products/%d", appleID), "", nil, &product)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("Apple", product.Name)
	s.Equal("45.5", product.Price)
	s.Equal("kg", product.Unit)

	rec = s.do(http.MethodPut, fmt.Sprintf("/products/%d/price", appleID), s.adminToken, gin.H{"price": "50.25"}, &product)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("50.25", product.Price)

	rec = s.do(http.MethodPut, fmt.Sprintf("/products/%d/price", appleID), s.adminToken, gin.H{"price": "-1"}, nil)
	s.requireError(rec, http.StatusBadRequest, "validation_error")

	s.requireError(s.do(http.MethodGet, "/products/999", "", nil, nil), http.StatusNotFound, "not_found")
	s.requireError(s.do(http.MethodGet, "/products/abc", "", nil, nil), http.StatusBadRequest, "validation_error")
	s.requireError(s.do(http.MethodGet, "/products?limit=-1", "", nil, nil), http.StatusBadRequest, "validation_error")
	s.requireError(s.do(http.MethodGet, "/products?is_organic=maybe", "", nil, nil), http.StatusBadRequest, "validation_error")

	var products []map[string]any
	rec = s.do(http.MethodGet, "/products?is_organic=false&limit=10", "", nil, &products)
	s.Equal(http.StatusOK, rec.Code)
	s.Len(products, 1)
}

func (s *APISuite) TestDeactivatedCategoryHidesFromListing() {
	var category struct {
		ID int64 `json:"id"`
	}
	s.do(http.MethodPost, "/categories", s.adminToken, gin.H{"name": "Seasonal"}, &category)

	var msg map[string]string
	rec := s.do(http.MethodDelete, fmt.Sprintf("/categories/%d", category.ID), s.adminToken, nil, &msg)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("Category deactivated", msg["message"])

	var categories []map[string]any
	s.do(http.MethodGet, "/categories", "", nil, &categories)
	s.Empty(categories)

	rec = s.do(http.MethodPost, "/products", s.adminToken, gin.H{"name": "Plum", "price": "10", "category_id": category.ID}, nil)
	s.requireError(rec, http.StatusNotFound, "not_found")
}

func (s *APISuite) TestCheckoutFlow() {
	appleID := s.seedProduct("Apple", "45.00")
	bananaID := s.seedProduct("Banana", "30.00")

	// 1. --- Fill the cart; re-adding increments ---
	rec := s.do(http.MethodPost, "/cart/add", s.aliceToken, gin.H{"product_id": appleID, "quantity": 2}, nil)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(http.MethodPost, "/cart/add", s.aliceToken, gin.H{"product_id": appleID}, nil)
	s.Require().Equal(http.StatusCreated, rec.Code)
	rec = s.do(http.MethodPost, "/cart/add", s.aliceToken, gin.H{"product_id": bananaID, "quantity": 1}, nil)
	s.Require().Equal(http.StatusCreated, rec.Code)

	var cart struct {
		Items []struct {
			ID       int64 `json:"id"`
			Quantity int   `json:"quantity"`
		} `json:"items"`
		TotalItems  int    `json:"total_items"`
		TotalAmount string `json:"total_amount"`
	}
	s.do(http.MethodGet, "/cart", s.aliceToken, nil, &cart)
	s.Require().Len(cart.Items, 2)
	s.Equal(2, cart.TotalItems)
	s.Equal("165", cart.TotalAmount)

	// 2. --- Checkout ---
	var order struct {
		ID          int64  `json:"id"`
		OrderNumber string `json:"order_number"`
		TotalAmount string `json:"total_amount"`
		Status      string `json:"status"`
		QRCodeData  string `json:"qr_code_data"`
		Items       []struct {
			UnitPrice string `json:"unit_price"`
		} `json:"order_items"`
	}
	rec = s.do(http.MethodPost, "/orders", s.aliceToken, gin.H{"delivery_address": "12 Market Road"}, &order)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.Regexp(`^ORD-[0-9A-F]{12}$`, order.OrderNumber)
	s.Equal("165", order.TotalAmount)
	s.Equal("pending", order.Status)
	s.Len(order.Items, 2)
	s.Contains(order.QRCodeData, "upi://pay?")
	s.Contains(order.QRCodeData, "am=165.00")

	s.do(http.MethodGet, "/cart", s.aliceToken, nil, &cart)
	s.Empty(cart.Items)

	// 3. --- Price changes do not touch the placed order ---
	rec = s.do(http.MethodPut, fmt.Sprintf("/products/%d/price", appleID), s.adminToken, gin.H{"price": "99.00"}, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, fmt.Sprintf("/orders/%d", order.ID), s.aliceToken, nil, &order)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("165", order.TotalAmount)

	// 4. --- QR code ---
	var qr struct {
		OrderNumber string `json:"order_number"`
		Amount      string `json:"amount"`
		QRCodeData  string `json:"qr_code_data"`
		QRCodeImage string `json:"qr_code_image"`
	}
	rec = s.do(http.MethodGet, fmt.Sprintf("/orders/%d/qr-code", order.ID), s.aliceToken, nil, &qr)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(order.OrderNumber, qr.OrderNumber)
	s.Equal(order.QRCodeData, qr.QRCodeData)
	const prefix = "data:image/png;base64,"
	s.Require().True(strings.HasPrefix(qr.QRCodeImage, prefix))
	_, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(qr.QRCodeImage, prefix))
	s.NoError(err)

	// 5. --- Ownership ---
	s.requireError(s.do(http.MethodGet, fmt.Sprintf("/orders/%d", order.ID), s.bobToken, nil, nil), http.StatusNotFound, "not_found")
	s.requireError(s.do(http.MethodGet, fmt.Sprintf("/orders/%d/qr-code", order.ID), s.bobToken, nil, nil), http.StatusNotFound, "not_found")

	var mine, bobs, all []map[string]any
	s.do(http.MethodGet, "/orders", s.aliceToken, nil, &mine)
	s.do(http.MethodGet, "/orders", s.bobToken, nil, &bobs)
	s.do(http.MethodGet, "/admin/orders?status=pending", s.adminToken, nil, &all)
	s.Len(mine, 1)
	s.Empty(bobs)
	s.Len(all, 1)

	s.requireError(s.do(http.MethodGet, "/admin/orders?status=lost", s.adminToken, nil, nil), http.StatusBadRequest, "validation_error")

	// 6. --- Dashboard ---
	var stats struct {
		ActiveUsers     int            `json:"active_users"`
		ActiveProducts  int            `json:"active_products"`
		OrdersByStatus  map[string]int `json:"orders_by_status"`
		PendingPayments int            `json:"pending_payments"`
		Revenue         string         `json:"revenue"`
	}
	rec = s.do(http.MethodGet, "/admin/dashboard-stats", s.adminToken, nil, &stats)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(3, stats.ActiveUsers)
	s.Equal(2, stats.ActiveProducts)
	s.Equal(1, stats.OrdersByStatus["pending"])
	s.Equal(1, stats.PendingPayments)
	s.Equal("0", stats.Revenue)
}

func (s *APISuite) TestCheckoutEmptyCart() {
	rec := s.do(http.MethodPost, "/orders", s.aliceToken, gin.H{"delivery_address": "12 Market Road"}, nil)
	s.requireError(rec, http.StatusBadRequest, "empty_cart")

	rec = s.do(http.MethodPost, "/orders", s.aliceToken, gin.H{}, nil)
	s.requireError(rec, http.StatusBadRequest, "validation_error")
}

func (s *APISuite) TestCartOwnership() {
	appleID := s.seedProduct("Apple", "45.00")

	var item struct {
		ID int64 `json:"id"`
	}
	rec := s.do(http.MethodPost, "/cart/add", s.aliceToken, gin.H{"product_id": appleID, "quantity": 1}, &item)
	s.Require().Equal(http.StatusCreated, rec.Code)

	s.requireError(s.do(http.MethodDelete, fmt.Sprintf("/cart/%d", item.ID), s.bobToken, nil, nil), http.StatusNotFound, "not_found")

	var msg map[string]string
	rec = s.do(http.MethodDelete, fmt.Sprintf("/cart/%d", item.ID), s.aliceToken, nil, &msg)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("Item removed from cart", msg["message"])

	s.requireError(s.do(http.MethodPost, "/cart/add", s.aliceToken, gin.H{"product_id": 999, "quantity": 1}, nil), http.StatusNotFound, "not_found")
	s.requireError(s.do(http.MethodPost, "/cart/add", s.aliceToken, gin.H{"product_id": appleID, "quantity": 0}, nil), http.StatusBadRequest, "validation_error")
}

func (s *APISuite) TestWishlist() {
	appleID := s.seedProduct("Apple", "45.00")

	var item struct {
		ID int64 `json:"id"`
	}
	rec := s.do(http.MethodPost, "/wishlist/add", s.aliceToken, gin.H{"product_id": appleID}, &item)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/wishlist/add", s.aliceToken, gin.H{"product_id": appleID}, nil)
	s.requireError(rec, http.StatusConflict, "conflict")

	var list []map[string]any
	s.do(http.MethodGet, "/wishlist", s.aliceToken, nil, &list)
	s.Len(list, 1)

	s.requireError(s.do(http.MethodDelete, fmt.Sprintf("/wishlist/%d", item.ID), s.bobToken, nil, nil), http.StatusNotFound, "not_found")
	rec = s.do(http.MethodDelete, fmt.Sprintf("/wishlist/%d", item.ID), s.aliceToken, nil, nil)
	s.Equal(http.StatusOK, rec.Code)

	s.do(http.MethodGet, "/wishlist", s.aliceToken, nil, &list)
	s.Empty(list)
}

func (s *APISuite) TestCORSPreflight() {
	req := httptest.NewRequest(http.MethodOptions, "/cart", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal("http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	s.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestLoginIsRateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newTestRouter(1, 2)

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(`{"username":"ghost","password":"password1"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			require.Equal(t, "60", rec.Header().Get("Retry-After"))
		}
	}
	require.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}
