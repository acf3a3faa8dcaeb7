package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/identity"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/media"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

type testEnv struct {
	identity *fakeIdentity
	catalog  *fakeCatalog
	cart     *fakeCart
	wishlist *fakeWishlist
	orders   *fakeOrders
	images   *fakeImages
	deps     Deps
}

func newEnv() *testEnv {
	e := &testEnv{
		identity: &fakeIdentity{},
		catalog: &fakeCatalog{products: map[string]catalog.Product{
			"p-1": {ID: "p-1", Name: "Tea", Price: decimal.RequireFromString("12.50"), Active: true},
		}},
		cart:     &fakeCart{},
		wishlist: &fakeWishlist{},
		orders:   &fakeOrders{},
		images:   &fakeImages{url: "https://cdn.example.com/products/p-1/a.png"},
	}
	e.deps = Deps{
		Logger:       log.New(io.Discard, "", 0),
		TrustHeaders: true,
		Identity:     e.identity,
		Catalog:      e.catalog,
		Cart:         e.cart,
		Wishlist:     e.wishlist,
		Orders:       e.orders,
		Images:       e.images,
	}
	return e
}

func (e *testEnv) do(t *testing.T, method, path, role string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if role != "" {
		req.Header.Set(middleware.HeaderUserID, "u-1")
		req.Header.Set(middleware.HeaderUserRole, role)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rr := httptest.NewRecorder()
	NewRouter(e.deps).ServeHTTP(rr, req)
	return rr
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) middleware.ErrorResponse {
	t.Helper()
	var body middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	e := newEnv()
	rr := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())

	e.deps.Ping = func(context.Context) error { return errors.New("db down") }
	rr = e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRegister(t *testing.T) {
	e := newEnv()
	e.identity.RegisterFunc = func(ctx context.Context, in identity.RegisterInput) (identity.User, error) {
		assert.Equal(t, "ada@example.com", in.Email)
		return identity.User{ID: "u-9"}, nil
	}

	rr := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "s3cretpass",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"userId":"u-9"}`, rr.Body.String())

	rr = e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ada", "password": "s3cretpass",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "email is required", errorBody(t, rr).Error)

	rr = e.do(t, http.MethodPost, "/api/auth/register", "", "{not json")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid json", errorBody(t, rr).Error)
}

func TestLogin_BadCredentials(t *testing.T) {
	e := newEnv()
	e.identity.LoginFunc = func(ctx context.Context, email, password string) (identity.LoginResult, error) {
		return identity.LoginResult{}, apperr.Unauthorized("invalid email or password")
	}

	rr := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@b.io", "password": "x"})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "invalid email or password", errorBody(t, rr).Error)
}

func TestProfile(t *testing.T) {
	e := newEnv()
	e.identity.ProfileFunc = func(ctx context.Context, userID string) (identity.User, error) {
		return identity.User{ID: userID, Name: "Ada", PasswordHash: "secret-hash"}, nil
	}

	rr := e.do(t, http.MethodGet, "/api/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = e.do(t, http.MethodGet, "/api/auth/profile", identity.RoleUser, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"id":"u-1"`)
	assert.NotContains(t, rr.Body.String(), "secret-hash")

	rr = e.do(t, http.MethodPut, "/api/auth/profile", identity.RoleUser, map[string]string{
		"name": "Ada", "dateOfBirth": "1990-13-40",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "dateOfBirth must be YYYY-MM-DD", errorBody(t, rr).Error)

	rr = e.do(t, http.MethodPut, "/api/auth/profile", identity.RoleUser, map[string]string{
		"name": "Ada", "dateOfBirth": "1990-02-01",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"dateOfBirth":"1990-02-01T00:00:00Z"`)
}

func TestChangePassword(t *testing.T) {
	e := newEnv()
	e.identity.ChangePasswordFunc = func(ctx context.Context, userID, current, next string) error {
		if current != "old-password" {
			return apperr.Unauthorized("current password is incorrect")
		}
		return nil
	}

	rr := e.do(t, http.MethodPost, "/api/auth/password", identity.RoleUser,
		map[string]string{"currentPassword": "old-password", "newPassword": "new-password"})
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = e.do(t, http.MethodPost, "/api/auth/password", identity.RoleUser,
		map[string]string{"currentPassword": "guess", "newPassword": "new-password"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = e.do(t, http.MethodPost, "/api/auth/password", identity.RoleUser,
		map[string]string{"currentPassword": "old-password", "newPassword": "short"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "newPassword must be at least 8", errorBody(t, rr).Error)
}

func TestPublicProducts(t *testing.T) {
	e := newEnv()

	rr := e.do(t, http.MethodGet, "/api/public/products/p-1", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var p catalog.Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, "Tea", p.Name)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("12.50")))

	rr = e.do(t, http.MethodGet, "/api/public/products/nope", "", nil, middleware.HeaderCorrelationID, "cid-1")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, middleware.ErrorResponse{Error: "product not found", CorrelationID: "cid-1"}, errorBody(t, rr))
}

func TestCart(t *testing.T) {
	e := newEnv()
	e.cart.AddFunc = func(ctx context.Context, userID, productID string, quantity int) (cart.Line, error) {
		assert.Equal(t, "u-1", userID)
		if quantity < 1 {
			return cart.Line{}, apperr.Validation("quantity must be at least 1")
		}
		return cart.Line{ProductID: productID, Quantity: quantity}, nil
	}
	e.cart.SetQuantityFunc = func(ctx context.Context, userID, productID string, quantity int) (cart.Line, error) {
		return cart.Line{ProductID: productID, ProductName: "Tea", Quantity: quantity}, nil
	}

	rr := e.do(t, http.MethodPost, "/api/cart", "", map[string]any{"productId": "p-1", "quantity": 2})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = e.do(t, http.MethodPost, "/api/cart", identity.RoleUser, map[string]any{"productId": "p-1", "quantity": 2})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"quantity":2`)

	rr = e.do(t, http.MethodPost, "/api/cart", identity.RoleUser, map[string]any{"productId": "p-1", "quantity": 0})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "quantity must be at least 1", errorBody(t, rr).Error)

	rr = e.do(t, http.MethodPut, "/api/cart/p-1", identity.RoleUser, map[string]any{"quantity": 5})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"productId":"p-1","quantity":5}`, rr.Body.String())

	rr = e.do(t, http.MethodPut, "/api/cart/p-1", identity.RoleUser, map[string]any{"quantity": 0})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"productId":"p-1","quantity":0}`, rr.Body.String())

	rr = e.do(t, http.MethodDelete, "/api/cart/p-1", identity.RoleUser, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, []string{"u-1/p-1"}, e.cart.removed)
}

func TestSetQuantity_MissingQuantityIsRejected(t *testing.T) {
	e := newEnv()
	called := false
	e.cart.SetQuantityFunc = func(ctx context.Context, userID, productID string, quantity int) (cart.Line, error) {
		called = true
		return cart.Line{ProductID: productID, Quantity: quantity}, nil
	}

	rr := e.do(t, http.MethodPut, "/api/cart/p-1", identity.RoleUser, map[string]any{})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "quantity is required", errorBody(t, rr).Error)
	assert.False(t, called)
}

func TestInternalErrorsAreHidden(t *testing.T) {
	e := newEnv()
	e.cart.AddFunc = func(ctx context.Context, userID, productID string, quantity int) (cart.Line, error) {
		return cart.Line{}, errors.New("pq: connection refused at 10.0.0.3")
	}

	rr := e.do(t, http.MethodPost, "/api/cart", identity.RoleUser, map[string]any{"productId": "p-1", "quantity": 1})
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	body := errorBody(t, rr)
	assert.Equal(t, "internal error", body.Error)
	assert.NotEmpty(t, body.CorrelationID)
}

func TestWishlistCount(t *testing.T) {
	e := newEnv()
	e.wishlist.count = 3

	rr := e.do(t, http.MethodGet, "/api/wishlist/count", identity.RoleUser, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"count":3}`, rr.Body.String())
}

func checkoutBody() map[string]any {
	return map[string]any{
		"deliveryOption": "standard",
		"paymentMethod":  "cod",
		"shippingAddress": map[string]string{
			"fullName": "Ada", "phone": "555", "line1": "1 Main St",
			"city": "Springfield", "postalCode": "12345", "country": "US",
		},
	}
}

func TestCheckout(t *testing.T) {
	e := newEnv()
	var got order.CheckoutRequest
	e.orders.CheckoutFunc = func(ctx context.Context, userID string, req order.CheckoutRequest) (order.CheckoutResult, error) {
		got = req
		o := &order.Order{ID: "o-1", UserID: userID, Status: order.StatusPending, Total: decimal.RequireFromString("27.00")}
		return order.CheckoutResult{Order: o, Replayed: req.IdempotencyKey == "seen"}, nil
	}

	rr := e.do(t, http.MethodPost, "/api/orders", identity.RoleUser, checkoutBody(), HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "k-1", got.IdempotencyKey)
	assert.Equal(t, "Springfield", got.Shipping.City)
	var o order.Order
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &o))
	assert.Equal(t, order.StatusPending, o.Status)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("27")))

	rr = e.do(t, http.MethodPost, "/api/orders", identity.RoleUser, checkoutBody(), HeaderIdempotencyKey, "seen")
	assert.Equal(t, http.StatusOK, rr.Code)

	body := checkoutBody()
	delete(body, "paymentMethod")
	rr = e.do(t, http.MethodPost, "/api/orders", identity.RoleUser, body)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "paymentMethod is required", errorBody(t, rr).Error)
}

func TestCheckout_EmptyCart(t *testing.T) {
	e := newEnv()
	e.orders.CheckoutFunc = func(ctx context.Context, userID string, req order.CheckoutRequest) (order.CheckoutResult, error) {
		return order.CheckoutResult{}, apperr.EmptyCart()
	}

	rr := e.do(t, http.MethodPost, "/api/orders", identity.RoleUser, checkoutBody())
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "cart is empty", errorBody(t, rr).Error)
}

func TestGetOrder_OtherUser(t *testing.T) {
	e := newEnv()
	e.orders.GetFunc = func(ctx context.Context, userID, orderID string) (*order.Order, error) {
		return nil, apperr.NotFound("order not found")
	}

	rr := e.do(t, http.MethodGet, "/api/orders/o-2", identity.RoleUser, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdminRoutes(t *testing.T) {
	e := newEnv()
	e.orders.UpdateStatusFunc = func(ctx context.Context, orderID, status string) (*order.Order, error) {
		if status == "delivered" {
			return nil, apperr.Conflict("cannot move order from pending to delivered")
		}
		return &order.Order{ID: orderID, Status: order.Status(status)}, nil
	}
	e.orders.GetAnyFunc = func(ctx context.Context, orderID string) (*order.Order, error) {
		if orderID != "o-9" {
			return nil, apperr.NotFound("order not found")
		}
		return &order.Order{ID: orderID, UserID: "u-2", Status: order.StatusPending}, nil
	}

	rr := e.do(t, http.MethodGet, "/api/admin/users", identity.RoleUser, nil)
	require.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "admin access required", errorBody(t, rr).Error)

	rr = e.do(t, http.MethodGet, "/api/admin/users", identity.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = e.do(t, http.MethodPatch, "/api/admin/orders/o-1/status", identity.RoleAdmin, map[string]string{"status": "processing"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"processing"`)

	rr = e.do(t, http.MethodPatch, "/api/admin/orders/o-1/status", identity.RoleAdmin, map[string]string{"status": "delivered"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = e.do(t, http.MethodGet, "/api/admin/orders/o-9", identity.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"userId":"u-2"`)

	rr = e.do(t, http.MethodGet, "/api/admin/orders/missing", identity.RoleAdmin, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = e.do(t, http.MethodGet, "/api/admin/orders/o-9", identity.RoleUser, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = e.do(t, http.MethodPost, "/api/admin/products", identity.RoleAdmin, map[string]any{
		"name": "Mug", "category": "kitchen", "price": "9.99", "stockQuantity": 4,
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"isActive":true`)
}

func imageRequest(t *testing.T, path string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "a.png")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(middleware.HeaderUserID, "admin-1")
	req.Header.Set(middleware.HeaderUserRole, identity.RoleAdmin)
	return req
}

func TestUploadImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")

	t.Run("stored and linked", func(t *testing.T) {
		e := newEnv()
		rr := httptest.NewRecorder()
		NewRouter(e.deps).ServeHTTP(rr, imageRequest(t, "/api/admin/products/p-1/image", png))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, png, e.images.got)
		assert.Equal(t, e.images.url, e.catalog.imageURL)
	})

	t.Run("unknown product", func(t *testing.T) {
		e := newEnv()
		rr := httptest.NewRecorder()
		NewRouter(e.deps).ServeHTTP(rr, imageRequest(t, "/api/admin/products/nope/image", png))
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Nil(t, e.images.got)
	})

	t.Run("too large", func(t *testing.T) {
		e := newEnv()
		big := make([]byte, media.MaxImageBytes+1)
		rr := httptest.NewRecorder()
		NewRouter(e.deps).ServeHTTP(rr, imageRequest(t, "/api/admin/products/p-1/image", big))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("storage disabled", func(t *testing.T) {
		e := newEnv()
		e.deps.Images = media.Disabled{}
		rr := httptest.NewRecorder()
		NewRouter(e.deps).ServeHTTP(rr, imageRequest(t, "/api/admin/products/p-1/image", png))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})

	t.Run("missing field", func(t *testing.T) {
		e := newEnv()
		req := httptest.NewRequest(http.MethodPost, "/api/admin/products/p-1/image", strings.NewReader("x"))
		req.Header.Set(middleware.HeaderUserID, "admin-1")
		req.Header.Set(middleware.HeaderUserRole, identity.RoleAdmin)
		rr := httptest.NewRecorder()
		NewRouter(e.deps).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
