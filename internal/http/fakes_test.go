package httpapi

import (
	"context"
	"io"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/identity"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

type fakeIdentity struct {
	RegisterFunc       func(ctx context.Context, in identity.RegisterInput) (identity.User, error)
	LoginFunc          func(ctx context.Context, email, password string) (identity.LoginResult, error)
	ProfileFunc        func(ctx context.Context, userID string) (identity.User, error)
	ChangePasswordFunc func(ctx context.Context, userID, current, next string) error
}

func (f *fakeIdentity) Register(ctx context.Context, in identity.RegisterInput) (identity.User, error) {
	return f.RegisterFunc(ctx, in)
}

func (f *fakeIdentity) Login(ctx context.Context, email, password string) (identity.LoginResult, error) {
	return f.LoginFunc(ctx, email, password)
}

func (f *fakeIdentity) Profile(ctx context.Context, userID string) (identity.User, error) {
	return f.ProfileFunc(ctx, userID)
}

func (f *fakeIdentity) UpdateProfile(ctx context.Context, userID string, p identity.ProfileUpdate) (identity.User, error) {
	return identity.User{ID: userID, Name: p.Name, DateOfBirth: p.DateOfBirth}, nil
}

func (f *fakeIdentity) ChangePassword(ctx context.Context, userID, current, next string) error {
	return f.ChangePasswordFunc(ctx, userID, current, next)
}

func (f *fakeIdentity) ListCustomers(ctx context.Context) ([]identity.User, error) {
	return []identity.User{{ID: "u-1", Role: identity.RoleUser}}, nil
}

type fakeCatalog struct {
	CatalogService
	products map[string]catalog.Product
	imageURL string
}

func (f *fakeCatalog) GetActive(ctx context.Context, productID string) (catalog.Product, error) {
	return f.Get(ctx, productID)
}

func (f *fakeCatalog) Get(ctx context.Context, productID string) (catalog.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return catalog.Product{}, apperr.NotFound("product not found")
	}
	return p, nil
}

func (f *fakeCatalog) ListActive(ctx context.Context) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeCatalog) Create(ctx context.Context, in catalog.ProductInput) (catalog.Product, error) {
	return catalog.Product{ID: "p-new", Name: in.Name, Price: in.Price, Active: in.Active}, nil
}

func (f *fakeCatalog) SetImage(ctx context.Context, productID, imageURL string) (catalog.Product, error) {
	f.imageURL = imageURL
	p := f.products[productID]
	p.ImageURL = imageURL
	return p, nil
}

type fakeCart struct {
	CartService
	AddFunc         func(ctx context.Context, userID, productID string, quantity int) (cart.Line, error)
	SetQuantityFunc func(ctx context.Context, userID, productID string, quantity int) (cart.Line, error)
	removed         []string
}

func (f *fakeCart) Add(ctx context.Context, userID, productID string, quantity int) (cart.Line, error) {
	return f.AddFunc(ctx, userID, productID, quantity)
}

func (f *fakeCart) SetQuantity(ctx context.Context, userID, productID string, quantity int) (cart.Line, error) {
	return f.SetQuantityFunc(ctx, userID, productID, quantity)
}

func (f *fakeCart) Remove(ctx context.Context, userID, productID string) error {
	f.removed = append(f.removed, userID+"/"+productID)
	return nil
}

type fakeWishlist struct {
	WishlistService
	count int
}

func (f *fakeWishlist) Count(ctx context.Context, userID string) (int, error) {
	return f.count, nil
}

type fakeOrders struct {
	OrderService
	CheckoutFunc     func(ctx context.Context, userID string, req order.CheckoutRequest) (order.CheckoutResult, error)
	UpdateStatusFunc func(ctx context.Context, orderID, status string) (*order.Order, error)
	GetFunc          func(ctx context.Context, userID, orderID string) (*order.Order, error)
	GetAnyFunc       func(ctx context.Context, orderID string) (*order.Order, error)
}

func (f *fakeOrders) Checkout(ctx context.Context, userID string, req order.CheckoutRequest) (order.CheckoutResult, error) {
	return f.CheckoutFunc(ctx, userID, req)
}

func (f *fakeOrders) UpdateStatus(ctx context.Context, orderID, status string) (*order.Order, error) {
	return f.UpdateStatusFunc(ctx, orderID, status)
}

func (f *fakeOrders) Get(ctx context.Context, userID, orderID string) (*order.Order, error) {
	return f.GetFunc(ctx, userID, orderID)
}

func (f *fakeOrders) GetAny(ctx context.Context, orderID string) (*order.Order, error) {
	return f.GetAnyFunc(ctx, orderID)
}

type fakeImages struct {
	got []byte
	url string
	err error
}

func (f *fakeImages) PutProductImage(ctx context.Context, productID, filename string, body io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.got = b
	return f.url, nil
}
