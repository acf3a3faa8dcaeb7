//go:build integration
// +build integration

package integration

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/identity"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/testutil"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/wishlist"
)

type stack struct {
	pg        *testutil.Postgres
	logger    *log.Logger
	tokens    *identity.Tokens
	users     *identity.Service
	catalog   *catalog.Service
	carts     *cart.Service
	wishlists *wishlist.Service
	orderRepo *order.PostgresRepository
	orders    *order.Service
}

func newStack(t *testing.T, notifiers ...order.Notifier) *stack {
	t.Helper()
	return newStackOn(t, testutil.StartPostgres(t), notifiers...)
}

func newStackOn(t *testing.T, pg *testutil.Postgres, notifiers ...order.Notifier) *stack {
	t.Helper()
	logger := log.New(io.Discard, "", 0)

	cartRepo := cart.NewPostgresRepository(pg.Pool)
	catalogSvc := catalog.NewService(catalog.NewPostgresRepository(pg.Pool))
	cartSvc := cart.NewService(cartRepo, catalogSvc)
	orderRepo := order.NewPostgresRepository(pg.Pool, func(q db.Querier) order.CheckoutCart {
		return cartRepo.WithExecutor(q)
	})

	tokens := identity.NewTokens("integration-secret", time.Hour)

	return &stack{
		pg:        pg,
		logger:    logger,
		tokens:    tokens,
		users:     identity.NewService(identity.NewPostgresRepository(pg.Pool), tokens),
		catalog:   catalogSvc,
		carts:     cartSvc,
		wishlists: wishlist.NewService(wishlist.NewPostgresRepository(pg.Pool), catalogSvc, cartSvc),
		orderRepo: orderRepo,
		orders:    order.NewService(orderRepo, cartSvc, order.DefaultPricing(), logger, notifiers...),
	}
}

func (s *stack) user(t *testing.T, email string) string {
	t.Helper()
	u, err := s.users.Register(context.Background(), identity.RegisterInput{
		Name: "Test User", Email: email, Password: "password123",
	})
	require.NoError(t, err)
	return u.ID
}

func (s *stack) product(t *testing.T, name, price string) catalog.Product {
	t.Helper()
	p, err := s.catalog.Create(context.Background(), catalog.ProductInput{
		Name:          name,
		Category:      "pantry",
		Price:         decimal.RequireFromString(price),
		StockQuantity: 10,
		Active:        true,
	})
	require.NoError(t, err)
	return p
}

func address() order.ShippingAddress {
	return order.ShippingAddress{
		FullName: "Test User", Phone: "555-0100", Line1: "1 Main St",
		City: "Springfield", PostalCode: "12345", Country: "US",
	}
}

func standardCOD(key string) order.CheckoutRequest {
	return order.CheckoutRequest{
		DeliveryOption: "standard",
		PaymentMethod:  "cod",
		Shipping:       address(),
		IdempotencyKey: key,
	}
}
