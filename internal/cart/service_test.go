package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
)

const (
	user     = "user-1"
	product1 = "11111111-1111-1111-1111-111111111111"
	product2 = "22222222-2222-2222-2222-222222222222"
)

type memRepo struct {
	mu    sync.Mutex
	lines []Line
}

func (r *memRepo) AddOrIncrement(ctx context.Context, userID, productID string, quantity int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.lines {
		if r.lines[i].ProductID == productID {
			r.lines[i].Quantity += quantity
			return r.lines[i].Quantity, nil
		}
	}
	r.lines = append(r.lines, Line{ProductID: productID, Quantity: quantity, AddedAt: time.Now()})
	return quantity, nil
}

func (r *memRepo) SetQuantity(ctx context.Context, userID, productID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.lines {
		if r.lines[i].ProductID == productID {
			r.lines[i].Quantity = quantity
			return nil
		}
	}
	r.lines = append(r.lines, Line{ProductID: productID, Quantity: quantity})
	return nil
}

func (r *memRepo) Remove(ctx context.Context, userID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.lines {
		if r.lines[i].ProductID == productID {
			r.lines = append(r.lines[:i], r.lines[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *memRepo) List(ctx context.Context, userID string) ([]Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Line(nil), r.lines...), nil
}

func (r *memRepo) Clear(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = nil
	return nil
}

type fakeProducts map[string]catalog.Product

func (f fakeProducts) GetActive(ctx context.Context, id string) (catalog.Product, error) {
	p, ok := f[id]
	if !ok || !p.Active {
		return catalog.Product{}, apperr.NotFound("product %s not found", id)
	}
	return p, nil
}

func testProducts() fakeProducts {
	return fakeProducts{
		product1: {ID: product1, Name: "Coconut oil", Price: decimal.RequireFromString("10.00"), Active: true},
		product2: {ID: product2, Name: "Neem soap", Price: decimal.RequireFromString("5.00"), Active: true},
	}
}

func TestAddMergesRepeatedAdds(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	svc := NewService(repo, testProducts())

	_, err := svc.Add(ctx, user, product1, 2)
	require.NoError(t, err)
	line, err := svc.Add(ctx, user, product1, 3)
	require.NoError(t, err)

	assert.Equal(t, 5, line.Quantity)
	assert.Equal(t, "50", line.LineTotal.String())
	require.Len(t, repo.lines, 1)
}

func TestAddValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&memRepo{}, testProducts())

	for _, qty := range []int{0, -1, MaxQuantity + 1} {
		_, err := svc.Add(ctx, user, product1, qty)
		require.ErrorIs(t, err, apperr.ErrValidation)
	}

	_, err := svc.SetQuantity(ctx, user, product1, MaxQuantity+1)
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Add(ctx, user, "33333333-3333-3333-3333-333333333333", 1)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAddRejectsInactiveProduct(t *testing.T) {
	products := testProducts()
	p := products[product1]
	p.Active = false
	products[product1] = p

	_, err := NewService(&memRepo{}, products).Add(context.Background(), user, product1, 1)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConcurrentAddsAreBothReflected(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	svc := NewService(repo, testProducts())

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Add(ctx, user, product1, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err := svc.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
}

func TestSetQuantity(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	svc := NewService(repo, testProducts())

	_, err := svc.Add(ctx, user, product1, 2)
	require.NoError(t, err)

	_, err = svc.SetQuantity(ctx, user, product1, -1)
	require.ErrorIs(t, err, apperr.ErrValidation)

	line, err := svc.SetQuantity(ctx, user, product1, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, line.Quantity)

	_, err = svc.SetQuantity(ctx, user, product1, 0)
	require.NoError(t, err)
	assert.Empty(t, repo.lines)
}

func TestRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&memRepo{}, testProducts())

	require.NoError(t, svc.Remove(ctx, user, product1))
	require.NoError(t, svc.Remove(ctx, user, "not-a-uuid"))
}

func TestRemoveNormalisesProductID(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{lines: []Line{{ProductID: product1, Quantity: 1}}}
	svc := NewService(repo, testProducts())

	require.NoError(t, svc.Remove(ctx, user, "urn:uuid:"+product1))
	assert.Empty(t, repo.lines)
}

func TestListKeepsInsertionOrderAndSkipsInactiveInSubtotal(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{lines: []Line{
		{ProductID: product2, ProductName: "Neem soap", UnitPrice: decimal.RequireFromString("5.00"), Quantity: 1, Active: true},
		{ProductID: product1, ProductName: "Coconut oil", UnitPrice: decimal.RequireFromString("10.00"), Quantity: 2, Active: true},
		{ProductID: "gone", ProductName: "Retired", UnitPrice: decimal.RequireFromString("99.00"), Quantity: 1, Active: false},
	}}

	c, err := NewService(repo, testProducts()).List(ctx, user)
	require.NoError(t, err)

	require.Len(t, c.Items, 3)
	assert.Equal(t, product2, c.Items[0].ProductID)
	assert.Equal(t, product1, c.Items[1].ProductID)
	assert.True(t, c.Subtotal.Equal(decimal.RequireFromString("25.00")))
}
