package cart

import (
	"context"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

// MaxQuantity is the largest quantity a cart line can hold (an INTEGER column).
const MaxQuantity = math.MaxInt32

// ProductLookup resolves a product that may be put in a cart.
type ProductLookup interface {
	GetActive(ctx context.Context, productID string) (catalog.Product, error)
}

// Service is the Cart Manager.
type Service struct {
	repo     Repository
	products ProductLookup
}

func NewService(repo Repository, products ProductLookup) *Service {
	return &Service{repo: repo, products: products}
}

// Add merges quantity into the (user, product) line, creating it if needed.
func (s *Service) Add(ctx context.Context, userID, productID string, quantity int) (Line, error) {
	if quantity <= 0 {
		return Line{}, apperr.Validation("quantity must be a positive integer, got %d", quantity)
	}
	if quantity > MaxQuantity {
		return Line{}, apperr.Validation("quantity must be at most %d", MaxQuantity)
	}
	p, err := s.products.GetActive(ctx, strings.TrimSpace(productID))
	if err != nil {
		return Line{}, err
	}

	total, err := s.repo.AddOrIncrement(ctx, userID, p.ID, quantity)
	if err != nil {
		return Line{}, err
	}
	return lineFor(p, total), nil
}

// SetQuantity sets the absolute quantity of a line; 0 removes it.
func (s *Service) SetQuantity(ctx context.Context, userID, productID string, quantity int) (Line, error) {
	if quantity < 0 {
		return Line{}, apperr.Validation("quantity must not be negative, got %d", quantity)
	}
	if quantity > MaxQuantity {
		return Line{}, apperr.Validation("quantity must be at most %d", MaxQuantity)
	}
	if quantity == 0 {
		if err := s.Remove(ctx, userID, productID); err != nil {
			return Line{}, err
		}
		return Line{ProductID: productID}, nil
	}

	p, err := s.products.GetActive(ctx, strings.TrimSpace(productID))
	if err != nil {
		return Line{}, err
	}
	if err := s.repo.SetQuantity(ctx, userID, p.ID, quantity); err != nil {
		return Line{}, err
	}
	return lineFor(p, quantity), nil
}

// Remove deletes the line. Removing an absent line is not an error.
func (s *Service) Remove(ctx context.Context, userID, productID string) error {
	id, ok := db.CanonicalID(strings.TrimSpace(productID))
	if !ok {
		return nil
	}
	return s.repo.Remove(ctx, userID, id)
}

// List returns the lines in insertion order priced at the current catalog price.
// Inactive products are listed but excluded from the subtotal.
func (s *Service) List(ctx context.Context, userID string) (Cart, error) {
	lines, err := s.repo.List(ctx, userID)
	if err != nil {
		return Cart{}, err
	}

	c := Cart{UserID: userID, Items: lines, Subtotal: decimal.Zero}
	for i := range c.Items {
		l := &c.Items[i]
		l.LineTotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		if l.Active {
			c.Subtotal = c.Subtotal.Add(l.LineTotal)
		}
	}
	return c, nil
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.repo.Clear(ctx, userID)
}

func lineFor(p catalog.Product, quantity int) Line {
	return Line{
		ProductID:   p.ID,
		ProductName: p.Name,
		UnitPrice:   p.Price,
		Quantity:    quantity,
		LineTotal:   p.Price.Mul(decimal.NewFromInt(int64(quantity))),
		Active:      p.Active,
	}
}
