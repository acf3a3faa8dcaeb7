package wishlist

import (
	"context"
	"strings"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

type ProductLookup interface {
	GetActive(ctx context.Context, productID string) (catalog.Product, error)
}

// CartAdder is the part of the Cart Manager used to promote an entry.
type CartAdder interface {
	Add(ctx context.Context, userID, productID string, quantity int) (cart.Line, error)
}

// Service is the Wishlist Manager.
type Service struct {
	repo     Repository
	products ProductLookup
	carts    CartAdder
}

func NewService(repo Repository, products ProductLookup, carts CartAdder) *Service {
	return &Service{repo: repo, products: products, carts: carts}
}

// Add saves the product. Adding an already saved product is a no-op.
func (s *Service) Add(ctx context.Context, userID, productID string) (Item, error) {
	p, err := s.products.GetActive(ctx, strings.TrimSpace(productID))
	if err != nil {
		return Item{}, err
	}
	if err := s.repo.Add(ctx, userID, p.ID); err != nil {
		return Item{}, err
	}
	return Item{ProductID: p.ID, ProductName: p.Name, Price: p.Price, ImageURL: p.ImageURL, Active: p.Active}, nil
}

func (s *Service) Remove(ctx context.Context, userID, productID string) error {
	id, ok := db.CanonicalID(strings.TrimSpace(productID))
	if !ok {
		return nil
	}
	return s.repo.Remove(ctx, userID, id)
}

// List returns the entries newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Item, error) {
	return s.repo.List(ctx, userID)
}

func (s *Service) Count(ctx context.Context, userID string) (int, error) {
	return s.repo.Count(ctx, userID)
}

// MoveToCart adds one unit of the product to the cart and drops the entry.
func (s *Service) MoveToCart(ctx context.Context, userID, productID string) (cart.Line, error) {
	line, err := s.carts.Add(ctx, userID, productID, 1)
	if err != nil {
		return cart.Line{}, err
	}
	if err := s.repo.Remove(ctx, userID, line.ProductID); err != nil {
		return cart.Line{}, err
	}
	return line, nil
}
