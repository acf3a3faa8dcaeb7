package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

// Service is the Catalog Store used by the storefront handlers and by the
// cart, wishlist and checkout workflows.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// GetActive returns the product only when it exists and is active.
func (s *Service) GetActive(ctx context.Context, productID string) (Product, error) {
	p, err := s.Get(ctx, productID)
	if err != nil {
		return Product{}, err
	}
	if !p.Active {
		return Product{}, apperr.NotFound("product %s not found", productID)
	}
	return p, nil
}

// Get returns the product in any state.
func (s *Service) Get(ctx context.Context, productID string) (Product, error) {
	id, ok := db.CanonicalID(strings.TrimSpace(productID))
	if !ok {
		return Product{}, apperr.NotFound("product %s not found", productID)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) ListActive(ctx context.Context) ([]Product, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, apperr.Validation("category is required")
	}
	return s.repo.ListByCategory(ctx, category)
}

func (s *Service) Search(ctx context.Context, q string) ([]Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperr.Validation("search query is required")
	}
	return s.repo.Search(ctx, q)
}

func (s *Service) ListAll(ctx context.Context) ([]Product, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) Create(ctx context.Context, in ProductInput) (Product, error) {
	if err := validateInput(in); err != nil {
		return Product{}, err
	}

	now := s.now()
	p := Product{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	apply(&p, in)

	if err := s.repo.Create(ctx, &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, productID string, in ProductInput) (Product, error) {
	if err := validateInput(in); err != nil {
		return Product{}, err
	}

	p, err := s.Get(ctx, productID)
	if err != nil {
		return Product{}, err
	}
	apply(&p, in)
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Deactivate hides the product from the storefront. Order items keep their
// snapshot and carts holding the product fail at checkout.
func (s *Service) Deactivate(ctx context.Context, productID string) error {
	id, ok := db.CanonicalID(strings.TrimSpace(productID))
	if !ok {
		return apperr.NotFound("product %s not found", productID)
	}
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) SetImage(ctx context.Context, productID, imageURL string) (Product, error) {
	id, ok := db.CanonicalID(strings.TrimSpace(productID))
	if !ok {
		return Product{}, apperr.NotFound("product %s not found", productID)
	}
	if err := s.repo.SetImage(ctx, id, imageURL); err != nil {
		return Product{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, name, description string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, apperr.Validation("category name is required")
	}
	c := Category{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   s.now(),
	}
	if err := s.repo.CreateCategory(ctx, &c); err != nil {
		return Category{}, err
	}
	return c, nil
}

func validateInput(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("product name is required")
	}
	if !in.Price.IsPositive() {
		return apperr.Validation("price must be greater than zero")
	}
	if in.StockQuantity < 0 {
		return apperr.Validation("stock quantity must not be negative")
	}
	if in.OriginalPrice != nil && in.OriginalPrice.LessThan(in.Price) {
		return apperr.Validation("original price must not be lower than price")
	}
	return nil
}

func apply(p *Product, in ProductInput) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = strings.TrimSpace(in.Description)
	p.Category = strings.TrimSpace(in.Category)
	p.Subcategory = strings.TrimSpace(in.Subcategory)
	p.Price = in.Price.Round(2)
	p.OriginalPrice = nil
	if in.OriginalPrice != nil {
		op := in.OriginalPrice.Round(2)
		p.OriginalPrice = &op
	}
	p.Weight = strings.TrimSpace(in.Weight)
	p.StockQuantity = in.StockQuantity
	p.Active = in.Active
}
