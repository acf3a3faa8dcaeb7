package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/media"
)

type CatalogService interface {
	GetActive(ctx context.Context, productID string) (catalog.Product, error)
	Get(ctx context.Context, productID string) (catalog.Product, error)
	ListActive(ctx context.Context) ([]catalog.Product, error)
	ListByCategory(ctx context.Context, category string) ([]catalog.Product, error)
	Search(ctx context.Context, q string) ([]catalog.Product, error)
	ListAll(ctx context.Context) ([]catalog.Product, error)
	Create(ctx context.Context, in catalog.ProductInput) (catalog.Product, error)
	Update(ctx context.Context, productID string, in catalog.ProductInput) (catalog.Product, error)
	Deactivate(ctx context.Context, productID string) error
	SetImage(ctx context.Context, productID, imageURL string) (catalog.Product, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	CreateCategory(ctx context.Context, name, description string) (catalog.Category, error)
}

type CatalogHandler struct {
	base
	products CatalogService
	images   media.ImageStore
}

func NewCatalogHandler(products CatalogService, images media.ImageStore, logger *log.Logger, timeout time.Duration) *CatalogHandler {
	if images == nil {
		images = media.Disabled{}
	}
	return &CatalogHandler{base: newBase(logger, timeout), products: products, images: images}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	products, err := h.products.ListActive(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	p, err := h.products.GetActive(ctx, chi.URLParam(r, "productId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	products, err := h.products.ListByCategory(ctx, chi.URLParam(r, "category"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	products, err := h.products.Search(ctx, r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	categories, err := h.products.ListCategories(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// --- admin ---

func (h *CatalogHandler) ListAllProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	products, err := h.products.ListAll(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

type productRequest struct {
	Name          string           `json:"name" validate:"required,max=200"`
	Description   string           `json:"description"`
	Category      string           `json:"category" validate:"required"`
	Subcategory   string           `json:"subcategory"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice"`
	Weight        string           `json:"weight"`
	StockQuantity int              `json:"stockQuantity" validate:"min=0"`
	IsActive      *bool            `json:"isActive"`
}

func (p productRequest) input() catalog.ProductInput {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return catalog.ProductInput{
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		Subcategory:   p.Subcategory,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Weight:        p.Weight,
		StockQuantity: p.StockQuantity,
		Active:        active,
	}
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	p, err := h.products.Create(ctx, req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	p, err := h.products.Update(ctx, chi.URLParam(r, "productId"), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	if err := h.products.Deactivate(ctx, chi.URLParam(r, "productId")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// multipart framing on top of the image itself
const uploadOverhead = 1 << 20

func (h *CatalogHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	r.Body = http.MaxBytesReader(w, r.Body, media.MaxImageBytes+uploadOverhead)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, apperr.Validation("image must be at most %d bytes", media.MaxImageBytes))
			return
		}
		h.fail(w, r, apperr.Validation("multipart field \"image\" is required"))
		return
	}
	defer file.Close()
	if header.Size > media.MaxImageBytes {
		h.fail(w, r, apperr.Validation("image must be at most %d bytes", media.MaxImageBytes))
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	if _, err := h.products.Get(ctx, productID); err != nil {
		h.fail(w, r, err)
		return
	}

	url, err := h.images.PutProductImage(ctx, productID, header.Filename, file)
	if err != nil {
		if errors.Is(err, media.ErrNotConfigured) {
			writeError(w, r, http.StatusServiceUnavailable, "image storage is not configured")
			return
		}
		h.fail(w, r, err)
		return
	}

	p, err := h.products.SetImage(ctx, productID, url)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	ctx, cancel := h.ctx(r)
	defer cancel()

	c, err := h.products.CreateCategory(ctx, req.Name, req.Description)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}
