package httpapi

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/middleware"
)

type CartService interface {
	Add(ctx context.Context, userID, productID string, quantity int) (cart.Line, error)
	SetQuantity(ctx context.Context, userID, productID string, quantity int) (cart.Line, error)
	Remove(ctx context.Context, userID, productID string) error
	List(ctx context.Context, userID string) (cart.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type CartHandler struct {
	base
	carts CartService
}

func NewCartHandler(carts CartService, logger *log.Logger, timeout time.Duration) *CartHandler {
	return &CartHandler{base: newBase(logger, timeout), carts: carts}
}

type addItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	line, err := h.carts.Add(ctx, middleware.GetUserID(r.Context()), req.ProductID, req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

// Quantity 0 removes the line, so an omitted field must not read as 0.
type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type quantityResponse struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	line, err := h.carts.SetQuantity(ctx, middleware.GetUserID(r.Context()), chi.URLParam(r, "productId"), *req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quantityResponse{ProductID: line.ProductID, Quantity: line.Quantity})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	if err := h.carts.Remove(ctx, middleware.GetUserID(r.Context()), chi.URLParam(r, "productId")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	c, err := h.carts.List(ctx, middleware.GetUserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	if err := h.carts.Clear(ctx, middleware.GetUserID(r.Context())); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
