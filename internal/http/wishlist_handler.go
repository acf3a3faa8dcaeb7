package httpapi

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/wishlist"
)

type WishlistService interface {
	Add(ctx context.Context, userID, productID string) (wishlist.Item, error)
	Remove(ctx context.Context, userID, productID string) error
	List(ctx context.Context, userID string) ([]wishlist.Item, error)
	Count(ctx context.Context, userID string) (int, error)
	MoveToCart(ctx context.Context, userID, productID string) (cart.Line, error)
}

type WishlistHandler struct {
	base
	wishlists WishlistService
}

func NewWishlistHandler(wishlists WishlistService, logger *log.Logger, timeout time.Duration) *WishlistHandler {
	return &WishlistHandler{base: newBase(logger, timeout), wishlists: wishlists}
}

type wishlistRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req wishlistRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	item, err := h.wishlists.Add(ctx, middleware.GetUserID(r.Context()), req.ProductID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	if err := h.wishlists.Remove(ctx, middleware.GetUserID(r.Context()), chi.URLParam(r, "productId")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	items, err := h.wishlists.List(ctx, middleware.GetUserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *WishlistHandler) Count(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	n, err := h.wishlists.Count(ctx, middleware.GetUserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *WishlistHandler) MoveToCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	line, err := h.wishlists.MoveToCart(ctx, middleware.GetUserID(r.Context()), chi.URLParam(r, "productId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}
