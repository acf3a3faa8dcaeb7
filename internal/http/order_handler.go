package httpapi

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type OrderService interface {
	Checkout(ctx context.Context, userID string, req order.CheckoutRequest) (order.CheckoutResult, error)
	Get(ctx context.Context, userID, orderID string) (*order.Order, error)
	ListByUser(ctx context.Context, userID string) ([]order.Order, error)
	GetAny(ctx context.Context, orderID string) (*order.Order, error)
	ListAll(ctx context.Context, status string) ([]order.Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) (*order.Order, error)
}

type OrderHandler struct {
	base
	orders OrderService
}

func NewOrderHandler(orders OrderService, logger *log.Logger, timeout time.Duration) *OrderHandler {
	return &OrderHandler{base: newBase(logger, timeout), orders: orders}
}

type checkoutRequest struct {
	DeliveryOption  string                `json:"deliveryOption" validate:"required"`
	PaymentMethod   string                `json:"paymentMethod" validate:"required"`
	ShippingAddress order.ShippingAddress `json:"shippingAddress"`
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	userID := middleware.GetUserID(r.Context())
	res, err := h.orders.Checkout(ctx, userID, order.CheckoutRequest{
		DeliveryOption: req.DeliveryOption,
		PaymentMethod:  req.PaymentMethod,
		Shipping:       req.ShippingAddress,
		IdempotencyKey: strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey)),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, res.Order)
}

func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	orders, err := h.orders.ListByUser(ctx, middleware.GetUserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	o, err := h.orders.Get(ctx, middleware.GetUserID(r.Context()), chi.URLParam(r, "orderId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// --- admin ---

func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	orders, err := h.orders.ListAll(ctx, r.URL.Query().Get("status"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	o, err := h.orders.GetAny(ctx, chi.URLParam(r, "orderId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	o, err := h.orders.UpdateStatus(ctx, chi.URLParam(r, "orderId"), req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
