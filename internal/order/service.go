package order

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

const maxIdempotencyKeyLen = 128

// CartReader is the read side of the Cart Manager used before the commit.
type CartReader interface {
	List(ctx context.Context, userID string) (cart.Cart, error)
}

type CheckoutRequest struct {
	DeliveryOption string
	PaymentMethod  string
	Shipping       ShippingAddress
	IdempotencyKey string
}

type CheckoutResult struct {
	Order *Order
	// Replayed is set when an earlier checkout with the same idempotency key is returned.
	Replayed bool
}

// Service is the Order Workflow.
type Service struct {
	repo      Repository
	carts     CartReader
	pricing   Pricing
	notifiers Notifiers
	logger    *log.Logger
	now       func() time.Time
}

func NewService(repo Repository, carts CartReader, pricing Pricing, logger *log.Logger, notifiers ...Notifier) *Service {
	return &Service{
		repo:      repo,
		carts:     carts,
		pricing:   pricing,
		notifiers: Notifiers(notifiers),
		logger:    logger,
		now:       time.Now,
	}
}

// Checkout turns the user's cart into a pending order. Input is validated
// before storage is touched; the commit itself is all-or-nothing.
func (s *Service) Checkout(ctx context.Context, userID string, req CheckoutRequest) (CheckoutResult, error) {
	delivery, err := ParseDeliveryOption(req.DeliveryOption)
	if err != nil {
		return CheckoutResult{}, err
	}
	payment, err := ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return CheckoutResult{}, err
	}
	shipping, err := req.Shipping.normalized()
	if err != nil {
		return CheckoutResult{}, err
	}
	key := strings.TrimSpace(req.IdempotencyKey)
	if len(key) > maxIdempotencyKeyLen {
		return CheckoutResult{}, apperr.Validation("idempotency key must be at most %d characters", maxIdempotencyKeyLen)
	}

	if key != "" {
		existing, err := s.repo.GetByIdempotencyKey(ctx, userID, key)
		switch {
		case err == nil:
			return CheckoutResult{Order: existing, Replayed: true}, nil
		case !errors.Is(err, apperr.ErrNotFound):
			return CheckoutResult{}, err
		}
	}

	current, err := s.carts.List(ctx, userID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if len(current.Items) == 0 {
		return CheckoutResult{}, apperr.EmptyCart()
	}
	for _, l := range current.Items {
		if !l.Active {
			return CheckoutResult{}, apperr.NotFound("product %s is no longer available", l.ProductID)
		}
	}

	build := func(lines []cart.CheckoutLine) (*Order, error) {
		return s.build(userID, key, delivery, payment, shipping, lines)
	}

	o, err := s.repo.Place(ctx, userID, build)
	if errors.Is(err, ErrDuplicateIdempotencyKey) {
		existing, getErr := s.repo.GetByIdempotencyKey(ctx, userID, key)
		if getErr != nil {
			return CheckoutResult{}, getErr
		}
		return CheckoutResult{Order: existing, Replayed: true}, nil
	}
	if err != nil {
		return CheckoutResult{}, err
	}

	s.notifiers.placed(ctx, s.logger, o)
	return CheckoutResult{Order: o}, nil
}

// build prices the locked lines at their current catalog price.
func (s *Service) build(userID, key string, delivery DeliveryOption, payment PaymentMethod, shipping ShippingAddress, lines []cart.CheckoutLine) (*Order, error) {
	now := s.now().UTC()
	o := &Order{
		ID:             uuid.NewString(),
		UserID:         userID,
		IdempotencyKey: key,
		Items:          make([]Item, 0, len(lines)),
		Shipping:       shipping,
		DeliveryOption: delivery,
		PaymentMethod:  payment,
		Status:         StatusPending,
		Subtotal:       decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for _, l := range lines {
		if !l.Active {
			return nil, apperr.NotFound("product %s is no longer available", l.ProductID)
		}
		if l.Quantity < 1 {
			return nil, apperr.Validation("cart line for product %s has quantity %d", l.ProductID, l.Quantity)
		}
		price := l.UnitPrice.Round(2)
		lineTotal := price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		o.Items = append(o.Items, Item{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   price,
			Quantity:    l.Quantity,
			LineTotal:   lineTotal,
		})
		o.Subtotal = o.Subtotal.Add(lineTotal)
	}

	fee, err := s.pricing.ShippingFee(delivery, o.Subtotal)
	if err != nil {
		return nil, err
	}
	o.ShippingFee = fee
	o.Total = o.Subtotal.Add(fee)
	o.PointsEarned = loyaltyPoints(o.Total)
	return o, nil
}

// Get returns the order if it belongs to userID. Orders of other users are
// reported as not found.
func (s *Service) Get(ctx context.Context, userID, orderID string) (*Order, error) {
	id, ok := db.CanonicalID(strings.TrimSpace(orderID))
	if !ok {
		return nil, apperr.NotFound("order %s not found", orderID)
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperr.NotFound("order %s not found", orderID)
	}
	return o, nil
}

// GetAny returns an order regardless of owner.
func (s *Service) GetAny(ctx context.Context, orderID string) (*Order, error) {
	id, ok := db.CanonicalID(strings.TrimSpace(orderID))
	if !ok {
		return nil, apperr.NotFound("order %s not found", orderID)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListAll lists every order, optionally only those in the given status.
func (s *Service) ListAll(ctx context.Context, status string) ([]Order, error) {
	var filter Status
	if strings.TrimSpace(status) != "" {
		st, err := ParseStatus(status)
		if err != nil {
			return nil, err
		}
		filter = st
	}
	return s.repo.List(ctx, filter)
}

// UpdateStatus moves an order along the fulfillment state machine.
func (s *Service) UpdateStatus(ctx context.Context, orderID, status string) (*Order, error) {
	to, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	id, ok := db.CanonicalID(strings.TrimSpace(orderID))
	if !ok {
		return nil, apperr.NotFound("order %s not found", orderID)
	}

	o, from, err := s.repo.UpdateStatus(ctx, id, to, s.now().UTC())
	if err != nil {
		return nil, err
	}

	s.notifiers.statusChanged(ctx, s.logger, o, from)
	return o, nil
}

// StatusChanged lets transaction-scoped callers that applied a transition
// themselves reuse the workflow's notifications.
func (s *Service) StatusChanged(ctx context.Context, o *Order, from Status) {
	s.notifiers.statusChanged(ctx, s.logger, o, from)
}
