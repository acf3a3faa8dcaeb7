package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
)

type DeliveryOption string

const (
	DeliveryStandard DeliveryOption = "standard"
	DeliveryExpress  DeliveryOption = "express"
)

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentCard   PaymentMethod = "card"
	PaymentUPI    PaymentMethod = "upi"
	PaymentWallet PaymentMethod = "wallet"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case PaymentCOD, PaymentCard, PaymentUPI, PaymentWallet:
		return m, nil
	default:
		return "", apperr.Validation("unknown payment method %q", s)
	}
}

// ShippingAddress is copied into the order at checkout and never follows
// later edits of the user's stored addresses.
type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func (a ShippingAddress) normalized() (ShippingAddress, error) {
	out := ShippingAddress{
		FullName:   strings.TrimSpace(a.FullName),
		Phone:      strings.TrimSpace(a.Phone),
		Line1:      strings.TrimSpace(a.Line1),
		Line2:      strings.TrimSpace(a.Line2),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
	}
	required := []struct{ name, value string }{
		{"fullName", out.FullName},
		{"phone", out.Phone},
		{"line1", out.Line1},
		{"city", out.City},
		{"postalCode", out.PostalCode},
		{"country", out.Country},
	}
	for _, f := range required {
		if f.value == "" {
			return ShippingAddress{}, apperr.Validation("shipping address %s is required", f.name)
		}
	}
	return out, nil
}

// Item is a line snapshot: name and unit price as they were at checkout.
type Item struct {
	ProductID   string          `json:"productId,omitempty"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

type Order struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	IdempotencyKey string          `json:"-"`
	Items          []Item          `json:"items"`
	Shipping       ShippingAddress `json:"shipping"`
	DeliveryOption DeliveryOption  `json:"deliveryOption"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod"`
	Status         Status          `json:"status"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingFee    decimal.Decimal `json:"shippingFee"`
	Total          decimal.Decimal `json:"total"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`

	// PointsEarned is credited to the user in the checkout transaction.
	PointsEarned int `json:"-"`
}
