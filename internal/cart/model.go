package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Line is a cart entry joined with live product data at read time.
type Line struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
	Active      bool            `json:"active"`
	AddedAt     time.Time       `json:"addedAt"`
}

type Cart struct {
	UserID   string          `json:"userId"`
	Items    []Line          `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// CheckoutLine is a cart line locked inside the checkout transaction together
// with the product state it resolves to at that instant.
type CheckoutLine struct {
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Active      bool
}
