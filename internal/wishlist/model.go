package wishlist

import (
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Active      bool            `json:"active"`
	AddedAt     time.Time       `json:"addedAt"`
}
