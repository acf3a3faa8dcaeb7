package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Category      string           `json:"category"`
	Subcategory   string           `json:"subcategory,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Weight        string           `json:"weight,omitempty"`
	StockQuantity int              `json:"stockQuantity"`
	ImageURL      string           `json:"imageUrl,omitempty"`
	Active        bool             `json:"isActive"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// ProductInput is the admin-editable part of a product.
type ProductInput struct {
	Name          string
	Description   string
	Category      string
	Subcategory   string
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	Weight        string
	StockQuantity int
	Active        bool
}

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
