package order

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
)

var pointsPerUnit = decimal.NewFromInt(10)

// Pricing is the shipping fee table.
type Pricing struct {
	Standard decimal.Decimal
	Express  decimal.Decimal
	// FreeStandardFrom waives the standard fee when the subtotal reaches it.
	FreeStandardFrom *decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		Standard: decimal.RequireFromString("2.00"),
		Express:  decimal.RequireFromString("5.00"),
	}
}

func ParseDeliveryOption(s string) (DeliveryOption, error) {
	switch d := DeliveryOption(strings.ToLower(strings.TrimSpace(s))); d {
	case DeliveryStandard, DeliveryExpress:
		return d, nil
	default:
		return "", apperr.Validation("unknown delivery option %q", s)
	}
}

func (p Pricing) ShippingFee(option DeliveryOption, subtotal decimal.Decimal) (decimal.Decimal, error) {
	switch option {
	case DeliveryStandard:
		if p.FreeStandardFrom != nil && subtotal.GreaterThanOrEqual(*p.FreeStandardFrom) {
			return decimal.Zero, nil
		}
		return p.Standard.Round(2), nil
	case DeliveryExpress:
		return p.Express.Round(2), nil
	default:
		return decimal.Zero, apperr.Validation("unknown delivery option %q", option)
	}
}

// loyaltyPoints is one point per full 10 units of the order total.
func loyaltyPoints(total decimal.Decimal) int {
	return int(total.Div(pointsPerUnit).Floor().IntPart())
}
