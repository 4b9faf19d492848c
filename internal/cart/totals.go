package cart

import (
	"github.com/shopspring/decimal"

	"storefront/internal/models"
)

func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// GrandTotal sums the line totals of lines as returned by List.
func GrandTotal(lines []models.CartLineView) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total)
	}
	return sum
}
