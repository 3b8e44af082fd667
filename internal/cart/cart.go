// Package cart prices a shopper's cart without persisting anything or
// touching stock.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/PixelPath7/vive-sano/internal/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrMalformedCart   = errors.New("malformed cart")
)

// MaxQuantity bounds a single entry so cart totals stay meaningful.
const MaxQuantity = 9999

// Entry is one element of the submitted cart, e.g. {"id": 1, "cantidad": 2}.
type Entry struct {
	ID       uint `json:"id"`
	Quantity int  `json:"cantidad"`
}

// Item is a copy of the product's fields with the requested quantity.
type Item struct {
	models.Product
	Quantity  int             `json:"cantidad"`
	LineTotal decimal.Decimal `json:"total_linea"`
}

type Cart struct {
	Items         []Item          `json:"carrito_items"`
	TotalProducts int             `json:"total_productos"`
	TotalPrice    decimal.Decimal `json:"total_precio"`
}

// ParseEntries decodes the JSON array posted in the cart form field.
func ParseEntries(raw string) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCart, err)
	}
	for i, e := range entries {
		if e.Quantity < 1 || e.Quantity > MaxQuantity {
			return nil, fmt.Errorf("%w: entry %d has quantity %d, want 1 to %d", ErrMalformedCart, i, e.Quantity, MaxQuantity)
		}
	}
	return entries, nil
}

// Aggregate resolves every entry to its product and totals the cart. A
// single unknown product id fails the whole cart.
func Aggregate(ctx context.Context, conn *gorm.DB, entries []Entry) (*Cart, error) {
	c := &Cart{
		Items:      make([]Item, 0, len(entries)),
		TotalPrice: decimal.Zero,
	}

	for _, entry := range entries {
		var product models.Product

		err := conn.WithContext(ctx).First(&product, entry.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, entry.ID)
		}
		if err != nil {
			return nil, fmt.Errorf("load product %d: %w", entry.ID, err)
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(entry.Quantity)))

		c.Items = append(c.Items, Item{Product: product, Quantity: entry.Quantity, LineTotal: lineTotal})
		c.TotalProducts += entry.Quantity
		c.TotalPrice = c.TotalPrice.Add(lineTotal)
	}

	return c, nil
}
