package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var ErrInvalidTransition = errors.New("invalid status transition")

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady, OrderStatusShipped, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusShipped || s == OrderStatusCancelled
}

type Order struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	ClientID       *uint       `gorm:"index" json:"client_id"`
	Client         *Client     `gorm:"constraint:OnDelete:SET NULL" json:"client,omitempty" validate:"-"`
	Status         OrderStatus `gorm:"size:20;not null" json:"status" validate:"omitempty,oneof=PENDING PREPARING READY SHIPPED CANCELLED"`
	DispatchAt     *time.Time  `json:"dispatch_at"`
	SpecialStorage bool        `gorm:"not null" json:"special_storage"`
	Notes          string      `gorm:"type:text" json:"notes"`
	Lines          []OrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"lines,omitempty" validate:"-"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Validate checks the order's own fields. Deleting a client still keeps
// its orders with a null client, but such orders fail validation on the
// next save.
func (o *Order) Validate() error {
	errs := ValidationErrors{}
	checkStruct(o, errs)

	if o.ClientID == nil {
		errs.Add("client_id", "an order must belong to a client")
	}

	if o.DispatchAt != nil {
		created := o.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		if o.DispatchAt.Before(created) {
			errs.Add("dispatch_at", "cannot be earlier than the order creation time")
		}
	}

	seen := make(map[uint]bool, len(o.Lines))
	for _, line := range o.Lines {
		if seen[line.ProductID] {
			errs.Add("lines", fmt.Sprintf("product %d appears more than once", line.ProductID))
		}
		seen[line.ProductID] = true
	}

	return errs.OrNil()
}

func (o *Order) BeforeSave(tx *gorm.DB) error {
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	return o.Validate()
}

// TransitionTo moves the order to next. Shipped and cancelled orders are
// final, and moving to the current status is rejected.
func (o *Order) TransitionTo(next OrderStatus) error {
	if !next.Valid() {
		return ValidationErrors{"status": "must be one of: PENDING PREPARING READY SHIPPED CANCELLED"}
	}
	if o.Status.Terminal() {
		return fmt.Errorf("%w: order %d is already %s", ErrInvalidTransition, o.ID, o.Status)
	}
	if o.Status == next {
		return fmt.Errorf("%w: order %d is already %s", ErrInvalidTransition, o.ID, next)
	}
	o.Status = next
	return nil
}

// Total sums the stored subtotals of the loaded lines.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Subtotal)
	}
	return total
}

type OrderLine struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;uniqueIndex:idx_order_line_product" json:"order_id"`
	ProductID uint            `gorm:"not null;uniqueIndex:idx_order_line_product" json:"product_id"`
	Product   *Product        `gorm:"constraint:OnDelete:RESTRICT" json:"product,omitempty" validate:"-"`
	Quantity  int             `gorm:"not null" json:"quantity" validate:"min=1"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ComputeSubtotal is unit price times quantity rounded half away from zero
// to cents.
func (l *OrderLine) ComputeSubtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
}

func (l *OrderLine) loadProduct(tx *gorm.DB) (*Product, error) {
	var product Product
	err := fresh(tx).First(&product, l.ProductID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Validate checks the line against its product's current stock and the
// lines already stored for the same order. Database checks are skipped
// when tx is nil.
func (l *OrderLine) Validate(tx *gorm.DB) error {
	errs := ValidationErrors{}
	checkStruct(l, errs)

	if !l.UnitPrice.IsPositive() {
		errs.Add("unit_price", "must be greater than zero")
	}

	if tx == nil {
		return errs.OrNil()
	}

	product, err := l.loadProduct(tx)
	if err != nil {
		return err
	}
	if product == nil {
		errs.Add("product_id", fmt.Sprintf("product %d does not exist", l.ProductID))
	} else if l.Quantity > product.Stock {
		errs.Add("quantity", fmt.Sprintf("only %d units of %s in stock", product.Stock, product.Name))
	}

	if l.OrderID != 0 && l.ProductID != 0 {
		var count int64
		err := fresh(tx).Model(&OrderLine{}).
			Where("order_id = ? AND product_id = ? AND id <> ?", l.OrderID, l.ProductID, l.ID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			errs.Add("product_id", "is already part of this order")
		}
	}

	return errs.OrNil()
}

// BeforeSave snapshots the product price when none was given, validates
// and recomputes the subtotal. It runs on every create and update.
func (l *OrderLine) BeforeSave(tx *gorm.DB) error {
	if l.UnitPrice.IsZero() {
		product, err := l.loadProduct(tx)
		if err != nil {
			return err
		}
		if product != nil {
			l.UnitPrice = product.Price
		}
	}

	if err := l.Validate(tx); err != nil {
		return err
	}

	l.Subtotal = l.ComputeSubtotal()
	return nil
}
