package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// priceLimit is the first value that no longer fits a decimal(10,2) column.
var priceLimit = decimal.New(1, 8)

type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:100;not null" json:"name" validate:"max=100"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock       int             `gorm:"not null" json:"stock"`
	Category    string          `gorm:"size:50;index" json:"category" validate:"max=50"`
	Image       string          `gorm:"size:255" json:"image"` // path under productos/
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (p *Product) Validate() error {
	errs := ValidationErrors{}
	checkStruct(p, errs)

	minTrimmed(errs, "name", p.Name, 3)

	switch {
	case !p.Price.IsPositive():
		errs.Add("price", "must be greater than zero")
	case p.Price.GreaterThanOrEqual(priceLimit):
		errs.Add("price", "must have at most 8 integer digits")
	case !p.Price.Equal(p.Price.Round(2)):
		errs.Add("price", "must have at most 2 decimal places")
	}

	if p.Stock < 0 {
		errs.Add("stock", "cannot be negative")
	}

	return errs.OrNil()
}

func (p *Product) BeforeSave(tx *gorm.DB) error {
	return p.Validate()
}
