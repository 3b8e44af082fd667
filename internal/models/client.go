package models

import (
	"time"

	"gorm.io/gorm"
)

type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"uniqueIndex" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-" validate:"-"`
	Name      string    `gorm:"size:100;not null" json:"name" validate:"max=100"`
	Surname   string    `gorm:"size:100;not null" json:"surname" validate:"max=100"`
	Email     string    `gorm:"size:254;uniqueIndex;not null" json:"email" validate:"required,email,max=254"`
	Phone     string    `gorm:"size:15" json:"phone" validate:"omitempty,number,max=15"`
	Address   string    `gorm:"size:255" json:"address" validate:"max=255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Client) FullName() string {
	return c.Name + " " + c.Surname
}

// Validate checks the field rules and, when tx is not nil, that no other
// client already uses the same email.
func (c *Client) Validate(tx *gorm.DB) error {
	errs := ValidationErrors{}
	checkStruct(c, errs)

	minTrimmed(errs, "name", c.Name, 2)
	minTrimmed(errs, "surname", c.Surname, 2)

	if tx != nil && c.Email != "" {
		var count int64
		err := fresh(tx).Model(&Client{}).
			Where("email = ? AND id <> ?", c.Email, c.ID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			errs.Add("email", "is already registered")
		}
	}

	return errs.OrNil()
}

func (c *Client) BeforeSave(tx *gorm.DB) error {
	return c.Validate(tx)
}
