package models

import "time"

// User is an authenticated account. Clients may link to one, and
// notifications are sent from and to users.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Subject   string    `gorm:"uniqueIndex;not null" json:"-"` // OpenID Connect identifier
	Username  string    `gorm:"size:150" json:"username"`
	Email     string    `gorm:"size:254" json:"email"`
	IsStaff   bool      `gorm:"not null" json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
}
