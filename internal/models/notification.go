package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationOrderCreated    NotificationType = "ORDER_CREATED"
	NotificationStatusChanged   NotificationType = "STATUS_CHANGED"
	NotificationDispatchRequest NotificationType = "DISPATCH_REQUEST"
	NotificationGeneral         NotificationType = "GENERAL"
)

type ResponseStatus string

const (
	ResponsePending  ResponseStatus = "PENDING"
	ResponseAccepted ResponseStatus = "ACCEPTED"
	ResponseRejected ResponseStatus = "REJECTED"
)

type Notification struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	OrderID        uint             `gorm:"not null;index" json:"order_id" validate:"required"`
	Order          *Order           `gorm:"constraint:OnDelete:CASCADE" json:"-" validate:"-"`
	SenderID       *uint            `gorm:"index" json:"sender_id"`
	Sender         *User            `gorm:"foreignKey:SenderID;constraint:OnDelete:SET NULL" json:"-" validate:"-"`
	RecipientID    *uint            `gorm:"index" json:"recipient_id"`
	Recipient      *User            `gorm:"foreignKey:RecipientID;constraint:OnDelete:SET NULL" json:"-" validate:"-"`
	Type           NotificationType `gorm:"size:20;not null" json:"type" validate:"oneof=ORDER_CREATED STATUS_CHANGED DISPATCH_REQUEST GENERAL"`
	Message        string           `gorm:"type:text;not null" json:"message"`
	IsRead         bool             `gorm:"not null" json:"read"`
	ResponseStatus ResponseStatus   `gorm:"size:10;not null" json:"response_status" validate:"omitempty,oneof=PENDING ACCEPTED REJECTED"`
	ResponseText   string           `gorm:"type:text" json:"response_text"`
	RespondedAt    *time.Time       `json:"responded_at"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (n *Notification) Validate() error {
	errs := ValidationErrors{}
	checkStruct(n, errs)

	minTrimmed(errs, "message", n.Message, 5)

	answered := n.ResponseStatus != "" && n.ResponseStatus != ResponsePending
	if answered && strings.TrimSpace(n.ResponseText) == "" {
		errs.Add("response_text", "is required once the notification has been answered")
	}

	return errs.OrNil()
}

func (n *Notification) BeforeSave(tx *gorm.DB) error {
	if n.ResponseStatus == "" {
		n.ResponseStatus = ResponsePending
	}
	return n.Validate()
}

// Respond records the recipient's answer. Validation happens on save.
func (n *Notification) Respond(status ResponseStatus, text string, at time.Time) {
	n.ResponseStatus = status
	n.ResponseText = strings.TrimSpace(text)
	n.RespondedAt = &at
	n.IsRead = true
}
