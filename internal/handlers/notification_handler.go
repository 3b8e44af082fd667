package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/clause"

	"github.com/PixelPath7/vive-sano/internal/auth"
	"github.com/PixelPath7/vive-sano/internal/db"
	"github.com/PixelPath7/vive-sano/internal/models"
	"github.com/PixelPath7/vive-sano/internal/notifier"
)

type CreateNotificationRequest struct {
	OrderID     uint                    `json:"order_id" binding:"required"`
	RecipientID *uint                   `json:"recipient_id"`
	Type        models.NotificationType `json:"type"`
	Message     string                  `json:"message"`
}

type RespondNotificationRequest struct {
	ResponseStatus models.ResponseStatus `json:"response_status" binding:"required"`
	ResponseText   string                `json:"response_text"`
}

// ListNotifications returns the current user's notifications, newest first.
func ListNotifications(c *gin.Context) {
	user := auth.CurrentUser(c)

	query := db.DB.WithContext(c.Request.Context()).
		Where("recipient_id = ?", user.ID).
		Order("created_at DESC")
	if c.Query("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// CreateNotification lets staff message the client of an order. Without an
// explicit recipient it goes to the user linked to the order's client.
func CreateNotification(c *gin.Context) {
	var req CreateNotificationRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn := db.DB.WithContext(c.Request.Context())

	var order models.Order
	if err := conn.Preload("Client").First(&order, req.OrderID).Error; err != nil {
		respondError(c, err)
		return
	}

	notificationType := req.Type
	if notificationType == "" {
		notificationType = models.NotificationGeneral
	}

	user := auth.CurrentUser(c)
	notification := models.Notification{
		OrderID:     order.ID,
		SenderID:    &user.ID,
		RecipientID: req.RecipientID,
		Type:        notificationType,
		Message:     req.Message,
	}
	if notification.RecipientID == nil && order.Client != nil {
		notification.RecipientID = order.Client.UserID
	}

	if err := conn.Create(&notification).Error; err != nil {
		respondError(c, err)
		return
	}

	if order.Client != nil {
		notifier.Notify(*order.Client, notification)
	}

	c.JSON(http.StatusCreated, notification)
}

// loadOwnNotification fetches a notification the current user may act on:
// its recipient or any staff member.
func loadOwnNotification(c *gin.Context) (*models.Notification, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}

	var notification models.Notification
	if err := db.DB.WithContext(c.Request.Context()).First(&notification, id).Error; err != nil {
		respondError(c, err)
		return nil, false
	}

	user := auth.CurrentUser(c)
	isRecipient := notification.RecipientID != nil && *notification.RecipientID == user.ID
	if !isRecipient && !user.IsStaff {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return nil, false
	}

	return &notification, true
}

func MarkNotificationRead(c *gin.Context) {
	notification, ok := loadOwnNotification(c)
	if !ok {
		return
	}

	notification.IsRead = true
	err := db.DB.WithContext(c.Request.Context()).
		Omit(clause.Associations).
		Model(notification).
		Update("is_read", true).Error
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, notification)
}

func RespondNotification(c *gin.Context) {
	var req RespondNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "response_status required"})
		return
	}

	if req.ResponseStatus == models.ResponsePending {
		respondError(c, models.ValidationErrors{"response_status": "must be one of: ACCEPTED REJECTED"})
		return
	}

	notification, ok := loadOwnNotification(c)
	if !ok {
		return
	}

	if notification.ResponseStatus != models.ResponsePending {
		c.JSON(http.StatusConflict, gin.H{"error": "notification already answered"})
		return
	}

	notification.Respond(req.ResponseStatus, req.ResponseText, time.Now())

	if err := db.DB.WithContext(c.Request.Context()).Save(notification).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, notification)
}
