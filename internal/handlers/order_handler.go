package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/PixelPath7/vive-sano/internal/auth"
	"github.com/PixelPath7/vive-sano/internal/db"
	"github.com/PixelPath7/vive-sano/internal/models"
	"github.com/PixelPath7/vive-sano/internal/notifier"
)

type OrderLineRequest struct {
	ProductID uint             `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type CreateOrderRequest struct {
	ClientID       uint               `json:"client_id" binding:"required"`
	DispatchAt     *time.Time         `json:"dispatch_at"`
	SpecialStorage bool               `json:"special_storage"`
	Notes          string             `json:"notes"`
	Lines          []OrderLineRequest `json:"lines"`
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// CreateOrder stores an order and its lines in one transaction, records an
// ORDER_CREATED notification and notifies the client.
func CreateOrder(c *gin.Context) {
	user := auth.CurrentUser(c)

	var req CreateOrderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if len(req.Lines) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lines required"})
		return
	}

	conn := db.DB.WithContext(c.Request.Context())

	var client models.Client
	if err := conn.First(&client, req.ClientID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "client not found"})
		return
	}

	order := models.Order{
		ClientID:       &client.ID,
		DispatchAt:     req.DispatchAt,
		SpecialStorage: req.SpecialStorage,
		Notes:          req.Notes,
	}
	for _, line := range req.Lines {
		orderLine := models.OrderLine{ProductID: line.ProductID, Quantity: line.Quantity}
		if line.UnitPrice != nil {
			orderLine.UnitPrice = *line.UnitPrice
		}
		order.Lines = append(order.Lines, orderLine)
	}

	var notification models.Notification

	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		notification = models.Notification{
			OrderID:     order.ID,
			SenderID:    &user.ID,
			RecipientID: client.UserID,
			Type:        models.NotificationOrderCreated,
			Message:     fmt.Sprintf("Recibimos tu pedido #%d por un total de $%s", order.ID, order.Total().StringFixed(2)),
		}
		return tx.Create(&notification).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if err := conn.Preload("Lines").First(&order, order.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve order with lines"})
		return
	}

	notifier.Notify(client, notification)

	c.JSON(http.StatusCreated, gin.H{"message": "order created successfully", "order": order, "total": order.Total()})
}

// GetOrder returns an order with its lines to staff or to the order's client.
func GetOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var order models.Order
	err := db.DB.WithContext(c.Request.Context()).
		Preload("Client").
		Preload("Lines.Product").
		First(&order, id).Error
	if err != nil {
		respondError(c, err)
		return
	}

	if !canSeeOrder(auth.CurrentUser(c), &order) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order, "total": order.Total()})
}

func canSeeOrder(user *models.User, order *models.Order) bool {
	if user.IsStaff {
		return true
	}
	return order.Client != nil && order.Client.UserID != nil && *order.Client.UserID == user.ID
}

// UpdateOrderStatus applies a staff status transition and tells the client.
func UpdateOrderStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status required"})
		return
	}

	conn := db.DB.WithContext(c.Request.Context())

	var order models.Order
	if err := conn.Preload("Client").First(&order, id).Error; err != nil {
		respondError(c, err)
		return
	}

	if err := order.TransitionTo(req.Status); err != nil {
		respondError(c, err)
		return
	}

	user := auth.CurrentUser(c)
	notification := models.Notification{
		OrderID:  order.ID,
		SenderID: &user.ID,
		Type:     models.NotificationStatusChanged,
		Message:  fmt.Sprintf("Tu pedido #%d ahora está %s", order.ID, order.Status),
	}
	if order.Client != nil {
		notification.RecipientID = order.Client.UserID
	}

	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Model(&order).Update("status", order.Status).Error; err != nil {
			return err
		}
		return tx.Create(&notification).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if order.Client != nil {
		notifier.Notify(*order.Client, notification)
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}
