package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/PixelPath7/vive-sano/internal/handlers"
	"github.com/PixelPath7/vive-sano/internal/models"
	"github.com/PixelPath7/vive-sano/internal/notifier"
)

type recordingChannel struct {
	mu        sync.Mutex
	delivered []models.Notification
}

func (r *recordingChannel) Name() string { return "recording" }

func (r *recordingChannel) Deliver(ctx context.Context, to models.Client, n models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered = append(r.delivered, n)
	return nil
}

func seedOrder(t *testing.T, testDB *gorm.DB, client models.Client, product models.Product, quantity int) models.Order {
	t.Helper()
	order := models.Order{
		ClientID: &client.ID,
		Lines:    []models.OrderLine{{ProductID: product.ID, Quantity: quantity}},
	}
	require.NoError(t, testDB.Create(&order).Error)
	return order
}

func countOrders(t *testing.T, testDB *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, testDB.Model(&models.Order{}).Count(&count).Error)
	return count
}

// TestCreateOrder
func TestCreateOrder(t *testing.T) {
	router, testDB := setupTestRouter(t)

	recorder := &recordingChannel{}
	notifier.SetChannels(recorder)

	staff := seedUser(t, testDB, "staff", true)
	customer := seedUser(t, testDB, "customer", false)
	client := seedClient(t, testDB, &customer.ID, "ana@example.com")
	apple := seedProduct(t, testDB, "Manzana", 10, 5, "frutas")
	lentils := seedProduct(t, testDB, "Lentejas", 5, 2, "legumbres")

	t.Run("Successfully creates order", func(t *testing.T) {
		reqBody := handlers.CreateOrderRequest{
			ClientID: client.ID,
			Notes:    "dejar en conserjería",
			Lines: []handlers.OrderLineRequest{
				{ProductID: apple.ID, Quantity: 2},
				{ProductID: lentils.ID, Quantity: 1},
			},
		}
		w := performAuthenticatedRequest(router, http.MethodPost, "/api/orders", reqBody, &staff.ID)
		notifier.Wait()

		assert.Equal(t, http.StatusCreated, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "order created successfully", body["message"])
		assert.Equal(t, "25", body["total"])

		order := body["order"].(map[string]interface{})
		assert.Equal(t, "PENDING", order["status"])
		lines := order["lines"].([]interface{})
		require.Len(t, lines, 2)
		assert.Equal(t, "20", lines[0].(map[string]interface{})["subtotal"])
		assert.Equal(t, "10", lines[0].(map[string]interface{})["unit_price"])

		var notification models.Notification
		require.NoError(t, testDB.Where("type = ?", models.NotificationOrderCreated).First(&notification).Error)
		assert.Equal(t, customer.ID, *notification.RecipientID)
		assert.Equal(t, staff.ID, *notification.SenderID)
		assert.Contains(t, notification.Message, "$25.00")

		recorder.mu.Lock()
		defer recorder.mu.Unlock()
		require.Len(t, recorder.delivered, 1)
		assert.Equal(t, notification.ID, recorder.delivered[0].ID)
	})

	t.Run("Returns 401 if user not authenticated", func(t *testing.T) {
		w := performAuthenticatedRequest(router, http.MethodPost, "/api/orders", handlers.CreateOrderRequest{ClientID: client.ID}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Returns 400 for invalid request", func(t *testing.T) {
		w := performAuthenticatedRequest(router, http.MethodPost, "/api/orders", map[string]interface{}{"notes": "sin cliente"}, &staff.ID)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid request", decodeBody(t, w)["error"])
	})

	t.Run("Returns 400 without lines", func(t *testing.T) {
		w := performAuthenticatedRequest(router, http.MethodPost, "/api/orders", handlers.CreateOrderRequest{ClientID: client.ID}, &staff.ID)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "lines required", decodeBody(t, w)["error"])
	})

	t.Run("Returns 400 for unknown client", func(t *testing.T) {
		reqBody := handlers.CreateOrderRequest{
			ClientID: 9999,
			Lines:    []handlers.OrderLineRequest{{ProductID: apple.ID, Quantity: 1}},
		}
		w := performAuthenticatedRequest(router, http.MethodPost, "/api/orders", reqBody, &staff.ID)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "client not found", decodeBody(t, w)["error"])
	})

	t.Run("Rolls back when a line exceeds stock", func(t *testing.T) {
		before := countOrders(t, testDB)

		reqBody := handlers.CreateOrderRequest{
			ClientID: client.ID,
			Lines: []handlers.OrderLineRequest{
				{ProductID: apple.ID, Quantity: 1},
				{ProductID: lentils.ID, Quantity: 3},
			},
		}
		w := performAuthenticatedRequest(router, http.MethodPost, "/api/orders", reqBody, &staff.ID)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		fields := decodeBody(t, w)["fields"].(map[string]interface{})
		assert.Equal(t, "only 2 units of Lentejas in stock", fields["quantity"])
		assert.Equal(t, before, countOrders(t, testDB))
	})

	t.Run("Rejects unknown products", func(t *testing.T) {
		before := countOrders(t, testDB)

		reqBody := handlers.CreateOrderRequest{
			ClientID: client.ID,
			Lines:    []handlers.OrderLineRequest{{ProductID: 9999, Quantity: 1}},
		}
		w := performAuthenticatedRequest(router, http.MethodPost, "/api/orders", reqBody, &staff.ID)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		fields := decodeBody(t, w)["fields"].(map[string]interface{})
		assert.Equal(t, "product 9999 does not exist", fields["product_id"])
		assert.Equal(t, before, countOrders(t, testDB))
	})

	t.Run("Rejects a dispatch date in the past", func(t *testing.T) {
		yesterday := time.Now().Add(-24 * time.Hour)
		reqBody := handlers.CreateOrderRequest{
			ClientID:   client.ID,
			DispatchAt: &yesterday,
			Lines:      []handlers.OrderLineRequest{{ProductID: apple.ID, Quantity: 1}},
		}
		w := performAuthenticatedRequest(router, http.MethodPost, "/api/orders", reqBody, &staff.ID)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		fields := decodeBody(t, w)["fields"].(map[string]interface{})
		assert.Equal(t, "cannot be earlier than the order creation time", fields["dispatch_at"])
	})
}

func TestGetOrder(t *testing.T) {
	router, testDB := setupTestRouter(t)

	owner := seedUser(t, testDB, "owner", false)
	stranger := seedUser(t, testDB, "stranger", false)
	staff := seedUser(t, testDB, "staff", true)
	client := seedClient(t, testDB, &owner.ID, "owner@example.com")
	apple := seedProduct(t, testDB, "Manzana", 10, 5, "frutas")
	order := seedOrder(t, testDB, client, apple, 3)

	path := fmt.Sprintf("/api/orders/%d", order.ID)

	t.Run("owner sees the order", func(t *testing.T) {
		w := performAuthenticatedRequest(router, http.MethodGet, path, nil, &owner.ID)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "30", body["total"])
		lines := body["order"].(map[string]interface{})["lines"].([]interface{})
		product := lines[0].(map[string]interface{})["product"].(map[string]interface{})
		assert.Equal(t, "Manzana", product["name"])
	})

	t.Run("staff sees the order", func(t *testing.T) {
		w := performAuthenticatedRequest(router, http.MethodGet, path, nil, &staff.ID)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("other users are forbidden", func(t *testing.T) {
		w := performAuthenticatedRequest(router, http.MethodGet, path, nil, &stranger.ID)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing order", func(t *testing.T) {
		w := performAuthenticatedRequest(router, http.MethodGet, "/api/orders/9999", nil, &staff.ID)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUpdateOrderStatus(t *testing.T) {
	router, testDB := setupTestRouter(t)

	recorder := &recordingChannel{}
	notifier.SetChannels(recorder)

	staff := seedUser(t, testDB, "staff", true)
	customer := seedUser(t, testDB, "customer", false)
	client := seedClient(t, testDB, &customer.ID, "ana@example.com")
	apple := seedProduct(t, testDB, "Manzana", 10, 5, "frutas")
	order := seedOrder(t, testDB, client, apple, 1)

	path := fmt.Sprintf("/api/orders/%d/status", order.ID)

	t.Run("moves the order forward", func(t *testing.T) {
		w := performAuthenticatedRequest(router, http.MethodPatch, path, handlers.UpdateOrderStatusRequest{Status: models.OrderStatusPreparing}, &staff.ID)
		notifier.Wait()

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "PREPARING", decodeBody(t, w)["order"].(map[string]interface{})["status"])

		var stored models.Order
		require.NoError(t, testDB.First(&stored, order.ID).Error)
		assert.Equal(t, models.OrderStatusPreparing, stored.Status)

		var notification models.Notification
		require.NoError(t, testDB.Where("type = ?", models.NotificationStatusChanged).First(&notification).Error)
		assert.Equal(t, customer.ID, *notification.RecipientID)
		assert.Contains(t, notification.Message, "PREPARING")

		recorder.mu.Lock()
		defer recorder.mu.Unlock()
		assert.Len(t, recorder.delivered, 1)
	})

	t.Run("rejects the current status", func(t *testing.T) {
		w := performAuthenticatedRequest(router, http.MethodPatch, path, handlers.UpdateOrderStatusRequest{Status: models.OrderStatusPreparing}, &staff.ID)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("rejects unknown statuses", func(t *testing.T) {
		w := performAuthenticatedRequest(router, http.MethodPatch, path, map[string]string{"status": "LOST"}, &staff.ID)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeBody(t, w)["fields"], "status")
	})

	t.Run("shipped orders are final", func(t *testing.T) {
		w := performAuthenticatedRequest(router, http.MethodPatch, path, handlers.UpdateOrderStatusRequest{Status: models.OrderStatusShipped}, &staff.ID)
		require.Equal(t, http.StatusOK, w.Code)

		w = performAuthenticatedRequest(router, http.MethodPatch, path, handlers.UpdateOrderStatusRequest{Status: models.OrderStatusCancelled}, &staff.ID)
		assert.Equal(t, http.StatusConflict, w.Code)
		notifier.Wait()
	})

	t.Run("missing order", func(t *testing.T) {
		w := performAuthenticatedRequest(router, http.MethodPatch, "/api/orders/9999/status", handlers.UpdateOrderStatusRequest{Status: models.OrderStatusReady}, &staff.ID)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("customers cannot change status", func(t *testing.T) {
		w := performAuthenticatedRequest(router, http.MethodPatch, path, handlers.UpdateOrderStatusRequest{Status: models.OrderStatusReady}, &customer.ID)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestUpdateOrderStatusWithoutClient(t *testing.T) {
	router, testDB := setupTestRouter(t)

	staff := seedUser(t, testDB, "staff", true)
	client := seedClient(t, testDB, nil, "gone@example.com")
	order := seedOrder(t, testDB, client, seedProduct(t, testDB, "Manzana", 10, 5, "frutas"), 1)

	require.NoError(t, testDB.Delete(&models.Client{}, client.ID).Error)

	path := fmt.Sprintf("/api/orders/%d/status", order.ID)
	w := performAuthenticatedRequest(router, http.MethodPatch, path, handlers.UpdateOrderStatusRequest{Status: models.OrderStatusPreparing}, &staff.ID)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	fields := decodeBody(t, w)["fields"].(map[string]interface{})
	assert.Equal(t, "an order must belong to a client", fields["client_id"])

	var stored models.Order
	require.NoError(t, testDB.First(&stored, order.ID).Error)
	assert.Equal(t, models.OrderStatusPending, stored.Status)

	var count int64
	testDB.Model(&models.Notification{}).Where("order_id = ?", order.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}
