package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/PixelPath7/vive-sano/internal/auth"
)

// RegisterRoutes mounts the storefront and the authenticated JSON API.
// Session and template setup is left to the caller.
func RegisterRoutes(r *gin.Engine) {

	// ── storefront ──
	r.GET("/", Storefront)
	r.POST("/", Storefront)

	// ── protected API ──
	api := r.Group("/api")
	api.Use(auth.RequireAuth())
	{
		api.GET("/products", ListProducts)
		api.GET("/products/average", GetAveragePrice)
		api.GET("/products/:id", GetProduct)

		api.GET("/orders/:id", GetOrder)

		api.GET("/notifications", ListNotifications)
		api.PATCH("/notifications/:id/read", MarkNotificationRead)
		api.POST("/notifications/:id/respond", RespondNotification)
	}

	staff := api.Group("")
	staff.Use(auth.RequireStaff())
	{
		staff.POST("/products", CreateProduct)
		staff.POST("/clients", CreateClient)
		staff.POST("/orders", CreateOrder)
		staff.PATCH("/orders/:id/status", UpdateOrderStatus)
		staff.POST("/notifications", CreateNotification)
	}
}
