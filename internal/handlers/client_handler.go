package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PixelPath7/vive-sano/internal/db"
	"github.com/PixelPath7/vive-sano/internal/models"
)

type CreateClientRequest struct {
	UserID  *uint  `json:"user_id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func CreateClient(c *gin.Context) {
	var req CreateClientRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.UserID != nil {
		var user models.User
		if err := db.DB.First(&user, *req.UserID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user not found"})
			return
		}
	}

	client := models.Client{
		UserID:  req.UserID,
		Name:    req.Name,
		Surname: req.Surname,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}

	if err := db.DB.WithContext(c.Request.Context()).Create(&client).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, client)
}
