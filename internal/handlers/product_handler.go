package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/PixelPath7/vive-sano/internal/db"
	"github.com/PixelPath7/vive-sano/internal/models"
)

type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
}

func CreateProduct(c *gin.Context) {
	var req CreateProductRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		Image:       req.Image,
	}

	if err := db.DB.WithContext(c.Request.Context()).Create(&product).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

func ListProducts(c *gin.Context) {
	query := db.DB.WithContext(c.Request.Context()).Order("id")
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

func GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var product models.Product
	if err := db.DB.WithContext(c.Request.Context()).First(&product, id).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func GetAveragePrice(c *gin.Context) {
	category := c.Query("category")
	if category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category is required"})
		return
	}

	var avg float64
	err := db.DB.WithContext(c.Request.Context()).
		Model(&models.Product{}).
		Where("category = ?", category).
		Select("COALESCE(AVG(price), 0)").
		Scan(&avg).Error
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category":      category,
		"average_price": decimal.NewFromFloat(avg).Round(2),
	})
}
