package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/PixelPath7/vive-sano/internal/cart"
	"github.com/PixelPath7/vive-sano/internal/db"
	"github.com/PixelPath7/vive-sano/internal/models"
)

// Form values of the storefront's "accion" field.
const (
	ActionViewCart    = "ver_carrito"
	ActionSubmitOrder = "enviar_pedido"
)

type storefrontAction int

const (
	actionInvalid storefrontAction = iota
	actionCatalog
	actionViewCart
	actionSubmitOrder
)

// resolveAction decides what a storefront request asks for. For
// actionInvalid the returned string is the plain-text reason.
func resolveAction(c *gin.Context) (storefrontAction, string) {
	switch c.Request.Method {
	case http.MethodGet:
		return actionCatalog, ""
	case http.MethodPost:
	default:
		return actionInvalid, "error: method not allowed"
	}

	accion, ok := c.GetPostForm("accion")
	if !ok {
		return actionInvalid, "error: the form has no accion"
	}

	switch accion {
	case ActionViewCart:
		return actionViewCart, ""
	case ActionSubmitOrder:
		return actionSubmitOrder, ""
	}
	return actionInvalid, "error: unknown accion " + accion
}

// Storefront serves GET and POST on "/".
func Storefront(c *gin.Context) {
	action, reason := resolveAction(c)

	switch action {
	case actionCatalog:
		renderCatalog(c)
	case actionViewCart:
		renderCart(c)
	case actionSubmitOrder:
		// TODO: persist the cart as an order once stock reservation rules are agreed on.
		renderCatalog(c)
	default:
		c.String(http.StatusBadRequest, reason)
	}
}

func renderCatalog(c *gin.Context) {
	var products []models.Product

	if err := db.DB.WithContext(c.Request.Context()).Order("id").Find(&products).Error; err != nil {
		log.Error().Err(err).Msg("failed to load catalog")
		c.HTML(http.StatusInternalServerError, "error.html", nil)
		return
	}

	c.HTML(http.StatusOK, "inicio.html", gin.H{"productos": products})
}

func renderCart(c *gin.Context) {
	raw, ok := c.GetPostForm("carrito")
	if !ok {
		c.String(http.StatusBadRequest, "error: the form has no carrito")
		return
	}

	entries, err := cart.ParseEntries(raw)
	if err != nil {
		c.String(http.StatusBadRequest, "error: "+err.Error())
		return
	}

	result, err := cart.Aggregate(c.Request.Context(), db.DB, entries)
	if errors.Is(err, cart.ErrProductNotFound) {
		log.Info().Err(err).Msg("cart references a missing product")
		c.String(http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to price cart")
		c.HTML(http.StatusInternalServerError, "error.html", nil)
		return
	}

	c.HTML(http.StatusOK, "carrito.html", gin.H{
		"carrito_items":   result.Items,
		"total_productos": result.TotalProducts,
		"total_precio":    result.TotalPrice,
		"carrito":         raw,
	})
}
