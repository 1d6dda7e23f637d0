package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"minishop_back_end/internal/middleware"
	"minishop_back_end/internal/shop"
)

type CartHandler struct {
	Carts *shop.CartService
}

// =============================================
// PANIER (utilisateur authentifié)
// =============================================

func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.Carts.GetOrCreate(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var input struct {
		ProductID string `json:"product_id" binding:"required"`
		VariantID string `json:"variant_id" binding:"required"`
		Quantity  int    `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id, variant_id et quantity sont requis"})
		return
	}

	cart, err := h.Carts.AddItem(c.Request.Context(), middleware.UserID(c), input.ProductID, input.VariantID, input.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	var input struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity est requis"})
		return
	}

	cart, err := h.Carts.UpdateItemQuantity(c.Request.Context(), middleware.UserID(c), c.Param("item_id"), *input.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	cart, err := h.Carts.RemoveItem(c.Request.Context(), middleware.UserID(c), c.Param("item_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}
