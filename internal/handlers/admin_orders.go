package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"minishop_back_end/internal/models"
	"minishop_back_end/internal/shop"
)

// =============================================
// COMMANDES (administration)
// =============================================

type AdminOrderHandler struct {
	Orders *shop.OrderService
}

func (h *AdminOrderHandler) List(c *gin.Context) {
	var statusFilter *models.OrderStatus
	if raw := c.Query("status"); raw != "" {
		status := models.OrderStatus(raw)
		if !status.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Statut inconnu: " + raw})
			return
		}
		statusFilter = &status
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	orders, err := h.Orders.ListOrders(c.Request.Context(), statusFilter, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

func (h *AdminOrderHandler) Get(c *gin.Context) {
	order, err := h.Orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *AdminOrderHandler) SetStatus(c *gin.Context) {
	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status est requis"})
		return
	}

	order, err := h.Orders.UpdateStatus(c.Request.Context(), c.Param("id"), models.OrderStatus(input.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Delete pose le marqueur de suppression ; la purge différée fait le reste.
func (h *AdminOrderHandler) Delete(c *gin.Context) {
	if err := h.Orders.SoftDelete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Receipt : téléchargement du justificatif de paiement d'une commande.
func (h *AdminOrderHandler) Receipt(c *gin.Context) {
	order, err := h.Orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if order.PaymentReceipt == nil || order.PaymentReceipt.FileID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Aucun justificatif pour cette commande"})
		return
	}

	data, contentType, err := h.Orders.Receipts.Fetch(c.Request.Context(), order.PaymentReceipt.FileID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", order.PaymentReceipt.Filename))
	c.Data(http.StatusOK, contentType, data)
}
