package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"minishop_back_end/internal/middleware"
	"minishop_back_end/internal/shop"
)

// Taille maximale d'un justificatif de paiement.
const maxReceiptSize = 10 << 20

type OrderHandler struct {
	Orders *shop.OrderService
}

// Create : checkout multipart — coordonnées + justificatif obligatoire.
func (h *OrderHandler) Create(c *gin.Context) {
	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Justificatif de paiement requis"})
		return
	}
	if fileHeader.Size > maxReceiptSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Justificatif trop volumineux (10 Mo max)"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Justificatif illisible"})
		return
	}
	defer file.Close()
	receipt, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Justificatif illisible"})
		return
	}

	order, err := h.Orders.CreateOrder(c.Request.Context(), shop.CreateOrderInput{
		UserID:             middleware.UserID(c),
		Name:               c.PostForm("name"),
		Phone:              c.PostForm("phone"),
		Address:            c.PostForm("address"),
		Comment:            c.PostForm("comment"),
		Receipt:            receipt,
		ReceiptFilename:    fileHeader.Filename,
		ReceiptContentType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// LastOrder : dernière commande de l'utilisateur (suivi côté mini-app).
func (h *OrderHandler) LastOrder(c *gin.Context) {
	order, err := h.Orders.LastOrder(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Aucune commande"})
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateAddress : modification de l'adresse tant que la commande n'est pas
// partie en préparation.
func (h *OrderHandler) UpdateAddress(c *gin.Context) {
	var input struct {
		Address string `json:"address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address est requis"})
		return
	}

	order, err := h.Orders.UpdateAddress(c.Request.Context(), c.Param("id"), middleware.UserID(c), input.Address)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
