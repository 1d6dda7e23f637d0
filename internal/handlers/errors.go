package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"minishop_back_end/internal/shop"
)

// respondError traduit les erreurs sentinelles du domaine en réponses HTTP.
// Tout le reste est une 500 générique — le détail part dans les logs, pas
// chez le client.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, shop.ErrValidation),
		errors.Is(err, shop.ErrCartEmpty):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, shop.ErrProductNotFound),
		errors.Is(err, shop.ErrCategoryNotFound),
		errors.Is(err, shop.ErrItemNotFound),
		errors.Is(err, shop.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, shop.ErrInsufficientStock),
		errors.Is(err, shop.ErrAddressLocked),
		errors.Is(err, shop.ErrStatusLocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("❌ Erreur interne: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
	}
}
