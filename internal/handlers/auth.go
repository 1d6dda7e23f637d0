package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"minishop_back_end/internal/auth"
	"minishop_back_end/internal/config"
	"minishop_back_end/internal/models"
	"minishop_back_end/internal/store"
	"minishop_back_end/internal/utils"
)

type AuthHandler struct {
	Customers *store.CustomerStore
}

// Authenticate valide le initData de la mini-app et émet un JWT de session.
func (h *AuthHandler) Authenticate(c *gin.Context) {
	var input struct {
		InitData string `json:"init_data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "init_data requis"})
		return
	}

	user, err := auth.ValidateInitData(input.InitData, config.BotToken())
	if err != nil {
		if errors.Is(err, auth.ErrExpiredInitData) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session Telegram expirée, rouvrez la mini-app"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentification Telegram invalide"})
		return
	}

	// Registre des clients pour les diffusions admin ; best-effort.
	if h.Customers != nil {
		customer := models.Customer{
			UserID:    user.ID,
			Username:  user.Username,
			FirstName: user.FirstName,
		}
		if err := h.Customers.Upsert(c.Request.Context(), customer); err != nil {
			log.Printf("⚠️ Registre client non mis à jour pour %d: %v", user.ID, err)
		}
	}

	isAdmin := config.IsAdmin(user.ID)
	token, err := utils.GenerateJWT(user.ID, isAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"is_admin": isAdmin,
		"user": gin.H{
			"id":         user.ID,
			"first_name": user.FirstName,
			"username":   user.Username,
		},
	})
}
