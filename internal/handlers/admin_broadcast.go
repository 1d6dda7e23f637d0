package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"minishop_back_end/internal/models"
	"minishop_back_end/internal/notifications"
	"minishop_back_end/internal/store"
)

// BroadcastHandler : diffusion d'un message à tous les clients connus du bot.
type BroadcastHandler struct {
	Customers *store.CustomerStore
	Notifier  *notifications.TelegramNotifier
}

func (h *BroadcastHandler) Send(c *gin.Context) {
	var input struct {
		Title   string `json:"title" binding:"required"`
		Message string `json:"message" binding:"required"`
		Link    string `json:"link"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title et message sont requis"})
		return
	}

	ids, err := h.Customers.ListUserIDs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	text := "📣 *" + input.Title + "*\n\n" + input.Message
	if input.Link != "" {
		text += "\n\n" + input.Link
	}

	sent := 0
	for _, id := range ids {
		if h.Notifier.SendMessage(id, text) {
			sent++
		}
	}

	record := models.Broadcast{
		Title:     input.Title,
		Message:   input.Message,
		Segment:   "all",
		Link:      input.Link,
		SentCount: sent,
	}
	if err := h.Customers.RecordBroadcast(c.Request.Context(), record); err != nil {
		log.Printf("⚠️ Diffusion non historisée: %v", err)
	}

	log.Printf("📣 Diffusion « %s » envoyée à %d/%d clients", input.Title, sent, len(ids))
	c.JSON(http.StatusOK, gin.H{"sent": sent, "total": len(ids)})
}
