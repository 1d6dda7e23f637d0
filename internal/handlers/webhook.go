package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"minishop_back_end/internal/config"
	"minishop_back_end/internal/models"
	"minishop_back_end/internal/notifications"
	"minishop_back_end/internal/shop"
)

// WebhookHandler traite les updates du Bot API, en particulier les clics sur
// le clavier inline des notifications de commande.
type WebhookHandler struct {
	Orders   *shop.OrderService
	Notifier *notifications.TelegramNotifier
}

type telegramUpdate struct {
	CallbackQuery *struct {
		ID   string `json:"id"`
		Data string `json:"data"`
		From struct {
			ID int64 `json:"id"`
		} `json:"from"`
		Message *struct {
			MessageID int64 `json:"message_id"`
			Chat      struct {
				ID int64 `json:"id"`
			} `json:"chat"`
		} `json:"message"`
	} `json:"callback_query"`
}

// HandleUpdate répond toujours 200 : Telegram réessaie sinon en boucle.
func (h *WebhookHandler) HandleUpdate(c *gin.Context) {
	var update telegramUpdate
	if err := c.ShouldBindJSON(&update); err != nil || update.CallbackQuery == nil {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	cb := update.CallbackQuery
	if !config.IsAdmin(cb.From.ID) {
		log.Printf("⚠️ Callback refusé pour l'utilisateur %d (non admin)", cb.From.ID)
		h.Notifier.AnswerCallback(cb.ID, "⛔ Action réservée aux administrateurs", true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	orderID, status, ok := parseCallback(cb.Data)
	if !ok {
		h.Notifier.AnswerCallback(cb.ID, "⚠️ Action inconnue", false)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	order, err := h.Orders.UpdateStatus(c.Request.Context(), orderID, status)
	switch {
	case err == nil:
		h.Notifier.AnswerCallback(cb.ID, fmt.Sprintf("✅ Commande passée en « %s »", status), false)
		if order.Status.IsTerminal() && cb.Message != nil {
			h.Notifier.ClearReplyMarkup(cb.Message.Chat.ID, cb.Message.MessageID)
		}
	case errors.Is(err, shop.ErrStatusLocked):
		h.Notifier.AnswerCallback(cb.ID, "⚠️ Commande déjà clôturée", true)
	case errors.Is(err, shop.ErrOrderNotFound):
		h.Notifier.AnswerCallback(cb.ID, "⚠️ Commande introuvable", true)
	default:
		log.Printf("❌ Callback statut %s: %v", cb.Data, err)
		h.Notifier.AnswerCallback(cb.ID, "❌ Erreur, réessayez", true)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// parseCallback comprend le format courant "status|{order_id}|{status}" et
// les formats hérités "accept_order_{id}" / "cancel_order_{id}" des anciens
// claviers encore affichés chez les admins.
func parseCallback(data string) (orderID string, status models.OrderStatus, ok bool) {
	if parts := strings.Split(data, "|"); len(parts) == 3 && parts[0] == "status" {
		status = models.OrderStatus(parts[2])
		if !status.IsValid() {
			return "", "", false
		}
		return parts[1], status, true
	}
	if id, found := strings.CutPrefix(data, "accept_order_"); found {
		return id, models.StatusAccepted, true
	}
	if id, found := strings.CutPrefix(data, "cancel_order_"); found {
		return id, models.StatusCanceled, true
	}
	return "", "", false
}
