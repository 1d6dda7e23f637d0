package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"minishop_back_end/internal/broadcast"
	"minishop_back_end/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // la mini-app est servie depuis le domaine Telegram
	},
}

type StoreHandler struct {
	Status *store.StatusStore
	Hub    *broadcast.Hub
}

// =============================================
// STATUT BOUTIQUE (mode sommeil)
// =============================================

// GetStatus : statut courant. Un réveil automatique (échéance dépassée) est
// diffusé aux abonnés temps réel.
func (h *StoreHandler) GetStatus(c *gin.Context) {
	status, woke, err := h.Status.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if woke {
		h.publish(status)
		log.Println("🔔 Boutique réveillée automatiquement (échéance dépassée)")
	}
	c.JSON(http.StatusOK, status)
}

// SetStatus (admin) : bascule le mode sommeil et diffuse le changement.
func (h *StoreHandler) SetStatus(c *gin.Context) {
	var input struct {
		IsSleepMode  bool       `json:"is_sleep_mode"`
		SleepMessage *string    `json:"sleep_message"`
		SleepUntil   *time.Time `json:"sleep_until"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Corps de requête invalide"})
		return
	}

	status, err := h.Status.Set(c.Request.Context(), input.IsSleepMode, input.SleepMessage, input.SleepUntil)
	if err != nil {
		respondError(c, err)
		return
	}
	h.publish(status)

	if input.IsSleepMode {
		log.Println("🔔 Boutique passée en mode sommeil")
	} else {
		log.Println("🔔 Boutique réveillée")
	}
	c.JSON(http.StatusOK, status)
}

func (h *StoreHandler) publish(status interface{}) {
	snapshot, err := json.Marshal(status)
	if err != nil {
		log.Printf("⚠️ Statut boutique non diffusé: %v", err)
		return
	}
	h.Hub.Publish(snapshot)
}

// StreamStatus : flux WebSocket du statut boutique. Le client reçoit
// l'instantané courant à la connexion puis chaque changement, avec un ping
// toutes les 30 secondes.
func (h *StoreHandler) StreamStatus(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ Upgrade WebSocket refusé: %v", err)
		return
	}
	defer conn.Close()

	sub := h.Hub.Subscribe()
	defer sub.Close()

	// Le hub ne retient que ce qui a déjà été publié ; au démarrage on sert
	// le statut depuis la base.
	if h.Hub.Current() == nil {
		if status, _, err := h.Status.Get(c.Request.Context()); err == nil {
			if snapshot, merr := json.Marshal(status); merr == nil {
				if werr := conn.WriteMessage(websocket.TextMessage, snapshot); werr != nil {
					return
				}
			}
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case snapshot, ok := <-sub.C:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, snapshot); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
