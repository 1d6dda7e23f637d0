package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"minishop_back_end/internal/models"
	"minishop_back_end/internal/shop"
)

const defaultAPIBase = "https://api.telegram.org"

// TelegramNotifier : canal sortant vers le Bot API. Entièrement best-effort :
// timeouts courts, échecs tracés mais jamais remontés — une notification
// ratée ne doit pas faire échouer la création de commande ni un changement
// de statut.
type TelegramNotifier struct {
	Token    string
	AdminIDs []int64
	Receipts shop.BlobStore
	APIBase  string // surchargé en test
	Client   *http.Client
}

func NewTelegramNotifier(token string, adminIDs []int64, receipts shop.BlobStore) *TelegramNotifier {
	return &TelegramNotifier{
		Token:    token,
		AdminIDs: adminIDs,
		Receipts: receipts,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *TelegramNotifier) apiURL(method string) string {
	base := n.APIBase
	if base == "" {
		base = defaultAPIBase
	}
	return fmt.Sprintf("%s/bot%s/%s", base, n.Token, method)
}

// post envoie un appel JSON au Bot API et retourne true si Telegram répond ok.
func (n *TelegramNotifier) post(method string, payload map[string]interface{}) bool {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("⚠️ Telegram %s: encodage impossible: %v", method, err)
		return false
	}

	resp, err := n.Client.Post(n.apiURL(method), "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("⚠️ Telegram %s: %v", method, err)
		return false
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Printf("⚠️ Telegram %s: réponse illisible: %v", method, err)
		return false
	}
	if !result.OK {
		// Un client qui a bloqué le bot n'est pas une anomalie.
		desc := strings.ToLower(result.Description)
		if strings.Contains(desc, "blocked") || strings.Contains(desc, "chat not found") {
			return false
		}
		log.Printf("⚠️ Telegram %s refusé: %s", method, result.Description)
		return false
	}
	return true
}

// NewOrder notifie chaque administrateur avec le justificatif en pièce
// jointe et un clavier inline de changement de statut.
func (n *TelegramNotifier) NewOrder(order *models.Order) {
	if n.Token == "" {
		log.Println("⚠️ TELEGRAM_BOT_TOKEN non configuré — notification ignorée")
		return
	}
	if len(n.AdminIDs) == 0 {
		log.Println("⚠️ ADMIN_IDS non configuré — notification ignorée")
		return
	}

	message := formatNewOrder(order)
	keyboard := statusKeyboard(order.ID.Hex())

	var receipt []byte
	var filename string
	if order.PaymentReceipt != nil && n.Receipts != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		data, _, err := n.Receipts.Fetch(ctx, order.PaymentReceipt.FileID)
		cancel()
		if err != nil {
			log.Printf("⚠️ Justificatif %s introuvable pour la notification: %v", order.PaymentReceipt.FileID, err)
		} else {
			receipt = data
			filename = order.PaymentReceipt.Filename
		}
	}

	sent := 0
	for _, adminID := range n.AdminIDs {
		ok := false
		if receipt != nil {
			ok = n.sendFile(adminID, receipt, filename, message, keyboard)
		}
		if !ok {
			ok = n.post("sendMessage", map[string]interface{}{
				"chat_id":      adminID,
				"text":         message,
				"parse_mode":   "Markdown",
				"reply_markup": keyboard,
			})
		}
		if ok {
			sent++
		}
	}

	if sent > 0 {
		log.Printf("🔔 Nouvelle commande %s notifiée à %d administrateur(s)", order.ID.Hex(), sent)
	}
	if sent < len(n.AdminIDs) {
		log.Printf("⚠️ Notification non délivrée à %d administrateur(s)", len(n.AdminIDs)-sent)
	}
}

// sendFile pousse le justificatif en photo (formats image) ou en document,
// avec le message en légende et le clavier de statut.
func (n *TelegramNotifier) sendFile(chatID int64, data []byte, filename, caption string, keyboard map[string]interface{}) bool {
	method, field := "sendDocument", "document"
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".webp", ".heic", ".heif":
		method, field = "sendPhoto", "photo"
	}

	markup, _ := json.Marshal(keyboard)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	_ = writer.WriteField("chat_id", fmt.Sprintf("%d", chatID))
	_ = writer.WriteField("caption", caption)
	_ = writer.WriteField("parse_mode", "Markdown")
	_ = writer.WriteField("reply_markup", string(markup))
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return false
	}
	if _, err := part.Write(data); err != nil {
		return false
	}
	if err := writer.Close(); err != nil {
		return false
	}

	resp, err := n.Client.Post(n.apiURL(method), writer.FormDataContentType(), &buf)
	if err != nil {
		log.Printf("⚠️ Telegram %s: %v", method, err)
		return false
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil || !result.OK {
		log.Printf("⚠️ Telegram %s refusé pour %d: %s", method, chatID, result.Description)
		return false
	}
	return true
}

// OrderStatusChanged prévient le client du nouveau statut de sa commande.
func (n *TelegramNotifier) OrderStatusChanged(order *models.Order) {
	if n.Token == "" {
		return
	}

	message := fmt.Sprintf("%s\n\n📋 Commande : `%s`\n📊 Statut : *%s*",
		statusHeadline(order.Status), shortOrderID(order.ID.Hex()), statusLabel(order.Status))

	if n.post("sendMessage", map[string]interface{}{
		"chat_id":    order.UserID,
		"text":       message,
		"parse_mode": "Markdown",
	}) {
		log.Printf("🔔 Client %d notifié du statut %s (commande %s)", order.UserID, order.Status, order.ID.Hex())
	}
}

// SendMessage : envoi simple (diffusions admin). Retourne true si délivré.
func (n *TelegramNotifier) SendMessage(chatID int64, text string) bool {
	if n.Token == "" {
		return false
	}
	return n.post("sendMessage", map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
}

// AnswerCallback répond au callback query d'un clavier inline.
func (n *TelegramNotifier) AnswerCallback(callbackQueryID, text string, showAlert bool) {
	if n.Token == "" {
		return
	}
	n.post("answerCallbackQuery", map[string]interface{}{
		"callback_query_id": callbackQueryID,
		"text":              text,
		"show_alert":        showAlert,
	})
}

// ClearReplyMarkup retire le clavier inline d'un message déjà envoyé.
func (n *TelegramNotifier) ClearReplyMarkup(chatID, messageID int64) {
	if n.Token == "" {
		return
	}
	n.post("editMessageReplyMarkup", map[string]interface{}{
		"chat_id":      chatID,
		"message_id":   messageID,
		"reply_markup": map[string]interface{}{"inline_keyboard": [][]interface{}{}},
	})
}

// statusKeyboard : clavier inline des transitions de statut, format de
// callback "status|{order_id}|{status}".
func statusKeyboard(orderID string) map[string]interface{} {
	button := func(label string, status models.OrderStatus) map[string]interface{} {
		return map[string]interface{}{
			"text":          label,
			"callback_data": fmt.Sprintf("status|%s|%s", orderID, status),
		}
	}
	return map[string]interface{}{
		"inline_keyboard": []interface{}{
			[]interface{}{
				button("✅ Acceptée", models.StatusAccepted),
				button("🚚 Expédiée", models.StatusShipped),
			},
			[]interface{}{
				button("🎉 Terminée", models.StatusDone),
				button("❌ Annuler", models.StatusCanceled),
			},
		},
	}
}
