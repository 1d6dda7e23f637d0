package notifications

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"minishop_back_end/internal/models"
)

// FormatAmount affiche un montant sans zéros terminaux inutiles :
// 42 → "42", 42.5 → "42.5", 42.55 → "42.55".
func FormatAmount(amount float64) string {
	if amount == math.Trunc(amount) {
		return strconv.FormatInt(int64(amount), 10)
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", amount), "0"), ".")
}

// shortOrderID : les 6 derniers caractères de l'ObjectID, suffisant pour
// qu'un humain identifie la commande.
func shortOrderID(hexID string) string {
	if len(hexID) <= 6 {
		return hexID
	}
	return hexID[len(hexID)-6:]
}

func formatNewOrder(order *models.Order) string {
	var sb strings.Builder
	sb.WriteString("🆕 *Nouvelle commande !*\n\n")
	fmt.Fprintf(&sb, "📋 Commande : `%s`\n", shortOrderID(order.ID.Hex()))
	fmt.Fprintf(&sb, "👤 Client : %s\n", order.CustomerName)
	fmt.Fprintf(&sb, "📞 Téléphone : %s\n", order.CustomerPhone)
	if order.DeliveryAddress != "" {
		mapsLink := "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(order.DeliveryAddress)
		fmt.Fprintf(&sb, "📍 Adresse : [%s](%s)\n", order.DeliveryAddress, mapsLink)
	}
	if order.Comment != "" {
		fmt.Fprintf(&sb, "💬 Commentaire : %s\n", order.Comment)
	}
	fmt.Fprintf(&sb, "💰 Montant : %s €\n\n", FormatAmount(order.TotalAmount))

	sb.WriteString("🛍 *Articles :*\n")
	for _, item := range order.Items {
		name := item.ProductName
		if item.VariantName != "" {
			name += " (" + item.VariantName + ")"
		}
		fmt.Fprintf(&sb, "• %s × %d — %s €\n", name, item.Quantity, FormatAmount(item.Price*float64(item.Quantity)))
	}
	return sb.String()
}

func statusHeadline(status models.OrderStatus) string {
	switch status {
	case models.StatusAccepted:
		return "✅ *Votre commande est acceptée !*"
	case models.StatusShipped:
		return "🚚 *Votre commande est en route !*"
	case models.StatusDone:
		return "🎉 *Votre commande est livrée. Merci !*"
	case models.StatusCanceled:
		return "❌ *Votre commande a été annulée.*"
	case models.StatusProcessing:
		return "⏳ *Votre commande est en cours de traitement.*"
	default:
		return "📦 *Le statut de votre commande a changé.*"
	}
}

func statusLabel(status models.OrderStatus) string {
	switch status {
	case models.StatusNew:
		return "Nouvelle"
	case models.StatusProcessing:
		return "En traitement"
	case models.StatusAccepted:
		return "Acceptée"
	case models.StatusShipped:
		return "Expédiée"
	case models.StatusDone:
		return "Terminée"
	case models.StatusCanceled:
		return "Annulée"
	default:
		return string(status)
	}
}
