package notifications

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/wneessen/go-mail"

	"minishop_back_end/internal/models"
)

// MailNotifier : copie e-mail optionnelle des nouvelles commandes, pour les
// boutiques qui veulent une trace hors Telegram. Ne porte pas les changements
// de statut.
type MailNotifier struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// NewMailNotifierFromEnv retourne nil si SMTP_HOST n'est pas configuré.
func NewMailNotifierFromEnv() *MailNotifier {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return nil
	}
	port := 587
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && p > 0 {
		port = p
	}
	to := os.Getenv("ORDER_EMAIL_TO")
	if to == "" {
		return nil
	}
	return &MailNotifier{
		Host:     host,
		Port:     port,
		Username: os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
		To:       []string{to},
	}
}

func (m *MailNotifier) NewOrder(order *models.Order) {
	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		log.Printf("⚠️ E-mail commande: expéditeur invalide: %v", err)
		return
	}
	if err := msg.To(m.To...); err != nil {
		log.Printf("⚠️ E-mail commande: destinataire invalide: %v", err)
		return
	}
	msg.Subject(fmt.Sprintf("Nouvelle commande %s — %s €", shortOrderID(order.ID.Hex()), FormatAmount(order.TotalAmount)))

	body := fmt.Sprintf("Commande : %s\nClient : %s\nTéléphone : %s\nAdresse : %s\nMontant : %s €\nArticles : %d\n",
		order.ID.Hex(), order.CustomerName, order.CustomerPhone, order.DeliveryAddress,
		FormatAmount(order.TotalAmount), len(order.Items))
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(m.Host,
		mail.WithPort(m.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.Username),
		mail.WithPassword(m.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		log.Printf("⚠️ E-mail commande: client SMTP: %v", err)
		return
	}
	if err := client.DialAndSend(msg); err != nil {
		log.Printf("⚠️ E-mail commande non envoyé: %v", err)
		return
	}
	log.Printf("✅ E-mail envoyé pour la commande %s", order.ID.Hex())
}

func (m *MailNotifier) OrderStatusChanged(order *models.Order) {}

// Fanout répartit chaque notification sur plusieurs canaux.
type Fanout []interface {
	NewOrder(order *models.Order)
	OrderStatusChanged(order *models.Order)
}

func (f Fanout) NewOrder(order *models.Order) {
	for _, n := range f {
		n.NewOrder(order)
	}
}

func (f Fanout) OrderStatusChanged(order *models.Order) {
	for _, n := range f {
		n.OrderStatusChanged(order)
	}
}
