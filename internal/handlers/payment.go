package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"minishop_back_end/internal/config"
)

// PaymentHandler expose les coordonnées de paiement manuelles (virement) et
// leur QR code.
type PaymentHandler struct{}

func (h *PaymentHandler) Details(c *gin.Context) {
	details := config.PaymentDetails()
	if details == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Coordonnées de paiement non configurées"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"details": details})
}

func (h *PaymentHandler) QRCode(c *gin.Context) {
	details := config.PaymentDetails()
	if details == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Coordonnées de paiement non configurées"})
		return
	}

	png, err := qrcode.Encode(details, qrcode.Medium, 256)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
