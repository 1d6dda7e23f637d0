package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

// AdminIDs : liste des Telegram IDs administrateurs (ADMIN_IDS="123,456").
func AdminIDs() []int64 {
	raw := os.Getenv("ADMIN_IDS")
	if raw == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("⚠️ ADMIN_IDS contient une valeur invalide: %q", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// IsAdmin vérifie l'appartenance à la liste ADMIN_IDS.
func IsAdmin(userID int64) bool {
	for _, id := range AdminIDs() {
		if id == userID {
			return true
		}
	}
	return false
}

func BotToken() string {
	return os.Getenv("TELEGRAM_BOT_TOKEN")
}

func JWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "change-me"
	}
	return []byte(secret)
}

// CatalogCacheTTLSeconds : TTL du cache catalogue (0 = cache désactivé).
func CatalogCacheTTLSeconds() int {
	raw := os.Getenv("CATALOG_CACHE_TTL")
	if raw == "" {
		return 60
	}
	ttl, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("⚠️ CATALOG_CACHE_TTL invalide (%q), valeur par défaut 60s", raw)
		return 60
	}
	return ttl
}

// PaymentDetails : coordonnées de virement affichées au checkout (QR code).
func PaymentDetails() string {
	return os.Getenv("PAYMENT_DETAILS")
}
