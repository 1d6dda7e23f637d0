package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// TelegramUser : champ "user" du initData de la WebApp.
type TelegramUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

var (
	ErrInvalidInitData = errors.New("initData Telegram invalide")
	ErrExpiredInitData = errors.New("initData Telegram expiré")
)

// Fenêtre de validité d'un initData. Au-delà, on force une ré-ouverture de
// la mini-app.
const initDataMaxAge = 24 * time.Hour

// ValidateInitData vérifie la signature HMAC du initData transmis par la
// mini-app Telegram et retourne l'utilisateur authentifié.
//
// Schéma officiel : secret = HMAC_SHA256("WebAppData", bot_token), signature
// attendue = HMAC_SHA256(secret, data_check_string) où la data_check_string
// est la liste "clé=valeur" triée (hash exclu), jointe par '\n'.
func ValidateInitData(initData, botToken string) (*TelegramUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, ErrInvalidInitData
	}

	receivedHash := values.Get("hash")
	if receivedHash == "" {
		return nil, ErrInvalidInitData
	}

	pairs := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		pairs = append(pairs, fmt.Sprintf("%s=%s", key, values.Get(key)))
	}
	sort.Strings(pairs)
	dataCheckString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(dataCheckString))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(receivedHash)) {
		return nil, ErrInvalidInitData
	}

	if authDate := values.Get("auth_date"); authDate != "" {
		var unix int64
		if _, err := fmt.Sscanf(authDate, "%d", &unix); err == nil {
			if time.Since(time.Unix(unix, 0)) > initDataMaxAge {
				return nil, ErrExpiredInitData
			}
		}
	}

	userJSON := values.Get("user")
	if userJSON == "" {
		return nil, ErrInvalidInitData
	}
	var user TelegramUser
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil || user.ID == 0 {
		return nil, ErrInvalidInitData
	}
	return &user, nil
}

// SignInitData calcule la signature d'un jeu de paramètres (utilisé par les
// tests pour fabriquer un initData valide).
func SignInitData(values url.Values, botToken string) string {
	pairs := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		pairs = append(pairs, fmt.Sprintf("%s=%s", key, values.Get(key)))
	}
	sort.Strings(pairs)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}
