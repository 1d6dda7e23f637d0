package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"minishop_back_end/internal/config"
)

// GenerateJWT : jeton de session émis après validation du initData Telegram.
func GenerateJWT(userID int64, isAdmin bool) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  userID,
		"is_admin": isAdmin,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(config.JWTSecret())
}
