package services

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eylulcan/amora/models"
	"github.com/eylulcan/amora/pkg"
)

// TokenValidator, access token doğrulaması için interface.
//
// Token ÜRETİMİ (login, refresh) bu servisin dışındaki auth
// sistemindedir — burada yalnızca doğrulama var. WS handshake'leri
// ve REST middleware bu interface üstünden kimlik çözer.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// jwtValidator, TokenValidator'ın HMAC-imzalı JWT implementasyonu.
type jwtValidator struct {
	secret []byte
}

// NewJWTValidator, constructor — interface döner.
func NewJWTValidator(secret []byte) TokenValidator {
	return &jwtValidator{secret: secret}
}

// ValidateAccessToken, JWT access token'ı doğrular ve claims'i döner.
func (v *jwtValidator) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		// alg confusion saldırısına karşı: yalnızca HMAC kabul edilir.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: token has no user_id", pkg.ErrUnauthorized)
	}
	return claims, nil
}
