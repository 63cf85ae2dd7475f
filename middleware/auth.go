// Package middleware, HTTP request pipeline'ına eklenen ara katmanları barındırır.
//
// Go'da middleware bir fonksiyondur: func(next http.Handler) http.Handler.
// Kendi işini yapar (token doğrula), sonra next'i çağırır; hata varsa
// next çağrılmaz, request burada durur.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/eylulcan/amora/pkg"
	"github.com/eylulcan/amora/services"
)

// contextKey, context çakışmalarını önleyen özel tip.
type contextKey string

const userIDKey contextKey = "user_id"

// AuthMiddleware, JWT token doğrulama middleware'ı.
type AuthMiddleware struct {
	validator services.TokenValidator
}

// NewAuthMiddleware, constructor.
func NewAuthMiddleware(validator services.TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Require, JWT token zorunlu kılan middleware.
// Header formatı: Authorization: Bearer <token>.
// Token geçerliyse user ID context'e yazılır, handler UserID(r) ile okur.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		claims, err := m.validator.ValidateAccessToken(token)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID, Require'ın context'e yazdığı kullanıcı ID'sini okur.
// Middleware'dan geçmemiş bir request'te boş string döner.
func UserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
