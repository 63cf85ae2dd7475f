package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, JWT access token'ın payload'ı.
//
// Token'ı dış auth servisi üretir — bu core sadece doğrular.
// Struct models paketinde tanımlanır çünkü birden fazla katman
// (services, handlers, middleware) tarafından kullanılır ve
// circular dependency'yi önler.
type TokenClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
