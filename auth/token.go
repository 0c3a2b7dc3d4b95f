// Package auth implements the Connection Gateway's identity side:
// credential issuance and verification, account checks, and payload
// validation. It never touches shared document state.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims is the identity carried by a handshake credential.
type CustomClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates the JWTs presented at connection time.
type TokenManager struct {
	secret   []byte
	issuer   string
	duration time.Duration
}

func NewTokenManager(secret []byte, issuer string, duration time.Duration) *TokenManager {
	return &TokenManager{secret: secret, issuer: issuer, duration: duration}
}

// Generate creates a signed HS256 token for a verified account.
func (m *TokenManager) Generate(userID, name, email, role string) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID: userID,
		Name:   name,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses the token and verifies signature and expiration.
func (m *TokenManager) Validate(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
