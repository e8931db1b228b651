package utils

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the admin session claims carried by issued tokens.
type Claims struct {
	UserID int    `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

var (
	jwtMu     sync.RWMutex
	jwtSecret []byte
	jwtTTL    = 24 * time.Hour
)

// InitJWT sets the signing secret and token lifetime. Call once at startup.
func InitJWT(secret string, ttl time.Duration) {
	jwtMu.Lock()
	defer jwtMu.Unlock()
	jwtSecret = []byte(secret)
	if ttl > 0 {
		jwtTTL = ttl
	}
}

// GenerateJWT issues an HS256 token for an admin user.
func GenerateJWT(userID int, email string) (string, error) {
	jwtMu.RLock()
	secret, ttl := jwtSecret, jwtTTL
	jwtMu.RUnlock()
	if len(secret) == 0 {
		return "", fmt.Errorf("jwt secret not configured")
	}

	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ValidateJWT parses token and returns its claims. Expired tokens and tokens signed
// with anything but HS256 are rejected with ErrInvalidToken.
func ValidateJWT(token string) (*Claims, error) {
	jwtMu.RLock()
	secret := jwtSecret
	jwtMu.RUnlock()

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
