package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nodespeak/nodespeak/config"
)

// Claims identifies the operator allowed to drive write routes of the node.
// The node signs transactions with its own wallet, so any caller holding a
// valid token spends that wallet's gas.
type Claims struct {
	Operator string `json:"operator"`
	jwt.RegisteredClaims
}

// ErrAuthDisabled is returned when no JWT secret is configured.
var ErrAuthDisabled = errors.New("jwt secret not configured")

// GenerateToken issues an operator token valid for duration.
func GenerateToken(operator string, duration time.Duration) (string, error) {
	cfg := config.Get()
	if cfg.JWTSecret == "" {
		return "", ErrAuthDisabled
	}

	claims := Claims{
		Operator: operator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operator,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken validates a JWT and returns its claims.
func ParseToken(tokenStr string) (*Claims, error) {
	cfg := config.Get()
	if cfg.JWTSecret == "" {
		return nil, ErrAuthDisabled
	}
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
