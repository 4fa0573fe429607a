package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims are the JWT claims carried by a bearer token. The subject is the
// account login; Authorities is a space-separated authority list.
type Claims struct {
	jwt.RegisteredClaims
	Authorities string `json:"auth"`
}

// TokenConfig holds configuration for token validation and issuance.
type TokenConfig struct {
	SecretKey string
	TokenTTL  time.Duration
	Issuer    string
}

// TokenManager validates bearer tokens and mints them for trusted callers.
// The signing algorithm is pinned to HMAC; any other method is rejected.
type TokenManager struct {
	config TokenConfig
}

func NewTokenManager(config TokenConfig) *TokenManager {
	return &TokenManager{config: config}
}

// GenerateToken signs a token for the given principal and authorities.
func (m *TokenManager) GenerateToken(login string, authorities []string) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   login,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
		},
		Authorities: strings.Join(authorities, " "),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.SecretKey))
}

// ValidateToken checks a bearer token and extracts the identity it grants.
// An invalid, expired, or tampered token yields an error, never an identity.
func (m *TokenManager) ValidateToken(tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.config.SecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		Login:       claims.Subject,
		Authorities: strings.Fields(claims.Authorities),
	}, nil
}
