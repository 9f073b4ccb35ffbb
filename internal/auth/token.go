package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type Identity struct {
	UserID   string
	Role     string
	Username string
}

type Claims struct {
	Role     string `json:"role,omitempty"`
	Username string `json:"username,omitempty"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string {
	return c.Subject
}

func (c *Claims) Identity() Identity {
	return Identity{UserID: c.Subject, Role: c.Role, Username: c.Username}
}

func GenerateAccessToken(secret string, identity Identity, ttl time.Duration, now time.Time) (string, error) {
	return sign(secret, Claims{
		Role:     identity.Role,
		Username: identity.Username,
		Type:     TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
}

// GenerateRefreshToken carries only the account id plus a unique jti.
func GenerateRefreshToken(secret, userID string, ttl time.Duration, now time.Time) (string, error) {
	return sign(secret, Claims{
		Type: TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
}

func sign(secret string, claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func ParseAccessToken(secret, raw string) (*Claims, error) {
	return parseTyped(secret, raw, TokenTypeAccess)
}

func ParseRefreshToken(secret, raw string) (*Claims, error) {
	return parseTyped(secret, raw, TokenTypeRefresh)
}

func parseTyped(secret, raw, tokenType string) (*Claims, error) {
	claims, err := ParseToken(secret, raw)
	if err != nil {
		return nil, err
	}
	if claims.Type != tokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
