// Package auth validates the bearer tokens that the back-office login service
// issues. Tokens carry the caller's role and the location they operate from.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/enum"
)

// TokenTTL bounds tokens minted here (dev seed and tests).
const TokenTTL = 12 * time.Hour

var ErrInvalidClaims = errors.New("invalid token claims")

type Claims struct {
	UserID   string `json:"user_id"`
	Location string `json:"location"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token may act on any location.
func (c *Claims) IsAdmin() bool {
	return c != nil && c.Role == enum.RoleAdmin
}

func (c *Claims) normalize() error {
	c.Role = strings.ToUpper(strings.TrimSpace(c.Role))
	c.Location = strings.TrimSpace(c.Location)
	if c.UserID == "" {
		c.UserID = c.Subject
	}

	switch c.Role {
	case enum.RoleAdmin:
	case enum.RoleStaff:
		if c.Location == "" {
			return fmt.Errorf("%w: staff token without location", ErrInvalidClaims)
		}
	default:
		return fmt.Errorf("%w: role %q", ErrInvalidClaims, c.Role)
	}
	if c.UserID == "" {
		return fmt.Errorf("%w: missing user", ErrInvalidClaims)
	}
	return nil
}

func GenerateToken(secret, userID, location, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Location: location,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if err := claims.normalize(); err != nil {
		return "", err
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ValidateToken parses an HS256 token and checks that its claims name a known
// role.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if err := claims.normalize(); err != nil {
		return nil, err
	}
	return claims, nil
}
