package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role values carried in dashboard tokens.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// DashboardClaims represents the claims in a dashboard access token
type DashboardClaims struct {
	jwt.RegisteredClaims
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"custom:role"`
	EmployeeID string `json:"custom:employeeId"`
	TokenUse   string `json:"token_use"`
	ClientID   string `json:"client_id"`
}

// IsAdmin reports whether the token carries the admin role.
func (c *DashboardClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// ParseJWT parses a JWT token and validates it
func ParseJWT(tokenString string, keyFunc jwt.Keyfunc) (*DashboardClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &DashboardClaims{}, keyFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*DashboardClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(time.Now().UTC()) {
		return nil, errors.New("token has expired")
	}

	switch claims.Role {
	case RoleAdmin, RoleEmployee:
	default:
		return nil, fmt.Errorf("unknown role %q", claims.Role)
	}

	return claims, nil
}

// ExtractBearerToken extracts the token from the Authorization header
func ExtractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("authorization header is required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("authorization header format must be: Bearer {token}")
	}

	return parts[1], nil
}
