// Package auth issues and validates the bearer tokens a webhook client
// presents to trigger or stream a workflow, grounded on the teacher's HS256
// AuthService.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues and validates HS256 JWTs scoped to a single workflow
// name, so a token minted for "order-processing" cannot trigger or stream
// any other workflow.
type TokenService struct {
	secretKey []byte
	tokenTTL  time.Duration
}

// NewTokenService builds a TokenService from the configured secret.
func NewTokenService(secretKey string, tokenTTL time.Duration) *TokenService {
	return &TokenService{secretKey: []byte(secretKey), tokenTTL: tokenTTL}
}

// IssueToken mints a token authorizing its bearer to trigger and stream the
// named workflow.
func (s *TokenService) IssueToken(workflow string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"workflow": workflow,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ValidateToken parses and verifies a token, returning the workflow name it
// is scoped to.
func (s *TokenService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != "HS256" {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}
	workflow, ok := claims["workflow"].(string)
	if !ok || workflow == "" {
		return "", fmt.Errorf("token is not scoped to a workflow")
	}
	return workflow, nil
}
