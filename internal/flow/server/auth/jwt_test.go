package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc := NewTokenService("super-secret", time.Hour)

	token, err := svc.IssueToken("order-fulfillment")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	workflow, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "order-fulfillment", workflow)
}

func TestTokenService_RejectsWrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", time.Hour)
	verifier := NewTokenService("secret-b", time.Hour)

	token, err := issuer.IssueToken("order-fulfillment")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenService_RejectsExpiredToken(t *testing.T) {
	svc := NewTokenService("super-secret", -time.Minute)

	token, err := svc.IssueToken("order-fulfillment")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenService_RejectsAlgorithmConfusion(t *testing.T) {
	svc := NewTokenService("super-secret", time.Hour)

	claims := jwt.MapClaims{"workflow": "order-fulfillment"}
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenService_RejectsMissingWorkflowClaim(t *testing.T) {
	svc := NewTokenService("super-secret", time.Hour)

	claims := jwt.MapClaims{"iat": time.Now().Unix()}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("super-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)
}
