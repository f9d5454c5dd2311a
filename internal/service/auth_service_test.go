package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vaccination-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-api/pkg/errors"
)

const testSecret = "test-secret"

func signClaims(t *testing.T, method jwt.SigningMethod, key interface{}, claims models.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims(role models.Role) models.Claims {
	return models.Claims{
		UserID:   uuid.NewString(),
		Role:     role,
		CenterID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "auth-gate",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestClaimsVerifierAcceptsValidToken(t *testing.T) {
	verifier := NewClaimsVerifier(testSecret, "auth-gate")
	claims := validClaims("doctor")

	got, err := verifier.Verify(signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), claims))
	require.NoError(t, err)
	assert.Equal(t, claims.UserID, got.UserID)
	assert.Equal(t, models.RoleDoctor, got.Role)
	assert.Equal(t, claims.CenterID, got.CenterID)
}

func TestClaimsVerifierRejects(t *testing.T) {
	verifier := NewClaimsVerifier(testSecret, "auth-gate")

	expired := validClaims(models.RoleNurse)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongIssuer := validClaims(models.RoleNurse)
	wrongIssuer.Issuer = "someone-else"

	noUser := validClaims(models.RoleNurse)
	noUser.UserID = ""

	badRole := validClaims("JANITOR")

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong secret", token: signClaims(t, jwt.SigningMethodHS256, []byte("other"), validClaims(models.RoleNurse))},
		{name: "wrong algorithm", token: signClaims(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims(models.RoleNurse))},
		{name: "expired", token: signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), expired)},
		{name: "wrong issuer", token: signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), wrongIssuer)},
		{name: "missing user", token: signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), noUser)},
		{name: "unknown role", token: signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), badRole)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := verifier.Verify(tc.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
		})
	}
}

func TestClaimsVerifierWithoutIssuer(t *testing.T) {
	verifier := NewClaimsVerifier(testSecret, "")
	claims := validClaims(models.RoleTutor)
	claims.Issuer = "anything"

	got, err := verifier.Verify(signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), claims))
	require.NoError(t, err)
	assert.Equal(t, models.RoleTutor, got.Role)
}
