package service

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/vaccination-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-api/pkg/errors"
)

// ClaimsVerifier decodes identity tokens forwarded by the auth gate. Tokens
// are HS256 signed with a secret shared with the gate.
type ClaimsVerifier struct {
	secret []byte
	issuer string
}

// NewClaimsVerifier constructs a verifier. An empty issuer skips the iss check.
func NewClaimsVerifier(secret, issuer string) *ClaimsVerifier {
	return &ClaimsVerifier{secret: []byte(secret), issuer: issuer}
}

// Verify validates the signature and registered claims and returns the identity.
func (v *ClaimsVerifier) Verify(tokenString string) (*models.Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token has no user identity")
	}
	role, ok := models.ParseRole(string(claims.Role))
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token has an unknown role")
	}
	claims.Role = role
	return claims, nil
}
