package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaccination-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-api/pkg/errors"
	"github.com/noah-isme/vaccination-api/pkg/response"
)

// ContextUserKey is the gin context key storing the verified claims.
const ContextUserKey = "currentUser"

type claimsVerifier interface {
	Verify(token string) (*models.Claims, error)
}

// Claims requires a bearer token issued by the auth gate and stores the
// decoded identity on the context.
func Claims(verifier claimsVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := verifier.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// CurrentClaims returns the identity stored by Claims, or nil.
func CurrentClaims(c *gin.Context) *models.Claims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.Claims)
	if !ok {
		return nil
	}
	return claims
}
