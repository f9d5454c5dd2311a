package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaccination-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-api/pkg/errors"
	"github.com/noah-isme/vaccination-api/pkg/response"
)

// RequireRoles lets the request through only when the claim carries one of
// roles. It must run after Claims.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !claims.HasRole(roles...) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role "+string(claims.Role)+" cannot access this resource"))
			c.Abort()
			return
		}
		c.Next()
	}
}
