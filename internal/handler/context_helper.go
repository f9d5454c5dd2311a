package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaccination-api/internal/middleware"
	"github.com/noah-isme/vaccination-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-api/pkg/errors"
	"github.com/noah-isme/vaccination-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.Claims {
	return middleware.CurrentClaims(c)
}

func bindError(c *gin.Context, err error, message string) {
	response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message))
}
