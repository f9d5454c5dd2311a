package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaccination-api/internal/middleware"
	"github.com/noah-isme/vaccination-api/internal/models"
	"github.com/noah-isme/vaccination-api/pkg/response"
)

type catalogService interface {
	Lookup(ctx context.Context) ([]models.CatalogVaccine, bool, error)
	Refresh(ctx context.Context)
}

// CatalogHandler exposes the vaccine catalog.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler builds the handler.
func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// List godoc
// @Summary List vaccines with their dose offsets
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /vaccines [get]
func (h *CatalogHandler) List(c *gin.Context) {
	vaccines, hit, err := h.service.Lookup(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, vaccines, middleware.ExtractMeta(c))
}

// Refresh godoc
// @Summary Drop the cached vaccine catalog
// @Tags Catalog
// @Success 204
// @Router /vaccines/refresh [post]
func (h *CatalogHandler) Refresh(c *gin.Context) {
	h.service.Refresh(c.Request.Context())
	response.NoContent(c)
}
