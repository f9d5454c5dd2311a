package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaccination-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-api/pkg/errors"
	"github.com/noah-isme/vaccination-api/pkg/response"
)

type lotService interface {
	ListAvailableLots(ctx context.Context, vaccineID, centerID string) ([]models.VaccineLot, error)
}

// LotHandler exposes vaccine lot availability.
type LotHandler struct {
	service lotService
}

// NewLotHandler builds the handler.
func NewLotHandler(service lotService) *LotHandler {
	return &LotHandler{service: service}
}

// ListAvailable godoc
// @Summary List usable lots of a vaccine, earliest expiry first
// @Description The center comes from the caller's claim; id_centro is used when the claim has none.
// @Tags Lots
// @Produce json
// @Param vaccineId path string true "Vaccine ID"
// @Param id_centro query string false "Center ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /vaccine-lots/{vaccineId} [get]
func (h *LotHandler) ListAvailable(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	centerID := claims.CenterID
	if centerID == "" {
		centerID = c.Query("id_centro")
	}
	lots, err := h.service.ListAvailableLots(c.Request.Context(), c.Param("vaccineId"), centerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lots, nil)
}
