package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaccination-api/internal/dto"
	"github.com/noah-isme/vaccination-api/internal/models"
	"github.com/noah-isme/vaccination-api/pkg/response"
)

type appointmentService interface {
	ListConfirmed(ctx context.Context, query dto.AppointmentQuery, actor *models.Claims) ([]models.AppointmentDetail, error)
	ForChild(ctx context.Context, childID string, actor *models.Claims) ([]models.AppointmentDetail, error)
}

// AppointmentHandler exposes the appointment directory.
type AppointmentHandler struct {
	service appointmentService
}

// NewAppointmentHandler builds the handler.
func NewAppointmentHandler(service appointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

// ListConfirmed godoc
// @Summary List confirmed appointments
// @Description Doctors must pass id_centro and see their own appointments; managers see their center.
// @Tags Appointments
// @Produce json
// @Param id_centro query string false "Center ID (required for doctors)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /appointments [get]
func (h *AppointmentHandler) ListConfirmed(c *gin.Context) {
	var query dto.AppointmentQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err, "invalid query parameters")
		return
	}
	items, err := h.service.ListConfirmed(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// ForChild godoc
// @Summary List a child's appointments
// @Tags Children
// @Produce json
// @Param id path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /children/{id}/appointments [get]
func (h *AppointmentHandler) ForChild(c *gin.Context) {
	items, err := h.service.ForChild(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
